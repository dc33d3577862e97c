package config

import (
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config корневая структура конфигурации приложения.
type Config struct {
	EventBus  EventBusConfig  `yaml:"eventbus"`
	Discovery DiscoveryConfig `yaml:"discovery"`
	World     WorldConfig     `yaml:"world"`
	Storage   StorageConfig   `yaml:"storage"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

type EventBusConfig struct {
	URL         string `yaml:"url"`
	FallbackURL string `yaml:"fallback_url"`
	TopicPrefix string `yaml:"topic_prefix"`
}

type DiscoveryConfig struct {
	Enabled      bool `yaml:"enabled"`
	ScanSeconds  int  `yaml:"scan_timeout_seconds"`
	ProbeSeconds int  `yaml:"probe_timeout_seconds"`
}

type WorldConfig struct {
	Name           string `yaml:"name"`
	Seed           int64  `yaml:"seed"`
	LoadRadius     int    `yaml:"load_radius"`
	RequestTimeout int    `yaml:"request_timeout_seconds"`
}

type StorageConfig struct {
	DataPath string `yaml:"data_path"`
}

type MetricsConfig struct {
	Port int `yaml:"port"`
}

// GetURL возвращает URL брокера с приоритетом: config -> env -> default
func (e *EventBusConfig) GetURL() string {
	if e.URL != "" {
		return e.URL
	}
	if env := os.Getenv("BLOCKWORLD_NATS_URL"); env != "" {
		return env
	}
	return "nats://127.0.0.1:4222"
}

// GetTopicPrefix возвращает префикс топиков шины
func (e *EventBusConfig) GetTopicPrefix() string {
	if e.TopicPrefix != "" {
		return e.TopicPrefix
	}
	return "blockworld"
}

// GetPort возвращает порт метрик с поддержкой fallback значений
func (m *MetricsConfig) GetPort() int {
	return getPortWithEnvFallback(m.Port, "BLOCKWORLD_METRICS_PORT", 2112)
}

// getPortWithEnvFallback возвращает порт с приоритетом: config -> env -> default
func getPortWithEnvFallback(configPort int, envVar string, defaultPort int) int {
	if configPort > 0 {
		return configPort
	}

	if envVal := os.Getenv(envVar); envVal != "" {
		if port, err := strconv.Atoi(envVal); err == nil && port > 0 {
			return port
		}
	}

	return defaultPort
}

// Defaults возвращает конфигурацию по умолчанию
func Defaults() *Config {
	return &Config{
		Discovery: DiscoveryConfig{
			Enabled:      true,
			ScanSeconds:  5,
			ProbeSeconds: 2,
		},
		World: WorldConfig{
			Name:           "default",
			Seed:           12345,
			LoadRadius:     2,
			RequestTimeout: 10,
		},
		Storage: StorageConfig{
			DataPath: "data",
		},
	}
}

// Load читает YAML файл конфигурации поверх значений по умолчанию.
// Если path == "", пытается прочитать из ENV BLOCKWORLD_CONFIG;
// без файла возвращаются значения по умолчанию.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path == "" {
		path = os.Getenv("BLOCKWORLD_CONFIG")
		if path == "" {
			return cfg, nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}
