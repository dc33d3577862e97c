package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()

	assert.Equal(t, "default", cfg.World.Name)
	assert.Equal(t, 2, cfg.World.LoadRadius, "радиус загрузки по умолчанию должен быть 2")
	assert.Equal(t, 10, cfg.World.RequestTimeout)
	assert.True(t, cfg.Discovery.Enabled)
}

func TestLoad_NoFile_ReturnsDefaults(t *testing.T) {
	t.Setenv("BLOCKWORLD_CONFIG", "")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Defaults(), cfg)
}

func TestLoad_YAMLOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	data := `
eventbus:
  url: nats://broker.local:4222
  topic_prefix: testworld
world:
  name: alpha
  seed: 777
  load_radius: 3
metrics:
  port: 9100
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "nats://broker.local:4222", cfg.EventBus.GetURL())
	assert.Equal(t, "testworld", cfg.EventBus.GetTopicPrefix())
	assert.Equal(t, "alpha", cfg.World.Name)
	assert.Equal(t, int64(777), cfg.World.Seed)
	assert.Equal(t, 3, cfg.World.LoadRadius)
	assert.Equal(t, 9100, cfg.Metrics.GetPort())

	// не указанные секции остаются дефолтными
	assert.Equal(t, 10, cfg.World.RequestTimeout)
	assert.True(t, cfg.Discovery.Enabled)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yml"))
	assert.Error(t, err)
}

func TestEventBusConfig_EnvFallback(t *testing.T) {
	t.Setenv("BLOCKWORLD_NATS_URL", "nats://env-host:4222")

	e := EventBusConfig{}
	assert.Equal(t, "nats://env-host:4222", e.GetURL())

	e.URL = "nats://explicit:4222"
	assert.Equal(t, "nats://explicit:4222", e.GetURL(), "явное значение важнее ENV")
}

func TestMetricsConfig_PortFallbacks(t *testing.T) {
	t.Setenv("BLOCKWORLD_METRICS_PORT", "")

	m := MetricsConfig{}
	assert.Equal(t, 2112, m.GetPort())

	t.Setenv("BLOCKWORLD_METRICS_PORT", "3000")
	assert.Equal(t, 3000, m.GetPort())

	m.Port = 4000
	assert.Equal(t, 4000, m.GetPort())
}
