package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/annel0/blockworld/internal/config"
	"github.com/annel0/blockworld/internal/discovery"
	"github.com/annel0/blockworld/internal/eventbus"
	"github.com/annel0/blockworld/internal/logging"
	"github.com/annel0/blockworld/internal/runtime"
	"github.com/annel0/blockworld/internal/storage"
	"github.com/annel0/blockworld/internal/sync"
	"github.com/annel0/blockworld/internal/vec"
	"github.com/annel0/blockworld/internal/world"
)

func main() {
	configPath := flag.String("config", "", "путь к YAML конфигурации")
	flag.Parse()

	// Инициализируем систему логирования
	if err := logging.InitDefaultLogger("server"); err != nil {
		log.Fatalf("❌ Ошибка инициализации логирования: %v", err)
	}
	defer logging.CloseDefaultLogger()

	logging.Info("🌍 Запуск BlockWorld сервера синхронизации мира...")

	// === КОНФИГУРАЦИЯ ===
	cfg, err := config.Load(*configPath)
	if err != nil {
		logging.Error("❌ Ошибка чтения конфигурации: %v", err)
		log.Fatalf("❌ Ошибка чтения конфигурации: %v", err)
	}
	logging.Info("📡 Мир %q, радиус загрузки %d, хранилище %s",
		cfg.World.Name, cfg.World.LoadRadius, cfg.Storage.DataPath)

	// Контекст жизни процесса: отменяется по SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	playerID := uuid.NewString()
	logging.Info("👤 Идентификатор этого процесса: %s", playerID)

	// === ПОИСК БРОКЕРА ===
	busURL := cfg.EventBus.GetURL()
	if cfg.Discovery.Enabled {
		if url := discoverBroker(ctx, cfg); url != "" {
			busURL = url
		} else if cfg.EventBus.FallbackURL != "" {
			logging.Warn("⚠️ Брокер не найден через mDNS, используем fallback %s", cfg.EventBus.FallbackURL)
			busURL = cfg.EventBus.FallbackURL
		}
	}
	if ctx.Err() != nil {
		logging.Info("📡 Завершение до подключения к брокеру")
		return
	}

	// === ШИНА СОБЫТИЙ ===
	logging.Debug("Подключение к шине %s...", busURL)
	bus, err := eventbus.NewNatsBus(busURL, cfg.EventBus.GetTopicPrefix())
	if err != nil {
		logging.Error("❌ Ошибка подключения к шине: %v", err)
		log.Fatalf("❌ Ошибка подключения к шине: %v", err)
	}
	defer bus.Close()

	exporter := eventbus.NewMetricsExporter(bus)
	go exporter.Run(cfg.Metrics.GetPort())
	defer exporter.Stop()

	// === МИР ===
	generator := world.NewGenerator(cfg.World.Seed)
	cm := world.NewChunkManagerWithGenerator(generator)
	ls := world.NewLoadingStateWithTimeout(time.Duration(cfg.World.RequestTimeout) * time.Second)

	store, err := storage.NewSnapshotStore(cfg.Storage.DataPath)
	if err != nil {
		logging.Error("❌ Ошибка открытия хранилища: %v", err)
		log.Fatalf("❌ Ошибка открытия хранилища: %v", err)
	}
	defer store.Close()

	restored, err := store.Load(cfg.World.Name)
	if err != nil {
		logging.Error("Ошибка чтения снапшота %q: %v", cfg.World.Name, err)
		restored = nil
	} else if restored != nil {
		storage.Import(restored, cm)
		logging.Info("💾 Восстановлен мир %q: %d блоков", cfg.World.Name, len(restored.Blocks))
	}

	// === СИНХРОНИЗАЦИЯ ===
	prop := sync.NewPropagator(cm, bus, cfg.World.Name)
	loop := runtime.NewLoop(cm, ls, prop)
	loop.SetLoadRadius(cfg.World.LoadRadius)

	// Чанки держатся загруженными вокруг позиции игрока из снапшота;
	// у нового мира это спавн в начале координат
	observerPos := vec.Vec3Float{}
	if restored != nil {
		observerPos = vec.Vec3Float{X: restored.Player.X, Y: restored.Player.Y, Z: restored.Player.Z}
	}
	loop.SetObserver(&runtime.StaticObserver{Pos: observerPos})

	changes, err := sync.NewBlockChangeConsumer(bus, playerID, loop.Changes.Offer)
	if err != nil {
		logging.Error("❌ Ошибка подписки на изменения блоков: %v", err)
		log.Fatalf("❌ Ошибка подписки на изменения блоков: %v", err)
	}
	defer changes.Stop()

	sensors, err := sync.NewSensorConsumer(bus, loop.Sensors.Offer)
	if err != nil {
		logging.Error("Ошибка подписки на датчики: %v", err)
	} else {
		defer sensors.Stop()
	}

	announces, err := sync.NewAnnounceConsumer(bus, loop.Announcements.Offer)
	if err != nil {
		logging.Error("Ошибка подписки на анонсы устройств: %v", err)
	} else {
		defer announces.Stop()
	}

	logging.Info("✅ Все сервисы запущены")
	logging.Info("   📨 Шина событий: %s (префикс %s)", busURL, cfg.EventBus.GetTopicPrefix())
	logging.Info("   📊 Метрики: http://localhost:%d/metrics", cfg.Metrics.GetPort())

	// === ИГРОВОЙ ЦИКЛ ===
	loop.Run(ctx)

	// === GRACEFUL SHUTDOWN ===
	logging.Info("📡 Завершение работы, сохранение мира...")

	save := storage.NextSave(cm, restored, cfg.World.Name, "мир сервера синхронизации")
	if err := store.Save(save); err != nil {
		logging.Error("❌ Ошибка сохранения мира: %v", err)
	} else {
		logging.Info("💾 Мир %q сохранён: %d блоков", cfg.World.Name, len(save.Blocks))
	}

	logging.Info("✅ Сервер корректно завершил работу")
}

// discoverBroker ищет брокер через mDNS, не переживая сигнал
// завершения: поиск выполняется в горутине, а результат опоздавшего
// сканирования просто игнорируется.
func discoverBroker(ctx context.Context, cfg *config.Config) string {
	scanTimeout := time.Duration(cfg.Discovery.ScanSeconds) * time.Second
	probeTimeout := time.Duration(cfg.Discovery.ProbeSeconds) * time.Second

	logging.Info("🔍 Поиск брокера в локальной сети (%v)...", scanTimeout)

	type result struct {
		svc *discovery.DiscoveredService
		err error
	}
	resCh := make(chan result, 1)
	go func() {
		svc, err := discovery.New().DiscoverBestVerified(ctx, scanTimeout, probeTimeout)
		resCh <- result{svc, err}
	}()

	select {
	case <-ctx.Done():
		return ""
	case res := <-resCh:
		if res.err != nil {
			logging.Warn("⚠️ Ошибка поиска брокера: %v", res.err)
			return ""
		}
		if res.svc == nil {
			return ""
		}
		return "nats://" + res.svc.BrokerAddr()
	}
}
