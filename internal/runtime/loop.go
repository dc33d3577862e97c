package runtime

import (
	"context"
	"time"

	"github.com/annel0/blockworld/internal/logging"
	"github.com/annel0/blockworld/internal/sync"
	"github.com/annel0/blockworld/internal/vec"
	"github.com/annel0/blockworld/internal/world"
)

// DefaultTickInterval — период тика игрового цикла.
const DefaultTickInterval = 50 * time.Millisecond

// Observer — источник позиции, вокруг которой нужно держать
// загруженные чанки (локальный игрок, камера-наблюдатель).
type Observer interface {
	Position() vec.Vec3Float
}

// StaticObserver — наблюдатель с фиксированной позицией, например
// позиция игрока из восстановленного снапшота.
type StaticObserver struct {
	Pos vec.Vec3Float
}

func (o *StaticObserver) Position() vec.Vec3Float { return o.Pos }

// Loop — однопоточный игровой цикл. Он единственный владелец
// ChunkManager и LoadingState: воркеры шины кладут сообщения в
// inbox'ы, а применяются изменения только внутри Tick. Это убирает
// необходимость в блокировках на структурах мира.
type Loop struct {
	World      *world.ChunkManager
	Loading    *world.LoadingState
	Propagator *sync.Propagator

	Changes       *Inbox[*sync.BlockChange]
	Sensors       *Inbox[sync.SensorReading]
	Announcements *Inbox[*sync.DeviceAnnouncement]

	loader   *world.ChunkLoader
	observer Observer

	interval time.Duration
	ticks    uint64

	devices map[string]*sync.DeviceAnnouncement
}

// NewLoop собирает цикл вокруг уже созданных компонентов мира.
func NewLoop(cm *world.ChunkManager, ls *world.LoadingState, prop *sync.Propagator) *Loop {
	return &Loop{
		World:         cm,
		Loading:       ls,
		Propagator:    prop,
		Changes:       NewInbox[*sync.BlockChange](1024),
		Sensors:       NewInbox[sync.SensorReading](256),
		Announcements: NewInbox[*sync.DeviceAnnouncement](64),
		loader:        world.NewChunkLoader(),
		interval:      DefaultTickInterval,
		devices:       make(map[string]*sync.DeviceAnnouncement),
	}
}

// SetObserver задаёт наблюдателя, вокруг которого грузятся чанки.
func (l *Loop) SetObserver(obs Observer) {
	l.observer = obs
}

// SetLoadRadius меняет радиус загрузки чанков.
func (l *Loop) SetLoadRadius(radius int) {
	l.loader.LoadRadius = radius
}

// SetTickInterval меняет период тика (до запуска Run).
func (l *Loop) SetTickInterval(d time.Duration) {
	l.interval = d
}

// Tick выполняет один шаг цикла: дренаж очередей, подгрузка чанков
// вокруг наблюдателя, очистка просроченных запросов.
func (l *Loop) Tick(ctx context.Context) {
	l.ticks++

	for _, change := range l.Changes.Drain(0) {
		if err := l.Propagator.Handle(ctx, change); err != nil {
			logging.Warn("Loop: изменение %s не применено: %v", change.ID, err)
		}
	}

	for _, reading := range l.Sensors.Drain(0) {
		logging.Debug("Loop: показание датчика %.2f (%s)", reading.Value, reading.At.Format(time.RFC3339))
	}

	for _, ann := range l.Announcements.Drain(0) {
		prev, known := l.devices[ann.DeviceID]
		l.devices[ann.DeviceID] = ann
		if !known {
			logging.Info("Loop: новое устройство %s (%s) на (%.1f, %.1f, %.1f)",
				ann.DeviceID, ann.DeviceType, ann.Location.X, ann.Location.Y, ann.Location.Z)
		} else if prev.State != ann.State {
			logging.Debug("Loop: устройство %s сменило состояние %s -> %s", ann.DeviceID, prev.State, ann.State)
		}
	}

	if l.observer != nil {
		requested := l.loader.Update(l.observer.Position().ToVec3(), l.World, l.Loading)
		if len(requested) > 0 {
			logging.Debug("Loop: запрошено %d чанков вокруг наблюдателя", len(requested))
		}
	}

	if cleaned := l.Loading.CleanupTimedOutRequests(); len(cleaned) > 0 {
		logging.Warn("Loop: %d запросов чанков истекли по таймауту", len(cleaned))
	}
}

// Run крутит цикл до отмены контекста.
func (l *Loop) Run(ctx context.Context) {
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	logging.Info("Loop: игровой цикл запущен (tick=%v)", l.interval)

	for {
		select {
		case <-ctx.Done():
			logging.Info("Loop: игровой цикл остановлен после %d тиков", l.ticks)
			return
		case <-ticker.C:
			l.Tick(ctx)
		}
	}
}

// Ticks возвращает число выполненных тиков.
func (l *Loop) Ticks() uint64 {
	return l.ticks
}

// KnownDevices возвращает число устройств, объявивших о себе.
func (l *Loop) KnownDevices() int {
	return len(l.devices)
}

// Device возвращает последнее объявление устройства по ID.
func (l *Loop) Device(id string) (*sync.DeviceAnnouncement, bool) {
	ann, ok := l.devices[id]
	return ann, ok
}
