package eventbus

import (
	"context"
	"sync"
	"time"
)

// Типы событий, перевозимых шиной.
const (
	EventBlockChange    = "BlockChange"    // Изменение блока мира (JSON)
	EventSensorReading  = "SensorReading"  // Показание датчика (число простым текстом)
	EventDeviceAnnounce = "DeviceAnnounce" // Анонс устройства (JSON)
)

// Envelope описывает универсальный контейнер сообщения шины.
type Envelope struct {
	ID        string            // Уникальный идентификатор (UUID).
	Timestamp time.Time         // Время создания (UTC).
	Source    string            // Идентификатор участника-источника.
	EventType string            // Тип события (BlockChange, SensorReading…).
	Payload   []byte            // Полезная нагрузка в формате топика.
	Metadata  map[string]string // Произвольные метаданные.
}

// Filter позволяет подписаться только на нужные события.
type Filter struct {
	Types   []string // Если пусто — все типы.
	Sources []string // Если пусто — все источники.
}

// Subscription возвращается при подписке; позволяет отписаться.
type Subscription interface {
	Unsubscribe()
}

// Handler потребляет события.
type Handler func(ctx context.Context, ev *Envelope)

// Stats агрегированные метрики шины.
type Stats struct {
	Published uint64
	Consumed  uint64
	Dropped   uint64
	InFlight  int
}

// EventBus определяет абстракцию шины сообщений. Доставка —
// at-most-once: Publish не гарантирует получение, что согласуется
// с политикой last-write-wins на уровне мира.
type EventBus interface {
	Publish(ctx context.Context, ev *Envelope) error
	Subscribe(ctx context.Context, f Filter, h Handler) (Subscription, error)
	Metrics() Stats
	Close() error
}

//================ In-Memory implementation =================//

// memoryBus — внутрипроцессная шина для тестов и одиночного режима.
type memoryBus struct {
	mu          sync.RWMutex
	subscribers map[int]subscriber
	nextID      int
	stats       Stats
	buffer      chan *Envelope
	closed      bool
}

type subscriber struct {
	filter  Filter
	handler Handler
	ctx     context.Context
	cancel  context.CancelFunc
}

// NewMemoryBus создаёт in-memory шину с указанным буфером.
func NewMemoryBus(capacity int) EventBus {
	mb := &memoryBus{
		subscribers: make(map[int]subscriber),
		buffer:      make(chan *Envelope, capacity),
	}
	go mb.dispatchLoop()
	return mb
}

// Publish не блокирует: при заполненном буфере или после Close
// сообщение отбрасывается и учитывается в Dropped (at-most-once).
func (mb *memoryBus) Publish(ctx context.Context, ev *Envelope) error {
	mb.mu.Lock()
	defer mb.mu.Unlock()

	// Отправка в закрытый канал паникует, поэтому состояние
	// закрытости проверяется под тем же мьютексом, что и в Close.
	if mb.closed {
		mb.stats.Dropped++
		return nil
	}

	select {
	case mb.buffer <- ev:
		mb.stats.Published++
	default:
		mb.stats.Dropped++
	}
	return nil
}

func (mb *memoryBus) Subscribe(ctx context.Context, f Filter, h Handler) (Subscription, error) {
	mb.mu.Lock()
	id := mb.nextID
	mb.nextID++
	cctx, cancel := context.WithCancel(ctx)
	mb.subscribers[id] = subscriber{filter: f, handler: h, ctx: cctx, cancel: cancel}
	mb.mu.Unlock()

	return &memSub{bus: mb, id: id}, nil
}

func (mb *memoryBus) Metrics() Stats {
	mb.mu.RLock()
	defer mb.mu.RUnlock()
	s := mb.stats
	s.InFlight = len(mb.buffer)
	return s
}

func (mb *memoryBus) Close() error {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	if !mb.closed {
		mb.closed = true
		close(mb.buffer)
	}
	return nil
}

// dispatchLoop рассылает события подписчикам.
func (mb *memoryBus) dispatchLoop() {
	for ev := range mb.buffer {
		mb.mu.RLock()
		subs := make([]subscriber, 0, len(mb.subscribers))
		for _, sub := range mb.subscribers {
			subs = append(subs, sub)
		}
		mb.mu.RUnlock()

		for _, sub := range subs {
			if !matchFilter(ev, sub.filter) {
				continue
			}
			select {
			case <-sub.ctx.Done():
			default:
				sub.handler(sub.ctx, ev)
				mb.mu.Lock()
				mb.stats.Consumed++
				mb.mu.Unlock()
			}
		}
	}
}

func matchFilter(ev *Envelope, f Filter) bool {
	if len(f.Types) > 0 && !contains(f.Types, ev.EventType) {
		return false
	}
	if len(f.Sources) > 0 && !contains(f.Sources, ev.Source) {
		return false
	}
	return true
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

type memSub struct {
	bus *memoryBus
	id  int
}

func (ms *memSub) Unsubscribe() {
	ms.bus.mu.Lock()
	defer ms.bus.mu.Unlock()
	if sub, ok := ms.bus.subscribers[ms.id]; ok {
		sub.cancel()
		delete(ms.bus.subscribers, ms.id)
	}
}
