package sync

import (
	"context"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/annel0/blockworld/internal/eventbus"
	"github.com/annel0/blockworld/internal/logging"
)

// Воркеры-подписчики: принимают сообщения шины в фоне и передают
// разобранные значения основному циклу через переданный sink
// (неблокирующая ограниченная очередь). Все они следуют одному
// правилу деградации: некорректная полезная нагрузка от недоверенного
// пира логируется и отбрасывается, а отказ подписки затрагивает
// только этот источник данных, не процесс целиком.

// BlockChangeConsumer слушает изменения блоков с шины.
type BlockChangeConsumer struct {
	sub     eventbus.Subscription
	localID string
	sink    func(*BlockChange) bool
	dropped uint64
}

// NewBlockChangeConsumer подписывается на изменения блоков.
// Собственное эхо (player_id == localPlayerID) отбрасывается: шина
// доставляет публикацию и её автору, а применять её второй раз незачем.
func NewBlockChangeConsumer(bus eventbus.EventBus, localPlayerID string, sink func(*BlockChange) bool) (*BlockChangeConsumer, error) {
	bcc := &BlockChangeConsumer{localID: localPlayerID, sink: sink}
	sub, err := bus.Subscribe(context.Background(),
		eventbus.Filter{Types: []string{eventbus.EventBlockChange}}, bcc.handle)
	if err != nil {
		return nil, err
	}
	bcc.sub = sub
	return bcc, nil
}

func (bcc *BlockChangeConsumer) handle(ctx context.Context, ev *eventbus.Envelope) {
	bc, err := DecodeBlockChange(ev.Payload)
	if err != nil {
		atomic.AddUint64(&bcc.dropped, 1)
		logging.Warn("BlockChangeConsumer: некорректное сообщение отброшено: %v", err)
		return
	}

	if bc.PlayerID == bcc.localID {
		return // собственное эхо
	}

	if !bcc.sink(bc) {
		atomic.AddUint64(&bcc.dropped, 1)
		logging.Warn("BlockChangeConsumer: очередь переполнена, изменение %s отброшено", bc.ID)
	}
}

// DroppedCount возвращает число отброшенных сообщений
func (bcc *BlockChangeConsumer) DroppedCount() uint64 {
	return atomic.LoadUint64(&bcc.dropped)
}

// Stop отписывает воркер от шины
func (bcc *BlockChangeConsumer) Stop() {
	bcc.sub.Unsubscribe()
}

// SensorConsumer слушает показания датчиков: число простым текстом.
type SensorConsumer struct {
	sub     eventbus.Subscription
	sink    func(SensorReading) bool
	dropped uint64
}

// NewSensorConsumer подписывается на показания датчиков
func NewSensorConsumer(bus eventbus.EventBus, sink func(SensorReading) bool) (*SensorConsumer, error) {
	sc := &SensorConsumer{sink: sink}
	sub, err := bus.Subscribe(context.Background(),
		eventbus.Filter{Types: []string{eventbus.EventSensorReading}}, sc.handle)
	if err != nil {
		return nil, err
	}
	sc.sub = sub
	return sc, nil
}

func (sc *SensorConsumer) handle(ctx context.Context, ev *eventbus.Envelope) {
	value, err := strconv.ParseFloat(strings.TrimSpace(string(ev.Payload)), 64)
	if err != nil {
		atomic.AddUint64(&sc.dropped, 1)
		logging.Warn("SensorConsumer: нечисловое показание %q отброшено", string(ev.Payload))
		return
	}

	if !sc.sink(SensorReading{Value: value, At: time.Now()}) {
		atomic.AddUint64(&sc.dropped, 1)
	}
}

// DroppedCount возвращает число отброшенных сообщений
func (sc *SensorConsumer) DroppedCount() uint64 {
	return atomic.LoadUint64(&sc.dropped)
}

// Stop отписывает воркер от шины
func (sc *SensorConsumer) Stop() {
	sc.sub.Unsubscribe()
}

// AnnounceConsumer слушает анонсы устройств (JSON).
type AnnounceConsumer struct {
	sub     eventbus.Subscription
	sink    func(*DeviceAnnouncement) bool
	dropped uint64
}

// NewAnnounceConsumer подписывается на анонсы устройств
func NewAnnounceConsumer(bus eventbus.EventBus, sink func(*DeviceAnnouncement) bool) (*AnnounceConsumer, error) {
	ac := &AnnounceConsumer{sink: sink}
	sub, err := bus.Subscribe(context.Background(),
		eventbus.Filter{Types: []string{eventbus.EventDeviceAnnounce}}, ac.handle)
	if err != nil {
		return nil, err
	}
	ac.sub = sub
	return ac, nil
}

func (ac *AnnounceConsumer) handle(ctx context.Context, ev *eventbus.Envelope) {
	da, err := DecodeDeviceAnnouncement(ev.Payload)
	if err != nil {
		atomic.AddUint64(&ac.dropped, 1)
		logging.Warn("AnnounceConsumer: некорректный анонс отброшен: %v", err)
		return
	}

	if !ac.sink(da) {
		atomic.AddUint64(&ac.dropped, 1)
	}
}

// DroppedCount возвращает число отброшенных сообщений
func (ac *AnnounceConsumer) DroppedCount() uint64 {
	return atomic.LoadUint64(&ac.dropped)
}

// Stop отписывает воркер от шины
func (ac *AnnounceConsumer) Stop() {
	ac.sub.Unsubscribe()
}
