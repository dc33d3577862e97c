package sync

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/annel0/blockworld/internal/eventbus"
	"github.com/annel0/blockworld/internal/logging"
	"github.com/annel0/blockworld/internal/world"
)

// Propagator применяет изменения блоков к миру и решает, что уходит
// на шину. Контракт:
//
//   - событие с источником Remote НИКОГДА не публикуется повторно —
//     иначе два синхронизированных процесса зациклят эхо друг друга;
//   - событие с источником Local всегда и применяется к миру,
//     и публикуется наружу ровно один раз.
//
// Политика согласованности — last-write-wins: конкурирующие изменения
// одной позиции просто перезаписывают друг друга в порядке прихода.
// Это осознанное ограничение, приемлемое для совместного
// редактирования мира; векторных часов и реконсиляции нет.
type Propagator struct {
	world   *world.ChunkManager
	bus     eventbus.EventBus
	worldID string

	applied   uint64
	published uint64
}

// NewPropagator создаёт слой распространения изменений
func NewPropagator(cm *world.ChunkManager, bus eventbus.EventBus, worldID string) *Propagator {
	return &Propagator{world: cm, bus: bus, worldID: worldID}
}

// Handle применяет событие к миру и, для локальных событий,
// публикует его на шину. Вызывается только из основного цикла.
func (p *Propagator) Handle(ctx context.Context, bc *BlockChange) error {
	if err := p.apply(bc); err != nil {
		return err
	}
	atomic.AddUint64(&p.applied, 1)

	if bc.Source != SourceLocal {
		return nil
	}
	p.publish(ctx, bc)
	return nil
}

// apply вносит изменение в хранилище чанков
func (p *Propagator) apply(bc *BlockChange) error {
	switch bc.Kind {
	case KindPlaced:
		p.world.SetBlock(bc.Position(), bc.BlockType)
	case KindRemoved:
		// Удаление несуществующего блока — идемпотентный no-op
		p.world.RemoveBlock(bc.Position())
	default:
		return fmt.Errorf("неизвестный тип изменения %q", bc.Kind)
	}
	return nil
}

// publish отправляет локальное событие на шину. Доставка at-most-once:
// ошибка публикации логируется, но не прерывает обработку — мир уже
// обновлён, а повторная отправка не предусмотрена.
func (p *Propagator) publish(ctx context.Context, bc *BlockChange) {
	data, err := bc.Encode()
	if err != nil {
		logging.Error("Propagator: сериализация изменения %s: %v", bc.ID, err)
		return
	}

	ev := &eventbus.Envelope{
		ID:        bc.ID,
		Timestamp: time.Now().UTC(),
		Source:    bc.PlayerID,
		EventType: eventbus.EventBlockChange,
		Payload:   data,
	}
	if err := p.bus.Publish(ctx, ev); err != nil {
		logging.Warn("Propagator: публикация изменения %s не удалась: %v", bc.ID, err)
		return
	}
	atomic.AddUint64(&p.published, 1)
}

// AppliedCount возвращает число применённых событий
func (p *Propagator) AppliedCount() uint64 {
	return atomic.LoadUint64(&p.applied)
}

// PublishedCount возвращает число опубликованных событий
func (p *Propagator) PublishedCount() uint64 {
	return atomic.LoadUint64(&p.published)
}
