package sync

import (
	"context"
	stdsync "sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/blockworld/internal/eventbus"
	"github.com/annel0/blockworld/internal/vec"
	"github.com/annel0/blockworld/internal/world"
)

// recordingBus фиксирует публикации для проверки инварианта эха.
type recordingBus struct {
	mu        stdsync.Mutex
	published []*eventbus.Envelope
}

func (rb *recordingBus) Publish(ctx context.Context, ev *eventbus.Envelope) error {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	rb.published = append(rb.published, ev)
	return nil
}

func (rb *recordingBus) Subscribe(ctx context.Context, f eventbus.Filter, h eventbus.Handler) (eventbus.Subscription, error) {
	return nopSub{}, nil
}

func (rb *recordingBus) Metrics() eventbus.Stats { return eventbus.Stats{} }
func (rb *recordingBus) Close() error            { return nil }

func (rb *recordingBus) publishedCount() int {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	return len(rb.published)
}

type nopSub struct{}

func (nopSub) Unsubscribe() {}

func TestPropagator_LocalChangeAppliedAndPublishedOnce(t *testing.T) {
	cm := world.NewChunkManager()
	bus := &recordingBus{}
	p := NewPropagator(cm, bus, "world-1")

	pos := vec.Vec3{X: 5, Y: 5, Z: 5}
	err := p.Handle(context.Background(), NewPlaced("world-1", "player-1", pos, world.BlockGrass))
	require.NoError(t, err)

	id, ok := cm.GetBlock(pos)
	assert.True(t, ok, "локальное событие применено к миру")
	assert.Equal(t, world.BlockGrass, id)
	assert.Equal(t, 1, bus.publishedCount(), "локальное событие публикуется ровно один раз")
	assert.Equal(t, eventbus.EventBlockChange, bus.published[0].EventType)
	assert.Equal(t, "player-1", bus.published[0].Source)
}

func TestPropagator_RemoteChangeNeverRepublished(t *testing.T) {
	cm := world.NewChunkManager()
	bus := &recordingBus{}
	p := NewPropagator(cm, bus, "world-1")

	pos := vec.Vec3{X: 2, Y: 3, Z: 4}
	remote := NewPlaced("world-1", "player-2", pos, world.BlockStone)
	remote.Source = SourceRemote

	err := p.Handle(context.Background(), remote)
	require.NoError(t, err)

	id, ok := cm.GetBlock(pos)
	assert.True(t, ok, "удалённое событие применяется к миру")
	assert.Equal(t, world.BlockStone, id)
	assert.Equal(t, 0, bus.publishedCount(), "удалённое событие не ретранслируется — защита от эха")
}

func TestPropagator_RemoteRemovalOfAbsentBlockIsNoop(t *testing.T) {
	cm := world.NewChunkManager()
	bus := &recordingBus{}
	p := NewPropagator(cm, bus, "world-1")

	remote := NewRemoved("world-1", "player-2", vec.Vec3{X: 9, Y: 9, Z: 9})
	remote.Source = SourceRemote

	err := p.Handle(context.Background(), remote)
	assert.NoError(t, err, "удаление несуществующего блока не ошибка")
	assert.Equal(t, 0, bus.publishedCount())
}

func TestPropagator_UnknownKindRejected(t *testing.T) {
	p := NewPropagator(world.NewChunkManager(), &recordingBus{}, "world-1")
	err := p.Handle(context.Background(), &BlockChange{Kind: "exploded"})
	assert.Error(t, err)
}

func TestPropagator_LastWriteWinsSameTick(t *testing.T) {
	// Два участника ставят разные блоки в одну позицию в один тик:
	// остаётся последний применённый, версия чанка растёт на событие.
	cm := world.NewChunkManager()
	bus := &recordingBus{}
	p := NewPropagator(cm, bus, "world-1")

	pos := vec.Vec3{X: 5, Y: 5, Z: 5}
	cm.LoadChunk(world.ChunkOf(pos))
	chunk, _ := cm.GetChunk(world.ChunkOf(pos))
	versionBefore := chunk.Version

	first := NewPlaced("world-1", "player-a", pos, world.BlockDirt)
	second := NewPlaced("world-1", "player-b", pos, world.BlockStone)
	second.Source = SourceRemote

	require.NoError(t, p.Handle(context.Background(), first))
	require.NoError(t, p.Handle(context.Background(), second))

	id, _ := cm.GetBlock(pos)
	assert.Equal(t, world.BlockStone, id, "побеждает последняя запись")
	assert.Equal(t, versionBefore+2, chunk.Version, "версия инкрементируется на каждое применённое событие")
	assert.Equal(t, uint64(2), p.AppliedCount())
	assert.Equal(t, uint64(1), p.PublishedCount(), "опубликовано только локальное событие")
}
