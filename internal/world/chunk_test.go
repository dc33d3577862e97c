package world

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/annel0/blockworld/internal/vec"
)

func TestChunkOf(t *testing.T) {
	// Положительные координаты
	assert.Equal(t, ChunkCoord{0, 0, 0}, ChunkOf(vec.Vec3{X: 0, Y: 0, Z: 0}))
	assert.Equal(t, ChunkCoord{0, 0, 0}, ChunkOf(vec.Vec3{X: 15, Y: 15, Z: 15}))
	assert.Equal(t, ChunkCoord{1, 1, 1}, ChunkOf(vec.Vec3{X: 16, Y: 16, Z: 16}))
	assert.Equal(t, ChunkCoord{1, 2, 0}, ChunkOf(vec.Vec3{X: 17, Y: 33, Z: 8}))

	// Отрицательные координаты: floor-деление, а не усечение
	assert.Equal(t, ChunkCoord{-1, -1, -1}, ChunkOf(vec.Vec3{X: -1, Y: -1, Z: -1}))
	assert.Equal(t, ChunkCoord{-1, -1, -1}, ChunkOf(vec.Vec3{X: -16, Y: -16, Z: -16}))
	assert.Equal(t, ChunkCoord{-1, -2, -3}, ChunkOf(vec.Vec3{X: -1, Y: -17, Z: -33}))
}

func TestChunkOf_MembershipClosure(t *testing.T) {
	// Каждый блок внутри границ чанка отображается в тот же чанк
	for _, pos := range []vec.Vec3{
		{X: 17, Y: 33, Z: 8},
		{X: -1, Y: -17, Z: -33},
		{X: 100, Y: -100, Z: 0},
	} {
		coord := ChunkOf(pos)
		min := coord.MinBlock()
		max := coord.MaxBlock()

		assert.True(t, coord.Contains(pos))
		assert.Equal(t, coord, ChunkOf(min), "минимальный блок чанка принадлежит ему же")
		assert.Equal(t, coord, ChunkOf(max), "максимальный блок чанка принадлежит ему же")
	}
}

func TestChunkCoord_Contains(t *testing.T) {
	origin := ChunkCoord{0, 0, 0}
	assert.True(t, origin.Contains(vec.Vec3{X: 0, Y: 0, Z: 0}))
	assert.True(t, origin.Contains(vec.Vec3{X: 15, Y: 15, Z: 15}))
	assert.False(t, origin.Contains(vec.Vec3{X: 16, Y: 16, Z: 16}))
	assert.False(t, origin.Contains(vec.Vec3{X: -1, Y: -1, Z: -1}))

	negative := ChunkCoord{-1, -1, -1}
	assert.True(t, negative.Contains(vec.Vec3{X: -1, Y: -1, Z: -1}))
	assert.True(t, negative.Contains(vec.Vec3{X: -16, Y: -16, Z: -16}))
	assert.False(t, negative.Contains(vec.Vec3{X: 0, Y: 0, Z: 0}))
}

func TestChunkCoord_TopicPath(t *testing.T) {
	assert.Equal(t, "1/-2/3", ChunkCoord{1, -2, 3}.TopicPath())
}

func TestChunk_BlockOperations(t *testing.T) {
	chunk := NewChunk(ChunkCoord{0, 0, 0})
	pos := vec.Vec3{X: 5, Y: 5, Z: 5}

	assert.True(t, chunk.SetBlock(pos, BlockStone))
	id, ok := chunk.GetBlock(pos)
	assert.True(t, ok)
	assert.Equal(t, BlockStone, id)
	assert.Equal(t, 1, chunk.BlockCount())

	// Блок вне границ чанка не принимается
	assert.False(t, chunk.SetBlock(vec.Vec3{X: 16, Y: 16, Z: 16}, BlockStone))
	assert.Equal(t, 1, chunk.BlockCount())

	removed, ok := chunk.RemoveBlock(pos)
	assert.True(t, ok)
	assert.Equal(t, BlockStone, removed)
	assert.True(t, chunk.IsEmpty())
}

func TestChunk_VersionCounter(t *testing.T) {
	chunk := NewChunk(ChunkCoord{0, 0, 0})
	pos := vec.Vec3{X: 1, Y: 2, Z: 3}
	assert.Equal(t, uint64(1), chunk.Version)

	chunk.SetBlock(pos, BlockDirt)
	assert.Equal(t, uint64(2), chunk.Version)

	chunk.SetBlock(pos, BlockStone)
	assert.Equal(t, uint64(3), chunk.Version, "перезапись тоже инкрементирует версию")

	chunk.RemoveBlock(pos)
	assert.Equal(t, uint64(4), chunk.Version)

	// Удаление отсутствующего блока — no-op
	_, ok := chunk.RemoveBlock(pos)
	assert.False(t, ok)
	assert.Equal(t, uint64(4), chunk.Version)
}
