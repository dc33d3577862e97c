package world

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerator_Deterministic(t *testing.T) {
	coord := ChunkCoord{0, 0, 0}

	a := NewChunk(coord)
	NewGenerator(12345).Populate(a)

	b := NewChunk(coord)
	NewGenerator(12345).Populate(b)

	assert.Equal(t, a.Blocks, b.Blocks, "один сид — одинаковый ландшафт")
	assert.Greater(t, a.BlockCount(), 0, "чанк на уровне поверхности не пустой")
}

func TestGenerator_SeedChangesTerrain(t *testing.T) {
	coord := ChunkCoord{3, 0, -2}

	a := NewChunk(coord)
	NewGenerator(1).Populate(a)

	b := NewChunk(coord)
	NewGenerator(2).Populate(b)

	assert.NotEqual(t, a.Blocks, b.Blocks)
}

func TestGenerator_UndergroundChunkIsSolid(t *testing.T) {
	// Чанк y=-1 целиком ниже поверхности (высота не опускается ниже 2)
	chunk := NewChunk(ChunkCoord{0, -1, 0})
	NewGenerator(12345).Populate(chunk)

	assert.Equal(t, ChunkSize*ChunkSize*ChunkSize, chunk.BlockCount())
}

func TestGenerator_SkyChunkIsEmpty(t *testing.T) {
	// Чанк y=2 начинается с y=32 — выше любой возможной поверхности
	chunk := NewChunk(ChunkCoord{0, 2, 0})
	NewGenerator(12345).Populate(chunk)

	assert.True(t, chunk.IsEmpty())
}

func TestChunkManager_GeneratorPopulatesOnLoad(t *testing.T) {
	cm := NewChunkManagerWithGenerator(NewGenerator(42))

	cm.LoadChunk(ChunkCoord{0, 0, 0})
	chunk, ok := cm.GetChunk(ChunkCoord{0, 0, 0})

	assert.True(t, ok)
	assert.Greater(t, chunk.BlockCount(), 0)
	assert.Equal(t, uint64(1), chunk.Version, "генерация не считается мутацией")
}
