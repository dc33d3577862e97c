package world

import (
	"fmt"
	"time"

	"github.com/annel0/blockworld/internal/vec"
)

// ChunkSize — длина ребра чанка в блоках. Фиксированная константа:
// вся координатная математика (сдвиги в пакете vec) завязана на 16.
const ChunkSize = 16

// BlockID идентифицирует тип блока. Ноль — воздух (отсутствие блока).
type BlockID uint16

// Базовый набор блоков для генератора ландшафта.
const (
	BlockAir BlockID = iota
	BlockGrass
	BlockDirt
	BlockStone
)

// ChunkCoord — координаты чанка в мире
type ChunkCoord struct {
	X int
	Y int
	Z int
}

// ChunkOf возвращает координаты чанка, владеющего блоком pos.
// Каждая ось вычисляется floor-делением на ChunkSize, поэтому
// отрицательные позиции попадают в корректный чанк.
func ChunkOf(pos vec.Vec3) ChunkCoord {
	c := pos.ToChunkCoords()
	return ChunkCoord{X: c.X, Y: c.Y, Z: c.Z}
}

// MinBlock возвращает минимальную позицию блока в чанке
func (c ChunkCoord) MinBlock() vec.Vec3 {
	return vec.Vec3{X: c.X * ChunkSize, Y: c.Y * ChunkSize, Z: c.Z * ChunkSize}
}

// MaxBlock возвращает максимальную позицию блока в чанке (включительно)
func (c ChunkCoord) MaxBlock() vec.Vec3 {
	min := c.MinBlock()
	return vec.Vec3{X: min.X + ChunkSize - 1, Y: min.Y + ChunkSize - 1, Z: min.Z + ChunkSize - 1}
}

// Contains проверяет, принадлежит ли блок pos этому чанку
func (c ChunkCoord) Contains(pos vec.Vec3) bool {
	return ChunkOf(pos) == c
}

// TopicPath возвращает координаты в виде сегмента топика шины: "x/y/z"
func (c ChunkCoord) TopicPath() string {
	return fmt.Sprintf("%d/%d/%d", c.X, c.Y, c.Z)
}

// Chunk хранит блоки одного чанка. Блоки индексируются глобальными
// координатами; карта разреженная — воздух не хранится.
type Chunk struct {
	Coords ChunkCoord

	Blocks map[vec.Vec3]BlockID

	// Version монотонно растёт при каждой мутации. Используется для
	// обнаружения устаревших данных, не для разрешения конфликтов:
	// принятая политика — last-write-wins.
	Version uint64

	LastModified time.Time
	IsLoaded     bool
}

// NewChunk создаёт пустой чанк с указанными координатами
func NewChunk(coords ChunkCoord) *Chunk {
	return &Chunk{
		Coords:       coords,
		Blocks:       make(map[vec.Vec3]BlockID),
		Version:      1,
		LastModified: time.Now(),
	}
}

// SetBlock устанавливает блок. Возвращает false, если позиция
// не принадлежит этому чанку.
func (c *Chunk) SetBlock(pos vec.Vec3, id BlockID) bool {
	if !c.Coords.Contains(pos) {
		return false
	}

	c.Blocks[pos] = id
	c.Version++
	c.LastModified = time.Now()
	return true
}

// RemoveBlock удаляет блок и возвращает его тип. Удаление
// несуществующего блока — no-op: версия не меняется.
func (c *Chunk) RemoveBlock(pos vec.Vec3) (BlockID, bool) {
	if !c.Coords.Contains(pos) {
		return 0, false
	}

	id, ok := c.Blocks[pos]
	if !ok {
		return 0, false
	}

	delete(c.Blocks, pos)
	c.Version++
	c.LastModified = time.Now()
	return id, true
}

// GetBlock возвращает тип блока в позиции pos
func (c *Chunk) GetBlock(pos vec.Vec3) (BlockID, bool) {
	id, ok := c.Blocks[pos]
	return id, ok
}

// BlockCount возвращает количество блоков в чанке
func (c *Chunk) BlockCount() int {
	return len(c.Blocks)
}

// IsEmpty возвращает true, если в чанке нет блоков
func (c *Chunk) IsEmpty() bool {
	return len(c.Blocks) == 0
}
