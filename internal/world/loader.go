package world

import (
	"github.com/annel0/blockworld/internal/vec"
)

// DefaultLoadRadius — радиус загрузки по умолчанию: куб 5x5x5 чанков
const DefaultLoadRadius = 2

// ChunkLoader отслеживает позицию наблюдателя и запрашивает загрузку
// чанков вокруг него. Состояние меняется только при пересечении
// границы чанка.
type ChunkLoader struct {
	LoadRadius int

	lastChunk    ChunkCoord
	hasLastChunk bool
}

// NewChunkLoader создаёт загрузчик с радиусом по умолчанию
func NewChunkLoader() *ChunkLoader {
	return &ChunkLoader{LoadRadius: DefaultLoadRadius}
}

// LastChunk возвращает последний чанк, вокруг которого шла загрузка
func (cl *ChunkLoader) LastChunk() (ChunkCoord, bool) {
	return cl.lastChunk, cl.hasLastChunk
}

// Update вызывается каждый тик с текущей позицией наблюдателя.
// При пересечении границы чанка (или первом вызове) запрашивает
// загрузку всех чанков в кубе (2r+1)^3 вокруг новой координаты и
// возвращает запрошенный список; иначе возвращает nil.
//
// Чанки, не бывшие загруженными до вызова, регистрируются в state:
// их содержимое ещё может прийти от удалённого пира, и трекер
// обеспечивает восстановление по таймауту, если ответ потеряется.
// Выгрузка чанков за пределами радиуса здесь не выполняется.
func (cl *ChunkLoader) Update(pos vec.Vec3, cm *ChunkManager, state *LoadingState) []ChunkCoord {
	current := ChunkOf(pos)
	if cl.hasLastChunk && cl.lastChunk == current {
		return nil
	}

	cl.lastChunk = current
	cl.hasLastChunk = true

	side := 2*cl.LoadRadius + 1
	requested := make([]ChunkCoord, 0, side*side*side)

	for x := current.X - cl.LoadRadius; x <= current.X+cl.LoadRadius; x++ {
		for y := current.Y - cl.LoadRadius; y <= current.Y+cl.LoadRadius; y++ {
			for z := current.Z - cl.LoadRadius; z <= current.Z+cl.LoadRadius; z++ {
				coord := ChunkCoord{X: x, Y: y, Z: z}
				wasLoaded := cm.IsLoaded(coord)
				cm.LoadChunk(coord)
				if !wasLoaded && state != nil {
					state.StartLoading(coord)
				}
				requested = append(requested, coord)
			}
		}
	}

	return requested
}
