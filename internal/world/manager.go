package world

import (
	"github.com/annel0/blockworld/internal/vec"
)

// ChunkManager владеет всеми чанками мира: картой чанков по координатам
// и множеством загруженных координат.
//
// Менеджер не содержит блокировок: по модели планирования им владеет
// единственный основной цикл, а фоновые воркеры передают изменения
// через очереди сообщений. Инвариант: каждая координата из loaded
// имеет чанк в карте с IsLoaded = true; обратное не обязательно —
// чанк может существовать выгруженным плейсхолдером.
type ChunkManager struct {
	chunks    map[ChunkCoord]*Chunk
	loaded    map[ChunkCoord]struct{}
	generator *Generator // nil — чанки создаются пустыми
}

// NewChunkManager создаёт пустой мир без генератора ландшафта
func NewChunkManager() *ChunkManager {
	return &ChunkManager{
		chunks: make(map[ChunkCoord]*Chunk),
		loaded: make(map[ChunkCoord]struct{}),
	}
}

// NewChunkManagerWithGenerator создаёт мир, заполняющий новые чанки
// детерминированным ландшафтом
func NewChunkManagerWithGenerator(gen *Generator) *ChunkManager {
	cm := NewChunkManager()
	cm.generator = gen
	return cm
}

// LoadChunk загружает чанк: создаёт его при отсутствии (заполняя
// генератором, если он задан), помечает загруженным и добавляет в
// множество загруженных. Повторная загрузка — идемпотентный no-op.
func (cm *ChunkManager) LoadChunk(coord ChunkCoord) {
	cm.loaded[coord] = struct{}{}

	if chunk, ok := cm.chunks[coord]; ok {
		chunk.IsLoaded = true
		return
	}

	chunk := NewChunk(coord)
	if cm.generator != nil {
		cm.generator.Populate(chunk)
	}
	chunk.IsLoaded = true
	cm.chunks[coord] = chunk
}

// UnloadChunk помечает чанк выгруженным. Данные сохраняются —
// политика вытеснения здесь не реализуется.
func (cm *ChunkManager) UnloadChunk(coord ChunkCoord) {
	delete(cm.loaded, coord)
	if chunk, ok := cm.chunks[coord]; ok {
		chunk.IsLoaded = false
	}
}

// IsLoaded проверяет, загружен ли чанк
func (cm *ChunkManager) IsLoaded(coord ChunkCoord) bool {
	_, ok := cm.loaded[coord]
	return ok
}

// GetChunk возвращает чанк по координатам
func (cm *ChunkManager) GetChunk(coord ChunkCoord) (*Chunk, bool) {
	chunk, ok := cm.chunks[coord]
	return chunk, ok
}

// ChunkCount возвращает общее число чанков (включая выгруженные)
func (cm *ChunkManager) ChunkCount() int {
	return len(cm.chunks)
}

// LoadedCount возвращает число загруженных чанков
func (cm *ChunkManager) LoadedCount() int {
	return len(cm.loaded)
}

// LoadedChunks возвращает координаты всех загруженных чанков
func (cm *ChunkManager) LoadedChunks() []ChunkCoord {
	coords := make([]ChunkCoord, 0, len(cm.loaded))
	for coord := range cm.loaded {
		coords = append(coords, coord)
	}
	return coords
}

// ensureChunk возвращает чанк, владеющий позицией, создавая и загружая
// его при необходимости. Автосоздание при мутации — осознанное решение:
// путь применения изменений остаётся простым, а удалённое изменение не
// теряется, даже если локальный наблюдатель никогда не загружал чанк.
func (cm *ChunkManager) ensureChunk(pos vec.Vec3) *Chunk {
	coord := ChunkOf(pos)
	if chunk, ok := cm.chunks[coord]; ok && chunk.IsLoaded {
		return chunk
	}
	cm.LoadChunk(coord)
	return cm.chunks[coord]
}

// SetBlock устанавливает блок, создавая чанк при необходимости
func (cm *ChunkManager) SetBlock(pos vec.Vec3, id BlockID) {
	cm.ensureChunk(pos).SetBlock(pos, id)
}

// RemoveBlock удаляет блок и возвращает его тип. Удаление
// несуществующего блока — идемпотентный no-op.
func (cm *ChunkManager) RemoveBlock(pos vec.Vec3) (BlockID, bool) {
	return cm.ensureChunk(pos).RemoveBlock(pos)
}

// GetBlock возвращает тип блока в позиции pos
func (cm *ChunkManager) GetBlock(pos vec.Vec3) (BlockID, bool) {
	chunk, ok := cm.chunks[ChunkOf(pos)]
	if !ok {
		return 0, false
	}
	return chunk.GetBlock(pos)
}

// TotalBlocks возвращает суммарное число блоков во всех чанках
func (cm *ChunkManager) TotalBlocks() int {
	total := 0
	for _, chunk := range cm.chunks {
		total += chunk.BlockCount()
	}
	return total
}
