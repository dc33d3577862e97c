package storage

import (
	"time"

	"github.com/annel0/blockworld/internal/vec"
	"github.com/annel0/blockworld/internal/world"
)

// WorldMetadata описывает сохранённый мир
type WorldMetadata struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	CreatedAt   string `json:"created_at"`
	LastPlayed  string `json:"last_played"`
	Version     string `json:"version"`
}

// NewWorldMetadata создаёт метаданные нового мира
func NewWorldMetadata(name, description string) WorldMetadata {
	now := time.Now().UTC().Format(time.RFC3339)
	return WorldMetadata{
		Name:        name,
		Description: description,
		CreatedAt:   now,
		LastPlayed:  now,
		Version:     "1.0.0",
	}
}

// Touch обновляет время последней игры; дата создания не меняется
func (m *WorldMetadata) Touch() {
	m.LastPlayed = time.Now().UTC().Format(time.RFC3339)
}

// BlockRecord — один блок в плоском списке снапшота
type BlockRecord struct {
	X         int           `json:"x"`
	Y         int           `json:"y"`
	Z         int           `json:"z"`
	BlockType world.BlockID `json:"block_type"`
}

// PlayerState — вспомогательное состояние игрока в снапшоте
type PlayerState struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Z     float64 `json:"z"`
	Yaw   float64 `json:"yaw"`
	Pitch float64 `json:"pitch"`
}

// WorldSave — полный снапшот мира: метаданные, плоский список блоков
// и состояние игрока. Это внешняя граница персистентности — содержимое
// хранилища чанков обязано проходить через неё без потерь.
type WorldSave struct {
	Metadata WorldMetadata `json:"metadata"`
	Blocks   []BlockRecord `json:"blocks"`
	Player   PlayerState   `json:"player"`
}

// Export собирает снапшот из хранилища чанков
func Export(cm *world.ChunkManager, meta WorldMetadata, player PlayerState) *WorldSave {
	save := &WorldSave{
		Metadata: meta,
		Blocks:   make([]BlockRecord, 0, cm.TotalBlocks()),
		Player:   player,
	}

	for _, coord := range cm.LoadedChunks() {
		chunk, ok := cm.GetChunk(coord)
		if !ok {
			continue
		}
		for pos, id := range chunk.Blocks {
			save.Blocks = append(save.Blocks, BlockRecord{X: pos.X, Y: pos.Y, Z: pos.Z, BlockType: id})
		}
	}

	return save
}

// NextSave собирает снапшот очередного сеанса. Метаданные и состояние
// игрока продолжают предыдущий снапшот, если он был: дата создания
// мира и позиция игрока переживают перезапуски, обновляется только
// время последней игры.
func NextSave(cm *world.ChunkManager, prev *WorldSave, name, description string) *WorldSave {
	meta := NewWorldMetadata(name, description)
	player := PlayerState{}
	if prev != nil {
		meta = prev.Metadata
		player = prev.Player
	}
	meta.Touch()
	return Export(cm, meta, player)
}

// Import восстанавливает блоки снапшота в хранилище чанков.
// Прямая мутация хранилища, не события: восстановление из снапшота
// не должно публиковаться на шину.
func Import(save *WorldSave, cm *world.ChunkManager) {
	for _, rec := range save.Blocks {
		cm.SetBlock(vec.Vec3{X: rec.X, Y: rec.Y, Z: rec.Z}, rec.BlockType)
	}
}
