package sync

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/annel0/blockworld/internal/vec"
	"github.com/annel0/blockworld/internal/world"
)

// ChangeSource помечает происхождение изменения: локальный путь
// редактирования или сообщение с шины. Метка живёт только внутри
// процесса и не сериализуется — сторона получения сама знает,
// откуда пришло событие.
type ChangeSource int

const (
	// SourceLocal — изменение порождено этим процессом
	SourceLocal ChangeSource = iota
	// SourceRemote — изменение получено с шины сообщений
	SourceRemote
)

// String возвращает строковое представление источника
func (s ChangeSource) String() string {
	switch s {
	case SourceLocal:
		return "local"
	case SourceRemote:
		return "remote"
	default:
		return "unknown"
	}
}

// Типы изменений блока на проводе
const (
	KindPlaced  = "placed"
	KindRemoved = "removed"
)

// BlockChange — событие изменения блока. Wire-формат: JSON с типом
// изменения, позицией, типом блока и идентификатором участника.
type BlockChange struct {
	ID        string        `json:"change_id"`
	WorldID   string        `json:"world_id"`
	PlayerID  string        `json:"player_id"`
	Kind      string        `json:"change_type"`
	X         int           `json:"x"`
	Y         int           `json:"y"`
	Z         int           `json:"z"`
	BlockType world.BlockID `json:"block_type,omitempty"`
	Timestamp int64         `json:"ts"`

	Source ChangeSource `json:"-"`
}

// NewPlaced создаёт локальное событие установки блока
func NewPlaced(worldID, playerID string, pos vec.Vec3, blockType world.BlockID) *BlockChange {
	return &BlockChange{
		ID:        uuid.NewString(),
		WorldID:   worldID,
		PlayerID:  playerID,
		Kind:      KindPlaced,
		X:         pos.X,
		Y:         pos.Y,
		Z:         pos.Z,
		BlockType: blockType,
		Timestamp: time.Now().UnixMilli(),
		Source:    SourceLocal,
	}
}

// NewRemoved создаёт локальное событие удаления блока
func NewRemoved(worldID, playerID string, pos vec.Vec3) *BlockChange {
	return &BlockChange{
		ID:        uuid.NewString(),
		WorldID:   worldID,
		PlayerID:  playerID,
		Kind:      KindRemoved,
		X:         pos.X,
		Y:         pos.Y,
		Z:         pos.Z,
		Timestamp: time.Now().UnixMilli(),
		Source:    SourceLocal,
	}
}

// Position возвращает позицию изменяемого блока
func (bc *BlockChange) Position() vec.Vec3 {
	return vec.Vec3{X: bc.X, Y: bc.Y, Z: bc.Z}
}

// Encode сериализует событие для публикации на шину
func (bc *BlockChange) Encode() ([]byte, error) {
	return json.Marshal(bc)
}

// DecodeBlockChange разбирает событие, пришедшее с шины, и помечает
// его удалённым. Неизвестный тип изменения — ошибка: полезная
// нагрузка приходит от недоверенного пира.
func DecodeBlockChange(data []byte) (*BlockChange, error) {
	var bc BlockChange
	if err := json.Unmarshal(data, &bc); err != nil {
		return nil, fmt.Errorf("разбор BlockChange: %w", err)
	}
	if bc.Kind != KindPlaced && bc.Kind != KindRemoved {
		return nil, fmt.Errorf("неизвестный тип изменения %q", bc.Kind)
	}
	bc.Source = SourceRemote
	return &bc, nil
}

// DeviceLocation — позиция устройства в мире
type DeviceLocation struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// DeviceAnnouncement — анонс устройства с шины (JSON)
type DeviceAnnouncement struct {
	DeviceID   string         `json:"device_id"`
	DeviceType string         `json:"device_type"`
	State      string         `json:"state"`
	Location   DeviceLocation `json:"location"`
}

// DecodeDeviceAnnouncement разбирает анонс устройства
func DecodeDeviceAnnouncement(data []byte) (*DeviceAnnouncement, error) {
	var da DeviceAnnouncement
	if err := json.Unmarshal(data, &da); err != nil {
		return nil, fmt.Errorf("разбор анонса устройства: %w", err)
	}
	if da.DeviceID == "" {
		return nil, fmt.Errorf("анонс устройства без device_id")
	}
	return &da, nil
}

// SensorReading — показание датчика, пришедшее с шины
type SensorReading struct {
	Value float64
	At    time.Time
}
