package sync

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/blockworld/internal/vec"
	"github.com/annel0/blockworld/internal/world"
)

func TestBlockChange_EncodeDecode(t *testing.T) {
	original := NewPlaced("world-1", "player-1", vec.Vec3{X: 5, Y: -3, Z: 8}, world.BlockStone)
	assert.Equal(t, SourceLocal, original.Source)
	assert.NotEmpty(t, original.ID)

	data, err := original.Encode()
	require.NoError(t, err)

	decoded, err := DecodeBlockChange(data)
	require.NoError(t, err)

	assert.Equal(t, original.ID, decoded.ID)
	assert.Equal(t, original.Position(), decoded.Position())
	assert.Equal(t, world.BlockStone, decoded.BlockType)
	assert.Equal(t, KindPlaced, decoded.Kind)
	assert.Equal(t, SourceRemote, decoded.Source, "принятое с шины событие всегда удалённое")
}

func TestDecodeBlockChange_MalformedJSON(t *testing.T) {
	_, err := DecodeBlockChange([]byte("{not json"))
	assert.Error(t, err)
}

func TestDecodeBlockChange_UnknownKind(t *testing.T) {
	_, err := DecodeBlockChange([]byte(`{"change_type":"exploded","x":1,"y":2,"z":3}`))
	assert.Error(t, err)
}

func TestNewRemoved(t *testing.T) {
	bc := NewRemoved("world-1", "player-1", vec.Vec3{X: 1, Y: 2, Z: 3})
	assert.Equal(t, KindRemoved, bc.Kind)
	assert.Equal(t, world.BlockID(0), bc.BlockType)
	assert.Equal(t, SourceLocal, bc.Source)
}

func TestDecodeDeviceAnnouncement(t *testing.T) {
	data := []byte(`{"device_id":"lamp-1","device_type":"lamp","state":"on","location":{"x":1.5,"y":2.0,"z":-3.0}}`)
	da, err := DecodeDeviceAnnouncement(data)
	require.NoError(t, err)
	assert.Equal(t, "lamp-1", da.DeviceID)
	assert.Equal(t, "lamp", da.DeviceType)
	assert.Equal(t, "on", da.State)
	assert.Equal(t, -3.0, da.Location.Z)
}

func TestDecodeDeviceAnnouncement_MissingID(t *testing.T) {
	_, err := DecodeDeviceAnnouncement([]byte(`{"device_type":"lamp"}`))
	assert.Error(t, err, "анонс без device_id отбрасывается")
}

func TestChangeSource_String(t *testing.T) {
	assert.Equal(t, "local", SourceLocal.String())
	assert.Equal(t, "remote", SourceRemote.String())
}
