package world

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadingState_StartFinish(t *testing.T) {
	state := NewLoadingState()
	coord := ChunkCoord{0, 0, 0}

	assert.False(t, state.IsLoading(coord))

	state.StartLoading(coord)
	assert.True(t, state.IsLoading(coord))
	assert.Equal(t, 1, state.PendingCount())

	state.FinishLoading(coord)
	assert.False(t, state.IsLoading(coord))
	assert.Equal(t, 0, state.PendingCount())
}

func TestLoadingState_CleanupRemovesOnlyExpired(t *testing.T) {
	state := NewLoadingStateWithTimeout(20 * time.Millisecond)

	stale := ChunkCoord{1, 0, 0}
	state.StartLoading(stale)

	time.Sleep(30 * time.Millisecond)

	fresh := ChunkCoord{2, 0, 0}
	state.StartLoading(fresh)

	timedOut := state.CleanupTimedOutRequests()

	assert.Equal(t, []ChunkCoord{stale}, timedOut)
	assert.False(t, state.IsLoading(stale), "просроченный запрос снят")
	assert.True(t, state.IsLoading(fresh), "свежий запрос остаётся")

	// Обе структуры чистятся вместе: повторная очистка пуста
	assert.Empty(t, state.CleanupTimedOutRequests())
	assert.Equal(t, 1, state.PendingCount())
}

func TestLoadingState_NoExpiryBeforeTimeout(t *testing.T) {
	state := NewLoadingStateWithTimeout(time.Minute)
	state.StartLoading(ChunkCoord{0, 0, 0})

	assert.Empty(t, state.TimedOutRequests())
	assert.Empty(t, state.CleanupTimedOutRequests())
	assert.Equal(t, 1, state.PendingCount())
}
