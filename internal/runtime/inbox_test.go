package runtime

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInbox_OfferPoll(t *testing.T) {
	in := NewInbox[int](4)

	assert.True(t, in.Offer(1))
	assert.True(t, in.Offer(2))
	assert.Equal(t, 2, in.Len())

	v, ok := in.Poll()
	assert.True(t, ok)
	assert.Equal(t, 1, v, "очередь должна сохранять порядок FIFO")

	v, ok = in.Poll()
	assert.True(t, ok)
	assert.Equal(t, 2, v)

	_, ok = in.Poll()
	assert.False(t, ok, "пустая очередь не должна отдавать сообщения")
}

func TestInbox_OverflowDropsAndCounts(t *testing.T) {
	in := NewInbox[string](2)

	assert.True(t, in.Offer("a"))
	assert.True(t, in.Offer("b"))
	assert.False(t, in.Offer("c"), "переполненная очередь должна отбрасывать сообщение")

	assert.Equal(t, uint64(1), in.Dropped())
	assert.Equal(t, 2, in.Len())
}

func TestInbox_Drain(t *testing.T) {
	in := NewInbox[int](8)
	for i := 0; i < 5; i++ {
		in.Offer(i)
	}

	batch := in.Drain(3)
	assert.Equal(t, []int{0, 1, 2}, batch)
	assert.Equal(t, 2, in.Len())

	rest := in.Drain(0)
	assert.Equal(t, []int{3, 4}, rest, "Drain(0) должен забрать всё, что есть")
	assert.Equal(t, 0, in.Len())

	assert.Nil(t, in.Drain(0))
}
