package runtime

import "sync/atomic"

// Inbox — ограниченная очередь входящих сообщений между горутинами
// воркеров и однопоточным игровым циклом. Запись неблокирующая:
// при переполнении сообщение отбрасывается и учитывается в счётчике.
type Inbox[T any] struct {
	ch      chan T
	dropped atomic.Uint64
}

// NewInbox создаёт очередь ёмкостью capacity сообщений.
func NewInbox[T any](capacity int) *Inbox[T] {
	return &Inbox[T]{ch: make(chan T, capacity)}
}

// Offer пытается положить сообщение без блокировки.
// Возвращает false, если очередь заполнена.
func (in *Inbox[T]) Offer(msg T) bool {
	select {
	case in.ch <- msg:
		return true
	default:
		in.dropped.Add(1)
		return false
	}
}

// Poll забирает одно сообщение без блокировки.
func (in *Inbox[T]) Poll() (T, bool) {
	select {
	case msg := <-in.ch:
		return msg, true
	default:
		var zero T
		return zero, false
	}
}

// Drain забирает до max сообщений за один вызов.
// max <= 0 означает «всё, что есть сейчас».
func (in *Inbox[T]) Drain(max int) []T {
	if max <= 0 {
		max = len(in.ch)
	}

	var out []T
	for i := 0; i < max; i++ {
		msg, ok := in.Poll()
		if !ok {
			break
		}
		out = append(out, msg)
	}
	return out
}

// Len возвращает текущее число сообщений в очереди.
func (in *Inbox[T]) Len() int {
	return len(in.ch)
}

// Dropped возвращает число отброшенных из-за переполнения сообщений.
func (in *Inbox[T]) Dropped() uint64 {
	return in.dropped.Load()
}
