package hub

import (
	"github.com/srikanthrajjj/eskode-sub001/domain"
)

const DefaultHistorySize = 10

// History keeps the most recent broadcast messages in arrival order,
// evicting the oldest entry once full. It is not safe for concurrent use;
// the Hub serializes access under its own lock.
type History struct {
	entries []domain.BroadcastMessage
	head    int
	size    int
}

func NewHistory(capacity int) *History {
	if capacity <= 0 {
		capacity = DefaultHistorySize
	}
	return &History{entries: make([]domain.BroadcastMessage, capacity)}
}

func (b *History) Record(msg domain.BroadcastMessage) {
	tail := (b.head + b.size) % len(b.entries)
	b.entries[tail] = msg
	if b.size < len(b.entries) {
		b.size++
		return
	}
	b.head = (b.head + 1) % len(b.entries)
}

// Snapshot returns the retained messages oldest to newest. The returned
// slice is a copy; later Record calls never mutate it.
func (b *History) Snapshot() []domain.BroadcastMessage {
	out := make([]domain.BroadcastMessage, b.size)
	for i := 0; i < b.size; i++ {
		out[i] = b.entries[(b.head+i)%len(b.entries)]
	}
	return out
}

func (b *History) Len() int { return b.size }
