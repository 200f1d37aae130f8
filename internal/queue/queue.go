// Package queue implements the shared FIFO of PieceWork items. Lock
// scope is limited to a single push or pop; no operation holds the
// lock across I/O, so it never serializes the workers against the
// network.
package queue

import (
	"sync"

	"github.com/torrentshed/gorent/internal/swarm"
)

// Queue is a mutex-protected FIFO of PieceWork, mutated by every worker
// and the controller.
type Queue struct {
	mu    sync.Mutex
	items []swarm.PieceWork
}

// New seeds a queue with the given work, in order.
func New(work []swarm.PieceWork) *Queue {
	items := make([]swarm.PieceWork, len(work))
	copy(items, work)
	return &Queue{items: items}
}

// Pop removes and returns the item at the head of the queue. ok is
// false if the queue was empty.
func (q *Queue) Pop() (w swarm.PieceWork, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return swarm.PieceWork{}, false
	}
	w = q.items[0]
	q.items = q.items[1:]
	return w, true
}

// Push appends an item to the tail, e.g. on requeue after a transient
// failure or a peer-miss. Other peers get a chance at the item before
// the pushing worker sees it again.
func (q *Queue) Push(w swarm.PieceWork) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = append(q.items, w)
}

// Len reports the current queue length, for diagnostics only.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
