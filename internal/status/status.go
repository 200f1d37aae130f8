// Package status implements the status reporter (component H): it
// consumes connection events from workers, tracks which peers are
// currently connected, and logs only on state transitions.
package status

import (
	"github.com/rs/zerolog"

	"github.com/torrentshed/gorent/internal/logging"
)

// Event is emitted by a worker whenever a peer's connectedness changes.
type Event struct {
	Connected bool
	ID        string
}

// Reporter tracks connected state per peer id and a live count.
type Reporter struct {
	log       zerolog.Logger
	connected map[string]bool
	count     int
}

// New returns a Reporter ready to consume events.
func New() *Reporter {
	return &Reporter{log: logging.New("status"), connected: make(map[string]bool)}
}

// Run drains events until the channel closes, logging one line per
// transition. Duplicate events for the same state are suppressed.
func (r *Reporter) Run(events <-chan Event) {
	for ev := range events {
		r.handle(ev)
	}
}

func (r *Reporter) handle(ev Event) {
	wasConnected := r.connected[ev.ID]
	if wasConnected == ev.Connected {
		return
	}
	r.connected[ev.ID] = ev.Connected
	if ev.Connected {
		r.count++
	} else {
		r.count--
	}
	r.log.Info().
		Str("peer", ev.ID).
		Bool("connected", ev.Connected).
		Int("count", r.count).
		Msg("peer connection state changed")
}

// Count returns the current number of connected peers. Exposed for
// tests; not read concurrently with Run by design (single consumer).
func (r *Reporter) Count() int {
	return r.count
}
