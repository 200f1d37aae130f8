// Package worker implements the per-peer worker loop (component F):
// handshake, bootstrap, then repeatedly pop-and-download pieces from
// the shared queue until it is drained or the connection fails.
package worker

import (
	"net"
	"time"

	"github.com/rs/zerolog"

	"github.com/torrentshed/gorent/internal/handshake"
	"github.com/torrentshed/gorent/internal/logging"
	"github.com/torrentshed/gorent/internal/peer"
	"github.com/torrentshed/gorent/internal/piece"
	"github.com/torrentshed/gorent/internal/queue"
	"github.com/torrentshed/gorent/internal/status"
	"github.com/torrentshed/gorent/internal/swarm"
)

// retryBackoff is the fixed pause between reconnect attempts. The spec
// pins this to a constant 3s, not an exponential backoff, and caps
// nothing: a dead swarm spins this worker forever.
const retryBackoff = 3 * time.Second

// Run owns endpoint for the lifetime of the download: it connects,
// downloads pieces from q until drained, and reconnects on failure.
// Run returns once it pops an empty queue — the download is complete
// or in its final stretch and this worker is no longer needed.
func Run(endpoint swarm.PeerEndpoint, descriptor *swarm.TorrentDescriptor, q *queue.Queue, results chan<- swarm.PieceResult, statusCh chan<- status.Event) {
	log := logging.New("worker").With().Str("peer", endpoint.String()).Logger()

	for {
		conn := connect(endpoint, descriptor, statusCh, log)

		exhausted := drainQueue(conn, q, results, statusCh, endpoint, log)
		conn.Close()

		if exhausted {
			return
		}
	}
}

// connect retries handshake+bootstrap indefinitely until it succeeds;
// there is no bounded retry count (see design notes on liveness).
func connect(endpoint swarm.PeerEndpoint, descriptor *swarm.TorrentDescriptor, statusCh chan<- status.Event, log zerolog.Logger) *peer.Conn {
	for {
		pc, err := dial(endpoint, descriptor)
		if err == nil {
			return pc
		}
		log.Debug().Err(err).Msg("connect attempt failed")
		emitStatus(statusCh, status.Event{Connected: false, ID: endpoint.ID()})
		time.Sleep(retryBackoff)
	}
}

func dial(endpoint swarm.PeerEndpoint, descriptor *swarm.TorrentDescriptor) (*peer.Conn, error) {
	conn, err := net.DialTimeout("tcp4", endpoint.String(), piece.IOTimeout)
	if err != nil {
		return nil, err
	}

	if _, err := handshake.Do(conn, descriptor.InfoHash, descriptor.PeerID, piece.IOTimeout); err != nil {
		conn.Close()
		return nil, err
	}

	pc, err := peer.Bootstrap(conn, piece.IOTimeout)
	if err != nil {
		conn.Close()
		return nil, err
	}
	return pc, nil
}

// drainQueue pops work until the queue is empty (returns exhausted=true,
// meaning this worker is done for good) or a piece download fails
// (returns exhausted=false, meaning the caller should reconnect).
func drainQueue(conn *peer.Conn, q *queue.Queue, results chan<- swarm.PieceResult, statusCh chan<- status.Event, endpoint swarm.PeerEndpoint, log zerolog.Logger) (exhausted bool) {
	for {
		work, ok := q.Pop()
		if !ok {
			return true
		}

		if !conn.Bitfield.Has(work.Index) {
			q.Push(work)
			continue
		}

		emitStatus(statusCh, status.Event{Connected: true, ID: endpoint.ID()})
		buf, err := piece.Download(conn, work)
		if err != nil {
			log.Debug().Err(err).Int("piece", work.Index).Msg("piece download failed, requeueing")
			q.Push(work)
			return false
		}

		results <- swarm.PieceResult{Index: work.Index, Payload: buf}
	}
}

// emitStatus is a best-effort, non-blocking send: losing a status
// event is nonfatal per the status channel's design.
func emitStatus(statusCh chan<- status.Event, ev status.Event) {
	select {
	case statusCh <- ev:
	default:
	}
}
