// Package piece implements the pipelined block-request protocol that
// drives one PieceWork to completion on one established, bootstrapped
// connection (component E).
package piece

import (
	"crypto/sha1"
	"fmt"
	"time"

	"github.com/torrentshed/gorent/internal/errs"
	"github.com/torrentshed/gorent/internal/message"
	"github.com/torrentshed/gorent/internal/swarm"
)

const (
	// MaxBlockSize is the largest block requested in a single Request message.
	MaxBlockSize = 16384
	// MaxBacklog is the largest number of outstanding Request messages per connection.
	MaxBacklog = 5
	// IOTimeout bounds every socket read performed while downloading a piece.
	IOTimeout = 10 * time.Second
)

// Conn is the subset of peer.Conn the state machine needs, kept as an
// interface so it can be driven by a fake connection in tests.
type Conn interface {
	SendRequest(index, begin, length int) error
	SendHave(index int) error
	ReadMessage() (*message.Message, error)
	SetDeadline(time.Time) error
	SetChoking(bool)
}

// progress tracks one in-flight piece download. Invariants:
// 0 <= downloaded <= requested <= length; 0 <= backlog <= MaxBacklog.
type progress struct {
	buf        []byte
	downloaded int
	requested  int
	backlog    int
}

// Download drives work to completion on conn, returning the verified
// piece payload. Any timeout, I/O error, protocol violation, or hash
// mismatch is returned as an error; the caller (the worker loop) is
// responsible for requeueing work on failure.
func Download(conn Conn, work swarm.PieceWork) ([]byte, error) {
	length := int(work.Length)
	p := &progress{buf: make([]byte, length)}

	for p.downloaded < length {
		if err := fillBacklog(conn, work.Index, length, p); err != nil {
			return nil, err
		}

		if err := conn.SetDeadline(time.Now().Add(IOTimeout)); err != nil {
			return nil, fmt.Errorf("%w: setting deadline: %v", errs.ErrIO, err)
		}
		msg, err := conn.ReadMessage()
		if err != nil {
			return nil, err
		}
		if err := dispatch(conn, work.Index, p, msg); err != nil {
			return nil, err
		}
	}

	sum := sha1.Sum(p.buf)
	if sum != work.Hash {
		return nil, fmt.Errorf("%w: piece %d", errs.ErrIntegrity, work.Index)
	}

	if err := conn.SendHave(work.Index); err != nil {
		return nil, fmt.Errorf("%w: sending have for piece %d: %v", errs.ErrIO, work.Index, err)
	}

	return p.buf, nil
}

// fillBacklog issues requests unconditionally: the choke bit does not
// gate request emission in this design (see design notes); it relies on
// the peer to honor requests once it has unchoked.
func fillBacklog(conn Conn, index, length int, p *progress) error {
	for p.backlog < MaxBacklog && p.requested < length {
		blockSize := MaxBlockSize
		if length-p.requested < blockSize {
			blockSize = length - p.requested
		}
		if err := conn.SendRequest(index, p.requested, blockSize); err != nil {
			return fmt.Errorf("%w: sending request: %v", errs.ErrIO, err)
		}
		p.backlog++
		p.requested += blockSize
	}
	return nil
}

func dispatch(conn Conn, index int, p *progress, msg *message.Message) error {
	if msg == nil {
		return nil // keep-alive
	}
	switch msg.ID {
	case message.Piece:
		n, err := message.ParsePiece(index, p.buf, msg)
		if err != nil {
			return err
		}
		p.downloaded += n
		p.backlog--
	case message.Choke:
		conn.SetChoking(true)
	case message.Unchoke:
		conn.SetChoking(false)
	default:
		return fmt.Errorf("%w: unsupported message %s during piece download", errs.ErrProtocolViolation, msg.ID)
	}
	return nil
}
