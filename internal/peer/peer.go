// Package peer owns one peer connection's state after a successful
// handshake: the post-handshake bootstrap (component D) and the
// Conn type the piece download state machine (package piece) drives.
package peer

import (
	"fmt"
	"net"
	"time"

	"github.com/torrentshed/gorent/internal/bitfield"
	"github.com/torrentshed/gorent/internal/errs"
	"github.com/torrentshed/gorent/internal/message"
)

// Conn is one established, bootstrapped peer connection. It is owned
// exclusively by the worker goroutine that created it and is never
// shared.
type Conn struct {
	net.Conn
	Bitfield    bitfield.Bitfield
	PeerChoking bool
}

// SendRequest emits a Request(index, begin, length) message.
func (c *Conn) SendRequest(index, begin, length int) error {
	_, err := c.Write(message.NewRequest(index, begin, length).Serialize())
	return err
}

// SendInterested emits an Interested message.
func (c *Conn) SendInterested() error {
	_, err := c.Write((&message.Message{ID: message.Interested}).Serialize())
	return err
}

// SendUnchoke emits an Unchoke message (this client unchoking the peer).
func (c *Conn) SendUnchoke() error {
	_, err := c.Write((&message.Message{ID: message.Unchoke}).Serialize())
	return err
}

// SendHave emits a Have(index) message.
func (c *Conn) SendHave(index int) error {
	_, err := c.Write(message.NewHave(index).Serialize())
	return err
}

// ReadMessage performs one framed read from the connection.
func (c *Conn) ReadMessage() (*message.Message, error) {
	return message.Read(c)
}

// SetChoking updates the locally-tracked peer_choking state in response
// to an observed Choke/Unchoke message.
func (c *Conn) SetChoking(choked bool) {
	c.PeerChoking = choked
}

// Bootstrap runs component D on an already-handshaken connection:
// reads the peer's initial Bitfield (any other first message, KeepAlive
// included, is a bootstrap failure), sends Interested, then reads and
// discards one more message as an explicit (but non-authoritative) wait
// for Unchoke. peer_choking starts true regardless of what that message
// was — the download state machine corrects it from subsequent
// Choke/Unchoke messages.
func Bootstrap(conn net.Conn, deadline time.Duration) (*Conn, error) {
	if err := conn.SetDeadline(time.Now().Add(deadline)); err != nil {
		return nil, fmt.Errorf("%w: setting deadline: %v", errs.ErrBootstrap, err)
	}
	defer conn.SetDeadline(time.Time{})

	first, err := message.Read(conn)
	if err != nil {
		return nil, fmt.Errorf("%w: reading initial message: %v", errs.ErrBootstrap, err)
	}
	if first == nil || first.ID != message.Bitfield {
		return nil, fmt.Errorf("%w: expected bitfield as first message", errs.ErrBootstrap)
	}

	bf := bitfield.Bitfield(first.Payload)
	pc := &Conn{Conn: conn, Bitfield: bf, PeerChoking: true}
	if err := pc.SendInterested(); err != nil {
		return nil, fmt.Errorf("%w: sending interested: %v", errs.ErrBootstrap, err)
	}

	if _, err := message.Read(conn); err != nil {
		return nil, fmt.Errorf("%w: waiting for unchoke: %v", errs.ErrBootstrap, err)
	}

	return pc, nil
}
