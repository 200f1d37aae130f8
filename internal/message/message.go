// Package message implements the peer-wire framing and the 10 message
// kinds exchanged after a handshake: a 4-byte big-endian length prefix
// followed by that many payload bytes. Length 0 is a keep-alive.
package message

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/torrentshed/gorent/internal/errs"
)

// ID identifies a message kind. KeepAlive has no wire id of its own;
// it is signalled by a zero length prefix and represented here as a
// nil *Message.
type ID uint8

const (
	Choke ID = iota
	Unchoke
	Interested
	NotInterested
	Have
	Bitfield
	Request
	Piece
	Cancel
)

func (id ID) String() string {
	switch id {
	case Choke:
		return "choke"
	case Unchoke:
		return "unchoke"
	case Interested:
		return "interested"
	case NotInterested:
		return "not_interested"
	case Have:
		return "have"
	case Bitfield:
		return "bitfield"
	case Request:
		return "request"
	case Piece:
		return "piece"
	case Cancel:
		return "cancel"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(id))
	}
}

// Message is a decoded wire frame. A nil *Message represents KeepAlive.
type Message struct {
	ID      ID
	Payload []byte
}

// Serialize encodes m to its canonical wire form. A nil receiver
// serializes to the 4 zero bytes of a keep-alive.
func (m *Message) Serialize() []byte {
	if m == nil {
		return make([]byte, 4)
	}
	length := uint32(len(m.Payload) + 1)
	buf := make([]byte, 4+length)
	binary.BigEndian.PutUint32(buf[0:4], length)
	buf[4] = byte(m.ID)
	copy(buf[5:], m.Payload)
	return buf
}

// NewRequest builds a Request message for (index, begin, length).
func NewRequest(index, begin, length int) *Message {
	payload := make([]byte, 12)
	binary.BigEndian.PutUint32(payload[0:4], uint32(index))
	binary.BigEndian.PutUint32(payload[4:8], uint32(begin))
	binary.BigEndian.PutUint32(payload[8:12], uint32(length))
	return &Message{ID: Request, Payload: payload}
}

// NewHave builds a Have message announcing piece index.
func NewHave(index int) *Message {
	payload := make([]byte, 4)
	binary.BigEndian.PutUint32(payload, uint32(index))
	return &Message{ID: Have, Payload: payload}
}

// Read performs a framed read: exactly 4 bytes for the length, then
// exactly that many payload bytes if nonzero. Returns (nil, nil) for
// a keep-alive. Any short read, EOF, or unknown id is connection-fatal.
func Read(r io.Reader) (*Message, error) {
	lengthBuf := make([]byte, 4)
	if _, err := io.ReadFull(r, lengthBuf); err != nil {
		return nil, fmt.Errorf("%w: reading length prefix: %v", errs.ErrIO, err)
	}
	length := binary.BigEndian.Uint32(lengthBuf)
	if length == 0 {
		return nil, nil
	}

	payload := make([]byte, length)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, fmt.Errorf("%w: reading %d-byte payload: %v", errs.ErrIO, length, err)
	}

	id := ID(payload[0])
	switch id {
	case Choke, Unchoke, Interested, NotInterested, Have, Bitfield, Request, Piece, Cancel:
	default:
		return nil, fmt.Errorf("%w: unknown message id %d", errs.ErrProtocolViolation, id)
	}

	return &Message{ID: id, Payload: payload[1:]}, nil
}

// ParsePiece validates and unpacks a Piece message's (index, begin, block)
// against the piece buffer buf, copying block into buf[begin:begin+len(block)].
// Returns the number of bytes copied.
func ParsePiece(wantIndex int, buf []byte, msg *Message) (int, error) {
	if msg.ID != Piece {
		return 0, fmt.Errorf("%w: expected piece message, got %s", errs.ErrProtocolViolation, msg.ID)
	}
	if len(msg.Payload) < 8 {
		return 0, fmt.Errorf("%w: piece payload too short: %d bytes", errs.ErrProtocolViolation, len(msg.Payload))
	}
	index := int(binary.BigEndian.Uint32(msg.Payload[0:4]))
	if index != wantIndex {
		return 0, fmt.Errorf("%w: piece index %d, wanted %d", errs.ErrProtocolViolation, index, wantIndex)
	}
	begin := int(binary.BigEndian.Uint32(msg.Payload[4:8]))
	if begin > len(buf) {
		return 0, fmt.Errorf("%w: begin %d exceeds piece length %d", errs.ErrProtocolViolation, begin, len(buf))
	}
	block := msg.Payload[8:]
	if begin+len(block) > len(buf) {
		return 0, fmt.Errorf("%w: block of %d bytes at offset %d overruns piece length %d", errs.ErrProtocolViolation, len(block), begin, len(buf))
	}
	copy(buf[begin:], block)
	return len(block), nil
}

// ParseHave unpacks a Have message's piece index.
func ParseHave(msg *Message) (int, error) {
	if msg.ID != Have {
		return 0, fmt.Errorf("%w: expected have message, got %s", errs.ErrProtocolViolation, msg.ID)
	}
	if len(msg.Payload) != 4 {
		return 0, fmt.Errorf("%w: have payload length %d, want 4", errs.ErrProtocolViolation, len(msg.Payload))
	}
	return int(binary.BigEndian.Uint32(msg.Payload)), nil
}
