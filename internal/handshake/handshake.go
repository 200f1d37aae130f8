// Package handshake implements the 68-byte BitTorrent peer handshake:
// pstrlen, pstr, 8 reserved zero bytes, 20-byte info-hash, 20-byte peer id.
package handshake

import (
	"bytes"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/torrentshed/gorent/internal/errs"
)

const protocolString = "BitTorrent protocol"

// Handshake is the decoded handshake message.
type Handshake struct {
	Pstr     string
	InfoHash [20]byte
	PeerID   [20]byte
}

// New builds the local handshake to send.
func New(infoHash, peerID [20]byte) *Handshake {
	return &Handshake{Pstr: protocolString, InfoHash: infoHash, PeerID: peerID}
}

// Serialize encodes h to its 68-byte wire form.
func (h *Handshake) Serialize() []byte {
	buf := make([]byte, len(h.Pstr)+49)
	cursor := 1
	buf[0] = byte(len(h.Pstr))
	cursor += copy(buf[cursor:], h.Pstr)
	cursor += copy(buf[cursor:], make([]byte, 8))
	cursor += copy(buf[cursor:], h.InfoHash[:])
	copy(buf[cursor:], h.PeerID[:])
	return buf
}

// Read decodes a handshake from r. It does not validate the protocol
// string beyond its declared length.
func Read(r io.Reader) (*Handshake, error) {
	lengthBuf := make([]byte, 1)
	if _, err := io.ReadFull(r, lengthBuf); err != nil {
		return nil, fmt.Errorf("%w: reading pstrlen: %v", errs.ErrHandshake, err)
	}
	pstrlen := int(lengthBuf[0])

	rest := make([]byte, pstrlen+48)
	if _, err := io.ReadFull(r, rest); err != nil {
		return nil, fmt.Errorf("%w: reading handshake body: %v", errs.ErrHandshake, err)
	}

	h := &Handshake{Pstr: string(rest[0:pstrlen])}
	cursor := pstrlen + 8
	copy(h.InfoHash[:], rest[cursor:cursor+20])
	cursor += 20
	copy(h.PeerID[:], rest[cursor:cursor+20])
	return h, nil
}

// Do opens the handshake exchange on an already-established conn: it
// sends the local handshake and reads the peer's reply, failing if the
// reply's info-hash does not match infoHash. The remote peer id is not
// checked. deadline bounds the round trip.
func Do(conn net.Conn, infoHash, peerID [20]byte, deadline time.Duration) (*Handshake, error) {
	if err := conn.SetDeadline(time.Now().Add(deadline)); err != nil {
		return nil, fmt.Errorf("%w: setting deadline: %v", errs.ErrHandshake, err)
	}
	defer conn.SetDeadline(time.Time{})

	local := New(infoHash, peerID)
	if _, err := conn.Write(local.Serialize()); err != nil {
		return nil, fmt.Errorf("%w: sending handshake: %v", errs.ErrHandshake, err)
	}

	reply, err := Read(conn)
	if err != nil {
		return nil, err
	}

	if !bytes.Equal(reply.InfoHash[:], infoHash[:]) {
		return nil, fmt.Errorf("%w: info-hash mismatch: got %x, want %x", errs.ErrHandshake, reply.InfoHash, infoHash)
	}

	return reply, nil
}
