// Package errs names the failure categories a worker can hit, so callers
// can tell a transient per-piece failure from a fatal one with errors.Is.
package errs

import "errors"

var (
	// ErrHandshake covers any failure completing the 68-byte handshake.
	ErrHandshake = errors.New("handshake failed")
	// ErrBootstrap covers any failure during the post-handshake bitfield/interested exchange.
	ErrBootstrap = errors.New("bootstrap failed")
	// ErrIO covers a timed-out or short read/write on an established connection.
	ErrIO = errors.New("peer i/o failed")
	// ErrIntegrity is a SHA-1 mismatch between a downloaded piece and its expected hash.
	ErrIntegrity = errors.New("piece integrity check failed")
	// ErrProtocolViolation is an unexpected or malformed wire message.
	ErrProtocolViolation = errors.New("protocol violation")
	// ErrChannelClosed means the result channel closed before piece_count results arrived.
	ErrChannelClosed = errors.New("result channel closed prematurely")
	// ErrMetainfoMalformed is a bencode decode or structural failure on a .torrent file.
	ErrMetainfoMalformed = errors.New("metainfo malformed")
	// ErrTrackerUnreachable covers any failure announcing to the tracker.
	ErrTrackerUnreachable = errors.New("tracker unreachable")
)
