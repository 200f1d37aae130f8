package handshake_test

import (
	"bytes"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/torrentshed/gorent/internal/errs"
	"github.com/torrentshed/gorent/internal/handshake"
)

func pipe(t *testing.T) (net.Conn, net.Conn) {
	t.Helper()
	a, b := net.Pipe()
	t.Cleanup(func() { a.Close(); b.Close() })
	return a, b
}

func TestSerializeRoundTrip(t *testing.T) {
	var infoHash, peerID [20]byte
	copy(infoHash[:], "aaaaaaaaaaaaaaaaaaaa")
	copy(peerID[:], "bbbbbbbbbbbbbbbbbbbb")

	h := handshake.New(infoHash, peerID)
	got, err := handshake.Read(bytes.NewReader(h.Serialize()))
	require.NoError(t, err)
	require.Equal(t, h.Pstr, got.Pstr)
	require.Equal(t, h.InfoHash, got.InfoHash)
	require.Equal(t, h.PeerID, got.PeerID)
}

func TestDoSucceedsOnMatchingInfoHash(t *testing.T) {
	client, server := pipe(t)

	var infoHash, peerID, remoteID [20]byte
	copy(infoHash[:], "aaaaaaaaaaaaaaaaaaaa")
	copy(peerID[:], "client-peer-id-000000")
	copy(remoteID[:], "server-peer-id-000000")

	go func() {
		reply, err := handshake.Read(server)
		if err != nil {
			return
		}
		_ = reply
		resp := handshake.New(infoHash, remoteID)
		server.Write(resp.Serialize())
	}()

	got, err := handshake.Do(client, infoHash, peerID, time.Second)
	require.NoError(t, err)
	require.Equal(t, remoteID, got.PeerID)
}

func TestDoFailsOnInfoHashMismatch(t *testing.T) {
	client, server := pipe(t)

	var localInfoHash, remoteInfoHash, peerID, remoteID [20]byte
	copy(localInfoHash[:], "aaaaaaaaaaaaaaaaaaaa")
	copy(remoteInfoHash[:], "00000000000000000000")
	copy(peerID[:], "client-peer-id-000000")

	go func() {
		handshake.Read(server)
		resp := handshake.New(remoteInfoHash, remoteID)
		server.Write(resp.Serialize())
	}()

	_, err := handshake.Do(client, localInfoHash, peerID, time.Second)
	require.ErrorIs(t, err, errs.ErrHandshake)
}
