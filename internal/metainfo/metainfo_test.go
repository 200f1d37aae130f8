package metainfo_test

import (
	"bytes"
	"crypto/sha1"
	"testing"

	"github.com/jackpal/bencode-go"
	"github.com/stretchr/testify/require"

	"github.com/torrentshed/gorent/internal/errs"
	"github.com/torrentshed/gorent/internal/metainfo"
)

type testInfo struct {
	Pieces      string `bencode:"pieces"`
	PieceLength int64  `bencode:"piece length"`
	Length      int64  `bencode:"length"`
	Name        string `bencode:"name"`
}

type testTorrent struct {
	Announce string   `bencode:"announce"`
	Info     testInfo `bencode:"info"`
}

type testFile struct {
	Length int64    `bencode:"length"`
	Path   []string `bencode:"path"`
}

type testMultiInfo struct {
	Pieces      string     `bencode:"pieces"`
	PieceLength int64      `bencode:"piece length"`
	Name        string     `bencode:"name"`
	Files       []testFile `bencode:"files"`
}

type testMultiTorrent struct {
	Announce string        `bencode:"announce"`
	Info     testMultiInfo `bencode:"info"`
}

func encode(t *testing.T, v any) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, bencode.Marshal(&buf, v))
	return buf.Bytes()
}

func TestDecodeSingleFileDescriptor(t *testing.T) {
	h1 := sha1.Sum([]byte("piece-one-bytes...."))
	h2 := sha1.Sum([]byte("piece-two-bytes...."))
	pieces := string(h1[:]) + string(h2[:])

	raw := encode(t, testTorrent{
		Announce: "http://tracker.example/announce",
		Info: testInfo{
			Pieces:      pieces,
			PieceLength: 20,
			Length:      35,
			Name:        "example.bin",
		},
	})

	var peerID [20]byte
	copy(peerID[:], "-GR0001-123456789012")

	d, err := metainfo.Decode(bytes.NewReader(raw), peerID)
	require.NoError(t, err)
	require.Equal(t, "http://tracker.example/announce", d.AnnounceURL)
	require.Equal(t, "example.bin", d.DisplayName)
	require.Equal(t, int64(35), d.TotalLength)
	require.Equal(t, int64(20), d.PieceLength)
	require.Len(t, d.PieceHashes, 2)
	require.Equal(t, h1, d.PieceHashes[0])
	require.Equal(t, peerID, d.PeerID)
	require.NotEmpty(t, d.InfoHashURLEncoded)
}

func TestDecodeRejectsMultiFile(t *testing.T) {
	h1 := sha1.Sum([]byte("piece-one-bytes...."))
	raw := encode(t, testMultiTorrent{
		Announce: "http://tracker.example/announce",
		Info: testMultiInfo{
			Pieces:      string(h1[:]),
			PieceLength: 20,
			Name:        "example-dir",
			Files:       []testFile{{Length: 20, Path: []string{"a.bin"}}},
		},
	})

	var peerID [20]byte
	_, err := metainfo.Decode(bytes.NewReader(raw), peerID)
	require.ErrorIs(t, err, errs.ErrMetainfoMalformed)
}

func TestDecodeRejectsMalformedPieces(t *testing.T) {
	raw := encode(t, testTorrent{
		Announce: "http://tracker.example/announce",
		Info: testInfo{
			Pieces:      "short",
			PieceLength: 20,
			Length:      35,
			Name:        "example.bin",
		},
	})

	var peerID [20]byte
	_, err := metainfo.Decode(bytes.NewReader(raw), peerID)
	require.ErrorIs(t, err, errs.ErrMetainfoMalformed)
}
