// Package metainfo decodes a bencoded single-file .torrent descriptor
// into a swarm.TorrentDescriptor (component I). Multi-file descriptors
// are rejected: multi-file support is an explicit non-goal of this engine.
package metainfo

import (
	"bytes"
	"crypto/sha1"
	"fmt"
	"io"
	"os"

	"github.com/jackpal/bencode-go"

	"github.com/torrentshed/gorent/internal/errs"
	"github.com/torrentshed/gorent/internal/swarm"
)

// unreservedAllowList is the conservative allow-list from the tracker
// protocol convention: unreserved ASCII plus a handful of URL-structural
// characters. Anything outside it is percent-encoded.
const unreservedAllowList = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789" +
	".-_~!*'();/?:@&=+$,#"

var allowed [256]bool

func init() {
	for _, c := range []byte(unreservedAllowList) {
		allowed[c] = true
	}
}

// encodeInfoHash percent-encodes raw bytes (typically a 20-byte
// info-hash) using the tracker's allow-list rather than url.QueryEscape,
// which escapes several of the characters trackers expect literal.
func encodeInfoHash(b []byte) string {
	var buf bytes.Buffer
	for _, c := range b {
		if allowed[c] {
			buf.WriteByte(c)
		} else {
			fmt.Fprintf(&buf, "%%%02X", c)
		}
	}
	return buf.String()
}

type bencodeFile struct {
	Length int64    `bencode:"length"`
	Path   []string `bencode:"path"`
}

// bencodeInfo mirrors exactly the fields the teacher hashes (pieces,
// piece length, length, name). It deliberately does NOT carry a Files
// field: re-marshaling it for the info-hash must reproduce the same
// bytes the original encoder would have produced for a single-file
// descriptor, and this library's Marshal has no documented omitempty
// support to rely on for suppressing an absent multi-file key.
type bencodeInfo struct {
	Pieces      string `bencode:"pieces"`
	PieceLength int64  `bencode:"piece length"`
	Length      int64  `bencode:"length"`
	Name        string `bencode:"name"`
}

type bencodeTorrent struct {
	Announce string      `bencode:"announce"`
	Info     bencodeInfo `bencode:"info"`
}

// multiFileProbe is decoded separately (from the same bytes) only to
// detect the presence of a "files" list; its result never feeds the
// info-hash computation.
type multiFileProbe struct {
	Info struct {
		Files []bencodeFile `bencode:"files"`
	} `bencode:"info"`
}

// Parse decodes a .torrent file from path into a TorrentDescriptor,
// stamping it with peerID (the caller's fixed 20-byte client identifier).
func Parse(path string, peerID [20]byte) (*swarm.TorrentDescriptor, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: opening %s: %v", errs.ErrMetainfoMalformed, path, err)
	}
	defer f.Close()
	return Decode(f, peerID)
}

// Decode decodes a .torrent descriptor from r.
func Decode(r io.Reader, peerID [20]byte) (*swarm.TorrentDescriptor, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: reading descriptor: %v", errs.ErrMetainfoMalformed, err)
	}

	var bto bencodeTorrent
	if err := bencode.Unmarshal(bytes.NewReader(raw), &bto); err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrMetainfoMalformed, err)
	}

	var probe multiFileProbe
	if err := bencode.Unmarshal(bytes.NewReader(raw), &probe); err == nil && len(probe.Info.Files) > 0 {
		return nil, fmt.Errorf("%w: multi-file descriptors are not supported", errs.ErrMetainfoMalformed)
	}
	if bto.Info.PieceLength <= 0 || bto.Info.Length <= 0 {
		return nil, fmt.Errorf("%w: non-positive piece length or total length", errs.ErrMetainfoMalformed)
	}

	infoHash, err := hashInfo(&bto.Info)
	if err != nil {
		return nil, err
	}

	pieceHashes, err := splitPieceHashes(bto.Info.Pieces)
	if err != nil {
		return nil, err
	}

	return &swarm.TorrentDescriptor{
		AnnounceURL:        bto.Announce,
		DisplayName:        bto.Info.Name,
		TotalLength:        bto.Info.Length,
		PieceLength:        bto.Info.PieceLength,
		PieceHashes:        pieceHashes,
		InfoHash:           infoHash,
		InfoHashURLEncoded: encodeInfoHash(infoHash[:]),
		PeerID:             peerID,
	}, nil
}

func hashInfo(info *bencodeInfo) ([20]byte, error) {
	var buf bytes.Buffer
	if err := bencode.Marshal(&buf, *info); err != nil {
		return [20]byte{}, fmt.Errorf("%w: re-encoding info dict: %v", errs.ErrMetainfoMalformed, err)
	}
	return sha1.Sum(buf.Bytes()), nil
}

func splitPieceHashes(pieces string) ([][20]byte, error) {
	const hashLen = 20
	data := []byte(pieces)
	if len(data)%hashLen != 0 {
		return nil, fmt.Errorf("%w: pieces field length %d is not a multiple of %d", errs.ErrMetainfoMalformed, len(data), hashLen)
	}
	hashes := make([][20]byte, len(data)/hashLen)
	for i := range hashes {
		copy(hashes[i][:], data[i*hashLen:(i+1)*hashLen])
	}
	return hashes, nil
}
