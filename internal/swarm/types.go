// Package swarm holds the plain data model shared across the engine:
// the torrent descriptor, the piece work/result pair, and the peer
// endpoint — nothing here does I/O.
package swarm

import (
	"fmt"
	"net"
	"strconv"
)

// TorrentDescriptor is the immutable, validated output of the metainfo
// decoder. Single-file descriptors only.
type TorrentDescriptor struct {
	AnnounceURL        string
	DisplayName        string
	TotalLength        int64
	PieceLength        int64
	PieceHashes        [][20]byte
	InfoHash           [20]byte
	InfoHashURLEncoded string
	PeerID             [20]byte
}

// PieceCount returns the number of piece hashes, len(PieceHashes). For a
// well-formed descriptor this equals ceil(TotalLength / PieceLength); the
// two are not checked against each other.
func (d *TorrentDescriptor) PieceCount() int {
	return len(d.PieceHashes)
}

// PieceBounds returns the half-open byte range [start, end) for piece i.
// The final piece may be shorter than PieceLength.
func (d *TorrentDescriptor) PieceBounds(i int) (start, end int64) {
	start = int64(i) * d.PieceLength
	end = start + d.PieceLength
	if end > d.TotalLength {
		end = d.TotalLength
	}
	return start, end
}

// PieceLen returns the byte length of piece i.
func (d *TorrentDescriptor) PieceLen(i int) int64 {
	start, end := d.PieceBounds(i)
	return end - start
}

// Work seeds the work queue with every piece in the descriptor.
func (d *TorrentDescriptor) Work() []PieceWork {
	work := make([]PieceWork, d.PieceCount())
	for i := range work {
		work[i] = PieceWork{
			Index:  i,
			Hash:   d.PieceHashes[i],
			Length: d.PieceLen(i),
		}
	}
	return work
}

// PieceWork is one queue item: the piece a worker must fetch and verify.
type PieceWork struct {
	Index  int
	Hash   [20]byte
	Length int64
}

// PieceResult is a completed, hash-verified piece ready for assembly.
type PieceResult struct {
	Index   int
	Payload []byte
}

// PeerEndpoint is an IPv4 address + TCP port parsed from the tracker's
// compact peer list.
type PeerEndpoint struct {
	IP   net.IP
	Port uint16
}

func (p PeerEndpoint) String() string {
	return net.JoinHostPort(p.IP.String(), strconv.Itoa(int(p.Port)))
}

// ID is a stable identifier for status reporting; the IP alone, since
// the spec's status events key on peer IP.
func (p PeerEndpoint) ID() string {
	return fmt.Sprintf("%s", p.IP.String())
}

// UnmarshalPeers decodes the tracker's compact peer representation: a
// concatenation of 6-byte records, 4 IPv4 octets followed by a 2-byte
// big-endian port.
func UnmarshalPeers(peersBin []byte) ([]PeerEndpoint, error) {
	const recordSize = 6
	if len(peersBin)%recordSize != 0 {
		return nil, fmt.Errorf("malformed compact peer list: %d bytes not a multiple of %d", len(peersBin), recordSize)
	}
	numPeers := len(peersBin) / recordSize
	peers := make([]PeerEndpoint, numPeers)
	for i := 0; i < numPeers; i++ {
		offset := i * recordSize
		peers[i].IP = net.IP(peersBin[offset : offset+4])
		peers[i].Port = uint16(peersBin[offset+4])<<8 | uint16(peersBin[offset+5])
	}
	return peers, nil
}
