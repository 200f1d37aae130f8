// Package tracker implements the single-shot HTTP tracker announce
// (component J): a GET against the descriptor's announce URL, decoding
// a bencoded {peers, interval} response into a peer list.
package tracker

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/jackpal/bencode-go"

	"github.com/torrentshed/gorent/internal/errs"
	"github.com/torrentshed/gorent/internal/logging"
	"github.com/torrentshed/gorent/internal/swarm"
)

type response struct {
	Interval int    `bencode:"interval"`
	Peers    string `bencode:"peers"`
}

// FetchPeers announces to descriptor's tracker and returns the peers it
// hands back. UDP trackers are a non-goal and are rejected outright.
func FetchPeers(descriptor *swarm.TorrentDescriptor, port uint16) ([]swarm.PeerEndpoint, error) {
	log := logging.New("tracker")

	announceURL, err := buildAnnounceURL(descriptor, port)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrTrackerUnreachable, err)
	}

	resp, err := http.Get(announceURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrTrackerUnreachable, err)
	}
	defer resp.Body.Close()

	var tr response
	if err := bencode.Unmarshal(resp.Body, &tr); err != nil {
		return nil, fmt.Errorf("%w: decoding tracker response: %v", errs.ErrTrackerUnreachable, err)
	}
	log.Debug().Int("interval", tr.Interval).Msg("tracker announce succeeded")

	peers, err := swarm.UnmarshalPeers([]byte(tr.Peers))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrTrackerUnreachable, err)
	}
	return peers, nil
}

func buildAnnounceURL(descriptor *swarm.TorrentDescriptor, port uint16) (string, error) {
	base, err := url.Parse(descriptor.AnnounceURL)
	if err != nil {
		return "", fmt.Errorf("parsing announce url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return "", fmt.Errorf("unsupported tracker protocol %q (UDP trackers are a non-goal)", base.Scheme)
	}

	params := url.Values{
		"port":       []string{strconv.Itoa(int(port))},
		"uploaded":   []string{"0"},
		"downloaded": []string{"0"},
		"compact":    []string{"1"},
		"left":       []string{strconv.FormatInt(descriptor.TotalLength, 10)},
	}
	base.RawQuery = params.Encode() +
		"&info_hash=" + descriptor.InfoHashURLEncoded +
		"&peer_id=" + percentEncodePeerID(descriptor.PeerID)
	return base.String(), nil
}

func percentEncodePeerID(peerID [20]byte) string {
	// peer_id does not use info_hash's allow-list: only letters, digits
	// and .-_~ are left literal, every other byte is percent-escaped. The
	// metainfo package owns the info_hash table and does not export it.
	// Since peer ids are ASCII-safe by construction (see cmd/gorent), a
	// plain percent-escape of the raw bytes here is sufficient and keeps
	// this package free of a metainfo import.
	const hex = "0123456789ABCDEF"
	out := make([]byte, 0, len(peerID)*3)
	for _, c := range peerID {
		if (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') ||
			c == '.' || c == '-' || c == '_' || c == '~' {
			out = append(out, c)
		} else {
			out = append(out, '%', hex[c>>4], hex[c&0xF])
		}
	}
	return string(out)
}
