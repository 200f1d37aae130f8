// Package controller implements the controller (component G): it seeds
// the work queue, spawns one worker per peer plus the status reporter,
// reassembles completed pieces into the artifact buffer, and reports
// download bandwidth on a rolling 3-second window.
package controller

import (
	"fmt"
	"time"

	"github.com/torrentshed/gorent/internal/errs"
	"github.com/torrentshed/gorent/internal/logging"
	"github.com/torrentshed/gorent/internal/queue"
	"github.com/torrentshed/gorent/internal/status"
	"github.com/torrentshed/gorent/internal/swarm"
	"github.com/torrentshed/gorent/internal/worker"
)

// resultBacklog and statusBacklog match the spec's fixed channel
// capacities: generous enough that backpressure isn't expected to
// engage at typical piece sizes, small enough to bound memory.
const (
	resultBacklog   = 100
	statusBacklog   = 100
	bandwidthWindow = 3 * time.Second
)

// Download drives the full piece-exchange to completion and returns
// the assembled artifact.
func Download(descriptor *swarm.TorrentDescriptor, peers []swarm.PeerEndpoint) ([]byte, error) {
	log := logging.New("controller")
	log.Info().Str("name", descriptor.DisplayName).Int("pieces", descriptor.PieceCount()).Int("peers", len(peers)).Msg("starting download")

	q := queue.New(descriptor.Work())
	results := make(chan swarm.PieceResult, resultBacklog)
	statusCh := make(chan status.Event, statusBacklog)

	reporter := status.New()
	go reporter.Run(statusCh)

	for _, p := range peers {
		go worker.Run(p, descriptor, q, results, statusCh)
	}

	artifact := make([]byte, descriptor.TotalLength)
	total := descriptor.PieceCount()

	windowStart := time.Now()
	var windowBytes int64

	for done := 0; done < total; done++ {
		res, ok := <-results
		if !ok {
			return nil, errs.ErrChannelClosed
		}

		start, end := descriptor.PieceBounds(res.Index)
		copy(artifact[start:end], res.Payload)
		windowBytes += int64(len(res.Payload))

		if elapsed := time.Since(windowStart); elapsed >= bandwidthWindow {
			kBps := float64(windowBytes) / 1024 / elapsed.Seconds()
			fmt.Printf("(%.1f kB/s) %d/%d pieces\n", kBps, done+1, total)
			windowStart = time.Now()
			windowBytes = 0
		}
	}

	log.Info().Msg("download complete")
	return artifact, nil
}
