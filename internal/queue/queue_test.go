package queue_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/torrentshed/gorent/internal/queue"
	"github.com/torrentshed/gorent/internal/swarm"
)

func TestFIFOOrder(t *testing.T) {
	q := queue.New([]swarm.PieceWork{{Index: 0}, {Index: 1}, {Index: 2}})
	for i := 0; i < 3; i++ {
		w, ok := q.Pop()
		require.True(t, ok)
		require.Equal(t, i, w.Index)
	}
	_, ok := q.Pop()
	require.False(t, ok)
}

func TestRequeuePushesToTail(t *testing.T) {
	q := queue.New([]swarm.PieceWork{{Index: 0}, {Index: 1}})
	w, _ := q.Pop()
	q.Push(w) // simulate peer-miss requeue
	second, _ := q.Pop()
	require.Equal(t, 1, second.Index)
	third, _ := q.Pop()
	require.Equal(t, 0, third.Index)
}

func TestConcurrentPushPopNeverLosesWork(t *testing.T) {
	const n = 200
	work := make([]swarm.PieceWork, n)
	for i := range work {
		work[i] = swarm.PieceWork{Index: i}
	}
	q := queue.New(work)

	seen := make([]int32, n)
	var mu sync.Mutex
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				w, ok := q.Pop()
				if !ok {
					return
				}
				mu.Lock()
				seen[w.Index]++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	for i, count := range seen {
		require.Equalf(t, int32(1), count, "piece %d seen %d times", i, count)
	}
}
