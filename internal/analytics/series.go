package analytics

import (
	"math/bits"

	"github.com/bmharper/ringbuffer"
)

// series is a rolling window over the newest limit values. A RingP of size n
// is a power of two of at least 2 and holds n-1 values, so the ring may keep
// a few more values than limit; those are never read back.
type series[T any] struct {
	ring  ringbuffer.RingP[T]
	limit int
}

func newSeries[T any](limit int) *series[T] {
	limit = max(limit, 1)
	return &series[T]{ring: ringbuffer.NewRingP[T](nextPowerOf2(limit + 1)), limit: limit}
}

func (s *series[T]) add(v T) {
	s.ring.Add(v)
}

func (s *series[T]) len() int {
	return min(s.ring.Len(), s.limit)
}

// values copies the window out, oldest first.
func (s *series[T]) values() []T {
	n := s.ring.Len()
	out := make([]T, 0, s.len())
	for i := n - s.len(); i < n; i++ {
		out = append(out, s.ring.Peek(i))
	}
	return out
}

func nextPowerOf2(n int) int {
	if n <= 1 {
		return 1
	}
	return 1 << bits.Len(uint(n-1))
}
