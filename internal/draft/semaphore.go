package draft

import (
	"context"
	"sync"
)

// Semaphore is a counting signal. Credits start at zero; Release adds
// credits and Acquire blocks until enough have accumulated.
//
// Acquire never consumes credits when it gives up on ctx, so a caller can
// wait in short slices and re-check its own fallback conditions between them.
type Semaphore struct {
	mu      sync.Mutex
	credits int
	signal  chan struct{}
}

func NewSemaphore() *Semaphore {
	return &Semaphore{signal: make(chan struct{})}
}

// Acquire blocks until n credits are available and consumes them, or
// returns ctx.Err() without consuming anything.
func (s *Semaphore) Acquire(ctx context.Context, n int) error {
	for {
		s.mu.Lock()
		if s.credits >= n {
			s.credits -= n
			s.mu.Unlock()
			return nil
		}
		signal := s.signal
		s.mu.Unlock()

		select {
		case <-signal:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Release adds n credits and wakes every waiter to re-check.
func (s *Semaphore) Release(n int) {
	s.mu.Lock()
	s.credits += n
	close(s.signal)
	s.signal = make(chan struct{})
	s.mu.Unlock()
}

func (s *Semaphore) Available() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.credits
}
