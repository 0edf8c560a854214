package timeline

import (
	"context"
	"sync"
	"time"
)

// DefaultThrottle is the minimum interval between render flushes.
const DefaultThrottle = 100 * time.Millisecond

// Scheduler batches events and hands them to a flush callback at a bounded
// cadence: at most one flush per throttle interval, at least one flush while
// the queue is non-empty, never two flushes in flight. Producers enqueue
// without blocking; back-pressure is absorbed by the queue.
type Scheduler struct {
	mu        sync.Mutex
	queue     []Event
	interval  time.Duration
	flush     func([]Event)
	wake      chan struct{}
	lastFlush time.Time
	flushed   uint64
}

// NewScheduler builds a scheduler delivering batches to flush. The callback
// runs on the scheduler goroutine when Run is active, or on the caller's
// goroutine through Drain.
func NewScheduler(interval time.Duration, flush func([]Event)) *Scheduler {
	if interval <= 0 {
		interval = DefaultThrottle
	}
	return &Scheduler{
		interval: interval,
		flush:    flush,
		wake:     make(chan struct{}, 1),
	}
}

// Enqueue appends an event to the pending batch and nudges the flush loop.
// It never blocks.
func (s *Scheduler) Enqueue(ev Event) {
	if s == nil {
		return
	}
	s.mu.Lock()
	s.queue = append(s.queue, ev)
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// Run drives the flush loop until ctx is cancelled. Events enqueued while a
// throttle interval is still open are coalesced into the next flush.
func (s *Scheduler) Run(ctx context.Context) {
	if s == nil {
		return
	}
	timer := time.NewTimer(s.interval)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.wake:
		}

		if wait := s.remainingThrottle(); wait > 0 {
			timer.Reset(wait)
		waiting:
			for {
				select {
				case <-ctx.Done():
					if !timer.Stop() {
						<-timer.C
					}
					return
				case <-s.wake:
					// coalesce; the open interval absorbs new events
				case <-timer.C:
					break waiting
				}
			}
		}
		s.Drain()
	}
}

func (s *Scheduler) remainingThrottle() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lastFlush.IsZero() {
		return 0
	}
	elapsed := time.Since(s.lastFlush)
	if elapsed >= s.interval {
		return 0
	}
	return s.interval - elapsed
}

// Drain synchronously flushes the whole pending batch in one render pass.
// It is the throttle-free entry point tests use to avoid wall-clock sleeps.
func (s *Scheduler) Drain() {
	if s == nil {
		return
	}
	s.mu.Lock()
	batch := s.queue
	s.queue = nil
	s.lastFlush = time.Now()
	if len(batch) > 0 {
		s.flushed++
	}
	s.mu.Unlock()

	if len(batch) == 0 {
		return
	}
	if s.flush != nil {
		s.flush(batch)
	}
}

// QueueLen returns the number of pending events.
func (s *Scheduler) QueueLen() int {
	if s == nil {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

// Flushes returns how many non-empty flushes have completed.
func (s *Scheduler) Flushes() uint64 {
	if s == nil {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flushed
}

// Clear discards any pending events without flushing them.
func (s *Scheduler) Clear() {
	if s == nil {
		return
	}
	s.mu.Lock()
	s.queue = nil
	s.mu.Unlock()
}
