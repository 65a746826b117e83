package audio

import (
	"sync"
	"time"
)

// CancelFunc cancels a scheduled callback. Calling it more than once is harmless.
type CancelFunc func()

// Scheduler runs fn once at the next frame boundary.
type Scheduler interface {
	Schedule(fn func()) CancelFunc
}

// TimerScheduler schedules each callback Interval after it was requested.
type TimerScheduler struct {
	Interval time.Duration
}

// NewFrameScheduler returns a TimerScheduler that ticks fps times per second.
func NewFrameScheduler(fps float64) TimerScheduler {
	if fps <= 0 {
		fps = 60
	}
	return TimerScheduler{Interval: time.Duration(float64(time.Second) / fps)}
}

func (s TimerScheduler) Schedule(fn func()) CancelFunc {
	t := time.AfterFunc(s.Interval, fn)
	return func() { t.Stop() }
}

// ManualScheduler queues callbacks until Step is called. Tests use it to drive
// the extractor frame by frame.
type ManualScheduler struct {
	mu      sync.Mutex
	pending []*manualTask
}

type manualTask struct {
	fn        func()
	cancelled bool
}

func (s *ManualScheduler) Schedule(fn func()) CancelFunc {
	task := &manualTask{fn: fn}
	s.mu.Lock()
	s.pending = append(s.pending, task)
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		task.cancelled = true
		s.mu.Unlock()
	}
}

// Pending returns the number of queued, non-cancelled callbacks.
func (s *ManualScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, t := range s.pending {
		if !t.cancelled {
			n++
		}
	}
	return n
}

// Step runs every callback queued before the call and returns how many ran.
func (s *ManualScheduler) Step() int {
	s.mu.Lock()
	tasks := s.pending
	s.pending = nil
	s.mu.Unlock()

	ran := 0
	for _, t := range tasks {
		s.mu.Lock()
		cancelled := t.cancelled
		s.mu.Unlock()
		if cancelled {
			continue
		}
		t.fn()
		ran++
	}
	return ran
}
