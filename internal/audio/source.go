package audio

import (
	"context"
	"sync"
)

// Source exposes the two analysis buffers the extractor samples every tick.
// FrequencyData and TimeDomainData fill dst with unsigned byte magnitudes; both
// buffers hold BinCount entries.
type Source interface {
	Acquire(ctx context.Context) error
	Release() error
	BinCount() int
	SampleRate() float64
	FrequencyData(dst []byte)
	TimeDomainData(dst []byte)
}

// ErrorReporter is implemented by sources that can fail after acquisition,
// for example a capture device disconnecting mid-session.
type ErrorReporter interface {
	Errors() <-chan error
}

// BufferSource serves fixed buffers. It is used for tests and for replaying
// captured analysis data.
type BufferSource struct {
	mu         sync.Mutex
	sampleRate float64
	freq       []byte
	samples    []byte
	acquireErr error
	acquired   bool
	errs       chan error
}

func NewBufferSource(sampleRate float64, freq, samples []byte) *BufferSource {
	return &BufferSource{
		sampleRate: sampleRate,
		freq:       append([]byte(nil), freq...),
		samples:    append([]byte(nil), samples...),
		errs:       make(chan error, 1),
	}
}

// FailAcquire makes the next Acquire return err.
func (s *BufferSource) FailAcquire(err error) {
	s.mu.Lock()
	s.acquireErr = err
	s.mu.Unlock()
}

func (s *BufferSource) Acquire(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.acquireErr != nil {
		return s.acquireErr
	}
	s.acquired = true
	return nil
}

func (s *BufferSource) Release() error {
	s.mu.Lock()
	s.acquired = false
	s.mu.Unlock()
	return nil
}

// Acquired reports whether the source is currently held.
func (s *BufferSource) Acquired() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.acquired
}

// Set replaces both buffers. Lengths must stay equal to BinCount.
func (s *BufferSource) Set(freq, samples []byte) {
	s.mu.Lock()
	copy(s.freq, freq)
	copy(s.samples, samples)
	s.mu.Unlock()
}

func (s *BufferSource) BinCount() int { return len(s.freq) }

func (s *BufferSource) SampleRate() float64 { return s.sampleRate }

func (s *BufferSource) FrequencyData(dst []byte) {
	s.mu.Lock()
	copy(dst, s.freq)
	s.mu.Unlock()
}

func (s *BufferSource) TimeDomainData(dst []byte) {
	s.mu.Lock()
	copy(dst, s.samples)
	s.mu.Unlock()
}

// Fail reports an asynchronous source error. It never blocks.
func (s *BufferSource) Fail(err error) {
	select {
	case s.errs <- err:
	default:
	}
}

func (s *BufferSource) Errors() <-chan error { return s.errs }
