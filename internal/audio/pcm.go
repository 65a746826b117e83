package audio

import (
	"bufio"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"sync"
)

const pcmChunkSamples = 256

// PCMSource analyses signed 16-bit little-endian mono PCM read from an io.Reader,
// for example a capture pipe on stdin. A reader goroutine keeps a ring of the most
// recent samples; the analysis buffers are computed on demand.
type PCMSource struct {
	r          io.Reader
	sampleRate float64
	analyser   *Analyser

	mu      sync.Mutex
	ring    []float64
	pos     int
	ordered []float64
	running bool
	done    chan struct{}
	errs    chan error
}

func NewPCMSource(r io.Reader, sampleRate float64, fftSize int) (*PCMSource, error) {
	a, err := NewAnalyser(fftSize)
	if err != nil {
		return nil, err
	}
	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}
	return &PCMSource{
		r:          r,
		sampleRate: sampleRate,
		analyser:   a,
		ring:       make([]float64, fftSize),
		ordered:    make([]float64, fftSize),
		errs:       make(chan error, 1),
	}, nil
}

func (s *PCMSource) Acquire(ctx context.Context) error {
	if s.r == nil {
		return ErrSourceUnavailable
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return nil
	}
	s.running = true
	s.done = make(chan struct{})
	go s.readLoop(s.done)
	return nil
}

// Release stops consuming samples. If the reader is also an io.Closer it is
// closed so a blocked read returns.
func (s *PCMSource) Release() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	close(s.done)
	s.mu.Unlock()

	if c, ok := s.r.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func (s *PCMSource) BinCount() int { return s.analyser.BinCount() }

func (s *PCMSource) SampleRate() float64 { return s.sampleRate }

func (s *PCMSource) FrequencyData(dst []byte) {
	s.analyser.FrequencyData(s.snapshot(), dst)
}

func (s *PCMSource) TimeDomainData(dst []byte) {
	s.analyser.TimeDomainData(s.snapshot(), dst)
}

func (s *PCMSource) Errors() <-chan error { return s.errs }

// snapshot returns the ring in chronological order. Only the tick goroutine calls it.
func (s *PCMSource) snapshot() []float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := copy(s.ordered, s.ring[s.pos:])
	copy(s.ordered[n:], s.ring[:s.pos])
	return s.ordered
}

func (s *PCMSource) readLoop(done <-chan struct{}) {
	br := bufio.NewReader(s.r)
	chunk := make([]int16, pcmChunkSamples)

	for {
		select {
		case <-done:
			return
		default:
		}

		err := binary.Read(br, binary.LittleEndian, chunk)
		if err != nil {
			select {
			case <-done:
				return
			default:
			}
			if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
				err = fmt.Errorf("%w: input ended", ErrSourceUnavailable)
			}
			s.fail(err)
			return
		}

		s.mu.Lock()
		for _, v := range chunk {
			s.ring[s.pos] = float64(v) / 32768
			s.pos = (s.pos + 1) % len(s.ring)
		}
		s.mu.Unlock()
	}
}

func (s *PCMSource) fail(err error) {
	select {
	case s.errs <- err:
	default:
	}
}
