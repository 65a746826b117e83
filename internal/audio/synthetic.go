package audio

import (
	"context"
	"math"
	"sync"
	"time"
)

// SyntheticSource renders a tone with a periodic kick drum. It stands in for a
// capture device when none is available.
type SyntheticSource struct {
	sampleRate float64
	toneHz     float64
	period     time.Duration
	now        func() time.Time

	mu       sync.Mutex
	analyser *Analyser
	origin   time.Time
	buf      []float64
	acquired bool
}

// NewSyntheticSource returns a source playing toneHz with a kick every beat of bpm.
func NewSyntheticSource(sampleRate, toneHz, bpm float64) *SyntheticSource {
	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}
	if bpm <= 0 {
		bpm = 120
	}
	a, _ := NewAnalyser(DefaultFFTSize)
	return &SyntheticSource{
		sampleRate: sampleRate,
		toneHz:     toneHz,
		period:     time.Duration(float64(time.Minute) / bpm),
		now:        time.Now,
		analyser:   a,
		buf:        make([]float64, DefaultFFTSize),
	}
}

func (s *SyntheticSource) Acquire(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	s.origin = s.now()
	s.acquired = true
	s.mu.Unlock()
	return nil
}

func (s *SyntheticSource) Release() error {
	s.mu.Lock()
	s.acquired = false
	s.mu.Unlock()
	return nil
}

func (s *SyntheticSource) BinCount() int { return s.analyser.BinCount() }

func (s *SyntheticSource) SampleRate() float64 { return s.sampleRate }

func (s *SyntheticSource) FrequencyData(dst []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.render()
	s.analyser.FrequencyData(s.buf, dst)
}

func (s *SyntheticSource) TimeDomainData(dst []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.render()
	s.analyser.TimeDomainData(s.buf, dst)
}

// render fills buf with the window of samples ending at the current time.
func (s *SyntheticSource) render() {
	end := s.now().Sub(s.origin).Seconds()
	period := s.period.Seconds()
	n := len(s.buf)

	for i := range s.buf {
		t := end - float64(n-i)/s.sampleRate
		if t < 0 {
			t = 0
		}
		sinceKick := math.Mod(t, period)
		kick := 0.8 * math.Exp(-sinceKick*18) * math.Sin(2*math.Pi*55*t)
		tone := 0.2 * math.Sin(2*math.Pi*s.toneHz*t)
		s.buf[i] = kick + tone
	}
}
