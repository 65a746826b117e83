package audio

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/dsp/window"
)

const (
	DefaultSampleRate = 44100.0
	DefaultFFTSize    = 1024
	DefaultSmoothing  = 0.3
	DefaultMinDecibel = -100.0
	DefaultMaxDecibel = -30.0
)

// Analyser converts a window of float PCM into byte spectra the way a browser
// AnalyserNode does: Blackman window, FFT, exponential smoothing across calls, and
// a decibel range mapped onto 0..255. It is not safe for concurrent use.
type Analyser struct {
	size      int
	fft       *fourier.FFT
	window    []float64
	smoothing float64
	minDB     float64
	maxDB     float64

	smoothed []float64
	scratch  []float64
	coeffs   []complex128
}

// NewAnalyser returns an analyser for fftSize samples. fftSize must be a power of
// two of at least 32.
func NewAnalyser(fftSize int) (*Analyser, error) {
	if fftSize < 32 || fftSize&(fftSize-1) != 0 {
		return nil, fmt.Errorf("%w: fft size %d is not a power of two >= 32", ErrUnsupportedPlatform, fftSize)
	}
	ones := make([]float64, fftSize)
	for i := range ones {
		ones[i] = 1
	}
	return &Analyser{
		size:      fftSize,
		fft:       fourier.NewFFT(fftSize),
		window:    window.Blackman(ones),
		smoothing: DefaultSmoothing,
		minDB:     DefaultMinDecibel,
		maxDB:     DefaultMaxDecibel,
		smoothed:  make([]float64, fftSize/2),
		scratch:   make([]float64, fftSize),
		coeffs:    make([]complex128, fftSize/2+1),
	}, nil
}

// Size returns the number of input samples per analysis.
func (a *Analyser) Size() int { return a.size }

// BinCount is half the FFT size.
func (a *Analyser) BinCount() int { return a.size / 2 }

// FrequencyData analyses the most recent Size samples (values in [-1,1]) and
// writes byte magnitudes to dst.
func (a *Analyser) FrequencyData(samples []float64, dst []byte) {
	n := copy(a.scratch, tail(samples, a.size))
	for i := n; i < a.size; i++ {
		a.scratch[i] = 0
	}
	for i := range a.scratch {
		a.scratch[i] *= a.window[i]
	}

	a.coeffs = a.fft.Coefficients(a.coeffs, a.scratch)

	span := a.maxDB - a.minDB
	for k := 0; k < len(a.smoothed) && k < len(dst); k++ {
		c := a.coeffs[k]
		mag := math.Hypot(real(c), imag(c)) / float64(a.size)
		a.smoothed[k] = a.smoothing*a.smoothed[k] + (1-a.smoothing)*mag

		db := DefaultMinDecibel
		if a.smoothed[k] > 0 {
			db = 20 * math.Log10(a.smoothed[k])
		}
		dst[k] = clampByte(255 * (db - a.minDB) / span)
	}
}

// TimeDomainData writes the most recent BinCount samples to dst, mapped from
// [-1,1] onto 0..255 with 128 as silence.
func (a *Analyser) TimeDomainData(samples []float64, dst []byte) {
	src := tail(samples, len(dst))
	for i := range dst {
		if i >= len(src) {
			dst[i] = 128
			continue
		}
		dst[i] = clampByte(128 * (src[i] + 1))
	}
}

func tail(s []float64, n int) []float64 {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}

func clampByte(v float64) byte {
	switch {
	case math.IsNaN(v) || v <= 0:
		return 0
	case v >= 255:
		return 255
	default:
		return byte(v)
	}
}
