package audio

import (
	"bytes"
	"context"
	"encoding/binary"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sine(n int, hz, sampleRate, amp float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = amp * math.Sin(2*math.Pi*hz*float64(i)/sampleRate)
	}
	return out
}

func TestNewAnalyserRejectsBadSize(t *testing.T) {
	_, err := NewAnalyser(1000)
	assert.ErrorIs(t, err, ErrUnsupportedPlatform)

	_, err = NewAnalyser(16)
	assert.Error(t, err)

	a, err := NewAnalyser(DefaultFFTSize)
	require.NoError(t, err)
	assert.Equal(t, 512, a.BinCount())
}

func TestAnalyserSilence(t *testing.T) {
	a, err := NewAnalyser(DefaultFFTSize)
	require.NoError(t, err)

	freq := make([]byte, a.BinCount())
	a.FrequencyData(make([]float64, DefaultFFTSize), freq)
	assert.Equal(t, filled(512, 0), freq)

	samples := make([]byte, a.BinCount())
	a.TimeDomainData(make([]float64, DefaultFFTSize), samples)
	assert.Equal(t, filled(512, 128), samples)
}

func TestAnalyserPeakAtToneBin(t *testing.T) {
	a, err := NewAnalyser(DefaultFFTSize)
	require.NoError(t, err)

	const bin = 32
	hz := float64(bin) * DefaultSampleRate / DefaultFFTSize
	freq := make([]byte, a.BinCount())
	a.FrequencyData(sine(DefaultFFTSize, hz, DefaultSampleRate, 0.5), freq)

	peak := 0
	for i := range freq {
		if freq[i] > freq[peak] {
			peak = i
		}
	}
	assert.Equal(t, bin, peak)
	assert.Greater(t, freq[bin], byte(200))
}

func TestPCMSourceReadsSamplesAndReportsEOF(t *testing.T) {
	pcm := new(bytes.Buffer)
	for _, v := range sine(DefaultFFTSize, 440, DefaultSampleRate, 0.8) {
		require.NoError(t, binary.Write(pcm, binary.LittleEndian, int16(v*32767)))
	}

	src, err := NewPCMSource(bytes.NewReader(pcm.Bytes()), DefaultSampleRate, DefaultFFTSize)
	require.NoError(t, err)
	require.NoError(t, src.Acquire(context.Background()))
	defer src.Release()

	select {
	case err := <-src.Errors():
		assert.ErrorIs(t, err, ErrSourceUnavailable)
	case <-time.After(time.Second):
		t.Fatal("expected end of input to be reported")
	}

	samples := make([]byte, src.BinCount())
	src.TimeDomainData(samples)
	assert.NotEqual(t, filled(len(samples), 128), samples)
	assert.Greater(t, Volume(samples, DefaultVolumeGain), 0.5)
}

func TestPCMSourceWithoutReader(t *testing.T) {
	src, err := NewPCMSource(nil, DefaultSampleRate, DefaultFFTSize)
	require.NoError(t, err)
	assert.ErrorIs(t, src.Acquire(context.Background()), ErrSourceUnavailable)
}

func TestSyntheticSourceDrivesBass(t *testing.T) {
	clock := newFakeClock()
	src := NewSyntheticSource(DefaultSampleRate, 880, 120)
	src.now = clock.Now

	e := NewExtractor(src, &ManualScheduler{}, WithClock(clock.Now))
	require.NoError(t, e.Start(context.Background()))
	defer e.Stop()

	clock.Advance(520 * time.Millisecond)
	frame, ok := e.Tick()
	require.True(t, ok)
	assert.Greater(t, frame.Bass, 0.0)
	assert.Greater(t, frame.Volume, 0.0)
}
