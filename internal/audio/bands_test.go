package audio

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func filled(n int, v byte) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = v
	}
	return b
}

func TestBinRange(t *testing.T) {
	nyquist := DefaultSampleRate / 2

	low, high := BinRange(BassBand, nyquist, 512)
	assert.Equal(t, 0, low)
	assert.Equal(t, 5, high)

	low, high = BinRange(MidBand, nyquist, 512)
	assert.Equal(t, 5, low)
	assert.Equal(t, 92, high)

	low, high = BinRange(TrebleBand, nyquist, 512)
	assert.Equal(t, 92, low)
	assert.Equal(t, 464, high)
}

func TestBandEnergy(t *testing.T) {
	nyquist := DefaultSampleRate / 2

	tests := []struct {
		name string
		bins []byte
		gain float64
		want float64
	}{
		{name: "silence", bins: filled(512, 0), gain: DefaultBandGain, want: 0},
		{name: "saturated clamps to one", bins: filled(512, 255), gain: DefaultBandGain, want: 1},
		{name: "quiet", bins: filled(512, 32), gain: DefaultBandGain, want: 32.0 / 255 * 4},
		{name: "unity gain", bins: filled(512, 51), gain: 1, want: 0.2},
		{name: "empty buffer", bins: nil, gain: DefaultBandGain, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BandEnergy(tt.bins, BassBand, nyquist, tt.gain)
			assert.InDelta(t, tt.want, got, 1e-9)
			assert.GreaterOrEqual(t, got, 0.0)
			assert.LessOrEqual(t, got, 1.0)
		})
	}
}

func TestBandEnergyHighIndexClipped(t *testing.T) {
	// A 16 kHz sample rate puts the treble band's top edge past the buffer.
	bins := filled(64, 255)
	got := BandEnergy(bins, TrebleBand, 8000, 1)
	assert.InDelta(t, 1.0, got, 1e-9)
}

func TestVolume(t *testing.T) {
	assert.Equal(t, 0.0, Volume(filled(512, 128), DefaultVolumeGain))
	assert.Equal(t, 0.0, Volume(nil, DefaultVolumeGain))
	assert.InDelta(t, 12.0/128*5, Volume(filled(512, 140), DefaultVolumeGain), 1e-9)

	loud := make([]byte, 512)
	for i := range loud {
		if i%2 == 0 {
			loud[i] = 255
		}
	}
	assert.Equal(t, 1.0, Volume(loud, DefaultVolumeGain))
}
