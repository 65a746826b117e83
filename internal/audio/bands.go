package audio

import (
	"math"

	"github.com/Vasu1712/scenyx-live/internal/models"
)

// Band is a named frequency range in Hz.
type Band struct {
	Name string
	Low  float64
	High float64
}

var (
	BassBand   = Band{Name: "bass", Low: 20, High: 250}
	MidBand    = Band{Name: "mid", Low: 250, High: 4000}
	TrebleBand = Band{Name: "treble", Low: 4000, High: 20000}
)

const (
	// DefaultBandGain compensates for the naturally low raw energy of speech and music.
	DefaultBandGain = 4.0
	// DefaultVolumeGain is applied to the RMS of the time-domain buffer.
	DefaultVolumeGain = 5.0
)

// BinRange maps a band onto inclusive bin indices using floor(hz/nyquist*binCount).
// The high index is not clipped; callers stop at the buffer length.
func BinRange(band Band, nyquist float64, binCount int) (low, high int) {
	low = int(math.Floor(band.Low / nyquist * float64(binCount)))
	high = int(math.Floor(band.High / nyquist * float64(binCount)))
	return low, high
}

// BandEnergy averages the magnitudes inside band, normalizes by the maximum byte
// magnitude and applies gain, clamped to [0,1].
func BandEnergy(bins []byte, band Band, nyquist, gain float64) float64 {
	if nyquist <= 0 || len(bins) == 0 {
		return 0
	}
	low, high := BinRange(band, nyquist, len(bins))

	sum := 0.0
	count := 0
	for i := low; i <= high && i < len(bins); i++ {
		sum += float64(bins[i])
		count++
	}
	if count == 0 {
		return 0
	}

	normalized := sum / float64(count) / models.MaxMagnitude
	return clampUnit(normalized * gain)
}

// Volume is the RMS of the time-domain buffer (each byte sample mapped to [-1,1])
// with gain applied, clamped to [0,1].
func Volume(samples []byte, gain float64) float64 {
	if len(samples) == 0 {
		return 0
	}
	sum := 0.0
	for _, s := range samples {
		v := (float64(s) - 128) / 128
		sum += v * v
	}
	rms := math.Sqrt(sum / float64(len(samples)))
	return clampUnit(rms * gain)
}

func clampUnit(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
