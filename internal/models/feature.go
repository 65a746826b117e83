package models

import (
	"errors"
	"fmt"
	"math"
)

// MaxMagnitude is the largest value a frequency bin or time-domain sample may carry.
// Buffers follow the byte layout of a browser AnalyserNode (0..255, time domain centred on 128).
const MaxMagnitude = 255.0

// FeatureFrame is one analysis tick emitted by the extractor. It is never mutated after emission.
type FeatureFrame struct {
	Timestamp         int64     `json:"timestamp"` // monotonic milliseconds
	Bass              float64   `json:"bass"`
	Mid               float64   `json:"mid"`
	Treble            float64   `json:"treble"`
	Volume            float64   `json:"volume"`
	Beat              bool      `json:"beat"`
	FrequencyBins     []float64 `json:"frequencyBins"`
	TimeDomainSamples []float64 `json:"timeDomainSamples"`
}

// Energy is the mean of the three band energies.
func (f *FeatureFrame) Energy() float64 {
	return (f.Bass + f.Mid + f.Treble) / 3
}

// Validate checks shape and ranges of a frame received from the network.
func (f *FeatureFrame) Validate(maxBins int) error {
	if f.Timestamp < 0 {
		return errors.New("timestamp must not be negative")
	}
	for name, v := range map[string]float64{"bass": f.Bass, "mid": f.Mid, "treble": f.Treble, "volume": f.Volume} {
		if !unitInterval(v) {
			return fmt.Errorf("%s out of range: %v", name, v)
		}
	}
	if len(f.FrequencyBins) == 0 {
		return errors.New("frequencyBins is empty")
	}
	if maxBins > 0 && (len(f.FrequencyBins) > maxBins || len(f.TimeDomainSamples) > maxBins) {
		return fmt.Errorf("buffers exceed %d entries", maxBins)
	}
	if err := checkMagnitudes("frequencyBins", f.FrequencyBins); err != nil {
		return err
	}
	return checkMagnitudes("timeDomainSamples", f.TimeDomainSamples)
}

func unitInterval(v float64) bool {
	return !math.IsNaN(v) && v >= 0 && v <= 1
}

func checkMagnitudes(name string, values []float64) error {
	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 || v > MaxMagnitude {
			return fmt.Errorf("%s[%d] out of range: %v", name, i, v)
		}
	}
	return nil
}
