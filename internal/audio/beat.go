package audio

import (
	"math"
	"time"
)

// BeatConfig tunes the adaptive beat detector.
type BeatConfig struct {
	InitialThreshold float64
	MinThreshold     float64
	MaxThreshold     float64
	Decay            float64 // multiplicative, applied after a beat
	Creep            float64 // additive, applied on every tick without a beat
	MinInterval      time.Duration
}

// DefaultBeatConfig returns the detector tuning used by the browser client.
func DefaultBeatConfig() BeatConfig {
	return BeatConfig{
		InitialThreshold: 0.05,
		MinThreshold:     0.02,
		MaxThreshold:     0.6,
		Decay:            0.9,
		Creep:            0.0005,
		MinInterval:      80 * time.Millisecond,
	}
}

// BeatDetector flags transients in bass-weighted energy against a threshold that
// calibrates itself to the ambient loudness. It is not safe for concurrent use.
type BeatDetector struct {
	cfg       BeatConfig
	threshold float64
	lastBeat  time.Time
	beaten    bool
}

func NewBeatDetector(cfg BeatConfig) *BeatDetector {
	return &BeatDetector{cfg: cfg, threshold: cfg.InitialThreshold}
}

// Threshold returns the current adaptive threshold.
func (d *BeatDetector) Threshold() float64 {
	return d.threshold
}

// Detect reports whether bass*volume constitutes a beat at now.
func (d *BeatDetector) Detect(bass, volume float64, now time.Time) bool {
	energy := bass * volume
	intervalOK := !d.beaten || now.Sub(d.lastBeat) >= d.cfg.MinInterval

	if energy > d.threshold && intervalOK {
		d.lastBeat = now
		d.beaten = true
		d.threshold = math.Max(d.cfg.MinThreshold, d.threshold*d.cfg.Decay)
		return true
	}

	d.threshold = math.Min(d.cfg.MaxThreshold, d.threshold+d.cfg.Creep)
	return false
}

// Reset restores the initial threshold and forgets the last beat.
func (d *BeatDetector) Reset() {
	d.threshold = d.cfg.InitialThreshold
	d.beaten = false
	d.lastBeat = time.Time{}
}
