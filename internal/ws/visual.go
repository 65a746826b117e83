package ws

import (
	"math"

	"github.com/Vasu1712/scenyx-live/internal/models"
)

// DeriveVisual computes rendering parameters for frame under preset. A nil preset
// behaves like the default preset.
func DeriveVisual(frame models.FeatureFrame, preset *models.Preset) models.VisualParameters {
	intensity := 1.0
	bassReactive := true
	if preset != nil {
		if preset.Settings.Intensity > 0 {
			intensity = preset.Settings.Intensity
		}
		bassReactive = preset.Effects.BassReactive
	}

	bars := frame.FrequencyBins
	if len(bars) > models.SpectrumBarCount {
		bars = bars[:models.SpectrumBarCount]
	}

	params := models.VisualParameters{
		ColorIntensity: math.Min(frame.Energy()*2*intensity, 1),
		ParticleCount:  int(math.Floor(frame.Bass * 100)),
		WaveAmplitude:  frame.Volume * 0.5,
		SpectrumBars:   append([]float64{}, bars...),
	}
	if bassReactive {
		params.BassReaction = frame.Bass
	}
	return params
}
