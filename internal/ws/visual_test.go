package ws

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Vasu1712/scenyx-live/internal/models"
)

func TestDeriveVisual(t *testing.T) {
	bins := make([]float64, 64)
	for i := range bins {
		bins[i] = float64(i)
	}
	frame := models.FeatureFrame{Bass: 0.9, Mid: 0.3, Treble: 0.3, Volume: 0.8, FrequencyBins: bins}

	def := models.DefaultPreset()
	calm := models.Preset{ID: "calm", Settings: models.PresetSettings{Intensity: 0.25}}

	tests := []struct {
		name   string
		preset *models.Preset
		want   models.VisualParameters
	}{
		{
			name:   "default preset",
			preset: &def,
			want:   models.VisualParameters{ColorIntensity: 1, ParticleCount: 90, WaveAmplitude: 0.4, SpectrumBars: bins[:32], BassReaction: 0.9},
		},
		{
			name:   "nil preset behaves as default",
			preset: nil,
			want:   models.VisualParameters{ColorIntensity: 1, ParticleCount: 90, WaveAmplitude: 0.4, SpectrumBars: bins[:32], BassReaction: 0.9},
		},
		{
			name:   "low intensity without bass reaction",
			preset: &calm,
			want:   models.VisualParameters{ColorIntensity: 0.25, ParticleCount: 90, WaveAmplitude: 0.4, SpectrumBars: bins[:32], BassReaction: 0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DeriveVisual(frame, tt.preset)
			assert.InDelta(t, tt.want.ColorIntensity, got.ColorIntensity, 1e-9)
			assert.Equal(t, tt.want.ParticleCount, got.ParticleCount)
			assert.InDelta(t, tt.want.WaveAmplitude, got.WaveAmplitude, 1e-9)
			assert.Equal(t, tt.want.SpectrumBars, got.SpectrumBars)
			assert.InDelta(t, tt.want.BassReaction, got.BassReaction, 1e-9)
		})
	}
}

func TestDeriveVisualShortSpectrum(t *testing.T) {
	got := DeriveVisual(models.FeatureFrame{FrequencyBins: []float64{1, 2, 3}}, nil)
	assert.Equal(t, []float64{1, 2, 3}, got.SpectrumBars)
	assert.Equal(t, 0, got.ParticleCount)
	assert.Equal(t, 0.0, got.ColorIntensity)
}
