package models

// SpectrumBarCount is how many leading frequency bins are forwarded as spectrum bars.
const SpectrumBarCount = 32

// VisualParameters are the rendering knobs derived from a feature frame.
type VisualParameters struct {
	ColorIntensity float64   `json:"colorIntensity"`
	ParticleCount  int       `json:"particleCount"`
	WaveAmplitude  float64   `json:"waveAmplitude"`
	SpectrumBars   []float64 `json:"spectrumBars"`
	BassReaction   float64   `json:"bassReaction"`
}

// VisualFrame is computed by the hub on ingest and fanned out to the other room members.
type VisualFrame struct {
	Timestamp  int64            `json:"timestamp"`
	PresetID   string           `json:"presetId"`
	RoomID     string           `json:"roomId,omitempty"`
	UserID     string           `json:"userId,omitempty"`
	Username   string           `json:"username,omitempty"`
	Parameters VisualParameters `json:"parameters"`
}
