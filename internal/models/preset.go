package models

import "time"

// DefaultPresetID is used for rooms that never received a preset change.
const DefaultPresetID = "default"

// PresetType enumerates the visualizer families a preset can drive.
type PresetType string

const (
	PresetType2D       PresetType = "2d"
	PresetType3D       PresetType = "3d"
	PresetTypeParticle PresetType = "particle"
	PresetTypeWaveform PresetType = "waveform"
	PresetTypeSpectrum PresetType = "spectrum"
)

type PresetColors struct {
	Primary    string   `gorm:"size:7" json:"primary"`
	Secondary  string   `gorm:"size:7" json:"secondary"`
	Background string   `gorm:"size:7" json:"background"`
	Accent     []string `gorm:"serializer:json" json:"accent"`
}

type PresetEffects struct {
	Particles    bool `json:"particles"`
	Waves        bool `json:"waves"`
	Spectrum     bool `json:"spectrum"`
	Waveform     bool `json:"waveform"`
	BassReactive bool `json:"bassReactive"`
}

// PresetSettings are all in [0,1] except Speed which goes up to 2.
type PresetSettings struct {
	Sensitivity float64 `json:"sensitivity"`
	Smoothness  float64 `json:"smoothness"`
	Intensity   float64 `json:"intensity"`
	Speed       float64 `json:"speed"`
}

// Preset is a named visual configuration. Presets are owned by an external store;
// the hub only reads them and bumps UsageCount.
type Preset struct {
	ID          string         `gorm:"primaryKey;size:64" json:"id"`
	Name        string         `gorm:"size:50;not null" json:"name"`
	Description string         `gorm:"size:500" json:"description"`
	Type        PresetType     `gorm:"size:16;index" json:"type"`
	Colors      PresetColors   `gorm:"embedded;embeddedPrefix:color_" json:"colors"`
	Effects     PresetEffects  `gorm:"embedded;embeddedPrefix:effect_" json:"effects"`
	Settings    PresetSettings `gorm:"embedded;embeddedPrefix:setting_" json:"settings"`
	CreatedBy   string         `gorm:"size:64;index" json:"createdBy"`
	IsPublic    bool           `gorm:"index" json:"isPublic"`
	Tags        []string       `gorm:"serializer:json" json:"tags"`
	UsageCount  int64          `gorm:"not null;default:0;index" json:"usageCount"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
}

// DefaultPreset is the built-in preset every store can fall back to.
func DefaultPreset() Preset {
	return Preset{
		ID:          DefaultPresetID,
		Name:        "Default",
		Description: "Spectrum bars that react to bass",
		Type:        PresetTypeSpectrum,
		Colors: PresetColors{
			Primary:    "#00FFAA",
			Secondary:  "#0077FF",
			Background: "#000000",
		},
		Effects: PresetEffects{Spectrum: true, BassReactive: true},
		Settings: PresetSettings{
			Sensitivity: 0.5,
			Smoothness:  0.7,
			Intensity:   1,
			Speed:       1,
		},
		IsPublic: true,
	}
}
