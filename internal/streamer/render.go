package streamer

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/Vasu1712/scenyx-live/internal/models"
)

// Renderer consumes visual frames produced by the hub for the streamer's room.
type Renderer interface {
	Render(frame models.VisualFrame)
}

// RendererFunc adapts a function to Renderer.
type RendererFunc func(frame models.VisualFrame)

func (f RendererFunc) Render(frame models.VisualFrame) { f(frame) }

const meterWidth = 20

// LogRenderer writes a compact meter line per frame at debug level.
func LogRenderer(logger logrus.FieldLogger) Renderer {
	return RendererFunc(func(frame models.VisualFrame) {
		logger.WithFields(logrus.Fields{
			"user_id":   frame.UserID,
			"preset_id": frame.PresetID,
			"particles": frame.Parameters.ParticleCount,
		}).Debug(Meter(frame.Parameters))
	})
}

// Meter renders intensity, bass reaction and wave amplitude as text bars.
func Meter(p models.VisualParameters) string {
	return fmt.Sprintf("int %s bass %s wave %s",
		bar(p.ColorIntensity), bar(p.BassReaction), bar(p.WaveAmplitude*2))
}

func bar(v float64) string {
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	n := int(v*meterWidth + 0.5)
	return "[" + strings.Repeat("#", n) + strings.Repeat(".", meterWidth-n) + "]"
}
