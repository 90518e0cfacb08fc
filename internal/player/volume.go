package player

import (
	"math"

	"github.com/gopxl/beep/v2/effects"
)

const (
	MinVolume = 0
	MaxVolume = 9
)

// VolumeCurve names the level-to-gain mapping: gain = level / MaxVolume.
const VolumeCurve = "linear"

// ClampVolume forces level into [MinVolume, MaxVolume].
func ClampVolume(level int) int {
	return max(MinVolume, min(level, MaxVolume))
}

// Gain returns the linear output gain for a volume level.
func Gain(level int) float64 {
	return float64(ClampVolume(level)) / MaxVolume
}

// applyLevel sets the volume effect to the gain of level.
// beep's Volume is an exponent of Base, so a linear gain g becomes log2(g);
// level 0 is silenced outright since log2(0) is -Inf.
func applyLevel(v *effects.Volume, level int) {
	g := Gain(level)
	if g <= 0 {
		v.Silent = true
		v.Volume = 0
		return
	}
	v.Silent = false
	v.Volume = math.Log2(g)
}

func newVolume(level int) *effects.Volume {
	v := &effects.Volume{Base: 2}
	applyLevel(v, level)
	return v
}
