// Package lighting provides the directional light that shades the terrain.
package lighting

import (
	gomath "math"

	"github.com/Faultbox/midgard-terrain/pkg/math"
)

// Sun is a directional light given by compass angles in degrees.
// Azimuth rotates around Y starting at +Z; elevation is measured from the
// horizon.
type Sun struct {
	Azimuth   float32
	Elevation float32
}

// ToSun returns the unit vector pointing from the ground towards the sun.
func (s Sun) ToSun() math.Vec3 {
	az := float64(s.Azimuth) * gomath.Pi / 180
	el := float64(s.Elevation) * gomath.Pi / 180
	return math.Vec3{
		X: float32(gomath.Cos(el) * gomath.Sin(az)),
		Y: float32(gomath.Sin(el)),
		Z: float32(gomath.Cos(el) * gomath.Cos(az)),
	}
}

// Direction returns the direction the light travels.
func (s Sun) Direction() math.Vec3 {
	return s.ToSun().Scale(-1)
}
