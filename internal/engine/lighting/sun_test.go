package lighting

import (
	gomath "math"
	"testing"

	"github.com/Faultbox/midgard-terrain/pkg/math"
)

func near(a, b math.Vec3) bool {
	return a.Sub(b).Length() < 1e-5
}

func TestSunDirection(t *testing.T) {
	tests := []struct {
		sun   Sun
		toSun math.Vec3
	}{
		{Sun{Azimuth: 0, Elevation: 90}, math.Vec3{Y: 1}},
		{Sun{Azimuth: 0, Elevation: 0}, math.Vec3{Z: 1}},
		{Sun{Azimuth: 90, Elevation: 0}, math.Vec3{X: 1}},
		{Sun{Azimuth: 180, Elevation: 45}, math.Vec3{Y: float32(gomath.Sqrt2 / 2), Z: -float32(gomath.Sqrt2 / 2)}},
	}
	for _, tt := range tests {
		if got := tt.sun.ToSun(); !near(got, tt.toSun) {
			t.Errorf("%+v.ToSun() = %v, want %v", tt.sun, got, tt.toSun)
		}
		if got := tt.sun.Direction(); !near(got, tt.toSun.Scale(-1)) {
			t.Errorf("%+v.Direction() = %v, want %v", tt.sun, got, tt.toSun.Scale(-1))
		}
	}
}
