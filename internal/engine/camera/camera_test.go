package camera

import (
	"testing"

	"github.com/Faultbox/midgard-terrain/internal/engine/input"
	"github.com/Faultbox/midgard-terrain/pkg/math"
)

func TestPositionDistance(t *testing.T) {
	c := NewOrbitCamera()
	c.Center = math.Vec3{X: 10, Y: 0, Z: 10}
	c.Distance = 100

	d := c.Position().Distance(c.Center)
	if d < 99.99 || d > 100.01 {
		t.Errorf("camera distance from center = %f, want 100", d)
	}
}

func TestZoomClamped(t *testing.T) {
	c := NewOrbitCamera()
	for i := 0; i < 200; i++ {
		c.HandleZoom(5)
	}
	if c.Distance != c.MinDistance {
		t.Errorf("distance = %f, want clamp to %f", c.Distance, c.MinDistance)
	}
}

func TestUpdateDragOnlyWithRightButton(t *testing.T) {
	c := NewOrbitCamera()
	yaw := c.RotationY

	c.Update(1.0/60, input.State{CursorDelta: math.Vec2{X: 50}})
	if c.RotationY != yaw {
		t.Error("cursor motion without right button should not rotate")
	}

	c.Update(1.0/60, input.State{CursorDelta: math.Vec2{X: 50}, Buttons: input.MouseRight})
	if c.RotationY == yaw {
		t.Error("right drag should rotate")
	}
}

func TestFitToBounds(t *testing.T) {
	c := NewOrbitCamera()
	c.FitToBounds(math.Vec3{}, math.Vec3{X: 1000, Y: 100, Z: 500})

	want := math.Vec3{X: 500, Y: 50, Z: 250}
	if c.Center != want {
		t.Errorf("center = %v, want %v", c.Center, want)
	}
	if c.Distance != 750 {
		t.Errorf("distance = %f, want 750", c.Distance)
	}
}
