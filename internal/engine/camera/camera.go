// Package camera provides the orbit camera used to inspect and sculpt terrain.
package camera

import (
	gomath "math"

	"github.com/Faultbox/midgard-terrain/internal/engine/input"
	"github.com/Faultbox/midgard-terrain/pkg/math"
)

// OrbitCamera orbits around a center point.
type OrbitCamera struct {
	// Center point to orbit around
	Center math.Vec3

	// Spherical coordinates
	Distance  float32 // Distance from center
	RotationX float32 // Pitch (vertical angle, radians)
	RotationY float32 // Yaw (horizontal angle, radians)

	// Constraints
	MinDistance float32
	MaxDistance float32
	MinPitch    float32
	MaxPitch    float32

	// Sensitivity
	DragSensitivity float32
	ZoomSensitivity float32
	PanSpeed        float32 // Fraction of distance moved per second of key movement

	// Projection
	FovY float32 // Radians
	Near float32
	Far  float32
}

// NewOrbitCamera creates a new orbit camera with default settings.
func NewOrbitCamera() *OrbitCamera {
	return &OrbitCamera{
		Distance:        400.0,
		RotationX:       0.6,
		MinDistance:     2.0,
		MaxDistance:     20000.0,
		MinPitch:        0.05,
		MaxPitch:        1.55,
		DragSensitivity: 0.005,
		ZoomSensitivity: 0.1,
		PanSpeed:        1.0,
		FovY:            float32(gomath.Pi / 3),
		Near:            0.5,
		Far:             20000,
	}
}

// Position returns the camera position in world space.
func (c *OrbitCamera) Position() math.Vec3 {
	x := c.Distance * float32(gomath.Cos(float64(c.RotationX))*gomath.Sin(float64(c.RotationY)))
	y := c.Distance * float32(gomath.Sin(float64(c.RotationX)))
	z := c.Distance * float32(gomath.Cos(float64(c.RotationX))*gomath.Cos(float64(c.RotationY)))

	return c.Center.Add(math.Vec3{X: x, Y: y, Z: z})
}

// ViewMatrix returns the view matrix for this camera.
func (c *OrbitCamera) ViewMatrix() math.Mat4 {
	return math.LookAt(c.Position(), c.Center, math.Vec3{Y: 1})
}

// ProjectionMatrix returns the perspective projection for a viewport.
func (c *OrbitCamera) ProjectionMatrix(width, height int) math.Mat4 {
	aspect := float32(1)
	if height > 0 {
		aspect = float32(width) / float32(height)
	}
	return math.Perspective(c.FovY, aspect, c.Near, c.Far)
}

// HandleDrag updates rotation based on mouse drag delta.
func (c *OrbitCamera) HandleDrag(deltaX, deltaY float32) {
	c.RotationY -= deltaX * c.DragSensitivity
	c.RotationX += deltaY * c.DragSensitivity
	c.RotationX = clamp(c.RotationX, c.MinPitch, c.MaxPitch)
}

// HandleZoom updates distance based on scroll wheel delta.
func (c *OrbitCamera) HandleZoom(delta float32) {
	c.Distance -= delta * c.Distance * c.ZoomSensitivity
	c.Distance = clamp(c.Distance, c.MinDistance, c.MaxDistance)
}

// HandleMovement pans the center point in the camera's ground-plane frame.
func (c *OrbitCamera) HandleMovement(forward, right, up float32) {
	// Speed scales with distance for consistent feel
	speed := c.Distance * 0.01

	dirX := float32(gomath.Sin(float64(c.RotationY)))
	dirZ := float32(gomath.Cos(float64(c.RotationY)))
	rightX := float32(gomath.Cos(float64(c.RotationY)))
	rightZ := float32(-gomath.Sin(float64(c.RotationY)))

	c.Center.X += (-dirX*forward + rightX*right) * speed
	c.Center.Z += (-dirZ*forward + rightZ*right) * speed
	c.Center.Y += up * speed
}

// Update advances the orbit from one frame of input: right drag rotates,
// middle drag pans, the wheel zooms and WASD/QE move the center.
func (c *OrbitCamera) Update(dt float32, in input.State) {
	if in.Down(input.MouseRight) {
		c.HandleDrag(in.CursorDelta.X, in.CursorDelta.Y)
	}
	if in.Down(input.MouseMiddle) {
		c.HandleMovement(in.CursorDelta.Y*0.1, -in.CursorDelta.X*0.1, 0)
	}
	if in.Scroll != 0 {
		c.HandleZoom(in.Scroll)
	}

	var forward, right, up float32
	if in.KeyDown(input.KeyW) {
		forward++
	}
	if in.KeyDown(input.KeyS) {
		forward--
	}
	if in.KeyDown(input.KeyD) {
		right++
	}
	if in.KeyDown(input.KeyA) {
		right--
	}
	if in.KeyDown(input.KeyE) {
		up++
	}
	if in.KeyDown(input.KeyQ) {
		up--
	}
	if forward != 0 || right != 0 || up != 0 {
		step := dt * c.PanSpeed * 100
		c.HandleMovement(forward*step, right*step, up*step)
	}
}

// FitToBounds adjusts camera to view the given bounding box.
func (c *OrbitCamera) FitToBounds(lo, hi math.Vec3) {
	c.Center = lo.Lerp(hi, 0.5)

	size := max(hi.X-lo.X, hi.Z-lo.Z)
	c.Distance = clamp(size*0.75, c.MinDistance, c.MaxDistance)
	c.RotationX = 0.6 // Look down at ~35 degrees
	c.RotationY = 0.0
}

func clamp(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
