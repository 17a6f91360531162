// Package brush composites brush strokes into the layered heightmap targets.
//
// The committed heightmap holds the last finalized terrain. Every frame the
// working heightmap is rebuilt from it plus the current stroke, and the
// preview heightmap from working plus the live cursor. Both are pure
// functions of their inputs, so compositing the same stroke twice yields the
// same result.
package brush

import (
	"errors"
	"fmt"

	"github.com/Faultbox/midgard-terrain/pkg/math"
)

// ErrTargetSize is returned when data does not match a target's dimensions.
var ErrTargetSize = errors.New("brush: target size mismatch")

// OffField is the brush position used when the cursor does not hit the
// terrain. It is far enough away that no brush radius reaches the field.
var OffField = math.Vec3{X: -1e9, Y: -1e9, Z: -1e9}

// Tool selects how the influence mask changes the heightmap.
type Tool int

const (
	Raise Tool = iota
	Lower
	Flatten
	Smooth
)

func (t Tool) String() string {
	switch t {
	case Raise:
		return "raise"
	case Lower:
		return "lower"
	case Flatten:
		return "flatten"
	case Smooth:
		return "smooth"
	default:
		return fmt.Sprintf("Tool(%d)", int(t))
	}
}

// ParseTool parses a tool name as produced by Tool.String.
func ParseTool(s string) (Tool, error) {
	for t := Raise; t <= Smooth; t++ {
		if t.String() == s {
			return t, nil
		}
	}
	return Raise, fmt.Errorf("unknown brush tool %q", s)
}

// Settings are the user-facing brush parameters.
type Settings struct {
	Radius   float32 // world units
	Strength float32
	Tool     Tool
}

// Tuning holds the empirically chosen response constants.
type Tuning struct {
	StrengthRadiusScale float32
	SmoothMultiplier    float32
	SmoothIterations    int
	SmoothKernelRadius  int
}

// DefaultTuning returns the stock tool response.
func DefaultTuning() Tuning {
	return Tuning{
		StrengthRadiusScale: 0.1,
		SmoothMultiplier:    4,
		SmoothIterations:    3,
		SmoothKernelRadius:  2,
	}
}

// InstanceStrength returns the mask contribution peak of one brush instance.
// It scales with 1/radius.
func (t Tuning) InstanceStrength(s Settings) float32 {
	if s.Radius <= 0 {
		return 0
	}
	v := s.Strength * t.StrengthRadiusScale / s.Radius
	if s.Tool == Smooth {
		v *= t.SmoothMultiplier
	}
	return v
}

// Stroke is one continuous brush gesture.
type Stroke struct {
	Instances      []math.Vec3
	StartingHeight float32
}

// NewStroke creates an empty stroke holding at most maxInstances positions.
func NewStroke(maxInstances int) *Stroke {
	return &Stroke{Instances: make([]math.Vec3, 0, maxInstances)}
}

// Begin clears the stroke for a new gesture.
func (s *Stroke) Begin(startingHeight float32) {
	s.Instances = s.Instances[:0]
	s.StartingHeight = startingHeight
}

// Append adds a brush position. It reports false, leaving the stroke
// unchanged, once the stroke is full.
func (s *Stroke) Append(p math.Vec3) bool {
	if len(s.Instances) == cap(s.Instances) {
		return false
	}
	s.Instances = append(s.Instances, p)
	return true
}

// Len returns the instance count.
func (s *Stroke) Len() int {
	return len(s.Instances)
}

// Cursor is the live brush position previewed on top of the working heightmap.
type Cursor struct {
	Position       math.Vec3
	StartingHeight float32 // flatten target when no stroke is active
	OnField        bool
}

// Instance is one brush stamp in world XZ.
type Instance struct {
	Center   math.Vec2
	Radius   float32
	Strength float32
}

// Falloff returns the brush profile at distance d from the centre,
// 1 at the centre and 0 from radius r outwards.
func Falloff(d, r float32) float32 {
	if r <= 0 || d >= r {
		return 0
	}
	x := d / r
	f := 1 - x*x
	return f * f
}
