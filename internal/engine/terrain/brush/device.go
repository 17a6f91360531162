package brush

import (
	"github.com/Faultbox/midgard-terrain/internal/engine/terrain"
	"github.com/Faultbox/midgard-terrain/pkg/math"
)

// Target names a single-channel float render target owned by a Device.
type Target int

// Blend selects how overlapping instances combine in the influence mask.
type Blend int

const (
	BlendAdd Blend = iota
	BlendMax
)

// Axis selects the direction of a blur pass.
type Axis int

const (
	Horizontal Axis = iota
	Vertical
)

// View places texel (0,0) of every target in world XZ; texels are
// Spacing world units apart.
type View struct {
	Origin  math.Vec2
	Spacing float32
}

// Device executes the compositing passes. Passes restricted to a region
// leave texels outside it untouched. A pass never reads the target it writes.
type Device interface {
	NewTarget(width, height int) (Target, error)
	Release(t Target)

	Upload(t Target, data []float32) error
	ReadBack(t Target, out []float32) error
	Copy(dst, src Target)
	Clear(t Target, r terrain.Region)

	// DrawInfluence stamps instances into mask over region r, seen through
	// an orthographic camera offset to the region origin.
	DrawInfluence(mask Target, r terrain.Region, view View, instances []Instance, blend Blend)

	// Apply writes the raise, lower or flatten result of base and mask into dst.
	// target is the flatten height.
	Apply(dst, base, mask Target, r terrain.Region, tool Tool, target float32)

	// Blur writes a box blur of src along axis into dst, blended with src by mask.
	Blur(dst, src, mask Target, r terrain.Region, axis Axis, radius int)
}

// TextureSource is implemented by devices whose targets are GL textures.
type TextureSource interface {
	Texture(t Target) uint32
}
