// Package terrain holds the CPU-side height field the editor picks against.
package terrain

import (
	"errors"

	"github.com/Faultbox/midgard-terrain/pkg/math"
)

// ErrSizeMismatch is returned when refresh data does not match the field layout.
var ErrSizeMismatch = errors.New("terrain: height data size mismatch")

// Heightfield is a grid of normalized height samples.
//
// Heights is row-major with Columns*Rows entries, each in [0,1]; world height
// is Position.Y + h*MaxHeight. Sample (0,0) sits at Position, columns run
// along +X and rows along +Z, Spacing world units apart.
type Heightfield struct {
	Columns   int
	Rows      int
	Spacing   float32
	MaxHeight float32
	Position  math.Vec3
	Heights   []float32

	version uint64
}

// Region addresses a rectangle of samples, e.g. one compositing tile.
type Region struct {
	Column, Row   int
	Width, Height int
}
