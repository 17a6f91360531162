// Package collision intersects rays with a terrain height field.
//
// The field is split into an N×N grid of slices. Each slice is tested with a
// ray/box slab test first, and only slices that are hit have their triangles
// tested.
package collision

import (
	gomath "math"

	"github.com/Faultbox/midgard-terrain/internal/engine/picking"
	"github.com/Faultbox/midgard-terrain/internal/engine/terrain"
	"github.com/Faultbox/midgard-terrain/pkg/math"
)

// DefaultSlices is the slice grid size used by Intersect.
const DefaultSlices = 8

var defaultCollider = New(DefaultSlices)

// Intersect returns the closest point where the ray hits the field.
func Intersect(hf *terrain.Heightfield, origin, direction math.Vec3) (math.Vec3, bool) {
	return defaultCollider.Intersect(hf, origin, direction)
}

// slice is a rectangle of quads; sample ranges are inclusive, so neighbouring
// slices share one row or column of samples.
type slice struct {
	col0, col1 int
	row0, row1 int
}

// Collider caches the slice layout for one field size.
type Collider struct {
	n       int
	columns int
	rows    int
	slices  []slice
}

// New creates a collider with an n×n slice grid.
func New(n int) *Collider {
	if n < 1 {
		n = 1
	}
	return &Collider{n: n}
}

// Slices returns the slice grid size.
func (c *Collider) Slices() int {
	return c.n
}

func (c *Collider) layout(hf *terrain.Heightfield) []slice {
	if c.columns == hf.Columns && c.rows == hf.Rows && c.slices != nil {
		return c.slices
	}
	c.columns, c.rows = hf.Columns, hf.Rows
	c.slices = c.slices[:0]

	qc, qr := hf.Columns-1, hf.Rows-1
	for j := 0; j < c.n; j++ {
		r0, r1 := j*qr/c.n, (j+1)*qr/c.n
		if r0 == r1 {
			continue
		}
		for i := 0; i < c.n; i++ {
			c0, c1 := i*qc/c.n, (i+1)*qc/c.n
			if c0 == c1 {
				continue
			}
			c.slices = append(c.slices, slice{col0: c0, col1: c1, row0: r0, row1: r1})
		}
	}
	return c.slices
}

// Intersect returns the closest point in front of origin where the ray hits
// the field. Rays that miss every slice, or only graze triangles edge-on,
// report no hit.
func (c *Collider) Intersect(hf *terrain.Heightfield, origin, direction math.Vec3) (math.Vec3, bool) {
	if hf == nil || hf.Columns < 2 || hf.Rows < 2 || len(hf.Heights) < hf.Columns*hf.Rows {
		return math.Vec3{}, false
	}
	dir := direction.Normalize()
	if dir.Length() == 0 {
		return math.Vec3{}, false
	}
	ray := picking.Ray{Origin: origin, Direction: dir}

	best := float32(gomath.MaxFloat32)
	hit := false
	for _, s := range c.layout(hf) {
		if _, ok := ray.IntersectAABB(sliceBox(hf, s)); !ok {
			continue
		}
		if t, ok := intersectSlice(hf, ray, s); ok && t < best {
			best, hit = t, true
		}
	}
	if !hit {
		return math.Vec3{}, false
	}
	return ray.At(best), true
}

func sliceBox(hf *terrain.Heightfield, s slice) picking.AABB {
	p := hf.Position
	return picking.AABB{
		Min: math.Vec3{
			X: p.X + float32(s.col0)*hf.Spacing,
			Y: p.Y,
			Z: p.Z + float32(s.row0)*hf.Spacing,
		},
		Max: math.Vec3{
			X: p.X + float32(s.col1)*hf.Spacing,
			Y: p.Y + hf.MaxHeight,
			Z: p.Z + float32(s.row1)*hf.Spacing,
		},
	}
}

func intersectSlice(hf *terrain.Heightfield, ray picking.Ray, s slice) (float32, bool) {
	best := float32(gomath.MaxFloat32)
	hit := false
	for row := s.row0; row < s.row1; row++ {
		for col := s.col0; col < s.col1; col++ {
			p00 := hf.WorldPoint(col, row)
			p10 := hf.WorldPoint(col+1, row)
			p01 := hf.WorldPoint(col, row+1)
			p11 := hf.WorldPoint(col+1, row+1)

			if t, ok := ray.IntersectTriangle(p00, p10, p01); ok && t < best {
				best, hit = t, true
			}
			if t, ok := ray.IntersectTriangle(p10, p11, p01); ok && t < best {
				best, hit = t, true
			}
		}
	}
	return best, hit
}
