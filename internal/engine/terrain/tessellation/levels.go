// Package tessellation computes per-edge tessellation levels for the terrain
// patch mesh.
//
// Every mesh vertex owns a Record with the levels of its four incident edges.
// Levels are derived from the projected on-screen length of each edge, and
// edges that cannot contribute to the image are flagged cullable. A patch is
// only dropped when all four of its edges are cullable, so a patch that
// straddles the screen border never pops.
package tessellation

import (
	gomath "math"

	"github.com/Faultbox/midgard-terrain/pkg/math"
)

// Edge directions within a Record.
const (
	EdgePosX = iota
	EdgePosZ
	EdgeNegX
	EdgeNegZ
)

// Edge is the level of one mesh edge.
// Level is the unclamped screen-space factor; Cullable marks edges that are
// behind the camera or entirely outside the tolerance band around the viewport.
type Edge struct {
	Level    float32
	Cullable bool
}

// Record is the per-vertex entry of the edge buffer. The layout matches the
// std430 EdgeRecord struct in the compute and tessellation shaders.
type Record struct {
	Levels [4]float32
	Cull   uint32 // bit i set: edge i is cullable
	_      [3]uint32
}

// RecordSize is the byte size of a Record in GPU buffers.
const RecordSize = 32

// Edge returns edge i of the record.
func (r Record) Edge(i int) Edge {
	return Edge{Level: r.Levels[i], Cullable: r.Cull&(1<<i) != 0}
}

// SetEdge stores e as edge i.
func (r *Record) SetEdge(i int, e Edge) {
	r.Levels[i] = e.Level
	if e.Cullable {
		r.Cull |= 1 << i
	} else {
		r.Cull &^= 1 << i
	}
}

// Camera is the view the levels are computed for.
type Camera struct {
	View       math.Mat4
	Projection math.Mat4
	Width      float32
	Height     float32
}

// Params tunes level selection.
type Params struct {
	TargetTrianglePx    float32 // desired on-screen edge length per subdivision
	ScreenTolerance     float32 // NDC margin around the viewport before culling
	NearScreenTolerance float32 // wider margin for edges close to the camera
	NearDistance        float32 // clip W below which the near margin applies
	MaxLevel            float32
}

// EdgeLevel computes the level of the edge between world points a and b,
// which are already displaced by the terrain height.
func EdgeLevel(a, b math.Vec3, cam Camera, p Params) Edge {
	viewProj := cam.Projection.Mul(cam.View)
	mid := a.Add(b).Scale(0.5)

	cm := viewProj.Clip(mid)
	if cm.W() <= 0 {
		return Edge{Cullable: true}
	}

	tolerance := p.ScreenTolerance
	if cm.W() < p.NearDistance {
		tolerance = p.NearScreenTolerance
	}
	cullable := outsideSameSide(viewProj.Clip(a), viewProj.Clip(b), 1+tolerance)

	return Edge{Level: screenLength(mid, b.Distance(a), cam) / p.TargetTrianglePx, Cullable: cullable}
}

// outsideSameSide reports whether both clip-space points lie beyond the same
// edge of the widened viewport. Points behind the camera never count as
// outside, since their projection is mirrored.
func outsideSameSide(ca, cb math.Vec4, limit float32) bool {
	if ca.W() <= 0 || cb.W() <= 0 {
		return false
	}
	for axis := 0; axis < 2; axis++ {
		la, lb := limit*ca.W(), limit*cb.W()
		if ca[axis] > la && cb[axis] > lb {
			return true
		}
		if ca[axis] < -la && cb[axis] < -lb {
			return true
		}
	}
	return false
}

// screenLength returns the pixel height covered by a vertical segment of the
// given length centred at mid. Using a view-space vertical offset keeps the
// result independent of the edge orientation.
func screenLength(mid math.Vec3, length float32, cam Camera) float32 {
	vm := cam.View.Clip(mid)
	vo := vm
	vo[1] += length

	pm := cam.Projection.MulVec4(vm)
	po := cam.Projection.MulVec4(vo)
	if pm.W() <= 0 || po.W() <= 0 {
		return 0
	}
	dy := po[1]/po.W() - pm[1]/pm.W()
	return float32(gomath.Abs(float64(dy))) * cam.Height * 0.5
}

// Patch is the tessellation state of one quad patch, in gl_TessLevelOuter
// order: left, bottom, right, top.
type Patch struct {
	Outer  [4]float32
	Inner  [2]float32
	Culled bool
}

// PatchLevels resolves the four edges of a patch (left, bottom, right, top).
func PatchLevels(edges [4]Edge, maxLevel float32) Patch {
	if edges[0].Cullable && edges[1].Cullable && edges[2].Cullable && edges[3].Cullable {
		return Patch{Culled: true}
	}
	var p Patch
	for i, e := range edges {
		p.Outer[i] = clamp(e.Level, 1, maxLevel)
	}
	p.Inner[0] = max(p.Outer[1], p.Outer[3])
	p.Inner[1] = max(p.Outer[0], p.Outer[2])
	return p
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
