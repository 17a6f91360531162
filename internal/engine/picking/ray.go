// Package picking provides ray casting primitives for brush picking.
package picking

import (
	gomath "math"

	"github.com/Faultbox/midgard-terrain/pkg/math"
)

// Ray represents a ray in 3D space with origin and direction.
type Ray struct {
	Origin    math.Vec3
	Direction math.Vec3 // Normalized direction
}

// AABB represents an axis-aligned bounding box.
type AABB struct {
	Min math.Vec3
	Max math.Vec3
}

// At returns the point at distance t along the ray.
func (r Ray) At(t float32) math.Vec3 {
	return r.Origin.Add(r.Direction.Scale(t))
}

// ScreenToRay converts a normalized cursor position ((0,0) top-left, (1,1)
// bottom-right) to a world-space ray. invViewProj is the inverse of the
// view-projection matrix.
func ScreenToRay(cursor math.Vec2, invViewProj math.Mat4) Ray {
	ndcX := 2.0*cursor.X - 1.0
	ndcY := 1.0 - 2.0*cursor.Y // Flip Y

	nearWorld := unproject(invViewProj, math.Vec4{ndcX, ndcY, -1.0, 1.0})
	farWorld := unproject(invViewProj, math.Vec4{ndcX, ndcY, 1.0, 1.0})

	return Ray{Origin: nearWorld, Direction: farWorld.Sub(nearWorld).Normalize()}
}

func unproject(inv math.Mat4, ndc math.Vec4) math.Vec3 {
	p := inv.MulVec4(ndc)
	if p[3] != 0 {
		return p.NDC()
	}
	return math.Vec3{X: p[0], Y: p[1], Z: p[2]}
}

// IntersectAABB tests ray intersection with an axis-aligned bounding box
// using the slab method. Returns the entry distance, or the exit distance
// if the ray starts inside the box.
func (r Ray) IntersectAABB(box AABB) (t float32, hit bool) {
	tmin := float32(-gomath.MaxFloat32)
	tmax := float32(gomath.MaxFloat32)

	origin := r.Origin.Array()
	dir := r.Direction.Array()
	lo := box.Min.Array()
	hi := box.Max.Array()

	for axis := 0; axis < 3; axis++ {
		if dir[axis] == 0 {
			if origin[axis] < lo[axis] || origin[axis] > hi[axis] {
				return 0, false
			}
			continue
		}
		t1 := (lo[axis] - origin[axis]) / dir[axis]
		t2 := (hi[axis] - origin[axis]) / dir[axis]
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		tmin = max(tmin, t1)
		tmax = min(tmax, t2)
	}

	if tmax < tmin || tmax < 0 {
		return 0, false
	}
	if tmin < 0 {
		return tmax, true
	}
	return tmin, true
}

// triangleEpsilon rejects rays (near) parallel to the triangle plane.
const triangleEpsilon = 1e-7

// IntersectTriangle tests the ray against triangle (a, b, c) with the
// Möller–Trumbore algorithm. Only hits in front of the origin count.
func (r Ray) IntersectTriangle(a, b, c math.Vec3) (t float32, hit bool) {
	edge1 := b.Sub(a)
	edge2 := c.Sub(a)

	p := r.Direction.Cross(edge2)
	det := edge1.Dot(p)
	if det > -triangleEpsilon && det < triangleEpsilon {
		return 0, false
	}
	invDet := 1 / det

	s := r.Origin.Sub(a)
	u := s.Dot(p) * invDet
	if u < 0 || u > 1 {
		return 0, false
	}

	q := s.Cross(edge1)
	v := r.Direction.Dot(q) * invDet
	if v < 0 || u+v > 1 {
		return 0, false
	}

	t = edge2.Dot(q) * invDet
	if t <= 0 {
		return 0, false
	}
	return t, true
}
