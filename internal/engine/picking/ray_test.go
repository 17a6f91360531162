package picking

import (
	gomath "math"
	"testing"

	"github.com/Faultbox/midgard-terrain/pkg/math"
)

func near(a, b float32) bool {
	return gomath.Abs(float64(a-b)) < 1e-4
}

func TestIntersectAABB(t *testing.T) {
	box := AABB{Min: math.Vec3{X: -1, Y: -1, Z: -1}, Max: math.Vec3{X: 1, Y: 1, Z: 1}}

	tests := []struct {
		name  string
		ray   Ray
		hit   bool
		wantT float32
	}{
		{"straight down", Ray{math.Vec3{Y: 10}, math.Vec3{Y: -1}}, true, 9},
		{"from inside", Ray{math.Vec3{}, math.Vec3{X: 1}}, true, 1},
		{"pointing away", Ray{math.Vec3{Y: 10}, math.Vec3{Y: 1}}, false, 0},
		{"parallel outside slab", Ray{math.Vec3{X: 5, Y: 10}, math.Vec3{Y: -1}}, false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, hit := tt.ray.IntersectAABB(box)
			if hit != tt.hit {
				t.Fatalf("hit = %v, want %v", hit, tt.hit)
			}
			if hit && !near(got, tt.wantT) {
				t.Errorf("t = %f, want %f", got, tt.wantT)
			}
		})
	}
}

func TestIntersectTriangle(t *testing.T) {
	a := math.Vec3{X: 0, Z: 0}
	b := math.Vec3{X: 2, Z: 0}
	c := math.Vec3{X: 0, Z: 2}

	r := Ray{Origin: math.Vec3{X: 0.5, Y: 5, Z: 0.5}, Direction: math.Vec3{Y: -1}}
	got, hit := r.IntersectTriangle(a, b, c)
	if !hit || !near(got, 5) {
		t.Fatalf("expected hit at t=5, got %f %v", got, hit)
	}
	if p := r.At(got); !near(p.Y, 0) || !near(p.X, 0.5) {
		t.Errorf("hit point = %v", p)
	}

	// Outside the triangle's hypotenuse.
	miss := Ray{Origin: math.Vec3{X: 1.5, Y: 5, Z: 1.5}, Direction: math.Vec3{Y: -1}}
	if _, hit := miss.IntersectTriangle(a, b, c); hit {
		t.Error("ray outside triangle should miss")
	}

	// Parallel to the triangle plane.
	parallel := Ray{Origin: math.Vec3{X: -1, Y: 0, Z: 0.5}, Direction: math.Vec3{X: 1}}
	if _, hit := parallel.IntersectTriangle(a, b, c); hit {
		t.Error("parallel ray should miss")
	}

	// Triangle behind the origin.
	behind := Ray{Origin: math.Vec3{X: 0.5, Y: -5, Z: 0.5}, Direction: math.Vec3{Y: -1}}
	if _, hit := behind.IntersectTriangle(a, b, c); hit {
		t.Error("triangle behind ray should miss")
	}
}

func TestScreenToRayCenter(t *testing.T) {
	eye := math.Vec3{X: 0, Y: 100, Z: 100}
	view := math.LookAt(eye, math.Vec3{}, math.Vec3{Y: 1})
	proj := math.Perspective(float32(gomath.Pi/3), 1, 0.5, 1000)
	inv := proj.Mul(view).Inverse()

	r := ScreenToRay(math.Vec2{X: 0.5, Y: 0.5}, inv)
	want := math.Vec3{}.Sub(eye).Normalize()

	if r.Direction.Sub(want).Length() > 1e-3 {
		t.Errorf("center ray direction = %v, want %v", r.Direction, want)
	}
}
