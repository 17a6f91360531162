package tessellation

import (
	gomath "math"
	"testing"

	"github.com/Faultbox/midgard-terrain/pkg/math"
)

var testParams = Params{
	TargetTrianglePx:    8,
	ScreenTolerance:     0.1,
	NearScreenTolerance: 1.0,
	NearDistance:        5,
	MaxLevel:            64,
}

// forwardCamera sits at the origin looking down -Z.
func forwardCamera() Camera {
	return Camera{
		View:       math.LookAt(math.Vec3{}, math.Vec3{Z: -1}, math.Vec3{Y: 1}),
		Projection: math.Perspective(float32(gomath.Pi/3), 16.0/9.0, 0.5, 5000),
		Width:      1600,
		Height:     900,
	}
}

func relDiff(a, b float32) float64 {
	return gomath.Abs(float64(a-b)) / gomath.Max(gomath.Abs(float64(a)), gomath.Abs(float64(b)))
}

func TestEqualEdgesGetEqualLevels(t *testing.T) {
	cam := Camera{
		View:       math.LookAt(math.Vec3{Y: 50, Z: 100}, math.Vec3{}, math.Vec3{Y: 1}),
		Projection: forwardCamera().Projection,
		Width:      1600,
		Height:     900,
	}

	left := EdgeLevel(math.Vec3{X: -30}, math.Vec3{X: -20}, cam, testParams)
	right := EdgeLevel(math.Vec3{X: 20}, math.Vec3{X: 30}, cam, testParams)
	if left.Cullable || right.Cullable {
		t.Fatalf("visible edges flagged cullable: %+v %+v", left, right)
	}
	if relDiff(left.Level, right.Level) > 1e-4 {
		t.Errorf("levels differ: %v vs %v", left.Level, right.Level)
	}

	// Orientation does not matter, only length and distance.
	along := EdgeLevel(math.Vec3{X: -5}, math.Vec3{X: 5}, cam, testParams)
	across := EdgeLevel(math.Vec3{Z: -5}, math.Vec3{Z: 5}, cam, testParams)
	if relDiff(along.Level, across.Level) > 1e-4 {
		t.Errorf("orientation changed level: %v vs %v", along.Level, across.Level)
	}
}

func TestDoublingDistanceHalvesLevel(t *testing.T) {
	cam := forwardCamera()

	near := EdgeLevel(math.Vec3{X: -1, Z: -20}, math.Vec3{X: 1, Z: -20}, cam, testParams)
	far := EdgeLevel(math.Vec3{X: -1, Z: -40}, math.Vec3{X: 1, Z: -40}, cam, testParams)
	if near.Level <= 0 || far.Level <= 0 {
		t.Fatalf("expected positive levels, got %v and %v", near.Level, far.Level)
	}
	if ratio := near.Level / far.Level; gomath.Abs(float64(ratio-2)) > 0.01 {
		t.Errorf("near/far ratio = %v, want 2", ratio)
	}

	// 2 world units at distance 20: f = 1/tan(30°), so 2*f/20 NDC * 450 px.
	want := float32(2/gomath.Tan(gomath.Pi/6)/20*450) / testParams.TargetTrianglePx
	if relDiff(near.Level, want) > 1e-3 {
		t.Errorf("level = %v, want %v", near.Level, want)
	}
}

func TestEdgeCulling(t *testing.T) {
	cam := forwardCamera()

	tests := []struct {
		name     string
		a, b     math.Vec3
		cullable bool
	}{
		{"in view", math.Vec3{X: -1, Z: -20}, math.Vec3{X: 1, Z: -20}, false},
		{"behind camera", math.Vec3{X: -1, Z: 20}, math.Vec3{X: 1, Z: 20}, true},
		{"right of view", math.Vec3{X: 200, Z: -20}, math.Vec3{X: 210, Z: -20}, true},
		{"above view", math.Vec3{Y: 300, Z: -20}, math.Vec3{Y: 300, Z: -30}, true},
		{"spans the view", math.Vec3{X: -500, Z: -20}, math.Vec3{X: 500, Z: -20}, false},
		{"inside tolerance band", math.Vec3{X: 21, Z: -20}, math.Vec3{X: 21.5, Z: -20}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := EdgeLevel(tt.a, tt.b, cam, testParams)
			if e.Cullable != tt.cullable {
				t.Errorf("Cullable = %v, want %v (level %v)", e.Cullable, tt.cullable, e.Level)
			}
		})
	}
}

func TestNearToleranceWidensBand(t *testing.T) {
	cam := forwardCamera()
	// At distance 2 the half-width of the view is about 2.05; x=3 is outside
	// the plain band but inside the near one.
	a, b := math.Vec3{X: 3, Z: -2}, math.Vec3{X: 3.2, Z: -2}

	if e := EdgeLevel(a, b, cam, testParams); e.Cullable {
		t.Error("near edge culled despite wide tolerance")
	}
	far := testParams
	far.NearDistance = 0
	if e := EdgeLevel(a, b, cam, far); !e.Cullable {
		t.Error("edge should be culled with the plain tolerance")
	}
}

func TestPatchCulledOnlyWhenAllEdgesCullable(t *testing.T) {
	all := [4]Edge{{2, true}, {3, true}, {4, true}, {5, true}}
	if p := PatchLevels(all, 64); !p.Culled {
		t.Fatal("patch with four cullable edges must be culled")
	}

	for i := range all {
		edges := all
		edges[i].Cullable = false
		p := PatchLevels(edges, 64)
		if p.Culled {
			t.Errorf("edge %d visible but patch culled", i)
		}
	}
}

func TestPatchLevelsClampAndInner(t *testing.T) {
	p := PatchLevels([4]Edge{{0.2, true}, {5, false}, {100, false}, {7, false}}, 64)
	if p.Culled {
		t.Fatal("unexpected cull")
	}
	want := [4]float32{1, 5, 64, 7}
	if p.Outer != want {
		t.Errorf("Outer = %v, want %v", p.Outer, want)
	}
	if p.Inner != [2]float32{7, 64} {
		t.Errorf("Inner = %v, want [7 64]", p.Inner)
	}
}

func TestRecordEdgeRoundTrip(t *testing.T) {
	var r Record
	r.SetEdge(EdgeNegX, Edge{Level: 3, Cullable: true})
	r.SetEdge(EdgePosZ, Edge{Level: 2})
	if r.Cull != 1<<EdgeNegX {
		t.Errorf("Cull = %b", r.Cull)
	}
	r.SetEdge(EdgeNegX, Edge{Level: 4})
	if r.Cull != 0 || r.Edge(EdgeNegX).Level != 4 {
		t.Errorf("record = %+v", r)
	}
}
