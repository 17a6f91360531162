package brush

import (
	gomath "math"
	"slices"
	"testing"

	"github.com/Faultbox/midgard-terrain/internal/engine/terrain"
	"github.com/Faultbox/midgard-terrain/pkg/math"
)

const testSize = 24

func newTestPipeline(t *testing.T, tileSize int, tuning Tuning) (*Pipeline, *SoftwareDevice, []float32) {
	t.Helper()
	dev := NewSoftwareDevice()
	p, err := NewPipeline(dev, testSize, testSize, tileSize, View{Spacing: 1}, tuning)
	if err != nil {
		t.Fatalf("NewPipeline: %v", err)
	}
	base := make([]float32, testSize*testSize)
	for i := range base {
		base[i] = 0.2 + 0.4*float32((i*7)%11)/11
	}
	if err := p.Reset(base); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	return p, dev, base
}

func testStroke() *Stroke {
	s := NewStroke(64)
	s.Begin(0.5)
	for _, x := range []float32{6, 8, 10, 12, 14} {
		s.Append(math.Vec3{X: x, Z: 11})
	}
	return s
}

func snapshot(dev *SoftwareDevice, t Target) []float32 {
	return slices.Clone(dev.Data(t))
}

func maxDiff(a, b []float32) float64 {
	var d float64
	for i := range a {
		d = gomath.Max(d, gomath.Abs(float64(a[i]-b[i])))
	}
	return d
}

var allTools = []Tool{Raise, Lower, Flatten, Smooth}

func TestEmptyStrokeIsIdentity(t *testing.T) {
	for _, tool := range allTools {
		t.Run(tool.String(), func(t *testing.T) {
			p, dev, base := newTestPipeline(t, 8, DefaultTuning())
			p.Composite(NewStroke(16), Cursor{Position: OffField}, Settings{Radius: 4, Strength: 1, Tool: tool})

			for name, target := range map[string]Target{"committed": p.Committed(), "working": p.Working(), "preview": p.Preview()} {
				if !slices.Equal(dev.Data(target), base) {
					t.Errorf("%s differs from base", name)
				}
			}
		})
	}
}

func TestRaiseThenLowerRestores(t *testing.T) {
	p, dev, base := newTestPipeline(t, 8, DefaultTuning())
	stroke := testStroke()

	p.Composite(stroke, Cursor{}, Settings{Radius: 4, Strength: 1, Tool: Raise})
	raised := snapshot(dev, p.Working())
	if maxDiff(raised, base) == 0 {
		t.Fatal("raise changed nothing")
	}
	for i := range raised {
		if raised[i] < base[i] {
			t.Fatalf("raise lowered texel %d", i)
		}
	}
	p.Commit()

	p.Composite(stroke, Cursor{}, Settings{Radius: 4, Strength: 1, Tool: Lower})
	if d := maxDiff(dev.Data(p.Working()), base); d > 1e-5 {
		t.Errorf("raise then lower differs from base by %v", d)
	}
}

func TestCompositeIsIdempotent(t *testing.T) {
	cursor := Cursor{Position: math.Vec3{X: 16, Z: 5}, StartingHeight: 0.3, OnField: true}
	for _, tool := range allTools {
		t.Run(tool.String(), func(t *testing.T) {
			p, dev, _ := newTestPipeline(t, 8, DefaultTuning())
			s := Settings{Radius: 5, Strength: 1, Tool: tool}

			p.Composite(testStroke(), cursor, s)
			working, preview := snapshot(dev, p.Working()), snapshot(dev, p.Preview())

			p.Composite(testStroke(), cursor, s)
			if !slices.Equal(working, dev.Data(p.Working())) {
				t.Error("working changed on second composite")
			}
			if !slices.Equal(preview, dev.Data(p.Preview())) {
				t.Error("preview changed on second composite")
			}
		})
	}
}

func TestPreviewAddsOnlyCursor(t *testing.T) {
	p, dev, base := newTestPipeline(t, 8, DefaultTuning())
	cursor := Cursor{Position: math.Vec3{X: 18, Z: 18}, OnField: true}
	p.Composite(nil, cursor, Settings{Radius: 3, Strength: 1, Tool: Raise})

	if !slices.Equal(dev.Data(p.Working()), base) {
		t.Error("cursor leaked into working")
	}
	preview := dev.Data(p.Preview())
	for y := 0; y < testSize; y++ {
		for x := 0; x < testSize; x++ {
			i := y*testSize + x
			d := math.Vec2{X: float32(x) - 18, Y: float32(y) - 18}.Length()
			if d >= 3 && preview[i] != base[i] {
				t.Fatalf("texel (%d,%d) outside the cursor changed", x, y)
			}
			if d < 2 && preview[i] <= base[i] {
				t.Fatalf("texel (%d,%d) under the cursor not raised", x, y)
			}
		}
	}
}

func TestFlattenPullsTowardStartingHeight(t *testing.T) {
	tuning := DefaultTuning()
	tuning.StrengthRadiusScale = 40
	p, dev, base := newTestPipeline(t, 8, tuning)

	stroke := testStroke()
	p.Composite(stroke, Cursor{}, Settings{Radius: 4, Strength: 1, Tool: Flatten})
	working := dev.Data(p.Working())

	centre := 11*testSize + 10
	if d := gomath.Abs(float64(working[centre] - 0.5)); d > 1e-5 {
		t.Errorf("centre = %v, want 0.5", working[centre])
	}
	for i := range working {
		lo, hi := min(base[i], 0.5), max(base[i], 0.5)
		if working[i] < lo-1e-6 || working[i] > hi+1e-6 {
			t.Fatalf("texel %d overshot: base %v -> %v", i, base[i], working[i])
		}
	}
}

func TestSmoothReducesVariation(t *testing.T) {
	p, dev, base := newTestPipeline(t, 8, DefaultTuning())
	p.Composite(testStroke(), Cursor{}, Settings{Radius: 4, Strength: 5, Tool: Smooth})
	working := dev.Data(p.Working())

	variation := func(h []float32) float64 {
		var v float64
		for x := 8; x < 14; x++ {
			v += gomath.Abs(float64(h[11*testSize+x+1] - h[11*testSize+x]))
		}
		return v
	}
	if variation(working) >= variation(base) {
		t.Errorf("smooth did not reduce variation: %v -> %v", variation(base), variation(working))
	}
	for _, i := range []int{0, testSize - 1, testSize*testSize - 1} {
		if working[i] != base[i] {
			t.Errorf("far texel %d changed", i)
		}
	}
}

func TestTilingMatchesSingleTile(t *testing.T) {
	for _, tool := range allTools {
		t.Run(tool.String(), func(t *testing.T) {
			tiled, tdev, _ := newTestPipeline(t, 5, DefaultTuning())
			whole, wdev, _ := newTestPipeline(t, 0, DefaultTuning())
			s := Settings{Radius: 6, Strength: 3, Tool: tool}
			cursor := Cursor{Position: math.Vec3{X: 9, Z: 13}, OnField: true}

			tiled.Composite(testStroke(), cursor, s)
			whole.Composite(testStroke(), cursor, s)
			if d := maxDiff(tdev.Data(tiled.Working()), wdev.Data(whole.Working())); d > 1e-6 {
				t.Errorf("tiled working differs from single tile by %g", d)
			}
			if d := maxDiff(tdev.Data(tiled.Preview()), wdev.Data(whole.Preview())); d > 1e-6 {
				t.Errorf("tiled preview differs from single tile by %g", d)
			}
		})
	}
}

func TestSmoothTilingWithManyIterations(t *testing.T) {
	tuning := DefaultTuning()
	tuning.SmoothIterations = 6
	tuning.SmoothKernelRadius = 3
	tiled, tdev, _ := newTestPipeline(t, 4, tuning)
	whole, wdev, base := newTestPipeline(t, 0, tuning)
	s := Settings{Radius: 8, Strength: 3, Tool: Smooth}

	tiled.Composite(testStroke(), Cursor{Position: OffField}, s)
	whole.Composite(testStroke(), Cursor{Position: OffField}, s)
	if d := maxDiff(tdev.Data(tiled.Working()), wdev.Data(whole.Working())); d > 1e-6 {
		t.Errorf("tiled smooth differs from single tile by %g", d)
	}
	if maxDiff(wdev.Data(whole.Working()), base) == 0 {
		t.Error("smooth left the field unchanged")
	}
}

func TestDiscardRestoresCommitted(t *testing.T) {
	p, dev, base := newTestPipeline(t, 8, DefaultTuning())
	p.Composite(testStroke(), Cursor{}, Settings{Radius: 4, Strength: 1, Tool: Raise})
	p.Discard()

	if !slices.Equal(dev.Data(p.Working()), base) {
		t.Error("working not reset to committed")
	}
	if !slices.Equal(dev.Data(p.Committed()), base) {
		t.Error("committed changed by an uncommitted stroke")
	}
}

func TestTilesCoverField(t *testing.T) {
	tiles := Tiles(10, 7, 4)
	if len(tiles) != 6 {
		t.Fatalf("got %d tiles, want 6", len(tiles))
	}
	covered := make([]int, 10*7)
	for _, r := range tiles {
		for y := r.Row; y < r.Row+r.Height; y++ {
			for x := r.Column; x < r.Column+r.Width; x++ {
				covered[y*10+x]++
			}
		}
	}
	for i, n := range covered {
		if n != 1 {
			t.Fatalf("texel %d covered %d times", i, n)
		}
	}
	if got := Tiles(10, 7, 0); len(got) != 1 || got[0] != (terrain.Region{Width: 10, Height: 7}) {
		t.Errorf("Tiles with size 0 = %v", got)
	}
}

func TestResetRejectsWrongSize(t *testing.T) {
	p, _, _ := newTestPipeline(t, 8, DefaultTuning())
	if err := p.Reset(make([]float32, 3)); err == nil {
		t.Error("expected ErrTargetSize")
	}
}
