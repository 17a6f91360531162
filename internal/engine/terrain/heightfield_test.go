package terrain

import (
	"errors"
	"testing"

	"github.com/Faultbox/midgard-terrain/pkg/math"
)

func TestSampleBilinear(t *testing.T) {
	hf := NewHeightfield(2, 2, 10, 100)
	copy(hf.Heights, []float32{0, 1, 0, 1}) // rises along +X

	tests := []struct {
		x, z float32
		want float32
	}{
		{0, 0, 0},
		{10, 0, 1},
		{5, 5, 0.5},
		{-50, 0, 0},   // clamped
		{500, 500, 1}, // clamped
	}
	for _, tt := range tests {
		if got := hf.Sample(tt.x, tt.z); got != tt.want {
			t.Errorf("Sample(%v,%v) = %v, want %v", tt.x, tt.z, got, tt.want)
		}
	}

	if got := hf.WorldHeight(5, 0); got != 50 {
		t.Errorf("WorldHeight = %v, want 50", got)
	}
}

func TestBoundsAndContains(t *testing.T) {
	hf := NewHeightfield(5, 3, 2, 40)
	hf.Position = math.Vec3{X: -4, Y: 1, Z: 0}

	lo, hi := hf.Bounds()
	if lo != (math.Vec3{X: -4, Y: 1, Z: 0}) || hi != (math.Vec3{X: 4, Y: 41, Z: 4}) {
		t.Errorf("Bounds = %v..%v", lo, hi)
	}
	if !hf.Contains(0, 2) || hf.Contains(5, 2) || hf.Contains(0, -0.1) {
		t.Error("Contains gave wrong answers")
	}
}

func TestRefreshKeepsBackingArray(t *testing.T) {
	hf := NewHeightfield(3, 3, 1, 1)
	backing := &hf.Heights[0]
	v := hf.Version()

	data := []float32{1, 2, 3, 4, 5, 6, 7, 8, 9}
	if err := hf.Refresh(data); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if &hf.Heights[0] != backing {
		t.Error("Refresh replaced the backing array")
	}
	if hf.At(2, 1) != 6 {
		t.Errorf("At(2,1) = %v, want 6", hf.At(2, 1))
	}
	if hf.Version() == v {
		t.Error("version should advance on refresh")
	}

	if err := hf.Refresh(data[:4]); !errors.Is(err, ErrSizeMismatch) {
		t.Errorf("short refresh error = %v, want ErrSizeMismatch", err)
	}
}
