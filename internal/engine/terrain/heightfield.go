package terrain

import (
	"fmt"

	"github.com/Faultbox/midgard-terrain/pkg/math"
)

// NewHeightfield creates a flat field of the given size.
func NewHeightfield(columns, rows int, spacing, maxHeight float32) *Heightfield {
	return &Heightfield{
		Columns:   columns,
		Rows:      rows,
		Spacing:   spacing,
		MaxHeight: maxHeight,
		Heights:   make([]float32, columns*rows),
	}
}

// Index returns the offset of (col, row) in Heights.
func (h *Heightfield) Index(col, row int) int {
	return row*h.Columns + col
}

// At returns the normalized height at (col, row), clamping to the border.
func (h *Heightfield) At(col, row int) float32 {
	col = clampInt(col, 0, h.Columns-1)
	row = clampInt(row, 0, h.Rows-1)
	return h.Heights[h.Index(col, row)]
}

// WorldPoint returns the world-space position of sample (col, row).
func (h *Heightfield) WorldPoint(col, row int) math.Vec3 {
	return math.Vec3{
		X: h.Position.X + float32(col)*h.Spacing,
		Y: h.Position.Y + h.At(col, row)*h.MaxHeight,
		Z: h.Position.Z + float32(row)*h.Spacing,
	}
}

// Size returns the world-space extent along X and Z.
func (h *Heightfield) Size() (width, depth float32) {
	return float32(h.Columns-1) * h.Spacing, float32(h.Rows-1) * h.Spacing
}

// Bounds returns the box every sample can occupy.
func (h *Heightfield) Bounds() (lo, hi math.Vec3) {
	w, d := h.Size()
	return h.Position, h.Position.Add(math.Vec3{X: w, Y: h.MaxHeight, Z: d})
}

// Contains reports whether the world XZ position lies over the field.
func (h *Heightfield) Contains(x, z float32) bool {
	w, d := h.Size()
	lx, lz := x-h.Position.X, z-h.Position.Z
	return lx >= 0 && lz >= 0 && lx <= w && lz <= d
}

// Sample returns the bilinearly interpolated normalized height at world (x, z).
// Positions outside the field clamp to the border.
func (h *Heightfield) Sample(x, z float32) float32 {
	if len(h.Heights) == 0 {
		return 0
	}
	fx := (x - h.Position.X) / h.Spacing
	fz := (z - h.Position.Z) / h.Spacing
	fx = clampf(fx, 0, float32(h.Columns-1))
	fz = clampf(fz, 0, float32(h.Rows-1))

	col, row := int(fx), int(fz)
	tx, tz := fx-float32(col), fz-float32(row)

	south := h.At(col, row)*(1-tx) + h.At(col+1, row)*tx
	north := h.At(col, row+1)*(1-tx) + h.At(col+1, row+1)*tx
	return south*(1-tz) + north*tz
}

// WorldHeight returns the interpolated world-space height at (x, z).
func (h *Heightfield) WorldHeight(x, z float32) float32 {
	return h.Position.Y + h.Sample(x, z)*h.MaxHeight
}

// Refresh overwrites every sample from read-back data, keeping the backing array.
func (h *Heightfield) Refresh(data []float32) error {
	if len(data) != len(h.Heights) {
		return fmt.Errorf("%w: got %d samples, want %d", ErrSizeMismatch, len(data), len(h.Heights))
	}
	copy(h.Heights, data)
	h.version++
	return nil
}

// Resize replaces the layout, reallocating only when the sample count grows.
func (h *Heightfield) Resize(columns, rows int) {
	n := columns * rows
	if cap(h.Heights) >= n {
		h.Heights = h.Heights[:n]
		clear(h.Heights)
	} else {
		h.Heights = make([]float32, n)
	}
	h.Columns, h.Rows = columns, rows
	h.version++
}

// Version increases on every refresh; consumers compare it to detect changes.
func (h *Heightfield) Version() uint64 {
	return h.version
}

func clampf(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
