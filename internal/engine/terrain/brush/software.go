package brush

import (
	"fmt"

	"github.com/Faultbox/midgard-terrain/internal/engine/terrain"
	"github.com/Faultbox/midgard-terrain/pkg/math"
)

// SoftwareDevice runs every pass on the CPU. It is the reference the GL
// device is checked against, and it backs headless runs.
type SoftwareDevice struct {
	targets map[Target]*softTarget
	next    Target
}

type softTarget struct {
	width, height int
	data          []float32
}

func (t *softTarget) at(x, y int) float32 {
	x = min(max(x, 0), t.width-1)
	y = min(max(y, 0), t.height-1)
	return t.data[y*t.width+x]
}

// NewSoftwareDevice creates an empty CPU device.
func NewSoftwareDevice() *SoftwareDevice {
	return &SoftwareDevice{targets: make(map[Target]*softTarget), next: 1}
}

func (d *SoftwareDevice) NewTarget(width, height int) (Target, error) {
	if width < 1 || height < 1 {
		return 0, fmt.Errorf("%w: %dx%d", ErrTargetSize, width, height)
	}
	t := d.next
	d.next++
	d.targets[t] = &softTarget{width: width, height: height, data: make([]float32, width*height)}
	return t, nil
}

func (d *SoftwareDevice) Release(t Target) {
	delete(d.targets, t)
}

func (d *SoftwareDevice) Upload(t Target, data []float32) error {
	st := d.targets[t]
	if len(data) != len(st.data) {
		return fmt.Errorf("%w: upload of %d values into %dx%d", ErrTargetSize, len(data), st.width, st.height)
	}
	copy(st.data, data)
	return nil
}

func (d *SoftwareDevice) ReadBack(t Target, out []float32) error {
	st := d.targets[t]
	if len(out) != len(st.data) {
		return fmt.Errorf("%w: read of %dx%d into %d values", ErrTargetSize, st.width, st.height, len(out))
	}
	copy(out, st.data)
	return nil
}

// Data exposes the texels of t; callers must not keep the slice across passes.
func (d *SoftwareDevice) Data(t Target) []float32 {
	return d.targets[t].data
}

func (d *SoftwareDevice) Copy(dst, src Target) {
	copy(d.targets[dst].data, d.targets[src].data)
}

func (d *SoftwareDevice) Clear(t Target, r terrain.Region) {
	st := d.targets[t]
	for y := r.Row; y < r.Row+r.Height; y++ {
		row := st.data[y*st.width+r.Column : y*st.width+r.Column+r.Width]
		clear(row)
	}
}

func (d *SoftwareDevice) DrawInfluence(mask Target, r terrain.Region, view View, instances []Instance, blend Blend) {
	st := d.targets[mask]
	for _, in := range instances {
		for y := r.Row; y < r.Row+r.Height; y++ {
			wz := view.Origin.Y + float32(y)*view.Spacing
			for x := r.Column; x < r.Column+r.Width; x++ {
				wx := view.Origin.X + float32(x)*view.Spacing
				dist := math.Vec2{X: wx, Y: wz}.Sub(in.Center).Length()
				f := Falloff(dist, in.Radius)
				if f == 0 {
					continue
				}
				c := in.Strength * f
				i := y*st.width + x
				switch blend {
				case BlendMax:
					st.data[i] = max(st.data[i], c)
				default:
					st.data[i] += c
				}
			}
		}
	}
}

func (d *SoftwareDevice) Apply(dst, base, mask Target, r terrain.Region, tool Tool, target float32) {
	out, b, m := d.targets[dst], d.targets[base], d.targets[mask]
	for y := r.Row; y < r.Row+r.Height; y++ {
		for x := r.Column; x < r.Column+r.Width; x++ {
			i := y*out.width + x
			out.data[i] = applyTool(tool, b.data[i], m.data[i], target)
		}
	}
}

func (d *SoftwareDevice) Blur(dst, src, mask Target, r terrain.Region, axis Axis, radius int) {
	out, s, m := d.targets[dst], d.targets[src], d.targets[mask]
	dx, dy := 1, 0
	if axis == Vertical {
		dx, dy = 0, 1
	}
	n := float32(2*radius + 1)
	for y := r.Row; y < r.Row+r.Height; y++ {
		for x := r.Column; x < r.Column+r.Width; x++ {
			var sum float32
			for k := -radius; k <= radius; k++ {
				sum += s.at(x+k*dx, y+k*dy)
			}
			i := y*out.width + x
			out.data[i] = mix(s.data[i], sum/n, saturate(m.data[i]))
		}
	}
}

// applyTool is the per-texel tool effect shared with the GL tool shader.
func applyTool(tool Tool, base, mask, target float32) float32 {
	switch tool {
	case Raise:
		return saturate(base + mask)
	case Lower:
		return saturate(base - mask)
	case Flatten:
		return mix(base, target, saturate(mask))
	default:
		return base
	}
}

func mix(a, b, t float32) float32 {
	return a + (b-a)*t
}

func saturate(v float32) float32 {
	return min(max(v, 0), 1)
}
