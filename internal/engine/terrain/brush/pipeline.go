package brush

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/midgard-terrain/internal/engine/terrain"
	"github.com/Faultbox/midgard-terrain/internal/logger"
	"github.com/Faultbox/midgard-terrain/pkg/math"
)

// Pipeline owns the heightmap targets and runs the compositing passes.
//
// Targets cover the whole heightmap; passes run once per tile with the
// viewport and camera restricted to that tile.
type Pipeline struct {
	dev    Device
	tuning Tuning
	view   View

	columns, rows int
	tiles         []terrain.Region

	committed   Target
	working     Target
	preview     Target
	workingMask Target
	previewMask Target
	scratch     Target

	instances []Instance
	touched   []terrain.Region
	grown     []terrain.Region
	log       *zap.Logger
}

// NewPipeline allocates the targets for a columns×rows heightmap split
// into square tiles of tileSize samples.
func NewPipeline(dev Device, columns, rows, tileSize int, view View, tuning Tuning) (*Pipeline, error) {
	p := &Pipeline{
		dev:     dev,
		tuning:  tuning,
		view:    view,
		columns: columns,
		rows:    rows,
		tiles:   Tiles(columns, rows, tileSize),
		log:     logger.Named("brush"),
	}

	targets := []*Target{&p.committed, &p.working, &p.preview, &p.workingMask, &p.previewMask, &p.scratch}
	for i, t := range targets {
		var err error
		if *t, err = dev.NewTarget(columns, rows); err != nil {
			for _, made := range targets[:i] {
				dev.Release(*made)
			}
			return nil, fmt.Errorf("allocating brush target: %w", err)
		}
	}

	p.log.Debug("pipeline created",
		zap.Int("columns", columns),
		zap.Int("rows", rows),
		zap.Int("tiles", len(p.tiles)),
	)
	return p, nil
}

// Tiles splits a columns×rows field into square regions of size samples;
// the last row and column of tiles may be smaller.
func Tiles(columns, rows, size int) []terrain.Region {
	if size < 1 {
		size = max(columns, rows)
	}
	var out []terrain.Region
	for r := 0; r < rows; r += size {
		for c := 0; c < columns; c += size {
			out = append(out, terrain.Region{
				Column: c,
				Row:    r,
				Width:  min(size, columns-c),
				Height: min(size, rows-r),
			})
		}
	}
	return out
}

// Release frees every target.
func (p *Pipeline) Release() {
	for _, t := range []Target{p.committed, p.working, p.preview, p.workingMask, p.previewMask, p.scratch} {
		p.dev.Release(t)
	}
}

// Size returns the heightmap dimensions in samples.
func (p *Pipeline) Size() (columns, rows int) {
	return p.columns, p.rows
}

// Device returns the device running the passes.
func (p *Pipeline) Device() Device {
	return p.dev
}

func (p *Pipeline) Committed() Target { return p.committed }
func (p *Pipeline) Working() Target   { return p.working }
func (p *Pipeline) Preview() Target   { return p.preview }

// Active returns the heightmap to render: preview while the cursor is over
// the terrain, working otherwise.
func (p *Pipeline) Active(previewing bool) Target {
	if previewing {
		return p.preview
	}
	return p.working
}

// Reset replaces the committed heightmap and resets working and preview to it.
func (p *Pipeline) Reset(heights []float32) error {
	if err := p.dev.Upload(p.committed, heights); err != nil {
		return err
	}
	p.dev.Copy(p.working, p.committed)
	p.dev.Copy(p.preview, p.committed)
	return nil
}

// Commit bakes the working heightmap into committed.
func (p *Pipeline) Commit() {
	p.dev.Copy(p.committed, p.working)
}

// Discard throws the stroke away by resetting working and preview from committed.
func (p *Pipeline) Discard() {
	p.dev.Copy(p.working, p.committed)
	p.dev.Copy(p.preview, p.committed)
}

// ReadBack copies target t into out.
func (p *Pipeline) ReadBack(t Target, out []float32) error {
	return p.dev.ReadBack(t, out)
}

// Composite rebuilds working from committed plus stroke, then preview from
// working plus the cursor. stroke may be nil.
func (p *Pipeline) Composite(stroke *Stroke, cursor Cursor, s Settings) {
	var positions []math.Vec3
	starting := cursor.StartingHeight
	if stroke != nil && stroke.Len() > 0 {
		positions = stroke.Instances
		starting = stroke.StartingHeight
	}
	p.layer(p.working, p.committed, p.workingMask, positions, starting, s)

	positions = nil
	if cursor.OnField {
		positions = []math.Vec3{cursor.Position}
	}
	p.layer(p.preview, p.working, p.previewMask, positions, starting, s)
}

// layer writes dst = base + brush(positions).
func (p *Pipeline) layer(dst, base, mask Target, positions []math.Vec3, starting float32, s Settings) {
	p.dev.Copy(dst, base)
	if len(positions) == 0 {
		return
	}

	strength := p.tuning.InstanceStrength(s)
	p.instances = p.instances[:0]
	for _, pos := range positions {
		p.instances = append(p.instances, Instance{Center: pos.XZ(), Radius: s.Radius, Strength: strength})
	}

	blend := BlendAdd
	if s.Tool == Flatten {
		blend = BlendMax
	}

	if s.Tool == Smooth {
		p.smooth(dst, base, mask, s.Radius, blend)
		return
	}
	for _, r := range p.tiles {
		if !p.touches(r, s.Radius) {
			continue
		}
		p.dev.Clear(mask, r)
		p.dev.DrawInfluence(mask, r, p.view, p.instances, blend)
		p.dev.Apply(dst, base, mask, r, s.Tool, starting)
	}
}

// smooth runs the separable blur iterations over every touched tile. Each
// iteration finishes its horizontal pass on all tiles before any vertical
// pass writes dst, so neighbouring tiles always read the same iteration.
func (p *Pipeline) smooth(dst, base, mask Target, radius float32, blend Blend) {
	k := p.tuning.SmoothKernelRadius
	p.touched, p.grown = p.touched[:0], p.grown[:0]
	for _, r := range p.tiles {
		if p.touches(r, radius) {
			p.touched = append(p.touched, r)
			p.grown = append(p.grown, p.grow(r, k))
		}
	}

	// The vertical pass reads scratch rows beyond the tile, so the mask
	// and the horizontal pass cover them too.
	for _, g := range p.grown {
		p.dev.Clear(mask, g)
		p.dev.DrawInfluence(mask, g, p.view, p.instances, blend)
	}

	src := base
	for i := 0; i < p.tuning.SmoothIterations; i++ {
		for _, g := range p.grown {
			p.dev.Blur(p.scratch, src, mask, g, Horizontal, k)
		}
		for _, r := range p.touched {
			p.dev.Blur(dst, p.scratch, mask, r, Vertical, k)
		}
		src = dst
	}
}

// grow extends r by k rows above and below, clamped to the field.
func (p *Pipeline) grow(r terrain.Region, k int) terrain.Region {
	top := max(r.Row-k, 0)
	bottom := min(r.Row+r.Height+k, p.rows)
	return terrain.Region{Column: r.Column, Row: top, Width: r.Width, Height: bottom - top}
}

// touches reports whether any instance circle overlaps tile r.
func (p *Pipeline) touches(r terrain.Region, radius float32) bool {
	lo := math.Vec2{
		X: p.view.Origin.X + float32(r.Column)*p.view.Spacing,
		Y: p.view.Origin.Y + float32(r.Row)*p.view.Spacing,
	}
	hi := math.Vec2{
		X: p.view.Origin.X + float32(r.Column+r.Width-1)*p.view.Spacing,
		Y: p.view.Origin.Y + float32(r.Row+r.Height-1)*p.view.Spacing,
	}
	for _, in := range p.instances {
		cx := min(max(in.Center.X, lo.X), hi.X)
		cy := min(max(in.Center.Y, lo.Y), hi.Y)
		if (math.Vec2{X: cx, Y: cy}).Sub(in.Center).Length() < radius {
			return true
		}
	}
	return false
}
