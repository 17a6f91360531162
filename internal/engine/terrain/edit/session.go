package edit

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/midgard-terrain/internal/engine/input"
	"github.com/Faultbox/midgard-terrain/internal/engine/terrain"
	"github.com/Faultbox/midgard-terrain/internal/engine/terrain/brush"
	"github.com/Faultbox/midgard-terrain/internal/logger"
	"github.com/Faultbox/midgard-terrain/pkg/math"
)

// Limits bound the brush hotkeys.
type Limits struct {
	MinRadius float32
	MaxRadius float32
}

// Pick is the terrain point under the cursor this frame.
type Pick struct {
	Position math.Vec3
	Hit      bool
}

// Session drives a brush pipeline from input: it records strokes, runs the
// compositing passes and keeps the CPU height field in step with the
// active heightmap.
type Session struct {
	machine  Machine
	pipeline *brush.Pipeline
	stroke   *brush.Stroke
	settings brush.Settings
	limits   Limits
	hf       *terrain.Heightfield

	brushPos   math.Vec3
	previewing bool
	readback   []float32

	log *zap.Logger
}

// NewSession creates an idle session. hf must match the pipeline size.
func NewSession(p *brush.Pipeline, hf *terrain.Heightfield, settings brush.Settings, maxInstances int, limits Limits) *Session {
	return &Session{
		pipeline: p,
		stroke:   brush.NewStroke(maxInstances),
		settings: settings,
		limits:   limits,
		hf:       hf,
		brushPos: brush.OffField,
		readback: make([]float32, len(hf.Heights)),
		log:      logger.Named("edit"),
	}
}

func (s *Session) Status() Status               { return s.machine.Status() }
func (s *Session) Stroke() *brush.Stroke        { return s.stroke }
func (s *Session) Settings() brush.Settings     { return s.settings }
func (s *Session) Pipeline() *brush.Pipeline    { return s.pipeline }
func (s *Session) SetSettings(b brush.Settings) { s.settings = b }

// BrushPosition returns the picked brush position, or brush.OffField.
func (s *Session) BrushPosition() math.Vec3 {
	return s.brushPos
}

// Previewing reports whether the cursor is over the terrain.
func (s *Session) Previewing() bool {
	return s.previewing
}

// ActiveHeightmap returns the target the terrain should render this frame.
func (s *Session) ActiveHeightmap() brush.Target {
	return s.pipeline.Active(s.previewing)
}

// Update advances one frame: hotkeys, state transition, stroke recording,
// pipeline side effects, compositing and height field refresh, in that order.
func (s *Session) Update(in input.State, pick Pick) error {
	if s.machine.Status() != Editing {
		s.handleHotkeys(in)
	}

	s.previewing = pick.Hit
	s.brushPos = brush.OffField
	if pick.Hit {
		s.brushPos = pick.Position
	}

	prev := s.machine.Step(in)
	status := s.machine.Status()
	if status != prev {
		s.log.Debug("status changed",
			zap.Stringer("from", prev),
			zap.Stringer("to", status),
			zap.Int("instances", s.stroke.Len()),
		)
	}

	switch status {
	case Editing:
		if prev != Editing {
			s.stroke.Begin(0)
		}
		if pick.Hit {
			// The stroke starts at its first instance on the terrain.
			if s.stroke.Len() == 0 {
				s.stroke.StartingHeight = s.hf.Sample(s.brushPos.X, s.brushPos.Z)
			}
			s.stroke.Append(s.brushPos)
		}
	case Committing:
		s.pipeline.Commit()
		s.stroke.Begin(0)
	case Discarding:
		s.pipeline.Discard()
		s.stroke.Begin(0)
	}

	if status == Idle && !s.previewing {
		return nil
	}

	cursor := brush.Cursor{
		Position:       s.brushPos,
		StartingHeight: s.hf.Sample(s.brushPos.X, s.brushPos.Z),
		OnField:        pick.Hit,
	}
	s.pipeline.Composite(s.stroke, cursor, s.settings)

	if status == Idle {
		return nil
	}
	// The last refresh before idling must not bake the cursor preview into
	// the height field the picker rests on.
	source := s.ActiveHeightmap()
	if status == Committing {
		source = s.pipeline.Working()
	}
	if err := s.pipeline.ReadBack(source, s.readback); err != nil {
		return fmt.Errorf("reading back heightmap: %w", err)
	}
	return s.hf.Refresh(s.readback)
}

func (s *Session) handleHotkeys(in input.State) {
	before := s.settings

	tools := []struct {
		key  input.Keys
		tool brush.Tool
	}{
		{input.Key1, brush.Raise},
		{input.Key2, brush.Lower},
		{input.Key3, brush.Flatten},
		{input.Key4, brush.Smooth},
	}
	for _, t := range tools {
		if in.KeyPressed(t.key) {
			s.settings.Tool = t.tool
		}
	}

	if in.KeyPressed(input.KeyBracketRight) {
		s.settings.Radius = min(s.settings.Radius*1.25, s.limits.MaxRadius)
	}
	if in.KeyPressed(input.KeyBracketLeft) {
		s.settings.Radius = max(s.settings.Radius/1.25, s.limits.MinRadius)
	}
	if in.KeyPressed(input.KeyEquals) {
		s.settings.Strength = min(s.settings.Strength+0.05, 1)
	}
	if in.KeyPressed(input.KeyMinus) {
		s.settings.Strength = max(s.settings.Strength-0.05, 0.05)
	}

	if s.settings != before {
		s.log.Info("brush settings",
			zap.Stringer("tool", s.settings.Tool),
			zap.Float32("radius", s.settings.Radius),
			zap.Float32("strength", s.settings.Strength),
		)
	}
}
