package edit

import (
	"slices"
	"testing"

	"github.com/Faultbox/midgard-terrain/internal/engine/input"
	"github.com/Faultbox/midgard-terrain/internal/engine/terrain"
	"github.com/Faultbox/midgard-terrain/internal/engine/terrain/brush"
	"github.com/Faultbox/midgard-terrain/pkg/math"
)

var (
	press  = input.State{Buttons: input.MouseLeft, ButtonsPressed: input.MouseLeft}
	hold   = input.State{Buttons: input.MouseLeft}
	escape = input.State{Buttons: input.MouseLeft, Keys: input.KeyEscape, KeysPressed: input.KeyEscape}
	idle   = input.State{}
	onPick = Pick{Position: math.Vec3{X: 8, Y: 3, Z: 8}, Hit: true}
)

func newTestSession(t *testing.T, maxInstances int) (*Session, *brush.SoftwareDevice, []float32) {
	t.Helper()
	hf := terrain.NewHeightfield(16, 16, 1, 10)
	for i := range hf.Heights {
		hf.Heights[i] = 0.3
	}
	original := slices.Clone(hf.Heights)

	dev := brush.NewSoftwareDevice()
	p, err := brush.NewPipeline(dev, hf.Columns, hf.Rows, 8, brush.View{Spacing: 1}, brush.DefaultTuning())
	if err != nil {
		t.Fatalf("NewPipeline: %v", err)
	}
	if err := p.Reset(hf.Heights); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	settings := brush.Settings{Radius: 4, Strength: 1, Tool: brush.Raise}
	return NewSession(p, hf, settings, maxInstances, Limits{MinRadius: 1, MaxRadius: 6}), dev, original
}

func step(t *testing.T, s *Session, in input.State, pick Pick) Status {
	t.Helper()
	if err := s.Update(in, pick); err != nil {
		t.Fatalf("Update: %v", err)
	}
	return s.Status()
}

func TestSessionCommitsStroke(t *testing.T) {
	s, dev, original := newTestSession(t, 64)
	p := s.Pipeline()

	frames := []input.State{press, hold, hold, hold, hold}
	for i, in := range frames {
		if got := step(t, s, in, onPick); got != Editing {
			t.Fatalf("frame %d: %v, want editing", i, got)
		}
	}
	if s.Stroke().Len() != 5 {
		t.Errorf("stroke has %d instances, want 5", s.Stroke().Len())
	}
	if !slices.Equal(dev.Data(p.Committed()), original) {
		t.Error("committed changed while editing")
	}

	if got := step(t, s, idle, onPick); got != Committing {
		t.Fatalf("release: %v, want committing", got)
	}
	centre := 8*16 + 8
	if c := dev.Data(p.Committed())[centre]; c <= original[centre] {
		t.Errorf("committed centre %v not raised", c)
	}
	if !slices.Equal(dev.Data(p.Working()), dev.Data(p.Committed())) {
		t.Error("working differs from committed after commit")
	}
	if !slices.Equal(s.hf.Heights, dev.Data(p.Committed())) {
		t.Error("height field not refreshed from the committed result")
	}

	if got := step(t, s, idle, Pick{}); got != Idle {
		t.Errorf("after commit: %v, want idle", got)
	}
}

func TestSessionDiscardRestoresCommitted(t *testing.T) {
	s, dev, original := newTestSession(t, 64)
	p := s.Pipeline()

	step(t, s, press, onPick)
	step(t, s, hold, onPick)
	step(t, s, hold, onPick)
	if maxDiff := dev.Data(p.Working())[8*16+8] - original[8*16+8]; maxDiff <= 0 {
		t.Fatal("stroke did not raise working")
	}

	if got := step(t, s, escape, onPick); got != Discarding {
		t.Fatalf("escape: %v, want discarding", got)
	}
	if !slices.Equal(dev.Data(p.Working()), original) {
		t.Error("working not reset on discard")
	}

	if got := step(t, s, hold, onPick); got != Committing {
		t.Fatalf("after discard: %v, want committing", got)
	}
	if !slices.Equal(dev.Data(p.Committed()), original) {
		t.Error("discarded stroke reached committed")
	}
	if !slices.Equal(dev.Data(p.Working()), dev.Data(p.Committed())) {
		t.Error("working differs from committed")
	}
	if !slices.Equal(s.hf.Heights, original) {
		t.Error("height field kept the discarded stroke")
	}
}

func TestSessionStartingHeightFromFirstHit(t *testing.T) {
	s, dev, _ := newTestSession(t, 64)
	p := s.Pipeline()
	s.hf.Heights[0] = 0.9
	if err := p.Reset(s.hf.Heights); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	s.SetSettings(brush.Settings{Radius: 4, Strength: 1, Tool: brush.Flatten})

	step(t, s, press, Pick{})
	if s.Status() != Editing || s.Stroke().Len() != 0 {
		t.Fatalf("status %v with %d instances, want editing with 0", s.Status(), s.Stroke().Len())
	}
	step(t, s, hold, onPick)
	step(t, s, hold, onPick)

	if got := s.Stroke().StartingHeight; got != 0.3 {
		t.Errorf("starting height = %v, want 0.3 under the first hit", got)
	}
	centre := 8*16 + 8
	if got := dev.Data(p.Working())[centre]; got < 0.299 || got > 0.301 {
		t.Errorf("flatten pulled centre to %v, want 0.3", got)
	}
}

func TestSessionDropsInstancesBeyondCapacity(t *testing.T) {
	s, _, _ := newTestSession(t, 2)
	for _, in := range []input.State{press, hold, hold, hold} {
		step(t, s, in, onPick)
	}
	if s.Status() != Editing || s.Stroke().Len() != 2 {
		t.Errorf("status %v with %d instances, want editing with 2", s.Status(), s.Stroke().Len())
	}
}

func TestSessionMissUsesOffField(t *testing.T) {
	s, dev, original := newTestSession(t, 8)
	step(t, s, press, Pick{})
	step(t, s, hold, Pick{})

	if s.BrushPosition() != brush.OffField {
		t.Errorf("brush position = %v, want off-field sentinel", s.BrushPosition())
	}
	if s.Previewing() {
		t.Error("previewing without a pick")
	}
	if s.Stroke().Len() != 0 {
		t.Errorf("missed picks recorded %d instances", s.Stroke().Len())
	}
	if !slices.Equal(dev.Data(s.Pipeline().Working()), original) {
		t.Error("working changed without a hit")
	}
}

func TestSessionHotkeys(t *testing.T) {
	s, _, _ := newTestSession(t, 8)

	step(t, s, input.State{KeysPressed: input.Key3}, Pick{})
	if s.Settings().Tool != brush.Flatten {
		t.Errorf("tool = %v, want flatten", s.Settings().Tool)
	}
	for i := 0; i < 5; i++ {
		step(t, s, input.State{KeysPressed: input.KeyBracketRight}, Pick{})
	}
	if s.Settings().Radius != 6 {
		t.Errorf("radius = %v, want clamp at 6", s.Settings().Radius)
	}

	// Tool changes are ignored mid-stroke.
	step(t, s, press, onPick)
	step(t, s, input.State{Buttons: input.MouseLeft, KeysPressed: input.Key1}, onPick)
	if s.Settings().Tool != brush.Flatten {
		t.Errorf("tool switched during a stroke: %v", s.Settings().Tool)
	}
}
