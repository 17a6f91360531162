package edit

import (
	"testing"

	"github.com/Faultbox/midgard-terrain/internal/engine/input"
)

func TestNextTable(t *testing.T) {
	tests := []struct {
		from       Status
		active     bool
		discarding bool
		want       Status
	}{
		{Idle, false, false, Idle},
		{Idle, true, false, Editing},
		{Idle, true, true, Editing},
		{Committing, false, false, Idle},
		{Committing, true, false, Editing},
		{Editing, true, false, Editing},
		{Editing, false, false, Committing},
		{Editing, true, true, Discarding},
		{Editing, false, true, Discarding},
		{Discarding, false, false, Committing},
		{Discarding, true, false, Committing},
		{Status(42), true, false, Status(42)},
	}
	for _, tt := range tests {
		if got := Next(tt.from, tt.active, tt.discarding); got != tt.want {
			t.Errorf("Next(%v, %v, %v) = %v, want %v", tt.from, tt.active, tt.discarding, got, tt.want)
		}
	}
}

func TestFiveActiveFramesThenRelease(t *testing.T) {
	s := Idle
	var got []Status
	for _, active := range []bool{true, true, true, true, true, false} {
		s = Next(s, active, false)
		got = append(got, s)
	}
	want := []Status{Editing, Editing, Editing, Editing, Editing, Committing}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("sequence = %v, want %v", got, want)
		}
	}
	if s = Next(s, false, false); s != Idle {
		t.Errorf("after commit = %v, want idle", s)
	}
}

func TestMachineSignals(t *testing.T) {
	press := input.State{Buttons: input.MouseLeft, ButtonsPressed: input.MouseLeft}
	hold := input.State{Buttons: input.MouseLeft}
	escape := input.State{Buttons: input.MouseLeft, KeysPressed: input.KeyEscape, Keys: input.KeyEscape}

	var m Machine
	// Holding without a fresh press does not start a stroke.
	m.Step(hold)
	if m.Status() != Idle {
		t.Fatalf("held button started a stroke: %v", m.Status())
	}

	steps := []struct {
		in   input.State
		want Status
	}{
		{press, Editing},
		{hold, Editing},
		{hold, Editing},
		{escape, Discarding},
		{hold, Committing},
		{hold, Idle}, // still held, but the stroke was abandoned
		{input.State{}, Idle},
		{press, Editing},
		{input.State{}, Committing},
		{input.State{KeysPressed: input.KeyEscape}, Idle},
	}
	for i, st := range steps {
		m.Step(st.in)
		if m.Status() != st.want {
			t.Fatalf("step %d: status %v, want %v", i, m.Status(), st.want)
		}
	}
}
