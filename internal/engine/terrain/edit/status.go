// Package edit decides when brush strokes start, commit and get discarded.
package edit

import (
	"fmt"

	"github.com/Faultbox/midgard-terrain/internal/engine/input"
)

// Status is the heightmap edit state.
type Status int

const (
	Idle Status = iota
	Editing
	// Committing and Discarding last one frame each. They trigger the
	// pipeline side effects and are never resting states.
	Committing
	Discarding
)

func (s Status) String() string {
	switch s {
	case Idle:
		return "idle"
	case Editing:
		return "editing"
	case Committing:
		return "committing"
	case Discarding:
		return "discarding"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Next returns the status following s. Unknown statuses stay where they are.
func Next(s Status, brushActive, discarding bool) Status {
	switch s {
	case Idle, Committing:
		if brushActive {
			return Editing
		}
		return Idle
	case Editing:
		if discarding {
			return Discarding
		}
		if brushActive {
			return Editing
		}
		return Committing
	case Discarding:
		// One frame for the reset working heightmap to show before idling.
		return Committing
	default:
		return s
	}
}

// Machine tracks the edit status across frames.
type Machine struct {
	status Status
}

// Status returns the current status.
func (m *Machine) Status() Status {
	return m.status
}

// Signals derives the transition inputs from this frame's input.
// The brush is active on a new left press, or while the button stays down
// during a stroke. Discard fires on a new Escape press during a stroke.
func (m *Machine) Signals(in input.State) (brushActive, discarding bool) {
	editing := m.status == Editing
	brushActive = in.Pressed(input.MouseLeft) || (editing && in.Down(input.MouseLeft))
	discarding = editing && in.KeyPressed(input.KeyEscape)
	return brushActive, discarding
}

// Step advances one frame and returns the previous status.
func (m *Machine) Step(in input.State) (prev Status) {
	active, discarding := m.Signals(in)
	prev = m.status
	m.status = Next(prev, active, discarding)
	return prev
}
