// Package input describes the per-frame mouse and keyboard state the editor
// reacts to. It has no platform dependencies; the window package fills it.
package input

import "github.com/Faultbox/midgard-terrain/pkg/math"

// MouseButtons is a bitmask of mouse buttons.
type MouseButtons uint8

const (
	MouseLeft MouseButtons = 1 << iota
	MouseMiddle
	MouseRight
)

// Keys is a bitmask of the keys the editor reacts to.
type Keys uint64

const (
	KeyEscape Keys = 1 << iota
	Key1
	Key2
	Key3
	Key4
	KeyBracketLeft
	KeyBracketRight
	KeyMinus
	KeyEquals
	KeyW
	KeyA
	KeyS
	KeyD
	KeyQ
	KeyE
	KeyShift
	KeyF5
	KeyF3
	KeyF12
)

// State is the per-frame input snapshot consumed by the editor core.
// It is rebuilt once per frame before the core runs.
type State struct {
	Cursor      math.Vec2 // Normalized cursor position, (0,0) top-left to (1,1) bottom-right
	CursorDelta math.Vec2 // Cursor movement since last frame, in pixels
	Scroll      float32   // Wheel movement since last frame

	Buttons        MouseButtons // Held this frame
	ButtonsPressed MouseButtons // Newly pressed this frame

	Keys        Keys // Held this frame
	KeysPressed Keys // Newly pressed this frame

	Quit          bool
	Resized       bool
	Width, Height int
}

// Down reports whether every button in b is held.
func (s State) Down(b MouseButtons) bool {
	return s.Buttons&b == b
}

// Pressed reports whether b was newly pressed this frame.
func (s State) Pressed(b MouseButtons) bool {
	return s.ButtonsPressed&b != 0
}

// KeyDown reports whether k is held.
func (s State) KeyDown(k Keys) bool {
	return s.Keys&k != 0
}

// KeyPressed reports whether k was newly pressed this frame.
func (s State) KeyPressed(k Keys) bool {
	return s.KeysPressed&k != 0
}
