package window

import (
	"github.com/veandco/go-sdl2/sdl"

	"github.com/Faultbox/midgard-terrain/internal/engine/input"
	"github.com/Faultbox/midgard-terrain/pkg/math"
)

var scancodeKeys = map[sdl.Scancode]input.Keys{
	sdl.SCANCODE_ESCAPE:       input.KeyEscape,
	sdl.SCANCODE_1:            input.Key1,
	sdl.SCANCODE_2:            input.Key2,
	sdl.SCANCODE_3:            input.Key3,
	sdl.SCANCODE_4:            input.Key4,
	sdl.SCANCODE_LEFTBRACKET:  input.KeyBracketLeft,
	sdl.SCANCODE_RIGHTBRACKET: input.KeyBracketRight,
	sdl.SCANCODE_MINUS:        input.KeyMinus,
	sdl.SCANCODE_EQUALS:       input.KeyEquals,
	sdl.SCANCODE_W:            input.KeyW,
	sdl.SCANCODE_A:            input.KeyA,
	sdl.SCANCODE_S:            input.KeyS,
	sdl.SCANCODE_D:            input.KeyD,
	sdl.SCANCODE_Q:            input.KeyQ,
	sdl.SCANCODE_E:            input.KeyE,
	sdl.SCANCODE_LSHIFT:       input.KeyShift,
	sdl.SCANCODE_RSHIFT:       input.KeyShift,
	sdl.SCANCODE_F5:           input.KeyF5,
	sdl.SCANCODE_F3:           input.KeyF3,
	sdl.SCANCODE_F12:          input.KeyF12,
}

func sdlButton(b uint8) input.MouseButtons {
	switch b {
	case sdl.BUTTON_LEFT:
		return input.MouseLeft
	case sdl.BUTTON_MIDDLE:
		return input.MouseMiddle
	case sdl.BUTTON_RIGHT:
		return input.MouseRight
	}
	return 0
}

// Input polls SDL and maintains the frame input state.
type Input struct {
	state          input.State
	width, height  int
	mouseX, mouseY int
	held           input.MouseButtons
	keys           input.Keys
}

// NewInput creates an input poller for a window of the given size.
func NewInput(width, height int) *Input {
	return &Input{width: width, height: height}
}

// Update polls SDL events and returns the state for this frame.
func (i *Input) Update() input.State {
	s := input.State{Width: i.width, Height: i.height}
	prevX, prevY := i.mouseX, i.mouseY

	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		switch e := event.(type) {
		case *sdl.QuitEvent:
			s.Quit = true

		case *sdl.WindowEvent:
			if e.Event == sdl.WINDOWEVENT_RESIZED {
				i.width, i.height = int(e.Data1), int(e.Data2)
				s.Resized = true
				s.Width, s.Height = i.width, i.height
			}

		case *sdl.KeyboardEvent:
			k, ok := scancodeKeys[e.Keysym.Scancode]
			if !ok {
				continue
			}
			if e.Type == sdl.KEYDOWN {
				if e.Repeat == 0 && i.keys&k == 0 {
					s.KeysPressed |= k
				}
				i.keys |= k
			} else if e.Type == sdl.KEYUP {
				i.keys &^= k
			}

		case *sdl.MouseMotionEvent:
			i.mouseX, i.mouseY = int(e.X), int(e.Y)

		case *sdl.MouseButtonEvent:
			b := sdlButton(e.Button)
			i.mouseX, i.mouseY = int(e.X), int(e.Y)
			if e.Type == sdl.MOUSEBUTTONDOWN {
				s.ButtonsPressed |= b
				i.held |= b
			} else if e.Type == sdl.MOUSEBUTTONUP {
				i.held &^= b
			}

		case *sdl.MouseWheelEvent:
			s.Scroll += float32(e.Y)
		}
	}

	s.Buttons = i.held
	s.Keys = i.keys
	s.CursorDelta = math.Vec2{X: float32(i.mouseX - prevX), Y: float32(i.mouseY - prevY)}
	if i.width > 0 && i.height > 0 {
		s.Cursor = math.Vec2{
			X: float32(i.mouseX) / float32(i.width),
			Y: float32(i.mouseY) / float32(i.height),
		}
	}

	i.state = s
	return s
}

// State returns the state produced by the last Update.
func (i *Input) State() input.State {
	return i.state
}
