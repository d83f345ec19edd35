// Package input handles SDL2 input events.
package input

import (
	"github.com/veandco/go-sdl2/sdl"
)

// EventType identifies the kind of an input Event.
type EventType int

const (
	EventNone EventType = iota
	EventQuit
	EventWindowResize
	EventKeyDown
	EventKeyUp
	EventMouseMove
	EventMouseDown
	EventMouseUp
	EventMouseWheel
)

// Event represents a processed input event.
type Event struct {
	Type   EventType
	Key    sdl.Scancode
	Width  int
	Height int
	MouseX int
	MouseY int
	DX     int // relative motion for EventMouseMove
	DY     int
	Wheel  int // vertical scroll for EventMouseWheel, positive away from the user
	Button uint8
}

// Input handles all input processing.
type Input struct {
	events []Event
	held   map[uint8]bool
}

// New creates a new input handler.
func New() *Input {
	return &Input{
		events: make([]Event, 0, 16),
		held:   make(map[uint8]bool),
	}
}

// Update polls SDL events and converts them to input events.
// Returns true if the application should quit.
func (i *Input) Update() bool {
	i.events = i.events[:0]

	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		if i.handle(event) {
			return true
		}
	}
	return false
}

// handle records one SDL event and reports whether it asks to quit.
func (i *Input) handle(event sdl.Event) bool {
	switch e := event.(type) {
	case *sdl.QuitEvent:
		i.events = append(i.events, Event{Type: EventQuit})
		return true

	case *sdl.WindowEvent:
		if e.Event == sdl.WINDOWEVENT_RESIZED || e.Event == sdl.WINDOWEVENT_SIZE_CHANGED {
			i.events = append(i.events, Event{
				Type:   EventWindowResize,
				Width:  int(e.Data1),
				Height: int(e.Data2),
			})
		}

	case *sdl.KeyboardEvent:
		if e.Type == sdl.KEYDOWN {
			i.events = append(i.events, Event{
				Type: EventKeyDown,
				Key:  e.Keysym.Scancode,
			})
		} else if e.Type == sdl.KEYUP {
			i.events = append(i.events, Event{
				Type: EventKeyUp,
				Key:  e.Keysym.Scancode,
			})
		}

	case *sdl.MouseMotionEvent:
		i.events = append(i.events, Event{
			Type:   EventMouseMove,
			MouseX: int(e.X),
			MouseY: int(e.Y),
			DX:     int(e.XRel),
			DY:     int(e.YRel),
		})

	case *sdl.MouseButtonEvent:
		if e.Type == sdl.MOUSEBUTTONDOWN {
			i.held[e.Button] = true
			i.events = append(i.events, Event{
				Type:   EventMouseDown,
				MouseX: int(e.X),
				MouseY: int(e.Y),
				Button: e.Button,
			})
		} else if e.Type == sdl.MOUSEBUTTONUP {
			delete(i.held, e.Button)
			i.events = append(i.events, Event{
				Type:   EventMouseUp,
				MouseX: int(e.X),
				MouseY: int(e.Y),
				Button: e.Button,
			})
		}

	case *sdl.MouseWheelEvent:
		if e.Y != 0 {
			i.events = append(i.events, Event{Type: EventMouseWheel, Wheel: int(e.Y)})
		}
	}
	return false
}

// Events returns the events from the last Update.
func (i *Input) Events() []Event {
	return i.events
}

// IsKeyPressed checks if a specific key was pressed this frame.
func (i *Input) IsKeyPressed(scancode sdl.Scancode) bool {
	for _, e := range i.events {
		if e.Type == EventKeyDown && e.Key == scancode {
			return true
		}
	}
	return false
}

// IsButtonHeld reports whether a mouse button is down.
func (i *Input) IsButtonHeld(button uint8) bool {
	return i.held[button]
}

// Drag returns the relative mouse motion this frame while button is held.
func (i *Input) Drag(button uint8) (dx, dy int) {
	if !i.held[button] {
		return 0, 0
	}
	for _, e := range i.events {
		if e.Type == EventMouseMove {
			dx += e.DX
			dy += e.DY
		}
	}
	return dx, dy
}

// Wheel returns the total vertical scroll this frame.
func (i *Input) Wheel() int {
	var total int
	for _, e := range i.events {
		if e.Type == EventMouseWheel {
			total += e.Wheel
		}
	}
	return total
}

// Resize returns the last window size reported this frame.
func (i *Input) Resize() (width, height int, ok bool) {
	for _, e := range i.events {
		if e.Type == EventWindowResize {
			width, height, ok = e.Width, e.Height, true
		}
	}
	return width, height, ok
}
