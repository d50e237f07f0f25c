package loop

import "fmt"

// State is the controller's lifecycle state.
type State uint8

// Controller states. Exiting is terminal.
const (
	Running State = iota
	Resizing
	Exiting
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case Running:
		return "Running"
	case Resizing:
		return "Resizing"
	case Exiting:
		return "Exiting"
	default:
		return fmt.Sprintf("State(%d)", uint8(s))
	}
}

// EventKind identifies a window event.
type EventKind uint8

// Event kinds.
const (
	EventResize EventKind = iota + 1
	EventScaleChange
	EventClose
	EventKey
)

// Key is a key the controller reacts to.
type Key uint8

// Keys.
const (
	KeyOther Key = iota
	KeyEscape
	KeySpace
	KeyStep
)

// Event is a window event delivered to HandleEvent.
type Event struct {
	Kind EventKind

	// Width and Height are the new physical size for EventResize and
	// EventScaleChange.
	Width, Height uint32

	// Scale is the new content scale for EventScaleChange.
	Scale float64

	// Key is the pressed key for EventKey.
	Key Key
}

// Resize returns a resize event.
func Resize(width, height uint32) Event {
	return Event{Kind: EventResize, Width: width, Height: height}
}

// ScaleChange returns a content scale event with the resulting physical size.
func ScaleChange(scale float64, width, height uint32) Event {
	return Event{Kind: EventScaleChange, Scale: scale, Width: width, Height: height}
}

// Close returns a window close event.
func Close() Event { return Event{Kind: EventClose} }

// KeyPress returns a key event.
func KeyPress(k Key) Event { return Event{Kind: EventKey, Key: k} }
