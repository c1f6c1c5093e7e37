package overlay

import (
	"image"
	"time"
)

// Event is one input delivered by a Surface. Pointer coordinates are
// overlay-local: (0,0) is the top-left of the virtual desktop, so a snapshot
// pixel and its on-screen position share coordinates.
type Event interface {
	event()
}

// Button identifies a pointer button.
type Button int

const (
	ButtonNone Button = iota
	ButtonLeft
	ButtonRight
)

// PointerKind distinguishes movement from button transitions.
type PointerKind int

const (
	PointerMove PointerKind = iota
	PointerDown
	PointerUp
)

// PointerEvent is a mouse move or button change at Pos.
type PointerEvent struct {
	Pos    image.Point
	Button Button
	Kind   PointerKind
}

// Key identifies the keys the selector reacts to. Anything else is dropped
// at the surface.
type Key int

const (
	KeyNone Key = iota
	KeyEscape
	KeyEnter
	KeySpace
	KeyS
	KeyC
	KeyZ
	KeyPageUp
	KeyPageDown
	KeyUp
	KeyDown
	KeyLeft
	KeyRight
)

// KeyEvent is a key press. Ctrl reports the modifier state at press time.
type KeyEvent struct {
	Key  Key
	Ctrl bool
}

// TickEvent drives animation at the surface's refresh cadence (~60Hz).
type TickEvent struct {
	Now time.Time
}

// CloseEvent reports that the surface window was destroyed from outside the
// session. The session treats it as a cancel.
type CloseEvent struct{}

func (PointerEvent) event() {}
func (KeyEvent) event()     {}
func (TickEvent) event()    {}
func (CloseEvent) event()   {}
