// Package overlay implements the interactive capture-target selector: a
// full-screen surface drawn over a frozen desktop snapshot, driven by one of
// two controllers. Region mode drags out a rectangle (or freehand contour)
// with edge snapping; window mode highlights whole windows and drills into
// their child hierarchy. Space flips between the two without re-capturing.
package overlay

import (
	"context"
	"errors"
	"image"
	"time"

	"github.com/SysAdminDoc/SwiftShot/src/snapshot"
	"github.com/SysAdminDoc/SwiftShot/src/winenum"
)

// Mode identifies which selection controller is active.
type Mode int

const (
	// ModeRegion drags out a rectangle or freehand contour.
	ModeRegion Mode = iota
	// ModeWindow highlights whole windows under the cursor.
	ModeWindow
)

func (m Mode) String() string {
	switch m {
	case ModeRegion:
		return "region"
	case ModeWindow:
		return "window"
	default:
		return "unknown"
	}
}

// other returns the mode Space switches to.
func (m Mode) other() Mode {
	if m == ModeRegion {
		return ModeWindow
	}
	return ModeRegion
}

// Verdict is a controller's reaction to one input event.
type Verdict int

const (
	// VerdictNone means the session keeps running.
	VerdictNone Verdict = iota
	// VerdictConfirm ends the session with a selected region.
	VerdictConfirm
	// VerdictCancel ends the session with nothing selected.
	VerdictCancel
	// VerdictSwitch swaps the active controller, keeping the snapshot.
	VerdictSwitch
)

// Result is the outcome of a selection session. Region is meaningful only
// when Confirmed is true; it is expressed in virtual-desktop coordinates and
// carries the freehand polygon when one was drawn.
type Result struct {
	Region    snapshot.Region
	Confirmed bool
	Mode      Mode
}

// DefaultEmitDelay separates hiding the overlay from delivering the result.
// Returning straight out of an input handler while a borderless topmost
// window is still up can leave the desktop wedged, so the surface goes away
// first and the verdict follows after a beat.
const DefaultEmitDelay = 50 * time.Millisecond

// Options configures a selection session. The zero value gives a
// rectangle-mode selector with platform defaults.
type Options struct {
	// Mode picks the controller shown first.
	Mode Mode

	// Freehand makes region mode trace a contour instead of a rectangle.
	Freehand bool

	// Source supplies window enumeration for snapping and picking. When
	// nil, the platform source is used; if that fails too the session
	// degrades to no snapping and an empty picker.
	Source winenum.Source

	// CopyText receives the hex color readout when C is pressed. Nil
	// disables the shortcut.
	CopyText func(string) error

	// NewSurface overrides the platform overlay window. Tests inject a
	// scripted surface here.
	NewSurface func(bounds image.Rectangle) (Surface, error)

	// Now overrides the animation clock.
	Now func() time.Time

	// EmitDelay overrides DefaultEmitDelay; zero keeps the default.
	EmitDelay time.Duration
}

// ErrNoSnapshot is returned when Select is called without a snapshot. The
// overlay never opens over a live desktop; it always draws a frozen frame.
var ErrNoSnapshot = errors.New("overlay: no snapshot to select from")

// Select runs one selection session over snap and blocks until the user
// confirms, cancels, or ctx ends. Cancellation is not an error: the returned
// Result has Confirmed=false. The caller keeps ownership of snap and crops
// it with the returned region afterwards.
func Select(ctx context.Context, snap *snapshot.Snapshot, opts Options) (Result, error) {
	if snap == nil {
		return Result{}, ErrNoSnapshot
	}
	s, err := newSession(snap, opts)
	if err != nil {
		return Result{}, err
	}
	defer s.close()
	return s.run(ctx)
}
