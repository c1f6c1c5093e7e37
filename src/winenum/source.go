// Package winenum enumerates the host's on-screen windows: visible top-level
// windows in z-order and, given a window, its direct children. It feeds both
// the window picker's hit-testing and the region selector's edge snapping.
package winenum

import (
	"errors"
	"image"
)

// Handle is an opaque host window identifier.
type Handle uintptr

// Window is one enumerated window: handle, screen-space bounds in
// virtual-desktop coordinates (compositor-adjusted where the host can tell),
// and title. Enumeration order is front-to-back.
type Window struct {
	Handle Handle
	Bounds image.Rectangle
	Title  string
}

// Source is the host-OS window hierarchy capability.
type Source interface {
	// TopLevel enumerates visible top-level windows front-to-back,
	// excluding the given handle (the selector's own overlay surface).
	TopLevel(exclude Handle) ([]Window, error)
	// Children enumerates a window's visible direct children front-to-back.
	Children(parent Handle) ([]Window, error)
}

var ErrUnsupported = errors.New("window enumeration is not supported on this platform")

// New returns the hierarchy source for the current platform.
func New() (Source, error) {
	return newPlatformSource()
}

const (
	// Top-level windows smaller than this per side are decoration artifacts,
	// not pickable application windows.
	minTopLevelSpan = 5
	// Children under this span are invisible spacers.
	minChildSpan = 2
)

// FilterTopLevel applies the selection policy to a raw top-level enumeration:
// the overlay's own handle, untitled windows, and near-zero-area rectangles
// are dropped. Order is preserved.
func FilterTopLevel(windows []Window, exclude Handle) []Window {
	out := make([]Window, 0, len(windows))
	for _, w := range windows {
		if w.Handle == exclude {
			continue
		}
		if w.Title == "" {
			continue
		}
		if w.Bounds.Dx() < minTopLevelSpan || w.Bounds.Dy() < minTopLevelSpan {
			continue
		}
		out = append(out, w)
	}
	return out
}

// FilterChildren drops degenerate child rectangles. Untitled children stay:
// inner panes rarely carry titles.
func FilterChildren(windows []Window) []Window {
	out := make([]Window, 0, len(windows))
	for _, w := range windows {
		if w.Bounds.Dx() <= minChildSpan || w.Bounds.Dy() <= minChildSpan {
			continue
		}
		out = append(out, w)
	}
	return out
}
