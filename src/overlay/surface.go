package overlay

import (
	"image"

	"github.com/SysAdminDoc/SwiftShot/src/winenum"
)

// Surface is a borderless, topmost, click-through-nothing window spanning
// the virtual desktop. It owns a back buffer the renderer draws into and
// translates raw input into Events. Exactly one surface is alive at a time;
// the session guarantees it.
//
// All methods are callable from the session goroutine; the platform
// implementation pins its message pump to a dedicated OS thread internally.
type Surface interface {
	// Show makes the surface visible and focused. Input starts flowing
	// on Events after Show returns.
	Show() error

	// Hide removes the surface from the screen without destroying it.
	// Called before the terminal verdict is delivered so the desktop is
	// unblocked first.
	Hide()

	// Frame returns the back buffer. Its bounds are (0,0)-(w,h) in
	// overlay-local coordinates. The renderer draws a whole frame, then
	// calls Repaint.
	Frame() *image.RGBA

	// Repaint pushes the back buffer to the screen.
	Repaint()

	// Events delivers input until the surface is closed. The channel is
	// closed when the underlying window dies.
	Events() <-chan Event

	// MoveCursor nudges the OS cursor by (dx, dy) pixels.
	MoveCursor(dx, dy int)

	// CursorPos reports the OS cursor in overlay-local coordinates.
	CursorPos() image.Point

	// Bounds is the virtual-desktop rectangle the surface covers.
	Bounds() image.Rectangle

	// Handle is the native window handle, used to exclude the surface
	// from window enumeration. Zero when the platform has none.
	Handle() winenum.Handle

	// Close destroys the window and releases its resources. The Events
	// channel closes shortly after.
	Close()
}

// NewSurface creates the platform overlay window covering bounds. The
// window is created hidden; call Show to bring it up.
func NewSurface(bounds image.Rectangle) (Surface, error) {
	return newPlatformSurface(bounds)
}
