//go:build !windows

package overlay

import (
	"errors"
	"image"
)

// The overlay window is Windows-only. Window enumeration and snapshot
// cropping still work elsewhere; interactive selection does not.
var errSurfaceUnsupported = errors.New("overlay: interactive selection is not supported on this platform")

func newPlatformSurface(bounds image.Rectangle) (Surface, error) {
	return nil, errSurfaceUnsupported
}
