package tray

import (
	_ "embed"
	"runtime"
)

// Embedded tray icon data. Windows wants an ICO resource, everything
// else renders the PNG.
//
//go:embed icon.ico
var iconICO []byte

//go:embed icon.png
var iconPNG []byte

// Icon returns the tray icon bytes appropriate for the current platform.
func Icon() []byte {
	if runtime.GOOS == "windows" {
		return iconICO
	}
	return iconPNG
}
