// Package notification provides user-facing notices: fatal startup dialogs
// and the short status strings shown on the tray tooltip.
package notification

import "path/filepath"

// CaptureSaved returns the notice text for a capture saved to disk.
func CaptureSaved(path string) string {
	return "Saved " + filepath.Base(path)
}

// CaptureCopied returns the notice text for a clipboard-only capture.
func CaptureCopied() string {
	return "Capture copied to clipboard"
}
