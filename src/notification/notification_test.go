package notification

import "testing"

func TestCaptureSaved(t *testing.T) {
	if got := CaptureSaved("/home/me/Pictures/swiftshot_20250114_093042.png"); got != "Saved swiftshot_20250114_093042.png" {
		t.Fatalf("CaptureSaved = %q", got)
	}
}

func TestCaptureCopied(t *testing.T) {
	if got := CaptureCopied(); got != "Capture copied to clipboard" {
		t.Fatalf("CaptureCopied = %q", got)
	}
}
