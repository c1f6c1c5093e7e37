package winenum

import (
	"image"
	"testing"
)

func TestFilterTopLevel(t *testing.T) {
	overlay := Handle(99)
	raw := []Window{
		{Handle: 1, Bounds: image.Rect(0, 0, 800, 600), Title: "Editor"},
		{Handle: overlay, Bounds: image.Rect(0, 0, 1920, 1080), Title: "Capture Overlay"},
		{Handle: 2, Bounds: image.Rect(100, 100, 500, 400), Title: ""},
		{Handle: 3, Bounds: image.Rect(10, 10, 13, 200), Title: "Sliver"},
		{Handle: 4, Bounds: image.Rect(10, 10, 200, 13), Title: "Flat"},
		{Handle: 5, Bounds: image.Rect(50, 50, 55, 55), Title: "Tiny but legal"},
		{Handle: 6, Bounds: image.Rect(200, 0, 1200, 700), Title: "Browser"},
	}

	got := FilterTopLevel(raw, overlay)

	want := []Handle{1, 5, 6}
	if len(got) != len(want) {
		t.Fatalf("expected %d windows, got %d: %+v", len(want), len(got), got)
	}
	for i, h := range want {
		if got[i].Handle != h {
			t.Errorf("window %d: expected handle %d, got %d", i, h, got[i].Handle)
		}
	}
}

func TestFilterTopLevelPreservesOrder(t *testing.T) {
	raw := []Window{
		{Handle: 7, Bounds: image.Rect(0, 0, 100, 100), Title: "front"},
		{Handle: 8, Bounds: image.Rect(0, 0, 100, 100), Title: "middle"},
		{Handle: 9, Bounds: image.Rect(0, 0, 100, 100), Title: "back"},
	}
	got := FilterTopLevel(raw, 0)
	for i, w := range raw {
		if got[i].Handle != w.Handle {
			t.Fatalf("z-order not preserved: %+v", got)
		}
	}
}

func TestFilterChildren(t *testing.T) {
	raw := []Window{
		{Handle: 1, Bounds: image.Rect(0, 0, 2, 50)},   // too narrow
		{Handle: 2, Bounds: image.Rect(0, 0, 50, 2)},   // too flat
		{Handle: 3, Bounds: image.Rect(0, 0, 3, 3)},    // just over the span
		{Handle: 4, Bounds: image.Rect(5, 5, 100, 80)}, // normal pane, untitled
	}

	got := FilterChildren(raw)
	if len(got) != 2 {
		t.Fatalf("expected 2 children, got %d: %+v", len(got), got)
	}
	if got[0].Handle != 3 || got[1].Handle != 4 {
		t.Errorf("unexpected children %+v", got)
	}
}

func TestNewSourceDoesNotPanic(t *testing.T) {
	src, err := New()
	if err != nil {
		t.Logf("no hierarchy source on this host (expected headless): %v", err)
		return
	}
	if _, err := src.TopLevel(0); err != nil {
		t.Logf("TopLevel failed (expected headless): %v", err)
	}
}
