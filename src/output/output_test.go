package output

import (
	"bytes"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/SysAdminDoc/SwiftShot/src/config"
	"github.com/SysAdminDoc/SwiftShot/src/snapshot"
)

func TestFilenameRendersPattern(t *testing.T) {
	now := time.Date(2025, 1, 14, 9, 30, 42, 0, time.UTC)
	got := Filename("swiftshot_20060102_150405.png", now)
	want := "swiftshot_20250114_093042.png"
	if got != want {
		t.Fatalf("Filename = %q, want %q", got, want)
	}
}

func TestFilenameEmptyPatternUsesDefault(t *testing.T) {
	now := time.Date(2025, 1, 14, 9, 30, 42, 0, time.UTC)
	if got, want := Filename("", now), "swiftshot_20250114_093042.png"; got != want {
		t.Fatalf("Filename = %q, want %q", got, want)
	}
}

func TestFilenameLiteralPattern(t *testing.T) {
	now := time.Date(2025, 1, 14, 9, 30, 42, 0, time.UTC)
	if got := Filename("shot.png", now); got != "shot.png" {
		t.Fatalf("Filename = %q, want shot.png", got)
	}
}

func TestSavePNGCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "captures")
	path, err := SavePNG(dir, "shot.png", []byte("data"))
	if err != nil {
		t.Fatalf("SavePNG: %v", err)
	}
	if !filepath.IsAbs(path) {
		t.Fatalf("SavePNG returned non-absolute path %q", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if string(data) != "data" {
		t.Fatalf("read back %q, want %q", data, "data")
	}
}

func TestSavePNGCollisionSuffix(t *testing.T) {
	dir := t.TempDir()

	first, err := SavePNG(dir, "shot.png", []byte("a"))
	if err != nil {
		t.Fatalf("first save: %v", err)
	}
	second, err := SavePNG(dir, "shot.png", []byte("b"))
	if err != nil {
		t.Fatalf("second save: %v", err)
	}
	third, err := SavePNG(dir, "shot.png", []byte("c"))
	if err != nil {
		t.Fatalf("third save: %v", err)
	}

	if got := filepath.Base(first); got != "shot.png" {
		t.Errorf("first name = %q, want shot.png", got)
	}
	if got := filepath.Base(second); got != "shot_2.png" {
		t.Errorf("second name = %q, want shot_2.png", got)
	}
	if got := filepath.Base(third); got != "shot_3.png" {
		t.Errorf("third name = %q, want shot_3.png", got)
	}
}

func TestDeliverSavesFile(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 100, 80))
	snap := snapshot.FromImage(img, image.Point{})

	dir := t.TempDir()
	cfg := &config.Config{
		SaveDir:         dir,
		FilenamePattern: "capture.png",
		AfterCapture:    config.AfterCaptureSave,
	}

	out, err := Deliver(snap, snapshot.Region{X: 10, Y: 10, Width: 40, Height: 30}, cfg)
	if err != nil {
		t.Fatalf("Deliver: %v", err)
	}
	if out.Path == "" {
		t.Fatal("Deliver did not record a saved path")
	}
	if out.Clipboard {
		t.Error("Deliver set Clipboard for a save-only config")
	}
	if out.Size != image.Pt(40, 30) {
		t.Errorf("Outcome.Size = %v, want (40,30)", out.Size)
	}

	data, err := os.ReadFile(out.Path)
	if err != nil {
		t.Fatalf("read saved file: %v", err)
	}
	cfgImg, err := png.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode saved PNG: %v", err)
	}
	if cfgImg.Width != 40 || cfgImg.Height != 30 {
		t.Errorf("saved PNG is %dx%d, want 40x30", cfgImg.Width, cfgImg.Height)
	}
}

func TestDeliverRejectsDegenerateRegion(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 100, 80))
	snap := snapshot.FromImage(img, image.Point{})
	cfg := &config.Config{AfterCapture: config.AfterCaptureSave, SaveDir: t.TempDir()}

	if _, err := Deliver(snap, snapshot.Region{X: 10, Y: 10}, cfg); err == nil {
		t.Fatal("Deliver accepted a zero-size region")
	}
}
