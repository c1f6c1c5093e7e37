// Package output delivers confirmed captures: file naming, PNG saving and
// the after-capture fanout (save, clipboard, or both).
package output

import (
	"fmt"
	"image"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/SysAdminDoc/SwiftShot/src/clipboard"
	"github.com/SysAdminDoc/SwiftShot/src/config"
	"github.com/SysAdminDoc/SwiftShot/src/snapshot"
)

// Outcome describes what Deliver did with a capture.
type Outcome struct {
	Path      string      // absolute path of the saved file, "" when not saved
	Clipboard bool        // true when the PNG landed on the clipboard
	Size      image.Point // pixel dimensions of the delivered image
}

// Filename renders a Go time layout pattern into a concrete file name.
// The default pattern "swiftshot_20060102_150405.png" becomes e.g.
// "swiftshot_20250114_093042.png".
func Filename(pattern string, now time.Time) string {
	name := strings.TrimSpace(pattern)
	if name == "" {
		name = config.DefaultFilenamePattern
	}
	return now.Format(name)
}

// SavePNG writes data into dir under name with 0644 permissions, creating the
// directory when missing. When name is already taken it probes "_2", "_3", …
// suffixes before the extension. Returns the absolute path written.
func SavePNG(dir, name string, data []byte) (string, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create save dir %s: %w", dir, err)
	}

	path := filepath.Join(dir, uniqueName(dir, name))
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	return abs, nil
}

// uniqueName returns name, or name with a "_2"/"_3"/… suffix when the plain
// name already exists in dir.
func uniqueName(dir, name string) string {
	if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
		return name
	}
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	for i := 2; ; i++ {
		candidate := fmt.Sprintf("%s_%d%s", stem, i, ext)
		if _, err := os.Stat(filepath.Join(dir, candidate)); err != nil {
			return candidate
		}
	}
}

// Deliver crops and encodes the region once, then fans the PNG out according
// to cfg.AfterCapture. A partial failure (e.g. file saved, clipboard down)
// returns the error alongside whatever succeeded in the Outcome.
func Deliver(snap *snapshot.Snapshot, region snapshot.Region, cfg *config.Config) (Outcome, error) {
	var out Outcome

	data, err := snap.EncodePNG(region)
	if err != nil {
		return out, fmt.Errorf("encode capture: %w", err)
	}
	out.Size = image.Pt(region.Width, region.Height)

	wantSave := cfg.AfterCapture == config.AfterCaptureSave || cfg.AfterCapture == config.AfterCaptureBoth
	wantClip := cfg.AfterCapture == config.AfterCaptureClipboard || cfg.AfterCapture == config.AfterCaptureBoth

	var firstErr error
	if wantSave {
		name := Filename(cfg.FilenamePattern, time.Now())
		path, err := SavePNG(cfg.SaveDir, name, data)
		if err != nil {
			log.Printf("Output: save failed: %v", err)
			firstErr = err
		} else {
			out.Path = path
			log.Printf("Output: saved %dx%d capture to %s", region.Width, region.Height, path)
		}
	}
	if wantClip {
		if err := clipboard.WriteImage(data); err != nil {
			log.Printf("Output: clipboard write failed: %v", err)
			if firstErr == nil {
				firstErr = err
			}
		} else {
			out.Clipboard = true
			log.Printf("Output: copied %dx%d capture to clipboard", region.Width, region.Height)
		}
	}

	return out, firstErr
}
