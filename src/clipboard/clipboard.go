package clipboard

import (
	"errors"
	"sync"

	"golang.design/x/clipboard"
)

var (
	writeMu sync.Mutex
	ready   bool
)

var errNotReady = errors.New("clipboard not initialized")

// Init probes clipboard access. On headless systems it fails and every
// later write returns an error instead of panicking inside the backend.
func Init() error {
	writeMu.Lock()
	defer writeMu.Unlock()
	if ready {
		return nil
	}
	if err := clipboard.Init(); err != nil {
		return err
	}
	ready = true
	return nil
}

// Write performs a mutex-guarded clipboard write to prevent corruption under parallel writes.
func Write(text string) error {
	writeMu.Lock()
	defer writeMu.Unlock()
	if !ready {
		return errNotReady
	}
	clipboard.Write(clipboard.FmtText, []byte(text))
	return nil
}

// WriteImage places PNG-encoded image data on the clipboard, guarded by the
// same mutex as text writes.
func WriteImage(png []byte) error {
	writeMu.Lock()
	defer writeMu.Unlock()
	if !ready {
		return errNotReady
	}
	clipboard.Write(clipboard.FmtImage, png)
	return nil
}
