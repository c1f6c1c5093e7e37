// Package gui owns the system tray: icon, menu and tooltip. Menu actions
// are forwarded to callbacks wired up in main; the tray never runs a
// capture itself.
package gui

import (
	"log"
	"os/exec"
	"runtime"
	"sync"
	"time"

	"github.com/getlantern/systray"

	"github.com/SysAdminDoc/SwiftShot/src/tray"
)

// flashRevertDelay is how long FlashTooltip text stays up before the
// persistent tooltip comes back.
const flashRevertDelay = 3 * time.Second

// Config wires the tray menu to the capture loop.
type Config struct {
	Tooltip         string
	SaveDir         string
	OnCaptureRegion func()
	OnCaptureWindow func()
	OnCaptureTimed  func()
	OnRepeatLast    func()
	OnQuit          func()
}

var (
	mu       sync.Mutex
	ready    bool
	baseText string
	flashGen int
)

// Run starts the system tray and blocks until Quit. Platforms that require
// UI on the main thread need this called from the main goroutine.
func Run(cfg Config) {
	systray.Run(func() { onReady(cfg) }, func() {
		if cfg.OnQuit != nil {
			cfg.OnQuit()
		}
	})
}

// Quit asks the tray loop to exit; Run returns after cleanup.
func Quit() { systray.Quit() }

func onReady(cfg Config) {
	systray.SetIcon(tray.Icon())
	systray.SetTitle("SwiftShot")
	tooltip := cfg.Tooltip
	if tooltip == "" {
		tooltip = "SwiftShot"
	}
	systray.SetTooltip(tooltip)

	mu.Lock()
	ready = true
	baseText = tooltip
	mu.Unlock()

	mRegion := systray.AddMenuItem("Capture region", "Select a region of the screen")
	mWindow := systray.AddMenuItem("Capture window", "Pick a window to capture")
	mTimed := systray.AddMenuItem("Timed capture", "Capture after a short delay")
	mRepeat := systray.AddMenuItem("Repeat last", "Capture the previous region again")
	systray.AddSeparator()
	mFolder := systray.AddMenuItem("Open save folder", "Show saved captures")
	systray.AddSeparator()
	mQuit := systray.AddMenuItem("Quit", "Exit SwiftShot")

	go func() {
		for {
			select {
			case <-mRegion.ClickedCh:
				fire(cfg.OnCaptureRegion)
			case <-mWindow.ClickedCh:
				fire(cfg.OnCaptureWindow)
			case <-mTimed.ClickedCh:
				fire(cfg.OnCaptureTimed)
			case <-mRepeat.ClickedCh:
				fire(cfg.OnRepeatLast)
			case <-mFolder.ClickedCh:
				openFolder(cfg.SaveDir)
			case <-mQuit.ClickedCh:
				systray.Quit()
				return
			}
		}
	}()
}

func fire(fn func()) {
	if fn != nil {
		fn()
	}
}

// SetTooltip replaces the persistent tooltip and cancels any pending flash
// revert. A no-op until the tray is up.
func SetTooltip(text string) {
	mu.Lock()
	defer mu.Unlock()
	baseText = text
	flashGen++
	if ready {
		systray.SetTooltip(text)
	}
}

// FlashTooltip shows text briefly, then restores the persistent tooltip.
func FlashTooltip(text string) {
	mu.Lock()
	defer mu.Unlock()
	if !ready {
		return
	}
	systray.SetTooltip(text)
	flashGen++
	gen := flashGen
	time.AfterFunc(flashRevertDelay, func() {
		mu.Lock()
		defer mu.Unlock()
		if flashGen != gen || !ready {
			return
		}
		systray.SetTooltip(baseText)
	})
}

// openFolder opens dir in the platform file manager.
func openFolder(dir string) {
	if dir == "" {
		return
	}
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "windows":
		// explorer exits nonzero even on success, so the error is not checked.
		cmd = exec.Command("explorer", dir)
	case "darwin":
		cmd = exec.Command("open", dir)
	default:
		cmd = exec.Command("xdg-open", dir)
	}
	if err := cmd.Start(); err != nil {
		log.Printf("Open save folder failed: %v", err)
		return
	}
	go func() { _ = cmd.Wait() }()
}
