package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/SysAdminDoc/SwiftShot/src/clipboard"
	"github.com/SysAdminDoc/SwiftShot/src/config"
	"github.com/SysAdminDoc/SwiftShot/src/eventloop"
	"github.com/SysAdminDoc/SwiftShot/src/gui"
	"github.com/SysAdminDoc/SwiftShot/src/logutil"
	"github.com/SysAdminDoc/SwiftShot/src/output"
	"github.com/SysAdminDoc/SwiftShot/src/overlay"
	"github.com/SysAdminDoc/SwiftShot/src/runtimeinit"
	"github.com/SysAdminDoc/SwiftShot/src/singleinstance"
	"github.com/SysAdminDoc/SwiftShot/src/snapshot"
)

// version is stamped by the build; "dev" for local builds.
var version = "dev"

// gnuFlags lists the long flags accepted in GNU --flag form. Go's flag
// package handles --x natively, but shells and shortcuts built against
// older releases pass these with values glued on, so they get normalized.
var gnuFlags = []string{
	"run-once-std", "run-once", "capture-window", "repeat-last",
	"save-dir", "version",
}

// normalizeFlagDashes maps GNU-style --flag[=v] to Go's -flag[=v] for the
// known long flags, leaving everything else untouched.
func normalizeFlagDashes(args []string) []string {
	out := make([]string, len(args))
	copy(out, args)
	for i := 1; i < len(out); i++ {
		arg := out[i]
		if !strings.HasPrefix(arg, "--") {
			continue
		}
		for _, name := range gnuFlags {
			if arg == "--"+name || strings.HasPrefix(arg, "--"+name+"=") {
				out[i] = arg[1:]
				break
			}
		}
	}
	return out
}

// delegationClient is the slice of singleinstance.Client that main needs.
type delegationClient interface {
	TryRunOnce(ctx context.Context, mode string, outputToStdout bool) (delegated bool, path string, err error)
}

// runOnceWithDelegation prefers a resident instance for a one-shot capture
// and falls back to standalone when none answers. Returns the exit code.
func runOnceWithDelegation(ctx context.Context, client delegationClient, mode string, stdout bool, fallback func() int) int {
	delegated, path, err := client.TryRunOnce(ctx, mode, stdout)
	switch {
	case errors.Is(err, singleinstance.ErrCancelled):
		log.Printf("Capture cancelled by user")
		return 1
	case err != nil:
		log.Printf("Delegation error: %v; falling back to standalone", err)
		return fallback()
	case delegated:
		log.Printf("Delegated to resident")
		if stdout {
			fmt.Println(pathOrDash(path))
		}
		return 0
	default:
		log.Printf("No resident detected, running standalone")
		return fallback()
	}
}

func pathOrDash(path string) string {
	if path == "" {
		return "-"
	}
	return path
}

func setupLogging(enableFileLogging bool) {
	logutil.Setup(enableFileLogging)
}

// runCaptureOnce performs one standalone interactive capture and exits.
// Used when -run-once finds no resident instance to delegate to.
func runCaptureOnce(mode string, stdout bool, saveDir string) int {
	cfg, err := runtimeinit.Bootstrap(runtimeinit.Options{
		LoadOptions:  config.LoadOptions{SaveDirOverride: saveDir},
		SetupLogging: setupLogging,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
		return 1
	}

	snap, err := snapshot.Capture()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to capture screen: %v\n", err)
		return 1
	}

	opts := overlay.Options{
		Mode:     overlay.ModeRegion,
		Freehand: cfg.DefaultMode == config.DefaultModeLasso,
		CopyText: clipboard.Write,
	}
	if mode == singleinstance.RequestWindow {
		opts.Mode = overlay.ModeWindow
	}
	res, err := overlay.Select(context.Background(), snap, opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Selection failed: %v\n", err)
		return 1
	}
	if !res.Confirmed {
		log.Printf("Selection cancelled")
		return 1
	}

	out, err := output.Deliver(snap, res.Region, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Capture failed: %v\n", err)
		return 1
	}
	log.Printf("Captured %dx%d: path=%q clipboard=%v", out.Size.X, out.Size.Y, out.Path, out.Clipboard)
	if stdout {
		fmt.Println(pathOrDash(out.Path))
	}
	return 0
}

func main() {
	// DPI awareness must be set before any window or metrics query.
	enableDPIAwareness()

	// The tray and the overlay surface both want the main OS thread.
	runtime.LockOSThread()

	os.Args = normalizeFlagDashes(os.Args)
	runOnce := flag.Bool("run-once", false, "Capture once and exit (delegates to a running instance when present)")
	runOnceStd := flag.Bool("run-once-std", false, "Like -run-once, and print the saved path to stdout")
	captureWindow := flag.Bool("capture-window", false, "One-shot capture picks a window instead of a region")
	repeatLast := flag.Bool("repeat-last", false, "Re-capture the previous region (requires a running instance)")
	saveDir := flag.String("save-dir", "", "Override the capture save directory")
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("SwiftShot %s\n", version)
		return
	}

	// Load .env early so SINGLEINSTANCE_PORT_* overrides apply before any
	// port scan.
	_, _ = config.Load()

	if *runOnce || *runOnceStd || *captureWindow || *repeatLast {
		mode := singleinstance.RequestRegion
		if *captureWindow {
			mode = singleinstance.RequestWindow
		}
		if *repeatLast {
			mode = singleinstance.RequestRepeat
		}
		stdout := *runOnceStd
		code := runOnceWithDelegation(context.Background(), singleinstance.NewClient(), mode, stdout, func() int {
			if mode == singleinstance.RequestRepeat {
				fmt.Fprintln(os.Stderr, "repeat-last requires a running SwiftShot instance")
				return 1
			}
			return runCaptureOnce(mode, stdout, *saveDir)
		})
		os.Exit(code)
	}

	// Pre-flight: refuse to start a second resident.
	preflightCtx, preflightDone := context.WithTimeout(context.Background(), 3*time.Second)
	port, found := singleinstance.DetectResidentPort(preflightCtx)
	preflightDone()
	if found {
		log.Printf("Pre-flight: resident already answering on port %d", port)
		fmt.Printf("SwiftShot is already running (port %d)\n", port)
		os.Exit(1)
	}

	cfg, err := runtimeinit.Bootstrap(runtimeinit.Options{
		LoadOptions:  config.LoadOptions{SaveDirOverride: *saveDir},
		SetupLogging: setupLogging,
	})
	if err != nil {
		log.Fatalf("Failed to initialize: %v", err)
	}

	logEnvironment()
	log.Printf("SwiftShot %s initialized", version)
	log.Printf("Save directory: %s", cfg.SaveDir)
	log.Printf("Hotkeys: region=%s window=%s repeat=%s", cfg.Hotkey, cfg.WindowHotkey, cfg.RepeatHotkey)

	tooltip := fmt.Sprintf("SwiftShot - %s to capture", cfg.Hotkey)
	loop := eventloop.New(cfg)
	loop.SetDefaultTooltip(tooltip)
	loop.SetStatus(gui.SetTooltip, gui.FlashTooltip)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := loop.StartHotkeys(ctx); err != nil {
		log.Printf("Hotkeys unavailable: %v", err)
	}

	// SIGINT/SIGTERM unwind through the tray so both loops stop.
	go func() {
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
		<-ch
		gui.Quit()
	}()

	loopDone := make(chan error, 1)
	go func() { loopDone <- loop.Run(ctx) }()

	// Blocks on the main goroutine until Quit.
	gui.Run(gui.Config{
		Tooltip:         tooltip,
		SaveDir:         cfg.SaveDir,
		OnCaptureRegion: func() { loop.Trigger(eventloop.TriggerRegion) },
		OnCaptureWindow: func() { loop.Trigger(eventloop.TriggerWindow) },
		OnCaptureTimed:  func() { loop.Trigger(eventloop.TriggerTimed) },
		OnRepeatLast:    func() { loop.Trigger(eventloop.TriggerRepeat) },
		OnQuit:          cancel,
	})

	cancel()
	if err := <-loopDone; err != nil && !errors.Is(err, context.Canceled) {
		log.Printf("Event loop stopped: %v", err)
	}
}
