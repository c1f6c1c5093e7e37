// Package session runs one capture from selection through delivery and
// fans the result out to whoever triggered it (tray, delegated client,
// stdout).
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/SysAdminDoc/SwiftShot/src/notification"
	"github.com/SysAdminDoc/SwiftShot/src/output"
	"github.com/SysAdminDoc/SwiftShot/src/overlay"
	"github.com/SysAdminDoc/SwiftShot/src/singleinstance"
	"github.com/SysAdminDoc/SwiftShot/src/snapshot"
)

var ErrSelectionCancelled = errors.New("selection cancelled")

// defaultDeliveryDeadline bounds the crop/encode/save/clipboard phase.
const defaultDeliveryDeadline = 10 * time.Second

// SelectFunc runs the interactive selector (or a repeat-last shortcut) and
// yields the confirmed selection. cancelled=true means the user dismissed it.
type SelectFunc func(ctx context.Context) (overlay.Result, bool, error)

// DeliverFunc crops, encodes and fans the capture out (file, clipboard).
type DeliverFunc func(ctx context.Context, region snapshot.Region) (output.Outcome, error)

// ResultTarget receives the terminal state of a capture session.
type ResultTarget interface {
	OnSuccess(out output.Outcome) error
	OnFailure(err error) error
}

type Options struct {
	// Deadline bounds delivery, not selection. Zero means the default.
	Deadline time.Duration
	Select   SelectFunc
	Deliver  DeliverFunc
	Target   ResultTarget
}

type Result struct {
	Outcome output.Outcome
	Region  snapshot.Region
	Mode    overlay.Mode
}

// Execute is the select -> deliver -> notify spine shared by every trigger
// path (hotkey, tray menu, delegated request, repeat-last).
func Execute(ctx context.Context, opts Options) (Result, error) {
	if opts.Select == nil {
		return Result{}, errors.New("Select is required")
	}
	if opts.Deliver == nil {
		return Result{}, errors.New("Deliver is required")
	}
	if opts.Target == nil {
		return Result{}, errors.New("Target is required")
	}

	sel, cancelled, err := opts.Select(ctx)
	if err != nil {
		_ = opts.Target.OnFailure(err)
		return Result{}, err
	}
	if cancelled {
		_ = opts.Target.OnFailure(ErrSelectionCancelled)
		return Result{}, ErrSelectionCancelled
	}

	deadline := opts.Deadline
	if deadline <= 0 {
		deadline = defaultDeliveryDeadline
	}
	jobCtx, cancel := context.WithTimeout(ctx, deadline)
	defer cancel()

	out, err := opts.Deliver(jobCtx, sel.Region)
	if err != nil {
		// Partial delivery (e.g. saved but clipboard down) still reports
		// the failure; the outcome carries whatever succeeded.
		_ = opts.Target.OnFailure(err)
		return Result{Outcome: out, Region: sel.Region, Mode: sel.Mode}, err
	}

	if err := opts.Target.OnSuccess(out); err != nil {
		_ = opts.Target.OnFailure(err)
		return Result{Outcome: out, Region: sel.Region, Mode: sel.Mode}, err
	}

	return Result{Outcome: out, Region: sel.Region, Mode: sel.Mode}, nil
}

// TrayTarget flashes the capture result on the tray tooltip.
type TrayTarget struct {
	// SetTooltip updates the tray tooltip; nil-safe for headless tests.
	SetTooltip func(text string)
}

func (t TrayTarget) OnSuccess(out output.Outcome) error {
	text := notification.CaptureCopied()
	if out.Path != "" {
		text = notification.CaptureSaved(out.Path)
	}
	if t.SetTooltip != nil {
		t.SetTooltip(text)
	}
	return nil
}

func (t TrayTarget) OnFailure(err error) error {
	if errors.Is(err, ErrSelectionCancelled) {
		return nil
	}
	log.Printf("Session: capture failed: %v", err)
	if t.SetTooltip != nil {
		t.SetTooltip("Capture failed")
	}
	return nil
}

// StdoutTarget prints the saved path, for run-once flows.
type StdoutTarget struct {
	Writer io.Writer
}

func (t StdoutTarget) OnSuccess(out output.Outcome) error {
	w := t.Writer
	if w == nil {
		w = os.Stdout
	}
	path := out.Path
	if path == "" {
		path = "-"
	}
	_, err := fmt.Fprintln(w, path)
	return err
}

func (t StdoutTarget) OnFailure(err error) error {
	return nil
}

// DelegatedTarget answers a singleinstance connection with the capture
// protocol responses (OK <path> / OK - / CANCELLED / ERR <msg>).
type DelegatedTarget struct {
	Conn singleinstance.Conn
}

func (t DelegatedTarget) OnSuccess(out output.Outcome) error {
	if t.Conn == nil {
		return errors.New("delegated target missing connection")
	}
	return t.Conn.RespondSuccess(out.Path)
}

func (t DelegatedTarget) OnFailure(err error) error {
	if t.Conn == nil {
		return nil
	}
	if errors.Is(err, ErrSelectionCancelled) {
		return t.Conn.RespondCancelled()
	}
	if err == nil {
		return t.Conn.RespondError("unknown session error")
	}
	return t.Conn.RespondError(err.Error())
}

// Multi fans results out to several targets, e.g. a delegated connection
// plus the tray tooltip. The first error wins; every target still runs.
func Multi(targets ...ResultTarget) ResultTarget { return multiTarget(targets) }

type multiTarget []ResultTarget

func (m multiTarget) OnSuccess(out output.Outcome) error {
	var first error
	for _, t := range m {
		if err := t.OnSuccess(out); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (m multiTarget) OnFailure(err error) error {
	var first error
	for _, t := range m {
		if e := t.OnFailure(err); e != nil && first == nil {
			first = e
		}
	}
	return first
}
