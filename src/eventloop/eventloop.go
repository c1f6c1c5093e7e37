package eventloop

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/SysAdminDoc/SwiftShot/src/clipboard"
	"github.com/SysAdminDoc/SwiftShot/src/config"
	"github.com/SysAdminDoc/SwiftShot/src/hotkey"
	"github.com/SysAdminDoc/SwiftShot/src/output"
	"github.com/SysAdminDoc/SwiftShot/src/overlay"
	"github.com/SysAdminDoc/SwiftShot/src/session"
	"github.com/SysAdminDoc/SwiftShot/src/singleinstance"
	"github.com/SysAdminDoc/SwiftShot/src/snapshot"
	"github.com/SysAdminDoc/SwiftShot/src/worker"
)

// Trigger kinds accepted by the loop. The first three double as the wire
// modes of delegated requests; timed exists only for the local tray menu.
const (
	TriggerRegion = singleinstance.RequestRegion
	TriggerWindow = singleinstance.RequestWindow
	TriggerRepeat = singleinstance.RequestRepeat
	TriggerTimed  = "timed"
)

// Loop is the single-threaded coordinator for hotkey, tray-menu and
// IPC-delegated captures. Exactly one capture session runs at a time;
// anything that arrives while busy is rejected immediately.
type Loop struct {
	cfg      *config.Config
	pool     *worker.Pool
	srv      singleinstance.Server
	listener *hotkey.Listener
	busy     bool
	results  chan result
	triggers chan string

	// Repeat-last state, owned by the loop goroutine.
	lastRegion snapshot.Region
	lastMode   overlay.Mode
	hasLast    bool

	defaultTooltip string
	status         func(string) // persistent tooltip (busy / idle)
	flash          func(string) // transient tooltip (result messages)

	// Session plumbing, swappable in tests.
	captureFn func() (*snapshot.Snapshot, error)
	selectFn  func(ctx context.Context, snap *snapshot.Snapshot, opts overlay.Options) (overlay.Result, error)
	deliverFn func(snap *snapshot.Snapshot, region snapshot.Region) (output.Outcome, error)
}

type request struct {
	kind   string
	delay  time.Duration
	conn   singleinstance.Conn // nil for local triggers
	target session.ResultTarget

	// Repeat payload, resolved on the loop goroutine before submit.
	last     snapshot.Region
	lastMode overlay.Mode
}

type result struct {
	res    session.Result
	err    error
	req    request
	cancel context.CancelFunc
}

// New creates an event loop bound to cfg. The pool is sized one: capture
// sessions are interactive and never overlap.
func New(cfg *config.Config) *Loop {
	l := &Loop{
		cfg:            cfg,
		pool:           worker.New(1),
		results:        make(chan result, 1),
		triggers:       make(chan string, 4),
		defaultTooltip: "SwiftShot",
	}
	l.captureFn = snapshot.Capture
	l.selectFn = overlay.Select
	l.deliverFn = func(snap *snapshot.Snapshot, region snapshot.Region) (output.Outcome, error) {
		return output.Deliver(snap, region, cfg)
	}
	return l
}

// SetDefaultTooltip sets the idle tray tooltip text.
func (l *Loop) SetDefaultTooltip(tt string) { l.defaultTooltip = tt }

// SetStatus wires tray tooltip updates. set replaces the tooltip (busy or
// idle state), flash shows a transient message. Either may be nil.
func (l *Loop) SetStatus(set, flash func(string)) {
	l.status = set
	l.flash = flash
}

// Trigger queues a local capture request. kind is one of the Trigger*
// constants. It never blocks; a full queue drops the request.
func (l *Loop) Trigger(kind string) {
	select {
	case l.triggers <- kind:
	default:
		log.Printf("Trigger %s dropped: queue full", kind)
	}
}

// StartHotkeys registers the configured global hotkeys and forwards their
// events into the loop. Combos that fail to parse are logged and skipped.
func (l *Loop) StartHotkeys(ctx context.Context) error {
	bindings := []struct{ combo, kind string }{
		{l.cfg.Hotkey, TriggerRegion},
		{l.cfg.WindowHotkey, TriggerWindow},
		{l.cfg.RepeatHotkey, TriggerRepeat},
	}
	lst := hotkey.NewListener()
	registered := 0
	for _, b := range bindings {
		if b.combo == "" {
			continue
		}
		if err := lst.Register(b.combo, b.kind); err != nil {
			log.Printf("Hotkey %q not registered: %v", b.combo, err)
			continue
		}
		log.Printf("Hotkey %q -> %s capture", b.combo, b.kind)
		registered++
	}
	if registered == 0 {
		return nil
	}
	if err := lst.Start(ctx); err != nil {
		return err
	}
	l.listener = lst
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-lst.Events():
				if !ok {
					return
				}
				l.Trigger(ev.ID)
			}
		}
	}()
	return nil
}

// Run starts the singleinstance server and processes triggers, delegated
// requests and capture results until ctx is cancelled.
func (l *Loop) Run(ctx context.Context) error {
	l.srv = singleinstance.NewServer()
	if err := l.srv.Start(ctx); err != nil {
		return err
	}
	if p := l.srv.Port(); p > 0 {
		log.Printf("Resident listening on 127.0.0.1:%d", p)
	}
	defer func() {
		_ = l.srv.Close()
		l.pool.Close()
		if l.listener != nil {
			l.listener.Stop()
		}
	}()

	// Accept loop in background so results keep flowing while a client
	// connection waits its turn.
	reqCh := make(chan singleinstance.Conn, 4)
	go func() {
		for {
			conn, err := l.srv.Next(ctx)
			if err != nil {
				close(reqCh)
				return
			}
			reqCh <- conn
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case kind := <-l.triggers:
			l.handleTrigger(ctx, kind)
		case conn, ok := <-reqCh:
			if !ok {
				return nil
			}
			l.handleConn(ctx, conn)
		case r := <-l.results:
			l.handleResult(r)
		}
	}
}

// Port returns the bound resident port, or 0 before Run.
func (l *Loop) Port() int {
	if l.srv == nil {
		return 0
	}
	return l.srv.Port()
}

func (l *Loop) handleTrigger(ctx context.Context, kind string) {
	req := request{kind: kind, target: session.TrayTarget{SetTooltip: l.flash}}
	if kind == TriggerTimed {
		req.delay = time.Duration(l.cfg.TimedDelaySec) * time.Second
	}
	l.startCapture(ctx, req)
}

func (l *Loop) handleConn(ctx context.Context, conn singleinstance.Conn) {
	l.startCapture(ctx, request{
		kind:   conn.Request().Mode,
		conn:   conn,
		target: session.DelegatedTarget{Conn: conn},
	})
}

func (l *Loop) startCapture(ctx context.Context, req request) {
	if l.busy {
		l.reject(req, "busy, please retry")
		return
	}
	if req.kind == TriggerRepeat {
		if !l.hasLast {
			l.reject(req, "no previous capture to repeat")
			return
		}
		req.last, req.lastMode = l.lastRegion, l.lastMode
	}

	jobCtx, cancel := context.WithCancel(ctx)
	l.setBusy(true)

	// res is written by the task and read by the done callback; the pool
	// runs them in sequence on the same worker.
	var res session.Result
	submitted := l.pool.Submit(jobCtx, "capture "+req.kind, func(tctx context.Context) error {
		var err error
		res, err = l.runCapture(tctx, req)
		return err
	}, func(err error) {
		l.results <- result{res: res, err: err, req: req, cancel: cancel}
	})
	if !submitted {
		cancel()
		l.setBusy(false)
		l.reject(req, "busy, please retry")
	}
}

func (l *Loop) reject(req request, msg string) {
	log.Printf("Capture %s rejected: %s", req.kind, msg)
	if req.conn != nil {
		_ = req.conn.RespondError(msg)
		_ = req.conn.Close()
		return
	}
	if l.flash != nil {
		l.flash("SwiftShot: " + msg)
	}
}

func (l *Loop) handleResult(r result) {
	l.setBusy(false)
	if r.cancel != nil {
		r.cancel()
	}
	if r.req.conn != nil {
		_ = r.req.conn.Close()
	}
	if r.err != nil {
		if errors.Is(r.err, session.ErrSelectionCancelled) {
			log.Printf("Capture %s cancelled", r.req.kind)
		} else {
			log.Printf("Capture %s failed: %v", r.req.kind, r.err)
		}
		return
	}
	l.lastRegion, l.lastMode, l.hasLast = r.res.Region, r.res.Mode, true
	log.Printf("Capture %s done: path=%q clipboard=%v", r.req.kind, r.res.Outcome.Path, r.res.Outcome.Clipboard)
}

func (l *Loop) setBusy(b bool) {
	l.busy = b
	if l.status == nil {
		return
	}
	if b {
		l.status(l.defaultTooltip + ": capturing...")
	} else {
		l.status(l.defaultTooltip)
	}
}

// runCapture executes one full capture session on a worker goroutine:
// optional delay, fresh snapshot, selection, delivery, notification.
func (l *Loop) runCapture(ctx context.Context, req request) (session.Result, error) {
	if req.delay > 0 {
		if err := wait(ctx, req.delay); err != nil {
			return session.Result{}, err
		}
	}
	snap, err := l.captureFn()
	if err != nil {
		return session.Result{}, fmt.Errorf("failed to capture screen: %w", err)
	}
	return session.Execute(ctx, session.Options{
		Select: l.selectFuncFor(snap, req),
		Deliver: func(_ context.Context, region snapshot.Region) (output.Outcome, error) {
			return l.deliverFn(snap, region)
		},
		Target: req.target,
	})
}

// selectFuncFor builds the selection step. Repeat requests skip the overlay
// and replay the recorded region over the fresh snapshot.
func (l *Loop) selectFuncFor(snap *snapshot.Snapshot, req request) session.SelectFunc {
	if req.kind == TriggerRepeat {
		return func(context.Context) (overlay.Result, bool, error) {
			return overlay.Result{Region: req.last, Confirmed: true, Mode: req.lastMode}, false, nil
		}
	}
	opts := overlay.Options{
		Mode:     overlay.ModeRegion,
		Freehand: l.cfg.DefaultMode == config.DefaultModeLasso,
		CopyText: clipboard.Write,
	}
	if req.kind == TriggerWindow {
		opts.Mode = overlay.ModeWindow
	}
	return func(sctx context.Context) (overlay.Result, bool, error) {
		res, err := l.selectFn(sctx, snap, opts)
		if err != nil {
			return overlay.Result{}, false, err
		}
		return res, !res.Confirmed, nil
	}
}

func wait(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
