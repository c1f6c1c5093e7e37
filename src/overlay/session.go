package overlay

import (
	"context"
	"fmt"
	"image"
	"log"
	"time"

	"github.com/SysAdminDoc/SwiftShot/src/snapindex"
	"github.com/SysAdminDoc/SwiftShot/src/snapshot"
	"github.com/SysAdminDoc/SwiftShot/src/winenum"
)

// session owns one selector run: one surface, one snapshot, at most one
// live controller. Controllers are built lazily and kept across mode
// switches, so the snap toggle, drill stack, and magnifier state survive
// a round trip through the other mode.
type session struct {
	snap    *snapshot.Snapshot
	opts    Options
	surface Surface
	rend    *renderer
	now     func() time.Time
	delay   time.Duration

	mode   Mode
	region *RegionSelector
	picker *WindowPicker
}

func newSession(snap *snapshot.Snapshot, opts Options) (*session, error) {
	s := &session{snap: snap, opts: opts, mode: opts.Mode}
	s.now = opts.Now
	if s.now == nil {
		s.now = time.Now
	}
	s.delay = opts.EmitDelay
	if s.delay == 0 {
		s.delay = DefaultEmitDelay
	}
	if s.opts.Source == nil {
		src, err := winenum.New()
		if err != nil {
			log.Printf("Overlay: window enumeration unavailable, degrading: %v", err)
		} else {
			s.opts.Source = src
		}
	}

	rend, err := newRenderer()
	if err != nil {
		return nil, err
	}
	s.rend = rend

	newSurface := opts.NewSurface
	if newSurface == nil {
		newSurface = NewSurface
	}
	surface, err := newSurface(snap.VirtualRect())
	if err != nil {
		return nil, fmt.Errorf("overlay surface: %w", err)
	}
	s.surface = surface
	return s, nil
}

func (s *session) close() {
	s.surface.Close()
}

// run pumps surface events into the active controller until a terminal
// verdict or ctx ends.
func (s *session) run(ctx context.Context) (Result, error) {
	s.install(s.mode)
	if err := s.surface.Show(); err != nil {
		return Result{}, fmt.Errorf("show overlay: %w", err)
	}
	s.syncCursor()
	s.render()

	events := s.surface.Events()
	for {
		select {
		case <-ctx.Done():
			s.surface.Hide()
			return Result{}, ctx.Err()
		case ev, ok := <-events:
			if !ok {
				// Surface died out from under us.
				return Result{Mode: s.mode}, nil
			}
			switch s.dispatch(ev) {
			case VerdictSwitch:
				s.install(s.mode.other())
				s.syncCursor()
				s.render()
			case VerdictConfirm:
				return s.finish(true)
			case VerdictCancel:
				return s.finish(false)
			}
		}
	}
}

// dispatch routes one event to the active controller and repaints when the
// session keeps running.
func (s *session) dispatch(ev Event) Verdict {
	switch e := ev.(type) {
	case PointerEvent:
		var v Verdict
		if s.mode == ModeRegion {
			v = s.region.HandlePointer(e)
		} else {
			v = s.picker.HandlePointer(e, s.now())
		}
		if v == VerdictNone {
			s.render()
		}
		return v
	case KeyEvent:
		var v Verdict
		if s.mode == ModeRegion {
			v = s.region.HandleKey(e)
		} else {
			v = s.picker.HandleKey(e, s.now())
		}
		if v == VerdictNone {
			s.render()
		}
		return v
	case TickEvent:
		if s.mode == ModeWindow && s.picker.Step(e.Now) {
			s.render()
		}
	case CloseEvent:
		return VerdictCancel
	}
	return VerdictNone
}

// install makes m the active mode, building its controller on first use.
// The snapshot is shared: switching modes never re-captures.
func (s *session) install(m Mode) {
	s.mode = m
	switch m {
	case ModeRegion:
		if s.region == nil {
			s.region = NewRegionSelector(s.snap, s.buildSnapIndex(), s.opts.Freehand, s.opts.CopyText)
		}
	case ModeWindow:
		if s.picker == nil {
			s.picker = NewWindowPicker(s.snap, s.opts.Source, s.surface.Handle())
			s.picker.moveCursor = func(dx, dy int) image.Point {
				s.surface.MoveCursor(dx, dy)
				return s.surface.CursorPos()
			}
		}
	}
}

// buildSnapIndex collects window edges for the region selector. Failures
// degrade to an empty index: no snapping, everything else works.
func (s *session) buildSnapIndex() *snapindex.Index {
	if s.opts.Source == nil {
		return snapindex.New(nil, nil)
	}
	exclude := s.surface.Handle()
	wins, err := s.opts.Source.TopLevel(exclude)
	if err != nil {
		log.Printf("Overlay: snap-edge enumeration failed: %v", err)
		return snapindex.New(nil, nil)
	}
	return snapindex.Build(winenum.FilterTopLevel(wins, exclude), s.snap.Origin())
}

// syncCursor seeds the active controller with the OS cursor so the first
// frame and the post-switch frame track it immediately.
func (s *session) syncCursor() {
	ev := PointerEvent{Pos: s.surface.CursorPos(), Kind: PointerMove}
	if s.mode == ModeRegion {
		s.region.HandlePointer(ev)
	} else {
		s.picker.HandlePointer(ev, s.now())
	}
}

func (s *session) render() {
	frame := s.surface.Frame()
	if frame == nil {
		return
	}
	if s.mode == ModeRegion {
		s.rend.drawRegion(frame, s.region)
	} else {
		s.rend.drawPicker(frame, s.picker)
	}
	s.surface.Repaint()
}

// finish hides the surface first and delivers the verdict after EmitDelay.
// The desktop must be unblocked before the caller re-enters the capture
// pipeline; a topmost surface still up at that point can wedge the screen.
func (s *session) finish(confirmed bool) (Result, error) {
	s.surface.Hide()
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	res := Result{Confirmed: confirmed, Mode: s.mode}
	if !confirmed {
		log.Printf("Overlay: selection cancelled in %s mode", s.mode)
		return res, nil
	}
	if s.mode == ModeRegion {
		res.Region = s.region.Result()
	} else {
		res.Region = s.picker.Result()
	}
	log.Printf("Overlay: confirmed %s selection %dx%d at (%d,%d)",
		s.mode, res.Region.Width, res.Region.Height, res.Region.X, res.Region.Y)
	return res, nil
}
