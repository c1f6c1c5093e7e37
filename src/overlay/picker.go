package overlay

import (
	"image"
	"log"
	"time"

	"github.com/SysAdminDoc/SwiftShot/src/animator"
	"github.com/SysAdminDoc/SwiftShot/src/snapshot"
	"github.com/SysAdminDoc/SwiftShot/src/winenum"
)

// WindowPicker is the whole-window controller. It is always tracking: every
// cursor move re-hit-tests the current drill level and the highlight glides
// to the window under the cursor. PageDown descends into the highlighted
// window's children, PageUp climbs back out, arrows nudge the OS cursor for
// pixel-exact picking, and left click or Enter confirms the highlight.
type WindowPicker struct {
	snap *snapshot.Snapshot
	src  winenum.Source
	anim *animator.Animator

	// moveCursor nudges the OS cursor and reports the new overlay-local
	// position. Wired to the surface by the session.
	moveCursor func(dx, dy int) image.Point

	top      []winenum.Window                   // filtered top-level list, front-to-back
	stack    []winenum.Window                   // drill ancestry, innermost last
	children map[winenum.Handle][]winenum.Window // per-parent enumeration cache

	highlight  winenum.Handle  // 0 = nothing under the cursor
	bounds     image.Rectangle // highlight bounds, virtual-desktop coords
	fromCursor bool            // next highlight grows out of the cursor
	cursor     image.Point     // overlay-local
	magnifier  bool
}

// NewWindowPicker enumerates the top-level windows once and builds the
// controller. exclude drops the overlay's own window from the list. A nil
// source or failed enumeration leaves an empty picker: nothing highlights,
// confirm is inert, Escape still works.
func NewWindowPicker(snap *snapshot.Snapshot, src winenum.Source, exclude winenum.Handle) *WindowPicker {
	p := &WindowPicker{
		snap:       snap,
		src:        src,
		anim:       animator.New(animator.DefaultDuration),
		children:   make(map[winenum.Handle][]winenum.Window),
		fromCursor: true,
	}
	if src == nil {
		return p
	}
	wins, err := src.TopLevel(exclude)
	if err != nil {
		log.Printf("Window picker: top-level enumeration failed: %v", err)
		return p
	}
	p.top = winenum.FilterTopLevel(wins, exclude)
	if len(p.top) == 0 {
		log.Printf("Window picker: no eligible top-level windows")
	}
	return p
}

// HandlePointer feeds one pointer event; now drives the highlight animation.
func (p *WindowPicker) HandlePointer(ev PointerEvent, now time.Time) Verdict {
	switch ev.Kind {
	case PointerMove:
		p.cursor = ev.Pos
		p.updateHighlight(now)
	case PointerDown:
		switch ev.Button {
		case ButtonLeft:
			if !p.bounds.Empty() {
				return VerdictConfirm
			}
			// Click on nothing is a no-op, not a cancel.
		case ButtonRight:
			return VerdictCancel
		}
	}
	return VerdictNone
}

// HandleKey feeds one key press; now drives retargets caused by drilling
// and cursor nudges.
func (p *WindowPicker) HandleKey(ev KeyEvent, now time.Time) Verdict {
	step := 1
	if ev.Ctrl {
		step = 10
	}
	switch ev.Key {
	case KeyEscape:
		return VerdictCancel
	case KeyEnter:
		if !p.bounds.Empty() {
			return VerdictConfirm
		}
	case KeySpace:
		return VerdictSwitch
	case KeyPageDown:
		p.descend(now)
	case KeyPageUp:
		p.ascend(now)
	case KeyZ:
		p.magnifier = !p.magnifier
	case KeyUp:
		p.nudge(0, -step, now)
	case KeyDown:
		p.nudge(0, step, now)
	case KeyLeft:
		p.nudge(-step, 0, now)
	case KeyRight:
		p.nudge(step, 0, now)
	}
	return VerdictNone
}

// Step advances the highlight animation. It reports whether the frame
// changed and needs a repaint.
func (p *WindowPicker) Step(now time.Time) bool {
	return p.anim.Tick(now)
}

// Result is the highlighted window's bounds as a region in virtual-desktop
// coordinates. Only meaningful after a confirm verdict.
func (p *WindowPicker) Result() snapshot.Region {
	return snapshot.Region{
		X:      p.bounds.Min.X,
		Y:      p.bounds.Min.Y,
		Width:  p.bounds.Dx(),
		Height: p.bounds.Dy(),
	}
}

// Depth is how many levels deep the picker has drilled.
func (p *WindowPicker) Depth() int { return len(p.stack) }

// updateHighlight re-hit-tests the cursor and retargets the animation when
// the highlighted window changed. A miss at the root clears the highlight;
// a miss below the root falls back to the enclosing parent, so once inside
// a window something is always highlighted.
func (p *WindowPicker) updateHighlight(now time.Time) {
	pt := p.cursor.Add(p.snap.Origin())
	w, ok := p.hitTest(pt)
	switch {
	case ok && w.Bounds.Dx() > 0:
		if w.Handle == p.highlight {
			return
		}
		p.highlight = w.Handle
		p.bounds = w.Bounds
		disp := w.Bounds.Sub(p.snap.Origin())
		if p.fromCursor {
			p.anim.RetargetFromPoint(p.cursor, disp, now)
			p.fromCursor = false
		} else {
			p.anim.Retarget(disp, now)
		}
	case !ok:
		p.highlight = 0
		p.bounds = image.Rectangle{}
	}
}

// hitTest finds the window under pt (virtual-desktop coords) at the current
// drill level. At the root the front-most containing top-level window wins.
// Below the root the parent's children are tested first and the parent
// itself is the fallback.
func (p *WindowPicker) hitTest(pt image.Point) (winenum.Window, bool) {
	if len(p.stack) == 0 {
		for _, w := range p.top {
			if pt.In(w.Bounds) {
				return w, true
			}
		}
		return winenum.Window{}, false
	}
	parent := p.stack[len(p.stack)-1]
	for _, c := range p.childrenOf(parent.Handle) {
		if pt.In(c.Bounds) {
			return c, true
		}
	}
	return parent, true
}

// childrenOf enumerates parent's direct children, serving repeats from the
// cache. Failed or empty enumerations are cached too.
func (p *WindowPicker) childrenOf(parent winenum.Handle) []winenum.Window {
	if kids, ok := p.children[parent]; ok {
		return kids
	}
	var kids []winenum.Window
	if p.src != nil {
		raw, err := p.src.Children(parent)
		if err != nil {
			log.Printf("Window picker: child enumeration failed: %v", err)
		} else {
			kids = winenum.FilterChildren(raw)
		}
	}
	p.children[parent] = kids
	return kids
}

// descend drills into the highlighted window when it has children. The new
// level starts with no highlight and the next one grows from the cursor.
func (p *WindowPicker) descend(now time.Time) {
	if p.highlight == 0 {
		return
	}
	if len(p.childrenOf(p.highlight)) == 0 {
		return
	}
	p.stack = append(p.stack, winenum.Window{Handle: p.highlight, Bounds: p.bounds})
	p.highlight = 0
	p.bounds = image.Rectangle{}
	p.fromCursor = true
	p.updateHighlight(now)
}

// ascend climbs one level and evicts the departed parent's child cache, so
// drilling back in sees fresh geometry.
func (p *WindowPicker) ascend(now time.Time) {
	if len(p.stack) == 0 {
		return
	}
	parent := p.stack[len(p.stack)-1]
	p.stack = p.stack[:len(p.stack)-1]
	delete(p.children, parent.Handle)
	p.highlight = 0
	p.bounds = image.Rectangle{}
	p.fromCursor = true
	p.updateHighlight(now)
}

// nudge moves the OS cursor and re-hit-tests at the reported position.
func (p *WindowPicker) nudge(dx, dy int, now time.Time) {
	if p.moveCursor == nil {
		return
	}
	p.cursor = p.moveCursor(dx, dy)
	p.updateHighlight(now)
}
