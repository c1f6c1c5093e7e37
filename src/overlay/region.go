package overlay

import (
	"image"
	"image/color"
	"log"

	"github.com/SysAdminDoc/SwiftShot/src/snapindex"
	"github.com/SysAdminDoc/SwiftShot/src/snapshot"
)

// minSelectionSpan is the smallest drag, per axis, that still confirms.
// Anything narrower on either axis cancels instead of producing a sliver
// capture.
const minSelectionSpan = 2

// RegionSelector is the drag-a-rectangle controller. It moves through
// idle -> selecting -> done: primary-button-down captures the anchor,
// moves update the far endpoint (snapped to window edges in rectangle
// mode), and release confirms when the selection is big enough on both
// axes and cancels otherwise.
//
// In freehand mode the drag records a contour instead; its bounding box
// becomes the selection and the contour rides along as a mask polygon.
type RegionSelector struct {
	snap     *snapshot.Snapshot
	index    *snapindex.Index
	freehand bool
	copyText func(string) error

	selecting bool
	anchor    image.Point // press point, never snapped
	endpoint  image.Point // moving corner, snapped in rectangle mode
	cursor    image.Point
	path      []image.Point // freehand contour, raw

	snapOn             bool
	guideX, guideY     int
	onGuideX, onGuideY bool

	pixel  color.RGBA // color under the cursor, for the readout and C
	result snapshot.Region
}

// NewRegionSelector builds the controller. index may be empty (snapping
// becomes a no-op); copyText may be nil (C is ignored).
func NewRegionSelector(snap *snapshot.Snapshot, index *snapindex.Index, freehand bool, copyText func(string) error) *RegionSelector {
	return &RegionSelector{
		snap:     snap,
		index:    index,
		freehand: freehand,
		copyText: copyText,
		snapOn:   true,
	}
}

// HandlePointer feeds one pointer event through the state machine.
func (s *RegionSelector) HandlePointer(ev PointerEvent) Verdict {
	switch ev.Kind {
	case PointerDown:
		switch ev.Button {
		case ButtonLeft:
			s.selecting = true
			s.anchor = ev.Pos
			s.endpoint = ev.Pos
			if s.freehand {
				s.path = append(s.path[:0], ev.Pos)
			}
		case ButtonRight:
			// Cancels even mid-drag.
			return VerdictCancel
		}

	case PointerMove:
		s.cursor = ev.Pos
		if c, ok := s.snap.ColorAt(ev.Pos); ok {
			s.pixel = c
		}
		if s.selecting {
			if s.freehand {
				s.endpoint = ev.Pos
				s.path = append(s.path, ev.Pos)
			} else {
				s.endpoint = s.snapPoint(ev.Pos)
			}
		} else {
			// Keep the guide lines live while hovering.
			s.snapPoint(ev.Pos)
		}

	case PointerUp:
		if ev.Button != ButtonLeft || !s.selecting {
			return VerdictNone
		}
		s.selecting = false
		if s.freehand {
			s.endpoint = ev.Pos
		} else {
			s.endpoint = s.snapPoint(ev.Pos)
		}
		return s.finish()
	}
	return VerdictNone
}

// HandleKey feeds one key press through the state machine.
func (s *RegionSelector) HandleKey(ev KeyEvent) Verdict {
	switch ev.Key {
	case KeyEscape:
		return VerdictCancel
	case KeySpace:
		// The drag does not survive a mode switch.
		s.selecting = false
		s.path = s.path[:0]
		return VerdictSwitch
	case KeyS:
		s.snapOn = !s.snapOn
		if !s.snapOn {
			s.onGuideX, s.onGuideY = false, false
		}
	case KeyC:
		if !s.selecting && s.copyText != nil {
			hex := snapshot.HexColor(s.pixel)
			if err := s.copyText(hex); err != nil {
				log.Printf("Copy color %s failed: %v", hex, err)
			} else {
				log.Printf("Copied color %s to clipboard", hex)
			}
		}
	}
	return VerdictNone
}

// Result is the confirmed selection in virtual-desktop coordinates. Only
// meaningful after HandlePointer returned VerdictConfirm.
func (s *RegionSelector) Result() snapshot.Region {
	return s.result
}

// SnapEnabled reports whether edge snapping is currently on.
func (s *RegionSelector) SnapEnabled() bool { return s.snapOn }

// snapPoint snaps p to nearby window edges, each axis independently, and
// records which guides are active. With snapping off it passes p through
// untouched.
func (s *RegionSelector) snapPoint(p image.Point) image.Point {
	s.onGuideX, s.onGuideY = false, false
	if !s.snapOn || s.index == nil {
		return p
	}
	out := p
	if x, ok := s.index.SnapX(p.X); ok {
		out.X = x
		s.guideX = x
		s.onGuideX = true
	}
	if y, ok := s.index.SnapY(p.Y); ok {
		out.Y = y
		s.guideY = y
		s.onGuideY = true
	}
	return out
}

// finish normalizes the drag into a region and decides the verdict.
func (s *RegionSelector) finish() Verdict {
	var r image.Rectangle
	if s.freehand {
		r = pathBounds(s.path)
	} else {
		r = image.Rect(s.anchor.X, s.anchor.Y, s.endpoint.X, s.endpoint.Y)
	}
	if r.Dx() < minSelectionSpan || r.Dy() < minSelectionSpan {
		return VerdictCancel
	}

	origin := s.snap.Origin()
	s.result = snapshot.Region{
		X:      r.Min.X + origin.X,
		Y:      r.Min.Y + origin.Y,
		Width:  r.Dx(),
		Height: r.Dy(),
	}
	if s.freehand {
		poly := make([]snapshot.Point, len(s.path))
		for i, p := range s.path {
			poly[i] = snapshot.Point{X: p.X + origin.X, Y: p.Y + origin.Y}
		}
		s.result.Polygon = poly
	}
	return VerdictConfirm
}

// pathBounds is the bounding box of a contour.
func pathBounds(path []image.Point) image.Rectangle {
	if len(path) == 0 {
		return image.Rectangle{}
	}
	r := image.Rectangle{Min: path[0], Max: path[0]}
	for _, p := range path[1:] {
		if p.X < r.Min.X {
			r.Min.X = p.X
		}
		if p.Y < r.Min.Y {
			r.Min.Y = p.Y
		}
		if p.X > r.Max.X {
			r.Max.X = p.X
		}
		if p.Y > r.Max.Y {
			r.Max.Y = p.Y
		}
	}
	return r
}
