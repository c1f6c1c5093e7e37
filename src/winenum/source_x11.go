//go:build linux

package winenum

import (
	"fmt"
	"image"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/icccm"
)

type x11Source struct {
	xu   *xgbutil.XUtil
	root xproto.Window
}

func newPlatformSource() (Source, error) {
	xu, err := xgbutil.NewConn()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to X server: %w", err)
	}
	return &x11Source{xu: xu, root: xu.RootWin()}, nil
}

// TopLevel reads the EWMH client list in stacking order (bottom-to-top) and
// reverses it so callers see front-to-back. Windows on other virtual desktops
// and hidden windows are skipped.
func (s *x11Source) TopLevel(exclude Handle) ([]Window, error) {
	clients, err := ewmh.ClientListStackingGet(s.xu)
	if err != nil || len(clients) == 0 {
		clients, err = ewmh.ClientListGet(s.xu)
		if err != nil {
			return nil, fmt.Errorf("failed to get client list: %w", err)
		}
	}

	current, currentErr := ewmh.CurrentDesktopGet(s.xu)

	out := make([]Window, 0, len(clients))
	for i := len(clients) - 1; i >= 0; i-- {
		wid := clients[i]
		if Handle(wid) == exclude {
			continue
		}
		if s.hiddenByState(wid) {
			continue
		}
		if currentErr == nil && !s.onDesktop(wid, current) {
			continue
		}
		bounds, ok := s.windowBounds(wid, true)
		if !ok {
			continue
		}
		out = append(out, Window{
			Handle: Handle(wid),
			Bounds: bounds,
			Title:  s.windowTitle(wid),
		})
	}
	return out, nil
}

// Children queries the X tree directly. QueryTree reports bottom-to-top, so
// the order is reversed here as well. Only viewable children are returned.
func (s *x11Source) Children(parent Handle) ([]Window, error) {
	tree, err := xproto.QueryTree(s.xu.Conn(), xproto.Window(parent)).Reply()
	if err != nil {
		return nil, fmt.Errorf("failed to query window tree: %w", err)
	}

	out := make([]Window, 0, len(tree.Children))
	for i := len(tree.Children) - 1; i >= 0; i-- {
		wid := tree.Children[i]
		attrs, err := xproto.GetWindowAttributes(s.xu.Conn(), wid).Reply()
		if err != nil || attrs.MapState != xproto.MapStateViewable {
			continue
		}
		bounds, ok := s.windowBounds(wid, false)
		if !ok {
			continue
		}
		out = append(out, Window{
			Handle: Handle(wid),
			Bounds: bounds,
			Title:  s.windowTitle(wid),
		})
	}
	return out, nil
}

func (s *x11Source) windowTitle(wid xproto.Window) string {
	title, err := ewmh.WmNameGet(s.xu, wid)
	if err == nil && title != "" {
		return title
	}
	title, err = icccm.WmNameGet(s.xu, wid)
	if err != nil {
		return ""
	}
	return title
}

func (s *x11Source) hiddenByState(wid xproto.Window) bool {
	states, err := ewmh.WmStateGet(s.xu, wid)
	if err != nil {
		return false
	}
	for _, state := range states {
		if state == "_NET_WM_STATE_HIDDEN" {
			return true
		}
	}
	return false
}

func (s *x11Source) onDesktop(wid xproto.Window, current uint) bool {
	desktop, err := ewmh.WmDesktopGet(s.xu, wid)
	if err != nil {
		return true
	}
	// 0xFFFFFFFF marks sticky windows visible on all desktops
	if desktop == 0xFFFFFFFF {
		return true
	}
	return desktop == current
}

// windowBounds translates the window origin to root coordinates and, for
// top-level windows, expands by the WM frame extents so the rectangle matches
// what the user sees including decorations.
func (s *x11Source) windowBounds(wid xproto.Window, withFrame bool) (image.Rectangle, bool) {
	geom, err := xproto.GetGeometry(s.xu.Conn(), xproto.Drawable(wid)).Reply()
	if err != nil {
		return image.Rectangle{}, false
	}
	translate, err := xproto.TranslateCoordinates(s.xu.Conn(), wid, s.root, 0, 0).Reply()
	if err != nil {
		return image.Rectangle{}, false
	}

	x := int(translate.DstX)
	y := int(translate.DstY)
	w := int(geom.Width)
	h := int(geom.Height)

	if withFrame {
		if ext, err := ewmh.FrameExtentsGet(s.xu, wid); err == nil {
			x -= int(ext.Left)
			y -= int(ext.Top)
			w += int(ext.Left) + int(ext.Right)
			h += int(ext.Top) + int(ext.Bottom)
		}
	}

	if w < 1 || h < 1 {
		return image.Rectangle{}, false
	}
	return image.Rect(x, y, x+w, y+h), true
}
