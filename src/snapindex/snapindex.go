// Package snapindex holds the magnetic alignment targets for region dragging:
// two sorted sets of window-edge coordinates, built once per overlay session
// and queried on every pointer move.
package snapindex

import (
	"image"
	"sort"

	"github.com/SysAdminDoc/SwiftShot/src/winenum"
)

// Tolerance is the snap distance in pixels.
const Tolerance = 8

// Index is a build-once/query-many structure. xs are vertical snap lines
// (X coordinates from window left/right edges), ys horizontal snap lines
// (Y coordinates from top/bottom edges), both in overlay-local coordinates.
type Index struct {
	xs []int
	ys []int
}

// Build collects the four edge coordinates of every window, translated from
// virtual-desktop to overlay-local coordinates by subtracting origin.
func Build(windows []winenum.Window, origin image.Point) *Index {
	xs := make([]int, 0, len(windows)*2)
	ys := make([]int, 0, len(windows)*2)
	for _, w := range windows {
		b := w.Bounds.Sub(origin)
		xs = append(xs, b.Min.X, b.Max.X)
		ys = append(ys, b.Min.Y, b.Max.Y)
	}
	return New(xs, ys)
}

// New builds an index from raw edge coordinates.
func New(xs, ys []int) *Index {
	return &Index{xs: sortedUnique(xs), ys: sortedUnique(ys)}
}

// SnapX snaps a vertical edge coordinate. The miss case echoes the input.
func (ix *Index) SnapX(x int) (int, bool) { return snap(ix.xs, x) }

// SnapY snaps a horizontal edge coordinate.
func (ix *Index) SnapY(y int) (int, bool) { return snap(ix.ys, y) }

// SnapPoint runs both axes independently and reports which snapped.
func (ix *Index) SnapPoint(p image.Point) (image.Point, bool, bool) {
	x, snappedX := ix.SnapX(p.X)
	y, snappedY := ix.SnapY(p.Y)
	return image.Pt(x, y), snappedX, snappedY
}

func (ix *Index) Empty() bool { return len(ix.xs) == 0 && len(ix.ys) == 0 }

// Counts reports the number of stored vertical and horizontal edges.
func (ix *Index) Counts() (int, int) { return len(ix.xs), len(ix.ys) }

// snap returns the first stored value within Tolerance in ascending scan
// order. With a sorted set that is the smallest in-range edge, not the
// nearest; the drag feel depends on this ordering.
func snap(edges []int, c int) (int, bool) {
	i := sort.SearchInts(edges, c-Tolerance)
	if i < len(edges) && edges[i] <= c+Tolerance {
		return edges[i], true
	}
	return c, false
}

func sortedUnique(values []int) []int {
	if len(values) == 0 {
		return nil
	}
	sort.Ints(values)
	out := values[:1]
	for _, v := range values[1:] {
		if v != out[len(out)-1] {
			out = append(out, v)
		}
	}
	return out
}
