package snapshot

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math"

	"github.com/kbinani/screenshot"
)

// Region represents a confirmed capture rectangle in virtual-desktop
// coordinates.
type Region struct {
	X      int
	Y      int
	Width  int
	Height int
	// Polygon is optional and, when present, is expressed in absolute
	// virtual-desktop coordinates. Crop uses it to mask pixels outside
	// the polygon while still returning a rectangular image.
	Polygon []Point
}

type Point struct {
	X int
	Y int
}

// Rect returns the region as an image.Rectangle.
func (r Region) Rect() image.Rectangle {
	return image.Rect(r.X, r.Y, r.X+r.Width, r.Y+r.Height)
}

// Snapshot is one immutable bitmap of the full virtual desktop plus the
// desktop's top-left offset relative to the primary display origin. Monitors
// left of or above the primary make the offset negative. A snapshot lives for
// exactly one capture session and is shared read-only between the session
// orchestrator and whichever overlay is active.
type Snapshot struct {
	img    *image.RGBA
	origin image.Point
}

func Init() {
	// Initialize display access if needed
}

// Capture grabs the entire virtual screen across all active displays.
func Capture() (*Snapshot, error) {
	n := screenshot.NumActiveDisplays()
	if n == 0 {
		return nil, fmt.Errorf("no active displays found")
	}
	// Compute union of all display bounds
	union := screenshot.GetDisplayBounds(0)
	for i := 1; i < n; i++ {
		b := screenshot.GetDisplayBounds(i)
		union = union.Union(b)
	}
	img, err := screenshot.CaptureRect(union)
	if err != nil {
		return nil, fmt.Errorf("failed to capture virtual screen: %w", err)
	}
	return &Snapshot{img: img, origin: union.Min}, nil
}

// FromImage wraps an existing bitmap as a snapshot. Used by tests and by
// tooling that re-processes saved captures.
func FromImage(img *image.RGBA, origin image.Point) *Snapshot {
	return &Snapshot{img: img, origin: origin}
}

// VirtualBounds returns the union of all display bounds without capturing.
func VirtualBounds() (image.Rectangle, error) {
	n := screenshot.NumActiveDisplays()
	if n == 0 {
		return image.Rectangle{}, fmt.Errorf("no active displays found")
	}
	union := screenshot.GetDisplayBounds(0)
	for i := 1; i < n; i++ {
		union = union.Union(screenshot.GetDisplayBounds(i))
	}
	return union, nil
}

// DisplayBounds returns the bounds of every active display.
func DisplayBounds() ([]image.Rectangle, error) {
	n := screenshot.NumActiveDisplays()
	if n == 0 {
		return nil, fmt.Errorf("no active displays found")
	}
	bounds := make([]image.Rectangle, n)
	for i := 0; i < n; i++ {
		bounds[i] = screenshot.GetDisplayBounds(i)
	}
	return bounds, nil
}

// Origin is the snapshot's top-left in virtual-desktop coordinates.
func (s *Snapshot) Origin() image.Point { return s.origin }

// Size is the snapshot's pixel dimensions.
func (s *Snapshot) Size() image.Point {
	b := s.img.Bounds()
	return image.Pt(b.Dx(), b.Dy())
}

// Image exposes the backing bitmap. Callers must treat it as read-only.
func (s *Snapshot) Image() *image.RGBA { return s.img }

// VirtualRect is the snapshot's footprint in virtual-desktop coordinates.
func (s *Snapshot) VirtualRect() image.Rectangle {
	b := s.img.Bounds()
	return image.Rect(s.origin.X, s.origin.Y, s.origin.X+b.Dx(), s.origin.Y+b.Dy())
}

// ColorAt reads the pixel at an overlay-local point. The second return is
// false when the point lies outside the snapshot.
func (s *Snapshot) ColorAt(p image.Point) (color.RGBA, bool) {
	b := s.img.Bounds()
	q := p.Add(b.Min)
	if !q.In(b) {
		return color.RGBA{}, false
	}
	return s.img.RGBAAt(q.X, q.Y), true
}

// Crop copies the part of the snapshot covered by region (virtual-desktop
// coordinates). The region is intersected with the snapshot footprint; an
// intersection under one pixel in either dimension is an error. When the
// region carries a polygon, pixels outside it are masked white.
func (s *Snapshot) Crop(region Region) (*image.RGBA, error) {
	rect := region.Rect().Intersect(s.VirtualRect())
	if rect.Dx() < 1 || rect.Dy() < 1 {
		return nil, fmt.Errorf("region %dx%d at (%d,%d) lies outside the captured desktop",
			region.Width, region.Height, region.X, region.Y)
	}

	local := rect.Sub(s.origin).Add(s.img.Bounds().Min)
	out := image.NewRGBA(image.Rect(0, 0, rect.Dx(), rect.Dy()))
	draw.Draw(out, out.Bounds(), s.img, local.Min, draw.Src)

	if len(region.Polygon) >= 3 {
		applyPolygonMask(out, region, rect.Min)
	}
	return out, nil
}

// EncodePNG crops the region and encodes it as PNG bytes.
func (s *Snapshot) EncodePNG(region Region) ([]byte, error) {
	img, err := s.Crop(region)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode image as PNG: %w", err)
	}
	return buf.Bytes(), nil
}

// HexColor formats a color as #RRGGBB, uppercase.
func HexColor(c color.RGBA) string {
	return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B)
}

func applyPolygonMask(img *image.RGBA, region Region, cropMin image.Point) {
	localPolygon := make([]Point, len(region.Polygon))
	for i, p := range region.Polygon {
		localPolygon[i] = Point{X: p.X - cropMin.X, Y: p.Y - cropMin.Y}
	}

	b := img.Bounds()
	white := color.RGBA{R: 255, G: 255, B: 255, A: 255}
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if !pointInPolygon(float64(x)+0.5, float64(y)+0.5, localPolygon) {
				img.SetRGBA(x, y, white)
			}
		}
	}
}

func pointInPolygon(px, py float64, polygon []Point) bool {
	if len(polygon) < 3 {
		return false
	}

	inside := false
	for i, j := 0, len(polygon)-1; i < len(polygon); j, i = i, i+1 {
		xi := float64(polygon[i].X)
		yi := float64(polygon[i].Y)
		xj := float64(polygon[j].X)
		yj := float64(polygon[j].Y)

		if pointOnSegment(px, py, xi, yi, xj, yj) {
			return true
		}

		intersects := ((yi > py) != (yj > py)) &&
			(px < (xj-xi)*(py-yi)/(yj-yi)+xi)
		if intersects {
			inside = !inside
		}
	}

	return inside
}

func pointOnSegment(px, py, x1, y1, x2, y2 float64) bool {
	const epsilon = 0.5
	cross := (px-x1)*(y2-y1) - (py-y1)*(x2-x1)
	if math.Abs(cross) > epsilon {
		return false
	}

	minX := math.Min(x1, x2) - epsilon
	maxX := math.Max(x1, x2) + epsilon
	minY := math.Min(y1, y2) - epsilon
	maxY := math.Max(y1, y2) + epsilon
	return px >= minX && px <= maxX && py >= minY && py <= maxY
}
