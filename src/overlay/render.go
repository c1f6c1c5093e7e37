package overlay

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/goregular"
)

// Catppuccin-ish palette shared by both controllers.
var (
	veilColor      = color.NRGBA{0, 0, 0, 120}   // region-mode dimming
	pickerVeil     = color.NRGBA{0, 0, 0, 40}    // lighter veil for window mode
	borderColor    = color.NRGBA{137, 180, 250, 255} // selection border, handles, magnifier frame
	contourColor   = color.NRGBA{166, 227, 161, 255} // freehand contour and snap guides
	crossColor     = color.NRGBA{205, 214, 244, 255}
	labelColor     = color.NRGBA{205, 214, 244, 255}
	labelBg        = color.NRGBA{30, 30, 46, 200}
	magBg          = color.NRGBA{30, 30, 46, 230}
	magCrossPink   = color.NRGBA{243, 139, 168, 255}
	magCrossRed    = color.NRGBA{255, 80, 80, 255}
	magGridLine    = color.NRGBA{255, 255, 255, 30}
	swatchBorder   = color.NRGBA{88, 91, 112, 255}
	highlightFill  = color.NRGBA{60, 179, 113, 50}
	highlightPen   = color.NRGBA{0, 0, 0, 50}
	magBorderGreen = color.NRGBA{60, 179, 113, 180}
)

const (
	magnifierSize = 120
	magnifierZoom = 4
)

// magStyle is the per-mode magnifier dressing: region mode gets the pixel
// grid and color-pick crosshair, window mode a plain zoom loupe.
type magStyle struct {
	border color.Color
	cross  color.Color
	reach  float64
	grid   bool
}

var (
	magStyleRegion = magStyle{border: borderColor, cross: magCrossPink, reach: 6, grid: true}
	magStylePicker = magStyle{border: magBorderGreen, cross: magCrossRed, reach: 8, grid: false}
)

// faceInfo bundles a font face with the metrics label layout needs.
type faceInfo struct {
	face   font.Face
	ascent float64
	height float64
}

func newFaceInfo(f *truetype.Font, size float64) faceInfo {
	face := truetype.NewFace(f, &truetype.Options{Size: size})
	m := face.Metrics()
	return faceInfo{
		face:   face,
		ascent: float64(m.Ascent.Ceil()),
		height: float64((m.Ascent + m.Descent).Ceil()),
	}
}

func (fi faceInfo) width(s string) float64 {
	return float64(font.MeasureString(fi.face, s).Ceil())
}

// renderer composes selector frames: snapshot background, dimming veil,
// selection geometry, readouts, magnifier, hint bars.
type renderer struct {
	ui   faceInfo // hint bars
	dim  faceInfo // dimension readout
	mono faceInfo // coordinate/color readout
}

func newRenderer() (*renderer, error) {
	regular, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse regular font: %w", err)
	}
	mono, err := truetype.Parse(gomono.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse mono font: %w", err)
	}
	return &renderer{
		ui:   newFaceInfo(regular, 12),
		dim:  newFaceInfo(regular, 13),
		mono: newFaceInfo(mono, 12),
	}, nil
}

// drawRegion renders one region-mode frame into dst.
func (r *renderer) drawRegion(dst *image.RGBA, s *RegionSelector) {
	bg := s.snap.Image()
	draw.Draw(dst, dst.Bounds(), bg, bg.Bounds().Min, draw.Src)
	dc := gg.NewContextForRGBA(dst)
	w, h := dst.Bounds().Dx(), dst.Bounds().Dy()

	switch {
	case s.freehand && s.selecting && len(s.path) > 0:
		r.drawFreehand(dc, w, h, s)
	case s.selecting && s.anchor != s.endpoint:
		sel := image.Rect(s.anchor.X, s.anchor.Y, s.endpoint.X, s.endpoint.Y).Intersect(dst.Bounds())
		fillOutside(dc, w, h, sel, veilColor)
		r.drawSelectionBorder(dc, sel)
		r.drawDimensions(dc, w, h, sel)
	default:
		dc.SetColor(veilColor)
		dc.DrawRectangle(0, 0, float64(w), float64(h))
		dc.Fill()
		r.drawCrosshair(dc, w, h, s.cursor)
	}

	r.drawSnapGuides(dc, w, h, s)
	r.drawColorReadout(dc, w, h, s)
	r.drawMagnifier(dc, dst, bg, s.cursor, magStyleRegion)
	r.drawModeHint(dc, w, s.freehand)
}

// drawPicker renders one window-mode frame into dst.
func (r *renderer) drawPicker(dst *image.RGBA, p *WindowPicker) {
	bg := p.snap.Image()
	draw.Draw(dst, dst.Bounds(), bg, bg.Bounds().Min, draw.Src)
	dc := gg.NewContextForRGBA(dst)
	w, h := dst.Bounds().Dx(), dst.Bounds().Dy()

	dc.SetColor(pickerVeil)
	dc.DrawRectangle(0, 0, float64(w), float64(h))
	dc.Fill()

	hr := p.anim.Current()
	if !hr.Empty() && hr.W > 1 && hr.H > 1 {
		ir := hr.Rect().Intersect(dst.Bounds())
		if !ir.Empty() {
			// Lift the veil inside the highlight, then tint it.
			draw.Draw(dst, ir, bg, ir.Min, draw.Src)
			dc.SetColor(highlightFill)
			dc.DrawRectangle(float64(ir.Min.X), float64(ir.Min.Y), float64(ir.Dx()), float64(ir.Dy()))
			dc.Fill()
			dc.SetColor(highlightPen)
			dc.SetLineWidth(1)
			dc.DrawRectangle(float64(ir.Min.X), float64(ir.Min.Y), float64(ir.Dx()), float64(ir.Dy()))
			dc.Stroke()
		}
	}

	if p.magnifier {
		r.drawMagnifier(dc, dst, bg, p.cursor, magStylePicker)
	}
	r.drawPickerHints(dc, w, h, p.Depth())
}

// drawFreehand dims everything outside the contour's bounding box and
// strokes the contour plus a dashed box around it.
func (r *renderer) drawFreehand(dc *gg.Context, w, h int, s *RegionSelector) {
	if len(s.path) < 2 {
		dc.SetColor(veilColor)
		dc.DrawRectangle(0, 0, float64(w), float64(h))
		dc.Fill()
		return
	}
	bb := pathBounds(s.path).Intersect(image.Rect(0, 0, w, h))
	fillOutside(dc, w, h, bb, veilColor)

	dc.SetColor(contourColor)
	dc.SetLineWidth(2)
	dc.SetLineCap(gg.LineCapRound)
	dc.SetLineJoin(gg.LineJoinRound)
	dc.MoveTo(float64(s.path[0].X), float64(s.path[0].Y))
	for _, p := range s.path[1:] {
		dc.LineTo(float64(p.X), float64(p.Y))
	}
	dc.ClosePath()
	dc.Stroke()

	dc.SetDash(4, 4)
	dc.SetColor(borderColor)
	dc.SetLineWidth(1)
	dc.DrawRectangle(float64(bb.Min.X), float64(bb.Min.Y), float64(bb.Dx()), float64(bb.Dy()))
	dc.Stroke()
	dc.SetDash()

	r.drawDimensions(dc, w, h, bb)
}

// drawSelectionBorder strokes the selection and its eight resize-style
// handles.
func (r *renderer) drawSelectionBorder(dc *gg.Context, sel image.Rectangle) {
	x, y := float64(sel.Min.X), float64(sel.Min.Y)
	sw, sh := float64(sel.Dx()), float64(sel.Dy())

	dc.SetColor(borderColor)
	dc.SetLineWidth(2)
	dc.DrawRectangle(x, y, sw, sh)
	dc.Stroke()

	const handle = 6.0
	cx, cy := x+sw/2, y+sh/2
	points := [][2]float64{
		{x, y}, {x + sw, y}, {x, y + sh}, {x + sw, y + sh},
		{cx, y}, {cx, y + sh}, {x, cy}, {x + sw, cy},
	}
	for _, p := range points {
		dc.DrawRectangle(p[0]-handle/2, p[1]-handle/2, handle, handle)
	}
	dc.Fill()
}

// drawDimensions prints "W x H" under the selection, flipping above it when
// there is no room below.
func (r *renderer) drawDimensions(dc *gg.Context, w, h int, sel image.Rectangle) {
	text := fmt.Sprintf("%d x %d", sel.Dx(), sel.Dy())
	bw := r.dim.width(text) + 16
	bh := r.dim.height + 8
	tx := float64(sel.Min.X+sel.Dx()/2) - bw/2
	ty := float64(sel.Max.Y) + 8
	if ty+bh > float64(h) {
		ty = float64(sel.Min.Y) - bh - 8
	}
	tx = clamp(tx, 4, float64(w)-bw-4)

	dc.SetColor(labelBg)
	dc.DrawRoundedRectangle(tx, ty, bw, bh, 4)
	dc.Fill()
	dc.SetColor(labelColor)
	dc.SetFontFace(r.dim.face)
	dc.DrawString(text, tx+8, ty+r.dim.ascent+4)
}

// drawCrosshair marks the idle cursor with full-span dashed lines.
func (r *renderer) drawCrosshair(dc *gg.Context, w, h int, pos image.Point) {
	dc.SetColor(crossColor)
	dc.SetLineWidth(1)
	dc.SetDash(4, 4)
	dc.DrawLine(float64(pos.X), 0, float64(pos.X), float64(h))
	dc.DrawLine(0, float64(pos.Y), float64(w), float64(pos.Y))
	dc.Stroke()
	dc.SetDash()
}

// drawSnapGuides draws a dotted line along each snapped edge.
func (r *renderer) drawSnapGuides(dc *gg.Context, w, h int, s *RegionSelector) {
	if !s.onGuideX && !s.onGuideY {
		return
	}
	dc.SetColor(contourColor)
	dc.SetLineWidth(1)
	dc.SetDash(1, 3)
	if s.onGuideX {
		dc.DrawLine(float64(s.guideX), 0, float64(s.guideX), float64(h))
	}
	if s.onGuideY {
		dc.DrawLine(0, float64(s.guideY), float64(w), float64(s.guideY))
	}
	dc.Stroke()
	dc.SetDash()
}

// drawColorReadout prints the cursor position and the pixel color under it
// next to the cursor, with a small swatch of the color itself.
func (r *renderer) drawColorReadout(dc *gg.Context, w, h int, s *RegionSelector) {
	hex := fmt.Sprintf("#%02X%02X%02X", s.pixel.R, s.pixel.G, s.pixel.B)
	text := fmt.Sprintf("(%d, %d)  %s", s.cursor.X, s.cursor.Y, hex)
	bw := r.mono.width(text) + 28
	bh := r.mono.height + 6
	tx := float64(s.cursor.X) + 16
	ty := float64(s.cursor.Y) - bh - 8
	if tx+bw > float64(w) {
		tx = float64(s.cursor.X) - bw - 16
	}
	if ty < 0 {
		ty = float64(s.cursor.Y) + 16
	}

	dc.SetColor(labelBg)
	dc.DrawRoundedRectangle(tx, ty, bw, bh, 3)
	dc.Fill()

	dc.SetColor(s.pixel)
	dc.DrawRectangle(tx+6, ty+(bh-10)/2, 10, 10)
	dc.Fill()
	dc.SetColor(swatchBorder)
	dc.SetLineWidth(1)
	dc.DrawRectangle(tx+6, ty+(bh-10)/2, 10, 10)
	dc.Stroke()

	dc.SetColor(labelColor)
	dc.SetFontFace(r.mono.face)
	dc.DrawString(text, tx+22, ty+r.mono.ascent+3)
}

// drawMagnifier renders a zoomed loupe beside the cursor, flipping to the
// other side near screen edges.
func (r *renderer) drawMagnifier(dc *gg.Context, dst *image.RGBA, bg *image.RGBA, cursor image.Point, style magStyle) {
	w, h := dst.Bounds().Dx(), dst.Bounds().Dy()
	size := magnifierSize
	mx := cursor.X + 24
	my := cursor.Y + 24
	if mx+size+4 > w {
		mx = cursor.X - size - 24
	}
	if my+size+4 > h {
		my = cursor.Y - size - 24
	}

	dc.SetColor(magBg)
	dc.DrawRoundedRectangle(float64(mx-2), float64(my-2), float64(size+4), float64(size+4), 4)
	dc.Fill()
	dc.SetColor(style.border)
	dc.SetLineWidth(2)
	dc.DrawRoundedRectangle(float64(mx-2), float64(my-2), float64(size+4), float64(size+4), 4)
	dc.Stroke()

	mag := magnify(bg, cursor, size, magnifierZoom)
	draw.Draw(dst, image.Rect(mx, my, mx+size, my+size), mag, image.Point{}, draw.Src)

	cx, cy := float64(mx+size/2), float64(my+size/2)
	dc.SetColor(style.cross)
	dc.SetLineWidth(1)
	dc.DrawLine(cx-style.reach, cy, cx+style.reach, cy)
	dc.DrawLine(cx, cy-style.reach, cx, cy+style.reach)
	dc.Stroke()

	if style.grid {
		dc.SetColor(magGridLine)
		for gx := mx; gx < mx+size; gx += magnifierZoom {
			dc.DrawLine(float64(gx), float64(my), float64(gx), float64(my+size))
		}
		for gy := my; gy < my+size; gy += magnifierZoom {
			dc.DrawLine(float64(mx), float64(gy), float64(mx+size), float64(gy))
		}
		dc.Stroke()
	}
}

// drawModeHint shows the region-mode key legend top-center.
func (r *renderer) drawModeHint(dc *gg.Context, w int, freehand bool) {
	label := "Region  |  Space: Window Mode  |  S: toggle snap  |  Esc: cancel"
	if freehand {
		label = "Freehand Region  |  Space: Window Mode  |  S: toggle snap  |  Esc: cancel"
	}
	r.drawHintBar(dc, label, (float64(w)-r.hintWidth(label))/2, 10)
}

// drawPickerHints shows the window-mode key legend, plus the drill depth
// bar in the bottom corner once inside a window.
func (r *renderer) drawPickerHints(dc *gg.Context, w, h, depth int) {
	bh := r.ui.height + 10
	y := 10.0
	if depth > 0 {
		label := fmt.Sprintf("Child level %d  |  PgUp: back  |  PgDown: deeper", depth)
		bw := r.hintWidth(label)
		r.drawHintBar(dc, label, float64(w)-bw-12, float64(h)-bh-12)
		y = 10 + bh + 4
	}
	label := "Space: Region Mode  |  Z: magnifier  |  Esc: cancel"
	r.drawHintBar(dc, label, (float64(w)-r.hintWidth(label))/2, y)
}

func (r *renderer) hintWidth(label string) float64 {
	return r.ui.width(label) + 20
}

func (r *renderer) drawHintBar(dc *gg.Context, label string, x, y float64) {
	bw := r.hintWidth(label)
	bh := r.ui.height + 10
	dc.SetColor(labelBg)
	dc.DrawRoundedRectangle(x, y, bw, bh, 4)
	dc.Fill()
	dc.SetColor(labelColor)
	dc.SetFontFace(r.ui.face)
	dc.DrawString(label, x+10, y+r.ui.ascent+5)
}

// fillOutside dims the four bands around hole, leaving the hole itself
// showing the snapshot at full brightness.
func fillOutside(dc *gg.Context, w, h int, hole image.Rectangle, c color.Color) {
	fw, fh := float64(w), float64(h)
	dc.SetColor(c)
	if hole.Empty() {
		dc.DrawRectangle(0, 0, fw, fh)
		dc.Fill()
		return
	}
	dc.DrawRectangle(0, 0, fw, float64(hole.Min.Y))
	dc.DrawRectangle(0, float64(hole.Max.Y), fw, fh-float64(hole.Max.Y))
	dc.DrawRectangle(0, float64(hole.Min.Y), float64(hole.Min.X), float64(hole.Dy()))
	dc.DrawRectangle(float64(hole.Max.X), float64(hole.Min.Y), fw-float64(hole.Max.X), float64(hole.Dy()))
	dc.Fill()
}

// magnify renders a size x size nearest-neighbor zoom of bg centered on
// center. Pixels outside the snapshot come out black.
func magnify(bg *image.RGBA, center image.Point, size, zoom int) *image.RGBA {
	out := image.NewRGBA(image.Rect(0, 0, size, size))
	half := size / zoom / 2
	b := bg.Bounds()
	for dy := 0; dy < size; dy++ {
		sy := center.Y - half + dy/zoom
		for dx := 0; dx < size; dx++ {
			sx := center.X - half + dx/zoom
			if sx >= b.Min.X && sx < b.Max.X && sy >= b.Min.Y && sy < b.Max.Y {
				out.SetRGBA(dx, dy, bg.RGBAAt(sx, sy))
			}
		}
	}
	return out
}

func clamp(v, lo, hi float64) float64 {
	if hi < lo {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
