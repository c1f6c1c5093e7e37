// Package animator interpolates a displayed rectangle toward a target over a
// fixed wall-clock duration with a quintic ease-out curve. It is a pure
// function of time with no timers of its own; the caller ticks it from
// whatever scheduler drives its frames.
package animator

import (
	"image"
	"math"
	"time"
)

// DefaultDuration matches the highlight transition length of the picker.
const DefaultDuration = 700 * time.Millisecond

// RectF is a float-precision rectangle. Interpolation stays in floats so
// intermediate frames are not quantized away near the end of the curve.
type RectF struct {
	X, Y, W, H float64
}

// FromRect converts an image.Rectangle.
func FromRect(r image.Rectangle) RectF {
	return RectF{X: float64(r.Min.X), Y: float64(r.Min.Y), W: float64(r.Dx()), H: float64(r.Dy())}
}

// Rect rounds back to pixel coordinates.
func (r RectF) Rect() image.Rectangle {
	x0 := int(math.Round(r.X))
	y0 := int(math.Round(r.Y))
	x1 := int(math.Round(r.X + r.W))
	y1 := int(math.Round(r.Y + r.H))
	return image.Rect(x0, y0, x1, y1)
}

func (r RectF) Empty() bool { return r.W <= 0 || r.H <= 0 }

// Animator carries one animation: start and end rectangles, the interpolated
// current rectangle, and the wall-clock start of the run.
type Animator struct {
	duration    time.Duration
	start       RectF
	end         RectF
	current     RectF
	startTime   time.Time
	active      bool
	initialized bool
}

func New(duration time.Duration) *Animator {
	if duration <= 0 {
		duration = DefaultDuration
	}
	return &Animator{duration: duration}
}

// Retarget points the animation at a new end rectangle. The very first
// target initializes start, end and current to it with no motion. A target
// equal to the current end is a no-op, so repeated hit-tests of the same
// window do not restart the run. Otherwise the new start is the last
// interpolated rectangle, which lets rapid retargets compose smoothly.
func (a *Animator) Retarget(end image.Rectangle, now time.Time) {
	target := FromRect(end)
	if !a.initialized {
		a.start = target
		a.end = target
		a.current = target
		a.initialized = true
		return
	}
	if target == a.end {
		return
	}
	a.start = a.current
	a.end = target
	a.startTime = now
	a.active = true
}

// RetargetFromPoint starts the run from a zero-size rectangle at p, producing
// the grow-from-cursor effect used for the first highlight of a drill level.
func (a *Animator) RetargetFromPoint(p image.Point, end image.Rectangle, now time.Time) {
	a.start = RectF{X: float64(p.X), Y: float64(p.Y)}
	a.end = FromRect(end)
	a.current = a.start
	a.startTime = now
	a.active = true
	a.initialized = true
}

// Tick advances the interpolation to now and reports whether a repaint is
// warranted. At full progress the rectangle snaps exactly to the target and
// the animator deactivates; that final frame still reports true.
func (a *Animator) Tick(now time.Time) bool {
	if !a.active {
		return false
	}
	t := float64(now.Sub(a.startTime)) / float64(a.duration)
	if t > 1 {
		t = 1
	}
	if t < 0 {
		t = 0
	}
	e := quinticEaseOut(t)
	a.current = RectF{
		X: a.start.X + (a.end.X-a.start.X)*e,
		Y: a.start.Y + (a.end.Y-a.start.Y)*e,
		W: a.start.W + (a.end.W-a.start.W)*e,
		H: a.start.H + (a.end.H-a.start.H)*e,
	}
	if t >= 1 {
		a.active = false
		a.current = a.end
	}
	return true
}

// Current is the last interpolated rectangle.
func (a *Animator) Current() RectF { return a.current }

// CurrentRect is Current rounded to pixels.
func (a *Animator) CurrentRect() image.Rectangle { return a.current.Rect() }

// Target is the end rectangle of the running (or finished) animation.
func (a *Animator) Target() image.Rectangle { return a.end.Rect() }

func (a *Animator) Active() bool { return a.active }

// Reset clears all state, as when a drill level change discards the previous
// highlight entirely.
func (a *Animator) Reset() {
	*a = Animator{duration: a.duration}
}

func quinticEaseOut(t float64) float64 {
	t = t - 1
	return t*t*t*t*t + 1
}
