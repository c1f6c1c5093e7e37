package animator

import (
	"image"
	"math"
	"testing"
	"time"
)

func TestTickEndpoints(t *testing.T) {
	base := time.Unix(100, 0)
	a := New(700 * time.Millisecond)
	a.RetargetFromPoint(image.Pt(0, 0), image.Rect(10, 10, 110, 110), base)

	// t=0: exactly the start rectangle
	if !a.Tick(base) {
		t.Fatal("active animator must request a repaint at t=0")
	}
	if got := a.Current(); got != (RectF{X: 0, Y: 0, W: 0, H: 0}) {
		t.Fatalf("tick(0) should return the start rect, got %+v", got)
	}

	// t=350ms: strictly between start and end on every field
	if !a.Tick(base.Add(350 * time.Millisecond)) {
		t.Fatal("expected repaint at t=350ms")
	}
	mid := a.Current()
	check := func(name string, v, lo, hi float64) {
		if !(v > lo && v < hi) {
			t.Errorf("%s = %v, want strictly between %v and %v", name, v, lo, hi)
		}
	}
	check("X", mid.X, 0, 10)
	check("Y", mid.Y, 0, 10)
	check("W", mid.W, 0, 100)
	check("H", mid.H, 0, 100)

	// Quintic ease-out at half time is 1-(0.5)^5
	wantE := 1 - math.Pow(0.5, 5)
	if got := mid.X / 10; math.Abs(got-wantE) > 1e-9 {
		t.Errorf("eased progress at t=0.5 = %v, want %v", got, wantE)
	}

	// t=700ms: exactly the end rect, deactivated, final repaint reported
	if !a.Tick(base.Add(700 * time.Millisecond)) {
		t.Fatal("final tick must still report a repaint")
	}
	if got := a.CurrentRect(); got != image.Rect(10, 10, 110, 110) {
		t.Errorf("tick(700ms) must snap exactly to the target, got %v", got)
	}
	if a.Active() {
		t.Error("animator must deactivate at full progress")
	}
	if a.Tick(base.Add(750 * time.Millisecond)) {
		t.Error("inactive animator must not request repaints")
	}
}

func TestTickPastDurationClamps(t *testing.T) {
	base := time.Unix(0, 0)
	a := New(700 * time.Millisecond)
	a.RetargetFromPoint(image.Pt(5, 5), image.Rect(0, 0, 50, 50), base)

	a.Tick(base.Add(3 * time.Second))
	if got := a.CurrentRect(); got != image.Rect(0, 0, 50, 50) {
		t.Errorf("late tick must clamp to the target, got %v", got)
	}
}

func TestFirstRetargetHasNoMotion(t *testing.T) {
	base := time.Unix(100, 0)
	a := New(DefaultDuration)
	target := image.Rect(20, 30, 220, 180)

	a.Retarget(target, base)
	if a.Active() {
		t.Error("the first-ever target must not start an animation")
	}
	if got := a.CurrentRect(); got != target {
		t.Errorf("current should equal the target immediately, got %v", got)
	}
	if a.Tick(base.Add(time.Millisecond)) {
		t.Error("no repaint needed after a motionless init")
	}
}

func TestRetargetSameEndIsNoOp(t *testing.T) {
	base := time.Unix(100, 0)
	a := New(700 * time.Millisecond)
	end := image.Rect(0, 0, 100, 100)
	a.RetargetFromPoint(image.Pt(50, 50), end, base)

	a.Tick(base.Add(100 * time.Millisecond))
	before := a.Current()

	// Same target must not restart the clock.
	a.Retarget(end, base.Add(150*time.Millisecond))
	a.Tick(base.Add(200 * time.Millisecond))
	after := a.Current()

	if !(after.W > before.W) {
		t.Errorf("progress should continue monotonically, got %v then %v", before.W, after.W)
	}
	if got := a.Target(); got != end {
		t.Errorf("target changed unexpectedly: %v", got)
	}
}

func TestRetargetComposesFromCurrent(t *testing.T) {
	base := time.Unix(100, 0)
	a := New(700 * time.Millisecond)
	a.RetargetFromPoint(image.Pt(0, 0), image.Rect(0, 0, 100, 100), base)
	a.Tick(base.Add(200 * time.Millisecond))
	mid := a.Current()

	// Retarget mid-flight: the new run starts where the old one was.
	a.Retarget(image.Rect(500, 500, 600, 600), base.Add(200*time.Millisecond))
	a.Tick(base.Add(200 * time.Millisecond))
	if got := a.Current(); got != mid {
		t.Errorf("retarget must start from the interpolated rect %+v, got %+v", mid, got)
	}
	if !a.Active() {
		t.Error("a genuine retarget must activate the animator")
	}
}

func TestRetargetFromPointStartsZeroSize(t *testing.T) {
	base := time.Unix(100, 0)
	a := New(700 * time.Millisecond)
	a.RetargetFromPoint(image.Pt(42, 17), image.Rect(0, 0, 300, 200), base)

	if got := a.Current(); got != (RectF{X: 42, Y: 17, W: 0, H: 0}) {
		t.Errorf("expected zero-size start at the cursor, got %+v", got)
	}
	if !a.Active() {
		t.Error("grow-from-cursor must start active")
	}
}

func TestReset(t *testing.T) {
	base := time.Unix(100, 0)
	a := New(700 * time.Millisecond)
	a.RetargetFromPoint(image.Pt(1, 1), image.Rect(0, 0, 10, 10), base)
	a.Reset()

	if a.Active() {
		t.Error("reset animator must be inactive")
	}
	// After a reset the next Retarget behaves like the very first one.
	a.Retarget(image.Rect(5, 5, 50, 50), base.Add(time.Second))
	if a.Active() {
		t.Error("first target after reset must not animate")
	}
}

func TestRectFRounding(t *testing.T) {
	r := RectF{X: 1.4, Y: 1.6, W: 10.2, H: 9.8}
	if got := r.Rect(); got != image.Rect(1, 2, 12, 11) {
		t.Errorf("unexpected rounding: %v", got)
	}
}
