package session

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/SysAdminDoc/SwiftShot/src/output"
	"github.com/SysAdminDoc/SwiftShot/src/overlay"
	"github.com/SysAdminDoc/SwiftShot/src/snapshot"
)

type recordingTarget struct {
	successes []output.Outcome
	failures  []error
}

func (t *recordingTarget) OnSuccess(out output.Outcome) error {
	t.successes = append(t.successes, out)
	return nil
}

func (t *recordingTarget) OnFailure(err error) error {
	t.failures = append(t.failures, err)
	return nil
}

func confirmedSelect(region snapshot.Region) SelectFunc {
	return func(ctx context.Context) (overlay.Result, bool, error) {
		return overlay.Result{Region: region, Confirmed: true, Mode: overlay.ModeRegion}, false, nil
	}
}

func TestExecuteDeliversConfirmedSelection(t *testing.T) {
	target := &recordingTarget{}
	region := snapshot.Region{X: 5, Y: 6, Width: 100, Height: 50}

	var delivered []snapshot.Region
	res, err := Execute(context.Background(), Options{
		Select: confirmedSelect(region),
		Deliver: func(ctx context.Context, r snapshot.Region) (output.Outcome, error) {
			delivered = append(delivered, r)
			return output.Outcome{Path: "/tmp/shot.png"}, nil
		},
		Target: target,
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(delivered) != 1 || delivered[0].Rect() != region.Rect() {
		t.Fatalf("delivered %v, want one call with %v", delivered, region)
	}
	if len(target.successes) != 1 || target.successes[0].Path != "/tmp/shot.png" {
		t.Fatalf("target successes = %v", target.successes)
	}
	if res.Outcome.Path != "/tmp/shot.png" || res.Mode != overlay.ModeRegion {
		t.Fatalf("result = %+v", res)
	}
}

func TestExecuteCancelledSkipsDelivery(t *testing.T) {
	target := &recordingTarget{}
	deliverCalls := 0

	_, err := Execute(context.Background(), Options{
		Select: func(ctx context.Context) (overlay.Result, bool, error) {
			return overlay.Result{}, true, nil
		},
		Deliver: func(ctx context.Context, r snapshot.Region) (output.Outcome, error) {
			deliverCalls++
			return output.Outcome{}, nil
		},
		Target: target,
	})
	if !errors.Is(err, ErrSelectionCancelled) {
		t.Fatalf("err = %v, want ErrSelectionCancelled", err)
	}
	if deliverCalls != 0 {
		t.Fatalf("Deliver ran %d times after cancellation", deliverCalls)
	}
	if len(target.failures) != 1 || !errors.Is(target.failures[0], ErrSelectionCancelled) {
		t.Fatalf("target failures = %v", target.failures)
	}
}

func TestExecuteSelectorErrorReachesTarget(t *testing.T) {
	target := &recordingTarget{}
	boom := errors.New("surface exploded")

	_, err := Execute(context.Background(), Options{
		Select: func(ctx context.Context) (overlay.Result, bool, error) {
			return overlay.Result{}, false, boom
		},
		Deliver: func(ctx context.Context, r snapshot.Region) (output.Outcome, error) {
			return output.Outcome{}, nil
		},
		Target: target,
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want %v", err, boom)
	}
	if len(target.failures) != 1 || !errors.Is(target.failures[0], boom) {
		t.Fatalf("target failures = %v", target.failures)
	}
}

func TestExecuteDeliveryErrorKeepsPartialOutcome(t *testing.T) {
	target := &recordingTarget{}
	clipDown := errors.New("clipboard unavailable")

	res, err := Execute(context.Background(), Options{
		Select: confirmedSelect(snapshot.Region{Width: 10, Height: 10}),
		Deliver: func(ctx context.Context, r snapshot.Region) (output.Outcome, error) {
			// Saved fine, clipboard failed.
			return output.Outcome{Path: "/tmp/partial.png"}, clipDown
		},
		Target: target,
	})
	if !errors.Is(err, clipDown) {
		t.Fatalf("err = %v, want %v", err, clipDown)
	}
	if res.Outcome.Path != "/tmp/partial.png" {
		t.Fatalf("partial outcome lost: %+v", res.Outcome)
	}
	if len(target.failures) != 1 {
		t.Fatalf("target failures = %v", target.failures)
	}
}

func TestExecuteRequiresHooks(t *testing.T) {
	if _, err := Execute(context.Background(), Options{}); err == nil {
		t.Fatal("Execute accepted empty options")
	}
}

func TestStdoutTargetPrintsPath(t *testing.T) {
	var buf bytes.Buffer
	tgt := StdoutTarget{Writer: &buf}
	if err := tgt.OnSuccess(output.Outcome{Path: "/tmp/shot.png"}); err != nil {
		t.Fatalf("OnSuccess: %v", err)
	}
	if got := buf.String(); got != "/tmp/shot.png\n" {
		t.Fatalf("stdout = %q", got)
	}
}

func TestStdoutTargetClipboardOnlyPrintsDash(t *testing.T) {
	var buf bytes.Buffer
	tgt := StdoutTarget{Writer: &buf}
	if err := tgt.OnSuccess(output.Outcome{Clipboard: true}); err != nil {
		t.Fatalf("OnSuccess: %v", err)
	}
	if got := strings.TrimSpace(buf.String()); got != "-" {
		t.Fatalf("stdout = %q, want -", got)
	}
}

func TestTrayTargetTooltips(t *testing.T) {
	var tips []string
	tgt := TrayTarget{SetTooltip: func(s string) { tips = append(tips, s) }}

	_ = tgt.OnSuccess(output.Outcome{Path: "/tmp/shot.png"})
	_ = tgt.OnSuccess(output.Outcome{Clipboard: true})
	_ = tgt.OnFailure(ErrSelectionCancelled)
	_ = tgt.OnFailure(errors.New("disk full"))

	want := []string{"Saved shot.png", "Capture copied to clipboard", "Capture failed"}
	if len(tips) != len(want) {
		t.Fatalf("tooltips = %v, want %v", tips, want)
	}
	for i := range want {
		if tips[i] != want[i] {
			t.Errorf("tooltip[%d] = %q, want %q", i, tips[i], want[i])
		}
	}
}

func TestMultiTargetFansOut(t *testing.T) {
	a := &recordingTarget{}
	b := &recordingTarget{}
	m := Multi(a, b)

	_ = m.OnSuccess(output.Outcome{Path: "/tmp/x.png"})
	_ = m.OnFailure(ErrSelectionCancelled)

	if len(a.successes) != 1 || len(b.successes) != 1 {
		t.Fatalf("successes not fanned out: %d, %d", len(a.successes), len(b.successes))
	}
	if len(a.failures) != 1 || len(b.failures) != 1 {
		t.Fatalf("failures not fanned out: %d, %d", len(a.failures), len(b.failures))
	}
}
