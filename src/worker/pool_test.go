package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestSubmitRunsTask(t *testing.T) {
	p := New(1)
	defer p.Close()

	done := make(chan error, 1)
	ok := p.Submit(context.Background(), "test-task", func(ctx context.Context) error {
		return nil
	}, func(err error) { done <- err })
	if !ok {
		t.Fatal("Submit returned false on an idle pool")
	}

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("task error = %v, want nil", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("task did not complete")
	}
}

func TestSubmitPropagatesTaskError(t *testing.T) {
	p := New(1)
	defer p.Close()

	want := errors.New("disk full")
	done := make(chan error, 1)
	p.Submit(context.Background(), "failing-task", func(ctx context.Context) error {
		return want
	}, func(err error) { done <- err })

	select {
	case err := <-done:
		if !errors.Is(err, want) {
			t.Fatalf("task error = %v, want %v", err, want)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("task did not complete")
	}
}

func TestSubmitRejectsWhenBusy(t *testing.T) {
	p := New(1)
	defer p.Close()

	block := make(chan struct{})
	started := make(chan struct{})
	p.Submit(context.Background(), "blocker", func(ctx context.Context) error {
		close(started)
		<-block
		return nil
	}, nil)
	<-started

	// Worker is busy; one more submit fills the 1-slot queue.
	if !p.Submit(context.Background(), "queued", func(ctx context.Context) error { return nil }, nil) {
		t.Fatal("Submit should accept one queued task")
	}
	// Queue full now.
	if p.Submit(context.Background(), "dropped", func(ctx context.Context) error { return nil }, nil) {
		t.Fatal("Submit should reject when the queue is full")
	}
	close(block)
}

func TestDeadlineCancelsSlowTask(t *testing.T) {
	p := New(1)
	defer p.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	done := make(chan error, 1)
	p.Submit(ctx, "slow-task", func(ctx context.Context) error {
		select {
		case <-time.After(5 * time.Second):
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}, func(err error) { done <- err })

	select {
	case err := <-done:
		if !errors.Is(err, context.DeadlineExceeded) {
			t.Fatalf("task error = %v, want deadline exceeded", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("deadline did not fire")
	}
}

func TestCloseDrainsQueuedWork(t *testing.T) {
	p := New(1)

	var ran atomic.Int32
	started := make(chan struct{})
	release := make(chan struct{})
	p.Submit(context.Background(), "drain-running", func(ctx context.Context) error {
		close(started)
		<-release
		ran.Add(1)
		return nil
	}, nil)
	<-started

	// Worker is mid-task, so this lands in the queue slot.
	if !p.Submit(context.Background(), "drain-queued", func(ctx context.Context) error {
		ran.Add(1)
		return nil
	}, nil) {
		t.Fatal("Submit rejected the queued task")
	}
	close(release)
	p.Close()

	if got := ran.Load(); got != 2 {
		t.Fatalf("ran %d tasks after Close, want 2", got)
	}
}

func TestNewDefaultsPoolSize(t *testing.T) {
	p := New(0)
	defer p.Close()

	// Smoke test: pool with defaulted size still runs work.
	done := make(chan error, 1)
	if !p.Submit(context.Background(), "default-size", func(ctx context.Context) error { return nil }, func(err error) { done <- err }) {
		t.Fatal("Submit failed on defaulted pool")
	}
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("task did not complete")
	}
}
