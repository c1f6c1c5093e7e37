package singleinstance

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestParseRequest(t *testing.T) {
	cases := []struct {
		line string
		want Request
		ok   bool
	}{
		{"CAPTURE region\n", Request{Mode: RequestRegion}, true},
		{"CAPTURE window\n", Request{Mode: RequestWindow}, true},
		{"CAPTURE repeat\n", Request{Mode: RequestRepeat}, true},
		{"CAPTURE region std\n", Request{Mode: RequestRegion, OutputToStdout: true}, true},
		{"CAPTURE region foo\n", Request{}, false},
		{"CAPTURE\n", Request{}, false},
		{"CAPTURE fullscreen\n", Request{}, false},
		{"SNAP region\n", Request{}, false},
		{"\n", Request{}, false},
	}
	for _, tc := range cases {
		got, ok := parseRequest(tc.line)
		if ok != tc.ok || got != tc.want {
			t.Errorf("parseRequest(%q) = %+v, %v; want %+v, %v", tc.line, got, ok, tc.want, tc.ok)
		}
	}
}

func TestParseResponse(t *testing.T) {
	path, err := parseResponse("OK C:\\Users\\me\\Pictures\\shot.png")
	if err != nil || path != "C:\\Users\\me\\Pictures\\shot.png" {
		t.Errorf("OK path: got %q, %v", path, err)
	}
	path, err = parseResponse("OK -")
	if err != nil || path != "" {
		t.Errorf("OK -: got %q, %v", path, err)
	}
	if _, err = parseResponse("CANCELLED"); !errors.Is(err, ErrCancelled) {
		t.Errorf("CANCELLED: got %v, want ErrCancelled", err)
	}
	if _, err = parseResponse("ERR busy"); err == nil || err.Error() != "busy" {
		t.Errorf("ERR: got %v, want busy", err)
	}
	if _, err = parseResponse("WAT"); err == nil {
		t.Errorf("malformed response accepted")
	}
}

func TestServerClientRoundTrip(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	srv := NewServer()
	if err := srv.Start(ctx); err != nil {
		t.Skipf("loopback TCP unavailable in this environment: %v", err)
	}
	defer srv.Close()

	client := NewClient()
	type reply struct {
		path string
		err  error
	}
	replyCh := make(chan reply, 1)
	go func() {
		delegated, path, err := client.TryRunOnce(ctx, RequestRegion, true)
		if !delegated {
			err = errors.New("expected delegation")
		}
		replyCh <- reply{path: path, err: err}
	}()

	conn, err := srv.Next(ctx)
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	req := conn.Request()
	if req.Mode != RequestRegion || !req.OutputToStdout {
		t.Errorf("request = %+v, want region/std", req)
	}
	if err := conn.RespondSuccess("/tmp/shot.png"); err != nil {
		t.Fatalf("respond: %v", err)
	}

	r := <-replyCh
	if r.err != nil {
		t.Fatalf("client: %v", r.err)
	}
	if r.path != "/tmp/shot.png" {
		t.Errorf("client path = %q, want /tmp/shot.png", r.path)
	}
}

func TestServerCancelledRoundTrip(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	srv := NewServer()
	if err := srv.Start(ctx); err != nil {
		t.Skipf("loopback TCP unavailable in this environment: %v", err)
	}
	defer srv.Close()

	client := NewClient()
	errCh := make(chan error, 1)
	go func() {
		_, _, err := client.TryRunOnce(ctx, RequestWindow, false)
		errCh <- err
	}()

	conn, err := srv.Next(ctx)
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	if got := conn.Request().Mode; got != RequestWindow {
		t.Errorf("request mode = %q, want window", got)
	}
	if err := conn.RespondCancelled(); err != nil {
		t.Fatalf("respond: %v", err)
	}

	if err := <-errCh; !errors.Is(err, ErrCancelled) {
		t.Fatalf("client err = %v, want ErrCancelled", err)
	}
}

func TestServerBusyRoundTrip(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	srv := NewServer()
	if err := srv.Start(ctx); err != nil {
		t.Skipf("loopback TCP unavailable in this environment: %v", err)
	}
	defer srv.Close()

	client := NewClient()
	errCh := make(chan error, 1)
	go func() {
		_, _, err := client.TryRunOnce(ctx, RequestRepeat, false)
		errCh <- err
	}()

	conn, err := srv.Next(ctx)
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	if err := conn.RespondError("busy"); err != nil {
		t.Fatalf("respond: %v", err)
	}

	if err := <-errCh; err == nil || err.Error() != "busy" {
		t.Fatalf("client err = %v, want busy", err)
	}
}

func TestClientRejectsUnknownMode(t *testing.T) {
	client := NewClient()
	if _, _, err := client.TryRunOnce(context.Background(), "fullscreen", false); err == nil {
		t.Fatal("unknown mode accepted")
	}
}
