package singleinstance

import (
	"bufio"
	"context"
	"errors"
	"net"
	"strconv"
	"strings"
	"time"
)

type tcpClient struct{}

func newTcpClient() Client { return &tcpClient{} }

func (c *tcpClient) TryRunOnce(ctx context.Context, mode string, outputToStdout bool) (bool, string, error) {
	switch mode {
	case RequestRegion, RequestWindow, RequestRepeat:
	default:
		return false, "", errors.New("unknown capture mode: " + mode)
	}

	deadline := 2 * time.Second
	if dl, ok := ctx.Deadline(); ok {
		if d := time.Until(dl); d > 0 {
			deadline = d
		}
	}

	// Scan the derived range for a resident using PING, then delegate.
	start, end := getPortRange()
	for port := start; port <= end; port++ {
		addr := net.JoinHostPort(residentHost, strconv.Itoa(port))
		if !ping(addr, deadline) {
			continue
		}
		conn, err := net.DialTimeout("tcp", addr, deadline)
		if err != nil {
			continue
		}
		path, err := delegate(ctx, conn, mode, outputToStdout)
		conn.Close()
		return true, path, err
	}
	return false, "", nil
}

// delegate writes one request line and blocks until the resident resolves
// the capture. There is no read deadline: the user may take their time in
// the selector; ctx cancellation closes the connection underneath us.
func delegate(ctx context.Context, conn net.Conn, mode string, outputToStdout bool) (string, error) {
	stop := closeOnDone(ctx, conn)
	defer stop()

	line := "CAPTURE " + mode
	if outputToStdout {
		line += " std"
	}
	w := bufio.NewWriter(conn)
	if _, err := w.WriteString(line + "\n"); err != nil {
		return "", err
	}
	if err := w.Flush(); err != nil {
		return "", err
	}

	br := bufio.NewReader(conn)
	resp, err := br.ReadString('\n')
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", err
	}
	return parseResponse(strings.TrimRight(resp, "\r\n"))
}

// parseResponse maps "OK <path>" / "OK -" / "CANCELLED" / "ERR <msg>".
func parseResponse(resp string) (string, error) {
	switch {
	case resp == "OK -":
		return "", nil
	case strings.HasPrefix(resp, "OK "):
		return strings.TrimSpace(strings.TrimPrefix(resp, "OK ")), nil
	case resp == "CANCELLED":
		return "", ErrCancelled
	case strings.HasPrefix(resp, "ERR "):
		return "", errors.New(strings.TrimPrefix(resp, "ERR "))
	default:
		return "", errors.New("malformed response: " + resp)
	}
}

// closeOnDone closes conn when ctx is cancelled so a blocked read unblocks.
func closeOnDone(ctx context.Context, conn net.Conn) (stop func()) {
	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-done:
		}
	}()
	return func() { close(done) }
}
