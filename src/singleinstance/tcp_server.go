package singleinstance

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"net"
	"strings"
	"time"
)

const (
	residentHost = "127.0.0.1"
	pingRequest  = "PING\n"
	pongResponse = "PONG\n"
)

// tcpServer implements Server over TCP loopback.
type tcpServer struct {
	lis      net.Listener
	incoming chan *tcpConn
	port     int
}

func newTcpServer() Server { return &tcpServer{incoming: make(chan *tcpConn, 8)} }

// Start binds the first available port in the derived range. When every
// port is taken the caller treats it as "another instance owns the slot".
func (s *tcpServer) Start(ctx context.Context) error {
	if s.lis != nil {
		return nil
	}
	start, end := getPortRange()
	var lastErr error
	for port := start; port <= end; port++ {
		addr := fmt.Sprintf("%s:%d", residentHost, port)
		lis, err := net.Listen("tcp", addr)
		if err != nil {
			lastErr = err
			continue
		}
		s.lis = lis
		s.port = port
		log.Printf("singleinstance: listening on %s", addr)
		go s.acceptLoop(ctx)
		return nil
	}
	log.Printf("singleinstance: no free port in [%d,%d]: %v", start, end, lastErr)
	return fmt.Errorf("no free port in [%d,%d]: %w", start, end, lastErr)
}

// Port returns the bound port (0 if not started).
func (s *tcpServer) Port() int { return s.port }

func (s *tcpServer) acceptLoop(ctx context.Context) {
	for {
		c, err := s.lis.Accept()
		if err != nil {
			return
		}
		remote := c.RemoteAddr().String()
		_ = c.SetDeadline(time.Now().Add(3 * time.Second))
		br := bufio.NewReader(c)
		line, _ := br.ReadString('\n')
		bw := bufio.NewWriter(c)
		if line == pingRequest {
			log.Printf("singleinstance: PING from %s -> PONG", remote)
			_, _ = bw.WriteString(pongResponse)
			_ = bw.Flush()
			_ = c.Close()
			continue
		}
		req, ok := parseRequest(line)
		if !ok {
			log.Printf("singleinstance: bad request from %s: %q", remote, strings.TrimRight(line, "\n"))
			_, _ = bw.WriteString("ERR bad request\n")
			_ = bw.Flush()
			_ = c.Close()
			continue
		}
		// The capture session responds later; drop the read deadline.
		_ = c.SetDeadline(time.Time{})
		log.Printf("singleinstance: request from %s mode=%s stdout=%v", remote, req.Mode, req.OutputToStdout)
		select {
		case s.incoming <- &tcpConn{c: c, r: req, w: bw}:
		case <-ctx.Done():
			_ = c.Close()
			return
		}
	}
}

// parseRequest parses "CAPTURE region|window|repeat [std]".
func parseRequest(line string) (Request, bool) {
	fields := strings.Fields(line)
	if len(fields) < 2 || len(fields) > 3 || fields[0] != "CAPTURE" {
		return Request{}, false
	}
	mode := fields[1]
	switch mode {
	case RequestRegion, RequestWindow, RequestRepeat:
	default:
		return Request{}, false
	}
	req := Request{Mode: mode}
	if len(fields) == 3 {
		if fields[2] != "std" {
			return Request{}, false
		}
		req.OutputToStdout = true
	}
	return req, true
}

func (s *tcpServer) Next(ctx context.Context) (Conn, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case tc := <-s.incoming:
		return tc, nil
	}
}

func (s *tcpServer) Close() error {
	if s.lis != nil {
		_ = s.lis.Close()
		s.lis = nil
	}
	close(s.incoming)
	return nil
}

type tcpConn struct {
	c net.Conn
	r Request
	w *bufio.Writer
}

func (tc *tcpConn) Request() Request { return tc.r }

func (tc *tcpConn) RespondSuccess(path string) error {
	line := "OK -\n"
	if path != "" {
		line = "OK " + sanitizeLine(path) + "\n"
	}
	if _, err := tc.w.WriteString(line); err != nil {
		return err
	}
	return tc.w.Flush()
}

func (tc *tcpConn) RespondCancelled() error {
	if _, err := tc.w.WriteString("CANCELLED\n"); err != nil {
		return err
	}
	return tc.w.Flush()
}

func (tc *tcpConn) RespondError(msg string) error {
	if msg == "" {
		msg = "unknown error"
	}
	if _, err := tc.w.WriteString("ERR " + sanitizeLine(msg) + "\n"); err != nil {
		return err
	}
	return tc.w.Flush()
}

func (tc *tcpConn) Close() error { return tc.c.Close() }

// sanitizeLine keeps responses single-line.
func sanitizeLine(s string) string {
	return strings.ReplaceAll(strings.ReplaceAll(s, "\r", " "), "\n", " ")
}
