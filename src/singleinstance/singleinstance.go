package singleinstance

// This file defines the API for single-instance ownership and run-once delegation.

import (
	"context"
	"errors"
)

// Request modes carried on the wire.
const (
	RequestRegion = "region"
	RequestWindow = "window"
	RequestRepeat = "repeat"
)

// ErrCancelled reports that the resident instance ran the capture and the
// user cancelled the selection.
var ErrCancelled = errors.New("capture cancelled")

// Server owns the TCP endpoint and answers delegated capture requests.
type Server interface {
	// Start begins listening on the first available port in the derived
	// range and accepting client requests.
	Start(ctx context.Context) error
	// Port returns the bound TCP port, or 0 if not started.
	Port() int
	// Next returns the next accepted connection as a Conn, or ctx error.
	Next(ctx context.Context) (Conn, error)
	// Close releases ownership and stops accepting clients.
	Close() error
}

// Conn represents one client connection and exposes request + response API.
type Conn interface {
	// Request returns the parsed client request.
	Request() Request
	// RespondSuccess reports a completed capture. path is the saved file,
	// or "" when the capture only went to the clipboard (sent as "OK -").
	RespondSuccess(path string) error
	// RespondCancelled reports that the user dismissed the selection.
	RespondCancelled() error
	// RespondError sends an error with a human-readable message.
	RespondError(msg string) error
	// Close closes the underlying connection.
	Close() error
}

// Request represents a single delegated capture request.
type Request struct {
	// Mode is one of RequestRegion, RequestWindow, RequestRepeat.
	Mode string
	// OutputToStdout asks the delegating client to print the saved path.
	OutputToStdout bool
}

// Client attempts to delegate a capture to a resident instance.
type Client interface {
	// TryRunOnce scans the derived port range, performs the PING handshake,
	// and delegates a capture to the resident. If no resident is found,
	// returns delegated=false, err=nil. A user cancellation surfaces as
	// ErrCancelled with delegated=true.
	TryRunOnce(ctx context.Context, mode string, outputToStdout bool) (delegated bool, path string, err error)
}

// NewServer returns the TCP implementation.
func NewServer() Server { return newTcpServer() }

// NewClient returns the TCP implementation.
func NewClient() Client { return newTcpClient() }
