package mllp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"syscall"
	"time"
)

// ErrorKind classifies a failed send.
type ErrorKind uint8

const (
	KindConnection ErrorKind = iota + 1
	KindConnectTimeout
	KindWriteTimeout
	KindReadTimeout
	KindEmptyResponse
	KindIO
)

func (k ErrorKind) String() string {
	switch k {
	case KindConnection:
		return "connection error"
	case KindConnectTimeout:
		return "connect timeout"
	case KindWriteTimeout:
		return "write timeout"
	case KindReadTimeout:
		return "read timeout"
	case KindEmptyResponse:
		return "empty response"
	case KindIO:
		return "i/o error"
	}
	return fmt.Sprintf("ErrorKind(%d)", uint8(k))
}

// Sentinels for errors.Is against a *SendError.
var (
	ErrConnection     = &SendError{Kind: KindConnection}
	ErrConnectTimeout = &SendError{Kind: KindConnectTimeout}
	ErrWriteTimeout   = &SendError{Kind: KindWriteTimeout}
	ErrReadTimeout    = &SendError{Kind: KindReadTimeout}
	ErrEmptyResponse  = &SendError{Kind: KindEmptyResponse}
	ErrIO             = &SendError{Kind: KindIO}
)

// SendError is returned by Client.Send for every failure.
type SendError struct {
	Kind  ErrorKind
	Phase State
	Addr  string
	Cause error

	// Written and Received are byte counts at the time of failure.
	Written  int
	Received int
	Elapsed  time.Duration
}

func (e *SendError) Error() string {
	msg := fmt.Sprintf("mllp: %s during %s to %s after %s (written=%d received=%d)",
		e.Kind, e.Phase, e.Addr, e.Elapsed.Round(time.Millisecond), e.Written, e.Received)
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *SendError) Unwrap() error {
	return e.Cause
}

// Is matches on Kind so the package sentinels work with errors.Is.
func (e *SendError) Is(target error) bool {
	t, ok := target.(*SendError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// Timeout reports whether the shared deadline expired.
func (e *SendError) Timeout() bool {
	switch e.Kind {
	case KindConnectTimeout, KindWriteTimeout, KindReadTimeout:
		return true
	}
	return false
}

// Errno returns the OS error code behind the failure, or 0.
func (e *SendError) Errno() syscall.Errno {
	var errno syscall.Errno
	if errors.As(e.Cause, &errno) {
		return errno
	}
	return 0
}

var timeoutKinds = map[State]ErrorKind{
	StateConnecting:       KindConnectTimeout,
	StateWriting:          KindWriteTimeout,
	StateAwaitingResponse: KindReadTimeout,
}

// classify maps a network error raised in the given phase onto the taxonomy.
// ctx is the deadline-scoped context of the call.
func classify(ctx context.Context, phase State, err error) ErrorKind {
	if errors.Is(ctx.Err(), context.Canceled) || errors.Is(err, context.Canceled) {
		return KindIO
	}
	if isTimeout(err) {
		return timeoutKinds[phase]
	}
	if isConnectionFailure(err) {
		return KindConnection
	}
	if phase == StateConnecting {
		return KindConnection
	}
	return KindIO
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

func isConnectionFailure(err error) bool {
	switch {
	case errors.Is(err, syscall.ECONNREFUSED),
		errors.Is(err, syscall.ECONNRESET),
		errors.Is(err, syscall.ECONNABORTED),
		errors.Is(err, syscall.EPIPE),
		errors.Is(err, syscall.EHOSTUNREACH),
		errors.Is(err, syscall.ENETUNREACH),
		errors.Is(err, io.ErrUnexpectedEOF):
		return true
	}
	return false
}
