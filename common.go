package mllp

import (
	"net"
	"time"
)

// State is the phase of a single send exchange.
type State uint8

const (
	StateIdle State = iota
	StateConnecting
	StateWriting
	StateAwaitingResponse
	StateComplete
	StateTimedOut
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connect"
	case StateWriting:
		return "write"
	case StateAwaitingResponse:
		return "read"
	case StateComplete:
		return "complete"
	case StateTimedOut:
		return "timed out"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

// Terminal reports whether no further transition is possible.
func (s State) Terminal() bool {
	return s == StateComplete || s == StateTimedOut || s == StateFailed
}

// DefaultTimeout covers connect, write and read together.
const DefaultTimeout = 30 * time.Second

// readBufferSize is the chunk size of a single socket read.
const readBufferSize = 4096

// aLongTimeAgo is used to abort blocked I/O on cancellation.
var aLongTimeAgo = time.Unix(1, 0)

func configureConnection(conn net.Conn, keepAlive time.Duration) error {
	tcp, ok := conn.(*net.TCPConn)
	if !ok || keepAlive <= 0 {
		return nil
	}
	err := tcp.SetKeepAlive(true)
	if err != nil {
		return err
	}
	return tcp.SetKeepAlivePeriod(keepAlive)
}
