package mllp

import (
	"bufio"
	"net"
	"sync"
	"time"
)

// Session is one accepted listener connection.
type Session struct {
	conn        net.Conn
	reader      *bufio.Reader
	idleTimeout time.Duration

	sync.Mutex
}

func NewSession(conn net.Conn, idleTimeout time.Duration) *Session {
	return &Session{
		conn:        conn,
		reader:      bufio.NewReaderSize(conn, readBufferSize),
		idleTimeout: idleTimeout,
	}
}

func (s *Session) Conn() net.Conn {
	return s.conn
}

func (s *Session) Remote() string {
	return s.conn.RemoteAddr().String()
}

// ReadMessage waits for the next frame and parses it.
func (s *Session) ReadMessage() (*Message, error) {
	if s.idleTimeout > 0 {
		if err := s.conn.SetReadDeadline(time.Now().Add(s.idleTimeout)); err != nil {
			return nil, err
		}
	}
	frame, err := ReadFrame(s.reader, MaxFrameSize)
	if err != nil {
		return nil, err
	}
	return ParseMessage(frame)
}

// Close does not take the session lock, so it also unblocks a reply stuck on
// a peer that stopped reading.
func (s *Session) Close() error {
	return s.conn.Close()
}
