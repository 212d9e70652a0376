package mllp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"

	"golang.org/x/time/rate"
)

// writeAll writes b in full, in limiter-sized chunks when a limiter is set.
func writeAll(ctx context.Context, conn net.Conn, b []byte, l *rate.Limiter) (int, error) {
	written := 0
	for written < len(b) {
		n := chunkSize(l, len(b)-written)
		if err := waitN(ctx, l, n); err != nil {
			if ctx.Err() != nil {
				return written, ctx.Err()
			}
			// the limiter refuses waits that cannot finish before the deadline
			return written, fmt.Errorf("rate limit: %v: %w", err, os.ErrDeadlineExceeded)
		}
		m, err := conn.Write(b[written : written+n])
		written += m
		if err != nil {
			return written, err
		}
	}
	return written, nil
}

// readResponse accumulates bytes until the end sequence shows up or the peer
// closes the connection. A clean close is not an error; the caller decides
// what an empty result means. More than max bytes without an end sequence
// fails with ErrFrameTooLong.
func readResponse(conn net.Conn, max int) ([]byte, error) {
	bufp := bufferPool.Get()
	defer bufferPool.Put(bufp)
	buf := *bufp

	var resp []byte
	for {
		n, err := conn.Read(buf)
		if n > 0 {
			resp = append(resp, buf[:n]...)
			if completedBy(resp, n) {
				return resp, nil
			}
			if max > 0 && len(resp) > max {
				return resp, ErrFrameTooLong
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return resp, nil
			}
			return resp, err
		}
	}
}

// WriteFrame wraps segments and writes them to the session.
func WriteFrame(session *Session, segments []byte) error {
	session.Lock()
	defer session.Unlock()
	_, err := session.Conn().Write(Wrap(segments))
	return err
}
