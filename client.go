package mllp

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/myeof/gomllp/pkg/logger"
)

// Client performs one-shot MLLP exchanges. Each Send opens and closes its own
// socket; a Client holds only configuration and is safe for concurrent use.
type Client struct {
	dialer    net.Dialer
	keepAlive time.Duration
	rateLimit int
}

type Option func(*Client)

// WithRateLimit caps the write phase at bytesPerSecond. 0 disables it.
func WithRateLimit(bytesPerSecond int) Option {
	return func(c *Client) {
		c.rateLimit = bytesPerSecond
	}
}

// WithKeepAlive sets the TCP keep-alive period of the connection.
func WithKeepAlive(d time.Duration) Option {
	return func(c *Client) {
		c.keepAlive = d
	}
}

// WithLocalAddr binds outgoing connections to addr.
func WithLocalAddr(addr net.Addr) Option {
	return func(c *Client) {
		c.dialer.LocalAddr = addr
	}
}

func NewClient(opts ...Option) *Client {
	c := &Client{
		keepAlive: 10 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var defaultClient = NewClient()

// Send uses a default Client.
func Send(ctx context.Context, host string, port uint16, message []byte, timeout time.Duration) ([]byte, error) {
	return defaultClient.Send(ctx, host, port, message, timeout)
}

// Send connects to host:port, writes the framed message and returns the raw
// response bytes. timeout is one deadline for connect, write and read
// together; a non-positive timeout means DefaultTimeout.
func (c *Client) Send(ctx context.Context, host string, port uint16, message []byte, timeout time.Duration) ([]byte, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	x := &exchange{
		addr:      net.JoinHostPort(host, strconv.Itoa(int(port))),
		requestID: uuid.NewString(),
		start:     time.Now(),
		state:     StateIdle,
	}

	x.state = StateConnecting
	logger.Debugw("mllp connect", "request_id", x.requestID, "addr", x.addr, "timeout", timeout)
	conn, err := c.dialer.DialContext(ctx, "tcp", x.addr)
	if err != nil {
		return nil, x.fail(ctx, err)
	}
	defer conn.Close()

	// one deadline for the rest of the exchange; cancellation pulls it in
	if deadline, ok := ctx.Deadline(); ok {
		if err = conn.SetDeadline(deadline); err != nil {
			return nil, x.fail(ctx, err)
		}
	}
	stop := context.AfterFunc(ctx, func() {
		_ = conn.SetDeadline(aLongTimeAgo)
	})
	defer stop()

	if err = configureConnection(conn, c.keepAlive); err != nil {
		logger.Warnw("mllp keep-alive", "request_id", x.requestID, "error", err)
	}

	x.state = StateWriting
	x.written, err = writeAll(ctx, conn, message, newByteLimiter(c.rateLimit))
	if err != nil {
		return nil, x.fail(ctx, err)
	}
	logger.Debugw("mllp message written", "request_id", x.requestID, "bytes", x.written)

	x.state = StateAwaitingResponse
	resp, err := readResponse(conn, MaxFrameSize)
	x.received = len(resp)
	if err != nil {
		return nil, x.fail(ctx, err)
	}
	if len(resp) == 0 {
		return nil, x.failKind(KindEmptyResponse, nil)
	}

	x.state = StateComplete
	logger.Debugw("mllp ack received",
		"request_id", x.requestID,
		"addr", x.addr,
		"bytes", len(resp),
		"elapsed", time.Since(x.start))
	return resp, nil
}

// exchange tracks one Send call.
type exchange struct {
	addr      string
	requestID string
	start     time.Time
	state     State
	written   int
	received  int
}

func (x *exchange) fail(ctx context.Context, err error) *SendError {
	// a canceled call surfaces as a deadline error from the socket
	if errors.Is(ctx.Err(), context.Canceled) && !errors.Is(err, context.Canceled) {
		err = fmt.Errorf("%w (%v)", context.Canceled, err)
	}
	return x.failKind(classify(ctx, x.state, err), err)
}

func (x *exchange) failKind(kind ErrorKind, cause error) *SendError {
	e := &SendError{
		Kind:     kind,
		Phase:    x.state,
		Addr:     x.addr,
		Cause:    cause,
		Written:  x.written,
		Received: x.received,
		Elapsed:  time.Since(x.start),
	}
	if e.Timeout() {
		x.state = StateTimedOut
	} else {
		x.state = StateFailed
	}
	logger.Warnw("mllp send failed",
		"request_id", x.requestID,
		"addr", x.addr,
		"kind", kind.String(),
		"phase", e.Phase.String(),
		"elapsed", e.Elapsed,
		"error", cause)
	return e
}
