package mllp

import (
	"context"
	"errors"
	"io"
	"net"
	"sync"
	"time"

	"github.com/myeof/gomllp/pkg/logger"
	"golang.org/x/time/rate"
)

// Server is an MLLP listener. Each connection is served sequentially so
// replies keep the order of the requests.
type Server struct {
	listener *net.TCPListener
	rate     *rate.Limiter

	idleTimeout time.Duration
	keepAlive   time.Duration

	wg       sync.WaitGroup
	mu       sync.Mutex
	sessions map[*Session]struct{}
}

func NewServer() *Server {
	return &Server{
		idleTimeout: 5 * time.Minute,
		keepAlive:   10 * time.Second,
		sessions:    make(map[*Session]struct{}),
	}
}

// ListenAndServe serves router on addr until ctx is done.
func ListenAndServe(ctx context.Context, addr string, router *Router) error {
	s := NewServer()
	listen, err := s.Listen(addr)
	if err != nil {
		return err
	}
	logger.Infow("mllp listen", "addr", listen.Addr().String())
	return s.Serve(ctx, router)
}

// SetCPS limits accepted connections per second.
func (s *Server) SetCPS(n int) {
	if n > 0 {
		s.rate = rate.NewLimiter(rate.Limit(n), n)
	}
}

// SetIdleTimeout closes connections that send nothing for d. 0 disables it.
func (s *Server) SetIdleTimeout(d time.Duration) {
	s.idleTimeout = d
}

func (s *Server) Listen(addr string) (*net.TCPListener, error) {
	tcpAddr, err := net.ResolveTCPAddr("tcp", addr)
	if err != nil {
		return nil, err
	}
	s.listener, err = net.ListenTCP("tcp", tcpAddr)
	if err != nil {
		return nil, err
	}
	return s.listener, nil
}

// Addr returns the bound address, or nil before Listen.
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Serve accepts connections until ctx is done, then closes the listener and
// every open session and waits for their handlers.
func (s *Server) Serve(ctx context.Context, router *Router) error {
	if s.listener == nil {
		return errors.New("listener is nil")
	}

	parent := ctx
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		<-ctx.Done()
		_ = s.listener.Close()
		s.closeSessions()
	}()

	var err error
	for {
		if s.rate != nil {
			if err = s.rate.Wait(ctx); err != nil {
				break
			}
		}
		var conn *net.TCPConn
		conn, err = s.listener.AcceptTCP()
		if err != nil {
			break
		}
		if cerr := configureConnection(conn, s.keepAlive); cerr != nil {
			logger.Errorw("configure connection", "error", cerr)
			_ = conn.Close()
			continue
		}
		session := NewSession(conn, s.idleTimeout)
		s.track(session)
		if ctx.Err() != nil {
			_ = session.Close()
		}
		s.wg.Add(1)
		go s.readHandler(session, router)
	}

	cancel()
	s.wg.Wait()
	if parent.Err() != nil {
		return nil
	}
	return err
}

func (s *Server) readHandler(session *Session, router *Router) {
	defer s.wg.Done()
	defer s.untrack(session)
	defer session.Close()

	for {
		msg, err := session.ReadMessage()
		if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
			return
		}
		var ne net.Error
		if errors.As(err, &ne) && ne.Timeout() {
			logger.Infow("mllp session idle", "remote", session.Remote())
			return
		}
		if errors.Is(err, ErrMissingHeader) || errors.Is(err, ErrShortHeader) {
			logger.Warnw("mllp frame dropped", "remote", session.Remote(), "error", err)
			continue
		}
		if err != nil {
			logger.Warnw("mllp read", "remote", session.Remote(), "error", err)
			return
		}
		c := NewContext(session, msg)
		if !router.handle(c) {
			logger.Warnf("No handler for message type: %s", msg.Type())
		}
	}
}

func (s *Server) track(session *Session) {
	s.mu.Lock()
	s.sessions[session] = struct{}{}
	s.mu.Unlock()
}

func (s *Server) untrack(session *Session) {
	s.mu.Lock()
	delete(s.sessions, session)
	s.mu.Unlock()
}

func (s *Server) closeSessions() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for session := range s.sessions {
		_ = session.Close()
	}
}
