package httpd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"github.com/yndnr/rawhttpd/internal/protocol/http1"
	"github.com/yndnr/rawhttpd/internal/telemetry/logger"
)

// Config holds the connection server configuration. Zero values disable
// the corresponding guard.
type Config struct {
	// Addr is the TCP listen address.
	Addr string
	// MaxConnections caps concurrently served connections. The accept loop
	// waits for a free slot before accepting.
	MaxConnections int
	// AcceptRate limits accepts per second, with AcceptBurst headroom.
	AcceptRate  float64
	AcceptBurst int
	// ReadTimeout bounds reading the whole request.
	ReadTimeout time.Duration
	// WriteTimeout bounds writing the response.
	WriteTimeout time.Duration
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Addr: "127.0.0.1:8080",
	}
}

// KindTimeout is the parse-error kind recorded when the read deadline
// expires before a complete request arrives.
const KindTimeout = "timeout"

// ConnObserver receives connection lifecycle events.
type ConnObserver interface {
	ConnOpened()
	ConnClosed()
}

type noopConnObserver struct{}

func (noopConnObserver) ConnOpened() {}
func (noopConnObserver) ConnClosed() {}

// Server accepts TCP connections and answers one request per connection.
type Server struct {
	cfg        *Config
	dispatcher *Dispatcher
	logger     *slog.Logger
	conns      ConnObserver
	sem        *semaphore.Weighted
	limiter    *rate.Limiter

	mu         sync.Mutex
	ln         net.Listener
	closed     bool
	stopAccept context.CancelFunc
	running    atomic.Bool
	wg         sync.WaitGroup
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithConnObserver sets the connection metrics sink.
func WithConnObserver(o ConnObserver) ServerOption {
	return func(s *Server) {
		if o != nil {
			s.conns = o
		}
	}
}

// New creates a server that dispatches through d.
func New(cfg *Config, d *Dispatcher, logger *slog.Logger, opts ...ServerOption) *Server {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		cfg:        cfg,
		dispatcher: d,
		logger:     logger,
		conns:      noopConnObserver{},
	}
	if cfg.MaxConnections > 0 {
		s.sem = semaphore.NewWeighted(int64(cfg.MaxConnections))
	}
	if cfg.AcceptRate > 0 {
		burst := cfg.AcceptBurst
		if burst < 1 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(rate.Limit(cfg.AcceptRate), burst)
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ListenAndServe binds cfg.Addr and serves until Shutdown, ctx
// cancellation or an accept error.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.cfg.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln. It returns nil after Shutdown or ctx
// cancellation, and the accept error otherwise.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	loopCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		_ = ln.Close()
		return nil
	}
	s.ln = ln
	s.stopAccept = cancel
	// The accept loop counts in wg; connection Adds happen while it does.
	s.wg.Add(1)
	s.mu.Unlock()
	defer s.wg.Done()
	s.running.Store(true)

	stop := context.AfterFunc(ctx, func() { _ = s.closeListener() })
	defer stop()

	s.logger.Info("http server listening",
		"address", ln.Addr().String(),
		"max_connections", s.cfg.MaxConnections,
		"accept_rate", s.cfg.AcceptRate)

	return s.acceptLoop(loopCtx, ctx, ln)
}

// Addr returns the listener address, or nil before Serve.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

// Shutdown stops accepting and waits for in-flight connections, bounded
// by ctx.
func (s *Server) Shutdown(ctx context.Context) error {
	s.running.Store(false)
	s.mu.Lock()
	s.closed = true
	if s.stopAccept != nil {
		s.stopAccept()
	}
	s.mu.Unlock()
	err := s.closeListener()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}

	s.logger.Info("http server stopped")
	return err
}

func (s *Server) closeListener() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return nil
	}
	err := s.ln.Close()
	if errors.Is(err, net.ErrClosed) {
		return nil
	}
	return err
}

// acceptLoop paces and caps accepts under loopCtx, which Shutdown cancels.
// Connections are served under connCtx so in-flight requests finish.
func (s *Server) acceptLoop(loopCtx, connCtx context.Context, ln net.Listener) error {
	for {
		if s.limiter != nil {
			if err := s.limiter.Wait(loopCtx); err != nil {
				return nil
			}
		}
		if s.sem != nil {
			if err := s.sem.Acquire(loopCtx, 1); err != nil {
				return nil
			}
		}

		c, err := ln.Accept()
		if err != nil {
			s.release()
			if !s.running.Load() || errors.Is(err, net.ErrClosed) {
				return nil
			}
			select {
			case <-loopCtx.Done():
				return nil
			default:
			}
			s.logger.Error("accept failed", "error", err)
			return fmt.Errorf("accept: %w", err)
		}

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer s.release()
			s.serveConn(connCtx, c)
		}()
	}
}

func (s *Server) release() {
	if s.sem != nil {
		s.sem.Release(1)
	}
}

func (s *Server) serveConn(ctx context.Context, c net.Conn) {
	s.conns.ConnOpened()
	defer s.conns.ConnClosed()
	defer c.Close()

	remote := c.RemoteAddr().String()
	log := s.logger.With("remote", remote)
	ctx = logger.WithLogger(ctx, log)

	if s.cfg.ReadTimeout > 0 {
		if err := c.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout)); err != nil {
			return
		}
	}

	resp, err := s.dispatcher.Dispatch(ctx, bufio.NewReader(c))
	if err != nil {
		var netErr net.Error
		if !errors.As(err, &netErr) || !netErr.Timeout() {
			log.Debug("connection read error", "error", err)
			return
		}
		log.Debug("connection timed out")
		resp = s.dispatcher.Reject(ctx, KindTimeout, "request not received within read timeout")
	}
	s.writeResponse(log, c, resp)
}

func (s *Server) writeResponse(log *slog.Logger, c net.Conn, resp *http1.Response) {
	var deadline time.Time
	if s.cfg.WriteTimeout > 0 {
		deadline = time.Now().Add(s.cfg.WriteTimeout)
	}
	if err := c.SetWriteDeadline(deadline); err != nil {
		return
	}
	if _, err := resp.WriteTo(c); err != nil {
		log.Debug("connection write error", "error", err)
		return
	}

	// Half-close so the client reads the whole response before the socket
	// goes away.
	if hc, ok := c.(interface{ CloseWrite() error }); ok {
		_ = hc.CloseWrite()
	}
}
