package httpserver

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/raynardj/readly/internal/constants"
	"github.com/raynardj/readly/internal/logger"
	"github.com/raynardj/readly/internal/metrics"
	"github.com/raynardj/readly/internal/tlsconfig"
)

// Server binds a listening socket and fans accepted connections out
// across n_workers worker goroutines.
type Server struct {
	Host     string
	Port     int
	NWorkers int

	router      *Router
	middlewares []Middleware
	session     *SessionMiddleware
	tlsConfig   *tls.Config
	protocol    string
	log         *logger.Logger
	metrics     *metrics.Registry

	listener net.Listener
}

// Option configures a Server at construction time.
type Option func(*Server)

// WithTLS loads a certificate+key pair and enables HTTPS
func WithTLS(certFile, keyFile string) Option {
	return func(s *Server) {
		cfg, err := tlsconfig.LoadServer(certFile, keyFile)
		if err != nil {
			s.log.Error("failed to load TLS material", logger.Err(err))
			return
		}
		s.tlsConfig = cfg
		s.protocol = "https"
	}
}

// WithLogger overrides the server's logger (default: logger.Default).
func WithLogger(log *logger.Logger) Option {
	return func(s *Server) { s.log = log }
}

// WithMetrics overrides the server's metrics registry (default: a fresh
// metrics.New()).
func WithMetrics(reg *metrics.Registry) Option {
	return func(s *Server) { s.metrics = reg }
}

// New builds a Server bound to host:port with the given worker count
// (default 2), applying opts in order.
func New(host string, port int, nWorkers int, opts ...Option) *Server {
	if nWorkers <= 0 {
		nWorkers = 2
	}
	s := &Server{
		Host:     host,
		Port:     port,
		NWorkers: nWorkers,
		router:   NewRouter(),
		protocol: "http",
		log:      logger.Default,
		metrics:  metrics.New(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get registers a GET handler.
func (s *Server) Get(path string, handler Handler) { s.router.Get(path, handler) }

// Post registers a POST handler.
func (s *Server) Post(path string, handler Handler) { s.router.Post(path, handler) }

// UseSession registers the session middleware keyed by secret. It must
// be called before ListenAndServe; the route registry and middleware
// list are read-only once serving starts. secret must be non-empty: an
// empty HMAC key would sign every session envelope with the same
// all-zero-length key, so UseSession refuses to register one.
func (s *Server) UseSession(secret []byte, cookieName string) (*SessionMiddleware, error) {
	if len(secret) == 0 {
		return nil, fmt.Errorf("httpserver.UseSession: secret must not be empty")
	}
	sm := NewSessionMiddleware(secret, cookieName, s.log)
	s.session = sm
	s.middlewares = append(s.middlewares, sm)
	return sm, nil
}

// Use appends an arbitrary middleware to the chain, in registration order.
func (s *Server) Use(mw Middleware) {
	s.middlewares = append(s.middlewares, mw)
}

// CookieName returns the session middleware's cookie name, or "session"
// if none was registered.
func (s *Server) CookieName() string {
	if s.session == nil {
		return constants.DefaultCookieName
	}
	return s.session.cookieName
}

// ListenAndServe binds the listening socket, spawns NWorkers worker
// goroutines each running an accept-dispatch loop, and blocks until ctx
// is canceled. On cancellation it closes the listener, drains in-flight
// workers, and returns nil. A bind failure returns a non-nil error
// without starting any worker.
func (s *Server) ListenAndServe(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.Host, s.Port)
	lc := net.ListenConfig{}
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("httpserver.ListenAndServe: bind %s: %w", addr, err)
	}
	s.listener = ln

	s.log.Info("server listening",
		logger.String("protocol", s.protocol),
		logger.String("addr", addr),
		logger.Int("workers", s.NWorkers),
	)

	dispatcher := &Dispatcher{
		Router:      s.router,
		Middlewares: s.middlewares,
		TLSConfig:   s.tlsConfig,
		Protocol:    s.protocol,
		Log:         s.log,
		Metrics:     s.metrics,
	}

	var wg sync.WaitGroup
	for i := 0; i < s.NWorkers; i++ {
		wg.Add(1)
		workerID := i
		go func() {
			defer wg.Done()
			s.runWorker(workerID, ln, dispatcher)
		}()
	}

	<-ctx.Done()
	ln.Close()

	drained := make(chan struct{})
	go func() {
		wg.Wait()
		close(drained)
	}()
	select {
	case <-drained:
	case <-time.After(constants.ShutdownDrainTimeout):
		s.log.Warn("shutdown drain timed out, workers may still be in flight")
	}
	return nil
}

// runWorker is one of NWorkers accept-dispatch loops: accept one
// connection, hand it to the dispatcher, catch and log any failure
// without terminating the worker.
func (s *Server) runWorker(id int, ln net.Listener, dispatcher *Dispatcher) {
	s.metrics.ActiveWorkers.Inc()
	defer s.metrics.ActiveWorkers.Dec()

	log := s.log.With(logger.Int("worker", id))
	for {
		conn, err := ln.Accept()
		if err != nil {
			// ln.Close() from ListenAndServe's shutdown path lands here.
			log.Info("worker stopping", logger.Err(err))
			return
		}
		s.dispatchSafely(dispatcher, conn, log)
	}
}

// dispatchSafely recovers any panic escaping Dispatch so one bad
// connection never takes down a worker's accept loop.
func (s *Server) dispatchSafely(dispatcher *Dispatcher, conn net.Conn, log *logger.Logger) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("worker recovered from dispatch panic", logger.String("recover", fmt.Sprintf("%v", r)))
			conn.Close()
		}
	}()
	dispatcher.Dispatch(conn)
}
