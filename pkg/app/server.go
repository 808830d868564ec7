package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/microbase/go-microbase/pkg/auth"
	"github.com/microbase/go-microbase/pkg/config"
	"github.com/microbase/go-microbase/pkg/container"
	"github.com/microbase/go-microbase/pkg/httputil"
	"github.com/microbase/go-microbase/pkg/middleware"
)

// HealthStatus is the response body of the implicit health endpoint
type HealthStatus struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Version string `json:"version"`
}

// serverDeps carries everything a built application hands to its server
type serverDeps struct {
	cfg         *config.Settings
	logger      *zap.Logger
	container   *container.Container
	auth        *auth.Manager
	prefix      string
	routes      []Route
	hooks       []hookRegistration
	middlewares []middlewareRegistration
}

// Server is the immutable runtime produced by Application.Build. Its route
// table, middleware chain and settings are frozen; only the shared
// container stays mutable.
type Server struct {
	cfg       *config.Settings
	logger    *zap.Logger
	engine    *gin.Engine
	container *container.Container
	auth      *auth.Manager
	prefix    string

	hooks      map[HookEvent][]HookFunc
	routeTable []string

	mu         sync.Mutex
	addr       string
	httpServer *http.Server

	started  atomic.Bool
	stopOnce sync.Once
	stopCh   chan struct{}
}

func newServer(deps serverDeps) (*Server, error) {
	s := &Server{
		cfg:       deps.cfg,
		logger:    deps.logger.Named("server"),
		container: deps.container,
		auth:      deps.auth,
		prefix:    deps.prefix,
		hooks:     make(map[HookEvent][]HookFunc),
		stopCh:    make(chan struct{}),
	}
	for _, reg := range deps.hooks {
		s.hooks[reg.event] = append(s.hooks[reg.event], reg.fn)
	}

	if deps.cfg.Server.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.RedirectTrailingSlash = false
	engine.Use(gin.Recovery())
	engine.Use(middleware.RequestID())
	engine.Use(middleware.Logger(deps.logger.Named("http")))
	if deps.cfg.CORS.Enabled {
		engine.Use(cors.New(cors.Config{
			AllowOrigins:     deps.cfg.CORS.AllowedOrigins,
			AllowMethods:     deps.cfg.CORS.AllowedMethods,
			AllowHeaders:     deps.cfg.CORS.AllowedHeaders,
			ExposeHeaders:    deps.cfg.CORS.ExposedHeaders,
			AllowCredentials: deps.cfg.CORS.AllowCredentials,
			MaxAge:           time.Duration(deps.cfg.CORS.MaxAge) * time.Second,
		}))
	}
	if deps.cfg.RateLimit.Enabled {
		limiter := middleware.NewRateLimiter(deps.cfg.RateLimit, deps.logger)
		engine.Use(limiter.Middleware())
	}
	engine.Use(middleware.WithContainer(deps.container))
	if pipeline := buildPipeline(deps.middlewares); pipeline != nil {
		engine.Use(pipeline)
	}
	s.engine = engine

	if err := s.registerRoutes(deps.routes); err != nil {
		return nil, err
	}
	return s, nil
}

// registerRoutes mounts the implicit health endpoint first, then the
// declared routes, all under the configured prefix. The engine panics on
// conflicting registrations; the panic is surfaced as a build error.
func (s *Server) registerRoutes(routes []Route) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("route registration failed: %v", r)
		}
	}()

	health := Route{URI: "/health", Handler: s.handleHealth, Name: "health"}
	seen := make(map[string]bool)
	for _, route := range append([]Route{health}, routes...) {
		if route.Handler == nil {
			return fmt.Errorf("%w for route %q", ErrNilHandler, route.URI)
		}
		uri := joinPrefix(s.prefix, normalizeURI(route.URI))
		for _, method := range route.methodsOrDefault() {
			s.engine.Handle(method, uri, route.Handler)
			if !route.StrictSlashes && uri != "/" {
				s.engine.Handle(method, uri+"/", route.Handler)
			}
		}
		if !seen[uri] {
			seen[uri] = true
			s.routeTable = append(s.routeTable, uri)
		}
	}
	return nil
}

func (s *Server) handleHealth(c *gin.Context) {
	httputil.Data(c, HealthStatus{
		Status:  "ok",
		Service: s.cfg.Server.Name,
		Version: Version,
	})
}

// Run binds the listener and serves until the context is cancelled, a
// SIGINT or SIGTERM arrives, Shutdown is called, or the listener fails.
// Lifecycle hooks fire around the listener: before-start hooks run first
// and abort startup on error, stop hooks run during the graceful stop
// with errors logged. A server runs at most once.
func (s *Server) Run(ctx context.Context) error {
	if !s.started.CompareAndSwap(false, true) {
		return ErrAlreadyStarted
	}

	if s.cfg.Server.Workers > 0 {
		runtime.GOMAXPROCS(s.cfg.Server.Workers)
		s.logger.Info("scheduler threads capped", zap.Int("workers", s.cfg.Server.Workers))
	}

	if err := s.fireHooks(ctx, HookBeforeStart); err != nil {
		return err
	}

	listener, err := net.Listen("tcp", s.cfg.Server.Address())
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.cfg.Server.Address(), err)
	}

	s.mu.Lock()
	s.addr = listener.Addr().String()
	s.httpServer = &http.Server{
		Handler:      s.engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	s.mu.Unlock()

	serveErr := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", zap.String("address", s.Addr()))
		if err := s.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	var runErr error
	if err := s.fireHooks(ctx, HookAfterStart); err != nil {
		s.logger.Error("after-start hook failed, shutting down", zap.Error(err))
		runErr = err
	} else {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case <-ctx.Done():
			s.logger.Info("context cancelled, shutting down")
		case sig := <-quit:
			s.logger.Info("shutdown signal received", zap.String("signal", sig.String()))
		case <-s.stopCh:
			s.logger.Info("shutdown requested")
		case err := <-serveErr:
			s.logger.Error("server failed", zap.Error(err))
			runErr = err
		}
	}

	return s.stop(runErr)
}

// stop drives the graceful stop sequence and returns the error Run should
// report
func (s *Server) stop(runErr error) error {
	ctx := context.Background()
	cancel := context.CancelFunc(func() {})
	if timeout := time.Duration(s.cfg.Server.ShutdownTimeout) * time.Second; timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, timeout)
	}
	defer cancel()

	s.fireHooksLogged(ctx, HookBeforeStop)
	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Error("graceful shutdown failed", zap.Error(err))
		if runErr == nil {
			runErr = err
		}
	}
	s.fireHooksLogged(ctx, HookAfterStop)

	s.logger.Info("server stopped")
	return runErr
}

// Shutdown stops a running server gracefully, waiting for in-flight
// requests up to the context deadline. Calling it on a server that never
// ran is a no-op.
func (s *Server) Shutdown(ctx context.Context) error {
	s.stopOnce.Do(func() { close(s.stopCh) })

	s.mu.Lock()
	httpServer := s.httpServer
	s.mu.Unlock()
	if httpServer == nil {
		return nil
	}
	return httpServer.Shutdown(ctx)
}

func (s *Server) fireHooks(ctx context.Context, event HookEvent) error {
	for _, fn := range s.hooks[event] {
		if err := fn(ctx, s); err != nil {
			return fmt.Errorf("%s hook failed: %w", event, err)
		}
	}
	return nil
}

// fireHooksLogged runs stop hooks; failures must not interrupt shutdown
func (s *Server) fireHooksLogged(ctx context.Context, event HookEvent) {
	for _, fn := range s.hooks[event] {
		if err := fn(ctx, s); err != nil {
			s.logger.Error("lifecycle hook failed",
				zap.String("event", string(event)),
				zap.Error(err))
		}
	}
}

// Handler exposes the engine, primarily for tests driving requests through
// httptest without a listener
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Routes returns the canonical URIs of the route table in registration
// order, health endpoint first
func (s *Server) Routes() []string {
	return append([]string(nil), s.routeTable...)
}

// Addr returns the actual listen address once the server runs, and the
// configured address before that
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.addr != "" {
		return s.addr
	}
	return s.cfg.Server.Address()
}

// Container returns the shared object container
func (s *Server) Container() *container.Container {
	return s.container
}

// Auth returns the token manager configured from the auth settings
func (s *Server) Auth() *auth.Manager {
	return s.auth
}

// Settings returns a copy of the settings the server was built with
func (s *Server) Settings() config.Settings {
	return *s.cfg
}
