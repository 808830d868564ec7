package app

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/microbase/go-microbase/pkg/auth"
	"github.com/microbase/go-microbase/pkg/config"
	"github.com/microbase/go-microbase/pkg/container"
	"github.com/microbase/go-microbase/pkg/logging"
)

// Version is the library version reported by the health endpoint
const Version = "0.1.0"

var (
	// ErrAlreadyBuilt is returned when registering on or rebuilding an
	// application that has already produced a server
	ErrAlreadyBuilt = errors.New("application already built")
	// ErrAlreadyStarted is returned when Run is called twice on a server
	ErrAlreadyStarted = errors.New("server already started")
	// ErrInvalidHookEvent is returned for hook events outside ValidHookEvents
	ErrInvalidHookEvent = errors.New("invalid hook event")
	// ErrInvalidMiddlewarePhase is returned for phases outside ValidMiddlewarePhases
	ErrInvalidMiddlewarePhase = errors.New("invalid middleware phase")
	// ErrNilHandler is returned when a route, hook or middleware handler is nil
	ErrNilHandler = errors.New("nil handler")
)

// Application collects configuration layers, routes, hooks, middlewares and
// shared objects, then assembles them into an immutable Server with Build.
// Registration methods are safe for concurrent use and fail with
// ErrAlreadyBuilt once the server has been built.
type Application struct {
	mu sync.Mutex

	store     *config.Store
	logger    *zap.Logger
	ownLogger bool
	container *container.Container

	prefix      string
	configFile  string
	initial     []config.Settings
	routes      []Route
	hooks       []hookRegistration
	middlewares []middlewareRegistration

	built bool
}

// Option customizes an Application during New
type Option func(*Application)

// WithPrefix mounts every route, including the health endpoint, under the
// given URL prefix
func WithPrefix(prefix string) Option {
	return func(a *Application) {
		a.prefix = normalizePrefix(prefix)
	}
}

// WithConfigFile loads settings from a YAML file on top of the defaults.
// A missing file is ignored so deployments can run on defaults and
// environment variables alone.
func WithConfigFile(path string) Option {
	return func(a *Application) {
		a.configFile = path
	}
}

// WithSettings merges a settings object during construction. It layers
// above the config file regardless of option order; use AddConfig for
// further layers.
func WithSettings(s config.Settings) Option {
	return func(a *Application) {
		a.initial = append(a.initial, s)
	}
}

// WithLogger replaces the logger built from the logging settings. The
// application will not reconfigure it at build time.
func WithLogger(logger *zap.Logger) Option {
	return func(a *Application) {
		a.logger = logger
	}
}

// New creates an application with default settings, applying options in a
// fixed precedence: defaults, then the config file, then settings objects.
// Environment variables are applied on top of all layers each time the
// settings are resolved.
func New(opts ...Option) (*Application, error) {
	a := &Application{
		store:     config.NewStore(),
		container: container.New(),
	}
	for _, opt := range opts {
		opt(a)
	}

	if a.configFile != "" {
		if err := a.store.LoadFile(a.configFile); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}
	for _, s := range a.initial {
		if err := a.store.Merge(s); err != nil {
			return nil, fmt.Errorf("failed to merge settings: %w", err)
		}
	}
	a.initial = nil

	if a.logger == nil {
		cfg, err := a.store.Resolve()
		if err != nil {
			return nil, err
		}
		logger, err := logging.NewLogger(cfg.Logging)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize logging: %w", err)
		}
		a.logger = logger
		a.ownLogger = true
	}
	return a, nil
}

// AddConfig merges a settings object on top of the layers accumulated so
// far. Later objects win over earlier ones; environment variables win over
// all objects.
func (a *Application) AddConfig(s config.Settings) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.built {
		return ErrAlreadyBuilt
	}
	return a.store.Merge(s)
}

// AddRoute registers a route declaration. Handlers are validated and bound
// at build time.
func (a *Application) AddRoute(r Route) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.built {
		return ErrAlreadyBuilt
	}
	a.routes = append(a.routes, r)
	return nil
}

// AddRoutes registers several route declarations in order
func (a *Application) AddRoutes(routes []Route) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.built {
		return ErrAlreadyBuilt
	}
	a.routes = append(a.routes, routes...)
	return nil
}

// AddServerHook binds a callback to a lifecycle event. Hooks for the same
// event fire in registration order.
func (a *Application) AddServerHook(event HookEvent, fn HookFunc) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.built {
		return ErrAlreadyBuilt
	}
	if !event.IsValid() {
		return fmt.Errorf("%w: %q, valid events: %v", ErrInvalidHookEvent, event, ValidHookEvents)
	}
	if fn == nil {
		return fmt.Errorf("%w for hook event %q", ErrNilHandler, event)
	}
	a.hooks = append(a.hooks, hookRegistration{event: event, fn: fn})
	return nil
}

// AddMiddleware attaches a handler to a processing phase. Middlewares of
// the same phase run in registration order.
func (a *Application) AddMiddleware(phase MiddlewarePhase, fn gin.HandlerFunc) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.built {
		return ErrAlreadyBuilt
	}
	if !phase.IsValid() {
		return fmt.Errorf("%w: %q, valid phases: %v", ErrInvalidMiddlewarePhase, phase, ValidMiddlewarePhases)
	}
	if fn == nil {
		return fmt.Errorf("%w for middleware phase %q", ErrNilHandler, phase)
	}
	a.middlewares = append(a.middlewares, middlewareRegistration{phase: phase, fn: fn})
	return nil
}

// AddToContext stores a named object in the shared container, immediately
// visible to every holder of the container. Unlike the other registration
// methods it stays usable after Build.
func (a *Application) AddToContext(name string, obj any) {
	a.container.Set(name, obj)
}

// Container returns the shared object container
func (a *Application) Container() *container.Container {
	return a.container
}

// Logger returns the application logger
func (a *Application) Logger() *zap.Logger {
	return a.logger
}

// Settings resolves the effective settings from the current layers and the
// environment, without freezing them
func (a *Application) Settings() (*config.Settings, error) {
	return a.store.Resolve()
}

// Build resolves the final settings and assembles the immutable server:
// engine, middleware chain, auth manager and route table. After a
// successful build the application rejects further registration.
func (a *Application) Build() (*Server, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.built {
		return nil, ErrAlreadyBuilt
	}

	cfg, err := a.store.Resolve()
	if err != nil {
		return nil, err
	}

	if a.ownLogger {
		logger, err := logging.NewLogger(cfg.Logging)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize logging: %w", err)
		}
		a.logger = logger
	}

	manager, err := buildAuthManager(cfg, a.logger)
	if err != nil {
		return nil, err
	}
	a.container.Set(auth.ManagerName, manager)

	srv, err := newServer(serverDeps{
		cfg:         cfg,
		logger:      a.logger,
		container:   a.container,
		auth:        manager,
		prefix:      a.prefix,
		routes:      a.routes,
		hooks:       a.hooks,
		middlewares: a.middlewares,
	})
	if err != nil {
		return nil, err
	}

	a.built = true
	return srv, nil
}

// Run builds the application and serves until the context is cancelled or
// a termination signal arrives
func (a *Application) Run(ctx context.Context) error {
	srv, err := a.Build()
	if err != nil {
		return err
	}
	return srv.Run(ctx)
}

// buildAuthManager configures token verification from the auth settings.
// Empty secrets are legal; the matching token class is simply rejected at
// request time.
func buildAuthManager(cfg *config.Settings, logger *zap.Logger) (*auth.Manager, error) {
	manager := auth.NewManager()
	secrets := map[auth.SignatureType]string{
		auth.SignatureUser:    cfg.Auth.UserSecret,
		auth.SignatureService: cfg.Auth.ServiceSecret,
	}
	for _, st := range auth.ValidSignatureTypes {
		secret := secrets[st]
		if secret == "" {
			logger.Warn("token secret not configured, tokens of this class will be rejected",
				zap.String("signature_type", string(st)))
			continue
		}
		if err := manager.SetSignature(secret, st); err != nil {
			return nil, fmt.Errorf("failed to configure auth: %w", err)
		}
	}
	return manager, nil
}
