// Package microbase bootstraps small HTTP services: layered configuration,
// a shared dependency container, lifecycle hooks, phased middlewares and
// bearer-token auth around a gin engine.
//
// The root package re-exports the surface needed to assemble a service;
// the building blocks live in the pkg subpackages.
//
//	a, err := microbase.New(
//		microbase.WithPrefix("/v1"),
//		microbase.WithConfigFile("config.yaml"),
//	)
//	...
//	a.AddRoute(microbase.Route{URI: "/widgets", Handler: listWidgets})
//	...
//	err = a.Run(ctx)
package microbase

import (
	"go.uber.org/zap"

	"github.com/microbase/go-microbase/pkg/app"
	"github.com/microbase/go-microbase/pkg/config"
	"github.com/microbase/go-microbase/pkg/container"
)

// Version is the library version
const Version = app.Version

// Core types, aliased so most services only import this package.
type (
	Application     = app.Application
	Server          = app.Server
	Option          = app.Option
	Route           = app.Route
	HookEvent       = app.HookEvent
	HookFunc        = app.HookFunc
	MiddlewarePhase = app.MiddlewarePhase
	HealthStatus    = app.HealthStatus

	Settings  = config.Settings
	Container = container.Container
)

// Lifecycle events, in firing order.
const (
	HookBeforeStart = app.HookBeforeStart
	HookAfterStart  = app.HookAfterStart
	HookBeforeStop  = app.HookBeforeStop
	HookAfterStop   = app.HookAfterStop
)

// Middleware phases.
const (
	PhaseRequest  = app.PhaseRequest
	PhaseResponse = app.PhaseResponse
)

var (
	ErrAlreadyBuilt           = app.ErrAlreadyBuilt
	ErrAlreadyStarted         = app.ErrAlreadyStarted
	ErrInvalidHookEvent       = app.ErrInvalidHookEvent
	ErrInvalidMiddlewarePhase = app.ErrInvalidMiddlewarePhase
	ErrNilHandler             = app.ErrNilHandler
)

// New creates an application; see app.New
func New(opts ...Option) (*Application, error) {
	return app.New(opts...)
}

// WithPrefix mounts all routes under a URL prefix
func WithPrefix(prefix string) Option {
	return app.WithPrefix(prefix)
}

// WithConfigFile layers a YAML settings file above the defaults
func WithConfigFile(path string) Option {
	return app.WithConfigFile(path)
}

// WithSettings layers a settings object above the config file
func WithSettings(s Settings) Option {
	return app.WithSettings(s)
}

// WithLogger replaces the logger built from the logging settings
func WithLogger(logger *zap.Logger) Option {
	return app.WithLogger(logger)
}

// DefaultSettings returns the built-in settings layer
func DefaultSettings() Settings {
	return config.Default()
}
