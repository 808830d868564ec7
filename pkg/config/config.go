// Package config defines the settings consumed by a microbase service and
// the layered store that resolves them.
//
// Precedence, lowest to highest: built-in defaults, an optional YAML file,
// caller-supplied settings objects in call order, environment variables.
package config

import (
	"fmt"

	"github.com/microbase/go-microbase/pkg/logging"
)

// EnvPrefix is the prefix for all environment variables, e.g.
// MICROBASE_SERVER_PORT or MICROBASE_AUTH_USER_SECRET.
const EnvPrefix = "MICROBASE"

// Settings represents the full configuration of a service
type Settings struct {
	Server    ServerSettings    `yaml:"server" envconfig:"SERVER"`
	Logging   logging.Config    `yaml:"logging" envconfig:"LOGGING"`
	Auth      AuthSettings      `yaml:"auth" envconfig:"AUTH"`
	CORS      CORSSettings      `yaml:"cors" envconfig:"CORS"`
	RateLimit RateLimitSettings `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// ServerSettings contains HTTP server configuration
type ServerSettings struct {
	Name string `yaml:"name" envconfig:"NAME"`
	Host string `yaml:"host" envconfig:"HOST"`
	Port int    `yaml:"port" envconfig:"PORT"`
	// Debug switches the engine into debug mode with verbose request logging
	Debug bool `yaml:"debug" envconfig:"DEBUG"`
	// Workers caps the number of scheduler threads (0 leaves the runtime default)
	Workers int `yaml:"workers" envconfig:"WORKERS"`
	// ShutdownTimeout bounds graceful shutdown (seconds)
	ShutdownTimeout int `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT"`
}

// AuthSettings contains the signing secrets for the two token classes.
// An empty secret leaves that class unconfigured; the auth gate rejects
// tokens of an unconfigured class.
type AuthSettings struct {
	UserSecret    string `yaml:"user_secret" envconfig:"USER_SECRET"`
	ServiceSecret string `yaml:"service_secret" envconfig:"SERVICE_SECRET"`
}

// CORSSettings contains CORS middleware configuration
type CORSSettings struct {
	Enabled          bool     `yaml:"enabled" envconfig:"ENABLED"`
	AllowedOrigins   []string `yaml:"allowed_origins" envconfig:"ALLOWED_ORIGINS"`
	AllowedMethods   []string `yaml:"allowed_methods" envconfig:"ALLOWED_METHODS"`
	AllowedHeaders   []string `yaml:"allowed_headers" envconfig:"ALLOWED_HEADERS"`
	ExposedHeaders   []string `yaml:"exposed_headers" envconfig:"EXPOSED_HEADERS"`
	AllowCredentials bool     `yaml:"allow_credentials" envconfig:"ALLOW_CREDENTIALS"`
	MaxAge           int      `yaml:"max_age" envconfig:"MAX_AGE"` // seconds
}

// RateLimitSettings contains per-client request rate limiting configuration
type RateLimitSettings struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED"`
	RPS     float64 `yaml:"rps" envconfig:"RPS"`
	Burst   int     `yaml:"burst" envconfig:"BURST"`
}

// Default returns the built-in settings, the lowest layer of the chain
func Default() Settings {
	return Settings{
		Server: ServerSettings{
			Name:            "microbase",
			Host:            "0.0.0.0",
			Port:            8080,
			Debug:           false,
			Workers:         0,
			ShutdownTimeout: 30,
		},
		Logging: logging.DefaultConfig(),
		CORS: CORSSettings{
			Enabled:          false,
			AllowedOrigins:   []string{"*"},
			AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
			ExposedHeaders:   nil,
			AllowCredentials: false,
			MaxAge:           300,
		},
		RateLimit: RateLimitSettings{
			Enabled: false,
			RPS:     10,
			Burst:   20,
		},
	}
}

// Validate validates the settings
func (s *Settings) Validate() error {
	if s.Server.Port < 1 || s.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", s.Server.Port)
	}

	if s.Server.Workers < 0 {
		return fmt.Errorf("invalid worker count: %d", s.Server.Workers)
	}

	if s.Server.ShutdownTimeout < 0 {
		return fmt.Errorf("invalid shutdown timeout: %d", s.Server.ShutdownTimeout)
	}

	if s.RateLimit.Enabled {
		if s.RateLimit.RPS <= 0 {
			return fmt.Errorf("rate limiting enabled with invalid rps: %g", s.RateLimit.RPS)
		}
		if s.RateLimit.Burst < 1 {
			return fmt.Errorf("rate limiting enabled with invalid burst: %d", s.RateLimit.Burst)
		}
	}

	return nil
}

// Address returns the server listen address
func (s *ServerSettings) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}
