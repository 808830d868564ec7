package config

import (
	"fmt"
	"os"
	"sync"

	"dario.cat/mergo"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// Store accumulates configuration layers and resolves them on demand.
//
// The accumulated state holds defaults, the optional file layer and every
// merged settings object. Environment variables are applied at Resolve time
// so they always win, no matter when a layer was added.
type Store struct {
	mu     sync.Mutex
	merged Settings
}

// NewStore returns a Store seeded with the built-in defaults
func NewStore() *Store {
	return &Store{merged: Default()}
}

// LoadFile overlays a YAML file onto the current state. A missing file is
// not an error; defaults and environment variables still apply.
func (s *Store) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := yaml.Unmarshal(data, &s.merged); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	return nil
}

// Merge overlays a caller-supplied settings object onto the current state.
// Non-zero fields of o win over earlier layers; a later Merge wins over an
// earlier one. Because false is the zero value, a boolean flag can be raised
// here but only lowered via the file or environment layers.
func (s *Store) Merge(o Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := mergo.Merge(&s.merged, o, mergo.WithOverride); err != nil {
		return fmt.Errorf("failed to merge settings: %w", err)
	}
	return nil
}

// Resolve applies environment variables on top of the accumulated state,
// validates the result and returns it. The accumulated state is not
// modified, so Resolve may be called repeatedly as layers arrive.
func (s *Store) Resolve() (*Settings, error) {
	s.mu.Lock()
	cfg := s.merged
	s.mu.Unlock()

	// Without default tags this only touches fields whose variable is set
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment variables: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}
