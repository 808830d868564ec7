package app

import (
	"context"
	"fmt"
)

// HookEvent represents a lifecycle event of the serving process
type HookEvent string

const (
	HookBeforeStart HookEvent = "before_server_start"
	HookAfterStart  HookEvent = "after_server_start"
	HookBeforeStop  HookEvent = "before_server_stop"
	HookAfterStop   HookEvent = "after_server_stop"
)

// ValidHookEvents lists all valid lifecycle events
var ValidHookEvents = []HookEvent{HookBeforeStart, HookAfterStart, HookBeforeStop, HookAfterStop}

// IsValid checks if a hook event is valid
func (e HookEvent) IsValid() bool {
	for _, valid := range ValidHookEvents {
		if e == valid {
			return true
		}
	}
	return false
}

// ParseHookEvent parses a string into a HookEvent, returning an error if invalid
func ParseHookEvent(s string) (HookEvent, error) {
	event := HookEvent(s)
	if !event.IsValid() {
		return "", fmt.Errorf("invalid hook event %q, valid events: %v", s, ValidHookEvents)
	}
	return event, nil
}

// HookFunc is a callback bound to a lifecycle event. It receives the built
// server, so hooks can reach the container, the settings and the listen
// address. A before-start hook returning an error aborts startup; errors
// from stop hooks are logged and shutdown proceeds.
type HookFunc func(ctx context.Context, s *Server) error

// hookRegistration pairs an event with its handler in registration order
type hookRegistration struct {
	event HookEvent
	fn    HookFunc
}
