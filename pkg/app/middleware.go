package app

import (
	"fmt"

	"github.com/gin-gonic/gin"
)

// MiddlewarePhase represents the processing phase a middleware attaches to
type MiddlewarePhase string

const (
	// PhaseRequest middlewares run before the route handler
	PhaseRequest MiddlewarePhase = "request"
	// PhaseResponse middlewares run after the route handler
	PhaseResponse MiddlewarePhase = "response"
)

// ValidMiddlewarePhases lists all valid middleware phases
var ValidMiddlewarePhases = []MiddlewarePhase{PhaseRequest, PhaseResponse}

// IsValid checks if a middleware phase is valid
func (p MiddlewarePhase) IsValid() bool {
	for _, valid := range ValidMiddlewarePhases {
		if p == valid {
			return true
		}
	}
	return false
}

// ParseMiddlewarePhase parses a string into a MiddlewarePhase, returning an
// error if invalid
func ParseMiddlewarePhase(s string) (MiddlewarePhase, error) {
	phase := MiddlewarePhase(s)
	if !phase.IsValid() {
		return "", fmt.Errorf("invalid middleware phase %q, valid phases: %v", s, ValidMiddlewarePhases)
	}
	return phase, nil
}

// middlewareRegistration pairs a phase with its handler in registration order
type middlewareRegistration struct {
	phase MiddlewarePhase
	fn    gin.HandlerFunc
}

// buildPipeline assembles registered middlewares into a single engine
// handler. Request-phase functions run in registration order before the
// route handler; aborting skips the remaining request functions and the
// handler. Response-phase functions run in registration order after the
// handler, aborted or not. Phase middlewares must not call c.Next
// themselves; the pipeline drives the chain.
func buildPipeline(regs []middlewareRegistration) gin.HandlerFunc {
	var request, response []gin.HandlerFunc
	for _, reg := range regs {
		switch reg.phase {
		case PhaseRequest:
			request = append(request, reg.fn)
		case PhaseResponse:
			response = append(response, reg.fn)
		}
	}
	if len(request) == 0 && len(response) == 0 {
		return nil
	}

	return func(c *gin.Context) {
		for _, fn := range request {
			fn(c)
			if c.IsAborted() {
				break
			}
		}
		if !c.IsAborted() {
			c.Next()
		}
		for _, fn := range response {
			fn(c)
		}
	}
}
