// Package httputil provides the JSON response helpers shared by handlers
// and middlewares. Error responses have a stable {"code","message"} shape.
package httputil

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ErrorBody is the wire shape of every error response
type ErrorBody struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Data writes a 200 response with a raw payload
func Data(c *gin.Context, data any) {
	c.JSON(http.StatusOK, data)
}

// JSON writes a response with a raw payload and an arbitrary status
func JSON(c *gin.Context, code int, data any) {
	c.JSON(code, data)
}

// Error writes a structured error body. An empty message defaults to the
// standard status text for the code.
func Error(c *gin.Context, code int, message string) {
	if message == "" {
		message = http.StatusText(code)
	}
	c.JSON(code, ErrorBody{Code: code, Message: message})
}

// AbortError writes a structured error body and aborts the handler chain.
// For use inside middlewares.
func AbortError(c *gin.Context, code int, message string) {
	Error(c, code, message)
	c.Abort()
}
