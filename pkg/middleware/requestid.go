package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RequestIDHeader carries the request id on requests and responses
const RequestIDHeader = "X-Request-ID"

// requestIDKey is the gin context key the request id is stored under
const requestIDKey = "microbase/request_id"

// RequestID assigns every request an id. An inbound X-Request-ID is
// honored so ids survive proxy hops; otherwise a fresh UUID is generated.
// The id is echoed on the response and available via RequestIDFrom.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}

		c.Set(requestIDKey, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

// RequestIDFrom returns the id assigned to the request, empty when the
// request did not pass through RequestID.
func RequestIDFrom(c *gin.Context) string {
	return c.GetString(requestIDKey)
}
