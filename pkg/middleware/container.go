package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/microbase/go-microbase/pkg/container"
)

// containerKey is the gin context key the container is injected under
const containerKey = "microbase/container"

// WithContainer injects the dependency container into every request so
// handlers can resolve shared singletons by name.
func WithContainer(cn *container.Container) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(containerKey, cn)
		c.Next()
	}
}

// ContainerFrom returns the injected container, or nil when the request
// did not pass through WithContainer.
func ContainerFrom(c *gin.Context) *container.Container {
	v, ok := c.Get(containerKey)
	if !ok {
		return nil
	}
	cn, _ := v.(*container.Container)
	return cn
}
