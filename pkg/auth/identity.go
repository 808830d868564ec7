package auth

import "github.com/gin-gonic/gin"

const (
	// ManagerName is the fixed container name the Manager is published under
	ManagerName = "auth"

	// IdentityKey is the request context key the auth gate stores the
	// verified Identity under
	IdentityKey = "microbase/identity"
)

// Identity is the verified caller identity the auth gate attaches to a
// request. Handlers read it with IdentityFrom; the request body and query
// parameters are never touched.
type Identity struct {
	AccessToken string `json:"access_token"`
	UserID      string `json:"user_id"`
	ExpiresAt   int64  `json:"exp"`
}

// SetIdentity attaches a verified identity to the request context
func SetIdentity(c *gin.Context, id Identity) {
	c.Set(IdentityKey, id)
}

// IdentityFrom returns the verified identity of the request, if any
func IdentityFrom(c *gin.Context) (Identity, bool) {
	v, ok := c.Get(IdentityKey)
	if !ok {
		return Identity{}, false
	}
	id, ok := v.(Identity)
	return id, ok
}
