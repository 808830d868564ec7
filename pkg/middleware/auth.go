// Package middleware provides the gin middlewares a microbase service is
// assembled from: the bearer-token auth gate, dependency container
// injection, request ids, request logging and rate limiting.
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/microbase/go-microbase/pkg/auth"
	"github.com/microbase/go-microbase/pkg/httputil"
)

// extractToken returns the compact token from an Authorization header value.
// Both "Bearer <token>" and a raw token value are accepted.
func extractToken(header string) string {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return strings.TrimSpace(parts[1])
	}
	return strings.TrimSpace(header)
}

// authenticate runs the gate against a manager. Every failure answers 401
// with the standard error body; the cause is only logged. On success the
// identity is attached and the chain continues; no Next call, so the gate
// composes both as a chain middleware and inside the phase pipeline.
func authenticate(c *gin.Context, m *auth.Manager, st auth.SignatureType, logger *zap.Logger) {
	header := c.GetHeader("Authorization")
	if header == "" {
		httputil.AbortError(c, http.StatusUnauthorized, "")
		return
	}

	token := extractToken(header)
	if token == "" {
		httputil.AbortError(c, http.StatusUnauthorized, "")
		return
	}

	claims, err := m.ParseToken(token, st)
	if err != nil {
		logger.Debug("token rejected",
			zap.String("path", c.Request.URL.Path),
			zap.Error(err),
		)
		httputil.AbortError(c, http.StatusUnauthorized, "")
		return
	}

	auth.SetIdentity(c, auth.Identity{
		AccessToken: token,
		UserID:      claims.UserID,
		ExpiresAt:   claims.Expiry(),
	})
}

// Auth returns the authentication gate for routes guarded by an explicit
// manager reference. Verified identity is attached to the request context;
// the request body and query are never modified.
func Auth(m *auth.Manager, st auth.SignatureType, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		authenticate(c, m, st, logger)
	}
}

// AuthFromContainer returns the authentication gate for routes registered
// before the manager exists. The manager is resolved per request from the
// injected container under auth.ManagerName.
func AuthFromContainer(st auth.SignatureType, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		cn := ContainerFrom(c)
		if cn == nil {
			logger.Error("auth gate reached without an injected container")
			httputil.AbortError(c, http.StatusInternalServerError, "")
			return
		}

		obj, ok := cn.Get(auth.ManagerName)
		if !ok {
			logger.Error("auth manager not published in container")
			httputil.AbortError(c, http.StatusInternalServerError, "")
			return
		}

		m, ok := obj.(*auth.Manager)
		if !ok {
			logger.Error("container object under auth name has wrong type")
			httputil.AbortError(c, http.StatusInternalServerError, "")
			return
		}

		authenticate(c, m, st, logger)
	}
}
