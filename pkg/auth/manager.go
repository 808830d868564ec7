// Package auth owns the signing secrets for the two token classes and the
// bearer-token codec built on them. The Manager is constructed during
// application build, published into the dependency container under
// ManagerName, and treated as read-mostly afterwards.
package auth

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrUnknownSignatureType is returned for a token class outside the enumeration
	ErrUnknownSignatureType = errors.New("unknown signature type")
	// ErrNotConfigured is returned when no secret is set for the requested class
	ErrNotConfigured = errors.New("no signature configured for token class")
	// ErrTokenExpired is returned when the token signature has expired
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenInvalid is returned for malformed tokens and bad signatures
	ErrTokenInvalid = errors.New("token invalid")
	// ErrMissingClaim is returned when a verified token lacks a required claim
	ErrMissingClaim = errors.New("token missing required claim")
)

// hmacMethods are the only accepted signing algorithms
var hmacMethods = []string{"HS256", "HS384", "HS512"}

// Claims are the verified fields of a token
type Claims struct {
	UserID string `json:"uid"`
	jwt.RegisteredClaims
}

// Expiry returns the expiry as a unix timestamp, 0 when absent
func (c *Claims) Expiry() int64 {
	if c.ExpiresAt == nil {
		return 0
	}
	return c.ExpiresAt.Unix()
}

// Manager stores the signing secret for each token class
type Manager struct {
	mu      sync.RWMutex
	secrets map[SignatureType]string
}

// NewManager returns a Manager with no secrets configured
func NewManager() *Manager {
	return &Manager{secrets: make(map[SignatureType]string)}
}

// SetSignature stores the secret for a token class, overwriting any previous
// value. The secret format is not validated; an empty secret leaves the
// class unconfigured.
func (m *Manager) SetSignature(secret string, st SignatureType) error {
	if !st.IsValid() {
		return fmt.Errorf("%w: %q", ErrUnknownSignatureType, st)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.secrets[st] = secret
	return nil
}

// Secret returns the secret for a token class. An empty secret reports
// false: verifying against an empty HMAC key is never allowed.
func (m *Manager) Secret(st SignatureType) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	secret, ok := m.secrets[st]
	if !ok || secret == "" {
		return "", false
	}
	return secret, true
}

// ParseToken verifies a compact token against the secret of the given class
// and returns its claims. Expired and otherwise invalid tokens surface as
// the distinct sentinels ErrTokenExpired and ErrTokenInvalid. A verified
// token must carry uid and exp claims.
func (m *Manager) ParseToken(tokenString string, st SignatureType) (*Claims, error) {
	if !st.IsValid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSignatureType, st)
	}

	secret, ok := m.Secret(st)
	if !ok {
		return nil, ErrNotConfigured
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(secret), nil
	}, jwt.WithValidMethods(hmacMethods), jwt.WithExpirationRequired())

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}

	if !token.Valid {
		return nil, ErrTokenInvalid
	}

	if claims.UserID == "" {
		return nil, fmt.Errorf("%w: uid", ErrMissingClaim)
	}

	return claims, nil
}

// IssueToken signs a new HS256 token for a user id with the secret of the
// given class
func (m *Manager) IssueToken(userID string, st SignatureType, ttl time.Duration) (string, error) {
	if !st.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownSignatureType, st)
	}

	secret, ok := m.Secret(st)
	if !ok {
		return "", ErrNotConfigured
	}

	now := time.Now()
	claims := Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}
