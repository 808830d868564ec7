package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signToken(t *testing.T, secret string, claims jwt.Claims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func userClaims(uid string, expiry time.Duration) jwt.MapClaims {
	return jwt.MapClaims{
		"uid": uid,
		"exp": time.Now().Add(expiry).Unix(),
	}
}

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	m := NewManager()
	require.NoError(t, m.SetSignature("user-secret", SignatureUser))
	require.NoError(t, m.SetSignature("service-secret", SignatureService))
	return m
}

func TestSignatureType_IsValid(t *testing.T) {
	assert.True(t, SignatureUser.IsValid())
	assert.True(t, SignatureService.IsValid())
	assert.False(t, SignatureType("admin").IsValid())
	assert.False(t, SignatureType("").IsValid())
}

func TestParseSignatureType(t *testing.T) {
	st, err := ParseSignatureType("user")
	require.NoError(t, err)
	assert.Equal(t, SignatureUser, st)

	st, err = ParseSignatureType("service")
	require.NoError(t, err)
	assert.Equal(t, SignatureService, st)

	_, err = ParseSignatureType("admin")
	assert.Error(t, err)
}

func TestManager_SetSignature_UnknownType(t *testing.T) {
	m := NewManager()

	err := m.SetSignature("secret", SignatureType("admin"))
	assert.ErrorIs(t, err, ErrUnknownSignatureType)

	_, ok := m.Secret(SignatureType("admin"))
	assert.False(t, ok)
}

func TestManager_SetSignature_LastWriteWins(t *testing.T) {
	m := NewManager()
	require.NoError(t, m.SetSignature("first", SignatureUser))
	require.NoError(t, m.SetSignature("second", SignatureUser))

	secret, ok := m.Secret(SignatureUser)
	require.True(t, ok)
	assert.Equal(t, "second", secret)
}

func TestManager_Secret_EmptyIsUnconfigured(t *testing.T) {
	m := NewManager()
	require.NoError(t, m.SetSignature("", SignatureUser))

	_, ok := m.Secret(SignatureUser)
	assert.False(t, ok)
}

func TestManager_Secret_PerClass(t *testing.T) {
	m := newTestManager(t)

	user, ok := m.Secret(SignatureUser)
	require.True(t, ok)
	service, ok := m.Secret(SignatureService)
	require.True(t, ok)

	assert.Equal(t, "user-secret", user)
	assert.Equal(t, "service-secret", service)
}

func TestManager_ParseToken_Valid(t *testing.T) {
	m := newTestManager(t)
	token := signToken(t, "user-secret", userClaims("u1", time.Hour))

	claims, err := m.ParseToken(token, SignatureUser)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Greater(t, claims.Expiry(), time.Now().Unix())
}

func TestManager_ParseToken_FixedExpiry(t *testing.T) {
	m := newTestManager(t)
	token := signToken(t, "user-secret", jwt.MapClaims{
		"uid": "u1",
		"exp": int64(1999999999),
	})

	claims, err := m.ParseToken(token, SignatureUser)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, int64(1999999999), claims.Expiry())
}

func TestManager_ParseToken_Expired(t *testing.T) {
	m := newTestManager(t)
	token := signToken(t, "user-secret", userClaims("u1", -time.Hour))

	_, err := m.ParseToken(token, SignatureUser)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestManager_ParseToken_WrongSecret(t *testing.T) {
	m := newTestManager(t)
	token := signToken(t, "wrong-secret", userClaims("u1", time.Hour))

	_, err := m.ParseToken(token, SignatureUser)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestManager_ParseToken_WrongClass(t *testing.T) {
	// A user token does not verify against the service secret
	m := newTestManager(t)
	token := signToken(t, "user-secret", userClaims("u1", time.Hour))

	_, err := m.ParseToken(token, SignatureService)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestManager_ParseToken_Malformed(t *testing.T) {
	m := newTestManager(t)

	tests := []struct {
		name  string
		token string
	}{
		{"garbage", "not-a-jwt"},
		{"truncated", "eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9.garbage"},
		{"empty", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := m.ParseToken(tt.token, SignatureUser)
			assert.ErrorIs(t, err, ErrTokenInvalid)
		})
	}
}

func TestManager_ParseToken_MissingUID(t *testing.T) {
	m := newTestManager(t)
	token := signToken(t, "user-secret", jwt.MapClaims{
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	_, err := m.ParseToken(token, SignatureUser)
	assert.ErrorIs(t, err, ErrMissingClaim)
}

func TestManager_ParseToken_MissingExpiry(t *testing.T) {
	m := newTestManager(t)
	token := signToken(t, "user-secret", jwt.MapClaims{"uid": "u1"})

	_, err := m.ParseToken(token, SignatureUser)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestManager_ParseToken_Unconfigured(t *testing.T) {
	m := NewManager()
	token := signToken(t, "user-secret", userClaims("u1", time.Hour))

	_, err := m.ParseToken(token, SignatureUser)
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestManager_ParseToken_UnknownType(t *testing.T) {
	m := newTestManager(t)
	token := signToken(t, "user-secret", userClaims("u1", time.Hour))

	_, err := m.ParseToken(token, SignatureType("admin"))
	assert.ErrorIs(t, err, ErrUnknownSignatureType)
}

func TestManager_ParseToken_OtherHMACMethods(t *testing.T) {
	m := newTestManager(t)

	tests := []struct {
		name   string
		method jwt.SigningMethod
	}{
		{"HS256", jwt.SigningMethodHS256},
		{"HS384", jwt.SigningMethodHS384},
		{"HS512", jwt.SigningMethodHS512},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token := jwt.NewWithClaims(tt.method, userClaims("u1", time.Hour))
			signed, err := token.SignedString([]byte("user-secret"))
			require.NoError(t, err)

			claims, err := m.ParseToken(signed, SignatureUser)
			require.NoError(t, err)
			assert.Equal(t, "u1", claims.UserID)
		})
	}
}

func TestManager_IssueToken_RoundTrip(t *testing.T) {
	m := newTestManager(t)

	token, err := m.IssueToken("u42", SignatureService, time.Hour)
	require.NoError(t, err)

	claims, err := m.ParseToken(token, SignatureService)
	require.NoError(t, err)
	assert.Equal(t, "u42", claims.UserID)

	expected := time.Now().Add(time.Hour).Unix()
	assert.InDelta(t, expected, claims.Expiry(), 5)
}

func TestManager_IssueToken_Unconfigured(t *testing.T) {
	m := NewManager()

	_, err := m.IssueToken("u1", SignatureUser, time.Hour)
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestManager_IssueToken_UnknownType(t *testing.T) {
	m := newTestManager(t)

	_, err := m.IssueToken("u1", SignatureType("admin"), time.Hour)
	assert.ErrorIs(t, err, ErrUnknownSignatureType)
}

func TestClaims_Expiry_Absent(t *testing.T) {
	claims := &Claims{UserID: "u1"}
	assert.Equal(t, int64(0), claims.Expiry())
}
