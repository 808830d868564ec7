package auth

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdentity_RoundTrip(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	id := Identity{AccessToken: "tok", UserID: "u1", ExpiresAt: 1999999999}
	SetIdentity(c, id)

	got, ok := IdentityFrom(c)
	require.True(t, ok)
	assert.Equal(t, id, got)
}

func TestIdentityFrom_Absent(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	_, ok := IdentityFrom(c)
	assert.False(t, ok)
}

func TestIdentityFrom_WrongType(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Set(IdentityKey, "not an identity")

	_, ok := IdentityFrom(c)
	assert.False(t, ok)
}
