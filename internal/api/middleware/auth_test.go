package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"bazaar/backend/internal/api/middleware"

	"github.com/gin-gonic/gin"
	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndParseToken(t *testing.T) {
	token, err := middleware.IssueToken("s3cret", "user-1", time.Hour)
	require.NoError(t, err)

	sub, err := middleware.ParseToken("s3cret", token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", sub)

	_, err = middleware.ParseToken("other", token)
	assert.Error(t, err)
}

func TestParseToken_Rejections(t *testing.T) {
	expired, err := middleware.IssueToken("s3cret", "user-1", -time.Minute)
	require.NoError(t, err)
	_, err = middleware.ParseToken("s3cret", expired)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)

	noSub, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{}).SignedString([]byte("s3cret"))
	require.NoError(t, err)
	_, err = middleware.ParseToken("s3cret", noSub)
	assert.Error(t, err)

	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.RegisteredClaims{Subject: "user-1"}).SignedString([]byte("s3cret"))
	require.NoError(t, err)
	_, err = middleware.ParseToken("s3cret", hs512)
	assert.Error(t, err, "only HS256 is accepted")
}

func TestAuth_SetsUserID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/me", middleware.Auth("s3cret"), func(c *gin.Context) {
		c.String(http.StatusOK, middleware.UserID(c))
	})
	token, err := middleware.IssueToken("s3cret", "user-7", time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "user-7", w.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Token "+token)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
