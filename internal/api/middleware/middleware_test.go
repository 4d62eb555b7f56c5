package middleware_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"bazaar/backend/internal/api/middleware"
	"bazaar/backend/internal/apperr"
	"bazaar/backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

type guardFunc func(ctx context.Context, userID string) (bool, error)

func (f guardFunc) IsSuspended(ctx context.Context, userID string) (bool, error) {
	return f(ctx, userID)
}

func TestLogging_PropagatesCorrelationID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.Logging(logger.NewNop()))
	r.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(middleware.CorrelationIDKey))
	})

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("X-Correlation-ID", "abc-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Body.String())
	assert.Equal(t, "abc-123", w.Header().Get("X-Correlation-ID"))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.NotEmpty(t, w.Header().Get("X-Correlation-ID"), "generated when absent")
}

func TestRequireActive(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cases := []struct {
		name   string
		guard  guardFunc
		status int
	}{
		{"active", func(context.Context, string) (bool, error) { return false, nil }, http.StatusOK},
		{"suspended", func(context.Context, string) (bool, error) { return true, nil }, http.StatusForbidden},
		{"store down", func(context.Context, string) (bool, error) { return false, apperr.ErrUnavailable }, http.StatusServiceUnavailable},
		{"unexpected", func(context.Context, string) (bool, error) { return false, errors.New("boom") }, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := gin.New()
			r.POST("/x", middleware.RequireActive(tc.guard), func(c *gin.Context) { c.Status(http.StatusOK) })
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/x", nil))
			assert.Equal(t, tc.status, w.Code)
		})
	}
}
