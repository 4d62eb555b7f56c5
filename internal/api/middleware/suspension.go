package middleware

import (
	"context"
	"net/http"

	"bazaar/backend/internal/apperr"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SuspensionGuard answers whether a user is currently suspended.
// moderation.Guard implements it.
type SuspensionGuard interface {
	IsSuspended(ctx context.Context, userID string) (bool, error)
}

// RequireActive blocks suspended callers. It must run after Auth.
func RequireActive(guard SuspensionGuard) gin.HandlerFunc {
	return func(c *gin.Context) {
		suspended, err := guard.IsSuspended(c.Request.Context(), UserID(c))
		if err != nil {
			Logger(c).Error("suspension check failed", zap.Error(err))
			c.AbortWithStatusJSON(apperr.HTTPStatus(err), gin.H{"error": apperr.PublicMessage(err)})
			return
		}
		if suspended {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "account suspended"})
			return
		}
		c.Next()
	}
}
