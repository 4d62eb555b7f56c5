// Package api assembles the HTTP surface of the service.
package api

import (
	"bazaar/backend/internal/api/handler"
	"bazaar/backend/internal/api/middleware"
	"bazaar/backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter wires the routes. Every /api/v1 route requires a bearer token;
// mutating routes also require an unsuspended caller, except report
// resolution, which reviewers must always be able to perform.
func NewRouter(h *handler.Handler, jwtSecret string, guard middleware.SuspensionGuard, log *logger.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.Logging(log))

	r.GET("/health", h.Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.Group("/api/v1", middleware.Auth(jwtSecret))
	active := middleware.RequireActive(guard)

	v1.GET("/conversations", h.ListConversations)
	v1.GET("/conversations/:id", h.GetConversation)
	v1.POST("/conversations", active, h.StartConversation)
	v1.DELETE("/conversations/:id", active, h.ArchiveConversation)
	v1.POST("/conversations/:id/read", active, h.MarkConversationRead)

	v1.GET("/messages", h.ListMessages)
	v1.POST("/messages", active, h.SendMessage)

	v1.GET("/reports", h.ListReports)
	v1.POST("/reports", active, h.FileReport)
	v1.PATCH("/reports/:id", h.ResolveReport)

	v1.GET("/notifications", h.ListNotifications)

	return r
}
