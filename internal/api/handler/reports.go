package handler

import (
	"net/http"

	"bazaar/backend/internal/api/middleware"
	"bazaar/backend/internal/moderation"

	"github.com/gin-gonic/gin"
)

type fileReportRequest struct {
	ProductID   string `json:"product_id" binding:"required"`
	Reason      string `json:"reason" binding:"required"`
	Description string `json:"description"`
}

type resolveReportRequest struct {
	Action        string `json:"action" binding:"required"`
	AdminNotes    string `json:"admin_notes"`
	CustomMessage string `json:"custom_message"`
}

func (h *Handler) FileReport(c *gin.Context) {
	var req fileReportRequest
	if !bindJSON(c, &req) {
		return
	}
	report, err := h.Reports.FileReport(c.Request.Context(), middleware.UserID(c), req.ProductID, req.Reason, req.Description)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, report)
}

// ListReports is the reviewer queue. status defaults to pending.
func (h *Handler) ListReports(c *gin.Context) {
	reports, err := h.Reports.ListReports(c.Request.Context(), middleware.UserID(c), c.Query("status"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reports": reports})
}

func (h *Handler) ResolveReport(c *gin.Context) {
	var req resolveReportRequest
	if !bindJSON(c, &req) {
		return
	}
	outcome, err := h.Reports.ResolveReport(c.Request.Context(), c.Param("id"), middleware.UserID(c), moderation.ResolveRequest{
		Action:        req.Action,
		AdminNotes:    req.AdminNotes,
		CustomMessage: req.CustomMessage,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, outcome)
}
