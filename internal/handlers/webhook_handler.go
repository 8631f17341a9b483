package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/datamon/datamon-api/internal/models"
	"github.com/datamon/datamon-api/internal/services"
	apperrors "github.com/datamon/datamon-api/pkg/errors"
)

type WebhookHandler struct {
	service services.WebhookServiceInterface
}

func NewWebhookHandler(service services.WebhookServiceInterface) *WebhookHandler {
	return &WebhookHandler{service: service}
}

// Ingest accepts a pushed payload on POST /api/webhook/:token
func (h *WebhookHandler) Ingest(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	err = h.service.Ingest(c.Request.Context(), c.Param("token"), c.GetHeader("Content-Type"), body)
	if err != nil {
		switch {
		case apperrors.Is(err, apperrors.ErrUnauthorized):
			respondError(c, http.StatusUnauthorized, "Invalid token", err)
		case apperrors.Is(err, services.ErrMalformedForm):
			respondError(c, http.StatusBadRequest, "Invalid form payload", err)
		case apperrors.Is(err, apperrors.ErrInvalidInput):
			respondError(c, http.StatusBadRequest, "Invalid JSON payload", err)
		case apperrors.Is(err, apperrors.ErrNotFound):
			respondError(c, http.StatusNotFound, "Project not found", err)
		default:
			respondError(c, http.StatusInternalServerError, "Internal server error", err)
		}
		return
	}

	c.JSON(http.StatusOK, models.IngestResponse{
		Success: true,
		Message: "Data updated",
	})
}

// Create mints a token on POST /api/webhook/manage/create
func (h *WebhookHandler) Create(c *gin.Context) {
	var req models.CreateWebhookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		if details := ParseValidationErrors(err); len(details) > 0 {
			respondErrorWithDetails(c, http.StatusBadRequest, "Invalid request", details, err)
			return
		}
		respondError(c, http.StatusBadRequest, "Invalid request", err)
		return
	}

	resp, err := h.service.Create(c.Request.Context(), req.ProjectID, c.GetHeader("Origin"))
	if err != nil {
		respondServiceError(c, err, "Project not found")
		return
	}

	c.JSON(http.StatusOK, resp)
}

// List returns the project's tokens on GET /api/webhook/manage/list/:projectId
func (h *WebhookHandler) List(c *gin.Context) {
	webhooks, err := h.service.List(c.Request.Context(), c.Param("projectId"))
	if err != nil {
		respondServiceError(c, err, "Project not found")
		return
	}

	c.JSON(http.StatusOK, models.ListWebhooksResponse{
		Success:  true,
		Webhooks: webhooks,
	})
}

// Delete revokes a token on DELETE /api/webhook/manage/delete/:projectId/:token
func (h *WebhookHandler) Delete(c *gin.Context) {
	err := h.service.Delete(c.Request.Context(), c.Param("projectId"), c.Param("token"))
	if err != nil {
		respondServiceError(c, err, "Webhook not found")
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}
