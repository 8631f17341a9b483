package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/datamon/datamon-api/internal/middleware"
	"github.com/datamon/datamon-api/internal/models"
	"github.com/datamon/datamon-api/internal/services"
)

type DataPointHandler struct {
	service services.DataPointServiceInterface
}

func NewDataPointHandler(service services.DataPointServiceInterface) *DataPointHandler {
	return &DataPointHandler{service: service}
}

// List answers GET /api/projects/:id/data, newest first
func (h *DataPointHandler) List(c *gin.Context) {
	points, err := h.service.List(c.Request.Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		respondServiceError(c, err, "Project not found")
		return
	}

	c.JSON(http.StatusOK, gin.H{"dataPoints": points})
}

// Create answers POST /api/projects/:id/data
func (h *DataPointHandler) Create(c *gin.Context) {
	var req models.CreateDataPointRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		if details := ParseValidationErrors(err); len(details) > 0 {
			respondErrorWithDetails(c, http.StatusBadRequest, "Invalid request", details, err)
			return
		}
		respondError(c, http.StatusBadRequest, "Invalid request", err)
		return
	}

	point, err := h.service.Add(c.Request.Context(), middleware.UserID(c), c.Param("id"), &req)
	if err != nil {
		respondServiceError(c, err, "Project not found")
		return
	}

	c.JSON(http.StatusCreated, point)
}

// Delete answers DELETE /api/projects/:id/data/:dataId
func (h *DataPointHandler) Delete(c *gin.Context) {
	err := h.service.Delete(c.Request.Context(), middleware.UserID(c), c.Param("id"), c.Param("dataId"))
	if err != nil {
		respondServiceError(c, err, "Data point not found")
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}
