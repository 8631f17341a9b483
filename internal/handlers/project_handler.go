package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/datamon/datamon-api/internal/middleware"
	"github.com/datamon/datamon-api/internal/models"
	"github.com/datamon/datamon-api/internal/services"
)

type ProjectHandler struct {
	service services.ProjectServiceInterface
}

func NewProjectHandler(service services.ProjectServiceInterface) *ProjectHandler {
	return &ProjectHandler{service: service}
}

// List answers GET /api/projects with the caller's projects, newest first
func (h *ProjectHandler) List(c *gin.Context) {
	projects, err := h.service.List(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respondServiceError(c, err, "Project not found")
		return
	}

	c.JSON(http.StatusOK, gin.H{"projects": projects})
}

// Create answers POST /api/projects
func (h *ProjectHandler) Create(c *gin.Context) {
	var req models.CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		if details := ParseValidationErrors(err); len(details) > 0 {
			respondErrorWithDetails(c, http.StatusBadRequest, "Invalid request", details, err)
			return
		}
		respondError(c, http.StatusBadRequest, "Invalid request", err)
		return
	}

	project, err := h.service.Create(c.Request.Context(), middleware.UserID(c), &req)
	if err != nil {
		respondServiceError(c, err, "Project not found")
		return
	}

	c.JSON(http.StatusCreated, project)
}

// Get answers GET /api/projects/:id
func (h *ProjectHandler) Get(c *gin.Context) {
	project, err := h.service.Get(c.Request.Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		respondServiceError(c, err, "Project not found")
		return
	}

	c.JSON(http.StatusOK, project)
}

// Update answers PATCH /api/projects/:id
func (h *ProjectHandler) Update(c *gin.Context) {
	var req models.UpdateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request", err)
		return
	}

	project, err := h.service.Update(c.Request.Context(), middleware.UserID(c), c.Param("id"), &req)
	if err != nil {
		respondServiceError(c, err, "Project not found")
		return
	}

	c.JSON(http.StatusOK, project)
}

// Delete answers DELETE /api/projects/:id
func (h *ProjectHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), middleware.UserID(c), c.Param("id")); err != nil {
		respondServiceError(c, err, "Project not found")
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// RegenerateShareToken answers POST /api/projects/:id/regenerate-token
func (h *ProjectHandler) RegenerateShareToken(c *gin.Context) {
	project, err := h.service.RegenerateShareToken(c.Request.Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		respondServiceError(c, err, "Project not found")
		return
	}

	c.JSON(http.StatusOK, project)
}
