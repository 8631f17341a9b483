package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/datamon/datamon-api/internal/services"
)

type ShareHandler struct {
	service services.ProjectServiceInterface
}

func NewShareHandler(service services.ProjectServiceInterface) *ShareHandler {
	return &ShareHandler{service: service}
}

// Get answers GET /api/share/:token. The route is public; the share token
// itself is the credential, and the owner id stays out of the response.
func (h *ShareHandler) Get(c *gin.Context) {
	project, points, err := h.service.GetShared(c.Request.Context(), c.Param("token"))
	if err != nil {
		respondServiceError(c, err, "Project not found")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"project": gin.H{
			"id":          project.ID,
			"name":        project.Name,
			"description": project.Description,
			"updatedAt":   project.UpdatedAt,
			"content":     project.Content,
		},
		"dataPoints": points,
	})
}
