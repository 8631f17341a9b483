package models

import "encoding/json"

// Project is the monitored unit: a named container owning an arbitrary JSON
// content blob that the dashboard renders and webhooks mutate.
type Project struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	OwnerID     string          `json:"ownerId"`
	CreatedAt   string          `json:"createdAt"`
	UpdatedAt   string          `json:"updatedAt"`
	IsPublic    bool            `json:"isPublic"`
	ShareToken  string          `json:"shareToken"`
	Content     json.RawMessage `json:"content,omitempty"`
}

// CreateProjectRequest is the body of POST /api/projects
type CreateProjectRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

// UpdateProjectRequest is the body of PATCH /api/projects/:id.
// Pointer fields distinguish "absent" from "set to empty".
type UpdateProjectRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	IsPublic    *bool   `json:"isPublic"`
}
