package models

// DataPoint is a single named measurement attached to a project.
type DataPoint struct {
	ID        string                 `json:"id"`
	ProjectID string                 `json:"projectId"`
	Name      string                 `json:"name"`
	Value     float64                `json:"value"`
	Unit      string                 `json:"unit,omitempty"`
	Timestamp string                 `json:"timestamp"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// CreateDataPointRequest is the body of POST /api/projects/:id/data
type CreateDataPointRequest struct {
	Name     string                 `json:"name" binding:"required"`
	Value    *float64               `json:"value" binding:"required"`
	Unit     string                 `json:"unit"`
	Metadata map[string]interface{} `json:"metadata"`
}
