package repository

import (
	"context"

	"github.com/datamon/datamon-api/internal/models"
)

// ProjectDataSource defines storage operations for project records
type ProjectDataSource interface {
	// GetByID fetches a project, returning errors.ErrNotFound when absent
	GetByID(ctx context.Context, projectID string) (*models.Project, error)

	// Save writes the full project record
	Save(ctx context.Context, project *models.Project) error

	// Delete removes the project record only; cascades are the service's job
	Delete(ctx context.Context, projectID string) error

	// ListIDsByUser returns the user's project index (empty when absent)
	ListIDsByUser(ctx context.Context, userID string) ([]string, error)

	// SetUserProjects rewrites the user's project index
	SetUserProjects(ctx context.Context, userID string, projectIDs []string) error

	// FindByShareToken scans projects for a matching share token,
	// returning errors.ErrNotFound when no project carries it
	FindByShareToken(ctx context.Context, shareToken string) (*models.Project, error)
}

// WebhookDataSource defines storage operations for webhook token records
type WebhookDataSource interface {
	// ResolveToken maps a token to its project id, errors.ErrNotFound when unknown
	ResolveToken(ctx context.Context, token string) (string, error)

	// Create writes the token mapping, the detail record and the index entry
	Create(ctx context.Context, record *models.WebhookToken) error

	// ListByProject merges index, detail and usage records into one slice;
	// index entries without a detail record are dropped
	ListByProject(ctx context.Context, projectID string) ([]*models.WebhookToken, error)

	// Delete removes all four token keys and filters the project index
	Delete(ctx context.Context, projectID, token string) error

	// TouchLastUsed overwrites the token's last-used timestamp
	TouchLastUsed(ctx context.Context, token, timestamp string) error

	// IncrCallCount atomically increments the token's call counter
	IncrCallCount(ctx context.Context, token string) (int64, error)
}

// DataPointDataSource defines storage operations for data point records
type DataPointDataSource interface {
	// GetByID fetches a data point, errors.ErrNotFound when absent
	GetByID(ctx context.Context, dataID string) (*models.DataPoint, error)

	// Add writes the record and appends it to the project's data index
	Add(ctx context.Context, point *models.DataPoint) error

	// ListByProject resolves the project's data index into records
	ListByProject(ctx context.Context, projectID string) ([]*models.DataPoint, error)

	// Delete removes the record and filters the project's data index
	Delete(ctx context.Context, projectID, dataID string) error

	// DeleteAllForProject removes every data point and the index itself
	DeleteAllForProject(ctx context.Context, projectID string) error
}
