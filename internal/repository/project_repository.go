package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/datamon/datamon-api/internal/models"
	apperrors "github.com/datamon/datamon-api/pkg/errors"
	"github.com/datamon/datamon-api/pkg/kv"
	"github.com/datamon/datamon-api/pkg/logger"
	"go.uber.org/zap"
)

// ProjectRepository stores project records in the key-value store
type ProjectRepository struct {
	store kv.Store
}

// NewProjectRepository creates a project repository backed by the given store
func NewProjectRepository(store kv.Store) *ProjectRepository {
	return &ProjectRepository{store: store}
}

func (r *ProjectRepository) GetByID(ctx context.Context, projectID string) (*models.Project, error) {
	raw, err := r.store.Get(ctx, projectKey(projectID))
	if err != nil {
		if apperrors.Is(err, kv.ErrNil) {
			return nil, apperrors.NotFoundError("project")
		}
		return nil, fmt.Errorf("failed to load project %s: %w", projectID, err)
	}

	var project models.Project
	if err := json.Unmarshal([]byte(raw), &project); err != nil {
		return nil, fmt.Errorf("failed to decode project %s: %w", projectID, err)
	}
	return &project, nil
}

func (r *ProjectRepository) Save(ctx context.Context, project *models.Project) error {
	raw, err := json.Marshal(project)
	if err != nil {
		return fmt.Errorf("failed to encode project %s: %w", project.ID, err)
	}
	if err := r.store.Set(ctx, projectKey(project.ID), string(raw)); err != nil {
		return fmt.Errorf("failed to save project %s: %w", project.ID, err)
	}
	return nil
}

func (r *ProjectRepository) Delete(ctx context.Context, projectID string) error {
	if err := r.store.Del(ctx, projectKey(projectID)); err != nil {
		return fmt.Errorf("failed to delete project %s: %w", projectID, err)
	}
	return nil
}

func (r *ProjectRepository) ListIDsByUser(ctx context.Context, userID string) ([]string, error) {
	raw, err := r.store.Get(ctx, userProjectsKey(userID))
	if err != nil {
		if apperrors.Is(err, kv.ErrNil) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to load project index for user %s: %w", userID, err)
	}

	var ids []string
	if err := json.Unmarshal([]byte(raw), &ids); err != nil {
		logger.Warn("Corrupt user project index, treating as empty",
			zap.String("user_id", userID),
			zap.Error(err))
		return []string{}, nil
	}
	return ids, nil
}

func (r *ProjectRepository) SetUserProjects(ctx context.Context, userID string, projectIDs []string) error {
	raw, err := json.Marshal(projectIDs)
	if err != nil {
		return fmt.Errorf("failed to encode project index for user %s: %w", userID, err)
	}
	if err := r.store.Set(ctx, userProjectsKey(userID), string(raw)); err != nil {
		return fmt.Errorf("failed to save project index for user %s: %w", userID, err)
	}
	return nil
}

// FindByShareToken scans all project records for a matching share token.
// Index keys (project:{id}:webhooks, project:{id}:data) match the pattern
// too; their values don't decode into a project with a token, so they fall
// through the comparison.
func (r *ProjectRepository) FindByShareToken(ctx context.Context, shareToken string) (*models.Project, error) {
	keys, err := r.store.Keys(ctx, "project:*")
	if err != nil {
		return nil, fmt.Errorf("failed to scan projects: %w", err)
	}

	for _, key := range keys {
		raw, err := r.store.Get(ctx, key)
		if err != nil {
			if apperrors.Is(err, kv.ErrNil) {
				continue
			}
			return nil, fmt.Errorf("failed to load %s during share scan: %w", key, err)
		}

		var project models.Project
		if err := json.Unmarshal([]byte(raw), &project); err != nil {
			continue
		}
		if project.ShareToken != "" && project.ShareToken == shareToken {
			return &project, nil
		}
	}

	return nil, apperrors.NotFoundError("project")
}
