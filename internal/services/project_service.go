package services

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/datamon/datamon-api/internal/models"
	"github.com/datamon/datamon-api/internal/repository"
	apperrors "github.com/datamon/datamon-api/pkg/errors"
	"github.com/datamon/datamon-api/pkg/logger"
	"github.com/datamon/datamon-api/pkg/metrics"
	"github.com/datamon/datamon-api/pkg/token"
	"go.uber.org/zap"
)

// ProjectServiceInterface defines the project business operations
type ProjectServiceInterface interface {
	List(ctx context.Context, userID string) ([]*models.Project, error)
	Create(ctx context.Context, userID string, req *models.CreateProjectRequest) (*models.Project, error)
	Get(ctx context.Context, userID, projectID string) (*models.Project, error)
	Update(ctx context.Context, userID, projectID string, req *models.UpdateProjectRequest) (*models.Project, error)
	Delete(ctx context.Context, userID, projectID string) error
	RegenerateShareToken(ctx context.Context, userID, projectID string) (*models.Project, error)
	GetShared(ctx context.Context, shareToken string) (*models.Project, []*models.DataPoint, error)
}

// ProjectService manages project records and their owner index
type ProjectService struct {
	projects   repository.ProjectDataSource
	webhooks   repository.WebhookDataSource
	dataPoints repository.DataPointDataSource
	tokenCache TokenInvalidator
}

// TokenInvalidator drops cached token resolutions after revocation
type TokenInvalidator interface {
	Invalidate(token string)
}

// NewProjectService creates a project service
func NewProjectService(projects repository.ProjectDataSource, webhooks repository.WebhookDataSource, dataPoints repository.DataPointDataSource, tokenCache TokenInvalidator) *ProjectService {
	return &ProjectService{
		projects:   projects,
		webhooks:   webhooks,
		dataPoints: dataPoints,
		tokenCache: tokenCache,
	}
}

// List returns the user's projects, newest first. Index entries whose record
// has gone missing are skipped.
func (s *ProjectService) List(ctx context.Context, userID string) ([]*models.Project, error) {
	ids, err := s.projects.ListIDsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	projects := make([]*models.Project, 0, len(ids))
	for _, id := range ids {
		project, err := s.projects.GetByID(ctx, id)
		if err != nil {
			if apperrors.Is(err, apperrors.ErrNotFound) {
				continue
			}
			return nil, err
		}
		projects = append(projects, project)
	}

	sort.Slice(projects, func(i, j int) bool {
		return projects[i].CreatedAt > projects[j].CreatedAt
	})
	return projects, nil
}

// Create stores a new project and appends it to the owner's index
func (s *ProjectService) Create(ctx context.Context, userID string, req *models.CreateProjectRequest) (*models.Project, error) {
	shareToken, err := token.Generate()
	if err != nil {
		logger.Error("Failed to generate share token", zap.Error(err))
		return nil, apperrors.InternalError("token generation failed")
	}

	now := nowTimestamp()
	project := &models.Project{
		ID:          uuid.NewString(),
		Name:        req.Name,
		Description: req.Description,
		OwnerID:     userID,
		CreatedAt:   now,
		UpdatedAt:   now,
		ShareToken:  shareToken,
	}
	if err := s.projects.Save(ctx, project); err != nil {
		return nil, err
	}

	ids, err := s.projects.ListIDsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.projects.SetUserProjects(ctx, userID, append(ids, project.ID)); err != nil {
		return nil, err
	}

	metrics.ProjectsCreated.Inc()
	logger.Info("Project created",
		zap.String("project_id", project.ID),
		zap.String("owner_id", userID))
	return project, nil
}

// Get fetches a project. When a user id is supplied only the owner may read
// the record.
func (s *ProjectService) Get(ctx context.Context, userID, projectID string) (*models.Project, error) {
	project, err := s.projects.GetByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if userID != "" && project.OwnerID != userID {
		return nil, apperrors.AccessDeniedError("not the project owner")
	}
	return project, nil
}

// Update applies the supplied fields to an owned project
func (s *ProjectService) Update(ctx context.Context, userID, projectID string, req *models.UpdateProjectRequest) (*models.Project, error) {
	project, err := s.ownedProject(ctx, userID, projectID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		project.Name = *req.Name
	}
	if req.Description != nil {
		project.Description = *req.Description
	}
	if req.IsPublic != nil {
		project.IsPublic = *req.IsPublic
	}
	project.UpdatedAt = nowTimestamp()

	if err := s.projects.Save(ctx, project); err != nil {
		return nil, err
	}
	return project, nil
}

// Delete removes an owned project together with its data points and webhook
// tokens, then drops it from the owner's index.
func (s *ProjectService) Delete(ctx context.Context, userID, projectID string) error {
	if _, err := s.ownedProject(ctx, userID, projectID); err != nil {
		return err
	}

	if err := s.dataPoints.DeleteAllForProject(ctx, projectID); err != nil {
		logger.Warn("Failed to delete project data points",
			zap.String("project_id", projectID), zap.Error(err))
	}

	hooks, err := s.webhooks.ListByProject(ctx, projectID)
	if err != nil {
		logger.Warn("Failed to list project webhooks for cascade",
			zap.String("project_id", projectID), zap.Error(err))
	}
	for _, hook := range hooks {
		if err := s.webhooks.Delete(ctx, projectID, hook.Token); err != nil {
			logger.Warn("Failed to delete project webhook",
				zap.String("project_id", projectID),
				zap.String("token_prefix", tokenPrefix(hook.Token)),
				zap.Error(err))
			continue
		}
		s.tokenCache.Invalidate(hook.Token)
	}

	if err := s.projects.Delete(ctx, projectID); err != nil {
		return err
	}

	ids, err := s.projects.ListIDsByUser(ctx, userID)
	if err != nil {
		return err
	}
	remaining := make([]string, 0, len(ids))
	for _, id := range ids {
		if id != projectID {
			remaining = append(remaining, id)
		}
	}
	if err := s.projects.SetUserProjects(ctx, userID, remaining); err != nil {
		return err
	}

	logger.Info("Project deleted",
		zap.String("project_id", projectID),
		zap.String("owner_id", userID))
	return nil
}

// RegenerateShareToken replaces the project's share token, cutting off
// anyone holding the old link.
func (s *ProjectService) RegenerateShareToken(ctx context.Context, userID, projectID string) (*models.Project, error) {
	project, err := s.ownedProject(ctx, userID, projectID)
	if err != nil {
		return nil, err
	}

	shareToken, err := token.Generate()
	if err != nil {
		logger.Error("Failed to generate share token", zap.Error(err))
		return nil, apperrors.InternalError("token generation failed")
	}
	project.ShareToken = shareToken
	project.UpdatedAt = nowTimestamp()

	if err := s.projects.Save(ctx, project); err != nil {
		return nil, err
	}
	return project, nil
}

// GetShared resolves a share token to its public project view and data
// points, newest first.
func (s *ProjectService) GetShared(ctx context.Context, shareToken string) (*models.Project, []*models.DataPoint, error) {
	if shareToken == "" {
		return nil, nil, apperrors.NotFoundError("project")
	}

	project, err := s.projects.FindByShareToken(ctx, shareToken)
	if err != nil {
		return nil, nil, err
	}

	points, err := s.dataPoints.ListByProject(ctx, project.ID)
	if err != nil {
		return nil, nil, err
	}
	sort.Slice(points, func(i, j int) bool {
		return points[i].Timestamp > points[j].Timestamp
	})
	return project, points, nil
}

func (s *ProjectService) ownedProject(ctx context.Context, userID, projectID string) (*models.Project, error) {
	project, err := s.projects.GetByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if project.OwnerID != userID {
		return nil, apperrors.AccessDeniedError("not the project owner")
	}
	return project, nil
}
