package services

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/datamon/datamon-api/internal/models"
	"github.com/datamon/datamon-api/internal/repository"
	apperrors "github.com/datamon/datamon-api/pkg/errors"
	"github.com/datamon/datamon-api/pkg/logger"
	"go.uber.org/zap"
)

// DataPointServiceInterface defines the data point business operations
type DataPointServiceInterface interface {
	List(ctx context.Context, userID, projectID string) ([]*models.DataPoint, error)
	Add(ctx context.Context, userID, projectID string, req *models.CreateDataPointRequest) (*models.DataPoint, error)
	Delete(ctx context.Context, userID, projectID, dataID string) error
}

// DataPointService manages measurements attached to projects
type DataPointService struct {
	dataPoints repository.DataPointDataSource
	projects   repository.ProjectDataSource
}

// NewDataPointService creates a data point service
func NewDataPointService(dataPoints repository.DataPointDataSource, projects repository.ProjectDataSource) *DataPointService {
	return &DataPointService{
		dataPoints: dataPoints,
		projects:   projects,
	}
}

// List returns the project's data points, newest first
func (s *DataPointService) List(ctx context.Context, userID, projectID string) ([]*models.DataPoint, error) {
	if _, err := s.ownedProject(ctx, userID, projectID); err != nil {
		return nil, err
	}

	points, err := s.dataPoints.ListByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	sort.Slice(points, func(i, j int) bool {
		return points[i].Timestamp > points[j].Timestamp
	})
	return points, nil
}

// Add records a new measurement on an owned project
func (s *DataPointService) Add(ctx context.Context, userID, projectID string, req *models.CreateDataPointRequest) (*models.DataPoint, error) {
	if _, err := s.ownedProject(ctx, userID, projectID); err != nil {
		return nil, err
	}

	point := &models.DataPoint{
		ID:        uuid.NewString(),
		ProjectID: projectID,
		Name:      req.Name,
		Value:     *req.Value,
		Unit:      req.Unit,
		Timestamp: nowTimestamp(),
		Metadata:  req.Metadata,
	}
	if err := s.dataPoints.Add(ctx, point); err != nil {
		return nil, err
	}

	logger.Debug("Data point recorded",
		zap.String("project_id", projectID),
		zap.String("data_id", point.ID),
		zap.String("name", point.Name))
	return point, nil
}

// Delete removes a data point from an owned project. The point must belong
// to that project.
func (s *DataPointService) Delete(ctx context.Context, userID, projectID, dataID string) error {
	if _, err := s.ownedProject(ctx, userID, projectID); err != nil {
		return err
	}

	point, err := s.dataPoints.GetByID(ctx, dataID)
	if err != nil {
		return err
	}
	if point.ProjectID != projectID {
		return apperrors.NotFoundError("data point")
	}

	return s.dataPoints.Delete(ctx, projectID, dataID)
}

func (s *DataPointService) ownedProject(ctx context.Context, userID, projectID string) (*models.Project, error) {
	project, err := s.projects.GetByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if project.OwnerID != userID {
		return nil, apperrors.AccessDeniedError("not the project owner")
	}
	return project, nil
}
