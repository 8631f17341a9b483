package services_test

import (
	"context"

	"github.com/datamon/datamon-api/internal/models"
	"github.com/stretchr/testify/mock"
)

// MockProjectRepository is a mock implementation of ProjectDataSource
type MockProjectRepository struct {
	mock.Mock
}

func (m *MockProjectRepository) GetByID(ctx context.Context, projectID string) (*models.Project, error) {
	args := m.Called(ctx, projectID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Project), args.Error(1)
}

func (m *MockProjectRepository) Save(ctx context.Context, project *models.Project) error {
	args := m.Called(ctx, project)
	return args.Error(0)
}

func (m *MockProjectRepository) Delete(ctx context.Context, projectID string) error {
	args := m.Called(ctx, projectID)
	return args.Error(0)
}

func (m *MockProjectRepository) ListIDsByUser(ctx context.Context, userID string) ([]string, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockProjectRepository) SetUserProjects(ctx context.Context, userID string, projectIDs []string) error {
	args := m.Called(ctx, userID, projectIDs)
	return args.Error(0)
}

func (m *MockProjectRepository) FindByShareToken(ctx context.Context, shareToken string) (*models.Project, error) {
	args := m.Called(ctx, shareToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Project), args.Error(1)
}

// MockWebhookRepository is a mock implementation of WebhookDataSource
type MockWebhookRepository struct {
	mock.Mock
}

func (m *MockWebhookRepository) ResolveToken(ctx context.Context, token string) (string, error) {
	args := m.Called(ctx, token)
	return args.String(0), args.Error(1)
}

func (m *MockWebhookRepository) Create(ctx context.Context, record *models.WebhookToken) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockWebhookRepository) ListByProject(ctx context.Context, projectID string) ([]*models.WebhookToken, error) {
	args := m.Called(ctx, projectID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.WebhookToken), args.Error(1)
}

func (m *MockWebhookRepository) Delete(ctx context.Context, projectID, token string) error {
	args := m.Called(ctx, projectID, token)
	return args.Error(0)
}

func (m *MockWebhookRepository) TouchLastUsed(ctx context.Context, token, timestamp string) error {
	args := m.Called(ctx, token, timestamp)
	return args.Error(0)
}

func (m *MockWebhookRepository) IncrCallCount(ctx context.Context, token string) (int64, error) {
	args := m.Called(ctx, token)
	return args.Get(0).(int64), args.Error(1)
}

// MockDataPointRepository is a mock implementation of DataPointDataSource
type MockDataPointRepository struct {
	mock.Mock
}

func (m *MockDataPointRepository) GetByID(ctx context.Context, dataID string) (*models.DataPoint, error) {
	args := m.Called(ctx, dataID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.DataPoint), args.Error(1)
}

func (m *MockDataPointRepository) Add(ctx context.Context, point *models.DataPoint) error {
	args := m.Called(ctx, point)
	return args.Error(0)
}

func (m *MockDataPointRepository) ListByProject(ctx context.Context, projectID string) ([]*models.DataPoint, error) {
	args := m.Called(ctx, projectID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.DataPoint), args.Error(1)
}

func (m *MockDataPointRepository) Delete(ctx context.Context, projectID, dataID string) error {
	args := m.Called(ctx, projectID, dataID)
	return args.Error(0)
}

func (m *MockDataPointRepository) DeleteAllForProject(ctx context.Context, projectID string) error {
	args := m.Called(ctx, projectID)
	return args.Error(0)
}
