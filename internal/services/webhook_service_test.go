package services_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/datamon/datamon-api/internal/cache"
	"github.com/datamon/datamon-api/internal/models"
	"github.com/datamon/datamon-api/internal/services"
	apperrors "github.com/datamon/datamon-api/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newWebhookService(webhooks *MockWebhookRepository, projects *MockProjectRepository) *services.WebhookService {
	return services.NewWebhookService(webhooks, projects, cache.NewTokenCache(30), "https://datamon.example")
}

func contentOf(t *testing.T, saved *models.Project) map[string]interface{} {
	t.Helper()
	var content map[string]interface{}
	require.NoError(t, json.Unmarshal(saved.Content, &content))
	return content
}

func TestWebhookService_Create(t *testing.T) {
	mockWebhooks := new(MockWebhookRepository)
	mockProjects := new(MockProjectRepository)
	service := newWebhookService(mockWebhooks, mockProjects)
	ctx := context.Background()

	var created *models.WebhookToken
	mockWebhooks.On("Create", ctx, mock.AnythingOfType("*models.WebhookToken")).
		Run(func(args mock.Arguments) {
			created = args.Get(1).(*models.WebhookToken)
		}).Return(nil).Once()

	resp, err := service.Create(ctx, "proj-1", "https://app.example")
	require.NoError(t, err)

	assert.True(t, resp.Success)
	assert.Len(t, resp.Token, 32)
	assert.Equal(t, "https://app.example/api/webhook/"+resp.Token, resp.WebhookURL)
	require.NotNil(t, created)
	assert.Equal(t, "proj-1", created.ProjectID)
	assert.Equal(t, resp.Token, created.Token)
	assert.NotEmpty(t, created.CreatedAt)

	mockWebhooks.AssertExpectations(t)
}

func TestWebhookService_Create_FallsBackToBaseURL(t *testing.T) {
	mockWebhooks := new(MockWebhookRepository)
	mockProjects := new(MockProjectRepository)
	service := newWebhookService(mockWebhooks, mockProjects)
	ctx := context.Background()

	mockWebhooks.On("Create", ctx, mock.AnythingOfType("*models.WebhookToken")).Return(nil).Once()

	resp, err := service.Create(ctx, "proj-1", "")
	require.NoError(t, err)
	assert.Equal(t, "https://datamon.example/api/webhook/"+resp.Token, resp.WebhookURL)
}

func TestWebhookService_Create_EmptyProjectID(t *testing.T) {
	mockWebhooks := new(MockWebhookRepository)
	mockProjects := new(MockProjectRepository)
	service := newWebhookService(mockWebhooks, mockProjects)

	_, err := service.Create(context.Background(), "", "")
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	mockWebhooks.AssertNotCalled(t, "Create")
}

func TestWebhookService_Delete_InvalidatesCache(t *testing.T) {
	mockWebhooks := new(MockWebhookRepository)
	mockProjects := new(MockProjectRepository)
	service := newWebhookService(mockWebhooks, mockProjects)
	ctx := context.Background()

	// Warm the cache, then revoke. A second ingest must miss both the
	// cache and the store.
	mockWebhooks.On("ResolveToken", ctx, "tok-1").Return("proj-1", nil).Once()
	mockProjects.On("GetByID", ctx, "proj-1").Return(&models.Project{ID: "proj-1"}, nil).Once()
	mockProjects.On("Save", ctx, mock.AnythingOfType("*models.Project")).Return(nil).Once()
	mockWebhooks.On("TouchLastUsed", ctx, "tok-1", mock.AnythingOfType("string")).Return(nil).Once()
	mockWebhooks.On("IncrCallCount", ctx, "tok-1").Return(int64(1), nil).Once()

	err := service.Ingest(ctx, "tok-1", "application/json", []byte(`{"a":1}`))
	require.NoError(t, err)

	mockWebhooks.On("Delete", ctx, "proj-1", "tok-1").Return(nil).Once()
	require.NoError(t, service.Delete(ctx, "proj-1", "tok-1"))

	mockWebhooks.On("ResolveToken", ctx, "tok-1").Return("", apperrors.NotFoundError("webhook token")).Once()
	err = service.Ingest(ctx, "tok-1", "application/json", []byte(`{"a":1}`))
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)

	mockWebhooks.AssertExpectations(t)
}

func TestWebhookService_Ingest_UnknownToken(t *testing.T) {
	mockWebhooks := new(MockWebhookRepository)
	mockProjects := new(MockProjectRepository)
	service := newWebhookService(mockWebhooks, mockProjects)
	ctx := context.Background()

	mockWebhooks.On("ResolveToken", ctx, "bogus").Return("", apperrors.NotFoundError("webhook token")).Once()

	err := service.Ingest(ctx, "bogus", "application/json", []byte(`{"a":1}`))
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
	mockProjects.AssertNotCalled(t, "GetByID")
}

func TestWebhookService_Ingest_ResolutionOutageIsNotUnauthorized(t *testing.T) {
	mockWebhooks := new(MockWebhookRepository)
	mockProjects := new(MockProjectRepository)
	service := newWebhookService(mockWebhooks, mockProjects)
	ctx := context.Background()

	mockWebhooks.On("ResolveToken", ctx, "tok-1").
		Return("", errors.New("store returned status 503")).Once()

	err := service.Ingest(ctx, "tok-1", "application/json", []byte(`{"a":1}`))
	require.Error(t, err)
	assert.NotErrorIs(t, err, apperrors.ErrUnauthorized)
	mockProjects.AssertNotCalled(t, "GetByID")
}

func TestWebhookService_Ingest_InvalidJSON(t *testing.T) {
	mockWebhooks := new(MockWebhookRepository)
	mockProjects := new(MockProjectRepository)
	service := newWebhookService(mockWebhooks, mockProjects)
	ctx := context.Background()

	mockWebhooks.On("ResolveToken", ctx, "tok-1").Return("proj-1", nil).Once()

	err := service.Ingest(ctx, "tok-1", "application/json", []byte(`{not json`))
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	mockProjects.AssertNotCalled(t, "Save")
}

func TestWebhookService_Ingest_ObjectShallowMerge(t *testing.T) {
	mockWebhooks := new(MockWebhookRepository)
	mockProjects := new(MockProjectRepository)
	service := newWebhookService(mockWebhooks, mockProjects)
	ctx := context.Background()

	project := &models.Project{
		ID:      "proj-1",
		Content: json.RawMessage(`{"cpu":10,"host":"a"}`),
	}
	var saved *models.Project
	mockWebhooks.On("ResolveToken", ctx, "tok-1").Return("proj-1", nil).Once()
	mockProjects.On("GetByID", ctx, "proj-1").Return(project, nil).Once()
	mockProjects.On("Save", ctx, mock.AnythingOfType("*models.Project")).
		Run(func(args mock.Arguments) {
			saved = args.Get(1).(*models.Project)
		}).Return(nil).Once()
	mockWebhooks.On("TouchLastUsed", ctx, "tok-1", mock.AnythingOfType("string")).Return(nil).Once()
	mockWebhooks.On("IncrCallCount", ctx, "tok-1").Return(int64(1), nil).Once()

	err := service.Ingest(ctx, "tok-1", "application/json", []byte(`{"cpu":95,"mem":40}`))
	require.NoError(t, err)

	content := contentOf(t, saved)
	assert.Equal(t, float64(95), content["cpu"])
	assert.Equal(t, float64(40), content["mem"])
	assert.Equal(t, "a", content["host"])
	assert.NotEmpty(t, saved.UpdatedAt)

	mockWebhooks.AssertExpectations(t)
	mockProjects.AssertExpectations(t)
}

func TestWebhookService_Ingest_ArrayReplaces(t *testing.T) {
	mockWebhooks := new(MockWebhookRepository)
	mockProjects := new(MockProjectRepository)
	service := newWebhookService(mockWebhooks, mockProjects)
	ctx := context.Background()

	project := &models.Project{
		ID:      "proj-1",
		Content: json.RawMessage(`{"cpu":10}`),
	}
	var saved *models.Project
	mockWebhooks.On("ResolveToken", ctx, "tok-1").Return("proj-1", nil).Once()
	mockProjects.On("GetByID", ctx, "proj-1").Return(project, nil).Once()
	mockProjects.On("Save", ctx, mock.AnythingOfType("*models.Project")).
		Run(func(args mock.Arguments) {
			saved = args.Get(1).(*models.Project)
		}).Return(nil).Once()
	mockWebhooks.On("TouchLastUsed", ctx, "tok-1", mock.AnythingOfType("string")).Return(nil).Once()
	mockWebhooks.On("IncrCallCount", ctx, "tok-1").Return(int64(1), nil).Once()

	err := service.Ingest(ctx, "tok-1", "application/json", []byte(`[1,2,3]`))
	require.NoError(t, err)

	var content []interface{}
	require.NoError(t, json.Unmarshal(saved.Content, &content))
	assert.Equal(t, []interface{}{float64(1), float64(2), float64(3)}, content)
}

func TestWebhookService_Ingest_RepeatedObjectPayloadIdempotent(t *testing.T) {
	mockWebhooks := new(MockWebhookRepository)
	mockProjects := new(MockProjectRepository)
	service := newWebhookService(mockWebhooks, mockProjects)
	ctx := context.Background()

	// The same project record flows through both ingestions, so the second
	// merge starts from the first merge's result.
	project := &models.Project{
		ID:      "proj-1",
		Content: json.RawMessage(`{"cpu":10,"host":"a"}`),
	}
	var contents []string
	mockWebhooks.On("ResolveToken", ctx, "tok-1").Return("proj-1", nil).Once()
	mockProjects.On("GetByID", ctx, "proj-1").Return(project, nil).Twice()
	mockProjects.On("Save", ctx, mock.AnythingOfType("*models.Project")).
		Run(func(args mock.Arguments) {
			contents = append(contents, string(args.Get(1).(*models.Project).Content))
		}).Return(nil).Twice()
	mockWebhooks.On("TouchLastUsed", ctx, "tok-1", mock.AnythingOfType("string")).Return(nil).Twice()
	mockWebhooks.On("IncrCallCount", ctx, "tok-1").Return(int64(1), nil).Twice()

	payload := []byte(`{"cpu":95,"mem":40}`)
	require.NoError(t, service.Ingest(ctx, "tok-1", "application/json", payload))
	require.NoError(t, service.Ingest(ctx, "tok-1", "application/json", payload))

	require.Len(t, contents, 2)
	assert.JSONEq(t, contents[0], contents[1])
	assert.JSONEq(t, `{"cpu":95,"mem":40,"host":"a"}`, contents[1])
}

func TestWebhookService_Ingest_PrimitiveIgnored(t *testing.T) {
	mockWebhooks := new(MockWebhookRepository)
	mockProjects := new(MockProjectRepository)
	service := newWebhookService(mockWebhooks, mockProjects)
	ctx := context.Background()

	project := &models.Project{
		ID:      "proj-1",
		Content: json.RawMessage(`{"cpu":10}`),
	}
	var saved *models.Project
	mockWebhooks.On("ResolveToken", ctx, "tok-1").Return("proj-1", nil).Once()
	mockProjects.On("GetByID", ctx, "proj-1").Return(project, nil).Once()
	mockProjects.On("Save", ctx, mock.AnythingOfType("*models.Project")).
		Run(func(args mock.Arguments) {
			saved = args.Get(1).(*models.Project)
		}).Return(nil).Once()
	mockWebhooks.On("TouchLastUsed", ctx, "tok-1", mock.AnythingOfType("string")).Return(nil).Once()
	mockWebhooks.On("IncrCallCount", ctx, "tok-1").Return(int64(1), nil).Once()

	err := service.Ingest(ctx, "tok-1", "application/json", []byte(`42`))
	require.NoError(t, err)
	assert.JSONEq(t, `{"cpu":10}`, string(saved.Content))
}

func TestWebhookService_Ingest_PlainTextWrapped(t *testing.T) {
	mockWebhooks := new(MockWebhookRepository)
	mockProjects := new(MockProjectRepository)
	service := newWebhookService(mockWebhooks, mockProjects)
	ctx := context.Background()

	project := &models.Project{ID: "proj-1"}
	var saved *models.Project
	mockWebhooks.On("ResolveToken", ctx, "tok-1").Return("proj-1", nil).Once()
	mockProjects.On("GetByID", ctx, "proj-1").Return(project, nil).Once()
	mockProjects.On("Save", ctx, mock.AnythingOfType("*models.Project")).
		Run(func(args mock.Arguments) {
			saved = args.Get(1).(*models.Project)
		}).Return(nil).Once()
	mockWebhooks.On("TouchLastUsed", ctx, "tok-1", mock.AnythingOfType("string")).Return(nil).Once()
	mockWebhooks.On("IncrCallCount", ctx, "tok-1").Return(int64(1), nil).Once()

	err := service.Ingest(ctx, "tok-1", "text/plain", []byte("hello"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"value":"hello"}`, string(saved.Content))
}

func TestWebhookService_Ingest_CachesTokenResolution(t *testing.T) {
	mockWebhooks := new(MockWebhookRepository)
	mockProjects := new(MockProjectRepository)
	service := newWebhookService(mockWebhooks, mockProjects)
	ctx := context.Background()

	mockWebhooks.On("ResolveToken", ctx, "tok-1").Return("proj-1", nil).Once()
	mockProjects.On("GetByID", ctx, "proj-1").Return(&models.Project{ID: "proj-1"}, nil).Twice()
	mockProjects.On("Save", ctx, mock.AnythingOfType("*models.Project")).Return(nil).Twice()
	mockWebhooks.On("TouchLastUsed", ctx, "tok-1", mock.AnythingOfType("string")).Return(nil).Twice()
	mockWebhooks.On("IncrCallCount", ctx, "tok-1").Return(int64(1), nil).Twice()

	require.NoError(t, service.Ingest(ctx, "tok-1", "application/json", []byte(`{"a":1}`)))
	require.NoError(t, service.Ingest(ctx, "tok-1", "application/json", []byte(`{"a":2}`)))

	// One resolution, two ingests
	mockWebhooks.AssertExpectations(t)
}

func TestWebhookService_Ingest_UsageFailureDoesNotFail(t *testing.T) {
	mockWebhooks := new(MockWebhookRepository)
	mockProjects := new(MockProjectRepository)
	service := newWebhookService(mockWebhooks, mockProjects)
	ctx := context.Background()

	mockWebhooks.On("ResolveToken", ctx, "tok-1").Return("proj-1", nil).Once()
	mockProjects.On("GetByID", ctx, "proj-1").Return(&models.Project{ID: "proj-1"}, nil).Once()
	mockProjects.On("Save", ctx, mock.AnythingOfType("*models.Project")).Return(nil).Once()
	mockWebhooks.On("TouchLastUsed", ctx, "tok-1", mock.AnythingOfType("string")).
		Return(apperrors.InternalError("store down")).Once()
	mockWebhooks.On("IncrCallCount", ctx, "tok-1").
		Return(int64(0), apperrors.InternalError("store down")).Once()

	err := service.Ingest(ctx, "tok-1", "application/json", []byte(`{"a":1}`))
	assert.NoError(t, err)
}

func TestWebhookService_List(t *testing.T) {
	mockWebhooks := new(MockWebhookRepository)
	mockProjects := new(MockProjectRepository)
	service := newWebhookService(mockWebhooks, mockProjects)
	ctx := context.Background()

	hooks := []*models.WebhookToken{
		{ProjectID: "proj-1", Token: "tok-1", CallCount: 3},
	}
	mockWebhooks.On("ListByProject", ctx, "proj-1").Return(hooks, nil).Once()

	got, err := service.List(ctx, "proj-1")
	require.NoError(t, err)
	assert.Equal(t, hooks, got)
}
