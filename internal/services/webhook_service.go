package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/datamon/datamon-api/internal/cache"
	"github.com/datamon/datamon-api/internal/models"
	"github.com/datamon/datamon-api/internal/repository"
	apperrors "github.com/datamon/datamon-api/pkg/errors"
	"github.com/datamon/datamon-api/pkg/logger"
	"github.com/datamon/datamon-api/pkg/metrics"
	"github.com/datamon/datamon-api/pkg/token"
	"go.uber.org/zap"
)

const timestampLayout = "2006-01-02T15:04:05.000Z07:00"

func nowTimestamp() string {
	return time.Now().UTC().Format(timestampLayout)
}

// WebhookServiceInterface defines the webhook business operations
type WebhookServiceInterface interface {
	Create(ctx context.Context, projectID, origin string) (*models.CreateWebhookResponse, error)
	List(ctx context.Context, projectID string) ([]*models.WebhookToken, error)
	Delete(ctx context.Context, projectID, tokenValue string) error
	Ingest(ctx context.Context, tokenValue, contentType string, body []byte) error
}

// WebhookService manages token lifecycle and ingestion of pushed payloads
type WebhookService struct {
	webhooks   repository.WebhookDataSource
	projects   repository.ProjectDataSource
	tokenCache *cache.TokenCache
	baseURL    string
}

// NewWebhookService creates a webhook service
func NewWebhookService(webhooks repository.WebhookDataSource, projects repository.ProjectDataSource, tokenCache *cache.TokenCache, baseURL string) *WebhookService {
	return &WebhookService{
		webhooks:   webhooks,
		projects:   projects,
		tokenCache: tokenCache,
		baseURL:    baseURL,
	}
}

// Create mints a fresh token for the project and returns the full ingestion
// URL. The origin, when present, is the scheme+host the caller reached us on.
func (s *WebhookService) Create(ctx context.Context, projectID, origin string) (*models.CreateWebhookResponse, error) {
	if projectID == "" {
		return nil, apperrors.InvalidInputError("projectId", "must not be empty")
	}

	tokenValue, err := token.Generate()
	if err != nil {
		logger.Error("Failed to generate webhook token", zap.Error(err))
		return nil, apperrors.InternalError("token generation failed")
	}

	record := &models.WebhookToken{
		ProjectID: projectID,
		Token:     tokenValue,
		CreatedAt: nowTimestamp(),
	}
	if err := s.webhooks.Create(ctx, record); err != nil {
		return nil, err
	}

	base := origin
	if base == "" {
		base = s.baseURL
	}

	metrics.WebhooksCreated.Inc()
	logger.Info("Webhook created",
		zap.String("project_id", projectID),
		zap.String("token_prefix", tokenPrefix(tokenValue)))

	return &models.CreateWebhookResponse{
		Success:    true,
		WebhookURL: fmt.Sprintf("%s/api/webhook/%s", base, tokenValue),
		Token:      tokenValue,
	}, nil
}

// List returns every token registered for the project with usage counters
func (s *WebhookService) List(ctx context.Context, projectID string) ([]*models.WebhookToken, error) {
	if projectID == "" {
		return nil, apperrors.InvalidInputError("projectId", "must not be empty")
	}
	return s.webhooks.ListByProject(ctx, projectID)
}

// Delete revokes a token. The cached resolution is dropped so the token stops
// working within the current request, not a cache TTL later.
func (s *WebhookService) Delete(ctx context.Context, projectID, tokenValue string) error {
	if projectID == "" || tokenValue == "" {
		return apperrors.InvalidInputError("projectId/token", "must not be empty")
	}

	if err := s.webhooks.Delete(ctx, projectID, tokenValue); err != nil {
		return err
	}
	s.tokenCache.Invalidate(tokenValue)

	metrics.WebhooksDeleted.Inc()
	logger.Info("Webhook deleted",
		zap.String("project_id", projectID),
		zap.String("token_prefix", tokenPrefix(tokenValue)))
	return nil
}

// Ingest validates the token, decodes the pushed body and folds it into the
// project's content blob.
func (s *WebhookService) Ingest(ctx context.Context, tokenValue, contentType string, body []byte) error {
	projectID, err := s.resolveToken(ctx, tokenValue)
	if err != nil {
		// Only an absent mapping means a revoked or unknown token. A store
		// failure during the lookup must not tell the sender its credential
		// is dead.
		if apperrors.Is(err, apperrors.ErrNotFound) || apperrors.Is(err, apperrors.ErrUnauthorized) {
			metrics.WebhookIngestions.WithLabelValues("unauthorized").Inc()
			return apperrors.UnauthorizedError("unknown webhook token")
		}
		metrics.WebhookIngestions.WithLabelValues("store_error").Inc()
		return err
	}

	payload, err := DecodePayload(contentType, body)
	if err != nil {
		metrics.WebhookIngestions.WithLabelValues("invalid_payload").Inc()
		return err
	}

	project, err := s.projects.GetByID(ctx, projectID)
	if err != nil {
		metrics.WebhookIngestions.WithLabelValues("project_missing").Inc()
		return err
	}

	project.Content = mergeContent(project.Content, payload)
	project.UpdatedAt = nowTimestamp()
	if err := s.projects.Save(ctx, project); err != nil {
		metrics.WebhookIngestions.WithLabelValues("store_error").Inc()
		return err
	}

	s.recordUsage(ctx, tokenValue)
	metrics.WebhookIngestions.WithLabelValues("accepted").Inc()
	return nil
}

// resolveToken answers the token's project id, consulting the cache first
func (s *WebhookService) resolveToken(ctx context.Context, tokenValue string) (string, error) {
	if tokenValue == "" {
		return "", apperrors.ErrUnauthorized
	}
	if projectID, ok := s.tokenCache.Get(tokenValue); ok {
		return projectID, nil
	}

	projectID, err := s.webhooks.ResolveToken(ctx, tokenValue)
	if err != nil {
		return "", err
	}
	s.tokenCache.Put(tokenValue, projectID)
	return projectID, nil
}

// recordUsage stamps last-used and bumps the call counter. Failures are
// logged but never fail the ingestion that already succeeded.
func (s *WebhookService) recordUsage(ctx context.Context, tokenValue string) {
	if err := s.webhooks.TouchLastUsed(ctx, tokenValue, nowTimestamp()); err != nil {
		logger.Warn("Failed to stamp webhook last-used",
			zap.String("token_prefix", tokenPrefix(tokenValue)),
			zap.Error(err))
	}
	if _, err := s.webhooks.IncrCallCount(ctx, tokenValue); err != nil {
		logger.Warn("Failed to increment webhook call count",
			zap.String("token_prefix", tokenPrefix(tokenValue)),
			zap.Error(err))
	}
}

// mergeContent folds a decoded payload into the existing content blob.
// Arrays replace the content wholesale, objects shallow-merge key by key and
// primitives leave the content untouched.
func mergeContent(existing json.RawMessage, payload Payload) json.RawMessage {
	switch payload.Kind {
	case PayloadArray:
		merged, err := json.Marshal(payload.Array)
		if err != nil {
			return existing
		}
		return merged

	case PayloadObject:
		base := map[string]interface{}{}
		if len(existing) > 0 {
			// Non-object content (an array, a scalar) is discarded and
			// the payload object becomes the content.
			var current map[string]interface{}
			if err := json.Unmarshal(existing, &current); err == nil && current != nil {
				base = current
			}
		}
		for key, value := range payload.Object {
			base[key] = value
		}
		merged, err := json.Marshal(base)
		if err != nil {
			return existing
		}
		return merged

	default:
		return existing
	}
}

// tokenPrefix keeps full tokens out of the logs
func tokenPrefix(tokenValue string) string {
	if len(tokenValue) <= 8 {
		return tokenValue
	}
	return tokenValue[:8]
}
