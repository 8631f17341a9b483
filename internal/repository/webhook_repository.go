package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/datamon/datamon-api/internal/models"
	apperrors "github.com/datamon/datamon-api/pkg/errors"
	"github.com/datamon/datamon-api/pkg/kv"
	"github.com/datamon/datamon-api/pkg/logger"
	"go.uber.org/zap"
)

// WebhookRepository stores webhook token records in the key-value store
type WebhookRepository struct {
	store kv.Store
}

// NewWebhookRepository creates a webhook repository backed by the given store
func NewWebhookRepository(store kv.Store) *WebhookRepository {
	return &WebhookRepository{store: store}
}

func (r *WebhookRepository) ResolveToken(ctx context.Context, token string) (string, error) {
	projectID, err := r.store.Get(ctx, webhookTokenKey(token))
	if err != nil {
		if apperrors.Is(err, kv.ErrNil) {
			return "", apperrors.NotFoundError("token")
		}
		return "", fmt.Errorf("failed to resolve token: %w", err)
	}
	return projectID, nil
}

// Create writes the token→project mapping, the detail record and the index
// entry. The three writes are not atomic; see ListByProject and Delete for
// how dangling entries are tolerated.
func (r *WebhookRepository) Create(ctx context.Context, record *models.WebhookToken) error {
	if err := r.store.Set(ctx, webhookTokenKey(record.Token), record.ProjectID); err != nil {
		return fmt.Errorf("failed to save token mapping: %w", err)
	}

	detail, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to encode webhook record: %w", err)
	}
	if err := r.store.Set(ctx, webhookDetailKey(record.ProjectID, record.Token), string(detail)); err != nil {
		return fmt.Errorf("failed to save webhook record: %w", err)
	}

	tokens, err := r.projectTokens(ctx, record.ProjectID)
	if err != nil {
		return err
	}
	tokens = append(tokens, record.Token)
	return r.setProjectTokens(ctx, record.ProjectID, tokens)
}

func (r *WebhookRepository) ListByProject(ctx context.Context, projectID string) ([]*models.WebhookToken, error) {
	tokens, err := r.projectTokens(ctx, projectID)
	if err != nil {
		return nil, err
	}

	webhooks := make([]*models.WebhookToken, 0, len(tokens))
	for _, tok := range tokens {
		raw, err := r.store.Get(ctx, webhookDetailKey(projectID, tok))
		if err != nil {
			if apperrors.Is(err, kv.ErrNil) {
				// Index entry without a detail record: dropped silently,
				// same as a dangling entry left by a crashed create.
				continue
			}
			return nil, fmt.Errorf("failed to load webhook %s: %w", tok, err)
		}

		var record models.WebhookToken
		if err := json.Unmarshal([]byte(raw), &record); err != nil {
			logger.Warn("Corrupt webhook record skipped",
				zap.String("project_id", projectID),
				zap.Error(err))
			continue
		}

		if lastUsed, err := r.store.Get(ctx, webhookLastUsedKey(tok)); err == nil {
			record.LastUsedAt = lastUsed
		} else if !apperrors.Is(err, kv.ErrNil) {
			return nil, fmt.Errorf("failed to load last-used marker for %s: %w", tok, err)
		}

		if count, err := r.store.Get(ctx, webhookCallCountKey(tok)); err == nil {
			if parsed, parseErr := strconv.ParseInt(count, 10, 64); parseErr == nil {
				record.CallCount = parsed
			}
		} else if !apperrors.Is(err, kv.ErrNil) {
			return nil, fmt.Errorf("failed to load call count for %s: %w", tok, err)
		}

		webhooks = append(webhooks, &record)
	}

	return webhooks, nil
}

// Delete removes the token's four keys and rewrites the project index with
// the token filtered out. Deletes are best-effort: a token that never
// existed still deletes successfully.
func (r *WebhookRepository) Delete(ctx context.Context, projectID, token string) error {
	if err := r.store.Del(ctx,
		webhookTokenKey(token),
		webhookDetailKey(projectID, token),
		webhookLastUsedKey(token),
		webhookCallCountKey(token),
	); err != nil {
		return fmt.Errorf("failed to delete webhook keys: %w", err)
	}

	tokens, err := r.projectTokens(ctx, projectID)
	if err != nil {
		return err
	}

	filtered := tokens[:0]
	for _, tok := range tokens {
		if tok != token {
			filtered = append(filtered, tok)
		}
	}
	return r.setProjectTokens(ctx, projectID, filtered)
}

func (r *WebhookRepository) TouchLastUsed(ctx context.Context, token, timestamp string) error {
	if err := r.store.Set(ctx, webhookLastUsedKey(token), timestamp); err != nil {
		return fmt.Errorf("failed to stamp last-used marker: %w", err)
	}
	return nil
}

func (r *WebhookRepository) IncrCallCount(ctx context.Context, token string) (int64, error) {
	count, err := r.store.Incr(ctx, webhookCallCountKey(token))
	if err != nil {
		return 0, fmt.Errorf("failed to increment call count: %w", err)
	}
	return count, nil
}

func (r *WebhookRepository) projectTokens(ctx context.Context, projectID string) ([]string, error) {
	raw, err := r.store.Get(ctx, projectWebhooksKey(projectID))
	if err != nil {
		if apperrors.Is(err, kv.ErrNil) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to load webhook index for project %s: %w", projectID, err)
	}

	var tokens []string
	if err := json.Unmarshal([]byte(raw), &tokens); err != nil {
		logger.Warn("Corrupt webhook index, treating as empty",
			zap.String("project_id", projectID),
			zap.Error(err))
		return []string{}, nil
	}
	return tokens, nil
}

func (r *WebhookRepository) setProjectTokens(ctx context.Context, projectID string, tokens []string) error {
	raw, err := json.Marshal(tokens)
	if err != nil {
		return fmt.Errorf("failed to encode webhook index: %w", err)
	}
	if err := r.store.Set(ctx, projectWebhooksKey(projectID), string(raw)); err != nil {
		return fmt.Errorf("failed to save webhook index for project %s: %w", projectID, err)
	}
	return nil
}
