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

// DataPointRepository stores data point records in the key-value store
type DataPointRepository struct {
	store kv.Store
}

// NewDataPointRepository creates a data point repository backed by the given store
func NewDataPointRepository(store kv.Store) *DataPointRepository {
	return &DataPointRepository{store: store}
}

func (r *DataPointRepository) GetByID(ctx context.Context, dataID string) (*models.DataPoint, error) {
	raw, err := r.store.Get(ctx, dataPointKey(dataID))
	if err != nil {
		if apperrors.Is(err, kv.ErrNil) {
			return nil, apperrors.NotFoundError("data point")
		}
		return nil, fmt.Errorf("failed to load data point %s: %w", dataID, err)
	}

	var point models.DataPoint
	if err := json.Unmarshal([]byte(raw), &point); err != nil {
		return nil, fmt.Errorf("failed to decode data point %s: %w", dataID, err)
	}
	return &point, nil
}

func (r *DataPointRepository) Add(ctx context.Context, point *models.DataPoint) error {
	raw, err := json.Marshal(point)
	if err != nil {
		return fmt.Errorf("failed to encode data point %s: %w", point.ID, err)
	}
	if err := r.store.Set(ctx, dataPointKey(point.ID), string(raw)); err != nil {
		return fmt.Errorf("failed to save data point %s: %w", point.ID, err)
	}

	ids, err := r.projectData(ctx, point.ProjectID)
	if err != nil {
		return err
	}
	ids = append(ids, point.ID)
	return r.setProjectData(ctx, point.ProjectID, ids)
}

func (r *DataPointRepository) ListByProject(ctx context.Context, projectID string) ([]*models.DataPoint, error) {
	ids, err := r.projectData(ctx, projectID)
	if err != nil {
		return nil, err
	}

	points := make([]*models.DataPoint, 0, len(ids))
	for _, id := range ids {
		point, err := r.GetByID(ctx, id)
		if err != nil {
			if apperrors.Is(err, apperrors.ErrNotFound) {
				continue
			}
			return nil, err
		}
		points = append(points, point)
	}
	return points, nil
}

func (r *DataPointRepository) Delete(ctx context.Context, projectID, dataID string) error {
	if err := r.store.Del(ctx, dataPointKey(dataID)); err != nil {
		return fmt.Errorf("failed to delete data point %s: %w", dataID, err)
	}

	ids, err := r.projectData(ctx, projectID)
	if err != nil {
		return err
	}

	filtered := ids[:0]
	for _, id := range ids {
		if id != dataID {
			filtered = append(filtered, id)
		}
	}
	return r.setProjectData(ctx, projectID, filtered)
}

func (r *DataPointRepository) DeleteAllForProject(ctx context.Context, projectID string) error {
	ids, err := r.projectData(ctx, projectID)
	if err != nil {
		return err
	}

	keys := make([]string, 0, len(ids)+1)
	for _, id := range ids {
		keys = append(keys, dataPointKey(id))
	}
	keys = append(keys, projectDataKey(projectID))

	if err := r.store.Del(ctx, keys...); err != nil {
		return fmt.Errorf("failed to delete data points for project %s: %w", projectID, err)
	}
	return nil
}

func (r *DataPointRepository) projectData(ctx context.Context, projectID string) ([]string, error) {
	raw, err := r.store.Get(ctx, projectDataKey(projectID))
	if err != nil {
		if apperrors.Is(err, kv.ErrNil) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to load data index for project %s: %w", projectID, err)
	}

	var ids []string
	if err := json.Unmarshal([]byte(raw), &ids); err != nil {
		logger.Warn("Corrupt data index, treating as empty",
			zap.String("project_id", projectID),
			zap.Error(err))
		return []string{}, nil
	}
	return ids, nil
}

func (r *DataPointRepository) setProjectData(ctx context.Context, projectID string, ids []string) error {
	raw, err := json.Marshal(ids)
	if err != nil {
		return fmt.Errorf("failed to encode data index: %w", err)
	}
	if err := r.store.Set(ctx, projectDataKey(projectID), string(raw)); err != nil {
		return fmt.Errorf("failed to save data index for project %s: %w", projectID, err)
	}
	return nil
}
