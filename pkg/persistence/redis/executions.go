package redis

import (
	"context"
	"encoding/json"
	"errors"

	goredis "github.com/redis/go-redis/v9"

	"github.com/dukex/dailygate/pkg/models"
	"github.com/dukex/dailygate/pkg/persistence"
)

// maxExecutionHistory caps the execution index list.
const maxExecutionHistory = 1000

type ExecutionRepository struct {
	client *goredis.Client
}

func executionKey(id string) string {
	return keyPrefix + "execution:" + id
}

const executionIndexKey = keyPrefix + "executions"

func (r *ExecutionRepository) Save(ctx context.Context, record *models.ExecutionRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return persistence.NewStoreError("SaveExecution", record.ID, err)
	}

	existed, err := r.client.Exists(ctx, executionKey(record.ID)).Result()
	if err != nil {
		return persistence.NewStoreError("SaveExecution", record.ID, err)
	}

	_, err = r.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.Set(ctx, executionKey(record.ID), data, 0)

		if existed == 0 {
			pipe.LPush(ctx, executionIndexKey, record.ID)
			pipe.LTrim(ctx, executionIndexKey, 0, maxExecutionHistory-1)
		}

		return nil
	})
	if err != nil {
		return persistence.NewStoreError("SaveExecution", record.ID, err)
	}

	return nil
}

func (r *ExecutionRepository) GetByID(ctx context.Context, id string) (*models.ExecutionRecord, error) {
	data, err := r.client.Get(ctx, executionKey(id)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, persistence.NewStoreError("GetExecution", id, persistence.ErrExecutionNotFound)
	}

	if err != nil {
		return nil, persistence.NewStoreError("GetExecution", id, err)
	}

	var record models.ExecutionRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, persistence.NewStoreError("GetExecution", id, err)
	}

	return &record, nil
}

// List returns up to limit records, newest first.
func (r *ExecutionRepository) List(ctx context.Context, limit int) ([]*models.ExecutionRecord, error) {
	if limit <= 0 || limit > maxExecutionHistory {
		limit = maxExecutionHistory
	}

	ids, err := r.client.LRange(ctx, executionIndexKey, 0, int64(limit)-1).Result()
	if err != nil {
		return nil, persistence.NewStoreError("ListExecutions", "", err)
	}

	records := make([]*models.ExecutionRecord, 0, len(ids))

	for _, id := range ids {
		record, err := r.GetByID(ctx, id)
		if persistence.IsExecutionNotFound(err) {
			continue
		}

		if err != nil {
			return nil, err
		}

		records = append(records, record)
	}

	return records, nil
}
