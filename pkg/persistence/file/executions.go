package file

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/dukex/dailygate/pkg/models"
	"github.com/dukex/dailygate/pkg/persistence"
)

// ExecutionRepository stores one JSON file per execution record.
type ExecutionRepository struct {
	dir string
	mu  sync.Mutex
}

func NewExecutionRepository(dir string) *ExecutionRepository {
	return &ExecutionRepository{dir: dir}
}

func (r *ExecutionRepository) path(id string) string {
	return filepath.Join(r.dir, id+".json")
}

func (r *ExecutionRepository) Save(_ context.Context, record *models.ExecutionRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := writeJSON(r.path(record.ID), record); err != nil {
		return persistence.NewStoreError("SaveExecution", record.ID, err)
	}

	return nil
}

func (r *ExecutionRepository) GetByID(_ context.Context, id string) (*models.ExecutionRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var record models.ExecutionRecord

	err := readJSON(r.path(id), &record)
	if os.IsNotExist(err) {
		return nil, persistence.NewStoreError("GetExecution", id, persistence.ErrExecutionNotFound)
	}

	if err != nil {
		return nil, persistence.NewStoreError("GetExecution", id, err)
	}

	return &record, nil
}

// List returns up to limit records, newest first.
func (r *ExecutionRepository) List(_ context.Context, limit int) ([]*models.ExecutionRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entries, err := os.ReadDir(r.dir)
	if os.IsNotExist(err) {
		return nil, nil
	}

	if err != nil {
		return nil, persistence.NewStoreError("ListExecutions", "", err)
	}

	records := make([]*models.ExecutionRecord, 0, len(entries))

	for _, entry := range entries {
		var record models.ExecutionRecord
		if err := readJSON(filepath.Join(r.dir, entry.Name()), &record); err != nil {
			continue
		}

		records = append(records, &record)
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].StartedAt.After(records[j].StartedAt)
	})

	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}

	return records, nil
}
