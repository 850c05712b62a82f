package file

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/dukex/dailygate/pkg/models"
	"github.com/dukex/dailygate/pkg/persistence"
)

// CodeRepository stores one JSON file per (identity, date) pair, e.g.
// codes/admin_2025-06-01.json. The file name doubles as the uniqueness
// constraint.
type CodeRepository struct {
	dir string
	mu  sync.Mutex
}

func NewCodeRepository(dir string) *CodeRepository {
	return &CodeRepository{dir: dir}
}

func (r *CodeRepository) path(identity, date string) string {
	return filepath.Join(r.dir, identity+"_"+date+".json")
}

func (r *CodeRepository) GetByIdentityAndDate(_ context.Context, identity, date string) (*models.DailyCode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.read(identity, date)
}

func (r *CodeRepository) read(identity, date string) (*models.DailyCode, error) {
	var code models.DailyCode

	err := readJSON(r.path(identity, date), &code)
	if os.IsNotExist(err) {
		return nil, persistence.NewStoreError("GetCode", identity+"/"+date, persistence.ErrCodeNotFound)
	}

	if err != nil {
		return nil, persistence.NewStoreError("GetCode", identity+"/"+date, err)
	}

	return &code, nil
}

func (r *CodeRepository) Create(_ context.Context, code *models.DailyCode) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	path := r.path(code.Identity, code.Date)
	if _, err := os.Stat(path); err == nil {
		return persistence.NewStoreError("CreateCode", code.Identity+"/"+code.Date, persistence.ErrCodeAlreadyExists)
	}

	if err := writeJSON(path, code); err != nil {
		return persistence.NewStoreError("CreateCode", code.Identity+"/"+code.Date, err)
	}

	return nil
}

func (r *CodeRepository) MarkUsed(_ context.Context, identity, date string, usedAt time.Time, usedBy string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	code, err := r.read(identity, date)
	if err != nil {
		return err
	}

	if code.Used {
		return persistence.NewStoreError("MarkCodeUsed", identity+"/"+date, persistence.ErrCodeAlreadyUsed)
	}

	code.Used = true
	code.UsedAt = &usedAt
	code.UsedBy = usedBy

	if err := writeJSON(r.path(identity, date), code); err != nil {
		return persistence.NewStoreError("MarkCodeUsed", identity+"/"+date, err)
	}

	return nil
}

// DeleteBefore removes all codes scoped to a date lexicographically
// before the cutoff. Date keys sort chronologically by construction.
func (r *CodeRepository) DeleteBefore(_ context.Context, date string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entries, err := os.ReadDir(r.dir)
	if os.IsNotExist(err) {
		return 0, nil
	}

	if err != nil {
		return 0, persistence.NewStoreError("DeleteCodesBefore", date, err)
	}

	removed := 0

	for _, entry := range entries {
		name := strings.TrimSuffix(entry.Name(), ".json")

		idx := strings.LastIndex(name, "_")
		if idx < 0 {
			continue
		}

		if name[idx+1:] < date {
			if err := os.Remove(filepath.Join(r.dir, entry.Name())); err != nil {
				return removed, persistence.NewStoreError("DeleteCodesBefore", entry.Name(), err)
			}

			removed++
		}
	}

	return removed, nil
}
