package file

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/dukex/dailygate/pkg/models"
	"github.com/dukex/dailygate/pkg/persistence"
)

// AuditRepository appends entries to a single JSON-lines file.
type AuditRepository struct {
	dir string
	mu  sync.Mutex
}

func NewAuditRepository(dir string) *AuditRepository {
	return &AuditRepository{dir: dir}
}

func (r *AuditRepository) path() string {
	return filepath.Join(r.dir, "audit.jsonl")
}

func (r *AuditRepository) Append(_ context.Context, entry *models.AuditEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := os.MkdirAll(r.dir, 0o750); err != nil {
		return persistence.NewStoreError("AppendAudit", "", err)
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return persistence.NewStoreError("AppendAudit", "", err)
	}

	f, err := os.OpenFile(r.path(), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return persistence.NewStoreError("AppendAudit", "", err)
	}
	defer f.Close()

	if _, err := f.Write(append(data, '\n')); err != nil {
		return persistence.NewStoreError("AppendAudit", "", err)
	}

	return nil
}

// List returns up to limit entries, newest first.
func (r *AuditRepository) List(_ context.Context, limit int) ([]*models.AuditEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	f, err := os.Open(r.path())
	if os.IsNotExist(err) {
		return nil, nil
	}

	if err != nil {
		return nil, persistence.NewStoreError("ListAudit", "", err)
	}
	defer f.Close()

	var entries []*models.AuditEntry

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var entry models.AuditEntry
		if err := json.Unmarshal(scanner.Bytes(), &entry); err != nil {
			continue
		}

		entries = append(entries, &entry)
	}

	if err := scanner.Err(); err != nil {
		return nil, persistence.NewStoreError("ListAudit", "", err)
	}

	// Reverse to newest-first.
	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}

	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}

	return entries, nil
}
