package redis

import (
	"context"
	"encoding/json"

	goredis "github.com/redis/go-redis/v9"

	"github.com/dukex/dailygate/pkg/models"
	"github.com/dukex/dailygate/pkg/persistence"
)

// maxAuditHistory caps the audit list.
const maxAuditHistory = 10000

const auditKey = keyPrefix + "audit"

type AuditRepository struct {
	client *goredis.Client
}

func (r *AuditRepository) Append(ctx context.Context, entry *models.AuditEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return persistence.NewStoreError("AppendAudit", "", err)
	}

	_, err = r.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.LPush(ctx, auditKey, data)
		pipe.LTrim(ctx, auditKey, 0, maxAuditHistory-1)

		return nil
	})
	if err != nil {
		return persistence.NewStoreError("AppendAudit", "", err)
	}

	return nil
}

// List returns up to limit entries, newest first.
func (r *AuditRepository) List(ctx context.Context, limit int) ([]*models.AuditEntry, error) {
	if limit <= 0 || limit > maxAuditHistory {
		limit = maxAuditHistory
	}

	items, err := r.client.LRange(ctx, auditKey, 0, int64(limit)-1).Result()
	if err != nil {
		return nil, persistence.NewStoreError("ListAudit", "", err)
	}

	entries := make([]*models.AuditEntry, 0, len(items))

	for _, item := range items {
		var entry models.AuditEntry
		if err := json.Unmarshal([]byte(item), &entry); err != nil {
			continue
		}

		entries = append(entries, &entry)
	}

	return entries, nil
}
