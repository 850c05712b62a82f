package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/dukex/dailygate/pkg/models"
	"github.com/dukex/dailygate/pkg/persistence"
)

// codeRetention keeps yesterday's record around long enough for the
// sweep job to observe it; validity itself is decided by the date
// field, not the key TTL.
const codeRetention = 48 * time.Hour

type CodeRepository struct {
	client *goredis.Client
}

func codeKey(identity, date string) string {
	return keyPrefix + "code:" + identity + ":" + date
}

func (r *CodeRepository) GetByIdentityAndDate(ctx context.Context, identity, date string) (*models.DailyCode, error) {
	data, err := r.client.Get(ctx, codeKey(identity, date)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, persistence.NewStoreError("GetCode", identity+"/"+date, persistence.ErrCodeNotFound)
	}

	if err != nil {
		return nil, persistence.NewStoreError("GetCode", identity+"/"+date, err)
	}

	var code models.DailyCode
	if err := json.Unmarshal(data, &code); err != nil {
		return nil, persistence.NewStoreError("GetCode", identity+"/"+date, err)
	}

	return &code, nil
}

// Create stores the code with SETNX semantics so two concurrent issuers
// for the same (identity, date) cannot both win.
func (r *CodeRepository) Create(ctx context.Context, code *models.DailyCode) error {
	key := codeKey(code.Identity, code.Date)

	data, err := json.Marshal(code)
	if err != nil {
		return persistence.NewStoreError("CreateCode", key, err)
	}

	ok, err := r.client.SetNX(ctx, key, data, codeRetention).Result()
	if err != nil {
		return persistence.NewStoreError("CreateCode", key, err)
	}

	if !ok {
		return persistence.NewStoreError("CreateCode", key, persistence.ErrCodeAlreadyExists)
	}

	return nil
}

// MarkUsed flips the used flag inside a WATCH transaction so the
// single-use invariant holds under concurrent logins.
func (r *CodeRepository) MarkUsed(ctx context.Context, identity, date string, usedAt time.Time, usedBy string) error {
	key := codeKey(identity, date)

	txn := func(tx *goredis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, goredis.Nil) {
			return persistence.ErrCodeNotFound
		}

		if err != nil {
			return err
		}

		var code models.DailyCode
		if err := json.Unmarshal(data, &code); err != nil {
			return err
		}

		if code.Used {
			return persistence.ErrCodeAlreadyUsed
		}

		code.Used = true
		code.UsedAt = &usedAt
		code.UsedBy = usedBy

		updated, err := json.Marshal(&code)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
			pipe.Set(ctx, key, updated, goredis.KeepTTL)

			return nil
		})

		return err
	}

	if err := r.client.Watch(ctx, txn, key); err != nil {
		return persistence.NewStoreError("MarkCodeUsed", key, err)
	}

	return nil
}

// DeleteBefore scans for code keys scoped to dates before the cutoff.
// Redis expires them on its own via codeRetention; the scan exists so
// the sweep job can report what it removed.
func (r *CodeRepository) DeleteBefore(ctx context.Context, date string) (int, error) {
	removed := 0

	iter := r.client.Scan(ctx, 0, keyPrefix+"code:*", 0).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()

		idx := len(key) - len(models.DateLayout)
		if idx <= 0 || key[idx:] >= date {
			continue
		}

		if err := r.client.Del(ctx, key).Err(); err != nil {
			return removed, persistence.NewStoreError("DeleteCodesBefore", key, err)
		}

		removed++
	}

	if err := iter.Err(); err != nil {
		return removed, persistence.NewStoreError("DeleteCodesBefore", "", err)
	}

	return removed, nil
}
