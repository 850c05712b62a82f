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

type TokenRepository struct {
	client *goredis.Client
}

func tokenKey(value string) string {
	return keyPrefix + "token:" + value
}

func (r *TokenRepository) GetByValue(ctx context.Context, value string) (*models.Token, error) {
	data, err := r.client.Get(ctx, tokenKey(value)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, persistence.NewStoreError("GetToken", "", persistence.ErrTokenNotFound)
	}

	if err != nil {
		return nil, persistence.NewStoreError("GetToken", "", err)
	}

	var token models.Token
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, persistence.NewStoreError("GetToken", "", err)
	}

	return &token, nil
}

func (r *TokenRepository) Save(ctx context.Context, token *models.Token) error {
	data, err := json.Marshal(token)
	if err != nil {
		return persistence.NewStoreError("SaveToken", "", err)
	}

	if err := r.client.Set(ctx, tokenKey(token.Value), data, models.TokenTTL).Err(); err != nil {
		return persistence.NewStoreError("SaveToken", "", err)
	}

	return nil
}

func (r *TokenRepository) Delete(ctx context.Context, value string) error {
	deleted, err := r.client.Del(ctx, tokenKey(value)).Result()
	if err != nil {
		return persistence.NewStoreError("DeleteToken", "", err)
	}

	if deleted == 0 {
		return persistence.NewStoreError("DeleteToken", "", persistence.ErrTokenNotFound)
	}

	return nil
}

// DeleteIssuedBefore removes tokens issued before the cutoff. Redis
// already expires token keys via the TTL on Save; the scan covers
// tokens written by other backends or with a longer retention.
func (r *TokenRepository) DeleteIssuedBefore(ctx context.Context, cutoff time.Time) (int, error) {
	removed := 0

	iter := r.client.Scan(ctx, 0, keyPrefix+"token:*", 0).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()

		data, err := r.client.Get(ctx, key).Bytes()
		if err != nil {
			continue
		}

		var token models.Token
		if err := json.Unmarshal(data, &token); err != nil {
			continue
		}

		if token.IssuedAt.Before(cutoff) {
			if err := r.client.Del(ctx, key).Err(); err != nil {
				return removed, persistence.NewStoreError("SweepTokens", "", err)
			}

			removed++
		}
	}

	if err := iter.Err(); err != nil {
		return removed, persistence.NewStoreError("SweepTokens", "", err)
	}

	return removed, nil
}
