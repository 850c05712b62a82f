package file

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/dukex/dailygate/pkg/models"
	"github.com/dukex/dailygate/pkg/persistence"
)

// TokenRepository stores one JSON file per token. Token values are
// base64url strings, so they are file-name safe as-is.
type TokenRepository struct {
	dir string
	mu  sync.Mutex
}

func NewTokenRepository(dir string) *TokenRepository {
	return &TokenRepository{dir: dir}
}

func (r *TokenRepository) path(value string) string {
	return filepath.Join(r.dir, value+".json")
}

func (r *TokenRepository) GetByValue(_ context.Context, value string) (*models.Token, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var token models.Token

	err := readJSON(r.path(value), &token)
	if os.IsNotExist(err) {
		return nil, persistence.NewStoreError("GetToken", "", persistence.ErrTokenNotFound)
	}

	if err != nil {
		return nil, persistence.NewStoreError("GetToken", "", err)
	}

	return &token, nil
}

func (r *TokenRepository) Save(_ context.Context, token *models.Token) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := writeJSON(r.path(token.Value), token); err != nil {
		return persistence.NewStoreError("SaveToken", "", err)
	}

	return nil
}

func (r *TokenRepository) Delete(_ context.Context, value string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	err := os.Remove(r.path(value))
	if os.IsNotExist(err) {
		return persistence.NewStoreError("DeleteToken", "", persistence.ErrTokenNotFound)
	}

	if err != nil {
		return persistence.NewStoreError("DeleteToken", "", err)
	}

	return nil
}

func (r *TokenRepository) DeleteIssuedBefore(_ context.Context, cutoff time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entries, err := os.ReadDir(r.dir)
	if os.IsNotExist(err) {
		return 0, nil
	}

	if err != nil {
		return 0, persistence.NewStoreError("SweepTokens", "", err)
	}

	removed := 0

	for _, entry := range entries {
		var token models.Token
		if err := readJSON(filepath.Join(r.dir, entry.Name()), &token); err != nil {
			continue
		}

		if token.IssuedAt.Before(cutoff) {
			if err := os.Remove(filepath.Join(r.dir, entry.Name())); err != nil {
				return removed, persistence.NewStoreError("SweepTokens", "", err)
			}

			removed++
		}
	}

	return removed, nil
}
