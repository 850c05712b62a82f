// Package redis provides Redis-backed persistence. Codes and tokens
// lean on native key TTLs for retention; executions and audit entries
// live in capped lists so the store cannot grow without bound.
package redis

import (
	"context"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"github.com/dukex/dailygate/pkg/persistence"
)

const keyPrefix = "dailygate:"

// Persistence implements persistence.Persistence on Redis.
type Persistence struct {
	client        *goredis.Client
	codeRepo      *CodeRepository
	tokenRepo     *TokenRepository
	executionRepo *ExecutionRepository
	auditRepo     *AuditRepository
}

// NewPersistence connects to Redis using a redis:// URL.
func NewPersistence(databaseURL string) (*Persistence, error) {
	opts, err := goredis.ParseURL(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}

	client := goredis.NewClient(opts)

	return &Persistence{
		client:        client,
		codeRepo:      &CodeRepository{client: client},
		tokenRepo:     &TokenRepository{client: client},
		executionRepo: &ExecutionRepository{client: client},
		auditRepo:     &AuditRepository{client: client},
	}, nil
}

func (p *Persistence) Codes() persistence.CodeRepository {
	return p.codeRepo
}

func (p *Persistence) Tokens() persistence.TokenRepository {
	return p.tokenRepo
}

func (p *Persistence) Executions() persistence.ExecutionRepository {
	return p.executionRepo
}

func (p *Persistence) Audit() persistence.AuditRepository {
	return p.auditRepo
}

func (p *Persistence) HealthCheck(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}

func (p *Persistence) Close(_ context.Context) error {
	return p.client.Close()
}
