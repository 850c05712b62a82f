package persistence

import (
	"context"
	"time"

	"github.com/dukex/dailygate/pkg/models"
)

// CodeRepository stores daily codes. The store enforces at most one
// code per (identity, date) pair; Create returns ErrCodeAlreadyExists
// when a concurrent caller won the race.
type CodeRepository interface {
	GetByIdentityAndDate(ctx context.Context, identity, date string) (*models.DailyCode, error)
	Create(ctx context.Context, code *models.DailyCode) error
	MarkUsed(ctx context.Context, identity, date string, usedAt time.Time, usedBy string) error
	DeleteBefore(ctx context.Context, date string) (int, error)
}

// TokenRepository stores issued bearer tokens.
type TokenRepository interface {
	GetByValue(ctx context.Context, value string) (*models.Token, error)
	Save(ctx context.Context, token *models.Token) error
	Delete(ctx context.Context, value string) error
	DeleteIssuedBefore(ctx context.Context, cutoff time.Time) (int, error)
}

// ExecutionRepository stores workflow execution records. Save is used
// both to create the pending record and to finalize it; finalized
// records are never rewritten by the runner.
type ExecutionRepository interface {
	Save(ctx context.Context, record *models.ExecutionRecord) error
	GetByID(ctx context.Context, id string) (*models.ExecutionRecord, error)
	List(ctx context.Context, limit int) ([]*models.ExecutionRecord, error)
}

// AuditRepository stores authentication and admin audit entries.
// Appends must never block a user-facing operation on failure; callers
// log and continue.
type AuditRepository interface {
	Append(ctx context.Context, entry *models.AuditEntry) error
	List(ctx context.Context, limit int) ([]*models.AuditEntry, error)
}

// Persistence aggregates the repositories behind one backend.
type Persistence interface {
	Codes() CodeRepository
	Tokens() TokenRepository
	Executions() ExecutionRepository
	Audit() AuditRepository

	HealthCheck(ctx context.Context) error
	Close(ctx context.Context) error
}
