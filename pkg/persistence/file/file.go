// Package file provides file-based persistence for daily codes,
// tokens, execution records and audit entries. Each record is a JSON
// file under the configured root directory; access is serialized with
// a per-repository mutex, which is sufficient for the single-process
// deployment model.
package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dukex/dailygate/pkg/persistence"
)

// Persistence implements persistence.Persistence on the local file system.
type Persistence struct {
	root          string
	codeRepo      *CodeRepository
	tokenRepo     *TokenRepository
	executionRepo *ExecutionRepository
	auditRepo     *AuditRepository
}

// NewPersistence creates a file persistence rooted at the given
// directory. Accepts plain paths and file:// URLs.
func NewPersistence(root string) *Persistence {
	cleanRoot := strings.Replace(root, "file://", "", 1)

	return &Persistence{
		root:          cleanRoot,
		codeRepo:      NewCodeRepository(filepath.Join(cleanRoot, "codes")),
		tokenRepo:     NewTokenRepository(filepath.Join(cleanRoot, "tokens")),
		executionRepo: NewExecutionRepository(filepath.Join(cleanRoot, "executions")),
		auditRepo:     NewAuditRepository(filepath.Join(cleanRoot, "audit")),
	}
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

// HealthCheck verifies the root directory exists, creating it on first use.
func (p *Persistence) HealthCheck(_ context.Context) error {
	return os.MkdirAll(p.root, 0o750)
}

// Close performs any necessary cleanup. For file persistence there is
// nothing to clean up.
func (p *Persistence) Close(_ context.Context) error {
	return nil
}

func readJSON(path string, out any) error {
	data, err := os.ReadFile(path) //nolint:gosec // paths are store-generated, not user input
	if err != nil {
		return err
	}

	return json.Unmarshal(data, out)
}

func writeJSON(path string, in any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	data, err := json.MarshalIndent(in, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("failed to write record: %w", err)
	}

	return os.Rename(tmp, path)
}
