package cmd

import (
	"fmt"
	"strings"

	"github.com/dukex/dailygate/pkg/persistence"
	"github.com/dukex/dailygate/pkg/persistence/file"
	"github.com/dukex/dailygate/pkg/persistence/redis"
)

// NewPersistence selects a storage backend from the database URL
// scheme. Unknown schemes fall back to file storage.
func NewPersistence(databaseURL string) persistence.Persistence {
	switch parseProvider(databaseURL) {
	case "redis":
		p, err := redis.NewPersistence(databaseURL)
		if err != nil {
			panic(fmt.Errorf("failed to create redis persistence: %w", err))
		}

		return p
	default:
		return file.NewPersistence(strings.TrimPrefix(databaseURL, "file://"))
	}
}

func parseProvider(databaseURL string) string {
	provider, _, found := strings.Cut(databaseURL, "://")
	if !found {
		return "file"
	}

	return provider
}
