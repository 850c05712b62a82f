package scheduler_test

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/dukex/dailygate/pkg/auth"
	"github.com/dukex/dailygate/pkg/config"
	"github.com/dukex/dailygate/pkg/models"
	"github.com/dukex/dailygate/pkg/persistence/file"
	"github.com/dukex/dailygate/pkg/scheduler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScheduler_IssuesCodesOnStart(t *testing.T) {
	t.Parallel()

	store := file.NewPersistence(t.TempDir())
	users := config.NewStaticUsers(map[string]config.User{
		"admin":    {Email: "admin@example.com", Role: "admin", Enabled: true},
		"viewer":   {Email: "viewer@example.com", Role: "user", Enabled: true},
		"disabled": {Email: "off@example.com", Role: "user", Enabled: false},
	})

	authService := auth.NewService(store, users, nil, nil, slog.Default())
	sched := scheduler.NewScheduler(authService, users, slog.Default())

	ctx := context.Background()
	require.NoError(t, sched.Start(ctx))

	stopCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	require.NoError(t, sched.Stop(stopCtx))

	today := time.Now().Format(models.DateLayout)

	for _, identity := range []string{"admin", "viewer"} {
		code, err := store.Codes().GetByIdentityAndDate(ctx, identity, today)
		require.NoError(t, err, "startup rotation issues codes for enabled identities")
		assert.Len(t, code.Code, 8)
	}

	_, err := store.Codes().GetByIdentityAndDate(ctx, "disabled", today)
	assert.Error(t, err, "disabled identities get no code")
}

func TestScheduler_StartupRotationIsIdempotent(t *testing.T) {
	t.Parallel()

	store := file.NewPersistence(t.TempDir())
	users := config.NewStaticUsers(map[string]config.User{
		"admin": {Email: "admin@example.com", Role: "admin", Enabled: true},
	})

	authService := auth.NewService(store, users, nil, nil, slog.Default())

	ctx := context.Background()

	existing, _, err := authService.IssueDailyCode(ctx, "admin")
	require.NoError(t, err)

	sched := scheduler.NewScheduler(authService, users, slog.Default())
	require.NoError(t, sched.Start(ctx))

	stopCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	require.NoError(t, sched.Stop(stopCtx))

	today := time.Now().Format(models.DateLayout)

	code, err := store.Codes().GetByIdentityAndDate(ctx, "admin", today)
	require.NoError(t, err)
	assert.Equal(t, existing.Code, code.Code, "rotation keeps the already issued code")
}
