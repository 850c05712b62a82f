package auth_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/dukex/dailygate/pkg/auth"
	"github.com/dukex/dailygate/pkg/config"
	"github.com/dukex/dailygate/pkg/log"
	"github.com/dukex/dailygate/pkg/models"
	"github.com/dukex/dailygate/pkg/persistence/file"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}

func testUsers() *config.Users {
	return config.NewStaticUsers(map[string]config.User{
		"admin":    {Email: "admin@example.com", Role: "admin", Enabled: true},
		"viewer":   {Email: "viewer@example.com", Role: "user", Enabled: true},
		"disabled": {Email: "off@example.com", Role: "user", Enabled: false},
	})
}

func setupService(t *testing.T) (*auth.Service, *fakeClock) {
	t.Helper()

	clock := &fakeClock{now: time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)}
	store := file.NewPersistence(t.TempDir())
	service := auth.NewServiceWithClock(store, testUsers(), nil, nil, log.WithModule("test"), clock.Now)

	return service, clock
}

func TestService_IssueDailyCodeIdempotent(t *testing.T) {
	t.Parallel()

	service, _ := setupService(t)
	ctx := context.Background()

	first, created, err := service.IssueDailyCode(ctx, "admin")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Len(t, first.Code, 8)
	assert.NotContains(t, first.Code, "0")
	assert.NotContains(t, first.Code, "O")
	assert.NotContains(t, first.Code, "1")
	assert.NotContains(t, first.Code, "I")

	second, created, err := service.IssueDailyCode(ctx, "admin")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.Code, second.Code, "same-day issuance returns the same code")
}

func TestService_IssueDailyCodePerIdentity(t *testing.T) {
	t.Parallel()

	service, _ := setupService(t)
	ctx := context.Background()

	adminCode, _, err := service.IssueDailyCode(ctx, "admin")
	require.NoError(t, err)

	viewerCode, _, err := service.IssueDailyCode(ctx, "viewer")
	require.NoError(t, err)

	assert.NotEqual(t, adminCode.Code, viewerCode.Code)
}

func TestService_IssueDailyCodeRejectsDisabled(t *testing.T) {
	t.Parallel()

	service, _ := setupService(t)

	_, _, err := service.IssueDailyCode(context.Background(), "disabled")
	require.Error(t, err)
}

func TestService_LoginSuccess(t *testing.T) {
	t.Parallel()

	service, _ := setupService(t)
	ctx := context.Background()

	code, _, err := service.IssueDailyCode(ctx, "admin")
	require.NoError(t, err)

	token, err := service.Login(ctx, "admin", code.Code, "10.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, "admin", token.Identity)
	assert.NotEmpty(t, token.Value)

	identity, err := service.Verify(ctx, token.Value)
	require.NoError(t, err)
	assert.Equal(t, "admin", identity)
}

func TestService_LoginCaseInsensitive(t *testing.T) {
	t.Parallel()

	service, _ := setupService(t)
	ctx := context.Background()

	code, _, err := service.IssueDailyCode(ctx, "admin")
	require.NoError(t, err)

	_, err = service.Login(ctx, "admin", strings.ToLower(code.Code), "10.0.0.1")
	require.NoError(t, err)
}

func TestService_LoginSingleUse(t *testing.T) {
	t.Parallel()

	service, _ := setupService(t)
	ctx := context.Background()

	code, _, err := service.IssueDailyCode(ctx, "admin")
	require.NoError(t, err)

	_, err = service.Login(ctx, "admin", code.Code, "10.0.0.1")
	require.NoError(t, err)

	_, err = service.Login(ctx, "admin", code.Code, "10.0.0.1")
	require.Error(t, err)
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials, "a consumed code cannot log in again")
}

func TestService_LoginFailuresAreOpaque(t *testing.T) {
	t.Parallel()

	service, _ := setupService(t)
	ctx := context.Background()

	code, _, err := service.IssueDailyCode(ctx, "admin")
	require.NoError(t, err)

	tests := []struct {
		name     string
		identity string
		code     string
	}{
		{name: "unknown identity", identity: "ghost", code: code.Code},
		{name: "disabled identity", identity: "disabled", code: code.Code},
		{name: "wrong code", identity: "admin", code: "WRONG234"},
		{name: "another identity's code", identity: "viewer", code: code.Code},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := service.Login(ctx, tt.identity, tt.code, "10.0.0.1")
			require.Error(t, err)
			assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
		})
	}
}

func TestService_LoginStaleCodeRejectedNextDay(t *testing.T) {
	t.Parallel()

	service, clock := setupService(t)
	ctx := context.Background()

	code, _, err := service.IssueDailyCode(ctx, "admin")
	require.NoError(t, err)

	clock.Advance(24 * time.Hour)

	_, err = service.Login(ctx, "admin", code.Code, "10.0.0.1")
	require.Error(t, err)
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
}

func TestService_LoginRateLimited(t *testing.T) {
	t.Parallel()

	service, clock := setupService(t)
	ctx := context.Background()

	for range 5 {
		_, err := service.Login(ctx, "admin", "WRONG234", "10.0.0.1")
		assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
	}

	_, err := service.Login(ctx, "admin", "WRONG234", "10.0.0.1")
	assert.ErrorIs(t, err, auth.ErrRateLimited)

	clock.Advance(15*time.Minute + time.Second)

	_, err = service.Login(ctx, "admin", "WRONG234", "10.0.0.1")
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials, "window expiry restores attempts")
}

func TestService_VerifyExpiryBoundary(t *testing.T) {
	t.Parallel()

	service, clock := setupService(t)
	ctx := context.Background()

	code, _, err := service.IssueDailyCode(ctx, "admin")
	require.NoError(t, err)

	token, err := service.Login(ctx, "admin", code.Code, "10.0.0.1")
	require.NoError(t, err)

	clock.Advance(models.TokenTTL - time.Second)

	_, err = service.Verify(ctx, token.Value)
	require.NoError(t, err, "token just under the TTL is accepted")

	clock.Advance(time.Second)

	_, err = service.Verify(ctx, token.Value)
	assert.ErrorIs(t, err, auth.ErrInvalidToken, "token aged exactly the TTL is rejected")
}

func TestService_VerifyExpiredTokenLeftForSweep(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{now: time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)}
	store := file.NewPersistence(t.TempDir())
	service := auth.NewServiceWithClock(store, testUsers(), nil, nil, log.WithModule("test"), clock.Now)
	ctx := context.Background()

	code, _, err := service.IssueDailyCode(ctx, "admin")
	require.NoError(t, err)

	token, err := service.Login(ctx, "admin", code.Code, "10.0.0.1")
	require.NoError(t, err)

	clock.Advance(models.TokenTTL)

	_, err = service.Verify(ctx, token.Value)
	require.ErrorIs(t, err, auth.ErrInvalidToken)

	stored, err := store.Tokens().GetByValue(ctx, token.Value)
	require.NoError(t, err, "expired tokens stay stored until Sweep removes them")
	assert.Equal(t, "admin", stored.Identity)
}

func TestService_VerifyUnknownToken(t *testing.T) {
	t.Parallel()

	service, _ := setupService(t)

	_, err := service.Verify(context.Background(), "no-such-token")
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestService_Logout(t *testing.T) {
	t.Parallel()

	service, _ := setupService(t)
	ctx := context.Background()

	code, _, err := service.IssueDailyCode(ctx, "admin")
	require.NoError(t, err)

	token, err := service.Login(ctx, "admin", code.Code, "10.0.0.1")
	require.NoError(t, err)

	require.NoError(t, service.Logout(ctx, token.Value))

	_, err = service.Verify(ctx, token.Value)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)

	assert.NoError(t, service.Logout(ctx, "unknown-token"))
}

func TestService_Sweep(t *testing.T) {
	t.Parallel()

	service, clock := setupService(t)
	ctx := context.Background()

	code, _, err := service.IssueDailyCode(ctx, "admin")
	require.NoError(t, err)

	token, err := service.Login(ctx, "admin", code.Code, "10.0.0.1")
	require.NoError(t, err)

	clock.Advance(25 * time.Hour)

	codes, tokens, err := service.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, codes)
	assert.Equal(t, 1, tokens)

	_, err = service.Verify(ctx, token.Value)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}
