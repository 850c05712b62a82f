// Package auth implements daily-code issuance, login, bearer token
// verification and credential sweeping.
package auth

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dukex/dailygate/pkg/config"
	"github.com/dukex/dailygate/pkg/eventbus"
	"github.com/dukex/dailygate/pkg/events"
	"github.com/dukex/dailygate/pkg/mailer"
	"github.com/dukex/dailygate/pkg/models"
	"github.com/dukex/dailygate/pkg/persistence"
	"github.com/dukex/dailygate/pkg/ratelimit"
)

var (
	// ErrInvalidCredentials is the single failure returned for unknown
	// identities, wrong codes, used codes and stale codes. Login never
	// discloses which check failed.
	ErrInvalidCredentials = errors.New("invalid identity or access code")

	// ErrRateLimited indicates the identity exhausted its login attempts
	// for the current window.
	ErrRateLimited = errors.New("too many login attempts")

	// ErrInvalidToken covers unknown and expired bearer tokens.
	ErrInvalidToken = errors.New("invalid or expired token")
)

const (
	// codeAlphabet excludes 0, O, 1 and I to keep codes unambiguous when
	// read from an email. Its length of 32 makes 5-bit sampling uniform.
	codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	codeLength   = 8

	tokenBytes = 32

	maxLoginAttempts = 5
	loginWindow      = 15 * time.Minute
)

// Service owns the authentication lifecycle. All time arithmetic goes
// through the injected clock so expiry boundaries are testable.
type Service struct {
	persistence persistence.Persistence
	users       *config.Users
	mail        mailer.Sender
	publisher   eventbus.EventPublisher
	limiter     *ratelimit.Limiter
	logger      *slog.Logger
	now         func() time.Time
}

func NewService(store persistence.Persistence, users *config.Users, mail mailer.Sender, publisher eventbus.EventPublisher, logger *slog.Logger) *Service {
	return newService(store, users, mail, publisher, logger, time.Now)
}

// NewServiceWithClock is NewService with an injectable clock, for tests.
func NewServiceWithClock(store persistence.Persistence, users *config.Users, mail mailer.Sender, publisher eventbus.EventPublisher, logger *slog.Logger, now func() time.Time) *Service {
	return newService(store, users, mail, publisher, logger, now)
}

func newService(store persistence.Persistence, users *config.Users, mail mailer.Sender, publisher eventbus.EventPublisher, logger *slog.Logger, now func() time.Time) *Service {
	if mail == nil {
		mail = mailer.NewNoop(logger)
	}

	return &Service{
		persistence: store,
		users:       users,
		mail:        mail,
		publisher:   publisher,
		limiter:     ratelimit.NewWithClock(maxLoginAttempts, loginWindow, now),
		logger:      logger.With("module", "auth"),
		now:         now,
	}
}

// Today returns the current calendar date key.
func (s *Service) Today() string {
	return s.now().Format(models.DateLayout)
}

// IssueDailyCode returns the code for the identity's current date,
// creating it if none exists yet. Issuance is idempotent: repeated
// calls on the same day return the same code. The returned bool
// reports whether a new code was created.
func (s *Service) IssueDailyCode(ctx context.Context, identity string) (*models.DailyCode, bool, error) {
	if !s.users.IsEnabled(identity) {
		return nil, false, fmt.Errorf("identity %q is not enabled", identity)
	}

	date := s.Today()

	existing, err := s.persistence.Codes().GetByIdentityAndDate(ctx, identity, date)
	if err == nil {
		return existing, false, nil
	}

	if !persistence.IsCodeNotFound(err) {
		return nil, false, fmt.Errorf("failed to look up daily code: %w", err)
	}

	code := &models.DailyCode{
		Code:     generateCode(),
		Identity: identity,
		Date:     date,
		IssuedAt: s.now().UTC(),
	}

	if err := s.persistence.Codes().Create(ctx, code); err != nil {
		// A concurrent issuer may have won; the stored code is the one
		// that counts.
		if errors.Is(err, persistence.ErrCodeAlreadyExists) {
			stored, getErr := s.persistence.Codes().GetByIdentityAndDate(ctx, identity, date)
			if getErr != nil {
				return nil, false, fmt.Errorf("failed to load concurrently issued code: %w", getErr)
			}

			return stored, false, nil
		}

		return nil, false, fmt.Errorf("failed to store daily code: %w", err)
	}

	s.audit(ctx, identity, "code_issued", true, "daily code issued for "+date, "")
	s.publish(ctx, identity, events.CodeIssued{
		BaseEvent: events.NewBaseEvent(events.CodeIssuedEvent),
		Identity:  identity,
		Date:      date,
	})

	s.deliver(ctx, identity, code)

	s.logger.Info("Daily code issued", "identity", identity, "date", date)

	return code, true, nil
}

// deliver mails the code to the identity's address. Delivery failure
// never fails issuance; the code remains retrievable by an admin.
func (s *Service) deliver(ctx context.Context, identity string, code *models.DailyCode) {
	user, ok := s.users.Get(identity)
	if !ok || user.Email == "" {
		return
	}

	subject := "每日访问验证码 - " + code.Date
	body := fmt.Sprintf("日期：%s\n验证码：%s\n有效期：当日24小时内有效\n\n此验证码用于访问工作流系统，请妥善保管。",
		code.Date, code.Code)

	if err := s.mail.Send(ctx, user.Email, subject, body); err != nil {
		s.logger.Warn("Failed to deliver daily code", "identity", identity, "error", err)
	}
}

// Login exchanges a daily code for a bearer token. Comparison is
// case-insensitive and constant-time; every failure path returns the
// same opaque error.
func (s *Service) Login(ctx context.Context, identity, code, clientIP string) (*models.Token, error) {
	allowed, remaining := s.limiter.Allow(identity)
	if !allowed {
		s.audit(ctx, identity, "login", false, "rate limited", clientIP)

		return nil, ErrRateLimited
	}

	s.limiter.Record(identity)

	if !s.loginValid(ctx, identity, code) {
		s.audit(ctx, identity, "login", false, "invalid credentials", clientIP)
		s.publish(ctx, identity, events.LoginFailed{
			BaseEvent: events.NewBaseEvent(events.LoginFailedEvent),
			Identity:  identity,
			ClientIP:  clientIP,
			Reason:    "invalid credentials",
		})

		s.logger.Warn("Login failed", "identity", identity, "client_ip", clientIP, "attempts_left", remaining-1)

		return nil, ErrInvalidCredentials
	}

	now := s.now().UTC()

	if err := s.persistence.Codes().MarkUsed(ctx, identity, s.Today(), now, clientIP); err != nil {
		// Lost the race to another session consuming the same code.
		if errors.Is(err, persistence.ErrCodeAlreadyUsed) {
			s.audit(ctx, identity, "login", false, "code already used", clientIP)

			return nil, ErrInvalidCredentials
		}

		return nil, fmt.Errorf("failed to consume daily code: %w", err)
	}

	token := &models.Token{
		Value:    generateToken(),
		Identity: identity,
		IssuedAt: now,
	}

	if err := s.persistence.Tokens().Save(ctx, token); err != nil {
		return nil, fmt.Errorf("failed to store token: %w", err)
	}

	s.limiter.Reset(identity)
	s.audit(ctx, identity, "login", true, "login succeeded", clientIP)
	s.publish(ctx, identity, events.LoginSucceeded{
		BaseEvent: events.NewBaseEvent(events.LoginSucceededEvent),
		Identity:  identity,
		ClientIP:  clientIP,
	})

	s.logger.Info("Login succeeded", "identity", identity, "client_ip", clientIP)

	return token, nil
}

// loginValid runs every credential check without short-circuiting the
// code comparison, so response timing does not reveal which check
// failed.
func (s *Service) loginValid(ctx context.Context, identity, code string) bool {
	if !s.users.IsEnabled(identity) {
		return false
	}

	stored, err := s.persistence.Codes().GetByIdentityAndDate(ctx, identity, s.Today())
	if err != nil {
		return false
	}

	supplied := strings.ToUpper(strings.TrimSpace(code))
	match := subtle.ConstantTimeCompare([]byte(supplied), []byte(stored.Code)) == 1

	return match && stored.ValidFor(s.Today())
}

// Verify resolves a bearer token to its identity. Expired tokens are
// rejected but stay stored until Sweep removes them.
func (s *Service) Verify(ctx context.Context, tokenValue string) (string, error) {
	token, err := s.persistence.Tokens().GetByValue(ctx, tokenValue)
	if err != nil {
		if persistence.IsTokenNotFound(err) {
			return "", ErrInvalidToken
		}

		return "", fmt.Errorf("failed to look up token: %w", err)
	}

	if !token.ValidAt(s.now()) {
		return "", ErrInvalidToken
	}

	if !s.users.IsEnabled(token.Identity) {
		return "", ErrInvalidToken
	}

	return token.Identity, nil
}

// Logout invalidates a bearer token. Unknown tokens are not an error.
func (s *Service) Logout(ctx context.Context, tokenValue string) error {
	err := s.persistence.Tokens().Delete(ctx, tokenValue)
	if err != nil && !persistence.IsTokenNotFound(err) {
		return fmt.Errorf("failed to delete token: %w", err)
	}

	return nil
}

// Sweep removes codes from prior dates and tokens past their TTL.
func (s *Service) Sweep(ctx context.Context) (codesRemoved, tokensRemoved int, err error) {
	codesRemoved, err = s.persistence.Codes().DeleteBefore(ctx, s.Today())
	if err != nil {
		return 0, 0, fmt.Errorf("failed to sweep codes: %w", err)
	}

	tokensRemoved, err = s.persistence.Tokens().DeleteIssuedBefore(ctx, s.now().Add(-models.TokenTTL))
	if err != nil {
		return codesRemoved, 0, fmt.Errorf("failed to sweep tokens: %w", err)
	}

	if codesRemoved > 0 || tokensRemoved > 0 {
		s.logger.Info("Swept expired credentials", "codes", codesRemoved, "tokens", tokensRemoved)
	}

	return codesRemoved, tokensRemoved, nil
}

func (s *Service) audit(ctx context.Context, identity, action string, success bool, detail, clientIP string) {
	entry := &models.AuditEntry{
		Identity:  identity,
		Action:    action,
		Success:   success,
		Detail:    detail,
		ClientIP:  clientIP,
		Timestamp: s.now().UTC(),
	}

	if err := s.persistence.Audit().Append(ctx, entry); err != nil {
		s.logger.Warn("Failed to append audit entry", "identity", identity, "action", action, "error", err)
	}
}

func (s *Service) publish(ctx context.Context, key string, event eventbus.Event) {
	if s.publisher == nil {
		return
	}

	if err := s.publisher.Publish(ctx, key, event); err != nil {
		s.logger.Warn("Failed to publish event", "event_type", event.GetType(), "error", err)
	}
}

// generateCode samples codeLength characters from the 32-entry
// alphabet. rand.Read never fails on supported platforms.
func generateCode() string {
	buf := make([]byte, codeLength)
	if _, err := rand.Read(buf); err != nil {
		panic(fmt.Sprintf("crypto/rand unavailable: %v", err))
	}

	out := make([]byte, codeLength)
	for i, b := range buf {
		out[i] = codeAlphabet[int(b)%len(codeAlphabet)]
	}

	return string(out)
}

func generateToken() string {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		panic(fmt.Sprintf("crypto/rand unavailable: %v", err))
	}

	return base64.RawURLEncoding.EncodeToString(buf)
}
