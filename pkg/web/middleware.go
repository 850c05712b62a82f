package web

import (
	"strings"

	"github.com/dukex/dailygate/pkg/auth"
	"github.com/dukex/dailygate/pkg/config"
	"github.com/gofiber/fiber/v3"
)

const identityLocal = "identity"

// RequireAuth verifies the bearer token and stores the resolved
// identity in the request locals.
func RequireAuth(authService *auth.Service) fiber.Handler {
	return func(c fiber.Ctx) error {
		token := bearerToken(c)
		if token == "" {
			return unauthorized(c, "missing bearer token")
		}

		identity, err := authService.Verify(c.Context(), token)
		if err != nil {
			return unauthorized(c, "invalid or expired token")
		}

		c.Locals(identityLocal, identity)

		return c.Next()
	}
}

// RequireAdmin allows only identities carrying the admin role. It must
// run after RequireAuth.
func RequireAdmin(users *config.Users) fiber.Handler {
	return func(c fiber.Ctx) error {
		user, ok := users.Get(Identity(c))
		if !ok || !user.IsAdmin() {
			return forbidden(c, "admin role required")
		}

		return c.Next()
	}
}

// Identity returns the authenticated identity set by RequireAuth.
func Identity(c fiber.Ctx) string {
	identity, _ := c.Locals(identityLocal).(string)

	return identity
}

func bearerToken(c fiber.Ctx) string {
	header := c.Get(fiber.HeaderAuthorization)

	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return ""
	}

	return strings.TrimSpace(header[len(prefix):])
}
