package web

import (
	"errors"

	"github.com/dukex/dailygate/pkg/auth"
	"github.com/dukex/dailygate/pkg/registry"
	"github.com/dukex/dailygate/pkg/runner"
	"github.com/gofiber/fiber/v3"
	"github.com/moogar0880/problems"
)

var errInvalidLimit = errors.New("limit must be a positive integer")

func badRequest(c fiber.Ctx, detail string) error {
	problem := problems.NewStatusProblem(400).
		WithInstance(c.Path()).
		WithType("validation_error").
		WithDetail(detail)

	return c.Status(fiber.StatusBadRequest).JSON(problem)
}

func unauthorized(c fiber.Ctx, detail string) error {
	problem := problems.NewStatusProblem(401).
		WithInstance(c.Path()).
		WithType("unauthorized").
		WithDetail(detail)

	return c.Status(fiber.StatusUnauthorized).JSON(problem)
}

func forbidden(c fiber.Ctx, detail string) error {
	problem := problems.NewStatusProblem(403).
		WithInstance(c.Path()).
		WithType("forbidden").
		WithDetail(detail)

	return c.Status(fiber.StatusForbidden).JSON(problem)
}

func notFound(c fiber.Ctx, detail string) error {
	problem := problems.NewStatusProblem(404).
		WithInstance(c.Path()).
		WithType("not_found").
		WithDetail(detail)

	return c.Status(fiber.StatusNotFound).JSON(problem)
}

func tooManyRequests(c fiber.Ctx, detail string) error {
	problem := problems.NewStatusProblem(429).
		WithInstance(c.Path()).
		WithType("rate_limited").
		WithDetail(detail)

	return c.Status(fiber.StatusTooManyRequests).JSON(problem)
}

func internalError(c fiber.Ctx, err error) error {
	problem := problems.NewStatusProblem(500).
		WithInstance(c.Path()).
		WithType("internal_error").
		WithError(err)

	return c.Status(fiber.StatusInternalServerError).JSON(problem)
}

// handleLoginError maps authentication failures without leaking which
// credential check failed.
func handleLoginError(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, auth.ErrRateLimited):
		return tooManyRequests(c, "too many login attempts, try again later")
	case errors.Is(err, auth.ErrInvalidCredentials):
		return unauthorized(c, "invalid identity or access code")
	default:
		return internalError(c, err)
	}
}

// handleExecutionError provides typed error handling for runner errors.
func handleExecutionError(c fiber.Ctx, err error) error {
	switch {
	case registry.IsNotFound(err):
		return notFound(c, "workflow not found")

	case runner.IsValidationError(err):
		return badRequest(c, err.Error())

	default:
		var execErr *runner.ExecutionError
		if errors.As(err, &execErr) {
			problem := problems.NewStatusProblem(502).
				WithInstance(c.Path()).
				WithType("execution_failed").
				WithDetail(execErr.Error())

			return c.Status(fiber.StatusBadGateway).JSON(problem)
		}

		return internalError(c, err)
	}
}
