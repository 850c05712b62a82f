package web

import (
	"net/http"
	"strconv"
	"time"

	"github.com/dukex/dailygate/pkg/auth"
	"github.com/dukex/dailygate/pkg/config"
	"github.com/dukex/dailygate/pkg/models"
	"github.com/dukex/dailygate/pkg/persistence"
	"github.com/dukex/dailygate/pkg/registry"
	"github.com/dukex/dailygate/pkg/runner"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

const (
	defaultExecutionLimit = 50
	defaultAuditLimit     = 100
	maxListLimit          = 500
)

type APIHandlers struct {
	authService *auth.Service
	runner      *runner.Runner
	registry    *registry.Registry
	users       *config.Users
	persistence persistence.Persistence
	validator   *validator.Validate
}

func NewAPIHandlers(
	authService *auth.Service,
	workflowRunner *runner.Runner,
	reg *registry.Registry,
	users *config.Users,
	store persistence.Persistence,
	validate *validator.Validate,
) *APIHandlers {
	return &APIHandlers{
		authService: authService,
		runner:      workflowRunner,
		registry:    reg,
		users:       users,
		persistence: store,
		validator:   validate,
	}
}

func (h *APIHandlers) Login(c fiber.Ctx) error {
	var req LoginRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	token, err := h.authService.Login(c.Context(), req.Identity, req.Code, c.IP())
	if err != nil {
		return handleLoginError(c, err)
	}

	return c.JSON(LoginResponse{
		AccessToken: token.Value,
		TokenType:   "bearer",
		ExpiresIn:   int(models.TokenTTL.Seconds()),
		Identity:    token.Identity,
	})
}

func (h *APIHandlers) Logout(c fiber.Ctx) error {
	if err := h.authService.Logout(c.Context(), bearerToken(c)); err != nil {
		return internalError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) Me(c fiber.Ctx) error {
	identity := Identity(c)

	user, ok := h.users.Get(identity)
	if !ok {
		return unauthorized(c, "unknown identity")
	}

	return c.JSON(MeResponse{
		Identity: identity,
		Email:    user.Email,
		Role:     user.Role,
	})
}

// GetWorkflows lists registered workflows with their schemas and live
// statistics, in registration order.
func (h *APIHandlers) GetWorkflows(c fiber.Ctx) error {
	workflows := h.registry.List(h.runner)

	return c.JSON(fiber.Map{
		"workflows":   workflows,
		"total_count": len(workflows),
	})
}

func (h *APIHandlers) ExecuteWorkflow(c fiber.Ctx) error {
	name := c.Params("name")
	if name == "" {
		return badRequest(c, "Workflow name is required")
	}

	var req ExecuteRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	result, err := h.runner.Run(c.Context(), name, req.Inputs, Identity(c))
	if err != nil {
		return handleExecutionError(c, err)
	}

	return c.JSON(TransformExecuteResponse(result))
}

func (h *APIHandlers) ListExecutions(c fiber.Ctx) error {
	limit, err := parseLimit(c, defaultExecutionLimit)
	if err != nil {
		return badRequest(c, "Invalid limit parameter")
	}

	records, err := h.persistence.Executions().List(c.Context(), limit)
	if err != nil {
		return internalError(c, err)
	}

	return c.JSON(fiber.Map{
		"executions":  records,
		"total_count": len(records),
	})
}

func (h *APIHandlers) ListAudit(c fiber.Ctx) error {
	limit, err := parseLimit(c, defaultAuditLimit)
	if err != nil {
		return badRequest(c, "Invalid limit parameter")
	}

	entries, err := h.persistence.Audit().List(c.Context(), limit)
	if err != nil {
		return internalError(c, err)
	}

	return c.JSON(fiber.Map{
		"entries":     entries,
		"total_count": len(entries),
	})
}

// IssueDailyCode issues (or returns) the current code for an identity.
// Admin only; regular identities receive their codes by mail.
func (h *APIHandlers) IssueDailyCode(c fiber.Ctx) error {
	var req IssueCodeRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	if !h.users.IsEnabled(req.Identity) {
		return notFound(c, "identity not found or disabled")
	}

	code, created, err := h.authService.IssueDailyCode(c.Context(), req.Identity)
	if err != nil {
		return internalError(c, err)
	}

	status := fiber.StatusOK
	if created {
		status = fiber.StatusCreated
	}

	return c.Status(status).JSON(IssueCodeResponse{
		Identity: code.Identity,
		Code:     code.Code,
		Date:     code.Date,
		Created:  created,
	})
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	registryCheck, regOk := h.registry.HealthCheck()

	repOk := true
	repoStatus := "healthy"

	if err := h.persistence.HealthCheck(c.Context()); err != nil {
		repOk = false
		repoStatus = err.Error()
	}

	status := "unhealthy"
	httpStatus := http.StatusInternalServerError

	if regOk && repOk {
		status = "healthy"
		httpStatus = http.StatusOK
	}

	return c.Status(httpStatus).JSON(fiber.Map{
		"status": status,
		"checkers": fiber.Map{
			"registry":   registryCheck,
			"repository": repoStatus,
		},
		"timestamp": time.Now().UTC(),
	})
}

func parseLimit(c fiber.Ctx, fallback int) (int, error) {
	limitStr := c.Query("limit")
	if limitStr == "" {
		return fallback, nil
	}

	limit, err := strconv.Atoi(limitStr)
	if err != nil || limit < 1 {
		return 0, errInvalidLimit
	}

	if limit > maxListLimit {
		limit = maxListLimit
	}

	return limit, nil
}
