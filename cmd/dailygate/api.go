// Package main provides the dailygate server and admin CLI.
package main

import (
	"log/slog"
	"strconv"

	"github.com/dukex/dailygate/pkg/auth"
	"github.com/dukex/dailygate/pkg/config"
	"github.com/dukex/dailygate/pkg/eventbus"
	"github.com/dukex/dailygate/pkg/persistence"
	"github.com/dukex/dailygate/pkg/registry"
	"github.com/dukex/dailygate/pkg/runner"
	"github.com/dukex/dailygate/pkg/web"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	fiberlogger "github.com/gofiber/fiber/v3/middleware/logger"
)

type API struct {
	logger      *slog.Logger
	persistence persistence.Persistence
	registry    *registry.Registry
	runner      *runner.Runner
	authService *auth.Service
	users       *config.Users
	eventBus    eventbus.EventBus
	validate    *validator.Validate
}

func NewAPI(
	logger *slog.Logger,
	store persistence.Persistence,
	reg *registry.Registry,
	workflowRunner *runner.Runner,
	authService *auth.Service,
	users *config.Users,
	eventBus eventbus.EventBus,
) *API {
	return &API{
		logger:      logger,
		persistence: store,
		registry:    reg,
		runner:      workflowRunner,
		authService: authService,
		users:       users,
		eventBus:    eventBus,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (a *API) App() *fiber.App {
	handlers := web.NewAPIHandlers(a.authService, a.runner, a.registry, a.users, a.persistence, a.validate)

	app := fiber.New()
	app.Use(cors.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("Dailygate API")
	})

	requireAuth := web.RequireAuth(a.authService)
	requireAdmin := web.RequireAdmin(a.users)

	api := app.Group("/api")

	authGroup := api.Group("/auth")
	authGroup.Post("/login", handlers.Login)
	authGroup.Post("/logout", handlers.Logout, requireAuth)
	authGroup.Get("/me", handlers.Me, requireAuth)

	w := api.Group("/workflows", requireAuth)
	w.Get("/", handlers.GetWorkflows)
	w.Post("/:name/execute", handlers.ExecuteWorkflow)

	admin := api.Group("/admin", requireAuth, requireAdmin)
	admin.Get("/executions", handlers.ListExecutions)
	admin.Get("/audit", handlers.ListAudit)
	admin.Post("/daily-codes", handlers.IssueDailyCode)

	app.Get("/health", handlers.HealthCheck)

	return app
}

func (a *API) Start(port int) error {
	app := a.App()

	return app.Listen(":" + strconv.Itoa(port))
}
