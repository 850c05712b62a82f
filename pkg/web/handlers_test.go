package web_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dukex/dailygate/pkg/auth"
	"github.com/dukex/dailygate/pkg/config"
	"github.com/dukex/dailygate/pkg/persistence/file"
	"github.com/dukex/dailygate/pkg/registry"
	"github.com/dukex/dailygate/pkg/runner"
	"github.com/dukex/dailygate/pkg/web"
	"github.com/dukex/dailygate/pkg/workflows/textanalyzer"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	app         *fiber.App
	authService *auth.Service
}

func setupTestApp(t *testing.T) *testEnv {
	t.Helper()

	store := file.NewPersistence(t.TempDir())

	users := config.NewStaticUsers(map[string]config.User{
		"admin":  {Email: "admin@example.com", Role: "admin", Enabled: true},
		"viewer": {Email: "viewer@example.com", Role: "user", Enabled: true},
	})

	logger := slog.Default()
	authService := auth.NewService(store, users, nil, nil, logger)

	reg := registry.NewRegistry(logger)
	require.NoError(t, reg.Register(textanalyzer.NewHandler(logger)))

	workflowRunner := runner.NewRunner(reg, store, nil, logger)

	validate := validator.New(validator.WithRequiredStructEnabled())
	handlers := web.NewAPIHandlers(authService, workflowRunner, reg, users, store, validate)

	app := fiber.New()

	requireAuth := web.RequireAuth(authService)
	requireAdmin := web.RequireAdmin(users)

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

	return &testEnv{app: app, authService: authService}
}

func (e *testEnv) login(t *testing.T, identity string) string {
	t.Helper()

	code, _, err := e.authService.IssueDailyCode(context.Background(), identity)
	require.NoError(t, err)

	resp := e.request(t, http.MethodPost, "/api/auth/login", "", web.LoginRequest{
		Identity: identity,
		Code:     code.Code,
	})
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var login web.LoginResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&login))
	require.NotEmpty(t, login.AccessToken)

	return login.AccessToken
}

func (e *testEnv) request(t *testing.T, method, path, token string, body any) *http.Response {
	t.Helper()

	var reader io.Reader

	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)

		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}

	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}

	resp, err := e.app.Test(req)
	require.NoError(t, err)

	return resp
}

func TestLogin_Success(t *testing.T) {
	t.Parallel()

	env := setupTestApp(t)
	token := env.login(t, "admin")
	assert.NotEmpty(t, token)
}

func TestLogin_WrongCode(t *testing.T) {
	t.Parallel()

	env := setupTestApp(t)

	_, _, err := env.authService.IssueDailyCode(context.Background(), "admin")
	require.NoError(t, err)

	resp := env.request(t, http.MethodPost, "/api/auth/login", "", web.LoginRequest{
		Identity: "admin",
		Code:     "WRONG234",
	})
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestLogin_MalformedBody(t *testing.T) {
	t.Parallel()

	env := setupTestApp(t)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewReader([]byte("{not json")))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)

	resp, err := env.app.Test(req)
	require.NoError(t, err)

	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestLogin_MissingFields(t *testing.T) {
	t.Parallel()

	env := setupTestApp(t)

	resp := env.request(t, http.MethodPost, "/api/auth/login", "", web.LoginRequest{Identity: "admin"})
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestProtectedRoutes_RequireToken(t *testing.T) {
	t.Parallel()

	env := setupTestApp(t)

	resp := env.request(t, http.MethodGet, "/api/workflows/", "", nil)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = env.request(t, http.MethodGet, "/api/workflows/", "bogus-token", nil)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestMe(t *testing.T) {
	t.Parallel()

	env := setupTestApp(t)
	token := env.login(t, "viewer")

	resp := env.request(t, http.MethodGet, "/api/auth/me", token, nil)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var me web.MeResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&me))
	assert.Equal(t, "viewer", me.Identity)
	assert.Equal(t, "user", me.Role)
}

func TestLogout_InvalidatesToken(t *testing.T) {
	t.Parallel()

	env := setupTestApp(t)
	token := env.login(t, "admin")

	resp := env.request(t, http.MethodPost, "/api/auth/logout", token, nil)
	defer resp.Body.Close()
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = env.request(t, http.MethodGet, "/api/auth/me", token, nil)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestGetWorkflows(t *testing.T) {
	t.Parallel()

	env := setupTestApp(t)
	token := env.login(t, "viewer")

	resp := env.request(t, http.MethodGet, "/api/workflows/", token, nil)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Workflows []struct {
			Name        string `json:"name"`
			Description string `json:"description"`
		} `json:"workflows"`
		TotalCount int `json:"total_count"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Equal(t, 1, body.TotalCount)
	assert.Equal(t, "text_analyzer", body.Workflows[0].Name)
}

func TestExecuteWorkflow(t *testing.T) {
	t.Parallel()

	env := setupTestApp(t)
	token := env.login(t, "viewer")

	resp := env.request(t, http.MethodPost, "/api/workflows/text_analyzer/execute", token, web.ExecuteRequest{
		Inputs: map[string]any{"text": "A short test sentence."},
	})
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result web.ExecuteResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	assert.Equal(t, "text_analyzer", result.WorkflowName)
	assert.Contains(t, result.Outputs, "summary")
}

func TestExecuteWorkflow_ValidationError(t *testing.T) {
	t.Parallel()

	env := setupTestApp(t)
	token := env.login(t, "viewer")

	resp := env.request(t, http.MethodPost, "/api/workflows/text_analyzer/execute", token, web.ExecuteRequest{
		Inputs: map[string]any{},
	})
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestExecuteWorkflow_Unknown(t *testing.T) {
	t.Parallel()

	env := setupTestApp(t)
	token := env.login(t, "viewer")

	resp := env.request(t, http.MethodPost, "/api/workflows/missing/execute", token, web.ExecuteRequest{
		Inputs: map[string]any{"text": "hi"},
	})
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAdminRoutes_ForbiddenForRegularUsers(t *testing.T) {
	t.Parallel()

	env := setupTestApp(t)
	token := env.login(t, "viewer")

	resp := env.request(t, http.MethodGet, "/api/admin/executions", token, nil)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestAdminIssueDailyCode(t *testing.T) {
	t.Parallel()

	env := setupTestApp(t)
	token := env.login(t, "admin")

	resp := env.request(t, http.MethodPost, "/api/admin/daily-codes", token, web.IssueCodeRequest{
		Identity: "viewer",
	})
	defer resp.Body.Close()

	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var issued web.IssueCodeResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&issued))
	assert.Equal(t, "viewer", issued.Identity)
	assert.Len(t, issued.Code, 8)
	assert.True(t, issued.Created)

	resp = env.request(t, http.MethodPost, "/api/admin/daily-codes", token, web.IssueCodeRequest{
		Identity: "viewer",
	})
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode, "repeat issuance returns the existing code")
}

func TestHealthCheck(t *testing.T) {
	t.Parallel()

	env := setupTestApp(t)

	resp := env.request(t, http.MethodGet, "/health", "", nil)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Status string `json:"status"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "healthy", body.Status)
}
