package middleware

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"treewatch/models"
	"treewatch/storage"
	"treewatch/testutil"
	"treewatch/utils"
)

func newSessionApp(t *testing.T, enforce bool) (*fiber.App, *storage.Storage) {
	t.Helper()
	store := storage.New(testutil.NewDB(t))

	app := fiber.New()
	app.Use(Session(store))
	app.Get("/whoami", func(c *fiber.Ctx) error {
		return c.SendString(CurrentUserID(c))
	})
	app.Get("/review", RequireRole(enforce, models.RoleSupervisor, models.RoleAdmin), func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})
	app.Get("/me", RequireSession(enforce), func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})
	return app, store
}

func tokenFor(t *testing.T, store *storage.Storage, id, role string) string {
	t.Helper()
	user, err := store.UpsertUser(context.Background(), &models.User{ID: id, Role: role})
	require.NoError(t, err)
	token, err := utils.GenerateSessionToken(user)
	require.NoError(t, err)
	return token
}

func do(t *testing.T, app *fiber.App, req *http.Request) (int, string) {
	t.Helper()
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func TestSessionResolvesCaller(t *testing.T) {
	app, store := newSessionApp(t, true)
	token := tokenFor(t, store, "alice", models.RoleUser)

	t.Run("cookie", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
		req.AddCookie(&http.Cookie{Name: SessionCookie, Value: token})
		status, body := do(t, app, req)
		assert.Equal(t, fiber.StatusOK, status)
		assert.Equal(t, "alice", body)
	})

	t.Run("bearer header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
		_, body := do(t, app, req)
		assert.Equal(t, "alice", body)
	})

	t.Run("invalid token is anonymous", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
		req.Header.Set(fiber.HeaderAuthorization, "Bearer garbage")
		status, body := do(t, app, req)
		assert.Equal(t, fiber.StatusOK, status)
		assert.Empty(t, body)
	})
}

func TestRequireRole(t *testing.T) {
	app, store := newSessionApp(t, true)
	userToken := tokenFor(t, store, "bob", models.RoleUser)
	reviewerToken := tokenFor(t, store, "carol", models.RoleSupervisor)

	req := httptest.NewRequest(http.MethodGet, "/review", nil)
	status, _ := do(t, app, req)
	assert.Equal(t, fiber.StatusUnauthorized, status)

	req = httptest.NewRequest(http.MethodGet, "/review", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+userToken)
	status, _ = do(t, app, req)
	assert.Equal(t, fiber.StatusForbidden, status)

	req = httptest.NewRequest(http.MethodGet, "/review", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+reviewerToken)
	status, _ = do(t, app, req)
	assert.Equal(t, fiber.StatusOK, status)

	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	status, _ = do(t, app, req)
	assert.Equal(t, fiber.StatusUnauthorized, status)
}

func TestRequireRoleOpenWhenNotEnforced(t *testing.T) {
	app, _ := newSessionApp(t, false)

	status, body := do(t, app, httptest.NewRequest(http.MethodGet, "/review", nil))
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "ok", body)

	status, _ = do(t, app, httptest.NewRequest(http.MethodGet, "/me", nil))
	assert.Equal(t, fiber.StatusOK, status)
}

func TestCORSPreflight(t *testing.T) {
	app := fiber.New()
	app.Use(CORS(CORSConfig{
		AllowedOrigins:   []string{"https://trees.example"},
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST"},
		MaxAge:           600,
	}))
	app.Get("/", func(c *fiber.Ctx) error { return c.SendString("ok") })

	req := httptest.NewRequest(http.MethodOptions, "/", nil)
	req.Header.Set("Origin", "https://trees.example")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "https://trees.example", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", resp.Header.Get("Access-Control-Allow-Credentials"))
	assert.Equal(t, "600", resp.Header.Get("Access-Control-Max-Age"))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://evil.example")
	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	assert.Empty(t, resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestRateLimiter(t *testing.T) {
	app := fiber.New()
	app.Post("/submit", RateLimiter(2, time.Minute, nil), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusCreated)
	})

	for i := 0; i < 2; i++ {
		status, _ := do(t, app, httptest.NewRequest(http.MethodPost, "/submit", nil))
		assert.Equal(t, fiber.StatusCreated, status)
	}
	status, body := do(t, app, httptest.NewRequest(http.MethodPost, "/submit", nil))
	assert.Equal(t, fiber.StatusTooManyRequests, status)
	assert.Contains(t, body, "Too many requests")
}
