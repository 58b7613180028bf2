package controller_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"treewatch/config"
	"treewatch/routes"
	"treewatch/storage"
	"treewatch/testutil"
)

type testEnv struct {
	app   *fiber.App
	store *storage.Storage
	cfg   *config.Config
}

func newTestEnv(t *testing.T, enforce bool) *testEnv {
	t.Helper()
	store := storage.New(testutil.NewDB(t))
	cfg := &config.Config{
		UploadDir:       t.TempDir(),
		MaxUploadMB:     1,
		RateLimitSubmit: 1000,
		AuthEnforce:     enforce,
	}

	app := fiber.New()
	routes.SetupRoutes(app, store, cfg)
	return &testEnv{app: app, store: store, cfg: cfg}
}

func (e *testEnv) do(t *testing.T, req *http.Request) *http.Response {
	t.Helper()
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func (e *testEnv) doJSON(t *testing.T, method, path string, body interface{}, cookies ...*http.Cookie) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	return e.do(t, req)
}

func decode(t *testing.T, resp *http.Response, out interface{}) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

func sessionCookie(resp *http.Response) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == "token" {
			return c
		}
	}
	return nil
}

func treeBody(species, condition string, lat, lng float64) map[string]interface{} {
	return map[string]interface{}{
		"species":   species,
		"condition": condition,
		"latitude":  lat,
		"longitude": lng,
	}
}

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

// login signs in with a throwaway password and returns the session cookie
func login(t *testing.T, e *testEnv, email string) *http.Cookie {
	t.Helper()
	resp := e.doJSON(t, http.MethodPost, "/api/login", map[string]string{"email": email, "password": "pw-" + email})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	cookie := sessionCookie(resp)
	require.NotNil(t, cookie)
	return cookie
}
