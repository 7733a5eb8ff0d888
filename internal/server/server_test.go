package server

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/momentkeep/internal/config"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	return newTestServerWith(t, nil)
}

// newTestServerWith applies env on top of the test defaults.
func newTestServerWith(t *testing.T, env map[string]string) *httptest.Server {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("PORT", "")
	t.Setenv("PUBLIC_BASE_URL", "http://files.test")
	t.Setenv("DB_PATH", filepath.Join(dir, "data", "test.db"))
	t.Setenv("UPLOAD_DIR", filepath.Join(dir, "uploads"))
	t.Setenv("JWT_SECRET", "test-secret-that-is-long-enough")
	t.Setenv("SECRET_SCHEME", "bcrypt")
	t.Setenv("ADMIN_TOKEN", "admin-token")
	t.Setenv("TOKEN_TTL", "")
	t.Setenv("MAX_UPLOAD_BYTES", "")
	t.Setenv("ALLOWED_ORIGINS", "")
	t.Setenv("TRUSTED_PROXIES", "")
	for k, v := range env {
		t.Setenv(k, v)
	}

	cfg, err := config.Load("")
	require.NoError(t, err)

	s, err := New(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func call(t *testing.T, method, url, body string, headers map[string]string) (*http.Response, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = bytes.NewBufferString(body)
	}
	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var decoded map[string]any
	_ = json.Unmarshal(raw, &decoded)
	return resp, decoded
}

func TestServer_Health(t *testing.T) {
	ts := newTestServer(t)

	resp, body := call(t, http.MethodGet, ts.URL+"/health", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])
}

func TestServer_AccountAndJournalFlow(t *testing.T) {
	ts := newTestServer(t)

	resp, _ := call(t, http.MethodPost, ts.URL+"/api/auth/register",
		`{"username":"ann","email":"ann@x.com","password":"pw"}`, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, _ = call(t, http.MethodPost, ts.URL+"/api/auth/register",
		`{"username":"ann","email":"other@x.com","password":"pw"}`, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, user := call(t, http.MethodPost, ts.URL+"/api/auth/login",
		`{"email":"ann@x.com","password":"pw"}`, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	userID, _ := user["id"].(string)
	token, _ := user["token"].(string)
	require.NotEmpty(t, userID)
	require.NotEmpty(t, token)
	assert.NotContains(t, user, "secret")

	resp, me := call(t, http.MethodGet, ts.URL+"/api/auth/me", "", map[string]string{
		"Authorization": "Bearer " + token,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, userID, me["id"])

	resp, created := call(t, http.MethodPost, ts.URL+"/api/journals",
		`{"title":"Day one","content":"enc:abc","userId":"`+userID+`","tags":["a"]}`, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "Journal created successfully", created["message"])
	journalID, _ := created["id"].(string)
	require.NotEmpty(t, journalID)

	resp, _ = call(t, http.MethodPut, ts.URL+"/api/journals/"+journalID, `{"title":"Day 1"}`, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, got := call(t, http.MethodGet, ts.URL+"/api/journals/"+journalID, "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Day 1", got["title"])
	assert.Equal(t, "enc:abc", got["content"])

	resp, _ = call(t, http.MethodDelete, ts.URL+"/api/journals/"+journalID, "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = call(t, http.MethodGet, ts.URL+"/api/journals/"+journalID, "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestServer_AdminGuard(t *testing.T) {
	ts := newTestServer(t)

	resp, _ := call(t, http.MethodGet, ts.URL+"/api/admin/users", "", nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, _ = call(t, http.MethodGet, ts.URL+"/api/admin/users", "", map[string]string{
		"X-Admin-Token": "admin-token",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestServer_MeRequiresToken(t *testing.T) {
	ts := newTestServer(t)

	resp, body := call(t, http.MethodGet, ts.URL+"/api/auth/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "unauthorized", body["error"])
}

func TestServer_LoginEmptyValuesVersusMissingKeys(t *testing.T) {
	ts := newTestServer(t)

	resp, _ := call(t, http.MethodPost, ts.URL+"/api/auth/register",
		`{"username":"ann","email":"ann@x.com","password":"pw"}`, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	tests := []struct {
		name string
		body string
		want int
	}{
		{"empty password", `{"email":"ann@x.com","password":""}`, http.StatusUnauthorized},
		{"empty email", `{"email":"","password":"pw"}`, http.StatusUnauthorized},
		{"password key missing", `{"email":"ann@x.com"}`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, _ := call(t, http.MethodPost, ts.URL+"/api/auth/login", tt.body, nil)
			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}
}

func TestServer_MeNotMountedWithoutTokens(t *testing.T) {
	ts := newTestServerWith(t, map[string]string{"JWT_SECRET": ""})

	resp, _ := call(t, http.MethodGet, ts.URL+"/api/auth/me", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = call(t, http.MethodPost, ts.URL+"/api/auth/register",
		`{"username":"ann","email":"ann@x.com","password":"pw"}`, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, user := call(t, http.MethodPost, ts.URL+"/api/auth/login",
		`{"email":"ann@x.com","password":"pw"}`, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotContains(t, user, "token")
}
