package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/statelessauth/internal/common"
	"github.com/dmitrijs2005/statelessauth/internal/logging"
	"github.com/dmitrijs2005/statelessauth/internal/server/auth"
	"github.com/dmitrijs2005/statelessauth/internal/server/metrics"
	"github.com/dmitrijs2005/statelessauth/internal/server/passwords"
	"github.com/dmitrijs2005/statelessauth/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/statelessauth/internal/server/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type testEnv struct {
	srv     *httptest.Server
	tokens  *auth.TokenHandler
	users   *repomanager.MemoryRepositoryManager
	metrics *metrics.Metrics
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	tokens, err := auth.NewTokenHandler(bytes.Repeat([]byte("s"), 32), auth.AlgHS256)
	require.NoError(t, err)
	hasher, err := passwords.NewHasher(bcrypt.MinCost)
	require.NoError(t, err)

	m := metrics.New()
	rm := repomanager.NewMemoryRepositoryManager()
	userService := services.NewUserService(rm, hasher, logging.Nop(), services.WithLoginRecorder(m))
	require.NoError(t, userService.SeedDefaults(context.Background()))

	authService := auth.NewService(tokens, time.Hour, logging.Nop(), auth.WithRecorder(m))
	h := NewHandler(userService, authService, m, m.Handler(), logging.Nop())

	srv := httptest.NewServer(h.Routes())
	t.Cleanup(srv.Close)
	return &testEnv{srv: srv, tokens: tokens, users: rm, metrics: m}
}

func (e *testEnv) do(t *testing.T, method, path, token, body string) (*http.Response, string) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, e.srv.URL+path, r)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set(common.AuthTokenHeaderName, token)
	}

	resp, err := e.srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(b)
}

func (e *testEnv) login(t *testing.T, username, password string) string {
	t.Helper()
	resp, _ := e.do(t, http.MethodPost, "/api/login", "",
		`{"username":"`+username+`","password":"`+password+`"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	token := resp.Header.Get(common.AuthTokenHeaderName)
	require.NotEmpty(t, token)
	return token
}

func TestLogin(t *testing.T) {
	e := newTestEnv(t)

	token := e.login(t, "user", "user")
	u, ok := e.tokens.ParseToken(token)
	require.True(t, ok)
	assert.Equal(t, "user", u.Username)
	assert.Empty(t, u.PasswordHash)

	resp, body := e.do(t, http.MethodPost, "/api/login", "", `{"username":"user","password":"bad"}`)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Empty(t, resp.Header.Get(common.AuthTokenHeaderName))
	assert.Contains(t, body, `"error":"unauthorized"`)

	resp, _ = e.do(t, http.MethodPost, "/api/login", "", `not json`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCurrentUser(t *testing.T) {
	e := newTestEnv(t)

	tests := []struct {
		name  string
		token func() string
		want  string
	}{
		{"anonymous", func() string { return "" }, `{"username":"anonymousUser","roles":[]}`},
		{"garbage token", func() string { return "abc.def" }, `{"username":"anonymousUser","roles":[]}`},
		{"user", func() string { return e.login(t, "user", "user") }, `{"username":"user","roles":["USER"]}`},
		{"admin", func() string { return e.login(t, "admin", "admin") }, `{"username":"admin","roles":["ADMIN"]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := e.do(t, http.MethodGet, "/api/users/current", tt.token(), "")
			assert.Equal(t, http.StatusOK, resp.StatusCode)
			assert.JSONEq(t, tt.want, body)
		})
	}
}

func TestChangePassword(t *testing.T) {
	e := newTestEnv(t)

	resp, _ := e.do(t, http.MethodPost, "/api/users/current?_method=PATCH", "",
		`{"password":"user","newPassword":"test"}`)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, "anonymous cannot change a password")

	token := e.login(t, "user", "user")
	resp, _ = e.do(t, http.MethodPost, "/api/users/current?_method=PATCH", token,
		`{"password":"user","newPassword":"test"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get(common.AuthTokenHeaderName))

	token = e.login(t, "user", "test")
	resp, _ = e.do(t, http.MethodPatch, "/api/users/current", token,
		`{"password":"test","newPassword":"user"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	e.login(t, "user", "user")

	resp, _ = e.do(t, http.MethodPatch, "/api/users/current", token,
		`{"password":"wrong","newPassword":"x"}`)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAdminListUsers(t *testing.T) {
	e := newTestEnv(t)

	resp, _ := e.do(t, http.MethodGet, "/admin/api/users", "", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = e.do(t, http.MethodGet, "/admin/api/users", e.login(t, "user", "user"), "")
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, body := e.do(t, http.MethodGet, "/admin/api/users", e.login(t, "admin", "admin"), "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `[
		{"id":1,"username":"admin","expires":0,"roles":["ADMIN"]},
		{"id":2,"username":"user","expires":0,"roles":["USER"]}
	]`, body)
}

func TestAdminGrantRevoke(t *testing.T) {
	e := newTestEnv(t)

	resp, _ := e.do(t, http.MethodPost, "/admin/api/users/2/grant/role/ADMIN", "", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	userToken := e.login(t, "user", "user")
	resp, _ = e.do(t, http.MethodPost, "/admin/api/users/2/grant/role/ADMIN", userToken, "")
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	admin := e.login(t, "admin", "admin")
	resp, body := e.do(t, http.MethodPost, "/admin/api/users/2/grant/role/ADMIN", admin, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got UserResponse
	require.NoError(t, json.Unmarshal([]byte(body), &got))
	assert.ElementsMatch(t, []string{"USER", "ADMIN"}, got.Roles)

	resp, _ = e.do(t, http.MethodGet, "/admin/api/users", userToken, "")
	assert.Equal(t, http.StatusForbidden, resp.StatusCode, "old token keeps its old roles")

	resp, _ = e.do(t, http.MethodGet, "/admin/api/users", e.login(t, "user", "user"), "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body = e.do(t, http.MethodPost, "/admin/api/users/2/revoke/role/ADMIN", admin, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"id":2,"username":"user","expires":0,"roles":["USER"]}`, body)
}

func TestAdminRoleErrors(t *testing.T) {
	e := newTestEnv(t)
	admin := e.login(t, "admin", "admin")

	tests := []struct {
		path string
		code int
	}{
		{"/admin/api/users/abc/grant/role/ADMIN", http.StatusBadRequest},
		{"/admin/api/users/0/grant/role/ADMIN", http.StatusBadRequest},
		{"/admin/api/users/2/grant/role/ROOT", http.StatusBadRequest},
		{"/admin/api/users/99/revoke/role/USER", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			resp, _ := e.do(t, http.MethodPost, tt.path, admin, "")
			assert.Equal(t, tt.code, resp.StatusCode)
		})
	}
}

func TestRequestID(t *testing.T) {
	e := newTestEnv(t)

	resp, _ := e.do(t, http.MethodGet, "/healthz", "", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, resp.Header.Get(common.RequestIDHeaderName), 36)

	const id = "1b4e28ba-2fa1-11d2-883f-0016d3cca427"
	req, err := http.NewRequest(http.MethodGet, e.srv.URL+"/healthz", nil)
	require.NoError(t, err)
	req.Header.Set(common.RequestIDHeaderName, id)
	resp, err = e.srv.Client().Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, id, resp.Header.Get(common.RequestIDHeaderName))
}

func TestMetricsEndpoint(t *testing.T) {
	e := newTestEnv(t)
	e.login(t, "user", "user")
	e.do(t, http.MethodGet, "/api/users/current", "bad", "")

	resp, body := e.do(t, http.MethodGet, "/metrics", "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `statelessauth_logins_total{outcome="success"} 1`)
	assert.Contains(t, body, `statelessauth_tokens_issued_total 1`)
	assert.Contains(t, body, `statelessauth_authentications_total{outcome="malformed"} 1`)
	assert.Contains(t, body, `route="POST /api/login"`)
}

func TestUnknownRoute(t *testing.T) {
	e := newTestEnv(t)
	resp, _ := e.do(t, http.MethodGet, "/nope", "", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = e.do(t, http.MethodDelete, "/api/login", "", "")
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}
