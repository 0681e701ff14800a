// Package httpapi is the JSON-over-HTTP surface of the server: login, the
// caller's own account and role administration.
package httpapi

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/dmitrijs2005/statelessauth/internal/logging"
	"github.com/dmitrijs2005/statelessauth/internal/server/auth"
	"github.com/dmitrijs2005/statelessauth/internal/server/models"
	"github.com/dmitrijs2005/statelessauth/internal/server/services"
)

// LoginRequest is the body of POST /api/login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// ChangePasswordRequest is the body of PATCH /api/users/current.
type ChangePasswordRequest struct {
	Password    string `json:"password"`
	NewPassword string `json:"newPassword"`
}

// CurrentUserResponse describes the caller.
type CurrentUserResponse struct {
	Username string   `json:"username"`
	Roles    []string `json:"roles"`
}

// UserResponse is one entry of the admin user listing. Expires is unix
// milliseconds, 0 when the account does not expire.
type UserResponse struct {
	ID       int64    `json:"id"`
	Username string   `json:"username"`
	Expires  int64    `json:"expires"`
	Roles    []string `json:"roles"`
}

func userResponse(u *models.User) UserResponse {
	var exp int64
	if !u.ExpiresAt.IsZero() {
		exp = u.ExpiresAt.UnixMilli()
	}
	return UserResponse{ID: u.ID, Username: u.Username, Expires: exp, Roles: u.RoleNames()}
}

// Handler serves the HTTP API.
type Handler struct {
	users    *services.UserService
	auth     *auth.Service
	observer HTTPObserver
	metrics  http.Handler
	logger   logging.Logger
}

// NewHandler wires the API. metricsHandler is mounted at /metrics when
// non-nil; observer may be nil.
func NewHandler(users *services.UserService, authService *auth.Service, observer HTTPObserver, metricsHandler http.Handler, logger logging.Logger) *Handler {
	if observer == nil {
		observer = nopObserver{}
	}
	return &Handler{
		users:    users,
		auth:     authService,
		observer: observer,
		metrics:  metricsHandler,
		logger:   logger.With("module", "httpapi"),
	}
}

// Routes returns the full handler stack: request id, method override,
// authentication filter and instrumentation around the route mux.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	h.RegisterHTTPHandlers(mux)

	return chain(mux,
		requestID,
		methodOverride,
		auth.Filter(h.auth),
		h.instrument,
	)
}

// RegisterHTTPHandlers registers every route on mux.
func (h *Handler) RegisterHTTPHandlers(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/login", h.handleLogin)
	mux.HandleFunc("GET /api/users/current", h.handleCurrentUser)
	mux.HandleFunc("PATCH /api/users/current", requireAuthenticated(h.handleChangePassword))

	mux.HandleFunc("GET /admin/api/users", requireRole(models.RoleAdmin, h.handleListUsers))
	mux.HandleFunc("POST /admin/api/users/{id}/grant/role/{role}", requireRole(models.RoleAdmin, h.handleGrantRole))
	mux.HandleFunc("POST /admin/api/users/{id}/revoke/role/{role}", requireRole(models.RoleAdmin, h.handleRevokeRole))

	mux.HandleFunc("GET /healthz", h.handleHealth)
	if h.metrics != nil {
		mux.Handle("GET /metrics", h.metrics)
	}
}

// handleLogin handles POST /api/login. On success the token is returned
// in the X-AUTH-TOKEN header.
func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	u, err := h.users.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	if err := h.auth.AddAuthentication(w, u); err != nil {
		h.logger.Error(r.Context(), "token issue failed", "request_id", RequestIDFromContext(r.Context()), "error", err)
		writeJSONError(w, http.StatusInternalServerError, "internal", "Internal error")
		return
	}

	writeJSON(w, http.StatusOK, CurrentUserResponse{Username: u.Username, Roles: u.RoleNames()})
}

// handleCurrentUser handles GET /api/users/current. Anonymous callers get
// anonymousUser with no roles.
func (h *Handler) handleCurrentUser(w http.ResponseWriter, r *http.Request) {
	cu := h.users.Current(r.Context(), auth.CurrentResult(r.Context()))
	writeJSON(w, http.StatusOK, CurrentUserResponse{Username: cu.Username, Roles: cu.Roles})
}

// handleChangePassword handles PATCH /api/users/current and responds with
// a fresh token.
func (h *Handler) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	var req ChangePasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	caller := auth.CurrentResult(r.Context())
	u, err := h.users.ChangePassword(r.Context(), caller.Username, req.Password, req.NewPassword)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	if err := h.auth.AddAuthentication(w, u); err != nil {
		h.logger.Error(r.Context(), "token issue failed", "request_id", RequestIDFromContext(r.Context()), "error", err)
		writeJSONError(w, http.StatusInternalServerError, "internal", "Internal error")
		return
	}

	writeJSON(w, http.StatusOK, CurrentUserResponse{Username: u.Username, Roles: u.RoleNames()})
}

// handleListUsers handles GET /admin/api/users.
func (h *Handler) handleListUsers(w http.ResponseWriter, r *http.Request) {
	list, err := h.users.List(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}

	out := make([]UserResponse, 0, len(list))
	for _, u := range list {
		out = append(out, userResponse(u))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) handleGrantRole(w http.ResponseWriter, r *http.Request) {
	h.changeRole(w, r, h.users.GrantRole)
}

func (h *Handler) handleRevokeRole(w http.ResponseWriter, r *http.Request) {
	h.changeRole(w, r, h.users.RevokeRole)
}

func (h *Handler) changeRole(w http.ResponseWriter, r *http.Request, apply func(ctx context.Context, id int64, role string) (*models.User, error)) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		writeJSONError(w, http.StatusBadRequest, "invalid_id", "User id must be a positive integer")
		return
	}

	u, err := apply(r.Context(), id, r.PathValue("role"))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	h.logger.Info(r.Context(), "role change applied",
		"request_id", RequestIDFromContext(r.Context()),
		"by", auth.CurrentResult(r.Context()).Username, "user_id", id, "role", r.PathValue("role"))
	writeJSON(w, http.StatusOK, userResponse(u))
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type nopObserver struct{}

func (nopObserver) ObserveHTTP(string, int, time.Duration) {}
