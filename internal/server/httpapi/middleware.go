package httpapi

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/statelessauth/internal/common"
	"github.com/dmitrijs2005/statelessauth/internal/server/auth"
	"github.com/dmitrijs2005/statelessauth/internal/server/models"
	"github.com/google/uuid"
)

// Middleware wraps a handler.
type Middleware func(http.Handler) http.Handler

// chain applies mws so that the first one runs outermost.
func chain(h http.Handler, mws ...Middleware) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}

type requestIDKey struct{}

// RequestIDFromContext returns the id assigned by requestID.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// requestID keeps a well-formed inbound X-Request-ID or assigns a new
// UUID, and echoes it on the response.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(common.RequestIDHeaderName)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		w.Header().Set(common.RequestIDHeaderName, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey{}, id)))
	})
}

// methodOverride lets clients that can only POST reach PATCH, PUT and
// DELETE routes with ?_method=PATCH.
func methodOverride(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			switch m := strings.ToUpper(r.URL.Query().Get("_method")); m {
			case http.MethodPatch, http.MethodPut, http.MethodDelete:
				r = r.Clone(r.Context())
				r.Method = m
			}
		}
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	if s.status == 0 {
		s.status = code
	}
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Write(b []byte) (int, error) {
	if s.status == 0 {
		s.status = http.StatusOK
	}
	return s.ResponseWriter.Write(b)
}

// HTTPObserver records finished requests.
type HTTPObserver interface {
	ObserveHTTP(route string, code int, elapsed time.Duration)
}

// instrument reports every request under the mux pattern that served it.
func (h *Handler) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(rec, r)

		if rec.status == 0 {
			rec.status = http.StatusOK
		}
		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		h.observer.ObserveHTTP(route, rec.status, time.Since(start))
		h.logger.Debug(r.Context(), "request served",
			"request_id", RequestIDFromContext(r.Context()),
			"method", r.Method, "path", r.URL.Path, "status", rec.status,
			"user", auth.CurrentResult(r.Context()).Name())
	})
}

// requireAuthenticated rejects anonymous callers with 401.
func requireAuthenticated(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !auth.CurrentResult(r.Context()).IsAuthenticated() {
			writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Authentication required")
			return
		}
		next(w, r)
	}
}

// requireRole rejects anonymous callers with 401 and callers without
// role with 403.
func requireRole(role models.Role, next http.HandlerFunc) http.HandlerFunc {
	return requireAuthenticated(func(w http.ResponseWriter, r *http.Request) {
		if !auth.CurrentResult(r.Context()).HasRole(role) {
			writeJSONError(w, http.StatusForbidden, "forbidden", "Access denied")
			return
		}
		next(w, r)
	})
}
