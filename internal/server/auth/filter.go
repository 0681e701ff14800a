package auth

import "net/http"

// RequestAuthenticator produces the AuthResult for an inbound request.
type RequestAuthenticator interface {
	AuthenticateRequest(r *http.Request) AuthResult
}

// Filter returns middleware that authenticates every request, installs the
// result into its context and always calls next. It never rejects.
func Filter(a RequestAuthenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			res := a.AuthenticateRequest(r)
			next.ServeHTTP(w, r.WithContext(WithResult(r.Context(), res)))
		})
	}
}
