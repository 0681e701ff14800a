package common

const (
	// AuthTokenHeaderName is the HTTP header carrying the stateless token,
	// both on requests and on the login response.
	AuthTokenHeaderName = "X-AUTH-TOKEN"

	// AuthTokenMetadataKey is the gRPC metadata key for the same token.
	// gRPC lowercases header names.
	AuthTokenMetadataKey = "x-auth-token"

	// RequestIDHeaderName correlates a request across log lines.
	RequestIDHeaderName = "X-Request-ID"

	// AnonymousUserName is what the API reports for unauthenticated callers.
	AnonymousUserName = "anonymousUser"
)
