// Package auth implements stateless request authentication.
//
// A token is a signed snapshot of a user: its name, expiry and role names,
// serialized as deterministic CBOR and joined to a MAC of those bytes:
//
//	base64url(cbor(snapshot)) "." base64url(mac(cbor(snapshot)))
//
// TokenHandler creates and verifies tokens. Service turns inbound tokens
// into an AuthResult and issues tokens for logged-in users. Filter installs
// the AuthResult into every request's context and never rejects a request;
// authorization is left to the handlers downstream.
//
// Nothing is stored server-side. A token is valid until its embedded expiry
// and every instance sharing the secret accepts it.
package auth
