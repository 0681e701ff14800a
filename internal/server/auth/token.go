package auth

import (
	"encoding/base64"
	"errors"
	"strings"
	"time"

	"github.com/dmitrijs2005/statelessauth/internal/server/models"
)

// Separator joins the encoded snapshot and the encoded signature. It is
// outside the base64url alphabet, so it cannot occur inside either part.
const Separator = "."

// maxTokenLength bounds the work done on untrusted input.
const maxTokenLength = 8 << 10

var tokenEncoding = base64.RawURLEncoding.Strict()

// TokenHandler creates and verifies stateless tokens. It holds only its
// signer and clock and is safe for concurrent use.
type TokenHandler struct {
	signer Signer
	now    func() time.Time
}

// TokenOption customizes a TokenHandler.
type TokenOption func(*TokenHandler)

// WithClock sets the time source used for expiry checks.
func WithClock(now func() time.Time) TokenOption {
	return func(h *TokenHandler) {
		h.now = now
	}
}

// NewTokenHandler builds a handler signing with alg (HS256 when empty) and secret.
func NewTokenHandler(secret []byte, alg string, opts ...TokenOption) (*TokenHandler, error) {
	signer, err := NewSigner(alg, secret)
	if err != nil {
		return nil, err
	}
	return NewTokenHandlerWithSigner(signer, opts...), nil
}

// NewTokenHandlerWithSigner builds a handler around an existing Signer.
func NewTokenHandlerWithSigner(signer Signer, opts ...TokenOption) *TokenHandler {
	h := &TokenHandler{signer: signer, now: time.Now}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Algorithm names the MAC in use.
func (h *TokenHandler) Algorithm() string {
	return h.signer.Algorithm()
}

// CreateToken signs a snapshot of u. Only the username, expiry and roles
// are included. An empty username or an authority outside the role set is
// an error.
func (h *TokenHandler) CreateToken(u *models.User) (string, error) {
	if u == nil {
		return "", errors.New("auth: nil user")
	}
	if u.Username == "" {
		return "", ErrEmptyUsername
	}

	snap, err := snapshotOf(u)
	if err != nil {
		return "", err
	}

	payload, err := snap.marshal()
	if err != nil {
		return "", err
	}

	sig, err := h.signer.Sign(payload)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.Grow(tokenEncoding.EncodedLen(len(payload)) + len(Separator) + tokenEncoding.EncodedLen(len(sig)))
	b.WriteString(tokenEncoding.EncodeToString(payload))
	b.WriteString(Separator)
	b.WriteString(tokenEncoding.EncodeToString(sig))
	return b.String(), nil
}

// ParseToken returns the user a valid token asserts. Any failure, whatever
// the cause, yields (nil, false).
func (h *TokenHandler) ParseToken(token string) (*models.User, bool) {
	u, err := h.Verify(token)
	if err != nil {
		return nil, false
	}
	return u, true
}

// Verify is ParseToken with the failure classified as ErrTokenMalformed,
// ErrTokenSignature or ErrTokenExpired. The returned user never carries
// credential material.
func (h *TokenHandler) Verify(token string) (u *models.User, err error) {
	defer func() {
		if r := recover(); r != nil {
			u, err = nil, ErrTokenMalformed
		}
	}()

	if token == "" || len(token) > maxTokenLength {
		return nil, ErrTokenMalformed
	}

	encodedPayload, encodedSig, ok := strings.Cut(token, Separator)
	if !ok || encodedPayload == "" || encodedSig == "" {
		return nil, ErrTokenMalformed
	}

	payload, err := tokenEncoding.DecodeString(encodedPayload)
	if err != nil {
		return nil, ErrTokenMalformed
	}
	sig, err := tokenEncoding.DecodeString(encodedSig)
	if err != nil {
		return nil, ErrTokenMalformed
	}

	if !h.signer.Verify(payload, sig) {
		return nil, ErrTokenSignature
	}

	snap, err := unmarshalSnapshot(payload)
	if err != nil {
		return nil, ErrTokenMalformed
	}

	u, err = snap.user()
	if err != nil || u.Username == "" {
		return nil, ErrTokenMalformed
	}

	if u.ExpiresAt.IsZero() || !h.now().Before(u.ExpiresAt) {
		return nil, ErrTokenExpired
	}

	return u, nil
}
