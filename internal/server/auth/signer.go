package auth

import (
	"crypto/subtle"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/zeebo/blake3"
)

// MinSecretLength is the shortest secret accepted for signing.
const MinSecretLength = 32

// Supported signing algorithms.
const (
	AlgHS256  = "HS256"
	AlgHS384  = "HS384"
	AlgHS512  = "HS512"
	AlgBLAKE3 = "BLAKE3"
)

const blake3KeyContext = "statelessauth 2024 token mac key"

// Signer computes and checks a keyed MAC over a token payload.
// Implementations hold their key and are safe for concurrent use.
type Signer interface {
	Sign(payload []byte) ([]byte, error)
	Verify(payload, sig []byte) bool
	Algorithm() string
}

// NewSigner returns the Signer for alg keyed with secret. An empty alg
// selects HS256.
func NewSigner(alg string, secret []byte) (Signer, error) {
	if len(secret) < MinSecretLength {
		return nil, fmt.Errorf("%w: got %d bytes, need %d", ErrSecretTooShort, len(secret), MinSecretLength)
	}

	key := make([]byte, len(secret))
	copy(key, secret)

	switch strings.ToUpper(alg) {
	case "", AlgHS256:
		return &hmacSigner{method: jwt.SigningMethodHS256, key: key}, nil
	case AlgHS384:
		return &hmacSigner{method: jwt.SigningMethodHS384, key: key}, nil
	case AlgHS512:
		return &hmacSigner{method: jwt.SigningMethodHS512, key: key}, nil
	case AlgBLAKE3:
		return newBlake3Signer(key), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownAlgorithm, alg)
	}
}

type hmacSigner struct {
	method *jwt.SigningMethodHMAC
	key    []byte
}

func (s *hmacSigner) Sign(payload []byte) ([]byte, error) {
	return s.method.Sign(string(payload), s.key)
}

// Verify uses hmac.Equal under the hood.
func (s *hmacSigner) Verify(payload, sig []byte) bool {
	return s.method.Verify(string(payload), sig, s.key) == nil
}

func (s *hmacSigner) Algorithm() string {
	return s.method.Alg()
}

type blake3Signer struct {
	key [32]byte
}

func newBlake3Signer(secret []byte) *blake3Signer {
	s := &blake3Signer{}
	blake3.DeriveKey(blake3KeyContext, secret, s.key[:])
	return s
}

func (s *blake3Signer) Sign(payload []byte) ([]byte, error) {
	h, err := blake3.NewKeyed(s.key[:])
	if err != nil {
		return nil, err
	}
	_, _ = h.Write(payload)
	return h.Sum(nil), nil
}

func (s *blake3Signer) Verify(payload, sig []byte) bool {
	want, err := s.Sign(payload)
	if err != nil {
		return false
	}
	return subtle.ConstantTimeCompare(want, sig) == 1
}

func (s *blake3Signer) Algorithm() string {
	return AlgBLAKE3
}
