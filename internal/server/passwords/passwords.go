// Package passwords hashes and checks user passwords with bcrypt.
package passwords

import (
	"errors"
	"fmt"

	"github.com/dmitrijs2005/statelessauth/internal/common"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrEmptyPassword = fmt.Errorf("%w: empty password", common.ErrorValidation)
	ErrTooLong       = fmt.Errorf("%w: password longer than 72 bytes", common.ErrorValidation)
	ErrMismatch      = errors.New("password does not match")
)

// Hasher produces and verifies bcrypt hashes at a fixed cost.
type Hasher struct {
	cost  int
	dummy []byte
}

// NewHasher returns a Hasher for cost. A cost outside bcrypt's range is
// rejected.
func NewHasher(cost int) (*Hasher, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("%w: bcrypt cost %d", common.ErrorValidation, cost)
	}
	dummy, err := bcrypt.GenerateFromPassword(common.GenerateRandByteArray(16), cost)
	if err != nil {
		return nil, err
	}
	return &Hasher{cost: cost, dummy: dummy}, nil
}

func (h *Hasher) Hash(password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}
	b, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", ErrTooLong
		}
		return "", err
	}
	return string(b), nil
}

// Compare returns nil when password matches hash and ErrMismatch when it
// does not. Malformed hashes are reported as they come from bcrypt.
func (h *Hasher) Compare(hash, password string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return ErrMismatch
	}
	return err
}

// CompareDummy spends the same time as Compare against a hash that never
// matches. Login uses it for unknown usernames so response time does not
// reveal which accounts exist.
func (h *Hasher) CompareDummy(password string) {
	_ = bcrypt.CompareHashAndPassword(h.dummy, []byte(password))
}
