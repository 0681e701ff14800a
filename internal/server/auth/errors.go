package auth

import (
	"errors"
	"fmt"

	"github.com/dmitrijs2005/statelessauth/internal/common"
)

// Token verification failures. Callers outside this package only ever see
// an anonymous result; these exist so the reason can be logged and counted.
var (
	ErrTokenMalformed = fmt.Errorf("%w: malformed", common.ErrInvalidToken)
	ErrTokenSignature = fmt.Errorf("%w: signature mismatch", common.ErrInvalidToken)
	ErrTokenExpired   = common.ErrTokenExpired
)

// ErrSecretTooShort is returned when a signing secret is under MinSecretLength bytes.
var ErrSecretTooShort = errors.New("signing secret too short")

// ErrUnknownAlgorithm is returned for an unsupported signing algorithm name.
var ErrUnknownAlgorithm = errors.New("unknown signing algorithm")

// ErrEmptyUsername is returned when asked to sign a token for a user without a name.
var ErrEmptyUsername = errors.New("auth: empty username")
