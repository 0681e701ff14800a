package auth

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dmitrijs2005/statelessauth/internal/common"
	"github.com/dmitrijs2005/statelessauth/internal/logging"
	"github.com/dmitrijs2005/statelessauth/internal/server/models"
)

// Outcomes reported to a Recorder for every authentication attempt.
const (
	OutcomeAnonymous     = "anonymous"
	OutcomeAuthenticated = "authenticated"
	OutcomeMalformed     = "malformed"
	OutcomeBadSignature  = "bad_signature"
	OutcomeExpired       = "expired"
)

// Recorder receives authentication events, typically to export metrics.
type Recorder interface {
	AuthenticationEvaluated(outcome string)
	TokenIssued()
}

type nopRecorder struct{}

func (nopRecorder) AuthenticationEvaluated(string) {}
func (nopRecorder) TokenIssued()                   {}

// Service bridges the token handler and the transport: it reads tokens off
// requests and issues them for logged-in users.
type Service struct {
	tokens   *TokenHandler
	validity time.Duration
	logger   logging.Logger
	recorder Recorder
	now      func() time.Time
}

// ServiceOption customizes a Service.
type ServiceOption func(*Service)

// WithRecorder reports authentication events to r.
func WithRecorder(r Recorder) ServiceOption {
	return func(s *Service) {
		if r != nil {
			s.recorder = r
		}
	}
}

// WithServiceClock sets the time source used when stamping expiry.
func WithServiceClock(now func() time.Time) ServiceOption {
	return func(s *Service) {
		s.now = now
	}
}

// NewService returns a Service issuing tokens valid for validity.
func NewService(tokens *TokenHandler, validity time.Duration, logger logging.Logger, opts ...ServiceOption) *Service {
	if logger == nil {
		logger = logging.Nop()
	}
	s := &Service{
		tokens:   tokens,
		validity: validity,
		logger:   logger.With("module", "auth"),
		recorder: nopRecorder{},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AuthenticateRequest reads the X-AUTH-TOKEN header of r.
func (s *Service) AuthenticateRequest(r *http.Request) AuthResult {
	return s.AuthenticateToken(r.Context(), r.Header.Get(common.AuthTokenHeaderName))
}

// AuthenticateToken turns a raw token into an AuthResult. A missing or
// invalid token gives Anonymous. The user store is not consulted: the
// token alone is the credential until it expires.
func (s *Service) AuthenticateToken(ctx context.Context, token string) AuthResult {
	if token == "" {
		s.recorder.AuthenticationEvaluated(OutcomeAnonymous)
		return Anonymous()
	}

	u, err := s.tokens.Verify(token)
	if err != nil {
		outcome := classify(err)
		s.logger.Debug(ctx, "token rejected", "reason", outcome)
		s.recorder.AuthenticationEvaluated(outcome)
		return Anonymous()
	}

	s.recorder.AuthenticationEvaluated(OutcomeAuthenticated)
	return resultFromUser(u)
}

// IssueToken signs a token for u expiring TokenValidity from now, or at
// u.ExpiresAt if that comes first. u itself is not modified.
func (s *Service) IssueToken(u *models.User) (string, error) {
	if u == nil {
		return "", errors.New("auth: nil user")
	}

	c := u.WithoutCredentials()
	exp := s.now().Add(s.validity)
	if !u.ExpiresAt.IsZero() && u.ExpiresAt.Before(exp) {
		exp = u.ExpiresAt
	}
	c.ExpiresAt = exp

	token, err := s.tokens.CreateToken(c)
	if err != nil {
		return "", err
	}

	s.recorder.TokenIssued()
	return token, nil
}

// AddAuthentication issues a token for u and sets it on the response header.
func (s *Service) AddAuthentication(w http.ResponseWriter, u *models.User) error {
	token, err := s.IssueToken(u)
	if err != nil {
		return err
	}
	w.Header().Set(common.AuthTokenHeaderName, token)
	return nil
}

func classify(err error) string {
	switch {
	case errors.Is(err, ErrTokenExpired):
		return OutcomeExpired
	case errors.Is(err, ErrTokenSignature):
		return OutcomeBadSignature
	default:
		return OutcomeMalformed
	}
}
