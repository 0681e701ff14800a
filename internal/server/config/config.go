// Package config assembles server settings from defaults, an optional
// JSON or YAML file and command-line flags, applied in that order.
package config

import (
	"encoding/base64"
	"fmt"
	"time"

	"github.com/dmitrijs2005/statelessauth/internal/server/auth"
	"golang.org/x/crypto/bcrypt"
)

// Config holds runtime settings for the statelessauth server.
//
// SecretKey is base64 (standard or URL alphabet). When it is empty the
// server generates a random secret at startup, so issued tokens do not
// survive a restart.
type Config struct {
	EndpointAddrHTTP      string
	EndpointAddrGRPC      string
	DatabaseDSN           string
	SecretKey             string
	TokenValidityDuration time.Duration
	SigningAlgorithm      string
	SeedDefaultUsers      bool
	LogLevel              string
	BcryptCost            int
}

// DefaultTokenValidity is ten days.
const DefaultTokenValidity = 10 * 24 * time.Hour

// LoadDefaults populates Config with development defaults. The empty
// DatabaseDSN selects the in-memory user store.
func (c *Config) LoadDefaults() {
	c.EndpointAddrHTTP = ":8080"
	c.EndpointAddrGRPC = ":50051"
	c.DatabaseDSN = ""
	c.SecretKey = ""
	c.TokenValidityDuration = DefaultTokenValidity
	c.SigningAlgorithm = auth.AlgHS256
	c.SeedDefaultUsers = true
	c.LogLevel = "info"
	c.BcryptCost = bcrypt.DefaultCost
}

// Load builds a Config from defaults, the file named by -c/-config in
// args (if any) and the flags in args. args excludes the program name.
func Load(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if err := parseFile(cfg, args); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports settings the server cannot start with.
func (c *Config) Validate() error {
	if c.TokenValidityDuration <= 0 {
		return fmt.Errorf("token validity must be positive, got %s", c.TokenValidityDuration)
	}
	switch c.SigningAlgorithm {
	case auth.AlgHS256, auth.AlgHS384, auth.AlgHS512, auth.AlgBLAKE3:
	default:
		return fmt.Errorf("%w: %q", auth.ErrUnknownAlgorithm, c.SigningAlgorithm)
	}
	if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost {
		return fmt.Errorf("bcrypt cost must be within [%d, %d], got %d", bcrypt.MinCost, bcrypt.MaxCost, c.BcryptCost)
	}
	if _, err := c.Secret(); err != nil {
		return err
	}
	return nil
}

// Secret decodes SecretKey. It returns nil, nil when no key is configured.
func (c *Config) Secret() ([]byte, error) {
	if c.SecretKey == "" {
		return nil, nil
	}
	for _, enc := range []*base64.Encoding{base64.StdEncoding, base64.RawStdEncoding, base64.URLEncoding, base64.RawURLEncoding} {
		if b, err := enc.DecodeString(c.SecretKey); err == nil {
			if len(b) < auth.MinSecretLength {
				return nil, fmt.Errorf("%w: got %d bytes", auth.ErrSecretTooShort, len(b))
			}
			return b, nil
		}
	}
	return nil, fmt.Errorf("secret key is not valid base64")
}
