package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/statelessauth/internal/flagx"
	"github.com/dmitrijs2005/statelessauth/internal/timex"
	"gopkg.in/yaml.v3"
)

// FileConfig is the on-disk shape of the configuration. Absent keys
// leave the corresponding setting untouched.
type FileConfig struct {
	EndpointAddrHTTP      *string         `json:"endpoint_addr_http" yaml:"endpoint_addr_http"`
	EndpointAddrGRPC      *string         `json:"endpoint_addr_grpc" yaml:"endpoint_addr_grpc"`
	DatabaseDSN           *string         `json:"database_dsn" yaml:"database_dsn"`
	SecretKey             *string         `json:"secret_key" yaml:"secret_key"`
	TokenValidityDuration *timex.Duration `json:"token_validity_duration" yaml:"token_validity_duration"`
	SigningAlgorithm      *string         `json:"signing_algorithm" yaml:"signing_algorithm"`
	SeedDefaultUsers      *bool           `json:"seed_default_users" yaml:"seed_default_users"`
	LogLevel              *string         `json:"log_level" yaml:"log_level"`
	BcryptCost            *int            `json:"bcrypt_cost" yaml:"bcrypt_cost"`
}

func parseFile(config *Config, args []string) error {
	path := flagx.ConfigFile(args)
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	fc, err := decodeFile(path, data)
	if err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	fc.apply(config)
	return nil
}

func decodeFile(path string, data []byte) (*FileConfig, error) {
	fc := &FileConfig{}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, fc); err != nil {
			return nil, err
		}
	case ".json", "":
		if err := json.Unmarshal(data, fc); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported config extension %q", filepath.Ext(path))
	}

	return fc, nil
}

func (fc *FileConfig) apply(c *Config) {
	setIf(&c.EndpointAddrHTTP, fc.EndpointAddrHTTP)
	setIf(&c.EndpointAddrGRPC, fc.EndpointAddrGRPC)
	setIf(&c.DatabaseDSN, fc.DatabaseDSN)
	setIf(&c.SecretKey, fc.SecretKey)
	setIf(&c.SigningAlgorithm, fc.SigningAlgorithm)
	setIf(&c.SeedDefaultUsers, fc.SeedDefaultUsers)
	setIf(&c.LogLevel, fc.LogLevel)
	setIf(&c.BcryptCost, fc.BcryptCost)
	if fc.TokenValidityDuration != nil {
		c.TokenValidityDuration = fc.TokenValidityDuration.Duration
	}
}

func setIf[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}
