package config

import (
	"flag"
	"io"
	"time"

	"github.com/dmitrijs2005/statelessauth/internal/flagx"
)

var serverFlags = flagx.Spec{
	Value: []string{"-a", "-g", "-d", "-s", "-t", "-m", "-l", "-b"},
	Bool:  []string{"-seed"},
}

// parseFlags overlays the server flags found in args onto config.
//
//	-a string   HTTP bind address
//	-g string   gRPC bind address
//	-d string   database DSN (postgres://, sqlite:, file: or empty for memory)
//	-s string   base64 token secret
//	-t int      token validity, minutes
//	-m string   signing algorithm (HS256, HS384, HS512, BLAKE3)
//	-l string   log level
//	-b int      bcrypt cost
//	-seed       create admin/admin and user/user when missing
func parseFlags(config *Config, args []string) error {
	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "HTTP address and port")
	fs.StringVar(&config.EndpointAddrGRPC, "g", config.EndpointAddrGRPC, "gRPC address and port")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "base64 token secret")
	validity := fs.Int("t", int(config.TokenValidityDuration.Minutes()), "token validity (in minutes)")
	fs.StringVar(&config.SigningAlgorithm, "m", config.SigningAlgorithm, "token signing algorithm")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")
	fs.IntVar(&config.BcryptCost, "b", config.BcryptCost, "bcrypt cost")
	fs.BoolVar(&config.SeedDefaultUsers, "seed", config.SeedDefaultUsers, "seed default users")

	if err := fs.Parse(flagx.Filter(args, serverFlags)); err != nil {
		return err
	}

	fs.Visit(func(f *flag.Flag) {
		if f.Name == "t" {
			config.TokenValidityDuration = time.Duration(*validity) * time.Minute
		}
	})
	return nil
}
