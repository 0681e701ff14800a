// Package config holds the client's settings: defaults overlaid by
// command-line flags.
package config

import (
	"flag"
	"io"
	"time"
)

// Config holds runtime settings for the statelessauth client.
type Config struct {
	ServerURL string
	Username  string
	Timeout   time.Duration
	// Command is the first positional argument, "whoami" by default.
	Command string
}

// LoadDefaults populates c with defaults matching a local server.
func (c *Config) LoadDefaults() {
	c.ServerURL = "http://127.0.0.1:8080"
	c.Username = "user"
	c.Timeout = 10 * time.Second
	c.Command = "whoami"
}

// Load builds a Config from defaults and args. Flags come before the
// command:
//
//	-s string          server base URL
//	-u string          username
//	-timeout duration  request timeout (e.g. "5s")
func Load(args []string) (*Config, error) {
	c := &Config{}
	c.LoadDefaults()

	fs := flag.NewFlagSet("statelessauth-client", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&c.ServerURL, "s", c.ServerURL, "server base URL")
	fs.StringVar(&c.Username, "u", c.Username, "username")
	fs.DurationVar(&c.Timeout, "timeout", c.Timeout, "request timeout")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		c.Command = fs.Arg(0)
	}
	return c, nil
}
