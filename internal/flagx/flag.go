// Package flagx lets several components share one command line: each one
// picks out only the flags it owns before handing them to a flag.FlagSet.
package flagx

import (
	"flag"
	"strings"
)

// Spec names the flags a component owns. Value flags take an argument
// ("-a :8080" or "-a=:8080"), and the separate form consumes the next
// argument even when it starts with a dash. Bool flags never consume the
// next argument.
type Spec struct {
	Value []string
	Bool  []string
}

func (s Spec) kind(name string) (isValue, isBool bool) {
	for _, f := range s.Value {
		if f == name {
			return true, false
		}
	}
	for _, f := range s.Bool {
		if f == name {
			return false, true
		}
	}
	return false, false
}

// Filter returns the subset of args that belongs to spec, keeping order.
// Names are matched with their dashes, so "-c" and "--c" are distinct.
func Filter(args []string, spec Spec) []string {
	out := make([]string, 0, len(args))

	for i := 0; i < len(args); i++ {
		arg := args[i]
		if !strings.HasPrefix(arg, "-") {
			continue
		}

		name, _, hasValue := strings.Cut(arg, "=")
		isValue, isBool := spec.kind(name)

		switch {
		case isBool, isValue && hasValue:
			out = append(out, arg)
		case isValue:
			out = append(out, arg)
			if i+1 < len(args) {
				out = append(out, args[i+1])
				i++
			}
		}
	}

	return out
}

// FilterArgs is Filter for value flags only.
func FilterArgs(args []string, allowedFlags []string) []string {
	return Filter(args, Spec{Value: allowedFlags})
}

// ConfigFile extracts the config file path given with -c or -config.
// It returns "" when neither is present.
func ConfigFile(args []string) string {
	var path string

	fs := flag.NewFlagSet("config", flag.ContinueOnError)
	fs.SetOutput(discard{})
	fs.StringVar(&path, "config", "", "path to config file")
	fs.StringVar(&path, "c", "", "path to config file (short)")
	_ = fs.Parse(FilterArgs(args, []string{"-c", "-config", "--config"}))

	return path
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }
