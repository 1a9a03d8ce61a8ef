// Package environment reads typed configuration values from environment
// variables. Unset, empty and unparsable values fall back to the supplied
// default; only RequiredString reports an error.
package environment

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// lookup returns the parsed value of name, or def when it is unset, empty or
// rejected by parse.
func lookup[T any](name string, def T, parse func(string) (T, error)) T {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return def
	}
	out, err := parse(v)
	if err != nil {
		return def
	}
	return out
}

// Set reports whether the named variable is present in the environment, even
// if empty.
func Set(name string) bool {
	_, ok := os.LookupEnv(name)
	return ok
}

// StringOr returns the variable's value or def.
func StringOr(name, def string) string {
	return lookup(name, def, func(s string) (string, error) { return s, nil })
}

// RequiredString returns the variable's value or an error when it is unset
// or empty.
func RequiredString(name string) (string, error) {
	if v := strings.TrimSpace(os.Getenv(name)); v != "" {
		return v, nil
	}
	return "", fmt.Errorf("required environment variable %q is not set", name)
}

// BoolOr accepts the strconv.ParseBool spellings.
func BoolOr(name string, def bool) bool {
	return lookup(name, def, strconv.ParseBool)
}

// IntOr parses a decimal integer.
func IntOr(name string, def int) int {
	return lookup(name, def, strconv.Atoi)
}

// DurationOr parses a Go duration such as "90s" or "2m".
func DurationOr(name string, def time.Duration) time.Duration {
	return lookup(name, def, time.ParseDuration)
}

// StringSliceOr splits a comma-separated list, dropping blank elements.
func StringSliceOr(name string, def []string) []string {
	return lookup(name, def, func(s string) ([]string, error) {
		var out []string
		for _, p := range strings.Split(s, ",") {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		if len(out) == 0 {
			return nil, fmt.Errorf("empty list")
		}
		return out, nil
	})
}
