// Package config loads process settings from environment variables with a
// fail-open policy: a value that does not parse or validate is replaced by
// its default and reported as a warning, so a typo in one variable never
// keeps the service from starting.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// LoadResult is the outcome of loading one variable.
type LoadResult[T any] struct {
	Value           T
	Warning         string // set when FallbackApplied
	FallbackApplied bool
}

// LoadEnv reads key, parses it and validates it. Unset or empty variables
// yield def without a warning. validate may be nil.
func LoadEnv[T any](key string, def T, parse func(string) (T, error), validate func(T) error) LoadResult[T] {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return LoadResult[T]{Value: def}
	}

	v, err := parse(raw)
	if err == nil && validate != nil {
		err = validate(v)
	}
	if err != nil {
		return LoadResult[T]{
			Value:           def,
			Warning:         fmt.Sprintf("invalid %s=%q: %v, falling back to default %v", key, raw, err, def),
			FallbackApplied: true,
		}
	}
	return LoadResult[T]{Value: v}
}

// LoadEnvString returns the variable or def when it is unset.
func LoadEnvString(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

// LoadEnvStringValidated is LoadEnv for plain strings.
func LoadEnvStringValidated(key, def string, validate func(string) error) LoadResult[string] {
	return LoadEnv(key, def, func(s string) (string, error) { return s, nil }, validate)
}

// LoadEnvInt is LoadEnv for base-10 integers.
func LoadEnvInt(key string, def int, validate func(int) error) LoadResult[int] {
	return LoadEnv(key, def, strconv.Atoi, validate)
}

// LoadEnvDuration is LoadEnv for Go duration strings such as "30s".
func LoadEnvDuration(key string, def time.Duration, validate func(time.Duration) error) LoadResult[time.Duration] {
	return LoadEnv(key, def, time.ParseDuration, validate)
}

// LoadEnvBool is LoadEnv for strconv.ParseBool values.
func LoadEnvBool(key string, def bool) LoadResult[bool] {
	return LoadEnv(key, def, strconv.ParseBool, nil)
}
