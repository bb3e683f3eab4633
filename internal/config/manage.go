package config

import (
	"fmt"
	"os"
	"strconv"
)

// Where a displayed value came from.
const (
	SourceDefault = "default"
	SourceFile    = "file"
	SourceEnv     = "env"
)

// KeyInfo is one row of `firmkit config show`.
type KeyInfo struct {
	Key    string
	EnvVar string
	Value  string
	Source string
}

// ShowAll lists every non-secret key with its effective value.
func ShowAll(cfg Config) []KeyInfo {
	def := defaults()
	var rows []KeyInfo
	for _, s := range specs {
		if s.secret {
			continue
		}
		value := fmt.Sprintf("%v", s.extract(cfg))
		source := SourceFile
		switch {
		case os.Getenv(s.env) != "":
			source = SourceEnv
		case value == fmt.Sprintf("%v", s.extract(def)):
			source = SourceDefault
		}
		rows = append(rows, KeyInfo{Key: s.key, EnvVar: s.env, Value: value, Source: source})
	}
	return rows
}

// SetKey validates value and stores it in the config file.
func SetKey(key, value string) error {
	return setKey(newPlatformBackend(), key, value)
}

// UnsetKey removes key from the config file so its default applies again.
func UnsetKey(key string) error {
	return unsetKey(newPlatformBackend(), key)
}

func lookup(key string) (keySpec, error) {
	for _, s := range specs {
		if s.key != key {
			continue
		}
		if s.secret {
			return keySpec{}, fmt.Errorf("%s is a secret; set it with the %s environment variable", key, s.env)
		}
		return s, nil
	}
	return keySpec{}, fmt.Errorf("unknown config key: %q", key)
}

func setKey(b ConfigBackend, key, value string) error {
	s, err := lookup(key)
	if err != nil {
		return err
	}

	var parsed any = value
	if s.typ == kInt {
		i, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%s must be an integer: %w", key, err)
		}
		parsed = i
	}

	// Reject values that would make the stored config fail to load.
	candidate := defaults()
	if err := applyBackend(&candidate, b); err != nil {
		return err
	}
	s.apply(&candidate, parsed)
	if err := candidate.Validate(); err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}

	if i, ok := parsed.(int); ok {
		return b.SetInt(key, i)
	}
	return b.SetString(key, value)
}

func unsetKey(b ConfigBackend, key string) error {
	if _, err := lookup(key); err != nil {
		return err
	}
	return b.Delete(key)
}

// ValidKeys returns the keys accepted by SetKey.
func ValidKeys() []string {
	var keys []string
	for _, s := range specs {
		if !s.secret {
			keys = append(keys, s.key)
		}
	}
	return keys
}
