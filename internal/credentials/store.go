// Package credentials reads provider API keys from the host runtime's
// auth config, a JSON object mapping provider name to {type, key}.
package credentials

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

var (
	ErrConfigNotFound = errors.New("auth config not found")
	ErrPermission     = errors.New("permission denied")
	ErrInvalidJSON    = errors.New("invalid JSON in auth config")
	ErrKeyNotFound    = errors.New("API key not found in auth config")
)

// Entry is one provider record in the auth config.
type Entry struct {
	Type string `json:"type"` // "api" or "oauth"
	Key  string `json:"key,omitempty"`
}

// Error is an expected credential failure. Its message is meant to be shown
// to the user as is; Unwrap exposes the sentinel for errors.Is.
type Error struct {
	Err error
	msg string
}

func (e *Error) Error() string { return e.msg }
func (e *Error) Unwrap() error { return e.Err }

// IsReportable reports whether err is an expected credential failure.
func IsReportable(err error) bool {
	var ce *Error
	return errors.As(err, &ce)
}

// Store reads the auth config at Path. It never caches: each Resolve
// re-reads the file.
type Store struct {
	Path string
}

// NewStore returns a Store reading from path.
func NewStore(path string) *Store {
	return &Store{Path: path}
}

// DefaultPath returns $XDG_DATA_HOME/opencode/auth.json, falling back to
// ~/.local/share/opencode/auth.json.
func DefaultPath() string {
	dir := os.Getenv("XDG_DATA_HOME")
	if dir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			dir = filepath.Join(home, ".local", "share")
		} else {
			dir = "."
		}
	}
	return filepath.Join(dir, "opencode", "auth.json")
}

// Entries returns every provider record in the auth config.
func (s *Store) Entries() (map[string]Entry, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		switch {
		case errors.Is(err, fs.ErrNotExist):
			return nil, &Error{Err: ErrConfigNotFound, msg: "Auth config not found: " + s.Path}
		case errors.Is(err, fs.ErrPermission):
			return nil, &Error{Err: ErrPermission, msg: "Permission denied: " + s.Path}
		}
		return nil, fmt.Errorf("reading auth config: %w", err)
	}

	var entries map[string]Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, &Error{Err: ErrInvalidJSON, msg: "Invalid JSON in auth config"}
	}
	return entries, nil
}

// Resolve returns the API key stored for provider.
func (s *Store) Resolve(provider string) (string, error) {
	entries, err := s.Entries()
	if err != nil {
		return "", err
	}

	entry, ok := entries[provider]
	if !ok || entry.Key == "" {
		return "", &Error{
			Err: ErrKeyNotFound,
			msg: fmt.Sprintf("%s API key not found in auth config", displayName(provider)),
		}
	}
	return entry.Key, nil
}

func displayName(provider string) string {
	if provider == "" {
		return "Provider"
	}
	return strings.ToUpper(provider[:1]) + provider[1:]
}
