package tools

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// ReportError is an expected failure writing a report file.
type ReportError struct {
	Err error
	msg string
}

func (e *ReportError) Error() string { return e.msg }
func (e *ReportError) Unwrap() error { return e.Err }

// WriteReport writes content to path. A missing parent directory or a
// permission failure becomes a *ReportError; other failures are wrapped.
func WriteReport(path, content string) error {
	err := os.WriteFile(path, []byte(content), 0o644)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, fs.ErrNotExist):
		return &ReportError{Err: err, msg: "Directory does not exist: " + filepath.Dir(path)}
	case errors.Is(err, fs.ErrPermission):
		return &ReportError{Err: err, msg: "Permission denied: " + path}
	default:
		return fmt.Errorf("writing report: %w", err)
	}
}
