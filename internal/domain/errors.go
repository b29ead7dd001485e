package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInsufficientData means a file has fewer than two usable lines.
	ErrInsufficientData = errors.New("insufficient data")

	// ErrMissingRequiredColumn means a file lacks its identity columns.
	ErrMissingRequiredColumn = errors.New("missing required column")
)

// FileError is a structural problem with one uploaded file. It aborts that
// file only.
type FileError struct {
	File   string
	Detail string
	Err    error
}

func (e *FileError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %v: %s", e.File, e.Err, e.Detail)
	}
	return fmt.Sprintf("%s: %v", e.File, e.Err)
}

func (e *FileError) Unwrap() error { return e.Err }

// NewFileError wraps err for file.
func NewFileError(file string, err error, detail string) *FileError {
	return &FileError{File: file, Err: err, Detail: detail}
}
