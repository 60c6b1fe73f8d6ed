// Package common holds the error categories and document metadata shared by
// the loading, rendering and export packages.
package common

import (
	"errors"
	"fmt"
)

// Error categories. Every error returned by this module that belongs to one of
// them matches it with errors.Is.
var (
	ErrInvalidFileType   = errors.New("invalid file type")
	ErrFileTooLarge      = errors.New("file too large")
	ErrLoaderUnavailable = errors.New("rasterization engine unavailable")
	ErrParseFailure      = errors.New("failed to parse document")
	ErrRenderFailure     = errors.New("failed to render page")
	ErrExportFailure     = errors.New("failed to export document")
)

// Error attaches a message and an optional cause to an error category.
type Error struct {
	Kind error
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%v: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%v: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() []error {
	if e.Err != nil {
		return []error{e.Kind, e.Err}
	}
	return []error{e.Kind}
}

// Wrap returns an *Error of the given kind. It returns err unchanged when err
// already belongs to kind.
func Wrap(kind error, msg string, err error) error {
	if err != nil && errors.Is(err, kind) {
		return err
	}
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// Errorf returns an *Error of the given kind without a cause.
func Errorf(kind error, format string, args ...any) error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}
