// Package service holds the domain operations behind the HTTP API:
// authentication, the lesson catalog, progress tracking and the chat
// conversation flow.  Failures are reported with the sentinel kinds below
// and translated to HTTP statuses in exactly one place, the handler
// package's error handler.
package service

import (
	"errors"
	"strings"
)

// Error kinds.  Match with errors.Is.
var (
	ErrValidation   = errors.New("validation failed")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrConflict     = errors.New("conflict")
	ErrNotFound     = errors.New("not found")
)

// Error is a domain failure with a client-safe message.
type Error struct {
	Kind error
	Msg  string
}

func (e *Error) Error() string { return e.Msg }

func (e *Error) Unwrap() error { return e.Kind }

func newError(kind error, msg string) error { return &Error{Kind: kind, Msg: msg} }

// FieldError describes one invalid request field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// FieldErrors is a validation failure carrying per-field detail.
type FieldErrors []FieldError

func (fe FieldErrors) Error() string {
	parts := make([]string, 0, len(fe))
	for _, f := range fe {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return "invalid fields: " + strings.Join(parts, "; ")
}

func (fe FieldErrors) Is(target error) bool { return target == ErrValidation }
