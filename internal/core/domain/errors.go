package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnauthenticated    = errors.New("unauthenticated")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserExists         = errors.New("user already exists")
	ErrInvalidWorkbook    = errors.New("invalid workbook")
)

// Field violation reasons.
const (
	ReasonRequired     = "required"
	ReasonNotNull      = "must not be null"
	ReasonString       = "expected string"
	ReasonNumber       = "expected number"
	ReasonStringArray  = "expected array of strings"
	ReasonUnknownField = "unknown field"
	ReasonInvalidEmail = "invalid email address"
	ReasonTooShort     = "too short"
)

type FieldError struct {
	Field  string
	Reason string
}

// A ValidationError lists every field of a payload that failed the
// shape checks.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = fmt.Sprintf("%s: %s", f.Field, f.Reason)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Add(field, reason string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Reason: reason})
}

// Err returns e when it holds violations and nil otherwise.
func (e *ValidationError) Err() error {
	if e == nil || len(e.Fields) == 0 {
		return nil
	}
	return e
}

// Has reports whether field was rejected, optionally for a given reason.
func (e *ValidationError) Has(field string, reason ...string) bool {
	for _, f := range e.Fields {
		if f.Field != field {
			continue
		}
		if len(reason) == 0 || f.Reason == reason[0] {
			return true
		}
	}
	return false
}
