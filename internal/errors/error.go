package errors

import (
	stderrors "errors"
	"fmt"
)

// Category represents the type of error.
type Category string

const (
	CategoryConfig  Category = "config"
	CategoryStorage Category = "storage"
	CategoryCLI     Category = "cli"
	CategoryStore   Category = "store"
)

// SugarError is a coded error with an explanation and a fix suggestion.
type SugarError struct {
	// Code is a unique error identifier (e.g., "S101").
	Code string

	// Category is the error type.
	Category Category

	// Message is a short description of the error.
	Message string

	// Detail is a longer explanation, specific to this occurrence.
	Detail string

	// Subject names what the error is about: a file, key or store.
	Subject string

	// Suggestion is a hint on how to fix the error.
	Suggestion string

	// Wrapped is the underlying error, if any.
	Wrapped error
}

// Error implements the error interface.
func (e *SugarError) Error() string {
	msg := e.Message
	if e.Code != "" {
		msg = e.Code + ": " + msg
	}
	if e.Subject != "" {
		msg += " (" + e.Subject + ")"
	}
	if e.Wrapped != nil {
		msg += ": " + e.Wrapped.Error()
	}
	return msg
}

// Unwrap returns the wrapped error for errors.Is/As support.
func (e *SugarError) Unwrap() error {
	return e.Wrapped
}

// Is matches another SugarError with the same code, so callers can test
// errors.Is(err, errors.New("S101")).
func (e *SugarError) Is(target error) bool {
	t, ok := target.(*SugarError)
	return ok && t.Code != "" && t.Code == e.Code
}

// WithSubject records what the error is about.
func (e *SugarError) WithSubject(s string) *SugarError {
	e.Subject = s
	return e
}

// WithSuggestion adds a fix suggestion to the error.
func (e *SugarError) WithSuggestion(s string) *SugarError {
	e.Suggestion = s
	return e
}

// WithDetail adds a detailed explanation to the error.
func (e *SugarError) WithDetail(d string) *SugarError {
	e.Detail = d
	return e
}

// WithDetailf is WithDetail with formatting.
func (e *SugarError) WithDetailf(format string, args ...any) *SugarError {
	e.Detail = fmt.Sprintf(format, args...)
	return e
}

// Wrap wraps another error.
func (e *SugarError) Wrap(err error) *SugarError {
	e.Wrapped = err
	return e
}

// New creates a SugarError from a registered error code.
func New(code string) *SugarError {
	template, ok := registry[code]
	if !ok {
		return &SugarError{
			Code:    code,
			Message: "Unknown error",
		}
	}
	return &SugarError{
		Code:     code,
		Category: template.Category,
		Message:  template.Message,
		Detail:   template.Detail,
	}
}

// Newf creates a SugarError with a formatted message and no code.
func Newf(category Category, format string, args ...any) *SugarError {
	return &SugarError{
		Category: category,
		Message:  fmt.Sprintf(format, args...),
	}
}

// FromError returns err as a SugarError, wrapping it in code when it is
// not one already.
func FromError(err error, code string) *SugarError {
	if err == nil {
		return nil
	}
	var se *SugarError
	if stderrors.As(err, &se) {
		return se
	}
	return New(code).Wrap(err)
}

// Code returns the code of the first SugarError in err's chain, or "".
func Code(err error) string {
	var se *SugarError
	if stderrors.As(err, &se) {
		return se.Code
	}
	return ""
}
