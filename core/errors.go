package core

import "github.com/pkg/errors"

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
}

type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

// NewFieldError is a shortcut for a ValidationError on a single field.
func NewFieldError(field, msg string) error {
	return &ValidationError{Err: errors.New(msg), Fields: []FieldError{{Field: field, Error: msg}}}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		return ""
	}
	return err.Err.Error()
}

// NotFoundError is implemented by the domain sentinels that should map to a 404.
type NotFoundError interface {
	error
	NotFound() bool
}

type notFound struct {
	message string
}

func NewNotFoundError(msg string) error {
	return &notFound{message: msg}
}

func (nf notFound) Error() string  { return nf.message }
func (nf notFound) NotFound() bool { return true }

func IsNotFound(err error) bool {
	nf, ok := errors.Cause(err).(NotFoundError)
	return ok && nf.NotFound()
}

type shutdown struct {
	message string
}

func NewShutdownError(msg string) error {
	return &shutdown{message: msg}
}

func (s shutdown) Error() string {
	return s.message
}

func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdown)
	return ok
}
