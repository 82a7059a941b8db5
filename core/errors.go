package core

import (
	"fmt"

	"github.com/pkg/errors"
)

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

func (err ValidationError) Error() string {
	if err.Err == nil {
		return ""
	}
	return err.Err.Error()
}

// ConfigError is a configuration problem that makes the rest of the run meaningless.
type ConfigError struct {
	Course string
	Msg    string
	Err    error
}

func NewConfigError(course, msg string, err error) error {
	return &ConfigError{Course: course, Msg: msg, Err: err}
}

func (err ConfigError) Error() string {
	msg := err.Msg
	if err.Course != "" {
		msg = fmt.Sprintf("%s: %s", err.Course, msg)
	}
	if err.Err != nil {
		msg += ": " + err.Err.Error()
	}
	return msg
}

func (err ConfigError) Unwrap() error { return err.Err }

func IsConfigError(err error) bool {
	_, ok := errors.Cause(err).(*ConfigError)
	return ok
}
