package errors

import (
	"errors"
	"fmt"
)

// Code classifies an error for callers that must branch on failure kind.
type Code int

const (
	CodeUnknown Code = iota
	// CodeValidation marks bad input. On the alert-creation path it is
	// advisory only: a bad location never blocks an SOS.
	CodeValidation
	CodeNotFound
	CodeForbidden
	// CodeAlreadyTerminal marks a transition attempted on an alert that is
	// already Resolved, Cancelled or FalseAlarm.
	CodeAlreadyTerminal
	CodeConcurrentModification
	CodePersistence
	// CodeChannel marks a per-channel delivery failure. Channel errors are
	// captured as audit data, never surfaced to Create/Cancel callers.
	CodeChannel
	CodeRateLimited
)

// Error is a coded error with an optional wrapped cause and context pairs.
type Error struct {
	Code    Code
	Message string
	Err     error
	Context map[string]string
}

func (e *Error) Error() string {
	if e.Err != nil && e.Message != "" {
		return e.Message + ": " + e.Err.Error()
	}
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "unknown error"
}

func (e *Error) Unwrap() error { return e.Err }

// WithContext returns a copy of the error carrying an extra key/value pair.
func (e *Error) WithContext(key, value string) *Error {
	if e == nil {
		return nil
	}
	out := &Error{Code: e.Code, Message: e.Message, Err: e.Err, Context: make(map[string]string, len(e.Context)+1)}
	for k, v := range e.Context {
		out.Context[k] = v
	}
	out.Context[key] = value
	return out
}

// New creates an uncoded error.
func New(message string) *Error {
	return &Error{Message: message}
}

// WithCode creates a coded error.
func WithCode(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WithCodef creates a coded error with a formatted message.
func WithCodef(code Code, format string, args ...interface{}) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap annotates err with a message and code. Returns nil if err is nil.
func Wrap(err error, code Code, message string) *Error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: message, Err: err}
}

// Wrapf annotates err with a formatted message and code.
func Wrapf(err error, code Code, format string, args ...interface{}) *Error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Err: err}
}

// GetCode extracts the code from anywhere in the chain.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeUnknown
}

func IsValidation(err error) bool      { return GetCode(err) == CodeValidation }
func IsNotFound(err error) bool        { return GetCode(err) == CodeNotFound }
func IsForbidden(err error) bool       { return GetCode(err) == CodeForbidden }
func IsAlreadyTerminal(err error) bool { return GetCode(err) == CodeAlreadyTerminal }
func IsConcurrentModification(err error) bool {
	return GetCode(err) == CodeConcurrentModification
}
func IsPersistence(err error) bool { return GetCode(err) == CodePersistence }
func IsChannel(err error) bool     { return GetCode(err) == CodeChannel }
func IsRateLimited(err error) bool { return GetCode(err) == CodeRateLimited }
