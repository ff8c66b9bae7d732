package errors

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Error is a structured error carrying a code, a human-readable message,
// optional key-value context, and an optional wrapped cause.
type Error struct {
	// Code classifies the failure.
	Code ErrorCode

	// Message is a human-readable description of the failure.
	Message string

	// Context holds additional key-value details (paths, tool names, exit codes).
	Context map[string]interface{}

	// Err is the wrapped cause, if any.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	var sb strings.Builder
	sb.WriteString(string(e.Code))
	sb.WriteString(": ")
	sb.WriteString(e.Message)
	if len(e.Context) > 0 {
		keys := make([]string, 0, len(e.Context))
		for k := range e.Context {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		sb.WriteString(" (")
		for i, k := range keys {
			if i > 0 {
				sb.WriteString(", ")
			}
			fmt.Fprintf(&sb, "%s=%v", k, e.Context[k])
		}
		sb.WriteString(")")
	}
	if e.Err != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Err.Error())
	}
	return sb.String()
}

// Unwrap returns the wrapped cause for error chain traversal.
func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a new Error with the given code and message.
func New(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf creates a new Error with a formatted message.
func Newf(code ErrorCode, format string, args ...interface{}) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap wraps err with a code and message. Returns nil if err is nil.
func Wrap(err error, code ErrorCode, message string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: message, Err: err}
}

// WrapWithContext wraps err with a code, message, and key-value context.
// Returns nil if err is nil.
func WrapWithContext(err error, code ErrorCode, message string, context map[string]interface{}) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: message, Context: context, Err: err}
}

// Code extracts the ErrorCode from err, traversing the wrap chain.
// Returns CodeUnknown when no structured Error is present.
func Code(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeUnknown
}

// HasCode reports whether err or any error in its chain carries the code.
func HasCode(err error, code ErrorCode) bool {
	for err != nil {
		var e *Error
		if !errors.As(err, &e) {
			return false
		}
		if e.Code == code {
			return true
		}
		err = e.Err
	}
	return false
}

// Is delegates to the standard library for sentinel comparison.
func Is(err, target error) bool { return errors.Is(err, target) }

// As delegates to the standard library for typed extraction.
func As(err error, target interface{}) bool { return errors.As(err, target) }
