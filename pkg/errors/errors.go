// SPDX-License-Identifier: Apache-2.0
// Package errors provides typed error handling with rich context for Cabildo.
package errors

import (
	"encoding/json"
	"fmt"
)

// ErrorCode classifies Cabildo errors for monitoring and transport mapping.
type ErrorCode string

const (
	// CodeInternal indicates an internal system error.
	CodeInternal ErrorCode = "INTERNAL_ERROR"

	// CodeInvalidInput indicates the input was invalid, including
	// unrecognized decision categories and missing required fields.
	CodeInvalidInput ErrorCode = "INVALID_INPUT"

	// CodeNotFound indicates a session or record was not found.
	CodeNotFound ErrorCode = "NOT_FOUND"

	// CodeStoreFailure indicates the durable store failed an operation.
	CodeStoreFailure ErrorCode = "STORE_FAILURE"

	// CodeTimeout indicates an operation exceeded its time limit.
	CodeTimeout ErrorCode = "TIMEOUT"
)

// CabildoError is a typed error with rich context for observability.
// It implements the error interface and can be unwrapped with errors.As().
type CabildoError struct {
	Code        ErrorCode
	Message     string
	Err         error
	Context     map[string]interface{}
	Attributes  map[string]string
	Recoverable bool
	StatusCode  int // For HTTP responses
}

// Error implements the error interface.
func (e *CabildoError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap implements errors.Unwrap for error chain traversal.
func (e *CabildoError) Unwrap() error {
	return e.Err
}

// MarshalJSON implements json.Marshaler for structured logging.
func (e *CabildoError) MarshalJSON() ([]byte, error) {
	type Alias CabildoError
	return json.Marshal(&struct {
		Message     string `json:"message"`
		Code        string `json:"code"`
		Err         string `json:"error,omitempty"`
		Recoverable bool   `json:"recoverable"`
		*Alias
	}{
		Message:     e.Error(),
		Code:        string(e.Code),
		Err:         fmt.Sprintf("%v", e.Err),
		Recoverable: e.Recoverable,
		Alias:       (*Alias)(e),
	})
}

// New creates a new CabildoError with the given code, message, and cause.
func New(code ErrorCode, msg string, cause error) *CabildoError {
	return &CabildoError{
		Code:       code,
		Message:    msg,
		Err:        cause,
		Context:    make(map[string]interface{}),
		Attributes: make(map[string]string),
		StatusCode: codeToStatusCode(code),
	}
}

// WithContext adds a key-value pair to the error context.
// Returns the error for method chaining.
func (e *CabildoError) WithContext(key string, value interface{}) *CabildoError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// WithAttribute adds a string attribute for OTEL traces.
// Returns the error for method chaining.
func (e *CabildoError) WithAttribute(key, value string) *CabildoError {
	if e.Attributes == nil {
		e.Attributes = make(map[string]string)
	}
	e.Attributes[key] = value
	return e
}

// WithRecoverable sets whether the error can be recovered from.
// Returns the error for method chaining.
func (e *CabildoError) WithRecoverable(recoverable bool) *CabildoError {
	e.Recoverable = recoverable
	return e
}

// AsCabildoError attempts to convert an error to a CabildoError.
// Returns the error as CabildoError if it is one, or wraps it otherwise.
func AsCabildoError(err error) *CabildoError {
	if err == nil {
		return nil
	}
	if ce, ok := err.(*CabildoError); ok {
		return ce
	}
	// Wrap unknown error as internal
	return New(CodeInternal, "wrapped error", err)
}

// RecoverableString returns "true" or "false" as a string for observability.
func (e *CabildoError) RecoverableString() string {
	if e.Recoverable {
		return "true"
	}
	return "false"
}

// codeToStatusCode maps error codes to HTTP status codes.
func codeToStatusCode(code ErrorCode) int {
	switch code {
	case CodeNotFound:
		return 404
	case CodeInvalidInput:
		return 400
	case CodeTimeout:
		return 408
	case CodeStoreFailure:
		return 502
	default:
		return 500
	}
}
