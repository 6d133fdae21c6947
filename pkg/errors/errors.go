package errors

import (
	"errors"
	"fmt"
	"maps"
)

const (
	CodeTransport     = "TRANSPORT_ERROR"
	CodeDecode        = "DECODE_ERROR"
	CodeConfiguration = "CONFIGURATION_ERROR"
	CodeNotFound      = "NOT_FOUND"
	CodeValidation    = "VALIDATION_ERROR"
	CodeInternal      = "INTERNAL_ERROR"
	CodeUnavailable   = "SERVICE_UNAVAILABLE"
)

var (
	ErrTransport     = NewError(CodeTransport, "queue transport call failed")
	ErrDecode        = NewError(CodeDecode, "message body is not valid JSON")
	ErrConfiguration = NewError(CodeConfiguration, "invalid configuration")
	ErrNotFound      = NewError(CodeNotFound, "resource not found")
	ErrValidation    = NewError(CodeValidation, "validation failed")
	ErrInternal      = NewError(CodeInternal, "internal error")
	ErrUnavailable   = NewError(CodeUnavailable, "service unavailable")
)

// class overrides the code's default retry behaviour.
type class uint8

const (
	classByCode class = iota
	classRetryable
	classFatal
)

var (
	retryableCodes = map[string]bool{CodeTransport: true, CodeUnavailable: true}
	fatalCodes     = map[string]bool{CodeValidation: true, CodeConfiguration: true}
)

type RetryableError interface {
	error
	IsRetryable() bool
}

type FatalError interface {
	error
	IsFatal() bool
}

// Error is a coded error. Sentinels are never mutated; every With*/As*
// method returns a copy.
type Error struct {
	Code    string
	Message string
	Details map[string]interface{}
	Cause   error
	class   class
}

func NewError(code, message string) *Error {
	return &Error{Code: code, Message: message, Details: map[string]interface{}{}}
}

// Error prefers a "message" detail over the sentinel's generic message.
func (e *Error) Error() string {
	msg := e.Message
	if detail, ok := e.Details["message"].(string); ok && detail != "" {
		msg = detail
	}
	if e.Cause == nil {
		return e.Code + ": " + msg
	}
	return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, msg, e.Cause)
}

func (e *Error) Unwrap() error { return e.Cause }

// Is matches on Code so wrapped copies still compare equal to the sentinels.
func (e *Error) Is(target error) bool {
	var t *Error
	return errors.As(target, &t) && t.Code == e.Code
}

func (e *Error) IsRetryable() bool {
	switch e.class {
	case classRetryable:
		return true
	case classFatal:
		return false
	}

	var retryable RetryableError
	if errors.As(e.Cause, &retryable) {
		return retryable.IsRetryable()
	}
	var fatal FatalError
	if errors.As(e.Cause, &fatal) {
		return !fatal.IsFatal()
	}
	return retryableCodes[e.Code]
}

func (e *Error) IsFatal() bool {
	switch e.class {
	case classRetryable:
		return false
	case classFatal:
		return true
	}

	var fatal FatalError
	if errors.As(e.Cause, &fatal) {
		return fatal.IsFatal()
	}
	return fatalCodes[e.Code]
}

func (e *Error) clone() *Error {
	c := *e
	c.Details = maps.Clone(e.Details)
	if c.Details == nil {
		c.Details = map[string]interface{}{}
	}
	return &c
}

func (e *Error) WithCause(cause error) *Error {
	c := e.clone()
	c.Cause = cause
	return c
}

func (e *Error) WithDetail(key string, value interface{}) *Error {
	c := e.clone()
	c.Details[key] = value
	return c
}

func (e *Error) AsRetryable() *Error {
	c := e.clone()
	c.class = classRetryable
	return c
}

func (e *Error) AsFatal() *Error {
	c := e.clone()
	c.class = classFatal
	return c
}

func hasCode(err error, code string) bool {
	var appErr *Error
	return errors.As(err, &appErr) && appErr.Code == code
}

func IsTransport(err error) bool     { return hasCode(err, CodeTransport) }
func IsDecode(err error) bool        { return hasCode(err, CodeDecode) }
func IsConfiguration(err error) bool { return hasCode(err, CodeConfiguration) }
func IsNotFound(err error) bool      { return hasCode(err, CodeNotFound) }

// ToErrorResponse renders an error for JSON reports and HTTP bodies.
func ToErrorResponse(err error) map[string]interface{} {
	var appErr *Error
	if !errors.As(err, &appErr) {
		appErr = ErrInternal.WithCause(err)
	}

	response := map[string]interface{}{
		"error":      appErr.Error(),
		"error_code": appErr.Code,
	}
	if len(appErr.Details) > 0 {
		response["details"] = appErr.Details
	}
	return response
}
