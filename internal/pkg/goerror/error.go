// Package goerror carries the application's error taxonomy: a Type bucket, a
// stable Code that maps onto an HTTP status, a user-facing message and optional
// machine-readable fields such as "reason".
package goerror

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNotFound is returned by storage adapters when no row or document matches.
	ErrNotFound = errors.New("resource not found")

	// ErrConflict is returned by storage adapters on a uniqueness violation.
	ErrConflict = errors.New("resource conflict")
)

type Type int

const (
	TypeServer Type = iota
	TypeBusiness
	TypeValidation
)

var typeNames = map[Type]string{
	TypeServer:     "ERROR_TYPE_SERVER",
	TypeBusiness:   "ERROR_TYPE_BUSINESS",
	TypeValidation: "ERROR_TYPE_VALIDATION",
}

var typeFallbackMsg = map[Type]string{
	TypeServer:     "Internal error",
	TypeBusiness:   "Logical business not meet with requirement",
	TypeValidation: "Validation violation",
}

func (t Type) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return "ERROR_TYPE_UNKNOWN"
}

// Code is a stable identifier that decides the HTTP status of an error.
type Code int

const (
	CodeInternal Code = iota
	CodeInvalidFormat
	CodeInvalidInput
	CodeNotFound
	CodeConflict
	CodeTooManyRequest
	CodeUnauthorized
	CodeForbidden
	CodeTimeout
	// CodeGone marks something that existed but can no longer be used, like an expired code.
	CodeGone
	// CodePreconditionRequired marks a step attempted before the one it depends on.
	CodePreconditionRequired
	// CodeUnavailable marks a downstream dependency that could not serve the request.
	CodeUnavailable
)

type codeInfo struct {
	name   string
	status int
}

var codeTable = map[Code]codeInfo{
	CodeInternal:             {"ERROR_CODE_INTERNAL", http.StatusInternalServerError},
	CodeInvalidFormat:        {"ERROR_CODE_INVALID_FORMAT", http.StatusBadRequest},
	CodeInvalidInput:         {"ERROR_CODE_INVALID_INPUT", http.StatusUnprocessableEntity},
	CodeNotFound:             {"ERROR_CODE_NOT_FOUND", http.StatusNotFound},
	CodeConflict:             {"ERROR_CODE_CONFLICT", http.StatusConflict},
	CodeTooManyRequest:       {"ERROR_CODE_TOO_MANY_REQUESTS", http.StatusTooManyRequests},
	CodeUnauthorized:         {"ERROR_CODE_UNAUTHORIZED", http.StatusUnauthorized},
	CodeForbidden:            {"ERROR_CODE_FORBIDDEN", http.StatusForbidden},
	CodeTimeout:              {"ERROR_CODE_TIMEOUT", http.StatusRequestTimeout},
	CodeGone:                 {"ERROR_CODE_GONE", http.StatusGone},
	CodePreconditionRequired: {"ERROR_CODE_PRECONDITION_REQUIRED", http.StatusPreconditionRequired},
	CodeUnavailable:          {"ERROR_CODE_UNAVAILABLE", http.StatusServiceUnavailable},
}

func (c Code) info() codeInfo {
	if ci, ok := codeTable[c]; ok {
		return ci
	}
	return codeTable[CodeInternal]
}

func (c Code) String() string { return c.info().name }

// Error is the structured error returned by usecases. The wrapped cause is
// kept for logs; only msg and fields reach the client.
type Error struct {
	err     error
	msg     string
	errType Type
	code    Code
	fields  map[string]string
}

func (e *Error) Error() string {
	switch {
	case e.err != nil:
		return e.err.Error()
	case e.msg != "":
		return e.msg
	}

	if msg, ok := typeFallbackMsg[e.errType]; ok {
		return msg
	}
	return "Unknown error"
}

// String is the verbose form used when logging.
func (e *Error) String() string {
	return fmt.Sprintf("Error Type: %s, Code: %s, Message: %s, Underlying Error: %v",
		e.errType, e.code, e.msg, e.err)
}

func (e *Error) Msg() string               { return e.msg }
func (e *Error) Type() Type                { return e.errType }
func (e *Error) Code() Code                { return e.code }
func (e *Error) Fields() map[string]string { return e.fields }
func (e *Error) Unwrap() error             { return e.err }
func (e *Error) StatusCode() int           { return e.code.info().status }

// withFields attaches key/value pairs; a trailing odd key is ignored.
func (e *Error) withFields(kv []string) *Error {
	for i := 0; i+1 < len(kv); i += 2 {
		if e.fields == nil {
			e.fields = make(map[string]string, len(kv)/2)
		}
		e.fields[kv[i]] = kv[i+1]
	}
	return e
}

// NewServer hides err behind a generic 500.
func NewServer(err error) error {
	return &Error{err: err, msg: "Internal server error", errType: TypeServer, code: CodeInternal}
}

// NewServerWith keeps err as the cause but lets the caller pick the
// user-facing message, the code and fields such as "reason".
func NewServerWith(err error, msg string, code Code, kv ...string) error {
	return (&Error{err: err, msg: msg, errType: TypeServer, code: code}).withFields(kv)
}

// NewBusiness reports a rule the request broke, with optional key/value fields.
func NewBusiness(msg string, code Code, kv ...string) error {
	return (&Error{msg: msg, errType: TypeBusiness, code: code}).withFields(kv)
}

// NewInvalidInput wraps a validator error, or builds field errors from kv
// pairs. An odd kv length is treated as a malformed body.
func NewInvalidInput(err error, kv ...string) error {
	if err != nil {
		return &Error{err: err, msg: "Validation error", errType: TypeValidation, code: CodeInvalidInput}
	}
	if len(kv)%2 != 0 {
		return NewInvalidFormat()
	}

	e := &Error{msg: "Validation error", errType: TypeValidation, code: CodeInvalidInput, fields: map[string]string{}}
	return e.withFields(kv)
}

func NewInvalidFormat(msgs ...string) error {
	msg := "Invalid request body"
	if len(msgs) > 0 {
		msg = msgs[0]
	}
	return &Error{msg: msg, errType: TypeValidation, code: CodeInvalidFormat}
}
