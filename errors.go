package rowan

import (
	"errors"
	"fmt"
)

// Code is a result code from the closed set of engine conditions.
type Code uint16

const (
	CodeOK Code = iota
	CodeOutOfMemory
	CodeDivByZero
	CodeNotImplemented
	CodeNotSupported
	CodeDenied
	CodeNoBackend
	CodeBackendOpen
	CodeDriverOpen
	CodeBadFormat
	CodeBadArguments
	CodeBadPrimitive
	CodeWrongType
	CodeNotLocked
	CodeUnlocked
	CodeClipping
	CodeInvalidParent
	CodeInvalidParam

	// CodeInternal and everything above it are should-never-happen
	// conditions. The offset from CodeInternal identifies the call site.
	CodeInternal
)

var codeMessages = [...]string{
	CodeOK:             "ok - no error",
	CodeOutOfMemory:    "out of memory",
	CodeDivByZero:      "division by zero",
	CodeNotImplemented: "feature not implemented",
	CodeNotSupported:   "operation not supported",
	CodeDenied:         "operation denied",
	CodeNoBackend:      "could not find requested backend",
	CodeBackendOpen:    "could not open backend",
	CodeDriverOpen:     "could not open driver",
	CodeBadFormat:      "unknown data format",
	CodeBadArguments:   "arguments do not make sense",
	CodeBadPrimitive:   "unknown primitive kind",
	CodeWrongType:      "wrong type of object",
	CodeNotLocked:      "object not locked",
	CodeUnlocked:       "object already unlocked",
	CodeClipping:       "region requires clipping",
	CodeInvalidParent:  "entity cannot be child of specified parent",
	CodeInvalidParam:   "invalid parameter",
}

// String returns a human-readable message. Internal and out-of-range codes
// render as a numbered diagnostic.
func (c Code) String() string {
	if c < CodeInternal {
		return codeMessages[c]
	}
	return fmt.Sprintf("internal error #%d; please report this as a bug", c-CodeInternal)
}

// Error is the error type returned by every fallible engine call.
type Error struct {
	Code Code
	Op   string // operation that failed, e.g. "NewLayer"
	Err  error  // underlying cause, if any (typically from a backend hook)
}

func (e *Error) Error() string {
	msg := e.Code.String()
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return "rowan: " + msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error with the same Code, so the sentinel values below can
// be used with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// Sentinels for errors.Is.
var (
	ErrOutOfMemory    = &Error{Code: CodeOutOfMemory}
	ErrDivByZero      = &Error{Code: CodeDivByZero}
	ErrNotImplemented = &Error{Code: CodeNotImplemented}
	ErrNotSupported   = &Error{Code: CodeNotSupported}
	ErrDenied         = &Error{Code: CodeDenied}
	ErrNoBackend      = &Error{Code: CodeNoBackend}
	ErrBackendOpen    = &Error{Code: CodeBackendOpen}
	ErrDriverOpen     = &Error{Code: CodeDriverOpen}
	ErrBadFormat      = &Error{Code: CodeBadFormat}
	ErrBadArguments   = &Error{Code: CodeBadArguments}
	ErrBadPrimitive   = &Error{Code: CodeBadPrimitive}
	ErrWrongType      = &Error{Code: CodeWrongType}
	ErrNotLocked      = &Error{Code: CodeNotLocked}
	ErrUnlocked       = &Error{Code: CodeUnlocked}
	ErrClipping       = &Error{Code: CodeClipping}
	ErrInvalidParent  = &Error{Code: CodeInvalidParent}
	ErrInvalidParam   = &Error{Code: CodeInvalidParam}
	ErrInternal       = &Error{Code: CodeInternal}
)

// Errorf returns an *Error with the given code and a formatted cause.
// Backends use it to report coded failures from their hooks.
func Errorf(code Code, format string, args ...any) error {
	return &Error{Code: code, Err: fmt.Errorf(format, args...)}
}

// CodeOf extracts the result code from err. nil maps to CodeOK and errors
// that carry no code map to CodeInternal.
func CodeOf(err error) Code {
	if err == nil {
		return CodeOK
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}

func newError(op string, code Code) error {
	return &Error{Code: code, Op: op}
}

// wrapError attaches op to err, keeping the code of a coded cause.
func wrapError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Code: CodeOf(err), Op: op, Err: err}
}
