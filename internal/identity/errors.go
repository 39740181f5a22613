package identity

import (
	"errors"
	"fmt"
)

// Code is a provider error code.  Values follow the "auth/<reason>" form
// hosted identity providers use so clients can switch on them.
type Code string

const (
	CodeInvalidEmail          Code = "auth/invalid-email"
	CodeUserDisabled          Code = "auth/user-disabled"
	CodeUserNotFound          Code = "auth/user-not-found"
	CodeWrongPassword         Code = "auth/wrong-password"
	CodeEmailAlreadyInUse     Code = "auth/email-already-in-use"
	CodeWeakPassword          Code = "auth/weak-password"
	CodeUnauthorizedDomain    Code = "auth/unauthorized-domain"
	CodePopupBlocked          Code = "auth/popup-blocked"
	CodePopupClosedByUser     Code = "auth/popup-closed-by-user"
	CodeOperationNotAllowed   Code = "auth/operation-not-allowed"
	CodeNetworkRequestFailed  Code = "auth/network-request-failed"
	CodeOperationNotSupported Code = "auth/operation-not-supported-in-this-environment"
	CodeBrowserNotSupported   Code = "auth/browser-not-supported"
	CodeCancelledPopupRequest Code = "auth/cancelled-popup-request"
	CodeInvalidSession        Code = "auth/invalid-session"
	CodeInvalidCredential     Code = "auth/invalid-credential"
	CodeInvalidActionCode     Code = "auth/invalid-action-code"
)

// Error is a coded failure reported by a Provider.  Op names the provider
// call and Err, when set, is the underlying cause.
type Error struct {
	Code Code
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("identity %s: %s: %v", e.Op, e.Code, e.Err)
	}
	return fmt.Sprintf("identity %s: %s", e.Op, e.Code)
}

func (e *Error) Unwrap() error { return e.Err }

// Is lets errors.Is(err, &Error{Code: c}) match on code alone.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code && t.Op == "" && t.Err == nil
}

// NewError builds a coded error for op.
func NewError(op string, code Code, cause error) *Error {
	return &Error{Code: code, Op: op, Err: cause}
}

// CodeOf returns the provider code carried by err, or "" when err is not a
// provider error.
func CodeOf(err error) Code {
	var ie *Error
	if errors.As(err, &ie) {
		return ie.Code
	}
	return ""
}

// IsEnvironmentFailure reports codes meaning the popup flow cannot run in
// the caller's environment.  Redirect sign-in is the fallback for these.
func IsEnvironmentFailure(err error) bool {
	switch CodeOf(err) {
	case CodePopupBlocked, CodeUnauthorizedDomain, CodeOperationNotSupported,
		CodeBrowserNotSupported, CodeCancelledPopupRequest:
		return true
	}
	return false
}
