package auth

import "fmt"

// Code is a stable machine-readable authentication failure code.
type Code string

const (
	CodeInvalidFormat    Code = "AUTH_INVALID_FORMAT"
	CodeInvalidSignature Code = "AUTH_INVALID_SIGNATURE"
	CodeTokenExpired     Code = "AUTH_TOKEN_EXPIRED"
	CodeInvalidAudience  Code = "AUTH_INVALID_AUDIENCE"
	CodeInvalidIssuer    Code = "AUTH_INVALID_ISSUER"
	CodeRateLimited      Code = "AUTH_RATE_LIMITED"
)

// Error is a typed authentication failure. Its message never contains the
// raw token or the signing secret; callers that want to log the offending
// token must sanitize it through the credential package first.
type Error struct {
	// Code is the stable failure code.
	Code Code

	// Message is a human-readable, non-secret description.
	Message string

	// Cause is the underlying error, if any.
	Cause error
}

// Error returns the error message.
func (e *Error) Error() string {
	return fmt.Sprintf("auth: %s: %s", e.Code, e.Message)
}

// Unwrap returns the cause for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches any *Error carrying the same code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// Sentinel errors for each failure code, usable with errors.Is.
var (
	ErrInvalidFormat    = &Error{Code: CodeInvalidFormat, Message: "token format is invalid"}
	ErrInvalidSignature = &Error{Code: CodeInvalidSignature, Message: "token signature could not be verified"}
	ErrTokenExpired     = &Error{Code: CodeTokenExpired, Message: "token has expired"}
	ErrInvalidAudience  = &Error{Code: CodeInvalidAudience, Message: "token audience is not allowed"}
	ErrInvalidIssuer    = &Error{Code: CodeInvalidIssuer, Message: "token issuer is not allowed"}
)

func newError(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

// CodeOf extracts the failure code from an error chain, or "" if the error is
// not an authentication failure.
func CodeOf(err error) Code {
	for err != nil {
		if e, ok := err.(*Error); ok {
			return e.Code
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return ""
		}
		err = u.Unwrap()
	}
	return ""
}
