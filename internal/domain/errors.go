package domain

import "errors"

// Error kinds. Handlers map these to HTTP status codes; use errors.Is to test.
var (
	ErrValidation            = errors.New("validation error")
	ErrNotFound              = errors.New("not found")
	ErrUnauthenticated       = errors.New("unauthenticated")
	ErrInvalidCredentials    = errors.New("invalid credentials")
	ErrInvalidOrExpiredToken = errors.New("invalid or expired token")
)

// Error carries a kind, a client-safe message and an optional cause.
type Error struct {
	Kind error
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Kind.Error()
}

func (e *Error) Is(target error) bool { return target == e.Kind }
func (e *Error) Unwrap() error        { return e.Err }

func Validation(msg string) error      { return &Error{Kind: ErrValidation, Msg: msg} }
func NotFound(msg string) error        { return &Error{Kind: ErrNotFound, Msg: msg} }
func Unauthenticated(msg string) error { return &Error{Kind: ErrUnauthenticated, Msg: msg} }

func InvalidCredentials() error {
	return &Error{Kind: ErrInvalidCredentials, Msg: "Invalid credentials"}
}

func InvalidOrExpiredToken() error {
	return &Error{Kind: ErrInvalidOrExpiredToken, Msg: "Invalid or expired token"}
}
