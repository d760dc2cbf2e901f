package application

import "errors"

// Error kinds. Match with errors.Is against an error returned by Service.
var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrNotFound        = errors.New("not found")
	ErrStoreFailure    = errors.New("store failure")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrUnavailable     = errors.New("unavailable")
)

// Error is a user-facing failure. Error() is only the message; the kind and
// the underlying cause are reachable through errors.Is / errors.As.
type Error struct {
	Kind    error
	Message string
	Err     error
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func invalidArg(msg string) error {
	return &Error{Kind: ErrInvalidArgument, Message: msg}
}

func wrapKind(kind error, msg string, cause error) error {
	return &Error{Kind: kind, Message: msg, Err: cause}
}
