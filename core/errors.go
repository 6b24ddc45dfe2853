package core

import "errors"

var (
	ErrTokenExpired       = errors.New("token has expired")
	ErrTokenInvalidated   = errors.New("token has been invalidated")
	ErrInvalidToken       = errors.New("invalid token")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrMissingCredentials = errors.New("missing username or password")
	ErrUserExists         = errors.New("username already exists")
	ErrUserNotFound       = errors.New("user not found")
)

// HTTPError is returned when the API answers with a non-2xx status.
// Its message is the raw response body, untouched.
type HTTPError struct {
	Status int
	Body   string
}

func (e *HTTPError) Error() string {
	return e.Body
}

// MalformedResponseError is returned when a 2xx response was expected to
// carry JSON but did not. Its message is the raw response body.
type MalformedResponseError struct {
	Body string
	Err  error
}

func (e *MalformedResponseError) Error() string {
	return e.Body
}

func (e *MalformedResponseError) Unwrap() error {
	return e.Err
}

// NetworkError wraps a transport level failure (DNS, refused connection,
// cancelled context) surfaced by the HTTP client.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return e.Err.Error()
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}
