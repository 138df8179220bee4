package clients

import (
	"errors"
	"fmt"
)

// ErrSessionNotFound is returned when the backend does not know the
// requested session id.
var ErrSessionNotFound = errors.New("session not found")

// ServerError means the backend received the request and rejected it.
// Detail carries the backend's own message (the backend speaks French).
type ServerError struct {
	Detail string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("server error: %s", e.Detail)
}

// NetworkError means the request never produced a usable response:
// connectivity failure, timeout, or an undecodable body.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error: %v", e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}
