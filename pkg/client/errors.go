// pkg/client/errors.go
package client

import (
	"errors"
	"fmt"
)

var (
	// ErrSessionUnavailable means the session provider could not be
	// queried. The request was never sent.
	ErrSessionUnavailable = errors.New("session unavailable")

	// ErrNoCredential means a session exists but carries no usable
	// token. The caller must log in.
	ErrNoCredential = errors.New("no credential")

	// ErrSessionExpired means the credential was rejected and the
	// refresh attempt failed; the session has been terminated as a side
	// effect. The caller must log in again.
	ErrSessionExpired = errors.New("session expired")
)

// NetworkError wraps a transport-level failure (DNS, connection refused,
// timeout). These propagate immediately; only the 401 path is retried.
type NetworkError struct {
	URL string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error: %s: %v", e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }
