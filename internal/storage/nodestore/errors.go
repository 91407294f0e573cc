package nodestore

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when no node exists under the given hash.
	ErrNotFound = errors.New("node not found")

	// ErrDataCorrupt is returned when a stored node fails to decode.
	ErrDataCorrupt = errors.New("node data corrupt")

	// ErrBackendClosed is returned when an operation hits a closed backend.
	ErrBackendClosed = errors.New("backend closed")

	// ErrBackendUnknown is returned for backend names with no registered
	// factory.
	ErrBackendUnknown = errors.New("unknown backend")

	// ErrInvalidConfig is returned when a store config fails validation.
	ErrInvalidConfig = errors.New("invalid nodestore config")
)

// BackendOpError wraps a backend failure with the operation that hit it.
type BackendOpError struct {
	Backend string
	Op      string
	Err     error
}

func (e *BackendOpError) Error() string {
	return fmt.Sprintf("nodestore %s: %s: %v", e.Backend, e.Op, e.Err)
}

func (e *BackendOpError) Unwrap() error { return e.Err }

// backendErr builds a BackendOpError from a backend status.
func backendErr(backend, op string, status Status) error {
	var cause error
	switch status {
	case NotFound:
		cause = ErrNotFound
	case DataCorrupt:
		cause = ErrDataCorrupt
	default:
		cause = errors.New(status.String())
	}
	return &BackendOpError{Backend: backend, Op: op, Err: cause}
}

// IsNotFound reports whether err means the node does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
