package wordstat

import (
	"errors"
	"fmt"
)

// Sentinel kinds for upstream errors.
var (
	ErrTransport      = errors.New("upstream transport failed")
	ErrUpstreamStatus = errors.New("upstream returned non-2xx status")
	ErrDecode         = errors.New("upstream response decode failed")
)

// StatusError is returned for non-2xx upstream responses.
type StatusError struct {
	StatusCode int
	Body       []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: %d", ErrUpstreamStatus, e.StatusCode)
}

func (e *StatusError) Unwrap() error { return ErrUpstreamStatus }
