package booru

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidEndpoint means the configured API endpoint cannot be used.
	// It is a configuration bug and must not be retried.
	ErrInvalidEndpoint = errors.New("invalid API endpoint")

	ErrRequest          = errors.New("request failed")
	ErrUnexpectedStatus = errors.New("unexpected status code")
	ErrDecode           = errors.New("failed to decode response")
)

// FetchError is returned for every failure between sending the request and
// decoding the body. Err wraps one of ErrRequest, ErrUnexpectedStatus or ErrDecode.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: %v (%d)", e.URL, e.Err, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}
