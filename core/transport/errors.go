package transport

import (
	"errors"
	"fmt"
)

// TransportError reports a request that did not produce a successful
// response. StatusCode is zero when no response was received at all.
type TransportError struct {
	Method     string
	URL        string
	StatusCode int
	Body       string
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("%s %s: no response: %v", e.Method, e.URL, e.Err)
	}
	if e.Body != "" {
		return fmt.Sprintf("%s %s: non-success HTTP status %d: %s", e.Method, e.URL, e.StatusCode, e.Body)
	}
	return fmt.Sprintf("%s %s: non-success HTTP status %d", e.Method, e.URL, e.StatusCode)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// HasStatus reports whether the server answered at all.
func (e *TransportError) HasStatus() bool {
	return e.StatusCode != 0
}

// StatusCode extracts the HTTP status carried by err, or zero if err is not a
// [TransportError] or no response was received.
func StatusCode(err error) int {
	var transportErr *TransportError
	if errors.As(err, &transportErr) {
		return transportErr.StatusCode
	}
	return 0
}
