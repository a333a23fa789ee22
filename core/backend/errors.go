package backend

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/koscakluka/ema-desk/core/transport"
)

var (
	ErrEmptyText     = errors.New("text is empty")
	ErrEmptyAudio    = errors.New("audio is empty")
	ErrAudioTooLarge = errors.New("audio exceeds upload limit")
	ErrNoLinksPath   = errors.New("links endpoint not configured")
)

// APIError is an error the backend reported in a JSON body, either with a
// success status or alongside a failure status.
type APIError struct {
	Endpoint string
	Message  string
	Err      error
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Endpoint, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// asAPIError extracts an `{"error": ...}` body from a failed request when the
// backend sent one, otherwise it returns err unchanged.
func asAPIError(endpoint string, err error) error {
	var transportErr *transport.TransportError
	if !errors.As(err, &transportErr) || transportErr.Body == "" {
		return err
	}
	var body struct {
		Error string `json:"error"`
	}
	if json.Unmarshal([]byte(transportErr.Body), &body) != nil || body.Error == "" {
		return err
	}
	return &APIError{Endpoint: endpoint, Message: body.Error, Err: err}
}
