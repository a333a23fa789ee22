// Package speechtotext defines how spoken input is turned into draft text.
// Implementations live in the subpackages.
package speechtotext

import (
	"context"
	"errors"
	"fmt"
)

var ErrAlreadyRecognizing = errors.New("recognition already in progress")

// Result is one update of the recognized text.
type Result struct {
	// Text replaces the current draft.
	Text string
	// Final marks text the recognizer will not revise any more.
	Final bool
	// Submit asks for Text to be sent as soon as the capture session ends.
	Submit bool
	// Err reports a failure that ended the session.
	Err error
}

// Recognizer captures speech until stopped. The channel returned by Start is
// closed once the capture session is completely over, including any
// post-processing that happens after Stop.
type Recognizer interface {
	Start(ctx context.Context, opts ...RecognitionOption) (<-chan Result, error)
	Stop(ctx context.Context) error
}

type DiscardReason string

const (
	DiscardTooShort      DiscardReason = "too_short"
	DiscardHallucination DiscardReason = "hallucination"
	DiscardEmpty         DiscardReason = "empty"
)

// MediaAccessError reports that the microphone could not be opened or read.
type MediaAccessError struct {
	Err error
}

func (e *MediaAccessError) Error() string {
	return fmt.Sprintf("microphone unavailable: %v", e.Err)
}

func (e *MediaAccessError) Unwrap() error {
	return e.Err
}

// TranscriptionError reports that recorded speech could not be turned into
// text.
type TranscriptionError struct {
	Message string
	Err     error
}

func (e *TranscriptionError) Error() string {
	if e.Err == nil {
		return "transcription failed: " + e.Message
	}
	if e.Message == "" {
		return fmt.Sprintf("transcription failed: %v", e.Err)
	}
	return fmt.Sprintf("transcription failed: %s: %v", e.Message, e.Err)
}

func (e *TranscriptionError) Unwrap() error {
	return e.Err
}
