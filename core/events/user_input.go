package events

import "time"

const (
	// KindDraftUpdated identifies a change of the input draft.
	KindDraftUpdated Kind = "user_input.draft_updated"
	// KindRecordingStarted identifies start of voice capture.
	KindRecordingStarted Kind = "user_input.recording_started"
	// KindRecordingWarning identifies that voice capture is close to its
	// hard limit.
	KindRecordingWarning Kind = "user_input.recording_warning"
	// KindRecordingStopped identifies end of voice capture.
	KindRecordingStopped Kind = "user_input.recording_stopped"
	// KindRecordingDiscarded identifies a recording that produced no usable
	// text.
	KindRecordingDiscarded Kind = "user_input.recording_discarded"
	// KindVoiceFailed identifies a voice capture or transcription failure.
	KindVoiceFailed Kind = "user_input.voice_failed"
)

// DraftUpdated carries the full text of the input draft.
type DraftUpdated struct {
	Base
	Text string
}

// NewDraftUpdated creates a draft updated event.
func NewDraftUpdated(text string) DraftUpdated {
	return DraftUpdated{Base: NewBase(KindDraftUpdated), Text: text}
}

// RecordingStarted marks start of voice capture.
type RecordingStarted struct {
	Base
	MaxDuration time.Duration
}

// NewRecordingStarted creates a recording started event.
func NewRecordingStarted(maxDuration time.Duration) RecordingStarted {
	return RecordingStarted{Base: NewBase(KindRecordingStarted), MaxDuration: maxDuration}
}

// RecordingWarning marks that capture will be stopped after Remaining.
type RecordingWarning struct {
	Base
	Remaining time.Duration
}

// NewRecordingWarning creates a recording warning event.
func NewRecordingWarning(remaining time.Duration) RecordingWarning {
	return RecordingWarning{Base: NewBase(KindRecordingWarning), Remaining: remaining}
}

// RecordingStopped marks end of voice capture.
type RecordingStopped struct{ Base }

// NewRecordingStopped creates a recording stopped event.
func NewRecordingStopped() RecordingStopped {
	return RecordingStopped{Base: NewBase(KindRecordingStopped)}
}

// RecordingDiscarded marks recognized text that was dropped.
type RecordingDiscarded struct {
	Base
	Text   string
	Reason string
}

// NewRecordingDiscarded creates a recording discarded event.
func NewRecordingDiscarded(text, reason string) RecordingDiscarded {
	return RecordingDiscarded{Base: NewBase(KindRecordingDiscarded), Text: text, Reason: reason}
}

// VoiceFailed carries a media access or transcription failure. Message is
// localized for display in an alert.
type VoiceFailed struct {
	Base
	Message string
	Err     error
}

// NewVoiceFailed creates a voice failed event.
func NewVoiceFailed(message string, err error) VoiceFailed {
	return VoiceFailed{Base: NewBase(KindVoiceFailed), Message: message, Err: err}
}
