package events

import (
	"errors"
	"testing"
	"time"
)

func TestConstructorsEmitExpectedKinds(t *testing.T) {
	testCases := []struct {
		name     string
		event    Event
		expected Kind
	}{
		{name: "session assigned", event: NewSessionAssigned("s"), expected: KindSessionAssigned},
		{name: "turn assigned", event: NewTurnAssigned("q"), expected: KindTurnAssigned},
		{name: "source transcribed", event: NewSourceTranscribed("bonjour"), expected: KindSourceTranscribed},
		{name: "content fragment", event: NewContentFragment("A"), expected: KindContentFragment},
		{name: "links updated", event: NewLinksUpdated([]string{"PMID: 1"}), expected: KindLinksUpdated},
		{name: "entry malformed", event: NewEntryMalformed("{", errors.New("bad")), expected: KindEntryMalformed},
		{name: "end of stream", event: NewEndOfStream(), expected: KindEndOfStream},
		{name: "turn started", event: NewTurnStarted("k", "q"), expected: KindTurnStarted},
		{name: "turn streaming", event: NewTurnStreaming("k"), expected: KindTurnStreaming},
		{name: "turn updated", event: NewTurnUpdated("k", "t", "r"), expected: KindTurnUpdated},
		{name: "turn finalized", event: NewTurnFinalized("k", "r", nil, nil), expected: KindTurnFinalized},
		{name: "turn failed", event: NewTurnFailed("k", "oops", nil), expected: KindTurnFailed},
		{name: "input released", event: NewInputReleased("k"), expected: KindInputReleased},
		{name: "agent switched", event: NewAgentSwitched("nutria"), expected: KindAgentSwitched},
		{name: "direction changed", event: NewTranslationDirectionChanged(true, "en", "fr"), expected: KindTranslationDirectionChanged},
		{name: "draft updated", event: NewDraftUpdated("x"), expected: KindDraftUpdated},
		{name: "recording started", event: NewRecordingStarted(time.Minute), expected: KindRecordingStarted},
		{name: "recording warning", event: NewRecordingWarning(time.Second), expected: KindRecordingWarning},
		{name: "recording stopped", event: NewRecordingStopped(), expected: KindRecordingStopped},
		{name: "recording discarded", event: NewRecordingDiscarded("bye", "hallucination"), expected: KindRecordingDiscarded},
		{name: "voice failed", event: NewVoiceFailed("mic", nil), expected: KindVoiceFailed},
		{name: "playback started", event: NewPlaybackStarted("k"), expected: KindPlaybackStarted},
		{name: "playback ended", event: NewPlaybackEnded("k", nil), expected: KindPlaybackEnded},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			if got := testCase.event.Kind(); got != testCase.expected {
				t.Fatalf("expected kind %q, got %q", testCase.expected, got)
			}
		})
	}
}

func TestIsStreamEventOnlyMatchesDecodedEvents(t *testing.T) {
	if !IsStreamEvent(NewContentFragment("A")) {
		t.Fatalf("expected content fragment to be a stream event")
	}
	if !IsStreamEvent(NewEndOfStream()) {
		t.Fatalf("expected end of stream to be a stream event")
	}
	if IsStreamEvent(NewTurnStarted("k", "q")) {
		t.Fatalf("expected turn started not to be a stream event")
	}
}
