package orchestration

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"time"

	"github.com/koscakluka/ema-desk/core/events"
	"github.com/koscakluka/ema-desk/core/speechtotext"
)

// VoiceTarget selects what an auto-submitted recording is sent as.
type VoiceTarget int

const (
	VoiceToChat VoiceTarget = iota
	VoiceToTranslation
)

// StartVoice opens the microphone and routes recognized text into the draft.
// The recording holds the input lock until the recognizer is done, so turns
// cannot be submitted meanwhile. When the recognizer asks for it, the draft
// is submitted to target right after the lock is released.
func (o *Orchestrator) StartVoice(ctx context.Context, target VoiceTarget) error {
	if o.recognizer == nil {
		return ErrNoRecognizer
	}
	if o.closed.Load() {
		return ErrClosed
	}
	var aborted atomic.Bool
	stop := func() {
		aborted.Store(true)
		if err := o.recognizer.Stop(context.Background()); err != nil {
			logger.Warn("failed to stop voice input", "error", err)
		}
	}
	if !o.acquireInput(stop) {
		return ErrInputLocked
	}

	language := o.language
	if target == VoiceToTranslation {
		if source, _, _ := o.TranslationDirection(); source != "" && source != autoDetect {
			language = source
		}
	}

	results, err := o.recognizer.Start(ctx,
		speechtotext.WithLanguage(language),
		speechtotext.WithWarningCallback(func(remaining time.Duration) {
			o.emit(events.NewRecordingWarning(remaining))
		}),
		speechtotext.WithDiscardedCallback(func(text string, reason speechtotext.DiscardReason) {
			logger.Info("discarded recognized text", "text", text, "reason", reason)
			o.emit(events.NewRecordingDiscarded(text, string(reason)))
		}),
	)
	if err != nil {
		o.voiceFailed(err)
		o.clearAbort()
		o.releaseInput("")
		return err
	}

	o.voiceActive.Store(true)
	o.emit(events.NewRecordingStarted(o.voiceMaxDuration))
	if aborted.Load() {
		// Aborted while the recognizer was starting.
		stop()
	}

	base := o.Draft()
	done := withContextCancelHook(ctx, func() {
		if err := o.recognizer.Stop(context.Background()); err != nil {
			logger.Warn("failed to stop voice input", "error", err)
		}
	})
	go func() {
		submit := false
		for result := range results {
			if result.Err != nil {
				o.voiceFailed(result.Err)
				continue
			}
			draft := joinDraft(base, result.Text)
			o.SetDraft(draft)
			o.emit(events.NewDraftUpdated(draft))
			submit = submit || result.Submit
		}
		close(done)

		o.voiceActive.Store(false)
		o.emit(events.NewRecordingStopped())
		o.clearAbort()
		o.releaseInput("")

		if submit && ctx.Err() == nil {
			o.submitDraft(ctx, target)
		}
	}()
	return nil
}

// StopVoice ends the recording. Results that are still being processed are
// delivered afterwards.
func (o *Orchestrator) StopVoice(ctx context.Context) error {
	if o.recognizer == nil {
		return ErrNoRecognizer
	}
	return o.recognizer.Stop(ctx)
}

func (o *Orchestrator) IsRecording() bool {
	return o.voiceActive.Load()
}

func (o *Orchestrator) submitDraft(ctx context.Context, target VoiceTarget) {
	draft := o.Draft()
	o.SetDraft("")
	o.emit(events.NewDraftUpdated(""))

	var err error
	switch target {
	case VoiceToTranslation:
		_, err = o.Translate(ctx, draft)
	default:
		_, err = o.Ask(ctx, draft)
	}
	if errors.Is(err, ErrInputLocked) {
		// Nothing was sent, give the transcription back to the user.
		o.SetDraft(draft)
		o.emit(events.NewDraftUpdated(draft))
	}
	if err != nil {
		logger.Warn("auto-submitted voice input failed", "error", err)
	}
}

func (o *Orchestrator) voiceFailed(err error) {
	message := o.T(transcriptionErrorKey, defaultTranscriptionError)
	var mediaErr *speechtotext.MediaAccessError
	if errors.As(err, &mediaErr) {
		message = o.T(microphoneErrorKey, defaultMicrophoneError)
	}
	logger.Error("voice input failed", "error", err)
	o.emit(events.NewVoiceFailed(message, err))
}

func joinDraft(base, text string) string {
	base = strings.TrimSpace(base)
	text = strings.TrimSpace(text)
	switch {
	case base == "":
		return text
	case text == "":
		return base
	}
	return base + " " + text
}
