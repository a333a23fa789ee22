package orchestration

import (
	"context"
	"fmt"

	"github.com/koscakluka/ema-desk/core/events"
	"github.com/koscakluka/ema-desk/core/texttospeech"
	"github.com/koscakluka/ema-desk/core/turns"
)

// ReadAloud synthesizes a finalized turn and starts playing it, replacing
// any playback that is still running. It returns once playback started.
func (o *Orchestrator) ReadAloud(ctx context.Context, turnKey string) error {
	if o.synthesizer == nil || o.player == nil {
		return ErrNoReadAloud
	}
	turn, ok := o.transcript.Get(turnKey)
	if !ok {
		return turns.ErrTurnNotFound
	}
	if turn.Status != turns.StatusFinalized || turn.Text == "" {
		return fmt.Errorf("cannot read turn in status %s aloud", turn.Status)
	}

	language := o.language
	if turn.Kind == turns.KindTranslation && turn.Input.TargetLanguage != "" {
		language = turn.Input.TargetLanguage
	}

	ctx, span := tracer.Start(ctx, "read aloud")
	defer span.End()

	audio, _, err := o.synthesizer.Speak(ctx, turn.Text, language)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to synthesize turn: %w", err)
	}

	o.emit(events.NewPlaybackStarted(turnKey))
	if err := o.player.Play(context.WithoutCancel(ctx), audio, texttospeech.WithEndedCallback(func(err error) {
		o.emit(events.NewPlaybackEnded(turnKey, err))
	})); err != nil {
		o.emit(events.NewPlaybackEnded(turnKey, err))
		return fmt.Errorf("failed to play turn: %w", err)
	}
	return nil
}

// StopReadAloud stops the active playback, if any.
func (o *Orchestrator) StopReadAloud() error {
	if o.player == nil {
		return ErrNoReadAloud
	}
	return o.player.Stop()
}
