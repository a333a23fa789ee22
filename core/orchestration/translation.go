package orchestration

import (
	"context"
	"strings"

	"github.com/koscakluka/ema-desk/core/backend"
	"github.com/koscakluka/ema-desk/core/events"
	"github.com/koscakluka/ema-desk/core/transport"
	"github.com/koscakluka/ema-desk/core/turns"
)

const autoDetect = "auto"

type translationDirection struct {
	source   string
	target   string
	reversed bool
}

// effective returns the pair to use for the next translation. An "auto"
// source cannot become a target, so a reversed auto pair translates into
// the fallback language instead.
func (d translationDirection) effective(fallback string) (string, string) {
	if !d.reversed {
		return d.source, d.target
	}
	target := d.source
	if target == "" || target == autoDetect {
		target = fallback
	}
	return d.target, target
}

// TranslationDirection returns the effective source and target languages and
// whether the configured pair is currently reversed.
func (o *Orchestrator) TranslationDirection() (source, target string, reversed bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	source, target = o.translation.effective(o.language)
	return source, target, o.translation.reversed
}

// ToggleTranslationDirection swaps source and target for the next
// translation.
func (o *Orchestrator) ToggleTranslationDirection() {
	o.mu.Lock()
	o.translation.reversed = !o.translation.reversed
	reversed := o.translation.reversed
	source, target := o.translation.effective(o.language)
	o.mu.Unlock()

	o.emit(events.NewTranslationDirectionChanged(reversed, source, target))
}

// Translate streams the translation of text in the current direction. Once
// the translation is finalized the direction flips so the reply can be
// translated back.
func (o *Orchestrator) Translate(ctx context.Context, text string) (turns.Turn, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return turns.Turn{}, ErrEmptyInput
	}

	source, target, _ := o.TranslationDirection()
	return o.runTurn(ctx, turnPlan{
		kind:  turns.KindTranslation,
		input: turns.Input{Text: text, AgentID: o.AgentID(), SourceLanguage: source, TargetLanguage: target},
		open: func(ctx context.Context, _ string) (*transport.Stream, error) {
			return o.backend.Translate(ctx, backend.TranslateRequest{
				Text:           text,
				SourceLanguage: source,
				TargetLanguage: target,
			})
		},
		finalized: func(turns.Turn) { o.ToggleTranslationDirection() },
	})
}

// TranslateAudio uploads a recording and streams its translation in the
// current direction. The recognized source text is stored on the turn.
func (o *Orchestrator) TranslateAudio(ctx context.Context, audio backend.Audio) (turns.Turn, error) {
	if len(audio.Data) == 0 {
		return turns.Turn{}, ErrEmptyInput
	}

	source, target, _ := o.TranslationDirection()
	return o.runTurn(ctx, turnPlan{
		kind:  turns.KindTranslation,
		input: turns.Input{AgentID: o.AgentID(), SourceLanguage: source, TargetLanguage: target},
		open: func(ctx context.Context, _ string) (*transport.Stream, error) {
			return o.backend.TranslateAudio(ctx, audio, source, target)
		},
		finalized: func(turns.Turn) { o.ToggleTranslationDirection() },
	})
}
