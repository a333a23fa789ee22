package orchestration

import (
	"context"
	"time"

	"github.com/koscakluka/ema-desk/core/agents"
	"github.com/koscakluka/ema-desk/core/events"
	"github.com/koscakluka/ema-desk/core/speechtotext"
	"github.com/koscakluka/ema-desk/core/texttospeech"
)

type OrchestratorOption func(*Orchestrator)

// Renderer turns the accumulated text of a turn into its display form. It is
// always given the whole text.
type Renderer interface {
	Render(text string) (string, error)
}

// RendererFunc adapts a plain function to [Renderer].
type RendererFunc func(text string) (string, error)

func (f RendererFunc) Render(text string) (string, error) { return f(text) }

// AgentLoader fetches the configuration catalog of an agent.
type AgentLoader interface {
	Load(ctx context.Context, agentID string) (*agents.Catalog, error)
}

func WithRenderer(renderer Renderer) OrchestratorOption {
	return func(o *Orchestrator) { o.renderer = renderer }
}

// WithAgent selects the initial agent and its catalog without contacting the
// backend.
func WithAgent(agentID string, catalog *agents.Catalog) OrchestratorOption {
	return func(o *Orchestrator) {
		o.agentID = agentID
		if catalog != nil {
			o.catalog = catalog
		}
	}
}

func WithAgentLoader(loader AgentLoader) OrchestratorOption {
	return func(o *Orchestrator) { o.agentLoader = loader }
}

// WithLocale sets the UI language and the timezone and locale sent with chat
// questions.
func WithLocale(language, timezone, locale string) OrchestratorOption {
	return func(o *Orchestrator) {
		if language != "" {
			o.language = language
		}
		o.timezone = timezone
		o.locale = locale
	}
}

// WithTranslationPair sets the configured translation direction.
func WithTranslationPair(sourceLanguage, targetLanguage string) OrchestratorOption {
	return func(o *Orchestrator) {
		o.translation.source = sourceLanguage
		o.translation.target = targetLanguage
	}
}

// WithRecognizer enables voice input. maxDuration is only reported to the
// front end and may be zero for recognizers without a limit.
func WithRecognizer(recognizer speechtotext.Recognizer, maxDuration time.Duration) OrchestratorOption {
	return func(o *Orchestrator) {
		o.recognizer = recognizer
		o.voiceMaxDuration = maxDuration
	}
}

// WithReadAloud enables reading finalized turns aloud.
func WithReadAloud(synthesizer texttospeech.Synthesizer, player texttospeech.Player) OrchestratorOption {
	return func(o *Orchestrator) {
		o.synthesizer = synthesizer
		o.player = player
	}
}

// WithEventHandler receives every event the orchestrator emits, in order.
func WithEventHandler(handler func(events.Event)) OrchestratorOption {
	return func(o *Orchestrator) { o.callbacks.onEvent = handler }
}

// WithResponseCallback receives the full text of a turn every time it grows.
func WithResponseCallback(callback func(turnKey, text string)) OrchestratorOption {
	return func(o *Orchestrator) { o.callbacks.onResponse = callback }
}

// WithDraftCallback receives the input draft whenever voice input changes it.
func WithDraftCallback(callback func(text string)) OrchestratorOption {
	return func(o *Orchestrator) { o.callbacks.onDraft = callback }
}

func WithInputReleasedCallback(callback func(turnKey string)) OrchestratorOption {
	return func(o *Orchestrator) { o.callbacks.onInputReleased = callback }
}
