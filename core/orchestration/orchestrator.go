// Package orchestration runs streamed chat and translation turns against the
// agent backend and keeps the transcript, session and input lock that tie
// them together.
package orchestration

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/koscakluka/ema-desk/core/agents"
	"github.com/koscakluka/ema-desk/core/backend"
	"github.com/koscakluka/ema-desk/core/events"
	"github.com/koscakluka/ema-desk/core/speechtotext"
	"github.com/koscakluka/ema-desk/core/texttospeech"
	"github.com/koscakluka/ema-desk/core/transport"
	"github.com/koscakluka/ema-desk/core/turns"
)

var (
	ErrEmptyInput     = errors.New("input is empty")
	ErrInputLocked    = errors.New("input is locked by another turn or recording")
	ErrNoRecognizer   = errors.New("voice input is not configured")
	ErrNoReadAloud    = errors.New("read aloud is not configured")
	ErrNoAgentLoader  = errors.New("agent loader is not configured")
	ErrTurnUnassigned = errors.New("turn has no backend identifier yet")
	ErrClosed         = errors.New("orchestrator is closed")
)

const (
	genericErrorKey       = "errors.generic"
	microphoneErrorKey    = "errors.microphone"
	transcriptionErrorKey = "errors.transcription"

	defaultGenericError       = "An error occurred. Please try again."
	defaultMicrophoneError    = "Could not access the microphone."
	defaultTranscriptionError = "Could not transcribe the recording."
)

// Backend is the part of the agent backend a conversation talks to.
type Backend interface {
	Query(ctx context.Context, req backend.QueryRequest) (*transport.Stream, error)
	Translate(ctx context.Context, req backend.TranslateRequest) (*transport.Stream, error)
	TranslateAudio(ctx context.Context, audio backend.Audio, sourceLanguage, targetLanguage string) (*transport.Stream, error)
	Like(ctx context.Context, questionID string, like bool) (backend.StatusResponse, error)
	Comment(ctx context.Context, questionID, comment string) (backend.StatusResponse, error)
	ResetSession(ctx context.Context, sessionID string) (backend.StatusResponse, error)
	HasLinksEndpoint() bool
	Links(ctx context.Context, questionID, sessionID string) ([]string, error)
}

type Orchestrator struct {
	backend     Backend
	agentLoader AgentLoader
	renderer    Renderer
	recognizer  speechtotext.Recognizer
	synthesizer texttospeech.Synthesizer
	player      texttospeech.Player

	transcript *turns.Transcript
	session    Session
	lock       inputLock
	emit       eventEmitter
	callbacks  eventCallbacks

	language string
	timezone string
	locale   string

	mu          sync.Mutex
	agentID     string
	catalog     *agents.Catalog
	translation translationDirection
	draft       string
	// abortInput stops whatever holds the input lock, a turn in flight or a
	// recording. It is set together with the lock.
	abortInput func()
	// switching counts agent switches waiting for the input lock. No turn or
	// recording is admitted meanwhile.
	switching int

	voiceMaxDuration time.Duration
	voiceActive      atomic.Bool

	closed    atomic.Bool
	closeOnce sync.Once
	workers   sync.WaitGroup
}

func NewOrchestrator(backend Backend, opts ...OrchestratorOption) *Orchestrator {
	o := &Orchestrator{
		backend:    backend,
		transcript: turns.NewTranscript(),
		lock:       newInputLock(),
		language:   agents.FallbackLanguage,
		catalog:    agents.NewCatalog(nil),
		translation: translationDirection{
			source: "auto",
			target: agents.FallbackLanguage,
		},
	}
	for _, opt := range opts {
		opt(o)
	}
	o.emit = newCallbackEventEmitter(o.callbacks)

	return o
}

// Close aborts the turn in flight, stops voice input and playback and waits
// for background feedback calls to finish.
func (o *Orchestrator) Close() {
	o.closeOnce.Do(func() {
		o.closed.Store(true)
		o.abortHolder()

		if o.player != nil {
			if err := o.player.Stop(); err != nil {
				logger.Warn("failed to stop playback", "error", err)
			}
		}

		o.workers.Wait()
	})
}

func (o *Orchestrator) Transcript() *turns.Transcript {
	return o.transcript
}

func (o *Orchestrator) SessionID() string {
	return o.session.ID()
}

func (o *Orchestrator) AgentID() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.agentID
}

func (o *Orchestrator) Catalog() *agents.Catalog {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.catalog
}

func (o *Orchestrator) Language() string {
	return o.language
}

// IsLocked reports whether a turn or a voice session currently holds the
// input lock.
func (o *Orchestrator) IsLocked() bool {
	return o.lock.Held()
}

// T looks up a localized string of the active agent in the UI language.
func (o *Orchestrator) T(path, fallback string) string {
	return o.Catalog().T(o.language, path, fallback)
}

// SetDraft records what the user typed so voice input can append to it.
func (o *Orchestrator) SetDraft(text string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.draft = text
}

func (o *Orchestrator) Draft() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.draft
}

// acquireInput takes the input lock unless an agent switch is pending. abort
// is how the new holder can be stopped.
func (o *Orchestrator) acquireInput(abort func()) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.switching > 0 || !o.lock.TryAcquire() {
		return false
	}
	o.abortInput = abort
	return true
}

// clearAbort must run before the holder releases the lock.
func (o *Orchestrator) clearAbort() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.abortInput = nil
}

func (o *Orchestrator) abortHolder() {
	o.mu.Lock()
	abort := o.abortInput
	o.mu.Unlock()
	if abort != nil {
		abort()
	}
}

func (o *Orchestrator) render(text string) string {
	if o.renderer == nil {
		return text
	}
	rendered, err := o.renderer.Render(text)
	if err != nil {
		logger.Warn("failed to render turn text, showing it as is", "error", err)
		return text
	}
	return rendered
}

func (o *Orchestrator) releaseInput(turnKey string) {
	o.lock.Release()
	o.emit(events.NewInputReleased(turnKey))
}
