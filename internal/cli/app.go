package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/koscakluka/ema-desk/core/agents"
	"github.com/koscakluka/ema-desk/core/audio"
	"github.com/koscakluka/ema-desk/core/audio/miniaudio"
	"github.com/koscakluka/ema-desk/core/audio/portaudio"
	"github.com/koscakluka/ema-desk/core/backend"
	"github.com/koscakluka/ema-desk/core/config"
	"github.com/koscakluka/ema-desk/core/orchestration"
	"github.com/koscakluka/ema-desk/core/speechtotext"
	dgstt "github.com/koscakluka/ema-desk/core/speechtotext/deepgram"
	"github.com/koscakluka/ema-desk/core/speechtotext/whisper"
	"github.com/koscakluka/ema-desk/core/texttospeech"
	dgtts "github.com/koscakluka/ema-desk/core/texttospeech/deepgram"
	"github.com/koscakluka/ema-desk/core/transport"
)

// app holds everything built from the configuration.
type app struct {
	cfg      *config.Config
	backend  *backend.Client
	registry *agents.Registry
	capture  audio.Capture
}

func newApp(cfg *config.Config) (*app, error) {
	transportOpts := make([]transport.Option, 0, len(cfg.Backend.Headers))
	for key, value := range cfg.Backend.Headers {
		transportOpts = append(transportOpts, transport.WithHeader(key, value))
	}
	tc, err := transport.NewClient(cfg.Backend.URL, transportOpts...)
	if err != nil {
		return nil, err
	}

	client := backend.New(tc,
		backend.WithMaxAudioBytes(cfg.Backend.MaxAudioBytes),
		backend.WithLinksPath(cfg.Backend.LinksPath),
	)
	registry := agents.NewRegistry(client,
		agents.WithAccessKeys(cfg.Agent.AccessKeys),
		agents.WithOverrides(cfg.Agent.Overrides),
	)
	return &app{cfg: cfg, backend: client, registry: registry}, nil
}

func (a *app) Close() {
	if a.capture != nil {
		a.capture.Close()
	}
}

// resolveAgent returns the configured agent, or the backend's default when
// none is configured.
func (a *app) resolveAgent(ctx context.Context, requested string) (string, error) {
	if requested != "" {
		return requested, nil
	}
	if a.cfg.Agent.Default != "" {
		return a.cfg.Agent.Default, nil
	}
	_, defaultAgent, err := a.registry.List(ctx)
	if err != nil {
		return "", fmt.Errorf("listing agents: %w", err)
	}
	if defaultAgent == "" {
		return "", fmt.Errorf("backend has no default agent, pass --agent")
	}
	return defaultAgent, nil
}

// newOrchestrator loads the agent catalog and builds an orchestrator with the
// optional voice and read-aloud features that the configuration enables.
func (a *app) newOrchestrator(ctx context.Context, agentID string, withVoice bool, opts ...orchestration.OrchestratorOption) (*orchestration.Orchestrator, error) {
	catalog, err := a.registry.Load(ctx, agentID)
	if err != nil {
		return nil, fmt.Errorf("loading agent %q: %w", agentID, err)
	}

	base := []orchestration.OrchestratorOption{
		orchestration.WithAgent(agentID, catalog),
		orchestration.WithAgentLoader(a.registry),
		orchestration.WithLocale(a.cfg.Locale.Language, a.cfg.Locale.Timezone, a.cfg.Locale.Locale),
		orchestration.WithTranslationPair(a.cfg.Translation.SourceLanguage, a.cfg.Translation.TargetLanguage),
	}

	if synthesizer, player, err := a.readAloud(); err != nil {
		slog.Warn("read aloud disabled", "error", err)
	} else {
		base = append(base, orchestration.WithReadAloud(synthesizer, player))
	}

	if withVoice {
		recognizer, err := a.recognizer()
		if err != nil {
			slog.Warn("voice input disabled", "error", err)
		} else {
			base = append(base, orchestration.WithRecognizer(recognizer, a.cfg.Voice.MaxDuration))
		}
	}

	return orchestration.NewOrchestrator(a.backend, append(base, opts...)...), nil
}

func (a *app) readAloud() (texttospeech.Synthesizer, texttospeech.Player, error) {
	player, err := texttospeech.NewCommandPlayer(a.cfg.Playback.Command...)
	if err != nil {
		return nil, nil, err
	}

	switch a.cfg.Playback.Synthesizer {
	case "deepgram":
		if a.cfg.Deepgram.APIKey == "" {
			return nil, nil, dgstt.ErrMissingAPIKey
		}
		return dgtts.NewSynthesizer(a.cfg.Deepgram.APIKey), player, nil
	case "backend", "":
		return a.backend, player, nil
	}
	return nil, nil, fmt.Errorf("unknown synthesizer %q", a.cfg.Playback.Synthesizer)
}

func (a *app) recognizer() (speechtotext.Recognizer, error) {
	capture, err := a.openCapture()
	if err != nil {
		return nil, &speechtotext.MediaAccessError{Err: err}
	}

	switch a.cfg.Voice.Strategy {
	case "deepgram":
		if a.cfg.Deepgram.APIKey == "" {
			return nil, dgstt.ErrMissingAPIKey
		}
		return dgstt.NewLiveRecognizer(capture, a.cfg.Deepgram.APIKey,
			dgstt.WithModel(a.cfg.Deepgram.Model),
			dgstt.WithLanguage(a.cfg.Deepgram.Language),
		), nil
	case "whisper", "":
		return whisper.NewRecorder(capture, a.backend,
			whisper.WithLimits(a.cfg.Voice.WarnAfter, a.cfg.Voice.MaxDuration),
			whisper.WithMinBytes(a.cfg.Voice.MinBytes),
		), nil
	}
	return nil, fmt.Errorf("unknown voice strategy %q", a.cfg.Voice.Strategy)
}

func (a *app) openCapture() (audio.Capture, error) {
	if a.capture != nil {
		return a.capture, nil
	}

	encoding := audio.EncodingInfo{
		SampleRate: a.cfg.Voice.SampleRate,
		Channels:   a.cfg.Voice.Channels,
		Format:     audio.EncodingLinear16,
	}
	var (
		capture audio.Capture
		err     error
	)
	switch a.cfg.Voice.AudioBackend {
	case "portaudio":
		capture, err = portaudio.NewClient(encoding, 0)
	case "miniaudio", "":
		capture, err = miniaudio.NewClient(encoding)
	default:
		err = fmt.Errorf("unknown audio backend %q", a.cfg.Voice.AudioBackend)
	}
	if err != nil {
		return nil, err
	}
	a.capture = capture
	return capture, nil
}
