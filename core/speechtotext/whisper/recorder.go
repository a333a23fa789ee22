// Package whisper records speech in full and has the backend transcribe it
// once the recording stops.
package whisper

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/koscakluka/ema-desk/core/audio"
	"github.com/koscakluka/ema-desk/core/backend"
	"github.com/koscakluka/ema-desk/core/speechtotext"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	DefaultWarnAfter   = 50 * time.Second
	DefaultMaxDuration = 60 * time.Second
	// DefaultMinBytes is half a second of 16kHz mono linear16 audio.
	DefaultMinBytes = 16000
)

// Transcriber turns an uploaded recording into text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio backend.Audio, language string) (string, error)
}

type Recorder struct {
	capture     audio.Capture
	transcriber Transcriber

	warnAfter   time.Duration
	maxDuration time.Duration
	minBytes    int

	mu     sync.Mutex
	active *recording
}

type Option func(*Recorder)

// WithLimits sets when the user is warned and when the recording is cut.
func WithLimits(warnAfter, maxDuration time.Duration) Option {
	return func(r *Recorder) {
		if maxDuration > 0 {
			r.maxDuration = maxDuration
		}
		if warnAfter > 0 {
			r.warnAfter = warnAfter
		}
	}
}

// WithMinBytes sets the smallest recording worth transcribing. Anything
// shorter is dropped without contacting the backend.
func WithMinBytes(minBytes int) Option {
	return func(r *Recorder) {
		if minBytes >= 0 {
			r.minBytes = minBytes
		}
	}
}

func NewRecorder(capture audio.Capture, transcriber Transcriber, opts ...Option) *Recorder {
	r := &Recorder{
		capture:     capture,
		transcriber: transcriber,
		warnAfter:   DefaultWarnAfter,
		maxDuration: DefaultMaxDuration,
		minBytes:    DefaultMinBytes,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.warnAfter >= r.maxDuration {
		r.warnAfter = 0
	}
	return r
}

type recording struct {
	stop     chan struct{}
	stopOnce sync.Once

	mu  sync.Mutex
	pcm bytes.Buffer
}

func (r *recording) write(chunk []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pcm.Write(chunk)
}

func (r *recording) bytes() []byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	return bytes.Clone(r.pcm.Bytes())
}

func (r *recording) requestStop() {
	r.stopOnce.Do(func() { close(r.stop) })
}

// Start opens the microphone and records until [Recorder.Stop] is called,
// the length limit is hit or ctx is done. At most one result is delivered,
// always with Submit set.
func (r *Recorder) Start(ctx context.Context, opts ...speechtotext.RecognitionOption) (<-chan speechtotext.Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.active != nil {
		return nil, speechtotext.ErrAlreadyRecognizing
	}

	options := speechtotext.NewRecognitionOptions(opts...)
	rec := &recording{stop: make(chan struct{})}
	if err := r.capture.StartCapture(ctx, rec.write); err != nil {
		return nil, &speechtotext.MediaAccessError{Err: err}
	}
	r.active = rec

	results := make(chan speechtotext.Result, 1)
	go r.run(ctx, rec, options, results)
	return results, nil
}

// Stop ends the current recording. Transcription continues in the
// background and is delivered on the channel returned by Start.
func (r *Recorder) Stop(_ context.Context) error {
	r.mu.Lock()
	rec := r.active
	r.mu.Unlock()
	if rec != nil {
		rec.requestStop()
	}
	return nil
}

func (r *Recorder) run(ctx context.Context, rec *recording, options speechtotext.RecognitionOptions, results chan<- speechtotext.Result) {
	defer close(results)

	var warn <-chan time.Time
	if r.warnAfter > 0 {
		warnTimer := time.NewTimer(r.warnAfter)
		defer warnTimer.Stop()
		warn = warnTimer.C
	}
	limit := time.NewTimer(r.maxDuration)
	defer limit.Stop()

	cancelled := false
wait:
	for {
		select {
		case <-warn:
			warn = nil
			options.Warn(r.maxDuration - r.warnAfter)
		case <-limit.C:
			options.LimitReached()
			break wait
		case <-rec.stop:
			break wait
		case <-ctx.Done():
			cancelled = true
			break wait
		}
	}

	stopErr := r.capture.StopCapture()
	r.mu.Lock()
	r.active = nil
	r.mu.Unlock()

	if stopErr != nil {
		results <- speechtotext.Result{Err: &speechtotext.MediaAccessError{Err: stopErr}}
		return
	}
	if cancelled {
		return
	}

	pcm := rec.bytes()
	if len(pcm) < r.minBytes {
		logger.Debug("discarding short recording", "bytes", len(pcm), "min_bytes", r.minBytes)
		options.Discard("", speechtotext.DiscardTooShort)
		return
	}

	text, err := r.transcribe(ctx, pcm, options.Language)
	if err != nil {
		results <- speechtotext.Result{Err: err}
		return
	}

	text = strings.TrimSpace(text)
	switch {
	case text == "":
		options.Discard(text, speechtotext.DiscardEmpty)
	case speechtotext.IsHallucination(text):
		logger.Debug("discarding hallucinated transcript", "text", text)
		options.Discard(text, speechtotext.DiscardHallucination)
	default:
		results <- speechtotext.Result{Text: text, Final: true, Submit: true}
	}
}

func (r *Recorder) transcribe(ctx context.Context, pcm []byte, language string) (string, error) {
	ctx, span := tracer.Start(ctx, "transcribe recording")
	defer span.End()

	encoding := r.capture.EncodingInfo()
	span.SetAttributes(
		attribute.Int("recording.bytes", len(pcm)),
		attribute.String("recording.duration", encoding.Duration(len(pcm)).String()),
		attribute.String("recording.language", language),
	)

	wav, err := audio.EncodeWAV(pcm, encoding)
	if err != nil {
		err = &speechtotext.TranscriptionError{Message: "could not encode recording", Err: err}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}

	text, err := r.transcriber.Transcribe(ctx, backend.Audio{
		Data:        wav,
		Filename:    "recording.wav",
		ContentType: "audio/wav",
	}, language)
	if err != nil {
		var apiErr *backend.APIError
		if errors.As(err, &apiErr) {
			err = &speechtotext.TranscriptionError{Message: apiErr.Message, Err: err}
		} else {
			err = &speechtotext.TranscriptionError{Err: fmt.Errorf("failed to upload recording: %w", err)}
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}
	return text, nil
}
