// Package deepgram recognizes speech live over a Deepgram listen websocket.
// Interim results update the draft as the user speaks; nothing is submitted
// automatically.
package deepgram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	api "github.com/deepgram/deepgram-go-sdk/pkg/api/listen/v1/websocket/interfaces"
	"github.com/gorilla/websocket"
	"github.com/koscakluka/ema-desk/core/audio"
	"github.com/koscakluka/ema-desk/core/speechtotext"
)

const (
	defaultListenURL = "wss://api.deepgram.com/v1/listen"
	defaultModel     = "nova-2"

	// closeTimeout bounds how long the final results are awaited after the
	// stream was closed from our side.
	closeTimeout = 5 * time.Second
)

var ErrMissingAPIKey = errors.New("deepgram api key not configured")

type LiveRecognizer struct {
	capture   audio.Capture
	apiKey    string
	model     string
	language  string
	listenURL string
	dialer    *websocket.Dialer

	mu      sync.Mutex
	session *liveSession
}

type Option func(*LiveRecognizer)

func WithModel(model string) Option {
	return func(r *LiveRecognizer) {
		if model != "" {
			r.model = model
		}
	}
}

// WithLanguage pins the recognition language, ignoring the hint given on
// Start. "multi" enables Deepgram's multilingual mode.
func WithLanguage(language string) Option {
	return func(r *LiveRecognizer) { r.language = language }
}

func WithListenURL(listenURL string) Option {
	return func(r *LiveRecognizer) {
		if listenURL != "" {
			r.listenURL = listenURL
		}
	}
}

func NewLiveRecognizer(capture audio.Capture, apiKey string, opts ...Option) *LiveRecognizer {
	r := &LiveRecognizer{
		capture:   capture,
		apiKey:    apiKey,
		model:     defaultModel,
		listenURL: defaultListenURL,
		dialer:    websocket.DefaultDialer,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

type liveSession struct {
	conn   *websocket.Conn
	connMu sync.Mutex

	results  chan speechtotext.Result
	closing  chan struct{}
	stopOnce sync.Once
	writeErr sync.Once
}

func (r *LiveRecognizer) Start(ctx context.Context, opts ...speechtotext.RecognitionOption) (<-chan speechtotext.Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.session != nil {
		return nil, speechtotext.ErrAlreadyRecognizing
	}
	if r.apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	options := speechtotext.NewRecognitionOptions(opts...)
	encoding, err := convertEncoding(r.capture.EncodingInfo())
	if err != nil {
		return nil, fmt.Errorf("invalid encoding: %w", err)
	}

	language := options.Language
	if r.language != "" {
		language = r.language
	}
	conn, err := r.connect(ctx, *encoding, language)
	if err != nil {
		return nil, &speechtotext.TranscriptionError{Message: "could not reach recognizer", Err: err}
	}

	s := &liveSession{
		conn:    conn,
		results: make(chan speechtotext.Result, 16),
		closing: make(chan struct{}),
	}
	if err := r.capture.StartCapture(ctx, s.sendAudio); err != nil {
		conn.Close()
		return nil, &speechtotext.MediaAccessError{Err: err}
	}
	r.session = s

	stopOnCancel := context.AfterFunc(ctx, func() { r.finish(s) })
	go func() {
		defer stopOnCancel()
		r.readAndProcessMessages(s, options)
	}()

	return s.results, nil
}

// Stop stops capturing and asks Deepgram to flush the remaining results. The
// result channel closes once Deepgram closes the connection.
func (r *LiveRecognizer) Stop(_ context.Context) error {
	r.mu.Lock()
	s := r.session
	r.mu.Unlock()
	if s == nil {
		return nil
	}
	return r.finish(s)
}

func (r *LiveRecognizer) finish(s *liveSession) error {
	var err error
	s.stopOnce.Do(func() {
		if stopErr := r.capture.StopCapture(); stopErr != nil {
			err = &speechtotext.MediaAccessError{Err: stopErr}
		}
		close(s.closing)

		s.connMu.Lock()
		defer s.connMu.Unlock()
		if writeErr := s.conn.WriteJSON(struct {
			Type string `json:"type"`
		}{Type: string(api.TypeCloseStreamResponse)}); writeErr != nil {
			logger.Warn("failed to close deepgram stream", "error", writeErr)
		}
		_ = s.conn.SetReadDeadline(time.Now().Add(closeTimeout))
	})
	return err
}

func (r *LiveRecognizer) connect(ctx context.Context, encoding encodingInfo, language string) (*websocket.Conn, error) {
	listenURL, err := url.Parse(r.listenURL)
	if err != nil {
		return nil, fmt.Errorf("invalid listen url: %w", err)
	}
	queryParams := listenURL.Query()
	queryParams.Set("encoding", encoding.Format.Name())
	queryParams.Set("sample_rate", strconv.Itoa(encoding.SampleRate))
	queryParams.Set("channels", strconv.Itoa(encoding.Channels))
	queryParams.Set("model", r.model)
	if language != "" {
		queryParams.Set("language", language)
	} else {
		queryParams.Set("detect_language", "true")
	}
	queryParams.Set("smart_format", "true")
	queryParams.Set("interim_results", "true")
	queryParams.Set("endpointing", "300")
	listenURL.RawQuery = queryParams.Encode()

	conn, _, err := r.dialer.DialContext(ctx, listenURL.String(),
		http.Header{"Authorization": {"Token " + r.apiKey}})
	if err != nil {
		return nil, fmt.Errorf("failed to open socket connection to deepgram: %w", err)
	}
	return conn, nil
}

func (s *liveSession) sendAudio(audio []byte) {
	select {
	case <-s.closing:
		return
	default:
	}

	s.connMu.Lock()
	defer s.connMu.Unlock()
	if err := s.conn.WriteMessage(websocket.BinaryMessage, audio); err != nil {
		s.writeErr.Do(func() {
			logger.Error("failed to write to deepgram client", "error", err)
		})
	}
}

func (r *LiveRecognizer) readAndProcessMessages(s *liveSession, options speechtotext.RecognitionOptions) {
	defer func() {
		s.conn.Close()
		r.mu.Lock()
		if r.session == s {
			r.session = nil
		}
		r.mu.Unlock()
		close(s.results)
	}()

	var acc transcript
	for {
		msgType, msg, err := s.conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure) && !isClosing(s) {
				s.results <- speechtotext.Result{Err: &speechtotext.TranscriptionError{Message: "recognizer connection lost", Err: err}}
			}
			// capture must not keep writing into a dead connection
			_ = r.finish(s)
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}
		if result, ok := acc.process(msg, options); ok {
			s.results <- result
		}
	}
}

func isClosing(s *liveSession) bool {
	select {
	case <-s.closing:
		return true
	default:
		return false
	}
}

// transcript accumulates the final segments of one capture session.
type transcript struct {
	finals []string
}

func (t *transcript) text(interim string) string {
	parts := t.finals
	if interim != "" {
		parts = append(parts[:len(parts):len(parts)], interim)
	}
	return strings.Join(parts, " ")
}

func (t *transcript) process(msg []byte, options speechtotext.RecognitionOptions) (speechtotext.Result, bool) {
	var parsedMsg struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(msg, &parsedMsg); err != nil {
		logger.Warn("failed to unmarshal deepgram message", "error", err)
		return speechtotext.Result{}, false
	}

	switch api.TypeResponse(parsedMsg.Type) {
	case api.TypeMessageResponse:
		var msgResp api.MessageResponse
		if err := json.Unmarshal(msg, &msgResp); err != nil {
			logger.Warn("failed to unmarshal deepgram message", "error", err)
			return speechtotext.Result{}, false
		}
		if len(msgResp.Channel.Alternatives) == 0 {
			return speechtotext.Result{}, false
		}
		segment := strings.TrimSpace(msgResp.Channel.Alternatives[0].Transcript)
		if segment == "" {
			return speechtotext.Result{}, false
		}

		if !msgResp.IsFinal {
			// A hallucinated interim must not reach the draft, only the
			// finals so far do.
			if speechtotext.IsHallucination(segment) {
				return speechtotext.Result{Text: t.text("")}, true
			}
			return speechtotext.Result{Text: t.text(segment)}, true
		}
		if speechtotext.IsHallucination(segment) {
			options.Discard(segment, speechtotext.DiscardHallucination)
			return speechtotext.Result{Text: t.text(""), Final: true}, true
		}
		t.finals = append(t.finals, segment)
		return speechtotext.Result{Text: t.text(""), Final: true}, true

	default:
		logger.Debug("ignoring deepgram message", "type", parsedMsg.Type)
	}
	return speechtotext.Result{}, false
}
