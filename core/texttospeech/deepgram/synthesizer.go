// Package deepgram synthesizes speech with Deepgram's streaming speak API as
// an alternative to the backend's own synthesis.
package deepgram

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/koscakluka/ema-desk/core/audio"
	"go.opentelemetry.io/contrib/bridges/otelslog"
)

const scopeName = "github.com/koscakluka/ema-desk/core/texttospeech/deepgram"

var logger = otelslog.NewLogger(scopeName)

const (
	defaultSpeakURL = "wss://api.deepgram.com/v1/speak"
	defaultVoice    = "aura-2-thalia-en"
	sampleRate      = 24000
)

var ErrMissingAPIKey = errors.New("deepgram api key not configured")

type websocketMessage struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

var (
	flushMsg = websocketMessage{Type: "Flush"}
	closeMsg = websocketMessage{Type: "Close"}
)

func speakMsg(text string) websocketMessage {
	return websocketMessage{Type: "Speak", Text: text}
}

type Synthesizer struct {
	apiKey   string
	speakURL string
	dialer   *websocket.Dialer

	defaultVoice string
	// voices picks a voice per language code
	voices map[string]string
}

type Option func(*Synthesizer)

func WithVoice(voice string) Option {
	return func(s *Synthesizer) {
		if voice != "" {
			s.defaultVoice = voice
		}
	}
}

// WithLanguageVoice uses voice whenever text in language is synthesized.
func WithLanguageVoice(language, voice string) Option {
	return func(s *Synthesizer) {
		s.voices[language] = voice
	}
}

func WithSpeakURL(speakURL string) Option {
	return func(s *Synthesizer) {
		if speakURL != "" {
			s.speakURL = speakURL
		}
	}
}

func NewSynthesizer(apiKey string, opts ...Option) *Synthesizer {
	s := &Synthesizer{
		apiKey:       apiKey,
		speakURL:     defaultSpeakURL,
		dialer:       websocket.DefaultDialer,
		defaultVoice: defaultVoice,
		voices:       map[string]string{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Synthesizer) voiceFor(language string) string {
	if voice, ok := s.voices[language]; ok {
		return voice
	}
	return s.defaultVoice
}

// Speak synthesizes text and returns it as a WAV file.
func (s *Synthesizer) Speak(ctx context.Context, text, language string) ([]byte, string, error) {
	if s.apiKey == "" {
		return nil, "", ErrMissingAPIKey
	}
	if strings.TrimSpace(text) == "" {
		return nil, "", errors.New("text is empty")
	}

	encoding := audio.EncodingInfo{SampleRate: sampleRate, Channels: 1, Format: audio.EncodingLinear16}
	conn, err := s.connect(ctx, s.voiceFor(language), encoding)
	if err != nil {
		return nil, "", err
	}
	defer conn.Close()
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	for _, msg := range []websocketMessage{speakMsg(text), flushMsg} {
		if err := conn.WriteJSON(msg); err != nil {
			return nil, "", fmt.Errorf("failed to write to deepgram: %w", err)
		}
	}

	var pcm bytes.Buffer
	for {
		msgType, msg, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil, "", ctx.Err()
			}
			return nil, "", fmt.Errorf("failed to read speech from deepgram: %w", err)
		}
		if msgType == websocket.BinaryMessage {
			pcm.Write(msg)
			continue
		}

		var parsedMsg websocketMessage
		if err := json.Unmarshal(msg, &parsedMsg); err != nil {
			logger.Debug("ignoring unparsable deepgram message", "error", err)
			continue
		}
		if parsedMsg.Type == "Flushed" {
			break
		}
	}

	if err := conn.WriteJSON(closeMsg); err != nil {
		logger.Debug("failed to close deepgram speak stream", "error", err)
	}

	wav, err := audio.EncodeWAV(pcm.Bytes(), encoding)
	if err != nil {
		return nil, "", err
	}
	return wav, "audio/wav", nil
}

func (s *Synthesizer) connect(ctx context.Context, voice string, encoding audio.EncodingInfo) (*websocket.Conn, error) {
	speakURL, err := url.Parse(s.speakURL)
	if err != nil {
		return nil, fmt.Errorf("invalid speak url: %w", err)
	}
	urlValues := speakURL.Query()
	urlValues.Set("encoding", encoding.Format.Name())
	urlValues.Set("sample_rate", strconv.Itoa(encoding.SampleRate))
	urlValues.Set("model", voice)
	urlValues.Set("container", "none")
	speakURL.RawQuery = urlValues.Encode()

	conn, _, err := s.dialer.DialContext(ctx, speakURL.String(),
		http.Header{"Authorization": {"token " + s.apiKey}})
	if err != nil {
		return nil, fmt.Errorf("failed to open socket connection to deepgram: %w", err)
	}
	return conn, nil
}
