// Package backend exposes the conversational backend's endpoints as typed
// calls. Streamed replies are returned open; decoding them is left to
// [streaming.Decode].
package backend

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/koscakluka/ema-desk/core/transport"
)

const (
	// DefaultMaxAudioBytes matches the upload limit of the transcription
	// service behind the backend.
	DefaultMaxAudioBytes = 25 << 20

	pathQuery          = "/query"
	pathTranslate      = "/api/translate"
	pathTranslateAudio = "/api/translate_audio"
	pathTranscribe     = "/api/transcribe_audio"
	pathSpeech         = "/api/tts"
	pathLike           = "/api/like_answer"
	pathComment        = "/api/add_comment"
	pathLanguages      = "/api/languages"
	pathAgents         = "/api/agents"
	pathAgentKeys      = "/api/agent-keys"
	pathConfig         = "/api/get_config"
	pathResetSession   = "/api/reset_session"
	pathSessionInfo    = "/api/session_info"
)

type Client struct {
	transport *transport.Client

	maxAudioBytes int
	linksPath     string
}

type Option func(*Client)

// WithMaxAudioBytes overrides the largest recording accepted for upload.
func WithMaxAudioBytes(limit int) Option {
	return func(c *Client) {
		if limit > 0 {
			c.maxAudioBytes = limit
		}
	}
}

// WithLinksPath enables fetching a turn's links from a separate endpoint
// after the stream ends.
func WithLinksPath(path string) Option {
	return func(c *Client) {
		c.linksPath = path
	}
}

func New(t *transport.Client, opts ...Option) *Client {
	c := &Client{
		transport:     t,
		maxAudioBytes: DefaultMaxAudioBytes,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Audio is a recording ready for upload.
type Audio struct {
	Data        []byte
	Filename    string
	ContentType string
}

func (c *Client) checkAudio(audio Audio) error {
	if len(audio.Data) == 0 {
		return ErrEmptyAudio
	}
	if len(audio.Data) > c.maxAudioBytes {
		return fmt.Errorf("%w: %d > %d bytes", ErrAudioTooLarge, len(audio.Data), c.maxAudioBytes)
	}
	return nil
}

func (a Audio) file() transport.MultipartFile {
	filename := a.Filename
	if filename == "" {
		filename = "audio.wav"
	}
	contentType := a.ContentType
	if contentType == "" {
		contentType = "audio/wav"
	}
	return transport.MultipartFile{
		Field:       "audio",
		Filename:    filename,
		ContentType: contentType,
		Data:        a.Data,
	}
}

// Query asks the selected agent a question. The reply streams the session
// id, the turn id, the answer fragments and finally the links.
func (c *Client) Query(ctx context.Context, req QueryRequest) (*transport.Stream, error) {
	if strings.TrimSpace(req.Question) == "" {
		return nil, ErrEmptyText
	}
	stream, err := c.transport.PostStream(ctx, pathQuery, req)
	if err != nil {
		return nil, fmt.Errorf("failed to query agent: %w", asAPIError(pathQuery, err))
	}
	return stream, nil
}

// Translate streams the translation of a text.
func (c *Client) Translate(ctx context.Context, req TranslateRequest) (*transport.Stream, error) {
	if strings.TrimSpace(req.Text) == "" {
		return nil, ErrEmptyText
	}
	if req.SourceLanguage == "" {
		req.SourceLanguage = "auto"
	}
	stream, err := c.transport.PostStream(ctx, pathTranslate, req)
	if err != nil {
		return nil, fmt.Errorf("failed to translate: %w", asAPIError(pathTranslate, err))
	}
	return stream, nil
}

// TranslateAudio uploads a recording and streams its transcription followed
// by the translation.
func (c *Client) TranslateAudio(ctx context.Context, audio Audio, sourceLanguage, targetLanguage string) (*transport.Stream, error) {
	if err := c.checkAudio(audio); err != nil {
		return nil, err
	}
	if sourceLanguage == "" {
		sourceLanguage = "auto"
	}
	fields := map[string]string{
		"source_language": sourceLanguage,
		"target_language": targetLanguage,
	}
	stream, err := c.transport.PostMultipartStream(ctx, pathTranslateAudio, fields, audio.file())
	if err != nil {
		return nil, fmt.Errorf("failed to translate audio: %w", asAPIError(pathTranslateAudio, err))
	}
	return stream, nil
}

// Transcribe turns a recording into text. language is an optional ISO-639-1
// hint.
func (c *Client) Transcribe(ctx context.Context, audio Audio, language string) (string, error) {
	if err := c.checkAudio(audio); err != nil {
		return "", err
	}
	fields := map[string]string{}
	if language != "" {
		fields["language"] = language
	}

	var resp TranscriptionResponse
	if err := c.transport.PostMultipart(ctx, pathTranscribe, fields, audio.file(), &resp); err != nil {
		return "", fmt.Errorf("failed to transcribe audio: %w", asAPIError(pathTranscribe, err))
	}
	if resp.Error != "" {
		return "", &APIError{Endpoint: pathTranscribe, Message: resp.Error}
	}
	return resp.Text, nil
}

// Speak synthesizes text and returns the encoded audio with its content type.
func (c *Client) Speak(ctx context.Context, text, language string) ([]byte, string, error) {
	if strings.TrimSpace(text) == "" {
		return nil, "", ErrEmptyText
	}
	data, contentType, err := c.transport.PostBytes(ctx, pathSpeech, SpeechRequest{Text: text, Language: language})
	if err != nil {
		return nil, "", fmt.Errorf("failed to synthesize speech: %w", asAPIError(pathSpeech, err))
	}
	return data, contentType, nil
}

// Like records a vote on an answer, replacing any previous vote.
func (c *Client) Like(ctx context.Context, questionID string, like bool) (StatusResponse, error) {
	var resp StatusResponse
	if err := c.transport.PostJSON(ctx, pathLike, LikeRequest{QuestionID: questionID, Like: like}, &resp); err != nil {
		return resp, fmt.Errorf("failed to send vote: %w", err)
	}
	return resp, nil
}

func (c *Client) Comment(ctx context.Context, questionID, comment string) (StatusResponse, error) {
	if strings.TrimSpace(comment) == "" {
		return StatusResponse{}, ErrEmptyText
	}
	var resp StatusResponse
	if err := c.transport.PostJSON(ctx, pathComment, CommentRequest{QuestionID: questionID, Comment: comment}, &resp); err != nil {
		return resp, fmt.Errorf("failed to send comment: %w", err)
	}
	return resp, nil
}

// Languages lists the supported translation languages keyed by code.
func (c *Client) Languages(ctx context.Context) (map[string]string, error) {
	languages := map[string]string{}
	if err := c.transport.GetJSON(ctx, pathLanguages, nil, &languages); err != nil {
		return nil, fmt.Errorf("failed to list languages: %w", err)
	}
	return languages, nil
}

func (c *Client) Agents(ctx context.Context) (AgentsResponse, error) {
	var resp AgentsResponse
	if err := c.transport.GetJSON(ctx, pathAgents, nil, &resp); err != nil {
		return resp, fmt.Errorf("failed to list agents: %w", err)
	}
	if resp.Error != "" {
		return resp, &APIError{Endpoint: pathAgents, Message: resp.Error}
	}
	return resp, nil
}

// AgentKeys returns the access key of every agent that has one.
func (c *Client) AgentKeys(ctx context.Context) (map[string]string, error) {
	var raw map[string]any
	if err := c.transport.GetJSON(ctx, pathAgentKeys, nil, &raw); err != nil {
		return nil, fmt.Errorf("failed to list agent keys: %w", err)
	}
	if err := errorField(pathAgentKeys, raw); err != nil {
		return nil, err
	}
	keys := make(map[string]string, len(raw))
	for id, key := range raw {
		if s, ok := key.(string); ok {
			keys[id] = s
		}
	}
	return keys, nil
}

// Config fetches the configuration tree of an agent, already merged with the
// common configuration by the backend.
func (c *Client) Config(ctx context.Context, agentID, accessKey string) (map[string]any, error) {
	query := url.Values{}
	if agentID != "" {
		query.Set("agent", agentID)
	}
	if accessKey != "" {
		query.Set("access_key", accessKey)
	}
	var tree map[string]any
	if err := c.transport.GetJSON(ctx, pathConfig, query, &tree); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := errorField(pathConfig, tree); err != nil {
		return nil, err
	}
	return tree, nil
}

// ResetSession drops the backend's history for a session. Resetting an
// unknown session is not an error.
func (c *Client) ResetSession(ctx context.Context, sessionID string) (StatusResponse, error) {
	var resp StatusResponse
	query := url.Values{}
	if sessionID != "" {
		query.Set("session_id", sessionID)
	}
	if err := c.transport.PostQuery(ctx, pathResetSession, query, &resp); err != nil {
		return resp, fmt.Errorf("failed to reset session: %w", err)
	}
	return resp, nil
}

func (c *Client) SessionInfo(ctx context.Context, sessionID string) (SessionInfo, error) {
	var info SessionInfo
	if err := c.transport.GetJSON(ctx, pathSessionInfo, url.Values{"session_id": {sessionID}}, &info); err != nil {
		return info, fmt.Errorf("failed to get session info: %w", err)
	}
	return info, nil
}

// HasLinksEndpoint reports whether [Client.Links] can be used.
func (c *Client) HasLinksEndpoint() bool {
	return c.linksPath != ""
}

// Links fetches the links of a finished turn from the links endpoint.
func (c *Client) Links(ctx context.Context, questionID, sessionID string) ([]string, error) {
	if c.linksPath == "" {
		return nil, ErrNoLinksPath
	}
	query := url.Values{"question_id": {questionID}}
	if sessionID != "" {
		query.Set("session_id", sessionID)
	}
	var resp LinksResponse
	if err := c.transport.GetJSON(ctx, c.linksPath, query, &resp); err != nil {
		return nil, fmt.Errorf("failed to fetch links: %w", err)
	}
	return resp.Links, nil
}

func errorField(endpoint string, body map[string]any) error {
	if len(body) != 1 {
		return nil
	}
	if message, ok := body["error"].(string); ok {
		return &APIError{Endpoint: endpoint, Message: message}
	}
	return nil
}
