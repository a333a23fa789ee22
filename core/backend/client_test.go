package backend

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/koscakluka/ema-desk/core/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...Option) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	tc, err := transport.NewClient(server.URL)
	require.NoError(t, err)
	return New(tc, opts...)
}

func TestQueryRejectsBlankQuestionWithoutRequest(t *testing.T) {
	called := false
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	_, err := client.Query(context.Background(), QueryRequest{Question: "  \n"})
	require.ErrorIs(t, err, ErrEmptyText)
	assert.False(t, called)
}

func TestQuerySendsSessionAndStreams(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/query", r.URL.Path)
		var req QueryRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "Is fiber good?", req.Question)
		assert.Equal(t, "nutria", req.Agent)
		assert.Equal(t, "s-1", req.SessionID)
		_, _ = io.WriteString(w, "data: {\"chunk\":\"Yes\"}\n\n")
	})

	stream, err := client.Query(context.Background(), QueryRequest{
		Question:  "Is fiber good?",
		Agent:     "nutria",
		SessionID: "s-1",
	})
	require.NoError(t, err)
	defer stream.Close()

	body, err := io.ReadAll(stream.Body)
	require.NoError(t, err)
	assert.Equal(t, "data: {\"chunk\":\"Yes\"}\n\n", string(body))
}

func TestQueryOmitsEmptySession(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var raw map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&raw))
		_, ok := raw["session_id"]
		assert.False(t, ok)
	})

	stream, err := client.Query(context.Background(), QueryRequest{Question: "hi"})
	require.NoError(t, err)
	stream.Close()
}

func TestTranslateDefaultsSourceToAuto(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req TranslateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "auto", req.SourceLanguage)
		assert.Equal(t, "fr", req.TargetLanguage)
	})

	stream, err := client.Translate(context.Background(), TranslateRequest{Text: "hello", TargetLanguage: "fr"})
	require.NoError(t, err)
	stream.Close()
}

func TestTranscribeReportsBackendError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/transcribe_audio", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "fr", r.FormValue("language"))
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"error":"Could not transcribe audio"}`)
	})

	_, err := client.Transcribe(context.Background(), Audio{Data: []byte("RIFF")}, "fr")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "Could not transcribe audio", apiErr.Message)
	assert.Equal(t, http.StatusBadRequest, transport.StatusCode(err))
}

func TestTranscribeReturnsText(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"text":"bonjour"}`)
	})

	text, err := client.Transcribe(context.Background(), Audio{Data: []byte("RIFF")}, "")
	require.NoError(t, err)
	assert.Equal(t, "bonjour", text)
}

func TestAudioLimits(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Fail(t, "no request expected")
	}, WithMaxAudioBytes(4))

	_, err := client.Transcribe(context.Background(), Audio{}, "")
	assert.ErrorIs(t, err, ErrEmptyAudio)

	_, err = client.TranslateAudio(context.Background(), Audio{Data: []byte("12345")}, "", "en")
	assert.ErrorIs(t, err, ErrAudioTooLarge)
}

func TestConfigErrorBody(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "translator", r.URL.Query().Get("agent"))
		assert.Equal(t, "k", r.URL.Query().Get("access_key"))
		_, _ = io.WriteString(w, `{"error":"Invalid access key"}`)
	})

	_, err := client.Config(context.Background(), "translator", "k")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "Invalid access key", apiErr.Message)
}

func TestAgentKeysSkipsNonStrings(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"nutria":"abc","broken":1}`)
	})

	keys, err := client.AgentKeys(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"nutria": "abc"}, keys)
}

func TestResetSessionPassesQuery(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/reset_session", r.URL.Path)
		assert.Equal(t, "s-9", r.URL.Query().Get("session_id"))
		_, _ = io.WriteString(w, `{"status":"success","message":"Session reset"}`)
	})

	resp, err := client.ResetSession(context.Background(), "s-9")
	require.NoError(t, err)
	assert.True(t, resp.OK())
}

func TestLinksRequiresConfiguredPath(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/links", r.URL.Path)
		assert.Equal(t, "q-1", r.URL.Query().Get("question_id"))
		assert.Equal(t, "s-1", r.URL.Query().Get("session_id"))
		_, _ = io.WriteString(w, `{"links":["PMID: 1"]}`)
	})

	_, err := client.Links(context.Background(), "q-1", "s-1")
	require.True(t, errors.Is(err, ErrNoLinksPath))

	WithLinksPath("/api/links")(client)
	links, err := client.Links(context.Background(), "q-1", "s-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"PMID: 1"}, links)
}
