package transport

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostJSONDecodesResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/like_answer", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "q-1", body["question_id"])

		_, _ = io.WriteString(w, `{"status":"success","message":"Vote recorded"}`)
	}))
	defer server.Close()

	client, err := NewClient(server.URL)
	require.NoError(t, err)

	var out struct {
		Status  string `json:"status"`
		Message string `json:"message"`
	}
	err = client.PostJSON(context.Background(), "/api/like_answer", map[string]any{"question_id": "q-1", "like": true}, &out)
	require.NoError(t, err)
	assert.Equal(t, "success", out.Status)
}

func TestNonSuccessStatusIsTransportErrorWithStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer server.Close()

	client, err := NewClient(server.URL)
	require.NoError(t, err)

	_, err = client.PostStream(context.Background(), "/query", map[string]string{"question": "x"})
	require.Error(t, err)

	var transportErr *TransportError
	require.True(t, errors.As(err, &transportErr))
	assert.Equal(t, http.StatusBadGateway, transportErr.StatusCode)
	assert.True(t, transportErr.HasStatus())
	assert.Equal(t, "boom", transportErr.Body)
	assert.Equal(t, http.StatusBadGateway, StatusCode(err))
}

func TestNetworkFailureIsTransportErrorWithoutStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	baseURL := server.URL
	server.Close()

	client, err := NewClient(baseURL)
	require.NoError(t, err)

	err = client.GetJSON(context.Background(), "/api/languages", nil, nil)
	require.Error(t, err)

	var transportErr *TransportError
	require.True(t, errors.As(err, &transportErr))
	assert.False(t, transportErr.HasStatus())
	assert.Zero(t, StatusCode(err))
}

func TestPostStreamHandsBackOpenBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		_, _ = io.WriteString(w, "data: {\"chunk\":\"A\"}\n\n")
	}))
	defer server.Close()

	client, err := NewClient(server.URL)
	require.NoError(t, err)

	stream, err := client.PostStream(context.Background(), "query", map[string]string{"question": "x"})
	require.NoError(t, err)
	defer stream.Close()

	assert.Equal(t, http.StatusOK, stream.StatusCode)
	data, err := io.ReadAll(stream.Body)
	require.NoError(t, err)
	assert.Equal(t, "data: {\"chunk\":\"A\"}\n\n", string(data))
}

func TestPostMultipartSendsFieldsAndFile(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "fr", r.FormValue("language"))

		file, header, err := r.FormFile("audio")
		require.NoError(t, err)
		defer file.Close()
		data, err := io.ReadAll(file)
		require.NoError(t, err)
		assert.Equal(t, "recording.wav", header.Filename)
		assert.Equal(t, []byte{1, 2, 3}, data)

		_, _ = io.WriteString(w, `{"text":"bonjour"}`)
	}))
	defer server.Close()

	client, err := NewClient(server.URL)
	require.NoError(t, err)

	var out struct {
		Text string `json:"text"`
	}
	err = client.PostMultipart(context.Background(), "/api/transcribe_audio",
		map[string]string{"language": "fr"},
		MultipartFile{Field: "audio", Filename: "recording.wav", ContentType: "audio/wav", Data: []byte{1, 2, 3}},
		&out)
	require.NoError(t, err)
	assert.Equal(t, "bonjour", out.Text)
}

func TestNewClientRejectsRelativeBaseURL(t *testing.T) {
	_, err := NewClient("localhost")
	require.Error(t, err)
}
