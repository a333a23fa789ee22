package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/koscakluka/ema-desk/core/backend"
	"github.com/koscakluka/ema-desk/core/config"
	"github.com/koscakluka/ema-desk/core/turns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBackendServer(t *testing.T, mux *http.ServeMux) string {
	t.Helper()
	mux.HandleFunc("/api/agent-keys", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"nutria":"k-1"}`)
	})
	mux.HandleFunc("/api/get_config", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "k-1", r.URL.Query().Get("access_key"))
		_, _ = io.WriteString(w, `{"fr":{"errors":{"generic":"Erreur."}}}`)
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server.URL
}

func writeTestConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg := config.Default()
	cfg.Playback.Command = []string{"true"}
	require.NoError(t, config.Write(path, cfg))
	return path
}

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	configPath, agentFlag, backendURL, verbose, asJSON = "", "", "", false, false
	translateFrom, translateTo, translateAudio, translateReverse = "", "", "", false

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestAskPrintsTurnAsJSON(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/query", func(w http.ResponseWriter, r *http.Request) {
		var req backend.QueryRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "Quels sont les bienfaits du magnésium?", req.Question)
		assert.Equal(t, "nutria", req.Agent)
		_, _ = io.WriteString(w, "data: {\"question_id\":\"q-1\"}\n\n"+
			"data: {\"chunk\":\"A\"}\n\ndata: {\"chunk\":\"B\"}\n\n"+
			"data: {\"links\":[\"PMID: 42\"]}\n\n")
	})
	url := newBackendServer(t, mux)

	out, err := runCommand(t, "ask", "--config", writeTestConfig(t), "--backend", url,
		"--agent", "nutria", "--json", "Quels sont les bienfaits", "du magnésium?")
	require.NoError(t, err)

	var got turnOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "q-1", got.ID)
	assert.Equal(t, "finalized", got.Status)
	assert.Equal(t, "AB", got.Text)
	assert.Equal(t, []string{"https://pubmed.ncbi.nlm.nih.gov/42/"}, got.Links)
}

func TestAskReportsFailedTurn(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/query", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	})
	url := newBackendServer(t, mux)

	_, err := runCommand(t, "ask", "--config", writeTestConfig(t), "--backend", url, "--agent", "nutria", "question")
	require.Error(t, err)
}

func TestVerboseLogsSkippedStreamEntries(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/query", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "data: {\"chunk\":\"A\"}\n\ndata: {not json}\n\ndata: {\"chunk\":\"B\"}\n\n")
	})
	url := newBackendServer(t, mux)

	configPath, agentFlag, backendURL, verbose, asJSON = "", "", "", false, false
	var out, logs bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&logs)
	t.Cleanup(func() {
		verbose = false
		setupLogging(io.Discard)
	})
	rootCmd.SetArgs([]string{"ask", "--config", writeTestConfig(t), "--backend", url,
		"--agent", "nutria", "--json", "-v", "question"})
	require.NoError(t, rootCmd.ExecuteContext(context.Background()))

	var got turnOutput
	require.NoError(t, json.Unmarshal(out.Bytes(), &got))
	assert.Equal(t, "AB", got.Text)
	assert.Contains(t, logs.String(), "skipping malformed stream entry")
}

func TestQuietRunDropsCoreLogs(t *testing.T) {
	var logs bytes.Buffer
	verbose = true
	setupLogging(&logs)
	verbose = false
	setupLogging(&logs)

	_, _ = logOutput.Write([]byte("dropped"))
	assert.Empty(t, logs.String())
}

func TestTranslateStreamsText(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/translate", func(w http.ResponseWriter, r *http.Request) {
		var req backend.TranslateRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, backend.TranslateRequest{Text: "bonjour", SourceLanguage: "fr", TargetLanguage: "en"}, req)
		_, _ = io.WriteString(w, "data: {\"chunk\":\"hel\"}\n\ndata: {\"chunk\":\"lo\"}\n\n")
	})
	url := newBackendServer(t, mux)

	out, err := runCommand(t, "translate", "--config", writeTestConfig(t), "--backend", url,
		"--agent", "nutria", "--from", "fr", "--to", "en", "bonjour")
	require.NoError(t, err)
	assert.Equal(t, "hello\n", out)
}

func TestTranslateRequiresInput(t *testing.T) {
	_, err := runCommand(t, "translate", "  ")
	require.Error(t, err)
}

func TestSchemaListsAndPrintsPayloads(t *testing.T) {
	out, err := runCommand(t, "schema")
	require.NoError(t, err)
	assert.Contains(t, out, "query\n")
	assert.Contains(t, out, "stream_entry\n")

	schema, err := payloadSchema("query")
	require.NoError(t, err)
	assert.Contains(t, schema.Required, "question")
	_, ok := schema.Properties.Get("session_id")
	assert.True(t, ok)

	_, err = payloadSchema("nope")
	require.Error(t, err)
}

func TestStreamPrinterWritesOnlyNewText(t *testing.T) {
	var out bytes.Buffer
	printer := &streamPrinter{w: &out}
	printer.print("k", "Le ")
	printer.print("k", "Le fer")
	printer.print("k", "Le fer")
	assert.Equal(t, "Le fer", out.String())
}

func TestNewTurnOutputResolvesLinks(t *testing.T) {
	got := newTurnOutput(turns.Turn{
		Kind:   turns.KindChat,
		Status: turns.StatusFinalized,
		Links:  []string{"PMID: 7", "https://example.org/a"},
	})
	assert.Equal(t, []string{"https://pubmed.ncbi.nlm.nih.gov/7/", "https://example.org/a"}, got.Links)
	assert.Equal(t, "chat", got.Kind)
}
