package deepgram

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	api "github.com/deepgram/deepgram-go-sdk/pkg/api/listen/v1/websocket/interfaces"
	"github.com/gorilla/websocket"
	"github.com/koscakluka/ema-desk/core/audio"
	"github.com/koscakluka/ema-desk/core/speechtotext"
)

func resultsMessage(text string, isFinal bool) []byte {
	return []byte(fmt.Sprintf(`{"type":%q,"is_final":%t,"speech_final":%t,"channel":{"alternatives":[{"transcript":%q}]}}`,
		string(api.TypeMessageResponse), isFinal, isFinal, text))
}

func TestTranscriptAccumulatesFinalsAndShowsInterims(t *testing.T) {
	var acc transcript
	options := speechtotext.NewRecognitionOptions()

	steps := []struct {
		msg   []byte
		text  string
		final bool
	}{
		{msg: resultsMessage("quels", false), text: "quels"},
		{msg: resultsMessage("Quels sont", true), text: "Quels sont", final: true},
		{msg: resultsMessage("les bien", false), text: "Quels sont les bien"},
		{msg: resultsMessage("les bienfaits?", true), text: "Quels sont les bienfaits?", final: true},
	}
	for i, step := range steps {
		result, ok := acc.process(step.msg, options)
		if !ok {
			t.Fatalf("step %d: expected a result", i)
		}
		if result.Text != step.text || result.Final != step.final {
			t.Fatalf("step %d: got %+v, want text %q final %v", i, result, step.text, step.final)
		}
		if result.Submit {
			t.Fatalf("step %d: live results must not submit", i)
		}
	}
}

func TestTranscriptDropsHallucinatedFinal(t *testing.T) {
	var acc transcript
	var discarded string
	options := speechtotext.NewRecognitionOptions(speechtotext.WithDiscardedCallback(func(text string, _ speechtotext.DiscardReason) {
		discarded = text
	}))

	_, _ = acc.process(resultsMessage("hello", true), options)
	result, ok := acc.process(resultsMessage("Thank you.", true), options)
	if !ok || result.Text != "hello" {
		t.Fatalf("expected hallucination to be left out, got %+v", result)
	}
	if discarded != "Thank you." {
		t.Fatalf("expected discarded callback, got %q", discarded)
	}
}

func TestTranscriptKeepsHallucinatedInterimOutOfDraft(t *testing.T) {
	var acc transcript
	discards := 0
	options := speechtotext.NewRecognitionOptions(speechtotext.WithDiscardedCallback(func(string, speechtotext.DiscardReason) {
		discards++
	}))

	result, ok := acc.process(resultsMessage("Thank you.", false), options)
	if !ok || result.Text != "" || result.Final {
		t.Fatalf("expected empty interim, got %+v", result)
	}

	_, _ = acc.process(resultsMessage("bonjour", true), options)
	result, ok = acc.process(resultsMessage("thank you", false), options)
	if !ok || result.Text != "bonjour" {
		t.Fatalf("expected only finals in interim text, got %+v", result)
	}
	if discards != 0 {
		t.Fatalf("interims must not be reported as discarded, got %d", discards)
	}
}

func TestTranscriptIgnoresOtherMessages(t *testing.T) {
	var acc transcript
	options := speechtotext.NewRecognitionOptions()

	for _, msg := range []string{
		`{"type":"SpeechStarted"}`,
		`{"type":"UtteranceEnd"}`,
		`not json`,
		string(resultsMessage("  ", true)),
	} {
		if result, ok := acc.process([]byte(msg), options); ok {
			t.Fatalf("expected %q to be ignored, got %+v", msg, result)
		}
	}
}

type fakeCapture struct {
	mu      sync.Mutex
	onAudio func([]byte)
	stopped int
}

func (c *fakeCapture) StartCapture(_ context.Context, onAudio func([]byte)) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onAudio = onAudio
	return nil
}

func (c *fakeCapture) StopCapture() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopped++
	c.onAudio = nil
	return nil
}

func (c *fakeCapture) EncodingInfo() audio.EncodingInfo { return audio.GetDefaultEncodingInfo() }

func (c *fakeCapture) Close() {}

func (c *fakeCapture) speak(n int) {
	c.mu.Lock()
	onAudio := c.onAudio
	c.mu.Unlock()
	if onAudio != nil {
		onAudio(make([]byte, n))
	}
}

func TestLiveRecognizerOverWebsocket(t *testing.T) {
	upgrader := websocket.Upgrader{}
	gotQuery := make(chan string, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Token test-key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		gotQuery <- r.URL.RawQuery
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		answered := false
		for {
			msgType, msg, err := conn.ReadMessage()
			if err != nil {
				return
			}
			if msgType == websocket.BinaryMessage && !answered {
				answered = true
				_ = conn.WriteMessage(websocket.TextMessage, resultsMessage("bonjour", false))
				_ = conn.WriteMessage(websocket.TextMessage, resultsMessage("Bonjour à tous", true))
			}
			if msgType == websocket.TextMessage && strings.Contains(string(msg), string(api.TypeCloseStreamResponse)) {
				_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
		}
	}))
	defer server.Close()

	capture := &fakeCapture{}
	recognizer := NewLiveRecognizer(capture, "test-key",
		WithListenURL("ws"+strings.TrimPrefix(server.URL, "http")+"/v1/listen"))

	results, err := recognizer.Start(context.Background(), speechtotext.WithLanguage("fr"))
	if err != nil {
		t.Fatalf("unexpected start error: %v", err)
	}
	query := <-gotQuery
	if !strings.Contains(query, "language=fr") || !strings.Contains(query, "sample_rate=16000") {
		t.Fatalf("unexpected listen query %q", query)
	}

	capture.speak(320)

	var got []speechtotext.Result
	timeout := time.After(2 * time.Second)
	for len(got) < 2 {
		select {
		case result := <-results:
			got = append(got, result)
		case <-timeout:
			t.Fatalf("timed out waiting for results, got %+v", got)
		}
	}
	if got[0].Text != "bonjour" || got[0].Final {
		t.Fatalf("unexpected interim result %+v", got[0])
	}
	if got[1].Text != "Bonjour à tous" || !got[1].Final || got[1].Submit {
		t.Fatalf("unexpected final result %+v", got[1])
	}

	if err := recognizer.Stop(context.Background()); err != nil {
		t.Fatalf("unexpected stop error: %v", err)
	}
	for {
		select {
		case result, ok := <-results:
			if !ok {
				if capture.stopped != 1 {
					t.Fatalf("expected capture to be stopped once, got %d", capture.stopped)
				}
				return
			}
			if result.Err != nil {
				t.Fatalf("unexpected error after normal close: %v", result.Err)
			}
		case <-timeout:
			t.Fatalf("timed out waiting for results to close")
		}
	}
}

func TestLiveRecognizerRequiresAPIKey(t *testing.T) {
	_, err := NewLiveRecognizer(&fakeCapture{}, "").Start(context.Background())
	if err != ErrMissingAPIKey {
		t.Fatalf("expected ErrMissingAPIKey, got %v", err)
	}
}
