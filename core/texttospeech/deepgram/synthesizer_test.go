package deepgram

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
)

func TestSynthesizerCollectsAudioUntilFlushed(t *testing.T) {
	upgrader := websocket.Upgrader{}
	models := make(chan string, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		models <- r.URL.Query().Get("model")
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		for {
			var msg websocketMessage
			if err := conn.ReadJSON(&msg); err != nil {
				return
			}
			switch msg.Type {
			case "Speak":
				_ = conn.WriteMessage(websocket.BinaryMessage, []byte{1, 2})
				_ = conn.WriteMessage(websocket.BinaryMessage, []byte{3, 4})
			case "Flush":
				_ = conn.WriteJSON(websocketMessage{Type: "Flushed"})
			case "Close":
				return
			}
		}
	}))
	defer server.Close()

	synthesizer := NewSynthesizer("key",
		WithSpeakURL("ws"+strings.TrimPrefix(server.URL, "http")),
		WithLanguageVoice("fr", "aura-2-agathe-fr"))

	wav, contentType, err := synthesizer.Speak(context.Background(), "Bonjour", "fr")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if contentType != "audio/wav" {
		t.Fatalf("unexpected content type %q", contentType)
	}
	if got := <-models; got != "aura-2-agathe-fr" {
		t.Fatalf("expected french voice, got %q", got)
	}
	if string(wav[:4]) != "RIFF" || len(wav) != 44+4 {
		t.Fatalf("expected WAV wrapping four audio bytes, got %d bytes", len(wav))
	}
	if string(wav[44:]) != string([]byte{1, 2, 3, 4}) {
		t.Fatalf("unexpected audio payload %v", wav[44:])
	}
}

func TestSynthesizerRequiresAPIKey(t *testing.T) {
	if _, _, err := NewSynthesizer("").Speak(context.Background(), "hi", "en"); err != ErrMissingAPIKey {
		t.Fatalf("expected ErrMissingAPIKey, got %v", err)
	}
}
