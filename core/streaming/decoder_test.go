package streaming

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/koscakluka/ema-desk/core/events"
)

const sampleStream = "data: {\"session_id\": \"s-1\", \"question_id\": \"q-1\", \"chunk\": \"\"}\n\n" +
	"data: {\"chunk\": \"Le magnésium \"}\n\n" +
	"data: {not json}\n\n" +
	"data: {\"chunk\": \"aide *beaucoup*\"}\r\n\r\n" +
	": keep-alive comment\n\n" +
	"event: message\ndata: {\"session_id\": \"s-2\", \"chunk\": \"!\"}\n\n" +
	"data: {\"links\": [\"PMID: 123\", \"PMID: 456\"]}"

func summarize(event events.Event) string {
	switch typed := event.(type) {
	case events.SessionAssigned:
		return "session:" + typed.SessionID
	case events.TurnAssigned:
		return "turn:" + typed.TurnID
	case events.SourceTranscribed:
		return "source:" + typed.Text
	case events.ContentFragment:
		return "chunk:" + typed.Text
	case events.LinksUpdated:
		return "links:" + strings.Join(typed.Links, ",")
	case events.EntryMalformed:
		return "malformed:" + typed.Raw
	case events.EndOfStream:
		return "end"
	}
	return fmt.Sprintf("unknown:%T", event)
}

func decodeInChunks(t *testing.T, stream string, size int) []string {
	t.Helper()

	decoder := NewDecoder()
	var got []string
	for start := 0; start < len(stream); start += size {
		end := min(start+size, len(stream))
		for _, event := range decoder.Write([]byte(stream[start:end])) {
			got = append(got, summarize(event))
		}
	}
	for _, event := range decoder.Close() {
		got = append(got, summarize(event))
	}
	return got
}

func TestDecoderProducesTypedEventsInOrder(t *testing.T) {
	got := decodeInChunks(t, sampleStream, len(sampleStream))
	expected := []string{
		"session:s-1",
		"turn:q-1",
		"chunk:Le magnésium ",
		"malformed:{not json}",
		"chunk:aide *beaucoup*",
		"chunk:!",
		"links:PMID: 123,PMID: 456",
		"end",
	}

	if !slices.Equal(got, expected) {
		t.Fatalf("expected %q, got %q", expected, got)
	}
}

func TestDecoderIsIndependentOfReadBoundaries(t *testing.T) {
	expected := decodeInChunks(t, sampleStream, len(sampleStream))

	for size := 1; size < len(sampleStream); size++ {
		got := decodeInChunks(t, sampleStream, size)
		if !slices.Equal(got, expected) {
			t.Fatalf("chunk size %d: expected %q, got %q", size, expected, got)
		}
	}
}

func TestDecoderKeepsMultibyteRunesSplitAcrossWrites(t *testing.T) {
	stream := "data: {\"chunk\": \"é\"}\n\n"
	split := strings.Index(stream, "é") + 1 // inside the two-byte rune

	decoder := NewDecoder()
	first := decoder.Write([]byte(stream[:split]))
	second := decoder.Write([]byte(stream[split:]))

	if len(first) != 0 {
		t.Fatalf("expected no events before the segment completes, got %d", len(first))
	}
	if len(second) != 1 || summarize(second[0]) != "chunk:é" {
		t.Fatalf("expected a single é chunk, got %v", second)
	}
}

func TestMalformedEntryCarriesDecodeError(t *testing.T) {
	decoder := NewDecoder()
	decoded := decoder.Write([]byte("data: {not json}\n\n"))
	if len(decoded) != 1 {
		t.Fatalf("expected one event, got %d", len(decoded))
	}

	malformed, ok := decoded[0].(events.EntryMalformed)
	if !ok {
		t.Fatalf("expected EntryMalformed, got %T", decoded[0])
	}
	var decodeErr *DecodeError
	if !errors.As(malformed.Err, &decodeErr) {
		t.Fatalf("expected DecodeError, got %v", malformed.Err)
	}
}

func TestServerMarkedEntryIsReportedAsMalformed(t *testing.T) {
	decoder := NewDecoder()
	decoded := decoder.Write([]byte("data: {\"error\": \"bad entry\"}\n\n"))
	if len(decoded) != 1 {
		t.Fatalf("expected one event, got %d", len(decoded))
	}
	malformed, ok := decoded[0].(events.EntryMalformed)
	if !ok || !errors.Is(malformed.Err, ErrMarkedMalformed) {
		t.Fatalf("expected marked malformed entry, got %#v", decoded[0])
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	decoder := NewDecoder()
	if got := decoder.Close(); len(got) != 1 {
		t.Fatalf("expected only end of stream, got %d events", len(got))
	}
	if got := decoder.Close(); len(got) != 0 {
		t.Fatalf("expected no events after close, got %d", len(got))
	}
	if got := decoder.Write([]byte("data: {\"chunk\":\"A\"}\n\n")); len(got) != 0 {
		t.Fatalf("expected writes after close to be ignored, got %d", len(got))
	}
}

func TestDecodeReadsWholeStreamOneByteAtATime(t *testing.T) {
	stream := "data: {\"chunk\":\"A\"}\n\ndata: {\"chunk\":\"B\"}\n\n"

	var got []string
	for event, err := range Decode(context.Background(), iotest.OneByteReader(strings.NewReader(stream))) {
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		got = append(got, summarize(event))
	}

	expected := []string{"chunk:A", "chunk:B", "end"}
	if !slices.Equal(got, expected) {
		t.Fatalf("expected %q, got %q", expected, got)
	}
}

func TestDecodeYieldsReadErrorWithoutEndOfStream(t *testing.T) {
	readErr := errors.New("connection reset")
	reader := io.MultiReader(strings.NewReader("data: {\"chunk\":\"A\"}\n\n"), iotest.ErrReader(readErr))

	var got []string
	var lastErr error
	for event, err := range Decode(context.Background(), reader) {
		if err != nil {
			lastErr = err
			continue
		}
		got = append(got, summarize(event))
	}

	if !errors.Is(lastErr, readErr) {
		t.Fatalf("expected read error, got %v", lastErr)
	}
	if !slices.Equal(got, []string{"chunk:A"}) {
		t.Fatalf("expected only the first chunk, got %q", got)
	}
}

func TestDecodeStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	for _, err := range Decode(ctx, strings.NewReader("data: {\"chunk\":\"A\"}\n\n")) {
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context cancellation, got %v", err)
		}
	}
}
