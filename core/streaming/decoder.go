// Package streaming decodes the backend's blank-line delimited
// `data: <json>` response streams into typed events.
package streaming

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"iter"
	"strings"

	"github.com/koscakluka/ema-desk/core/events"
	"go.opentelemetry.io/otel/attribute"
)

const (
	chunkPrefix = "data:"

	readBufferSize = 4096
)

var delimiter = []byte("\n\n")

// ErrMarkedMalformed is wrapped by entries the backend itself flagged with an
// error marker.
var ErrMarkedMalformed = errors.New("stream entry marked as malformed")

// DecodeError reports a stream segment whose payload is not valid JSON.
type DecodeError struct {
	Segment string
	Err     error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("error decoding stream segment %q: %v", e.Segment, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

type payload struct {
	SessionID     *string   `json:"session_id"`
	QuestionID    *string   `json:"question_id"`
	Transcription *string   `json:"transcription"`
	Chunk         *string   `json:"chunk"`
	Links         *[]string `json:"links"`
	Error         any       `json:"error"`
}

// Decoder turns an append-only byte stream into events. Bytes can be written
// in arbitrarily sized pieces; only complete segments are decoded and the
// incomplete tail is kept for the next write.
//
// Session and turn identifiers are reported once per stream, repeats are
// ignored.
type Decoder struct {
	buf []byte

	sessionSeen bool
	turnSeen    bool
	closed      bool
}

func NewDecoder() *Decoder {
	return &Decoder{}
}

// Write buffers p and returns the events of every segment completed by it.
func (d *Decoder) Write(p []byte) []events.Event {
	if d.closed {
		return nil
	}

	for _, b := range p {
		if b != '\r' {
			d.buf = append(d.buf, b)
		}
	}

	var decoded []events.Event
	for {
		idx := bytes.Index(d.buf, delimiter)
		if idx < 0 {
			break
		}
		segment := string(d.buf[:idx])
		d.buf = d.buf[idx+len(delimiter):]
		decoded = append(decoded, d.decodeSegment(segment)...)
	}

	if len(d.buf) == 0 {
		d.buf = nil
	}
	return decoded
}

// Close decodes whatever is left in the buffer and appends the synthetic
// [events.EndOfStream]. Calls after the first return nothing.
func (d *Decoder) Close() []events.Event {
	if d.closed {
		return nil
	}
	d.closed = true

	var decoded []events.Event
	if rest := strings.TrimSpace(string(d.buf)); rest != "" {
		decoded = d.decodeSegment(rest)
	}
	d.buf = nil

	return append(decoded, events.NewEndOfStream())
}

func (d *Decoder) decodeSegment(segment string) []events.Event {
	var dataLines []string
	for _, line := range strings.Split(segment, "\n") {
		if !strings.HasPrefix(line, chunkPrefix) {
			// event:, id:, retry: and comment lines carry nothing we use
			continue
		}
		dataLines = append(dataLines, strings.TrimPrefix(strings.TrimPrefix(line, chunkPrefix), " "))
	}
	data := strings.TrimSpace(strings.Join(dataLines, "\n"))
	if data == "" {
		return nil
	}

	var body payload
	if err := json.Unmarshal([]byte(data), &body); err != nil {
		decodeErr := &DecodeError{Segment: data, Err: err}
		logger.Warn("skipping undecodable stream entry", "error", decodeErr)
		return []events.Event{events.NewEntryMalformed(data, decodeErr)}
	}

	var decoded []events.Event
	if body.SessionID != nil && *body.SessionID != "" && !d.sessionSeen {
		d.sessionSeen = true
		decoded = append(decoded, events.NewSessionAssigned(*body.SessionID))
	}
	if body.QuestionID != nil && *body.QuestionID != "" && !d.turnSeen {
		d.turnSeen = true
		decoded = append(decoded, events.NewTurnAssigned(*body.QuestionID))
	}
	if body.Transcription != nil && *body.Transcription != "" {
		decoded = append(decoded, events.NewSourceTranscribed(*body.Transcription))
	}
	if body.Chunk != nil && *body.Chunk != "" {
		decoded = append(decoded, events.NewContentFragment(*body.Chunk))
	}
	if body.Links != nil {
		links := make([]string, len(*body.Links))
		copy(links, *body.Links)
		decoded = append(decoded, events.NewLinksUpdated(links))
	}
	if body.Error != nil {
		err := fmt.Errorf("%w: %v", ErrMarkedMalformed, body.Error)
		logger.Warn("backend marked stream entry as malformed", "error", err)
		decoded = append(decoded, events.NewEntryMalformed(data, err))
	}
	return decoded
}

// Decode reads r until it is exhausted and yields decoded events, ending with
// [events.EndOfStream]. A read failure is yielded as an error and ends the
// sequence without an end-of-stream event.
func Decode(ctx context.Context, r io.Reader) iter.Seq2[events.Event, error] {
	return func(yield func(events.Event, error) bool) {
		ctx, span := tracer.Start(ctx, "decode response stream")
		defer span.End()

		decoder := NewDecoder()
		buf := make([]byte, readBufferSize)
		reads, decodedEvents := 0, 0
		defer func() {
			span.SetAttributes(
				attribute.Int("stream.reads", reads),
				attribute.Int("stream.events", decodedEvents),
			)
		}()

		for {
			if err := ctx.Err(); err != nil {
				span.RecordError(err)
				yield(nil, err)
				return
			}

			n, err := r.Read(buf)
			if n > 0 {
				reads++
				for _, event := range decoder.Write(buf[:n]) {
					decodedEvents++
					if !yield(event, nil) {
						return
					}
				}
			}

			if errors.Is(err, io.EOF) {
				for _, event := range decoder.Close() {
					decodedEvents++
					if !yield(event, nil) {
						return
					}
				}
				return
			}
			if err != nil {
				err = fmt.Errorf("error reading response stream: %w", err)
				span.RecordError(err)
				yield(nil, err)
				return
			}
		}
	}
}
