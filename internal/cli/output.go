package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/koscakluka/ema-desk/core/turns"
	"github.com/koscakluka/ema-desk/internal/tui"
)

// turnOutput is the --json form of a finished turn.
type turnOutput struct {
	ID             string    `json:"id,omitempty"`
	Kind           string    `json:"kind"`
	Status         string    `json:"status"`
	Input          string    `json:"input,omitempty"`
	Transcription  string    `json:"transcription,omitempty"`
	SourceLanguage string    `json:"source_language,omitempty"`
	TargetLanguage string    `json:"target_language,omitempty"`
	Text           string    `json:"text"`
	Links          []string  `json:"links,omitempty"`
	Error          string    `json:"error,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	CompletedAt    time.Time `json:"completed_at"`
}

func newTurnOutput(turn turns.Turn) turnOutput {
	links := make([]string, 0, len(turn.Links))
	for _, link := range turn.Links {
		links = append(links, turns.LinkURL(link))
	}
	return turnOutput{
		ID:             turn.ID,
		Kind:           string(turn.Kind),
		Status:         string(turn.Status),
		Input:          turn.Input.Text,
		Transcription:  turn.Transcription,
		SourceLanguage: turn.Input.SourceLanguage,
		TargetLanguage: turn.Input.TargetLanguage,
		Text:           turn.Text,
		Links:          links,
		Error:          turn.Error,
		CreatedAt:      turn.CreatedAt,
		CompletedAt:    turn.CompletedAt,
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// streamPrinter writes only the part of the growing text it has not written
// yet.
type streamPrinter struct {
	w       io.Writer
	printed int
}

func (p *streamPrinter) print(_ string, text string) {
	if len(text) <= p.printed {
		return
	}
	fmt.Fprint(p.w, text[p.printed:])
	p.printed = len(text)
}

// printTurn writes the outcome of a one-shot turn. When the text was already
// streamed only the links are added.
func printTurn(w io.Writer, turn turns.Turn, streamed bool, renderer *tui.MarkdownRenderer) error {
	if asJSON {
		return writeJSON(w, newTurnOutput(turn))
	}

	if streamed {
		fmt.Fprintln(w)
	} else {
		rendered, err := renderer.Render(turn.Text)
		if err != nil {
			rendered = turn.Text
		}
		fmt.Fprintln(w, strings.TrimRight(rendered, "\n"))
	}

	if len(turn.Links) > 0 {
		fmt.Fprintln(w)
		for _, link := range turn.Links {
			fmt.Fprintf(w, "- %s\n", turns.LinkURL(link))
		}
	}
	return nil
}
