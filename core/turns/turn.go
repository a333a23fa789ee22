// Package turns models the user-visible conversation: turns and the
// append-only transcript holding them.
package turns

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
)

var (
	ErrTurnImmutable     = errors.New("turn is no longer mutable")
	ErrStatusRegression  = errors.New("turn status cannot move backwards")
	ErrTurnNotStreaming  = errors.New("turn is not streaming")
	ErrTurnNotFound      = errors.New("turn not found")
	ErrTurnIDAlreadySet  = errors.New("turn id already assigned")
	ErrTurnAlreadyFailed = errors.New("turn already failed")
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusStreaming Status = "streaming"
	StatusFinalized Status = "finalized"
	StatusFailed    Status = "failed"
)

func (s Status) rank() int {
	switch s {
	case StatusPending:
		return 0
	case StatusStreaming:
		return 1
	case StatusFinalized, StatusFailed:
		return 2
	}
	return -1
}

// IsTerminal reports whether a turn with this status can no longer change.
func (s Status) IsTerminal() bool {
	return s == StatusFinalized || s == StatusFailed
}

type Kind string

const (
	KindChat        Kind = "chat"
	KindTranslation Kind = "translation"
)

// Input is what the user submitted.
type Input struct {
	Text    string
	AgentID string

	// SourceLanguage and TargetLanguage are only set for translations.
	SourceLanguage string
	TargetLanguage string
}

type Turn struct {
	// Key identifies the turn locally from the moment it is appended.
	Key string
	// ID is the backend identifier, empty until the backend supplies it.
	ID    string
	Kind  Kind
	Input Input

	Status Status
	// Text grows strictly by append while the turn is streaming.
	Text string
	// Rendered is the last full render of Text.
	Rendered string
	// Transcription is the recognized source text of an audio translation.
	Transcription string
	// Links are attached once the turn is finalized.
	Links []string
	// Error is the localized message shown in place of a failed answer.
	Error string

	CreatedAt   time.Time
	CompletedAt time.Time
}

// IsMutable reports whether the turn can still be changed by its stream.
func (t *Turn) IsMutable() bool {
	return !t.Status.IsTerminal()
}

func (t *Turn) advance(to Status) error {
	if t.Status.IsTerminal() {
		return fmt.Errorf("%w: %s -> %s", ErrTurnImmutable, t.Status, to)
	}
	if to.rank() < t.Status.rank() {
		return fmt.Errorf("%w: %s -> %s", ErrStatusRegression, t.Status, to)
	}
	t.Status = to
	if to.IsTerminal() {
		t.CompletedAt = time.Now()
	}
	return nil
}

// StartStreaming moves a pending turn to streaming. Calling it on a turn that
// is already streaming is a no-op.
func (t *Turn) StartStreaming() error {
	if t.Status == StatusStreaming {
		return nil
	}
	return t.advance(StatusStreaming)
}

// AssignID records the backend identifier. Only the first assignment counts.
func (t *Turn) AssignID(id string) error {
	if !t.IsMutable() {
		return ErrTurnImmutable
	}
	if t.ID != "" {
		return ErrTurnIDAlreadySet
	}
	t.ID = id
	return nil
}

// AppendText adds a fragment to the accumulated text.
func (t *Turn) AppendText(fragment string) error {
	if t.Status != StatusStreaming {
		if !t.IsMutable() {
			return ErrTurnImmutable
		}
		return ErrTurnNotStreaming
	}
	t.Text += fragment
	return nil
}

// Finalize freezes the turn with its final render and links.
func (t *Turn) Finalize(rendered string, links []string) error {
	if err := t.advance(StatusFinalized); err != nil {
		return err
	}
	t.Rendered = rendered
	t.Links = links
	return nil
}

// Fail freezes the turn, replacing any partial output with message.
func (t *Turn) Fail(message string) error {
	if t.Status == StatusFailed {
		return ErrTurnAlreadyFailed
	}
	if err := t.advance(StatusFailed); err != nil {
		return err
	}
	t.Error = message
	t.Rendered = message
	return nil
}

var pmidPattern = regexp.MustCompile(`^PMID:\s*(\d+)$`)

// LinkURL resolves a link as delivered by the backend into something a
// terminal can open. PubMed references are expanded, anything else is
// returned unchanged.
func LinkURL(link string) string {
	if match := pmidPattern.FindStringSubmatch(strings.TrimSpace(link)); match != nil {
		return "https://pubmed.ncbi.nlm.nih.gov/" + match[1] + "/"
	}
	return link
}

// ShareText formats a finalized turn for sharing outside the application.
func ShareText(turn Turn) string {
	var b strings.Builder
	b.WriteString(turn.Input.Text)
	b.WriteString("\n\n")
	b.WriteString(turn.Text)
	if len(turn.Links) > 0 {
		b.WriteString("\n")
		for _, link := range turn.Links {
			b.WriteString("\n- ")
			b.WriteString(LinkURL(link))
		}
	}
	return b.String()
}
