package turns

import (
	"errors"
	"strings"
	"testing"
)

func TestStatusNeverRegresses(t *testing.T) {
	turn := Turn{Status: StatusPending}
	if err := turn.StartStreaming(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := turn.StartStreaming(); err != nil {
		t.Fatalf("expected repeated streaming transition to be a no-op, got %v", err)
	}
	if err := turn.Finalize("done", nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := turn.StartStreaming(); !errors.Is(err, ErrTurnImmutable) {
		t.Fatalf("expected ErrTurnImmutable, got %v", err)
	}
	if err := turn.Fail("boom"); !errors.Is(err, ErrTurnImmutable) {
		t.Fatalf("expected finalized turn not to fail, got %v", err)
	}
	if turn.Status != StatusFinalized {
		t.Fatalf("expected finalized status, got %s", turn.Status)
	}
}

func TestPendingTurnCanFinalizeWithoutStreaming(t *testing.T) {
	turn := Turn{Status: StatusPending}
	if err := turn.Finalize("", nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if turn.CompletedAt.IsZero() {
		t.Fatalf("expected completion time to be set")
	}
}

func TestAppendTextRequiresStreaming(t *testing.T) {
	turn := Turn{Status: StatusPending}
	if err := turn.AppendText("x"); !errors.Is(err, ErrTurnNotStreaming) {
		t.Fatalf("expected ErrTurnNotStreaming, got %v", err)
	}

	_ = turn.StartStreaming()
	_ = turn.AppendText("Hel")
	_ = turn.AppendText("lo")
	if turn.Text != "Hello" {
		t.Fatalf("expected appended text, got %q", turn.Text)
	}

	_ = turn.Fail("error")
	if err := turn.AppendText("!"); !errors.Is(err, ErrTurnImmutable) {
		t.Fatalf("expected ErrTurnImmutable, got %v", err)
	}
	if turn.Rendered != "error" || turn.Error != "error" {
		t.Fatalf("expected failure message to replace output, got %q", turn.Rendered)
	}
}

func TestAssignIDOnlyOnce(t *testing.T) {
	turn := Turn{Status: StatusStreaming}
	if err := turn.AssignID("q-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := turn.AssignID("q-2"); !errors.Is(err, ErrTurnIDAlreadySet) {
		t.Fatalf("expected ErrTurnIDAlreadySet, got %v", err)
	}
	if turn.ID != "q-1" {
		t.Fatalf("expected first id to stick, got %q", turn.ID)
	}
}

func TestLinkURL(t *testing.T) {
	tests := map[string]string{
		"PMID: 12345":         "https://pubmed.ncbi.nlm.nih.gov/12345/",
		"PMID:987":            "https://pubmed.ncbi.nlm.nih.gov/987/",
		"https://example.com": "https://example.com",
	}
	for in, want := range tests {
		if got := LinkURL(in); got != want {
			t.Errorf("LinkURL(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestShareTextIncludesLinks(t *testing.T) {
	text := ShareText(Turn{
		Input: Input{Text: "Is fiber good?"},
		Text:  "Yes.",
		Links: []string{"PMID: 1"},
	})
	if !strings.HasPrefix(text, "Is fiber good?\n\nYes.") {
		t.Fatalf("unexpected share text: %q", text)
	}
	if !strings.Contains(text, "https://pubmed.ncbi.nlm.nih.gov/1/") {
		t.Fatalf("expected link in share text: %q", text)
	}
}
