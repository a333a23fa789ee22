package tui

import (
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
	"github.com/muesli/reflow/wordwrap"
)

const defaultWidth = 80

// MarkdownRenderer renders turn text for the terminal. With markdown disabled,
// or when glamour cannot be set up, text is only word-wrapped.
type MarkdownRenderer struct {
	style    string
	markdown bool

	mu    sync.Mutex
	width int
	term  *glamour.TermRenderer
}

// NewMarkdownRenderer creates a renderer for style, a glamour standard style
// name or "auto".
func NewMarkdownRenderer(style string, markdown bool) *MarkdownRenderer {
	r := &MarkdownRenderer{style: style, markdown: markdown}
	r.SetWidth(defaultWidth)
	return r
}

// SetWidth sets the wrap width used by following renders.
func (r *MarkdownRenderer) SetWidth(width int) {
	if width <= 0 {
		width = defaultWidth
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if width == r.width && (r.term != nil || !r.markdown) {
		return
	}
	r.width = width
	r.term = nil
	if !r.markdown {
		return
	}

	styleOption := glamour.WithAutoStyle()
	if r.style != "" && r.style != "auto" {
		styleOption = glamour.WithStandardStyle(r.style)
	}
	term, err := glamour.NewTermRenderer(styleOption, glamour.WithWordWrap(width))
	if err != nil {
		logger.Warn("markdown rendering disabled", "error", err)
		return
	}
	r.term = term
}

func (r *MarkdownRenderer) Width() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.width
}

// Render renders the whole of text.
func (r *MarkdownRenderer) Render(text string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.term == nil {
		return wordwrap.String(text, r.width), nil
	}
	rendered, err := r.term.Render(text)
	if err != nil {
		return "", err
	}
	return strings.Trim(rendered, "\n"), nil
}
