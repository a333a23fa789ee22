package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/koscakluka/ema-desk/core/turns"
	"github.com/muesli/reflow/wordwrap"
)

func (m model) View() string {
	if m.width == 0 {
		return ""
	}
	if m.picker.visible {
		return lipgloss.JoinVertical(lipgloss.Left, m.headerView(), m.picker.view())
	}

	input := inputStyle
	if m.recording {
		input = recordingInputStyle
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		m.headerView(),
		m.viewport.View(),
		m.statusView(),
		input.Render(m.input.View()),
		m.help.View(m.keys),
	)
}

func (m model) headerView() string {
	title := titleStyle.Render("emadesk")
	agent := m.orch.AgentID()
	if agent == "" {
		agent = "-"
	}
	info := agent
	if m.mode == modeTranslate {
		source, target, _ := m.orch.TranslationDirection()
		info = fmt.Sprintf("%s · %s → %s", agent, source, target)
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, title, " ", subtleStyle.Render(info))
}

func (m model) statusView() string {
	switch {
	case m.alert != "":
		return errorStyle.Render(m.alert)
	case m.busy:
		return m.spinner.View() + " " + statusStyle.Render(m.status)
	default:
		return statusStyle.Render(m.status)
	}
}

// transcriptView renders every turn of the transcript. Finalized answers are
// rendered once per width; in-flight ones use the render carried by their
// last update.
func (m model) transcriptView() string {
	width := max(m.width-turnStyle.GetHorizontalFrameSize(), 1)
	target, hasTarget := m.target()

	var blocks []string
	for turn := range m.orch.Transcript().Values {
		style := turnStyle
		if hasTarget && m.selected != "" && turn.Key == target.Key {
			style = selectedTurnStyle
		}
		blocks = append(blocks, style.Render(m.turnView(turn, width)))
	}
	if len(blocks) == 0 {
		return subtleStyle.Render(m.orch.T("ui.empty", "No messages yet."))
	}
	return strings.Join(blocks, "\n\n")
}

func (m model) turnView(turn turns.Turn, width int) string {
	var b strings.Builder

	question := turn.Input.Text
	if question == "" {
		question = turn.Transcription
	}
	prefix := "› "
	if turn.Kind == turns.KindTranslation {
		prefix = fmt.Sprintf("› [%s→%s] ", turn.Input.SourceLanguage, turn.Input.TargetLanguage)
	}
	b.WriteString(promptStyle.Render(wordwrap.String(prefix+question, width)))
	b.WriteString("\n")

	switch turn.Status {
	case turns.StatusPending:
		b.WriteString(subtleStyle.Render("…"))
	case turns.StatusStreaming:
		b.WriteString(turn.Rendered)
	case turns.StatusFailed:
		b.WriteString(errorStyle.Render(wordwrap.String(turn.Error, width)))
	case turns.StatusFinalized:
		b.WriteString(m.finalizedView(turn))
		for i, link := range turn.Links {
			fmt.Fprintf(&b, "\n%s %s", subtleStyle.Render(fmt.Sprintf("[%d]", i+1)), linkStyle.Render(turns.LinkURL(link)))
		}
	}
	return b.String()
}

func (m model) finalizedView(turn turns.Turn) string {
	if rendered, ok := m.cache[turn.Key]; ok {
		return rendered
	}
	rendered := turn.Rendered
	if m.renderer != nil {
		if r, err := m.renderer.Render(turn.Text); err == nil {
			rendered = r
		}
	}
	m.cache[turn.Key] = rendered
	return rendered
}
