package tui

import (
	"errors"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/koscakluka/ema-desk/core/backend"
	"github.com/koscakluka/ema-desk/core/orchestration"
	"github.com/koscakluka/ema-desk/core/turns"
)

var errNoAnswer = errors.New("no answer to act on")

// actionTurns returns the turns post-turn actions can apply to, oldest first.
func (m *model) actionTurns() []turns.Turn {
	var finalized []turns.Turn
	for turn := range m.orch.Transcript().Values {
		if turn.Status == turns.StatusFinalized {
			finalized = append(finalized, turn)
		}
	}
	return finalized
}

// target returns the selected turn, or the last finalized one.
func (m *model) target() (turns.Turn, bool) {
	candidates := m.actionTurns()
	if len(candidates) == 0 {
		return turns.Turn{}, false
	}
	if m.selected != "" {
		for _, turn := range candidates {
			if turn.Key == m.selected {
				return turn, true
			}
		}
	}
	return candidates[len(candidates)-1], true
}

func (m *model) moveSelection(delta int) {
	candidates := m.actionTurns()
	if len(candidates) == 0 {
		return
	}
	current := len(candidates) - 1
	for i, turn := range candidates {
		if turn.Key == m.selected {
			current = i
			break
		}
	}
	next := min(max(current+delta, 0), len(candidates)-1)
	m.selected = candidates[next].Key
	m.follow = false
	m.refresh()
}

func (m model) copyTurn(share bool) tea.Cmd {
	turn, ok := m.target()
	if !ok {
		return func() tea.Msg { return actionMsg{err: errNoAnswer} }
	}
	text, status := turn.Text, m.orch.T("ui.copied", "Copied to clipboard.")
	if share {
		text, status = turns.ShareText(turn), m.orch.T("ui.shared", "Answer with sources copied for sharing.")
	}
	return func() tea.Msg {
		if err := clipboard.WriteAll(text); err != nil {
			return actionMsg{err: err}
		}
		return actionMsg{status: status}
	}
}

func (m model) like(like bool) tea.Cmd {
	turn, ok := m.target()
	if !ok {
		return func() tea.Msg { return actionMsg{err: errNoAnswer} }
	}
	o, ctx := m.orch, m.ctx
	status := o.T("ui.feedback_thanks", "Thanks for the feedback.")
	return func() tea.Msg {
		if err := o.Like(ctx, turn.Key, like); err != nil {
			return actionMsg{err: err}
		}
		return actionMsg{status: status}
	}
}

func (m model) readAloud() tea.Cmd {
	turn, ok := m.target()
	if !ok {
		return func() tea.Msg { return actionMsg{err: errNoAnswer} }
	}
	o, ctx := m.orch, m.ctx
	return func() tea.Msg {
		err := o.ReadAloud(ctx, turn.Key)
		if errors.Is(err, orchestration.ErrNoReadAloud) {
			return actionMsg{status: o.T("ui.no_speech", "Read aloud is not configured.")}
		}
		return actionMsg{err: err}
	}
}

func (m model) toggleVoice() tea.Cmd {
	o, ctx := m.orch, m.ctx
	if m.recording {
		return func() tea.Msg {
			return actionMsg{err: o.StopVoice(ctx)}
		}
	}
	target := orchestration.VoiceToChat
	if m.mode == modeTranslate {
		target = orchestration.VoiceToTranslation
	}
	return func() tea.Msg {
		err := o.StartVoice(ctx, target)
		switch {
		case errors.Is(err, orchestration.ErrNoRecognizer):
			return actionMsg{status: o.T("ui.no_voice", "Voice input is not configured.")}
		case errors.Is(err, orchestration.ErrInputLocked):
			return actionMsg{status: o.T("ui.busy", "Wait for the current answer to finish.")}
		}
		// Other start failures arrive as VoiceFailed.
		return nil
	}
}

func (m model) switchAgent(agent backend.Agent) tea.Cmd {
	o, ctx := m.orch, m.ctx
	return func() tea.Msg {
		if err := o.SwitchAgent(ctx, agent.ID); err != nil {
			return actionMsg{err: err}
		}
		return nil
	}
}
