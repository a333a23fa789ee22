package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/koscakluka/ema-desk/core/backend"
	"github.com/koscakluka/ema-desk/core/events"
	"github.com/koscakluka/ema-desk/core/orchestration"
)

const inputHeight = 3

type mode int

const (
	modeChat mode = iota
	modeTranslate
)

type (
	eventMsg struct {
		event events.Event
	}
	submittedMsg struct {
		err error
	}
	actionMsg struct {
		status string
		err    error
	}
)

type model struct {
	ctx      context.Context
	orch     *orchestration.Orchestrator
	renderer *MarkdownRenderer

	keys     keyMap
	help     help.Model
	input    textarea.Model
	viewport viewport.Model
	spinner  spinner.Model
	picker   agentPicker

	mode      mode
	busy      bool
	recording bool
	// selected is the turn key actions apply to. Empty means the last
	// finalized turn.
	selected string
	status   string
	alert    string
	// follow keeps the transcript scrolled to its tail.
	follow bool
	// cache holds finalized turns rendered at the current width.
	cache map[string]string

	width, height int
}

func newModel(ctx context.Context, o *orchestration.Orchestrator, renderer *MarkdownRenderer, agents []backend.Agent) model {
	input := textarea.New()
	input.ShowLineNumbers = false
	input.CharLimit = 0
	input.SetHeight(inputHeight)
	input.KeyMap.InsertNewline = key.NewBinding(key.WithKeys("alt+enter"))
	input.Focus()

	m := model{
		ctx:      ctx,
		orch:     o,
		renderer: renderer,
		keys:     defaultKeyMap(),
		help:     help.New(),
		input:    input,
		viewport: viewport.New(0, 0),
		spinner:  spinner.New(spinner.WithSpinner(spinner.Dot)),
		picker:   newAgentPicker(agents),
		follow:   true,
		cache:    make(map[string]string),
	}
	m.input.Placeholder = m.placeholder()
	return m
}

func (m model) Init() tea.Cmd {
	return textarea.Blink
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		if m.picker.visible {
			return m.updatePicker(msg)
		}
		return m.handleKey(msg)

	case eventMsg:
		return m.handleEvent(msg.event)

	case submittedMsg:
		switch {
		case errors.Is(msg.err, orchestration.ErrInputLocked):
			m.status = m.orch.T("ui.busy", "Wait for the current answer to finish.")
		case msg.err != nil && !errors.Is(msg.err, orchestration.ErrEmptyInput):
			logger.Debug("turn ended with error", "error", msg.err)
		}
		return m, nil

	case actionMsg:
		m.status = msg.status
		if msg.err != nil {
			m.alert = msg.err.Error()
		}
		var cmd tea.Cmd
		if m.busy && !m.recording && !m.orch.IsLocked() {
			m.busy = false
			cmd = m.input.Focus()
		}
		return m, cmd

	case spinner.TickMsg:
		if !m.busy {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	if m.picker.visible {
		return m, m.picker.update(msg)
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	o := m.orch
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Submit):
		return m.submit()

	case key.Matches(msg, m.keys.SwitchMode):
		if m.mode == modeChat {
			m.mode = modeTranslate
		} else {
			m.mode = modeChat
		}
		m.input.Placeholder = m.placeholder()
		return m, nil

	case key.Matches(msg, m.keys.Voice):
		return m, m.toggleVoice()

	case key.Matches(msg, m.keys.Direction):
		return m, func() tea.Msg {
			o.ToggleTranslationDirection()
			return nil
		}

	case key.Matches(msg, m.keys.Agents):
		if m.picker.empty() {
			m.status = o.T("ui.no_agents", "No other agents available.")
			return m, nil
		}
		m.picker.open(o.AgentID())
		return m, nil

	case key.Matches(msg, m.keys.Prev):
		m.moveSelection(-1)
		return m, nil

	case key.Matches(msg, m.keys.Next):
		m.moveSelection(1)
		return m, nil

	case key.Matches(msg, m.keys.Copy):
		return m, m.copyTurn(false)

	case key.Matches(msg, m.keys.Share):
		return m, m.copyTurn(true)

	case key.Matches(msg, m.keys.Like):
		return m, m.like(true)

	case key.Matches(msg, m.keys.Dislike):
		return m, m.like(false)

	case key.Matches(msg, m.keys.ReadAloud):
		return m, m.readAloud()

	case key.Matches(msg, m.keys.StopAudio):
		return m, func() tea.Msg {
			return actionMsg{err: o.StopReadAloud()}
		}

	case key.Matches(msg, m.keys.ScrollUp):
		m.viewport.SetYOffset(m.viewport.YOffset - m.viewport.Height/2)
		m.follow = m.viewport.AtBottom()
		return m, nil

	case key.Matches(msg, m.keys.ScrollDown):
		m.viewport.SetYOffset(m.viewport.YOffset + m.viewport.Height/2)
		m.follow = m.viewport.AtBottom()
		return m, nil

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		m.resize(m.width, m.height)
		return m, nil
	}

	m.alert = ""
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if value := m.input.Value(); value != o.Draft() {
		o.SetDraft(value)
	}
	return m, cmd
}

func (m model) updatePicker(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if !m.picker.filtering() {
		switch msg.String() {
		case "esc", "ctrl+a":
			m.picker.close()
			return m, nil
		case "ctrl+c":
			return m, tea.Quit
		case "enter":
			agent, ok := m.picker.selected()
			m.picker.close()
			if !ok || agent.ID == m.orch.AgentID() {
				return m, nil
			}
			m.busy = true
			m.input.Blur()
			return m, tea.Batch(m.switchAgent(agent), m.spinner.Tick)
		}
	}
	return m, m.picker.update(msg)
}

func (m model) submit() (tea.Model, tea.Cmd) {
	text := strings.TrimSpace(m.input.Value())
	if m.busy || text == "" {
		return m, nil
	}

	m.input.Reset()
	m.orch.SetDraft("")
	m.busy = true
	m.alert = ""
	m.follow = true
	m.input.Blur()

	o, ctx, target := m.orch, m.ctx, m.mode
	return m, tea.Batch(func() tea.Msg {
		var err error
		if target == modeTranslate {
			_, err = o.Translate(ctx, text)
		} else {
			_, err = o.Ask(ctx, text)
		}
		return submittedMsg{err: err}
	}, m.spinner.Tick)
}

func (m model) handleEvent(event events.Event) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch e := event.(type) {
	case events.TurnStarted:
		m.selected = ""
		m.follow = true
		if !m.busy {
			m.busy = true
			cmd = m.spinner.Tick
		}
		m.input.Blur()
	case events.TurnFailed:
		delete(m.cache, e.TurnKey)
	case events.TurnFinalized:
		delete(m.cache, e.TurnKey)
	case events.InputReleased:
		m.busy = false
		m.input.Placeholder = m.placeholder()
		cmd = m.input.Focus()
	case events.DraftUpdated:
		m.input.SetValue(e.Text)
		m.input.CursorEnd()
	case events.RecordingStarted:
		m.recording = true
		m.busy = true
		m.input.Blur()
		m.status = m.orch.T("ui.recording", "Listening…")
		if e.MaxDuration > 0 {
			m.status += fmt.Sprintf(" (max %s)", e.MaxDuration.Round(time.Second))
		}
		cmd = m.spinner.Tick
	case events.RecordingWarning:
		m.status = fmt.Sprintf("%s %s", m.orch.T("ui.recording_ends", "Recording stops in"), e.Remaining.Round(time.Second))
	case events.RecordingStopped:
		m.recording = false
		m.status = ""
	case events.RecordingDiscarded:
		m.status = m.orch.T("ui.recording_discarded", "Nothing usable was heard.")
	case events.VoiceFailed:
		m.alert = e.Message
	case events.AgentSwitched:
		clear(m.cache)
		m.selected = ""
		m.status = fmt.Sprintf("%s %s", m.orch.T("ui.agent_switched", "Now talking to"), e.AgentID)
	case events.TranslationDirectionChanged:
		m.input.Placeholder = m.placeholder()
		m.status = fmt.Sprintf("%s → %s", e.SourceLanguage, e.TargetLanguage)
	case events.PlaybackStarted:
		m.status = m.orch.T("ui.playing", "Reading aloud…")
	case events.PlaybackEnded:
		m.status = ""
		if e.Err != nil {
			m.alert = e.Err.Error()
		}
	}
	m.refresh()
	return m, cmd
}

// resize lays out the widgets for a terminal of width by height cells.
func (m *model) resize(width, height int) {
	m.width, m.height = width, height
	m.help.Width = width

	m.input.SetWidth(width - inputStyle.GetHorizontalFrameSize())
	chrome := lipgloss.Height(m.headerView()) + 1 + inputHeight + inputStyle.GetVerticalFrameSize() + lipgloss.Height(m.help.View(m.keys))
	m.viewport.Width = width
	m.viewport.Height = max(height-chrome, 1)
	m.picker.setSize(width, height-1)

	if width > 0 && m.renderer != nil && m.renderer.Width() != width-turnStyle.GetHorizontalFrameSize() {
		m.renderer.SetWidth(width - turnStyle.GetHorizontalFrameSize())
		clear(m.cache)
	}
	m.refresh()
}

// refresh rebuilds the transcript content.
func (m *model) refresh() {
	m.viewport.SetContent(m.transcriptView())
	if m.follow {
		m.viewport.GotoBottom()
	}
}

func (m *model) placeholder() string {
	if m.mode == modeChat {
		return m.orch.T("ui.placeholder", "Ask a question…")
	}
	source, target, _ := m.orch.TranslationDirection()
	return fmt.Sprintf("%s (%s → %s)", m.orch.T("ui.translate_placeholder", "Text to translate"), source, target)
}
