// Package tui is the interactive terminal interface of emadesk: a transcript
// view above an input box, driven by orchestrator events.
package tui

import (
	"context"
	"errors"
	"os"
	"sync/atomic"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/koscakluka/ema-desk/core/backend"
	"github.com/koscakluka/ema-desk/core/events"
	"github.com/koscakluka/ema-desk/core/orchestration"
	"go.opentelemetry.io/contrib/bridges/otelslog"
	"golang.org/x/term"
)

const scopeName = "github.com/koscakluka/ema-desk/internal/tui"

var logger = otelslog.NewLogger(scopeName)

// IsTTY reports whether stdout is a terminal.
func IsTTY() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// App owns the running program. Events handed to HandleEvent before Run or
// after it returns are dropped.
type App struct {
	agents  []backend.Agent
	program atomic.Pointer[tea.Program]
}

func New(agents []backend.Agent) *App {
	return &App{agents: agents}
}

// HandleEvent forwards an orchestrator event to the program. It blocks until
// the program accepts it, so it must not be called from inside Update.
func (a *App) HandleEvent(event events.Event) {
	if p := a.program.Load(); p != nil {
		p.Send(eventMsg{event: event})
	}
}

// Run blocks until the user quits or ctx is cancelled.
func (a *App) Run(ctx context.Context, o *orchestration.Orchestrator, renderer *MarkdownRenderer) error {
	p := tea.NewProgram(newModel(ctx, o, renderer, a.agents),
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)
	a.program.Store(p)
	defer a.program.Store(nil)

	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
