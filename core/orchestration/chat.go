package orchestration

import (
	"context"
	"strings"

	"github.com/koscakluka/ema-desk/core/backend"
	"github.com/koscakluka/ema-desk/core/transport"
	"github.com/koscakluka/ema-desk/core/turns"
)

// Ask sends a question to the active agent and blocks until the answer is
// finalized or failed. It returns ErrInputLocked without touching the
// transcript while another turn or a recording is in progress.
func (o *Orchestrator) Ask(ctx context.Context, question string) (turns.Turn, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return turns.Turn{}, ErrEmptyInput
	}

	agentID := o.AgentID()
	return o.runTurn(ctx, turnPlan{
		kind:  turns.KindChat,
		input: turns.Input{Text: question, AgentID: agentID},
		open: func(ctx context.Context, sessionID string) (*transport.Stream, error) {
			return o.backend.Query(ctx, backend.QueryRequest{
				Question:  question,
				Agent:     agentID,
				Language:  o.language,
				Timezone:  o.timezone,
				Locale:    o.locale,
				SessionID: sessionID,
			})
		},
		sideChannelLinks: true,
	})
}
