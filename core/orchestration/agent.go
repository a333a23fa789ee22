package orchestration

import (
	"context"
	"fmt"

	"github.com/koscakluka/ema-desk/core/agents"
	"github.com/koscakluka/ema-desk/core/events"
)

// SwitchAgent makes agentID the active agent and starts a new conversation.
// A turn in flight is aborted and a recording is stopped first. The new
// catalog is loaded before anything is cleared, so a failed load leaves the
// current conversation untouched.
func (o *Orchestrator) SwitchAgent(ctx context.Context, agentID string) error {
	if o.agentLoader == nil {
		return ErrNoAgentLoader
	}
	if o.closed.Load() {
		return ErrClosed
	}

	ctx, span := tracer.Start(ctx, "switch agent")
	defer span.End()

	o.mu.Lock()
	o.switching++
	o.mu.Unlock()
	defer func() {
		o.mu.Lock()
		o.switching--
		o.mu.Unlock()
	}()

	// Whoever took the input before the switch was registered is stopped
	// here, nobody can take it afterwards.
	o.abortHolder()
	if err := o.lock.Acquire(ctx); err != nil {
		return fmt.Errorf("failed to wait for input: %w", err)
	}
	defer o.releaseInput("")

	catalog, err := o.agentLoader.Load(ctx, agentID)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to load agent %q: %w", agentID, err)
	}

	o.transcript.Clear()
	if previous := o.session.Reset(); previous != "" {
		if _, err := o.backend.ResetSession(ctx, previous); err != nil {
			logger.Warn("failed to reset backend session", "session_id", previous, "error", err)
		}
	}

	o.mu.Lock()
	o.agentID = agentID
	o.catalog = catalog
	o.mu.Unlock()

	logger.Info("agent switched", "agent", agentID)
	o.emit(events.NewAgentSwitched(agentID))
	return nil
}

// Agent returns the active agent id and catalog together.
func (o *Orchestrator) Agent() (string, *agents.Catalog) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.agentID, o.catalog
}
