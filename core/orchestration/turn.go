package orchestration

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"

	"github.com/koscakluka/ema-desk/core/events"
	"github.com/koscakluka/ema-desk/core/streaming"
	"github.com/koscakluka/ema-desk/core/transport"
	"github.com/koscakluka/ema-desk/core/turns"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// turnPlan is what differs between chat and translation turns.
type turnPlan struct {
	kind  turns.Kind
	input turns.Input
	// open issues the request. The session token known at that moment is
	// passed in.
	open func(ctx context.Context, sessionID string) (*transport.Stream, error)
	// sideChannelLinks fetches links by turn and session id once the stream
	// is over.
	sideChannelLinks bool
	// finalized runs after the turn reached the finalized state.
	finalized func(turn turns.Turn)
}

// activeTurn tracks what a single stream has delivered so far.
type activeTurn struct {
	key       string
	text      string
	links     []string
	streaming bool
}

// runTurn takes the input lock, appends a pending turn and drives it through
// the stream until it is finalized or failed. The lock is released on every
// path.
func (o *Orchestrator) runTurn(ctx context.Context, plan turnPlan) (turns.Turn, error) {
	if o.closed.Load() {
		return turns.Turn{}, ErrClosed
	}
	turnCtx, cancel := context.WithCancel(ctx)
	if !o.acquireInput(cancel) {
		cancel()
		return turns.Turn{}, ErrInputLocked
	}

	key := o.transcript.Append(plan.kind, plan.input)
	active := &activeTurn{key: key}
	o.emit(events.NewTurnStarted(key, plan.input.Text))

	turnCtx, span := tracer.Start(turnCtx, "run turn")
	span.SetAttributes(
		attribute.String("turn.kind", string(plan.kind)),
		attribute.String("turn.agent", plan.input.AgentID),
	)
	defer func() {
		final, _ := o.transcript.Get(key)
		span.SetAttributes(attribute.String("turn.status", string(final.Status)))
		span.End()
		recordTurnOutcome(ctx, plan.kind, final.Status)

		o.clearAbort()
		cancel()
		o.releaseInput(key)
	}()

	err := o.streamTurn(turnCtx, plan, active)
	if err != nil {
		if ctxErr := turnCtx.Err(); ctxErr != nil && !errors.Is(err, ctxErr) {
			err = fmt.Errorf("%w: %w", ctxErr, err)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		o.failTurn(key, err)
	}

	turn, _ := o.transcript.Get(key)
	if turn.Status == turns.StatusFinalized && plan.finalized != nil {
		plan.finalized(turn)
	}
	return turn, err
}

func (o *Orchestrator) streamTurn(ctx context.Context, plan turnPlan, active *activeTurn) error {
	stream, err := plan.open(ctx, o.session.ID())
	if err != nil {
		return err
	}
	defer stream.Close()

	span := trace.SpanFromContext(ctx)
	for event, err := range streaming.Decode(ctx, stream.Body) {
		if err != nil {
			return err
		}

		if malformed, ok := event.(events.EntryMalformed); ok {
			logger.Warn("skipping malformed stream entry", "turn", active.key, "error", malformed.Err)
			span.AddEvent("malformed entry skipped")
			continue
		}

		if !active.streaming {
			if _, ok := event.(events.EndOfStream); !ok {
				if err := o.transcript.Update(active.key, (*turns.Turn).StartStreaming); err != nil {
					return err
				}
				active.streaming = true
				span.AddEvent("first entry received")
				o.emit(events.NewTurnStreaming(active.key))
			}
		}

		switch typedEvent := event.(type) {
		case events.SessionAssigned:
			if o.session.Assign(typedEvent.SessionID) {
				logger.Debug("session assigned", "session_id", typedEvent.SessionID)
				span.AddEvent("session assigned", trace.WithAttributes(attribute.String("session.id", typedEvent.SessionID)))
			}
		case events.TurnAssigned:
			if err := o.transcript.Update(active.key, func(turn *turns.Turn) error {
				return turn.AssignID(typedEvent.TurnID)
			}); err != nil {
				logger.Warn("ignoring turn id", "turn", active.key, "error", err)
			} else {
				span.SetAttributes(attribute.String("turn.id", typedEvent.TurnID))
			}
		case events.SourceTranscribed:
			if err := o.transcript.Update(active.key, func(turn *turns.Turn) error {
				turn.Transcription = typedEvent.Text
				return nil
			}); err != nil {
				return err
			}
		case events.ContentFragment:
			active.text += typedEvent.Text
			rendered := o.render(active.text)
			if err := o.transcript.Update(active.key, func(turn *turns.Turn) error {
				if err := turn.AppendText(typedEvent.Text); err != nil {
					return err
				}
				turn.Rendered = rendered
				return nil
			}); err != nil {
				return err
			}
			o.emit(events.NewTurnUpdated(active.key, active.text, rendered))
		case events.LinksUpdated:
			active.links = slices.Clone(typedEvent.Links)
		case events.EndOfStream:
			o.finalizeTurn(ctx, plan, active)
			return nil
		}
	}

	return fmt.Errorf("response stream ended early: %w", io.ErrUnexpectedEOF)
}

func (o *Orchestrator) finalizeTurn(ctx context.Context, plan turnPlan, active *activeTurn) {
	rendered := o.render(active.text)
	links := active.links

	turn, _ := o.transcript.Get(active.key)
	if plan.sideChannelLinks && o.backend.HasLinksEndpoint() && turn.ID != "" {
		fetched, err := o.backend.Links(ctx, turn.ID, o.session.ID())
		if err != nil {
			logger.Warn("failed to fetch turn links", "turn", active.key, "error", err)
		}
		for _, link := range fetched {
			if !slices.Contains(links, link) {
				links = append(links, link)
			}
		}
	}

	if err := o.transcript.Update(active.key, func(turn *turns.Turn) error {
		return turn.Finalize(rendered, links)
	}); err != nil {
		logger.Error("failed to finalize turn", "turn", active.key, "error", err)
		return
	}

	actions := []events.Action{events.ActionCopy, events.ActionShare}
	if turn.ID != "" {
		actions = append(actions, events.ActionLike, events.ActionDislike)
	}
	if o.synthesizer != nil && o.player != nil {
		actions = append(actions, events.ActionReadAloud)
	}
	o.emit(events.NewTurnFinalized(active.key, rendered, links, actions))
}

func (o *Orchestrator) failTurn(key string, cause error) {
	message := o.T(genericErrorKey, defaultGenericError)
	logger.Error("turn failed", "turn", key, "error", cause)
	if err := o.transcript.Update(key, func(turn *turns.Turn) error {
		return turn.Fail(message)
	}); err != nil {
		logger.Warn("failed to mark turn as failed", "turn", key, "error", err)
		return
	}
	o.emit(events.NewTurnFailed(key, message, cause))
}
