package orchestration

import (
	"context"
	"fmt"
	"strings"

	"github.com/koscakluka/ema-desk/core/turns"
)

func (o *Orchestrator) assignedTurnID(turnKey string) (string, error) {
	turn, ok := o.transcript.Get(turnKey)
	if !ok {
		return "", turns.ErrTurnNotFound
	}
	if turn.ID == "" {
		return "", ErrTurnUnassigned
	}
	return turn.ID, nil
}

// Like records a vote on a turn. The call to the backend happens in the
// background and its outcome is only logged.
func (o *Orchestrator) Like(ctx context.Context, turnKey string, like bool) error {
	questionID, err := o.assignedTurnID(turnKey)
	if err != nil {
		return err
	}

	o.goWorker(ctx, "feedback", func(ctx context.Context) error {
		resp, err := o.backend.Like(ctx, questionID, like)
		if err != nil {
			return err
		}
		if !resp.OK() {
			return fmt.Errorf("vote rejected: %s", resp.Message)
		}
		logger.Debug("vote recorded", "question_id", questionID, "like", like)
		return nil
	})
	return nil
}

// Comment attaches a free-text comment to a turn in the background.
func (o *Orchestrator) Comment(ctx context.Context, turnKey, comment string) error {
	comment = strings.TrimSpace(comment)
	if comment == "" {
		return ErrEmptyInput
	}
	questionID, err := o.assignedTurnID(turnKey)
	if err != nil {
		return err
	}

	o.goWorker(ctx, "comment", func(ctx context.Context) error {
		resp, err := o.backend.Comment(ctx, questionID, comment)
		if err != nil {
			return err
		}
		if !resp.OK() {
			return fmt.Errorf("comment rejected: %s", resp.Message)
		}
		logger.Debug("comment recorded", "question_id", questionID)
		return nil
	})
	return nil
}
