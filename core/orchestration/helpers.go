package orchestration

import (
	"context"
	"fmt"
)

func withContextCancelHook(ctx context.Context, onContextDone func()) chan struct{} {
	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			onContextDone()
		case <-done:
		}
	}()
	return done
}

type workerRun func(context.Context) error

func panicSafeNamedWorker(name string, run func(context.Context) error) workerRun {
	return func(ctx context.Context) (err error) {
		defer func() {
			if recovered := recover(); recovered != nil {
				err = fmt.Errorf("%s worker panicked: %v", name, recovered)
			}
		}()

		if err = run(ctx); err != nil {
			return fmt.Errorf("%s worker failed: %w", name, err)
		}

		return nil
	}
}

// goWorker runs a named worker in the background. Its error is only logged.
func (o *Orchestrator) goWorker(ctx context.Context, name string, run func(context.Context) error) {
	worker := panicSafeNamedWorker(name, run)
	o.workers.Add(1)
	go func() {
		defer o.workers.Done()
		if err := worker(context.WithoutCancel(ctx)); err != nil {
			logger.Warn("background worker failed", "worker", name, "error", err)
		}
	}()
}
