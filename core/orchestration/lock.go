package orchestration

import "context"

// inputLock admits one turn or voice session at a time. A second attempt is
// rejected, never queued.
type inputLock chan struct{}

func newInputLock() inputLock {
	return make(inputLock, 1)
}

func (l inputLock) TryAcquire() bool {
	select {
	case l <- struct{}{}:
		return true
	default:
		return false
	}
}

// Acquire waits for the lock. It is only used by agent switches, which must
// wait for the in-flight turn to unwind.
func (l inputLock) Acquire(ctx context.Context) error {
	select {
	case l <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (l inputLock) Release() {
	select {
	case <-l:
	default:
	}
}

func (l inputLock) Held() bool {
	return len(l) > 0
}
