package turns

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jinzhu/copier"
)

// Transcript is the ordered, append-only list of turns shown to the user.
// A turn's position never changes after it is appended; only its content and
// status change until it reaches a terminal status.
type Transcript struct {
	mu    sync.RWMutex
	turns []*Turn
	index map[string]int
}

func NewTranscript() *Transcript {
	return &Transcript{index: map[string]int{}}
}

// Append adds a new pending turn at the end and returns its key.
func (t *Transcript) Append(kind Kind, input Input) string {
	t.mu.Lock()
	defer t.mu.Unlock()

	turn := &Turn{
		Key:       uuid.NewString(),
		Kind:      kind,
		Input:     input,
		Status:    StatusPending,
		CreatedAt: time.Now(),
	}
	if t.index == nil {
		t.index = map[string]int{}
	}
	t.index[turn.Key] = len(t.turns)
	t.turns = append(t.turns, turn)
	return turn.Key
}

// Update runs update against the turn identified by key. Turns that already
// reached a terminal status are rejected with [ErrTurnImmutable].
func (t *Transcript) Update(key string, update func(*Turn) error) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	idx, ok := t.index[key]
	if !ok {
		return fmt.Errorf("%w: %s", ErrTurnNotFound, key)
	}
	turn := t.turns[idx]
	if !turn.IsMutable() {
		return ErrTurnImmutable
	}
	return update(turn)
}

// Get returns a copy of the turn identified by key.
func (t *Transcript) Get(key string) (Turn, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	idx, ok := t.index[key]
	if !ok {
		return Turn{}, false
	}
	return cloneTurn(t.turns[idx]), true
}

// Last returns a copy of the most recently appended turn.
func (t *Transcript) Last() (Turn, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if len(t.turns) == 0 {
		return Turn{}, false
	}
	return cloneTurn(t.turns[len(t.turns)-1]), true
}

func (t *Transcript) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return len(t.turns)
}

// Snapshot returns deep copies of all turns, earliest first.
func (t *Transcript) Snapshot() []Turn {
	t.mu.RLock()
	defer t.mu.RUnlock()

	snapshot := make([]Turn, 0, len(t.turns))
	for _, turn := range t.turns {
		snapshot = append(snapshot, cloneTurn(turn))
	}
	return snapshot
}

// Values is an iterator over copies of all turns, earliest first.
func (t *Transcript) Values(yield func(Turn) bool) {
	for _, turn := range t.Snapshot() {
		if !yield(turn) {
			return
		}
	}
}

// Clear removes all turns. It is only meant for switching agents.
func (t *Transcript) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.turns = nil
	t.index = map[string]int{}
}

func cloneTurn(turn *Turn) Turn {
	clone := *turn
	clone.Links = nil
	if len(turn.Links) > 0 {
		if err := copier.CopyWithOption(&clone.Links, &turn.Links, copier.Option{DeepCopy: true}); err != nil {
			clone.Links = append([]string(nil), turn.Links...)
		}
	}
	return clone
}
