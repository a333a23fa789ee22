package events

import "time"

type Kind string

type Event interface {
	Kind() Kind
	Timestamp() time.Time
}

type Base struct {
	kind      Kind
	timestamp time.Time
}

func NewBase(kind Kind) Base {
	return Base{kind: kind, timestamp: time.Now()}
}

func (b Base) Kind() Kind {
	return b.kind
}

func (b Base) Timestamp() time.Time {
	return b.timestamp
}

// IsStreamEvent reports whether the event was decoded from a response stream.
func IsStreamEvent(event Event) bool {
	switch event.(type) {
	case SessionAssigned, TurnAssigned, SourceTranscribed, ContentFragment,
		LinksUpdated, EntryMalformed, EndOfStream:
		return true
	}
	return false
}
