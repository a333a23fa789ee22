package events

const (
	// KindPlaybackStarted identifies start of read-aloud playback.
	KindPlaybackStarted Kind = "assistant_playback.started"
	// KindPlaybackEnded identifies end of read-aloud playback.
	KindPlaybackEnded Kind = "assistant_playback.ended"
)

// PlaybackStarted marks that a turn is being read aloud.
type PlaybackStarted struct {
	Base
	TurnKey string
}

// NewPlaybackStarted creates a playback started event.
func NewPlaybackStarted(turnKey string) PlaybackStarted {
	return PlaybackStarted{Base: NewBase(KindPlaybackStarted), TurnKey: turnKey}
}

// PlaybackEnded marks that read-aloud playback of a turn ended, either
// naturally, by being replaced, or with an error.
type PlaybackEnded struct {
	Base
	TurnKey string
	Err     error
}

// NewPlaybackEnded creates a playback ended event.
func NewPlaybackEnded(turnKey string, err error) PlaybackEnded {
	return PlaybackEnded{Base: NewBase(KindPlaybackEnded), TurnKey: turnKey, Err: err}
}
