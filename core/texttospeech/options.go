package texttospeech

type PlaybackOptions struct {
	// EndedCallback is called once playback finishes, is stopped or fails.
	// err is nil for playback that ran to the end and [ErrPlaybackStopped]
	// for playback that was superseded or stopped.
	EndedCallback func(err error)
}

type PlaybackOption func(*PlaybackOptions)

func WithEndedCallback(callback func(err error)) PlaybackOption {
	return func(o *PlaybackOptions) {
		o.EndedCallback = callback
	}
}
