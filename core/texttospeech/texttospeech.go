// Package texttospeech synthesizes answers and plays them back, one at a
// time.
package texttospeech

import (
	"context"
	"errors"
)

var ErrPlaybackStopped = errors.New("playback stopped")

// Synthesizer turns text into encoded audio.
type Synthesizer interface {
	Speak(ctx context.Context, text, language string) (audio []byte, contentType string, err error)
}

// Player plays encoded audio. Only one playback is active at a time:
// starting a new one stops and releases the previous one first.
type Player interface {
	Play(ctx context.Context, audio []byte, opts ...PlaybackOption) error
	Stop() error
}
