package speechtotext

import (
	"time"

	"github.com/koscakluka/ema-desk/core/audio"
)

type RecognitionOptions struct {
	// Language is an ISO-639-1 hint, empty lets the recognizer detect it.
	Language string

	// WarningCallback is called once when the recording is close to its
	// length limit, with the time remaining.
	WarningCallback func(remaining time.Duration)
	// LimitReachedCallback is called when the recording was stopped by its
	// length limit rather than by the user.
	LimitReachedCallback func()
	// DiscardedCallback is called when captured speech is dropped instead of
	// being delivered.
	DiscardedCallback func(text string, reason DiscardReason)

	EncodingInfo audio.EncodingInfo
}

type RecognitionOption func(*RecognitionOptions)

// NewRecognitionOptions applies opts over the defaults.
func NewRecognitionOptions(opts ...RecognitionOption) RecognitionOptions {
	options := RecognitionOptions{EncodingInfo: audio.GetDefaultEncodingInfo()}
	for _, opt := range opts {
		opt(&options)
	}
	return options
}

func WithLanguage(language string) RecognitionOption {
	return func(o *RecognitionOptions) {
		o.Language = language
	}
}

func WithWarningCallback(callback func(remaining time.Duration)) RecognitionOption {
	return func(o *RecognitionOptions) {
		o.WarningCallback = callback
	}
}

func WithLimitReachedCallback(callback func()) RecognitionOption {
	return func(o *RecognitionOptions) {
		o.LimitReachedCallback = callback
	}
}

func WithDiscardedCallback(callback func(text string, reason DiscardReason)) RecognitionOption {
	return func(o *RecognitionOptions) {
		o.DiscardedCallback = callback
	}
}

func WithEncodingInfo(encodingInfo audio.EncodingInfo) RecognitionOption {
	return func(o *RecognitionOptions) {
		o.EncodingInfo = encodingInfo
	}
}

func (o RecognitionOptions) Warn(remaining time.Duration) {
	if o.WarningCallback != nil {
		o.WarningCallback(remaining)
	}
}

func (o RecognitionOptions) LimitReached() {
	if o.LimitReachedCallback != nil {
		o.LimitReachedCallback()
	}
}

func (o RecognitionOptions) Discard(text string, reason DiscardReason) {
	if o.DiscardedCallback != nil {
		o.DiscardedCallback(text, reason)
	}
}
