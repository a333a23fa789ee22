// Package portaudio captures microphone audio through PortAudio.
package portaudio

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/gordonklaus/portaudio"
	"github.com/koscakluka/ema-desk/core/audio"
	"go.opentelemetry.io/contrib/bridges/otelslog"
)

const scopeName = "github.com/koscakluka/ema-desk/core/audio/portaudio"

var logger = otelslog.NewLogger(scopeName)

type Client struct {
	encoding audio.EncodingInfo
	stream   *portaudio.Stream
	in       []int16

	mu      sync.Mutex
	cancel  context.CancelFunc
	stopped chan struct{}
}

// NewClient opens the default input device. bufferSize is the number of
// frames read per callback.
func NewClient(encoding audio.EncodingInfo, bufferSize int) (*Client, error) {
	if encoding.IsZero() {
		encoding = audio.GetDefaultEncodingInfo()
	}
	if encoding.Format != audio.EncodingLinear16 {
		return nil, fmt.Errorf("unsupported capture encoding %q", encoding.Format.Name())
	}
	if encoding.Channels <= 0 {
		encoding.Channels = audio.DefaultChannels
	}
	if bufferSize <= 0 {
		bufferSize = 1024
	}

	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize PortAudio: %w", err)
	}

	in := make([]int16, bufferSize*encoding.Channels)
	stream, err := portaudio.OpenDefaultStream(encoding.Channels, 0, float64(encoding.SampleRate), bufferSize, in)
	if err != nil {
		_ = portaudio.Terminate()
		return nil, fmt.Errorf("failed to open PortAudio stream: %w", err)
	}

	return &Client{
		encoding: encoding,
		stream:   stream,
		in:       in,
	}, nil
}

// StartCapture reads from the device on a separate goroutine until
// [Client.StopCapture] is called or ctx is done.
func (c *Client) StartCapture(ctx context.Context, onAudio func(audio []byte)) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		return nil
	}

	if err := c.stream.Start(); err != nil {
		return fmt.Errorf("failed to start PortAudio stream: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	stopped := make(chan struct{})
	c.cancel = cancel
	c.stopped = stopped

	go func() {
		defer close(stopped)
		buf := make([]byte, len(c.in)*2)
		for ctx.Err() == nil {
			if err := c.stream.Read(); err != nil {
				if errors.Is(err, portaudio.InputOverflowed) {
					continue
				}
				logger.Error("failed to read from PortAudio stream", "error", err)
				return
			}
			for i, sample := range c.in {
				buf[2*i] = byte(sample)
				buf[2*i+1] = byte(sample >> 8)
			}
			onAudio(buf)
		}
	}()
	return nil
}

func (c *Client) StopCapture() error {
	c.mu.Lock()
	cancel, stopped := c.cancel, c.stopped
	c.cancel, c.stopped = nil, nil
	c.mu.Unlock()
	if cancel == nil {
		return nil
	}

	cancel()
	<-stopped
	if err := c.stream.Stop(); err != nil {
		return fmt.Errorf("failed to stop PortAudio stream: %w", err)
	}
	return nil
}

func (c *Client) EncodingInfo() audio.EncodingInfo {
	return c.encoding
}

func (c *Client) Close() {
	_ = c.StopCapture()
	_ = c.stream.Close()
	_ = portaudio.Terminate()
}
