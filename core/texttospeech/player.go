package texttospeech

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/contrib/bridges/otelslog"
)

const scopeName = "github.com/koscakluka/ema-desk/core/texttospeech"

var logger = otelslog.NewLogger(scopeName)

const stopGracePeriod = 500 * time.Millisecond

// CommandPlayer pipes audio into an external program such as ffplay.
type CommandPlayer struct {
	command []string

	// playMu serializes Play so only one call at a time replaces the active
	// playback.
	playMu sync.Mutex

	mu     sync.Mutex
	active *playback
}

type playback struct {
	cmd     *exec.Cmd
	done    chan struct{}
	stopped bool
}

func NewCommandPlayer(command ...string) (*CommandPlayer, error) {
	if len(command) == 0 || command[0] == "" {
		return nil, errors.New("player command is empty")
	}
	return &CommandPlayer{command: command}, nil
}

// Play starts playing audio in the background, stopping any playback that
// is still running. It returns once the player process is running.
func (p *CommandPlayer) Play(ctx context.Context, audio []byte, opts ...PlaybackOption) error {
	options := PlaybackOptions{}
	for _, opt := range opts {
		opt(&options)
	}

	p.playMu.Lock()
	defer p.playMu.Unlock()

	p.mu.Lock()
	defer p.mu.Unlock()
	// stopLocked drops the lock while waiting, so check again afterwards
	for p.active != nil {
		if err := p.stopLocked(); err != nil {
			logger.Warn("failed to stop previous playback", "error", err)
		}
	}

	cmd := exec.CommandContext(ctx, p.command[0], p.command[1:]...)
	cmd.Stdin = bytes.NewReader(audio)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	cmd.WaitDelay = stopGracePeriod
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start player: %w", err)
	}

	current := &playback{cmd: cmd, done: make(chan struct{})}
	p.active = current

	go func() {
		err := cmd.Wait()

		p.mu.Lock()
		stopped := current.stopped
		if p.active == current {
			p.active = nil
		}
		p.mu.Unlock()
		close(current.done)

		switch {
		case stopped:
			err = ErrPlaybackStopped
		case err != nil:
			if msg := strings.TrimSpace(stderr.String()); msg != "" {
				err = fmt.Errorf("%w: %s", err, msg)
			}
			logger.Warn("player exited with error", "error", err)
		}
		if options.EndedCallback != nil {
			options.EndedCallback(err)
		}
	}()
	return nil
}

// Stop stops the active playback and waits for the player to exit.
func (p *CommandPlayer) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stopLocked()
}

func (p *CommandPlayer) stopLocked() error {
	current := p.active
	if current == nil {
		return nil
	}
	current.stopped = true
	p.active = nil

	if err := current.cmd.Process.Signal(os.Interrupt); err != nil && !errors.Is(err, os.ErrProcessDone) {
		_ = current.cmd.Process.Kill()
	}

	// the wait goroutine needs the lock to finish
	p.mu.Unlock()
	defer p.mu.Lock()
	select {
	case <-current.done:
	case <-time.After(stopGracePeriod):
		_ = current.cmd.Process.Kill()
		<-current.done
	}
	return nil
}
