package texttospeech

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func waitEnded(t *testing.T, ended <-chan error) error {
	t.Helper()
	select {
	case err := <-ended:
		return err
	case <-time.After(3 * time.Second):
		t.Fatalf("timed out waiting for playback to end")
	}
	return nil
}

func TestCommandPlayerPipesAudio(t *testing.T) {
	out := filepath.Join(t.TempDir(), "played.mp3")
	player, err := NewCommandPlayer("sh", "-c", "cat > "+out)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ended := make(chan error, 1)
	if err := player.Play(context.Background(), []byte("ID3 audio"), WithEndedCallback(func(err error) {
		ended <- err
	})); err != nil {
		t.Fatalf("play failed: %v", err)
	}
	if err := waitEnded(t, ended); err != nil {
		t.Fatalf("expected clean end, got %v", err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if string(data) != "ID3 audio" {
		t.Fatalf("unexpected audio %q", data)
	}
}

func TestCommandPlayerNewPlaybackStopsPrevious(t *testing.T) {
	player, err := NewCommandPlayer("sh", "-c", "exec sleep 5")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	first := make(chan error, 1)
	if err := player.Play(context.Background(), nil, WithEndedCallback(func(err error) { first <- err })); err != nil {
		t.Fatalf("play failed: %v", err)
	}
	second := make(chan error, 1)
	if err := player.Play(context.Background(), nil, WithEndedCallback(func(err error) { second <- err })); err != nil {
		t.Fatalf("play failed: %v", err)
	}

	if err := waitEnded(t, first); !errors.Is(err, ErrPlaybackStopped) {
		t.Fatalf("expected first playback to be stopped, got %v", err)
	}

	if err := player.Stop(); err != nil {
		t.Fatalf("stop failed: %v", err)
	}
	if err := waitEnded(t, second); !errors.Is(err, ErrPlaybackStopped) {
		t.Fatalf("expected second playback to be stopped, got %v", err)
	}
	if err := player.Stop(); err != nil {
		t.Fatalf("expected stopping an idle player to succeed, got %v", err)
	}
}

func TestCommandPlayerConcurrentPlaysLeaveOnePlaying(t *testing.T) {
	player, err := NewCommandPlayer("sh", "-c", "exec sleep 5")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	const plays = 4
	ended := make(chan error, plays)
	var wg sync.WaitGroup
	for range plays {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := player.Play(context.Background(), nil, WithEndedCallback(func(err error) { ended <- err })); err != nil {
				t.Errorf("play failed: %v", err)
			}
		}()
	}
	wg.Wait()

	for i := 0; i < plays-1; i++ {
		if err := waitEnded(t, ended); !errors.Is(err, ErrPlaybackStopped) {
			t.Fatalf("expected replaced playback to be stopped, got %v", err)
		}
	}
	select {
	case err := <-ended:
		t.Fatalf("expected one playback to keep running, got end %v", err)
	case <-time.After(100 * time.Millisecond):
	}

	if err := player.Stop(); err != nil {
		t.Fatalf("stop failed: %v", err)
	}
	if err := waitEnded(t, ended); !errors.Is(err, ErrPlaybackStopped) {
		t.Fatalf("expected last playback to be stopped, got %v", err)
	}
}

func TestNewCommandPlayerRejectsEmptyCommand(t *testing.T) {
	if _, err := NewCommandPlayer(); err == nil {
		t.Fatalf("expected error for empty command")
	}
}
