package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"go.opentelemetry.io/otel/exporters/stdout/stdoutlog"
	"go.opentelemetry.io/otel/log/global"
	sdklog "go.opentelemetry.io/otel/sdk/log"
)

// The core packages log through otelslog, so their records only surface once
// a real LoggerProvider is installed. Package loggers bind to the first
// provider set globally, hence it is installed once and only its output is
// switched between runs.
var (
	logOutput      = &switchWriter{w: io.Discard}
	installLogging sync.Once
)

type switchWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *switchWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}

func (s *switchWriter) set(w io.Writer) {
	s.mu.Lock()
	s.w = w
	s.mu.Unlock()
}

func installLoggerProvider() {
	exporter, err := stdoutlog.New(stdoutlog.WithWriter(logOutput))
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to create log exporter:", err)
		return
	}
	global.SetLoggerProvider(sdklog.NewLoggerProvider(
		sdklog.WithProcessor(sdklog.NewSimpleProcessor(exporter)),
	))
}

func setupLogging(w io.Writer) {
	installLogging.Do(installLoggerProvider)

	if !verbose {
		logOutput.set(io.Discard)
		slog.SetDefault(slog.New(slog.DiscardHandler))
		return
	}
	logOutput.set(w)
	slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug})))
}
