package orchestration

import (
	"context"

	"github.com/koscakluka/ema-desk/core/turns"
	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const scopeName = "github.com/koscakluka/ema-desk/core/orchestration"

var (
	tracer = otel.Tracer(scopeName)
	meter  = otel.Meter(scopeName)
	logger = otelslog.NewLogger(scopeName)
)

var turnCounter metric.Int64Counter

func init() {
	counter, err := meter.Int64Counter("emadesk.turns",
		metric.WithDescription("Streamed turns by kind and outcome"),
		metric.WithUnit("{turn}"),
	)
	if err != nil {
		logger.Warn("failed to create turn counter", "error", err)
		return
	}
	turnCounter = counter
}

func recordTurnOutcome(ctx context.Context, kind turns.Kind, status turns.Status) {
	if turnCounter == nil {
		return
	}
	turnCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("turn.kind", string(kind)),
		attribute.String("turn.status", string(status)),
	))
}
