package observability

import (
	"context"
	"log/slog"
)

// promotedKeys are the identifiers an operator greps logs by most: task,
// chain, and workflow identity, plus the task type involved. When present
// in an event's Data they're emitted first and in this order, ahead of
// whatever else the event carries, so they land in the same column across
// every task.*, workflow.*, and durable event type instead of wherever
// map iteration happens to place them.
var promotedKeys = []string{"task_id", "chain_id", "workflow_id", "task_type"}

// SlogObserver emits events to a slog.Logger. Event levels are mapped via
// SlogLevel, the event type becomes the log message, promoted identity keys
// are emitted first in a stable order, and the rest of Data is flattened as
// top-level slog attributes.
type SlogObserver struct {
	logger *slog.Logger
}

// NewSlogObserver creates a SlogObserver that emits to the given logger.
func NewSlogObserver(logger *slog.Logger) *SlogObserver {
	return &SlogObserver{logger: logger}
}

func (o *SlogObserver) OnEvent(ctx context.Context, event Event) {
	attrs := make([]slog.Attr, 0, len(event.Data)+1)
	attrs = append(attrs, slog.String("source", event.Source))

	seen := make(map[string]bool, len(promotedKeys))
	for _, k := range promotedKeys {
		if v, ok := event.Data[k]; ok {
			attrs = append(attrs, slog.Any(k, v))
			seen[k] = true
		}
	}
	for k, v := range event.Data {
		if seen[k] {
			continue
		}
		attrs = append(attrs, slog.Any(k, v))
	}

	o.logger.LogAttrs(ctx, event.Level.SlogLevel(), string(event.Type), attrs...)
}
