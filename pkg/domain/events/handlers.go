package events

import (
	"context"
	"log/slog"
)

// LoggingHandler writes every dispatched event to structured logs. Registered
// as a wildcard handler so the log stream mirrors the event stream.
type LoggingHandler struct {
	logger *slog.Logger
}

// NewLoggingHandler creates a logging handler.
func NewLoggingHandler(logger *slog.Logger) *LoggingHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoggingHandler{logger: logger}
}

// Handle logs the event. Deadlocks log at warning; everything else at info.
func (h *LoggingHandler) Handle(ctx context.Context, event DomainEvent) error {
	attrs := []any{
		"event", event.EventType(),
		"aggregate_id", event.AggregateID(),
	}
	if base, ok := event.(BaseEvent); ok {
		for k, v := range base.Payload {
			attrs = append(attrs, k, v)
		}
	}
	if event.EventType() == TypeDeadlockDetected {
		h.logger.WarnContext(ctx, "governance event", attrs...)
		return nil
	}
	h.logger.InfoContext(ctx, "governance event", attrs...)
	return nil
}
