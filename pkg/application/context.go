package application

import (
	"context"
	"time"
)

type contextKey string

const actorKey contextKey = "actor"

// nowFn is swapped in tests that need deterministic timestamps.
var nowFn = time.Now

// WithActor records the acting identity on the context. Services stamp it
// into the audit trail of every mutation they perform.
func WithActor(ctx context.Context, actor string) context.Context {
	return context.WithValue(ctx, actorKey, actor)
}

// actorFrom extracts the acting identity, defaulting to "system".
func actorFrom(ctx context.Context) string {
	if ctx != nil {
		if actor, ok := ctx.Value(actorKey).(string); ok && actor != "" {
			return actor
		}
	}
	return "system"
}

// actorOr prefers an explicitly supplied actor over the context one.
func actorOr(actor string, ctx context.Context) string {
	if actor != "" {
		return actor
	}
	return actorFrom(ctx)
}
