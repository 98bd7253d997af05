package cli

import (
	"context"
	"os"

	"github.com/harborview/governor/internal/infrastructure/wiring"
	"github.com/harborview/governor/pkg/application"
)

var dbPath string

// loadServices builds the service graph over the configured database.
// Callers own Close.
func loadServices() (*wiring.AppServices, error) {
	path := dbPath
	if path == "" {
		path = os.Getenv("GOVERNOR_DB")
	}
	if path == "" {
		path = "governor.db"
	}
	return wiring.BuildAppServices(path)
}

// currentActor identifies the invoking user for audit attribution.
func currentActor() string {
	actor := os.Getenv("USER")
	if actor == "" {
		actor = "unknown-human"
	}
	return actor
}

// actorContext returns a context carrying the invoking user as actor.
func actorContext(ctx context.Context) context.Context {
	return application.WithActor(ctx, currentActor())
}
