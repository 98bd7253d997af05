// Package wiring assembles the governance engine: storage, audit chain,
// policy resolution, the domain services, and event fan-out.
package wiring

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/harborview/governor/internal/infrastructure/config"
	"github.com/harborview/governor/pkg/application"
	"github.com/harborview/governor/pkg/domain"
	"github.com/harborview/governor/pkg/domain/audit"
	"github.com/harborview/governor/pkg/domain/events"
	"github.com/harborview/governor/pkg/storage"
)

// AppServices exposes the application layer wired over one repository.
type AppServices struct {
	Repo       domain.Repository
	Audit      *application.AuditService
	Policy     *application.PolicyService
	Project    *application.ProjectService
	Initiative *application.InitiativeService
	Task       *application.TaskService
	Dependency *application.DependencyService
	Gate       *application.GateService
	Action     *application.ActionService
	Events     *events.Dispatcher

	closer func() error
}

// BuildAppServices constructs the service graph over a SQLite database at
// dbPath. Use ":memory:" for an ephemeral engine.
func BuildAppServices(dbPath string) (*AppServices, error) {
	repo, err := storage.OpenSQLite(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	services, err := buildOver(repo, storage.NewSQLiteAuditStore(repo))
	if err != nil {
		repo.Close()
		return nil, err
	}
	services.closer = repo.Close
	return services, nil
}

// BuildInMemory constructs the service graph over the in-memory repository.
func BuildInMemory() (*AppServices, error) {
	repo := storage.NewMemoryRepository()
	return buildOver(repo, repo)
}

func buildOver(repo domain.Repository, auditStore audit.Store) (*AppServices, error) {
	auditSvc := application.NewAuditService(auditStore)
	policySvc, err := application.NewPolicyService(repo)
	if err != nil {
		return nil, fmt.Errorf("policy service: %w", err)
	}
	dispatcher := events.NewDispatcher()

	services := &AppServices{
		Repo:       repo,
		Audit:      auditSvc,
		Policy:     policySvc,
		Project:    application.NewProjectService(repo, auditSvc),
		Initiative: application.NewInitiativeService(repo, auditSvc, policySvc, dispatcher),
		Task:       application.NewTaskService(repo, auditSvc, policySvc, dispatcher),
		Dependency: application.NewDependencyService(repo, auditSvc, dispatcher),
		Gate:       application.NewGateService(repo, auditSvc, dispatcher),
		Events:     dispatcher,
	}
	services.Action = application.NewActionService(repo, auditSvc, policySvc, dispatcher)
	application.RegisterDefaultAppliers(services.Action, services.Task, services.Initiative, services.Dependency, repo)
	return services, nil
}

// Close releases the underlying storage.
func (s *AppServices) Close() error {
	if s.closer != nil {
		return s.closer()
	}
	return nil
}

// LoadPolicyFile activates the policy from a file, overriding whatever the
// repository holds.
func (s *AppServices) LoadPolicyFile(path string) error {
	cfg, err := config.LoadPolicyConfig(path)
	if err != nil {
		return err
	}
	return s.Policy.Apply(cfg)
}

// WatchPolicyFile hot-reloads the policy file until the context is
// cancelled. Every accepted reload lands on the audit chain; a rejected one
// is logged and the previous policy stays active.
func (s *AppServices) WatchPolicyFile(ctx context.Context, path string, logger *slog.Logger) error {
	watcher := config.NewPolicyWatcher(path,
		func(cfg *domain.PolicyConfig) {
			if err := s.Policy.Apply(cfg); err != nil {
				logger.Warn("policy reload rejected", "path", path, "error", err)
				return
			}
			logger.Info("policy reloaded", "path", path,
				"org_level", string(cfg.OrgLevel), "platform_ceiling", string(cfg.PlatformCeiling))
			_ = s.Audit.Log("policy.reload", "system", map[string]interface{}{
				"path":      path,
				"org_level": string(cfg.OrgLevel),
			})
		},
		func(err error) {
			logger.Warn("policy watch error", "path", path, "error", err)
		},
	)
	return watcher.Run(ctx)
}
