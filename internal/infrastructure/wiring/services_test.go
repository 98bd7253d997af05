package wiring

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/harborview/governor/internal/infrastructure/config"
	"github.com/harborview/governor/pkg/domain"
	"github.com/harborview/governor/pkg/domain/aipolicy"
	"github.com/harborview/governor/pkg/domain/planning"
)

func TestBuildInMemory_EndToEnd(t *testing.T) {
	services, err := BuildInMemory()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	defer services.Close()
	ctx := context.Background()

	project, err := services.Project.CreateProject(ctx, "Q4 portfolio", "execution")
	if err != nil {
		t.Fatalf("create project: %v", err)
	}
	initiative, err := services.Initiative.CreateInitiative(ctx, project.ID, "Payments migration")
	if err != nil {
		t.Fatalf("create initiative: %v", err)
	}
	task, err := services.Task.CreateTask(ctx, initiative.ID, "Cut over gateway", planning.PriorityHigh)
	if err != nil {
		t.Fatalf("create task: %v", err)
	}

	if err := services.Task.TransitionTask(ctx, task.ID, planning.TaskInProgress, planning.TransitionContext{Actor: "pm"}); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := services.Task.TransitionTask(ctx, task.ID, planning.TaskDone, planning.TransitionContext{Actor: "pm"}); err != nil {
		t.Fatalf("complete: %v", err)
	}

	got, _ := services.Initiative.GetInitiative(initiative.ID)
	if got.Progress != 100 {
		t.Errorf("initiative progress = %d, want 100", got.Progress)
	}

	if verified, err := services.Audit.VerifyIntegrity(); err != nil {
		t.Errorf("audit chain broken: %v (verified %d)", err, verified)
	}
}

func TestBuildAppServices_SQLite(t *testing.T) {
	services, err := BuildAppServices(filepath.Join(t.TempDir(), "governor.db"))
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	defer services.Close()
	ctx := context.Background()

	project, err := services.Project.CreateProject(ctx, "Persisted", "discovery")
	if err != nil {
		t.Fatalf("create project: %v", err)
	}
	got, err := services.Project.GetProject(project.ID)
	if err != nil {
		t.Fatalf("get project: %v", err)
	}
	if got.Name != "Persisted" {
		t.Errorf("unexpected project: %+v", got)
	}
}

func TestLoadPolicyFile_AppliesToServices(t *testing.T) {
	services, err := BuildInMemory()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	defer services.Close()

	path := filepath.Join(t.TempDir(), "policy.yaml")
	cfg := domain.DefaultPolicyConfig()
	cfg.OrgLevel = aipolicy.LevelAdvisory
	if err := config.SavePolicyConfig(path, cfg); err != nil {
		t.Fatalf("save: %v", err)
	}

	if err := services.LoadPolicyFile(path); err != nil {
		t.Fatalf("load: %v", err)
	}
	if level := services.Policy.EffectiveLevel("any"); level != aipolicy.LevelAdvisory {
		t.Errorf("effective level = %s, want advisory", level)
	}
}
