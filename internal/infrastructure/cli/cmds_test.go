package cli

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// runCmd executes a command line against the shared RootCmd and captures
// stdout. The commands print with fmt.Printf, so swap os.Stdout for a pipe.
func runCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	old := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}
	os.Stdout = w

	RootCmd.SetArgs(args)
	execErr := RootCmd.Execute()

	w.Close()
	os.Stdout = old
	out, _ := io.ReadAll(r)
	return string(out), execErr
}

// field extracts the nth whitespace-separated field from the first line.
func field(t *testing.T, out string, n int) string {
	t.Helper()
	line := strings.SplitN(out, "\n", 2)[0]
	fields := strings.Fields(line)
	if len(fields) <= n {
		t.Fatalf("expected at least %d fields in %q", n+1, line)
	}
	return fields[n]
}

func TestCommands_EndToEnd(t *testing.T) {
	dbPath = filepath.Join(t.TempDir(), "governor.db")
	defer func() { dbPath = "" }()
	RootCmd.SilenceUsage = true
	RootCmd.SilenceErrors = true

	out, err := runCmd(t, "project", "create", "Apollo")
	if err != nil {
		t.Fatalf("project create: %v", err)
	}
	projectID := field(t, out, 2)

	out, err = runCmd(t, "initiative", "create", projectID, "Ground Systems")
	if err != nil {
		t.Fatalf("initiative create: %v", err)
	}
	initiativeID := field(t, out, 2)

	out, err = runCmd(t, "task", "create", initiativeID, "Procure antennas", "--priority", "high")
	if err != nil {
		t.Fatalf("task create: %v", err)
	}
	taskID := field(t, out, 2)

	if _, err = runCmd(t, "task", "status", taskID, "in_progress"); err != nil {
		t.Fatalf("task status: %v", err)
	}
	if _, err = runCmd(t, "task", "progress", taskID, "40"); err != nil {
		t.Fatalf("task progress: %v", err)
	}

	out, err = runCmd(t, "task", "list", initiativeID)
	if err != nil {
		t.Fatalf("task list: %v", err)
	}
	if !strings.Contains(out, "in_progress") || !strings.Contains(out, "40%") {
		t.Errorf("task list missing status or progress:\n%s", out)
	}

	out, err = runCmd(t, "initiative", "list", projectID)
	if err != nil {
		t.Fatalf("initiative list: %v", err)
	}
	if !strings.Contains(out, "40%") {
		t.Errorf("initiative progress not rolled up:\n%s", out)
	}

	out, err = runCmd(t, "audit", "logs", "--project", projectID)
	if err != nil {
		t.Fatalf("audit logs: %v", err)
	}
	if !strings.Contains(out, "transition") {
		t.Errorf("audit logs missing transition entries:\n%s", out)
	}

	out, err = runCmd(t, "audit", "verify")
	if err != nil {
		t.Fatalf("audit verify: %v", err)
	}
	if !strings.Contains(out, "intact") {
		t.Errorf("unexpected verify output: %q", out)
	}
}

func TestCommands_GateFlow(t *testing.T) {
	dbPath = filepath.Join(t.TempDir(), "governor.db")
	defer func() { dbPath = "" }()
	RootCmd.SilenceUsage = true
	RootCmd.SilenceErrors = true

	out, err := runCmd(t, "project", "create", "Gemini")
	if err != nil {
		t.Fatalf("project create: %v", err)
	}
	projectID := field(t, out, 2)

	out, err = runCmd(t, "gate", "create", projectID, "discovery", "planning", "--criterion", "Charter signed")
	if err != nil {
		t.Fatalf("gate create: %v", err)
	}
	gateID := field(t, out, 2)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	criterionID := strings.Fields(lines[len(lines)-1])[0]

	// Advancing through an unpassed gate must fail with a hint.
	if _, err = runCmd(t, "gate", "advance", projectID, gateID); err == nil {
		t.Fatal("expected advance through unpassed gate to fail")
	}

	if _, err = runCmd(t, "gate", "criterion", gateID, criterionID, "met", "--evidence", "charter.pdf"); err != nil {
		t.Fatalf("gate criterion: %v", err)
	}
	out, err = runCmd(t, "gate", "advance", projectID, gateID)
	if err != nil {
		t.Fatalf("gate advance: %v", err)
	}
	if !strings.Contains(out, "planning") {
		t.Errorf("expected advance into planning, got %q", out)
	}
}

func TestCommands_DependencyCycleHint(t *testing.T) {
	dbPath = filepath.Join(t.TempDir(), "governor.db")
	defer func() { dbPath = "" }()
	RootCmd.SilenceUsage = true
	RootCmd.SilenceErrors = true

	out, err := runCmd(t, "project", "create", "Mercury")
	if err != nil {
		t.Fatalf("project create: %v", err)
	}
	projectID := field(t, out, 2)

	out, _ = runCmd(t, "initiative", "create", projectID, "A")
	initA := field(t, out, 2)
	out, _ = runCmd(t, "initiative", "create", projectID, "B")
	initB := field(t, out, 2)

	if _, err = runCmd(t, "deps", "add", projectID, initA, initB); err != nil {
		t.Fatalf("deps add: %v", err)
	}
	_, err = runCmd(t, "deps", "add", projectID, initB, initA)
	if err == nil {
		t.Fatal("expected cycle rejection")
	}
	var cliErr *CLIError
	if !errors.As(err, &cliErr) {
		t.Fatalf("expected CLIError, got %T: %v", err, err)
	}
	if !strings.Contains(cliErr.Hint, "soft dependency") {
		t.Errorf("expected soft-dependency hint, got %q", cliErr.Hint)
	}

	out, err = runCmd(t, "deps", "order", projectID)
	if err != nil {
		t.Fatalf("deps order: %v", err)
	}
	if !strings.Contains(out, initB) || !strings.Contains(out, initA) {
		t.Errorf("order missing initiatives:\n%s", out)
	}
}
