package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/harborview/governor/pkg/domain/aipolicy"
	"github.com/harborview/governor/pkg/domain/dependency"
	"github.com/harborview/governor/pkg/domain/gate"
	"github.com/harborview/governor/pkg/domain/planning"
)

// CLIError wraps domain errors with user-facing messages and actionable hints.
type CLIError struct {
	Message  string
	Hint     string
	Err      error
	ExitCode int
}

func (e *CLIError) Error() string {
	if e.Hint != "" {
		return fmt.Sprintf("%s\nHint: %s", e.Message, e.Hint)
	}
	return e.Message
}

func (e *CLIError) Unwrap() error {
	return e.Err
}

// NewCLIError creates a CLIError with a default exit code of 1.
func NewCLIError(msg, hint string, err error) *CLIError {
	return &CLIError{
		Message:  msg,
		Hint:     hint,
		Err:      err,
		ExitCode: 1,
	}
}

// MapError converts known domain errors into CLIErrors with actionable hints.
// Unmapped errors are returned as-is.
func MapError(err error) error {
	if err == nil {
		return nil
	}

	var cycleErr *dependency.CycleError
	if errors.As(err, &cycleErr) {
		return NewCLIError(
			fmt.Sprintf("dependency rejected: would create cycle %s", strings.Join(cycleErr.Path, " -> ")),
			"remove one of the edges on the cycle, or record the relationship as a soft dependency",
			err,
		)
	}

	var invalidErr *planning.InvalidTransitionError
	if errors.As(err, &invalidErr) {
		return NewCLIError(
			invalidErr.Error(),
			"run 'governor policy show' to see the active transition tables",
			err,
		)
	}

	var missingErr *planning.MissingContextError
	if errors.As(err, &missingErr) {
		return NewCLIError(
			missingErr.Error(),
			"blocking requires --reason, and tasks additionally --blocker-type (risk|decision|dependency|resource|other)",
			err,
		)
	}

	var deniedErr *aipolicy.PolicyDeniedError
	if errors.As(err, &deniedErr) {
		return NewCLIError(
			deniedErr.Error(),
			"raise the org or project policy level, or propose a non-mutating action",
			err,
		)
	}

	if errors.Is(err, gate.ErrGateNotPassed) {
		return NewCLIError(
			err.Error(),
			"mark the remaining criteria and obtain approval before advancing the phase",
			err,
		)
	}
	if errors.Is(err, gate.ErrRollbackNotAllowed) {
		return NewCLIError(
			err.Error(),
			"enable rollback with 'governor project allow-rollback <project-id>'",
			err,
		)
	}

	return err
}
