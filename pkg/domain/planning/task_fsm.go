package planning

import (
	"fmt"

	"github.com/felixgeelhaar/statekit"
)

// State constants for statekit integration.
// These must remain as untyped string constants for statekit.StateID compatibility.
// Values are kept in sync with TaskStatus constants in planning.go.
const (
	StateTodo       = "todo"
	StateInProgress = "in_progress"
	StateBlocked    = "blocked"
	StateDone       = "done"
)

// init validates at startup that FSM state constants match TaskStatus values.
// This ensures the FSM and value object stay in sync.
func init() {
	stateMap := map[string]TaskStatus{
		StateTodo:       TaskTodo,
		StateInProgress: TaskInProgress,
		StateBlocked:    TaskBlocked,
		StateDone:       TaskDone,
	}

	for fsmState, taskStatus := range stateMap {
		if fsmState != string(taskStatus) {
			panic(fmt.Sprintf("FSM state %q does not match TaskStatus %q - constants are out of sync", fsmState, taskStatus))
		}
	}
}

// TaskFSMContext carries state data for a running task machine.
type TaskFSMContext struct {
	TaskID string
	Guard  func(taskID string, event string) bool
}

// TaskStateMachine drives a single task through its lifecycle via events.
// The transition table in task_status.go remains the source of truth; the
// interpreter exists for callers that manage a live entity event-by-event.
type TaskStateMachine struct {
	interpreter *statekit.Interpreter[TaskFSMContext]
}

// NewTaskStateMachine builds an interpreter starting at initialState. The
// optional guard is consulted before transitions that leave the todo and
// blocked states, which is where governance policy hooks in.
func NewTaskStateMachine(initialState string, taskID string, guard func(string, string) bool) (*TaskStateMachine, error) {
	if guard == nil {
		guard = func(string, string) bool { return true }
	}

	builder := statekit.NewMachine[TaskFSMContext]("task-machine").
		WithInitial(statekit.StateID(initialState)).
		WithContext(TaskFSMContext{
			TaskID: taskID,
			Guard:  guard,
		}).
		WithGuard("policyGuard", func(ctx TaskFSMContext, e statekit.Event) bool {
			return ctx.Guard(ctx.TaskID, string(e.Type))
		})

	builder.State(StateTodo).
		On("start").Target(StateInProgress).Guard("policyGuard").
		On("block").Target(StateBlocked).
		Done()

	builder.State(StateInProgress).
		On("complete").Target(StateDone).
		On("block").Target(StateBlocked).
		On("stop").Target(StateTodo).
		Done()

	builder.State(StateBlocked).
		On("unblock").Target(StateTodo).
		On("resume").Target(StateInProgress).Guard("policyGuard").
		Done()

	// Done is terminal; progress and status never disagree about completion.
	builder.State(StateDone).
		Done()

	machine, err := builder.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build state machine: %w", err)
	}

	interpreter := statekit.NewInterpreter(machine)
	interpreter.Start()

	return &TaskStateMachine{interpreter: interpreter}, nil
}

// Transition attempts to move the task to a new state.
func (sm *TaskStateMachine) Transition(event string) error {
	before := sm.Current()
	sm.interpreter.Send(statekit.Event{Type: statekit.EventType(event)})
	after := sm.Current()

	if before != after {
		return nil
	}

	// In statekit, if no transition matches or a guard fails, state stays the same.
	return fmt.Errorf("the action '%s' is not allowed while the task is in the '%s' state", event, before)
}

// Current returns the current state identifier.
func (sm *TaskStateMachine) Current() string {
	return string(sm.interpreter.State().Value)
}

// CurrentStatus returns the current state as a TaskStatus value object.
func (sm *TaskStateMachine) CurrentStatus() TaskStatus {
	return TaskStatus(sm.Current())
}

// CanTransition checks if the given event is valid for the current state.
// This delegates to the TaskStatus value object for consistency.
func (sm *TaskStateMachine) CanTransition(event string) bool {
	return sm.CurrentStatus().CanTransitionWith(event)
}

// ValidEvents returns the valid events for the current state.
func (sm *TaskStateMachine) ValidEvents() []string {
	return sm.CurrentStatus().ValidEvents()
}

// IsTerminal returns true if the current state is terminal.
func (sm *TaskStateMachine) IsTerminal() bool {
	return sm.CurrentStatus().IsTerminal()
}
