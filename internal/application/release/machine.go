package release

import (
	"fmt"

	"github.com/felixgeelhaar/statekit"
)

// Finish phases.
const (
	StateValidating  statekit.StateID = "validating"
	StateIntegrating statekit.StateID = "integrating"
	StateTagging     statekit.StateID = "tagging"
	StateBackmerging statekit.StateID = "backmerging"
	StateCleaning    statekit.StateID = "cleaning"
	StatePublishing  statekit.StateID = "publishing"
	StateSwitching   statekit.StateID = "switching"
	StateDone        statekit.StateID = "done"
	StateFailed      statekit.StateID = "failed"
	StateCanceled    statekit.StateID = "canceled"
)

// Event names for the finish machine.
const (
	EventValidated  statekit.EventType = "VALIDATED"
	EventIntegrated statekit.EventType = "INTEGRATED"
	EventTagged     statekit.EventType = "TAGGED"
	EventBackmerged statekit.EventType = "BACKMERGED"
	EventCleaned    statekit.EventType = "CLEANED"
	EventPublished  statekit.EventType = "PUBLISHED"
	EventSwitched   statekit.EventType = "SWITCHED"
	EventFail       statekit.EventType = "FAIL"
	EventCancel     statekit.EventType = "CANCEL"
)

// Guard names for the finish machine.
const (
	GuardVersionResolved statekit.GuardType = "versionResolved"
	GuardMerged          statekit.GuardType = "mergedIntoIntegration"
	GuardTagged          statekit.GuardType = "tagCreated"
	GuardBranchDeleted   statekit.GuardType = "releaseBranchDeleted"
)

// finishContext is the machine context. Guards close over the run instead.
type finishContext struct{}

// finishMachine drives one release finish through its phases.
type finishMachine struct {
	interpreter *statekit.Interpreter[finishContext]
}

// newFinishMachine builds the finish machine. Guards close over run, so a
// machine serves exactly one finish.
func newFinishMachine(run *finishRun) (*finishMachine, error) {
	machine, err := statekit.NewMachine[finishContext]("release-finish").
		WithInitial(StateValidating).
		WithGuard(GuardVersionResolved, func(_ finishContext, _ statekit.Event) bool {
			return run.version != "" && run.integration != ""
		}).
		WithGuard(GuardMerged, func(_ finishContext, _ statekit.Event) bool {
			return run.merged
		}).
		WithGuard(GuardTagged, func(_ finishContext, _ statekit.Event) bool {
			return run.tagged
		}).
		WithGuard(GuardBranchDeleted, func(_ finishContext, _ statekit.Event) bool {
			return run.branchDeleted
		}).
		State(StateValidating).
		On(EventValidated).Target(StateIntegrating).Guard(GuardVersionResolved).
		On(EventCancel).Target(StateCanceled).
		On(EventFail).Target(StateFailed).
		Done().
		State(StateIntegrating).
		On(EventIntegrated).Target(StateTagging).Guard(GuardMerged).
		On(EventCancel).Target(StateCanceled).
		On(EventFail).Target(StateFailed).
		Done().
		State(StateTagging).
		On(EventTagged).Target(StateBackmerging).Guard(GuardTagged).
		On(EventFail).Target(StateFailed).
		Done().
		// Back-merge may be skipped when there is no develop branch.
		State(StateBackmerging).
		On(EventBackmerged).Target(StateCleaning).
		On(EventCancel).Target(StateCanceled).
		On(EventFail).Target(StateFailed).
		Done().
		State(StateCleaning).
		On(EventCleaned).Target(StatePublishing).Guard(GuardBranchDeleted).
		On(EventFail).Target(StateFailed).
		Done().
		// Push failures are warnings, so publishing never fails.
		State(StatePublishing).
		On(EventPublished).Target(StateSwitching).
		On(EventFail).Target(StateFailed).
		Done().
		State(StateSwitching).
		On(EventSwitched).Target(StateDone).
		On(EventFail).Target(StateFailed).
		Done().
		State(StateDone).
		Final().
		Done().
		State(StateFailed).
		Final().
		Done().
		State(StateCanceled).
		Final().
		Done().
		Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build finish machine: %w", err)
	}

	return &finishMachine{interpreter: statekit.NewInterpreter(machine)}, nil
}

// Start enters the initial state.
func (m *finishMachine) Start() {
	m.interpreter.Start()
}

// Send delivers event and reports whether the machine changed state.
func (m *finishMachine) Send(event statekit.EventType) bool {
	before := m.State()
	m.interpreter.Send(statekit.Event{Type: event})
	return m.State() != before
}

// State returns the current state.
func (m *finishMachine) State() statekit.StateID {
	return m.interpreter.State().Value
}

// IsDone reports whether the machine reached a final state.
func (m *finishMachine) IsDone() bool {
	return m.interpreter.Done()
}
