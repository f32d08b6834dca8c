package release

import (
	"testing"

	"github.com/felixgeelhaar/statekit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFinishMachine_Guards(t *testing.T) {
	run := &finishRun{}
	m, err := newFinishMachine(run)
	require.NoError(t, err)

	m.Start()
	assert.Equal(t, StateValidating, m.State())
	assert.False(t, m.IsDone())

	assert.False(t, m.Send(EventValidated), "version not resolved yet")
	assert.Equal(t, StateValidating, m.State())

	run.version = "1.1.0"
	run.integration = "main"
	require.True(t, m.Send(EventValidated))
	assert.Equal(t, StateIntegrating, m.State())

	assert.False(t, m.Send(EventTagged), "no such transition")
	assert.False(t, m.Send(EventIntegrated), "not merged yet")

	run.merged = true
	require.True(t, m.Send(EventIntegrated))
	assert.Equal(t, StateTagging, m.State())

	require.True(t, m.Send(EventFail))
	assert.Equal(t, StateFailed, m.State())
	assert.True(t, m.IsDone())
}

func TestFinishMachine_HappyPath(t *testing.T) {
	run := &finishRun{version: "1.0.0", integration: "main", merged: true, tagged: true, branchDeleted: true}
	m, err := newFinishMachine(run)
	require.NoError(t, err)
	m.Start()

	for _, step := range []struct {
		event statekit.EventType
		want  statekit.StateID
	}{
		{EventValidated, StateIntegrating},
		{EventIntegrated, StateTagging},
		{EventTagged, StateBackmerging},
		{EventBackmerged, StateCleaning},
		{EventCleaned, StatePublishing},
		{EventPublished, StateSwitching},
		{EventSwitched, StateDone},
	} {
		require.True(t, m.Send(step.event), string(step.event))
		assert.Equal(t, step.want, m.State())
	}
	assert.True(t, m.IsDone())
}

func TestFinishMachine_CancelOnlyBeforeTagging(t *testing.T) {
	run := &finishRun{version: "1.0.0", integration: "main", merged: true}
	m, err := newFinishMachine(run)
	require.NoError(t, err)
	m.Start()

	require.True(t, m.Send(EventValidated))
	require.True(t, m.Send(EventIntegrated))
	assert.False(t, m.Send(EventCancel))
	assert.Equal(t, StateTagging, m.State())
}
