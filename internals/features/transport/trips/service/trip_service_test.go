package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	model "schoolku_backend/internals/features/transport/trips/model"
	wf "schoolku_backend/internals/features/workflow/service"
)

func TestTripMachine_Graph(t *testing.T) {
	m := TripMachine()

	path := []string{
		model.TripStatusScheduled,
		model.TripStatusBoarding,
		model.TripStatusInTransit,
		model.TripStatusCompleted,
	}
	for i := 0; i < len(path)-1; i++ {
		out, err := m.Apply(wf.ApplyRequest{Current: path[i], Next: path[i+1]})
		require.NoError(t, err, "%s -> %s", path[i], path[i+1])
		assert.Equal(t, path[i+1], out.NewState)
	}

	// tidak boleh loncat scheduled → completed
	_, err := m.Apply(wf.ApplyRequest{Current: model.TripStatusScheduled, Next: model.TripStatusCompleted})
	var terr *wf.TransitionError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, wf.CodeInvalidTransition, terr.Code)

	// cancelled dari state manapun yang non-terminal
	assert.True(t, m.CanTransition(model.TripStatusScheduled, model.TripStatusCancelled))
	assert.True(t, m.CanTransition(model.TripStatusInTransit, model.TripStatusCancelled))
	assert.Nil(t, m.AllowedTransitions(model.TripStatusCompleted))
	assert.Nil(t, m.AllowedTransitions(model.TripStatusCancelled))
}

func TestTripMachine_CompleteReconciles(t *testing.T) {
	m := TripMachine()
	out, err := m.Apply(wf.ApplyRequest{Current: model.TripStatusInTransit, Next: model.TripStatusCompleted})
	require.NoError(t, err)
	assert.Contains(t, out.SideEffects, "reconcile_trip")
}

func TestCountBoardingEvents(t *testing.T) {
	logs := []model.TransportBoardingLog{
		{TransportBoardingLogEvent: model.BoardingEventBoard},
		{TransportBoardingLogEvent: model.BoardingEventBoard},
		{TransportBoardingLogEvent: model.BoardingEventDrop},
	}
	boarded, dropped := CountBoardingEvents(logs)
	assert.Equal(t, 2, boarded)
	assert.Equal(t, 1, dropped)
}

func TestComputeDiscrepancy_WithinInvariant(t *testing.T) {
	d := ComputeDiscrepancy(30, 28, 28, 0)
	assert.False(t, d.NeedAlert)
	assert.Equal(t, 0, d.BoardOver)
}

func TestComputeDiscrepancy_BoardedOverExpected(t *testing.T) {
	// boarded > expected tanpa toleransi → alert
	d := ComputeDiscrepancy(30, 32, 30, 0)
	assert.True(t, d.NeedAlert)
	assert.Equal(t, 2, d.BoardOver)

	// toleransi 2 menyerap selisih
	d = ComputeDiscrepancy(30, 32, 30, 2)
	assert.False(t, d.NeedAlert)

	// toleransi 1 tidak cukup
	d = ComputeDiscrepancy(30, 32, 30, 1)
	assert.True(t, d.NeedAlert)
}

func TestComputeDiscrepancy_DroppedOverBoarded(t *testing.T) {
	d := ComputeDiscrepancy(30, 25, 27, 0)
	assert.True(t, d.NeedAlert)
	assert.Equal(t, 2, d.DropOver)
}

func TestComputeDiscrepancy_Deterministic(t *testing.T) {
	first := ComputeDiscrepancy(30, 32, 31, 1)
	second := ComputeDiscrepancy(30, 32, 31, 1)
	assert.Equal(t, first, second)
}
