package service

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	model "schoolku_backend/internals/features/safeguarding/concerns/model"
	wf "schoolku_backend/internals/features/workflow/service"
)

func escalateAllow(uuid.UUID) bool { return true }
func escalateDeny(uuid.UUID) bool  { return false }

func TestConcern_HappyPath(t *testing.T) {
	m := ConcernMachine(escalateAllow)

	path := []string{
		model.ConcernStatusReported,
		model.ConcernStatusTriaged,
		model.ConcernStatusInvestigating,
		model.ConcernStatusActionTaken,
		model.ConcernStatusMonitoring,
		model.ConcernStatusClosed,
	}
	for i := 0; i < len(path)-1; i++ {
		out, err := m.Apply(wf.ApplyRequest{Current: path[i], Next: path[i+1]})
		require.NoError(t, err, "%s -> %s", path[i], path[i+1])
		assert.Equal(t, path[i+1], out.NewState)
	}
	assert.Nil(t, m.AllowedTransitions(model.ConcernStatusClosed))
}

func TestConcern_EscalatedFromAnyOpenState(t *testing.T) {
	m := ConcernMachine(escalateAllow)

	for _, from := range []string{
		model.ConcernStatusReported,
		model.ConcernStatusInvestigating,
		model.ConcernStatusMonitoring,
	} {
		out, err := m.Apply(wf.ApplyRequest{Current: from, Next: model.ConcernStatusEscalated, ActorID: uuid.New()})
		require.NoError(t, err, "%s -> escalated", from)
		assert.Equal(t, model.ConcernStatusEscalated, out.NewState)
	}
}

func TestConcern_EscalateRequiresPermission(t *testing.T) {
	m := ConcernMachine(escalateDeny)

	_, err := m.Apply(wf.ApplyRequest{
		Current: model.ConcernStatusInvestigating,
		Next:    model.ConcernStatusEscalated,
		ActorID: uuid.New(),
	})
	var terr *wf.TransitionError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, wf.CodeUnauthorizedActor, terr.Code)
}

func TestConcern_EscalatedResumesToInvestigating(t *testing.T) {
	m := ConcernMachine(escalateAllow)

	out, err := m.Apply(wf.ApplyRequest{
		Current: model.ConcernStatusEscalated,
		Next:    model.ConcernStatusInvestigating,
	})
	require.NoError(t, err)
	assert.Equal(t, model.ConcernStatusInvestigating, out.NewState)
}

func TestConcern_CannotSkipTriage(t *testing.T) {
	m := ConcernMachine(escalateAllow)

	_, err := m.Apply(wf.ApplyRequest{
		Current: model.ConcernStatusReported,
		Next:    model.ConcernStatusClosed,
	})
	var terr *wf.TransitionError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, wf.CodeInvalidTransition, terr.Code)
}
