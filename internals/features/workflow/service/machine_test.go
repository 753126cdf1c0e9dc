package service

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	model "schoolku_backend/internals/features/workflow/model"
)

func demoMachine() Machine {
	return Machine{
		Name: "demo",
		Transitions: map[string][]string{
			"draft":     {"submitted"},
			"submitted": {"review"},
			"review":    {"done"},
		},
		Terminal:     map[string]bool{"done": true, "rejected": true},
		CrossCutting: map[string]bool{"rejected": true},
		RequiredFields: map[string][]string{
			"submitted": {"applicant_name"},
		},
		Guards: map[string][]Guard{
			"review->done": {
				func(req ApplyRequest) *TransitionError {
					if req.ActorRole != "admin" {
						return Reject(CodeUnauthorizedActor, "hanya admin yang boleh menyelesaikan review")
					}
					return nil
				},
			},
		},
		SideEffects: map[string][]string{
			"draft->submitted": {"create_workflow_steps"},
		},
	}
}

func TestMachine_DeclaredEdgesOnly(t *testing.T) {
	m := demoMachine()

	// lompat state → invalid_transition, tidak dikoreksi diam-diam
	_, err := m.Apply(ApplyRequest{Current: "draft", Next: "done"})
	var terr *TransitionError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, CodeInvalidTransition, terr.Code)

	// edge sah → jalan + side effects
	out, err := m.Apply(ApplyRequest{
		Current: "draft", Next: "submitted",
		Payload: map[string]any{"applicant_name": "Budi"},
	})
	require.NoError(t, err)
	assert.Equal(t, "submitted", out.NewState)
	assert.Equal(t, []string{"create_workflow_steps"}, out.SideEffects)
}

func TestMachine_RequiredFields(t *testing.T) {
	m := demoMachine()

	_, err := m.Apply(ApplyRequest{Current: "draft", Next: "submitted"})
	var terr *TransitionError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, CodeMissingRequiredFields, terr.Code)
}

func TestMachine_Guards(t *testing.T) {
	m := demoMachine()

	_, err := m.Apply(ApplyRequest{Current: "review", Next: "done", ActorRole: "teacher"})
	var terr *TransitionError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, CodeUnauthorizedActor, terr.Code)

	out, err := m.Apply(ApplyRequest{Current: "review", Next: "done", ActorRole: "admin"})
	require.NoError(t, err)
	assert.Equal(t, "done", out.NewState)
}

func TestMachine_CrossCuttingFromAnyNonTerminal(t *testing.T) {
	m := demoMachine()

	for _, from := range []string{"draft", "submitted", "review"} {
		assert.True(t, m.CanTransition(from, "rejected"), from)
	}
	// dari terminal tidak boleh
	assert.False(t, m.CanTransition("done", "rejected"))
	assert.Nil(t, m.AllowedTransitions("done"))
}

func TestMachine_NoSelfTransition(t *testing.T) {
	m := demoMachine()
	_, err := m.Apply(ApplyRequest{Current: "draft", Next: "draft"})
	var terr *TransitionError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, CodeInvalidTransition, terr.Code)
}

func TestApproveOverride_SelfApprovalRejected(t *testing.T) {
	requester := uuid.New()
	o := &model.WorkflowOverride{
		WorkflowOverrideRequestedBy:      requester,
		WorkflowOverrideRequiresApproval: true,
		WorkflowOverrideIsActive:         true,
	}

	// inert sebelum approval
	assert.False(t, o.IsEffective())

	err := ApproveOverride(o, requester, time.Now())
	assert.ErrorIs(t, err, ErrSelfApproval)
	assert.False(t, o.IsEffective())

	approver := uuid.New()
	require.NoError(t, ApproveOverride(o, approver, time.Now()))
	assert.True(t, o.IsEffective())
	assert.Equal(t, approver, *o.WorkflowOverrideApprovedBy)
}

func TestApproveOverride_InactiveOverride(t *testing.T) {
	o := &model.WorkflowOverride{
		WorkflowOverrideRequestedBy:      uuid.New(),
		WorkflowOverrideRequiresApproval: true,
		WorkflowOverrideIsActive:         false,
	}
	err := ApproveOverride(o, uuid.New(), time.Now())
	assert.ErrorIs(t, err, ErrOverrideInactive)
}

func TestStaleVersionError(t *testing.T) {
	err := StaleVersion(3, 5)
	assert.Equal(t, CodeStaleVersion, err.Code)
}
