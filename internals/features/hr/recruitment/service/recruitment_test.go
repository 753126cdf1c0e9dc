package service

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	model "schoolku_backend/internals/features/hr/recruitment/model"
	wf "schoolku_backend/internals/features/workflow/service"
)

func recruitAllow(uuid.UUID) bool { return true }
func recruitDeny(uuid.UUID) bool  { return false }

func TestRecruitment_HappyPath(t *testing.T) {
	m := RecruitmentMachine(recruitAllow)

	path := []string{
		model.RecruitStatusApplied,
		model.RecruitStatusShortlisted,
		model.RecruitStatusInterviewScheduled,
		model.RecruitStatusInterviewComplete,
		model.RecruitStatusOfferMade,
		model.RecruitStatusOfferAccepted,
		model.RecruitStatusHired,
	}
	payload := map[string]any{"interview_at": "2026-09-15T09:00:00Z"}
	for i := 0; i < len(path)-1; i++ {
		out, err := m.Apply(wf.ApplyRequest{
			Current: path[i],
			Next:    path[i+1],
			ActorID: uuid.New(),
			Payload: payload,
		})
		require.NoError(t, err, "%s -> %s", path[i], path[i+1])
		assert.Equal(t, path[i+1], out.NewState)
	}
}

func TestRecruitment_OfferDeclinedIsTerminal(t *testing.T) {
	m := RecruitmentMachine(recruitAllow)

	out, err := m.Apply(wf.ApplyRequest{
		Current: model.RecruitStatusOfferMade,
		Next:    model.RecruitStatusOfferDeclined,
	})
	require.NoError(t, err)
	assert.Equal(t, model.RecruitStatusOfferDeclined, out.NewState)
	assert.Nil(t, m.AllowedTransitions(model.RecruitStatusOfferDeclined))
}

func TestRecruitment_CannotSkipInterview(t *testing.T) {
	m := RecruitmentMachine(recruitAllow)

	_, err := m.Apply(wf.ApplyRequest{
		Current: model.RecruitStatusShortlisted,
		Next:    model.RecruitStatusOfferMade,
	})
	var terr *wf.TransitionError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, wf.CodeInvalidTransition, terr.Code)
}

func TestRecruitment_OfferRequiresPermission(t *testing.T) {
	m := RecruitmentMachine(recruitDeny)

	_, err := m.Apply(wf.ApplyRequest{
		Current: model.RecruitStatusInterviewComplete,
		Next:    model.RecruitStatusOfferMade,
		ActorID: uuid.New(),
	})
	var terr *wf.TransitionError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, wf.CodeUnauthorizedActor, terr.Code)
}

func TestRecruitment_ScheduleInterviewNeedsTimestamp(t *testing.T) {
	m := RecruitmentMachine(recruitAllow)

	_, err := m.Apply(wf.ApplyRequest{
		Current: model.RecruitStatusShortlisted,
		Next:    model.RecruitStatusInterviewScheduled,
		Payload: map[string]any{},
	})
	var terr *wf.TransitionError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, wf.CodeMissingRequiredFields, terr.Code)
}

func TestRecruitment_CrossCutting(t *testing.T) {
	m := RecruitmentMachine(recruitAllow)

	for _, from := range []string{model.RecruitStatusApplied, model.RecruitStatusOfferMade} {
		assert.True(t, m.CanTransition(from, model.RecruitStatusRejected))
		assert.True(t, m.CanTransition(from, model.RecruitStatusWithdrawn))
	}
	assert.Nil(t, m.AllowedTransitions(model.RecruitStatusHired))
}
