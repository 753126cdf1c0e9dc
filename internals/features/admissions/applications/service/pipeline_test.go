package service

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	model "schoolku_backend/internals/features/admissions/applications/model"
	wf "schoolku_backend/internals/features/workflow/service"
)

var standardFlags = PathwayFlags{
	RequiresDocuments:  true,
	RequiresAssessment: true,
	RequiresInterview:  true,
}

func allowAll(uuid.UUID) bool  { return true }
func denyAll(uuid.UUID) bool   { return false }
func noOverride(string) bool   { return false }
func withOverride(string) bool { return true }

func TestPipeline_DraftToEnrolledDirectlyFails(t *testing.T) {
	m := PipelineMachine(standardFlags, allowAll, noOverride, "")

	_, err := m.Apply(wf.ApplyRequest{
		Current: model.StatusDraft,
		Next:    model.StatusEnrolled,
	})
	var terr *wf.TransitionError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, wf.CodeInvalidTransition, terr.Code)
}

func TestPipeline_HappyPathStandardDigital(t *testing.T) {
	m := PipelineMachine(standardFlags, allowAll, noOverride, "")

	path := []string{
		model.StatusDraft,
		model.StatusSubmitted,
		model.StatusUnderReview,
		model.StatusAssessmentScheduled,
		model.StatusAssessmentComplete,
		model.StatusInterviewScheduled,
		model.StatusInterviewComplete,
		model.StatusAdmissionDecision,
		model.StatusPendingApproval,
		model.StatusApproved,
		model.StatusOfferSent,
		model.StatusOfferAccepted,
		model.StatusEnrolled,
	}

	payload := map[string]any{"documents": []any{map[string]any{"name": "akta", "url": "oss://x"}}}
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

func TestPipeline_SubmitRequiresDocuments(t *testing.T) {
	m := PipelineMachine(standardFlags, allowAll, noOverride, "")

	_, err := m.Apply(wf.ApplyRequest{
		Current: model.StatusDraft,
		Next:    model.StatusSubmitted,
		Payload: map[string]any{},
	})
	var terr *wf.TransitionError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, wf.CodeMissingRequiredFields, terr.Code)
}

func TestPipeline_SiblingPathwaySkipsAssessmentAndInterview(t *testing.T) {
	flags := PathwayFlags{AutoApproveSiblings: true} // assessment/interview auto-satisfied
	m := PipelineMachine(flags, allowAll, noOverride, "")

	// skip assessment: under_review → assessment_complete langsung
	out, err := m.Apply(wf.ApplyRequest{
		Current: model.StatusUnderReview,
		Next:    model.StatusAssessmentComplete,
	})
	require.NoError(t, err)
	assert.Equal(t, model.StatusAssessmentComplete, out.NewState)

	// skip interview: assessment_complete → admission_decision langsung
	out, err = m.Apply(wf.ApplyRequest{
		Current: model.StatusAssessmentComplete,
		Next:    model.StatusAdmissionDecision,
	})
	require.NoError(t, err)
	assert.Equal(t, model.StatusAdmissionDecision, out.NewState)

	// auto approve: admission_decision → approved tanpa pending_approval
	out, err = m.Apply(wf.ApplyRequest{
		Current: model.StatusAdmissionDecision,
		Next:    model.StatusApproved,
		ActorID: uuid.New(),
	})
	require.NoError(t, err)
	assert.Equal(t, model.StatusApproved, out.NewState)
}

func TestPipeline_StandardPathwayCannotSkip(t *testing.T) {
	m := PipelineMachine(standardFlags, allowAll, noOverride, "")

	_, err := m.Apply(wf.ApplyRequest{
		Current: model.StatusUnderReview,
		Next:    model.StatusAssessmentComplete,
	})
	var terr *wf.TransitionError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, wf.CodeInvalidTransition, terr.Code)
}

func TestPipeline_ApprovalRequiresPermission(t *testing.T) {
	m := PipelineMachine(standardFlags, denyAll, noOverride, "")

	_, err := m.Apply(wf.ApplyRequest{
		Current: model.StatusPendingApproval,
		Next:    model.StatusApproved,
		ActorID: uuid.New(),
	})
	var terr *wf.TransitionError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, wf.CodeUnauthorizedActor, terr.Code)
}

func TestPipeline_CrossCuttingStates(t *testing.T) {
	m := PipelineMachine(standardFlags, allowAll, noOverride, "")

	for _, from := range []string{model.StatusSubmitted, model.StatusOfferSent, model.StatusPendingApproval} {
		for _, to := range []string{model.StatusRejected, model.StatusWithdrawn, model.StatusOnHold, model.StatusRequiresOverride} {
			assert.True(t, m.CanTransition(from, to), "%s -> %s", from, to)
		}
	}
	// dari terminal tidak bisa kemana-mana
	assert.Nil(t, m.AllowedTransitions(model.StatusEnrolled))
	assert.Nil(t, m.AllowedTransitions(model.StatusRejected))
}

func TestPipeline_RequiresOverrideNeedsApprovedOverride(t *testing.T) {
	m := PipelineMachine(standardFlags, allowAll, noOverride, "")
	_, err := m.Apply(wf.ApplyRequest{
		Current: model.StatusRequiresOverride,
		Next:    model.StatusUnderReview,
	})
	var terr *wf.TransitionError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, wf.CodePendingOverrideApproval, terr.Code)

	m = PipelineMachine(standardFlags, allowAll, withOverride, "")
	out, err := m.Apply(wf.ApplyRequest{
		Current: model.StatusRequiresOverride,
		Next:    model.StatusUnderReview,
	})
	require.NoError(t, err)
	assert.Equal(t, model.StatusUnderReview, out.NewState)
}

func TestPipeline_ResumeReturnsToStoredState(t *testing.T) {
	// aplikasi di-hold saat interview_scheduled → resume HARUS kembali ke
	// sana, bukan mundur ke under_review
	m := PipelineMachine(standardFlags, allowAll, withOverride, model.StatusInterviewScheduled)

	assert.Contains(t, m.AllowedTransitions(model.StatusOnHold), model.StatusInterviewScheduled)
	assert.NotContains(t, m.AllowedTransitions(model.StatusOnHold), model.StatusUnderReview)

	out, err := m.Apply(wf.ApplyRequest{
		Current: model.StatusOnHold,
		Next:    model.StatusInterviewScheduled,
	})
	require.NoError(t, err)
	assert.Equal(t, model.StatusInterviewScheduled, out.NewState)

	// under_review bukan lagi tujuan resume yang sah
	_, err = m.Apply(wf.ApplyRequest{
		Current: model.StatusOnHold,
		Next:    model.StatusUnderReview,
	})
	var terr *wf.TransitionError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, wf.CodeInvalidTransition, terr.Code)

	// guard override tetap menjaga pintu keluar requires_override
	m = PipelineMachine(standardFlags, allowAll, noOverride, model.StatusInterviewScheduled)
	_, err = m.Apply(wf.ApplyRequest{
		Current: model.StatusRequiresOverride,
		Next:    model.StatusInterviewScheduled,
	})
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, wf.CodePendingOverrideApproval, terr.Code)
}

func TestCompletionPercent(t *testing.T) {
	now := time.Now()
	steps := []model.EnrollmentWorkflowStep{
		{EnrollmentWorkflowStepName: "application_form", EnrollmentWorkflowStepIsRequired: true, EnrollmentWorkflowStepCompletedAt: &now},
		{EnrollmentWorkflowStepName: "documents", EnrollmentWorkflowStepIsRequired: true, EnrollmentWorkflowStepCompletedAt: &now},
		{EnrollmentWorkflowStepName: "assessment", EnrollmentWorkflowStepIsRequired: true},
		{EnrollmentWorkflowStepName: "interview", EnrollmentWorkflowStepIsRequired: true},
		{EnrollmentWorkflowStepName: "optional_tour", EnrollmentWorkflowStepIsRequired: false},
	}
	assert.Equal(t, 50, CompletionPercent(steps))

	// semua selesai → 100
	for i := range steps {
		steps[i].EnrollmentWorkflowStepCompletedAt = &now
	}
	assert.Equal(t, 100, CompletionPercent(steps))

	// tanpa steps → 0
	assert.Equal(t, 0, CompletionPercent(nil))
}

func TestRequiredSteps_FollowFlags(t *testing.T) {
	assert.Equal(t,
		[]string{"application_form", "documents", "assessment", "interview", "enrollment"},
		RequiredSteps(standardFlags))

	assert.Equal(t,
		[]string{"application_form", "enrollment"},
		RequiredSteps(PathwayFlags{}))

	assert.Contains(t, RequiredSteps(PathwayFlags{RequiresPayment: true}), "registration_payment")
}
