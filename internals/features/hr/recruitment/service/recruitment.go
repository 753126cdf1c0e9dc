package service

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	model "schoolku_backend/internals/features/hr/recruitment/model"
	wf "schoolku_backend/internals/features/workflow/service"
)

/* =========================================================
   Recruitment machine
   ========================================================= */

// RecruitmentMachine: offer_made hanya oleh aktor dengan permission
// approve pada staff_management.
func RecruitmentMachine(canApprove func(actorID uuid.UUID) bool) wf.Machine {
	guards := map[string][]wf.Guard{}
	offerGuard := func(req wf.ApplyRequest) *wf.TransitionError {
		if canApprove == nil || !canApprove(req.ActorID) {
			return wf.Reject(wf.CodeUnauthorizedActor, "aktor tidak punya permission approve pada staff_management")
		}
		return nil
	}
	guards[model.RecruitStatusInterviewComplete+"->"+model.RecruitStatusOfferMade] = []wf.Guard{offerGuard}

	return wf.Machine{
		Name: "recruitment_pipeline",
		Transitions: map[string][]string{
			model.RecruitStatusApplied:            {model.RecruitStatusShortlisted},
			model.RecruitStatusShortlisted:        {model.RecruitStatusInterviewScheduled},
			model.RecruitStatusInterviewScheduled: {model.RecruitStatusInterviewComplete},
			model.RecruitStatusInterviewComplete:  {model.RecruitStatusOfferMade},
			model.RecruitStatusOfferMade:          {model.RecruitStatusOfferAccepted, model.RecruitStatusOfferDeclined},
			model.RecruitStatusOfferAccepted:      {model.RecruitStatusHired},
		},
		Terminal: map[string]bool{
			model.RecruitStatusHired:         true,
			model.RecruitStatusOfferDeclined: true,
			model.RecruitStatusRejected:      true,
			model.RecruitStatusWithdrawn:     true,
		},
		CrossCutting: map[string]bool{
			model.RecruitStatusRejected:  true,
			model.RecruitStatusWithdrawn: true,
		},
		RequiredFields: map[string][]string{
			model.RecruitStatusInterviewScheduled: {"interview_at"},
		},
		Guards: guards,
	}
}

/* =========================================================
   Transisi dengan optimistic concurrency
   ========================================================= */

func ApplyRecruitTransitionTx(tx *gorm.DB, app *model.JobApplication, outcome wf.Outcome, baseVersion int, actorID uuid.UUID, interviewAt *time.Time) error {
	now := time.Now().UTC()
	updates := map[string]any{
		"job_application_status":     outcome.NewState,
		"job_application_version":    baseVersion + 1,
		"job_application_updated_at": now,
	}
	switch outcome.NewState {
	case model.RecruitStatusInterviewScheduled:
		if interviewAt != nil {
			updates["job_application_interview_at"] = *interviewAt
		}
	case model.RecruitStatusHired, model.RecruitStatusRejected:
		updates["job_application_decided_at"] = now
		updates["job_application_decided_by"] = actorID
	}

	res := tx.Model(&model.JobApplication{}).
		Where("job_application_id = ? AND job_application_version = ?", app.JobApplicationID, baseVersion).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		var cur model.JobApplication
		curVersion := baseVersion
		if err := tx.Select("job_application_version").
			First(&cur, "job_application_id = ?", app.JobApplicationID).Error; err == nil {
			curVersion = cur.JobApplicationVersion
		}
		return wf.StaleVersion(baseVersion, curVersion)
	}

	app.JobApplicationStatus = outcome.NewState
	app.JobApplicationVersion = baseVersion + 1
	return nil
}
