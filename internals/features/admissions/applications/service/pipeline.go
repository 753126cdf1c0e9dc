package service

import (
	"math"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	model "schoolku_backend/internals/features/admissions/applications/model"
	wf "schoolku_backend/internals/features/workflow/service"
)

/* =========================================================
   Enrollment pipeline — instance workflow machine
   ========================================================= */

// PathwayFlags: flag konfigurasi enrollment type yang mempengaruhi graph.
type PathwayFlags struct {
	RequiresDocuments   bool
	RequiresAssessment  bool
	RequiresInterview   bool
	RequiresPayment     bool
	AutoApproveSiblings bool
}

func FlagsFromPathway(p *model.EnrollmentPathway) PathwayFlags {
	if p == nil {
		// default standard_digital: semua wajib
		return PathwayFlags{RequiresDocuments: true, RequiresAssessment: true, RequiresInterview: true}
	}
	return PathwayFlags{
		RequiresDocuments:   p.EnrollmentPathwayRequiresDocuments,
		RequiresAssessment:  p.EnrollmentPathwayRequiresAssessment,
		RequiresInterview:   p.EnrollmentPathwayRequiresInterview,
		RequiresPayment:     p.EnrollmentPathwayRequiresPayment,
		AutoApproveSiblings: p.EnrollmentPathwayAutoApproveSiblings,
	}
}

// PipelineMachine membangun graph enrollment untuk satu pathway.
// Pathway yang tidak mewajibkan assessment/interview mendapat edge skip
// — bukan koreksi diam-diam, tapi edge yang memang dideklarasikan.
// resumeState: state tujuan saat keluar dari on_hold / requires_override
// (state asal yang tersimpan di record); kosong = under_review.
func PipelineMachine(flags PathwayFlags, canApprove func(actorID uuid.UUID) bool, overrideApproved func(target string) bool, resumeState string) wf.Machine {
	if resumeState == "" {
		resumeState = model.StatusUnderReview
	}

	transitions := map[string][]string{
		model.StatusDraft:       {model.StatusSubmitted},
		model.StatusSubmitted:   {model.StatusUnderReview},
		model.StatusUnderReview: {model.StatusDocumentsPending, model.StatusAssessmentScheduled},

		model.StatusDocumentsPending:    {model.StatusUnderReview},
		model.StatusAssessmentScheduled: {model.StatusAssessmentComplete},
		model.StatusAssessmentComplete:  {model.StatusInterviewScheduled},
		model.StatusInterviewScheduled:  {model.StatusInterviewComplete},
		model.StatusInterviewComplete:   {model.StatusAdmissionDecision},
		model.StatusAdmissionDecision:   {model.StatusPendingApproval},
		model.StatusPendingApproval:     {model.StatusApproved},
		model.StatusApproved:            {model.StatusOfferSent},
		model.StatusOfferSent:           {model.StatusOfferAccepted, model.StatusOfferDeclined},
		model.StatusOfferAccepted:       {model.StatusEnrolled},

		model.StatusOnHold:           {resumeState},
		model.StatusRequiresOverride: {resumeState},
	}

	if !flags.RequiresAssessment {
		transitions[model.StatusUnderReview] = append(transitions[model.StatusUnderReview], model.StatusAssessmentComplete)
	}
	if !flags.RequiresInterview {
		transitions[model.StatusAssessmentComplete] = append(transitions[model.StatusAssessmentComplete], model.StatusAdmissionDecision)
	}
	if flags.AutoApproveSiblings {
		transitions[model.StatusAdmissionDecision] = append(transitions[model.StatusAdmissionDecision], model.StatusApproved)
	}

	guards := map[string][]wf.Guard{}

	// submit: dokumen wajib bila pathway mensyaratkan
	if flags.RequiresDocuments {
		guards[model.StatusDraft+"->"+model.StatusSubmitted] = append(
			guards[model.StatusDraft+"->"+model.StatusSubmitted],
			func(req wf.ApplyRequest) *wf.TransitionError {
				docs, ok := req.Payload["documents"].([]any)
				if !ok || len(docs) == 0 {
					return wf.Reject(wf.CodeMissingRequiredFields, "dokumen wajib dilampirkan sebelum submit")
				}
				return nil
			})
	}

	// approval: hanya aktor dengan permission approve di admissions
	approveGuard := func(req wf.ApplyRequest) *wf.TransitionError {
		if canApprove == nil || !canApprove(req.ActorID) {
			return wf.Reject(wf.CodeUnauthorizedActor, "aktor tidak punya permission approve pada admissions")
		}
		return nil
	}
	guards[model.StatusPendingApproval+"->"+model.StatusApproved] = append(
		guards[model.StatusPendingApproval+"->"+model.StatusApproved], approveGuard)
	if flags.AutoApproveSiblings {
		guards[model.StatusAdmissionDecision+"->"+model.StatusApproved] = append(
			guards[model.StatusAdmissionDecision+"->"+model.StatusApproved], approveGuard)
	}

	// keluar dari requires_override: wajib ada override yang sudah di-approve
	guards[model.StatusRequiresOverride+"->"+resumeState] = append(
		guards[model.StatusRequiresOverride+"->"+resumeState],
		func(req wf.ApplyRequest) *wf.TransitionError {
			if overrideApproved == nil || !overrideApproved("resume:"+resumeState) {
				return wf.Reject(wf.CodePendingOverrideApproval, "override belum di-approve")
			}
			return nil
		})

	sideEffects := map[string][]string{
		model.StatusDraft + "->" + model.StatusSubmitted:            {"create_workflow_steps", "recompute_completion"},
		model.StatusAssessmentScheduled + "->" + model.StatusAssessmentComplete: {"complete_step:assessment", "recompute_completion"},
		model.StatusInterviewScheduled + "->" + model.StatusInterviewComplete:   {"complete_step:interview", "recompute_completion"},
		model.StatusOfferAccepted + "->" + model.StatusEnrolled:     {"complete_step:enrollment", "recompute_completion"},
	}

	return wf.Machine{
		Name:        "enrollment_pipeline",
		Transitions: transitions,
		Terminal: map[string]bool{
			model.StatusEnrolled:      true,
			model.StatusOfferDeclined: true,
			model.StatusRejected:      true,
			model.StatusWithdrawn:     true,
		},
		CrossCutting: map[string]bool{
			model.StatusRejected:         true,
			model.StatusWithdrawn:        true,
			model.StatusOnHold:           true,
			model.StatusRequiresOverride: true,
		},
		Guards:      guards,
		SideEffects: sideEffects,
	}
}

/* =========================================================
   Workflow steps & completion percentage (derived, murni)
   ========================================================= */

// RequiredSteps: template langkah untuk satu pathway.
func RequiredSteps(flags PathwayFlags) []string {
	steps := []string{"application_form"}
	if flags.RequiresDocuments {
		steps = append(steps, "documents")
	}
	if flags.RequiresAssessment {
		steps = append(steps, "assessment")
	}
	if flags.RequiresInterview {
		steps = append(steps, "interview")
	}
	if flags.RequiresPayment {
		steps = append(steps, "registration_payment")
	}
	steps = append(steps, "enrollment")
	return steps
}

// CompletionPercent: langkah required selesai ÷ total required.
// Nilai tersimpan di kolom hanyalah cache proyeksi — selalu hitung ulang
// dari baris steps, jangan dipercaya berdiri sendiri.
func CompletionPercent(steps []model.EnrollmentWorkflowStep) int {
	total, done := 0, 0
	for _, s := range steps {
		if !s.EnrollmentWorkflowStepIsRequired {
			continue
		}
		total++
		if s.EnrollmentWorkflowStepCompletedAt != nil {
			done++
		}
	}
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(done) / float64(total) * 100))
}

/* =========================================================
   Transisi dengan optimistic concurrency
   ========================================================= */

// ApplyTransitionTx menjalankan hasil machine.Apply ke DB dengan version
// check. RowsAffected 0 = penulis lain sudah commit duluan → stale_version,
// caller wajib re-fetch (last-committed-wins tidak cukup).
func ApplyTransitionTx(tx *gorm.DB, app *model.EnrollmentApplication, outcome wf.Outcome, baseVersion int, actorID uuid.UUID) error {
	now := time.Now().UTC()
	updates := map[string]any{
		"enrollment_application_status":     outcome.NewState,
		"enrollment_application_version":    baseVersion + 1,
		"enrollment_application_updated_at": now,
	}
	switch outcome.NewState {
	case model.StatusSubmitted:
		updates["enrollment_application_submitted_at"] = now
	case model.StatusApproved, model.StatusRejected:
		updates["enrollment_application_decided_at"] = now
		updates["enrollment_application_decided_by"] = actorID
	case model.StatusOnHold, model.StatusRequiresOverride:
		updates["enrollment_application_resume_status"] = app.EnrollmentApplicationStatus
	}

	res := tx.Model(&model.EnrollmentApplication{}).
		Where("enrollment_application_id = ? AND enrollment_application_version = ?",
			app.EnrollmentApplicationID, baseVersion).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		var cur model.EnrollmentApplication
		curVersion := baseVersion
		if err := tx.Select("enrollment_application_version").
			First(&cur, "enrollment_application_id = ?", app.EnrollmentApplicationID).Error; err == nil {
			curVersion = cur.EnrollmentApplicationVersion
		}
		return wf.StaleVersion(baseVersion, curVersion)
	}

	app.EnrollmentApplicationStatus = outcome.NewState
	app.EnrollmentApplicationVersion = baseVersion + 1
	return nil
}
