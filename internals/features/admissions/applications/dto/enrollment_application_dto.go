package dto

import (
	"encoding/json"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	model "schoolku_backend/internals/features/admissions/applications/model"
)

/* =========================================================
   REQUEST: Create (draft) / Submit
   ========================================================= */

type DocumentPayload struct {
	Name string `json:"name" validate:"required"`
	URL  string `json:"url"  validate:"required,url"`
}

type CreateEnrollmentApplicationRequest struct {
	EnrollmentApplicationNumber          string     `json:"enrollment_application_number" validate:"required,max=40"`
	EnrollmentApplicationStudentName     string     `json:"enrollment_application_student_name" validate:"required,max=120"`
	EnrollmentApplicationGuardianContact string     `json:"enrollment_application_guardian_contact" validate:"required,max=120"`
	EnrollmentApplicationYearGroupID     *uuid.UUID `json:"enrollment_application_year_group_id"`
	EnrollmentApplicationPathway         string     `json:"enrollment_application_pathway" validate:"omitempty,oneof=standard_digital sibling_automatic staff_child"`

	EnrollmentApplicationDocuments []DocumentPayload `json:"enrollment_application_documents" validate:"omitempty,dive"`
}

func (r *CreateEnrollmentApplicationRequest) ToModel(schoolID uuid.UUID, guardianUserID *uuid.UUID) (*model.EnrollmentApplication, error) {
	app := &model.EnrollmentApplication{
		EnrollmentApplicationSchoolID:        schoolID,
		EnrollmentApplicationNumber:          r.EnrollmentApplicationNumber,
		EnrollmentApplicationStudentName:     r.EnrollmentApplicationStudentName,
		EnrollmentApplicationGuardianContact: r.EnrollmentApplicationGuardianContact,
		EnrollmentApplicationGuardianUserID:  guardianUserID,
		EnrollmentApplicationYearGroupID:     r.EnrollmentApplicationYearGroupID,
		EnrollmentApplicationPathway:         r.EnrollmentApplicationPathway,
		EnrollmentApplicationStatus:          model.StatusDraft,
		EnrollmentApplicationVersion:         1,
	}
	if app.EnrollmentApplicationPathway == "" {
		app.EnrollmentApplicationPathway = model.PathwayStandardDigital
	}
	if len(r.EnrollmentApplicationDocuments) > 0 {
		b, err := json.Marshal(r.EnrollmentApplicationDocuments)
		if err != nil {
			return nil, err
		}
		app.EnrollmentApplicationDocuments = datatypes.JSON(b)
	}
	return app, nil
}

/* =========================================================
   REQUEST: Transition
   ========================================================= */

type TransitionRequest struct {
	NextStatus  string         `json:"next_status" validate:"required"`
	BaseVersion int            `json:"base_version" validate:"required,min=1"`
	Payload     map[string]any `json:"payload"`
}

/* =========================================================
   REQUEST: Override
   ========================================================= */

type CreateOverrideRequest struct {
	Target           string         `json:"target" validate:"required,max=80"`
	Type             string         `json:"type" validate:"required,max=40"`
	ReasonCode       string         `json:"reason_code" validate:"required,max=60"`
	Value            map[string]any `json:"value"`
	RequiresApproval *bool          `json:"requires_approval"`
}

/* =========================================================
   RESPONSE
   ========================================================= */

type EnrollmentApplicationResponse struct {
	EnrollmentApplicationID          uuid.UUID         `json:"enrollment_application_id"`
	EnrollmentApplicationNumber      string            `json:"enrollment_application_number"`
	EnrollmentApplicationStudentName string            `json:"enrollment_application_student_name"`
	EnrollmentApplicationPathway     string            `json:"enrollment_application_pathway"`
	EnrollmentApplicationStatus      string            `json:"enrollment_application_status"`
	EnrollmentApplicationVersion     int               `json:"enrollment_application_version"`
	EnrollmentApplicationCompletion  int               `json:"enrollment_application_completion_pct"`
	EnrollmentApplicationDocuments   []DocumentPayload `json:"enrollment_application_documents,omitempty"`
	AllowedTransitions               []string          `json:"allowed_transitions,omitempty"`
}

func FromModel(app *model.EnrollmentApplication, allowed []string) EnrollmentApplicationResponse {
	resp := EnrollmentApplicationResponse{
		EnrollmentApplicationID:          app.EnrollmentApplicationID,
		EnrollmentApplicationNumber:      app.EnrollmentApplicationNumber,
		EnrollmentApplicationStudentName: app.EnrollmentApplicationStudentName,
		EnrollmentApplicationPathway:     app.EnrollmentApplicationPathway,
		EnrollmentApplicationStatus:      app.EnrollmentApplicationStatus,
		EnrollmentApplicationVersion:     app.EnrollmentApplicationVersion,
		EnrollmentApplicationCompletion:  app.EnrollmentApplicationCompletionPct,
		AllowedTransitions:               allowed,
	}
	if len(app.EnrollmentApplicationDocuments) > 0 {
		_ = json.Unmarshal(app.EnrollmentApplicationDocuments, &resp.EnrollmentApplicationDocuments)
	}
	return resp
}
