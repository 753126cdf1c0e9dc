package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

/* =========================
   Status enum (wire contract — jangan ubah literal)
   ========================= */

const (
	StatusDraft               = "draft"
	StatusSubmitted           = "submitted"
	StatusUnderReview         = "under_review"
	StatusDocumentsPending    = "documents_pending"
	StatusAssessmentScheduled = "assessment_scheduled"
	StatusAssessmentComplete  = "assessment_complete"
	StatusInterviewScheduled  = "interview_scheduled"
	StatusInterviewComplete   = "interview_complete"
	StatusAdmissionDecision   = "admission_decision"
	StatusPendingApproval     = "pending_approval"
	StatusApproved            = "approved"
	StatusOfferSent           = "offer_sent"
	StatusOfferAccepted       = "offer_accepted"
	StatusOfferDeclined       = "offer_declined"
	StatusEnrolled            = "enrolled"
	StatusRejected            = "rejected"
	StatusWithdrawn           = "withdrawn"
	StatusOnHold              = "on_hold"
	StatusRequiresOverride    = "requires_override"
)

/* =========================
   Pathway enum + flags
   ========================= */

const (
	PathwayStandardDigital  = "standard_digital"
	PathwaySiblingAutomatic = "sibling_automatic"
	PathwayStaffChild       = "staff_child"
)

// EnrollmentPathway: konfigurasi per (school, pathway). Flag menentukan
// langkah mana yang wajib di pipeline.
type EnrollmentPathway struct {
	EnrollmentPathwayID       uuid.UUID `gorm:"column:enrollment_pathway_id;type:uuid;primaryKey;default:gen_random_uuid()" json:"enrollment_pathway_id"`
	EnrollmentPathwaySchoolID uuid.UUID `gorm:"column:enrollment_pathway_school_id;type:uuid;not null;uniqueIndex:uq_pathway_school_code" json:"enrollment_pathway_school_id"`
	EnrollmentPathwayCode     string    `gorm:"column:enrollment_pathway_code;type:varchar(30);not null;uniqueIndex:uq_pathway_school_code" json:"enrollment_pathway_code"`

	EnrollmentPathwayRequiresDocuments   bool `gorm:"column:enrollment_pathway_requires_documents;not null;default:true" json:"enrollment_pathway_requires_documents"`
	EnrollmentPathwayRequiresAssessment  bool `gorm:"column:enrollment_pathway_requires_assessment;not null;default:true" json:"enrollment_pathway_requires_assessment"`
	EnrollmentPathwayRequiresInterview   bool `gorm:"column:enrollment_pathway_requires_interview;not null;default:true" json:"enrollment_pathway_requires_interview"`
	EnrollmentPathwayRequiresPayment     bool `gorm:"column:enrollment_pathway_requires_payment;not null;default:false" json:"enrollment_pathway_requires_payment"`
	EnrollmentPathwayAutoApproveSiblings bool `gorm:"column:enrollment_pathway_auto_approve_siblings;not null;default:false" json:"enrollment_pathway_auto_approve_siblings"`

	EnrollmentPathwayCreatedAt time.Time  `gorm:"column:enrollment_pathway_created_at;type:timestamptz;not null;default:now()" json:"enrollment_pathway_created_at"`
	EnrollmentPathwayUpdatedAt time.Time  `gorm:"column:enrollment_pathway_updated_at;type:timestamptz;not null;default:now()" json:"enrollment_pathway_updated_at"`
	EnrollmentPathwayDeletedAt *time.Time `gorm:"column:enrollment_pathway_deleted_at;type:timestamptz" json:"enrollment_pathway_deleted_at,omitempty"`
}

func (EnrollmentPathway) TableName() string { return "enrollment_pathways" }

/* =========================
   Model: enrollment_applications
   ========================= */

// EnrollmentApplication: satu lamaran masuk. Nomor aplikasi adalah natural
// key idempotensi — submit ulang dengan nomor sama tidak membuat record baru.
// Version dipakai optimistic concurrency: dua aktor menulis bersamaan,
// penulis kedua dengan base version basi ditolak conflict.
type EnrollmentApplication struct {
	EnrollmentApplicationID       uuid.UUID `gorm:"column:enrollment_application_id;type:uuid;primaryKey;default:gen_random_uuid()" json:"enrollment_application_id"`
	EnrollmentApplicationSchoolID uuid.UUID `gorm:"column:enrollment_application_school_id;type:uuid;not null;uniqueIndex:uq_enrollment_school_number;index" json:"enrollment_application_school_id"`
	EnrollmentApplicationNumber   string    `gorm:"column:enrollment_application_number;type:varchar(40);not null;uniqueIndex:uq_enrollment_school_number" json:"enrollment_application_number"`

	EnrollmentApplicationStudentName     string  `gorm:"column:enrollment_application_student_name;size:120;not null" json:"enrollment_application_student_name"`
	EnrollmentApplicationGuardianUserID  *uuid.UUID `gorm:"column:enrollment_application_guardian_user_id;type:uuid" json:"enrollment_application_guardian_user_id,omitempty"`
	EnrollmentApplicationGuardianContact string  `gorm:"column:enrollment_application_guardian_contact;size:120;not null" json:"enrollment_application_guardian_contact"`
	EnrollmentApplicationYearGroupID     *uuid.UUID `gorm:"column:enrollment_application_year_group_id;type:uuid" json:"enrollment_application_year_group_id,omitempty"`

	EnrollmentApplicationPathway string `gorm:"column:enrollment_application_pathway;type:varchar(30);not null;default:'standard_digital'" json:"enrollment_application_pathway"`
	EnrollmentApplicationStatus  string `gorm:"column:enrollment_application_status;type:varchar(30);not null;default:'draft'" json:"enrollment_application_status"`
	EnrollmentApplicationVersion int    `gorm:"column:enrollment_application_version;not null;default:1" json:"enrollment_application_version"`

	// dokumen upload (JSONB: [{name, url}])
	EnrollmentApplicationDocuments datatypes.JSON `gorm:"column:enrollment_application_documents;type:jsonb" json:"enrollment_application_documents,omitempty"`

	// proyeksi cache — dihitung ulang dari workflow steps, bukan source of truth
	EnrollmentApplicationCompletionPct int `gorm:"column:enrollment_application_completion_pct;not null;default:0" json:"enrollment_application_completion_pct"`

	// state resume untuk on_hold / requires_override
	EnrollmentApplicationResumeStatus *string `gorm:"column:enrollment_application_resume_status;type:varchar(30)" json:"enrollment_application_resume_status,omitempty"`

	EnrollmentApplicationSubmittedAt *time.Time `gorm:"column:enrollment_application_submitted_at;type:timestamptz" json:"enrollment_application_submitted_at,omitempty"`
	EnrollmentApplicationDecidedAt   *time.Time `gorm:"column:enrollment_application_decided_at;type:timestamptz" json:"enrollment_application_decided_at,omitempty"`
	EnrollmentApplicationDecidedBy   *uuid.UUID `gorm:"column:enrollment_application_decided_by;type:uuid" json:"enrollment_application_decided_by,omitempty"`

	EnrollmentApplicationCreatedAt time.Time  `gorm:"column:enrollment_application_created_at;type:timestamptz;not null;default:now()" json:"enrollment_application_created_at"`
	EnrollmentApplicationUpdatedAt time.Time  `gorm:"column:enrollment_application_updated_at;type:timestamptz;not null;default:now()" json:"enrollment_application_updated_at"`
	EnrollmentApplicationDeletedAt *time.Time `gorm:"column:enrollment_application_deleted_at;type:timestamptz" json:"enrollment_application_deleted_at,omitempty"`
}

func (EnrollmentApplication) TableName() string { return "enrollment_applications" }

func (a *EnrollmentApplication) BeforeCreate(tx *gorm.DB) error {
	a.EnrollmentApplicationUpdatedAt = time.Now().UTC()
	return nil
}
func (a *EnrollmentApplication) BeforeUpdate(tx *gorm.DB) error {
	a.EnrollmentApplicationUpdatedAt = time.Now().UTC()
	return nil
}

/* =========================
   Model: enrollment_workflow_steps
   ========================= */

// EnrollmentWorkflowStep: checklist langkah per aplikasi. Persentase
// completion SELALU dihitung ulang dari baris-baris ini.
type EnrollmentWorkflowStep struct {
	EnrollmentWorkflowStepID            uuid.UUID  `gorm:"column:enrollment_workflow_step_id;type:uuid;primaryKey;default:gen_random_uuid()" json:"enrollment_workflow_step_id"`
	EnrollmentWorkflowStepApplicationID uuid.UUID  `gorm:"column:enrollment_workflow_step_application_id;type:uuid;not null;index" json:"enrollment_workflow_step_application_id"`
	EnrollmentWorkflowStepName          string     `gorm:"column:enrollment_workflow_step_name;type:varchar(60);not null" json:"enrollment_workflow_step_name"`
	EnrollmentWorkflowStepIsRequired    bool       `gorm:"column:enrollment_workflow_step_is_required;not null;default:true" json:"enrollment_workflow_step_is_required"`
	EnrollmentWorkflowStepCompletedAt   *time.Time `gorm:"column:enrollment_workflow_step_completed_at;type:timestamptz" json:"enrollment_workflow_step_completed_at,omitempty"`
	EnrollmentWorkflowStepCompletedBy   *uuid.UUID `gorm:"column:enrollment_workflow_step_completed_by;type:uuid" json:"enrollment_workflow_step_completed_by,omitempty"`
	EnrollmentWorkflowStepCreatedAt     time.Time  `gorm:"column:enrollment_workflow_step_created_at;type:timestamptz;not null;default:now()" json:"enrollment_workflow_step_created_at"`
}

func (EnrollmentWorkflowStep) TableName() string { return "enrollment_workflow_steps" }

/* =========================
   Scopes
   ========================= */

func ScopeAliveApplications(db *gorm.DB) *gorm.DB {
	return db.Where("enrollment_application_deleted_at IS NULL")
}

func ScopeApplicationsBySchool(schoolID uuid.UUID) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("enrollment_application_school_id = ?", schoolID)
	}
}
