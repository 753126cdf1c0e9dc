package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

/* =========================
   Status enum (wire contract — jangan ubah literal)
   ========================= */

const (
	RecruitStatusApplied            = "applied"
	RecruitStatusShortlisted        = "shortlisted"
	RecruitStatusInterviewScheduled = "interview_scheduled"
	RecruitStatusInterviewComplete  = "interview_complete"
	RecruitStatusOfferMade          = "offer_made"
	RecruitStatusOfferAccepted      = "offer_accepted"
	RecruitStatusOfferDeclined      = "offer_declined"
	RecruitStatusHired              = "hired"
	RecruitStatusRejected           = "rejected"
	RecruitStatusWithdrawn          = "withdrawn"
)

/* =========================
   Model: job_applications
   ========================= */

type JobApplication struct {
	JobApplicationID       uuid.UUID `gorm:"column:job_application_id;type:uuid;primaryKey;default:gen_random_uuid()" json:"job_application_id"`
	JobApplicationSchoolID uuid.UUID `gorm:"column:job_application_school_id;type:uuid;not null;index" json:"job_application_school_id"`

	JobApplicationCandidateName  string `gorm:"column:job_application_candidate_name;size:120;not null" json:"job_application_candidate_name"`
	JobApplicationCandidateEmail string `gorm:"column:job_application_candidate_email;size:120;not null" json:"job_application_candidate_email"`
	JobApplicationPosition       string `gorm:"column:job_application_position;size:120;not null" json:"job_application_position"`

	JobApplicationStatus  string `gorm:"column:job_application_status;type:varchar(30);not null;default:'applied'" json:"job_application_status"`
	JobApplicationVersion int    `gorm:"column:job_application_version;not null;default:1" json:"job_application_version"`

	JobApplicationInterviewAt *time.Time `gorm:"column:job_application_interview_at;type:timestamptz" json:"job_application_interview_at,omitempty"`
	JobApplicationDecidedAt   *time.Time `gorm:"column:job_application_decided_at;type:timestamptz" json:"job_application_decided_at,omitempty"`
	JobApplicationDecidedBy   *uuid.UUID `gorm:"column:job_application_decided_by;type:uuid" json:"job_application_decided_by,omitempty"`

	JobApplicationCreatedAt time.Time  `gorm:"column:job_application_created_at;type:timestamptz;not null;default:now()" json:"job_application_created_at"`
	JobApplicationUpdatedAt time.Time  `gorm:"column:job_application_updated_at;type:timestamptz;not null;default:now()" json:"job_application_updated_at"`
	JobApplicationDeletedAt *time.Time `gorm:"column:job_application_deleted_at;type:timestamptz" json:"job_application_deleted_at,omitempty"`
}

func (JobApplication) TableName() string { return "job_applications" }

func (a *JobApplication) BeforeCreate(tx *gorm.DB) error {
	a.JobApplicationUpdatedAt = time.Now().UTC()
	return nil
}
func (a *JobApplication) BeforeUpdate(tx *gorm.DB) error {
	a.JobApplicationUpdatedAt = time.Now().UTC()
	return nil
}

/* =========================
   Scopes
   ========================= */

func ScopeAliveJobApplications(db *gorm.DB) *gorm.DB {
	return db.Where("job_application_deleted_at IS NULL")
}

func ScopeJobApplicationsBySchool(schoolID uuid.UUID) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("job_application_school_id = ?", schoolID)
	}
}
