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
	ConcernStatusReported      = "reported"
	ConcernStatusTriaged       = "triaged"
	ConcernStatusInvestigating = "investigating"
	ConcernStatusActionTaken   = "action_taken"
	ConcernStatusMonitoring    = "monitoring"
	ConcernStatusClosed        = "closed"
	ConcernStatusEscalated     = "escalated"
)

const (
	ConcernSeverityLow      = "low"
	ConcernSeverityMedium   = "medium"
	ConcernSeverityHigh     = "high"
	ConcernSeverityCritical = "critical"
)

/* =========================
   Model: safeguarding_concerns
   ========================= */

// SafeguardingConcern: kasus perlindungan siswa. Resource sensitif —
// caller tanpa akses mendapat 404, bukan 403, supaya keberadaan kasus
// tidak bocor.
type SafeguardingConcern struct {
	SafeguardingConcernID       uuid.UUID `gorm:"column:safeguarding_concern_id;type:uuid;primaryKey;default:gen_random_uuid()" json:"safeguarding_concern_id"`
	SafeguardingConcernSchoolID uuid.UUID `gorm:"column:safeguarding_concern_school_id;type:uuid;not null;index" json:"safeguarding_concern_school_id"`

	SafeguardingConcernStudentName string `gorm:"column:safeguarding_concern_student_name;size:120;not null" json:"safeguarding_concern_student_name"`
	SafeguardingConcernSummary     string `gorm:"column:safeguarding_concern_summary;size:500;not null" json:"safeguarding_concern_summary"`
	SafeguardingConcernSeverity    string `gorm:"column:safeguarding_concern_severity;type:varchar(10);not null;default:'low'" json:"safeguarding_concern_severity"`

	SafeguardingConcernStatus  string `gorm:"column:safeguarding_concern_status;type:varchar(20);not null;default:'reported'" json:"safeguarding_concern_status"`
	SafeguardingConcernVersion int    `gorm:"column:safeguarding_concern_version;not null;default:1" json:"safeguarding_concern_version"`

	SafeguardingConcernReportedBy  uuid.UUID  `gorm:"column:safeguarding_concern_reported_by;type:uuid;not null" json:"safeguarding_concern_reported_by"`
	SafeguardingConcernAssignedTo  *uuid.UUID `gorm:"column:safeguarding_concern_assigned_to;type:uuid" json:"safeguarding_concern_assigned_to,omitempty"`
	SafeguardingConcernEscalatedAt *time.Time `gorm:"column:safeguarding_concern_escalated_at;type:timestamptz" json:"safeguarding_concern_escalated_at,omitempty"`
	SafeguardingConcernClosedAt    *time.Time `gorm:"column:safeguarding_concern_closed_at;type:timestamptz" json:"safeguarding_concern_closed_at,omitempty"`

	SafeguardingConcernCreatedAt time.Time  `gorm:"column:safeguarding_concern_created_at;type:timestamptz;not null;default:now()" json:"safeguarding_concern_created_at"`
	SafeguardingConcernUpdatedAt time.Time  `gorm:"column:safeguarding_concern_updated_at;type:timestamptz;not null;default:now()" json:"safeguarding_concern_updated_at"`
	SafeguardingConcernDeletedAt *time.Time `gorm:"column:safeguarding_concern_deleted_at;type:timestamptz" json:"safeguarding_concern_deleted_at,omitempty"`
}

func (SafeguardingConcern) TableName() string { return "safeguarding_concerns" }

func (s *SafeguardingConcern) BeforeCreate(tx *gorm.DB) error {
	s.SafeguardingConcernUpdatedAt = time.Now().UTC()
	return nil
}
func (s *SafeguardingConcern) BeforeUpdate(tx *gorm.DB) error {
	s.SafeguardingConcernUpdatedAt = time.Now().UTC()
	return nil
}

/* =========================
   Scopes
   ========================= */

func ScopeAliveConcerns(db *gorm.DB) *gorm.DB {
	return db.Where("safeguarding_concern_deleted_at IS NULL")
}

func ScopeConcernsBySchool(schoolID uuid.UUID) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("safeguarding_concern_school_id = ?", schoolID)
	}
}
