package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

/* =========================
   Model: audit_logs (append-only)
   ========================= */

// AuditLog: immutable. Tidak ada path update/delete di kode aplikasi —
// hanya Create. Snapshot before/after disimpan JSONB.
type AuditLog struct {
	AuditLogID       uuid.UUID `gorm:"column:audit_log_id;type:uuid;primaryKey;default:gen_random_uuid()" json:"audit_log_id"`
	AuditLogSchoolID uuid.UUID `gorm:"column:audit_log_school_id;type:uuid;not null;index" json:"audit_log_school_id"`

	AuditLogActorID    uuid.UUID  `gorm:"column:audit_log_actor_id;type:uuid;not null" json:"audit_log_actor_id"`
	AuditLogAction     string     `gorm:"column:audit_log_action;type:varchar(60);not null" json:"audit_log_action"`
	AuditLogResource   string     `gorm:"column:audit_log_resource;type:varchar(40);not null" json:"audit_log_resource"`
	AuditLogResourceID *uuid.UUID `gorm:"column:audit_log_resource_id;type:uuid" json:"audit_log_resource_id,omitempty"`

	AuditLogBefore datatypes.JSON `gorm:"column:audit_log_before;type:jsonb" json:"audit_log_before,omitempty"`
	AuditLogAfter  datatypes.JSON `gorm:"column:audit_log_after;type:jsonb" json:"audit_log_after,omitempty"`

	AuditLogAt time.Time `gorm:"column:audit_log_at;type:timestamptz;not null;default:now()" json:"audit_log_at"`
}

func (AuditLog) TableName() string { return "audit_logs" }
