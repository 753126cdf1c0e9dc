package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

/* =========================
   Model: workflow_overrides
   ========================= */

// WorkflowOverride: pengecualian eksplisit atas aturan transisi normal
// (mis. terima sibling tanpa assessment). Inert sampai di-approve bila
// requires_approval = true.
type WorkflowOverride struct {
	WorkflowOverrideID       uuid.UUID `gorm:"column:workflow_override_id;type:uuid;primaryKey;default:gen_random_uuid()" json:"workflow_override_id"`
	WorkflowOverrideSchoolID uuid.UUID `gorm:"column:workflow_override_school_id;type:uuid;not null;index" json:"workflow_override_school_id"`

	// entity target (polymorphic by name + id)
	WorkflowOverrideEntityType string    `gorm:"column:workflow_override_entity_type;type:varchar(40);not null" json:"workflow_override_entity_type"`
	WorkflowOverrideEntityID   uuid.UUID `gorm:"column:workflow_override_entity_id;type:uuid;not null;index" json:"workflow_override_entity_id"`

	// field atau transisi yang dikecualikan
	WorkflowOverrideTarget        string         `gorm:"column:workflow_override_target;type:varchar(80);not null" json:"workflow_override_target"`
	WorkflowOverrideType          string         `gorm:"column:workflow_override_type;type:varchar(40);not null" json:"workflow_override_type"`
	WorkflowOverrideOriginalValue datatypes.JSON `gorm:"column:workflow_override_original_value;type:jsonb" json:"workflow_override_original_value,omitempty"`
	WorkflowOverrideValue         datatypes.JSON `gorm:"column:workflow_override_value;type:jsonb" json:"workflow_override_value,omitempty"`
	WorkflowOverrideReasonCode    string         `gorm:"column:workflow_override_reason_code;type:varchar(60);not null" json:"workflow_override_reason_code"`

	WorkflowOverrideRequestedBy      uuid.UUID  `gorm:"column:workflow_override_requested_by;type:uuid;not null" json:"workflow_override_requested_by"`
	WorkflowOverrideRequiresApproval bool       `gorm:"column:workflow_override_requires_approval;not null;default:true" json:"workflow_override_requires_approval"`
	WorkflowOverrideApprovedBy       *uuid.UUID `gorm:"column:workflow_override_approved_by;type:uuid" json:"workflow_override_approved_by,omitempty"`
	WorkflowOverrideApprovedAt       *time.Time `gorm:"column:workflow_override_approved_at;type:timestamptz" json:"workflow_override_approved_at,omitempty"`

	WorkflowOverrideIsActive bool `gorm:"column:workflow_override_is_active;not null;default:true" json:"workflow_override_is_active"`

	WorkflowOverrideCreatedAt time.Time  `gorm:"column:workflow_override_created_at;type:timestamptz;not null;default:now()" json:"workflow_override_created_at"`
	WorkflowOverrideUpdatedAt time.Time  `gorm:"column:workflow_override_updated_at;type:timestamptz;not null;default:now()" json:"workflow_override_updated_at"`
	WorkflowOverrideDeletedAt *time.Time `gorm:"column:workflow_override_deleted_at;type:timestamptz" json:"workflow_override_deleted_at,omitempty"`
}

func (WorkflowOverride) TableName() string { return "workflow_overrides" }

func (o *WorkflowOverride) BeforeCreate(tx *gorm.DB) error {
	o.WorkflowOverrideUpdatedAt = time.Now().UTC()
	return nil
}
func (o *WorkflowOverride) BeforeUpdate(tx *gorm.DB) error {
	o.WorkflowOverrideUpdatedAt = time.Now().UTC()
	return nil
}

// IsEffective: override boleh dieksekusi — aktif dan (bila perlu approval)
// sudah di-approve.
func (o *WorkflowOverride) IsEffective() bool {
	if !o.WorkflowOverrideIsActive || o.WorkflowOverrideDeletedAt != nil {
		return false
	}
	if o.WorkflowOverrideRequiresApproval && o.WorkflowOverrideApprovedBy == nil {
		return false
	}
	return true
}

func ScopeAliveOverrides(db *gorm.DB) *gorm.DB {
	return db.Where("workflow_override_deleted_at IS NULL")
}

func ScopeOverridesByEntity(entityType string, entityID uuid.UUID) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("workflow_override_entity_type = ? AND workflow_override_entity_id = ?", entityType, entityID)
	}
}
