package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

/* =========================
   Model: permission_rules
   ========================= */

// PermissionRule: satu baris mapping (role, resource, action) → allow.
// Tidak ada baris = deny by default. Condition opsional (JSONB) dievaluasi
// terhadap context record saat resolve.
//
// PermissionRuleSchoolID nullable: NULL = default global, terisi = override
// per sekolah.
type PermissionRule struct {
	PermissionRuleID       uuid.UUID  `gorm:"column:permission_rule_id;type:uuid;primaryKey;default:gen_random_uuid()" json:"permission_rule_id"`
	PermissionRuleSchoolID *uuid.UUID `gorm:"column:permission_rule_school_id;type:uuid;index" json:"permission_rule_school_id,omitempty"`

	PermissionRuleRole     string `gorm:"column:permission_rule_role;type:varchar(30);not null;index:idx_perm_rra" json:"permission_rule_role"`
	PermissionRuleResource string `gorm:"column:permission_rule_resource;type:varchar(40);not null;index:idx_perm_rra" json:"permission_rule_resource"`
	PermissionRuleAction   string `gorm:"column:permission_rule_action;type:varchar(20);not null;index:idx_perm_rra" json:"permission_rule_action"`

	PermissionRuleCondition datatypes.JSON `gorm:"column:permission_rule_condition;type:jsonb" json:"permission_rule_condition,omitempty"`

	PermissionRuleCreatedAt time.Time  `gorm:"column:permission_rule_created_at;type:timestamptz;not null;default:now()" json:"permission_rule_created_at"`
	PermissionRuleUpdatedAt time.Time  `gorm:"column:permission_rule_updated_at;type:timestamptz;not null;default:now()" json:"permission_rule_updated_at"`
	PermissionRuleDeletedAt *time.Time `gorm:"column:permission_rule_deleted_at;type:timestamptz" json:"permission_rule_deleted_at,omitempty"`
}

func (PermissionRule) TableName() string { return "permission_rules" }

func (p *PermissionRule) BeforeCreate(tx *gorm.DB) error {
	p.PermissionRuleUpdatedAt = time.Now().UTC()
	return nil
}
func (p *PermissionRule) BeforeUpdate(tx *gorm.DB) error {
	p.PermissionRuleUpdatedAt = time.Now().UTC()
	return nil
}

func ScopeAliveRules(db *gorm.DB) *gorm.DB {
	return db.Where("permission_rule_deleted_at IS NULL")
}
