package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UserSchoolRole: role assignment user pada satu sekolah.
// Scope department / year-group bersifat MEMBATASI (bukan memperluas)
// permission dasar role tersebut.
type UserSchoolRole struct {
	UserSchoolRoleID       uuid.UUID  `gorm:"column:user_school_role_id;type:uuid;primaryKey;default:gen_random_uuid()" json:"user_school_role_id"`
	UserSchoolRoleUserID   uuid.UUID  `gorm:"column:user_school_role_user_id;type:uuid;not null;index:idx_usr_user_school" json:"user_school_role_user_id"`
	UserSchoolRoleSchoolID uuid.UUID  `gorm:"column:user_school_role_school_id;type:uuid;not null;index:idx_usr_user_school" json:"user_school_role_school_id"`
	UserSchoolRoleRole     string     `gorm:"column:user_school_role_role;type:varchar(30);not null" json:"user_school_role_role"`

	// scope opsional
	UserSchoolRoleDepartmentID *uuid.UUID `gorm:"column:user_school_role_department_id;type:uuid" json:"user_school_role_department_id,omitempty"`
	UserSchoolRoleYearGroupID  *uuid.UUID `gorm:"column:user_school_role_year_group_id;type:uuid" json:"user_school_role_year_group_id,omitempty"`

	UserSchoolRoleIsActive   bool       `gorm:"column:user_school_role_is_active;not null;default:true" json:"user_school_role_is_active"`
	UserSchoolRoleAssignedBy *uuid.UUID `gorm:"column:user_school_role_assigned_by;type:uuid" json:"user_school_role_assigned_by,omitempty"`
	UserSchoolRoleAssignedAt time.Time  `gorm:"column:user_school_role_assigned_at;type:timestamptz;not null;default:now()" json:"user_school_role_assigned_at"`
	UserSchoolRoleExpiresAt  *time.Time `gorm:"column:user_school_role_expires_at;type:timestamptz" json:"user_school_role_expires_at,omitempty"`
	UserSchoolRoleDeletedAt  *time.Time `gorm:"column:user_school_role_deleted_at;type:timestamptz" json:"user_school_role_deleted_at,omitempty"`
}

func (UserSchoolRole) TableName() string { return "user_school_roles" }

// IsEffective: assignment masih aktif & belum expired pada waktu now.
func (r *UserSchoolRole) IsEffective(now time.Time) bool {
	if !r.UserSchoolRoleIsActive || r.UserSchoolRoleDeletedAt != nil {
		return false
	}
	if r.UserSchoolRoleExpiresAt != nil && now.After(*r.UserSchoolRoleExpiresAt) {
		return false
	}
	return true
}

/* =========================
   Scopes
   ========================= */

func ScopeEffectiveRoles(db *gorm.DB) *gorm.DB {
	return db.Where("user_school_role_is_active AND user_school_role_deleted_at IS NULL").
		Where("user_school_role_expires_at IS NULL OR user_school_role_expires_at > NOW()")
}

func ScopeRolesBySchool(schoolID uuid.UUID) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("user_school_role_school_id = ?", schoolID)
	}
}
