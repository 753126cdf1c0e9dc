package dto

import (
	"time"

	"github.com/google/uuid"

	model "schoolku_backend/internals/features/users/user/model"
)

type AssignRoleRequest struct {
	UserID       uuid.UUID  `json:"user_id" validate:"required"`
	Role         string     `json:"role" validate:"required"`
	DepartmentID *uuid.UUID `json:"department_id,omitempty"`
	YearGroupID  *uuid.UUID `json:"year_group_id,omitempty"`
	ExpiresAt    *time.Time `json:"expires_at,omitempty"`
}

func (r *AssignRoleRequest) ToModel(schoolID, assignedBy uuid.UUID) *model.UserSchoolRole {
	return &model.UserSchoolRole{
		UserSchoolRoleUserID:       r.UserID,
		UserSchoolRoleSchoolID:     schoolID,
		UserSchoolRoleRole:         r.Role,
		UserSchoolRoleDepartmentID: r.DepartmentID,
		UserSchoolRoleYearGroupID:  r.YearGroupID,
		UserSchoolRoleIsActive:     true,
		UserSchoolRoleAssignedBy:   &assignedBy,
		UserSchoolRoleExpiresAt:    r.ExpiresAt,
	}
}
