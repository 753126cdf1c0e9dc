package dto

import (
	"encoding/json"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	model "schoolku_backend/internals/features/authz/model"
)

type CreatePermissionRuleRequest struct {
	SchoolID *uuid.UUID     `json:"school_id,omitempty"` // nil = default global
	Role     string         `json:"role" validate:"required"`
	Resource string         `json:"resource" validate:"required"`
	Action   string         `json:"action" validate:"required"`
	Condition map[string]any `json:"condition,omitempty"`
}

func (r *CreatePermissionRuleRequest) ToModel() (*model.PermissionRule, error) {
	rule := &model.PermissionRule{
		PermissionRuleSchoolID: r.SchoolID,
		PermissionRuleRole:     r.Role,
		PermissionRuleResource: r.Resource,
		PermissionRuleAction:   r.Action,
	}
	if len(r.Condition) > 0 {
		b, err := json.Marshal(r.Condition)
		if err != nil {
			return nil, err
		}
		rule.PermissionRuleCondition = datatypes.JSON(b)
	}
	return rule, nil
}

type CanCheckRequest struct {
	UserID   uuid.UUID `json:"user_id" validate:"required"`
	SchoolID uuid.UUID `json:"school_id" validate:"required"`
	Resource string    `json:"resource" validate:"required"`
	Action   string    `json:"action" validate:"required"`

	RecordOwnerID      *uuid.UUID `json:"record_owner_id,omitempty"`
	RecordDepartmentID *uuid.UUID `json:"record_department_id,omitempty"`
	RecordYearGroupID  *uuid.UUID `json:"record_year_group_id,omitempty"`
}
