package dto

import (
	"encoding/json"

	"gorm.io/datatypes"

	model "schoolku_backend/internals/features/school/schools/model"
)

/* =========================================================
   REQUEST
   ========================================================= */

type CreateSchoolRequest struct {
	SchoolName string `json:"school_name" validate:"required,max=160"`
	SchoolSlug string `json:"school_slug" validate:"required,max=120,lowercase"`
}

func (r *CreateSchoolRequest) ToModel() *model.SchoolModel {
	return &model.SchoolModel{
		SchoolName:     r.SchoolName,
		SchoolSlug:     r.SchoolSlug,
		SchoolIsActive: true,
	}
}

type SetModuleFlagRequest struct {
	Module string `json:"module" validate:"required"`
	Status string `json:"status" validate:"required,oneof=enabled disabled revoked"`
}

type UpdateSettingsRequest struct {
	Settings map[string]any `json:"settings" validate:"required"`
}

func (r *UpdateSettingsRequest) ToJSON() (datatypes.JSON, error) {
	b, err := json.Marshal(r.Settings)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(b), nil
}
