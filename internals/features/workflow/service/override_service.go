package service

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	model "schoolku_backend/internals/features/workflow/model"
)

/* =========================================================
   Override handling
   ========================================================= */

// Self-approval bukan sekadar dilarang — pelanggaran aturan fatal.
var ErrSelfApproval = errors.New("override tidak boleh di-approve oleh requester sendiri")

var ErrOverrideInactive = errors.New("override sudah nonaktif")

type OverrideService struct {
	DB *gorm.DB
}

func NewOverrideService(db *gorm.DB) *OverrideService {
	return &OverrideService{DB: db}
}

// Approve: approver HARUS aktor berbeda dari requester.
func (s *OverrideService) Approve(overrideID, approverID uuid.UUID) (*model.WorkflowOverride, error) {
	var o model.WorkflowOverride
	if err := model.ScopeAliveOverrides(s.DB).
		First(&o, "workflow_override_id = ?", overrideID).Error; err != nil {
		return nil, err
	}
	if err := ApproveOverride(&o, approverID, time.Now().UTC()); err != nil {
		return nil, err
	}
	if err := s.DB.Save(&o).Error; err != nil {
		return nil, err
	}
	return &o, nil
}

// ApproveOverride: mutasi murni, dipisah supaya bisa diuji tanpa DB.
func ApproveOverride(o *model.WorkflowOverride, approverID uuid.UUID, now time.Time) error {
	if !o.WorkflowOverrideIsActive || o.WorkflowOverrideDeletedAt != nil {
		return ErrOverrideInactive
	}
	if approverID == o.WorkflowOverrideRequestedBy {
		return ErrSelfApproval
	}
	o.WorkflowOverrideApprovedBy = &approverID
	o.WorkflowOverrideApprovedAt = &now
	return nil
}

// EffectiveOverrideForTransition mencari override efektif yang mengizinkan
// transisi tertentu pada entity. Dipakai guard requires_override.
func (s *OverrideService) EffectiveOverrideForTransition(entityType string, entityID uuid.UUID, target string) (*model.WorkflowOverride, error) {
	var rows []model.WorkflowOverride
	if err := model.ScopeAliveOverrides(s.DB).
		Scopes(model.ScopeOverridesByEntity(entityType, entityID)).
		Where("workflow_override_target = ?", target).
		Order("workflow_override_created_at DESC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	for i := range rows {
		if rows[i].IsEffective() {
			return &rows[i], nil
		}
	}
	return nil, nil
}
