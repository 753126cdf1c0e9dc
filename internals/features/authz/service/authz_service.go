package service

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	model "schoolku_backend/internals/features/authz/model"
	schoolModel "schoolku_backend/internals/features/school/schools/model"
	userModel "schoolku_backend/internals/features/users/user/model"
)

/* =========================================================
   AuthzService: muat permission_rules → Ruleset in-memory.
   Konfigurasi swappable tanpa redeploy (Reload).
   ========================================================= */

type AuthzService struct {
	DB *gorm.DB

	mu sync.RWMutex
	rs *Ruleset
}

func NewAuthzService(db *gorm.DB) (*AuthzService, error) {
	s := &AuthzService{DB: db}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// Reload membangun ulang ruleset dari DB. Enum rusak = error fatal.
func (s *AuthzService) Reload() error {
	var rows []model.PermissionRule
	if err := model.ScopeAliveRules(s.DB).Find(&rows).Error; err != nil {
		return err
	}
	rs, err := BuildRuleset(rows)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.rs = rs
	s.mu.Unlock()
	log.Printf("[AUTHZ] ruleset dimuat: %d rules", len(rows))
	return nil
}

func (s *AuthzService) Ruleset() *Ruleset {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rs
}

// AssignmentsFor: role assignment efektif (user, school) dari DB.
func (s *AuthzService) AssignmentsFor(userID, schoolID uuid.UUID) ([]Assignment, error) {
	var rows []userModel.UserSchoolRole
	if err := userModel.ScopeEffectiveRoles(s.DB).
		Scopes(userModel.ScopeRolesBySchool(schoolID)).
		Where("user_school_role_user_id = ?", userID).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]Assignment, 0, len(rows))
	for _, r := range rows {
		out = append(out, Assignment{
			Role:         r.UserSchoolRoleRole,
			DepartmentID: r.UserSchoolRoleDepartmentID,
			YearGroupID:  r.UserSchoolRoleYearGroupID,
			IsActive:     r.UserSchoolRoleIsActive,
			ExpiresAt:    r.UserSchoolRoleExpiresAt,
		})
	}
	return out, nil
}

// ModuleStatusFor: status modul resource pada tenant (module key = resource tag).
func (s *AuthzService) ModuleStatusFor(schoolID uuid.UUID, resource string) (string, error) {
	var sch schoolModel.SchoolModel
	if err := schoolModel.ScopeAliveSchools(s.DB).
		First(&sch, "school_id = ?", schoolID).Error; err != nil {
		return "", err
	}
	if status, ok := sch.ModuleFlags()[resource]; ok {
		return status, nil
	}
	return schoolModel.ModuleEnabled, nil
}

// CanPerform: wrapper lengkap — ambil assignments + module status lalu
// jalankan decision function murni.
func (s *AuthzService) CanPerform(userID, schoolID uuid.UUID, resource, action string, rec RecordContext, isOwner bool) (Decision, error) {
	assignments, err := s.AssignmentsFor(userID, schoolID)
	if err != nil {
		return Decision{}, err
	}
	moduleStatus, err := s.ModuleStatusFor(schoolID, resource)
	if err != nil {
		return Decision{}, err
	}
	return s.Ruleset().CanPerform(AccessRequest{
		UserID:       userID,
		SchoolID:     schoolID,
		Resource:     resource,
		Action:       action,
		IsOwner:      isOwner,
		Assignments:  assignments,
		Record:       rec,
		ModuleStatus: moduleStatus,
		Now:          time.Now(),
	})
}

/* =========================================================
   Audit writer (append-only)
   ========================================================= */

// WriteAudit menulis satu entry audit_logs. Dipanggil caller setelah
// keputusan akses / transisi — resolver sendiri tetap murni.
func (s *AuthzService) WriteAudit(schoolID, actorID uuid.UUID, action, resource string, resourceID *uuid.UUID, before, after any) {
	entry := model.AuditLog{
		AuditLogSchoolID:   schoolID,
		AuditLogActorID:    actorID,
		AuditLogAction:     action,
		AuditLogResource:   resource,
		AuditLogResourceID: resourceID,
		AuditLogAt:         time.Now().UTC(),
	}
	if before != nil {
		if b, err := json.Marshal(before); err == nil {
			entry.AuditLogBefore = datatypes.JSON(b)
		}
	}
	if after != nil {
		if b, err := json.Marshal(after); err == nil {
			entry.AuditLogAfter = datatypes.JSON(b)
		}
	}
	if err := s.DB.Create(&entry).Error; err != nil {
		// audit gagal jangan menggagalkan request utama; cukup log
		log.Printf("[AUDIT ERROR] gagal tulis audit log: %v", err)
	}
}
