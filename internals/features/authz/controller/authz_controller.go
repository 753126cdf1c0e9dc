package controller

import (
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"schoolku_backend/internals/constants"
	dto "schoolku_backend/internals/features/authz/dto"
	model "schoolku_backend/internals/features/authz/model"
	authzService "schoolku_backend/internals/features/authz/service"
	helper "schoolku_backend/internals/helpers"
	helperAuth "schoolku_backend/internals/helpers/auth"
)

// AuthzController: kelola permission_rules & inspeksi keputusan akses.
// Permukaan ini owner-only — konfigurasi permission bukan urusan tenant admin
// kecuali rule override sekolahnya sendiri.
type AuthzController struct {
	DB        *gorm.DB
	Validator *validator.Validate
	Authz     *authzService.AuthzService
}

func NewAuthzController(db *gorm.DB, authz *authzService.AuthzService) *AuthzController {
	return &AuthzController{DB: db, Validator: validator.New(), Authz: authz}
}

func (ctl *AuthzController) requireOwner(c *fiber.Ctx) error {
	if !helperAuth.IsOwner(c) {
		return helper.Error(c, fiber.StatusForbidden, constants.RoleErrorOwner("konfigurasi permission"))
	}
	return nil
}

/* =========================================================
   Permission rules CRUD
   ========================================================= */

func (ctl *AuthzController) CreateRule(c *fiber.Ctx) error {
	if err := ctl.requireOwner(c); err != nil {
		return err
	}

	var req dto.CreatePermissionRuleRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.Error(c, fiber.StatusBadRequest, err.Error())
	}
	if err := ctl.Validator.Struct(&req); err != nil {
		return helper.ValidationError(c, err)
	}

	req.Role = strings.ToLower(strings.TrimSpace(req.Role))
	req.Resource = strings.ToLower(strings.TrimSpace(req.Resource))
	req.Action = strings.ToLower(strings.TrimSpace(req.Action))
	if !constants.IsKnownRole(req.Role) {
		return helper.Error(c, fiber.StatusBadRequest, "Role tidak dikenal: "+req.Role)
	}
	if !constants.IsKnownResource(req.Resource) {
		return helper.Error(c, fiber.StatusBadRequest, "Resource tidak dikenal: "+req.Resource)
	}
	if !constants.IsKnownAction(req.Action) {
		return helper.Error(c, fiber.StatusBadRequest, "Action tidak dikenal: "+req.Action)
	}

	rule, err := req.ToModel()
	if err != nil {
		return helper.Error(c, fiber.StatusBadRequest, err.Error())
	}
	if err := ctl.DB.Create(rule).Error; err != nil {
		return helper.Error(c, fiber.StatusInternalServerError, err.Error())
	}

	// rule baru langsung berlaku
	if err := ctl.Authz.Reload(); err != nil {
		return helper.Error(c, fiber.StatusInternalServerError, "Rule tersimpan tetapi reload gagal: "+err.Error())
	}
	return helper.SuccessWithCode(c, fiber.StatusCreated, "Rule dibuat", rule)
}

func (ctl *AuthzController) ListRules(c *fiber.Ctx) error {
	if err := ctl.requireOwner(c); err != nil {
		return err
	}

	p := helper.ParsePage(c, "permission_rule_created_at", "desc")
	q := model.ScopeAliveRules(ctl.DB).Model(&model.PermissionRule{})

	if role := strings.TrimSpace(c.Query("role")); role != "" {
		q = q.Where("permission_rule_role = ?", strings.ToLower(role))
	}
	if resource := strings.TrimSpace(c.Query("resource")); resource != "" {
		q = q.Where("permission_rule_resource = ?", strings.ToLower(resource))
	}
	if schoolID := strings.TrimSpace(c.Query("school_id")); schoolID != "" {
		id, err := uuid.Parse(schoolID)
		if err != nil {
			return helper.Error(c, fiber.StatusBadRequest, "school_id tidak valid")
		}
		q = q.Where("permission_rule_school_id = ?", id)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return helper.Error(c, fiber.StatusInternalServerError, err.Error())
	}
	var rows []model.PermissionRule
	if err := q.Order(p.SortBy + " " + p.SortOrder).
		Offset(p.Offset()).Limit(p.Limit()).
		Find(&rows).Error; err != nil {
		return helper.Error(c, fiber.StatusInternalServerError, err.Error())
	}
	return helper.Success(c, "OK", fiber.Map{"items": rows, "meta": helper.BuildPageMeta(p, total)})
}

func (ctl *AuthzController) DeleteRule(c *fiber.Ctx) error {
	if err := ctl.requireOwner(c); err != nil {
		return err
	}

	id, err := uuid.Parse(strings.TrimSpace(c.Params("rule_id")))
	if err != nil {
		return helper.Error(c, fiber.StatusBadRequest, "rule_id tidak valid")
	}

	var rule model.PermissionRule
	if err := model.ScopeAliveRules(ctl.DB).
		First(&rule, "permission_rule_id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return helper.Error(c, fiber.StatusNotFound, "Rule tidak ditemukan")
		}
		return helper.Error(c, fiber.StatusInternalServerError, err.Error())
	}

	now := time.Now().UTC()
	if err := ctl.DB.Model(&model.PermissionRule{}).
		Where("permission_rule_id = ?", rule.PermissionRuleID).
		Update("permission_rule_deleted_at", now).Error; err != nil {
		return helper.Error(c, fiber.StatusInternalServerError, err.Error())
	}

	if err := ctl.Authz.Reload(); err != nil {
		return helper.Error(c, fiber.StatusInternalServerError, "Rule terhapus tetapi reload gagal: "+err.Error())
	}
	return helper.Success(c, "Rule dihapus", fiber.Map{"rule_id": rule.PermissionRuleID})
}

// Reload memaksa muat ulang ruleset dari DB (mis. setelah perubahan manual).
func (ctl *AuthzController) Reload(c *fiber.Ctx) error {
	if err := ctl.requireOwner(c); err != nil {
		return err
	}
	if err := ctl.Authz.Reload(); err != nil {
		return helper.Error(c, fiber.StatusInternalServerError, err.Error())
	}
	return helper.Success(c, "Ruleset dimuat ulang", nil)
}

/* =========================================================
   Can-check — dry-run keputusan akses untuk debugging
   ========================================================= */

func (ctl *AuthzController) CanCheck(c *fiber.Ctx) error {
	if err := ctl.requireOwner(c); err != nil {
		return err
	}

	var req dto.CanCheckRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.Error(c, fiber.StatusBadRequest, err.Error())
	}
	if err := ctl.Validator.Struct(&req); err != nil {
		return helper.ValidationError(c, err)
	}

	rec := authzService.RecordContext{
		OwnerUserID:  req.RecordOwnerID,
		DepartmentID: req.RecordDepartmentID,
		YearGroupID:  req.RecordYearGroupID,
	}
	dec, err := ctl.Authz.CanPerform(req.UserID, req.SchoolID, req.Resource, req.Action, rec, false)
	if err != nil {
		return helper.Error(c, fiber.StatusInternalServerError, err.Error())
	}
	return helper.Success(c, "OK", fiber.Map{
		"allow":  dec.Allow,
		"reason": dec.Reason,
	})
}

/* =========================================================
   Audit logs — read-only
   ========================================================= */

func (ctl *AuthzController) ListAuditLogs(c *fiber.Ctx) error {
	if err := ctl.requireOwner(c); err != nil {
		return err
	}

	p := helper.ParsePage(c, "audit_log_at", "desc")
	q := ctl.DB.Model(&model.AuditLog{})

	if schoolID := strings.TrimSpace(c.Query("school_id")); schoolID != "" {
		id, err := uuid.Parse(schoolID)
		if err != nil {
			return helper.Error(c, fiber.StatusBadRequest, "school_id tidak valid")
		}
		q = q.Where("audit_log_school_id = ?", id)
	}
	if resource := strings.TrimSpace(c.Query("resource")); resource != "" {
		q = q.Where("audit_log_resource = ?", resource)
	}
	if actorID := strings.TrimSpace(c.Query("actor_id")); actorID != "" {
		id, err := uuid.Parse(actorID)
		if err != nil {
			return helper.Error(c, fiber.StatusBadRequest, "actor_id tidak valid")
		}
		q = q.Where("audit_log_actor_id = ?", id)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return helper.Error(c, fiber.StatusInternalServerError, err.Error())
	}
	var rows []model.AuditLog
	if err := q.Order(p.SortBy + " " + p.SortOrder).
		Offset(p.Offset()).Limit(p.Limit()).
		Find(&rows).Error; err != nil {
		return helper.Error(c, fiber.StatusInternalServerError, err.Error())
	}
	return helper.Success(c, "OK", fiber.Map{"items": rows, "meta": helper.BuildPageMeta(p, total)})
}
