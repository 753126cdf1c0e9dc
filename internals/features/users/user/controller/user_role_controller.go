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
	authzService "schoolku_backend/internals/features/authz/service"
	dto "schoolku_backend/internals/features/users/user/dto"
	model "schoolku_backend/internals/features/users/user/model"
	helper "schoolku_backend/internals/helpers"
	helperAuth "schoolku_backend/internals/helpers/auth"
)

// UserRoleController mengelola role assignment per sekolah.
// Semua operasi di sini khusus admin sekolah (atau owner).
type UserRoleController struct {
	DB        *gorm.DB
	Validator *validator.Validate
	Authz     *authzService.AuthzService
}

func NewUserRoleController(db *gorm.DB, authz *authzService.AuthzService) *UserRoleController {
	return &UserRoleController{DB: db, Validator: validator.New(), Authz: authz}
}

func (ctl *UserRoleController) requireAdmin(c *fiber.Ctx) (helperAuth.SchoolContext, error) {
	sc, err := helperAuth.ResolveSchoolContext(c)
	if err != nil {
		return helperAuth.SchoolContext{}, err
	}
	if _, err := helperAuth.EnsureSchoolAccessAdmin(c, sc); err != nil {
		return helperAuth.SchoolContext{}, err
	}
	return sc, nil
}

/* =========================================================
   Assign
   ========================================================= */

func (ctl *UserRoleController) Assign(c *fiber.Ctx) error {
	sc, err := ctl.requireAdmin(c)
	if err != nil {
		return err
	}

	var req dto.AssignRoleRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.Error(c, fiber.StatusBadRequest, err.Error())
	}
	if err := ctl.Validator.Struct(&req); err != nil {
		return helper.ValidationError(c, err)
	}
	if !constants.IsKnownRole(req.Role) {
		return helper.Error(c, fiber.StatusBadRequest, "Role tidak dikenal: "+req.Role)
	}
	// owner tidak pernah di-assign per sekolah
	if req.Role == constants.RoleOwner && !helperAuth.IsOwner(c) {
		return helper.Error(c, fiber.StatusForbidden, constants.RoleErrorOwner("pemberian role owner"))
	}

	// target user harus ada & hidup
	var user model.UserModel
	if err := ctl.DB.
		Where("user_id = ? AND user_deleted_at IS NULL", req.UserID).
		First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return helper.Error(c, fiber.StatusNotFound, "User tidak ditemukan")
		}
		return helper.Error(c, fiber.StatusInternalServerError, err.Error())
	}

	// assignment efektif yang sama tidak digandakan
	var existing model.UserSchoolRole
	err = model.ScopeEffectiveRoles(ctl.DB).
		Scopes(model.ScopeRolesBySchool(sc.SchoolID)).
		Where("user_school_role_user_id = ? AND user_school_role_role = ?", req.UserID, req.Role).
		First(&existing).Error
	if err == nil {
		return helper.Success(c, "Role sudah terpasang", existing)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return helper.Error(c, fiber.StatusInternalServerError, err.Error())
	}

	actorID, err := helperAuth.GetUserIDFromToken(c)
	if err != nil {
		return err
	}
	assignment := req.ToModel(sc.SchoolID, actorID)
	if err := ctl.DB.Create(assignment).Error; err != nil {
		return helper.Error(c, fiber.StatusInternalServerError, err.Error())
	}

	ctl.Authz.WriteAudit(sc.SchoolID, actorID, "role.assign",
		constants.ResSystemSettings, &assignment.UserSchoolRoleID,
		nil, fiber.Map{"user_id": req.UserID, "role": req.Role})

	return helper.SuccessWithCode(c, fiber.StatusCreated, "Role diberikan", assignment)
}

/* =========================================================
   List — semua assignment efektif di sekolah context
   ========================================================= */

func (ctl *UserRoleController) List(c *fiber.Ctx) error {
	sc, err := ctl.requireAdmin(c)
	if err != nil {
		return err
	}

	p := helper.ParsePage(c, "user_school_role_assigned_at", "desc")
	q := model.ScopeEffectiveRoles(ctl.DB).
		Scopes(model.ScopeRolesBySchool(sc.SchoolID)).
		Model(&model.UserSchoolRole{})

	if userID := strings.TrimSpace(c.Query("user_id")); userID != "" {
		id, err := uuid.Parse(userID)
		if err != nil {
			return helper.Error(c, fiber.StatusBadRequest, "user_id tidak valid")
		}
		q = q.Where("user_school_role_user_id = ?", id)
	}
	if role := strings.TrimSpace(c.Query("role")); role != "" {
		q = q.Where("user_school_role_role = ?", role)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return helper.Error(c, fiber.StatusInternalServerError, err.Error())
	}
	var rows []model.UserSchoolRole
	if err := q.Order(p.SortBy + " " + p.SortOrder).
		Offset(p.Offset()).Limit(p.Limit()).
		Find(&rows).Error; err != nil {
		return helper.Error(c, fiber.StatusInternalServerError, err.Error())
	}
	return helper.Success(c, "OK", fiber.Map{"items": rows, "meta": helper.BuildPageMeta(p, total)})
}

/* =========================================================
   Revoke — soft: is_active=false, riwayat tetap ada
   ========================================================= */

func (ctl *UserRoleController) Revoke(c *fiber.Ctx) error {
	sc, err := ctl.requireAdmin(c)
	if err != nil {
		return err
	}

	id, err := uuid.Parse(strings.TrimSpace(c.Params("assignment_id")))
	if err != nil {
		return helper.Error(c, fiber.StatusBadRequest, "assignment_id tidak valid")
	}

	var assignment model.UserSchoolRole
	if err := ctl.DB.
		Scopes(model.ScopeRolesBySchool(sc.SchoolID)).
		Where("user_school_role_id = ? AND user_school_role_deleted_at IS NULL", id).
		First(&assignment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return helper.Error(c, fiber.StatusNotFound, "Assignment tidak ditemukan")
		}
		return helper.Error(c, fiber.StatusInternalServerError, err.Error())
	}

	if assignment.UserSchoolRoleRole == constants.RoleOwner && !helperAuth.IsOwner(c) {
		return helper.Error(c, fiber.StatusForbidden, constants.RoleErrorOwner("pencabutan role owner"))
	}

	now := time.Now().UTC()
	if err := ctl.DB.Model(&model.UserSchoolRole{}).
		Where("user_school_role_id = ?", assignment.UserSchoolRoleID).
		Updates(map[string]any{
			"user_school_role_is_active":  false,
			"user_school_role_deleted_at": now,
		}).Error; err != nil {
		return helper.Error(c, fiber.StatusInternalServerError, err.Error())
	}

	actorID, _ := helperAuth.GetUserIDFromToken(c)
	ctl.Authz.WriteAudit(sc.SchoolID, actorID, "role.revoke",
		constants.ResSystemSettings, &assignment.UserSchoolRoleID,
		fiber.Map{"user_id": assignment.UserSchoolRoleUserID, "role": assignment.UserSchoolRoleRole}, nil)

	return helper.Success(c, "Role dicabut", fiber.Map{"assignment_id": assignment.UserSchoolRoleID})
}
