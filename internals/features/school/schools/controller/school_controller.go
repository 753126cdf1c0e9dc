package controller

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"schoolku_backend/internals/constants"
	authzService "schoolku_backend/internals/features/authz/service"
	dto "schoolku_backend/internals/features/school/schools/dto"
	model "schoolku_backend/internals/features/school/schools/model"
	helper "schoolku_backend/internals/helpers"
	helperAuth "schoolku_backend/internals/helpers/auth"
)

type SchoolController struct {
	DB        *gorm.DB
	Validator *validator.Validate
	Authz     *authzService.AuthzService
}

func NewSchoolController(db *gorm.DB, authz *authzService.AuthzService) *SchoolController {
	return &SchoolController{DB: db, Validator: validator.New(), Authz: authz}
}

/* =========================================================
   Create — hanya owner yang boleh membuat tenant baru
   ========================================================= */

func (ctl *SchoolController) Create(c *fiber.Ctx) error {
	if !helperAuth.IsOwner(c) {
		return helper.Error(c, fiber.StatusForbidden, constants.RoleErrorOwner("pembuatan sekolah"))
	}

	var req dto.CreateSchoolRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.Error(c, fiber.StatusBadRequest, err.Error())
	}
	if err := ctl.Validator.Struct(&req); err != nil {
		return helper.ValidationError(c, err)
	}

	school := req.ToModel()
	if err := ctl.DB.Create(school).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return helper.Error(c, fiber.StatusConflict, "Slug sudah dipakai")
		}
		return helper.Error(c, fiber.StatusInternalServerError, err.Error())
	}
	return helper.SuccessWithCode(c, fiber.StatusCreated, "Sekolah dibuat", school)
}

func (ctl *SchoolController) GetByID(c *fiber.Ctx) error {
	school, err := ctl.fetchSchool(c)
	if err != nil {
		return err
	}
	return helper.Success(c, "OK", school)
}

func (ctl *SchoolController) List(c *fiber.Ctx) error {
	p := helper.ParsePage(c, "school_created_at", "desc")

	q := model.ScopeAliveSchools(ctl.DB)
	if search := strings.TrimSpace(c.Query("search")); search != "" {
		q = q.Where("school_name ILIKE ?", "%"+search+"%")
	}

	var total int64
	if err := q.Model(&model.SchoolModel{}).Count(&total).Error; err != nil {
		return helper.Error(c, fiber.StatusInternalServerError, err.Error())
	}

	var schools []model.SchoolModel
	if err := q.Order(p.SortBy + " " + p.SortOrder).
		Offset(p.Offset()).Limit(p.Limit()).
		Find(&schools).Error; err != nil {
		return helper.Error(c, fiber.StatusInternalServerError, err.Error())
	}

	return helper.Success(c, "OK", fiber.Map{"items": schools, "meta": helper.BuildPageMeta(p, total)})
}

/* =========================================================
   Deactivate — tenant tidak pernah di-hard-delete
   ========================================================= */

func (ctl *SchoolController) Deactivate(c *fiber.Ctx) error {
	if !helperAuth.IsOwner(c) {
		return helper.Error(c, fiber.StatusForbidden, constants.RoleErrorOwner("penonaktifan sekolah"))
	}
	school, err := ctl.fetchSchool(c)
	if err != nil {
		return err
	}

	if err := ctl.DB.Model(&model.SchoolModel{}).
		Where("school_id = ?", school.SchoolID).
		Updates(map[string]any{
			"school_is_active":  false,
			"school_updated_at": time.Now().UTC(),
		}).Error; err != nil {
		return helper.Error(c, fiber.StatusInternalServerError, err.Error())
	}

	userID, _ := helperAuth.GetUserIDFromToken(c)
	ctl.Authz.WriteAudit(school.SchoolID, userID, "school.deactivate",
		constants.ResSystemSettings, &school.SchoolID,
		fiber.Map{"is_active": true}, fiber.Map{"is_active": false})

	return helper.Success(c, "Sekolah dinonaktifkan", fiber.Map{"school_id": school.SchoolID})
}

/* =========================================================
   Module flags & settings
   ========================================================= */

func (ctl *SchoolController) SetModuleFlag(c *fiber.Ctx) error {
	school, err := ctl.requireSystemSettingsWrite(c)
	if err != nil {
		return err
	}

	var req dto.SetModuleFlagRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.Error(c, fiber.StatusBadRequest, err.Error())
	}
	if err := ctl.Validator.Struct(&req); err != nil {
		return helper.ValidationError(c, err)
	}
	if !constants.IsKnownResource(req.Module) {
		return helper.Error(c, fiber.StatusBadRequest, "Modul tidak dikenal: "+req.Module)
	}

	flags := school.ModuleFlags()
	before := flags[req.Module]
	flags[req.Module] = req.Status

	list := make([]model.ModuleFlag, 0, len(flags))
	for mod, status := range flags {
		list = append(list, model.ModuleFlag{Module: mod, Status: status})
	}
	b, err := json.Marshal(list)
	if err != nil {
		return helper.Error(c, fiber.StatusInternalServerError, err.Error())
	}

	if err := ctl.DB.Model(&model.SchoolModel{}).
		Where("school_id = ?", school.SchoolID).
		Update("school_modules", datatypes.JSON(b)).Error; err != nil {
		return helper.Error(c, fiber.StatusInternalServerError, err.Error())
	}

	userID, _ := helperAuth.GetUserIDFromToken(c)
	ctl.Authz.WriteAudit(school.SchoolID, userID, "school.set_module_flag",
		constants.ResSystemSettings, &school.SchoolID,
		fiber.Map{"module": req.Module, "status": before},
		fiber.Map{"module": req.Module, "status": req.Status})

	return helper.Success(c, "Module flag diperbarui", fiber.Map{
		"module": req.Module, "status": req.Status,
	})
}

func (ctl *SchoolController) UpdateSettings(c *fiber.Ctx) error {
	school, err := ctl.requireSystemSettingsWrite(c)
	if err != nil {
		return err
	}

	var req dto.UpdateSettingsRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.Error(c, fiber.StatusBadRequest, err.Error())
	}
	if err := ctl.Validator.Struct(&req); err != nil {
		return helper.ValidationError(c, err)
	}

	b, err := req.ToJSON()
	if err != nil {
		return helper.Error(c, fiber.StatusBadRequest, err.Error())
	}
	if err := ctl.DB.Model(&model.SchoolModel{}).
		Where("school_id = ?", school.SchoolID).
		Update("school_settings", b).Error; err != nil {
		return helper.Error(c, fiber.StatusInternalServerError, err.Error())
	}

	userID, _ := helperAuth.GetUserIDFromToken(c)
	ctl.Authz.WriteAudit(school.SchoolID, userID, "school.update_settings",
		constants.ResSystemSettings, &school.SchoolID, nil, req.Settings)

	return helper.Success(c, "Settings diperbarui", req.Settings)
}

/* =========================================================
   Helpers
   ========================================================= */

func (ctl *SchoolController) fetchSchool(c *fiber.Ctx) (*model.SchoolModel, error) {
	id, err := uuid.Parse(strings.TrimSpace(c.Params("school_id")))
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "school_id tidak valid")
	}
	var school model.SchoolModel
	if err := model.ScopeAliveSchools(ctl.DB).
		First(&school, "school_id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fiber.NewError(fiber.StatusNotFound, "Sekolah tidak ditemukan")
		}
		return nil, fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	return &school, nil
}

func (ctl *SchoolController) requireSystemSettingsWrite(c *fiber.Ctx) (*model.SchoolModel, error) {
	school, err := ctl.fetchSchool(c)
	if err != nil {
		return nil, err
	}
	if helperAuth.IsOwner(c) {
		return school, nil
	}
	userID, err := helperAuth.GetUserIDFromToken(c)
	if err != nil {
		return nil, err
	}
	dec, err := ctl.Authz.CanPerform(userID, school.SchoolID,
		constants.ResSystemSettings, constants.ActWrite,
		authzService.RecordContext{}, false)
	if err != nil {
		return nil, fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	if !dec.Allow {
		return nil, fiber.NewError(authzService.DenyStatus(constants.ResSystemSettings), "Akses ditolak")
	}
	return school, nil
}
