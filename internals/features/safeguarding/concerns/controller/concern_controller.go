package controller

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"schoolku_backend/internals/constants"
	authzService "schoolku_backend/internals/features/authz/service"
	model "schoolku_backend/internals/features/safeguarding/concerns/model"
	service "schoolku_backend/internals/features/safeguarding/concerns/service"
	wfService "schoolku_backend/internals/features/workflow/service"
	helper "schoolku_backend/internals/helpers"
	helperAuth "schoolku_backend/internals/helpers/auth"
)

type ConcernController struct {
	DB        *gorm.DB
	Validator *validator.Validate
	Authz     *authzService.AuthzService
}

func NewConcernController(db *gorm.DB, authz *authzService.AuthzService) *ConcernController {
	return &ConcernController{DB: db, Validator: validator.New(), Authz: authz}
}

type createConcernRequest struct {
	SafeguardingConcernStudentName string `json:"safeguarding_concern_student_name" validate:"required,max=120"`
	SafeguardingConcernSummary     string `json:"safeguarding_concern_summary" validate:"required,max=500"`
	SafeguardingConcernSeverity    string `json:"safeguarding_concern_severity" validate:"omitempty,oneof=low medium high critical"`
}

type concernTransitionRequest struct {
	NextStatus  string `json:"next_status" validate:"required"`
	BaseVersion int    `json:"base_version" validate:"required,min=1"`
}

// requireAccess: deny di resource ini SELALU 404 (DenyStatus) — keberadaan
// kasus safeguarding tidak boleh bocor lewat kode status.
func (ctl *ConcernController) requireAccess(c *fiber.Ctx, action string) (helperAuth.SchoolContext, error) {
	sc, err := helperAuth.ResolveSchoolContext(c)
	if err != nil {
		return sc, err
	}
	userID, err := helperAuth.GetUserIDFromToken(c)
	if err != nil {
		return sc, err
	}
	dec, err := ctl.Authz.CanPerform(userID, sc.SchoolID, constants.ResSafeguarding, action,
		authzService.RecordContext{}, helperAuth.IsOwner(c))
	if err != nil {
		return sc, fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	if !dec.Allow {
		return sc, fiber.NewError(authzService.DenyStatus(constants.ResSafeguarding), "Tidak ditemukan")
	}
	return sc, nil
}

func (ctl *ConcernController) Create(c *fiber.Ctx) error {
	sc, err := ctl.requireAccess(c, constants.ActWrite)
	if err != nil {
		return err
	}
	var req createConcernRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.Error(c, fiber.StatusBadRequest, err.Error())
	}
	if err := ctl.Validator.Struct(&req); err != nil {
		return helper.ValidationError(c, err)
	}

	userID, _ := helperAuth.GetUserIDFromToken(c)
	severity := req.SafeguardingConcernSeverity
	if severity == "" {
		severity = model.ConcernSeverityLow
	}
	concern := model.SafeguardingConcern{
		SafeguardingConcernSchoolID:    sc.SchoolID,
		SafeguardingConcernStudentName: req.SafeguardingConcernStudentName,
		SafeguardingConcernSummary:     req.SafeguardingConcernSummary,
		SafeguardingConcernSeverity:    severity,
		SafeguardingConcernStatus:      model.ConcernStatusReported,
		SafeguardingConcernVersion:     1,
		SafeguardingConcernReportedBy:  userID,
	}
	if err := ctl.DB.Create(&concern).Error; err != nil {
		return helper.Error(c, fiber.StatusInternalServerError, err.Error())
	}

	ctl.Authz.WriteAudit(sc.SchoolID, userID, "safeguarding_concern.create",
		constants.ResSafeguarding, &concern.SafeguardingConcernID, nil,
		fiber.Map{"status": concern.SafeguardingConcernStatus})

	return helper.SuccessWithCode(c, fiber.StatusCreated, "Kasus dicatat", concern)
}

func (ctl *ConcernController) GetByID(c *fiber.Ctx) error {
	sc, err := ctl.requireAccess(c, constants.ActRead)
	if err != nil {
		return err
	}
	concern, err := ctl.fetchConcern(c, sc.SchoolID)
	if err != nil {
		return err
	}

	m := service.ConcernMachine(nil)
	return helper.Success(c, "OK", fiber.Map{
		"concern":             concern,
		"allowed_transitions": m.AllowedTransitions(concern.SafeguardingConcernStatus),
	})
}

func (ctl *ConcernController) List(c *fiber.Ctx) error {
	sc, err := ctl.requireAccess(c, constants.ActRead)
	if err != nil {
		return err
	}

	p := helper.ParsePage(c, "safeguarding_concern_created_at", "desc")
	q := model.ScopeAliveConcerns(ctl.DB).
		Scopes(model.ScopeConcernsBySchool(sc.SchoolID)).
		Model(&model.SafeguardingConcern{})
	if status := strings.TrimSpace(c.Query("status")); status != "" {
		q = q.Where("safeguarding_concern_status = ?", status)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return helper.Error(c, fiber.StatusInternalServerError, err.Error())
	}
	var rows []model.SafeguardingConcern
	if err := q.Order(p.SortBy + " " + p.SortOrder).
		Offset(p.Offset()).Limit(p.Limit()).
		Find(&rows).Error; err != nil {
		return helper.Error(c, fiber.StatusInternalServerError, err.Error())
	}
	return helper.Success(c, "OK", fiber.Map{"items": rows, "meta": helper.BuildPageMeta(p, total)})
}

func (ctl *ConcernController) Transition(c *fiber.Ctx) error {
	sc, err := ctl.requireAccess(c, constants.ActWrite)
	if err != nil {
		return err
	}
	concern, err := ctl.fetchConcern(c, sc.SchoolID)
	if err != nil {
		return err
	}

	var req concernTransitionRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.Error(c, fiber.StatusBadRequest, err.Error())
	}
	if err := ctl.Validator.Struct(&req); err != nil {
		return helper.ValidationError(c, err)
	}

	userID, _ := helperAuth.GetUserIDFromToken(c)
	canEscalate := func(actorID uuid.UUID) bool {
		dec, err := ctl.Authz.CanPerform(actorID, sc.SchoolID,
			constants.ResSafeguarding, constants.ActEscalate,
			authzService.RecordContext{}, helperAuth.IsOwner(c))
		return err == nil && dec.Allow
	}
	m := service.ConcernMachine(canEscalate)

	outcome, err := m.Apply(wfService.ApplyRequest{
		Current:   concern.SafeguardingConcernStatus,
		Next:      req.NextStatus,
		ActorID:   userID,
		ActorRole: sc.Role,
	})
	if err != nil {
		var terr *wfService.TransitionError
		if errors.As(err, &terr) {
			return helper.ErrorWithDetails(c, fiber.StatusUnprocessableEntity, "Transisi ditolak",
				fiber.Map{"reason_code": terr.Code, "detail": terr.Message})
		}
		return helper.Error(c, fiber.StatusInternalServerError, err.Error())
	}

	before := concern.SafeguardingConcernStatus
	txErr := ctl.DB.Transaction(func(tx *gorm.DB) error {
		return service.ApplyConcernTransitionTx(tx, concern, outcome, req.BaseVersion)
	})
	if txErr != nil {
		var terr *wfService.TransitionError
		if errors.As(txErr, &terr) && terr.Code == wfService.CodeStaleVersion {
			return helper.ErrorWithDetails(c, fiber.StatusConflict, "Versi basi",
				fiber.Map{"reason_code": terr.Code, "detail": terr.Message})
		}
		return helper.Error(c, fiber.StatusInternalServerError, txErr.Error())
	}

	ctl.Authz.WriteAudit(sc.SchoolID, userID, "safeguarding_concern.transition",
		constants.ResSafeguarding, &concern.SafeguardingConcernID,
		fiber.Map{"status": before},
		fiber.Map{"status": concern.SafeguardingConcernStatus, "version": concern.SafeguardingConcernVersion})

	return helper.Success(c, "Transisi berhasil", fiber.Map{
		"concern":             concern,
		"allowed_transitions": m.AllowedTransitions(concern.SafeguardingConcernStatus),
	})
}

func (ctl *ConcernController) fetchConcern(c *fiber.Ctx, schoolID uuid.UUID) (*model.SafeguardingConcern, error) {
	id, err := uuid.Parse(strings.TrimSpace(c.Params("concern_id")))
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "concern_id tidak valid")
	}
	var concern model.SafeguardingConcern
	if err := model.ScopeAliveConcerns(ctl.DB).
		Scopes(model.ScopeConcernsBySchool(schoolID)).
		First(&concern, "safeguarding_concern_id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fiber.NewError(fiber.StatusNotFound, "Tidak ditemukan")
		}
		return nil, fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	return &concern, nil
}
