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
	model "schoolku_backend/internals/features/hr/recruitment/model"
	service "schoolku_backend/internals/features/hr/recruitment/service"
	wfService "schoolku_backend/internals/features/workflow/service"
	helper "schoolku_backend/internals/helpers"
	helperAuth "schoolku_backend/internals/helpers/auth"
)

type RecruitmentController struct {
	DB        *gorm.DB
	Validator *validator.Validate
	Authz     *authzService.AuthzService
}

func NewRecruitmentController(db *gorm.DB, authz *authzService.AuthzService) *RecruitmentController {
	return &RecruitmentController{DB: db, Validator: validator.New(), Authz: authz}
}

type createJobApplicationRequest struct {
	JobApplicationCandidateName  string `json:"job_application_candidate_name" validate:"required,max=120"`
	JobApplicationCandidateEmail string `json:"job_application_candidate_email" validate:"required,email"`
	JobApplicationPosition       string `json:"job_application_position" validate:"required,max=120"`
}

type recruitTransitionRequest struct {
	NextStatus  string         `json:"next_status" validate:"required"`
	BaseVersion int            `json:"base_version" validate:"required,min=1"`
	InterviewAt *time.Time     `json:"interview_at"`
	Payload     map[string]any `json:"payload"`
}

func (ctl *RecruitmentController) requireAccess(c *fiber.Ctx, action string) (helperAuth.SchoolContext, error) {
	sc, err := helperAuth.ResolveSchoolContext(c)
	if err != nil {
		return sc, err
	}
	userID, err := helperAuth.GetUserIDFromToken(c)
	if err != nil {
		return sc, err
	}
	dec, err := ctl.Authz.CanPerform(userID, sc.SchoolID, constants.ResStaffManagement, action,
		authzService.RecordContext{}, helperAuth.IsOwner(c))
	if err != nil {
		return sc, fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	if !dec.Allow {
		return sc, fiber.NewError(authzService.DenyStatus(constants.ResStaffManagement), "Akses ditolak")
	}
	return sc, nil
}

func (ctl *RecruitmentController) Create(c *fiber.Ctx) error {
	sc, err := ctl.requireAccess(c, constants.ActWrite)
	if err != nil {
		return err
	}
	var req createJobApplicationRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.Error(c, fiber.StatusBadRequest, err.Error())
	}
	if err := ctl.Validator.Struct(&req); err != nil {
		return helper.ValidationError(c, err)
	}

	app := model.JobApplication{
		JobApplicationSchoolID:       sc.SchoolID,
		JobApplicationCandidateName:  req.JobApplicationCandidateName,
		JobApplicationCandidateEmail: req.JobApplicationCandidateEmail,
		JobApplicationPosition:       req.JobApplicationPosition,
		JobApplicationStatus:         model.RecruitStatusApplied,
		JobApplicationVersion:        1,
	}
	if err := ctl.DB.Create(&app).Error; err != nil {
		return helper.Error(c, fiber.StatusInternalServerError, err.Error())
	}
	return helper.SuccessWithCode(c, fiber.StatusCreated, "Lamaran dibuat", app)
}

func (ctl *RecruitmentController) List(c *fiber.Ctx) error {
	sc, err := ctl.requireAccess(c, constants.ActRead)
	if err != nil {
		return err
	}

	p := helper.ParsePage(c, "job_application_created_at", "desc")
	q := model.ScopeAliveJobApplications(ctl.DB).
		Scopes(model.ScopeJobApplicationsBySchool(sc.SchoolID)).
		Model(&model.JobApplication{})
	if status := strings.TrimSpace(c.Query("status")); status != "" {
		q = q.Where("job_application_status = ?", status)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return helper.Error(c, fiber.StatusInternalServerError, err.Error())
	}
	var rows []model.JobApplication
	if err := q.Order(p.SortBy + " " + p.SortOrder).
		Offset(p.Offset()).Limit(p.Limit()).
		Find(&rows).Error; err != nil {
		return helper.Error(c, fiber.StatusInternalServerError, err.Error())
	}
	return helper.Success(c, "OK", fiber.Map{"items": rows, "meta": helper.BuildPageMeta(p, total)})
}

func (ctl *RecruitmentController) Transition(c *fiber.Ctx) error {
	sc, err := ctl.requireAccess(c, constants.ActWrite)
	if err != nil {
		return err
	}

	id, err := uuid.Parse(strings.TrimSpace(c.Params("application_id")))
	if err != nil {
		return helper.Error(c, fiber.StatusBadRequest, "application_id tidak valid")
	}
	var app model.JobApplication
	if err := model.ScopeAliveJobApplications(ctl.DB).
		Scopes(model.ScopeJobApplicationsBySchool(sc.SchoolID)).
		First(&app, "job_application_id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return helper.Error(c, fiber.StatusNotFound, "Lamaran tidak ditemukan")
		}
		return helper.Error(c, fiber.StatusInternalServerError, err.Error())
	}

	var req recruitTransitionRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.Error(c, fiber.StatusBadRequest, err.Error())
	}
	if err := ctl.Validator.Struct(&req); err != nil {
		return helper.ValidationError(c, err)
	}

	userID, _ := helperAuth.GetUserIDFromToken(c)
	canApprove := func(actorID uuid.UUID) bool {
		dec, err := ctl.Authz.CanPerform(actorID, sc.SchoolID,
			constants.ResStaffManagement, constants.ActApprove,
			authzService.RecordContext{}, helperAuth.IsOwner(c))
		return err == nil && dec.Allow
	}
	m := service.RecruitmentMachine(canApprove)

	payload := req.Payload
	if payload == nil {
		payload = map[string]any{}
	}
	if req.InterviewAt != nil {
		payload["interview_at"] = req.InterviewAt.Format(time.RFC3339)
	}

	outcome, err := m.Apply(wfService.ApplyRequest{
		Current:   app.JobApplicationStatus,
		Next:      req.NextStatus,
		ActorID:   userID,
		ActorRole: sc.Role,
		Payload:   payload,
	})
	if err != nil {
		var terr *wfService.TransitionError
		if errors.As(err, &terr) {
			return helper.ErrorWithDetails(c, fiber.StatusUnprocessableEntity, "Transisi ditolak",
				fiber.Map{"reason_code": terr.Code, "detail": terr.Message})
		}
		return helper.Error(c, fiber.StatusInternalServerError, err.Error())
	}

	before := app.JobApplicationStatus
	txErr := ctl.DB.Transaction(func(tx *gorm.DB) error {
		return service.ApplyRecruitTransitionTx(tx, &app, outcome, req.BaseVersion, userID, req.InterviewAt)
	})
	if txErr != nil {
		var terr *wfService.TransitionError
		if errors.As(txErr, &terr) && terr.Code == wfService.CodeStaleVersion {
			return helper.ErrorWithDetails(c, fiber.StatusConflict, "Versi basi",
				fiber.Map{"reason_code": terr.Code, "detail": terr.Message})
		}
		return helper.Error(c, fiber.StatusInternalServerError, txErr.Error())
	}

	ctl.Authz.WriteAudit(sc.SchoolID, userID, "job_application.transition",
		constants.ResStaffManagement, &app.JobApplicationID,
		fiber.Map{"status": before},
		fiber.Map{"status": app.JobApplicationStatus, "version": app.JobApplicationVersion})

	return helper.Success(c, "Transisi berhasil", fiber.Map{
		"application":         app,
		"allowed_transitions": m.AllowedTransitions(app.JobApplicationStatus),
	})
}
