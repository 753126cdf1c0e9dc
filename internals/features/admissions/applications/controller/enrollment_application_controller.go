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
	dto "schoolku_backend/internals/features/admissions/applications/dto"
	model "schoolku_backend/internals/features/admissions/applications/model"
	service "schoolku_backend/internals/features/admissions/applications/service"
	authzService "schoolku_backend/internals/features/authz/service"
	wfModel "schoolku_backend/internals/features/workflow/model"
	wfService "schoolku_backend/internals/features/workflow/service"
	helper "schoolku_backend/internals/helpers"
	helperAuth "schoolku_backend/internals/helpers/auth"
	ossHelper "schoolku_backend/internals/helpers/oss"
)

type EnrollmentApplicationController struct {
	DB        *gorm.DB
	Validator *validator.Validate
	Authz     *authzService.AuthzService
	Overrides *wfService.OverrideService
}

func NewEnrollmentApplicationController(db *gorm.DB, authz *authzService.AuthzService) *EnrollmentApplicationController {
	return &EnrollmentApplicationController{
		DB:        db,
		Validator: validator.New(),
		Authz:     authz,
		Overrides: wfService.NewOverrideService(db),
	}
}

/* =========================================================
   Helpers
   ========================================================= */

func (ctl *EnrollmentApplicationController) requireAccess(c *fiber.Ctx, action string, rec authzService.RecordContext) (helperAuth.SchoolContext, error) {
	sc, err := helperAuth.ResolveSchoolContext(c)
	if err != nil {
		return sc, err
	}
	userID, err := helperAuth.GetUserIDFromToken(c)
	if err != nil {
		return sc, err
	}
	dec, err := ctl.Authz.CanPerform(userID, sc.SchoolID, constants.ResAdmissions, action, rec, helperAuth.IsOwner(c))
	if err != nil {
		return sc, fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	if !dec.Allow {
		return sc, fiber.NewError(authzService.DenyStatus(constants.ResAdmissions), "Akses ditolak")
	}
	return sc, nil
}

func (ctl *EnrollmentApplicationController) fetchApp(c *fiber.Ctx, schoolID uuid.UUID) (*model.EnrollmentApplication, error) {
	id, err := uuid.Parse(strings.TrimSpace(c.Params("application_id")))
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "application_id tidak valid")
	}
	var app model.EnrollmentApplication
	if err := model.ScopeAliveApplications(ctl.DB).
		Scopes(model.ScopeApplicationsBySchool(schoolID)).
		First(&app, "enrollment_application_id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fiber.NewError(fiber.StatusNotFound, "Aplikasi tidak ditemukan")
		}
		return nil, fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	return &app, nil
}

func (ctl *EnrollmentApplicationController) pathwayFlags(schoolID uuid.UUID, code string) service.PathwayFlags {
	var p model.EnrollmentPathway
	err := ctl.DB.
		Where("enrollment_pathway_school_id = ? AND enrollment_pathway_code = ? AND enrollment_pathway_deleted_at IS NULL", schoolID, code).
		First(&p).Error
	if err != nil {
		return service.FlagsFromPathway(nil)
	}
	return service.FlagsFromPathway(&p)
}

func (ctl *EnrollmentApplicationController) machineFor(c *fiber.Ctx, app *model.EnrollmentApplication, flags service.PathwayFlags) wfService.Machine {
	canApprove := func(actorID uuid.UUID) bool {
		dec, err := ctl.Authz.CanPerform(actorID, app.EnrollmentApplicationSchoolID,
			constants.ResAdmissions, constants.ActApprove, authzService.RecordContext{}, helperAuth.IsOwner(c))
		return err == nil && dec.Allow
	}
	overrideApproved := func(target string) bool {
		o, err := ctl.Overrides.EffectiveOverrideForTransition(
			model.EnrollmentApplication{}.TableName(), app.EnrollmentApplicationID, target)
		return err == nil && o != nil
	}
	resume := ""
	if app.EnrollmentApplicationResumeStatus != nil {
		resume = *app.EnrollmentApplicationResumeStatus
	}
	return service.PipelineMachine(flags, canApprove, overrideApproved, resume)
}

// recomputeCompletion hitung ulang persentase dari steps dan simpan cache.
func (ctl *EnrollmentApplicationController) recomputeCompletion(tx *gorm.DB, app *model.EnrollmentApplication) error {
	var steps []model.EnrollmentWorkflowStep
	if err := tx.Where("enrollment_workflow_step_application_id = ?", app.EnrollmentApplicationID).
		Find(&steps).Error; err != nil {
		return err
	}
	pct := service.CompletionPercent(steps)
	app.EnrollmentApplicationCompletionPct = pct
	return tx.Model(&model.EnrollmentApplication{}).
		Where("enrollment_application_id = ?", app.EnrollmentApplicationID).
		Update("enrollment_application_completion_pct", pct).Error
}

/* =========================================================
   Create (idempotent per application number)
   ========================================================= */

func (ctl *EnrollmentApplicationController) Create(c *fiber.Ctx) error {
	sc, err := ctl.requireAccess(c, constants.ActWrite, authzService.RecordContext{})
	if err != nil {
		return err
	}

	var req dto.CreateEnrollmentApplicationRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.Error(c, fiber.StatusBadRequest, err.Error())
	}
	if err := ctl.Validator.Struct(&req); err != nil {
		return helper.ValidationError(c, err)
	}

	userID, _ := helperAuth.GetUserIDFromToken(c)
	app, err := req.ToModel(sc.SchoolID, &userID)
	if err != nil {
		return helper.Error(c, fiber.StatusBadRequest, err.Error())
	}

	if err := ctl.DB.Create(app).Error; err != nil {
		// Nomor aplikasi adalah natural key: submit ulang (retry setelah
		// timeout) TIDAK membuat record kedua — kembalikan record pertama.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			var existing model.EnrollmentApplication
			if ferr := model.ScopeAliveApplications(ctl.DB).
				Scopes(model.ScopeApplicationsBySchool(sc.SchoolID)).
				First(&existing, "enrollment_application_number = ?", req.EnrollmentApplicationNumber).Error; ferr == nil {
				return helper.Success(c, "Aplikasi sudah ada (idempotent)", dto.FromModel(&existing, nil))
			}
		}
		return helper.Error(c, fiber.StatusInternalServerError, err.Error())
	}

	ctl.Authz.WriteAudit(sc.SchoolID, userID, "enrollment_application.create",
		constants.ResAdmissions, &app.EnrollmentApplicationID, nil, app)

	return helper.SuccessWithCode(c, fiber.StatusCreated, "Aplikasi dibuat", dto.FromModel(app, nil))
}

/* =========================================================
   Detail & list
   ========================================================= */

func (ctl *EnrollmentApplicationController) GetByID(c *fiber.Ctx) error {
	sc, err := ctl.requireAccess(c, constants.ActRead, authzService.RecordContext{})
	if err != nil {
		return err
	}
	app, err := ctl.fetchApp(c, sc.SchoolID)
	if err != nil {
		return err
	}

	// completion = derived value, hitung ulang saat read
	if err := ctl.recomputeCompletion(ctl.DB, app); err != nil {
		return helper.Error(c, fiber.StatusInternalServerError, err.Error())
	}

	flags := ctl.pathwayFlags(sc.SchoolID, app.EnrollmentApplicationPathway)
	m := ctl.machineFor(c, app, flags)
	return helper.Success(c, "OK", dto.FromModel(app, m.AllowedTransitions(app.EnrollmentApplicationStatus)))
}

func (ctl *EnrollmentApplicationController) List(c *fiber.Ctx) error {
	sc, err := ctl.requireAccess(c, constants.ActRead, authzService.RecordContext{})
	if err != nil {
		return err
	}

	p := helper.ParsePage(c, "enrollment_application_created_at", "desc")
	q := model.ScopeAliveApplications(ctl.DB).
		Scopes(model.ScopeApplicationsBySchool(sc.SchoolID)).
		Model(&model.EnrollmentApplication{})

	if status := strings.TrimSpace(c.Query("status")); status != "" {
		q = q.Where("enrollment_application_status = ?", status)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return helper.Error(c, fiber.StatusInternalServerError, err.Error())
	}

	var rows []model.EnrollmentApplication
	if err := q.Order(p.SortBy + " " + p.SortOrder).
		Offset(p.Offset()).Limit(p.Limit()).
		Find(&rows).Error; err != nil {
		return helper.Error(c, fiber.StatusInternalServerError, err.Error())
	}

	out := make([]dto.EnrollmentApplicationResponse, 0, len(rows))
	for i := range rows {
		out = append(out, dto.FromModel(&rows[i], nil))
	}
	return helper.Success(c, "OK", fiber.Map{"items": out, "meta": helper.BuildPageMeta(p, total)})
}

/* =========================================================
   Transition
   ========================================================= */

func (ctl *EnrollmentApplicationController) Transition(c *fiber.Ctx) error {
	sc, err := ctl.requireAccess(c, constants.ActWrite, authzService.RecordContext{})
	if err != nil {
		return err
	}
	app, err := ctl.fetchApp(c, sc.SchoolID)
	if err != nil {
		return err
	}

	var req dto.TransitionRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.Error(c, fiber.StatusBadRequest, err.Error())
	}
	if err := ctl.Validator.Struct(&req); err != nil {
		return helper.ValidationError(c, err)
	}

	userID, _ := helperAuth.GetUserIDFromToken(c)
	flags := ctl.pathwayFlags(sc.SchoolID, app.EnrollmentApplicationPathway)
	m := ctl.machineFor(c, app, flags)

	payload := req.Payload
	if payload == nil {
		payload = map[string]any{}
	}
	// dokumen tersimpan di record ikut dievaluasi guard submit
	if len(app.EnrollmentApplicationDocuments) > 0 {
		var docs []any
		if err := json.Unmarshal(app.EnrollmentApplicationDocuments, &docs); err == nil {
			payload["documents"] = docs
		}
	}

	outcome, err := m.Apply(wfService.ApplyRequest{
		Current:   app.EnrollmentApplicationStatus,
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

	before := app.EnrollmentApplicationStatus
	txErr := ctl.DB.Transaction(func(tx *gorm.DB) error {
		if err := service.ApplyTransitionTx(tx, app, outcome, req.BaseVersion, userID); err != nil {
			return err
		}
		return ctl.runSideEffects(tx, app, flags, outcome.SideEffects, userID)
	})
	if txErr != nil {
		var terr *wfService.TransitionError
		if errors.As(txErr, &terr) && terr.Code == wfService.CodeStaleVersion {
			// penulis kedua dengan base state basi → conflict, wajib re-fetch
			return helper.ErrorWithDetails(c, fiber.StatusConflict, "Versi basi",
				fiber.Map{"reason_code": terr.Code, "detail": terr.Message})
		}
		return helper.Error(c, fiber.StatusInternalServerError, txErr.Error())
	}

	ctl.Authz.WriteAudit(sc.SchoolID, userID, "enrollment_application.transition",
		constants.ResAdmissions, &app.EnrollmentApplicationID,
		fiber.Map{"status": before},
		fiber.Map{"status": app.EnrollmentApplicationStatus, "version": app.EnrollmentApplicationVersion})

	return helper.Success(c, "Transisi berhasil", dto.FromModel(app, m.AllowedTransitions(app.EnrollmentApplicationStatus)))
}

func (ctl *EnrollmentApplicationController) runSideEffects(tx *gorm.DB, app *model.EnrollmentApplication, flags service.PathwayFlags, effects []string, actorID uuid.UUID) error {
	now := time.Now().UTC()
	for _, eff := range effects {
		switch {
		case eff == "create_workflow_steps":
			for _, name := range service.RequiredSteps(flags) {
				step := model.EnrollmentWorkflowStep{
					EnrollmentWorkflowStepApplicationID: app.EnrollmentApplicationID,
					EnrollmentWorkflowStepName:          name,
					EnrollmentWorkflowStepIsRequired:    true,
				}
				if name == "application_form" || name == "documents" {
					step.EnrollmentWorkflowStepCompletedAt = &now
					step.EnrollmentWorkflowStepCompletedBy = &actorID
				}
				if err := tx.Create(&step).Error; err != nil {
					return err
				}
			}
		case strings.HasPrefix(eff, "complete_step:"):
			name := strings.TrimPrefix(eff, "complete_step:")
			if err := tx.Model(&model.EnrollmentWorkflowStep{}).
				Where("enrollment_workflow_step_application_id = ? AND enrollment_workflow_step_name = ? AND enrollment_workflow_step_completed_at IS NULL",
					app.EnrollmentApplicationID, name).
				Updates(map[string]any{
					"enrollment_workflow_step_completed_at": now,
					"enrollment_workflow_step_completed_by": actorID,
				}).Error; err != nil {
				return err
			}
		case eff == "recompute_completion":
			if err := ctl.recomputeCompletion(tx, app); err != nil {
				return err
			}
		}
	}
	return nil
}

/* =========================================================
   Override (buat + approve)
   ========================================================= */

func (ctl *EnrollmentApplicationController) CreateOverride(c *fiber.Ctx) error {
	sc, err := ctl.requireAccess(c, constants.ActApprove, authzService.RecordContext{})
	if err != nil {
		return err
	}
	app, err := ctl.fetchApp(c, sc.SchoolID)
	if err != nil {
		return err
	}

	var req dto.CreateOverrideRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.Error(c, fiber.StatusBadRequest, err.Error())
	}
	if err := ctl.Validator.Struct(&req); err != nil {
		return helper.ValidationError(c, err)
	}

	userID, _ := helperAuth.GetUserIDFromToken(c)

	o := wfModel.WorkflowOverride{
		WorkflowOverrideSchoolID:         sc.SchoolID,
		WorkflowOverrideEntityType:       model.EnrollmentApplication{}.TableName(),
		WorkflowOverrideEntityID:         app.EnrollmentApplicationID,
		WorkflowOverrideTarget:           req.Target,
		WorkflowOverrideType:             req.Type,
		WorkflowOverrideReasonCode:       req.ReasonCode,
		WorkflowOverrideRequestedBy:      userID,
		WorkflowOverrideRequiresApproval: true,
		WorkflowOverrideIsActive:         true,
	}
	if req.RequiresApproval != nil {
		o.WorkflowOverrideRequiresApproval = *req.RequiresApproval
	}
	if req.Value != nil {
		if b, err := json.Marshal(req.Value); err == nil {
			o.WorkflowOverrideValue = datatypes.JSON(b)
		}
	}
	if b, err := json.Marshal(fiber.Map{"status": app.EnrollmentApplicationStatus}); err == nil {
		o.WorkflowOverrideOriginalValue = datatypes.JSON(b)
	}

	if err := ctl.DB.Create(&o).Error; err != nil {
		return helper.Error(c, fiber.StatusInternalServerError, err.Error())
	}

	ctl.Authz.WriteAudit(sc.SchoolID, userID, "workflow_override.create",
		constants.ResAdmissions, &app.EnrollmentApplicationID, nil, o)

	return helper.SuccessWithCode(c, fiber.StatusCreated, "Override dibuat", o)
}

func (ctl *EnrollmentApplicationController) ApproveOverride(c *fiber.Ctx) error {
	sc, err := ctl.requireAccess(c, constants.ActApprove, authzService.RecordContext{})
	if err != nil {
		return err
	}

	overrideID, err := uuid.Parse(strings.TrimSpace(c.Params("override_id")))
	if err != nil {
		return helper.Error(c, fiber.StatusBadRequest, "override_id tidak valid")
	}

	userID, _ := helperAuth.GetUserIDFromToken(c)
	o, err := ctl.Overrides.Approve(overrideID, userID)
	if err != nil {
		if errors.Is(err, wfService.ErrSelfApproval) {
			// pelanggaran aturan fatal, bukan sekadar tidak disarankan
			return helper.Error(c, fiber.StatusForbidden, "Requester tidak boleh meng-approve override sendiri")
		}
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return helper.Error(c, fiber.StatusNotFound, "Override tidak ditemukan")
		}
		return helper.Error(c, fiber.StatusInternalServerError, err.Error())
	}

	ctl.Authz.WriteAudit(sc.SchoolID, userID, "workflow_override.approve",
		constants.ResAdmissions, &o.WorkflowOverrideEntityID, nil, o)

	return helper.Success(c, "Override di-approve", o)
}

/* =========================================================
   Upload dokumen (OSS)
   ========================================================= */

func (ctl *EnrollmentApplicationController) UploadDocument(c *fiber.Ctx) error {
	sc, err := ctl.requireAccess(c, constants.ActWrite, authzService.RecordContext{})
	if err != nil {
		return err
	}
	app, err := ctl.fetchApp(c, sc.SchoolID)
	if err != nil {
		return err
	}

	fh, err := c.FormFile("file")
	if err != nil {
		return helper.Error(c, fiber.StatusBadRequest, "file wajib dilampirkan")
	}

	url, err := ossHelper.UploadDocument(sc.SchoolID.String(), fh)
	if err != nil {
		return helper.Error(c, fiber.StatusInternalServerError, err.Error())
	}

	// append ke daftar dokumen
	var docs []dto.DocumentPayload
	if len(app.EnrollmentApplicationDocuments) > 0 {
		_ = json.Unmarshal(app.EnrollmentApplicationDocuments, &docs)
	}
	docs = append(docs, dto.DocumentPayload{Name: fh.Filename, URL: url})
	b, _ := json.Marshal(docs)

	if err := ctl.DB.Model(&model.EnrollmentApplication{}).
		Where("enrollment_application_id = ?", app.EnrollmentApplicationID).
		Update("enrollment_application_documents", datatypes.JSON(b)).Error; err != nil {
		return helper.Error(c, fiber.StatusInternalServerError, err.Error())
	}

	return helper.Success(c, "Dokumen terunggah", fiber.Map{"url": url})
}
