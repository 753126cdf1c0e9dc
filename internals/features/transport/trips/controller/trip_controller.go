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
	dto "schoolku_backend/internals/features/transport/trips/dto"
	model "schoolku_backend/internals/features/transport/trips/model"
	service "schoolku_backend/internals/features/transport/trips/service"
	wfService "schoolku_backend/internals/features/workflow/service"
	helper "schoolku_backend/internals/helpers"
	helperAuth "schoolku_backend/internals/helpers/auth"
)

type TripController struct {
	DB        *gorm.DB
	Validator *validator.Validate
	Authz     *authzService.AuthzService
	Trips     *service.TripService
}

func NewTripController(db *gorm.DB, authz *authzService.AuthzService) *TripController {
	return &TripController{
		DB:        db,
		Validator: validator.New(),
		Authz:     authz,
		Trips:     service.NewTripService(db),
	}
}

func (ctl *TripController) requireAccess(c *fiber.Ctx, action string) (helperAuth.SchoolContext, error) {
	sc, err := helperAuth.ResolveSchoolContext(c)
	if err != nil {
		return sc, err
	}
	userID, err := helperAuth.GetUserIDFromToken(c)
	if err != nil {
		return sc, err
	}
	dec, err := ctl.Authz.CanPerform(userID, sc.SchoolID, constants.ResTransport, action,
		authzService.RecordContext{}, helperAuth.IsOwner(c))
	if err != nil {
		return sc, fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	if !dec.Allow {
		return sc, fiber.NewError(authzService.DenyStatus(constants.ResTransport), "Akses ditolak")
	}
	return sc, nil
}

/* =========================================================
   Vehicles & routes
   ========================================================= */

func (ctl *TripController) CreateVehicle(c *fiber.Ctx) error {
	sc, err := ctl.requireAccess(c, constants.ActWrite)
	if err != nil {
		return err
	}
	var req dto.CreateVehicleRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.Error(c, fiber.StatusBadRequest, err.Error())
	}
	if err := ctl.Validator.Struct(&req); err != nil {
		return helper.ValidationError(c, err)
	}
	v := model.TransportVehicle{
		TransportVehicleSchoolID:    sc.SchoolID,
		TransportVehiclePlateNumber: req.TransportVehiclePlateNumber,
		TransportVehicleCapacity:    req.TransportVehicleCapacity,
		TransportVehicleIsActive:    true,
	}
	if err := ctl.DB.Create(&v).Error; err != nil {
		return helper.Error(c, fiber.StatusInternalServerError, err.Error())
	}
	return helper.SuccessWithCode(c, fiber.StatusCreated, "Kendaraan ditambahkan", v)
}

func (ctl *TripController) CreateRoute(c *fiber.Ctx) error {
	sc, err := ctl.requireAccess(c, constants.ActWrite)
	if err != nil {
		return err
	}
	var req dto.CreateRouteRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.Error(c, fiber.StatusBadRequest, err.Error())
	}
	if err := ctl.Validator.Struct(&req); err != nil {
		return helper.ValidationError(c, err)
	}
	r := model.TransportRoute{
		TransportRouteSchoolID:       sc.SchoolID,
		TransportRouteName:           req.TransportRouteName,
		TransportRouteVehicleID:      req.TransportRouteVehicleID,
		TransportRouteExpectedRiders: req.TransportRouteExpectedRiders,
	}
	if err := ctl.DB.Create(&r).Error; err != nil {
		if helper.IsForeignKeyViolation(err) {
			return helper.Error(c, fiber.StatusBadRequest, "Kendaraan tidak ditemukan")
		}
		return helper.Error(c, fiber.StatusInternalServerError, err.Error())
	}
	return helper.SuccessWithCode(c, fiber.StatusCreated, "Route ditambahkan", r)
}

func (ctl *TripController) ListRoutes(c *fiber.Ctx) error {
	sc, err := ctl.requireAccess(c, constants.ActRead)
	if err != nil {
		return err
	}
	var rows []model.TransportRoute
	if err := model.ScopeAliveRoutes(ctl.DB).
		Scopes(model.ScopeRoutesBySchool(sc.SchoolID)).
		Order("transport_route_name ASC").
		Find(&rows).Error; err != nil {
		return helper.Error(c, fiber.StatusInternalServerError, err.Error())
	}
	return helper.Success(c, "OK", rows)
}

/* =========================================================
   Trips
   ========================================================= */

func (ctl *TripController) CreateTrip(c *fiber.Ctx) error {
	sc, err := ctl.requireAccess(c, constants.ActWrite)
	if err != nil {
		return err
	}
	var req dto.CreateTripRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.Error(c, fiber.StatusBadRequest, err.Error())
	}
	if err := ctl.Validator.Struct(&req); err != nil {
		return helper.ValidationError(c, err)
	}

	var route model.TransportRoute
	if err := model.ScopeAliveRoutes(ctl.DB).
		Scopes(model.ScopeRoutesBySchool(sc.SchoolID)).
		First(&route, "transport_route_id = ?", req.TransportTripRouteID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return helper.Error(c, fiber.StatusNotFound, "Route tidak ditemukan")
		}
		return helper.Error(c, fiber.StatusInternalServerError, err.Error())
	}

	date, _ := time.Parse("2006-01-02", req.TransportTripDate)
	trip := model.TransportTrip{
		TransportTripSchoolID:      sc.SchoolID,
		TransportTripRouteID:       route.TransportRouteID,
		TransportTripDate:          date,
		TransportTripStatus:        model.TripStatusScheduled,
		TransportTripVersion:       1,
		TransportTripExpectedCount: route.TransportRouteExpectedRiders,
	}
	if err := ctl.DB.Create(&trip).Error; err != nil {
		return helper.Error(c, fiber.StatusInternalServerError, err.Error())
	}

	m := service.TripMachine()
	return helper.SuccessWithCode(c, fiber.StatusCreated, "Trip dijadwalkan",
		dto.TripFromModel(&trip, m.AllowedTransitions(trip.TransportTripStatus)))
}

func (ctl *TripController) GetTrip(c *fiber.Ctx) error {
	sc, err := ctl.requireAccess(c, constants.ActRead)
	if err != nil {
		return err
	}
	trip, err := ctl.fetchTrip(c, sc.SchoolID)
	if err != nil {
		return err
	}
	m := service.TripMachine()
	return helper.Success(c, "OK",
		dto.TripFromModel(trip, m.AllowedTransitions(trip.TransportTripStatus)))
}

func (ctl *TripController) TransitionTrip(c *fiber.Ctx) error {
	sc, err := ctl.requireAccess(c, constants.ActWrite)
	if err != nil {
		return err
	}
	trip, err := ctl.fetchTrip(c, sc.SchoolID)
	if err != nil {
		return err
	}

	var req dto.TripTransitionRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.Error(c, fiber.StatusBadRequest, err.Error())
	}
	if err := ctl.Validator.Struct(&req); err != nil {
		return helper.ValidationError(c, err)
	}

	userID, _ := helperAuth.GetUserIDFromToken(c)
	m := service.TripMachine()

	outcome, err := m.Apply(wfService.ApplyRequest{
		Current:   trip.TransportTripStatus,
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

	before := trip.TransportTripStatus
	var discrepancy *service.TripDiscrepancy
	txErr := ctl.DB.Transaction(func(tx *gorm.DB) error {
		if err := service.ApplyTripTransitionTx(tx, trip, outcome, req.BaseVersion); err != nil {
			return err
		}
		for _, eff := range outcome.SideEffects {
			if eff == "reconcile_trip" {
				d, err := ctl.Trips.ReconcileTrip(tx, trip.TransportTripID)
				if err != nil {
					return err
				}
				discrepancy = d
			}
		}
		return nil
	})
	if txErr != nil {
		var terr *wfService.TransitionError
		if errors.As(txErr, &terr) && terr.Code == wfService.CodeStaleVersion {
			return helper.ErrorWithDetails(c, fiber.StatusConflict, "Versi basi",
				fiber.Map{"reason_code": terr.Code, "detail": terr.Message})
		}
		return helper.Error(c, fiber.StatusInternalServerError, txErr.Error())
	}

	ctl.Authz.WriteAudit(sc.SchoolID, userID, "transport_trip.transition",
		constants.ResTransport, &trip.TransportTripID,
		fiber.Map{"status": before},
		fiber.Map{"status": trip.TransportTripStatus, "version": trip.TransportTripVersion})

	resp := fiber.Map{"trip": dto.TripFromModel(trip, m.AllowedTransitions(trip.TransportTripStatus))}
	if discrepancy != nil {
		resp["reconciliation"] = discrepancy
	}
	return helper.Success(c, "Transisi berhasil", resp)
}

func (ctl *TripController) fetchTrip(c *fiber.Ctx, schoolID uuid.UUID) (*model.TransportTrip, error) {
	id, err := uuid.Parse(strings.TrimSpace(c.Params("trip_id")))
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "trip_id tidak valid")
	}
	var trip model.TransportTrip
	if err := model.ScopeAliveTrips(ctl.DB).
		Scopes(model.ScopeTripsBySchool(schoolID)).
		First(&trip, "transport_trip_id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fiber.NewError(fiber.StatusNotFound, "Trip tidak ditemukan")
		}
		return nil, fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	return &trip, nil
}

/* =========================================================
   Boarding logs & alerts
   ========================================================= */

func (ctl *TripController) LogBoarding(c *fiber.Ctx) error {
	sc, err := ctl.requireAccess(c, constants.ActWrite)
	if err != nil {
		return err
	}
	trip, err := ctl.fetchTrip(c, sc.SchoolID)
	if err != nil {
		return err
	}
	if trip.TransportTripStatus != model.TripStatusBoarding && trip.TransportTripStatus != model.TripStatusInTransit {
		return helper.Error(c, fiber.StatusUnprocessableEntity, "Trip tidak dalam fase boarding/in_transit")
	}

	var req dto.BoardingLogRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.Error(c, fiber.StatusBadRequest, err.Error())
	}
	if err := ctl.Validator.Struct(&req); err != nil {
		return helper.ValidationError(c, err)
	}

	userID, _ := helperAuth.GetUserIDFromToken(c)
	entry := model.TransportBoardingLog{
		TransportBoardingLogTripID:      trip.TransportTripID,
		TransportBoardingLogStudentName: req.StudentName,
		TransportBoardingLogEvent:       req.Event,
		TransportBoardingLogRecordedBy:  &userID,
		TransportBoardingLogAt:          time.Now().UTC(),
	}

	var discrepancy *service.TripDiscrepancy
	txErr := ctl.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&entry).Error; err != nil {
			return err
		}
		// mismatch di luar toleransi → alert row, request TETAP sukses
		d, err := ctl.Trips.ReconcileTrip(tx, trip.TransportTripID)
		if err != nil {
			return err
		}
		discrepancy = d
		return nil
	})
	if txErr != nil {
		return helper.Error(c, fiber.StatusInternalServerError, txErr.Error())
	}

	return helper.SuccessWithCode(c, fiber.StatusCreated, "Event dicatat",
		fiber.Map{"log": entry, "reconciliation": discrepancy})
}

func (ctl *TripController) ListAlerts(c *fiber.Ctx) error {
	sc, err := ctl.requireAccess(c, constants.ActRead)
	if err != nil {
		return err
	}
	var rows []model.TransportAlert
	if err := model.ScopeOpenAlerts(ctl.DB).
		Where("transport_alert_school_id = ?", sc.SchoolID).
		Order("transport_alert_created_at DESC").
		Find(&rows).Error; err != nil {
		return helper.Error(c, fiber.StatusInternalServerError, err.Error())
	}
	return helper.Success(c, "OK", rows)
}

func (ctl *TripController) ResolveAlert(c *fiber.Ctx) error {
	sc, err := ctl.requireAccess(c, constants.ActWrite)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(strings.TrimSpace(c.Params("alert_id")))
	if err != nil {
		return helper.Error(c, fiber.StatusBadRequest, "alert_id tidak valid")
	}
	userID, _ := helperAuth.GetUserIDFromToken(c)
	now := time.Now().UTC()
	res := ctl.DB.Model(&model.TransportAlert{}).
		Where("transport_alert_id = ? AND transport_alert_school_id = ? AND transport_alert_resolved_at IS NULL", id, sc.SchoolID).
		Updates(map[string]any{
			"transport_alert_resolved_at": now,
			"transport_alert_resolved_by": userID,
		})
	if res.Error != nil {
		return helper.Error(c, fiber.StatusInternalServerError, res.Error.Error())
	}
	if res.RowsAffected == 0 {
		return helper.Error(c, fiber.StatusNotFound, "Alert tidak ditemukan atau sudah resolved")
	}
	return helper.Success(c, "Alert resolved", fiber.Map{"transport_alert_id": id})
}
