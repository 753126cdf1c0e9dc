package service

import (
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	schoolModel "schoolku_backend/internals/features/school/schools/model"
	model "schoolku_backend/internals/features/transport/trips/model"
	wf "schoolku_backend/internals/features/workflow/service"
)

// key school_settings untuk toleransi selisih boarding
const SettingDiscrepancyTolerance = "transport_discrepancy_tolerance"

/* =========================================================
   Trip machine
   ========================================================= */

func TripMachine() wf.Machine {
	return wf.Machine{
		Name: "transport_trip",
		Transitions: map[string][]string{
			model.TripStatusScheduled: {model.TripStatusBoarding},
			model.TripStatusBoarding:  {model.TripStatusInTransit},
			model.TripStatusInTransit: {model.TripStatusCompleted},
		},
		Terminal: map[string]bool{
			model.TripStatusCompleted: true,
			model.TripStatusCancelled: true,
		},
		CrossCutting: map[string]bool{
			model.TripStatusCancelled: true,
		},
		SideEffects: map[string][]string{
			model.TripStatusInTransit + "->" + model.TripStatusCompleted: {"reconcile_trip"},
		},
	}
}

/* =========================================================
   Rekonsiliasi murni
   ========================================================= */

// TripDiscrepancy: hasil hitung murni dari boarding logs vs expected.
type TripDiscrepancy struct {
	Expected  int  `json:"expected"`
	Boarded   int  `json:"boarded"`
	Dropped   int  `json:"dropped"`
	Tolerance int  `json:"tolerance"`
	BoardOver int  `json:"board_over"` // boarded − expected bila positif
	DropOver  int  `json:"drop_over"`  // dropped − boarded bila positif
	NeedAlert bool `json:"need_alert"`
}

// CountBoardingEvents menghitung boarded/dropped dari append-only logs.
func CountBoardingEvents(logs []model.TransportBoardingLog) (boarded, dropped int) {
	for i := range logs {
		switch logs[i].TransportBoardingLogEvent {
		case model.BoardingEventBoard:
			boarded++
		case model.BoardingEventDrop:
			dropped++
		}
	}
	return
}

// ComputeDiscrepancy: invariant boarded ≤ expected dan dropped ≤ boarded.
// Selisih di dalam toleransi tidak perlu alert; di luar toleransi perlu,
// tapi TIDAK pernah menggagalkan request pemicunya.
func ComputeDiscrepancy(expected, boarded, dropped, tolerance int) TripDiscrepancy {
	d := TripDiscrepancy{
		Expected:  expected,
		Boarded:   boarded,
		Dropped:   dropped,
		Tolerance: tolerance,
	}
	if over := boarded - expected; over > 0 {
		d.BoardOver = over
	}
	if over := dropped - boarded; over > 0 {
		d.DropOver = over
	}
	d.NeedAlert = d.BoardOver > tolerance || d.DropOver > tolerance
	return d
}

/* =========================================================
   TripService (DB)
   ========================================================= */

type TripService struct {
	DB *gorm.DB
}

func NewTripService(db *gorm.DB) *TripService {
	return &TripService{DB: db}
}

func (s *TripService) toleranceFor(tx *gorm.DB, schoolID uuid.UUID) int {
	var sch schoolModel.SchoolModel
	if err := schoolModel.ScopeAliveSchools(tx).
		First(&sch, "school_id = ?", schoolID).Error; err != nil {
		return 0
	}
	return sch.SettingInt(SettingDiscrepancyTolerance, 0)
}

// ReconcileTrip menghitung ulang boarded/dropped dari logs, mengoreksi
// cache, dan membuat alert bila selisih melebihi toleransi tenant.
// Idempoten: alert tipe sama yang masih open tidak diduplikasi.
func (s *TripService) ReconcileTrip(tx *gorm.DB, tripID uuid.UUID) (*TripDiscrepancy, error) {
	var trip model.TransportTrip
	if err := model.ScopeAliveTrips(tx).First(&trip, "transport_trip_id = ?", tripID).Error; err != nil {
		return nil, err
	}

	var logs []model.TransportBoardingLog
	if err := tx.Where("transport_boarding_log_trip_id = ?", tripID).Find(&logs).Error; err != nil {
		return nil, err
	}

	boarded, dropped := CountBoardingEvents(logs)
	tolerance := s.toleranceFor(tx, trip.TransportTripSchoolID)
	d := ComputeDiscrepancy(trip.TransportTripExpectedCount, boarded, dropped, tolerance)

	if boarded != trip.TransportTripBoardedCount || dropped != trip.TransportTripDroppedCount {
		if err := tx.Model(&model.TransportTrip{}).
			Where("transport_trip_id = ?", tripID).
			Updates(map[string]any{
				"transport_trip_boarded_count": boarded,
				"transport_trip_dropped_count": dropped,
			}).Error; err != nil {
			return nil, err
		}
	}

	if d.NeedAlert {
		alertType := model.AlertTypeBoardingDiscrepancy
		detail := fmt.Sprintf("boarded %d melebihi expected %d (toleransi %d)", boarded, d.Expected, tolerance)
		if d.DropOver > tolerance {
			alertType = model.AlertTypeDropDiscrepancy
			detail = fmt.Sprintf("dropped %d melebihi boarded %d (toleransi %d)", dropped, boarded, tolerance)
		}
		if err := s.raiseAlert(tx, &trip, alertType, detail); err != nil {
			return nil, err
		}
	}
	return &d, nil
}

// raiseAlert: satu alert open per (trip, type) — pass berulang tidak menumpuk.
func (s *TripService) raiseAlert(tx *gorm.DB, trip *model.TransportTrip, alertType, detail string) error {
	var count int64
	if err := model.ScopeOpenAlerts(tx).
		Model(&model.TransportAlert{}).
		Where("transport_alert_trip_id = ? AND transport_alert_type = ?", trip.TransportTripID, alertType).
		Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	log.Printf("[TRANSPORT ALERT] 🚌 trip=%s type=%s: %s", trip.TransportTripID, alertType, detail)
	return tx.Create(&model.TransportAlert{
		TransportAlertSchoolID: trip.TransportTripSchoolID,
		TransportAlertTripID:   trip.TransportTripID,
		TransportAlertType:     alertType,
		TransportAlertDetail:   detail,
	}).Error
}

// ReconcileSchool: pass penuh trip belum selesai satu sekolah.
func (s *TripService) ReconcileSchool(schoolID uuid.UUID) (int, error) {
	var trips []model.TransportTrip
	if err := model.ScopeAliveTrips(s.DB).
		Scopes(model.ScopeTripsBySchool(schoolID)).
		Where("transport_trip_status NOT IN ?", []string{model.TripStatusScheduled, model.TripStatusCancelled}).
		Find(&trips).Error; err != nil {
		return 0, err
	}
	for i := range trips {
		if _, err := s.ReconcileTrip(s.DB, trips[i].TransportTripID); err != nil {
			return i, err
		}
	}
	return len(trips), nil
}

/* =========================================================
   Transisi trip dengan optimistic concurrency
   ========================================================= */

func ApplyTripTransitionTx(tx *gorm.DB, trip *model.TransportTrip, outcome wf.Outcome, baseVersion int) error {
	now := time.Now().UTC()
	updates := map[string]any{
		"transport_trip_status":     outcome.NewState,
		"transport_trip_version":    baseVersion + 1,
		"transport_trip_updated_at": now,
	}
	switch outcome.NewState {
	case model.TripStatusInTransit:
		updates["transport_trip_started_at"] = now
	case model.TripStatusCompleted:
		updates["transport_trip_completed_at"] = now
	}

	res := tx.Model(&model.TransportTrip{}).
		Where("transport_trip_id = ? AND transport_trip_version = ?", trip.TransportTripID, baseVersion).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		var cur model.TransportTrip
		curVersion := baseVersion
		if err := tx.Select("transport_trip_version").
			First(&cur, "transport_trip_id = ?", trip.TransportTripID).Error; err == nil {
			curVersion = cur.TransportTripVersion
		}
		return wf.StaleVersion(baseVersion, curVersion)
	}

	trip.TransportTripStatus = outcome.NewState
	trip.TransportTripVersion = baseVersion + 1
	return nil
}
