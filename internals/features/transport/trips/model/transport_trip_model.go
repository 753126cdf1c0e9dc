package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

/* =========================
   Status enum (wire contract — jangan ubah literal)
   ========================= */

const (
	TripStatusScheduled = "scheduled"
	TripStatusBoarding  = "boarding"
	TripStatusInTransit = "in_transit"
	TripStatusCompleted = "completed"
	TripStatusCancelled = "cancelled"
)

const (
	BoardingEventBoard = "board"
	BoardingEventDrop  = "drop"
)

/* =========================
   Model: transport_trips
   ========================= */

// TransportTrip: satu eksekusi route pada satu tanggal. Boarded/dropped
// count hanyalah cache dari boarding logs — rekonsiliasi menghitung ulang
// dari logs dan membuat alert bila selisih melebihi toleransi.
type TransportTrip struct {
	TransportTripID       uuid.UUID `gorm:"column:transport_trip_id;type:uuid;primaryKey;default:gen_random_uuid()" json:"transport_trip_id"`
	TransportTripSchoolID uuid.UUID `gorm:"column:transport_trip_school_id;type:uuid;not null;index" json:"transport_trip_school_id"`
	TransportTripRouteID  uuid.UUID `gorm:"column:transport_trip_route_id;type:uuid;not null;index" json:"transport_trip_route_id"`

	TransportTripDate    time.Time `gorm:"column:transport_trip_date;type:date;not null" json:"transport_trip_date"`
	TransportTripStatus  string    `gorm:"column:transport_trip_status;type:varchar(20);not null;default:'scheduled'" json:"transport_trip_status"`
	TransportTripVersion int       `gorm:"column:transport_trip_version;not null;default:1" json:"transport_trip_version"`

	TransportTripExpectedCount int `gorm:"column:transport_trip_expected_count;not null;default:0" json:"transport_trip_expected_count"`
	TransportTripBoardedCount  int `gorm:"column:transport_trip_boarded_count;not null;default:0" json:"transport_trip_boarded_count"`
	TransportTripDroppedCount  int `gorm:"column:transport_trip_dropped_count;not null;default:0" json:"transport_trip_dropped_count"`

	TransportTripStartedAt   *time.Time `gorm:"column:transport_trip_started_at;type:timestamptz" json:"transport_trip_started_at,omitempty"`
	TransportTripCompletedAt *time.Time `gorm:"column:transport_trip_completed_at;type:timestamptz" json:"transport_trip_completed_at,omitempty"`

	TransportTripCreatedAt time.Time  `gorm:"column:transport_trip_created_at;type:timestamptz;not null;default:now()" json:"transport_trip_created_at"`
	TransportTripUpdatedAt time.Time  `gorm:"column:transport_trip_updated_at;type:timestamptz;not null;default:now()" json:"transport_trip_updated_at"`
	TransportTripDeletedAt *time.Time `gorm:"column:transport_trip_deleted_at;type:timestamptz" json:"transport_trip_deleted_at,omitempty"`
}

func (TransportTrip) TableName() string { return "transport_trips" }

func (t *TransportTrip) BeforeCreate(tx *gorm.DB) error {
	t.TransportTripUpdatedAt = time.Now().UTC()
	return nil
}
func (t *TransportTrip) BeforeUpdate(tx *gorm.DB) error {
	t.TransportTripUpdatedAt = time.Now().UTC()
	return nil
}

/* =========================
   Model: transport_boarding_logs (append-only)
   ========================= */

type TransportBoardingLog struct {
	TransportBoardingLogID     uuid.UUID `gorm:"column:transport_boarding_log_id;type:uuid;primaryKey;default:gen_random_uuid()" json:"transport_boarding_log_id"`
	TransportBoardingLogTripID uuid.UUID `gorm:"column:transport_boarding_log_trip_id;type:uuid;not null;index" json:"transport_boarding_log_trip_id"`

	TransportBoardingLogStudentName string     `gorm:"column:transport_boarding_log_student_name;size:120;not null" json:"transport_boarding_log_student_name"`
	TransportBoardingLogEvent       string     `gorm:"column:transport_boarding_log_event;type:varchar(10);not null" json:"transport_boarding_log_event"`
	TransportBoardingLogRecordedBy  *uuid.UUID `gorm:"column:transport_boarding_log_recorded_by;type:uuid" json:"transport_boarding_log_recorded_by,omitempty"`
	TransportBoardingLogAt          time.Time  `gorm:"column:transport_boarding_log_at;type:timestamptz;not null;default:now()" json:"transport_boarding_log_at"`
}

func (TransportBoardingLog) TableName() string { return "transport_boarding_logs" }

/* =========================
   Model: transport_alerts
   ========================= */

const (
	AlertTypeBoardingDiscrepancy = "boarding_discrepancy"
	AlertTypeDropDiscrepancy     = "drop_discrepancy"
	AlertTypeOverCapacity        = "over_capacity"
)

// TransportAlert: mismatch di luar toleransi TIDAK menggagalkan request —
// dicatat sebagai alert untuk ditindaklanjuti admin.
type TransportAlert struct {
	TransportAlertID       uuid.UUID `gorm:"column:transport_alert_id;type:uuid;primaryKey;default:gen_random_uuid()" json:"transport_alert_id"`
	TransportAlertSchoolID uuid.UUID `gorm:"column:transport_alert_school_id;type:uuid;not null;index" json:"transport_alert_school_id"`
	TransportAlertTripID   uuid.UUID `gorm:"column:transport_alert_trip_id;type:uuid;not null;index" json:"transport_alert_trip_id"`

	TransportAlertType   string `gorm:"column:transport_alert_type;type:varchar(40);not null" json:"transport_alert_type"`
	TransportAlertDetail string `gorm:"column:transport_alert_detail;size:255" json:"transport_alert_detail,omitempty"`

	TransportAlertResolvedAt *time.Time `gorm:"column:transport_alert_resolved_at;type:timestamptz" json:"transport_alert_resolved_at,omitempty"`
	TransportAlertResolvedBy *uuid.UUID `gorm:"column:transport_alert_resolved_by;type:uuid" json:"transport_alert_resolved_by,omitempty"`

	TransportAlertCreatedAt time.Time `gorm:"column:transport_alert_created_at;type:timestamptz;not null;default:now()" json:"transport_alert_created_at"`
}

func (TransportAlert) TableName() string { return "transport_alerts" }

/* =========================
   Scopes
   ========================= */

func ScopeAliveTrips(db *gorm.DB) *gorm.DB {
	return db.Where("transport_trip_deleted_at IS NULL")
}

func ScopeTripsBySchool(schoolID uuid.UUID) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("transport_trip_school_id = ?", schoolID)
	}
}

func ScopeOpenAlerts(db *gorm.DB) *gorm.DB {
	return db.Where("transport_alert_resolved_at IS NULL")
}
