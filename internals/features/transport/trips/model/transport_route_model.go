package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

/* =========================
   Model: transport_vehicles
   ========================= */

type TransportVehicle struct {
	TransportVehicleID       uuid.UUID `gorm:"column:transport_vehicle_id;type:uuid;primaryKey;default:gen_random_uuid()" json:"transport_vehicle_id"`
	TransportVehicleSchoolID uuid.UUID `gorm:"column:transport_vehicle_school_id;type:uuid;not null;index" json:"transport_vehicle_school_id"`

	TransportVehiclePlateNumber string `gorm:"column:transport_vehicle_plate_number;size:20;not null" json:"transport_vehicle_plate_number"`
	TransportVehicleCapacity    int    `gorm:"column:transport_vehicle_capacity;not null;default:0" json:"transport_vehicle_capacity"`
	TransportVehicleIsActive    bool   `gorm:"column:transport_vehicle_is_active;not null;default:true" json:"transport_vehicle_is_active"`

	TransportVehicleCreatedAt time.Time  `gorm:"column:transport_vehicle_created_at;type:timestamptz;not null;default:now()" json:"transport_vehicle_created_at"`
	TransportVehicleUpdatedAt time.Time  `gorm:"column:transport_vehicle_updated_at;type:timestamptz;not null;default:now()" json:"transport_vehicle_updated_at"`
	TransportVehicleDeletedAt *time.Time `gorm:"column:transport_vehicle_deleted_at;type:timestamptz" json:"transport_vehicle_deleted_at,omitempty"`
}

func (TransportVehicle) TableName() string { return "transport_vehicles" }

func (v *TransportVehicle) BeforeUpdate(tx *gorm.DB) error {
	v.TransportVehicleUpdatedAt = time.Now().UTC()
	return nil
}

/* =========================
   Model: transport_routes
   ========================= */

type TransportRoute struct {
	TransportRouteID       uuid.UUID `gorm:"column:transport_route_id;type:uuid;primaryKey;default:gen_random_uuid()" json:"transport_route_id"`
	TransportRouteSchoolID uuid.UUID `gorm:"column:transport_route_school_id;type:uuid;not null;index" json:"transport_route_school_id"`

	TransportRouteName      string     `gorm:"column:transport_route_name;size:120;not null" json:"transport_route_name"`
	TransportRouteVehicleID *uuid.UUID `gorm:"column:transport_route_vehicle_id;type:uuid" json:"transport_route_vehicle_id,omitempty"`

	// jumlah penumpang terdaftar di route ini; jadi expected count trip
	TransportRouteExpectedRiders int `gorm:"column:transport_route_expected_riders;not null;default:0" json:"transport_route_expected_riders"`

	TransportRouteCreatedAt time.Time  `gorm:"column:transport_route_created_at;type:timestamptz;not null;default:now()" json:"transport_route_created_at"`
	TransportRouteUpdatedAt time.Time  `gorm:"column:transport_route_updated_at;type:timestamptz;not null;default:now()" json:"transport_route_updated_at"`
	TransportRouteDeletedAt *time.Time `gorm:"column:transport_route_deleted_at;type:timestamptz" json:"transport_route_deleted_at,omitempty"`
}

func (TransportRoute) TableName() string { return "transport_routes" }

func (r *TransportRoute) BeforeUpdate(tx *gorm.DB) error {
	r.TransportRouteUpdatedAt = time.Now().UTC()
	return nil
}

/* =========================
   Scopes
   ========================= */

func ScopeAliveRoutes(db *gorm.DB) *gorm.DB {
	return db.Where("transport_route_deleted_at IS NULL")
}

func ScopeRoutesBySchool(schoolID uuid.UUID) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("transport_route_school_id = ?", schoolID)
	}
}
