package dto

import (
	"time"

	"github.com/google/uuid"

	model "schoolku_backend/internals/features/transport/trips/model"
)

/* =========================================================
   REQUEST
   ========================================================= */

type CreateVehicleRequest struct {
	TransportVehiclePlateNumber string `json:"transport_vehicle_plate_number" validate:"required,max=20"`
	TransportVehicleCapacity    int    `json:"transport_vehicle_capacity" validate:"required,min=1"`
}

type CreateRouteRequest struct {
	TransportRouteName           string     `json:"transport_route_name" validate:"required,max=120"`
	TransportRouteVehicleID      *uuid.UUID `json:"transport_route_vehicle_id"`
	TransportRouteExpectedRiders int        `json:"transport_route_expected_riders" validate:"min=0"`
}

type CreateTripRequest struct {
	TransportTripRouteID uuid.UUID `json:"transport_trip_route_id" validate:"required"`
	TransportTripDate    string    `json:"transport_trip_date" validate:"required,datetime=2006-01-02"`
}

type TripTransitionRequest struct {
	NextStatus  string `json:"next_status" validate:"required"`
	BaseVersion int    `json:"base_version" validate:"required,min=1"`
}

type BoardingLogRequest struct {
	StudentName string `json:"student_name" validate:"required,max=120"`
	Event       string `json:"event" validate:"required,oneof=board drop"`
}

/* =========================================================
   RESPONSE
   ========================================================= */

type TripResponse struct {
	TransportTripID            uuid.UUID  `json:"transport_trip_id"`
	TransportTripRouteID       uuid.UUID  `json:"transport_trip_route_id"`
	TransportTripDate          time.Time  `json:"transport_trip_date"`
	TransportTripStatus        string     `json:"transport_trip_status"`
	TransportTripVersion       int        `json:"transport_trip_version"`
	TransportTripExpectedCount int        `json:"transport_trip_expected_count"`
	TransportTripBoardedCount  int        `json:"transport_trip_boarded_count"`
	TransportTripDroppedCount  int        `json:"transport_trip_dropped_count"`
	TransportTripStartedAt     *time.Time `json:"transport_trip_started_at,omitempty"`
	TransportTripCompletedAt   *time.Time `json:"transport_trip_completed_at,omitempty"`

	AllowedTransitions []string `json:"allowed_transitions,omitempty"`
}

func TripFromModel(t *model.TransportTrip, allowed []string) TripResponse {
	return TripResponse{
		TransportTripID:            t.TransportTripID,
		TransportTripRouteID:       t.TransportTripRouteID,
		TransportTripDate:          t.TransportTripDate,
		TransportTripStatus:        t.TransportTripStatus,
		TransportTripVersion:       t.TransportTripVersion,
		TransportTripExpectedCount: t.TransportTripExpectedCount,
		TransportTripBoardedCount:  t.TransportTripBoardedCount,
		TransportTripDroppedCount:  t.TransportTripDroppedCount,
		TransportTripStartedAt:     t.TransportTripStartedAt,
		TransportTripCompletedAt:   t.TransportTripCompletedAt,
		AllowedTransitions:         allowed,
	}
}
