package route

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	authzService "schoolku_backend/internals/features/authz/service"
	tripController "schoolku_backend/internals/features/transport/trips/controller"
	middleware "schoolku_backend/internals/middlewares/features"
)

// Panggil dengan: route.TransportRoutes(app.Group("/api/a/:school_id/transport"), db, authz)
func TransportRoutes(r fiber.Router, db *gorm.DB, authz *authzService.AuthzService) {
	ctl := tripController.NewTripController(db, authz)

	scoped := r.Group("/", middleware.UseSchoolScope())

	scoped.Post("/vehicles", ctl.CreateVehicle)
	scoped.Post("/routes", ctl.CreateRoute)
	scoped.Get("/routes", ctl.ListRoutes)

	trips := scoped.Group("/trips")
	trips.Post("/", ctl.CreateTrip)
	trips.Get("/:trip_id", ctl.GetTrip)
	trips.Post("/:trip_id/transition", ctl.TransitionTrip)
	trips.Post("/:trip_id/boarding", ctl.LogBoarding)

	scoped.Get("/alerts", ctl.ListAlerts)
	scoped.Post("/alerts/:alert_id/resolve", ctl.ResolveAlert)
}
