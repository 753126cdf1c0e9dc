package route

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	authzService "schoolku_backend/internals/features/authz/service"
	sgController "schoolku_backend/internals/features/safeguarding/concerns/controller"
	middleware "schoolku_backend/internals/middlewares/features"
)

// Panggil dengan: route.SafeguardingRoutes(app.Group("/api/a/:school_id/safeguarding"), db, authz)
func SafeguardingRoutes(r fiber.Router, db *gorm.DB, authz *authzService.AuthzService) {
	ctl := sgController.NewConcernController(db, authz)

	scoped := r.Group("/", middleware.UseSchoolScope())

	concerns := scoped.Group("/concerns")
	concerns.Post("/", ctl.Create)
	concerns.Get("/", ctl.List)
	concerns.Get("/:concern_id", ctl.GetByID)
	concerns.Post("/:concern_id/transition", ctl.Transition)
}
