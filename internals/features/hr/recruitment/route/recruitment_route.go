package route

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	authzService "schoolku_backend/internals/features/authz/service"
	hrController "schoolku_backend/internals/features/hr/recruitment/controller"
	middleware "schoolku_backend/internals/middlewares/features"
)

// Panggil dengan: route.RecruitmentRoutes(app.Group("/api/a/:school_id/recruitment"), db, authz)
func RecruitmentRoutes(r fiber.Router, db *gorm.DB, authz *authzService.AuthzService) {
	ctl := hrController.NewRecruitmentController(db, authz)

	scoped := r.Group("/", middleware.UseSchoolScope())

	apps := scoped.Group("/applications")
	apps.Post("/", ctl.Create)
	apps.Get("/", ctl.List)
	apps.Post("/:application_id/transition", ctl.Transition)
}
