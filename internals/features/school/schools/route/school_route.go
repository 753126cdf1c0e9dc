package route

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	authzService "schoolku_backend/internals/features/authz/service"
	schoolController "schoolku_backend/internals/features/school/schools/controller"
)

// Panggil dengan: route.SchoolRoutes(app.Group("/api/s"), db, authz)
// Create/Deactivate owner-only; module flag & settings lewat cek system_settings.
func SchoolRoutes(r fiber.Router, db *gorm.DB, authz *authzService.AuthzService) {
	ctl := schoolController.NewSchoolController(db, authz)

	schools := r.Group("/schools")
	schools.Post("/", ctl.Create)
	schools.Get("/", ctl.List)
	schools.Get("/:school_id", ctl.GetByID)
	schools.Delete("/:school_id", ctl.Deactivate)
	schools.Put("/:school_id/modules", ctl.SetModuleFlag)
	schools.Put("/:school_id/settings", ctl.UpdateSettings)
}
