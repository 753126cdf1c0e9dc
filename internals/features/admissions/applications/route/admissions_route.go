package route

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	admController "schoolku_backend/internals/features/admissions/applications/controller"
	authzService "schoolku_backend/internals/features/authz/service"
	middleware "schoolku_backend/internals/middlewares/features"
)

// Panggil dengan: route.AdmissionsRoutes(app.Group("/api/a/:school_id/admissions"), db, authz)
// Hasil endpoint:
//   POST   /api/a/:school_id/admissions/applications
//   GET    /api/a/:school_id/admissions/applications
//   GET    /api/a/:school_id/admissions/applications/:application_id
//   POST   /api/a/:school_id/admissions/applications/:application_id/transition
//   POST   /api/a/:school_id/admissions/applications/:application_id/documents
//   POST   /api/a/:school_id/admissions/applications/:application_id/overrides
//   POST   /api/a/:school_id/admissions/overrides/:override_id/approve
func AdmissionsRoutes(r fiber.Router, db *gorm.DB, authz *authzService.AuthzService) {
	ctl := admController.NewEnrollmentApplicationController(db, authz)

	scoped := r.Group("/", middleware.UseSchoolScope())

	apps := scoped.Group("/applications")
	apps.Post("/", ctl.Create)
	apps.Get("/", ctl.List)
	apps.Get("/:application_id", ctl.GetByID)
	apps.Post("/:application_id/transition", ctl.Transition)
	apps.Post("/:application_id/documents", ctl.UploadDocument)
	apps.Post("/:application_id/overrides", ctl.CreateOverride)

	scoped.Post("/overrides/:override_id/approve", ctl.ApproveOverride)
}
