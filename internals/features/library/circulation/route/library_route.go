package route

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	authzService "schoolku_backend/internals/features/authz/service"
	libController "schoolku_backend/internals/features/library/circulation/controller"
	middleware "schoolku_backend/internals/middlewares/features"
)

// Panggil dengan: route.LibraryRoutes(app.Group("/api/a/:school_id/library"), db, authz)
func LibraryRoutes(r fiber.Router, db *gorm.DB, authz *authzService.AuthzService) {
	ctl := libController.NewCirculationController(db, authz)

	scoped := r.Group("/", middleware.UseSchoolScope())

	books := scoped.Group("/books")
	books.Post("/", ctl.CreateBook)
	books.Get("/", ctl.ListBooks)

	loans := scoped.Group("/loans")
	loans.Post("/", ctl.CreateLoan)
	loans.Get("/:loan_id", ctl.GetLoan)
	loans.Post("/:loan_id/transition", ctl.TransitionLoan)

	scoped.Get("/fines", ctl.ListFines)
	scoped.Post("/reconcile", ctl.Reconcile)
}
