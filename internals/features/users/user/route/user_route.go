package route

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	authzService "schoolku_backend/internals/features/authz/service"
	userController "schoolku_backend/internals/features/users/user/controller"
	middleware "schoolku_backend/internals/middlewares/features"
)

// Panggil dengan: route.UserRoutes(app.Group("/api/a/:school_id/users"), db, authz)
func UserRoutes(r fiber.Router, db *gorm.DB, authz *authzService.AuthzService) {
	ctl := userController.NewUserRoleController(db, authz)

	scoped := r.Group("/", middleware.UseSchoolScope())

	roles := scoped.Group("/roles")
	roles.Post("/", ctl.Assign)
	roles.Get("/", ctl.List)
	roles.Delete("/:assignment_id", ctl.Revoke)
}

// Panggil dengan: route.UserSelfRoutes(app.Group("/api/u"), db)
// Permukaan self-service: tanpa scope sekolah, cukup token valid.
func UserSelfRoutes(r fiber.Router, db *gorm.DB) {
	ctl := userController.NewUserProfileController(db)

	r.Get("/me", ctl.Me)
	r.Put("/me/profile", ctl.UpdateProfile)
}
