package route

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	authzController "schoolku_backend/internals/features/authz/controller"
	authzService "schoolku_backend/internals/features/authz/service"
)

// Panggil dengan: route.AuthzRoutes(app.Group("/api/s/authz"), db, authz)
// Semua endpoint di sini owner-only (dicek di controller).
func AuthzRoutes(r fiber.Router, db *gorm.DB, authz *authzService.AuthzService) {
	ctl := authzController.NewAuthzController(db, authz)

	rules := r.Group("/rules")
	rules.Post("/", ctl.CreateRule)
	rules.Get("/", ctl.ListRules)
	rules.Delete("/:rule_id", ctl.DeleteRule)

	r.Post("/reload", ctl.Reload)
	r.Post("/can-check", ctl.CanCheck)
	r.Get("/audit-logs", ctl.ListAuditLogs)
}
