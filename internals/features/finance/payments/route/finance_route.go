package route

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	authzService "schoolku_backend/internals/features/authz/service"
	payController "schoolku_backend/internals/features/finance/payments/controller"
	middleware "schoolku_backend/internals/middlewares/features"
)

// Panggil dengan: route.FinanceRoutes(app.Group("/api/a/:school_id/finance"), db, authz)
func FinanceRoutes(r fiber.Router, db *gorm.DB, authz *authzService.AuthzService) {
	ctl := payController.NewPaymentController(db, authz)

	scoped := r.Group("/", middleware.UseSchoolScope())

	plans := scoped.Group("/plans")
	plans.Post("/", ctl.CreatePlan)
	plans.Get("/:plan_id", ctl.GetPlan)

	scoped.Post("/payments", ctl.CreatePayment)

	sessions := scoped.Group("/sessions")
	sessions.Post("/", ctl.OpenSession)
	sessions.Post("/:session_id/ledger", ctl.AppendLedger)
	sessions.Post("/:session_id/close", ctl.CloseSession)

	scoped.Post("/reconcile", ctl.Reconcile)
}

// PaymentWebhookRoutes: endpoint notifikasi Midtrans, tanpa auth (path
// di-skip oleh auth middleware).
func PaymentWebhookRoutes(r fiber.Router, db *gorm.DB, authz *authzService.AuthzService) {
	ctl := payController.NewPaymentController(db, authz)
	r.Post("/notification", ctl.HandleMidtransNotification)
}
