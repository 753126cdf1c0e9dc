package routes

import (
	"log"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	admissionsRoute "schoolku_backend/internals/features/admissions/applications/route"
	authzRoute "schoolku_backend/internals/features/authz/route"
	authzService "schoolku_backend/internals/features/authz/service"
	financeRoute "schoolku_backend/internals/features/finance/payments/route"
	recruitmentRoute "schoolku_backend/internals/features/hr/recruitment/route"
	libraryRoute "schoolku_backend/internals/features/library/circulation/route"
	safeguardingRoute "schoolku_backend/internals/features/safeguarding/concerns/route"
	schoolRoute "schoolku_backend/internals/features/school/schools/route"
	transportRoute "schoolku_backend/internals/features/transport/trips/route"
	authRoute "schoolku_backend/internals/features/users/auth/route"
	userRoute "schoolku_backend/internals/features/users/user/route"
	authMiddleware "schoolku_backend/internals/middlewares/auth"
	databases "schoolku_backend/internals/databases"
)

var startTime time.Time

func BaseRoutes(app *fiber.App) {
	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString("Schoolku backend up 🚀")
	})

	app.Get("/health", func(c *fiber.Ctx) error {
		sqlDB, err := databases.DB.DB()
		dbStatus := "Connected"
		serverStatus := "OK"
		httpStatus := fiber.StatusOK

		if err != nil || sqlDB.Ping() != nil {
			dbStatus = "Database connection error"
			serverStatus = "DOWN"
			httpStatus = fiber.StatusServiceUnavailable
		}

		uptime := time.Since(startTime).Seconds()

		return c.Status(httpStatus).JSON(fiber.Map{
			"status":         serverStatus,
			"database":       dbStatus,
			"server_time":    time.Now().Format(time.RFC3339),
			"uptime_seconds": int(uptime),
			"environment":    os.Getenv("RAILWAY_ENVIRONMENT"),
		})
	})
}

func SetupRoutes(app *fiber.App, db *gorm.DB, authz *authzService.AuthzService) {
	startTime = time.Now()

	BaseRoutes(app)

	// ===================== PUBLIC =====================
	log.Println("[INFO] Setting up PUBLIC group...")
	public := app.Group("/api")

	// webhook Midtrans: /api/payments/notification (di-skip AuthMiddleware)
	financeRoute.PaymentWebhookRoutes(public.Group("/payments"), db, authz)

	// ===================== AUTHED =====================
	log.Println("[INFO] Setting up AUTHED group...")
	authed := app.Group("/api", authMiddleware.AuthMiddleware(db))

	// register/login publik (rate-limited), logout butuh token
	authRoute.AuthRoutes(public, authed, db)

	// ===================== USER SELF-SERVICE (/api/u) =====================
	log.Println("[INFO] Mounting user self-service routes...")
	userRoute.UserSelfRoutes(authed.Group("/u"), db)

	// ===================== OWNER / SYSTEM (/api/s) =====================
	log.Println("[INFO] Mounting System routes...")
	system := authed.Group("/s")
	schoolRoute.SchoolRoutes(system, db, authz)
	authzRoute.AuthzRoutes(system.Group("/authz"), db, authz)

	// ===================== PER-SCHOOL (/api/a/:school_id) =====================
	log.Println("[INFO] Mounting per-school admin routes...")
	admin := authed.Group("/a/:school_id")

	admissionsRoute.AdmissionsRoutes(admin.Group("/admissions"), db, authz)
	libraryRoute.LibraryRoutes(admin.Group("/library"), db, authz)
	transportRoute.TransportRoutes(admin.Group("/transport"), db, authz)
	financeRoute.FinanceRoutes(admin.Group("/finance"), db, authz)
	recruitmentRoute.RecruitmentRoutes(admin.Group("/recruitment"), db, authz)
	safeguardingRoute.SafeguardingRoutes(admin.Group("/safeguarding"), db, authz)
	userRoute.UserRoutes(admin.Group("/users"), db, authz)
}
