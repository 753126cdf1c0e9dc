package route

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	authController "schoolku_backend/internals/features/users/auth/controller"
	"schoolku_backend/internals/middlewares"
)

// AuthRoutes: register/login publik (dengan limiter ketat), logout butuh token.
func AuthRoutes(public fiber.Router, authed fiber.Router, db *gorm.DB) {
	ctl := authController.NewAuthController(db)

	limited := public.Group("/auth", middlewares.AuthRateLimiter())
	limited.Post("/register", ctl.Register)
	limited.Post("/login", ctl.Login)

	authed.Post("/auth/logout", ctl.Logout)
}
