package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/commerce-service/internal/api/http/handlers"
	"github.com/spec-kit/commerce-service/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Products       *handlers.ProductsHandler
	Orders         *handlers.OrdersHandler
	Uploads        *handlers.UploadsHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Post("/register", cfg.Auth.Register)
	authGroup.Post("/verify-email-otp", cfg.Auth.VerifyEmailOTP)
	authGroup.Post("/resend-email-otp", cfg.Auth.ResendEmailOTP)
	authGroup.Post("/complete-registration", cfg.Auth.CompleteRegistration)
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Post("/admin/login", cfg.Auth.AdminLogin)
	authGroup.Post("/forgot-password", cfg.Auth.ForgotPassword)
	authGroup.Post("/reset-password", cfg.Auth.ResetPassword)

	session := authGroup.Group("", cfg.AuthMiddleware.Handle, auth.RequireAuthenticated())
	session.Post("/logout", cfg.Auth.Logout)
	session.Get("/me", cfg.Auth.Me)
	session.Put("/profile", cfg.Auth.UpdateProfile)
	session.Put("/change-password", cfg.Auth.ChangePassword)
	session.Get("/addresses", cfg.Auth.ListAddresses)
	session.Post("/addresses", cfg.Auth.CreateAddress)
	session.Put("/addresses/:id", cfg.Auth.UpdateAddress)
	session.Delete("/addresses/:id", cfg.Auth.DeleteAddress)

	// Optional auth on the public reads lets an admin session opt into
	// seeing deactivated products.
	products := app.Group("/products")
	products.Get("/", cfg.AuthMiddleware.HandleOptional, cfg.Products.List)
	products.Get("/:id", cfg.AuthMiddleware.HandleOptional, cfg.Products.Get)

	adminProducts := products.Group("", cfg.AuthMiddleware.Handle, auth.RequireAdmin())
	adminProducts.Post("/", cfg.Products.Create)
	adminProducts.Put("/:id", cfg.Products.Update)
	adminProducts.Delete("/:id", cfg.Products.Delete)

	orders := app.Group("/orders", cfg.AuthMiddleware.Handle, auth.RequireAuthenticated())
	orders.Post("/", cfg.Orders.Create)
	orders.Get("/myorders", cfg.Orders.ListMine)
	orders.Put("/:id/pay", cfg.Orders.Pay)
	orders.Put("/:id/cancel", cfg.Orders.Cancel)

	adminOrders := orders.Group("", auth.RequireAdmin())
	adminOrders.Get("/", cfg.Orders.List)
	adminOrders.Put("/:id/status", cfg.Orders.UpdateStatus)

	// Registered after /myorders so the literal segment wins.
	orders.Get("/:id", cfg.Orders.Get)

	uploads := app.Group("/uploads", cfg.AuthMiddleware.Handle, auth.RequireAdmin())
	uploads.Post("/", cfg.Uploads.Upload)
}
