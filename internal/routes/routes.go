package routes

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/example/piala/internal/config"
	"github.com/example/piala/internal/handlers"
	"github.com/example/piala/internal/middleware"
	"github.com/example/piala/internal/services"
)

// Register wires up all HTTP routes.
func Register(app *fiber.App, db *gorm.DB, cfg *config.Config) {
	telegramService := services.NewTelegramService(cfg.TelegramBotToken, cfg.TelegramAdminChat)

	authHandler := handlers.NewAuthHandler(cfg)
	orderHandler := handlers.NewOrderHandler(db, cfg, telegramService)
	paymeHandler := handlers.NewPaymeHandler(db, cfg, telegramService)

	api := app.Group("/api")

	// Auth routes
	auth := api.Group("/auth")
	auth.Post("/login", authHandler.Login)

	// Provider callback endpoint
	payme := api.Group("/payme")
	payme.Post("/pay", middleware.PaymeAuthMiddleware(cfg), paymeHandler.Callback)

	// Protected merchant routes
	protected := api.Group("", middleware.AuthMiddleware(cfg))

	protected.Post("/orders", orderHandler.CreateOrder)
	protected.Get("/orders", orderHandler.ListOrders)
	protected.Get("/orders/:id", orderHandler.GetOrder)

	protected.Post("/payme/checkout", orderHandler.Checkout)
	protected.Get("/payme/transactions", orderHandler.ListTransactions)
}
