package handler

import (
	"stock-notification-service/app/middleware"
	"stock-notification-service/config"

	"github.com/gofiber/fiber/v2"
)

func SetupRouter(app *fiber.App, stockHandler *StockHandler, stockEventHandler *StockEventHandler,
	notificationHandler *ProductNotificationHandler, cfg *config.Config) {

	api := app.Group("/stock-notification-service").Use(middleware.Auth(cfg.Jwt.SecretKey))
	api.Get("/me/notifications", notificationHandler.GetMine)

	internal := app.Group("/internal/stock-notification-service").Use(middleware.AuthInternal(cfg))
	internal.Get("/products/:product_id/stocks", stockHandler.GetByProductID)
	internal.Put("/stocks/:id/quantity", stockHandler.UpdateQuantity)
	internal.Post("/stock-events", stockEventHandler.Create)
	internal.Post("/notifications", notificationHandler.Create)
	internal.Get("/products/:product_id/notifications", notificationHandler.GetByProductID)
}
