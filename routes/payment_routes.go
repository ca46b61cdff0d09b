package routes

import (
	"github.com/brightlearn/tutor_backend/handlers"
	"github.com/gofiber/fiber/v2"
)

func PaymentRoutes(app *fiber.App) {
	api := app.Group("/api/v1")

	// Webhooks authenticate via signature, not JWT.
	api.Post("/payments/webhook", handlers.HandleCheckoutWebhook)
}
