package routes

import (
	"github.com/brightlearn/tutor_backend/handlers"
	"github.com/brightlearn/tutor_backend/middleware"
	"github.com/gofiber/fiber/v2"
)

func UploadRoutes(app *fiber.App) {
	api := app.Group("/api/v1")

	api.Get("/uploads/signature", middleware.Protected(), handlers.GenerateUploadSignature)
}
