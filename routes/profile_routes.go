package routes

import (
	"github.com/brightlearn/tutor_backend/handlers"
	"github.com/brightlearn/tutor_backend/middleware"
	"github.com/gofiber/fiber/v2"
)

func ProfileRoutes(app *fiber.App) {
	api := app.Group("/api/v1")

	profile := api.Group("/me", middleware.Protected())
	profile.Get("", handlers.GetMe)
	profile.Put("", handlers.UpdateMe)
}
