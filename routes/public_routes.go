package routes

import (
	"github.com/brightlearn/tutor_backend/handlers"
	"github.com/gofiber/fiber/v2"
)

func PublicRoutes(app *fiber.App) {
	api := app.Group("/api/v1")

	api.Get("/subjects", handlers.ListSubjects)
	api.Get("/teachers", handlers.ListTeachers)
	api.Get("/teachers/:id", handlers.GetTeacher)
	api.Get("/slots", handlers.GetAvailableSlots)
}
