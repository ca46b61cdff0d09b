package routes

import (
	"github.com/brightlearn/tutor_backend/handlers"
	"github.com/brightlearn/tutor_backend/middleware"
	"github.com/gofiber/fiber/v2"
)

func TeacherRoutes(app *fiber.App) {
	api := app.Group("/api/v1")

	// Any authenticated user may apply; teacher-only routes come after
	// approval flips the role.
	api.Post("/teachers/apply", middleware.Protected(), handlers.ApplyAsTeacher)

	teacher := api.Group("/teacher", middleware.Protected(), middleware.TeacherRequired())
	teacher.Put("/profile", handlers.UpdateTeacherProfile)
	teacher.Get("/lessons", handlers.GetTeacherLessons)
	teacher.Get("/earnings", handlers.GetTeacherEarnings)
	teacher.Post("/lessons/:id/confirm", handlers.ConfirmLesson)
	teacher.Post("/lessons/:id/cancel", handlers.TeacherCancelLesson)
	teacher.Post("/lessons/:id/complete", handlers.CompleteLesson)

	availability := teacher.Group("/availability")
	availability.Get("/rules", handlers.ListMyAvailabilityRules)
	availability.Post("/rules", handlers.CreateAvailabilityRule)
	availability.Put("/rules/:id", handlers.UpdateAvailabilityRule)
	availability.Delete("/rules/:id", handlers.DeleteAvailabilityRule)
	availability.Post("/overrides", handlers.CreateAvailabilityOverride)
	availability.Delete("/overrides/:id", handlers.DeleteAvailabilityOverride)
}
