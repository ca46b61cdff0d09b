package routes

import (
	"github.com/brightlearn/tutor_backend/handlers"
	"github.com/brightlearn/tutor_backend/middleware"
	"github.com/gofiber/fiber/v2"
)

func BookingRoutes(app *fiber.App) {
	api := app.Group("/api/v1")

	booking := api.Group("/bookings", middleware.Protected())
	booking.Post("", handlers.CreateBooking)
	booking.Get("/me", handlers.GetMyLessons)
	booking.Get("/credits", handlers.GetCreditBalance)

	lessons := api.Group("/lessons", middleware.Protected())
	lessons.Get("/:id", handlers.GetLesson)
	lessons.Post("/:id/cancel", handlers.CancelLesson)
	lessons.Post("/:id/reschedule", handlers.RescheduleLesson)
	lessons.Post("/:id/review", handlers.CreateReview)
}
