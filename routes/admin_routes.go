package routes

import (
	"github.com/brightlearn/tutor_backend/handlers"
	"github.com/brightlearn/tutor_backend/middleware"
	"github.com/gofiber/fiber/v2"
)

func AdminRoutes(app *fiber.App) {
	api := app.Group("/api/v1")

	admin := api.Group("/admin", middleware.Protected(), middleware.AdminRequired())
	admin.Get("/teachers/pending", handlers.ListPendingTeachers)
	admin.Post("/teachers/:id/approve", handlers.ApproveTeacher)
	admin.Post("/teachers/:id/reject", handlers.RejectTeacher)
	admin.Post("/subjects", handlers.CreateSubject)
	admin.Get("/promo-codes", handlers.ListPromoCodes)
	admin.Post("/promo-codes", handlers.CreatePromoCode)
	admin.Delete("/promo-codes/:id", handlers.DeactivatePromoCode)
	admin.Post("/credits/adjust", handlers.AdjustCredits)
	admin.Post("/price-locks", handlers.CreatePriceLock)
}
