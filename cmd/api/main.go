package main

import (
	"log"
	"time"

	"github.com/brightlearn/tutor_backend/database"
	"github.com/brightlearn/tutor_backend/handlers"
	"github.com/brightlearn/tutor_backend/jobs"
	"github.com/brightlearn/tutor_backend/models"
	"github.com/brightlearn/tutor_backend/notifications"
	"github.com/brightlearn/tutor_backend/payments"
	"github.com/brightlearn/tutor_backend/routes"
	"github.com/brightlearn/tutor_backend/services"
	"github.com/brightlearn/tutor_backend/video"
	"github.com/brightlearn/tutor_backend/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/robfig/cron/v3"
)

// notifyLessons fans a lifecycle event out to both sides of each lesson,
// over email and any open websocket.
func notifyLessons(event string, lessons []models.Lesson) {
	for _, lesson := range lessons {
		teacher := lesson.Teacher
		student := lesson.Learner.User

		switch event {
		case "lesson_booked":
			go notifications.SendLessonBooked(student.FullName, student.Email,
				teacher.FullName, teacher.Email, lesson.Subject.Name, lesson.ScheduledTime)
		case "lesson_cancelled":
			go notifications.SendLessonCancelled(student.FullName, student.Email,
				teacher.FullName, teacher.Email, lesson.ScheduledTime)
		case "lesson_rescheduled":
			go notifications.SendLessonRescheduled(student.FullName, student.Email,
				teacher.FullName, teacher.Email, lesson.ScheduledTime)
		}

		websocket.NotifyUser(lesson.TeacherID, websocket.Event{Type: event, Payload: lesson})
		websocket.NotifyUser(lesson.Learner.UserID, websocket.Event{Type: event, Payload: lesson})
	}
}

func main() {
	database.ConnectDB()
	database.Migrate()
	database.SeedAdmin()
	notifications.InitEmailService()

	roomClient := video.NewClient(video.LoadConfig())
	provisioner := video.NewProvisioner(roomClient, video.DefaultRetryPolicy())

	checkout := payments.NewStripeService(payments.LoadStripeConfig())

	booking := services.NewBookingService(services.NewBookingStore(), checkout, provisioner)
	booking.Notify = notifyLessons

	lifecycle := services.NewLifecycleService(roomClient)
	lifecycle.Notify = notifyLessons

	handlers.InitServices(booking, lifecycle)
	jobs.Rooms = provisioner

	c := cron.New()
	c.AddFunc("*/5 * * * *", jobs.SendLessonReminders)
	c.AddFunc("*/5 * * * *", jobs.RetryRoomProvisioning)
	c.AddFunc("0 * * * *", jobs.ExpireAbandonedBookings)
	go c.Start()
	log.Println("✅ Cron jobs scheduled successfully.")

	app := fiber.New(fiber.Config{
		Prefork:           false,
		AppName:           "BrightLearn Tutoring",
		CaseSensitive:     true,
		StrictRouting:     true,
		EnablePrintRoutes: true,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}

			log.Printf("[ERROR] %v | Path: %s | Method: %s", err, c.Path(), c.Method())
			return c.Status(code).JSON(fiber.Map{
				"status":  "error",
				"code":    code,
				"message": err.Error(),
			})
		},
	})

	app.Use(cors.New(cors.Config{
		AllowOrigins:  "*",
		AllowHeaders:  "Origin, Content-Type, Accept, Authorization, Sec-WebSocket-Key, Sec-WebSocket-Version",
		AllowMethods:  "GET, POST, PUT, PATCH, DELETE, OPTIONS",
		ExposeHeaders: "Content-Length, Authorization",
		MaxAge:        86400,
	}))

	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		TimeFormat: "2006-01-02 15:04:05",
		TimeZone:   "UTC",
		Format:     "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "success",
			"message": "Welcome to the BrightLearn Tutoring API",
		})
	})

	routes.PublicRoutes(app)
	routes.AuthRoutes(app)
	routes.ProfileRoutes(app)
	routes.BookingRoutes(app)
	routes.TeacherRoutes(app)
	routes.AdminRoutes(app)
	routes.PaymentRoutes(app)
	routes.UploadRoutes(app)
	routes.WebSocketRoutes(app)

	go websocket.RunHub()

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "ok",
		})
	})

	log.Println("✅ Server is running on port 8080")
	if err := app.Listen(":8080"); err != nil {
		log.Fatalf("🔥 Server failed to start: %v", err)
	}
}
