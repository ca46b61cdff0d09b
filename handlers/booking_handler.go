package handlers

import (
	"github.com/brightlearn/tutor_backend/database"
	"github.com/brightlearn/tutor_backend/models"
	"github.com/brightlearn/tutor_backend/services"
	"github.com/brightlearn/tutor_backend/utils"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type CreateBookingRequest struct {
	Slots         []services.SlotSelection `json:"slots" validate:"required,min=1,max=10"`
	PromoCode     *string                  `json:"promo_code,omitempty"`
	PaymentMethod string                   `json:"payment_method,omitempty"` // force "external_processor" to skip credits
}

// CreateBooking books one or more lesson slots. Depending on the resolved
// payment plan the response carries either the committed lessons or a
// checkout redirect.
func CreateBooking(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return utils.RespondError(c, err)
	}

	var req CreateBookingRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.RespondError(c, utils.ValidationError("Cannot parse JSON"))
	}
	if err := validate.Struct(req); err != nil {
		return utils.RespondError(c, utils.ValidationError(err.Error()))
	}

	result, err := Booking.CreateBookings(userID, req.Slots, req.PromoCode, req.PaymentMethod)
	if err != nil {
		return utils.RespondError(c, err)
	}

	if result.CheckoutURL != "" {
		return c.JSON(fiber.Map{
			"success":            true,
			"checkout_url":       result.CheckoutURL,
			"pending_booking_id": result.PendingID,
		})
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"lessons": result.Lessons,
	})
}

func CancelLesson(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return utils.RespondError(c, err)
	}
	lessonID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return utils.RespondError(c, utils.ValidationError("Invalid lesson id"))
	}

	lesson, err := Lifecycle.CancelByStudent(lessonID, userID)
	if err != nil {
		return utils.RespondError(c, err)
	}
	return c.JSON(fiber.Map{
		"success":          true,
		"lesson":           lesson,
		"credits_refunded": lesson.CreditCost(),
	})
}

type RescheduleRequest struct {
	Date string `json:"date" validate:"required"` // 2006-01-02
	Time string `json:"time" validate:"required"` // 15:04
}

func RescheduleLesson(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return utils.RespondError(c, err)
	}
	lessonID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return utils.RespondError(c, utils.ValidationError("Invalid lesson id"))
	}

	var req RescheduleRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.RespondError(c, utils.ValidationError("Cannot parse JSON"))
	}
	if err := validate.Struct(req); err != nil {
		return utils.RespondError(c, utils.ValidationError(err.Error()))
	}

	lesson, err := Lifecycle.Reschedule(lessonID, userID, req.Date, req.Time)
	if err != nil {
		return utils.RespondError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "lesson": lesson})
}

// GetMyLessons lists the authenticated student's lessons, newest first.
// ?status=upcoming narrows to non-terminal future lessons.
func GetMyLessons(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return utils.RespondError(c, err)
	}

	var learner models.Learner
	if err := database.DB.First(&learner, "user_id = ?", userID).Error; err != nil {
		return c.JSON(fiber.Map{"lessons": []models.Lesson{}})
	}

	query := database.DB.Preload("Teacher").Preload("Subject").
		Where("learner_id = ?", learner.ID)
	if c.Query("status") == "upcoming" {
		query = query.Where("status NOT IN ? AND scheduled_time > NOW()",
			[]string{models.LessonStatusCompleted, models.LessonStatusCancelledByStudent, models.LessonStatusCancelledByTeacher})
	}

	var lessons []models.Lesson
	if err := query.Order("scheduled_time DESC").Find(&lessons).Error; err != nil {
		return utils.RespondError(c, err)
	}
	return c.JSON(fiber.Map{"lessons": lessons})
}

// GetLesson returns one lesson, visible only to its learner or teacher. The
// room join code matches the caller's side.
func GetLesson(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return utils.RespondError(c, err)
	}
	lessonID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return utils.RespondError(c, utils.ValidationError("Invalid lesson id"))
	}

	var lesson models.Lesson
	if err := database.DB.Preload("Teacher").Preload("Learner").Preload("Subject").
		First(&lesson, "id = ?", lessonID).Error; err != nil {
		return utils.RespondError(c, utils.NotFound("Lesson not found"))
	}

	isTeacher := lesson.TeacherID == userID
	isLearner := lesson.Learner.UserID == userID
	if !isTeacher && !isLearner {
		return utils.RespondError(c, utils.Forbidden("You are not a participant of this lesson"))
	}

	joinCode := lesson.GuestRoomCode
	if isTeacher {
		joinCode = lesson.HostRoomCode
	}
	return c.JSON(fiber.Map{"lesson": lesson, "join_code": joinCode})
}

func GetCreditBalance(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return utils.RespondError(c, err)
	}

	balance, err := services.CreditBalance(database.DB, userID)
	if err != nil {
		return utils.RespondError(c, err)
	}

	var history []models.CreditLedgerEntry
	if err := database.DB.Where("user_id = ?", userID).
		Order("created_at DESC").Limit(50).
		Find(&history).Error; err != nil {
		return utils.RespondError(c, err)
	}
	return c.JSON(fiber.Map{"balance": balance, "history": history})
}
