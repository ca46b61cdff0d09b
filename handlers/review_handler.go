package handlers

import (
	"github.com/brightlearn/tutor_backend/database"
	"github.com/brightlearn/tutor_backend/models"
	"github.com/brightlearn/tutor_backend/utils"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CreateReviewRequest struct {
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
	Comment string `json:"comment" validate:"max=2000"`
}

// CreateReview lets a student rate a completed lesson once. The teacher's
// average rating is refreshed in the same transaction.
func CreateReview(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return utils.RespondError(c, err)
	}
	lessonID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return utils.RespondError(c, utils.ValidationError("Invalid lesson id"))
	}

	var req CreateReviewRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.RespondError(c, utils.ValidationError("Cannot parse JSON"))
	}
	if err := validate.Struct(req); err != nil {
		return utils.RespondError(c, utils.ValidationError(err.Error()))
	}

	var lesson models.Lesson
	if err := database.DB.Preload("Learner").First(&lesson, "id = ?", lessonID).Error; err != nil {
		return utils.RespondError(c, utils.NotFound("Lesson not found"))
	}
	if lesson.Learner.UserID != userID {
		return utils.RespondError(c, utils.Forbidden("You can only review your own lessons"))
	}
	if lesson.Status != models.LessonStatusCompleted {
		return utils.RespondError(c, utils.Conflict("Only completed lessons can be reviewed"))
	}

	review := models.Review{
		LessonID:  lessonID,
		StudentID: userID,
		TeacherID: lesson.TeacherID,
		Rating:    req.Rating,
		Comment:   req.Comment,
	}
	err = database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&review).Error; err != nil {
			return utils.Conflict("This lesson has already been reviewed")
		}
		return recomputeAvgRating(tx, lesson.TeacherID)
	})
	if err != nil {
		return utils.RespondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(review)
}
