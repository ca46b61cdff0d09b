package handlers

import (
	"github.com/brightlearn/tutor_backend/database"
	"github.com/brightlearn/tutor_backend/models"
	"github.com/brightlearn/tutor_backend/utils"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TeacherApplicationRequest struct {
	Headline   string      `json:"headline" validate:"required,min=10,max=255"`
	Bio        string      `json:"bio" validate:"required,min=50"`
	HourlyRate float64     `json:"hourly_rate" validate:"required,gt=0"`
	SubjectIDs []uuid.UUID `json:"subject_ids" validate:"required,min=1"`
}

// ApplyAsTeacher creates a pending teacher profile. The account keeps its
// student role until an admin approves the application.
func ApplyAsTeacher(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return utils.RespondError(c, err)
	}

	var req TeacherApplicationRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.RespondError(c, utils.ValidationError("Cannot parse JSON"))
	}
	if err := validate.Struct(req); err != nil {
		return utils.RespondError(c, utils.ValidationError(err.Error()))
	}

	var existing models.TeacherProfile
	if err := database.DB.First(&existing, "user_id = ?", userID).Error; err == nil {
		return utils.RespondError(c, utils.Conflict("You have already applied as a teacher"))
	}

	subjects, err := loadSubjects(req.SubjectIDs)
	if err != nil {
		return utils.RespondError(c, err)
	}

	profile := models.TeacherProfile{
		UserID:     userID,
		Headline:   &req.Headline,
		Bio:        &req.Bio,
		HourlyRate: req.HourlyRate,
		Status:     "pending",
		Subjects:   subjects,
	}
	if err := database.DB.Create(&profile).Error; err != nil {
		return utils.RespondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(profile)
}

type TeacherProfileUpdateRequest struct {
	Headline   *string     `json:"headline,omitempty"`
	Bio        *string     `json:"bio,omitempty"`
	HourlyRate *float64    `json:"hourly_rate,omitempty" validate:"omitempty,gt=0"`
	SubjectIDs []uuid.UUID `json:"subject_ids,omitempty"`
}

// UpdateTeacherProfile edits the teacher's own profile. A rate change only
// affects future quotes: students holding a price lock keep their old rate.
func UpdateTeacherProfile(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return utils.RespondError(c, err)
	}

	var profile models.TeacherProfile
	if err := database.DB.First(&profile, "user_id = ?", userID).Error; err != nil {
		return utils.RespondError(c, utils.NotFound("Teacher profile not found"))
	}

	var req TeacherProfileUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.RespondError(c, utils.ValidationError("Cannot parse JSON"))
	}
	if err := validate.Struct(req); err != nil {
		return utils.RespondError(c, utils.ValidationError(err.Error()))
	}

	if req.Headline != nil {
		profile.Headline = req.Headline
	}
	if req.Bio != nil {
		profile.Bio = req.Bio
	}
	if req.HourlyRate != nil {
		profile.HourlyRate = *req.HourlyRate
	}
	if err := database.DB.Save(&profile).Error; err != nil {
		return utils.RespondError(c, err)
	}

	if req.SubjectIDs != nil {
		subjects, err := loadSubjects(req.SubjectIDs)
		if err != nil {
			return utils.RespondError(c, err)
		}
		if err := database.DB.Model(&profile).Association("Subjects").Replace(subjects); err != nil {
			return utils.RespondError(c, err)
		}
	}
	return c.JSON(profile)
}

// ListTeachers is the public marketplace listing of approved teachers.
// ?subject_id=... narrows by subject.
func ListTeachers(c *fiber.Ctx) error {
	query := database.DB.Preload("Subjects").Preload("User").
		Where("status = ?", "active")

	if raw := c.Query("subject_id"); raw != "" {
		subjectID, err := uuid.Parse(raw)
		if err != nil {
			return utils.RespondError(c, utils.ValidationError("Invalid subject_id"))
		}
		query = query.Joins("JOIN teacher_subjects ts ON ts.teacher_profile_user_id = teacher_profiles.user_id").
			Where("ts.subject_id = ?", subjectID)
	}

	var teachers []models.TeacherProfile
	if err := query.Order("avg_rating DESC").Find(&teachers).Error; err != nil {
		return utils.RespondError(c, err)
	}
	return c.JSON(fiber.Map{"teachers": teachers})
}

func GetTeacher(c *fiber.Ctx) error {
	teacherID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return utils.RespondError(c, utils.ValidationError("Invalid teacher id"))
	}

	var profile models.TeacherProfile
	if err := database.DB.Preload("Subjects").Preload("User").
		First(&profile, "user_id = ? AND status = ?", teacherID, "active").Error; err != nil {
		return utils.RespondError(c, utils.NotFound("Teacher not found"))
	}

	var reviews []models.Review
	if err := database.DB.Where("teacher_id = ?", teacherID).
		Order("created_at DESC").Limit(20).
		Find(&reviews).Error; err != nil {
		return utils.RespondError(c, err)
	}
	return c.JSON(fiber.Map{"teacher": profile, "reviews": reviews})
}

func ListSubjects(c *fiber.Ctx) error {
	var subjects []models.Subject
	if err := database.DB.Where("is_active = ?", true).Order("name").Find(&subjects).Error; err != nil {
		return utils.RespondError(c, err)
	}
	return c.JSON(fiber.Map{"subjects": subjects})
}

// GetTeacherLessons lists the authenticated teacher's lessons.
func GetTeacherLessons(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return utils.RespondError(c, err)
	}

	query := database.DB.Preload("Learner").Preload("Subject").
		Where("teacher_id = ?", userID)
	if c.Query("status") == "upcoming" {
		query = query.Where("status NOT IN ? AND scheduled_time > NOW()",
			[]string{models.LessonStatusCompleted, models.LessonStatusCancelledByStudent, models.LessonStatusCancelledByTeacher})
	}

	var lessons []models.Lesson
	if err := query.Order("scheduled_time ASC").Find(&lessons).Error; err != nil {
		return utils.RespondError(c, err)
	}
	return c.JSON(fiber.Map{"lessons": lessons})
}

func ConfirmLesson(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return utils.RespondError(c, err)
	}
	lessonID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return utils.RespondError(c, utils.ValidationError("Invalid lesson id"))
	}

	lesson, err := Lifecycle.ConfirmByTeacher(lessonID, userID)
	if err != nil {
		return utils.RespondError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "lesson": lesson})
}

func TeacherCancelLesson(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return utils.RespondError(c, err)
	}
	lessonID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return utils.RespondError(c, utils.ValidationError("Invalid lesson id"))
	}

	lesson, err := Lifecycle.CancelByTeacher(lessonID, userID)
	if err != nil {
		return utils.RespondError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "lesson": lesson})
}

type CompleteLessonRequest struct {
	Feedback *string `json:"feedback,omitempty"`
}

func CompleteLesson(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return utils.RespondError(c, err)
	}
	lessonID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return utils.RespondError(c, utils.ValidationError("Invalid lesson id"))
	}

	var req CompleteLessonRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return utils.RespondError(c, utils.ValidationError("Cannot parse JSON"))
		}
	}

	lesson, err := Lifecycle.Complete(lessonID, userID, req.Feedback)
	if err != nil {
		return utils.RespondError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "lesson": lesson})
}

// GetTeacherEarnings reports the teacher's accumulated balance and completed
// lesson history.
func GetTeacherEarnings(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return utils.RespondError(c, err)
	}

	var profile models.TeacherProfile
	if err := database.DB.First(&profile, "user_id = ?", userID).Error; err != nil {
		return utils.RespondError(c, utils.NotFound("Teacher profile not found"))
	}

	var completed int64
	if err := database.DB.Model(&models.Lesson{}).
		Where("teacher_id = ? AND status = ?", userID, models.LessonStatusCompleted).
		Count(&completed).Error; err != nil {
		return utils.RespondError(c, err)
	}

	return c.JSON(fiber.Map{
		"current_balance":   profile.CurrentBalance,
		"completed_lessons": completed,
	})
}

// recomputeAvgRating refreshes the denormalized rating on the teacher
// profile inside the caller's transaction.
func recomputeAvgRating(tx *gorm.DB, teacherID uuid.UUID) error {
	var avg float64
	if err := tx.Model(&models.Review{}).
		Where("teacher_id = ?", teacherID).
		Select("COALESCE(AVG(rating), 0)").
		Scan(&avg).Error; err != nil {
		return err
	}
	return tx.Model(&models.TeacherProfile{}).
		Where("user_id = ?", teacherID).
		Update("avg_rating", avg).Error
}
