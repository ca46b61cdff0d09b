package handlers

import (
	"time"

	"github.com/brightlearn/tutor_backend/database"
	"github.com/brightlearn/tutor_backend/models"
	"github.com/brightlearn/tutor_backend/services"
	"github.com/brightlearn/tutor_backend/utils"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type AvailabilityRuleRequest struct {
	Weekday    int         `json:"weekday" validate:"min=0,max=6"`
	StartTime  string      `json:"start_time" validate:"required"`
	EndTime    string      `json:"end_time" validate:"required"`
	SubjectIDs []uuid.UUID `json:"subject_ids" validate:"required,min=1"`
}

type AvailabilityOverrideRequest struct {
	Date       string      `json:"date" validate:"required"` // 2006-01-02
	StartTime  string      `json:"start_time"`               // empty = block the day
	EndTime    string      `json:"end_time"`
	SubjectIDs []uuid.UUID `json:"subject_ids"`
}

func loadSubjects(ids []uuid.UUID) ([]*models.Subject, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var subjects []*models.Subject
	if err := database.DB.Where("id IN ? AND is_active = ?", ids, true).Find(&subjects).Error; err != nil {
		return nil, err
	}
	if len(subjects) != len(ids) {
		return nil, utils.ValidationError("One or more subjects do not exist")
	}
	return subjects, nil
}

func validateClockWindow(start, end string) error {
	s, err1 := time.Parse("15:04", start)
	e, err2 := time.Parse("15:04", end)
	if err1 != nil || err2 != nil {
		return utils.ValidationError("Times must be in HH:MM format")
	}
	if !s.Before(e) {
		return utils.ValidationError("Start time must be before end time")
	}
	return nil
}

func CreateAvailabilityRule(c *fiber.Ctx) error {
	teacherID, err := currentUserID(c)
	if err != nil {
		return utils.RespondError(c, err)
	}

	var req AvailabilityRuleRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.RespondError(c, utils.ValidationError("Cannot parse JSON"))
	}
	if err := validate.Struct(req); err != nil {
		return utils.RespondError(c, utils.ValidationError(err.Error()))
	}
	if err := validateClockWindow(req.StartTime, req.EndTime); err != nil {
		return utils.RespondError(c, err)
	}

	subjects, err := loadSubjects(req.SubjectIDs)
	if err != nil {
		return utils.RespondError(c, err)
	}

	rule := models.AvailabilityRule{
		TeacherID: teacherID,
		Weekday:   req.Weekday,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		Subjects:  subjects,
		IsActive:  true,
	}
	if err := database.DB.Create(&rule).Error; err != nil {
		return utils.RespondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(rule)
}

func ListMyAvailabilityRules(c *fiber.Ctx) error {
	teacherID, err := currentUserID(c)
	if err != nil {
		return utils.RespondError(c, err)
	}

	var rules []models.AvailabilityRule
	if err := database.DB.Preload("Subjects").
		Where("teacher_id = ?", teacherID).
		Order("weekday, start_time").
		Find(&rules).Error; err != nil {
		return utils.RespondError(c, err)
	}
	return c.JSON(rules)
}

func UpdateAvailabilityRule(c *fiber.Ctx) error {
	teacherID, err := currentUserID(c)
	if err != nil {
		return utils.RespondError(c, err)
	}
	ruleID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return utils.RespondError(c, utils.ValidationError("Invalid rule id"))
	}

	var rule models.AvailabilityRule
	if err := database.DB.First(&rule, "id = ? AND teacher_id = ?", ruleID, teacherID).Error; err != nil {
		return utils.RespondError(c, utils.NotFound("Availability rule not found"))
	}

	var req AvailabilityRuleRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.RespondError(c, utils.ValidationError("Cannot parse JSON"))
	}
	if err := validate.Struct(req); err != nil {
		return utils.RespondError(c, utils.ValidationError(err.Error()))
	}
	if err := validateClockWindow(req.StartTime, req.EndTime); err != nil {
		return utils.RespondError(c, err)
	}

	subjects, err := loadSubjects(req.SubjectIDs)
	if err != nil {
		return utils.RespondError(c, err)
	}

	rule.Weekday = req.Weekday
	rule.StartTime = req.StartTime
	rule.EndTime = req.EndTime
	if err := database.DB.Save(&rule).Error; err != nil {
		return utils.RespondError(c, err)
	}
	if err := database.DB.Model(&rule).Association("Subjects").Replace(subjects); err != nil {
		return utils.RespondError(c, err)
	}
	return c.JSON(rule)
}

func DeleteAvailabilityRule(c *fiber.Ctx) error {
	teacherID, err := currentUserID(c)
	if err != nil {
		return utils.RespondError(c, err)
	}
	ruleID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return utils.RespondError(c, utils.ValidationError("Invalid rule id"))
	}

	// Existing lessons are untouched: disabling a rule only stops new slots
	// from being offered.
	result := database.DB.Model(&models.AvailabilityRule{}).
		Where("id = ? AND teacher_id = ?", ruleID, teacherID).
		Update("is_active", false)
	if result.Error != nil {
		return utils.RespondError(c, result.Error)
	}
	if result.RowsAffected == 0 {
		return utils.RespondError(c, utils.NotFound("Availability rule not found"))
	}
	return c.JSON(fiber.Map{"message": "Availability rule removed"})
}

func CreateAvailabilityOverride(c *fiber.Ctx) error {
	teacherID, err := currentUserID(c)
	if err != nil {
		return utils.RespondError(c, err)
	}

	var req AvailabilityOverrideRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.RespondError(c, utils.ValidationError("Cannot parse JSON"))
	}
	if err := validate.Struct(req); err != nil {
		return utils.RespondError(c, utils.ValidationError(err.Error()))
	}

	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		return utils.RespondError(c, utils.ValidationError("Date must be in YYYY-MM-DD format"))
	}
	if req.StartTime != "" || req.EndTime != "" {
		if err := validateClockWindow(req.StartTime, req.EndTime); err != nil {
			return utils.RespondError(c, err)
		}
	}

	subjects, err := loadSubjects(req.SubjectIDs)
	if err != nil {
		return utils.RespondError(c, err)
	}

	override := models.AvailabilityOverride{
		TeacherID: teacherID,
		Date:      date,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		Subjects:  subjects,
		IsActive:  true,
	}
	if err := database.DB.Create(&override).Error; err != nil {
		return utils.RespondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(override)
}

func DeleteAvailabilityOverride(c *fiber.Ctx) error {
	teacherID, err := currentUserID(c)
	if err != nil {
		return utils.RespondError(c, err)
	}
	overrideID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return utils.RespondError(c, utils.ValidationError("Invalid override id"))
	}

	result := database.DB.Model(&models.AvailabilityOverride{}).
		Where("id = ? AND teacher_id = ?", overrideID, teacherID).
		Update("is_active", false)
	if result.Error != nil {
		return utils.RespondError(c, result.Error)
	}
	if result.RowsAffected == 0 {
		return utils.RespondError(c, utils.NotFound("Availability override not found"))
	}
	return c.JSON(fiber.Map{"message": "Availability override removed"})
}

// GetAvailableSlots is the public slot search: ?from=...&to=... plus optional
// teacher_id, subject_id and duration filters. The range is capped at 31 days.
func GetAvailableSlots(c *fiber.Ctx) error {
	from, err := time.Parse("2006-01-02", c.Query("from"))
	if err != nil {
		return utils.RespondError(c, utils.ValidationError("Query parameter 'from' must be YYYY-MM-DD"))
	}
	to, err := time.Parse("2006-01-02", c.Query("to"))
	if err != nil {
		return utils.RespondError(c, utils.ValidationError("Query parameter 'to' must be YYYY-MM-DD"))
	}
	if to.Before(from) || to.Sub(from) > 31*24*time.Hour {
		return utils.RespondError(c, utils.ValidationError("Date range must be between 1 and 31 days"))
	}

	q := services.SlotQuery{From: from, To: to}
	if raw := c.Query("teacher_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return utils.RespondError(c, utils.ValidationError("Invalid teacher_id"))
		}
		q.TeacherID = &id
	}
	if raw := c.Query("subject_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return utils.RespondError(c, utils.ValidationError("Invalid subject_id"))
		}
		q.SubjectID = &id
	}
	if duration := c.QueryInt("duration"); duration != 0 {
		if duration != 30 && duration != 60 {
			return utils.RespondError(c, utils.ValidationError("Duration must be 30 or 60"))
		}
		q.Duration = &duration
	}

	slots, err := services.FetchSlots(q, time.Now().UTC())
	if err != nil {
		return utils.RespondError(c, err)
	}
	return c.JSON(fiber.Map{"slots": slots, "count": len(slots)})
}
