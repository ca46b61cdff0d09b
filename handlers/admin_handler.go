package handlers

import (
	"time"

	"github.com/brightlearn/tutor_backend/database"
	"github.com/brightlearn/tutor_backend/models"
	"github.com/brightlearn/tutor_backend/notifications"
	"github.com/brightlearn/tutor_backend/services"
	"github.com/brightlearn/tutor_backend/utils"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

func ListPendingTeachers(c *fiber.Ctx) error {
	var profiles []models.TeacherProfile
	if err := database.DB.Preload("User").Preload("Subjects").
		Where("status = ?", "pending").
		Order("created_at ASC").
		Find(&profiles).Error; err != nil {
		return utils.RespondError(c, err)
	}
	return c.JSON(fiber.Map{"applications": profiles})
}

// ApproveTeacher activates a pending application and upgrades the account's
// role so teacher-only routes open up.
func ApproveTeacher(c *fiber.Ctx) error {
	teacherID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return utils.RespondError(c, utils.ValidationError("Invalid teacher id"))
	}

	var profile models.TeacherProfile
	if err := database.DB.Preload("User").First(&profile, "user_id = ?", teacherID).Error; err != nil {
		return utils.RespondError(c, utils.NotFound("Teacher application not found"))
	}
	if profile.Status == "active" {
		return utils.RespondError(c, utils.Conflict("Teacher is already approved"))
	}

	err = database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&profile).Update("status", "active").Error; err != nil {
			return err
		}
		return tx.Model(&models.User{}).Where("id = ?", teacherID).Update("role", "teacher").Error
	})
	if err != nil {
		return utils.RespondError(c, err)
	}

	go notifications.SendEmail(profile.User.FullName, profile.User.Email, "Your Teacher Application Was Approved!",
		"<h1>Welcome Aboard!</h1><p>Your application has been approved. Set up your availability to start receiving bookings.</p>")

	return c.JSON(fiber.Map{"message": "Teacher approved"})
}

func RejectTeacher(c *fiber.Ctx) error {
	teacherID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return utils.RespondError(c, utils.ValidationError("Invalid teacher id"))
	}

	result := database.DB.Model(&models.TeacherProfile{}).
		Where("user_id = ? AND status = ?", teacherID, "pending").
		Update("status", "rejected")
	if result.Error != nil {
		return utils.RespondError(c, result.Error)
	}
	if result.RowsAffected == 0 {
		return utils.RespondError(c, utils.NotFound("Pending teacher application not found"))
	}
	return c.JSON(fiber.Map{"message": "Teacher application rejected"})
}

func CreateSubject(c *fiber.Ctx) error {
	type Request struct {
		Name string `json:"name" validate:"required,min=2,max=100"`
	}
	var req Request
	if err := c.BodyParser(&req); err != nil {
		return utils.RespondError(c, utils.ValidationError("Cannot parse JSON"))
	}
	if err := validate.Struct(req); err != nil {
		return utils.RespondError(c, utils.ValidationError(err.Error()))
	}

	subject := models.Subject{Name: req.Name, IsActive: true}
	if err := database.DB.Create(&subject).Error; err != nil {
		return utils.RespondError(c, utils.Conflict("Subject already exists"))
	}
	return c.Status(fiber.StatusCreated).JSON(subject)
}

type PromoCodeRequest struct {
	Code           string     `json:"code"` // empty = generate
	DiscountType   string     `json:"discount_type" validate:"required,oneof=percentage fixed free_lesson"`
	DiscountValue  float64    `json:"discount_value" validate:"min=0"`
	MaxUses        int        `json:"max_uses" validate:"min=0"`
	MaxUsesPerUser int        `json:"max_uses_per_user" validate:"min=1"`
	ValidFrom      time.Time  `json:"valid_from"`
	ValidUntil     *time.Time `json:"valid_until,omitempty"`
}

func CreatePromoCode(c *fiber.Ctx) error {
	var req PromoCodeRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.RespondError(c, utils.ValidationError("Cannot parse JSON"))
	}
	if err := validate.Struct(req); err != nil {
		return utils.RespondError(c, utils.ValidationError(err.Error()))
	}
	if req.DiscountType == models.PromoDiscountPercentage && req.DiscountValue > 100 {
		return utils.RespondError(c, utils.ValidationError("Percentage discount cannot exceed 100"))
	}

	code := req.Code
	if code == "" {
		code = utils.GenerateCode(8)
	}
	validFrom := req.ValidFrom
	if validFrom.IsZero() {
		validFrom = time.Now()
	}

	promo := models.PromoCode{
		Code:           code,
		DiscountType:   req.DiscountType,
		DiscountValue:  req.DiscountValue,
		MaxUses:        req.MaxUses,
		MaxUsesPerUser: req.MaxUsesPerUser,
		ValidFrom:      validFrom,
		ValidUntil:     req.ValidUntil,
		IsActive:       true,
	}
	if err := database.DB.Create(&promo).Error; err != nil {
		return utils.RespondError(c, utils.Conflict("Promo code already exists"))
	}
	return c.Status(fiber.StatusCreated).JSON(promo)
}

func ListPromoCodes(c *fiber.Ctx) error {
	var promos []models.PromoCode
	if err := database.DB.Order("created_at DESC").Find(&promos).Error; err != nil {
		return utils.RespondError(c, err)
	}
	return c.JSON(fiber.Map{"promo_codes": promos})
}

func DeactivatePromoCode(c *fiber.Ctx) error {
	promoID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return utils.RespondError(c, utils.ValidationError("Invalid promo code id"))
	}

	result := database.DB.Model(&models.PromoCode{}).
		Where("id = ?", promoID).
		Update("is_active", false)
	if result.Error != nil {
		return utils.RespondError(c, result.Error)
	}
	if result.RowsAffected == 0 {
		return utils.RespondError(c, utils.NotFound("Promo code not found"))
	}
	return c.JSON(fiber.Map{"message": "Promo code deactivated"})
}

// AdjustCredits writes a manual ledger entry for support cases (goodwill
// credits, dispute resolutions). Negative amounts are allowed.
func AdjustCredits(c *fiber.Ctx) error {
	type Request struct {
		UserID uuid.UUID `json:"user_id" validate:"required"`
		Amount float64   `json:"amount" validate:"required"`
		Reason string    `json:"reason" validate:"required,min=5,max=255"`
	}
	var req Request
	if err := c.BodyParser(&req); err != nil {
		return utils.RespondError(c, utils.ValidationError("Cannot parse JSON"))
	}
	if err := validate.Struct(req); err != nil {
		return utils.RespondError(c, utils.ValidationError(err.Error()))
	}

	var user models.User
	if err := database.DB.First(&user, "id = ?", req.UserID).Error; err != nil {
		return utils.RespondError(c, utils.NotFound("User not found"))
	}

	entry := models.CreditLedgerEntry{
		UserID: req.UserID,
		Amount: req.Amount,
		Reason: "admin adjustment: " + req.Reason,
	}
	if err := database.DB.Create(&entry).Error; err != nil {
		return utils.RespondError(c, err)
	}

	balance, err := services.CreditBalance(database.DB, req.UserID)
	if err != nil {
		return utils.RespondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Credits adjusted", "balance": balance})
}

// CreatePriceLock grandfathers a student into a rate with one teacher.
func CreatePriceLock(c *fiber.Ctx) error {
	type Request struct {
		StudentID  uuid.UUID `json:"student_id" validate:"required"`
		TeacherID  uuid.UUID `json:"teacher_id" validate:"required"`
		HourlyRate float64   `json:"hourly_rate" validate:"required,gt=0"`
	}
	var req Request
	if err := c.BodyParser(&req); err != nil {
		return utils.RespondError(c, utils.ValidationError("Cannot parse JSON"))
	}
	if err := validate.Struct(req); err != nil {
		return utils.RespondError(c, utils.ValidationError(err.Error()))
	}

	lock := models.PriceLock{
		StudentID:  req.StudentID,
		TeacherID:  req.TeacherID,
		HourlyRate: req.HourlyRate,
	}
	if err := database.DB.Create(&lock).Error; err != nil {
		return utils.RespondError(c, utils.Conflict("A price lock already exists for this student and teacher"))
	}
	return c.Status(fiber.StatusCreated).JSON(lock)
}
