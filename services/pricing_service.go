package services

import (
	"errors"
	"time"

	"github.com/brightlearn/tutor_backend/database"
	"github.com/brightlearn/tutor_backend/models"
	"github.com/brightlearn/tutor_backend/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MinCharge is the smallest non-zero amount the processor will accept. Only
// a free_lesson promo can take a price all the way to zero.
const MinCharge = 0.50

// ResolveRate returns the hourly rate for a student/teacher pair: a locked
// grandfathered rate when one exists, the teacher's current tier rate
// otherwise.
func ResolveRate(studentID, teacherID uuid.UUID) (float64, error) {
	var lock models.PriceLock
	err := database.DB.Where("student_id = ? AND teacher_id = ?", studentID, teacherID).First(&lock).Error
	if err == nil {
		return lock.HourlyRate, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, err
	}

	var profile models.TeacherProfile
	if err := database.DB.Where("user_id = ? AND status = ?", teacherID, "active").First(&profile).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, utils.NotFound("Teacher not found or not active")
		}
		return 0, err
	}
	return profile.HourlyRate, nil
}

// LessonPrice is the hourly rate scaled by the lesson's duration fraction.
func LessonPrice(hourlyRate float64, durationMinutes int) float64 {
	return hourlyRate * float64(durationMinutes) / 60.0
}

// ValidatePromo checks a code's active window and remaining uses for the
// given user. It never mutates the code: redemption is counted only when a
// booking commits, so abandoned quotes cannot exhaust limited codes.
func ValidatePromo(code string, userID uuid.UUID, now time.Time) (*models.PromoCode, error) {
	var promo models.PromoCode
	if err := database.DB.Where("code = ? AND is_active = ?", code, true).First(&promo).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ValidationError("Promo code not found")
		}
		return nil, err
	}

	if now.Before(promo.ValidFrom) {
		return nil, utils.ValidationError("Promo code is not active yet")
	}
	if promo.ValidUntil != nil && now.After(*promo.ValidUntil) {
		return nil, utils.ValidationError("Promo code has expired")
	}
	if promo.MaxUses > 0 && promo.UsedCount >= promo.MaxUses {
		return nil, utils.ValidationError("Promo code has no uses left")
	}

	if promo.MaxUsesPerUser > 0 {
		var used int64
		if err := database.DB.Model(&models.PromoRedemption{}).
			Where("promo_code_id = ? AND user_id = ?", promo.ID, userID).
			Count(&used).Error; err != nil {
			return nil, err
		}
		if used >= int64(promo.MaxUsesPerUser) {
			return nil, utils.ValidationError("You have already used this promo code")
		}
	}

	return &promo, nil
}

// ApplyPromo computes the discounted total for a subtotal. Pure.
func ApplyPromo(subtotal float64, promo *models.PromoCode) float64 {
	if promo == nil {
		return subtotal
	}

	var total float64
	switch promo.DiscountType {
	case models.PromoDiscountPercentage:
		total = subtotal * (1 - promo.DiscountValue/100)
	case models.PromoDiscountFixed:
		total = subtotal - promo.DiscountValue
	case models.PromoDiscountFreeLesson:
		return 0
	default:
		return subtotal
	}

	if total < MinCharge {
		return MinCharge
	}
	return total
}
