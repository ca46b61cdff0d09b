package services

import (
	"errors"
	"time"

	"github.com/brightlearn/tutor_backend/database"
	"github.com/brightlearn/tutor_backend/models"
	"github.com/brightlearn/tutor_backend/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// dbBookingStore is the gorm-backed BookingStore used in production.
type dbBookingStore struct{}

func NewBookingStore() BookingStore {
	return &dbBookingStore{}
}

func (st *dbBookingStore) GetUser(id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := database.DB.First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.NotFound("User not found")
		}
		return nil, err
	}
	return &user, nil
}

func (st *dbBookingStore) EnsureLearner(user *models.User) (*models.Learner, error) {
	var learner models.Learner
	err := database.DB.Where("user_id = ?", user.ID).First(&learner).Error
	if err == nil {
		return &learner, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	learner = models.Learner{UserID: user.ID, FullName: user.FullName}
	if err := database.DB.Create(&learner).Error; err != nil {
		return nil, err
	}
	return &learner, nil
}

func (st *dbBookingStore) HourlyRate(studentID, teacherID uuid.UUID) (float64, error) {
	return ResolveRate(studentID, teacherID)
}

func (st *dbBookingStore) CreditBalance(userID uuid.UUID) (float64, error) {
	return CreditBalance(database.DB, userID)
}

func (st *dbBookingStore) DebitCredits(userID uuid.UUID, amount float64, reason string) error {
	return DebitCredits(userID, amount, reason)
}

func (st *dbBookingStore) RefundCredits(userID uuid.UUID, amount float64, reason string, lessonID *uuid.UUID) error {
	return RefundCredits(userID, amount, reason, lessonID)
}

func (st *dbBookingStore) ValidatePromo(code string, userID uuid.UUID, now time.Time) (*models.PromoCode, error) {
	return ValidatePromo(code, userID, now)
}

func (st *dbBookingStore) CreateLessons(userID, learnerID uuid.UUID, items []PricedSlot, method, paymentStatus string, promo *models.PromoCode) ([]models.Lesson, error) {
	var lessons []models.Lesson

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		for _, it := range items {
			// Serialize bookings per teacher: the profile row lock makes this
			// conflict re-check authoritative even against racing requests.
			var profile models.TeacherProfile
			if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
				First(&profile, "user_id = ?", it.Selection.TeacherID).Error; err != nil {
				return utils.NotFound("Teacher not found")
			}

			taken, err := hasLessonConflict(tx, it.Selection.TeacherID, it.Start, it.Selection.DurationMinutes, uuid.Nil)
			if err != nil {
				return err
			}
			if taken {
				return utils.Conflict("Slot no longer available")
			}

			lesson := models.Lesson{
				TeacherID:       it.Selection.TeacherID,
				LearnerID:       learnerID,
				SubjectID:       it.Selection.SubjectID,
				ScheduledTime:   it.Start,
				DurationMinutes: it.Selection.DurationMinutes,
				Status:          models.LessonStatusBooked,
				PaymentStatus:   paymentStatus,
				PaymentMethod:   method,
				Price:           it.Price,
			}
			if err := tx.Create(&lesson).Error; err != nil {
				return err
			}
			lessons = append(lessons, lesson)
		}

		if promo != nil {
			// Usage is counted in the same commit as the lessons it paid for.
			result := tx.Model(&models.PromoCode{}).
				Where("id = ? AND (max_uses = 0 OR used_count < max_uses)", promo.ID).
				Update("used_count", gorm.Expr("used_count + 1"))
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				return utils.Conflict("Promo code has no uses left")
			}
			redemption := models.PromoRedemption{
				PromoCodeID: promo.ID,
				UserID:      userID,
				LessonID:    &lessons[0].ID,
			}
			if err := tx.Create(&redemption).Error; err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	for i := range lessons {
		database.DB.Preload("Teacher").Preload("Learner.User").Preload("Subject").
			First(&lessons[i], "id = ?", lessons[i].ID)
	}
	return lessons, nil
}

func (st *dbBookingStore) CreatePendingBooking(pb *models.PendingBooking) error {
	return database.DB.Create(pb).Error
}

func (st *dbBookingStore) AttachCheckoutSession(pb *models.PendingBooking, sessionID string) error {
	pb.CheckoutSessionID = &sessionID
	return database.DB.Save(pb).Error
}

func (st *dbBookingStore) GetPendingBooking(id uuid.UUID) (*models.PendingBooking, error) {
	var pending models.PendingBooking
	if err := database.DB.First(&pending, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.NotFound("Pending booking not found")
		}
		return nil, err
	}
	return &pending, nil
}

func (st *dbBookingStore) ClaimPendingBooking(pb *models.PendingBooking) (bool, error) {
	// Conditional update: of any number of racing confirmations only one
	// flips the row out of pending.
	result := database.DB.Model(&models.PendingBooking{}).
		Where("id = ? AND status = ?", pb.ID, models.PendingBookingPending).
		Update("status", models.PendingBookingCompleted)
	if result.Error != nil {
		return false, result.Error
	}
	if result.RowsAffected == 0 {
		return false, nil
	}
	pb.Status = models.PendingBookingCompleted
	return true, nil
}

func (st *dbBookingStore) MarkPendingBooking(pb *models.PendingBooking, status string) error {
	pb.Status = status
	return database.DB.Save(pb).Error
}

func (st *dbBookingStore) SaveLesson(lesson *models.Lesson) error {
	return database.DB.Save(lesson).Error
}

// hasLessonConflict reports whether the teacher already has a non-cancelled
// lesson overlapping [start, start+duration). excludeID skips the lesson
// being rescheduled.
func hasLessonConflict(tx *gorm.DB, teacherID uuid.UUID, start time.Time, durationMinutes int, excludeID uuid.UUID) (bool, error) {
	end := start.Add(time.Duration(durationMinutes) * time.Minute)

	var count int64
	query := tx.Model(&models.Lesson{}).
		Where("teacher_id = ? AND status NOT IN ?", teacherID,
			[]string{models.LessonStatusCancelledByStudent, models.LessonStatusCancelledByTeacher}).
		Where("scheduled_time < ? AND scheduled_time + make_interval(mins => duration_minutes) > ?", end, start)
	if excludeID != uuid.Nil {
		query = query.Where("id <> ?", excludeID)
	}
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// CreditBalance is the sum of a user's ledger entries.
func CreditBalance(tx *gorm.DB, userID uuid.UUID) (float64, error) {
	var balance float64
	err := tx.Model(&models.CreditLedgerEntry{}).
		Where("user_id = ?", userID).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&balance).Error
	return balance, err
}

// DebitCredits atomically takes amount from the user's ledger. The user row
// lock serializes concurrent debits so two bookings cannot both spend the
// same balance.
func DebitCredits(userID uuid.UUID, amount float64, reason string) error {
	return database.DB.Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&user, "id = ?", userID).Error; err != nil {
			return err
		}

		balance, err := CreditBalance(tx, userID)
		if err != nil {
			return err
		}
		if balance < amount {
			return utils.InsufficientBalance("Insufficient credit balance for this booking")
		}

		entry := models.CreditLedgerEntry{
			UserID: userID,
			Amount: -amount,
			Reason: reason,
		}
		return tx.Create(&entry).Error
	})
}

// RefundCredits appends a positive ledger entry. Used both for cancellation
// refunds and for the compensating re-credit after a failed commit.
func RefundCredits(userID uuid.UUID, amount float64, reason string, lessonID *uuid.UUID) error {
	entry := models.CreditLedgerEntry{
		UserID:   userID,
		Amount:   amount,
		Reason:   reason,
		LessonID: lessonID,
	}
	return database.DB.Create(&entry).Error
}
