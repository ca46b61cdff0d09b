package services

import (
	"errors"
	"log"
	"strconv"
	"time"

	config "github.com/brightlearn/tutor_backend/configs"
	"github.com/brightlearn/tutor_backend/database"
	"github.com/brightlearn/tutor_backend/models"
	"github.com/brightlearn/tutor_backend/utils"
	"github.com/brightlearn/tutor_backend/video"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MaxReschedules caps how often a single lesson may be moved.
const MaxReschedules = 1

// LifecycleService drives lesson state transitions after booking: cancel,
// reschedule, confirm and complete.
type LifecycleService struct {
	Rooms video.RoomAPI // nil disables room teardown

	// Notify fires best-effort notifications after a transition commits.
	Notify func(event string, lessons []models.Lesson)

	Now func() time.Time
}

func NewLifecycleService(rooms video.RoomAPI) *LifecycleService {
	return &LifecycleService{Rooms: rooms, Now: time.Now}
}

// CanCancel reports whether a learner may still cancel the lesson. Lessons
// inside the lead-time window cannot be cancelled anymore, only rescheduled.
func CanCancel(lesson *models.Lesson, now time.Time) error {
	if lesson.IsTerminal() {
		return utils.Conflict("Lesson is already cancelled or completed")
	}
	if lesson.ScheduledTime.Before(now.Add(MinLeadTime)) {
		return utils.Conflict("Lessons starting within 2 hours cannot be cancelled, please reschedule instead")
	}
	return nil
}

// CanReschedule checks the move itself: the lesson must still be movable and
// the new start must respect the lead time. Availability coverage and teacher
// conflicts are checked separately, under lock.
func CanReschedule(lesson *models.Lesson, newStart time.Time, now time.Time) error {
	if lesson.IsTerminal() {
		return utils.Conflict("Lesson is already cancelled or completed")
	}
	if lesson.RescheduleCount >= MaxReschedules {
		return utils.Conflict("Lesson has already been rescheduled once")
	}
	if newStart.Before(now.Add(MinLeadTime)) {
		return utils.ValidationError("Lessons must be rescheduled at least 2 hours in advance")
	}
	return nil
}

// windowCovers reports whether one availability window fully contains the
// requested interval and offers the subject.
func windowCovers(windows []window, start, end time.Time, subjectID uuid.UUID) bool {
	for _, w := range windows {
		if start.Before(w.start) || end.After(w.end) {
			continue
		}
		for _, id := range w.subjectIDs {
			if id == subjectID {
				return true
			}
		}
	}
	return false
}

// CancelByStudent cancels an upcoming lesson on behalf of its learner and
// re-credits the lesson's full credit cost. The refund is unconditional: a
// lesson paid externally still comes back as prepaid credits.
func (s *LifecycleService) CancelByStudent(lessonID, userID uuid.UUID) (*models.Lesson, error) {
	lesson, err := loadLesson(lessonID)
	if err != nil {
		return nil, err
	}
	if lesson.Learner.UserID != userID {
		return nil, utils.Forbidden("You can only cancel your own lessons")
	}
	if err := CanCancel(lesson, s.Now()); err != nil {
		return nil, err
	}

	return s.cancel(lesson, models.LessonStatusCancelledByStudent, lesson.Learner.UserID)
}

// CancelByTeacher lets the teacher call off any lesson that has not finished
// yet, without the lead-time restriction. The learner is always made whole.
func (s *LifecycleService) CancelByTeacher(lessonID, teacherUserID uuid.UUID) (*models.Lesson, error) {
	lesson, err := loadLesson(lessonID)
	if err != nil {
		return nil, err
	}
	if lesson.TeacherID != teacherUserID {
		return nil, utils.Forbidden("You can only cancel your own lessons")
	}
	if lesson.IsTerminal() {
		return nil, utils.Conflict("Lesson is already cancelled or completed")
	}

	return s.cancel(lesson, models.LessonStatusCancelledByTeacher, lesson.Learner.UserID)
}

func (s *LifecycleService) cancel(lesson *models.Lesson, status string, refundUserID uuid.UUID) (*models.Lesson, error) {
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(lesson).Updates(map[string]interface{}{
			"status":         status,
			"payment_status": models.PaymentStatusRefunded,
		}).Error; err != nil {
			return err
		}
		entry := models.CreditLedgerEntry{
			UserID:   refundUserID,
			Amount:   lesson.CreditCost(),
			Reason:   "refund: lesson cancelled",
			LessonID: &lesson.ID,
		}
		return tx.Create(&entry).Error
	})
	if err != nil {
		return nil, err
	}

	s.teardownRoom(lesson)
	if s.Notify != nil {
		s.Notify("lesson_cancelled", []models.Lesson{*lesson})
	}
	return lesson, nil
}

// Reschedule moves a lesson to a new slot. The new slot must sit inside the
// teacher's current availability and be free, both re-checked under the
// teacher's row lock. Moving a lesson resets the teacher's confirmation.
func (s *LifecycleService) Reschedule(lessonID, userID uuid.UUID, date, clock string) (*models.Lesson, error) {
	lesson, err := loadLesson(lessonID)
	if err != nil {
		return nil, err
	}
	if lesson.Learner.UserID != userID {
		return nil, utils.Forbidden("You can only reschedule your own lessons")
	}

	newStart, err := time.Parse("2006-01-02 15:04", date+" "+clock)
	if err != nil {
		return nil, utils.ValidationError("Invalid date or time")
	}
	if err := CanReschedule(lesson, newStart, s.Now()); err != nil {
		return nil, err
	}
	newEnd := newStart.Add(time.Duration(lesson.DurationMinutes) * time.Minute)

	var rules []models.AvailabilityRule
	if err := database.DB.Preload("Subjects").
		Where("teacher_id = ? AND is_active = ?", lesson.TeacherID, true).
		Find(&rules).Error; err != nil {
		return nil, err
	}
	var overrides []models.AvailabilityOverride
	if err := database.DB.Preload("Subjects").
		Where("teacher_id = ? AND date = ?", lesson.TeacherID, dateOnly(newStart)).
		Find(&overrides).Error; err != nil {
		return nil, err
	}
	windows := effectiveWindows(dateOnly(newStart), rules, overrides, lesson.TeacherID)
	if !windowCovers(windows, newStart, newEnd, lesson.SubjectID) {
		return nil, utils.Conflict("The teacher is not available at the requested time")
	}

	err = database.DB.Transaction(func(tx *gorm.DB) error {
		var profile models.TeacherProfile
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&profile, "user_id = ?", lesson.TeacherID).Error; err != nil {
			return err
		}
		busy, err := hasLessonConflict(tx, lesson.TeacherID, newStart, lesson.DurationMinutes, lesson.ID)
		if err != nil {
			return err
		}
		if busy {
			return utils.Conflict("The teacher already has a lesson at the requested time")
		}
		return tx.Model(lesson).Updates(map[string]interface{}{
			"scheduled_time":      newStart,
			"reschedule_count":    lesson.RescheduleCount + 1,
			"confirmation_status": models.ConfirmationPending,
		}).Error
	})
	if err != nil {
		return nil, err
	}

	lesson.ScheduledTime = newStart
	lesson.RescheduleCount++
	lesson.ConfirmationStatus = models.ConfirmationPending
	if s.Notify != nil {
		s.Notify("lesson_rescheduled", []models.Lesson{*lesson})
	}
	return lesson, nil
}

// ConfirmByTeacher records the teacher's acknowledgement of a booked or
// rescheduled lesson.
func (s *LifecycleService) ConfirmByTeacher(lessonID, teacherUserID uuid.UUID) (*models.Lesson, error) {
	lesson, err := loadLesson(lessonID)
	if err != nil {
		return nil, err
	}
	if lesson.TeacherID != teacherUserID {
		return nil, utils.Forbidden("You can only confirm your own lessons")
	}
	if lesson.IsTerminal() {
		return nil, utils.Conflict("Lesson is already cancelled or completed")
	}

	updates := map[string]interface{}{"confirmation_status": models.ConfirmationConfirmed}
	if lesson.Status == models.LessonStatusBooked || lesson.Status == models.LessonStatusScheduled {
		updates["status"] = models.LessonStatusConfirmed
	}
	if err := database.DB.Model(lesson).Updates(updates).Error; err != nil {
		return nil, err
	}
	lesson.ConfirmationStatus = models.ConfirmationConfirmed
	return lesson, nil
}

// Complete marks a finished lesson as completed, records optional feedback
// and pays the teacher's share into their profile balance.
func (s *LifecycleService) Complete(lessonID, teacherUserID uuid.UUID, feedback *string) (*models.Lesson, error) {
	lesson, err := loadLesson(lessonID)
	if err != nil {
		return nil, err
	}
	if lesson.TeacherID != teacherUserID {
		return nil, utils.Forbidden("You can only complete your own lessons")
	}
	if lesson.IsTerminal() {
		return nil, utils.Conflict("Lesson is already cancelled or completed")
	}
	if s.Now().Before(lesson.EndTime()) {
		return nil, utils.Conflict("Lesson cannot be completed before it ends")
	}

	earning := TeacherEarning(lesson.Price)

	err = database.DB.Transaction(func(tx *gorm.DB) error {
		updates := map[string]interface{}{"status": models.LessonStatusCompleted}
		if feedback != nil {
			updates["teacher_feedback"] = *feedback
		}
		if err := tx.Model(lesson).Updates(updates).Error; err != nil {
			return err
		}
		return tx.Model(&models.TeacherProfile{}).
			Where("user_id = ?", lesson.TeacherID).
			Update("current_balance", gorm.Expr("current_balance + ?", earning)).Error
	})
	if err != nil {
		return nil, err
	}

	lesson.Status = models.LessonStatusCompleted
	s.teardownRoom(lesson)
	return lesson, nil
}

// TeacherEarning is the teacher's share of a lesson price after the platform
// commission.
func TeacherEarning(price float64) float64 {
	rate, err := strconv.ParseFloat(config.ConfigOr("PLATFORM_COMMISSION_RATE", "0.20"), 64)
	if err != nil || rate < 0 || rate >= 1 {
		rate = 0.20
	}
	return price * (1 - rate)
}

func (s *LifecycleService) teardownRoom(lesson *models.Lesson) {
	if s.Rooms == nil || lesson.RoomID == nil {
		return
	}
	if err := s.Rooms.EndRoom(*lesson.RoomID); err != nil {
		log.Printf("Failed to end room %s for lesson %s: %v", *lesson.RoomID, lesson.ID, err)
	}
}

func loadLesson(id uuid.UUID) (*models.Lesson, error) {
	var lesson models.Lesson
	err := database.DB.Preload("Teacher").Preload("Learner.User").Preload("Subject").
		First(&lesson, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.NotFound("Lesson not found")
		}
		return nil, err
	}
	return &lesson, nil
}
