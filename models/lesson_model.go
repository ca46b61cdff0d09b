package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	LessonStatusBooked             = "booked"
	LessonStatusScheduled          = "scheduled"
	LessonStatusConfirmed          = "confirmed"
	LessonStatusCompleted          = "completed"
	LessonStatusCancelledByStudent = "cancelled_by_student"
	LessonStatusCancelledByTeacher = "cancelled_by_teacher"
)

const (
	PaymentStatusPending    = "pending"
	PaymentStatusProcessing = "processing"
	PaymentStatusCompleted  = "completed"
	PaymentStatusFailed     = "failed"
	PaymentStatusRefunded   = "refunded"
	PaymentStatusCancelled  = "cancelled"
)

const (
	PaymentMethodExternal = "external_processor"
	PaymentMethodCredits  = "credits"
	PaymentMethodPromo    = "promo_code"
)

const (
	ConfirmationPending   = "pending"
	ConfirmationConfirmed = "confirmed"
)

type Lesson struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	TeacherID uuid.UUID `gorm:"not null;index" json:"teacher_id"`
	LearnerID uuid.UUID `gorm:"not null;index" json:"learner_id"`
	SubjectID uuid.UUID `gorm:"not null" json:"subject_id"`

	ScheduledTime   time.Time `gorm:"not null;index" json:"scheduled_time"` // UTC
	DurationMinutes int       `gorm:"not null" json:"duration_minutes"`     // 30 or 60

	Status             string  `gorm:"size:30;not null;default:'booked'" json:"status"`
	PaymentStatus      string  `gorm:"size:20;not null;default:'pending'" json:"payment_status"`
	PaymentMethod      string  `gorm:"size:30" json:"payment_method"`
	Price              float64 `gorm:"type:numeric(10,2);not null" json:"price"`
	RescheduleCount    int     `gorm:"not null;default:0" json:"reschedule_count"`
	ConfirmationStatus string  `gorm:"size:20;not null;default:'pending'" json:"confirmation_status"`

	RoomID        *string `gorm:"size:255" json:"room_id"`
	HostRoomCode  *string `gorm:"size:100" json:"host_room_code"`
	GuestRoomCode *string `gorm:"size:100" json:"guest_room_code"`

	TeacherFeedback *string `gorm:"type:text" json:"teacher_feedback"`

	Teacher User    `gorm:"foreignkey:TeacherID" json:"teacher,omitempty"`
	Learner Learner `gorm:"foreignkey:LearnerID" json:"learner,omitempty"`
	Subject Subject `gorm:"foreignkey:SubjectID" json:"subject,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (l *Lesson) EndTime() time.Time {
	return l.ScheduledTime.Add(time.Duration(l.DurationMinutes) * time.Minute)
}

func (l *Lesson) IsCancelled() bool {
	return l.Status == LessonStatusCancelledByStudent || l.Status == LessonStatusCancelledByTeacher
}

func (l *Lesson) IsTerminal() bool {
	return l.Status == LessonStatusCompleted || l.IsCancelled()
}

// CreditCost is the lesson's cost in prepaid credits: 1 credit per hour.
func (l *Lesson) CreditCost() float64 {
	return float64(l.DurationMinutes) / 60.0
}
