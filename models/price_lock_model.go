package models

import (
	"time"

	"github.com/google/uuid"
)

// PriceLock grandfathers a student into a historical hourly rate with a
// specific teacher. When present it overrides the teacher's current rate.
type PriceLock struct {
	ID         uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	StudentID  uuid.UUID `gorm:"not null;index:idx_price_lock_pair,unique" json:"student_id"`
	TeacherID  uuid.UUID `gorm:"not null;index:idx_price_lock_pair,unique" json:"teacher_id"`
	HourlyRate float64   `gorm:"type:numeric(10,2);not null" json:"hourly_rate"`

	CreatedAt time.Time `json:"created_at"`
}
