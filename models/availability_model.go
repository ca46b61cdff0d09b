package models

import (
	"time"

	"github.com/google/uuid"
)

// AvailabilityRule is a weekly recurring window during which a teacher
// offers lessons. Times are "15:04" strings in UTC.
type AvailabilityRule struct {
	ID        uuid.UUID  `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	TeacherID uuid.UUID  `gorm:"not null;index" json:"teacher_id"`
	Weekday   int        `gorm:"not null" json:"weekday"` // 0=Sunday .. 6=Saturday
	StartTime string     `gorm:"size:5;not null" json:"start_time"`
	EndTime   string     `gorm:"size:5;not null" json:"end_time"`
	Subjects  []*Subject `gorm:"many2many:availability_rule_subjects;" json:"subjects"`
	IsActive  bool       `gorm:"default:true" json:"is_active"`

	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

// AvailabilityOverride replaces all of a teacher's recurring rules on one
// specific calendar date. An override with no window (empty times) blocks
// the whole day.
type AvailabilityOverride struct {
	ID        uuid.UUID  `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	TeacherID uuid.UUID  `gorm:"not null;index" json:"teacher_id"`
	Date      time.Time  `gorm:"type:date;not null" json:"date"`
	StartTime string     `gorm:"size:5" json:"start_time"`
	EndTime   string     `gorm:"size:5" json:"end_time"`
	Subjects  []*Subject `gorm:"many2many:availability_override_subjects;" json:"subjects"`
	IsActive  bool       `gorm:"default:true" json:"is_active"`

	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}
