package models

import (
	"time"

	"github.com/google/uuid"
)

type Review struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	LessonID  uuid.UUID `gorm:"not null;unique" json:"lesson_id"`
	StudentID uuid.UUID `gorm:"not null" json:"student_id"`
	TeacherID uuid.UUID `gorm:"not null;index" json:"teacher_id"`
	Rating    int       `gorm:"not null" json:"rating"`
	Comment   string    `gorm:"type:text" json:"comment"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
