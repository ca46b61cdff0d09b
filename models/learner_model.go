package models

import (
	"time"

	"github.com/google/uuid"
)

// Learner is the booking-side profile of a user. A parent account and the
// child actually taking lessons can differ, so lessons reference a Learner
// rather than the User directly.
type Learner struct {
	ID       uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	UserID   uuid.UUID `gorm:"not null;unique" json:"user_id"`
	FullName string    `gorm:"size:255;not null" json:"full_name"`
	Level    *string   `gorm:"size:100" json:"level"`

	User User `gorm:"foreignkey:UserID" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
