package models

import (
	"time"

	"github.com/google/uuid"
)

// CreditLedgerEntry is one signed movement on a user's prepaid credit
// balance. The balance is always SUM(amount); it is never stored.
type CreditLedgerEntry struct {
	ID       uuid.UUID  `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	UserID   uuid.UUID  `gorm:"not null;index" json:"user_id"`
	Amount   float64    `gorm:"type:numeric(10,2);not null" json:"amount"`
	Reason   string     `gorm:"size:255;not null" json:"reason"`
	LessonID *uuid.UUID `gorm:"index" json:"lesson_id"`

	CreatedAt time.Time `json:"created_at"`
}
