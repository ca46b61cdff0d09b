package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	PendingBookingPending   = "pending"
	PendingBookingCompleted = "completed"
	PendingBookingExpired   = "expired"
)

// PendingBooking stages an external-payment booking between checkout-session
// creation and the processor's confirmation webhook. It is superseded by
// Lesson rows once payment completes and simply expires otherwise.
type PendingBooking struct {
	ID     uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	UserID uuid.UUID `gorm:"not null;index" json:"user_id"`

	Slots        string  `gorm:"type:jsonb;not null" json:"-"` // marshalled slot descriptors
	TotalAmount  float64 `gorm:"type:numeric(10,2);not null" json:"total_amount"`
	TotalCredits float64 `gorm:"type:numeric(10,2);not null" json:"total_credits"`
	PromoCode    *string `gorm:"size:50" json:"promo_code"`

	CheckoutSessionID *string `gorm:"size:255;unique" json:"-"`
	Status            string  `gorm:"size:20;not null;default:'pending'" json:"status"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
