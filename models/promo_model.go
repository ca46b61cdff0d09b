package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	PromoDiscountPercentage = "percentage"
	PromoDiscountFixed      = "fixed"
	PromoDiscountFreeLesson = "free_lesson"
)

type PromoCode struct {
	ID             uuid.UUID  `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	Code           string     `gorm:"size:50;not null;unique" json:"code"`
	DiscountType   string     `gorm:"size:20;not null" json:"discount_type"`
	DiscountValue  float64    `gorm:"type:numeric(10,2);not null" json:"discount_value"`
	MaxUses        int        `gorm:"not null;default:0" json:"max_uses"` // 0 = unlimited
	UsedCount      int        `gorm:"not null;default:0" json:"used_count"`
	MaxUsesPerUser int        `gorm:"not null;default:1" json:"max_uses_per_user"`
	ValidFrom      time.Time  `gorm:"not null" json:"valid_from"`
	ValidUntil     *time.Time `json:"valid_until"`
	IsActive       bool       `gorm:"default:true" json:"is_active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PromoRedemption records one committed use of a code by a user. Rows are
// written only when a booking commits, never at quote time.
type PromoRedemption struct {
	ID          uuid.UUID  `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	PromoCodeID uuid.UUID  `gorm:"not null;index" json:"promo_code_id"`
	UserID      uuid.UUID  `gorm:"not null;index" json:"user_id"`
	LessonID    *uuid.UUID `json:"lesson_id"`

	CreatedAt time.Time `json:"created_at"`
}
