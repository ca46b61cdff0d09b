package services

import (
	"testing"

	"github.com/brightlearn/tutor_backend/models"
)

func TestLessonPrice(t *testing.T) {
	tests := []struct {
		name     string
		rate     float64
		duration int
		want     float64
	}{
		{"full hour", 40.0, 60, 40.0},
		{"half hour", 40.0, 30, 20.0},
		{"odd rate half hour", 35.0, 30, 17.5},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := LessonPrice(tc.rate, tc.duration); got != tc.want {
				t.Fatalf("LessonPrice(%v, %d) = %v, want %v", tc.rate, tc.duration, got, tc.want)
			}
		})
	}
}

func TestApplyPromo(t *testing.T) {
	tests := []struct {
		name     string
		subtotal float64
		promo    *models.PromoCode
		want     float64
	}{
		{
			name:     "no promo",
			subtotal: 40,
			promo:    nil,
			want:     40,
		},
		{
			name:     "percentage",
			subtotal: 40,
			promo:    &models.PromoCode{DiscountType: models.PromoDiscountPercentage, DiscountValue: 25},
			want:     30,
		},
		{
			name:     "fixed",
			subtotal: 40,
			promo:    &models.PromoCode{DiscountType: models.PromoDiscountFixed, DiscountValue: 15},
			want:     25,
		},
		{
			name:     "fixed larger than subtotal floors at minimum charge",
			subtotal: 10,
			promo:    &models.PromoCode{DiscountType: models.PromoDiscountFixed, DiscountValue: 50},
			want:     MinCharge,
		},
		{
			name:     "hundred percent floors at minimum charge",
			subtotal: 40,
			promo:    &models.PromoCode{DiscountType: models.PromoDiscountPercentage, DiscountValue: 100},
			want:     MinCharge,
		},
		{
			name:     "free lesson waives entirely",
			subtotal: 40,
			promo:    &models.PromoCode{DiscountType: models.PromoDiscountFreeLesson},
			want:     0,
		},
		{
			name:     "unknown type leaves subtotal untouched",
			subtotal: 40,
			promo:    &models.PromoCode{DiscountType: "mystery", DiscountValue: 99},
			want:     40,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := ApplyPromo(tc.subtotal, tc.promo); got != tc.want {
				t.Fatalf("ApplyPromo(%v) = %v, want %v", tc.subtotal, got, tc.want)
			}
		})
	}
}
