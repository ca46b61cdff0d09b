package jobs

import (
	"log"
	"time"

	"github.com/brightlearn/tutor_backend/database"
	"github.com/brightlearn/tutor_backend/models"
)

// pendingBookingTTL is how long an unpaid checkout may sit before its staged
// booking is written off.
const pendingBookingTTL = 24 * time.Hour

// ExpireAbandonedBookings marks stale pending bookings as expired. No refund
// is involved: nothing was charged and no lesson was ever created, the slots
// simply become bookable by others again. A late webhook for an expired
// booking is a no-op.
func ExpireAbandonedBookings() {
	log.Println("Running job: ExpireAbandonedBookings...")

	cutoff := time.Now().Add(-pendingBookingTTL)
	result := database.DB.Model(&models.PendingBooking{}).
		Where("status = ? AND created_at < ?", models.PendingBookingPending, cutoff).
		Update("status", models.PendingBookingExpired)
	if result.Error != nil {
		log.Printf("Error expiring abandoned bookings: %v", result.Error)
		return
	}
	if result.RowsAffected > 0 {
		log.Printf("Expired %d abandoned pending booking(s)", result.RowsAffected)
	}
}
