package jobs

import (
	"log"
	"time"

	"github.com/brightlearn/tutor_backend/database"
	"github.com/brightlearn/tutor_backend/models"
	"github.com/brightlearn/tutor_backend/video"
)

// Rooms is wired from cmd/api at startup.
var Rooms *video.Provisioner

// RetryRoomProvisioning picks up paid lessons that are still roomless, where
// provisioning failed at booking time, and tries again before the lesson
// starts.
func RetryRoomProvisioning() {
	if Rooms == nil {
		return
	}
	log.Println("Running job: RetryRoomProvisioning...")

	var roomless []models.Lesson
	err := database.DB.
		Where("room_id IS NULL AND payment_status = ? AND status = ? AND scheduled_time > ?",
			models.PaymentStatusCompleted, models.LessonStatusBooked, time.Now().UTC()).
		Limit(20).
		Find(&roomless).Error
	if err != nil {
		log.Printf("Error loading roomless lessons: %v", err)
		return
	}

	for i := range roomless {
		lesson := &roomless[i]
		if err := Rooms.Provision(lesson); err != nil {
			log.Printf("Room provisioning still pending for lesson %s: %v", lesson.ID, err)
			continue
		}
		lesson.Status = models.LessonStatusScheduled
		if err := database.DB.Save(lesson).Error; err != nil {
			log.Printf("🔥 Failed to persist room details for lesson %s: %v", lesson.ID, err)
			continue
		}
		log.Printf("✅ Provisioned room for lesson %s on retry", lesson.ID)
	}
}
