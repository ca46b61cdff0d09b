package jobs

import (
	"fmt"
	"log"
	"time"

	"github.com/brightlearn/tutor_backend/database"
	"github.com/brightlearn/tutor_backend/models"
	"github.com/brightlearn/tutor_backend/notifications"
	"github.com/brightlearn/tutor_backend/websocket"
)

// SendLessonReminders emails both sides of every lesson starting in roughly
// one hour. The 5-minute window matches the cron cadence so each lesson is
// picked up exactly once.
func SendLessonReminders() {
	log.Println("Running job: SendLessonReminders...")

	now := time.Now().UTC()
	lowerBound := now.Add(60 * time.Minute)
	upperBound := now.Add(65 * time.Minute)

	var upcoming []models.Lesson
	err := database.DB.
		Preload("Teacher").
		Preload("Learner.User").
		Preload("Subject").
		Where("status NOT IN ? AND scheduled_time BETWEEN ? AND ?",
			[]string{models.LessonStatusCompleted, models.LessonStatusCancelledByStudent, models.LessonStatusCancelledByTeacher},
			lowerBound, upperBound).
		Find(&upcoming).Error
	if err != nil {
		log.Printf("Error checking for upcoming lessons: %v", err)
		return
	}

	for _, lesson := range upcoming {
		log.Printf("Sending reminder for lesson ID: %s", lesson.ID)

		when := lesson.ScheduledTime.Format(time.Kitchen)
		emailSubject := "Reminder: Your Lesson Starts in 1 Hour!"

		studentBody := fmt.Sprintf(
			"<h1>Lesson Reminder</h1><p>Your %s lesson starts in one hour at %s.</p>",
			lesson.Subject.Name, when)
		if lesson.GuestRoomCode != nil {
			studentBody += fmt.Sprintf("<p><b>Your join code:</b> %s</p>", *lesson.GuestRoomCode)
		}
		go notifications.SendEmail(lesson.Learner.User.FullName, lesson.Learner.User.Email, emailSubject, studentBody)

		teacherBody := fmt.Sprintf(
			"<h1>Lesson Reminder</h1><p>Your %s lesson starts in one hour at %s.</p>",
			lesson.Subject.Name, when)
		if lesson.HostRoomCode != nil {
			teacherBody += fmt.Sprintf("<p><b>Your join code:</b> %s</p>", *lesson.HostRoomCode)
		}
		go notifications.SendEmail(lesson.Teacher.FullName, lesson.Teacher.Email, emailSubject, teacherBody)

		websocket.NotifyUser(lesson.TeacherID, websocket.Event{Type: "lesson_reminder", Payload: lesson})
		websocket.NotifyUser(lesson.Learner.UserID, websocket.Event{Type: "lesson_reminder", Payload: lesson})
	}
}
