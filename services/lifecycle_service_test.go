package services

import (
	"testing"
	"time"

	"github.com/brightlearn/tutor_backend/models"
	"github.com/google/uuid"
)

func upcomingLesson(start time.Time, duration int) models.Lesson {
	return models.Lesson{
		ID:              uuid.New(),
		TeacherID:       testTeacher,
		SubjectID:       testSubject,
		ScheduledTime:   start,
		DurationMinutes: duration,
		Status:          models.LessonStatusScheduled,
	}
}

func TestCanCancel(t *testing.T) {
	farAway := fixedNow.Add(48 * time.Hour)
	soon := fixedNow.Add(time.Hour)

	tests := []struct {
		name    string
		lesson  models.Lesson
		wantErr bool
	}{
		{"upcoming lesson", upcomingLesson(farAway, 60), false},
		{"inside lead window", upcomingLesson(soon, 60), true},
		{"already cancelled", func() models.Lesson {
			l := upcomingLesson(farAway, 60)
			l.Status = models.LessonStatusCancelledByStudent
			return l
		}(), true},
		{"already completed", func() models.Lesson {
			l := upcomingLesson(farAway, 60)
			l.Status = models.LessonStatusCompleted
			return l
		}(), true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := CanCancel(&tc.lesson, fixedNow)
			if (err != nil) != tc.wantErr {
				t.Fatalf("CanCancel err = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}

func TestCanReschedule(t *testing.T) {
	farAway := fixedNow.Add(48 * time.Hour)
	newStart := fixedNow.Add(72 * time.Hour)

	ok := upcomingLesson(farAway, 60)
	if err := CanReschedule(&ok, newStart, fixedNow); err != nil {
		t.Fatalf("fresh lesson should be reschedulable: %v", err)
	}

	moved := upcomingLesson(farAway, 60)
	moved.RescheduleCount = 1
	if err := CanReschedule(&moved, newStart, fixedNow); err == nil {
		t.Fatal("a lesson may only be rescheduled once")
	}

	cancelled := upcomingLesson(farAway, 60)
	cancelled.Status = models.LessonStatusCancelledByTeacher
	if err := CanReschedule(&cancelled, newStart, fixedNow); err == nil {
		t.Fatal("cancelled lessons cannot be rescheduled")
	}

	tooSoon := upcomingLesson(farAway, 60)
	if err := CanReschedule(&tooSoon, fixedNow.Add(30*time.Minute), fixedNow); err == nil {
		t.Fatal("new start must respect the lead time")
	}
}

func TestWindowCovers(t *testing.T) {
	day := time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)
	windows := []window{{
		teacherID:  testTeacher,
		start:      day.Add(9 * time.Hour),
		end:        day.Add(11 * time.Hour),
		subjectIDs: []uuid.UUID{testSubject},
	}}

	inside := day.Add(9 * time.Hour)
	if !windowCovers(windows, inside, inside.Add(time.Hour), testSubject) {
		t.Fatal("a slot fully inside the window should be covered")
	}
	if windowCovers(windows, day.Add(10*time.Hour+30*time.Minute), day.Add(11*time.Hour+30*time.Minute), testSubject) {
		t.Fatal("a slot running past the window end is not covered")
	}
	if windowCovers(windows, inside, inside.Add(time.Hour), uuid.New()) {
		t.Fatal("a subject the window does not offer is not covered")
	}
	if windowCovers(nil, inside, inside.Add(time.Hour), testSubject) {
		t.Fatal("no windows means no coverage")
	}
}

func TestCreditCost(t *testing.T) {
	half := upcomingLesson(fixedNow, 30)
	full := upcomingLesson(fixedNow, 60)
	if got := half.CreditCost(); got != 0.5 {
		t.Fatalf("30-minute lesson costs %v credits, want 0.5", got)
	}
	if got := full.CreditCost(); got != 1.0 {
		t.Fatalf("60-minute lesson costs %v credits, want 1.0", got)
	}
}
