package services

import (
	"fmt"
	"sort"
	"time"

	"github.com/brightlearn/tutor_backend/database"
	"github.com/brightlearn/tutor_backend/models"
	"github.com/google/uuid"
)

// MinLeadTime is how far in the future a slot must start: lessons need room
// provisioning and teacher notice.
const MinLeadTime = 2 * time.Hour

// LessonDurations are the supported lesson lengths in minutes.
var LessonDurations = []int{30, 60}

type SlotQuery struct {
	From      time.Time
	To        time.Time
	TeacherID *uuid.UUID
	SubjectID *uuid.UUID
	Duration  *int
}

// Slot is one concrete bookable (teacher, date, time, duration, subject)
// opportunity.
type Slot struct {
	TeacherID       uuid.UUID `json:"teacher_id"`
	SubjectID       uuid.UUID `json:"subject_id"`
	Date            string    `json:"date"`
	Time            string    `json:"time"`
	Start           time.Time `json:"start"`
	DurationMinutes int       `json:"duration_minutes"`
	Price           float64   `json:"price"`
}

type window struct {
	teacherID  uuid.UUID
	start, end time.Time
	subjectIDs []uuid.UUID
}

func parseClock(s string) (hour, minute int, err error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid time %q: %v", s, err)
	}
	return t.Hour(), t.Minute(), nil
}

func clockOn(date time.Time, clock string) (time.Time, error) {
	h, m, err := parseClock(clock)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(date.Year(), date.Month(), date.Day(), h, m, 0, 0, time.UTC), nil
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// effectiveWindows resolves a teacher's availability for one calendar date.
// Any active override for that exact date fully replaces the weekday rules.
func effectiveWindows(date time.Time, rules []models.AvailabilityRule, overrides []models.AvailabilityOverride, teacherID uuid.UUID) []window {
	var windows []window

	overridden := false
	for _, o := range overrides {
		if o.TeacherID != teacherID || !o.IsActive || !dateOnly(o.Date).Equal(date) {
			continue
		}
		overridden = true
		if o.StartTime == "" || o.EndTime == "" {
			continue // a blank override blocks the whole day
		}
		start, err1 := clockOn(date, o.StartTime)
		end, err2 := clockOn(date, o.EndTime)
		if err1 != nil || err2 != nil || !start.Before(end) {
			continue
		}
		windows = append(windows, window{teacherID: teacherID, start: start, end: end, subjectIDs: subjectIDs(o.Subjects)})
	}
	if overridden {
		return windows
	}

	for _, r := range rules {
		if r.TeacherID != teacherID || !r.IsActive || r.Weekday != int(date.Weekday()) {
			continue
		}
		start, err1 := clockOn(date, r.StartTime)
		end, err2 := clockOn(date, r.EndTime)
		if err1 != nil || err2 != nil || !start.Before(end) {
			continue
		}
		windows = append(windows, window{teacherID: teacherID, start: start, end: end, subjectIDs: subjectIDs(r.Subjects)})
	}
	return windows
}

func subjectIDs(subjects []*models.Subject) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(subjects))
	for _, s := range subjects {
		if s != nil && s.IsActive {
			ids = append(ids, s.ID)
		}
	}
	return ids
}

// overlapsLesson reports whether [start, start+duration) intersects an
// existing non-cancelled lesson of the same teacher.
func overlapsLesson(teacherID uuid.UUID, start time.Time, durationMinutes int, lessons []models.Lesson) bool {
	end := start.Add(time.Duration(durationMinutes) * time.Minute)
	for i := range lessons {
		l := &lessons[i]
		if l.TeacherID != teacherID || l.IsCancelled() {
			continue
		}
		if start.Before(l.EndTime()) && l.ScheduledTime.Before(end) {
			return true
		}
	}
	return false
}

// ResolveSlots turns availability records and the existing lesson set into
// the ordered list of bookable slots for the query range. It is a pure
// function of its inputs, "now" included, and has no side effects.
func ResolveSlots(rules []models.AvailabilityRule, overrides []models.AvailabilityOverride, lessons []models.Lesson, rates map[uuid.UUID]float64, q SlotQuery, now time.Time) []Slot {
	teacherSet := map[uuid.UUID]bool{}
	for _, r := range rules {
		teacherSet[r.TeacherID] = true
	}
	for _, o := range overrides {
		teacherSet[o.TeacherID] = true
	}

	durations := LessonDurations
	if q.Duration != nil {
		durations = []int{*q.Duration}
	}

	earliest := now.Add(MinLeadTime)
	slots := []Slot{}

	for date := dateOnly(q.From); !date.After(dateOnly(q.To)); date = date.AddDate(0, 0, 1) {
		for teacherID := range teacherSet {
			if q.TeacherID != nil && *q.TeacherID != teacherID {
				continue
			}
			rate, ok := rates[teacherID]
			if !ok {
				continue
			}
			for _, w := range effectiveWindows(date, rules, overrides, teacherID) {
				for _, duration := range durations {
					step := time.Duration(duration) * time.Minute
					for start := w.start; !start.Add(step).After(w.end); start = start.Add(step) {
						if start.Before(earliest) {
							continue
						}
						if overlapsLesson(teacherID, start, duration, lessons) {
							continue
						}
						for _, subjectID := range w.subjectIDs {
							if q.SubjectID != nil && *q.SubjectID != subjectID {
								continue
							}
							slots = append(slots, Slot{
								TeacherID:       teacherID,
								SubjectID:       subjectID,
								Date:            start.Format("2006-01-02"),
								Time:            start.Format("15:04"),
								Start:           start,
								DurationMinutes: duration,
								Price:           rate * float64(duration) / 60.0,
							})
						}
					}
				}
			}
		}
	}

	sort.Slice(slots, func(i, j int) bool {
		if !slots[i].Start.Equal(slots[j].Start) {
			return slots[i].Start.Before(slots[j].Start)
		}
		if slots[i].DurationMinutes != slots[j].DurationMinutes {
			return slots[i].DurationMinutes < slots[j].DurationMinutes
		}
		if slots[i].TeacherID != slots[j].TeacherID {
			return slots[i].TeacherID.String() < slots[j].TeacherID.String()
		}
		return slots[i].SubjectID.String() < slots[j].SubjectID.String()
	})

	return slots
}

// FetchSlots loads availability, conflicts and rates from the database and
// resolves them. The returned list is advisory: the orchestrator re-checks
// conflicts under lock before committing.
func FetchSlots(q SlotQuery, now time.Time) ([]Slot, error) {
	var profiles []models.TeacherProfile
	profileQuery := database.DB.Where("status = ?", "active")
	if q.TeacherID != nil {
		profileQuery = profileQuery.Where("user_id = ?", *q.TeacherID)
	}
	if err := profileQuery.Find(&profiles).Error; err != nil {
		return nil, err
	}

	rates := make(map[uuid.UUID]float64, len(profiles))
	teacherIDs := make([]uuid.UUID, 0, len(profiles))
	for _, p := range profiles {
		rates[p.UserID] = p.HourlyRate
		teacherIDs = append(teacherIDs, p.UserID)
	}
	if len(teacherIDs) == 0 {
		return []Slot{}, nil
	}

	var rules []models.AvailabilityRule
	if err := database.DB.Preload("Subjects").
		Where("teacher_id IN ? AND is_active = ?", teacherIDs, true).
		Find(&rules).Error; err != nil {
		return nil, err
	}

	var overrides []models.AvailabilityOverride
	if err := database.DB.Preload("Subjects").
		Where("teacher_id IN ? AND date BETWEEN ? AND ?", teacherIDs, dateOnly(q.From), dateOnly(q.To)).
		Find(&overrides).Error; err != nil {
		return nil, err
	}

	// The lower bound reaches one hour before the range so a lesson that
	// started the previous day but overlaps into it still blocks slots.
	var lessons []models.Lesson
	if err := database.DB.
		Where("teacher_id IN ? AND status NOT IN ? AND scheduled_time BETWEEN ? AND ?",
			teacherIDs,
			[]string{models.LessonStatusCancelledByStudent, models.LessonStatusCancelledByTeacher},
			dateOnly(q.From).Add(-time.Hour), dateOnly(q.To).AddDate(0, 0, 1)).
		Find(&lessons).Error; err != nil {
		return nil, err
	}

	return ResolveSlots(rules, overrides, lessons, rates, q, now), nil
}
