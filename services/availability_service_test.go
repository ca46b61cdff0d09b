package services

import (
	"testing"
	"time"

	"github.com/brightlearn/tutor_backend/models"
	"github.com/google/uuid"
)

var (
	testTeacher = uuid.MustParse("11111111-1111-1111-1111-111111111111")
	testSubject = uuid.MustParse("22222222-2222-2222-2222-222222222222")
)

// fixedNow is a Thursday; the following Monday is 2026-03-09.
var fixedNow = time.Date(2026, 3, 5, 12, 0, 0, 0, time.UTC)

func mondayRule() models.AvailabilityRule {
	return models.AvailabilityRule{
		ID:        uuid.New(),
		TeacherID: testTeacher,
		Weekday:   1,
		StartTime: "09:00",
		EndTime:   "11:00",
		IsActive:  true,
		Subjects:  []*models.Subject{{ID: testSubject, Name: "Math", IsActive: true}},
	}
}

func mondayQuery(duration int) SlotQuery {
	d := duration
	return SlotQuery{
		From:     time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC),
		To:       time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC),
		Duration: &d,
	}
}

func testRates() map[uuid.UUID]float64 {
	return map[uuid.UUID]float64{testTeacher: 40.0}
}

func TestResolveSlotsTwoHourWindowSixtyMinutes(t *testing.T) {
	slots := ResolveSlots([]models.AvailabilityRule{mondayRule()}, nil, nil, testRates(), mondayQuery(60), fixedNow)

	if len(slots) != 2 {
		t.Fatalf("expected exactly 2 slots, got %d", len(slots))
	}
	if slots[0].Time != "09:00" || slots[1].Time != "10:00" {
		t.Fatalf("expected 09:00 and 10:00, got %s and %s", slots[0].Time, slots[1].Time)
	}
	for _, s := range slots {
		if s.Price != 40.0 {
			t.Fatalf("expected price 40.00 for a 60-minute slot at 40/h, got %.2f", s.Price)
		}
		if s.Date != "2026-03-09" {
			t.Fatalf("unexpected date %s", s.Date)
		}
	}
}

func TestResolveSlotsExcludesConflictingLesson(t *testing.T) {
	lesson := models.Lesson{
		TeacherID:       testTeacher,
		ScheduledTime:   time.Date(2026, 3, 9, 9, 0, 0, 0, time.UTC),
		DurationMinutes: 60,
		Status:          models.LessonStatusConfirmed,
	}

	slots := ResolveSlots([]models.AvailabilityRule{mondayRule()}, nil, []models.Lesson{lesson}, testRates(), mondayQuery(60), fixedNow)

	if len(slots) != 1 {
		t.Fatalf("expected 1 slot with 09:00 occupied, got %d", len(slots))
	}
	if slots[0].Time != "10:00" {
		t.Fatalf("expected remaining slot at 10:00, got %s", slots[0].Time)
	}
}

func TestResolveSlotsLessonSpillingIntoWindowBlocksFirstSlot(t *testing.T) {
	// Starts before the availability window but runs into it.
	lesson := models.Lesson{
		TeacherID:       testTeacher,
		ScheduledTime:   time.Date(2026, 3, 9, 8, 30, 0, 0, time.UTC),
		DurationMinutes: 60,
		Status:          models.LessonStatusConfirmed,
	}

	slots := ResolveSlots([]models.AvailabilityRule{mondayRule()}, nil, []models.Lesson{lesson}, testRates(), mondayQuery(60), fixedNow)

	if len(slots) != 1 {
		t.Fatalf("expected 1 slot with 09:00 partially occupied, got %d", len(slots))
	}
	if slots[0].Time != "10:00" {
		t.Fatalf("expected remaining slot at 10:00, got %s", slots[0].Time)
	}
}

func TestResolveSlotsIgnoresCancelledLesson(t *testing.T) {
	lesson := models.Lesson{
		TeacherID:       testTeacher,
		ScheduledTime:   time.Date(2026, 3, 9, 9, 0, 0, 0, time.UTC),
		DurationMinutes: 60,
		Status:          models.LessonStatusCancelledByStudent,
	}

	slots := ResolveSlots([]models.AvailabilityRule{mondayRule()}, nil, []models.Lesson{lesson}, testRates(), mondayQuery(60), fixedNow)

	if len(slots) != 2 {
		t.Fatalf("cancelled lessons must not block slots; expected 2, got %d", len(slots))
	}
}

func TestResolveSlotsThirtyMinuteWalk(t *testing.T) {
	slots := ResolveSlots([]models.AvailabilityRule{mondayRule()}, nil, nil, testRates(), mondayQuery(30), fixedNow)

	if len(slots) != 4 {
		t.Fatalf("expected 4 thirty-minute slots in a two-hour window, got %d", len(slots))
	}
	if slots[0].Time != "09:00" || slots[3].Time != "10:30" {
		t.Fatalf("unexpected walk: first=%s last=%s", slots[0].Time, slots[3].Time)
	}
	if slots[0].Price != 20.0 {
		t.Fatalf("expected half-rate price 20.00, got %.2f", slots[0].Price)
	}
}

func TestResolveSlotsLeadTimeCutoff(t *testing.T) {
	// "now" is Monday 08:30; the 09:00 and 10:00 starts are inside the
	// two-hour minimum lead time, 10:30 onward would not fit the window.
	now := time.Date(2026, 3, 9, 8, 30, 0, 0, time.UTC)

	slots := ResolveSlots([]models.AvailabilityRule{mondayRule()}, nil, nil, testRates(), mondayQuery(60), now)
	if len(slots) != 0 {
		t.Fatalf("expected no slots inside the lead-time cutoff, got %d", len(slots))
	}

	// At 06:59 the 09:00 slot is just outside the cutoff.
	now = time.Date(2026, 3, 9, 6, 59, 0, 0, time.UTC)
	slots = ResolveSlots([]models.AvailabilityRule{mondayRule()}, nil, nil, testRates(), mondayQuery(60), now)
	if len(slots) != 2 {
		t.Fatalf("expected 2 slots before the cutoff bites, got %d", len(slots))
	}
}

func TestResolveSlotsOverrideReplacesRule(t *testing.T) {
	override := models.AvailabilityOverride{
		ID:        uuid.New(),
		TeacherID: testTeacher,
		Date:      time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC),
		StartTime: "14:00",
		EndTime:   "15:00",
		IsActive:  true,
		Subjects:  []*models.Subject{{ID: testSubject, Name: "Math", IsActive: true}},
	}

	slots := ResolveSlots([]models.AvailabilityRule{mondayRule()}, []models.AvailabilityOverride{override}, nil, testRates(), mondayQuery(60), fixedNow)

	if len(slots) != 1 {
		t.Fatalf("override should fully replace the rule; expected 1 slot, got %d", len(slots))
	}
	if slots[0].Time != "14:00" {
		t.Fatalf("expected the override window slot at 14:00, got %s", slots[0].Time)
	}
}

func TestResolveSlotsBlankOverrideBlocksDay(t *testing.T) {
	override := models.AvailabilityOverride{
		ID:        uuid.New(),
		TeacherID: testTeacher,
		Date:      time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC),
		IsActive:  true,
	}

	slots := ResolveSlots([]models.AvailabilityRule{mondayRule()}, []models.AvailabilityOverride{override}, nil, testRates(), mondayQuery(60), fixedNow)
	if len(slots) != 0 {
		t.Fatalf("a blank override must block the day, got %d slots", len(slots))
	}
}

func TestResolveSlotsDeterministicOrdering(t *testing.T) {
	rules := []models.AvailabilityRule{mondayRule()}
	q := SlotQuery{
		From: time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC),
		To:   time.Date(2026, 3, 16, 0, 0, 0, 0, time.UTC),
	}

	first := ResolveSlots(rules, nil, nil, testRates(), q, fixedNow)
	second := ResolveSlots(rules, nil, nil, testRates(), q, fixedNow)

	if len(first) == 0 {
		t.Fatal("expected slots across two Mondays")
	}
	if len(first) != len(second) {
		t.Fatalf("repeated calls disagree on length: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("slot %d differs between calls: %+v vs %+v", i, first[i], second[i])
		}
	}
	for i := 1; i < len(first); i++ {
		if first[i].Start.Before(first[i-1].Start) {
			t.Fatalf("slots out of order at %d: %v after %v", i, first[i].Start, first[i-1].Start)
		}
	}
}

func TestResolveSlotsSubjectFilter(t *testing.T) {
	other := uuid.MustParse("33333333-3333-3333-3333-333333333333")
	rule := mondayRule()
	rule.Subjects = append(rule.Subjects, &models.Subject{ID: other, Name: "Physics", IsActive: true})

	q := mondayQuery(60)
	q.SubjectID = &other

	slots := ResolveSlots([]models.AvailabilityRule{rule}, nil, nil, testRates(), q, fixedNow)
	if len(slots) != 2 {
		t.Fatalf("expected 2 filtered slots, got %d", len(slots))
	}
	for _, s := range slots {
		if s.SubjectID != other {
			t.Fatalf("subject filter leaked %s", s.SubjectID)
		}
	}
}
