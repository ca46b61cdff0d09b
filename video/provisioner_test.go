package video

import (
	"errors"
	"testing"
	"time"

	"github.com/brightlearn/tutor_backend/models"
	"github.com/google/uuid"
)

type fakeRoomAPI struct {
	roomID        string
	createCalls   int
	codeCalls     int
	failCodesFor  int // number of code calls that fail before succeeding
	codes         []RoomCode
	createRoomErr error
}

func (f *fakeRoomAPI) CreateRoom(name string) (string, error) {
	f.createCalls++
	if f.createRoomErr != nil {
		return "", f.createRoomErr
	}
	return f.roomID, nil
}

func (f *fakeRoomAPI) CreateRoomCodes(roomID string) ([]RoomCode, error) {
	f.codeCalls++
	if f.codeCalls <= f.failCodesFor {
		return nil, errors.New("room not ready")
	}
	return f.codes, nil
}

func (f *fakeRoomAPI) EndRoom(roomID string) error { return nil }

func newTestLesson() *models.Lesson {
	return &models.Lesson{ID: uuid.New(), DurationMinutes: 60}
}

func TestProvisionAssignsRoomAndCodes(t *testing.T) {
	api := &fakeRoomAPI{
		roomID: "room-123",
		codes: []RoomCode{
			{Role: "host", Code: "HOST-CODE"},
			{Role: "guest", Code: "GUEST-CODE"},
		},
	}
	p := NewProvisioner(api, ZeroDelayPolicy())

	lesson := newTestLesson()
	if err := p.Provision(lesson); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if lesson.RoomID == nil || *lesson.RoomID != "room-123" {
		t.Fatalf("expected room id room-123, got %v", lesson.RoomID)
	}
	if *lesson.HostRoomCode != "HOST-CODE" || *lesson.GuestRoomCode != "GUEST-CODE" {
		t.Fatalf("unexpected codes: host=%v guest=%v", *lesson.HostRoomCode, *lesson.GuestRoomCode)
	}
}

func TestProvisionIsIdempotent(t *testing.T) {
	api := &fakeRoomAPI{
		roomID: "room-456",
		codes:  []RoomCode{{Role: "host", Code: "H"}, {Role: "guest", Code: "G"}},
	}
	p := NewProvisioner(api, ZeroDelayPolicy())

	lesson := newTestLesson()
	if err := p.Provision(lesson); err != nil {
		t.Fatalf("first call: %v", err)
	}
	if err := p.Provision(lesson); err != nil {
		t.Fatalf("second call: %v", err)
	}
	if api.createCalls != 1 {
		t.Fatalf("expected exactly one CreateRoom call, got %d", api.createCalls)
	}
	if *lesson.RoomID != "room-456" {
		t.Fatalf("room id changed on second call: %s", *lesson.RoomID)
	}
}

func TestProvisionRetriesUntilRoomReady(t *testing.T) {
	api := &fakeRoomAPI{
		roomID:       "room-789",
		failCodesFor: 2,
		codes:        []RoomCode{{Role: "host", Code: "H"}, {Role: "guest", Code: "G"}},
	}
	var slept []time.Duration
	p := NewProvisioner(api, RetryPolicy{MaxAttempts: 3, SettleDelay: time.Second, Backoff: time.Second})
	p.Sleep = func(d time.Duration) { slept = append(slept, d) }

	lesson := newTestLesson()
	if err := p.Provision(lesson); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if api.codeCalls != 3 {
		t.Fatalf("expected 3 code attempts, got %d", api.codeCalls)
	}
	// settle delay plus two backoffs
	if len(slept) != 3 {
		t.Fatalf("expected 3 sleeps, got %d", len(slept))
	}
}

func TestProvisionExhaustionLeavesLessonRoomless(t *testing.T) {
	api := &fakeRoomAPI{
		roomID:       "room-000",
		failCodesFor: 10,
	}
	p := NewProvisioner(api, ZeroDelayPolicy())

	lesson := newTestLesson()
	err := p.Provision(lesson)
	if !errors.Is(err, ErrRoomPending) {
		t.Fatalf("expected ErrRoomPending, got %v", err)
	}
	if lesson.RoomID != nil {
		t.Fatalf("lesson should be left without a room, got %v", *lesson.RoomID)
	}
	if api.codeCalls != 3 {
		t.Fatalf("expected retries bounded at 3, got %d", api.codeCalls)
	}
}

func TestAssignRolesPositionalFallback(t *testing.T) {
	host, guest := assignRoles([]RoomCode{
		{Role: "speaker-1", Code: "AAA"},
		{Role: "speaker-2", Code: "BBB"},
	})
	if host != "AAA" || guest != "BBB" {
		t.Fatalf("expected positional fallback AAA/BBB, got %s/%s", host, guest)
	}
}

func TestAssignRolesKnownNamesWin(t *testing.T) {
	host, guest := assignRoles([]RoomCode{
		{Role: "guest", Code: "G-1"},
		{Role: "host", Code: "H-1"},
	})
	if host != "H-1" || guest != "G-1" {
		t.Fatalf("expected role-name mapping H-1/G-1, got %s/%s", host, guest)
	}
}
