package video

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/brightlearn/tutor_backend/models"
)

// ErrRoomPending means provisioning did not finish; the lesson stands and
// the room can be retried later (lazily, or by the retry job).
var ErrRoomPending = errors.New("room provisioning incomplete")

// RetryPolicy bounds the code-creation retry loop. The provider is
// eventually consistent, so a fresh room may briefly reject code creation.
type RetryPolicy struct {
	MaxAttempts int
	SettleDelay time.Duration
	Backoff     time.Duration
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		SettleDelay: 2 * time.Second,
		Backoff:     2 * time.Second,
	}
}

// ZeroDelayPolicy keeps the attempt bound but skips all sleeps.
func ZeroDelayPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 3}
}

type Provisioner struct {
	API   RoomAPI
	Retry RetryPolicy
	Sleep func(time.Duration) // overridable in tests; nil means time.Sleep
}

func NewProvisioner(api RoomAPI, retry RetryPolicy) *Provisioner {
	return &Provisioner{API: api, Retry: retry}
}

func (p *Provisioner) sleep(d time.Duration) {
	if d <= 0 {
		return
	}
	if p.Sleep != nil {
		p.Sleep(d)
		return
	}
	time.Sleep(d)
}

// Provision creates a room and per-role join codes for the lesson and writes
// them onto the passed record. It never provisions twice: a lesson that
// already carries a room id is returned unchanged. The caller persists the
// mutated lesson.
func (p *Provisioner) Provision(lesson *models.Lesson) error {
	if lesson.RoomID != nil && *lesson.RoomID != "" {
		return nil
	}

	roomID, err := p.API.CreateRoom(fmt.Sprintf("lesson-%s", lesson.ID))
	if err != nil {
		return fmt.Errorf("%w: create room: %v", ErrRoomPending, err)
	}

	p.sleep(p.Retry.SettleDelay)

	var codes []RoomCode
	for attempt := 1; attempt <= p.Retry.MaxAttempts; attempt++ {
		codes, err = p.API.CreateRoomCodes(roomID)
		if err == nil && len(codes) > 0 {
			break
		}
		log.Printf("Room %s not ready for codes (attempt %d/%d): %v", roomID, attempt, p.Retry.MaxAttempts, err)
		if attempt < p.Retry.MaxAttempts {
			p.sleep(p.Retry.Backoff)
		}
	}
	if err != nil || len(codes) == 0 {
		return fmt.Errorf("%w: room %s codes unavailable after %d attempts", ErrRoomPending, roomID, p.Retry.MaxAttempts)
	}

	hostCode, guestCode := assignRoles(codes)
	lesson.RoomID = &roomID
	lesson.HostRoomCode = &hostCode
	lesson.GuestRoomCode = &guestCode
	return nil
}

// assignRoles maps provider roles onto the two application roles. Known role
// names win; unrecognized responses fall back to positional assignment.
func assignRoles(codes []RoomCode) (host, guest string) {
	for _, rc := range codes {
		switch strings.ToLower(rc.Role) {
		case "host", "teacher", "moderator":
			if host == "" {
				host = rc.Code
			}
		case "guest", "student", "participant":
			if guest == "" {
				guest = rc.Code
			}
		}
	}

	if host == "" {
		host = codes[0].Code
	}
	if guest == "" {
		if len(codes) > 1 && codes[1].Code != host {
			guest = codes[1].Code
		} else {
			guest = codes[0].Code
		}
	}
	return host, guest
}
