package services

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/brightlearn/tutor_backend/models"
	"github.com/brightlearn/tutor_backend/payments"
	"github.com/brightlearn/tutor_backend/utils"
	"github.com/brightlearn/tutor_backend/video"
	"github.com/google/uuid"
)

// SlotSelection is one requested lesson slot as submitted by the client.
type SlotSelection struct {
	TeacherID       uuid.UUID `json:"teacher_id"`
	SubjectID       uuid.UUID `json:"subject_id"`
	Date            string    `json:"date"` // 2006-01-02
	Time            string    `json:"time"` // 15:04
	DurationMinutes int       `json:"duration"`
}

func (s SlotSelection) StartTime() (time.Time, error) {
	return time.Parse("2006-01-02 15:04", s.Date+" "+s.Time)
}

// PricedSlot is a selection with its resolved start time and final price.
type PricedSlot struct {
	Selection SlotSelection
	Start     time.Time
	Price     float64
}

// Payment plan kinds. Exactly one plan is chosen up front and the commit
// step consumes it uniformly.
const (
	PlanCredits  = "credits"
	PlanExternal = "external"
	PlanPromo    = "promo"
)

type PaymentPlan struct {
	Kind    string
	Amount  float64 // money to collect on the external path
	Credits float64 // credits to debit on the credits path
	Promo   *models.PromoCode
}

// BookingResult is what a booking request resolves to: committed lessons,
// or a checkout redirect for the external-payment path.
type BookingResult struct {
	Lessons     []models.Lesson `json:"lessons,omitempty"`
	CheckoutURL string          `json:"checkout_url,omitempty"`
	PendingID   *uuid.UUID      `json:"pending_booking_id,omitempty"`
}

// BookingStore is the persistence surface the orchestrator drives. The
// gorm-backed implementation lives in booking_store.go; tests substitute a
// fake.
type BookingStore interface {
	GetUser(id uuid.UUID) (*models.User, error)
	EnsureLearner(user *models.User) (*models.Learner, error)
	HourlyRate(studentID, teacherID uuid.UUID) (float64, error)
	CreditBalance(userID uuid.UUID) (float64, error)

	// DebitCredits must be atomic: it fails with an insufficient-balance
	// error if the user's ledger cannot cover the amount.
	DebitCredits(userID uuid.UUID, amount float64, reason string) error
	RefundCredits(userID uuid.UUID, amount float64, reason string, lessonID *uuid.UUID) error

	// CreateLessons re-checks teacher conflicts under lock immediately
	// before each insert and, when promo is set, counts its redemption in
	// the same transaction.
	CreateLessons(userID, learnerID uuid.UUID, items []PricedSlot, method, paymentStatus string, promo *models.PromoCode) ([]models.Lesson, error)

	ValidatePromo(code string, userID uuid.UUID, now time.Time) (*models.PromoCode, error)

	CreatePendingBooking(pb *models.PendingBooking) error
	AttachCheckoutSession(pb *models.PendingBooking, sessionID string) error
	GetPendingBooking(id uuid.UUID) (*models.PendingBooking, error)

	// ClaimPendingBooking atomically moves the row from pending to
	// completed and reports whether this caller won. Exactly one of any
	// number of concurrent confirmations gets true.
	ClaimPendingBooking(pb *models.PendingBooking) (bool, error)

	MarkPendingBooking(pb *models.PendingBooking, status string) error
	SaveLesson(lesson *models.Lesson) error
}

type BookingService struct {
	Store    BookingStore
	Checkout payments.CheckoutClient
	Rooms    *video.Provisioner

	// Notify fires best-effort notifications after a commit; failures never
	// affect the booking. Nil disables notifications.
	Notify func(event string, lessons []models.Lesson)

	// Now is overridable in tests.
	Now func() time.Time
}

func NewBookingService(store BookingStore, checkout payments.CheckoutClient, rooms *video.Provisioner) *BookingService {
	return &BookingService{
		Store:    store,
		Checkout: checkout,
		Rooms:    rooms,
		Now:      time.Now,
	}
}

// ValidateSelections rejects malformed slot requests before any side effect.
func ValidateSelections(selections []SlotSelection, now time.Time) ([]PricedSlot, error) {
	if len(selections) == 0 {
		return nil, utils.ValidationError("At least one slot is required")
	}

	items := make([]PricedSlot, 0, len(selections))
	for _, sel := range selections {
		if sel.DurationMinutes != 30 && sel.DurationMinutes != 60 {
			return nil, utils.ValidationError("Lesson duration must be 30 or 60 minutes")
		}
		if sel.TeacherID == uuid.Nil || sel.SubjectID == uuid.Nil {
			return nil, utils.ValidationError("Teacher and subject are required")
		}
		start, err := sel.StartTime()
		if err != nil {
			return nil, utils.ValidationError("Invalid slot date or time")
		}
		if start.Before(now.Add(MinLeadTime)) {
			return nil, utils.ValidationError("Lessons must be booked at least 2 hours in advance")
		}
		items = append(items, PricedSlot{Selection: sel, Start: start})
	}
	return items, nil
}

// TotalCredits is the duration-weighted credit cost of a batch: one credit
// per lesson-hour.
func TotalCredits(items []PricedSlot) float64 {
	var total float64
	for _, it := range items {
		total += float64(it.Selection.DurationMinutes) / 60.0
	}
	return total
}

// ChoosePlan picks the single payment path for a priced batch.
func ChoosePlan(total, creditsRequired, balance float64, promo *models.PromoCode, explicitMethod string) PaymentPlan {
	if promo != nil && total == 0 {
		return PaymentPlan{Kind: PlanPromo, Promo: promo}
	}
	if explicitMethod != models.PaymentMethodExternal && balance >= creditsRequired {
		// Credits are duration-weighted, so a partial discount changes
		// nothing here; the code is not consumed on this path.
		return PaymentPlan{Kind: PlanCredits, Credits: creditsRequired}
	}
	return PaymentPlan{Kind: PlanExternal, Amount: total, Promo: promo}
}

// CreateBookings runs the full booking transaction for one or more slots.
// Credits and promo plans commit synchronously; the external plan stages a
// PendingBooking and returns a checkout redirect instead.
func (s *BookingService) CreateBookings(userID uuid.UUID, selections []SlotSelection, promoCode *string, explicitMethod string) (*BookingResult, error) {
	now := s.Now()

	items, err := ValidateSelections(selections, now)
	if err != nil {
		return nil, err
	}

	user, err := s.Store.GetUser(userID)
	if err != nil {
		return nil, err
	}
	learner, err := s.Store.EnsureLearner(user)
	if err != nil {
		return nil, err
	}

	var subtotal float64
	for i := range items {
		rate, err := s.Store.HourlyRate(userID, items[i].Selection.TeacherID)
		if err != nil {
			return nil, err
		}
		items[i].Price = LessonPrice(rate, items[i].Selection.DurationMinutes)
		subtotal += items[i].Price
	}

	var promo *models.PromoCode
	if promoCode != nil && *promoCode != "" {
		promo, err = s.Store.ValidatePromo(*promoCode, userID, now)
		if err != nil {
			return nil, err
		}
	}
	total := ApplyPromo(subtotal, promo)

	balance, err := s.Store.CreditBalance(userID)
	if err != nil {
		return nil, err
	}
	creditsRequired := TotalCredits(items)

	plan := ChoosePlan(total, creditsRequired, balance, promo, explicitMethod)

	switch plan.Kind {
	case PlanPromo:
		lessons, err := s.Store.CreateLessons(userID, learner.ID, items, models.PaymentMethodPromo, models.PaymentStatusCompleted, plan.Promo)
		if err != nil {
			return nil, err
		}
		s.afterCommit(lessons)
		return &BookingResult{Lessons: lessons}, nil

	case PlanCredits:
		lessons, err := s.commitWithCredits(userID, learner.ID, items, plan)
		if err != nil {
			return nil, err
		}
		s.afterCommit(lessons)
		return &BookingResult{Lessons: lessons}, nil

	default:
		return s.stageExternal(userID, items, total, creditsRequired, promoCode)
	}
}

// commitWithCredits debits first, then inserts the lessons. A failed insert
// after a successful debit always issues the compensating re-credit before
// the error surfaces, so the caller never sees a silent debit.
func (s *BookingService) commitWithCredits(userID, learnerID uuid.UUID, items []PricedSlot, plan PaymentPlan) ([]models.Lesson, error) {
	if err := s.Store.DebitCredits(userID, plan.Credits, "lesson booking"); err != nil {
		return nil, err
	}

	lessons, err := s.Store.CreateLessons(userID, learnerID, items, models.PaymentMethodCredits, models.PaymentStatusCompleted, plan.Promo)
	if err != nil {
		if refundErr := s.Store.RefundCredits(userID, plan.Credits, "refund: lesson creation failed", nil); refundErr != nil {
			log.Printf("🔥 CRITICAL: compensating re-credit failed for user %s: %v", userID, refundErr)
		}
		return nil, err
	}
	return lessons, nil
}

func (s *BookingService) stageExternal(userID uuid.UUID, items []PricedSlot, total, creditsRequired float64, promoCode *string) (*BookingResult, error) {
	selections := make([]SlotSelection, len(items))
	for i, it := range items {
		selections[i] = it.Selection
	}
	slotsJSON, err := json.Marshal(selections)
	if err != nil {
		return nil, err
	}

	pending := &models.PendingBooking{
		UserID:       userID,
		Slots:        string(slotsJSON),
		TotalAmount:  total,
		TotalCredits: creditsRequired,
		PromoCode:    promoCode,
		Status:       models.PendingBookingPending,
	}
	if err := s.Store.CreatePendingBooking(pending); err != nil {
		return nil, err
	}

	session, err := s.Checkout.CreateCheckoutSession(total, "USD", map[string]string{
		"pending_booking_id": pending.ID.String(),
	})
	if err != nil {
		log.Printf("🔥 Checkout session creation failed for pending booking %s: %v", pending.ID, err)
		return nil, utils.ExternalService("Payment could not be initiated, please try again.")
	}

	if err := s.Store.AttachCheckoutSession(pending, session.ID); err != nil {
		return nil, err
	}

	return &BookingResult{CheckoutURL: session.URL, PendingID: &pending.ID}, nil
}

// ConfirmPendingBooking commits the lessons for an externally paid booking.
// It is idempotent per pending-booking id: the row is claimed with an
// atomic status transition before anything is created, so of two racing
// deliveries of the same webhook exactly one commits and the other is
// acknowledged without side effects.
func (s *BookingService) ConfirmPendingBooking(pendingID uuid.UUID) ([]models.Lesson, error) {
	pending, err := s.Store.GetPendingBooking(pendingID)
	if err != nil {
		return nil, err
	}
	if pending.Status != models.PendingBookingPending {
		return nil, nil
	}

	var selections []SlotSelection
	if err := json.Unmarshal([]byte(pending.Slots), &selections); err != nil {
		return nil, fmt.Errorf("pending booking %s has malformed slots: %v", pending.ID, err)
	}

	user, err := s.Store.GetUser(pending.UserID)
	if err != nil {
		return nil, err
	}
	learner, err := s.Store.EnsureLearner(user)
	if err != nil {
		return nil, err
	}

	items := make([]PricedSlot, len(selections))
	perLesson := 0.0
	if len(selections) > 0 {
		perLesson = pending.TotalAmount / float64(len(selections))
	}
	for i, sel := range selections {
		start, err := sel.StartTime()
		if err != nil {
			return nil, fmt.Errorf("pending booking %s has invalid slot time: %v", pending.ID, err)
		}
		items[i] = PricedSlot{Selection: sel, Start: start, Price: perLesson}
	}

	var promo *models.PromoCode
	if pending.PromoCode != nil && *pending.PromoCode != "" {
		// Best effort at confirmation time: the code was validated at
		// checkout, so an expired window no longer blocks the paid booking.
		promo, _ = s.Store.ValidatePromo(*pending.PromoCode, pending.UserID, s.Now())
	}

	claimed, err := s.Store.ClaimPendingBooking(pending)
	if err != nil {
		return nil, err
	}
	if !claimed {
		// Another delivery of the same event won the claim.
		return nil, nil
	}

	lessons, err := s.Store.CreateLessons(pending.UserID, learner.ID, items, models.PaymentMethodExternal, models.PaymentStatusCompleted, promo)
	if err != nil {
		// Payment has been taken but the slots are gone. The money is
		// preserved as prepaid credits rather than an orphaned charge.
		if refundErr := s.Store.RefundCredits(pending.UserID, pending.TotalCredits, "refund: slot no longer available", nil); refundErr != nil {
			log.Printf("🔥 CRITICAL: credit-back failed for pending booking %s: %v", pending.ID, refundErr)
		}
		if markErr := s.Store.MarkPendingBooking(pending, models.PendingBookingExpired); markErr != nil {
			log.Printf("Failed to expire pending booking %s: %v", pending.ID, markErr)
		}
		return nil, err
	}

	s.afterCommit(lessons)
	return lessons, nil
}

// afterCommit provisions rooms and fires notifications. Payment has already
// been taken, so nothing here rolls the booking back.
func (s *BookingService) afterCommit(lessons []models.Lesson) {
	for i := range lessons {
		s.provisionRoom(&lessons[i])
	}
	if s.Notify != nil {
		s.Notify("lesson_booked", lessons)
	}
}

func (s *BookingService) provisionRoom(lesson *models.Lesson) {
	if s.Rooms == nil {
		return
	}
	if err := s.Rooms.Provision(lesson); err != nil {
		log.Printf("Room provisioning pending for lesson %s: %v", lesson.ID, err)
		return
	}
	lesson.Status = models.LessonStatusScheduled
	if err := s.Store.SaveLesson(lesson); err != nil {
		log.Printf("🔥 Failed to persist room details for lesson %s: %v", lesson.ID, err)
	}
}
