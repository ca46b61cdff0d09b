package services

import (
	"errors"
	"testing"
	"time"

	"github.com/brightlearn/tutor_backend/models"
	"github.com/brightlearn/tutor_backend/payments"
	"github.com/brightlearn/tutor_backend/utils"
	"github.com/google/uuid"
)

type fakeStore struct {
	user    models.User
	learner models.Learner
	rate    float64
	ledger  []float64

	pendings map[uuid.UUID]*models.PendingBooking
	created  []models.Lesson

	failCreateLessons error
	promo             *models.PromoCode

	// stalePendingReads makes every read report the pending booking as
	// still pending, the way a second webhook delivery sees the row
	// before the first one's claim lands.
	stalePendingReads bool

	debitCalls    int
	refundCalls   int
	refundAmounts []float64
	createdMethod string
	createdStatus string
	promoCounted  bool
}

func newFakeStore() *fakeStore {
	userID := uuid.New()
	return &fakeStore{
		user:     models.User{ID: userID, FullName: "Pat Learner", Email: "pat@example.com"},
		learner:  models.Learner{ID: uuid.New(), UserID: userID, FullName: "Pat Learner"},
		rate:     40.0,
		pendings: map[uuid.UUID]*models.PendingBooking{},
	}
}

func (f *fakeStore) balance() float64 {
	var sum float64
	for _, v := range f.ledger {
		sum += v
	}
	return sum
}

func (f *fakeStore) GetUser(id uuid.UUID) (*models.User, error) { return &f.user, nil }

func (f *fakeStore) EnsureLearner(user *models.User) (*models.Learner, error) {
	return &f.learner, nil
}

func (f *fakeStore) HourlyRate(studentID, teacherID uuid.UUID) (float64, error) {
	return f.rate, nil
}

func (f *fakeStore) CreditBalance(userID uuid.UUID) (float64, error) {
	return f.balance(), nil
}

func (f *fakeStore) DebitCredits(userID uuid.UUID, amount float64, reason string) error {
	f.debitCalls++
	if f.balance() < amount {
		return utils.InsufficientBalance("Insufficient credit balance for this booking")
	}
	f.ledger = append(f.ledger, -amount)
	return nil
}

func (f *fakeStore) RefundCredits(userID uuid.UUID, amount float64, reason string, lessonID *uuid.UUID) error {
	f.refundCalls++
	f.refundAmounts = append(f.refundAmounts, amount)
	f.ledger = append(f.ledger, amount)
	return nil
}

func (f *fakeStore) ValidatePromo(code string, userID uuid.UUID, now time.Time) (*models.PromoCode, error) {
	if f.promo == nil {
		return nil, utils.ValidationError("Promo code not found")
	}
	return f.promo, nil
}

func (f *fakeStore) CreateLessons(userID, learnerID uuid.UUID, items []PricedSlot, method, paymentStatus string, promo *models.PromoCode) ([]models.Lesson, error) {
	if f.failCreateLessons != nil {
		return nil, f.failCreateLessons
	}
	f.createdMethod = method
	f.createdStatus = paymentStatus
	if promo != nil {
		f.promoCounted = true
	}
	var lessons []models.Lesson
	for _, it := range items {
		lessons = append(lessons, models.Lesson{
			ID:              uuid.New(),
			TeacherID:       it.Selection.TeacherID,
			LearnerID:       learnerID,
			SubjectID:       it.Selection.SubjectID,
			ScheduledTime:   it.Start,
			DurationMinutes: it.Selection.DurationMinutes,
			Status:          models.LessonStatusBooked,
			PaymentStatus:   paymentStatus,
			PaymentMethod:   method,
			Price:           it.Price,
		})
	}
	f.created = append(f.created, lessons...)
	return lessons, nil
}

func (f *fakeStore) CreatePendingBooking(pb *models.PendingBooking) error {
	pb.ID = uuid.New()
	f.pendings[pb.ID] = pb
	return nil
}

func (f *fakeStore) AttachCheckoutSession(pb *models.PendingBooking, sessionID string) error {
	pb.CheckoutSessionID = &sessionID
	return nil
}

func (f *fakeStore) GetPendingBooking(id uuid.UUID) (*models.PendingBooking, error) {
	pb, ok := f.pendings[id]
	if !ok {
		return nil, utils.NotFound("Pending booking not found")
	}
	snapshot := *pb
	if f.stalePendingReads {
		snapshot.Status = models.PendingBookingPending
	}
	return &snapshot, nil
}

func (f *fakeStore) ClaimPendingBooking(pb *models.PendingBooking) (bool, error) {
	canonical, ok := f.pendings[pb.ID]
	if !ok {
		return false, utils.NotFound("Pending booking not found")
	}
	if canonical.Status != models.PendingBookingPending {
		return false, nil
	}
	canonical.Status = models.PendingBookingCompleted
	pb.Status = models.PendingBookingCompleted
	return true, nil
}

func (f *fakeStore) MarkPendingBooking(pb *models.PendingBooking, status string) error {
	if canonical, ok := f.pendings[pb.ID]; ok {
		canonical.Status = status
	}
	pb.Status = status
	return nil
}

func (f *fakeStore) SaveLesson(lesson *models.Lesson) error { return nil }

type fakeCheckout struct {
	sessions int
	metadata map[string]string
}

func (f *fakeCheckout) CreateCheckoutSession(amount float64, currency string, metadata map[string]string) (*payments.CheckoutSession, error) {
	f.sessions++
	f.metadata = metadata
	return &payments.CheckoutSession{ID: "cs_test_1", URL: "https://checkout.test/cs_test_1"}, nil
}

func testService(store *fakeStore) (*BookingService, *fakeCheckout) {
	checkout := &fakeCheckout{}
	svc := NewBookingService(store, checkout, nil)
	svc.Now = func() time.Time { return fixedNow }
	return svc, checkout
}

func testSelection(duration int) SlotSelection {
	return SlotSelection{
		TeacherID:       testTeacher,
		SubjectID:       testSubject,
		Date:            "2026-03-09",
		Time:            "09:00",
		DurationMinutes: duration,
	}
}

func TestChoosePlan(t *testing.T) {
	promo := &models.PromoCode{DiscountType: models.PromoDiscountFreeLesson}

	tests := []struct {
		name     string
		total    float64
		credits  float64
		balance  float64
		promo    *models.PromoCode
		explicit string
		want     string
	}{
		{"enough credits", 40, 1.0, 1.0, nil, "", PlanCredits},
		{"not enough credits", 40, 1.0, 0.5, nil, "", PlanExternal},
		{"zero balance", 40, 1.0, 0, nil, "", PlanExternal},
		{"free promo wins", 0, 1.0, 2.0, promo, "", PlanPromo},
		{"explicit external overrides credits", 40, 1.0, 5.0, nil, models.PaymentMethodExternal, PlanExternal},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			plan := ChoosePlan(tc.total, tc.credits, tc.balance, tc.promo, tc.explicit)
			if plan.Kind != tc.want {
				t.Fatalf("ChoosePlan = %s, want %s", plan.Kind, tc.want)
			}
		})
	}
}

func TestTotalCredits(t *testing.T) {
	items := []PricedSlot{
		{Selection: SlotSelection{DurationMinutes: 60}},
		{Selection: SlotSelection{DurationMinutes: 30}},
		{Selection: SlotSelection{DurationMinutes: 30}},
	}
	if got := TotalCredits(items); got != 2.0 {
		t.Fatalf("TotalCredits = %v, want 2.0", got)
	}
}

func TestValidateSelectionsRejectsBadInput(t *testing.T) {
	if _, err := ValidateSelections(nil, fixedNow); err == nil {
		t.Fatal("expected error for empty selection")
	}

	bad := testSelection(45)
	if _, err := ValidateSelections([]SlotSelection{bad}, fixedNow); err == nil {
		t.Fatal("expected error for 45-minute duration")
	}

	soon := testSelection(60)
	if _, err := ValidateSelections([]SlotSelection{soon}, time.Date(2026, 3, 9, 8, 0, 0, 0, time.UTC)); err == nil {
		t.Fatal("expected error for slot inside the lead-time window")
	}
}

func TestCreditsPathDebitsExactlyOnce(t *testing.T) {
	store := newFakeStore()
	store.ledger = []float64{1.0}
	svc, _ := testService(store)

	result, err := svc.CreateBookings(store.user.ID, []SlotSelection{testSelection(60)}, nil, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Lessons) != 1 {
		t.Fatalf("expected 1 lesson, got %d", len(result.Lessons))
	}
	if store.balance() != 0 {
		t.Fatalf("expected balance 0 after booking, got %v", store.balance())
	}
	if store.debitCalls != 1 {
		t.Fatalf("expected exactly one debit, got %d", store.debitCalls)
	}
	if store.createdMethod != models.PaymentMethodCredits || store.createdStatus != models.PaymentStatusCompleted {
		t.Fatalf("unexpected method/status: %s/%s", store.createdMethod, store.createdStatus)
	}
}

func TestExternalPathStagesPendingBooking(t *testing.T) {
	store := newFakeStore()
	svc, checkout := testService(store)

	result, err := svc.CreateBookings(store.user.ID, []SlotSelection{testSelection(60)}, nil, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.CheckoutURL == "" {
		t.Fatal("expected a checkout URL")
	}
	if len(result.Lessons) != 0 {
		t.Fatalf("no lesson may exist before payment confirms, got %d", len(result.Lessons))
	}
	if len(store.pendings) != 1 {
		t.Fatalf("expected 1 pending booking, got %d", len(store.pendings))
	}
	if checkout.metadata["pending_booking_id"] == "" {
		t.Fatal("checkout metadata must carry the pending booking id")
	}
	if store.debitCalls != 0 {
		t.Fatalf("external path must not touch the ledger, got %d debits", store.debitCalls)
	}
}

func TestCreditsPathCompensatesFailedInsert(t *testing.T) {
	store := newFakeStore()
	store.ledger = []float64{2.0}
	store.failCreateLessons = utils.Conflict("Slot no longer available")
	svc, _ := testService(store)

	_, err := svc.CreateBookings(store.user.ID, []SlotSelection{testSelection(60)}, nil, "")
	if err == nil {
		t.Fatal("expected the conflict error to surface")
	}
	var appErr *utils.AppError
	if !errors.As(err, &appErr) || appErr.Code != utils.CodeConflict {
		t.Fatalf("expected a conflict error, got %v", err)
	}
	if store.debitCalls != 1 || store.refundCalls != 1 {
		t.Fatalf("expected debit then compensating re-credit, got %d/%d", store.debitCalls, store.refundCalls)
	}
	if store.balance() != 2.0 {
		t.Fatalf("debit-then-compensate must net to zero, balance=%v", store.balance())
	}
}

func TestConfirmPendingBookingIsIdempotent(t *testing.T) {
	store := newFakeStore()
	svc, _ := testService(store)

	result, err := svc.CreateBookings(store.user.ID, []SlotSelection{testSelection(60)}, nil, "")
	if err != nil {
		t.Fatalf("staging failed: %v", err)
	}

	lessons, err := svc.ConfirmPendingBooking(*result.PendingID)
	if err != nil {
		t.Fatalf("first confirmation failed: %v", err)
	}
	if len(lessons) != 1 {
		t.Fatalf("expected 1 lesson from confirmation, got %d", len(lessons))
	}
	if store.createdMethod != models.PaymentMethodExternal {
		t.Fatalf("expected external payment method, got %s", store.createdMethod)
	}

	again, err := svc.ConfirmPendingBooking(*result.PendingID)
	if err != nil {
		t.Fatalf("duplicate confirmation errored: %v", err)
	}
	if again != nil {
		t.Fatalf("duplicate confirmation must be a no-op, got %d lessons", len(again))
	}
	if len(store.created) != 1 {
		t.Fatalf("duplicate webhook double-created lessons: %d", len(store.created))
	}
}

func TestConfirmPendingBookingConflictCreditsBack(t *testing.T) {
	store := newFakeStore()
	svc, _ := testService(store)

	result, err := svc.CreateBookings(store.user.ID, []SlotSelection{testSelection(60)}, nil, "")
	if err != nil {
		t.Fatalf("staging failed: %v", err)
	}

	store.failCreateLessons = utils.Conflict("Slot no longer available")
	if _, err := svc.ConfirmPendingBooking(*result.PendingID); err == nil {
		t.Fatal("expected the conflict to surface")
	}
	if store.refundCalls != 1 || store.refundAmounts[0] != 1.0 {
		t.Fatalf("expected a 1.0 credit-back, got calls=%d amounts=%v", store.refundCalls, store.refundAmounts)
	}
	if store.pendings[*result.PendingID].Status != models.PendingBookingExpired {
		t.Fatalf("pending booking should be expired, got %s", store.pendings[*result.PendingID].Status)
	}
}

func TestDuplicateWebhookDeliveryNeverRefunds(t *testing.T) {
	store := newFakeStore()
	svc, _ := testService(store)

	result, err := svc.CreateBookings(store.user.ID, []SlotSelection{testSelection(60)}, nil, "")
	if err != nil {
		t.Fatalf("staging failed: %v", err)
	}

	// Both deliveries read the row before either claim lands.
	store.stalePendingReads = true

	lessons, err := svc.ConfirmPendingBooking(*result.PendingID)
	if err != nil {
		t.Fatalf("first confirmation failed: %v", err)
	}
	if len(lessons) != 1 {
		t.Fatalf("expected 1 lesson from the winning confirmation, got %d", len(lessons))
	}

	again, err := svc.ConfirmPendingBooking(*result.PendingID)
	if err != nil {
		t.Fatalf("losing confirmation errored: %v", err)
	}
	if again != nil {
		t.Fatalf("losing confirmation must be a no-op, got %d lessons", len(again))
	}
	if len(store.created) != 1 {
		t.Fatalf("racing deliveries double-created lessons: %d", len(store.created))
	}
	if store.refundCalls != 0 || store.balance() != 0 {
		t.Fatalf("losing confirmation leaked a refund: calls=%d balance=%v", store.refundCalls, store.balance())
	}
	if store.pendings[*result.PendingID].Status != models.PendingBookingCompleted {
		t.Fatalf("completed booking was demoted to %s", store.pendings[*result.PendingID].Status)
	}
}

func TestCreditsPathDoesNotConsumePartialPromo(t *testing.T) {
	store := newFakeStore()
	store.ledger = []float64{1.0}
	store.promo = &models.PromoCode{ID: uuid.New(), Code: "TENOFF", DiscountType: models.PromoDiscountPercentage, DiscountValue: 10}
	svc, _ := testService(store)

	code := "TENOFF"
	result, err := svc.CreateBookings(store.user.ID, []SlotSelection{testSelection(60)}, &code, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Lessons) != 1 || store.createdMethod != models.PaymentMethodCredits {
		t.Fatalf("expected a credits commit, got %d lessons via %s", len(result.Lessons), store.createdMethod)
	}
	if store.promoCounted {
		t.Fatal("a partial discount changes nothing on the credits path and must not burn a redemption")
	}
}

func TestPromoPathSkipsPayment(t *testing.T) {
	store := newFakeStore()
	store.promo = &models.PromoCode{ID: uuid.New(), Code: "FREEBIE", DiscountType: models.PromoDiscountFreeLesson}
	svc, checkout := testService(store)

	code := "FREEBIE"
	result, err := svc.CreateBookings(store.user.ID, []SlotSelection{testSelection(60)}, &code, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Lessons) != 1 {
		t.Fatalf("expected 1 lesson, got %d", len(result.Lessons))
	}
	if store.createdMethod != models.PaymentMethodPromo {
		t.Fatalf("expected promo payment method, got %s", store.createdMethod)
	}
	if !store.promoCounted {
		t.Fatal("promo usage must be counted with the commit")
	}
	if store.debitCalls != 0 || checkout.sessions != 0 {
		t.Fatalf("free promo must skip payment entirely: debits=%d sessions=%d", store.debitCalls, checkout.sessions)
	}
}
