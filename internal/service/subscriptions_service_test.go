package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/moneystack/moneystack-go/internal/domain"
)

func newSubscriptionFixture(t *testing.T, now time.Time) (*SubscriptionService, *fakeLedger) {
	t.Helper()
	store := newFakeLedger()
	svc := NewSubscriptionService(store, zap.NewNop())
	svc.now = func() time.Time { return now }
	return svc, store
}

func TestSubscriptionCreate_AnchorsFromClock(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	svc, store := newSubscriptionFixture(t, now)

	store.accounts["acc-1"] = &domain.Account{ID: "acc-1", UserID: "u1", Balance: dec("100")}

	sub, err := svc.Create(context.Background(), "u1", &domain.SubscriptionRequest{
		AccountID:  "acc-1",
		Name:       "Streaming",
		Amount:     dec("15.99"),
		Frequency:  domain.FrequencyMonthly,
		PaymentDay: 20,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	// Day 20 has not passed yet, so the anchor lands in the same month.
	wantNext := time.Date(2026, 3, 20, 12, 0, 0, 0, time.UTC)
	if !sub.NextPaymentDate.Equal(wantNext) {
		t.Errorf("next payment date = %v, want %v", sub.NextPaymentDate, wantNext)
	}
	if !sub.CreatedAt.Equal(now) {
		t.Errorf("created at = %v, want %v", sub.CreatedAt, now)
	}

	sub2, err := svc.Create(context.Background(), "u1", &domain.SubscriptionRequest{
		AccountID:  "acc-1",
		Name:       "Gym",
		Amount:     dec("30"),
		Frequency:  domain.FrequencyMonthly,
		PaymentDay: 5,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	// Day 5 already passed, so the anchor rolls to next month.
	wantNext = time.Date(2026, 4, 5, 12, 0, 0, 0, time.UTC)
	if !sub2.NextPaymentDate.Equal(wantNext) {
		t.Errorf("next payment date = %v, want %v", sub2.NextPaymentDate, wantNext)
	}
}

func TestSubscriptionProcessPayment(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	svc, store := newSubscriptionFixture(t, now)

	store.accounts["acc-1"] = &domain.Account{ID: "acc-1", UserID: "u1", Balance: dec("100")}
	store.subscriptions["sub-1"] = &domain.Subscription{
		ID:              "sub-1",
		UserID:          "u1",
		AccountID:       "acc-1",
		Name:            "Music",
		Amount:          dec("9.99"),
		Frequency:       domain.FrequencyMonthly,
		PaymentDay:      5,
		NextPaymentDate: time.Date(2026, 4, 5, 12, 0, 0, 0, time.UTC),
		IsActive:        true,
	}

	sub, err := svc.ProcessPayment(context.Background(), "u1", "sub-1")
	if err != nil {
		t.Fatalf("ProcessPayment: %v", err)
	}

	if got := store.accounts["acc-1"].Balance; !got.Equal(dec("90.01")) {
		t.Errorf("balance = %s, want 90.01", got)
	}

	// The anchor advances past the charged occurrence even when it was not
	// due yet, so the scheduler will not charge it again.
	wantNext := time.Date(2026, 5, 5, 12, 0, 0, 0, time.UTC)
	if !sub.NextPaymentDate.Equal(wantNext) {
		t.Errorf("returned next payment date = %v, want %v", sub.NextPaymentDate, wantNext)
	}
	if got := store.subscriptions["sub-1"].NextPaymentDate; !got.Equal(wantNext) {
		t.Errorf("stored next payment date = %v, want %v", got, wantNext)
	}

	var found *domain.Transaction
	for _, tx := range store.transactions {
		found = tx
	}
	if found == nil {
		t.Fatal("expected an expense transaction to be recorded")
	}
	if found.Description != "Subscription: Music" || !found.Amount.Equal(dec("9.99")) {
		t.Errorf("transaction = %+v, want expense of 9.99", found)
	}
}

func TestSubscriptionProcessPayment_InactiveRejected(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	svc, store := newSubscriptionFixture(t, now)

	store.accounts["acc-1"] = &domain.Account{ID: "acc-1", UserID: "u1", Balance: dec("100")}
	store.subscriptions["sub-1"] = &domain.Subscription{
		ID:              "sub-1",
		UserID:          "u1",
		AccountID:       "acc-1",
		Name:            "Paused",
		Amount:          dec("5"),
		Frequency:       domain.FrequencyMonthly,
		PaymentDay:      5,
		NextPaymentDate: time.Date(2026, 4, 5, 12, 0, 0, 0, time.UTC),
		IsActive:        false,
	}

	_, err := svc.ProcessPayment(context.Background(), "u1", "sub-1")
	var verr *domain.ErrValidation
	if !errors.As(err, &verr) {
		t.Fatalf("err = %v, want validation error", err)
	}
	if got := store.accounts["acc-1"].Balance; !got.Equal(dec("100")) {
		t.Errorf("balance = %s, want untouched 100", got)
	}

	if _, err := svc.ProcessPayment(context.Background(), "u1", "missing"); err == nil {
		t.Error("expected not-found error for unknown subscription")
	}
}

func TestSubscriptionUpcoming(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	svc, store := newSubscriptionFixture(t, now)

	store.subscriptions["sub-soon"] = &domain.Subscription{
		ID: "sub-soon", UserID: "u1", AccountID: "acc-1", Name: "Soon",
		Amount: dec("10"), Frequency: domain.FrequencyMonthly,
		NextPaymentDate: time.Date(2026, 3, 13, 12, 0, 0, 0, time.UTC),
		IsActive:        true,
	}
	store.subscriptions["sub-far"] = &domain.Subscription{
		ID: "sub-far", UserID: "u1", AccountID: "acc-1", Name: "Far",
		Amount: dec("20"), Frequency: domain.FrequencyMonthly,
		NextPaymentDate: time.Date(2026, 4, 10, 12, 0, 0, 0, time.UTC),
		IsActive:        true,
	}
	store.subscriptions["sub-paused"] = &domain.Subscription{
		ID: "sub-paused", UserID: "u1", AccountID: "acc-1", Name: "Paused",
		Amount: dec("30"), Frequency: domain.FrequencyMonthly,
		NextPaymentDate: time.Date(2026, 3, 11, 12, 0, 0, 0, time.UTC),
		IsActive:        false,
	}

	upcoming, err := svc.Upcoming(context.Background(), "u1", 7*24*time.Hour)
	if err != nil {
		t.Fatalf("Upcoming: %v", err)
	}
	if len(upcoming) != 1 {
		t.Fatalf("upcoming = %d entries, want 1", len(upcoming))
	}
	if upcoming[0].ID != "sub-soon" {
		t.Errorf("upcoming[0].ID = %q, want sub-soon", upcoming[0].ID)
	}
	if upcoming[0].DaysUntil != 3 {
		t.Errorf("days until = %d, want 3", upcoming[0].DaysUntil)
	}
}

func TestSubscriptionTotalMonthly(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	svc, store := newSubscriptionFixture(t, now)

	store.subscriptions["sub-1"] = &domain.Subscription{
		ID: "sub-1", UserID: "u1", AccountID: "acc-1", Name: "Weekly",
		Amount: dec("10"), Frequency: domain.FrequencyWeekly, IsActive: true,
	}
	store.subscriptions["sub-2"] = &domain.Subscription{
		ID: "sub-2", UserID: "u1", AccountID: "acc-1", Name: "Monthly",
		Amount: dec("5"), Frequency: domain.FrequencyMonthly, IsActive: true,
	}
	store.subscriptions["sub-3"] = &domain.Subscription{
		ID: "sub-3", UserID: "u1", AccountID: "acc-1", Name: "Paused",
		Amount: dec("99"), Frequency: domain.FrequencyMonthly, IsActive: false,
	}

	total, err := svc.TotalMonthly(context.Background(), "u1")
	if err != nil {
		t.Fatalf("TotalMonthly: %v", err)
	}
	// Weekly 10 normalizes to 43.50; the paused subscription is excluded.
	if !total.Equal(dec("48.50")) {
		t.Errorf("total monthly = %s, want 48.50", total)
	}
}
