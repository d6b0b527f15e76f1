package service

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/moneystack/moneystack-go/internal/domain"
	"github.com/moneystack/moneystack-go/internal/port"
	"github.com/moneystack/moneystack-go/internal/schedule"
)

var subTracer = otel.Tracer("service/subscriptions")

// SubscriptionService manages recurring subscriptions.
type SubscriptionService struct {
	store  port.LedgerStore
	logger *zap.Logger
	now    func() time.Time
}

// NewSubscriptionService creates a new subscription service.
func NewSubscriptionService(store port.LedgerStore, logger *zap.Logger) *SubscriptionService {
	return &SubscriptionService{store: store, logger: logger, now: time.Now}
}

func (s *SubscriptionService) Create(ctx context.Context, userID string, req *domain.SubscriptionRequest) (*domain.Subscription, error) {
	ctx, span := subTracer.Start(ctx, "SubscriptionService.Create")
	defer span.End()

	if err := s.validate(req); err != nil {
		return nil, err
	}
	if _, err := s.store.GetAccount(ctx, userID, req.AccountID); err != nil {
		return nil, err
	}

	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	now := s.now().UTC()
	sub := &domain.Subscription{
		ID:              uuid.NewString(),
		UserID:          userID,
		AccountID:       req.AccountID,
		Name:            req.Name,
		Amount:          req.Amount,
		Frequency:       req.Frequency,
		PaymentDay:      req.PaymentDay,
		NextPaymentDate: schedule.FirstFromDay(req.PaymentDay, now),
		ReminderDays:    req.ReminderDays,
		IsActive:        isActive,
		Notes:           req.Notes,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if _, err := s.store.CreateSubscription(ctx, sub); err != nil {
		return nil, err
	}

	s.logger.Info("subscription created",
		zap.String("subscription_id", sub.ID),
		zap.String("name", sub.Name),
		zap.Time("next_payment", sub.NextPaymentDate),
	)
	return sub, nil
}

func (s *SubscriptionService) List(ctx context.Context, userID string) ([]domain.Subscription, error) {
	ctx, span := subTracer.Start(ctx, "SubscriptionService.List")
	defer span.End()

	return s.store.ListSubscriptions(ctx, userID)
}

func (s *SubscriptionService) Get(ctx context.Context, userID, subscriptionID string) (*domain.Subscription, error) {
	ctx, span := subTracer.Start(ctx, "SubscriptionService.Get")
	defer span.End()

	return s.store.GetSubscription(ctx, userID, subscriptionID)
}

func (s *SubscriptionService) Update(ctx context.Context, userID, subscriptionID string, req *domain.SubscriptionRequest) (*domain.Subscription, error) {
	ctx, span := subTracer.Start(ctx, "SubscriptionService.Update")
	defer span.End()

	sub, err := s.store.GetSubscription(ctx, userID, subscriptionID)
	if err != nil {
		return nil, err
	}

	if req.AccountID != "" && req.AccountID != sub.AccountID {
		if _, err := s.store.GetAccount(ctx, userID, req.AccountID); err != nil {
			return nil, err
		}
		sub.AccountID = req.AccountID
	}
	if req.Name != "" {
		sub.Name = req.Name
	}
	if req.Amount.Sign() > 0 {
		sub.Amount = req.Amount
	}
	if req.Frequency != "" {
		if !validFrequencies[req.Frequency] {
			return nil, &domain.ErrValidation{Field: "frequency", Message: "invalid frequency"}
		}
		sub.Frequency = req.Frequency
	}
	if req.PaymentDay != 0 && req.PaymentDay != sub.PaymentDay {
		if req.PaymentDay < 1 || req.PaymentDay > 31 {
			return nil, &domain.ErrValidation{Field: "payment_day", Message: "payment_day must be 1-31"}
		}
		sub.PaymentDay = req.PaymentDay
		// Changing the day re-anchors the schedule.
		sub.NextPaymentDate = schedule.FirstFromDay(req.PaymentDay, s.now().UTC())
	}
	if req.ReminderDays != 0 {
		sub.ReminderDays = req.ReminderDays
	}
	if req.IsActive != nil {
		sub.IsActive = *req.IsActive
	}
	if req.Notes != "" {
		sub.Notes = req.Notes
	}

	return s.store.UpdateSubscription(ctx, sub)
}

// Upcoming returns active subscriptions whose next charge falls within the
// horizon, soonest first.
func (s *SubscriptionService) Upcoming(ctx context.Context, userID string, horizon time.Duration) ([]domain.UpcomingSubscription, error) {
	ctx, span := subTracer.Start(ctx, "SubscriptionService.Upcoming")
	defer span.End()

	subs, err := s.store.ListSubscriptions(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	until := now.Add(horizon)
	out := make([]domain.UpcomingSubscription, 0, len(subs))
	for _, sub := range subs {
		if !sub.IsActive || sub.NextPaymentDate.After(until) {
			continue
		}
		out = append(out, domain.UpcomingSubscription{
			Subscription: sub,
			DaysUntil:    schedule.DaysUntil(now, sub.NextPaymentDate),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].NextPaymentDate.Before(out[j].NextPaymentDate)
	})
	return out, nil
}

// TotalMonthly sums the user's active subscriptions normalized to a monthly
// cost.
func (s *SubscriptionService) TotalMonthly(ctx context.Context, userID string) (decimal.Decimal, error) {
	ctx, span := subTracer.Start(ctx, "SubscriptionService.TotalMonthly")
	defer span.End()

	subs, err := s.store.ListSubscriptions(ctx, userID)
	if err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, sub := range subs {
		if !sub.IsActive {
			continue
		}
		total = total.Add(monthlyEquivalent(sub.Amount, sub.Frequency))
	}
	return total, nil
}

// ProcessPayment charges one subscription immediately, without waiting for
// its due date, through the same atomic path the scheduler uses. The anchor
// advances one frequency step, so the scheduler will not charge the same
// occurrence again.
func (s *SubscriptionService) ProcessPayment(ctx context.Context, userID, subscriptionID string) (*domain.Subscription, error) {
	ctx, span := subTracer.Start(ctx, "SubscriptionService.ProcessPayment")
	defer span.End()

	sub, err := s.store.GetSubscription(ctx, userID, subscriptionID)
	if err != nil {
		return nil, err
	}
	if !sub.IsActive {
		return nil, &domain.ErrValidation{Field: "is_active", Message: "subscription is not active"}
	}

	now := s.now().UTC()
	if err := paySubscription(ctx, s.store, sub, now); err != nil {
		return nil, err
	}
	sub.NextPaymentDate = schedule.Next(sub.NextPaymentDate, sub.Frequency, sub.PaymentDay)

	s.logger.Info("subscription payment processed",
		zap.String("subscription_id", sub.ID),
		zap.Time("next_payment", sub.NextPaymentDate),
	)
	return sub, nil
}

func (s *SubscriptionService) Delete(ctx context.Context, userID, subscriptionID string) error {
	ctx, span := subTracer.Start(ctx, "SubscriptionService.Delete")
	defer span.End()

	if err := s.store.DeleteSubscription(ctx, userID, subscriptionID); err != nil {
		return err
	}
	s.logger.Info("subscription deleted", zap.String("subscription_id", subscriptionID))
	return nil
}

func (s *SubscriptionService) validate(req *domain.SubscriptionRequest) error {
	if req.AccountID == "" {
		return &domain.ErrValidation{Field: "account_id", Message: "account_id is required"}
	}
	if req.Name == "" {
		return &domain.ErrValidation{Field: "name", Message: "name is required"}
	}
	if req.Amount.Sign() <= 0 {
		return &domain.ErrValidation{Field: "amount", Message: "amount must be positive"}
	}
	if !validFrequencies[req.Frequency] {
		return &domain.ErrValidation{Field: "frequency", Message: "invalid frequency"}
	}
	if req.PaymentDay < 1 || req.PaymentDay > 31 {
		return &domain.ErrValidation{Field: "payment_day", Message: "payment_day must be 1-31"}
	}
	return nil
}
