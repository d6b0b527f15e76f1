package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/moneystack/moneystack-go/internal/domain"
	"github.com/moneystack/moneystack-go/internal/infra/observability"
	"github.com/moneystack/moneystack-go/internal/port"
	"github.com/moneystack/moneystack-go/internal/schedule"
)

var settleTracer = otel.Tracer("service/settlement")

// SettlementResult summarizes one due-item processing run.
type SettlementResult struct {
	SubscriptionsPaid  int `json:"subscriptions_paid"`
	CreditPaymentsPaid int `json:"credit_payments_paid"`
	RecurringCloned    int `json:"recurring_cloned"`
	Failures           int `json:"failures"`
}

// SettlementService scans for due obligations and settles them: subscription
// charges, credit installments and recurring transaction clones. Each item
// settles in its own database transaction; one failure never blocks the rest
// of the run.
type SettlementService struct {
	store   port.LedgerStore
	metrics *observability.Metrics
	logger  *zap.Logger
	group   singleflight.Group
	now     func() time.Time
}

// NewSettlementService creates a new settlement service.
func NewSettlementService(store port.LedgerStore, metrics *observability.Metrics, logger *zap.Logger) *SettlementService {
	return &SettlementService{store: store, metrics: metrics, logger: logger, now: time.Now}
}

// ProcessDue runs a full settlement pass. Concurrent calls (cron tick plus
// manual trigger) collapse into a single run via singleflight, so no due
// item can be settled twice within one instant.
func (s *SettlementService) ProcessDue(ctx context.Context) (*SettlementResult, error) {
	v, err, _ := s.group.Do("process-due", func() (any, error) {
		return s.processDue(ctx)
	})
	if err != nil {
		return nil, err
	}
	return v.(*SettlementResult), nil
}

func (s *SettlementService) processDue(ctx context.Context) (*SettlementResult, error) {
	ctx, span := settleTracer.Start(ctx, "SettlementService.ProcessDue")
	defer span.End()

	start := s.now()
	now := start.UTC()
	result := &SettlementResult{}

	// Item failures are counted and skipped; a failing scan query means the
	// store itself is unreachable and aborts the run.
	if err := s.settleSubscriptions(ctx, now, result); err != nil {
		return nil, err
	}
	if err := s.settleCreditPayments(ctx, now, result); err != nil {
		return nil, err
	}
	if err := s.settleRecurring(ctx, now, result); err != nil {
		return nil, err
	}

	s.metrics.RecordSchedulerRun(time.Since(start))
	span.SetAttributes(
		attribute.Int("settled.subscriptions", result.SubscriptionsPaid),
		attribute.Int("settled.credit_payments", result.CreditPaymentsPaid),
		attribute.Int("settled.recurring", result.RecurringCloned),
		attribute.Int("failures", result.Failures),
	)
	s.logger.Info("settlement run finished",
		zap.Int("subscriptions_paid", result.SubscriptionsPaid),
		zap.Int("credit_payments_paid", result.CreditPaymentsPaid),
		zap.Int("recurring_cloned", result.RecurringCloned),
		zap.Int("failures", result.Failures),
		zap.Duration("took", time.Since(start)),
	)
	return result, nil
}

// ============================================================
// Subscriptions
// ============================================================

func (s *SettlementService) settleSubscriptions(ctx context.Context, now time.Time, result *SettlementResult) error {
	due, err := s.store.ListDueSubscriptions(ctx, now)
	if err != nil {
		return fmt.Errorf("list due subscriptions: %w", err)
	}

	for i := range due {
		sub := due[i]
		if err := paySubscription(ctx, s.store, &sub, now); err != nil {
			s.logger.Error("settle subscription failed",
				zap.String("subscription_id", sub.ID),
				zap.Error(err),
			)
			result.Failures++
			s.metrics.IncrItemFailed("subscription")
			continue
		}
		result.SubscriptionsPaid++
		s.metrics.IncrItemSettled("subscription")
	}
	return nil
}

// paySubscription charges one subscription: expense transaction, balance
// debit and anchor advance, all in one atomic unit. The anchor advance is
// what makes a rerun of the same instant a no-op. Shared between scheduled
// settlement and the manual per-subscription trigger.
func paySubscription(ctx context.Context, store port.LedgerStore, sub *domain.Subscription, now time.Time) error {
	return store.RunAtomic(ctx, func(ctx context.Context, st port.Store) error {
		tx := &domain.Transaction{
			ID:          uuid.NewString(),
			AccountID:   sub.AccountID,
			Amount:      sub.Amount,
			Type:        domain.TransactionExpense,
			Category:    "subscription",
			Description: "Subscription: " + sub.Name,
			Date:        sub.NextPaymentDate,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if _, err := st.CreateTransaction(ctx, tx); err != nil {
			return err
		}
		if err := st.AdjustBalance(ctx, sub.AccountID, sub.Amount.Neg()); err != nil {
			return err
		}
		next := schedule.Next(sub.NextPaymentDate, sub.Frequency, sub.PaymentDay)
		return st.SetSubscriptionNextPayment(ctx, sub.ID, next)
	})
}

// ============================================================
// Credit installments
// ============================================================

func (s *SettlementService) settleCreditPayments(ctx context.Context, now time.Time, result *SettlementResult) error {
	due, err := s.store.ListDueCreditPayments(ctx, now)
	if err != nil {
		return fmt.Errorf("list due credit payments: %w", err)
	}

	for i := range due {
		payment := due[i]
		if err := s.settleCreditPayment(ctx, now, &payment); err != nil {
			s.logger.Error("settle credit payment failed",
				zap.String("payment_id", payment.ID),
				zap.String("credit_id", payment.CreditID),
				zap.Error(err),
			)
			result.Failures++
			s.metrics.IncrItemFailed("credit_payment")
			continue
		}
		result.CreditPaymentsPaid++
		s.metrics.IncrItemSettled("credit_payment")
	}
	return nil
}

// settleCreditPayment pays one due installment: mark paid, decrement the
// credit's outstanding principal, record the expense and debit the account.
// Only the principal reduces the credit; the full installment amount leaves
// the account.
func (s *SettlementService) settleCreditPayment(ctx context.Context, now time.Time, payment *domain.CreditPayment) error {
	return s.store.RunAtomic(ctx, func(ctx context.Context, st port.Store) error {
		// Marking paid first guards against double settlement: the guarded
		// UPDATE affects zero rows if another run got here already.
		if err := st.MarkCreditPaymentPaid(ctx, payment.ID); err != nil {
			return err
		}
		if err := st.AdjustCreditRemaining(ctx, payment.CreditID, payment.Principal.Neg()); err != nil {
			return err
		}

		credit, err := st.GetCreditByID(ctx, payment.CreditID)
		if err != nil {
			return err
		}
		tx := &domain.Transaction{
			ID:          uuid.NewString(),
			AccountID:   credit.AccountID,
			Amount:      payment.Amount,
			Type:        domain.TransactionExpense,
			Category:    "credit",
			Description: "Credit installment: " + credit.Name,
			Date:        payment.PaymentDate,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if _, err := st.CreateTransaction(ctx, tx); err != nil {
			return err
		}
		return st.AdjustBalance(ctx, credit.AccountID, payment.Amount.Neg())
	})
}

// ============================================================
// Recurring transactions
// ============================================================

func (s *SettlementService) settleRecurring(ctx context.Context, now time.Time, result *SettlementResult) error {
	parents, err := s.store.ListRecurringParents(ctx, now)
	if err != nil {
		return fmt.Errorf("list recurring parents: %w", err)
	}

	for i := range parents {
		parent := parents[i]
		cloned, err := s.settleRecurringParent(ctx, now, &parent)
		if err != nil {
			s.logger.Error("settle recurring transaction failed",
				zap.String("parent_id", parent.ID),
				zap.Error(err),
			)
			result.Failures++
			s.metrics.IncrItemFailed("recurring")
			continue
		}
		if cloned {
			result.RecurringCloned++
			s.metrics.IncrItemSettled("recurring")
		}
	}
	return nil
}

// settleRecurringParent clones the template into a child transaction when
// the next occurrence (relative to the latest child, or the template itself)
// has arrived. One occurrence per run; a backlog catches up over successive
// runs.
func (s *SettlementService) settleRecurringParent(ctx context.Context, now time.Time, parent *domain.Transaction) (bool, error) {
	cloned := false
	err := s.store.RunAtomic(ctx, func(ctx context.Context, st port.Store) error {
		last, err := st.LastChildDate(ctx, parent.ID)
		if err != nil {
			return err
		}
		anchor := parent.Date
		if !last.IsZero() {
			anchor = last
		}

		next := schedule.Next(anchor, parent.RecurringFrequency, anchor.Day())
		if next.After(now) {
			return nil
		}
		if parent.RecurringEndDate != nil && next.After(*parent.RecurringEndDate) {
			return nil
		}

		child := &domain.Transaction{
			ID:                  uuid.NewString(),
			AccountID:           parent.AccountID,
			ToAccountID:         parent.ToAccountID,
			Amount:              parent.Amount,
			Type:                parent.Type,
			Category:            parent.Category,
			Description:         parent.Description,
			Date:                next,
			ParentTransactionID: &parent.ID,
			Tags:                parent.Tags,
			CreatedAt:           now,
			UpdatedAt:           now,
		}
		if _, err := st.CreateTransaction(ctx, child); err != nil {
			return err
		}
		if err := applyBalance(ctx, st, child, false); err != nil {
			return err
		}
		cloned = true
		return nil
	})
	return cloned, err
}
