package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/moneystack/moneystack-go/internal/amortize"
	"github.com/moneystack/moneystack-go/internal/domain"
	"github.com/moneystack/moneystack-go/internal/port"
	"github.com/moneystack/moneystack-go/internal/schedule"
)

var creditTracer = otel.Tracer("service/credits")

var validCreditTypes = map[domain.CreditType]bool{
	domain.CreditMortgage: true,
	domain.CreditAuto:     true,
	domain.CreditPersonal: true,
	domain.CreditStudent:  true,
	domain.CreditOther:    true,
}

// CreditService manages amortizing credits and their payment schedules.
type CreditService struct {
	store  port.LedgerStore
	logger *zap.Logger
	now    func() time.Time
}

// NewCreditService creates a new credit service.
func NewCreditService(store port.LedgerStore, logger *zap.Logger) *CreditService {
	return &CreditService{store: store, logger: logger, now: time.Now}
}

// Create registers a credit and generates its full amortization schedule.
// Installments dated in the past are marked paid immediately without
// touching any account balance: they were settled before the credit was
// tracked here, and RemainingAmount is reconstructed to reflect them.
func (s *CreditService) Create(ctx context.Context, userID string, req *domain.CreditRequest) (*domain.Credit, error) {
	ctx, span := creditTracer.Start(ctx, "CreditService.Create")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	if err := s.validate(req); err != nil {
		return nil, err
	}
	if _, err := s.store.GetAccount(ctx, userID, req.AccountID); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	firstPayment := firstInstallmentDate(req.StartDate, req.PaymentDay)

	params := amortize.Params{
		Principal:  req.TotalAmount,
		Payment:    req.MonthlyPayment,
		AnnualRate: req.InterestRate,
		Start:      firstPayment,
		End:        req.EndDate,
		PaymentDay: req.PaymentDay,
	}
	installments, err := amortize.Schedule(params)
	if err != nil {
		return nil, err
	}

	remaining := req.TotalAmount
	if req.RemainingAmount != nil {
		remaining = *req.RemainingAmount
	} else {
		// Reconstruct the outstanding balance for credits started in the past.
		remaining, err = amortize.RemainingAfter(params, now)
		if err != nil {
			return nil, err
		}
	}

	credit := &domain.Credit{
		ID:              uuid.NewString(),
		UserID:          userID,
		AccountID:       req.AccountID,
		Name:            req.Name,
		Type:            req.Type,
		TotalAmount:     req.TotalAmount,
		RemainingAmount: remaining,
		MonthlyPayment:  req.MonthlyPayment,
		InterestRate:    req.InterestRate,
		StartDate:       req.StartDate,
		EndDate:         req.EndDate,
		PaymentDay:      req.PaymentDay,
		ReminderDays:    req.ReminderDays,
		Notes:           req.Notes,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	payments := make([]domain.CreditPayment, len(installments))
	for i, inst := range installments {
		payments[i] = domain.CreditPayment{
			ID:               uuid.NewString(),
			CreditID:         credit.ID,
			Amount:           inst.Amount,
			Principal:        inst.Principal,
			Interest:         inst.Interest,
			RemainingBalance: inst.Remaining,
			PaymentDate:      inst.Date,
			IsPaid:           inst.Date.Before(now),
			CreatedAt:        now,
		}
	}

	err = s.store.RunAtomic(ctx, func(ctx context.Context, st port.Store) error {
		_, err := st.CreateCredit(ctx, credit, payments)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("credit created",
		zap.String("credit_id", credit.ID),
		zap.String("name", credit.Name),
		zap.Int("installments", len(payments)),
		zap.String("remaining", credit.RemainingAmount.String()),
	)
	return credit, nil
}

func (s *CreditService) List(ctx context.Context, userID string) ([]domain.Credit, error) {
	ctx, span := creditTracer.Start(ctx, "CreditService.List")
	defer span.End()

	return s.store.ListCredits(ctx, userID)
}

func (s *CreditService) Get(ctx context.Context, userID, creditID string) (*domain.Credit, error) {
	ctx, span := creditTracer.Start(ctx, "CreditService.Get")
	defer span.End()

	return s.store.GetCredit(ctx, userID, creditID)
}

// Update applies a partial update to a credit. The amortization inputs
// (total amount, rate, start date) stay fixed; the generated schedule is
// not regenerated.
func (s *CreditService) Update(ctx context.Context, userID, creditID string, req *domain.CreditUpdateRequest) (*domain.Credit, error) {
	ctx, span := creditTracer.Start(ctx, "CreditService.Update")
	defer span.End()

	credit, err := s.store.GetCredit(ctx, userID, creditID)
	if err != nil {
		return nil, err
	}

	if req.Name != "" {
		credit.Name = req.Name
	}
	if req.RemainingAmount != nil {
		if req.RemainingAmount.Sign() < 0 {
			return nil, &domain.ErrValidation{Field: "remaining_amount", Message: "remaining_amount cannot be negative"}
		}
		credit.RemainingAmount = *req.RemainingAmount
	}
	if req.MonthlyPayment != nil {
		if req.MonthlyPayment.Sign() <= 0 {
			return nil, &domain.ErrValidation{Field: "monthly_payment", Message: "monthly_payment must be positive"}
		}
		credit.MonthlyPayment = *req.MonthlyPayment
	}
	if req.ReminderDays != 0 {
		credit.ReminderDays = req.ReminderDays
	}
	if req.Notes != "" {
		credit.Notes = req.Notes
	}

	updated, err := s.store.UpdateCredit(ctx, credit)
	if err != nil {
		return nil, err
	}
	s.logger.Info("credit updated", zap.String("credit_id", creditID))
	return updated, nil
}

// TotalMonthly sums the installments of credits that still carry a balance.
func (s *CreditService) TotalMonthly(ctx context.Context, userID string) (decimal.Decimal, error) {
	ctx, span := creditTracer.Start(ctx, "CreditService.TotalMonthly")
	defer span.End()

	credits, err := s.store.ListCredits(ctx, userID)
	if err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, c := range credits {
		if c.RemainingAmount.Sign() > 0 {
			total = total.Add(c.MonthlyPayment)
		}
	}
	return total, nil
}

// Payments returns the full schedule of a credit, paid and pending.
func (s *CreditService) Payments(ctx context.Context, userID, creditID string) ([]domain.CreditPayment, error) {
	ctx, span := creditTracer.Start(ctx, "CreditService.Payments")
	defer span.End()

	if _, err := s.store.GetCredit(ctx, userID, creditID); err != nil {
		return nil, err
	}
	return s.store.ListCreditPayments(ctx, creditID)
}

// Upcoming returns pending installments across all of the user's credits
// falling due within the horizon.
func (s *CreditService) Upcoming(ctx context.Context, userID string, horizon time.Duration) ([]domain.UpcomingPayment, error) {
	ctx, span := creditTracer.Start(ctx, "CreditService.Upcoming")
	defer span.End()

	now := s.now().UTC()
	upcoming, err := s.store.ListUpcomingPayments(ctx, userID, now.Add(horizon))
	if err != nil {
		return nil, err
	}
	for i := range upcoming {
		upcoming[i].DaysUntil = schedule.DaysUntil(now, upcoming[i].PaymentDate)
	}
	return upcoming, nil
}

// RecordPayment registers a manual, out-of-schedule payment: an expense on
// the funding account and a principal decrement on the credit.
func (s *CreditService) RecordPayment(ctx context.Context, userID, creditID string, req *domain.RecordPaymentRequest) (*domain.CreditPayment, error) {
	ctx, span := creditTracer.Start(ctx, "CreditService.RecordPayment")
	defer span.End()

	credit, err := s.store.GetCredit(ctx, userID, creditID)
	if err != nil {
		return nil, err
	}
	if req.Amount.Sign() <= 0 {
		return nil, &domain.ErrValidation{Field: "amount", Message: "amount must be positive"}
	}
	principal := req.Principal
	if principal.IsZero() {
		principal = req.Amount.Sub(req.Interest)
	}
	if principal.Sign() < 0 {
		return nil, &domain.ErrValidation{Field: "principal", Message: "principal cannot be negative"}
	}
	date := req.PaymentDate
	if date.IsZero() {
		date = s.now().UTC()
	}

	now := s.now().UTC()
	payment := &domain.CreditPayment{
		ID:               uuid.NewString(),
		CreditID:         creditID,
		Amount:           req.Amount,
		Principal:        principal,
		Interest:         req.Interest,
		RemainingBalance: decimal.Max(credit.RemainingAmount.Sub(principal), decimal.Zero),
		PaymentDate:      date,
		IsPaid:           true,
		CreatedAt:        now,
	}

	err = s.store.RunAtomic(ctx, func(ctx context.Context, st port.Store) error {
		if _, err := st.CreateCreditPayment(ctx, payment); err != nil {
			return err
		}
		if err := st.AdjustCreditRemaining(ctx, creditID, principal.Neg()); err != nil {
			return err
		}
		tx := &domain.Transaction{
			ID:          uuid.NewString(),
			AccountID:   credit.AccountID,
			Amount:      req.Amount,
			Type:        domain.TransactionExpense,
			Category:    "credit",
			Description: "Credit payment: " + credit.Name,
			Date:        date,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if _, err := st.CreateTransaction(ctx, tx); err != nil {
			return err
		}
		return st.AdjustBalance(ctx, credit.AccountID, req.Amount.Neg())
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("credit payment recorded",
		zap.String("credit_id", creditID),
		zap.String("amount", req.Amount.String()),
	)
	return payment, nil
}

func (s *CreditService) Delete(ctx context.Context, userID, creditID string) error {
	ctx, span := creditTracer.Start(ctx, "CreditService.Delete")
	defer span.End()

	if err := s.store.DeleteCredit(ctx, userID, creditID); err != nil {
		return err
	}
	s.logger.Info("credit deleted", zap.String("credit_id", creditID))
	return nil
}

func (s *CreditService) validate(req *domain.CreditRequest) error {
	if req.AccountID == "" {
		return &domain.ErrValidation{Field: "account_id", Message: "account_id is required"}
	}
	if req.Name == "" {
		return &domain.ErrValidation{Field: "name", Message: "name is required"}
	}
	if !validCreditTypes[req.Type] {
		return &domain.ErrValidation{Field: "type", Message: "invalid credit type"}
	}
	if req.TotalAmount.Sign() <= 0 {
		return &domain.ErrValidation{Field: "total_amount", Message: "total_amount must be positive"}
	}
	if req.MonthlyPayment.Sign() <= 0 {
		return &domain.ErrValidation{Field: "monthly_payment", Message: "monthly_payment must be positive"}
	}
	if req.InterestRate.Sign() < 0 {
		return &domain.ErrValidation{Field: "interest_rate", Message: "interest_rate cannot be negative"}
	}
	if req.PaymentDay < 1 || req.PaymentDay > 31 {
		return &domain.ErrValidation{Field: "payment_day", Message: "payment_day must be 1-31"}
	}
	if req.StartDate.IsZero() {
		return &domain.ErrValidation{Field: "start_date", Message: "start_date is required"}
	}
	return nil
}

// firstInstallmentDate places the first installment on paymentDay in the
// month of start (or the following month when paymentDay precedes the start
// day), normalized to noon like subscription anchors.
func firstInstallmentDate(start time.Time, paymentDay int) time.Time {
	day := schedule.ClampDay(start, paymentDay)
	candidate := time.Date(start.Year(), start.Month(), day, 12, 0, 0, 0, time.UTC)
	if candidate.Before(start) {
		next := schedule.AddMonths(candidate, 1)
		candidate = time.Date(next.Year(), next.Month(), schedule.ClampDay(next, paymentDay), 12, 0, 0, 0, time.UTC)
	}
	return candidate
}
