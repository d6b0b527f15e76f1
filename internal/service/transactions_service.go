package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/moneystack/moneystack-go/internal/domain"
	"github.com/moneystack/moneystack-go/internal/port"
)

var txTracer = otel.Tracer("service/transactions")

var validFrequencies = map[domain.Frequency]bool{
	domain.FrequencyDaily:     true,
	domain.FrequencyWeekly:    true,
	domain.FrequencyBiweekly:  true,
	domain.FrequencyMonthly:   true,
	domain.FrequencyQuarterly: true,
	domain.FrequencyYearly:    true,
}

// TransactionService manages money movements and their effect on balances.
type TransactionService struct {
	store  port.LedgerStore
	logger *zap.Logger
	now    func() time.Time
}

// NewTransactionService creates a new transaction service.
func NewTransactionService(store port.LedgerStore, logger *zap.Logger) *TransactionService {
	return &TransactionService{store: store, logger: logger, now: time.Now}
}

// Create records a transaction and applies it to the account balance in one
// atomic unit. INCOME credits the account, EXPENSE debits it, TRANSFER
// debits the source and credits the destination.
func (s *TransactionService) Create(ctx context.Context, userID string, req *domain.TransactionRequest) (*domain.Transaction, error) {
	ctx, span := txTracer.Start(ctx, "TransactionService.Create")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	if err := s.validate(req); err != nil {
		return nil, err
	}

	// Ownership check before touching balances.
	if _, err := s.store.GetAccount(ctx, userID, req.AccountID); err != nil {
		return nil, err
	}
	if req.Type == domain.TransactionTransfer {
		if _, err := s.store.GetAccount(ctx, userID, *req.ToAccountID); err != nil {
			return nil, err
		}
	}

	now := s.now().UTC()
	date := req.Date
	if date.IsZero() {
		date = now
	}
	tx := &domain.Transaction{
		ID:                 uuid.NewString(),
		AccountID:          req.AccountID,
		ToAccountID:        req.ToAccountID,
		Amount:             req.Amount,
		Type:               req.Type,
		Category:           req.Category,
		Description:        req.Description,
		Date:               date,
		IsRecurring:        req.IsRecurring,
		RecurringFrequency: req.RecurringFrequency,
		RecurringEndDate:   req.RecurringEndDate,
		Tags:               req.Tags,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	err := s.store.RunAtomic(ctx, func(ctx context.Context, st port.Store) error {
		if _, err := st.CreateTransaction(ctx, tx); err != nil {
			return err
		}
		return applyBalance(ctx, st, tx, false)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("transaction created",
		zap.String("transaction_id", tx.ID),
		zap.String("type", string(tx.Type)),
		zap.String("amount", tx.Amount.String()),
	)
	return tx, nil
}

func (s *TransactionService) List(ctx context.Context, filter domain.TransactionFilter) ([]domain.Transaction, error) {
	ctx, span := txTracer.Start(ctx, "TransactionService.List")
	defer span.End()

	return s.store.ListTransactions(ctx, filter)
}

func (s *TransactionService) Get(ctx context.Context, userID, transactionID string) (*domain.Transaction, error) {
	ctx, span := txTracer.Start(ctx, "TransactionService.Get")
	defer span.End()

	return s.store.GetTransaction(ctx, userID, transactionID)
}

// Delete removes a transaction and reverses its balance effect.
func (s *TransactionService) Delete(ctx context.Context, userID, transactionID string) error {
	ctx, span := txTracer.Start(ctx, "TransactionService.Delete")
	defer span.End()

	tx, err := s.store.GetTransaction(ctx, userID, transactionID)
	if err != nil {
		return err
	}

	err = s.store.RunAtomic(ctx, func(ctx context.Context, st port.Store) error {
		if err := st.DeleteTransaction(ctx, userID, transactionID); err != nil {
			return err
		}
		return applyBalance(ctx, st, tx, true)
	})
	if err != nil {
		return err
	}

	s.logger.Info("transaction deleted", zap.String("transaction_id", transactionID))
	return nil
}

func (s *TransactionService) validate(req *domain.TransactionRequest) error {
	if req.AccountID == "" {
		return &domain.ErrValidation{Field: "account_id", Message: "account_id is required"}
	}
	if req.Amount.Sign() <= 0 {
		return &domain.ErrValidation{Field: "amount", Message: "amount must be positive"}
	}
	switch req.Type {
	case domain.TransactionIncome, domain.TransactionExpense:
	case domain.TransactionTransfer:
		if req.ToAccountID == nil || *req.ToAccountID == "" {
			return &domain.ErrValidation{Field: "to_account_id", Message: "to_account_id is required for transfers"}
		}
		if *req.ToAccountID == req.AccountID {
			return &domain.ErrValidation{Field: "to_account_id", Message: "cannot transfer to the same account"}
		}
	default:
		return &domain.ErrValidation{Field: "type", Message: "type must be INCOME, EXPENSE or TRANSFER"}
	}
	if req.IsRecurring && !validFrequencies[req.RecurringFrequency] {
		return &domain.ErrValidation{Field: "recurring_frequency", Message: "invalid recurring frequency"}
	}
	return nil
}

// applyBalance applies (or, with reverse set, undoes) the balance effect of
// a transaction.
func applyBalance(ctx context.Context, st port.Store, tx *domain.Transaction, reverse bool) error {
	amount := tx.Amount
	if reverse {
		amount = amount.Neg()
	}
	switch tx.Type {
	case domain.TransactionIncome:
		return st.AdjustBalance(ctx, tx.AccountID, amount)
	case domain.TransactionExpense:
		return st.AdjustBalance(ctx, tx.AccountID, amount.Neg())
	case domain.TransactionTransfer:
		if err := st.AdjustBalance(ctx, tx.AccountID, amount.Neg()); err != nil {
			return err
		}
		return st.AdjustBalance(ctx, *tx.ToAccountID, amount)
	}
	return nil
}
