// Package service provides the business logic layer (use cases):
// accounts, transactions, subscriptions, credits, savings projects,
// dashboard aggregation and due-item settlement.
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/moneystack/moneystack-go/internal/domain"
	"github.com/moneystack/moneystack-go/internal/port"
)

var accountTracer = otel.Tracer("service/accounts")

var validAccountTypes = map[domain.AccountType]bool{
	domain.AccountChecking:   true,
	domain.AccountSavings:    true,
	domain.AccountCash:       true,
	domain.AccountInvestment: true,
	domain.AccountCreditCard: true,
}

// AccountService manages user accounts.
type AccountService struct {
	store  port.LedgerStore
	logger *zap.Logger
}

// NewAccountService creates a new account service.
func NewAccountService(store port.LedgerStore, logger *zap.Logger) *AccountService {
	return &AccountService{store: store, logger: logger}
}

func (s *AccountService) Create(ctx context.Context, userID string, req *domain.AccountRequest) (*domain.Account, error) {
	ctx, span := accountTracer.Start(ctx, "AccountService.Create")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	if req.Name == "" {
		return nil, &domain.ErrValidation{Field: "name", Message: "name is required"}
	}
	if !validAccountTypes[req.Type] {
		return nil, &domain.ErrValidation{Field: "type", Message: fmt.Sprintf("unknown account type %q", req.Type)}
	}
	currency := req.Currency
	if currency == "" {
		currency = "EUR"
	}

	now := time.Now().UTC()
	acc := &domain.Account{
		ID:        uuid.NewString(),
		UserID:    userID,
		Name:      req.Name,
		Type:      req.Type,
		Balance:   req.Balance,
		Currency:  currency,
		IsDefault: req.IsDefault,
		CreatedAt: now,
		UpdatedAt: now,
	}

	// Only one default account per user.
	err := s.store.RunAtomic(ctx, func(ctx context.Context, st port.Store) error {
		if acc.IsDefault {
			if err := st.ClearDefaultAccount(ctx, userID); err != nil {
				return err
			}
		}
		_, err := st.CreateAccount(ctx, acc)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("account created",
		zap.String("account_id", acc.ID),
		zap.String("user_id", userID),
		zap.String("type", string(acc.Type)),
	)
	return acc, nil
}

func (s *AccountService) List(ctx context.Context, userID string) ([]domain.Account, error) {
	ctx, span := accountTracer.Start(ctx, "AccountService.List")
	defer span.End()

	return s.store.ListAccounts(ctx, userID)
}

func (s *AccountService) Get(ctx context.Context, userID, accountID string) (*domain.Account, error) {
	ctx, span := accountTracer.Start(ctx, "AccountService.Get")
	defer span.End()

	return s.store.GetAccount(ctx, userID, accountID)
}

func (s *AccountService) Update(ctx context.Context, userID, accountID string, req *domain.AccountRequest) (*domain.Account, error) {
	ctx, span := accountTracer.Start(ctx, "AccountService.Update")
	defer span.End()

	acc, err := s.store.GetAccount(ctx, userID, accountID)
	if err != nil {
		return nil, err
	}
	if req.Name != "" {
		acc.Name = req.Name
	}
	if req.Type != "" {
		if !validAccountTypes[req.Type] {
			return nil, &domain.ErrValidation{Field: "type", Message: fmt.Sprintf("unknown account type %q", req.Type)}
		}
		acc.Type = req.Type
	}
	if req.Currency != "" {
		acc.Currency = req.Currency
	}

	if req.IsDefault && !acc.IsDefault {
		acc.IsDefault = true
		err = s.store.RunAtomic(ctx, func(ctx context.Context, st port.Store) error {
			if err := st.ClearDefaultAccount(ctx, userID); err != nil {
				return err
			}
			_, err := st.UpdateAccount(ctx, acc)
			return err
		})
		if err != nil {
			return nil, err
		}
		return acc, nil
	}

	return s.store.UpdateAccount(ctx, acc)
}

func (s *AccountService) Delete(ctx context.Context, userID, accountID string) error {
	ctx, span := accountTracer.Start(ctx, "AccountService.Delete")
	defer span.End()

	if err := s.store.DeleteAccount(ctx, userID, accountID); err != nil {
		return err
	}
	s.logger.Info("account deleted",
		zap.String("account_id", accountID),
		zap.String("user_id", userID),
	)
	return nil
}
