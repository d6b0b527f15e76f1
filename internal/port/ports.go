// Package port defines the interfaces (ports) for external dependencies.
// Following hexagonal architecture, these ports decouple the domain/service
// layer from concrete implementations.
package port

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/moneystack/moneystack-go/internal/domain"
)

// Cache provides generic caching with TTL.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, value T)
	Delete(key string)
}

// AccountStore handles account data operations.
type AccountStore interface {
	CreateAccount(ctx context.Context, acc *domain.Account) (*domain.Account, error)
	ListAccounts(ctx context.Context, userID string) ([]domain.Account, error)
	GetAccount(ctx context.Context, userID, accountID string) (*domain.Account, error)
	UpdateAccount(ctx context.Context, acc *domain.Account) (*domain.Account, error)
	DeleteAccount(ctx context.Context, userID, accountID string) error
	ClearDefaultAccount(ctx context.Context, userID string) error

	// AdjustBalance applies a signed delta to the stored balance atomically
	// (balance = balance + delta), without read-modify-write races.
	AdjustBalance(ctx context.Context, accountID string, delta decimal.Decimal) error
}

// TransactionStore handles transaction data operations.
type TransactionStore interface {
	CreateTransaction(ctx context.Context, tx *domain.Transaction) (*domain.Transaction, error)
	ListTransactions(ctx context.Context, filter domain.TransactionFilter) ([]domain.Transaction, error)
	GetTransaction(ctx context.Context, userID, transactionID string) (*domain.Transaction, error)
	DeleteTransaction(ctx context.Context, userID, transactionID string) error

	// Recurring templates due for materialization.
	ListRecurringParents(ctx context.Context, now time.Time) ([]domain.Transaction, error)
	// LastChildDate returns the date of the most recent child cloned from a
	// recurring parent, or the zero time when no child exists yet.
	LastChildDate(ctx context.Context, parentID string) (time.Time, error)
}

// SubscriptionStore handles subscription data operations.
type SubscriptionStore interface {
	CreateSubscription(ctx context.Context, sub *domain.Subscription) (*domain.Subscription, error)
	ListSubscriptions(ctx context.Context, userID string) ([]domain.Subscription, error)
	GetSubscription(ctx context.Context, userID, subscriptionID string) (*domain.Subscription, error)
	UpdateSubscription(ctx context.Context, sub *domain.Subscription) (*domain.Subscription, error)
	DeleteSubscription(ctx context.Context, userID, subscriptionID string) error

	ListDueSubscriptions(ctx context.Context, now time.Time) ([]domain.Subscription, error)
	SetSubscriptionNextPayment(ctx context.Context, subscriptionID string, next time.Time) error
}

// CreditStore handles credit and credit payment data operations.
type CreditStore interface {
	CreateCredit(ctx context.Context, credit *domain.Credit, schedule []domain.CreditPayment) (*domain.Credit, error)
	ListCredits(ctx context.Context, userID string) ([]domain.Credit, error)
	GetCredit(ctx context.Context, userID, creditID string) (*domain.Credit, error)
	// GetCreditByID is the scheduler's unscoped lookup.
	GetCreditByID(ctx context.Context, creditID string) (*domain.Credit, error)
	UpdateCredit(ctx context.Context, credit *domain.Credit) (*domain.Credit, error)
	DeleteCredit(ctx context.Context, userID, creditID string) error

	ListCreditPayments(ctx context.Context, creditID string) ([]domain.CreditPayment, error)
	CreateCreditPayment(ctx context.Context, payment *domain.CreditPayment) (*domain.CreditPayment, error)
	ListDueCreditPayments(ctx context.Context, now time.Time) ([]domain.CreditPayment, error)
	ListUpcomingPayments(ctx context.Context, userID string, until time.Time) ([]domain.UpcomingPayment, error)
	MarkCreditPaymentPaid(ctx context.Context, paymentID string) error
	AdjustCreditRemaining(ctx context.Context, creditID string, delta decimal.Decimal) error
}

// ProjectStore handles savings project data operations.
type ProjectStore interface {
	CreateProject(ctx context.Context, project *domain.Project) (*domain.Project, error)
	ListProjects(ctx context.Context, userID string) ([]domain.Project, error)
	GetProject(ctx context.Context, userID, projectID string) (*domain.Project, error)
	UpdateProject(ctx context.Context, project *domain.Project) (*domain.Project, error)
	DeleteProject(ctx context.Context, userID, projectID string) error
}

// UserStore handles user data operations.
type UserStore interface {
	CreateUser(ctx context.Context, user *domain.User) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	GetUserByID(ctx context.Context, userID string) (*domain.User, error)
}

// Store bundles every per-area store. The postgres adapter implements it on
// top of either *sql.DB or an open *sql.Tx, which is what makes RunAtomic
// work: inside a transaction the callback receives a Store whose operations
// all share that transaction.
type Store interface {
	AccountStore
	TransactionStore
	SubscriptionStore
	CreditStore
	ProjectStore
	UserStore
}

// LedgerStore is a Store that can open atomic units of work.
type LedgerStore interface {
	Store

	// RunAtomic runs fn inside a database transaction. The Store passed to
	// fn routes every operation through that transaction; returning an error
	// rolls everything back.
	RunAtomic(ctx context.Context, fn func(ctx context.Context, s Store) error) error
}
