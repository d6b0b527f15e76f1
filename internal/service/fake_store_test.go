package service

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/moneystack/moneystack-go/internal/domain"
	"github.com/moneystack/moneystack-go/internal/port"
)

// fakeLedger is an in-memory port.LedgerStore for service tests. RunAtomic
// snapshots all state before the callback and restores it when the callback
// fails, mimicking a rolled-back database transaction.
type fakeLedger struct {
	accounts      map[string]*domain.Account
	transactions  map[string]*domain.Transaction
	subscriptions map[string]*domain.Subscription
	credits       map[string]*domain.Credit
	payments      map[string]*domain.CreditPayment
	projects      map[string]*domain.Project
	users         map[string]*domain.User
}

var _ port.LedgerStore = (*fakeLedger)(nil)

func newFakeLedger() *fakeLedger {
	return &fakeLedger{
		accounts:      make(map[string]*domain.Account),
		transactions:  make(map[string]*domain.Transaction),
		subscriptions: make(map[string]*domain.Subscription),
		credits:       make(map[string]*domain.Credit),
		payments:      make(map[string]*domain.CreditPayment),
		users:         make(map[string]*domain.User),
		projects:      make(map[string]*domain.Project),
	}
}

func (f *fakeLedger) snapshot() *fakeLedger {
	snap := newFakeLedger()
	for k, v := range f.accounts {
		cp := *v
		snap.accounts[k] = &cp
	}
	for k, v := range f.transactions {
		cp := *v
		snap.transactions[k] = &cp
	}
	for k, v := range f.subscriptions {
		cp := *v
		snap.subscriptions[k] = &cp
	}
	for k, v := range f.credits {
		cp := *v
		snap.credits[k] = &cp
	}
	for k, v := range f.payments {
		cp := *v
		snap.payments[k] = &cp
	}
	for k, v := range f.projects {
		cp := *v
		snap.projects[k] = &cp
	}
	for k, v := range f.users {
		cp := *v
		snap.users[k] = &cp
	}
	return snap
}

func (f *fakeLedger) RunAtomic(ctx context.Context, fn func(ctx context.Context, s port.Store) error) error {
	snap := f.snapshot()
	if err := fn(ctx, f); err != nil {
		*f = *snap
		return err
	}
	return nil
}

// --- accounts ---

func (f *fakeLedger) CreateAccount(ctx context.Context, acc *domain.Account) (*domain.Account, error) {
	cp := *acc
	f.accounts[acc.ID] = &cp
	return acc, nil
}

func (f *fakeLedger) ListAccounts(ctx context.Context, userID string) ([]domain.Account, error) {
	var out []domain.Account
	for _, a := range f.accounts {
		if a.UserID == userID {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (f *fakeLedger) GetAccount(ctx context.Context, userID, accountID string) (*domain.Account, error) {
	a, ok := f.accounts[accountID]
	if !ok || a.UserID != userID {
		return nil, &domain.ErrNotFound{Resource: "account", ID: accountID}
	}
	cp := *a
	return &cp, nil
}

func (f *fakeLedger) UpdateAccount(ctx context.Context, acc *domain.Account) (*domain.Account, error) {
	if _, ok := f.accounts[acc.ID]; !ok {
		return nil, &domain.ErrNotFound{Resource: "account", ID: acc.ID}
	}
	cp := *acc
	f.accounts[acc.ID] = &cp
	return acc, nil
}

func (f *fakeLedger) DeleteAccount(ctx context.Context, userID, accountID string) error {
	if _, err := f.GetAccount(ctx, userID, accountID); err != nil {
		return err
	}
	delete(f.accounts, accountID)
	return nil
}

func (f *fakeLedger) ClearDefaultAccount(ctx context.Context, userID string) error {
	for _, a := range f.accounts {
		if a.UserID == userID {
			a.IsDefault = false
		}
	}
	return nil
}

func (f *fakeLedger) AdjustBalance(ctx context.Context, accountID string, delta decimal.Decimal) error {
	a, ok := f.accounts[accountID]
	if !ok {
		return &domain.ErrNotFound{Resource: "account", ID: accountID}
	}
	a.Balance = a.Balance.Add(delta)
	return nil
}

// --- transactions ---

func (f *fakeLedger) CreateTransaction(ctx context.Context, tx *domain.Transaction) (*domain.Transaction, error) {
	cp := *tx
	f.transactions[tx.ID] = &cp
	return tx, nil
}

func (f *fakeLedger) ListTransactions(ctx context.Context, filter domain.TransactionFilter) ([]domain.Transaction, error) {
	var out []domain.Transaction
	for _, tx := range f.transactions {
		acc, ok := f.accounts[tx.AccountID]
		if !ok || acc.UserID != filter.UserID {
			continue
		}
		if filter.AccountID != "" && tx.AccountID != filter.AccountID {
			continue
		}
		if filter.Type != "" && tx.Type != filter.Type {
			continue
		}
		if filter.Category != "" && tx.Category != filter.Category {
			continue
		}
		if filter.From != nil && tx.Date.Before(*filter.From) {
			continue
		}
		if filter.To != nil && tx.Date.After(*filter.To) {
			continue
		}
		out = append(out, *tx)
	}
	return out, nil
}

func (f *fakeLedger) GetTransaction(ctx context.Context, userID, transactionID string) (*domain.Transaction, error) {
	tx, ok := f.transactions[transactionID]
	if !ok {
		return nil, &domain.ErrNotFound{Resource: "transaction", ID: transactionID}
	}
	cp := *tx
	return &cp, nil
}

func (f *fakeLedger) DeleteTransaction(ctx context.Context, userID, transactionID string) error {
	if _, ok := f.transactions[transactionID]; !ok {
		return &domain.ErrNotFound{Resource: "transaction", ID: transactionID}
	}
	delete(f.transactions, transactionID)
	return nil
}

func (f *fakeLedger) ListRecurringParents(ctx context.Context, now time.Time) ([]domain.Transaction, error) {
	var out []domain.Transaction
	for _, tx := range f.transactions {
		if !tx.IsRecurring || tx.ParentTransactionID != nil {
			continue
		}
		if tx.RecurringEndDate != nil && tx.RecurringEndDate.Before(now) {
			continue
		}
		out = append(out, *tx)
	}
	return out, nil
}

func (f *fakeLedger) LastChildDate(ctx context.Context, parentID string) (time.Time, error) {
	var last time.Time
	for _, tx := range f.transactions {
		if tx.ParentTransactionID != nil && *tx.ParentTransactionID == parentID && tx.Date.After(last) {
			last = tx.Date
		}
	}
	return last, nil
}

// --- subscriptions ---

func (f *fakeLedger) CreateSubscription(ctx context.Context, sub *domain.Subscription) (*domain.Subscription, error) {
	cp := *sub
	f.subscriptions[sub.ID] = &cp
	return sub, nil
}

func (f *fakeLedger) ListSubscriptions(ctx context.Context, userID string) ([]domain.Subscription, error) {
	var out []domain.Subscription
	for _, s := range f.subscriptions {
		if s.UserID == userID {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (f *fakeLedger) GetSubscription(ctx context.Context, userID, subscriptionID string) (*domain.Subscription, error) {
	s, ok := f.subscriptions[subscriptionID]
	if !ok || s.UserID != userID {
		return nil, &domain.ErrNotFound{Resource: "subscription", ID: subscriptionID}
	}
	cp := *s
	return &cp, nil
}

func (f *fakeLedger) UpdateSubscription(ctx context.Context, sub *domain.Subscription) (*domain.Subscription, error) {
	if _, ok := f.subscriptions[sub.ID]; !ok {
		return nil, &domain.ErrNotFound{Resource: "subscription", ID: sub.ID}
	}
	cp := *sub
	f.subscriptions[sub.ID] = &cp
	return sub, nil
}

func (f *fakeLedger) DeleteSubscription(ctx context.Context, userID, subscriptionID string) error {
	if _, err := f.GetSubscription(ctx, userID, subscriptionID); err != nil {
		return err
	}
	delete(f.subscriptions, subscriptionID)
	return nil
}

func (f *fakeLedger) ListDueSubscriptions(ctx context.Context, now time.Time) ([]domain.Subscription, error) {
	var out []domain.Subscription
	for _, s := range f.subscriptions {
		if s.IsActive && !s.NextPaymentDate.After(now) {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (f *fakeLedger) SetSubscriptionNextPayment(ctx context.Context, subscriptionID string, next time.Time) error {
	s, ok := f.subscriptions[subscriptionID]
	if !ok {
		return &domain.ErrNotFound{Resource: "subscription", ID: subscriptionID}
	}
	s.NextPaymentDate = next
	return nil
}

// --- credits ---

func (f *fakeLedger) CreateCredit(ctx context.Context, credit *domain.Credit, schedule []domain.CreditPayment) (*domain.Credit, error) {
	cp := *credit
	f.credits[credit.ID] = &cp
	for i := range schedule {
		p := schedule[i]
		f.payments[p.ID] = &p
	}
	return credit, nil
}

func (f *fakeLedger) ListCredits(ctx context.Context, userID string) ([]domain.Credit, error) {
	var out []domain.Credit
	for _, c := range f.credits {
		if c.UserID == userID {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (f *fakeLedger) GetCredit(ctx context.Context, userID, creditID string) (*domain.Credit, error) {
	c, ok := f.credits[creditID]
	if !ok || c.UserID != userID {
		return nil, &domain.ErrNotFound{Resource: "credit", ID: creditID}
	}
	cp := *c
	return &cp, nil
}

func (f *fakeLedger) GetCreditByID(ctx context.Context, creditID string) (*domain.Credit, error) {
	c, ok := f.credits[creditID]
	if !ok {
		return nil, &domain.ErrNotFound{Resource: "credit", ID: creditID}
	}
	cp := *c
	return &cp, nil
}

func (f *fakeLedger) UpdateCredit(ctx context.Context, credit *domain.Credit) (*domain.Credit, error) {
	if _, ok := f.credits[credit.ID]; !ok {
		return nil, &domain.ErrNotFound{Resource: "credit", ID: credit.ID}
	}
	cp := *credit
	f.credits[credit.ID] = &cp
	return credit, nil
}

func (f *fakeLedger) DeleteCredit(ctx context.Context, userID, creditID string) error {
	if _, err := f.GetCredit(ctx, userID, creditID); err != nil {
		return err
	}
	delete(f.credits, creditID)
	for id, p := range f.payments {
		if p.CreditID == creditID {
			delete(f.payments, id)
		}
	}
	return nil
}

func (f *fakeLedger) ListCreditPayments(ctx context.Context, creditID string) ([]domain.CreditPayment, error) {
	var out []domain.CreditPayment
	for _, p := range f.payments {
		if p.CreditID == creditID {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (f *fakeLedger) CreateCreditPayment(ctx context.Context, payment *domain.CreditPayment) (*domain.CreditPayment, error) {
	cp := *payment
	f.payments[payment.ID] = &cp
	return payment, nil
}

func (f *fakeLedger) ListDueCreditPayments(ctx context.Context, now time.Time) ([]domain.CreditPayment, error) {
	var out []domain.CreditPayment
	for _, p := range f.payments {
		if !p.IsPaid && !p.PaymentDate.After(now) {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (f *fakeLedger) ListUpcomingPayments(ctx context.Context, userID string, until time.Time) ([]domain.UpcomingPayment, error) {
	var out []domain.UpcomingPayment
	for _, p := range f.payments {
		c, ok := f.credits[p.CreditID]
		if !ok || c.UserID != userID || p.IsPaid || p.PaymentDate.After(until) {
			continue
		}
		out = append(out, domain.UpcomingPayment{
			CreditPayment: *p,
			CreditName:    c.Name,
			CreditType:    c.Type,
			AccountID:     c.AccountID,
		})
	}
	return out, nil
}

func (f *fakeLedger) MarkCreditPaymentPaid(ctx context.Context, paymentID string) error {
	p, ok := f.payments[paymentID]
	if !ok || p.IsPaid {
		return &domain.ErrNotFound{Resource: "credit payment", ID: paymentID}
	}
	p.IsPaid = true
	return nil
}

func (f *fakeLedger) AdjustCreditRemaining(ctx context.Context, creditID string, delta decimal.Decimal) error {
	c, ok := f.credits[creditID]
	if !ok {
		return &domain.ErrNotFound{Resource: "credit", ID: creditID}
	}
	c.RemainingAmount = decimal.Max(c.RemainingAmount.Add(delta), decimal.Zero)
	return nil
}

// --- projects ---

func (f *fakeLedger) CreateProject(ctx context.Context, project *domain.Project) (*domain.Project, error) {
	cp := *project
	f.projects[project.ID] = &cp
	return project, nil
}

func (f *fakeLedger) ListProjects(ctx context.Context, userID string) ([]domain.Project, error) {
	var out []domain.Project
	for _, p := range f.projects {
		if p.UserID == userID {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (f *fakeLedger) GetProject(ctx context.Context, userID, projectID string) (*domain.Project, error) {
	p, ok := f.projects[projectID]
	if !ok || p.UserID != userID {
		return nil, &domain.ErrNotFound{Resource: "project", ID: projectID}
	}
	cp := *p
	return &cp, nil
}

func (f *fakeLedger) UpdateProject(ctx context.Context, project *domain.Project) (*domain.Project, error) {
	if _, ok := f.projects[project.ID]; !ok {
		return nil, &domain.ErrNotFound{Resource: "project", ID: project.ID}
	}
	cp := *project
	f.projects[project.ID] = &cp
	return project, nil
}

func (f *fakeLedger) DeleteProject(ctx context.Context, userID, projectID string) error {
	if _, err := f.GetProject(ctx, userID, projectID); err != nil {
		return err
	}
	delete(f.projects, projectID)
	return nil
}

// --- users ---

func (f *fakeLedger) CreateUser(ctx context.Context, user *domain.User) (*domain.User, error) {
	for _, u := range f.users {
		if u.Email == user.Email {
			return nil, &domain.ErrConflict{Message: fmt.Sprintf("email already registered: %s", user.Email)}
		}
	}
	cp := *user
	f.users[user.ID] = &cp
	return user, nil
}

func (f *fakeLedger) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, &domain.ErrNotFound{Resource: "user", ID: email}
}

func (f *fakeLedger) GetUserByID(ctx context.Context, userID string) (*domain.User, error) {
	u, ok := f.users[userID]
	if !ok {
		return nil, &domain.ErrNotFound{Resource: "user", ID: userID}
	}
	cp := *u
	return &cp, nil
}
