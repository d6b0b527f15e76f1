package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/moneystack/moneystack-go/internal/domain"
)

const subscriptionColumns = `id, user_id, account_id, name, amount, frequency, payment_day,
       next_payment_date, reminder_days, is_active, notes, created_at, updated_at`

func scanSubscription(row interface{ Scan(...any) error }) (*domain.Subscription, error) {
	var sub domain.Subscription
	err := row.Scan(
		&sub.ID,
		&sub.UserID,
		&sub.AccountID,
		&sub.Name,
		&sub.Amount,
		&sub.Frequency,
		&sub.PaymentDay,
		&sub.NextPaymentDate,
		&sub.ReminderDays,
		&sub.IsActive,
		&sub.Notes,
		&sub.CreatedAt,
		&sub.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

func (l *Ledger) CreateSubscription(ctx context.Context, sub *domain.Subscription) (*domain.Subscription, error) {
	query := `
        INSERT INTO subscriptions (id, user_id, account_id, name, amount, frequency, payment_day,
                                   next_payment_date, reminder_days, is_active, notes, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
    `
	_, err := l.q.ExecContext(ctx, query,
		sub.ID, sub.UserID, sub.AccountID, sub.Name, sub.Amount, sub.Frequency, sub.PaymentDay,
		sub.NextPaymentDate, sub.ReminderDays, sub.IsActive, sub.Notes, sub.CreatedAt, sub.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("create subscription: %w", err)
	}
	return sub, nil
}

func (l *Ledger) ListSubscriptions(ctx context.Context, userID string) ([]domain.Subscription, error) {
	query := `SELECT ` + subscriptionColumns + ` FROM subscriptions WHERE user_id = $1 ORDER BY next_payment_date`
	rows, err := l.q.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list subscriptions: %w", err)
	}
	defer rows.Close()

	var subs []domain.Subscription
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, fmt.Errorf("scan subscription: %w", err)
		}
		subs = append(subs, *sub)
	}
	return subs, rows.Err()
}

func (l *Ledger) GetSubscription(ctx context.Context, userID, subscriptionID string) (*domain.Subscription, error) {
	query := `SELECT ` + subscriptionColumns + ` FROM subscriptions WHERE id = $1 AND user_id = $2`
	sub, err := scanSubscription(l.q.QueryRowContext(ctx, query, subscriptionID, userID))
	if err == sql.ErrNoRows {
		return nil, &domain.ErrNotFound{Resource: "subscription", ID: subscriptionID}
	}
	if err != nil {
		return nil, fmt.Errorf("get subscription: %w", err)
	}
	return sub, nil
}

func (l *Ledger) UpdateSubscription(ctx context.Context, sub *domain.Subscription) (*domain.Subscription, error) {
	query := `
        UPDATE subscriptions
        SET account_id = $1, name = $2, amount = $3, frequency = $4, payment_day = $5,
            next_payment_date = $6, reminder_days = $7, is_active = $8, notes = $9, updated_at = NOW()
        WHERE id = $10 AND user_id = $11
    `
	res, err := l.q.ExecContext(ctx, query,
		sub.AccountID, sub.Name, sub.Amount, sub.Frequency, sub.PaymentDay,
		sub.NextPaymentDate, sub.ReminderDays, sub.IsActive, sub.Notes, sub.ID, sub.UserID,
	)
	if err != nil {
		return nil, fmt.Errorf("update subscription: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, &domain.ErrNotFound{Resource: "subscription", ID: sub.ID}
	}
	return sub, nil
}

func (l *Ledger) DeleteSubscription(ctx context.Context, userID, subscriptionID string) error {
	res, err := l.q.ExecContext(ctx, `DELETE FROM subscriptions WHERE id = $1 AND user_id = $2`, subscriptionID, userID)
	if err != nil {
		return fmt.Errorf("delete subscription: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &domain.ErrNotFound{Resource: "subscription", ID: subscriptionID}
	}
	return nil
}

func (l *Ledger) ListDueSubscriptions(ctx context.Context, now time.Time) ([]domain.Subscription, error) {
	query := `
        SELECT ` + subscriptionColumns + `
        FROM subscriptions
        WHERE is_active = TRUE AND next_payment_date <= $1
        ORDER BY next_payment_date
    `
	rows, err := l.q.QueryContext(ctx, query, now)
	if err != nil {
		return nil, fmt.Errorf("list due subscriptions: %w", err)
	}
	defer rows.Close()

	var subs []domain.Subscription
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, fmt.Errorf("scan due subscription: %w", err)
		}
		subs = append(subs, *sub)
	}
	return subs, rows.Err()
}

func (l *Ledger) SetSubscriptionNextPayment(ctx context.Context, subscriptionID string, next time.Time) error {
	query := `UPDATE subscriptions SET next_payment_date = $1, updated_at = NOW() WHERE id = $2`
	res, err := l.q.ExecContext(ctx, query, next, subscriptionID)
	if err != nil {
		return fmt.Errorf("set subscription next payment: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &domain.ErrNotFound{Resource: "subscription", ID: subscriptionID}
	}
	return nil
}
