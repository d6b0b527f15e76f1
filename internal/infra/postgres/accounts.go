package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/moneystack/moneystack-go/internal/domain"
)

const accountColumns = `id, user_id, name, type, balance, currency, is_default, created_at, updated_at`

func scanAccount(row interface{ Scan(...any) error }) (*domain.Account, error) {
	var acc domain.Account
	err := row.Scan(
		&acc.ID,
		&acc.UserID,
		&acc.Name,
		&acc.Type,
		&acc.Balance,
		&acc.Currency,
		&acc.IsDefault,
		&acc.CreatedAt,
		&acc.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &acc, nil
}

func (l *Ledger) CreateAccount(ctx context.Context, acc *domain.Account) (*domain.Account, error) {
	query := `
        INSERT INTO accounts (id, user_id, name, type, balance, currency, is_default, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
    `
	_, err := l.q.ExecContext(ctx, query,
		acc.ID, acc.UserID, acc.Name, acc.Type, acc.Balance, acc.Currency,
		acc.IsDefault, acc.CreatedAt, acc.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("create account: %w", err)
	}
	return acc, nil
}

func (l *Ledger) ListAccounts(ctx context.Context, userID string) ([]domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE user_id = $1 ORDER BY created_at`
	rows, err := l.q.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []domain.Account
	for rows.Next() {
		acc, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		accounts = append(accounts, *acc)
	}
	return accounts, rows.Err()
}

func (l *Ledger) GetAccount(ctx context.Context, userID, accountID string) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1 AND user_id = $2`
	acc, err := scanAccount(l.q.QueryRowContext(ctx, query, accountID, userID))
	if err == sql.ErrNoRows {
		return nil, &domain.ErrNotFound{Resource: "account", ID: accountID}
	}
	if err != nil {
		return nil, fmt.Errorf("get account: %w", err)
	}
	return acc, nil
}

func (l *Ledger) UpdateAccount(ctx context.Context, acc *domain.Account) (*domain.Account, error) {
	query := `
        UPDATE accounts
        SET name = $1, type = $2, currency = $3, is_default = $4, updated_at = NOW()
        WHERE id = $5 AND user_id = $6
    `
	res, err := l.q.ExecContext(ctx, query,
		acc.Name, acc.Type, acc.Currency, acc.IsDefault, acc.ID, acc.UserID,
	)
	if err != nil {
		return nil, fmt.Errorf("update account: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, &domain.ErrNotFound{Resource: "account", ID: acc.ID}
	}
	return acc, nil
}

func (l *Ledger) DeleteAccount(ctx context.Context, userID, accountID string) error {
	res, err := l.q.ExecContext(ctx, `DELETE FROM accounts WHERE id = $1 AND user_id = $2`, accountID, userID)
	if err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &domain.ErrNotFound{Resource: "account", ID: accountID}
	}
	return nil
}

func (l *Ledger) ClearDefaultAccount(ctx context.Context, userID string) error {
	_, err := l.q.ExecContext(ctx, `UPDATE accounts SET is_default = FALSE WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("clear default account: %w", err)
	}
	return nil
}

func (l *Ledger) AdjustBalance(ctx context.Context, accountID string, delta decimal.Decimal) error {
	query := `UPDATE accounts SET balance = balance + $1, updated_at = NOW() WHERE id = $2`
	res, err := l.q.ExecContext(ctx, query, delta, accountID)
	if err != nil {
		return fmt.Errorf("adjust balance: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &domain.ErrNotFound{Resource: "account", ID: accountID}
	}
	return nil
}
