package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/moneystack/moneystack-go/internal/domain"
)

const transactionColumns = `id, account_id, to_account_id, amount, type, category, description, date,
       is_recurring, recurring_frequency, recurring_end_date, parent_transaction_id, tags,
       created_at, updated_at`

func scanTransaction(row interface{ Scan(...any) error }) (*domain.Transaction, error) {
	var (
		tx       domain.Transaction
		toAcc    sql.NullString
		freq     sql.NullString
		endDate  sql.NullTime
		parentID sql.NullString
		tags     pq.StringArray
	)
	err := row.Scan(
		&tx.ID,
		&tx.AccountID,
		&toAcc,
		&tx.Amount,
		&tx.Type,
		&tx.Category,
		&tx.Description,
		&tx.Date,
		&tx.IsRecurring,
		&freq,
		&endDate,
		&parentID,
		&tags,
		&tx.CreatedAt,
		&tx.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if toAcc.Valid {
		tx.ToAccountID = &toAcc.String
	}
	if freq.Valid {
		tx.RecurringFrequency = domain.Frequency(freq.String)
	}
	if endDate.Valid {
		tx.RecurringEndDate = &endDate.Time
	}
	if parentID.Valid {
		tx.ParentTransactionID = &parentID.String
	}
	tx.Tags = []string(tags)
	return &tx, nil
}

func (l *Ledger) CreateTransaction(ctx context.Context, tx *domain.Transaction) (*domain.Transaction, error) {
	query := `
        INSERT INTO transactions (id, account_id, to_account_id, amount, type, category, description,
                                  date, is_recurring, recurring_frequency, recurring_end_date,
                                  parent_transaction_id, tags, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
    `
	var freq any
	if tx.RecurringFrequency != "" {
		freq = string(tx.RecurringFrequency)
	}
	_, err := l.q.ExecContext(ctx, query,
		tx.ID, tx.AccountID, tx.ToAccountID, tx.Amount, tx.Type, tx.Category, tx.Description,
		tx.Date, tx.IsRecurring, freq, tx.RecurringEndDate,
		tx.ParentTransactionID, pq.Array(tx.Tags), tx.CreatedAt, tx.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("create transaction: %w", err)
	}
	return tx, nil
}

func (l *Ledger) ListTransactions(ctx context.Context, filter domain.TransactionFilter) ([]domain.Transaction, error) {
	query := `
        SELECT ` + transactionColumns + `
        FROM transactions t
        WHERE EXISTS (SELECT 1 FROM accounts a WHERE a.id = t.account_id AND a.user_id = $1)
    `
	args := []any{filter.UserID}
	if filter.AccountID != "" {
		args = append(args, filter.AccountID)
		query += fmt.Sprintf(" AND t.account_id = $%d", len(args))
	}
	if filter.Type != "" {
		args = append(args, filter.Type)
		query += fmt.Sprintf(" AND t.type = $%d", len(args))
	}
	if filter.Category != "" {
		args = append(args, filter.Category)
		query += fmt.Sprintf(" AND t.category = $%d", len(args))
	}
	if filter.From != nil {
		args = append(args, *filter.From)
		query += fmt.Sprintf(" AND t.date >= $%d", len(args))
	}
	if filter.To != nil {
		args = append(args, *filter.To)
		query += fmt.Sprintf(" AND t.date <= $%d", len(args))
	}
	query += " ORDER BY t.date DESC, t.created_at DESC"

	page, pageSize := filter.Page, filter.PageSize
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 200 {
		pageSize = 50
	}
	args = append(args, pageSize, (page-1)*pageSize)
	query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := l.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var txs []domain.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		txs = append(txs, *tx)
	}
	return txs, rows.Err()
}

func (l *Ledger) GetTransaction(ctx context.Context, userID, transactionID string) (*domain.Transaction, error) {
	query := `
        SELECT ` + transactionColumns + `
        FROM transactions t
        WHERE t.id = $1
          AND EXISTS (SELECT 1 FROM accounts a WHERE a.id = t.account_id AND a.user_id = $2)
    `
	tx, err := scanTransaction(l.q.QueryRowContext(ctx, query, transactionID, userID))
	if err == sql.ErrNoRows {
		return nil, &domain.ErrNotFound{Resource: "transaction", ID: transactionID}
	}
	if err != nil {
		return nil, fmt.Errorf("get transaction: %w", err)
	}
	return tx, nil
}

func (l *Ledger) DeleteTransaction(ctx context.Context, userID, transactionID string) error {
	query := `
        DELETE FROM transactions t
        WHERE t.id = $1
          AND EXISTS (SELECT 1 FROM accounts a WHERE a.id = t.account_id AND a.user_id = $2)
    `
	res, err := l.q.ExecContext(ctx, query, transactionID, userID)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &domain.ErrNotFound{Resource: "transaction", ID: transactionID}
	}
	return nil
}

func (l *Ledger) ListRecurringParents(ctx context.Context, now time.Time) ([]domain.Transaction, error) {
	query := `
        SELECT ` + transactionColumns + `
        FROM transactions t
        WHERE t.is_recurring = TRUE
          AND t.parent_transaction_id IS NULL
          AND (t.recurring_end_date IS NULL OR t.recurring_end_date >= $1)
        ORDER BY t.date
    `
	rows, err := l.q.QueryContext(ctx, query, now)
	if err != nil {
		return nil, fmt.Errorf("list recurring parents: %w", err)
	}
	defer rows.Close()

	var txs []domain.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan recurring parent: %w", err)
		}
		txs = append(txs, *tx)
	}
	return txs, rows.Err()
}

func (l *Ledger) LastChildDate(ctx context.Context, parentID string) (time.Time, error) {
	var last sql.NullTime
	query := `SELECT MAX(date) FROM transactions WHERE parent_transaction_id = $1`
	if err := l.q.QueryRowContext(ctx, query, parentID).Scan(&last); err != nil {
		return time.Time{}, fmt.Errorf("last child date: %w", err)
	}
	if !last.Valid {
		return time.Time{}, nil
	}
	return last.Time, nil
}
