package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/moneystack/moneystack-go/internal/domain"
)

const creditColumns = `id, user_id, account_id, name, type, total_amount, remaining_amount,
       monthly_payment, interest_rate, start_date, end_date, payment_day, reminder_days, notes,
       created_at, updated_at`

const creditPaymentColumns = `id, credit_id, amount, principal, interest, remaining_balance,
       payment_date, is_paid, created_at`

func scanCredit(row interface{ Scan(...any) error }) (*domain.Credit, error) {
	var c domain.Credit
	err := row.Scan(
		&c.ID,
		&c.UserID,
		&c.AccountID,
		&c.Name,
		&c.Type,
		&c.TotalAmount,
		&c.RemainingAmount,
		&c.MonthlyPayment,
		&c.InterestRate,
		&c.StartDate,
		&c.EndDate,
		&c.PaymentDay,
		&c.ReminderDays,
		&c.Notes,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func scanCreditPayment(row interface{ Scan(...any) error }) (*domain.CreditPayment, error) {
	var p domain.CreditPayment
	err := row.Scan(
		&p.ID,
		&p.CreditID,
		&p.Amount,
		&p.Principal,
		&p.Interest,
		&p.RemainingBalance,
		&p.PaymentDate,
		&p.IsPaid,
		&p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// CreateCredit inserts the credit and its full payment schedule. Callers
// wrap it in RunAtomic so a failed schedule insert leaves no orphan credit.
func (l *Ledger) CreateCredit(ctx context.Context, credit *domain.Credit, schedule []domain.CreditPayment) (*domain.Credit, error) {
	query := `
        INSERT INTO credits (id, user_id, account_id, name, type, total_amount, remaining_amount,
                             monthly_payment, interest_rate, start_date, end_date, payment_day,
                             reminder_days, notes, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
    `
	_, err := l.q.ExecContext(ctx, query,
		credit.ID, credit.UserID, credit.AccountID, credit.Name, credit.Type,
		credit.TotalAmount, credit.RemainingAmount, credit.MonthlyPayment, credit.InterestRate,
		credit.StartDate, credit.EndDate, credit.PaymentDay, credit.ReminderDays, credit.Notes,
		credit.CreatedAt, credit.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("create credit: %w", err)
	}
	for i := range schedule {
		if _, err := l.CreateCreditPayment(ctx, &schedule[i]); err != nil {
			return nil, err
		}
	}
	return credit, nil
}

func (l *Ledger) ListCredits(ctx context.Context, userID string) ([]domain.Credit, error) {
	query := `SELECT ` + creditColumns + ` FROM credits WHERE user_id = $1 ORDER BY created_at`
	rows, err := l.q.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list credits: %w", err)
	}
	defer rows.Close()

	var credits []domain.Credit
	for rows.Next() {
		c, err := scanCredit(rows)
		if err != nil {
			return nil, fmt.Errorf("scan credit: %w", err)
		}
		credits = append(credits, *c)
	}
	return credits, rows.Err()
}

func (l *Ledger) GetCredit(ctx context.Context, userID, creditID string) (*domain.Credit, error) {
	query := `SELECT ` + creditColumns + ` FROM credits WHERE id = $1 AND user_id = $2`
	c, err := scanCredit(l.q.QueryRowContext(ctx, query, creditID, userID))
	if err == sql.ErrNoRows {
		return nil, &domain.ErrNotFound{Resource: "credit", ID: creditID}
	}
	if err != nil {
		return nil, fmt.Errorf("get credit: %w", err)
	}
	return c, nil
}

func (l *Ledger) GetCreditByID(ctx context.Context, creditID string) (*domain.Credit, error) {
	query := `SELECT ` + creditColumns + ` FROM credits WHERE id = $1`
	c, err := scanCredit(l.q.QueryRowContext(ctx, query, creditID))
	if err == sql.ErrNoRows {
		return nil, &domain.ErrNotFound{Resource: "credit", ID: creditID}
	}
	if err != nil {
		return nil, fmt.Errorf("get credit by id: %w", err)
	}
	return c, nil
}

func (l *Ledger) UpdateCredit(ctx context.Context, credit *domain.Credit) (*domain.Credit, error) {
	query := `
        UPDATE credits
        SET name = $1, type = $2, remaining_amount = $3, monthly_payment = $4, interest_rate = $5,
            payment_day = $6, reminder_days = $7, notes = $8, updated_at = NOW()
        WHERE id = $9 AND user_id = $10
    `
	res, err := l.q.ExecContext(ctx, query,
		credit.Name, credit.Type, credit.RemainingAmount, credit.MonthlyPayment, credit.InterestRate,
		credit.PaymentDay, credit.ReminderDays, credit.Notes, credit.ID, credit.UserID,
	)
	if err != nil {
		return nil, fmt.Errorf("update credit: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, &domain.ErrNotFound{Resource: "credit", ID: credit.ID}
	}
	return credit, nil
}

func (l *Ledger) DeleteCredit(ctx context.Context, userID, creditID string) error {
	res, err := l.q.ExecContext(ctx, `DELETE FROM credits WHERE id = $1 AND user_id = $2`, creditID, userID)
	if err != nil {
		return fmt.Errorf("delete credit: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &domain.ErrNotFound{Resource: "credit", ID: creditID}
	}
	return nil
}

func (l *Ledger) ListCreditPayments(ctx context.Context, creditID string) ([]domain.CreditPayment, error) {
	query := `SELECT ` + creditPaymentColumns + ` FROM credit_payments WHERE credit_id = $1 ORDER BY payment_date`
	rows, err := l.q.QueryContext(ctx, query, creditID)
	if err != nil {
		return nil, fmt.Errorf("list credit payments: %w", err)
	}
	defer rows.Close()

	var payments []domain.CreditPayment
	for rows.Next() {
		p, err := scanCreditPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan credit payment: %w", err)
		}
		payments = append(payments, *p)
	}
	return payments, rows.Err()
}

func (l *Ledger) CreateCreditPayment(ctx context.Context, payment *domain.CreditPayment) (*domain.CreditPayment, error) {
	query := `
        INSERT INTO credit_payments (id, credit_id, amount, principal, interest, remaining_balance,
                                     payment_date, is_paid, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
    `
	_, err := l.q.ExecContext(ctx, query,
		payment.ID, payment.CreditID, payment.Amount, payment.Principal, payment.Interest,
		payment.RemainingBalance, payment.PaymentDate, payment.IsPaid, payment.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("create credit payment: %w", err)
	}
	return payment, nil
}

func (l *Ledger) ListDueCreditPayments(ctx context.Context, now time.Time) ([]domain.CreditPayment, error) {
	query := `
        SELECT ` + creditPaymentColumns + `
        FROM credit_payments
        WHERE is_paid = FALSE AND payment_date <= $1
        ORDER BY payment_date
    `
	rows, err := l.q.QueryContext(ctx, query, now)
	if err != nil {
		return nil, fmt.Errorf("list due credit payments: %w", err)
	}
	defer rows.Close()

	var payments []domain.CreditPayment
	for rows.Next() {
		p, err := scanCreditPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan due credit payment: %w", err)
		}
		payments = append(payments, *p)
	}
	return payments, rows.Err()
}

func (l *Ledger) ListUpcomingPayments(ctx context.Context, userID string, until time.Time) ([]domain.UpcomingPayment, error) {
	query := `
        SELECT p.id, p.credit_id, p.amount, p.principal, p.interest, p.remaining_balance,
               p.payment_date, p.is_paid, p.created_at,
               c.name, c.type, c.account_id
        FROM credit_payments p
        JOIN credits c ON c.id = p.credit_id
        WHERE c.user_id = $1 AND p.is_paid = FALSE AND p.payment_date <= $2
        ORDER BY p.payment_date
    `
	rows, err := l.q.QueryContext(ctx, query, userID, until)
	if err != nil {
		return nil, fmt.Errorf("list upcoming payments: %w", err)
	}
	defer rows.Close()

	var out []domain.UpcomingPayment
	for rows.Next() {
		var up domain.UpcomingPayment
		err := rows.Scan(
			&up.ID, &up.CreditID, &up.Amount, &up.Principal, &up.Interest, &up.RemainingBalance,
			&up.PaymentDate, &up.IsPaid, &up.CreatedAt,
			&up.CreditName, &up.CreditType, &up.AccountID,
		)
		if err != nil {
			return nil, fmt.Errorf("scan upcoming payment: %w", err)
		}
		out = append(out, up)
	}
	return out, rows.Err()
}

func (l *Ledger) MarkCreditPaymentPaid(ctx context.Context, paymentID string) error {
	query := `UPDATE credit_payments SET is_paid = TRUE WHERE id = $1 AND is_paid = FALSE`
	res, err := l.q.ExecContext(ctx, query, paymentID)
	if err != nil {
		return fmt.Errorf("mark credit payment paid: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &domain.ErrNotFound{Resource: "credit payment", ID: paymentID}
	}
	return nil
}

// AdjustCreditRemaining decrements the outstanding balance, flooring at
// zero so rounding in the last installment cannot push it negative.
func (l *Ledger) AdjustCreditRemaining(ctx context.Context, creditID string, delta decimal.Decimal) error {
	query := `
        UPDATE credits
        SET remaining_amount = GREATEST(remaining_amount + $1, 0), updated_at = NOW()
        WHERE id = $2
    `
	res, err := l.q.ExecContext(ctx, query, delta, creditID)
	if err != nil {
		return fmt.Errorf("adjust credit remaining: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &domain.ErrNotFound{Resource: "credit", ID: creditID}
	}
	return nil
}
