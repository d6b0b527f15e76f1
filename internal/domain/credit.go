package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreditType classifies an amortizing credit.
type CreditType string

const (
	CreditMortgage CreditType = "MORTGAGE"
	CreditAuto     CreditType = "AUTO"
	CreditPersonal CreditType = "PERSONAL"
	CreditStudent  CreditType = "STUDENT"
	CreditOther    CreditType = "OTHER"
)

// Credit is an amortizing loan with a fixed monthly installment. Payments are
// implicitly monthly on PaymentDay. RemainingAmount is monotonically
// non-increasing and stays within [0, TotalAmount].
type Credit struct {
	ID              string          `json:"id"`
	UserID          string          `json:"user_id"`
	AccountID       string          `json:"account_id"`
	Name            string          `json:"name"`
	Type            CreditType      `json:"type"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	RemainingAmount decimal.Decimal `json:"remaining_amount"`
	MonthlyPayment  decimal.Decimal `json:"monthly_payment"`
	InterestRate    decimal.Decimal `json:"interest_rate"` // annual, percent
	StartDate       time.Time       `json:"start_date"`
	EndDate         time.Time       `json:"end_date"`
	PaymentDay      int             `json:"payment_day"`
	ReminderDays    int             `json:"reminder_days"`
	Notes           string          `json:"notes,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// CreditPayment is one installment of a credit's schedule. The full schedule
// is generated at credit creation; entries already in the past are created
// with IsPaid=true and never touch the account balance (historical entries
// are considered settled outside the system).
type CreditPayment struct {
	ID               string          `json:"id"`
	CreditID         string          `json:"credit_id"`
	Amount           decimal.Decimal `json:"amount"`
	Principal        decimal.Decimal `json:"principal"`
	Interest         decimal.Decimal `json:"interest"`
	RemainingBalance decimal.Decimal `json:"remaining_balance"`
	PaymentDate      time.Time       `json:"payment_date"`
	IsPaid           bool            `json:"is_paid"`
	CreatedAt        time.Time       `json:"created_at"`
}

// CreditRequest is the payload to create a credit.
type CreditRequest struct {
	AccountID       string           `json:"account_id"`
	Name            string           `json:"name"`
	Type            CreditType       `json:"type"`
	TotalAmount     decimal.Decimal  `json:"total_amount"`
	RemainingAmount *decimal.Decimal `json:"remaining_amount,omitempty"`
	MonthlyPayment  decimal.Decimal  `json:"monthly_payment"`
	InterestRate    decimal.Decimal  `json:"interest_rate"`
	StartDate       time.Time        `json:"start_date"`
	EndDate         time.Time        `json:"end_date"`
	PaymentDay      int              `json:"payment_day"`
	ReminderDays    int              `json:"reminder_days,omitempty"`
	Notes           string           `json:"notes,omitempty"`
}

// CreditUpdateRequest is the payload to partially update a credit. The
// amortization parameters (total, rate, start) are immutable after creation.
type CreditUpdateRequest struct {
	Name            string           `json:"name,omitempty"`
	RemainingAmount *decimal.Decimal `json:"remaining_amount,omitempty"`
	MonthlyPayment  *decimal.Decimal `json:"monthly_payment,omitempty"`
	ReminderDays    int              `json:"reminder_days,omitempty"`
	Notes           string           `json:"notes,omitempty"`
}

// RecordPaymentRequest is the payload to record a manual credit payment.
type RecordPaymentRequest struct {
	Amount      decimal.Decimal `json:"amount"`
	Principal   decimal.Decimal `json:"principal"`
	Interest    decimal.Decimal `json:"interest"`
	PaymentDate time.Time       `json:"payment_date"`
}

// UpcomingPayment is a due-soon schedule entry enriched for display.
type UpcomingPayment struct {
	CreditPayment
	CreditName string     `json:"credit_name"`
	CreditType CreditType `json:"credit_type"`
	AccountID  string     `json:"account_id"`
	DaysUntil  int        `json:"days_until"`
}
