package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Subscription is a recurring payment the user has committed to (streaming,
// rent, insurance...). NextPaymentDate is the anchor the scheduler compares
// against "now"; after each settlement it advances by one frequency step.
type Subscription struct {
	ID              string          `json:"id"`
	UserID          string          `json:"user_id"`
	AccountID       string          `json:"account_id"`
	Name            string          `json:"name"`
	Amount          decimal.Decimal `json:"amount"`
	Frequency       Frequency       `json:"frequency"`
	PaymentDay      int             `json:"payment_day"` // 1-31, clamped to month length
	NextPaymentDate time.Time       `json:"next_payment_date"`
	ReminderDays    int             `json:"reminder_days"`
	IsActive        bool            `json:"is_active"`
	Notes           string          `json:"notes,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// UpcomingSubscription is a due-soon subscription enriched for display.
type UpcomingSubscription struct {
	Subscription
	DaysUntil int `json:"days_until"`
}

// SubscriptionRequest is the payload to create or update a subscription.
type SubscriptionRequest struct {
	AccountID    string          `json:"account_id"`
	Name         string          `json:"name"`
	Amount       decimal.Decimal `json:"amount"`
	Frequency    Frequency       `json:"frequency"`
	PaymentDay   int             `json:"payment_day"`
	ReminderDays int             `json:"reminder_days,omitempty"`
	IsActive     *bool           `json:"is_active,omitempty"`
	Notes        string          `json:"notes,omitempty"`
}
