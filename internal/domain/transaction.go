package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType is the direction of a transaction.
type TransactionType string

const (
	TransactionIncome   TransactionType = "INCOME"
	TransactionExpense  TransactionType = "EXPENSE"
	TransactionTransfer TransactionType = "TRANSFER"
)

// Frequency describes how often a recurring obligation repeats.
type Frequency string

const (
	FrequencyDaily     Frequency = "DAILY"
	FrequencyWeekly    Frequency = "WEEKLY"
	FrequencyBiweekly  Frequency = "BIWEEKLY"
	FrequencyMonthly   Frequency = "MONTHLY"
	FrequencyQuarterly Frequency = "QUARTERLY"
	FrequencyYearly    Frequency = "YEARLY"
)

// Transaction is a concrete money movement on an account. A transaction with
// IsRecurring set acts as a template: the scheduler clones it into child
// transactions linked back via ParentTransactionID.
type Transaction struct {
	ID                  string          `json:"id"`
	AccountID           string          `json:"account_id"`
	ToAccountID         *string         `json:"to_account_id,omitempty"` // TRANSFER only
	Amount              decimal.Decimal `json:"amount"`
	Type                TransactionType `json:"type"`
	Category            string          `json:"category,omitempty"`
	Description         string          `json:"description"`
	Date                time.Time       `json:"date"`
	IsRecurring         bool            `json:"is_recurring"`
	RecurringFrequency  Frequency       `json:"recurring_frequency,omitempty"`
	RecurringEndDate    *time.Time      `json:"recurring_end_date,omitempty"`
	ParentTransactionID *string         `json:"parent_transaction_id,omitempty"`
	Tags                []string        `json:"tags,omitempty"`
	CreatedAt           time.Time       `json:"created_at"`
	UpdatedAt           time.Time       `json:"updated_at"`
}

// TransactionRequest is the payload to create a transaction.
type TransactionRequest struct {
	AccountID          string          `json:"account_id"`
	ToAccountID        *string         `json:"to_account_id,omitempty"`
	Amount             decimal.Decimal `json:"amount"`
	Type               TransactionType `json:"type"`
	Category           string          `json:"category,omitempty"`
	Description        string          `json:"description"`
	Date               time.Time       `json:"date"`
	IsRecurring        bool            `json:"is_recurring,omitempty"`
	RecurringFrequency Frequency       `json:"recurring_frequency,omitempty"`
	RecurringEndDate   *time.Time      `json:"recurring_end_date,omitempty"`
	Tags               []string        `json:"tags,omitempty"`
}

// TransactionFilter narrows transaction listings.
type TransactionFilter struct {
	UserID    string
	AccountID string
	Type      TransactionType
	Category  string
	From      *time.Time
	To        *time.Time
	Page      int
	PageSize  int
}
