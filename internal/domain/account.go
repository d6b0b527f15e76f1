// Package domain defines the core business entities for MoneyStack.
// These models are independent of the persistence layer and represent the
// canonical data structures used throughout the backend.
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// AccountType classifies a money account.
type AccountType string

const (
	AccountChecking   AccountType = "CHECKING"
	AccountSavings    AccountType = "SAVINGS"
	AccountCash       AccountType = "CASH"
	AccountInvestment AccountType = "INVESTMENT"
	AccountCreditCard AccountType = "CREDIT_CARD"
)

// Account represents a user's money account. Balance is mutated only through
// atomic increments in the store, never read-modify-write.
type Account struct {
	ID        string          `json:"id"`
	UserID    string          `json:"user_id"`
	Name      string          `json:"name"`
	Type      AccountType     `json:"type"`
	Balance   decimal.Decimal `json:"balance"`
	Currency  string          `json:"currency"`
	IsDefault bool            `json:"is_default"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// AccountRequest is the payload to create or update an account.
type AccountRequest struct {
	Name      string          `json:"name"`
	Type      AccountType     `json:"type"`
	Balance   decimal.Decimal `json:"balance"`
	Currency  string          `json:"currency,omitempty"`
	IsDefault bool            `json:"is_default,omitempty"`
}
