package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProjectStatus is the lifecycle state of a savings project.
type ProjectStatus string

const (
	ProjectActive    ProjectStatus = "ACTIVE"
	ProjectCompleted ProjectStatus = "COMPLETED"
	ProjectPaused    ProjectStatus = "PAUSED"
	ProjectCancelled ProjectStatus = "CANCELLED"
)

// Project is a savings goal funded by contributions from an account.
type Project struct {
	ID           string          `json:"id"`
	UserID       string          `json:"user_id"`
	AccountID    string          `json:"account_id"`
	Name         string          `json:"name"`
	TargetAmount decimal.Decimal `json:"target_amount"`
	SavedAmount  decimal.Decimal `json:"saved_amount"`
	Deadline     *time.Time      `json:"deadline,omitempty"`
	Status       ProjectStatus   `json:"status"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// ProjectRequest is the payload to create or update a project.
type ProjectRequest struct {
	AccountID    string          `json:"account_id"`
	Name         string          `json:"name"`
	TargetAmount decimal.Decimal `json:"target_amount"`
	Deadline     *time.Time      `json:"deadline,omitempty"`
}

// ContributeRequest moves money from the funding account into the project.
type ContributeRequest struct {
	Amount decimal.Decimal `json:"amount"`
}
