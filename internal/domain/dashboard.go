package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// DashboardSummary aggregates a user's financial position.
type DashboardSummary struct {
	TotalBalance       decimal.Decimal `json:"total_balance"`
	MonthlyIncome      decimal.Decimal `json:"monthly_income"`
	MonthlyExpenses    decimal.Decimal `json:"monthly_expenses"`
	SubscriptionsTotal decimal.Decimal `json:"subscriptions_total"` // active monthly burden
	CreditsRemaining   decimal.Decimal `json:"credits_remaining"`
	ProjectsSaved      decimal.Decimal `json:"projects_saved"`
	AccountCount       int             `json:"account_count"`
	UpcomingPayments   int             `json:"upcoming_payments"`
	GeneratedAt        time.Time       `json:"generated_at"`
}

// SchedulerMetrics is a point-in-time snapshot of settlement activity,
// served by GET /v1/metrics/scheduler.
type SchedulerMetrics struct {
	RunsTotal          int64   `json:"runs_total"`
	ItemsSettled       int64   `json:"items_settled"`
	ItemsFailed        int64   `json:"items_failed"`
	SubscriptionsPaid  int64   `json:"subscriptions_paid"`
	CreditPaymentsPaid int64   `json:"credit_payments_paid"`
	RecurringCloned    int64   `json:"recurring_cloned"`
	FailureRate        float64 `json:"failure_rate"`
	CacheHitRate       float64 `json:"cache_hit_rate"`
	Period             string  `json:"period"`
}
