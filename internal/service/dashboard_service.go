package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/moneystack/moneystack-go/internal/domain"
	"github.com/moneystack/moneystack-go/internal/infra/observability"
	"github.com/moneystack/moneystack-go/internal/port"
)

var dashTracer = otel.Tracer("service/dashboard")

// monthlyFactor converts a subscription amount at a given frequency into an
// approximate monthly burden.
var monthlyFactor = map[domain.Frequency]decimal.Decimal{
	domain.FrequencyDaily:     decimal.NewFromFloat(30.44),
	domain.FrequencyWeekly:    decimal.NewFromFloat(4.35),
	domain.FrequencyBiweekly:  decimal.NewFromFloat(2.17),
	domain.FrequencyMonthly:   decimal.NewFromInt(1),
	domain.FrequencyQuarterly: decimal.NewFromFloat(1.0 / 3.0),
	domain.FrequencyYearly:    decimal.NewFromFloat(1.0 / 12.0),
}

// monthlyEquivalent normalizes an amount at the given frequency to its
// approximate monthly burden, rounded to cents. Unknown frequencies count
// as monthly.
func monthlyEquivalent(amount decimal.Decimal, freq domain.Frequency) decimal.Decimal {
	factor, ok := monthlyFactor[freq]
	if !ok {
		factor = decimal.NewFromInt(1)
	}
	return amount.Mul(factor).Round(2)
}

// DashboardService aggregates the user's financial position, cached per user.
type DashboardService struct {
	store   port.LedgerStore
	cache   port.Cache[*domain.DashboardSummary]
	metrics *observability.Metrics
	logger  *zap.Logger
	horizon time.Duration
}

// NewDashboardService creates a new dashboard service.
func NewDashboardService(store port.LedgerStore, cache port.Cache[*domain.DashboardSummary], metrics *observability.Metrics, logger *zap.Logger, horizon time.Duration) *DashboardService {
	return &DashboardService{store: store, cache: cache, metrics: metrics, logger: logger, horizon: horizon}
}

// Summary computes (or serves from cache) the dashboard aggregate.
func (s *DashboardService) Summary(ctx context.Context, userID string) (*domain.DashboardSummary, error) {
	ctx, span := dashTracer.Start(ctx, "DashboardService.Summary")
	defer span.End()

	if cached, ok := s.cache.Get(userID); ok {
		s.metrics.IncrCacheHit("dashboard")
		return cached, nil
	}
	s.metrics.IncrCacheMiss("dashboard")

	now := time.Now().UTC()
	summary := &domain.DashboardSummary{GeneratedAt: now}

	accounts, err := s.store.ListAccounts(ctx, userID)
	if err != nil {
		return nil, err
	}
	summary.AccountCount = len(accounts)
	for _, acc := range accounts {
		summary.TotalBalance = summary.TotalBalance.Add(acc.Balance)
	}

	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	txs, err := s.store.ListTransactions(ctx, domain.TransactionFilter{
		UserID:   userID,
		From:     &monthStart,
		To:       &now,
		PageSize: 200,
	})
	if err != nil {
		return nil, err
	}
	for _, tx := range txs {
		switch tx.Type {
		case domain.TransactionIncome:
			summary.MonthlyIncome = summary.MonthlyIncome.Add(tx.Amount)
		case domain.TransactionExpense:
			summary.MonthlyExpenses = summary.MonthlyExpenses.Add(tx.Amount)
		}
	}

	subs, err := s.store.ListSubscriptions(ctx, userID)
	if err != nil {
		return nil, err
	}
	for _, sub := range subs {
		if !sub.IsActive {
			continue
		}
		summary.SubscriptionsTotal = summary.SubscriptionsTotal.Add(monthlyEquivalent(sub.Amount, sub.Frequency))
	}

	credits, err := s.store.ListCredits(ctx, userID)
	if err != nil {
		return nil, err
	}
	for _, c := range credits {
		summary.CreditsRemaining = summary.CreditsRemaining.Add(c.RemainingAmount)
	}

	projects, err := s.store.ListProjects(ctx, userID)
	if err != nil {
		return nil, err
	}
	for _, p := range projects {
		summary.ProjectsSaved = summary.ProjectsSaved.Add(p.SavedAmount)
	}

	upcoming, err := s.store.ListUpcomingPayments(ctx, userID, now.Add(s.horizon))
	if err != nil {
		return nil, err
	}
	summary.UpcomingPayments = len(upcoming)

	s.cache.Set(userID, summary)
	return summary, nil
}

// Invalidate drops the cached summary for a user, called after writes that
// change balances.
func (s *DashboardService) Invalidate(userID string) {
	s.cache.Delete(userID)
}
