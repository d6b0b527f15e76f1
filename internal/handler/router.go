// Package handler wires HTTP routes to services.
package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/moneystack/moneystack-go/internal/infra/observability"
	"github.com/moneystack/moneystack-go/internal/service"
)

var tracer = otel.Tracer("handler")

// Services bundles everything the router depends on.
type Services struct {
	Accounts      *service.AccountService
	Transactions  *service.TransactionService
	Subscriptions *service.SubscriptionService
	Credits       *service.CreditService
	Projects      *service.ProjectService
	Dashboard     *service.DashboardService
	Settlement    *service.SettlementService
	Auth          *service.AuthService
}

// NewRouter creates the HTTP router with all routes and middleware.
func NewRouter(svcs Services, metrics *observability.Metrics, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	// --- Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.ZapLoggerMiddleware(logger))
	r.Use(observability.TracingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(requestMetricsMiddleware(metrics))
	r.Use(middleware.Heartbeat("/ping"))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// --- Operational endpoints ---
	r.Get("/healthz", healthzHandler())
	r.Get("/readyz", readyzHandler(svcs.Accounts, logger))
	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	// --- API v1 ---
	r.Route("/v1", func(r chi.Router) {

		// Public
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authRegisterHandler(svcs.Auth, logger))
			r.Post("/login", authLoginHandler(svcs.Auth, logger))
		})

		// Protected
		r.Group(func(r chi.Router) {
			r.Use(JWTAuthMiddleware(svcs.Auth, logger))

			// Accounts
			r.Get("/accounts", listAccountsHandler(svcs.Accounts, logger))
			r.Post("/accounts", createAccountHandler(svcs.Accounts, svcs.Dashboard, logger))
			r.Get("/accounts/{accountId}", getAccountHandler(svcs.Accounts, logger))
			r.Put("/accounts/{accountId}", updateAccountHandler(svcs.Accounts, logger))
			r.Delete("/accounts/{accountId}", deleteAccountHandler(svcs.Accounts, svcs.Dashboard, logger))

			// Transactions
			r.Get("/transactions", listTransactionsHandler(svcs.Transactions, logger))
			r.Post("/transactions", createTransactionHandler(svcs.Transactions, svcs.Dashboard, logger))
			r.Get("/transactions/{transactionId}", getTransactionHandler(svcs.Transactions, logger))
			r.Delete("/transactions/{transactionId}", deleteTransactionHandler(svcs.Transactions, svcs.Dashboard, logger))

			// Subscriptions
			r.Get("/subscriptions", listSubscriptionsHandler(svcs.Subscriptions, logger))
			r.Post("/subscriptions", createSubscriptionHandler(svcs.Subscriptions, logger))
			r.Get("/subscriptions/upcoming", upcomingSubscriptionsHandler(svcs.Subscriptions, logger))
			r.Get("/subscriptions/total-monthly", subscriptionsTotalMonthlyHandler(svcs.Subscriptions, logger))
			r.Get("/subscriptions/{subscriptionId}", getSubscriptionHandler(svcs.Subscriptions, logger))
			r.Put("/subscriptions/{subscriptionId}", updateSubscriptionHandler(svcs.Subscriptions, logger))
			r.Delete("/subscriptions/{subscriptionId}", deleteSubscriptionHandler(svcs.Subscriptions, logger))
			r.Post("/subscriptions/{subscriptionId}/process-payment", processSubscriptionPaymentHandler(svcs.Subscriptions, svcs.Dashboard, logger))

			// Credits
			r.Get("/credits", listCreditsHandler(svcs.Credits, logger))
			r.Post("/credits", createCreditHandler(svcs.Credits, logger))
			r.Get("/credits/upcoming", upcomingPaymentsHandler(svcs.Credits, logger))
			r.Get("/credits/total-monthly", creditsTotalMonthlyHandler(svcs.Credits, logger))
			r.Get("/credits/{creditId}", getCreditHandler(svcs.Credits, logger))
			r.Patch("/credits/{creditId}", updateCreditHandler(svcs.Credits, logger))
			r.Delete("/credits/{creditId}", deleteCreditHandler(svcs.Credits, logger))
			r.Get("/credits/{creditId}/payments", listCreditPaymentsHandler(svcs.Credits, logger))
			r.Post("/credits/{creditId}/payments", recordCreditPaymentHandler(svcs.Credits, svcs.Dashboard, logger))

			// Projects
			r.Get("/projects", listProjectsHandler(svcs.Projects, logger))
			r.Post("/projects", createProjectHandler(svcs.Projects, logger))
			r.Get("/projects/{projectId}", getProjectHandler(svcs.Projects, logger))
			r.Delete("/projects/{projectId}", deleteProjectHandler(svcs.Projects, logger))
			r.Post("/projects/{projectId}/contribute", contributeProjectHandler(svcs.Projects, svcs.Dashboard, logger))
			r.Put("/projects/{projectId}/status", projectStatusHandler(svcs.Projects, logger))

			// Dashboard
			r.Get("/dashboard", dashboardHandler(svcs.Dashboard, logger))

			// Scheduler
			r.Post("/scheduler/process-due", processDueHandler(svcs.Settlement, logger))
			r.Get("/metrics/scheduler", schedulerMetricsHandler(metrics))
		})
	})

	return r
}

// requestMetricsMiddleware observes request durations labeled by route
// pattern, not raw path, to keep metric cardinality bounded.
func requestMetricsMiddleware(metrics *observability.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)
			pattern := chi.RouteContext(r.Context()).RoutePattern()
			if pattern == "" {
				pattern = "unmatched"
			}
			metrics.RecordRequestDuration(r.Method+" "+pattern, time.Since(start))
		})
	}
}

// ============================================================
// Health
// ============================================================

func healthzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	}
}

// readyzHandler probes the database through a cheap store call.
func readyzHandler(accounts *service.AccountService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, err := accounts.List(r.Context(), "readiness-probe"); err != nil {
			logger.Warn("readiness probe failed", zap.Error(err))
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not ready"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

// ============================================================
// Scheduler
// ============================================================

func processDueHandler(settlement *service.SettlementService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/scheduler/process-due")
		defer span.End()

		result, err := settlement.ProcessDue(ctx)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, result)
	}
}

func schedulerMetricsHandler(metrics *observability.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, metrics.GetSchedulerSnapshot())
	}
}
