package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/moneystack/moneystack-go/internal/domain"
	"github.com/moneystack/moneystack-go/internal/service"
)

// ============================================================
// Credits
// ============================================================

func listCreditsHandler(svc *service.CreditService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/credits")
		defer span.End()

		credits, err := svc.List(ctx, UserIDFromContext(ctx))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		if credits == nil {
			credits = []domain.Credit{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"credits": credits})
	}
}

func createCreditHandler(svc *service.CreditService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/credits")
		defer span.End()

		var req domain.CreditRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		credit, err := svc.Create(ctx, UserIDFromContext(ctx), &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, credit)
	}
}

// upcomingPaymentsHandler returns unpaid installments due within the
// requested horizon (?days=N, default 7, capped at 90).
func upcomingPaymentsHandler(svc *service.CreditService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/credits/upcoming")
		defer span.End()

		days := 7
		if v := r.URL.Query().Get("days"); v != "" {
			if d, err := strconv.Atoi(v); err == nil && d > 0 && d <= 90 {
				days = d
			}
		}

		payments, err := svc.Upcoming(ctx, UserIDFromContext(ctx), time.Duration(days)*24*time.Hour)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		if payments == nil {
			payments = []domain.UpcomingPayment{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"upcoming_payments": payments})
	}
}

func creditsTotalMonthlyHandler(svc *service.CreditService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/credits/total-monthly")
		defer span.End()

		total, err := svc.TotalMonthly(ctx, UserIDFromContext(ctx))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"total_monthly": total})
	}
}

func updateCreditHandler(svc *service.CreditService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PATCH /v1/credits/{creditId}")
		defer span.End()

		var req domain.CreditUpdateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		credit, err := svc.Update(ctx, UserIDFromContext(ctx), chi.URLParam(r, "creditId"), &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, credit)
	}
}

func getCreditHandler(svc *service.CreditService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/credits/{creditId}")
		defer span.End()

		credit, err := svc.Get(ctx, UserIDFromContext(ctx), chi.URLParam(r, "creditId"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, credit)
	}
}

func deleteCreditHandler(svc *service.CreditService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/credits/{creditId}")
		defer span.End()

		if err := svc.Delete(ctx, UserIDFromContext(ctx), chi.URLParam(r, "creditId")); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func listCreditPaymentsHandler(svc *service.CreditService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/credits/{creditId}/payments")
		defer span.End()

		payments, err := svc.Payments(ctx, UserIDFromContext(ctx), chi.URLParam(r, "creditId"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		if payments == nil {
			payments = []domain.CreditPayment{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"payments": payments})
	}
}

func recordCreditPaymentHandler(svc *service.CreditService, dash *service.DashboardService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/credits/{creditId}/payments")
		defer span.End()

		var req domain.RecordPaymentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		userID := UserIDFromContext(ctx)
		payment, err := svc.RecordPayment(ctx, userID, chi.URLParam(r, "creditId"), &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		dash.Invalidate(userID)
		writeJSON(w, http.StatusCreated, payment)
	}
}
