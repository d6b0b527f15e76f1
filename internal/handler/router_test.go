package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/moneystack/moneystack-go/internal/domain"
	"github.com/moneystack/moneystack-go/internal/infra/observability"
	"github.com/moneystack/moneystack-go/internal/service"
)

// fakeUserStore backs the auth service in router tests.
type fakeUserStore struct {
	users map[string]*domain.User
}

func (f *fakeUserStore) CreateUser(ctx context.Context, user *domain.User) (*domain.User, error) {
	for _, u := range f.users {
		if u.Email == user.Email {
			return nil, &domain.ErrConflict{Message: "email already registered"}
		}
	}
	f.users[user.ID] = user
	return user, nil
}

func (f *fakeUserStore) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, &domain.ErrNotFound{Resource: "user", ID: email}
}

func (f *fakeUserStore) GetUserByID(ctx context.Context, userID string) (*domain.User, error) {
	u, ok := f.users[userID]
	if !ok {
		return nil, &domain.ErrNotFound{Resource: "user", ID: userID}
	}
	return u, nil
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	logger := zap.NewNop()
	authSvc := service.NewAuthService(&fakeUserStore{users: make(map[string]*domain.User)}, "test-secret", time.Hour, logger)
	return NewRouter(Services{Auth: authSvc}, observability.NewMetrics(), logger)
}

func TestHealthz(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["status"] != "healthy" {
		t.Errorf("status field = %q, want healthy", body["status"])
	}
}

func TestRegisterAndLogin(t *testing.T) {
	router := newTestRouter(t)

	register := func(body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/v1/auth/register", bytes.NewBufferString(body))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	rec := register(`{"email":"ada@example.com","name":"Ada","password":"correcthorse"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("register status = %d, want 201: %s", rec.Code, rec.Body.String())
	}
	var resp domain.LoginResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode register response: %v", err)
	}
	if resp.AccessToken == "" {
		t.Error("register returned no access token")
	}

	// Duplicate email conflicts.
	if rec := register(`{"email":"ada@example.com","name":"Ada","password":"correcthorse"}`); rec.Code != http.StatusConflict {
		t.Errorf("duplicate register status = %d, want 409", rec.Code)
	}

	// Short password fails validation.
	if rec := register(`{"email":"bob@example.com","name":"Bob","password":"short"}`); rec.Code != http.StatusBadRequest {
		t.Errorf("short password status = %d, want 400", rec.Code)
	}

	login := func(body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/v1/auth/login", bytes.NewBufferString(body))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	if rec := login(`{"email":"ada@example.com","password":"correcthorse"}`); rec.Code != http.StatusOK {
		t.Errorf("login status = %d, want 200", rec.Code)
	}
	if rec := login(`{"email":"ada@example.com","password":"wrong-password"}`); rec.Code != http.StatusUnauthorized {
		t.Errorf("bad password status = %d, want 401", rec.Code)
	}
	if rec := login(`{"email":"nobody@example.com","password":"correcthorse"}`); rec.Code != http.StatusUnauthorized {
		t.Errorf("unknown user status = %d, want 401", rec.Code)
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	router := newTestRouter(t)

	tests := []struct {
		name   string
		header string
	}{
		{name: "missing header", header: ""},
		{name: "wrong scheme", header: "Basic abc123"},
		{name: "garbage token", header: "Bearer not-a-jwt"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/v1/accounts", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			if rec.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want 401", rec.Code)
			}
		})
	}
}

func TestParsePagination(t *testing.T) {
	tests := []struct {
		query        string
		wantPage     int
		wantPageSize int
	}{
		{query: "", wantPage: 1, wantPageSize: 50},
		{query: "page=3&page_size=10", wantPage: 3, wantPageSize: 10},
		{query: "page=0&page_size=0", wantPage: 1, wantPageSize: 50},
		{query: "page=-1", wantPage: 1, wantPageSize: 50},
		{query: "page_size=500", wantPage: 1, wantPageSize: 50},
		{query: "page=abc&page_size=xyz", wantPage: 1, wantPageSize: 50},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/v1/transactions?"+tt.query, nil)
		page, pageSize := parsePagination(req)
		if page != tt.wantPage || pageSize != tt.wantPageSize {
			t.Errorf("parsePagination(%q) = (%d, %d), want (%d, %d)",
				tt.query, page, pageSize, tt.wantPage, tt.wantPageSize)
		}
	}
}

func TestHandleServiceError(t *testing.T) {
	logger := zap.NewNop()
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "not found", err: &domain.ErrNotFound{Resource: "account", ID: "x"}, want: http.StatusNotFound},
		{name: "validation", err: &domain.ErrValidation{Field: "name", Message: "required"}, want: http.StatusBadRequest},
		{name: "insufficient funds", err: &domain.ErrInsufficientFunds{Available: "10", Required: "20"}, want: http.StatusUnprocessableEntity},
		{name: "forbidden", err: &domain.ErrForbidden{Action: "delete"}, want: http.StatusForbidden},
		{name: "unauthorized", err: &domain.ErrUnauthorized{}, want: http.StatusUnauthorized},
		{name: "conflict", err: &domain.ErrConflict{Message: "dup"}, want: http.StatusConflict},
		{name: "unknown", err: errors.New("boom"), want: http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			handleServiceError(rec, tt.err, logger)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}
