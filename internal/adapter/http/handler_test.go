package http

import (
	"bytes"
	"context"
	"encoding/json"
	stdhttp "net/http"
	"net/http/httptest"
	"testing"
	"time"

	"makono-backend/internal/adapter/middleware"
	"makono-backend/internal/domain/identity"
	"makono-backend/internal/infrastructure/metrics"
	"makono-backend/internal/testutil/kvmock"
	"makono-backend/internal/usecase/loan"
	"makono-backend/internal/usecase/notification"

	"github.com/jonboulle/clockwork"
	"github.com/labstack/echo/v4"
)

var (
	borrower = identity.User{ID: "u1", Role: identity.RoleUser}
	stranger = identity.User{ID: "u2", Role: identity.RoleUser}
	admin    = identity.User{ID: "a1", Role: identity.RoleSuperAdmin}
	viewer   = identity.User{ID: "v1", Role: identity.RoleAdminViewer}
)

type fakeSigner struct{ err error }

func (s fakeSigner) SignedURL(_ context.Context, ref, fileName string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return "https://signed.example/" + fileName + "?src=" + ref, nil
}

type app struct {
	e     *echo.Echo
	store *kvmock.Store
	clock *clockwork.FakeClock
	loans *loan.Usecase
	notes *notification.Usecase
}

func newApp(t *testing.T, signer DocumentSigner) *app {
	t.Helper()
	a := &app{
		store: &kvmock.Store{},
		clock: clockwork.NewFakeClockAt(time.Date(2026, 1, 15, 9, 30, 0, 0, time.UTC)),
	}
	m := metrics.New()
	a.notes = notification.NewUsecase(a.store, "makono", a.clock, nil, m)
	a.loans = loan.NewUsecase(loan.Deps{
		Store:     a.store,
		Namespace: "makono",
		Notifier:  a.notes,
		Clock:     a.clock,
		Metrics:   m,
	})

	a.e = echo.New()
	a.e.Validator = NewValidator()
	Register(a.e, Routes{
		Health:        NewHandler(a.clock),
		Loans:         NewLoanHandler(a.loans, signer),
		Admin:         NewAdminHandler(a.loans),
		Notifications: NewNotificationHandler(a.notes),
		Metrics:       m,
	})
	return a
}

func (a *app) do(t *testing.T, user identity.User, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if user.ID != "" {
		req.Header.Set(middleware.HeaderUserID, user.ID)
		req.Header.Set(middleware.HeaderUserRole, string(user.Role))
	}
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("bad json: %v; raw=%s", err, rec.Body.String())
	}
	return v
}

func wantStatus(t *testing.T, rec *httptest.ResponseRecorder, code int) {
	t.Helper()
	if rec.Code != code {
		t.Fatalf("status = %d, want %d; body=%s", rec.Code, code, rec.Body.String())
	}
}

func TestHealth_UsesClock(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2026, 1, 15, 9, 30, 0, 0, time.UTC))
	h := NewHandler(clock)

	rec := httptest.NewRecorder()
	c := echo.New().NewContext(httptest.NewRequest(stdhttp.MethodGet, "/health", nil), rec)
	if err := h.Health(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	wantStatus(t, rec, stdhttp.StatusOK)

	body := decode[map[string]string](t, rec)
	if body["status"] != "ok" || body["time"] != "2026-01-15T09:30:00Z" {
		t.Fatalf("unexpected body %v", body)
	}
}

func TestRoutes_IdentityRequired(t *testing.T) {
	a := newApp(t, nil)

	wantStatus(t, a.do(t, identity.User{}, stdhttp.MethodGet, "/health", nil), stdhttp.StatusOK)
	wantStatus(t, a.do(t, identity.User{}, stdhttp.MethodGet, "/loans", nil), stdhttp.StatusUnauthorized)
	wantStatus(t, a.do(t, identity.User{}, stdhttp.MethodGet, "/admin/stats", nil), stdhttp.StatusUnauthorized)

	rec := a.do(t, identity.User{}, stdhttp.MethodGet, "/metrics", nil)
	wantStatus(t, rec, stdhttp.StatusOK)
	if !bytes.Contains(rec.Body.Bytes(), []byte("go_goroutines")) {
		t.Fatal("metrics output missing go collector series")
	}
}
