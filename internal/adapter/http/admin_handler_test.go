package http

import (
	stdhttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"makono-backend/internal/adapter/middleware"
	domainLoan "makono-backend/internal/domain/loan"
	"makono-backend/internal/usecase/loan"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

func TestAdminViews_Capabilities(t *testing.T) {
	a := newApp(t, nil)
	l := createLoan(t, a)
	wantStatus(t, a.do(t, admin, stdhttp.MethodPost, "/admin/loans/"+l.ID+"/approve", nil), stdhttp.StatusOK)

	for _, path := range []string{"/admin/loans", "/admin/stats", "/admin/borrowers", "/admin/history"} {
		wantStatus(t, a.do(t, borrower, stdhttp.MethodGet, path, nil), stdhttp.StatusForbidden)
		wantStatus(t, a.do(t, viewer, stdhttp.MethodGet, path, nil), stdhttp.StatusOK)
	}

	rec := a.do(t, viewer, stdhttp.MethodGet, "/admin/stats", nil)
	stats := decode[loan.AdminStats](t, rec)
	if stats.TotalLoans != 1 || stats.ByStatus[domainLoan.StatusApproved] != 1 || !stats.Revenue.Equal(decimal.NewFromInt(6000)) {
		t.Fatalf("stats = %+v", stats)
	}

	rec = a.do(t, viewer, stdhttp.MethodGet, "/admin/borrowers", nil)
	borrowers := decode[map[string][]loan.BorrowerSummary](t, rec)["borrowers"]
	if len(borrowers) != 1 || borrowers[0].UserID != borrower.ID || !borrowers[0].TotalBorrowed.Equal(decimal.NewFromInt(10000)) {
		t.Fatalf("borrowers = %+v", borrowers)
	}

	// viewers read but cannot decide
	wantStatus(t, a.do(t, viewer, stdhttp.MethodPost, "/admin/loans/"+l.ID+"/reject", nil), stdhttp.StatusForbidden)
}

func TestAdminListLoans_StatusFilter(t *testing.T) {
	a := newApp(t, nil)
	first := createLoan(t, a)
	createLoan(t, a)
	wantStatus(t, a.do(t, admin, stdhttp.MethodPost, "/admin/loans/"+first.ID+"/reject", nil), stdhttp.StatusOK)

	rec := a.do(t, admin, stdhttp.MethodGet, "/admin/loans?status=pending", nil)
	wantStatus(t, rec, stdhttp.StatusOK)
	if loans := decode[map[string][]domainLoan.Loan](t, rec)["loans"]; len(loans) != 1 || loans[0].ID == first.ID {
		t.Fatalf("pending loans = %+v", loans)
	}

	rec = a.do(t, admin, stdhttp.MethodGet, "/admin/loans?status=bogus", nil)
	wantStatus(t, rec, stdhttp.StatusUnprocessableEntity)
	if er := decode[ErrorResponse](t, rec); !hasFieldDetail(er.Details, "status") {
		t.Fatalf("details = %+v", er.Details)
	}

	// rejected loans show up in history, both for the borrower and for admins
	rec = a.do(t, borrower, stdhttp.MethodGet, "/admin/history?user_id="+borrower.ID, nil)
	wantStatus(t, rec, stdhttp.StatusOK)
	if loans := decode[map[string][]domainLoan.Loan](t, rec)["loans"]; len(loans) != 1 || loans[0].Status != domainLoan.StatusRejected {
		t.Fatalf("history = %+v", loans)
	}
	wantStatus(t, a.do(t, stranger, stdhttp.MethodGet, "/admin/history?user_id="+borrower.ID, nil), stdhttp.StatusForbidden)
}

func TestRequestSecurityDocs(t *testing.T) {
	a := newApp(t, nil)
	l := createLoan(t, a)
	path := "/admin/loans/" + l.ID + "/request-security-docs"

	wantStatus(t, a.do(t, admin, stdhttp.MethodPost, path, nil), stdhttp.StatusConflict)
	wantStatus(t, a.do(t, admin, stdhttp.MethodPost, "/admin/loans/"+l.ID+"/approve", nil), stdhttp.StatusOK)

	rec := a.do(t, admin, stdhttp.MethodPost, path, nil)
	wantStatus(t, rec, stdhttp.StatusOK)
	if got := decode[domainLoan.Loan](t, rec); !got.SecurityDocsRequested {
		t.Fatalf("flag not set: %+v", got)
	}
	wantStatus(t, a.do(t, admin, stdhttp.MethodPost, "/admin/loans/"+strings.Repeat("0", 32)+"/request-security-docs", nil), stdhttp.StatusNotFound)
}

func TestUpdateInterestRate(t *testing.T) {
	a := newApp(t, nil)

	wantStatus(t, a.do(t, viewer, stdhttp.MethodPut, "/admin/interest-rate", map[string]any{"rate": 25}), stdhttp.StatusForbidden)
	wantStatus(t, a.do(t, admin, stdhttp.MethodPut, "/admin/interest-rate", map[string]any{"rate": 0}), stdhttp.StatusUnprocessableEntity)
	wantStatus(t, a.do(t, admin, stdhttp.MethodPut, "/admin/interest-rate", map[string]any{"rate": 150}), stdhttp.StatusUnprocessableEntity)

	rec := a.do(t, admin, stdhttp.MethodPut, "/admin/interest-rate", map[string]any{"rate": 25})
	wantStatus(t, rec, stdhttp.StatusOK)
	if got := decode[map[string]string](t, rec)["interest_rate"]; got != "25" {
		t.Fatalf("interest_rate = %q", got)
	}

	// new loans pick up the new rate
	l := createLoan(t, a)
	if !l.InterestRate.Equal(decimal.NewFromInt(25)) || !l.TotalPayable.Equal(decimal.NewFromInt(15000)) {
		t.Fatalf("loan terms = rate %s total %s", l.InterestRate, l.TotalPayable)
	}
}

// Direct handler call, bypassing the router: a bad path param never reaches the usecase.
func TestApprove_InvalidPathParam(t *testing.T) {
	e := echo.New()
	e.Validator = NewValidator()
	h := NewAdminHandler(nil)

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(stdhttp.MethodPost, "/admin/loans//approve", nil), rec)
	middleware.WithUser(c, admin)

	if err := h.Approve(c); err != nil {
		t.Fatalf("Approve error: %v", err)
	}
	wantStatus(t, rec, stdhttp.StatusBadRequest)
	if er := decode[ErrorResponse](t, rec); er.Error != "missing loan_id path param" {
		t.Fatalf("error = %q", er.Error)
	}

	rec = httptest.NewRecorder()
	c = e.NewContext(httptest.NewRequest(stdhttp.MethodPost, "/admin/loans/XYZ/approve", nil), rec)
	c.SetParamNames("loan_id")
	c.SetParamValues("XYZ")
	if err := h.Approve(c); err != nil {
		t.Fatalf("Approve error: %v", err)
	}
	wantStatus(t, rec, stdhttp.StatusBadRequest)
}
