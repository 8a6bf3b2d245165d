package http

import (
	"context"
	"errors"
	stdhttp "net/http"
	"strings"
	"testing"
	"time"

	"makono-backend/internal/domain/document"
	domainLoan "makono-backend/internal/domain/loan"
	"makono-backend/internal/domain/notification"
	"makono-backend/internal/infrastructure/objectstore"

	"github.com/shopspring/decimal"
)

type inboxResp struct {
	Notifications []notification.Notification `json:"notifications"`
	Unread        int                         `json:"unread"`
}

func createLoan(t *testing.T, a *app) domainLoan.Loan {
	t.Helper()
	rec := a.do(t, borrower, stdhttp.MethodPost, "/loans", map[string]any{
		"principal":        10000,
		"repayment_period": 2,
		"loan_type":        "personal",
		"purpose":          "School Fees",
	})
	wantStatus(t, rec, stdhttp.StatusCreated)
	return decode[domainLoan.Loan](t, rec)
}

func TestCatalogAndQuote(t *testing.T) {
	a := newApp(t, nil)

	rec := a.do(t, borrower, stdhttp.MethodGet, "/catalog", nil)
	wantStatus(t, rec, stdhttp.StatusOK)
	cat := decode[map[string]any](t, rec)
	if cat["currency"] != "MKW" || cat["interest_rate"] != "30" {
		t.Fatalf("unexpected catalog %v", cat)
	}

	rec = a.do(t, borrower, stdhttp.MethodPost, "/quotes", map[string]any{"principal": 10000, "repayment_period": 2})
	wantStatus(t, rec, stdhttp.StatusOK)
	calc := decode[domainLoan.Calculation](t, rec)
	if !calc.TotalPayable.Equal(decimal.NewFromInt(16000)) || len(calc.AmortizationSchedule) != 2 {
		t.Fatalf("unexpected quote %+v", calc)
	}

	rec = a.do(t, borrower, stdhttp.MethodPost, "/quotes", map[string]any{"principal": 10000, "repayment_period": 3})
	wantStatus(t, rec, stdhttp.StatusUnprocessableEntity)
}

func TestCreateLoan_Validation(t *testing.T) {
	a := newApp(t, nil)

	rec := a.do(t, borrower, stdhttp.MethodPost, "/loans", map[string]any{
		"principal":        10.001,
		"repayment_period": 0,
		"loan_type":        "",
		"purpose":          "x",
	})
	wantStatus(t, rec, stdhttp.StatusUnprocessableEntity)
	er := decode[ErrorResponse](t, rec)
	for _, field := range []string{"principal", "repayment_period", "loan_type"} {
		if !hasFieldDetail(er.Details, field) {
			t.Fatalf("missing detail for %s: %+v", field, er.Details)
		}
	}

	rec = a.do(t, borrower, stdhttp.MethodPost, "/loans", map[string]any{
		"principal": 100, "repayment_period": 1, "loan_type": "mortgage", "purpose": "House",
	})
	wantStatus(t, rec, stdhttp.StatusUnprocessableEntity)
	if er := decode[ErrorResponse](t, rec); !strings.Contains(er.Error, "unknown loan type") {
		t.Fatalf("error = %q", er.Error)
	}

	req := a.do(t, borrower, stdhttp.MethodPost, "/loans", "not an object")
	wantStatus(t, req, stdhttp.StatusBadRequest)

	if got := len(a.loans.ListForUser(borrower.ID)); got != 0 {
		t.Fatalf("rejected requests created %d loans", got)
	}
}

func TestLoanLifecycle_OverHTTP(t *testing.T) {
	a := newApp(t, fakeSigner{})
	l := createLoan(t, a)
	if l.Status != domainLoan.StatusPending || l.UserID != borrower.ID {
		t.Fatalf("unexpected loan %+v", l)
	}
	loanPath := "/loans/" + l.ID

	wantStatus(t, a.do(t, stranger, stdhttp.MethodGet, loanPath, nil), stdhttp.StatusForbidden)
	wantStatus(t, a.do(t, borrower, stdhttp.MethodGet, "/loans/"+strings.Repeat("0", 32), nil), stdhttp.StatusNotFound)
	wantStatus(t, a.do(t, borrower, stdhttp.MethodGet, "/loans/not-an-id", nil), stdhttp.StatusBadRequest)

	rec := a.do(t, borrower, stdhttp.MethodGet, loanPath+"/schedule", nil)
	wantStatus(t, rec, stdhttp.StatusOK)
	if s := decode[domainLoan.RepaymentSchedule](t, rec); len(s.Schedule) != 2 {
		t.Fatalf("schedule = %+v", s)
	}

	// acknowledging before approval and proof is a state error
	wantStatus(t, a.do(t, borrower, stdhttp.MethodPost, loanPath+"/acknowledge", nil), stdhttp.StatusConflict)

	wantStatus(t, a.do(t, borrower, stdhttp.MethodPost, "/admin"+loanPath+"/approve", nil), stdhttp.StatusForbidden)
	rec = a.do(t, admin, stdhttp.MethodPost, "/admin"+loanPath+"/approve", nil)
	wantStatus(t, rec, stdhttp.StatusOK)
	if got := decode[domainLoan.Loan](t, rec); got.Status != domainLoan.StatusApproved {
		t.Fatalf("status = %s", got.Status)
	}
	wantStatus(t, a.do(t, admin, stdhttp.MethodPost, "/admin"+loanPath+"/approve", nil), stdhttp.StatusConflict)
	a.clock.Advance(time.Hour)

	// only admins upload payment proof
	proof := map[string]any{"loan_id": l.ID, "type": "payment_proof", "uri": "s3://docs/a1/proof.pdf", "file_name": "proof.pdf"}
	wantStatus(t, a.do(t, borrower, stdhttp.MethodPost, "/documents", proof), stdhttp.StatusForbidden)
	rec = a.do(t, admin, stdhttp.MethodPost, "/documents", proof)
	wantStatus(t, rec, stdhttp.StatusCreated)
	doc := decode[document.Document](t, rec)

	rec = a.do(t, borrower, stdhttp.MethodPost, loanPath+"/acknowledge", nil)
	wantStatus(t, rec, stdhttp.StatusOK)
	got := decode[domainLoan.Loan](t, rec)
	if got.Status != domainLoan.StatusActive || got.DueDate == nil || got.DueDate.Format("2006-01-02") != "2026-03-15" {
		t.Fatalf("unexpected acknowledged loan %+v", got)
	}

	// the borrower sees the proof through the loan, and gets a signed link
	rec = a.do(t, borrower, stdhttp.MethodGet, loanPath+"/documents", nil)
	wantStatus(t, rec, stdhttp.StatusOK)
	if docs := decode[map[string][]document.Document](t, rec)["documents"]; len(docs) != 1 || docs[0].ID != doc.ID {
		t.Fatalf("loan documents = %+v", docs)
	}
	rec = a.do(t, borrower, stdhttp.MethodGet, "/documents/"+doc.ID+"/url", nil)
	wantStatus(t, rec, stdhttp.StatusOK)
	if u := decode[map[string]string](t, rec)["url"]; u != "https://signed.example/proof.pdf?src=s3://docs/a1/proof.pdf" {
		t.Fatalf("url = %s", u)
	}
	wantStatus(t, a.do(t, stranger, stdhttp.MethodGet, "/documents/"+doc.ID+"/url", nil), stdhttp.StatusForbidden)

	rec = a.do(t, borrower, stdhttp.MethodGet, "/notifications", nil)
	wantStatus(t, rec, stdhttp.StatusOK)
	inbox := decode[inboxResp](t, rec)
	if len(inbox.Notifications) != 2 || inbox.Unread != 2 {
		t.Fatalf("inbox = %+v", inbox)
	}
	if inbox.Notifications[0].Type != notification.TypeLoanDisbursed {
		t.Fatalf("newest notification = %s", inbox.Notifications[0].Type)
	}

	readPath := "/notifications/" + inbox.Notifications[0].ID + "/read"
	wantStatus(t, a.do(t, stranger, stdhttp.MethodPost, readPath, nil), stdhttp.StatusForbidden)
	wantStatus(t, a.do(t, borrower, stdhttp.MethodPost, readPath, nil), stdhttp.StatusOK)
	wantStatus(t, a.do(t, borrower, stdhttp.MethodPost, "/notifications/"+strings.Repeat("f", 32)+"/read", nil), stdhttp.StatusNotFound)
	if n := a.notes.UnreadCount(borrower.ID); n != 1 {
		t.Fatalf("unread = %d", n)
	}

	rec = a.do(t, borrower, stdhttp.MethodGet, "/loans", nil)
	wantStatus(t, rec, stdhttp.StatusOK)
	if loans := decode[map[string][]domainLoan.Loan](t, rec)["loans"]; len(loans) != 1 {
		t.Fatalf("loans = %+v", loans)
	}
}

func TestUploadDocument_Validation(t *testing.T) {
	a := newApp(t, nil)

	rec := a.do(t, borrower, stdhttp.MethodPost, "/documents", map[string]any{"type": "selfie", "uri": "", "file_name": "a.jpg"})
	wantStatus(t, rec, stdhttp.StatusUnprocessableEntity)
	er := decode[ErrorResponse](t, rec)
	if !hasFieldDetail(er.Details, "type") || !hasFieldDetail(er.Details, "uri") {
		t.Fatalf("details = %+v", er.Details)
	}

	// security documents must name a loan
	rec = a.do(t, borrower, stdhttp.MethodPost, "/documents", map[string]any{"type": "security", "uri": "s3://d/x", "file_name": "x.pdf"})
	wantStatus(t, rec, stdhttp.StatusUnprocessableEntity)

	rec = a.do(t, borrower, stdhttp.MethodPost, "/documents", map[string]any{"type": "id", "uri": "s3://docs/u1/id.jpg", "file_name": "id.jpg"})
	wantStatus(t, rec, stdhttp.StatusCreated)

	rec = a.do(t, borrower, stdhttp.MethodGet, "/documents", nil)
	wantStatus(t, rec, stdhttp.StatusOK)
	docs := decode[map[string][]document.Document](t, rec)["documents"]
	if len(docs) != 1 || docs[0].Type != document.TypeID {
		t.Fatalf("documents = %+v", docs)
	}

	// without a signer the stored reference comes back unchanged
	rec = a.do(t, borrower, stdhttp.MethodGet, "/documents/"+docs[0].ID+"/url", nil)
	wantStatus(t, rec, stdhttp.StatusOK)
	if u := decode[map[string]string](t, rec)["url"]; u != "s3://docs/u1/id.jpg" {
		t.Fatalf("url = %s", u)
	}
}

func TestDocumentURL_UnsupportedRef(t *testing.T) {
	a := newApp(t, fakeSigner{err: objectstore.ErrUnsupportedRef})
	rec := a.do(t, borrower, stdhttp.MethodPost, "/documents", map[string]any{"type": "payslip", "uri": "content://picker/1", "file_name": "p.jpg"})
	wantStatus(t, rec, stdhttp.StatusCreated)
	doc := decode[document.Document](t, rec)

	wantStatus(t, a.do(t, borrower, stdhttp.MethodGet, "/documents/"+doc.ID+"/url", nil), stdhttp.StatusUnprocessableEntity)
}

func TestPersistenceFailure_Returns503(t *testing.T) {
	a := newApp(t, nil)
	a.store.SetFn = func(_ context.Context, _ string, _ []byte) error { return errors.New("disk full") }

	rec := a.do(t, borrower, stdhttp.MethodPost, "/loans", map[string]any{
		"principal": 100, "repayment_period": 1, "loan_type": "personal", "purpose": "Rent",
	})
	wantStatus(t, rec, stdhttp.StatusServiceUnavailable)
}
