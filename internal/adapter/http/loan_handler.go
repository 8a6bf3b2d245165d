package http

import (
	"context"
	"net/http"

	"makono-backend/internal/adapter/middleware"
	"makono-backend/internal/domain/document"
	"makono-backend/internal/usecase/loan"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

// DocumentSigner turns a stored document reference into a URL the client can download from.
type DocumentSigner interface {
	SignedURL(ctx context.Context, ref, fileName string) (string, error)
}

type LoanHandler struct {
	uc     *loan.Usecase
	signer DocumentSigner
}

// NewLoanHandler: signer may be nil, in which case document URIs are returned as stored.
func NewLoanHandler(uc *loan.Usecase, signer DocumentSigner) *LoanHandler {
	return &LoanHandler{uc: uc, signer: signer}
}

type catalogResp struct {
	loan.Catalog
	InterestRate decimal.Decimal `json:"interest_rate"`
}

func (h *LoanHandler) Catalog(c echo.Context) error {
	return c.JSON(http.StatusOK, catalogResp{Catalog: h.uc.Catalog(), InterestRate: h.uc.CurrentInterestRate()})
}

type quoteReq struct {
	Principal       float64 `json:"principal"        validate:"gt=0,dec2"`
	RepaymentPeriod int     `json:"repayment_period" validate:"gte=1"`
}

func (h *LoanHandler) Quote(c echo.Context) error {
	var req quoteReq
	if ok, err := bind(c, &req); !ok {
		return err
	}
	calc, err := h.uc.Quote(req.Principal, req.RepaymentPeriod)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, calc)
}

type createLoanReq struct {
	Principal       float64 `json:"principal"        validate:"gt=0,dec2"`
	RepaymentPeriod int     `json:"repayment_period" validate:"gte=1"`
	LoanType        string  `json:"loan_type"        validate:"required"`
	Purpose         string  `json:"purpose"          validate:"required,max=200"`
}

func (h *LoanHandler) CreateLoan(c echo.Context) error {
	var req createLoanReq
	if ok, err := bind(c, &req); !ok {
		return err
	}
	l, err := h.uc.Create(c.Request().Context(), middleware.UserFrom(c), loan.CreateLoanInput(req))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, l)
}

func (h *LoanHandler) ListLoans(c echo.Context) error {
	user := middleware.UserFrom(c)
	return c.JSON(http.StatusOK, map[string]any{"loans": h.uc.ListForUser(user.ID)})
}

func (h *LoanHandler) GetLoan(c echo.Context) error {
	loanID, ok, err := idParam(c, "loan_id")
	if !ok {
		return err
	}
	l, err := h.uc.Get(middleware.UserFrom(c), loanID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, l)
}

func (h *LoanHandler) Schedule(c echo.Context) error {
	loanID, ok, err := idParam(c, "loan_id")
	if !ok {
		return err
	}
	s, err := h.uc.Schedule(middleware.UserFrom(c), loanID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, s)
}

func (h *LoanHandler) LoanDocuments(c echo.Context) error {
	loanID, ok, err := idParam(c, "loan_id")
	if !ok {
		return err
	}
	docs, err := h.uc.DocumentsForLoan(middleware.UserFrom(c), loanID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"documents": docs})
}

func (h *LoanHandler) Acknowledge(c echo.Context) error {
	loanID, ok, err := idParam(c, "loan_id")
	if !ok {
		return err
	}
	l, err := h.uc.AcknowledgePayment(c.Request().Context(), middleware.UserFrom(c), loanID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, l)
}

type uploadDocumentReq struct {
	LoanID   string `json:"loan_id"   validate:"omitempty,hex32"`
	Type     string `json:"type"      validate:"required,doctype"`
	URI      string `json:"uri"       validate:"required,max=2048"`
	FileName string `json:"file_name" validate:"required,max=255"`
}

func (h *LoanHandler) UploadDocument(c echo.Context) error {
	var req uploadDocumentReq
	if ok, err := bind(c, &req); !ok {
		return err
	}
	d, err := h.uc.UploadDocument(c.Request().Context(), middleware.UserFrom(c), loan.UploadDocumentInput{
		LoanID:   req.LoanID,
		Type:     document.Type(req.Type),
		URI:      req.URI,
		FileName: req.FileName,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, d)
}

func (h *LoanHandler) ListDocuments(c echo.Context) error {
	user := middleware.UserFrom(c)
	return c.JSON(http.StatusOK, map[string]any{"documents": h.uc.DocumentsForUser(user.ID)})
}

func (h *LoanHandler) DocumentURL(c echo.Context) error {
	docID, ok, err := idParam(c, "document_id")
	if !ok {
		return err
	}
	d, err := h.uc.Document(middleware.UserFrom(c), docID)
	if err != nil {
		return writeError(c, err)
	}
	url := d.URI
	if h.signer != nil {
		if url, err = h.signer.SignedURL(c.Request().Context(), d.URI, d.FileName); err != nil {
			return writeError(c, err)
		}
	}
	return c.JSON(http.StatusOK, map[string]string{"document_id": d.ID, "url": url})
}
