package http

import (
	"context"
	"net/http"

	"makono-backend/internal/adapter/middleware"
	"makono-backend/internal/domain/identity"
	domainLoan "makono-backend/internal/domain/loan"
	"makono-backend/internal/usecase/loan"

	"github.com/labstack/echo/v4"
)

// AdminHandler serves back-office routes. Capability checks live in the usecase.
type AdminHandler struct{ uc *loan.Usecase }

func NewAdminHandler(uc *loan.Usecase) *AdminHandler { return &AdminHandler{uc: uc} }

type listLoansQuery struct {
	Status string `query:"status" validate:"omitempty,oneof=pending approved rejected disbursed active overdue completed"`
}

func (h *AdminHandler) ListLoans(c echo.Context) error {
	var q listLoansQuery
	if ok, err := bind(c, &q); !ok {
		return err
	}
	loans, err := h.uc.ListAll(middleware.UserFrom(c), domainLoan.Status(q.Status))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"loans": loans})
}

func (h *AdminHandler) Stats(c echo.Context) error {
	stats, err := h.uc.AdminStats(middleware.UserFrom(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, stats)
}

func (h *AdminHandler) Borrowers(c echo.Context) error {
	out, err := h.uc.BorrowerSummaries(middleware.UserFrom(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"borrowers": out})
}

type historyQuery struct {
	UserID string `query:"user_id" validate:"omitempty,max=128"`
}

func (h *AdminHandler) History(c echo.Context) error {
	var q historyQuery
	if ok, err := bind(c, &q); !ok {
		return err
	}
	loans, err := h.uc.History(middleware.UserFrom(c), q.UserID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"loans": loans})
}

func (h *AdminHandler) Approve(c echo.Context) error {
	return h.transition(c, h.uc.Approve)
}

func (h *AdminHandler) Reject(c echo.Context) error {
	return h.transition(c, h.uc.Reject)
}

func (h *AdminHandler) RequestSecurityDocs(c echo.Context) error {
	return h.transition(c, h.uc.RequestSecurityDocs)
}

type transitionFn func(ctx context.Context, user identity.User, loanID string) (*domainLoan.Loan, error)

func (h *AdminHandler) transition(c echo.Context, fn transitionFn) error {
	loanID, ok, err := idParam(c, "loan_id")
	if !ok {
		return err
	}
	l, err := fn(c.Request().Context(), middleware.UserFrom(c), loanID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, l)
}

type interestRateReq struct {
	Rate float64 `json:"rate" validate:"gt=0,lte=100"`
}

func (h *AdminHandler) UpdateInterestRate(c echo.Context) error {
	var req interestRateReq
	if ok, err := bind(c, &req); !ok {
		return err
	}
	rate, err := h.uc.UpdateInterestRate(c.Request().Context(), middleware.UserFrom(c), req.Rate)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"interest_rate": rate})
}
