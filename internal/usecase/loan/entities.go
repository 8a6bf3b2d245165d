package loan

import (
	"context"

	"makono-backend/internal/domain/document"
	domain "makono-backend/internal/domain/loan"
	"makono-backend/internal/domain/notification"

	"github.com/shopspring/decimal"
)

// Catalog is the static product configuration the lifecycle validates against.
type Catalog struct {
	MaxRepaymentMonths  int             `json:"max_repayment_months"`
	DefaultInterestRate decimal.Decimal `json:"default_interest_rate"`
	LoanTypes           []string        `json:"loan_types"`
	Purposes            []string        `json:"purposes"`
	Currency            string          `json:"currency"`
}

func DefaultCatalog() Catalog {
	return Catalog{
		MaxRepaymentMonths:  2,
		DefaultInterestRate: decimal.NewFromInt(30),
		LoanTypes:           []string{"personal", "emergency"},
		Purposes: []string{
			"Medical expenses", "Business expansion", "Education", "Home renovation",
			"Debt consolidation", "Emergency", "Vehicle purchase", "Wedding", "Other",
		},
		Currency: "MKW",
	}
}

func (c Catalog) hasLoanType(t string) bool {
	for _, lt := range c.LoanTypes {
		if lt == t {
			return true
		}
	}
	return false
}

// Notifier receives lifecycle notifications; the notification usecase implements it.
type Notifier interface {
	Create(ctx context.Context, userID string, typ notification.Type, title, message, loanID string) (*notification.Notification, error)
}

type CreateLoanInput struct {
	Principal       float64 `json:"principal"`
	RepaymentPeriod int     `json:"repayment_period"`
	LoanType        string  `json:"loan_type"`
	Purpose         string  `json:"purpose"`
}

type UploadDocumentInput struct {
	LoanID   string        `json:"loan_id"`
	Type     document.Type `json:"type"`
	URI      string        `json:"uri"`
	FileName string        `json:"file_name"`
}

type AdminStats struct {
	TotalLoans int                   `json:"total_loans"`
	ByStatus   map[domain.Status]int `json:"by_status"`
	// Revenue is the interest booked on loans currently in the approved state.
	Revenue decimal.Decimal `json:"revenue"`
}

type BorrowerSummary struct {
	UserID        string          `json:"user_id"`
	TotalLoans    int             `json:"total_loans"`
	ActiveLoans   int             `json:"active_loans"`
	TotalBorrowed decimal.Decimal `json:"total_borrowed"`
}
