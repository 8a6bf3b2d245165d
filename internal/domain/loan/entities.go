package loan

import (
	"time"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
	StatusDisbursed Status = "disbursed"
	StatusActive    Status = "active"
	StatusOverdue   Status = "overdue"
	// StatusCompleted is part of the taxonomy but no operation reaches it yet.
	StatusCompleted Status = "completed"
)

// Servicing reports whether the loan is out with the borrower and not yet overdue.
func (s Status) Servicing() bool { return s == StatusActive || s == StatusDisbursed }

type Loan struct {
	ID              string          `json:"id"`
	UserID          string          `json:"user_id"`
	Amount          decimal.Decimal `json:"amount"`
	RepaymentPeriod int             `json:"repayment_period"`
	LoanType        string          `json:"loan_type"`
	Purpose         string          `json:"purpose"`
	InterestRate    decimal.Decimal `json:"interest_rate"`
	TotalPayable    decimal.Decimal `json:"total_payable"`
	MonthlyPayment  decimal.Decimal `json:"monthly_payment"`
	Status          Status          `json:"status"`

	CreatedAt   time.Time  `json:"created_at"`
	ApprovedAt  *time.Time `json:"approved_at,omitempty"`
	RejectedAt  *time.Time `json:"rejected_at,omitempty"`
	DisbursedAt *time.Time `json:"disbursed_at,omitempty"`
	DueDate     *time.Time `json:"due_date,omitempty"`

	SecurityDocsRequested bool `json:"security_docs_requested"`
	SecurityDocsSubmitted bool `json:"security_docs_submitted"`
	PaymentProofUploaded  bool `json:"payment_proof_uploaded"`
	PaymentAcknowledged   bool `json:"payment_acknowledged"`

	IsOverdue          bool            `json:"is_overdue"`
	LatePaymentPenalty decimal.Decimal `json:"late_payment_penalty"`
	RemindersSent      int             `json:"reminders_sent"`
	LastReminderAt     *time.Time      `json:"last_reminder_at,omitempty"`

	// Version is bumped on every mutation; sweep patches carry the version they were computed from.
	Version int `json:"version"`
}

// AmortizationEntry is one row of a displayed schedule.
type AmortizationEntry struct {
	Month     int             `json:"month"`
	Payment   decimal.Decimal `json:"payment"`
	Principal decimal.Decimal `json:"principal"`
	Interest  decimal.Decimal `json:"interest"`
	Balance   decimal.Decimal `json:"balance"`
}

type Calculation struct {
	LoanAmount           decimal.Decimal     `json:"loan_amount"`
	InterestRate         decimal.Decimal     `json:"interest_rate"`
	Months               int                 `json:"months"`
	MonthlyPayment       decimal.Decimal     `json:"monthly_payment"`
	TotalPayable         decimal.Decimal     `json:"total_payable"`
	TotalInterest        decimal.Decimal     `json:"total_interest"`
	AmortizationSchedule []AmortizationEntry `json:"amortization_schedule"`
}

// RepaymentSchedule is stored alongside each loan. PaidMonths is informational.
type RepaymentSchedule struct {
	LoanID     string              `json:"loan_id"`
	Schedule   []AmortizationEntry `json:"schedule"`
	PaidMonths []int               `json:"paid_months"`
}

func ptrTime(t time.Time) *time.Time { return &t }
