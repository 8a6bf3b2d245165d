package notification

import (
	"errors"
	"time"
)

var (
	ErrNotFound = errors.New("notification not found")
)

// KeyNotifications is the logical KV key of the notification log.
const KeyNotifications = "notifications"

type Type string

const (
	TypeLoanApproved    Type = "loan_approved"
	TypeLoanDisbursed   Type = "loan_disbursed"
	TypePaymentReminder Type = "payment_reminder"
	TypePaymentOverdue  Type = "payment_overdue"
)

type Notification struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	LoanID    string    `json:"loan_id,omitempty"`
	Type      Type      `json:"type"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}
