package document

import (
	"errors"
	"time"
)

var (
	ErrNotFound = errors.New("document not found")
)

type Type string

const (
	TypeID           Type = "id"
	TypePayslip      Type = "payslip"
	TypeCollateral   Type = "collateral"
	TypeSecurity     Type = "security"
	TypePaymentProof Type = "payment_proof"
)

func (t Type) Valid() bool {
	switch t {
	case TypeID, TypePayslip, TypeCollateral, TypeSecurity, TypePaymentProof:
		return true
	}
	return false
}

// Document holds metadata only; URI is an opaque reference into the document store.
type Document struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	LoanID     string    `json:"loan_id,omitempty"`
	Type       Type      `json:"type"`
	URI        string    `json:"uri"`
	FileName   string    `json:"file_name"`
	UploadedAt time.Time `json:"uploaded_at"`
}
