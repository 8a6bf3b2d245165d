package loan

import (
	"context"
	"fmt"
	"strings"

	"makono-backend/internal/domain/document"
	"makono-backend/internal/domain/identity"
	domain "makono-backend/internal/domain/loan"
	"makono-backend/internal/domain/notification"
	"makono-backend/pkg/id"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func (u *Usecase) validateTerms(principal float64, months int) (decimal.Decimal, error) {
	amount, err := domain.DecimalFromFloat("principal", principal)
	if err != nil {
		return decimal.Zero, err
	}
	if !amount.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: principal must be greater than zero", domain.ErrValidation)
	}
	if months < 1 || months > u.catalog.MaxRepaymentMonths {
		return decimal.Zero, fmt.Errorf("%w: repayment period must be between 1 and %d months",
			domain.ErrValidation, u.catalog.MaxRepaymentMonths)
	}
	return amount, nil
}

// Quote prices a loan at the current global rate without storing anything.
func (u *Usecase) Quote(principal float64, months int) (*domain.Calculation, error) {
	amount, err := u.validateTerms(principal, months)
	if err != nil {
		return nil, err
	}
	calc := domain.Calculate(amount, u.CurrentInterestRate(), months)
	return &calc, nil
}

func (u *Usecase) Create(ctx context.Context, user identity.User, in CreateLoanInput) (l *domain.Loan, err error) {
	defer func() { u.metrics.ObserveOp("create", err) }()

	if !user.Authenticated() {
		return nil, fmt.Errorf("%w: user not authenticated", domain.ErrPermissionDenied)
	}
	amount, err := u.validateTerms(in.Principal, in.RepaymentPeriod)
	if err != nil {
		return nil, err
	}
	if !u.catalog.hasLoanType(in.LoanType) {
		return nil, fmt.Errorf("%w: unknown loan type %q", domain.ErrValidation, in.LoanType)
	}
	purpose := strings.TrimSpace(in.Purpose)
	if purpose == "" {
		return nil, fmt.Errorf("%w: purpose is required", domain.ErrValidation)
	}

	u.mu.Lock()
	defer u.mu.Unlock()

	calc := domain.Calculate(amount, u.rate, in.RepaymentPeriod)
	created := domain.Loan{
		ID:              id.NewID32(),
		UserID:          user.ID,
		Amount:          amount,
		RepaymentPeriod: in.RepaymentPeriod,
		LoanType:        in.LoanType,
		Purpose:         purpose,
		InterestRate:    u.rate,
		TotalPayable:    calc.TotalPayable,
		MonthlyPayment:  calc.MonthlyPayment,
		Status:          domain.StatusPending,
		CreatedAt:       u.clock.Now().UTC(),
		Version:         1,
	}

	schedules := make([]domain.RepaymentSchedule, len(u.schedules), len(u.schedules)+1)
	copy(schedules, u.schedules)
	schedules = append(schedules, domain.RepaymentSchedule{
		LoanID:     created.ID,
		Schedule:   calc.AmortizationSchedule,
		PaidMonths: []int{},
	})
	loans := append(u.cloneLoans(), created)
	// schedule first: an orphaned schedule is harmless, a loan without one is not
	err = u.saveAll(ctx,
		snapshot{u.keys.Schedules, schedules},
		snapshot{u.keys.Loans, loans})
	if err != nil {
		return nil, err
	}
	u.schedules, u.loans = schedules, loans

	u.log.Info("loan created",
		zap.String("loan_id", created.ID),
		zap.String("user_id", created.UserID),
		zap.String("amount", created.Amount.String()),
		zap.Int("months", created.RepaymentPeriod))
	return &created, nil
}

func (u *Usecase) Approve(ctx context.Context, user identity.User, loanID string) (*domain.Loan, error) {
	l, err := u.decide(ctx, user, loanID, domain.StatusApproved)
	u.metrics.ObserveOp("approve", err)
	if err != nil {
		return nil, err
	}
	u.notify(ctx, *l, notification.TypeLoanApproved, "Loan Approved", u.approvedMessage(*l))
	return l, nil
}

func (u *Usecase) Reject(ctx context.Context, user identity.User, loanID string) (*domain.Loan, error) {
	l, err := u.decide(ctx, user, loanID, domain.StatusRejected)
	u.metrics.ObserveOp("reject", err)
	return l, err
}

// decide moves a pending loan to approved or rejected.
func (u *Usecase) decide(ctx context.Context, user identity.User, loanID string, to domain.Status) (*domain.Loan, error) {
	if err := u.require(user, identity.ActionApproveLoans); err != nil {
		return nil, err
	}

	u.mu.Lock()
	defer u.mu.Unlock()

	i := u.indexOf(loanID)
	if i < 0 {
		return nil, domain.ErrNotFound
	}
	if u.loans[i].Status != domain.StatusPending {
		return nil, fmt.Errorf("%w: loan is %s, want %s", domain.ErrInvalidTransition, u.loans[i].Status, domain.StatusPending)
	}

	next := u.cloneLoans()
	now := u.clock.Now().UTC()
	next[i].Status = to
	if to == domain.StatusApproved {
		next[i].ApprovedAt = &now
	} else {
		next[i].RejectedAt = &now
	}
	next[i].Version++
	if err := u.commitLoans(ctx, next); err != nil {
		return nil, err
	}

	u.log.Info("loan decided", zap.String("loan_id", loanID), zap.String("status", string(to)), zap.String("by", user.ID))
	out := next[i]
	return &out, nil
}

func (u *Usecase) RequestSecurityDocs(ctx context.Context, user identity.User, loanID string) (l *domain.Loan, err error) {
	defer func() { u.metrics.ObserveOp("request_security_docs", err) }()

	if err := u.require(user, identity.ActionApproveLoans); err != nil {
		return nil, err
	}

	u.mu.Lock()
	defer u.mu.Unlock()

	i := u.indexOf(loanID)
	if i < 0 {
		return nil, domain.ErrNotFound
	}
	if u.loans[i].Status != domain.StatusApproved {
		return nil, fmt.Errorf("%w: security documents can only be requested for approved loans", domain.ErrInvalidTransition)
	}

	next := u.cloneLoans()
	next[i].SecurityDocsRequested = true
	next[i].Version++
	if err := u.commitLoans(ctx, next); err != nil {
		return nil, err
	}
	out := next[i]
	return &out, nil
}

// UploadDocument stores document metadata. security and payment_proof uploads flip
// the matching latch on an approved loan.
func (u *Usecase) UploadDocument(ctx context.Context, user identity.User, in UploadDocumentInput) (d *document.Document, err error) {
	defer func() { u.metrics.ObserveOp("upload_document", err) }()

	if !user.Authenticated() {
		return nil, fmt.Errorf("%w: user not authenticated", domain.ErrPermissionDenied)
	}
	if !in.Type.Valid() {
		return nil, fmt.Errorf("%w: unknown document type %q", domain.ErrValidation, in.Type)
	}
	if strings.TrimSpace(in.URI) == "" || strings.TrimSpace(in.FileName) == "" {
		return nil, fmt.Errorf("%w: uri and file_name are required", domain.ErrValidation)
	}
	latching := in.Type == document.TypeSecurity || in.Type == document.TypePaymentProof
	if latching && in.LoanID == "" {
		return nil, fmt.Errorf("%w: %s documents must reference a loan", domain.ErrValidation, in.Type)
	}

	u.mu.Lock()
	defer u.mu.Unlock()

	i := -1
	if in.LoanID != "" {
		if i = u.indexOf(in.LoanID); i < 0 {
			return nil, domain.ErrNotFound
		}
		if err := u.checkUploadAllowed(user, u.loans[i], in.Type); err != nil {
			return nil, err
		}
	}

	doc := document.Document{
		ID:         id.NewID32(),
		UserID:     user.ID,
		LoanID:     in.LoanID,
		Type:       in.Type,
		URI:        in.URI,
		FileName:   in.FileName,
		UploadedAt: u.clock.Now().UTC(),
	}
	documents := make([]document.Document, len(u.documents), len(u.documents)+1)
	copy(documents, u.documents)
	documents = append(documents, doc)
	if !latching {
		if err := u.saveJSON(ctx, u.keys.Documents, documents); err != nil {
			return nil, err
		}
		u.documents = documents
	} else {
		next := u.cloneLoans()
		if in.Type == document.TypeSecurity {
			next[i].SecurityDocsSubmitted = true
		} else {
			next[i].PaymentProofUploaded = true
		}
		next[i].Version++
		err = u.saveAll(ctx,
			snapshot{u.keys.Documents, documents},
			snapshot{u.keys.Loans, next})
		if err != nil {
			return nil, err
		}
		u.documents, u.loans = documents, next
	}

	u.log.Info("document uploaded",
		zap.String("document_id", doc.ID),
		zap.String("type", string(doc.Type)),
		zap.String("loan_id", doc.LoanID))
	return &doc, nil
}

func (u *Usecase) checkUploadAllowed(user identity.User, l domain.Loan, typ document.Type) error {
	switch typ {
	case document.TypePaymentProof:
		if err := u.require(user, identity.ActionUploadPayment); err != nil {
			return err
		}
	default:
		if user.ID != l.UserID && !u.policy.Can(identity.ActionApproveLoans, user.Role) {
			return fmt.Errorf("%w: loan belongs to another user", domain.ErrPermissionDenied)
		}
	}
	if (typ == document.TypeSecurity || typ == document.TypePaymentProof) && l.Status != domain.StatusApproved {
		return fmt.Errorf("%w: %s documents need an approved loan, loan is %s", domain.ErrInvalidTransition, typ, l.Status)
	}
	return nil
}

// AcknowledgePayment is the borrower confirming receipt of funds. It starts the repayment clock.
func (u *Usecase) AcknowledgePayment(ctx context.Context, user identity.User, loanID string) (*domain.Loan, error) {
	l, err := u.acknowledge(ctx, user, loanID)
	u.metrics.ObserveOp("acknowledge_payment", err)
	if err != nil {
		return nil, err
	}
	u.log.Info("payment acknowledged", zap.String("loan_id", loanID), zap.Time("due_date", *l.DueDate))
	u.notify(ctx, *l, notification.TypeLoanDisbursed, "Loan Disbursed", u.disbursedMessage(*l))
	return l, nil
}

func (u *Usecase) acknowledge(ctx context.Context, user identity.User, loanID string) (*domain.Loan, error) {
	if !user.Authenticated() {
		return nil, fmt.Errorf("%w: user not authenticated", domain.ErrPermissionDenied)
	}

	u.mu.Lock()
	defer u.mu.Unlock()

	i := u.indexOf(loanID)
	if i < 0 {
		return nil, domain.ErrNotFound
	}
	cur := u.loans[i]
	switch {
	case cur.UserID != user.ID:
		return nil, fmt.Errorf("%w: only the borrower can acknowledge payment", domain.ErrPermissionDenied)
	case cur.Status != domain.StatusApproved:
		return nil, fmt.Errorf("%w: loan is %s, want %s", domain.ErrInvalidTransition, cur.Status, domain.StatusApproved)
	case !cur.PaymentProofUploaded:
		return nil, fmt.Errorf("%w: payment proof has not been uploaded", domain.ErrInvalidTransition)
	}

	next := u.cloneLoans()
	now := u.clock.Now().UTC()
	due := now.AddDate(0, cur.RepaymentPeriod, 0)
	next[i].PaymentAcknowledged = true
	next[i].Status = domain.StatusActive
	next[i].DisbursedAt = &now
	next[i].DueDate = &due
	next[i].RemindersSent = 0
	next[i].Version++
	if err := u.commitLoans(ctx, next); err != nil {
		return nil, err
	}
	out := next[i]
	return &out, nil
}

func (u *Usecase) UpdateInterestRate(ctx context.Context, user identity.User, rate float64) (r decimal.Decimal, err error) {
	defer func() { u.metrics.ObserveOp("update_interest_rate", err) }()

	if err := u.require(user, identity.ActionManageRates); err != nil {
		return decimal.Zero, err
	}
	v, err := domain.DecimalFromFloat("rate", rate)
	if err != nil {
		return decimal.Zero, err
	}
	if !v.IsPositive() || v.GreaterThan(decimal.NewFromInt(100)) {
		return decimal.Zero, fmt.Errorf("%w: interest rate must be between 0 and 100", domain.ErrValidation)
	}

	u.mu.Lock()
	defer u.mu.Unlock()
	if err := u.saveJSON(ctx, u.keys.InterestRate, v); err != nil {
		return decimal.Zero, err
	}
	u.rate = v
	u.log.Info("interest rate updated", zap.String("rate", v.String()), zap.String("by", user.ID))
	return v, nil
}

func (u *Usecase) CurrentInterestRate() decimal.Decimal {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.rate
}

// notify runs after the transition is committed; a failure here is logged, not returned.
func (u *Usecase) notify(ctx context.Context, l domain.Loan, typ notification.Type, title, message string) {
	if u.notifier == nil {
		return
	}
	if _, err := u.notifier.Create(ctx, l.UserID, typ, title, message, l.ID); err != nil {
		u.log.Warn("notification not recorded",
			zap.String("loan_id", l.ID),
			zap.String("type", string(typ)),
			zap.Error(err))
	}
}
