package loan

import (
	"fmt"
	"sort"

	"makono-backend/internal/domain/document"
	"makono-backend/internal/domain/identity"
	domain "makono-backend/internal/domain/loan"

	"github.com/shopspring/decimal"
)

func newestFirst(loans []domain.Loan) []domain.Loan {
	sort.SliceStable(loans, func(i, j int) bool { return loans[i].CreatedAt.After(loans[j].CreatedAt) })
	return loans
}

func (u *Usecase) Get(user identity.User, loanID string) (*domain.Loan, error) {
	u.mu.Lock()
	defer u.mu.Unlock()

	i := u.indexOf(loanID)
	if i < 0 {
		return nil, domain.ErrNotFound
	}
	if !u.canSee(user, u.loans[i]) {
		return nil, fmt.Errorf("%w: loan belongs to another user", domain.ErrPermissionDenied)
	}
	out := u.loans[i]
	return &out, nil
}

// ListForUser returns the user's loans, newest first.
func (u *Usecase) ListForUser(userID string) []domain.Loan {
	u.mu.Lock()
	defer u.mu.Unlock()

	out := make([]domain.Loan, 0)
	for _, l := range u.loans {
		if l.UserID == userID {
			out = append(out, l)
		}
	}
	return newestFirst(out)
}

// ListAll returns every loan, newest first, optionally filtered by status.
func (u *Usecase) ListAll(user identity.User, status domain.Status) ([]domain.Loan, error) {
	if err := u.require(user, identity.ActionViewAdmin); err != nil {
		return nil, err
	}
	u.mu.Lock()
	defer u.mu.Unlock()

	out := make([]domain.Loan, 0, len(u.loans))
	for _, l := range u.loans {
		if status == "" || l.Status == status {
			out = append(out, l)
		}
	}
	return newestFirst(out), nil
}

func (u *Usecase) Schedule(user identity.User, loanID string) (*domain.RepaymentSchedule, error) {
	if _, err := u.Get(user, loanID); err != nil {
		return nil, err
	}
	u.mu.Lock()
	defer u.mu.Unlock()

	for _, s := range u.schedules {
		if s.LoanID == loanID {
			out := s
			return &out, nil
		}
	}
	return nil, fmt.Errorf("%w: no schedule stored for loan %s", domain.ErrNotFound, loanID)
}

func (u *Usecase) DocumentsForUser(userID string) []document.Document {
	u.mu.Lock()
	defer u.mu.Unlock()

	out := make([]document.Document, 0)
	for _, d := range u.documents {
		if d.UserID == userID {
			out = append(out, d)
		}
	}
	return out
}

func (u *Usecase) DocumentsForLoan(user identity.User, loanID string) ([]document.Document, error) {
	if _, err := u.Get(user, loanID); err != nil {
		return nil, err
	}
	u.mu.Lock()
	defer u.mu.Unlock()

	out := make([]document.Document, 0)
	for _, d := range u.documents {
		if d.LoanID == loanID {
			out = append(out, d)
		}
	}
	return out, nil
}

// Document returns one document's metadata. Visible to its uploader, the loan's owner and admins.
func (u *Usecase) Document(user identity.User, documentID string) (*document.Document, error) {
	u.mu.Lock()
	defer u.mu.Unlock()

	for _, d := range u.documents {
		if d.ID != documentID {
			continue
		}
		if d.UserID == user.ID || u.policy.Can(identity.ActionViewAdmin, user.Role) {
			return &d, nil
		}
		if i := u.indexOf(d.LoanID); i >= 0 && u.loans[i].UserID == user.ID {
			return &d, nil
		}
		return nil, fmt.Errorf("%w: document belongs to another user", domain.ErrPermissionDenied)
	}
	return nil, document.ErrNotFound
}

func (u *Usecase) AdminStats(user identity.User) (*AdminStats, error) {
	if err := u.require(user, identity.ActionViewAdmin); err != nil {
		return nil, err
	}
	u.mu.Lock()
	defer u.mu.Unlock()

	stats := &AdminStats{
		TotalLoans: len(u.loans),
		ByStatus:   map[domain.Status]int{},
		Revenue:    decimal.Zero,
	}
	for _, l := range u.loans {
		stats.ByStatus[l.Status]++
		if l.Status == domain.StatusApproved {
			stats.Revenue = stats.Revenue.Add(l.TotalPayable.Sub(l.Amount))
		}
	}
	return stats, nil
}

// History lists completed and rejected loans, newest first. An empty userID means
// every borrower and needs admin visibility, as does asking about someone else.
func (u *Usecase) History(user identity.User, userID string) ([]domain.Loan, error) {
	if userID == "" || userID != user.ID {
		if err := u.require(user, identity.ActionViewAdmin); err != nil {
			return nil, err
		}
	}
	u.mu.Lock()
	defer u.mu.Unlock()

	out := make([]domain.Loan, 0)
	for _, l := range u.loans {
		if userID != "" && l.UserID != userID {
			continue
		}
		if l.Status == domain.StatusCompleted || l.Status == domain.StatusRejected {
			out = append(out, l)
		}
	}
	return newestFirst(out), nil
}

// BorrowerSummaries aggregates loans per borrower, sorted by user id.
func (u *Usecase) BorrowerSummaries(user identity.User) ([]BorrowerSummary, error) {
	if err := u.require(user, identity.ActionViewAdmin); err != nil {
		return nil, err
	}
	u.mu.Lock()
	defer u.mu.Unlock()

	byUser := map[string]*BorrowerSummary{}
	for _, l := range u.loans {
		s, ok := byUser[l.UserID]
		if !ok {
			s = &BorrowerSummary{UserID: l.UserID, TotalBorrowed: decimal.Zero}
			byUser[l.UserID] = s
		}
		s.TotalLoans++
		switch l.Status {
		case domain.StatusActive, domain.StatusDisbursed, domain.StatusOverdue:
			s.ActiveLoans++
		}
		switch l.Status {
		case domain.StatusApproved, domain.StatusActive, domain.StatusDisbursed:
			s.TotalBorrowed = s.TotalBorrowed.Add(l.Amount)
		}
	}

	out := make([]BorrowerSummary, 0, len(byUser))
	for _, s := range byUser {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}
