package loan

import (
	"context"

	domain "makono-backend/internal/domain/loan"
	"makono-backend/internal/domain/notification"

	"go.uber.org/zap"
)

// Snapshot returns a copy of the loan collection for sweeps to scan.
func (u *Usecase) Snapshot() []domain.Loan {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.cloneLoans()
}

type pendingNotice struct {
	loan    domain.Loan
	typ     notification.Type
	title   string
	message string
}

// ApplyPatches applies sweep patches in one write. Stale patches, and patches whose
// guard no longer holds, are skipped. It returns the number applied.
// Notifications for applied patches are sent after the write succeeds.
func (u *Usecase) ApplyPatches(ctx context.Context, patches []domain.Patch) (int, error) {
	if len(patches) == 0 {
		return 0, nil
	}

	notices, err := u.applyPatches(ctx, patches)
	if err != nil {
		return 0, err
	}
	for _, n := range notices {
		u.notify(ctx, n.loan, n.typ, n.title, n.message)
	}
	return len(notices), nil
}

func (u *Usecase) applyPatches(ctx context.Context, patches []domain.Patch) ([]pendingNotice, error) {
	u.mu.Lock()
	defer u.mu.Unlock()

	next := u.cloneLoans()
	var notices []pendingNotice
	for _, p := range patches {
		i := u.indexOf(p.LoanID)
		applied := i >= 0 && p.Apply(&next[i])
		u.metrics.ObservePatch(string(p.Kind), applied)
		if !applied {
			u.log.Debug("patch skipped", zap.String("loan_id", p.LoanID), zap.String("kind", string(p.Kind)))
			continue
		}

		l := next[i]
		switch p.Kind {
		case domain.PatchMarkOverdue:
			notices = append(notices, pendingNotice{l, notification.TypePaymentOverdue, "Payment Overdue", u.overdueMessage(p.Penalty)})
		case domain.PatchReminderSent:
			notices = append(notices, pendingNotice{l, notification.TypePaymentReminder, "Payment Reminder", u.reminderMessage(l, p.DaysUntilDue)})
		}
	}
	if len(notices) == 0 {
		return nil, nil
	}
	if err := u.commitLoans(ctx, next); err != nil {
		return nil, err
	}
	u.log.Info("sweep patches applied", zap.Int("submitted", len(patches)), zap.Int("applied", len(notices)))
	return notices, nil
}
