package loan

import (
	"time"

	"github.com/shopspring/decimal"
)

type PatchKind string

const (
	PatchMarkOverdue  PatchKind = "mark_overdue"
	PatchReminderSent PatchKind = "reminder_sent"
)

// Patch is a change computed by a background sweep against a snapshot of one loan.
// It is submitted back to the lifecycle usecase, which re-checks the guard before applying.
type Patch struct {
	Kind    PatchKind
	LoanID  string
	Version int
	At      time.Time

	// mark_overdue
	Penalty decimal.Decimal
	// reminder_sent: the value RemindersSent moves to (1 for the 7-day, 2 for the 3-day reminder)
	Reminder     int
	DaysUntilDue int
}

// Apply mutates l in place. It returns false when the patch no longer applies
// (stale version, already overdue, reminder already sent).
func (p Patch) Apply(l *Loan) bool {
	if l.ID != p.LoanID || l.Version != p.Version {
		return false
	}
	switch p.Kind {
	case PatchMarkOverdue:
		if l.IsOverdue || !l.Status.Servicing() {
			return false
		}
		l.LatePaymentPenalty = p.Penalty
		l.TotalPayable = l.TotalPayable.Add(p.Penalty)
		l.IsOverdue = true
		l.Status = StatusOverdue
	case PatchReminderSent:
		if !l.Status.Servicing() || l.RemindersSent >= p.Reminder {
			return false
		}
		l.RemindersSent = p.Reminder
		l.LastReminderAt = ptrTime(p.At)
	default:
		return false
	}
	l.Version++
	return true
}
