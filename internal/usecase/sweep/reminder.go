package sweep

import (
	"context"
	"time"

	domain "makono-backend/internal/domain/loan"
	"makono-backend/internal/infrastructure/metrics"

	"go.uber.org/zap"
)

const day = 24 * time.Hour

// Reminder thresholds. A reminder fires only on a tick where the whole-day count
// equals the threshold; a tick that skips that day skips the reminder.
const (
	FirstReminderDays  = 7
	SecondReminderDays = 3
)

// DaysUntil is floor((due - now) / 24h).
func DaysUntil(due, now time.Time) int {
	d := due.Sub(now)
	days := int(d / day)
	if d < 0 && d%day != 0 {
		days--
	}
	return days
}

type ReminderScheduler struct {
	loans   LoanStore
	log     *zap.Logger
	metrics *metrics.Metrics
}

func NewReminderScheduler(loans LoanStore, log *zap.Logger, m *metrics.Metrics) *ReminderScheduler {
	if log == nil {
		log = zap.NewNop()
	}
	return &ReminderScheduler{loans: loans, log: log.Named("reminder"), metrics: m}
}

func (s *ReminderScheduler) Name() string { return "reminder" }

func PlanReminders(loans []domain.Loan, now time.Time) []domain.Patch {
	var patches []domain.Patch
	for _, l := range loans {
		if !l.Status.Servicing() || l.DueDate == nil {
			continue
		}
		days := DaysUntil(*l.DueDate, now)
		reminder := 0
		switch {
		case days == FirstReminderDays && l.RemindersSent < 1:
			reminder = 1
		case days == SecondReminderDays && l.RemindersSent < 2:
			reminder = 2
		default:
			continue
		}
		patches = append(patches, domain.Patch{
			Kind:         domain.PatchReminderSent,
			LoanID:       l.ID,
			Version:      l.Version,
			At:           now,
			Reminder:     reminder,
			DaysUntilDue: days,
		})
	}
	return patches
}

func (s *ReminderScheduler) Sweep(ctx context.Context, now time.Time) (int, error) {
	defer s.metrics.ObserveSweep(s.Name(), time.Now())

	patches := PlanReminders(s.loans.Snapshot(), now)
	if len(patches) == 0 {
		return 0, nil
	}
	n, err := s.loans.ApplyPatches(ctx, patches)
	if err != nil {
		return 0, err
	}
	s.log.Info("payment reminders sent", zap.Int("count", n))
	return n, nil
}
