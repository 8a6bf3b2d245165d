package sweep

import (
	"context"
	"time"

	domain "makono-backend/internal/domain/loan"
	"makono-backend/internal/infrastructure/metrics"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// PenaltyRate is the one-time late surcharge as a fraction of the total payable.
var PenaltyRate = decimal.RequireFromString("0.02")

// LoanStore is the slice of the lifecycle usecase the sweeps need.
type LoanStore interface {
	Snapshot() []domain.Loan
	ApplyPatches(ctx context.Context, patches []domain.Patch) (int, error)
}

type OverdueMonitor struct {
	loans   LoanStore
	log     *zap.Logger
	metrics *metrics.Metrics
}

func NewOverdueMonitor(loans LoanStore, log *zap.Logger, m *metrics.Metrics) *OverdueMonitor {
	if log == nil {
		log = zap.NewNop()
	}
	return &OverdueMonitor{loans: loans, log: log.Named("overdue"), metrics: m}
}

func (m *OverdueMonitor) Name() string { return "overdue" }

// PlanOverdue returns a mark_overdue patch for every servicing loan whose due date has passed.
func PlanOverdue(loans []domain.Loan, now time.Time) []domain.Patch {
	var patches []domain.Patch
	for _, l := range loans {
		if !l.Status.Servicing() || l.DueDate == nil || l.IsOverdue {
			continue
		}
		if !now.After(*l.DueDate) {
			continue
		}
		patches = append(patches, domain.Patch{
			Kind:    domain.PatchMarkOverdue,
			LoanID:  l.ID,
			Version: l.Version,
			At:      now,
			Penalty: l.TotalPayable.Mul(PenaltyRate),
		})
	}
	return patches
}

func (m *OverdueMonitor) Sweep(ctx context.Context, now time.Time) (int, error) {
	defer m.metrics.ObserveSweep(m.Name(), time.Now())

	patches := PlanOverdue(m.loans.Snapshot(), now)
	if len(patches) == 0 {
		return 0, nil
	}
	n, err := m.loans.ApplyPatches(ctx, patches)
	if err != nil {
		return 0, err
	}
	m.log.Info("loans marked overdue", zap.Int("count", n))
	return n, nil
}
