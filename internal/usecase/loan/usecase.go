package loan

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"makono-backend/internal/domain/document"
	"makono-backend/internal/domain/identity"
	"makono-backend/internal/domain/kv"
	domain "makono-backend/internal/domain/loan"
	"makono-backend/internal/infrastructure/metrics"

	"github.com/jonboulle/clockwork"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Usecase owns the loan, document and schedule collections plus the global rate.
// Every mutation, foreground or sweep, goes through mu.
type Usecase struct {
	mu sync.Mutex

	store    kv.Store
	keys     domain.Keys
	policy   identity.Policy
	notifier Notifier
	clock    clockwork.Clock
	log      *zap.Logger
	metrics  *metrics.Metrics
	catalog  Catalog

	loans     []domain.Loan
	documents []document.Document
	schedules []domain.RepaymentSchedule
	rate      decimal.Decimal
}

type Deps struct {
	Store     kv.Store
	Namespace string
	Policy    identity.Policy
	Notifier  Notifier
	Clock     clockwork.Clock
	Logger    *zap.Logger
	Metrics   *metrics.Metrics
	Catalog   Catalog
}

func NewUsecase(d Deps) *Usecase {
	if d.Policy == nil {
		d.Policy = identity.DefaultPolicy()
	}
	if d.Clock == nil {
		d.Clock = clockwork.NewRealClock()
	}
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.Catalog.MaxRepaymentMonths == 0 {
		d.Catalog = DefaultCatalog()
	}
	return &Usecase{
		store:    d.Store,
		keys:     domain.NewKeys(d.Namespace),
		policy:   d.Policy,
		notifier: d.Notifier,
		clock:    d.Clock,
		log:      d.Logger,
		metrics:  d.Metrics,
		catalog:  d.Catalog,
		rate:     d.Catalog.DefaultInterestRate,
	}
}

func (u *Usecase) Catalog() Catalog { return u.catalog }

// Load reads every collection from the store. Absent keys leave the collection empty
// and the rate at the catalog default.
func (u *Usecase) Load(ctx context.Context) error {
	var (
		loans     []domain.Loan
		documents []document.Document
		schedules []domain.RepaymentSchedule
		rate      = u.catalog.DefaultInterestRate
	)
	if err := u.loadJSON(ctx, u.keys.Loans, &loans); err != nil {
		return err
	}
	if err := u.loadJSON(ctx, u.keys.Documents, &documents); err != nil {
		return err
	}
	if err := u.loadJSON(ctx, u.keys.Schedules, &schedules); err != nil {
		return err
	}
	if err := u.loadJSON(ctx, u.keys.InterestRate, &rate); err != nil {
		return err
	}

	u.mu.Lock()
	u.loans, u.documents, u.schedules, u.rate = loans, documents, schedules, rate
	u.mu.Unlock()

	u.log.Info("loan store loaded",
		zap.Int("loans", len(loans)),
		zap.Int("documents", len(documents)),
		zap.String("interest_rate", rate.String()))
	return nil
}

func (u *Usecase) loadJSON(ctx context.Context, key string, dst any) error {
	raw, err := u.store.Get(ctx, key)
	if errors.Is(err, kv.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("%w: load %s: %v", domain.ErrPersistence, key, err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("%w: decode %s: %v", domain.ErrPersistence, key, err)
	}
	return nil
}

func (u *Usecase) saveJSON(ctx context.Context, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("%w: encode %s: %v", domain.ErrPersistence, key, err)
	}
	if err := u.store.Set(ctx, key, raw); err != nil {
		u.log.Error("kv write failed", zap.String("key", key), zap.Error(err))
		return fmt.Errorf("%w: save %s: %v", domain.ErrPersistence, key, err)
	}
	return nil
}

type snapshot struct {
	key string
	v   any
}

// saveAll writes several snapshots. A kv.Batcher commits them in one transaction;
// any other store gets them one by one, in order.
func (u *Usecase) saveAll(ctx context.Context, snaps ...snapshot) error {
	b, ok := u.store.(kv.Batcher)
	if !ok {
		for _, sn := range snaps {
			if err := u.saveJSON(ctx, sn.key, sn.v); err != nil {
				return err
			}
		}
		return nil
	}
	entries := make(map[string][]byte, len(snaps))
	for _, sn := range snaps {
		raw, err := json.Marshal(sn.v)
		if err != nil {
			return fmt.Errorf("%w: encode %s: %v", domain.ErrPersistence, sn.key, err)
		}
		entries[sn.key] = raw
	}
	if err := b.SetMany(ctx, entries); err != nil {
		u.log.Error("kv batch write failed", zap.Int("keys", len(entries)), zap.Error(err))
		return fmt.Errorf("%w: save batch: %v", domain.ErrPersistence, err)
	}
	return nil
}

// commitLoans persists next and swaps it in. Callers hold mu.
func (u *Usecase) commitLoans(ctx context.Context, next []domain.Loan) error {
	if err := u.saveJSON(ctx, u.keys.Loans, next); err != nil {
		return err
	}
	u.loans = next
	return nil
}

func (u *Usecase) cloneLoans() []domain.Loan {
	next := make([]domain.Loan, len(u.loans))
	copy(next, u.loans)
	return next
}

func (u *Usecase) indexOf(loanID string) int {
	for i := range u.loans {
		if u.loans[i].ID == loanID {
			return i
		}
	}
	return -1
}

func (u *Usecase) require(user identity.User, action identity.Action) error {
	if !user.Authenticated() {
		return fmt.Errorf("%w: user not authenticated", domain.ErrPermissionDenied)
	}
	if !u.policy.Can(action, user.Role) {
		return fmt.Errorf("%w: role %s cannot %s", domain.ErrPermissionDenied, user.Role, action)
	}
	return nil
}

func (u *Usecase) canSee(user identity.User, l domain.Loan) bool {
	return user.ID == l.UserID || u.policy.Can(identity.ActionViewAdmin, user.Role)
}
