package notification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"

	"makono-backend/internal/domain/identity"
	"makono-backend/internal/domain/kv"
	domainLoan "makono-backend/internal/domain/loan"
	domain "makono-backend/internal/domain/notification"
	"makono-backend/internal/infrastructure/metrics"
	"makono-backend/pkg/id"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

// Usecase is the append-only notification log. The whole log is persisted on every change.
type Usecase struct {
	mu      sync.Mutex
	store   kv.Store
	key     string
	clock   clockwork.Clock
	log     *zap.Logger
	metrics *metrics.Metrics

	items []domain.Notification
}

func NewUsecase(store kv.Store, namespace string, clock clockwork.Clock, log *zap.Logger, m *metrics.Metrics) *Usecase {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Usecase{
		store:   store,
		key:     kv.Key(namespace, domain.KeyNotifications),
		clock:   clock,
		log:     log,
		metrics: m,
	}
}

// Load replaces the in-memory log with the persisted one. An absent key yields an empty log.
func (u *Usecase) Load(ctx context.Context) error {
	raw, err := u.store.Get(ctx, u.key)
	if errors.Is(err, kv.ErrNotFound) {
		u.mu.Lock()
		u.items = nil
		u.mu.Unlock()
		return nil
	}
	if err != nil {
		return fmt.Errorf("%w: load notifications: %v", domainLoan.ErrPersistence, err)
	}
	var items []domain.Notification
	if err := json.Unmarshal(raw, &items); err != nil {
		return fmt.Errorf("%w: decode notifications: %v", domainLoan.ErrPersistence, err)
	}
	u.mu.Lock()
	u.items = items
	u.mu.Unlock()
	return nil
}

func (u *Usecase) Create(ctx context.Context, userID string, typ domain.Type, title, message, loanID string) (*domain.Notification, error) {
	n := domain.Notification{
		ID:        id.NewID32(),
		UserID:    userID,
		LoanID:    loanID,
		Type:      typ,
		Title:     title,
		Message:   message,
		CreatedAt: u.clock.Now().UTC(),
	}

	u.mu.Lock()
	defer u.mu.Unlock()

	next := make([]domain.Notification, len(u.items), len(u.items)+1)
	copy(next, u.items)
	next = append(next, n)
	if err := u.save(ctx, next); err != nil {
		return nil, err
	}
	u.items = next

	u.metrics.ObserveNotification(string(typ))
	u.log.Debug("notification created",
		zap.String("notification_id", n.ID),
		zap.String("user_id", userID),
		zap.String("type", string(typ)),
		zap.String("title", title))
	return &n, nil
}

// ListForUser returns the user's notifications, newest first.
func (u *Usecase) ListForUser(userID string) []domain.Notification {
	u.mu.Lock()
	defer u.mu.Unlock()

	out := make([]domain.Notification, 0)
	for _, n := range u.items {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (u *Usecase) UnreadCount(userID string) int {
	u.mu.Lock()
	defer u.mu.Unlock()

	c := 0
	for _, n := range u.items {
		if n.UserID == userID && !n.Read {
			c++
		}
	}
	return c
}

// MarkRead flips the read flag. Calls on an already-read notification do not write.
func (u *Usecase) MarkRead(ctx context.Context, user identity.User, notificationID string) (*domain.Notification, error) {
	u.mu.Lock()
	defer u.mu.Unlock()

	idx := -1
	for i := range u.items {
		if u.items[i].ID == notificationID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, domain.ErrNotFound
	}
	if u.items[idx].UserID != user.ID {
		return nil, fmt.Errorf("%w: notification belongs to another user", domainLoan.ErrPermissionDenied)
	}
	if u.items[idx].Read {
		n := u.items[idx]
		return &n, nil
	}

	next := make([]domain.Notification, len(u.items))
	copy(next, u.items)
	next[idx].Read = true
	if err := u.save(ctx, next); err != nil {
		return nil, err
	}
	u.items = next
	n := next[idx]
	return &n, nil
}

func (u *Usecase) save(ctx context.Context, items []domain.Notification) error {
	raw, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("%w: encode notifications: %v", domainLoan.ErrPersistence, err)
	}
	if err := u.store.Set(ctx, u.key, raw); err != nil {
		u.log.Error("save notifications failed", zap.Error(err))
		return fmt.Errorf("%w: save notifications: %v", domainLoan.ErrPersistence, err)
	}
	return nil
}
