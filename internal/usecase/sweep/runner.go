package sweep

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

type Sweeper interface {
	Name() string
	Sweep(ctx context.Context, now time.Time) (int, error)
}

// Runner drives sweepers on a fixed interval: once on Start, then on every tick.
type Runner struct {
	sweepers []Sweeper
	interval time.Duration
	clock    clockwork.Clock
	log      *zap.Logger

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	started bool
}

func NewRunner(interval time.Duration, clock clockwork.Clock, log *zap.Logger, sweepers ...Sweeper) *Runner {
	if interval <= 0 {
		interval = time.Minute
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Runner{
		sweepers: sweepers,
		interval: interval,
		clock:    clock,
		log:      log.Named("sweep"),
	}
}

// Start launches the loop. Calling it twice is a no-op.
func (r *Runner) Start(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.started {
		return
	}
	r.started = true

	ctx, r.cancel = context.WithCancel(ctx)
	r.done = make(chan struct{})
	ticker := r.clock.NewTicker(r.interval)

	go func() {
		defer close(r.done)
		defer ticker.Stop()

		r.RunOnce(ctx)
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.Chan():
				r.RunOnce(ctx)
			}
		}
	}()
	r.log.Info("sweeps started", zap.Duration("interval", r.interval), zap.Int("sweepers", len(r.sweepers)))
}

// Stop cancels the loop and waits for the in-flight pass to finish.
func (r *Runner) Stop() {
	r.mu.Lock()
	if !r.started {
		r.mu.Unlock()
		return
	}
	cancel, done := r.cancel, r.done
	r.started = false
	r.mu.Unlock()

	cancel()
	<-done
	r.log.Info("sweeps stopped")
}

// RunOnce runs every sweeper in order. A failing sweeper is logged and does not stop the rest.
func (r *Runner) RunOnce(ctx context.Context) {
	now := r.clock.Now()
	for _, s := range r.sweepers {
		if ctx.Err() != nil {
			return
		}
		n, err := s.Sweep(ctx, now)
		if err != nil {
			r.log.Error("sweep failed", zap.String("sweeper", s.Name()), zap.Error(err))
			continue
		}
		if n > 0 {
			r.log.Debug("sweep applied", zap.String("sweeper", s.Name()), zap.Int("patches", n))
		}
	}
}
