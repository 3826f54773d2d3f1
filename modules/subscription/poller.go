package subscription

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"time"
)

// OwnerSource lists the owners whose plan cache should be kept fresh in
// the background, typically those with a recently active session.
type OwnerSource func(ctx context.Context) ([]Owner, error)

// Poller periodically reconciles every owner the source reports. It is
// the safety net behind the on-demand reconciliation the HTTP layer
// does: plan changes made entirely on the provider's side (a failed
// renewal, a support-desk refund) land in the cache within one interval
// even if the owner never opens the app.
type Poller struct {
	reconciler *Reconciler
	source     OwnerSource
	interval   time.Duration
	log        *slog.Logger
}

// NewPoller creates a Poller. The reconciler and source are required;
// interval falls back to 30 seconds when non-positive.
func NewPoller(reconciler *Reconciler, source OwnerSource, interval time.Duration, log *slog.Logger) *Poller {
	if reconciler == nil {
		panic("subscription: reconciler is required")
	}
	if source == nil {
		panic("subscription: owner source is required")
	}
	if interval <= 0 {
		interval = 30 * time.Second
	}
	if log == nil {
		log = slog.Default()
	}
	return &Poller{reconciler: reconciler, source: source, interval: interval, log: log}
}

// Run blocks until ctx is cancelled, reconciling on every tick. The
// first tick is jittered so multiple replicas do not hit the provider
// in lockstep. Individual failures are logged and skipped; one broken
// owner never stalls the rest.
func (p *Poller) Run(ctx context.Context) error {
	jitter := time.Duration(rand.Int64N(int64(p.interval)))
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(jitter):
	}

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		p.pass(ctx)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (p *Poller) pass(ctx context.Context) {
	owners, err := p.source(ctx)
	if err != nil {
		p.log.ErrorContext(ctx, "failed to list owners for reconciliation", slog.Any("error", err))
		return
	}

	for _, owner := range owners {
		if ctx.Err() != nil {
			return
		}
		if _, err := p.reconciler.Reconcile(ctx, owner); err != nil {
			p.log.WarnContext(ctx, "background reconciliation failed",
				slog.String("owner_id", owner.ID.String()),
				slog.Any("error", err))
		}
	}
}
