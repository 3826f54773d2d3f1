package quota

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/tallybook/tallybook/pkg/plan"
)

// Window is the rolling lookback used to count recent creations: a sliding
// 168-hour window ending at the instant of the check, not calendar-aligned.
const Window = 7 * 24 * time.Hour

// WindowStart returns the inclusive lower bound of the rolling window for a
// check happening at now. A record created exactly Window ago falls outside
// the count (created_at >= start is evaluated against a strictly later start).
func WindowStart(now time.Time) time.Time {
	return now.Add(-Window)
}

// Decision is the outcome of a quota check. Count is informational for
// unlimited plans (no count query is issued there, it stays zero).
type Decision struct {
	Count   int64 `json:"count"`
	Limit   int64 `json:"limit"`
	Allowed bool  `json:"allowed"`
}

// TierResolver resolves the current plan tier for an owner, typically by
// reading the profile cache maintained by the subscription reconciler.
type TierResolver func(ctx context.Context, ownerID uuid.UUID) (plan.Tier, error)

// Service decides whether an owner may create one more unit of a resource
// kind right now. It is read-only and pull-based: callers must re-invoke it
// after every insert or delete of a counted resource, the service pushes
// nothing.
type Service interface {
	// CanCreate evaluates the rolling-window quota for one creation attempt.
	// The error path is reserved for infrastructure faults (fail closed);
	// an exhausted quota is a normal Decision with Allowed=false.
	CanCreate(ctx context.Context, ownerID uuid.UUID, res plan.Resource) (Decision, error)

	// Usage returns the current window count and limit for dashboards.
	// Unlike CanCreate it counts even for unlimited plans.
	Usage(ctx context.Context, ownerID uuid.UUID, res plan.Resource) (Decision, error)
}

type service struct {
	catalog  *plan.Catalog
	counters CounterRegistry
	tiers    TierResolver
	now      func() time.Time
}

// Option configures the quota service.
type Option func(*service)

// WithClock overrides the time source, used by tests to pin the window edge.
func WithClock(now func() time.Time) Option {
	return func(s *service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService creates a quota Service. Panics if any required dependency is
// nil to fail fast during startup wiring.
func NewService(catalog *plan.Catalog, counters CounterRegistry, tiers TierResolver, opts ...Option) Service {
	if catalog == nil {
		panic("quota: plan catalog is required")
	}
	if counters == nil {
		panic("quota: counter registry is required")
	}
	if tiers == nil {
		panic("quota: tier resolver is required")
	}

	s := &service{
		catalog:  catalog,
		counters: counters,
		tiers:    tiers,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *service) CanCreate(ctx context.Context, ownerID uuid.UUID, res plan.Resource) (Decision, error) {
	tier, err := s.tiers(ctx, ownerID)
	if err != nil {
		return Decision{}, errors.Join(ErrTierResolveFailed, err)
	}

	limit := s.catalog.LimitFor(tier, res)
	if limit == plan.Unlimited {
		return Decision{Limit: plan.Unlimited, Allowed: true}, nil
	}

	count, err := s.countWindow(ctx, ownerID, res)
	if err != nil {
		return Decision{}, err
	}

	// The allowance itself may be consumed in full: the check runs before
	// the increment, so count == limit-1 still passes and count == limit
	// denies the next creation.
	return Decision{
		Count:   count,
		Limit:   limit,
		Allowed: count < limit,
	}, nil
}

func (s *service) Usage(ctx context.Context, ownerID uuid.UUID, res plan.Resource) (Decision, error) {
	tier, err := s.tiers(ctx, ownerID)
	if err != nil {
		return Decision{}, errors.Join(ErrTierResolveFailed, err)
	}

	limit := s.catalog.LimitFor(tier, res)

	count, err := s.countWindow(ctx, ownerID, res)
	if err != nil {
		return Decision{}, err
	}

	return Decision{
		Count:   count,
		Limit:   limit,
		Allowed: limit == plan.Unlimited || count < limit,
	}, nil
}

func (s *service) countWindow(ctx context.Context, ownerID uuid.UUID, res plan.Resource) (int64, error) {
	counter, exists := s.counters[res]
	if !exists {
		return 0, ErrNoCounterRegistered
	}

	count, err := counter(ctx, ownerID, WindowStart(s.now()))
	if err != nil {
		return 0, errors.Join(ErrUsageUnavailable, err)
	}
	return count, nil
}
