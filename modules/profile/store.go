package profile

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/tallybook/tallybook/pkg/plan"
)

// Store persists profiles. All operations are scoped by owner ID; the
// backing table additionally enforces row-level isolation so no query can
// cross owner boundaries even if a caller misbehaves.
type Store interface {
	// Get returns the owner's profile or ErrProfileNotFound.
	Get(ctx context.Context, ownerID uuid.UUID) (*Profile, error)

	// Ensure provisions the profile on first touch and returns it. Existing
	// profiles are returned unchanged (the email is not overwritten).
	Ensure(ctx context.Context, ownerID uuid.UUID, email string) (*Profile, error)

	// UpdatePlan overwrites the plan tier and expiry unconditionally
	// (last-reconciliation-wins). The plan start timestamp is reset only
	// when the tier actually changes.
	UpdatePlan(ctx context.Context, ownerID uuid.UUID, tier plan.Tier, expiresAt *time.Time) error

	// UpdateContact updates user-editable contact fields, never plan fields.
	UpdateContact(ctx context.Context, ownerID uuid.UUID, upd ContactUpdate) error

	// Delete removes the profile as part of account deletion.
	Delete(ctx context.Context, ownerID uuid.UUID) error
}

// TierResolver adapts a Store to the quota engine's tier lookup. Owners
// without a profile resolve to the free tier rather than erroring: the
// provisioning trigger makes that state nearly impossible, and free is the
// safe default when it happens anyway.
func TierResolver(store Store) func(ctx context.Context, ownerID uuid.UUID) (plan.Tier, error) {
	return func(ctx context.Context, ownerID uuid.UUID) (plan.Tier, error) {
		p, err := store.Get(ctx, ownerID)
		if err != nil {
			if errors.Is(err, ErrProfileNotFound) {
				return plan.TierFree, nil
			}
			return "", err
		}
		return p.PlanTier, nil
	}
}
