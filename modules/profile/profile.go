package profile

import (
	"time"

	"github.com/google/uuid"

	"github.com/tallybook/tallybook/pkg/plan"
)

// Profile is the per-owner record caching the authoritative plan state.
// Plan fields are written only by the subscription reconciler; contact
// fields only by user-facing profile edits. The row is provisioned on the
// owner's first authenticated touch and deleted only with the account.
type Profile struct {
	OwnerID       uuid.UUID
	Email         string
	FullName      string
	Phone         string
	PlanTier      plan.Tier
	PlanStartedAt time.Time
	PlanExpiresAt *time.Time // meaningful only for the pro tier
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// IsPro reports whether the cached tier is pro.
func (p *Profile) IsPro() bool {
	return p.PlanTier == plan.TierPro
}

// ContactUpdate carries the user-editable contact fields. Plan fields are
// deliberately absent: profile edits can never touch them.
type ContactUpdate struct {
	FullName string
	Phone    string
}
