package plan

import (
	"maps"
	"slices"
)

// Plan describes a subscription tier and its resource/feature constraints.
// PriceID should be set to the billing provider's price ID for paid plans
// so checkout can map the tier to a provider price directly.
type Plan struct {
	Tier     Tier
	Name     string
	PriceID  string
	Limits   map[Resource]int64 // -1 represents unlimited
	Features []Feature
}

// LimitFor returns the creation limit for a resource.
// Resources not listed in the plan are treated as forbidden (limit 0).
func (p Plan) LimitFor(res Resource) int64 {
	limit, ok := p.Limits[res]
	if !ok {
		return 0
	}
	return limit
}

// HasFeature reports whether the plan enables the given feature.
func (p Plan) HasFeature(f Feature) bool {
	return slices.Contains(p.Features, f)
}

// Catalog is the static tier-to-entitlements table. Treated as immutable
// after load; thread-safety depends on that immutability.
type Catalog struct {
	plans map[Tier]Plan
}

// For returns the plan for a tier. Unknown tiers fall back to the free
// plan so a corrupted profile row can never grant extra entitlements.
func (c *Catalog) For(tier Tier) Plan {
	if p, ok := c.plans[tier]; ok {
		return p
	}
	return c.plans[TierFree]
}

// LimitFor is shorthand for For(tier).LimitFor(res).
func (c *Catalog) LimitFor(tier Tier, res Resource) int64 {
	return c.For(tier).LimitFor(res)
}

// HasFeature is shorthand for For(tier).HasFeature(f).
func (c *Catalog) HasFeature(tier Tier, f Feature) bool {
	return c.For(tier).HasFeature(f)
}

// Tiers returns all tiers present in the catalog.
func (c *Catalog) Tiers() []Tier {
	return slices.Sorted(maps.Keys(c.plans))
}

// WeeklyCreateLimit is the free-tier creation allowance per resource kind
// within the rolling 7-day window. Transactions and clients are counted
// independently, not as a shared pool.
const WeeklyCreateLimit int64 = 5

// DefaultCatalog returns the built-in two-tier catalog: free with a weekly
// creation allowance per resource, pro with unlimited resources.
func DefaultCatalog() *Catalog {
	c, err := NewCatalog(map[Tier]Plan{
		TierFree: {
			Tier: TierFree,
			Name: "Free",
			Limits: map[Resource]int64{
				ResourceTransactions: WeeklyCreateLimit,
				ResourceClients:      WeeklyCreateLimit,
			},
		},
		TierPro: {
			Tier: TierPro,
			Name: "Pro",
			Limits: map[Resource]int64{
				ResourceTransactions: Unlimited,
				ResourceClients:      Unlimited,
			},
			Features: []Feature{FeatureReports, FeatureExport, FeaturePrioritySupport},
		},
	})
	if err != nil {
		panic(err) // static configuration, must be valid
	}
	return c
}

// NewCatalog validates the given plans and returns a Catalog.
// A free plan is required because it is the fallback for unknown tiers.
func NewCatalog(plans map[Tier]Plan) (*Catalog, error) {
	if err := validatePlans(plans); err != nil {
		return nil, err
	}

	plansCopy := make(map[Tier]Plan, len(plans))
	for tier, p := range plans {
		if p.Tier == "" {
			p.Tier = tier
		}
		p.Limits = maps.Clone(p.Limits)
		p.Features = slices.Clone(p.Features)
		plansCopy[tier] = p
	}
	return &Catalog{plans: plansCopy}, nil
}
