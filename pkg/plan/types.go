package plan

// Tier identifies a subscription plan tier.
type Tier string

const (
	TierFree Tier = "free"
	TierPro  Tier = "pro"
)

// Valid reports whether the tier is one of the known tiers.
func (t Tier) Valid() bool {
	return t == TierFree || t == TierPro
}

// Resource represents a countable owner resource type.
type Resource string

const (
	ResourceTransactions Resource = "transactions"
	ResourceClients      Resource = "clients"
)

// Unlimited indicates no limit for a resource (-1 chosen for SQL compatibility).
const Unlimited int64 = -1

// Feature represents a plan-specific capability that can be enabled/disabled.
type Feature string

const (
	FeatureReports         Feature = "reports"
	FeatureExport          Feature = "export"
	FeaturePrioritySupport Feature = "priority_support"
)
