// Package plan is the pure tier-to-entitlements policy table for the
// application: which resources a plan tier may create, at what weekly
// allowance, and which features it unlocks.
//
// The package has no side effects and no external dependencies beyond the
// catalog source. Both the quota engine and HTTP-facing feature checks
// consume the same Catalog so plan truth has a single home.
//
// Basic usage:
//
//	catalog := plan.DefaultCatalog()
//
//	limit := catalog.LimitFor(plan.TierFree, plan.ResourceTransactions) // 5
//	if catalog.HasFeature(tier, plan.FeatureExport) {
//	    // enable export
//	}
//
// Catalogs can also be loaded from YAML via NewFileSource so pricing
// changes do not require a deploy.
package plan
