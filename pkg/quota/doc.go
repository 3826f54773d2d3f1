// Package quota enforces plan-gated creation limits over a rolling 7-day
// window. For free-tier owners every creation attempt re-counts the records
// created within the trailing 168 hours and allows the attempt only while
// the count is below the plan allowance; unlimited tiers short-circuit
// without touching the store.
//
// The engine is deliberately read-only. The check and the subsequent insert
// are two separate store operations, so two concurrent attempts can both
// pass the same check and overshoot the allowance by one. Callers that need
// a hard guarantee must push the count predicate into the insert itself
// (see the repository layer's window-count query).
//
// Wiring:
//
//	counters := quota.NewRegistry()
//	counters.Register(plan.ResourceTransactions, repo.CountTransactionsSince)
//	counters.Register(plan.ResourceClients, repo.CountClientsSince)
//
//	svc := quota.NewService(catalog, counters, tierResolver)
//
//	d, err := svc.CanCreate(ctx, ownerID, plan.ResourceTransactions)
//	if err != nil { /* store unavailable: fail closed */ }
//	if !d.Allowed { /* quota exhausted: block the action */ }
package quota
