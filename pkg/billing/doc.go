// Package billing is the boundary with the external payment processor.
// The processor keeps the authoritative ledger of customers and
// subscriptions; this package only queries it (by owner email) and mints
// hosted checkout/portal links. It never mutates local state - the
// subscription reconciler is solely responsible for absorbing whatever
// happens at the provider.
//
// The Provider interface keeps the rest of the application vendor-neutral;
// PaddleProvider is the production implementation on the official SDK.
package billing
