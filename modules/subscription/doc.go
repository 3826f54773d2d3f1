// Package subscription keeps the local plan cache in sync with the
// external billing provider and exposes the hosted checkout and portal
// flows.
//
// The provider's ledger is the single source of truth for who pays. This
// package never mutates plan state locally: checkout redirects the owner
// to the provider, cancellation happens in the provider's portal, and the
// reconciler observes the outcome and writes it into the profile cache.
// Because the observation is a full snapshot (customer lookup plus active
// subscription listing), reconciliation is idempotent and converges on
// the ledger state regardless of how many times it runs.
package subscription
