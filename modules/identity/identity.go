// Package identity is the boundary with the external identity provider.
// The provider issues session tokens and owner identifiers; this package
// only verifies tokens and exposes the resulting session to handlers. All
// credential flows, including password recovery, live entirely on the
// provider's side.
package identity

import (
	"github.com/google/uuid"
)

// Session is the verified identity behind a request. OwnerID is the
// row-owner key every resource query is scoped by; Email is what the
// billing ledger is queried with.
type Session struct {
	OwnerID uuid.UUID
	Email   string
}
