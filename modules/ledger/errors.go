package ledger

import (
	"errors"
	"fmt"

	"github.com/tallybook/tallybook/pkg/plan"
)

var (
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrClientNotFound      = errors.New("client not found")
	ErrStoreFailed         = errors.New("ledger store operation failed")

	// ErrQuotaExceeded is the sentinel for matching quota denials with
	// errors.Is. The concrete error is always a *QuotaExceededError
	// carrying the count and limit.
	ErrQuotaExceeded = errors.New("creation quota exceeded")
)

// QuotaExceededError is returned when the owner's rolling-window
// allowance for a resource is spent. It is a policy outcome, not a
// fault: nothing was attempted against storage.
type QuotaExceededError struct {
	Resource plan.Resource
	Count    int64
	Limit    int64
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("creation quota exceeded for %s: %d of %d used in the last 7 days", e.Resource, e.Count, e.Limit)
}

func (e *QuotaExceededError) Is(target error) bool {
	return target == ErrQuotaExceeded
}
