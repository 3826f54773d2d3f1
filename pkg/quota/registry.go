package quota

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tallybook/tallybook/pkg/plan"
)

// CounterFunc returns how many records of a resource kind the owner created
// at or after the given instant. Implementations must filter on the record's
// creation timestamp (system clock), not its business effective date, and
// must treat the lower bound as inclusive (created_at >= since).
//
// Called on every creation attempt, so it should be a cheap aggregate query.
type CounterFunc func(ctx context.Context, ownerID uuid.UUID, since time.Time) (int64, error)

// CounterRegistry maps a resource kind to its CounterFunc.
// Not thread-safe: register all counters at startup only.
type CounterRegistry map[plan.Resource]CounterFunc

// NewRegistry returns a new, empty CounterRegistry.
func NewRegistry() CounterRegistry {
	return make(CounterRegistry)
}

// Register sets the CounterFunc for the given resource. Panics if fn is nil
// or the resource already has a counter, to force explicit startup wiring.
func (r CounterRegistry) Register(res plan.Resource, fn CounterFunc) {
	if fn == nil {
		panic(fmt.Sprintf("quota: CounterFunc for resource %q cannot be nil", res))
	}
	if _, exists := r[res]; exists {
		panic(fmt.Sprintf("quota: counter for resource %q already registered", res))
	}
	r[res] = fn
}
