package subscription_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tallybook/tallybook/modules/subscription"
)

func TestActiveSet(t *testing.T) {
	t.Parallel()

	current := time.Date(2026, time.February, 1, 12, 0, 0, 0, time.UTC)
	set := subscription.NewActiveSet(5 * time.Minute)
	set.SetClock(func() time.Time { return current })

	ownerA := subscription.Owner{ID: uuid.New(), Email: "a@example.com"}
	ownerB := subscription.Owner{ID: uuid.New(), Email: "b@example.com"}

	set.Touch(ownerA)
	current = current.Add(4 * time.Minute)
	set.Touch(ownerB)

	owners, err := set.Source()(context.Background())
	require.NoError(t, err)
	assert.Len(t, owners, 2)

	// A ages out, B stays, repeated touches refresh.
	current = current.Add(2 * time.Minute)
	owners, err = set.Source()(context.Background())
	require.NoError(t, err)
	require.Len(t, owners, 1)
	assert.Equal(t, ownerB.ID, owners[0].ID)
}
