package subscription

import (
	"context"
	"sync"
	"time"
)

// ActiveSet tracks owners with recent authenticated activity so the
// poller only reconciles sessions that are actually in use. Entries
// expire after the TTL; an owner who closes the app simply ages out.
type ActiveSet struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]activeEntry
	now     func() time.Time
}

type activeEntry struct {
	owner Owner
	seen  time.Time
}

// NewActiveSet creates an ActiveSet. TTL falls back to 5 minutes when
// non-positive.
func NewActiveSet(ttl time.Duration) *ActiveSet {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &ActiveSet{
		ttl:     ttl,
		entries: make(map[string]activeEntry),
		now:     time.Now,
	}
}

// SetClock overrides the time source for deterministic tests.
func (s *ActiveSet) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// Touch marks the owner as active now. Called from the request path on
// every authenticated request.
func (s *ActiveSet) Touch(owner Owner) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[owner.ID.String()] = activeEntry{owner: owner, seen: s.now()}
}

// Source returns the OwnerSource view for the poller, dropping expired
// entries as a side effect.
func (s *ActiveSet) Source() OwnerSource {
	return func(context.Context) ([]Owner, error) {
		s.mu.Lock()
		defer s.mu.Unlock()

		cutoff := s.now().Add(-s.ttl)
		owners := make([]Owner, 0, len(s.entries))
		for key, e := range s.entries {
			if e.seen.Before(cutoff) {
				delete(s.entries, key)
				continue
			}
			owners = append(owners, e.owner)
		}
		return owners, nil
	}
}
