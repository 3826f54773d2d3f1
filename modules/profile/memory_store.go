package profile

import (
	"context"
	"maps"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tallybook/tallybook/pkg/plan"
)

// MemoryStore is an in-memory Store for tests and local development.
type MemoryStore struct {
	mu       sync.RWMutex
	profiles map[uuid.UUID]Profile
	now      func() time.Time
}

// NewMemoryStore returns an empty in-memory profile store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		profiles: make(map[uuid.UUID]Profile),
		now:      time.Now,
	}
}

// SetClock overrides the time source for deterministic tests.
func (s *MemoryStore) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *MemoryStore) Get(_ context.Context, ownerID uuid.UUID) (*Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.profiles[ownerID]
	if !ok {
		return nil, ErrProfileNotFound
	}
	return &p, nil
}

func (s *MemoryStore) Ensure(_ context.Context, ownerID uuid.UUID, email string) (*Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p, ok := s.profiles[ownerID]; ok {
		return &p, nil
	}

	now := s.now().UTC()
	p := Profile{
		OwnerID:       ownerID,
		Email:         email,
		PlanTier:      plan.TierFree,
		PlanStartedAt: now,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	s.profiles[ownerID] = p
	return &p, nil
}

func (s *MemoryStore) UpdatePlan(_ context.Context, ownerID uuid.UUID, tier plan.Tier, expiresAt *time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.profiles[ownerID]
	if !ok {
		return ErrProfileNotFound
	}

	now := s.now().UTC()
	if p.PlanTier != tier {
		p.PlanStartedAt = now
	}
	p.PlanTier = tier
	p.PlanExpiresAt = expiresAt
	p.UpdatedAt = now
	s.profiles[ownerID] = p
	return nil
}

func (s *MemoryStore) UpdateContact(_ context.Context, ownerID uuid.UUID, upd ContactUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.profiles[ownerID]
	if !ok {
		return ErrProfileNotFound
	}
	p.FullName = upd.FullName
	p.Phone = upd.Phone
	p.UpdatedAt = s.now().UTC()
	s.profiles[ownerID] = p
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, ownerID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.profiles, ownerID)
	return nil
}

// Snapshot returns a copy of all stored profiles, used by test assertions.
func (s *MemoryStore) Snapshot() map[uuid.UUID]Profile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return maps.Clone(s.profiles)
}

var _ Store = (*MemoryStore)(nil)
