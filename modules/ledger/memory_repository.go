package ledger

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MemoryRepository is an in-memory Repository for tests and local
// development. Semantics mirror the PostgreSQL repository, including the
// inclusive created_at lower bound on the window counts.
type MemoryRepository struct {
	mu           sync.RWMutex
	transactions map[uuid.UUID]Transaction
	clients      map[uuid.UUID]Client
	now          func() time.Time
}

// NewMemoryRepository returns an empty in-memory ledger repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		transactions: make(map[uuid.UUID]Transaction),
		clients:      make(map[uuid.UUID]Client),
		now:          time.Now,
	}
}

// SetClock overrides the time source for deterministic tests.
func (r *MemoryRepository) SetClock(now func() time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.now = now
}

func (r *MemoryRepository) InsertTransaction(_ context.Context, t *Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if t.ClientID != nil {
		c, ok := r.clients[*t.ClientID]
		if !ok || c.OwnerID != t.OwnerID {
			return ErrClientNotFound
		}
	}

	now := r.now().UTC()
	t.CreatedAt = now
	t.UpdatedAt = now
	r.transactions[t.ID] = *t
	return nil
}

func (r *MemoryRepository) GetTransaction(_ context.Context, ownerID, id uuid.UUID) (*Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.transactions[id]
	if !ok || t.OwnerID != ownerID {
		return nil, ErrTransactionNotFound
	}
	return &t, nil
}

func (r *MemoryRepository) ListTransactions(_ context.Context, ownerID uuid.UUID, filter TransactionFilter) ([]Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Transaction
	for _, t := range r.transactions {
		if t.OwnerID != ownerID {
			continue
		}
		if filter.Kind != nil && t.Kind != *filter.Kind {
			continue
		}
		if filter.ClientID != nil && (t.ClientID == nil || *t.ClientID != *filter.ClientID) {
			continue
		}
		if filter.From != nil && t.EffectiveDate.Before(*filter.From) {
			continue
		}
		if filter.To != nil && t.EffectiveDate.After(*filter.To) {
			continue
		}
		out = append(out, t)
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].EffectiveDate.Equal(out[j].EffectiveDate) {
			return out[i].EffectiveDate.After(out[j].EffectiveDate)
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (r *MemoryRepository) UpdateTransaction(_ context.Context, t *Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.transactions[t.ID]
	if !ok || existing.OwnerID != t.OwnerID {
		return ErrTransactionNotFound
	}
	if t.ClientID != nil {
		c, ok := r.clients[*t.ClientID]
		if !ok || c.OwnerID != t.OwnerID {
			return ErrClientNotFound
		}
	}

	t.CreatedAt = existing.CreatedAt
	t.UpdatedAt = r.now().UTC()
	r.transactions[t.ID] = *t
	return nil
}

func (r *MemoryRepository) DeleteTransaction(_ context.Context, ownerID, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.transactions[id]
	if !ok || t.OwnerID != ownerID {
		return ErrTransactionNotFound
	}
	delete(r.transactions, id)
	return nil
}

func (r *MemoryRepository) CountTransactionsSince(_ context.Context, ownerID uuid.UUID, since time.Time) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var count int64
	for _, t := range r.transactions {
		if t.OwnerID == ownerID && !t.CreatedAt.Before(since) {
			count++
		}
	}
	return count, nil
}

func (r *MemoryRepository) InsertClient(_ context.Context, c *Client) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now
	r.clients[c.ID] = *c
	return nil
}

func (r *MemoryRepository) GetClient(_ context.Context, ownerID, id uuid.UUID) (*Client, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.clients[id]
	if !ok || c.OwnerID != ownerID {
		return nil, ErrClientNotFound
	}
	return &c, nil
}

func (r *MemoryRepository) ListClients(_ context.Context, ownerID uuid.UUID) ([]Client, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Client
	for _, c := range r.clients {
		if c.OwnerID == ownerID {
			out = append(out, c)
		}
	}
	slices.SortFunc(out, func(a, b Client) int {
		switch {
		case a.Name < b.Name:
			return -1
		case a.Name > b.Name:
			return 1
		default:
			return 0
		}
	})
	return out, nil
}

func (r *MemoryRepository) UpdateClient(_ context.Context, c *Client) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.clients[c.ID]
	if !ok || existing.OwnerID != c.OwnerID {
		return ErrClientNotFound
	}
	c.CreatedAt = existing.CreatedAt
	c.UpdatedAt = r.now().UTC()
	r.clients[c.ID] = *c
	return nil
}

func (r *MemoryRepository) DeleteClient(_ context.Context, ownerID, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.clients[id]
	if !ok || c.OwnerID != ownerID {
		return ErrClientNotFound
	}
	delete(r.clients, id)

	// Detach, matching the FK's ON DELETE SET NULL.
	for txID, t := range r.transactions {
		if t.ClientID != nil && *t.ClientID == id {
			t.ClientID = nil
			r.transactions[txID] = t
		}
	}
	return nil
}

func (r *MemoryRepository) CountClientsSince(_ context.Context, ownerID uuid.UUID, since time.Time) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var count int64
	for _, c := range r.clients {
		if c.OwnerID == ownerID && !c.CreatedAt.Before(since) {
			count++
		}
	}
	return count, nil
}

func (r *MemoryRepository) SummarizeTransactions(_ context.Context, ownerID uuid.UUID, from, to time.Time) (Summary, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s := Summary{Income: decimal.Zero, Expense: decimal.Zero}
	for _, t := range r.transactions {
		if t.OwnerID != ownerID || t.EffectiveDate.Before(from) || t.EffectiveDate.After(to) {
			continue
		}
		s.Count++
		switch t.Kind {
		case KindIncome:
			s.Income = s.Income.Add(t.Amount)
		case KindExpense:
			s.Expense = s.Expense.Add(t.Amount)
		}
	}
	s.Net = s.Income.Sub(s.Expense)
	return s, nil
}

var _ Repository = (*MemoryRepository)(nil)
