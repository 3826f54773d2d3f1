package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/tallybook/tallybook/pkg/plan"
	"github.com/tallybook/tallybook/pkg/quota"
)

// Service is the plan-gated front door to the ledger. Creation runs the
// quota check first and only touches storage when the check allows; all
// other operations pass straight through with owner scoping.
type Service struct {
	repo  Repository
	quota quota.Service
}

// NewService creates the ledger service. Both dependencies are required.
func NewService(repo Repository, quotaSvc quota.Service) *Service {
	if repo == nil {
		panic("ledger: repository is required")
	}
	if quotaSvc == nil {
		panic("ledger: quota service is required")
	}
	return &Service{repo: repo, quota: quotaSvc}
}

// CreateTransaction validates, checks the rolling-window quota, and
// inserts. A denied attempt returns *QuotaExceededError without writing
// anything. The check and the insert are separate statements, so a
// concurrent burst can momentarily exceed the limit; the window count is
// re-derived from storage on the next check either way.
func (s *Service) CreateTransaction(ctx context.Context, ownerID uuid.UUID, in TransactionInput) (*Transaction, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	decision, err := s.quota.CanCreate(ctx, ownerID, plan.ResourceTransactions)
	if err != nil {
		return nil, err
	}
	if !decision.Allowed {
		return nil, &QuotaExceededError{
			Resource: plan.ResourceTransactions,
			Count:    decision.Count,
			Limit:    decision.Limit,
		}
	}

	t := &Transaction{
		ID:            uuid.New(),
		OwnerID:       ownerID,
		ClientID:      in.ClientID,
		Amount:        in.Amount,
		Kind:          in.Kind,
		Category:      in.Category,
		Description:   in.Description,
		EffectiveDate: in.EffectiveDate,
	}
	if err := s.repo.InsertTransaction(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *Service) GetTransaction(ctx context.Context, ownerID, id uuid.UUID) (*Transaction, error) {
	return s.repo.GetTransaction(ctx, ownerID, id)
}

func (s *Service) ListTransactions(ctx context.Context, ownerID uuid.UUID, filter TransactionFilter) ([]Transaction, error) {
	return s.repo.ListTransactions(ctx, ownerID, filter)
}

// UpdateTransaction replaces the user-editable fields of an existing
// entry. Updates are never quota-checked: the allowance gates creation
// only.
func (s *Service) UpdateTransaction(ctx context.Context, ownerID, id uuid.UUID, in TransactionInput) (*Transaction, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	t := &Transaction{
		ID:            id,
		OwnerID:       ownerID,
		ClientID:      in.ClientID,
		Amount:        in.Amount,
		Kind:          in.Kind,
		Category:      in.Category,
		Description:   in.Description,
		EffectiveDate: in.EffectiveDate,
	}
	if err := s.repo.UpdateTransaction(ctx, t); err != nil {
		return nil, err
	}
	return s.repo.GetTransaction(ctx, ownerID, id)
}

// DeleteTransaction removes the entry. Deletion does not refund window
// capacity retroactively beyond what the count query naturally sees:
// the next check simply counts one row fewer.
func (s *Service) DeleteTransaction(ctx context.Context, ownerID, id uuid.UUID) error {
	return s.repo.DeleteTransaction(ctx, ownerID, id)
}

// CreateClient validates, checks the rolling-window quota, and inserts.
func (s *Service) CreateClient(ctx context.Context, ownerID uuid.UUID, in ClientInput) (*Client, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	decision, err := s.quota.CanCreate(ctx, ownerID, plan.ResourceClients)
	if err != nil {
		return nil, err
	}
	if !decision.Allowed {
		return nil, &QuotaExceededError{
			Resource: plan.ResourceClients,
			Count:    decision.Count,
			Limit:    decision.Limit,
		}
	}

	c := &Client{
		ID:      uuid.New(),
		OwnerID: ownerID,
		Name:    in.Name,
		Email:   in.Email,
		Phone:   in.Phone,
		Notes:   in.Notes,
	}
	if err := s.repo.InsertClient(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Service) GetClient(ctx context.Context, ownerID, id uuid.UUID) (*Client, error) {
	return s.repo.GetClient(ctx, ownerID, id)
}

func (s *Service) ListClients(ctx context.Context, ownerID uuid.UUID) ([]Client, error) {
	return s.repo.ListClients(ctx, ownerID)
}

func (s *Service) UpdateClient(ctx context.Context, ownerID, id uuid.UUID, in ClientInput) (*Client, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	c := &Client{
		ID:      id,
		OwnerID: ownerID,
		Name:    in.Name,
		Email:   in.Email,
		Phone:   in.Phone,
		Notes:   in.Notes,
	}
	if err := s.repo.UpdateClient(ctx, c); err != nil {
		return nil, err
	}
	return s.repo.GetClient(ctx, ownerID, id)
}

func (s *Service) DeleteClient(ctx context.Context, ownerID, id uuid.UUID) error {
	return s.repo.DeleteClient(ctx, ownerID, id)
}

// Usage reports the current window count and limit per resource for the
// dashboard's quota widget.
func (s *Service) Usage(ctx context.Context, ownerID uuid.UUID) (map[plan.Resource]quota.Decision, error) {
	out := make(map[plan.Resource]quota.Decision, 2)
	for _, res := range []plan.Resource{plan.ResourceTransactions, plan.ResourceClients} {
		decision, err := s.quota.Usage(ctx, ownerID, res)
		if err != nil {
			return nil, err
		}
		out[res] = decision
	}
	return out, nil
}

// Summarize aggregates income and expense over [from, to] on the
// effective date.
func (s *Service) Summarize(ctx context.Context, ownerID uuid.UUID, from, to time.Time) (Summary, error) {
	return s.repo.SummarizeTransactions(ctx, ownerID, from, to)
}
