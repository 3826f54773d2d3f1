package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/tallybook/tallybook/pkg/pg"
	"github.com/tallybook/tallybook/pkg/plan"
	"github.com/tallybook/tallybook/pkg/quota"
)

// Repository persists ledger entries. All reads and writes are scoped by
// owner ID; the count methods double as the quota engine's window
// counters.
type Repository interface {
	InsertTransaction(ctx context.Context, t *Transaction) error
	GetTransaction(ctx context.Context, ownerID, id uuid.UUID) (*Transaction, error)
	ListTransactions(ctx context.Context, ownerID uuid.UUID, filter TransactionFilter) ([]Transaction, error)
	UpdateTransaction(ctx context.Context, t *Transaction) error
	DeleteTransaction(ctx context.Context, ownerID, id uuid.UUID) error
	CountTransactionsSince(ctx context.Context, ownerID uuid.UUID, since time.Time) (int64, error)

	InsertClient(ctx context.Context, c *Client) error
	GetClient(ctx context.Context, ownerID, id uuid.UUID) (*Client, error)
	ListClients(ctx context.Context, ownerID uuid.UUID) ([]Client, error)
	UpdateClient(ctx context.Context, c *Client) error
	DeleteClient(ctx context.Context, ownerID, id uuid.UUID) error
	CountClientsSince(ctx context.Context, ownerID uuid.UUID, since time.Time) (int64, error)

	SummarizeTransactions(ctx context.Context, ownerID uuid.UUID, from, to time.Time) (Summary, error)
}

// Counters exposes the repository's window counts in the shape the quota
// engine registers. The counts run against created_at with an inclusive
// lower bound, matching the quota window's semantics.
func Counters(repo Repository) quota.CounterRegistry {
	return quota.CounterRegistry{
		plan.ResourceTransactions: repo.CountTransactionsSince,
		plan.ResourceClients:      repo.CountClientsSince,
	}
}

// PGRepository is the PostgreSQL-backed Repository.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a ledger repository over a pgx pool.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	if pool == nil {
		panic("ledger: pgx pool is required")
	}
	return &PGRepository{pool: pool}
}

const transactionColumns = `id, owner_id, client_id, amount::text, kind, category, description, effective_date, created_at, updated_at`

func scanTransaction(row pgx.Row) (*Transaction, error) {
	var t Transaction
	var amount string
	err := row.Scan(&t.ID, &t.OwnerID, &t.ClientID, &amount, &t.Kind,
		&t.Category, &t.Description, &t.EffectiveDate, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	t.Amount, err = decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("parse stored amount: %w", err)
	}
	return &t, nil
}

func (r *PGRepository) InsertTransaction(ctx context.Context, t *Transaction) error {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO transactions (id, owner_id, client_id, amount, kind, category, description, effective_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at`,
		t.ID, t.OwnerID, t.ClientID, t.Amount, t.Kind, t.Category, t.Description, t.EffectiveDate)

	if err := row.Scan(&t.CreatedAt, &t.UpdatedAt); err != nil {
		if pg.IsForeignKeyViolationError(err) {
			return ErrClientNotFound
		}
		return errors.Join(ErrStoreFailed, err)
	}
	return nil
}

func (r *PGRepository) GetTransaction(ctx context.Context, ownerID, id uuid.UUID) (*Transaction, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE owner_id = $1 AND id = $2`,
		ownerID, id)

	t, err := scanTransaction(row)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, ErrTransactionNotFound
		}
		return nil, errors.Join(ErrStoreFailed, err)
	}
	return t, nil
}

func (r *PGRepository) ListTransactions(ctx context.Context, ownerID uuid.UUID, filter TransactionFilter) ([]Transaction, error) {
	var sb strings.Builder
	sb.WriteString(`SELECT ` + transactionColumns + ` FROM transactions WHERE owner_id = $1`)
	args := []any{ownerID}

	if filter.Kind != nil {
		args = append(args, *filter.Kind)
		fmt.Fprintf(&sb, ` AND kind = $%d`, len(args))
	}
	if filter.ClientID != nil {
		args = append(args, *filter.ClientID)
		fmt.Fprintf(&sb, ` AND client_id = $%d`, len(args))
	}
	if filter.From != nil {
		args = append(args, *filter.From)
		fmt.Fprintf(&sb, ` AND effective_date >= $%d`, len(args))
	}
	if filter.To != nil {
		args = append(args, *filter.To)
		fmt.Fprintf(&sb, ` AND effective_date <= $%d`, len(args))
	}
	sb.WriteString(` ORDER BY effective_date DESC, created_at DESC`)
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		fmt.Fprintf(&sb, ` LIMIT $%d`, len(args))
	}

	rows, err := r.pool.Query(ctx, sb.String(), args...)
	if err != nil {
		return nil, errors.Join(ErrStoreFailed, err)
	}
	defer rows.Close()

	var out []Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, errors.Join(ErrStoreFailed, err)
		}
		out = append(out, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Join(ErrStoreFailed, err)
	}
	return out, nil
}

func (r *PGRepository) UpdateTransaction(ctx context.Context, t *Transaction) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE transactions
		SET client_id = $3, amount = $4, kind = $5, category = $6,
		    description = $7, effective_date = $8, updated_at = now()
		WHERE owner_id = $1 AND id = $2`,
		t.OwnerID, t.ID, t.ClientID, t.Amount, t.Kind, t.Category, t.Description, t.EffectiveDate)
	if err != nil {
		if pg.IsForeignKeyViolationError(err) {
			return ErrClientNotFound
		}
		return errors.Join(ErrStoreFailed, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrTransactionNotFound
	}
	return nil
}

func (r *PGRepository) DeleteTransaction(ctx context.Context, ownerID, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM transactions WHERE owner_id = $1 AND id = $2`, ownerID, id)
	if err != nil {
		return errors.Join(ErrStoreFailed, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrTransactionNotFound
	}
	return nil
}

func (r *PGRepository) CountTransactionsSince(ctx context.Context, ownerID uuid.UUID, since time.Time) (int64, error) {
	var count int64
	err := r.pool.QueryRow(ctx,
		`SELECT count(*) FROM transactions WHERE owner_id = $1 AND created_at >= $2`,
		ownerID, since).Scan(&count)
	if err != nil {
		return 0, errors.Join(ErrStoreFailed, err)
	}
	return count, nil
}

const clientColumns = `id, owner_id, name, email, phone, notes, created_at, updated_at`

func scanClient(row pgx.Row) (*Client, error) {
	var c Client
	err := row.Scan(&c.ID, &c.OwnerID, &c.Name, &c.Email, &c.Phone, &c.Notes, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *PGRepository) InsertClient(ctx context.Context, c *Client) error {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO clients (id, owner_id, name, email, phone, notes)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at`,
		c.ID, c.OwnerID, c.Name, c.Email, c.Phone, c.Notes)

	if err := row.Scan(&c.CreatedAt, &c.UpdatedAt); err != nil {
		return errors.Join(ErrStoreFailed, err)
	}
	return nil
}

func (r *PGRepository) GetClient(ctx context.Context, ownerID, id uuid.UUID) (*Client, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+clientColumns+` FROM clients WHERE owner_id = $1 AND id = $2`,
		ownerID, id)

	c, err := scanClient(row)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, ErrClientNotFound
		}
		return nil, errors.Join(ErrStoreFailed, err)
	}
	return c, nil
}

func (r *PGRepository) ListClients(ctx context.Context, ownerID uuid.UUID) ([]Client, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+clientColumns+` FROM clients WHERE owner_id = $1 ORDER BY name ASC`, ownerID)
	if err != nil {
		return nil, errors.Join(ErrStoreFailed, err)
	}
	defer rows.Close()

	var out []Client
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, errors.Join(ErrStoreFailed, err)
		}
		out = append(out, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Join(ErrStoreFailed, err)
	}
	return out, nil
}

func (r *PGRepository) UpdateClient(ctx context.Context, c *Client) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE clients
		SET name = $3, email = $4, phone = $5, notes = $6, updated_at = now()
		WHERE owner_id = $1 AND id = $2`,
		c.OwnerID, c.ID, c.Name, c.Email, c.Phone, c.Notes)
	if err != nil {
		return errors.Join(ErrStoreFailed, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrClientNotFound
	}
	return nil
}

func (r *PGRepository) DeleteClient(ctx context.Context, ownerID, id uuid.UUID) error {
	// Transactions keep their rows; the FK nulls the reference so the
	// books stay intact after a client is removed.
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM clients WHERE owner_id = $1 AND id = $2`, ownerID, id)
	if err != nil {
		return errors.Join(ErrStoreFailed, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrClientNotFound
	}
	return nil
}

func (r *PGRepository) CountClientsSince(ctx context.Context, ownerID uuid.UUID, since time.Time) (int64, error) {
	var count int64
	err := r.pool.QueryRow(ctx,
		`SELECT count(*) FROM clients WHERE owner_id = $1 AND created_at >= $2`,
		ownerID, since).Scan(&count)
	if err != nil {
		return 0, errors.Join(ErrStoreFailed, err)
	}
	return count, nil
}

func (r *PGRepository) SummarizeTransactions(ctx context.Context, ownerID uuid.UUID, from, to time.Time) (Summary, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT
			COALESCE(SUM(amount) FILTER (WHERE kind = 'income'), 0)::text,
			COALESCE(SUM(amount) FILTER (WHERE kind = 'expense'), 0)::text,
			count(*)
		FROM transactions
		WHERE owner_id = $1 AND effective_date >= $2 AND effective_date <= $3`,
		ownerID, from, to)

	var income, expense string
	var s Summary
	if err := row.Scan(&income, &expense, &s.Count); err != nil {
		return Summary{}, errors.Join(ErrStoreFailed, err)
	}

	var err error
	if s.Income, err = decimal.NewFromString(income); err != nil {
		return Summary{}, errors.Join(ErrStoreFailed, err)
	}
	if s.Expense, err = decimal.NewFromString(expense); err != nil {
		return Summary{}, errors.Join(ErrStoreFailed, err)
	}
	s.Net = s.Income.Sub(s.Expense)
	return s, nil
}

var _ Repository = (*PGRepository)(nil)
