package profile

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tallybook/tallybook/pkg/pg"
	"github.com/tallybook/tallybook/pkg/plan"
)

// Repository is the PostgreSQL-backed Store.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a profile repository over a pgx pool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	if pool == nil {
		panic("profile: pgx pool is required")
	}
	return &Repository{pool: pool}
}

const selectProfile = `
SELECT owner_id, email, full_name, phone, plan_tier, plan_started_at, plan_expires_at, created_at, updated_at
FROM profiles
WHERE owner_id = $1`

func (r *Repository) Get(ctx context.Context, ownerID uuid.UUID) (*Profile, error) {
	row := r.pool.QueryRow(ctx, selectProfile, ownerID)

	var p Profile
	err := row.Scan(&p.OwnerID, &p.Email, &p.FullName, &p.Phone,
		&p.PlanTier, &p.PlanStartedAt, &p.PlanExpiresAt, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, ErrProfileNotFound
		}
		return nil, errors.Join(ErrStoreFailed, err)
	}
	return &p, nil
}

func (r *Repository) Ensure(ctx context.Context, ownerID uuid.UUID, email string) (*Profile, error) {
	// Insert-or-noop keeps provisioning idempotent across concurrent first
	// requests; the existing row wins so a stale token cannot rewrite email.
	_, err := r.pool.Exec(ctx, `
		INSERT INTO profiles (owner_id, email, plan_tier, plan_started_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (owner_id) DO NOTHING`,
		ownerID, email, plan.TierFree)
	if err != nil {
		return nil, errors.Join(ErrStoreFailed, err)
	}
	return r.Get(ctx, ownerID)
}

func (r *Repository) UpdatePlan(ctx context.Context, ownerID uuid.UUID, tier plan.Tier, expiresAt *time.Time) error {
	// Unconditional overwrite: the reconciler's last answer wins. The start
	// timestamp resets only on an actual tier transition.
	tag, err := r.pool.Exec(ctx, `
		UPDATE profiles
		SET plan_tier = $2,
		    plan_expires_at = $3,
		    plan_started_at = CASE WHEN plan_tier <> $2 THEN now() ELSE plan_started_at END,
		    updated_at = now()
		WHERE owner_id = $1`,
		ownerID, tier, expiresAt)
	if err != nil {
		return errors.Join(ErrStoreFailed, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrProfileNotFound
	}
	return nil
}

func (r *Repository) UpdateContact(ctx context.Context, ownerID uuid.UUID, upd ContactUpdate) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE profiles
		SET full_name = $2, phone = $3, updated_at = now()
		WHERE owner_id = $1`,
		ownerID, upd.FullName, upd.Phone)
	if err != nil {
		return errors.Join(ErrStoreFailed, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrProfileNotFound
	}
	return nil
}

func (r *Repository) Delete(ctx context.Context, ownerID uuid.UUID) error {
	// Owner resources cascade via foreign keys, see migrations.
	_, err := r.pool.Exec(ctx, `DELETE FROM profiles WHERE owner_id = $1`, ownerID)
	if err != nil {
		return errors.Join(ErrStoreFailed, err)
	}
	return nil
}

var _ Store = (*Repository)(nil)
