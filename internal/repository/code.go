package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/coursekit/pricing/internal/discount"
	"github.com/coursekit/pricing/internal/money"
)

const (
	findCodeSQL = `SELECT code, kind, value, description, applies_to,
		valid_from, valid_until, max_uses, uses
		FROM discount_codes WHERE UPPER(code) = UPPER($1) AND active = TRUE`

	recordRedemptionSQL = `UPDATE discount_codes SET uses = uses + 1 WHERE UPPER(code) = UPPER($1)`

	upsertCodeSQL = `INSERT INTO discount_codes
		(code, kind, value, description, applies_to, valid_from, valid_until, max_uses, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (code) DO UPDATE SET
			kind = EXCLUDED.kind,
			value = EXCLUDED.value,
			description = EXCLUDED.description,
			applies_to = EXCLUDED.applies_to,
			valid_from = EXCLUDED.valid_from,
			valid_until = EXCLUDED.valid_until,
			max_uses = EXCLUDED.max_uses,
			active = EXCLUDED.active`
)

var _ discount.Repository = (*CodeRepository)(nil)

// CodeRepository implements discount.Repository backed by PostgreSQL.
// Status is computed fresh on every lookup from the stored validity window
// and usage counters; nothing is cached.
type CodeRepository struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

// NewCodeRepository returns a CodeRepository that uses the given pool.
func NewCodeRepository(pool *pgxpool.Pool) *CodeRepository {
	return &CodeRepository{pool: pool, now: time.Now}
}

// FindByCode looks up a discount code (case-insensitive). Deactivated and
// missing codes both return discount.ErrCodeNotFound.
func (r *CodeRepository) FindByCode(ctx context.Context, code string) (*discount.Code, error) {
	rows, err := r.pool.Query(ctx, findCodeSQL, code)
	if err != nil {
		return nil, fmt.Errorf("finding discount code %q: %w", code, err)
	}

	row, err := pgx.CollectExactlyOneRow(rows, scanCodeRow)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, discount.ErrCodeNotFound
		}
		return nil, fmt.Errorf("finding discount code %q: %w", code, err)
	}

	return row.toCode(r.now())
}

// RecordRedemption atomically increments the usage counter for the given
// code. Called only at confirmed submission, never during validation.
func (r *CodeRepository) RecordRedemption(ctx context.Context, code string) error {
	_, err := r.pool.Exec(ctx, recordRedemptionSQL, code)
	if err != nil {
		return fmt.Errorf("recording redemption for %q: %w", code, err)
	}
	return nil
}

// UpsertCodeParams describes a discount code to insert or replace.
type UpsertCodeParams struct {
	Code        string
	Kind        string
	Value       decimal.Decimal
	Description string
	AppliesTo   string
	ValidFrom   *time.Time
	ValidUntil  *time.Time
	MaxUses     int32
	Active      bool
}

// Upsert inserts or replaces a discount code. The usage counter is left
// untouched on conflict so re-importing never resets redemptions.
func (r *CodeRepository) Upsert(ctx context.Context, p UpsertCodeParams) error {
	if p.AppliesTo == "" {
		p.AppliesTo = "all"
	}
	_, err := r.pool.Exec(ctx, upsertCodeSQL,
		p.Code, p.Kind, p.Value, p.Description, p.AppliesTo,
		p.ValidFrom, p.ValidUntil, p.MaxUses, p.Active,
	)
	if err != nil {
		return fmt.Errorf("upserting discount code %q: %w", p.Code, err)
	}
	return nil
}

// codeRow is the raw discount_codes row before status and value resolution.
type codeRow struct {
	code        string
	kind        string
	value       decimal.Decimal
	description string
	appliesTo   string
	validFrom   *time.Time
	validUntil  *time.Time
	maxUses     int32
	uses        int32
}

func scanCodeRow(row pgx.CollectableRow) (codeRow, error) {
	var c codeRow
	err := row.Scan(
		&c.code, &c.kind, &c.value, &c.description, &c.appliesTo,
		&c.validFrom, &c.validUntil, &c.maxUses, &c.uses,
	)
	return c, err
}

// toCode resolves the row into a domain Code: the discount value is parsed
// through the money primitives and the status is evaluated against now.
func (c codeRow) toCode(now time.Time) (*discount.Code, error) {
	out := &discount.Code{
		Code:        c.code,
		Kind:        discount.Kind(c.kind),
		Status:      codeStatus(c, now),
		InScope:     c.appliesTo == "" || c.appliesTo == "all",
		Description: c.description,
	}

	switch out.Kind {
	case discount.KindPercentage:
		p, err := money.NewPercent(c.value)
		if err != nil {
			return nil, errors.Wrapf(err, "code %q", c.code)
		}
		out.Percent = p
	case discount.KindFixed:
		m, err := money.New(c.value)
		if err != nil {
			return nil, errors.Wrapf(err, "code %q", c.code)
		}
		out.Amount = m
	default:
		out.Status = discount.StatusUnknown
	}

	return out, nil
}

func codeStatus(c codeRow, now time.Time) discount.Status {
	if c.validFrom != nil && now.Before(*c.validFrom) {
		return discount.StatusExpired
	}
	if c.validUntil != nil && now.After(*c.validUntil) {
		return discount.StatusExpired
	}
	if c.maxUses > 0 && c.uses >= c.maxUses {
		return discount.StatusExhausted
	}
	return discount.StatusActive
}
