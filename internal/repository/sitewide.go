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
	currentSaleSQL = `SELECT sale_active, sale_percent, sale_label, sale_starts_at, sale_ends_at
		FROM site_settings WHERE id = 1`

	setSaleSQL = `INSERT INTO site_settings (id, sale_active, sale_percent, sale_label, sale_starts_at, sale_ends_at)
		VALUES (1, $1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			sale_active = EXCLUDED.sale_active,
			sale_percent = EXCLUDED.sale_percent,
			sale_label = EXCLUDED.sale_label,
			sale_starts_at = EXCLUDED.sale_starts_at,
			sale_ends_at = EXCLUDED.sale_ends_at,
			updated_at = now()`
)

// SitewideRepository reads the site-wide promotional discount configuration.
// Callers fetch it once per render and pass the value into the resolver.
type SitewideRepository struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

// NewSitewideRepository returns a SitewideRepository that uses the given pool.
func NewSitewideRepository(pool *pgxpool.Pool) *SitewideRepository {
	return &SitewideRepository{pool: pool, now: time.Now}
}

// Current returns the site-wide discount with its schedule window evaluated
// at read time. A missing settings row means no promotion is configured.
func (r *SitewideRepository) Current(ctx context.Context) (*discount.SiteWide, error) {
	var (
		active   bool
		percent  decimal.Decimal
		label    string
		startsAt *time.Time
		endsAt   *time.Time
	)
	err := r.pool.QueryRow(ctx, currentSaleSQL).Scan(&active, &percent, &label, &startsAt, &endsAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &discount.SiteWide{}, nil
		}
		return nil, fmt.Errorf("reading site settings: %w", err)
	}

	p, err := money.NewPercent(percent)
	if err != nil {
		return nil, errors.Wrap(err, "site-wide percent")
	}

	now := r.now()
	if startsAt != nil && now.Before(*startsAt) {
		active = false
	}
	if endsAt != nil && now.After(*endsAt) {
		active = false
	}

	return &discount.SiteWide{Active: active, Percent: p, Label: label}, nil
}

// SetSaleParams describes the site-wide sale configuration to store.
type SetSaleParams struct {
	Active   bool
	Percent  decimal.Decimal
	Label    string
	StartsAt *time.Time
	EndsAt   *time.Time
}

// SetSale replaces the site-wide sale configuration. Used by seeding tools.
func (r *SitewideRepository) SetSale(ctx context.Context, p SetSaleParams) error {
	_, err := r.pool.Exec(ctx, setSaleSQL, p.Active, p.Percent, p.Label, p.StartsAt, p.EndsAt)
	if err != nil {
		return fmt.Errorf("writing site settings: %w", err)
	}
	return nil
}
