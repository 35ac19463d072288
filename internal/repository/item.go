package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/coursekit/pricing/internal/item"
	"github.com/coursekit/pricing/internal/money"
)

const (
	getItemSQL   = `SELECT id, title, kind, base_price, category FROM items WHERE id = $1`
	listItemsSQL = `SELECT id, title, kind, base_price, category FROM items ORDER BY title`

	upsertItemSQL = `INSERT INTO items (id, title, kind, base_price, category)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			kind = EXCLUDED.kind,
			base_price = EXCLUDED.base_price,
			category = EXCLUDED.category,
			updated_at = now()`
)

var _ item.Repository = (*ItemRepository)(nil)

// ItemRepository implements item.Repository backed by PostgreSQL.
type ItemRepository struct {
	pool *pgxpool.Pool
}

// NewItemRepository returns an ItemRepository that uses the given pool.
func NewItemRepository(pool *pgxpool.Pool) *ItemRepository {
	return &ItemRepository{pool: pool}
}

// GetByID fetches a single item. Returns item.ErrNotFound when missing.
func (r *ItemRepository) GetByID(ctx context.Context, id string) (*item.Item, error) {
	rows, err := r.pool.Query(ctx, getItemSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting item %q: %w", id, err)
	}

	it, err := pgx.CollectExactlyOneRow(rows, scanItem)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, item.ErrNotFound
		}
		return nil, fmt.Errorf("getting item %q: %w", id, err)
	}
	return &it, nil
}

// List returns all items ordered by title.
func (r *ItemRepository) List(ctx context.Context) ([]item.Item, error) {
	rows, err := r.pool.Query(ctx, listItemsSQL)
	if err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}

	items, err := pgx.CollectRows(rows, scanItem)
	if err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}
	return items, nil
}

// Upsert inserts or replaces a catalog item. Used by seeding tools.
func (r *ItemRepository) Upsert(ctx context.Context, it item.Item) error {
	_, err := r.pool.Exec(ctx, upsertItemSQL,
		it.ID, it.Title, string(it.Kind), it.BasePrice.Decimal(), it.Category,
	)
	if err != nil {
		return fmt.Errorf("upserting item %q: %w", it.ID, err)
	}
	return nil
}

func scanItem(row pgx.CollectableRow) (item.Item, error) {
	var (
		it    item.Item
		kind  string
		price decimal.Decimal
	)
	if err := row.Scan(&it.ID, &it.Title, &kind, &price, &it.Category); err != nil {
		return item.Item{}, err
	}

	m, err := money.New(price)
	if err != nil {
		return item.Item{}, errors.Wrapf(err, "item %q", it.ID)
	}
	it.Kind = item.Kind(kind)
	it.BasePrice = m
	return it, nil
}
