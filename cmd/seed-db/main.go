package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/coursekit/pricing/internal/item"
	"github.com/coursekit/pricing/internal/money"
	"github.com/coursekit/pricing/internal/repository"
)

type itemJSON struct {
	ID       string          `json:"id"`
	Title    string          `json:"title"`
	Kind     string          `json:"kind"`
	Price    decimal.Decimal `json:"price"`
	Category string          `json:"category"`
}

func main() {
	var (
		databaseURL string
		itemsFile   string
		salePercent int
		saleLabel   string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&itemsFile, "items-file", "db/seed/items.json", "path to items JSON file")
	flag.IntVar(&salePercent, "sale-percent", 0, "site-wide sale percentage (0 disables the sale)")
	flag.StringVar(&saleLabel, "sale-label", "", "site-wide sale banner label")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, itemsFile, salePercent, saleLabel); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, itemsFile string, salePercent int, saleLabel string) error {
	slog.Info("connecting to database")

	pool, err := repository.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := repository.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	if err := seedItems(ctx, repository.NewItemRepository(pool), itemsFile); err != nil {
		return errors.Wrap(err, "seed items")
	}

	if err := seedCodes(ctx, repository.NewCodeRepository(pool)); err != nil {
		return errors.Wrap(err, "seed discount codes")
	}

	if err := seedSale(ctx, repository.NewSitewideRepository(pool), salePercent, saleLabel); err != nil {
		return errors.Wrap(err, "seed site-wide sale")
	}

	return nil
}

func seedItems(ctx context.Context, repo *repository.ItemRepository, itemsFile string) error {
	slog.Info("reading items file", slog.String("path", itemsFile))

	data, err := os.ReadFile(itemsFile)
	if err != nil {
		return errors.Wrap(err, "read items file")
	}

	var entries []itemJSON
	if err := json.Unmarshal(data, &entries); err != nil {
		return errors.Wrap(err, "parse items JSON")
	}

	slog.Info("upserting items", slog.Int("count", len(entries)))

	for _, e := range entries {
		price, err := money.New(e.Price)
		if err != nil {
			return errors.Wrapf(err, "item %s", e.ID)
		}

		if err := repo.Upsert(ctx, item.Item{
			ID:        e.ID,
			Title:     e.Title,
			Kind:      item.Kind(e.Kind),
			BasePrice: price,
			Category:  e.Category,
		}); err != nil {
			return errors.Wrapf(err, "upsert item %s", e.ID)
		}

		slog.Info("upserted item", slog.String("id", e.ID), slog.String("title", e.Title))
	}

	return nil
}

func seedCodes(ctx context.Context, repo *repository.CodeRepository) error {
	slog.Info("seeding starter discount codes")

	codes := []repository.UpsertCodeParams{
		{
			Code:        "SAVE10",
			Kind:        "percentage",
			Value:       decimal.NewFromInt(10),
			Description: "10% off any course or event",
			Active:      true,
		},
		{
			Code:        "WELCOME15",
			Kind:        "fixed",
			Value:       decimal.NewFromInt(15),
			Description: "$15 off for new students",
			Active:      true,
		},
		{
			Code:        "LAUNCH25",
			Kind:        "percentage",
			Value:       decimal.NewFromInt(25),
			Description: "Launch week: 25% off",
			MaxUses:     500,
			Active:      true,
		},
	}

	for _, c := range codes {
		if err := repo.Upsert(ctx, c); err != nil {
			return errors.Wrapf(err, "upsert code %s", c.Code)
		}

		slog.Info("upserted code", slog.String("code", c.Code), slog.String("description", c.Description))
	}

	return nil
}

func seedSale(ctx context.Context, repo *repository.SitewideRepository, percent int, label string) error {
	if percent <= 0 {
		slog.Info("site-wide sale disabled")
		return repo.SetSale(ctx, repository.SetSaleParams{})
	}

	slog.Info("enabling site-wide sale", slog.Int("percent", percent), slog.String("label", label))

	return repo.SetSale(ctx, repository.SetSaleParams{
		Active:  true,
		Percent: decimal.NewFromInt(int64(percent)),
		Label:   label,
	})
}
