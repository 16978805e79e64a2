// Command seed-db loads a catalog and address fixture into the database.
// The fixture is a JSON document, optionally gzip-compressed (a .gz suffix
// is decompressed transparently).
package main

import (
	"context"
	"encoding/json"
	"flag"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5/pgxpool"
	pgzip "github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/greenbasket/storefront-api/internal/storage/postgres"
)

type variantJSON struct {
	Unit       string          `json:"unit"`
	Weight     decimal.Decimal `json:"weight"`
	Price      decimal.Decimal `json:"price"`
	OfferPrice decimal.Decimal `json:"offerPrice"`
}

type productJSON struct {
	ID       string        `json:"id"`
	Name     string        `json:"name"`
	Category string        `json:"category"`
	InStock  bool          `json:"inStock"`
	Variants []variantJSON `json:"variants"`
}

type addressJSON struct {
	ID      string          `json:"id"`
	UserID  string          `json:"userId"`
	Details json.RawMessage `json:"details"`
}

type fixture struct {
	Products  []productJSON `json:"products"`
	Addresses []addressJSON `json:"addresses"`
}

func main() {
	var (
		databaseURL string
		fixtureFile string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&fixtureFile, "fixture", "db/seed/catalog.json", "path to catalog fixture (.json or .json.gz)")
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

	if err := run(ctx, databaseURL, fixtureFile); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, fixtureFile string) error {
	fx, err := readFixture(fixtureFile)
	if err != nil {
		return errors.Wrap(err, "read fixture")
	}

	slog.Info("connecting to database")

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)

	for _, p := range fx.Products {
		g.Go(func() error {
			if err := seedProduct(ctx, pool, p); err != nil {
				return errors.Wrapf(err, "seed product %q", p.ID)
			}
			return nil
		})
	}
	for _, a := range fx.Addresses {
		g.Go(func() error {
			if err := seedAddress(ctx, pool, a); err != nil {
				return errors.Wrapf(err, "seed address %q", a.ID)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	slog.Info("seeded",
		slog.Int("products", len(fx.Products)),
		slog.Int("addresses", len(fx.Addresses)),
	)
	return nil
}

// readFixture reads and decodes the fixture file, decompressing .gz input
// with pgzip.
func readFixture(path string) (*fixture, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		zr, err := pgzip.NewReader(f)
		if err != nil {
			return nil, errors.Wrap(err, "open gzip reader")
		}
		defer zr.Close()
		r = zr
	}

	var fx fixture
	if err := json.NewDecoder(r).Decode(&fx); err != nil {
		return nil, errors.Wrap(err, "decode fixture")
	}
	return &fx, nil
}

// seedProduct upserts a product and rewrites its variant list. The variant
// positions are the list order in the fixture; historical orders reference
// these positions, so fixtures must only append.
func seedProduct(ctx context.Context, pool *pgxpool.Pool, p productJSON) error {
	_, err := pool.Exec(ctx,
		`INSERT INTO products (id, name, category, in_stock) VALUES ($1, $2, $3, $4)
		 ON CONFLICT (id) DO UPDATE SET name = $2, category = $3, in_stock = $4`,
		p.ID, p.Name, p.Category, p.InStock)
	if err != nil {
		return err
	}

	if _, err := pool.Exec(ctx, `DELETE FROM product_variants WHERE product_id = $1`, p.ID); err != nil {
		return err
	}
	for i, v := range p.Variants {
		_, err := pool.Exec(ctx,
			`INSERT INTO product_variants (product_id, position, unit, weight, price, offer_price)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			p.ID, i, v.Unit, v.Weight, v.Price, v.OfferPrice)
		if err != nil {
			return err
		}
	}
	return nil
}

func seedAddress(ctx context.Context, pool *pgxpool.Pool, a addressJSON) error {
	details := a.Details
	if len(details) == 0 {
		details = json.RawMessage(`{}`)
	}
	_, err := pool.Exec(ctx,
		`INSERT INTO addresses (id, user_id, details) VALUES ($1, $2, $3)
		 ON CONFLICT (id) DO UPDATE SET user_id = $2, details = $3`,
		a.ID, a.UserID, details)
	return err
}
