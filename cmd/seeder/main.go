// cmd/seeder/main.go
//
// Development seeder: fills the database with a reproducible set of master
// data and a few months of stock movements so the reports have something to
// chew on. Not meant to run against production.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Degbogueur/stock-management/internal/adapters/db"
	"github.com/Degbogueur/stock-management/internal/pkg/config"
	"github.com/Degbogueur/stock-management/internal/pkg/logger"
)

type seedOptions struct {
	databaseURL string
	clean       bool
	migrate     bool
	days        int
	seed        int64
}

func main() {
	opts := seedOptions{}
	flag.StringVar(&opts.databaseURL, "database-url", "", "PostgreSQL connection string (defaults to the configured database)")
	flag.BoolVar(&opts.clean, "clean", false, "truncate all tables before seeding")
	flag.BoolVar(&opts.migrate, "migrate", false, "run migrations before seeding")
	flag.IntVar(&opts.days, "days", 120, "days of operation history to generate")
	flag.Int64Var(&opts.seed, "seed", 42, "random seed for reproducible data")
	flag.Parse()

	slogger := logger.SetupLogger("info", "text")
	log := slogger.Logger

	if opts.databaseURL == "" {
		cfg, err := config.Load(log)
		if err != nil {
			log.Error("failed to load configuration", slog.String("error", err.Error()))
			os.Exit(1)
		}
		if cfg.IsProduction() {
			log.Error("refusing to seed a production database")
			os.Exit(1)
		}
		opts.databaseURL = cfg.GetDatabaseURL()
	}

	ctx := context.Background()

	if opts.migrate {
		if err := db.RunMigrationsWithRetry(ctx, db.EmbeddedMigrationConfig(opts.databaseURL), log, 3); err != nil {
			log.Error("failed to run migrations", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	pool, err := pgxpool.New(ctx, opts.databaseURL)
	if err != nil {
		log.Error("failed to connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer pool.Close()

	if err := run(ctx, pool, opts, log); err != nil {
		log.Error("seeding failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	log.Info("seeding complete")
}

func run(ctx context.Context, pool *pgxpool.Pool, opts seedOptions, log *slog.Logger) error {
	if opts.clean {
		log.Info("truncating tables")
		_, err := pool.Exec(ctx, `TRUNCATE notifications, inventory_rows, inventories,
			stock_snapshots, operations, products, employees, suppliers, categories CASCADE`)
		if err != nil {
			return fmt.Errorf("failed to truncate tables: %w", err)
		}
	}

	rng := rand.New(rand.NewSource(opts.seed))

	categories, err := seedCategories(ctx, pool)
	if err != nil {
		return err
	}
	suppliers, err := seedSuppliers(ctx, pool)
	if err != nil {
		return err
	}
	employees, err := seedEmployees(ctx, pool)
	if err != nil {
		return err
	}
	products, err := seedProducts(ctx, pool, categories)
	if err != nil {
		return err
	}

	log.Info("master data seeded",
		slog.Int("categories", len(categories)),
		slog.Int("suppliers", len(suppliers)),
		slog.Int("employees", len(employees)),
		slog.Int("products", len(products)))

	ops, snaps, err := seedHistory(ctx, pool, products, suppliers, employees, opts.days, rng)
	if err != nil {
		return err
	}

	log.Info("history seeded",
		slog.Int("operations", ops),
		slog.Int("snapshot_rows", snaps))

	return nil
}

var categoryNames = []string{
	"Beverages", "Dry Goods", "Dairy", "Cleaning Supplies",
	"Packaging", "Office Supplies", "Spare Parts", "Frozen",
}

func seedCategories(ctx context.Context, pool *pgxpool.Pool) (map[string]uuid.UUID, error) {
	ids := make(map[string]uuid.UUID, len(categoryNames))
	batch := &pgx.Batch{}
	for _, name := range categoryNames {
		id := uuid.New()
		ids[name] = id
		batch.Queue(`INSERT INTO categories (id, name) VALUES ($1, $2)`, id, name)
	}
	if err := pool.SendBatch(ctx, batch).Close(); err != nil {
		return nil, fmt.Errorf("failed to seed categories: %w", err)
	}
	return ids, nil
}

func seedSuppliers(ctx context.Context, pool *pgxpool.Pool) ([]uuid.UUID, error) {
	rows := [][]string{
		{"Atlas Wholesale", "+1-555-0101", "orders@atlaswholesale.test", "12 Dock Rd"},
		{"Northline Distribution", "+1-555-0102", "sales@northline.test", "340 Freight Ave"},
		{"Crate & Pallet Co", "+1-555-0103", "hello@cratepallet.test", "77 Industrial Way"},
		{"Meridian Imports", "+1-555-0104", "contact@meridian.test", "5 Harbor St"},
	}
	ids := make([]uuid.UUID, 0, len(rows))
	batch := &pgx.Batch{}
	for _, r := range rows {
		id := uuid.New()
		ids = append(ids, id)
		batch.Queue(`INSERT INTO suppliers (id, name, phone_number, email, address)
			VALUES ($1, $2, $3, $4, $5)`, id, r[0], r[1], r[2], r[3])
	}
	if err := pool.SendBatch(ctx, batch).Close(); err != nil {
		return nil, fmt.Errorf("failed to seed suppliers: %w", err)
	}
	return ids, nil
}

func seedEmployees(ctx context.Context, pool *pgxpool.Pool) ([]uuid.UUID, error) {
	rows := [][]string{
		{"Ada", "Okafor", "Warehouse Manager"},
		{"Marc", "Dubois", "Picker"},
		{"Lena", "Fischer", "Picker"},
		{"Tomás", "Rivera", "Forklift Operator"},
		{"Priya", "Nair", "Receiving Clerk"},
	}
	ids := make([]uuid.UUID, 0, len(rows))
	batch := &pgx.Batch{}
	for _, r := range rows {
		id := uuid.New()
		ids = append(ids, id)
		batch.Queue(`INSERT INTO employees (id, first_name, last_name, position)
			VALUES ($1, $2, $3, $4)`, id, r[0], r[1], r[2])
	}
	if err := pool.SendBatch(ctx, batch).Close(); err != nil {
		return nil, fmt.Errorf("failed to seed employees: %w", err)
	}
	return ids, nil
}

var productNames = []struct {
	name     string
	category string
	minimum  int
}{
	{"Sparkling Water 500ml", "Beverages", 40},
	{"Cold Brew Concentrate 1L", "Beverages", 15},
	{"Basmati Rice 5kg", "Dry Goods", 25},
	{"Whole Wheat Flour 10kg", "Dry Goods", 20},
	{"Rolled Oats 2kg", "Dry Goods", 30},
	{"Whole Milk 1L", "Dairy", 50},
	{"Aged Cheddar 200g", "Dairy", 10},
	{"Floor Degreaser 5L", "Cleaning Supplies", 8},
	{"Nitrile Gloves (box)", "Cleaning Supplies", 12},
	{"Corrugated Box Medium", "Packaging", 100},
	{"Stretch Wrap Roll", "Packaging", 30},
	{"Thermal Label Roll", "Office Supplies", 20},
	{"Conveyor Belt Segment", "Spare Parts", 4},
	{"Pallet Jack Wheel", "Spare Parts", 6},
	{"Frozen Berries 1kg", "Frozen", 18},
}

func seedProducts(ctx context.Context, pool *pgxpool.Pool, categories map[string]uuid.UUID) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0, len(productNames))
	batch := &pgx.Batch{}
	for i, p := range productNames {
		id := uuid.New()
		ids = append(ids, id)
		code := fmt.Sprintf("SKU-%04d", i+1)
		batch.Queue(`INSERT INTO products (id, name, code, category_id, current_stock, minimum_stock)
			VALUES ($1, $2, $3, $4, 0, $5)`, id, p.name, code, categories[p.category], p.minimum)
	}
	if err := pool.SendBatch(ctx, batch).Close(); err != nil {
		return nil, fmt.Errorf("failed to seed products: %w", err)
	}
	return ids, nil
}

// seedHistory generates day-by-day stock movements ending today, keeping
// every running balance non-negative, then backfills weekly snapshots and
// the products' current stock.
func seedHistory(ctx context.Context, pool *pgxpool.Pool, products, suppliers, employees []uuid.UUID, days int, rng *rand.Rand) (int, int, error) {
	today := time.Now().UTC().Truncate(24 * time.Hour)
	start := today.AddDate(0, 0, -days)

	stock := make(map[uuid.UUID]int, len(products))
	opCount := 0
	snapCount := 0

	batch := &pgx.Batch{}
	for day := start; !day.After(today); day = day.AddDate(0, 0, 1) {
		for _, productID := range products {
			// Roughly one movement every three product-days.
			if rng.Intn(3) != 0 {
				continue
			}

			if stock[productID] < 10 || rng.Intn(2) == 0 {
				qty := 10 + rng.Intn(40)
				supplier := suppliers[rng.Intn(len(suppliers))]
				batch.Queue(`INSERT INTO operations (id, product_id, type, quantity, date, supplier_id)
					VALUES ($1, $2, 'stock_in', $3, $4, $5)`,
					uuid.New(), productID, qty, day, supplier)
				stock[productID] += qty
			} else {
				qty := 1 + rng.Intn(stock[productID])
				employee := employees[rng.Intn(len(employees))]
				batch.Queue(`INSERT INTO operations (id, product_id, type, quantity, date, employee_id)
					VALUES ($1, $2, 'stock_out', $3, $4, $5)`,
					uuid.New(), productID, qty, day, employee)
				stock[productID] -= qty
			}
			opCount++
		}

		// Weekly checkpoint every Monday.
		if day.Weekday() == time.Monday {
			for _, productID := range products {
				batch.Queue(`INSERT INTO stock_snapshots (id, product_id, snapshot_date, quantity_in_stock)
					VALUES ($1, $2, $3, $4)`,
					uuid.New(), productID, day, stock[productID])
				snapCount++
			}
		}
	}

	for _, productID := range products {
		batch.Queue(`UPDATE products SET current_stock = $1 WHERE id = $2`, stock[productID], productID)
	}

	if err := pool.SendBatch(ctx, batch).Close(); err != nil {
		return 0, 0, fmt.Errorf("failed to seed history: %w", err)
	}
	return opCount, snapCount, nil
}
