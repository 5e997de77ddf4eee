package postgres

import (
	"context"
	"testing"
	"time"
)

var (
	marketplaceTables = []string{"users", "products", "orders", "order_items", "shipping_requests", "timeline_events"}
	deliveryTables    = []string{"outbox_messages", "idempotency_keys"}
)

func assertMigrationState(t *testing.T, store *Store, wantVersion int64, present, absent []string) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	version, count, err := store.MigrationStatus(ctx)
	if err != nil {
		t.Fatalf("migration status: %v", err)
	}
	if version != wantVersion || count != int(wantVersion) {
		t.Fatalf("expected version %d, got version=%d applied=%d", wantVersion, version, count)
	}
	for _, table := range present {
		if !tableExists(t, ctx, store, table) {
			t.Fatalf("table %s must exist at version %d", table, wantVersion)
		}
	}
	for _, table := range absent {
		if tableExists(t, ctx, store, table) {
			t.Fatalf("table %s must not exist at version %d", table, wantVersion)
		}
	}
}

func tableExists(t *testing.T, ctx context.Context, store *Store, table string) bool {
	t.Helper()
	var exists bool
	if err := store.DB().QueryRowContext(ctx, `SELECT to_regclass($1) IS NOT NULL`, "public."+table).Scan(&exists); err != nil {
		t.Fatalf("check table %s: %v", table, err)
	}
	return exists
}

func TestMigrator_MarketplaceSchemaUpAndDown(t *testing.T) {
	store := openRawPostgresStoreForIntegrationTest(t)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	all := append(append([]string{}, marketplaceTables...), deliveryTables...)

	if err := store.MigrateDown(ctx, 100); err != nil {
		t.Fatalf("reset schema: %v", err)
	}
	assertMigrationState(t, store, 0, nil, all)

	// Первая миграция: каталог, заказы и перевозки без outbox.
	if err := store.MigrateUp(ctx, 1); err != nil {
		t.Fatalf("migrate up 1: %v", err)
	}
	assertMigrationState(t, store, 1, marketplaceTables, deliveryTables)

	if err := store.MigrateUp(ctx, 0); err != nil {
		t.Fatalf("migrate up rest: %v", err)
	}
	assertMigrationState(t, store, 2, all, nil)

	if err := store.MigrateUp(ctx, 0); err != nil {
		t.Fatalf("repeated migrate up: %v", err)
	}
	assertMigrationState(t, store, 2, all, nil)

	if err := store.MigrateDown(ctx, 0); err != nil {
		t.Fatalf("migrate down one step: %v", err)
	}
	assertMigrationState(t, store, 1, marketplaceTables, deliveryTables)

	if err := store.MigrateDown(ctx, 5); err != nil {
		t.Fatalf("migrate down past zero: %v", err)
	}
	assertMigrationState(t, store, 0, nil, all)

	if err := store.MigrateDown(ctx, 1); err != nil {
		t.Fatalf("down on an empty schema is a no-op: %v", err)
	}
}

func TestMigrator_StockConstraints(t *testing.T) {
	store := openPostgresStoreForIntegrationTest(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	insert := func(id, name, quantity string) error {
		_, err := store.DB().ExecContext(ctx, `
			INSERT INTO products (id, producer_id, name, description, quantity, unit, price, currency, created_at, updated_at)
			VALUES ($1, 'producer-1', $2, 'fresh', $3, 'kg', 2.50, 'EUR', NOW(), NOW())
		`, id, name, quantity)
		return err
	}

	if err := insert("p-1", "Tomatoes", "100"); err != nil {
		t.Fatalf("insert product: %v", err)
	}
	if err := insert("p-2", "Cucumbers", "-1"); err == nil {
		t.Fatal("negative stock must violate the quantity check")
	}
	if err := insert("p-3", " TOMATOES", "5"); err != nil {
		t.Fatalf("names differing by whitespace are distinct rows: %v", err)
	}
	if err := insert("p-4", "tomatoes", "5"); err == nil {
		t.Fatal("product names must be unique per producer ignoring case")
	}

	if _, err := store.DB().ExecContext(ctx, `UPDATE products SET quantity = quantity - 101 WHERE id = 'p-1'`); err == nil {
		t.Fatal("decrement below zero must be rejected by the database")
	}

	if _, err := store.DB().ExecContext(ctx, `
		INSERT INTO shipping_requests (id, producer_id, product_id, quantity, unit,
			origin_address, origin_city, origin_country, destination_address, destination_city, destination_country,
			required_date, status, created_at, updated_at)
		VALUES ('s-1', 'producer-1', 'p-1', 0, 'kg', 'a', 'b', 'c', 'a', 'b', 'c', CURRENT_DATE, 'pending', NOW(), NOW())
	`); err == nil {
		t.Fatal("shipping request with zero quantity must be rejected")
	}
}

func TestMigrator_GuardsAndUnsupportedDirection(t *testing.T) {
	var nilStore *Store
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if err := nilStore.MigrateUp(ctx, 0); err == nil {
		t.Fatal("expected error for nil store MigrateUp")
	}
	if _, _, err := nilStore.MigrationStatus(ctx); err == nil {
		t.Fatal("expected error for nil store MigrationStatus")
	}

	store := openRawPostgresStoreForIntegrationTest(t)
	if err := store.migrate(ctx, migrationDirection("sideways"), 0); err == nil {
		t.Fatal("expected unsupported direction error")
	}
}
