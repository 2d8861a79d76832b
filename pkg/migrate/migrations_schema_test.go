package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/angelmondragon/kitchenpos-backend/pkg/migrate"
)

func readMigration(t *testing.T, suffix string) string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join("migrations", "*_"+suffix+".sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("expected one %s migration, found %d", suffix, len(matches))
	}
	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	return string(data)
}

func assertContains(t *testing.T, content string, checks []string) {
	t.Helper()
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestMigrationsDirIsValid(t *testing.T) {
	if err := migrate.ValidateDir("migrations"); err != nil {
		t.Fatalf("validate migrations: %v", err)
	}
}

func TestIngredientMigrationContainsConstraints(t *testing.T) {
	assertContains(t, readMigration(t, "create_ingredients"), []string{
		"CREATE TABLE IF NOT EXISTS ingredients",
		"cost_per_base_unit numeric(18,6)",
		"CHECK (quantity >= 0)",
		"ux_ingredients_linked_product",
		"FOREIGN KEY (ingredient_id) REFERENCES ingredients(id) ON DELETE CASCADE",
		"ux_unit_aliases_ingredient_name",
		"DROP TABLE IF EXISTS ingredients",
	})
}

func TestProductMigrationLinksBothWays(t *testing.T) {
	assertContains(t, readMigration(t, "create_products"), []string{
		"CREATE TABLE IF NOT EXISTS products",
		"FOREIGN KEY (linked_ingredient_id) REFERENCES ingredients(id) ON DELETE SET NULL",
		"FOREIGN KEY (linked_product_id) REFERENCES products(id) ON DELETE SET NULL",
		"ux_recipe_items_product_ingredient",
		"DROP TABLE IF EXISTS recipe_items",
	})
}

func TestHistoryMigrationRestrictsEnums(t *testing.T) {
	assertContains(t, readMigration(t, "create_ingredient_history"), []string{
		"CREATE TABLE IF NOT EXISTS ingredient_history",
		"'manual_edit', 'sale', 'restock', 'inventory_count', 'import'",
		"'quantity', 'cost_per_package', 'package_size', 'cost_per_unit', 'par_level'",
		"ix_ingredient_history_change",
	})
}

func TestTransactionMigrationContainsConstraints(t *testing.T) {
	assertContains(t, readMigration(t, "create_transactions"), []string{
		"CREATE TABLE IF NOT EXISTS customers",
		"CREATE TABLE IF NOT EXISTS transactions",
		"'pending', 'settled', 'cancelled'",
		"ux_transactions_order_number",
		"FOREIGN KEY (transaction_id) REFERENCES transactions(id) ON DELETE CASCADE",
		"CHECK (quantity > 0)",
	})
}

func TestOutboxMigrationIndexesUnpublished(t *testing.T) {
	assertContains(t, readMigration(t, "create_outbox_events"), []string{
		"CREATE TABLE IF NOT EXISTS outbox_events",
		"payload jsonb NOT NULL",
		"WHERE published_at IS NULL",
	})
}

func TestIngredientQuantityHoldsSingleBaseUnits(t *testing.T) {
	assertContains(t, readMigration(t, "widen_ingredient_quantity"), []string{
		"ALTER TABLE ingredients ALTER COLUMN quantity TYPE numeric(24,12)",
		"ALTER COLUMN quantity TYPE numeric(14,4)",
	})
}
