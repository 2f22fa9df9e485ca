package migrate

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/require"
)

func readMigration(t *testing.T, suffix string) string {
	t.Helper()
	matches, err := fs.Glob(Embedded(), "*_"+suffix+".sql")
	require.NoError(t, err)
	require.Len(t, matches, 1, "expected one %s migration", suffix)
	data, err := fs.ReadFile(Embedded(), matches[0])
	require.NoError(t, err)
	return string(data)
}

func TestEmbeddedMigrationsValidate(t *testing.T) {
	require.NoError(t, ValidateFS(Embedded()))
}

func TestMigrationsContainConstraints(t *testing.T) {
	cases := map[string][]string{
		"create_products": {
			"CREATE TABLE IF NOT EXISTS products",
			"CHECK (discount_percentage >= 0 AND discount_percentage <= 100)",
			"DROP TABLE IF EXISTS products",
		},
		"create_cart_ledgers": {
			"session_key text PRIMARY KEY",
			"payload jsonb NOT NULL",
		},
		"create_checkout_sessions": {
			"CONSTRAINT ux_checkout_sessions_provider UNIQUE (provider_session_id)",
		},
		"create_orders": {
			"CONSTRAINT ux_orders_checkout_session UNIQUE (checkout_session_id)",
			"FOREIGN KEY (order_id) REFERENCES orders(id) ON DELETE CASCADE",
			"CHECK (quantity >= 1)",
		},
		"create_reviews": {
			"CONSTRAINT ux_reviews_product_user UNIQUE (product_id, user_id)",
			"CHECK (rating BETWEEN 1 AND 5)",
		},
	}
	for suffix, checks := range cases {
		content := readMigration(t, suffix)
		for _, sub := range checks {
			require.True(t, strings.Contains(content, sub), "%s missing %q", suffix, sub)
		}
	}
}

func TestValidateFSRejectsBadFiles(t *testing.T) {
	bad := fstest.MapFS{"001_bad.sql": {Data: []byte("-- +goose Up\n-- +goose Down\n")}}
	require.Error(t, ValidateFS(bad))

	noDown := fstest.MapFS{"20250101000000_x.sql": {Data: []byte("-- +goose Up\n")}}
	require.Error(t, ValidateFS(noDown))

	dup := fstest.MapFS{
		"20250101000000_a.sql": {Data: []byte("-- +goose Up\n-- +goose Down\n")},
		"20250101000000_b.sql": {Data: []byte("-- +goose Up\n-- +goose Down\n")},
	}
	require.Error(t, ValidateFS(dup))
}

func TestCreateSQLMigration(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2025, 4, 2, 10, 30, 0, 0, time.UTC)

	path, err := CreateSQLMigration(dir, "Add Promo Audit!", now)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "20250402103000_add_promo_audit.sql"), path)

	body, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(body), "-- +goose Down")
	require.NoError(t, ValidateDir(dir))

	_, err = CreateSQLMigration(dir, "Add Promo Audit", now)
	require.Error(t, err)

	_, err = CreateSQLMigration(dir, "!!!", now)
	require.Error(t, err)
}
