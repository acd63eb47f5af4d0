//go:build integration

package integration

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/openchs/openchs-server/internal/platform/db"
)

type testDB struct {
	Pool          *pgxpool.Pool
	MigrationsDir string
}

var globalDB *testDB

func TestMain(m *testing.M) {
	ctx := context.Background()

	tdb, cleanup, err := setupPostgres(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to set up postgres: %v\n", err)
		os.Exit(1)
	}

	globalDB = tdb
	code := m.Run()
	cleanup()
	os.Exit(code)
}

// setupPostgres uses OPENCHS_TEST_DATABASE_URL when set and starts a
// container otherwise.
func setupPostgres(ctx context.Context) (*testDB, func(), error) {
	connStr := os.Getenv("OPENCHS_TEST_DATABASE_URL")
	cleanup := func() {}
	if connStr == "" {
		var err error
		connStr, cleanup, err = startPostgres(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("start postgres container: %w", err)
		}
	}

	pool, err := db.NewPool(ctx, connStr, 10, 1)
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	return &testDB{Pool: pool, MigrationsDir: findMigrationsDir()}, func() {
		pool.Close()
		cleanup()
	}, nil
}

func findMigrationsDir() string {
	_, filename, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(filename), "..", "..", "migrations")
}

func uniqueOrganisation(prefix string) string {
	return prefix + strings.ReplaceAll(uuid.NewString()[:8], "-", "")
}

// createOrganisation creates and migrates a fresh organisation schema and
// drops it when the test ends.
func createOrganisation(t *testing.T, ctx context.Context, org string) {
	t.Helper()
	if err := db.CreateOrganisationSchema(ctx, globalDB.Pool, org, globalDB.MigrationsDir); err != nil {
		t.Fatalf("create organisation %s: %v", org, err)
	}
	t.Cleanup(func() {
		schema := pgx.Identifier{db.SchemaName(org)}.Sanitize()
		if _, err := globalDB.Pool.Exec(context.Background(), "DROP SCHEMA IF EXISTS "+schema+" CASCADE"); err != nil {
			t.Logf("warning: drop schema %s: %v", schema, err)
		}
	})
}

// withOrganisation runs fn with an organisation connection in ctx, the way
// the organisation middleware does for a request.
func withOrganisation(t *testing.T, ctx context.Context, org string, fn func(ctx context.Context)) {
	t.Helper()
	conn, err := globalDB.Pool.Acquire(ctx)
	if err != nil {
		t.Fatalf("acquire conn: %v", err)
	}
	defer conn.Release()

	schema := pgx.Identifier{db.SchemaName(org)}.Sanitize()
	if _, err := conn.Exec(ctx, "SET search_path TO "+schema+", public"); err != nil {
		t.Fatalf("set search_path: %v", err)
	}
	// reset so the pooled connection does not leak the schema
	defer conn.Exec(context.Background(), "RESET search_path")

	ctx = context.WithValue(ctx, db.OrganisationKey, org)
	ctx = context.WithValue(ctx, db.DBConnKey, conn)
	fn(ctx)
}

func count(t *testing.T, ctx context.Context, query string, args ...interface{}) int {
	t.Helper()
	var n int
	if err := db.Conn(ctx, globalDB.Pool).QueryRow(ctx, query, args...).Scan(&n); err != nil {
		t.Fatalf("%s: %v", query, err)
	}
	return n
}

func mustExec(t *testing.T, ctx context.Context, query string, args ...interface{}) {
	t.Helper()
	if _, err := db.Conn(ctx, globalDB.Pool).Exec(ctx, query, args...); err != nil {
		t.Fatalf("%s: %v", query, err)
	}
}
