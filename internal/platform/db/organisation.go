package db

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
)

type contextKey string

const (
	OrganisationKey contextKey = "organisation"
	DBConnKey       contextKey = "db_conn"
	DBTxKey         contextKey = "db_tx"

	// OrganisationHeader selects the organisation when the token does not carry one.
	OrganisationHeader = "ORGANISATION-NAME"
)

var organisationPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// SchemaName returns the Postgres schema that holds an organisation's data.
func SchemaName(organisation string) string {
	return "org_" + strings.ToLower(strings.ReplaceAll(organisation, "-", "_"))
}

// OrganisationMiddleware pins a pooled connection to the request and points its
// search_path at the organisation schema, so repositories never need to
// qualify table names.
func OrganisationMiddleware(pool *pgxpool.Pool, defaultOrganisation string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			org := extractOrganisation(c, defaultOrganisation)

			if !organisationPattern.MatchString(org) {
				return echo.NewHTTPError(http.StatusBadRequest, "invalid organisation")
			}

			ctx := c.Request().Context()
			conn, err := pool.Acquire(ctx)
			if err != nil {
				return echo.NewHTTPError(http.StatusServiceUnavailable, "database unavailable")
			}
			defer conn.Release()

			schema := pgx.Identifier{SchemaName(org)}.Sanitize()
			if _, err := conn.Exec(ctx, fmt.Sprintf("SET search_path TO %s, public", schema)); err != nil {
				return echo.NewHTTPError(http.StatusInternalServerError, "organisation resolution failed")
			}

			ctx = context.WithValue(ctx, OrganisationKey, org)
			ctx = context.WithValue(ctx, DBConnKey, conn)
			c.SetRequest(c.Request().WithContext(ctx))
			c.Set("organisation", org)

			return next(c)
		}
	}
}

func extractOrganisation(c echo.Context, defaultOrganisation string) string {
	if org, ok := c.Get("jwt_organisation").(string); ok && org != "" {
		return org
	}
	if org := c.Request().Header.Get(OrganisationHeader); org != "" {
		return org
	}
	return defaultOrganisation
}

// ConnFromContext retrieves the organisation-scoped connection from context.
func ConnFromContext(ctx context.Context) *pgxpool.Conn {
	conn, _ := ctx.Value(DBConnKey).(*pgxpool.Conn)
	return conn
}

// OrganisationFromContext retrieves the organisation name from context.
func OrganisationFromContext(ctx context.Context) string {
	org, _ := ctx.Value(OrganisationKey).(string)
	return org
}

// CreateOrganisationSchema creates the schema for an organisation and, when
// migrationsDir is set, migrates it.
func CreateOrganisationSchema(ctx context.Context, pool *pgxpool.Pool, organisation string, migrationsDir string) error {
	if !organisationPattern.MatchString(organisation) {
		return fmt.Errorf("invalid organisation: %s", organisation)
	}

	schema := SchemaName(organisation)

	conn, err := pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, "CREATE SCHEMA IF NOT EXISTS "+pgx.Identifier{schema}.Sanitize()); err != nil {
		return fmt.Errorf("create schema %s: %w", schema, err)
	}

	if migrationsDir != "" {
		migrator := NewMigrator(pool, migrationsDir)
		if _, err := migrator.Up(ctx, schema); err != nil {
			return fmt.Errorf("run migrations for %s: %w", schema, err)
		}
	}

	return nil
}
