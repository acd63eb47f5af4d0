package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/openchs/openchs-server/internal/config"
	"github.com/openchs/openchs-server/internal/domain/checklist"
	"github.com/openchs/openchs-server/internal/domain/form"
	"github.com/openchs/openchs-server/internal/domain/news"
	"github.com/openchs/openchs-server/internal/domain/referencedata"
	"github.com/openchs/openchs-server/internal/domain/subject"
	"github.com/openchs/openchs-server/internal/platform/auth"
	"github.com/openchs/openchs-server/internal/platform/db"
	"github.com/openchs/openchs-server/internal/platform/httperr"
	"github.com/openchs/openchs-server/internal/platform/metrics"
	"github.com/openchs/openchs-server/internal/platform/middleware"
)

const requestTimeout = 30 * time.Second

func main() {
	rootCmd := &cobra.Command{
		Use:   "openchs-server",
		Short: "OpenCHS reference data and field data server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(organisationCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

// openPool loads config and connects, for the one-shot commands.
func openPool(ctx context.Context) (*config.Config, *pgxpool.Pool, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		return nil, nil, err
	}
	return cfg, pool, nil
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations to an organisation schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			org, _ := cmd.Flags().GetString("organisation")
			ctx := context.Background()
			cfg, pool, err := openPool(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			if org == "" {
				org = cfg.DefaultOrganisation
			}
			schema := db.SchemaName(org)
			fmt.Printf("Running migrations on schema: %s\n", schema)
			count, err := db.NewMigrator(pool, cfg.MigrationsDir).Up(ctx, schema)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			fmt.Printf("Applied %d migration(s) successfully.\n", count)
			return nil
		},
	}
	upCmd.Flags().String("organisation", "", "Organisation to migrate (defaults to DEFAULT_ORGANISATION)")
	cmd.AddCommand(upCmd)

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			org, _ := cmd.Flags().GetString("organisation")
			ctx := context.Background()
			cfg, pool, err := openPool(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			if org == "" {
				org = cfg.DefaultOrganisation
			}
			schema := db.SchemaName(org)
			statuses, err := db.NewMigrator(pool, cfg.MigrationsDir).Status(ctx, schema)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}

			fmt.Printf("Migration status for schema: %s\n", schema)
			fmt.Printf("%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
			for _, s := range statuses {
				status, appliedAt := "pending", ""
				if s.Applied {
					status = "applied"
					if s.AppliedAt != nil {
						appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
					}
				}
				fmt.Printf("%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
			}
			return nil
		},
	}
	statusCmd.Flags().String("organisation", "", "Organisation to inspect (defaults to DEFAULT_ORGANISATION)")
	cmd.AddCommand(statusCmd)

	return cmd
}

func organisationCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "organisation",
		Short: "Manage organisations",
	}

	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create and migrate an organisation schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			name, _ := cmd.Flags().GetString("name")
			if name == "" {
				return fmt.Errorf("--name is required")
			}
			ctx := context.Background()
			cfg, pool, err := openPool(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			fmt.Printf("Creating organisation schema: %s\n", db.SchemaName(name))
			if err := db.CreateOrganisationSchema(ctx, pool, name, cfg.MigrationsDir); err != nil {
				return err
			}
			fmt.Println("Organisation created successfully.")
			return nil
		},
	}
	createCmd.Flags().String("name", "", "Organisation identifier (alphanumeric)")
	cmd.AddCommand(createCmd)
	return cmd
}

func newLogger(cfg *config.Config) zerolog.Logger {
	if cfg.IsDev() {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stdout).With().Timestamp().Logger()
}

// registerRoutes builds every domain service on pool and mounts its handler
// on api.
func registerRoutes(api *echo.Group, pool *pgxpool.Pool, tx db.TxRunner) {
	refs := referencedata.NewService(referencedata.Repositories{
		Concepts:                  referencedata.NewConceptRepoPG(pool),
		EncounterTypes:            referencedata.NewEncounterTypeRepoPG(pool),
		OperationalEncounterTypes: referencedata.NewOperationalEncounterTypeRepoPG(pool),
		SubjectTypes:              referencedata.NewSubjectTypeRepoPG(pool),
		GroupRoles:                referencedata.NewGroupRoleRepoPG(pool),
		Facilities:                referencedata.NewFacilityRepoPG(pool),
	}, tx)
	forms := form.NewService(form.NewFormRepoPG(pool), refs, tx)
	checklists := checklist.NewService(checklist.NewChecklistDetailRepoPG(pool), forms, refs, tx)

	subjectRepos := subject.Repositories{
		Individuals:       subject.NewIndividualRepoPG(pool),
		ProgramEnrolments: subject.NewProgramEnrolmentRepoPG(pool),
		ProgramEncounters: subject.NewProgramEncounterRepoPG(pool),
		GroupSubjects:     subject.NewGroupSubjectRepoPG(pool),
	}
	subjects := subject.NewService(subjectRepos, refs, tx)
	rules := subject.NewRulesService(subjectRepos, refs, checklists)

	referencedata.NewHandler(refs).RegisterRoutes(api)
	form.NewHandler(forms).RegisterRoutes(api)
	checklist.NewHandler(checklists).RegisterRoutes(api)
	subject.NewHandler(subjects, rules).RegisterRoutes(api)
	news.NewHandler(news.NewService(news.NewNewsRepoPG(pool), tx)).RegisterRoutes(api)
}

func runServer() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid config")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = httperr.Handler

	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID", db.OrganisationHeader},
	}))
	if cfg.MetricsEnabled {
		e.Use(metrics.Middleware())
		e.GET("/metrics", metrics.Handler())
	}
	e.Use(middleware.RequestTimeout(requestTimeout))

	e.GET("/ping", db.HealthHandler(pool))

	var authn echo.MiddlewareFunc
	if cfg.IsDev() {
		authn = auth.DevAuthMiddleware()
	} else {
		authn = auth.JWTMiddleware(auth.JWTConfig{
			Issuer:     cfg.AuthIssuer,
			Audience:   cfg.AuthAudience,
			JWKSURL:    cfg.AuthJWKSURL,
			SigningKey: []byte(cfg.AuthSigningKey),
		})
	}
	api := e.Group("", authn, db.OrganisationMiddleware(pool, cfg.DefaultOrganisation))
	registerRoutes(api, pool, db.NewTransactor(pool))

	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Msg("server starting")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
