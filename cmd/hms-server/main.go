package main

import (
	"context"
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

	"github.com/hms/hms/internal/config"
	"github.com/hms/hms/internal/domain/account"
	"github.com/hms/hms/internal/domain/clinic"
	"github.com/hms/hms/internal/domain/prescription"
	"github.com/hms/hms/internal/platform/auth"
	"github.com/hms/hms/internal/platform/db"
	"github.com/hms/hms/internal/platform/metrics"
	"github.com/hms/hms/internal/platform/middleware"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "hms-server",
		Short: "Hospital management API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())

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

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	// migrate up
	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			migrator, closePool, err := openMigrator(ctx, cmd)
			if err != nil {
				return err
			}
			defer closePool()

			count, err := migrator.Up(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}

			fmt.Printf("Applied %d migration(s) successfully.\n", count)
			return nil
		},
	}
	upCmd.Flags().String("dir", "", "Path to migrations directory (default MIGRATIONS_DIR)")
	cmd.AddCommand(upCmd)

	// migrate status
	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			migrator, closePool, err := openMigrator(ctx, cmd)
			if err != nil {
				return err
			}
			defer closePool()

			statuses, err := migrator.Status(ctx)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}

			fmt.Printf("%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
			fmt.Println("---------- ---------------------------------------- ---------- --------------------")
			for _, s := range statuses {
				status := "pending"
				appliedAt := ""
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
	statusCmd.Flags().String("dir", "", "Path to migrations directory (default MIGRATIONS_DIR)")
	cmd.AddCommand(statusCmd)

	return cmd
}

func openMigrator(ctx context.Context, cmd *cobra.Command) (*db.Migrator, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	dir, _ := cmd.Flags().GetString("dir")
	if dir == "" {
		dir = cfg.MigrationsDir
	}

	pool, err := db.NewPool(ctx, cfg.DatabaseURL, db.PoolOptions{MaxConns: cfg.DBMaxConns, MinConns: cfg.DBMinConns})
	if err != nil {
		return nil, nil, err
	}
	return db.NewMigrator(pool, dir), pool.Close, nil
}

func newLogger(env string) zerolog.Logger {
	if env == "development" {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stdout).With().Timestamp().Logger()
}

func runServer() error {
	started := time.Now()

	// Config
	cfg, err := config.Load()
	if err != nil {
		l := newLogger(os.Getenv("ENV"))
		l.Fatal().Err(err).Msg("failed to load config")
	}
	logger := newLogger(cfg.Env)
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid config")
	}

	creds, err := auth.NewCredentials([]byte(cfg.JWTSecret), cfg.BcryptCost)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialise credentials")
	}

	// Database
	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, db.PoolOptions{MaxConns: cfg.DBMaxConns, MinConns: cfg.DBMinConns})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	collector := metrics.NewCollector()
	collector.RegisterPoolGauges(func() (int32, int32, int32) {
		s := db.GetPoolStats(pool)
		return s.TotalConns, s.IdleConns, s.AcquiredConns
	})

	e := newServer(serverDeps{
		cfg:     cfg,
		logger:  logger,
		pool:    pool,
		pinger:  pool,
		creds:   creds,
		metrics: collector,
		started: started,
	})

	// Graceful shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Str("env", cfg.Env).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server shutdown failed")
	}
	logger.Info().Msg("server stopped")
	return nil
}

type serverDeps struct {
	cfg     *config.Config
	logger  zerolog.Logger
	pool    *pgxpool.Pool
	pinger  db.Pinger
	creds   *auth.Credentials
	metrics *metrics.Collector
	started time.Time
}

// newServer builds the echo instance with the global middleware chain and
// every route mounted.
func newServer(d serverDeps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = middleware.ErrorHandler(d.logger, !d.cfg.IsProduction())
	e.Server.ReadTimeout = 30 * time.Second
	e.Server.WriteTimeout = 30 * time.Second

	// Global middleware
	e.Use(middleware.Recovery(d.logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(d.logger))
	e.Use(d.metrics.Middleware())
	e.Use(middleware.SecurityHeaders())
	e.Use(middleware.BodyLimit(d.cfg.BodyLimit))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: d.cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders: []string{echo.HeaderAuthorization, echo.HeaderContentType, middleware.RequestIDHeader},
	}))

	e.GET("/", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "All APIs Working!!!"})
	})
	e.GET("/health", db.HealthHandler(d.pinger, d.started))
	e.GET("/metrics", d.metrics.Handler())

	api := e.Group("/api")
	authn := auth.Authenticate(d.creds)

	// Accounts
	userRepo := account.NewUserRepoPG(d.pool)
	accountSvc := account.NewService(userRepo, d.creds, d.metrics, d.logger)
	account.NewHandler(accountSvc).RegisterRoutes(api, authn)

	// Clinic
	clinicSvc := clinic.NewService(
		clinic.NewDepartmentRepoPG(d.pool),
		clinic.NewDoctorRepoPG(d.pool),
		clinic.NewPatientRepoPG(d.pool),
		clinic.NewAppointmentRepoPG(d.pool),
		d.metrics,
		d.logger,
	)
	clinic.NewHandler(clinicSvc).RegisterRoutes(api, authn)

	// Prescriptions
	rxSvc := prescription.NewService(prescription.NewRepoPG(d.pool), clinicSvc, d.logger)
	prescription.NewHandler(rxSvc).RegisterRoutes(api, authn)

	return e
}
