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

	"github.com/chamberdesk/chamberdesk/internal/config"
	"github.com/chamberdesk/chamberdesk/internal/domain/doctor"
	"github.com/chamberdesk/chamberdesk/internal/domain/draft"
	"github.com/chamberdesk/chamberdesk/internal/domain/followup"
	"github.com/chamberdesk/chamberdesk/internal/domain/registry"
	"github.com/chamberdesk/chamberdesk/internal/domain/sequence"
	"github.com/chamberdesk/chamberdesk/internal/domain/visit"
	"github.com/chamberdesk/chamberdesk/internal/platform/auth"
	"github.com/chamberdesk/chamberdesk/internal/platform/db"
	"github.com/chamberdesk/chamberdesk/internal/platform/kvstore"
	"github.com/chamberdesk/chamberdesk/internal/platform/middleware"
	"github.com/chamberdesk/chamberdesk/internal/platform/pdf"
	"github.com/chamberdesk/chamberdesk/internal/platform/sandbox"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "chamberdesk-server",
		Short: "Clinic prescription manager API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(seedCmd())

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

func seedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Populate the configured backend with synthetic demo data",
		RunE: func(cmd *cobra.Command, args []string) error {
			doctors, _ := cmd.Flags().GetInt("doctors")
			patients, _ := cmd.Flags().GetInt("patients")
			visits, _ := cmd.Flags().GetInt("visits")
			seed, _ := cmd.Flags().GetInt64("seed")
			reset, _ := cmd.Flags().GetBool("reset")
			return runSeed(sandbox.SeedConfig{
				DoctorCount:      doctors,
				PatientCount:     patients,
				VisitsPerPatient: visits,
				Seed:             seed,
			}, reset)
		},
	}
	defaults := sandbox.DefaultSeedConfig()
	cmd.Flags().Int("doctors", defaults.DoctorCount, "number of doctors to create")
	cmd.Flags().Int("patients", defaults.PatientCount, "number of patients to create")
	cmd.Flags().Int("visits", defaults.VisitsPerPatient, "visits per patient")
	cmd.Flags().Int64("seed", defaults.Seed, "random seed (0 uses the current time)")
	cmd.Flags().Bool("reset", false, "wipe prescriptions, doctors, the patient registry, and any draft first")
	return cmd
}

func newLogger() zerolog.Logger {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "development" || os.Getenv("ENV") == "" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}
	return logger
}

// openBackend builds the configured blob store. The returned pool is nil
// for the file and memory backends.
func openBackend(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (kvstore.Store, *pgxpool.Pool, error) {
	switch cfg.StorageBackend {
	case "memory":
		return kvstore.NewMemory(), nil, nil
	case "file":
		kv, err := kvstore.NewFile(cfg.DataDir)
		if err != nil {
			return nil, nil, fmt.Errorf("open data dir: %w", err)
		}
		return kv, nil, nil
	case "postgres":
		pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
		if err != nil {
			return nil, nil, fmt.Errorf("connect to database: %w", err)
		}
		kv := kvstore.NewPG(pool)
		if err := kv.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("ensure schema: %w", err)
		}
		logger.Info().Msg("connected to database")
		return kv, pool, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}
}

// application wires the stores and services over one blob store.
type application struct {
	doctors   *doctor.Store
	doctorSeq *sequence.Allocator
	visits    *visit.Service
	registry  *registry.Store
	drafts    *draft.Store
}

func newApplication(kv kvstore.Store, logger zerolog.Logger) *application {
	doctors := doctor.NewStore(kv, logger)
	doctorSeq := sequence.New(kv, kvstore.KeyDoctorSeq, doctors.MaxID, logger)
	visitStore := visit.NewStore(kv, logger)
	reg := registry.NewStore(kv, logger)
	visitSeq := sequence.New(kv, kvstore.KeyPrescriptionSeq, visitStore.MaxID, logger)

	return &application{
		doctors:   doctors,
		doctorSeq: doctorSeq,
		visits:    visit.NewService(visitStore, reg, visitSeq),
		registry:  reg,
		drafts:    draft.NewStore(kv, logger),
	}
}

func runServer() error {
	logger := newLogger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid config")
	}

	ctx := context.Background()
	kv, pool, err := openBackend(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open storage backend")
	}
	if pool != nil {
		defer pool.Close()
	}
	logger.Info().Str("backend", cfg.StorageBackend).Msg("storage ready")

	app := newApplication(kv, logger)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))

	// Health check
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": "0.1.0",
		})
	})
	if pool != nil {
		e.GET("/health/db", db.HealthHandler(pool))
	}

	// API group with auth + rate limiting
	apiV1 := e.Group("/api/v1")

	if cfg.ResolvedAuthMode() == "development" {
		apiV1.Use(auth.DevAuthMiddleware())
	} else {
		apiV1.Use(auth.JWTMiddleware(auth.JWTConfig{
			SigningKey: []byte(cfg.AuthSigningKey),
		}))
	}

	rateLimitCfg := middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	}
	if rateLimitCfg.RequestsPerSecond <= 0 {
		rateLimitCfg = middleware.DefaultRateLimitConfig()
	}
	apiV1.Use(middleware.RateLimit(rateLimitCfg))

	// Domain routes
	visit.NewHandler(app.visits, app.doctors, pdf.NewRenderer()).RegisterRoutes(apiV1)
	doctor.NewHandler(app.doctors, app.doctorSeq).RegisterRoutes(apiV1)
	registry.NewHandler(app.registry).RegisterRoutes(apiV1)
	followup.NewHandler(app.visits.Store()).RegisterRoutes(apiV1)
	draft.NewHandler(app.drafts).RegisterRoutes(apiV1)

	// Graceful shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Msg("starting server")
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

func runSeed(seedCfg sandbox.SeedConfig, reset bool) error {
	logger := newLogger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid config")
	}

	ctx := context.Background()
	kv, pool, err := openBackend(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open storage backend")
	}
	if pool != nil {
		defer pool.Close()
	}

	app := newApplication(kv, logger)
	if reset {
		app.visits.Store().ClearAll(ctx)
		app.doctors.ClearAll(ctx)
		app.registry.ClearAll(ctx)
		app.drafts.Clear(ctx)
		logger.Info().Msg("existing data cleared")
	}
	seeder := sandbox.NewSeeder(seedCfg, app.doctors, app.doctorSeq, app.visits)

	res, err := seeder.Seed(ctx)
	if err != nil {
		return err
	}
	logger.Info().
		Int("doctors", res.Doctors).
		Int("patients", res.Patients).
		Int("prescriptions", res.Prescriptions).
		Msg("seed complete")
	return nil
}
