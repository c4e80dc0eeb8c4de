package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/gasolina/backend/internal/artifact"
	"github.com/gasolina/backend/internal/delivery/http"
	"github.com/gasolina/backend/internal/domain"
	"github.com/gasolina/backend/internal/metrics"
	"github.com/gasolina/backend/internal/repository/postgres"
	"github.com/gasolina/backend/internal/service"
	"github.com/gasolina/backend/pkg/utils"
)

func main() {
	// Load environment variables
	envErr := godotenv.Load()

	cfg := loadConfig()
	log := newLogger(cfg)
	if envErr != nil {
		log.Debug().Msg("No .env file found, using system environment")
	}

	if err := newRootCmd(cfg, log).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(cfg *Config, log zerolog.Logger) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "gaspred",
		Short:        "Regular gasoline price estimates for Mexican states",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cfg, log)
		},
	}

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cfg, log)
		},
	}

	var query struct {
		state string
		year  int
		month int
	}
	predictCmd := &cobra.Command{
		Use:   "predict",
		Short: "Print one price estimate",
		RunE: func(cmd *cobra.Command, args []string) error {
			estimator, err := newOfflineEstimator(cfg, log)
			if err != nil {
				return err
			}
			defer estimator.WaitBackground()

			est, err := estimator.Estimate(cmd.Context(), domain.PriceQuery{
				State: query.state,
				Year:  query.year,
				Month: query.month,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Precio estimado: %s por %s\n", utils.FormatPrice(est.Price, est.Currency), est.Unit)
			return nil
		},
	}
	predictCmd.Flags().StringVar(&query.state, "state", "", "state name as known to the encoder")
	predictCmd.Flags().IntVar(&query.year, "year", domain.DefaultYear, "year (2017-2030)")
	predictCmd.Flags().IntVar(&query.month, "month", domain.DefaultMonth, "month (1-12)")
	_ = predictCmd.MarkFlagRequired("state")

	statesCmd := &cobra.Command{
		Use:   "states",
		Short: "List selectable states",
		RunE: func(cmd *cobra.Command, args []string) error {
			estimator, err := newOfflineEstimator(cfg, log)
			if err != nil {
				return err
			}
			for _, s := range estimator.States() {
				fmt.Fprintln(cmd.OutOrStdout(), s)
			}
			return nil
		},
	}

	rootCmd.AddCommand(serveCmd, predictCmd, statesCmd)
	return rootCmd
}

// newOfflineEstimator loads the artifacts without a database
func newOfflineEstimator(cfg *Config, log zerolog.Logger) (*service.PriceEstimator, error) {
	bundle, err := artifact.Load(cfg.artifactPaths())
	if err != nil {
		return nil, err
	}
	return service.NewPriceEstimator(
		bundle.Encoder, bundle.Model, bundle.States,
		postgres.NewMockRepository(), metrics.New(), log,
	), nil
}

func runServer(cfg *Config, log zerolog.Logger) error {
	// Artifacts are loaded once; failure is fatal
	bundle, err := artifact.Load(cfg.artifactPaths())
	if err != nil {
		log.Error().Err(err).Msg("Could not load model artifacts")
		return err
	}
	log.Info().
		Str("model_kind", bundle.Model.Kind()).
		Int("categories", len(bundle.Encoder.Categories())).
		Msg("Artifacts loaded")

	// Database connection
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool := connectDatabase(ctx, cfg.DatabaseURL, log)
	if pool != nil {
		defer pool.Close()
	}

	// Dependency Injection: Repositories
	var repo service.PredictionRepository
	if pool != nil {
		pgRepo := postgres.NewPostgresRepository(pool)
		if err := pgRepo.EnsureSchema(ctx); err != nil {
			return err
		}
		repo = pgRepo
	} else {
		repo = postgres.NewMockRepository()
	}

	// Dependency Injection: Services
	m := metrics.New()
	estimator := service.NewPriceEstimator(bundle.Encoder, bundle.Model, bundle.States, repo, m, log)

	// Fiber App
	app := fiber.New(fiber.Config{
		AppName:      "Gasolina API v1.0",
		Immutable:    true,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		ErrorHandler: http.ErrorHandler,
	})

	// Middleware
	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${method} ${path} (${latency})\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept",
	}))

	// Routes
	http.SetupRoutes(app, estimator, m, log)

	// Graceful shutdown
	listenErr := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Msg("Server starting")
		listenErr <- app.Listen(":" + cfg.Port)
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-listenErr:
		if err != nil {
			log.Error().Err(err).Msg("Server error")
			return err
		}
	case <-quit:
	}

	log.Info().Msg("Shutting down server...")
	if err := app.ShutdownWithTimeout(5 * time.Second); err != nil {
		log.Warn().Err(err).Msg("Server forced to shutdown")
	}
	estimator.WaitBackground()
	log.Info().Msg("Server exited gracefully")
	return nil
}

// connectDatabase returns nil when no database is configured or reachable
func connectDatabase(ctx context.Context, url string, log zerolog.Logger) *pgxpool.Pool {
	if url == "" {
		log.Info().Msg("DATABASE_URL not set, keeping prediction logs in memory")
		return nil
	}

	pool, err := pgxpool.New(ctx, url)
	if err == nil {
		err = pool.Ping(ctx)
		if err != nil {
			pool.Close()
		}
	}
	if err != nil {
		log.Warn().Err(err).Msg("Could not connect to database, keeping prediction logs in memory")
		return nil
	}

	log.Info().Msg("Connected to PostgreSQL")
	return pool
}
