/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the lodging reservation engine server.
  Handles configuration, dependency injection, and graceful shutdown.

COMMANDS:
  serve          Run the HTTP API and the hold expiry scheduler
  migrate        Create or update the database schema and exit
  seed           Save the room type catalog (CATALOG_FILE or built-in) and exit
  expire-holds   Run one hold expiry pass and exit

STARTUP SEQUENCE (serve):
  1. Load configuration (.env + environment, see config package)
  2. Open the store selected by DB_DRIVER, migrate it
  3. Connect Redis when REDIS_ADDR is set (lock, calendar cache, events)
  4. Seed the catalog if it is empty
  5. Start the hold expiry scheduler
  6. Start the HTTP server with graceful shutdown

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Stop the scheduler
  4. Close Redis and database connections

EXAMPLES:
  # SQLite file database
  ./server serve

  # In-memory, custom port
  DB_DRIVER=memory ./server serve --port 3000

  # PostgreSQL with Redis
  DB_DRIVER=postgres DATABASE_URL=postgres://... REDIS_ADDR=localhost:6379 ./server serve

SEE ALSO:
  - api/server.go: Router configuration
  - config/config.go: Environment variables
  - backend.go: Store selection
*/
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

	"github.com/spf13/cobra"

	"github.com/warp/lodging-engine/api"
	"github.com/warp/lodging-engine/config"
	"github.com/warp/lodging-engine/factory"
	"github.com/warp/lodging-engine/logger"
)

func main() {
	var envFile string

	rootCmd := &cobra.Command{
		Use:   "server",
		Short: "Lodging reservation engine",
	}
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before the environment")

	var port int
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup(envFile)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("port") {
				cfg.Port = port
			}
			return serve(cfg, log)
		},
	}
	serveCmd.Flags().IntVar(&port, "port", 8080, "HTTP server port (overrides PORT)")

	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup(envFile)
			if err != nil {
				return err
			}
			b, err := openDB(cfg, log)
			if err != nil {
				return err
			}
			defer b.Close()
			if err := b.migrate(cmd.Context()); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			log.Info("Schema is up to date (%s)", cfg.DBDriver)
			return nil
		},
	}

	seedCmd := &cobra.Command{
		Use:   "seed",
		Short: "Save the room type catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup(envFile)
			if err != nil {
				return err
			}
			b, err := openBackend(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			defer b.Close()
			if err := b.migrate(cmd.Context()); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			rts, err := loadCatalog(cfg)
			if err != nil {
				return err
			}
			if err := factory.Seed(cmd.Context(), newService(cfg, b, log), rts); err != nil {
				return err
			}
			log.Info("Seeded %d room type(s)", len(rts))
			return nil
		},
	}

	expireCmd := &cobra.Command{
		Use:   "expire-holds",
		Short: "Cancel holds older than HOLD_TTL",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup(envFile)
			if err != nil {
				return err
			}
			b, err := openBackend(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			defer b.Close()
			n, err := newService(cfg, b, log).ExpireHolds(cmd.Context())
			if err != nil {
				return err
			}
			log.Info("Expired %d hold(s)", n)
			return nil
		},
	}

	rootCmd.AddCommand(serveCmd, migrateCmd, seedCmd, expireCmd)

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func setup(envFile string) (config.Config, *logger.DefaultLogger, error) {
	cfg, err := config.Load(envFile)
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("config: %w", err)
	}
	return cfg, logger.New(os.Stderr, logger.ParseLevel(cfg.LogLevel), "Server"), nil
}

func serve(cfg config.Config, log *logger.DefaultLogger) error {
	ctx := context.Background()

	b, err := openBackend(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("failed to initialize backend: %w", err)
	}
	defer func() {
		if err := b.Close(); err != nil {
			log.Error("close: %v", err)
		}
	}()

	if err := b.migrate(ctx); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	svc := newService(cfg, b, log)

	// Seed the catalog on first start
	existing, err := svc.RoomTypes(ctx)
	if err != nil {
		return fmt.Errorf("failed to read catalog: %w", err)
	}
	if len(existing) == 0 {
		rts, err := loadCatalog(cfg)
		if err != nil {
			return err
		}
		if err := factory.Seed(ctx, svc, rts); err != nil {
			return fmt.Errorf("failed to seed catalog: %w", err)
		}
		log.Info("Seeded %d room type(s)", len(rts))
	}

	// Initialize handler and scheduler
	handler := api.NewHandler(svc)
	handler.Log = log.With("API")
	handler.Health = b.health

	scheduler := api.NewHoldExpiryScheduler(svc, cfg.HoldExpirySpec, log.With("Scheduler"))
	if err := scheduler.Start(); err != nil {
		return fmt.Errorf("invalid HOLD_EXPIRY_SPEC %q: %w", cfg.HoldExpirySpec, err)
	}
	defer scheduler.Stop()
	handler.Scheduler = scheduler

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      api.NewRouter(handler, nil),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	serverErr := make(chan error, 1)
	go func() {
		log.Info("Server starting on http://localhost:%d", cfg.Port)
		log.Info("API available at http://localhost:%d/api", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-serverErr:
		return fmt.Errorf("server failed: %w", err)
	}

	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Info("Server stopped")
	return nil
}
