package main

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/cgulucan/bilanco/internal/api"
	"github.com/cgulucan/bilanco/internal/config"
	"github.com/cgulucan/bilanco/internal/database"
	"github.com/cgulucan/bilanco/internal/domain"
	"github.com/cgulucan/bilanco/internal/export"
	"github.com/cgulucan/bilanco/internal/pricing"
	"github.com/cgulucan/bilanco/internal/session"
	"github.com/cgulucan/bilanco/internal/worker"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

func main() {
	// Load .env if present; absent in production is fine.
	_ = godotenv.Load()

	app := &cli.App{
		Name:  "bilanco",
		Usage: "personal balance-sheet service: pricing, valuation, interest accrual and net-worth history",
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "run the HTTP API and background workers",
				Action: runServe,
			},
			{
				Name:  "seed",
				Usage: "create a user with the default row set",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "user", Value: "default", Usage: "username to seed"},
				},
				Action: runSeed,
			},
		},
		DefaultCommand: "serve",
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func runServe(c *cli.Context) error {
	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.Load()

	pool, sessions, prices, err := buildServices(ctx, cfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	// Workers
	priceWorker := worker.NewPriceWorker(prices, cfg.PriceWorkerInterval)
	go priceWorker.Run(ctx)

	var hook worker.AfterPassHook
	if cfg.SheetsSpreadsheetID != "" && cfg.SheetsCredentialsJSON != "" {
		writer, err := export.NewSheetsWriter(ctx, cfg.SheetsSpreadsheetID, cfg.SheetsCredentialsJSON)
		if err != nil {
			return fmt.Errorf("configuring sheets export: %w", err)
		}
		hook = &sheetsHook{writer: writer}
	}

	snapshotWorker := worker.NewSnapshotWorker(sessions, cfg.SnapshotWorkerInterval, hook)
	go snapshotWorker.Run(ctx)

	if cfg.AdminAPIKey == "" {
		slog.Warn("ADMIN_API_KEY not set, refresh endpoint is unprotected")
	}

	srv := api.NewServer(cfg.HTTPPort, sessions, prices, cfg.AdminAPIKey)

	go func() {
		log.Printf("HTTP server listening on :%s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("HTTP server error: %v", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}

	log.Println("Shutdown complete")
	return nil
}

func runSeed(c *cli.Context) error {
	cfg := config.Load()

	pool, sessions, _, err := buildServices(c.Context, cfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	username := c.String("user")
	state := session.DefaultState(time.Now())
	if err := sessions.SaveState(c.Context, username, state); err != nil {
		return fmt.Errorf("seeding user %s: %w", username, err)
	}

	log.Printf("seeded user %s with %d asset rows", username, len(state.Assets))
	return nil
}

func buildServices(ctx context.Context, cfg config.Config) (pool *pgxpool.Pool, sessions *session.Service, prices *pricing.Service, err error) {
	if cfg.DatabaseURL == "" {
		return nil, nil, nil, fmt.Errorf("DATABASE_URL is required")
	}

	pool, err = database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("connecting to database: %w", err)
	}

	migrationsSub, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		pool.Close()
		return nil, nil, nil, fmt.Errorf("creating migrations sub-fs: %w", err)
	}
	if err := database.RunMigrations(ctx, pool, migrationsSub); err != nil {
		pool.Close()
		return nil, nil, nil, fmt.Errorf("running migrations: %w", err)
	}

	feed := pricing.NewTruncgilClient(cfg.FeedURL, cfg.FeedTimeout, cfg.FeedRetryBaseDelay, cfg.FeedRetryMax)
	quoteRepo := pricing.NewPgQuoteRepository(pool)
	prices = pricing.NewService(feed, quoteRepo, cfg.PriceTTL)

	stateRepo := session.NewPgRepository(pool)
	sessions = session.NewService(stateRepo, prices)

	return pool, sessions, prices, nil
}

// sheetsHook pushes the evaluated ledger to Google Sheets after each
// snapshot pass.
type sheetsHook struct {
	writer *export.SheetsWriter
}

func (h *sheetsHook) Export(ctx context.Context, username string, ev session.Evaluation) error {
	entries := make([]domain.NetWorthSnapshot, 0, len(ev.History))
	for _, e := range ev.History {
		entries = append(entries, domain.NetWorthSnapshot{Date: e.Date, Net: e.Net})
	}
	return h.writer.Write(ctx, username, entries)
}
