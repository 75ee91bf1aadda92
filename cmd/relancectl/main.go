// Command relancectl runs cadence maintenance tasks against the database
// without going through the HTTP API.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"

	"github.com/DukeRupert/relance/internal"
	"github.com/DukeRupert/relance/internal/clock"
	"github.com/DukeRupert/relance/internal/email"
	"github.com/DukeRupert/relance/internal/jobs"
	"github.com/DukeRupert/relance/internal/repository"
	"github.com/DukeRupert/relance/internal/service"
	"github.com/DukeRupert/relance/internal/storage"
	"github.com/DukeRupert/relance/internal/worker"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/spf13/cobra"
)

// Version information (set at build time with -ldflags)
var (
	Version   = "dev"
	GitCommit = "unknown"
)

var rootCmd = &cobra.Command{
	Use:           "relancectl",
	Short:         "Relance cadence maintenance",
	Long:          `relancectl triggers cadence batch runs, releases orphaned claims and inspects organization entitlements.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(reapCmd)
	rootCmd.AddCommand(entitlementsCmd)
	rootCmd.AddCommand(eventsCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "relancectl %s\n", Version)
		if GitCommit != "unknown" {
			fmt.Fprintf(cmd.OutOrStdout(), "Commit: %s\n", GitCommit)
		}
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// app holds the dependencies shared by the subcommands.
type app struct {
	cfg    *internal.Config
	logger *slog.Logger
	db     *sql.DB
	repo   *repository.Queries
}

func openApp(ctx context.Context) (*app, error) {
	cfg, err := internal.NewConfig()
	if err != nil {
		return nil, fmt.Errorf("config initialization failed: %w", err)
	}

	logger := internal.NewLogger(os.Stderr, cfg.Env, cfg.LogLevel)

	db, err := sql.Open("pgx", cfg.DatabaseUrl)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("database ping failed: %w", err)
	}

	return &app{
		cfg:    cfg,
		logger: logger,
		db:     db,
		repo:   repository.New(db),
	}, nil
}

func (a *app) Close() error {
	return a.db.Close()
}

func (a *app) entitlements() service.EntitlementsService {
	return service.NewEntitlementsService(a.repo, clock.Real{}, a.logger)
}

// worker builds the same batch worker the server runs.
func (a *app) worker() (*worker.Worker, error) {
	cal, err := a.cfg.Calendar()
	if err != nil {
		return nil, err
	}

	files, err := storage.New(a.cfg.StorageConfig(), a.logger)
	if err != nil {
		return nil, fmt.Errorf("storage initialization failed: %w", err)
	}

	clk := clock.Real{}
	mailer := email.NewFollowUpMailer(a.repo, files, email.NewSMTPTransport(), clk, a.logger)
	processor := jobs.NewFollowUpProcessor(a.repo, service.NewTxRunner(a.db, a.repo), mailer, clk, a.cfg.AutoEmailEnabled, a.logger)

	return worker.New(a.repo, a.entitlements(), processor, cal, clk, a.cfg.WorkerConfig(), a.logger)
}
