package main

import (
	"context"
	"fmt"
	"os"

	"github.com/dimitrije/coachlink-api/internal/config"
	"github.com/dimitrije/coachlink-api/internal/database"
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "coachlinkctl",
		Short:         "coachlinkctl administers a coachlink-api database",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(migrateCmd(), sweepCmd(), userCmd(), tokenCmd())
	return rootCmd
}

// withDB loads configuration and opens the database for the duration of fn.
func withDB(ctx context.Context, fn func(cfg *config.Config, db *database.DB) error) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	db, err := database.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	return fn(cfg, db)
}

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
