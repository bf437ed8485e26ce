package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"taskboard/internal/config"
	"taskboard/internal/storage/sqlite"
)

// version is set at build time via -ldflags.
var version = "dev"

var rootCmd = &cobra.Command{
	Use:           "taskboard",
	Short:         "Collaborative kanban board with role-based task review",
	SilenceUsage:  true,
	SilenceErrors: true,
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
}

var (
	addrFlag   string
	dbFlag     string
	staticFlag string
)

func init() {
	rootCmd.PersistentFlags().StringVar(&addrFlag, "addr", "", "HTTP listen address (overrides TASKBOARD_ADDR)")
	rootCmd.PersistentFlags().StringVar(&dbFlag, "db", "", "Path to sqlite database file (overrides TASKBOARD_DB_PATH)")
	rootCmd.PersistentFlags().StringVar(&staticFlag, "static", "", "Directory with built frontend (overrides TASKBOARD_STATIC_DIR)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(tokenCmd)
	rootCmd.Version = version
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// setup loads the configuration, applies flag overrides and builds the logger.
func setup(cmd *cobra.Command) (config.Config, *slog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, nil, err
	}
	flags := cmd.Flags()
	if flags.Changed("addr") {
		cfg.Addr = addrFlag
	}
	if flags.Changed("db") {
		cfg.DBPath = dbFlag
	}
	if flags.Changed("static") {
		cfg.StaticDir = staticFlag
	}

	level, err := config.ParseLevel(cfg.LogLevel)
	if err != nil {
		return config.Config{}, nil, err
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	return cfg, logger, nil
}

func openStore(cfg config.Config, logger *slog.Logger) (*sqlite.Store, error) {
	store, err := sqlite.Open(cfg.DBDriver, cfg.DBPath, logger)
	if err != nil {
		return nil, fmt.Errorf("unable to open database: %w", err)
	}
	return store, nil
}
