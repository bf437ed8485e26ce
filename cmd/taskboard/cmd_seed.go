package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"taskboard/internal/auth"
	"taskboard/internal/storage/sqlite"
)

var seedCmd = &cobra.Command{
	Use:   "seed <fixture.yaml>",
	Short: "Load users, projects, members and tasks from a YAML fixture",
	Args:  cobra.ExactArgs(1),
	RunE:  runSeed,
}

func runSeed(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}

	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	fixture, err := sqlite.DecodeFixture(f)
	if err != nil {
		return err
	}

	store, err := openStore(cfg, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	res, err := store.Seed(cmd.Context(), fixture, auth.HashPassword)
	if err != nil {
		return fmt.Errorf("seed %s: %w", args[0], err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "seeded %d users, %d projects, %d tasks, %d comments\n",
		res.Users, res.Projects, res.Tasks, res.Comments)
	return nil
}
