package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"taskboard/internal/auth"
)

var tokenCmd = &cobra.Command{
	Use:   "token <user-id|email>",
	Short: "Mint an access token for an existing user",
	Args:  cobra.ExactArgs(1),
	RunE:  runToken,
}

func runToken(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}
	if cfg.JWTSecret == "" {
		return errors.New("TASKBOARD_JWT_SECRET is required to mint tokens")
	}

	store, err := openStore(cfg, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	user, err := store.GetUser(cmd.Context(), args[0])
	if err != nil {
		if user, err = store.GetUserByEmail(cmd.Context(), args[0]); err != nil {
			return fmt.Errorf("user %s: %w", args[0], err)
		}
	}

	tokens, err := auth.NewTokens(cfg.JWTSecret, cfg.JWTIssuer, cfg.TokenTTL, nil)
	if err != nil {
		return err
	}
	token, err := tokens.Issue(user.ID, user.Email)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), token)
	return nil
}
