// parkctl bundles the maintenance scripts: a public-profile backfill and a
// one-off email-verification fix for a single owner.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"barkpark-backend/config"
	"barkpark-backend/internal/db"
	"barkpark-backend/internal/identity"
	"barkpark-backend/internal/mirror"
	"barkpark-backend/internal/store"
)

func main() {
	root := &cobra.Command{
		Use:           "parkctl",
		Short:         "Maintenance commands for the barkpark backend",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newBackfillCmd(), newVerifyUserCmd(), newIssueTokenCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func openStore() (store.Store, *config.Config, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration from %s: %w", configPath, err)
	}

	gormDB, err := db.Init(&cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	return store.NewGormStore(gormDB), cfg, nil
}

func newBackfillCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "backfill-profiles",
		Short: "Rebuild public_profiles from the owners table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, _, err := openStore()
			if err != nil {
				return err
			}
			_, err = mirror.Backfill(context.Background(), s)
			return err
		},
	}
}

func newIssueTokenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "issue-token <uid>",
		Short: "Mint an API token for an owner (support/debug use)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, cfg, err := openStore()
			if err != nil {
				return err
			}
			owner, found, err := s.GetOwner(context.Background(), args[0])
			if err != nil {
				return err
			}
			if !found {
				return fmt.Errorf("owner %s not found", args[0])
			}
			svc := identity.NewService(s, cfg.Auth.JWTSecret,
				time.Duration(cfg.Auth.TokenTTLMinutes)*time.Minute)
			token, err := svc.IssueToken(owner)
			if err != nil {
				return err
			}
			fmt.Println(token)
			return nil
		},
	}
}

func newVerifyUserCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify-user <uid>",
		Short: "Mark a single owner's email address as verified",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, _, err := openStore()
			if err != nil {
				return err
			}
			uid := args[0]
			if err := s.MarkEmailVerified(context.Background(), uid); err != nil {
				return err
			}
			fmt.Printf("Marked %s as emailVerified=true\n", uid)
			return nil
		},
	}
}
