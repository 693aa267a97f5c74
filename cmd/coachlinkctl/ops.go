package main

import (
	"fmt"

	"github.com/dimitrije/coachlink-api/internal/config"
	"github.com/dimitrije/coachlink-api/internal/database"
	"github.com/dimitrije/coachlink-api/internal/logger"
	"github.com/dimitrije/coachlink-api/internal/repository"
	"github.com/dimitrije/coachlink-api/internal/services"
	"github.com/spf13/cobra"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(cmd.Context(), func(_ *config.Config, db *database.DB) error {
				if err := db.Migrate(cmd.Context()); err != nil {
					return fmt.Errorf("failed to run migrations: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
				return nil
			})
		},
	}
}

func sweepCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Mark pending invitations past their expiry as expired",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(cmd.Context(), func(cfg *config.Config, db *database.DB) error {
				svc := services.NewInvitationService(
					repository.NewInvitationRepository(db),
					repository.NewRelationshipRepository(db),
					services.NewUserService(db),
					services.InvitationOptions{Logger: logger.New(cfg.Env, cfg.LogLevel)},
				)
				count, err := svc.SweepExpired(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "expired %d invitation(s)\n", count)
				return nil
			})
		},
	}
}

func tokenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "token <email>",
		Short: "Issue an access token for an existing user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(cmd.Context(), func(cfg *config.Config, db *database.DB) error {
				user, err := services.NewUserService(db).GetByEmail(cmd.Context(), args[0])
				if err != nil {
					return fmt.Errorf("failed to find %s: %w", args[0], err)
				}
				token, err := services.NewJWTService(cfg.JWTSecret, cfg.JWTAccessExpiry).GenerateAccessToken(user.ID, user.Email)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), token.Token)
				return nil
			})
		},
	}
}
