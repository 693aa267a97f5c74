package main

import (
	"fmt"

	"github.com/dimitrije/coachlink-api/internal/config"
	"github.com/dimitrije/coachlink-api/internal/database"
	"github.com/dimitrije/coachlink-api/internal/models"
	"github.com/dimitrije/coachlink-api/internal/services"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func userCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage users",
	}
	cmd.AddCommand(userCreateCmd(), userPromoteCmd())
	return cmd
}

func userCreateCmd() *cobra.Command {
	var email, name, role string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a user",
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return checkRole(role)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(cmd.Context(), func(_ *config.Config, db *database.DB) error {
				user, err := services.NewUserService(db).Create(cmd.Context(), email, name, role)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "created %s (%s) as %s\n", user.Email, user.ID, user.Role)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&email, "email", "e", "", "email address (required)")
	cmd.Flags().StringVarP(&name, "name", "n", "", "display name (required)")
	cmd.Flags().StringVarP(&role, "role", "r", models.RoleMember, "member, trainer, parent or admin")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func userPromoteCmd() *cobra.Command {
	var role string

	cmd := &cobra.Command{
		Use:   "promote <email>...",
		Short: "Set the role of one or more users",
		Args:  cobra.MinimumNArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return checkRole(role)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(cmd.Context(), func(_ *config.Config, db *database.DB) error {
				users := services.NewUserService(db)

				g, ctx := errgroup.WithContext(cmd.Context())
				g.SetLimit(4)
				for _, email := range args {
					g.Go(func() error {
						user, err := users.GetByEmail(ctx, email)
						if err != nil {
							return fmt.Errorf("no user found with email %s: %w", email, err)
						}
						if err := users.SetRole(ctx, user.ID, role); err != nil {
							return fmt.Errorf("failed to promote %s: %w", email, err)
						}
						fmt.Fprintf(cmd.OutOrStdout(), "promoted %s to %s\n", user.Email, role)
						return nil
					})
				}
				return g.Wait()
			})
		},
	}

	cmd.Flags().StringVarP(&role, "role", "r", models.RoleTrainer, "member, trainer, parent or admin")
	return cmd
}

func checkRole(role string) error {
	if !models.ValidRole(role) {
		return fmt.Errorf("unknown role %q", role)
	}
	return nil
}
