package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/northbeam/leadsite/internal/repository"
	"github.com/northbeam/leadsite/internal/service"
)

func newUserCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage back-office users",
	}

	var email, password string
	create := &cobra.Command{
		Use:   "create",
		Short: "Create an admin user",
		Long: `Create an admin user for the /api/admin endpoints.

The password may also be passed through SITECTL_PASSWORD to keep it out of
shell history.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if password == "" {
				password = lookupEnv("SITECTL_PASSWORD")
			}
			if email == "" || password == "" {
				return errors.New("--email and --password are required")
			}

			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}

			repo, err := repository.New(cmd.Context(), cfg.DatabaseURL)
			if err != nil {
				return fmt.Errorf("connect to database: %w", err)
			}
			defer repo.Close()

			user, err := service.NewAdminService(repo, logger).CreateAdmin(cmd.Context(), email, password)
			if errors.Is(err, repository.ErrEmailExists) {
				return fmt.Errorf("a user with email %s already exists", email)
			}
			if err != nil {
				return err
			}

			cmd.Printf("created admin %s (%s)\n", user.Email, user.ID)
			return nil
		},
	}
	create.Flags().StringVar(&email, "email", "", "email address used to sign in")
	create.Flags().StringVar(&password, "password", "", "password (at least 12 characters)")

	cmd.AddCommand(create)
	return cmd
}
