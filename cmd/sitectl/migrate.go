package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/northbeam/leadsite/internal/migrate"
	"github.com/northbeam/leadsite/migrations"
)

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back schema migrations",
	}

	up := &cobra.Command{
		Use:   "up",
		Short: "Apply every pending migration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withMigrator(cmd, func(m *migrate.Migrator) error {
				if err := m.Up(cmd.Context()); err != nil {
					return err
				}
				return printVersion(cmd, m)
			})
		},
	}

	var steps int
	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back the most recent migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withMigrator(cmd, func(m *migrate.Migrator) error {
				if err := m.Down(cmd.Context(), steps); err != nil {
					return err
				}
				return printVersion(cmd, m)
			})
		},
	}
	down.Flags().IntVar(&steps, "steps", 1, "number of migrations to roll back")

	version := &cobra.Command{
		Use:   "version",
		Short: "Print the current schema version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withMigrator(cmd, func(m *migrate.Migrator) error {
				return printVersion(cmd, m)
			})
		},
	}

	force := &cobra.Command{
		Use:   "force <version>",
		Short: "Mark a version as applied and clear the dirty flag",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid version %q", args[0])
			}
			return withMigrator(cmd, func(m *migrate.Migrator) error {
				if err := m.Force(v); err != nil {
					return err
				}
				return printVersion(cmd, m)
			})
		},
	}

	cmd.AddCommand(up, down, version, force)
	return cmd
}

func printVersion(cmd *cobra.Command, m *migrate.Migrator) error {
	v, dirty, err := m.Version()
	if err != nil {
		return err
	}
	if dirty {
		cmd.Printf("schema version %d (dirty)\n", v)
		return nil
	}
	cmd.Printf("schema version %d\n", v)
	return nil
}

func withMigrator(cmd *cobra.Command, fn func(*migrate.Migrator) error) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}

	db, err := migrate.Open(cmd.Context(), cfg.DatabaseURL)
	if err != nil {
		return err
	}

	m, err := migrate.New(db, migrations.FS, logger)
	if err != nil {
		_ = db.Close()
		return err
	}
	defer m.Close()

	return fn(m)
}
