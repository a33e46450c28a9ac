// Command migrate applies or reverts the postgres schema migrations outside
// of the server process.
package main

import (
	"fmt"
	"os"
	"strings"

	"urldash/internal/config"
	"urldash/internal/repository"

	"github.com/spf13/cobra"
)

type migrator struct {
	up      func(databaseURL, sourcePath string) error
	down    func(databaseURL, sourcePath string, steps int) error
	version func(databaseURL string) (uint, bool, error)
}

var defaultMigrator = migrator{
	up:      repository.RunMigrations,
	down:    repository.RollbackMigrations,
	version: repository.MigrationVersion,
}

func main() {
	if err := newRootCmd(defaultMigrator).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd(m migrator) *cobra.Command {
	var databaseURL, sourcePath string

	resolveURL := func() (string, error) {
		if databaseURL == "" {
			cfg, err := config.LoadConfig()
			if err != nil {
				return "", fmt.Errorf("failed to load config: %w", err)
			}
			databaseURL = cfg.DatabaseURL
		}
		if !strings.HasPrefix(databaseURL, "postgres") {
			return "", fmt.Errorf("migrations only apply to postgres, got %q", databaseURL)
		}
		return databaseURL, nil
	}

	root := &cobra.Command{
		Use:           "migrate",
		Short:         "Manage the urldash database schema",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&databaseURL, "database-url", "", "postgres connection URL (defaults to DATABASE_URL)")
	root.PersistentFlags().StringVar(&sourcePath, "source", "", "migration source URL, e.g. file://migrations (defaults to the embedded files)")

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			url, err := resolveURL()
			if err != nil {
				return err
			}
			if err := m.up(url, sourcePath); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Migrations applied")
			return nil
		},
	}

	var steps int
	downCmd := &cobra.Command{
		Use:   "down",
		Short: "Revert applied migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			url, err := resolveURL()
			if err != nil {
				return err
			}
			if err := m.down(url, sourcePath, steps); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Reverted %d migration(s)\n", steps)
			return nil
		},
	}
	downCmd.Flags().IntVar(&steps, "steps", 1, "number of migrations to revert")

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the current schema version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			url, err := resolveURL()
			if err != nil {
				return err
			}
			v, dirty, err := m.version(url)
			if err != nil {
				return err
			}
			if dirty {
				fmt.Fprintf(cmd.OutOrStdout(), "%d (dirty)\n", v)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "%d\n", v)
			}
			return nil
		},
	}

	root.AddCommand(upCmd, downCmd, versionCmd)
	return root
}
