package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/pageza/profiles/backend/config"
	"github.com/pageza/profiles/backend/internal/database"
	"github.com/pageza/profiles/backend/internal/logctx"
)

type rootFlags struct {
	databaseURL string
	dir         string
}

func newRootCmd() *cobra.Command {
	var flags rootFlags

	root := &cobra.Command{
		Use:          "migrate",
		Short:        "Apply and roll back SQL schema migrations",
		SilenceUsage: true,
	}
	pf := root.PersistentFlags()
	pf.StringVar(&flags.databaseURL, "database-url", os.Getenv("DATABASE_URL"), "Postgres connection URL (default $DATABASE_URL)")
	pf.StringVar(&flags.dir, "dir", "migrations", "Directory holding NNNN_name.up.sql / .down.sql files")

	root.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withMigrator(cmd.Context(), flags, func(ctx context.Context, m *database.Migrator) error {
					n, err := m.Up(ctx)
					if err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "applied %d migration(s)\n", n)
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back the most recently applied migration",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withMigrator(cmd.Context(), flags, func(ctx context.Context, m *database.Migrator) error {
					mig, err := m.Down(ctx)
					if errors.Is(err, database.ErrNoMigrations) {
						fmt.Fprintln(cmd.OutOrStdout(), "nothing to roll back")
						return nil
					}
					if err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "rolled back %04d_%s\n", mig.Version, mig.Name)
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "status",
			Short: "List migrations and whether they are applied",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withMigrator(cmd.Context(), flags, func(ctx context.Context, m *database.Migrator) error {
					statuses, err := m.Status(ctx)
					if err != nil {
						return err
					}
					return printStatus(cmd, statuses)
				})
			},
		},
	)
	return root
}

func withMigrator(ctx context.Context, flags rootFlags, fn func(context.Context, *database.Migrator) error) error {
	if flags.databaseURL == "" {
		return errors.New("--database-url or DATABASE_URL is required")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	log := logctx.New(config.GetEnvironment(), os.Stderr)

	db, err := database.OpenSQL(ctx, flags.databaseURL)
	if err != nil {
		return err
	}
	defer func(db *sql.DB) {
		if err := db.Close(); err != nil {
			log.Warn("close database", slog.Any("error", err))
		}
	}(db)

	m, err := database.NewMigrator(ctx, db, database.DialectPostgres, flags.dir, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := m.Close(); err != nil {
			log.Warn("close migrator", slog.Any("error", err))
		}
	}()

	return fn(ctx, m)
}

func printStatus(cmd *cobra.Command, statuses []database.MigrationStatus) error {
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "VERSION\tNAME\tSTATE")
	for _, s := range statuses {
		fmt.Fprintf(tw, "%04d\t%s\t%s\n", s.Version, s.Name, statusLabel(s))
	}
	return tw.Flush()
}

func statusLabel(s database.MigrationStatus) string {
	switch {
	case s.Dirty:
		return "dirty"
	case s.Applied:
		return "applied"
	default:
		return "pending"
	}
}
