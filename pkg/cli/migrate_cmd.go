package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"account-query/internal/db"
	"account-query/internal/query"
)

func newMigrateCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		Long: "Apply pending schema migrations to a SQLite database. Other engines are " +
			"expected to be migrated by the service that owns them.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.open(); err != nil {
				return err
			}
			if a.store.Dialect() != query.DialectSQLite {
				return fmt.Errorf("migrations are only managed for sqlite, not %s", a.store.Dialect())
			}
			if err := db.RunMigrations(a.store.Writer()); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			return migrationStatus(cmd, a)
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show the current schema version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.open(); err != nil {
				return err
			}
			if a.store.Dialect() != query.DialectSQLite {
				return fmt.Errorf("migrations are only managed for sqlite, not %s", a.store.Dialect())
			}
			return migrationStatus(cmd, a)
		},
	})

	return cmd
}

func migrationStatus(cmd *cobra.Command, a *app) error {
	v, err := db.MigrationVersion(a.store.Writer())
	if err != nil {
		return err
	}
	return render(cmd, map[string]int64{"version": v}, []string{"version"},
		[][]string{{strconv.FormatInt(v, 10)}})
}
