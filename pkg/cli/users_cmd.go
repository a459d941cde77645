package cli

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"account-query/internal/db"
	"account-query/internal/domain"
)

var userColumns = []string{"uuid", "username", "email", "state", "created_at"}

func userRow(u domain.User) []string {
	return []string{u.UUID, u.Username, u.Email, u.State, u.CreatedAt.Format(time.RFC3339)}
}

func userRows(users []domain.User) [][]string {
	rows := make([][]string, len(users))
	for i, u := range users {
		rows[i] = userRow(u)
	}
	return rows
}

func parseReadDeleted(s string) (db.ReadDeleted, error) {
	switch rd := db.ReadDeleted(s); rd {
	case db.ReadDeletedNo, db.ReadDeletedOnly, db.ReadDeletedYes:
		return rd, nil
	}
	return "", domain.ErrValidation("invalid --read-deleted %q: use no, only or yes", s)
}

func newUsersCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "users",
		Aliases: []string{"user"},
		Short:   "Query and maintain user accounts",
	}

	cmd.AddCommand(newUsersListCmd(a))
	cmd.AddCommand(newUsersCountCmd(a))
	cmd.AddCommand(newUsersGetCmd(a))
	cmd.AddCommand(newUsersCreateCmd(a))
	cmd.AddCommand(newUsersDeleteCmd(a))
	cmd.AddCommand(newUsersSetStateCmd(a))

	return cmd
}

func newUsersListCmd(a *app) *cobra.Command {
	var (
		flags       hintFlags
		readDeleted string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List users one page at a time",
		Example: `  acct users list --filter username:startswith=al --sort username:desc --limit 20
  acct users list --filter state=locked --read-deleted yes
  acct users list --marker <next_marker from the previous page>`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rd, err := parseReadDeleted(readDeleted)
			if err != nil {
				return err
			}
			hints, err := flags.hints(cmd.Flags())
			if err != nil {
				return err
			}
			if err := a.open(); err != nil {
				return err
			}

			page, err := a.users.Page(cmd.Context(), hints, rd)
			if err != nil {
				return err
			}
			if err := render(cmd, page, userColumns, userRows(page.Items)); err != nil {
				return err
			}
			if page.NextMarker != "" && getOutputFormat(cmd) == "table" {
				_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "%d of %d shown; next page: --marker %s\n",
					len(page.Items), page.Total, page.NextMarker)
			}
			return nil
		},
	}

	flags.register(cmd.Flags(), true)
	cmd.Flags().StringVar(&readDeleted, "read-deleted", string(db.ReadDeletedNo), "Soft-deleted users: no, only or yes")

	return cmd
}

func newUsersCountCmd(a *app) *cobra.Command {
	var (
		flags       hintFlags
		readDeleted string
	)

	cmd := &cobra.Command{
		Use:   "count",
		Short: "Count users matching the filters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rd, err := parseReadDeleted(readDeleted)
			if err != nil {
				return err
			}
			hints, err := flags.hints(cmd.Flags())
			if err != nil {
				return err
			}
			if err := a.open(); err != nil {
				return err
			}

			n, err := a.users.Count(cmd.Context(), hints, rd)
			if err != nil {
				return err
			}
			return render(cmd, map[string]int64{"count": n}, []string{"count"},
				[][]string{{strconv.FormatInt(n, 10)}})
		},
	}

	flags.register(cmd.Flags(), false)
	cmd.Flags().StringVar(&readDeleted, "read-deleted", string(db.ReadDeletedNo), "Soft-deleted users: no, only or yes")

	return cmd
}

func newUsersGetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "get <uuid>",
		Short: "Show one user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.open(); err != nil {
				return err
			}
			u, err := a.users.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return render(cmd, u, userColumns, [][]string{userRow(*u)})
		},
	}
}

func newUsersCreateCmd(a *app) *cobra.Command {
	var (
		u      domain.User
		roleID int64
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().Changed("role-id") {
				u.RoleID = &roleID
			}
			if err := a.open(); err != nil {
				return err
			}
			created, err := a.users.Create(cmd.Context(), &u)
			if err != nil {
				return err
			}
			a.logger.Info("user created", "uuid", created.UUID, "username", created.Username)
			return render(cmd, created, userColumns, [][]string{userRow(*created)})
		},
	}

	cmd.Flags().StringVar(&u.Username, "username", "", "Login name (required)")
	cmd.Flags().StringVar(&u.Email, "email", "", "Email address")
	cmd.Flags().StringVar(&u.Cellphone, "cellphone", "", "Mobile number")
	cmd.Flags().StringVar(&u.State, "state", domain.UserStateActive, "Initial account state")
	cmd.Flags().Int64Var(&u.LoginChance, "login-chance", 5, "Failed logins allowed before locking")
	cmd.Flags().Int64Var(&roleID, "role-id", 0, "Role id")
	_ = cmd.MarkFlagRequired("username")

	return cmd
}

func newUsersDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <uuid>",
		Short: "Soft-delete a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.open(); err != nil {
				return err
			}
			if err := a.users.SoftDelete(cmd.Context(), args[0]); err != nil {
				return err
			}
			a.logger.Info("user deleted", "uuid", args[0])
			return render(cmd, map[string]string{"status": "deleted", "uuid": args[0]},
				[]string{"uuid", "status"}, [][]string{{args[0], "deleted"}})
		},
	}
}

func newUsersSetStateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "set-state <uuid> <state>",
		Short: "Change a user's account state",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.open(); err != nil {
				return err
			}
			if err := a.users.SetState(cmd.Context(), args[0], args[1]); err != nil {
				return err
			}
			return render(cmd, map[string]string{"uuid": args[0], "state": args[1]},
				[]string{"uuid", "state"}, [][]string{{args[0], args[1]}})
		},
	}
}
