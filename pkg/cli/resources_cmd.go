package cli

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"account-query/internal/domain"
)

var resourceColumns = []string{"resource", "name", "total_quota", "used_quota", "unit"}

func resourceRow(r domain.Resource) []string {
	return []string{r.Resource, r.Name, r.TotalQuota.String(), r.UsedQuota.String(), r.Unit}
}

func resourceRows(items []domain.Resource) [][]string {
	rows := make([][]string, len(items))
	for i, r := range items {
		rows[i] = resourceRow(r)
	}
	return rows
}

func parseQuota(flag, v string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(v))
	if err != nil {
		return decimal.Decimal{}, domain.ErrValidation("invalid --%s %q: not a number", flag, v)
	}
	return d, nil
}

// parseAssignments parses field=value pairs. With lists set, a value holding
// commas becomes a list of values.
func parseAssignments(flag string, raw []string, lists bool) (map[string]any, error) {
	out := make(map[string]any, len(raw))
	for _, r := range raw {
		k, v, ok := strings.Cut(r, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid --%s %q: expected field=value", flag, r)
		}
		if lists && strings.Contains(v, ",") {
			out[k] = strings.Split(v, ",")
			continue
		}
		out[k] = v
	}
	return out, nil
}

func newResourcesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "resources",
		Aliases: []string{"resource"},
		Short:   "Query and maintain resource quotas",
	}

	cmd.AddCommand(newResourcesListCmd(a))
	cmd.AddCommand(newResourcesGetCmd(a))
	cmd.AddCommand(newResourcesCreateCmd(a))
	cmd.AddCommand(newResourcesUpdateCmd(a))
	cmd.AddCommand(newResourcesFindCmd(a))
	cmd.AddCommand(newResourcesSearchCmd(a))

	return cmd
}

func newResourcesListCmd(a *app) *cobra.Command {
	var flags hintFlags

	cmd := &cobra.Command{
		Use:     "list",
		Short:   "List resources ordered by code",
		Example: `  acct resources list --filter name:contains=gpu --filter unit=card`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			hints, err := flags.hints(cmd.Flags())
			if err != nil {
				return err
			}
			if err := a.open(); err != nil {
				return err
			}
			items, err := a.resources.List(cmd.Context(), hints)
			if err != nil {
				return err
			}
			if err := render(cmd, items, resourceColumns, resourceRows(items)); err != nil {
				return err
			}
			if hints.Limit != nil && hints.Limit.Truncated && getOutputFormat(cmd) == "table" {
				_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "more than %d resources match; raise --limit to see them\n", hints.Limit.Limit)
			}
			return nil
		},
	}

	flags.register(cmd.Flags(), false)
	return cmd
}

func newResourcesGetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "get <resource>",
		Short: "Show one resource",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.open(); err != nil {
				return err
			}
			r, err := a.resources.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return render(cmd, r, resourceColumns, [][]string{resourceRow(*r)})
		},
	}
}

func newResourcesCreateCmd(a *app) *cobra.Command {
	var (
		r           domain.Resource
		total, used string
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a resource",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			if r.TotalQuota, err = parseQuota("total", total); err != nil {
				return err
			}
			if r.UsedQuota, err = parseQuota("used", used); err != nil {
				return err
			}
			if err := a.open(); err != nil {
				return err
			}
			created, err := a.resources.Create(cmd.Context(), &r)
			if err != nil {
				return err
			}
			a.logger.Info("resource created", "resource", created.Resource)
			return render(cmd, created, resourceColumns, [][]string{resourceRow(*created)})
		},
	}

	cmd.Flags().StringVar(&r.Resource, "resource", "", "Resource code, e.g. GPU (required)")
	cmd.Flags().StringVar(&r.Name, "name", "", "Display name (default: the code)")
	cmd.Flags().StringVar(&r.Description, "description", "", "Description")
	cmd.Flags().StringVar(&total, "total", "0", "Total quota")
	cmd.Flags().StringVar(&used, "used", "0", "Used quota")
	cmd.Flags().StringVar(&r.Unit, "unit", "default", "Quota unit")
	_ = cmd.MarkFlagRequired("resource")

	return cmd
}

func newResourcesUpdateCmd(a *app) *cobra.Command {
	var (
		name, description, unit string
		total, used             string
	)

	cmd := &cobra.Command{
		Use:   "update <resource>",
		Short: "Update a resource's name, description, quotas or unit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var patch domain.ResourcePatch
			if cmd.Flags().Changed("name") {
				patch.Name = &name
			}
			if cmd.Flags().Changed("description") {
				patch.Description = &description
			}
			if cmd.Flags().Changed("unit") {
				patch.Unit = &unit
			}
			if cmd.Flags().Changed("total") {
				d, err := parseQuota("total", total)
				if err != nil {
					return err
				}
				patch.TotalQuota = &d
			}
			if cmd.Flags().Changed("used") {
				d, err := parseQuota("used", used)
				if err != nil {
					return err
				}
				patch.UsedQuota = &d
			}
			if patch == (domain.ResourcePatch{}) {
				return domain.ErrValidation("nothing to update")
			}

			if err := a.open(); err != nil {
				return err
			}
			updated, err := a.resources.Update(cmd.Context(), args[0], patch)
			if err != nil {
				return err
			}
			return render(cmd, updated, resourceColumns, [][]string{resourceRow(*updated)})
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Display name")
	cmd.Flags().StringVar(&description, "description", "", "Description")
	cmd.Flags().StringVar(&unit, "unit", "", "Quota unit")
	cmd.Flags().StringVar(&total, "total", "", "Total quota")
	cmd.Flags().StringVar(&used, "used", "", "Used quota")

	return cmd
}

func newResourcesFindCmd(a *app) *cobra.Command {
	var include, exclude []string

	cmd := &cobra.Command{
		Use:     "find",
		Short:   "Find resources by code",
		Example: `  acct resources find --include GPU,CPU,USERS --exclude USERS`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.open(); err != nil {
				return err
			}
			items, err := a.resources.Find(cmd.Context(), include, exclude)
			if err != nil {
				return err
			}
			return render(cmd, items, resourceColumns, resourceRows(items))
		},
	}

	cmd.Flags().StringSliceVar(&include, "include", nil, "Resource codes to return")
	cmd.Flags().StringSliceVar(&exclude, "exclude", nil, "Resource codes to leave out")
	_ = cmd.MarkFlagRequired("include")

	return cmd
}

func newResourcesSearchCmd(a *app) *cobra.Command {
	var match, pattern []string

	cmd := &cobra.Command{
		Use:   "search",
		Short: "Search resources by exact values and patterns",
		Long: "Search resources by exact values and patterns. Patterns are regular expressions " +
			"on PostgreSQL, MySQL and SQLite and substring matches elsewhere.",
		Example: `  acct resources search --match unit=card,core --pattern name=^gpu`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			exact, err := parseAssignments("match", match, true)
			if err != nil {
				return err
			}
			raw, err := parseAssignments("pattern", pattern, false)
			if err != nil {
				return err
			}
			patterns := make(map[string]string, len(raw))
			for k, v := range raw {
				patterns[k] = v.(string)
			}

			if err := a.open(); err != nil {
				return err
			}
			items, err := a.resources.Match(cmd.Context(), exact, patterns)
			if err != nil {
				return err
			}
			return render(cmd, items, resourceColumns, resourceRows(items))
		},
	}

	cmd.Flags().StringArrayVar(&match, "match", nil, "Exact match as field=value[,value...] (repeatable)")
	cmd.Flags().StringArrayVar(&pattern, "pattern", nil, "Pattern match as field=pattern (repeatable)")

	return cmd
}
