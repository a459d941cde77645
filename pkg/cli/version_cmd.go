package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the CLI version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			switch getOutputFormat(cmd) {
			case "json", "yaml":
				return render(cmd, map[string]string{"version": version, "commit": commit}, nil, nil)
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "acct version %s (commit: %s)\n", version, commit)
			return nil
		},
	}
}
