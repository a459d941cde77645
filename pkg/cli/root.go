// Package cli implements the acct command-line interface over the account
// store.
package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"account-query/internal/config"
	"account-query/internal/domain"
)

var (
	version = "dev"
	commit  = "none"
)

// Execute runs the CLI.
func Execute() int {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		output, _ := rootCmd.PersistentFlags().GetString("output")
		if output == "json" {
			_ = PrintJSON(os.Stdout, map[string]any{
				"error": err.Error(),
				"kind":  errorKind(err),
			})
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		return 1
	}
	return 0
}

// errorKind classifies err for machine-readable output.
func errorKind(err error) string {
	var (
		nf *domain.NotFoundError
		ce *domain.ConflictError
	)
	switch {
	case domain.IsCallerInput(err):
		return "invalid_input"
	case errors.As(err, &nf):
		return "not_found"
	case errors.As(err, &ce):
		return "conflict"
	default:
		return "internal"
	}
}

func newRootCmd() *cobra.Command {
	var (
		dbURL    string
		readURL  string
		output   string
		logLevel string
		profile  string
		quiet    bool
	)
	a := &app{}

	rootCmd := &cobra.Command{
		Use:           "acct",
		Short:         "Account store CLI",
		Long:          "Command-line interface for querying and maintaining users and resource quotas.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := config.LoadDotEnv(".env"); err != nil {
				return err
			}
			cfg, err := config.LoadFromEnv()
			if err != nil {
				return err
			}

			// Config file is optional.
			uc, err := LoadUserConfig()
			if err != nil {
				uc = &UserConfig{CurrentProfile: "default", Profiles: map[string]Profile{}}
			}
			p, err := uc.ActiveProfile(profile)
			if err != nil {
				return err
			}

			// Apply precedence: flag > env > profile > default
			if cmd.Flags().Changed("db") {
				cfg.Connection = dbURL
			} else if os.Getenv("DATABASE_CONNECTION") == "" && p.Database != "" {
				cfg.Connection = p.Database
			}
			if cmd.Flags().Changed("read-db") {
				cfg.ReadConnection = readURL
			} else if os.Getenv("DATABASE_READ_CONNECTION") == "" && p.ReadDatabase != "" {
				cfg.ReadConnection = p.ReadDatabase
			}
			if cmd.Flags().Changed("log-level") {
				cfg.LogLevel = logLevel
			} else if os.Getenv("LOG_LEVEL") == "" && p.LogLevel != "" {
				cfg.LogLevel = p.LogLevel
			}
			if !cmd.Flags().Changed("output") {
				switch {
				case os.Getenv("ACCT_OUTPUT") != "":
					output = os.Getenv("ACCT_OUTPUT")
				case p.Output != "":
					output = p.Output
				default:
					output = defaultOutputFormat(cmd.OutOrStdout())
				}
			}
			if err := validateOutputFormat(output); err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			a.cfg = cfg
			a.logger = newLogger(cmd.ErrOrStderr(), cfg)
			for _, w := range cfg.Warnings {
				a.logger.Debug("config warning", "warning", w)
			}
			return nil
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			a.close()
		},
	}

	rootCmd.PersistentFlags().StringVar(&dbURL, "db", "", "Database connection URL (default $DATABASE_CONNECTION or "+config.DefaultConnection+")")
	rootCmd.PersistentFlags().StringVar(&readURL, "read-db", "", "Read replica connection URL")
	rootCmd.PersistentFlags().StringVarP(&output, "output", "o", "", "Output format (table, json, yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVarP(&profile, "profile", "p", "", "Config profile to use")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Only output identifiers")

	rootCmd.AddCommand(newUsersCmd(a))
	rootCmd.AddCommand(newResourcesCmd(a))
	rootCmd.AddCommand(newMigrateCmd(a))
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newCompletionCmd())

	return rootCmd
}

func newCompletionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(out)
			case "zsh":
				return cmd.Root().GenZshCompletion(out)
			case "fish":
				return cmd.Root().GenFishCompletion(out, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(out)
			default:
				return fmt.Errorf("unsupported shell: %s", args[0])
			}
		},
	}
	return cmd
}
