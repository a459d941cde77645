package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"
)

var outputFormats = []string{"table", "json", "yaml"}

// getOutputFormat returns the effective output format from the root command's persistent flags.
func getOutputFormat(cmd *cobra.Command) string {
	v, _ := cmd.Root().PersistentFlags().GetString("output")
	return v
}

func validateOutputFormat(output string) error {
	for _, f := range outputFormats {
		if output == f {
			return nil
		}
	}
	return fmt.Errorf("unsupported output format %q: use one of %s", output, strings.Join(outputFormats, ", "))
}

// defaultOutputFormat is table on an interactive terminal and json otherwise.
func defaultOutputFormat(w io.Writer) string {
	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return "table"
	}
	return "json"
}

// PrintJSON writes v as indented JSON.
func PrintJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// PrintYAML writes v as YAML.
func PrintYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

// PrintTable writes rows under an upper-cased header, aligned in columns.
func PrintTable(w io.Writer, columns []string, rows [][]string) {
	tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)
	header := make([]string, len(columns))
	for i, c := range columns {
		header[i] = strings.ToUpper(c)
	}
	_, _ = fmt.Fprintln(tw, strings.Join(header, "\t"))
	for _, r := range rows {
		_, _ = fmt.Fprintln(tw, strings.Join(r, "\t"))
	}
	_ = tw.Flush()
}

// render writes v in the command's output format. table renders columns and
// rows, quiet prints only the first column.
func render(cmd *cobra.Command, v any, columns []string, rows [][]string) error {
	w := cmd.OutOrStdout()
	switch getOutputFormat(cmd) {
	case "json":
		return PrintJSON(w, v)
	case "yaml":
		return PrintYAML(w, v)
	}
	if quiet, _ := cmd.Root().PersistentFlags().GetBool("quiet"); quiet {
		for _, r := range rows {
			if len(r) > 0 {
				_, _ = fmt.Fprintln(w, r[0])
			}
		}
		return nil
	}
	PrintTable(w, columns, rows)
	return nil
}
