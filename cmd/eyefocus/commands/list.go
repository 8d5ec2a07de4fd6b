package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/bryanchriswhite/EyeFocus/internal/registry"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List watchable elements",
	Long: `List the watchable elements the configured backend currently reports,
in the order the tracker receives them.`,
	Example: `  # List elements in table format (default)
  eyefocus list

  # List elements in JSON format (the eye-elements payload)
  eyefocus list --format json`,
	RunE: runList,
}

var listFormat string

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().StringVarP(&listFormat, "format", "f", "table", "output format (table or json)")
}

func runList(cmd *cobra.Command, args []string) error {
	configMgr, err := loadConfig()
	if err != nil {
		return err
	}

	backend, err := openBackend(configMgr.Get(), io.Discard)
	if err != nil {
		return fmt.Errorf("failed to open backend: %w", err)
	}
	defer backend.close()

	ws, err := registry.New(backend.source).Rebuild()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	switch listFormat {
	case "json":
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(ws.Payload())
	case "table":
		return printElementsTable(out, ws)
	default:
		return fmt.Errorf("unsupported format: %s (use 'table' or 'json')", listFormat)
	}
}

func printElementsTable(out io.Writer, ws *registry.WatchSet) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	defer w.Flush()

	fmt.Fprintln(w, "INDEX\tKEY\tX\tY\tWIDTH\tHEIGHT")
	fmt.Fprintln(w, "-----\t---\t-\t-\t-----\t------")

	for i, el := range ws.Elements {
		b := ws.Bounds[i]
		fmt.Fprintf(w, "%d\t%s\t%g\t%g\t%g\t%g\n", i, el.Key(), b.X, b.Y, b.Width, b.Height)
	}

	return nil
}
