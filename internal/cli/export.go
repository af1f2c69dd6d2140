package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"smarttodo/internal/models"
)

func newExportCmd(a *app) *cobra.Command {
	var format, output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write all tasks as YAML or JSON",
		Args:  cobra.NoArgs,
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			if output == "" || output == "-" {
				return exportTasks(cmd.OutOrStdout(), a.manager.List(), format)
			}

			f, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("failed to create %s: %w", output, err)
			}
			return closeExport(f, output, exportTasks(f, a.manager.List(), format))
		}),
	}

	cmd.Flags().StringVar(&format, "format", "yaml", "yaml or json")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	return cmd
}

// closeExport closes the export target and reports the close error unless
// writing already failed.
func closeExport(c io.Closer, name string, writeErr error) error {
	if err := c.Close(); err != nil && writeErr == nil {
		return fmt.Errorf("failed to close %s: %w", name, err)
	}
	return writeErr
}

func exportTasks(w io.Writer, list []models.Task, format string) error {
	switch format {
	case "yaml", "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(map[string][]models.Task{"tasks": list}); err != nil {
			return fmt.Errorf("failed to encode yaml: %w", err)
		}
		return enc.Close()
	case "json":
		rows := make([]models.Row, len(list))
		for i, t := range list {
			rows[i] = t.ToRow()
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(rows); err != nil {
			return fmt.Errorf("failed to encode json: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("unknown format %q, want yaml or json", format)
	}
}
