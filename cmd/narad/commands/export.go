// ABOUTME: CLI command to export the indexed collection
// ABOUTME: Writes chunks, metadata and optionally vectors as YAML or JSON
package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var (
	exportOutput  string
	exportFormat  string
	exportVectors bool
)

// NewExportCmd creates the export command
func NewExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the indexed collection",
		Long: `Export the indexed collection to YAML or JSON.

Writes the collection description and every chunk with its source metadata.
Vectors are large and left out unless --vectors is set. Without --output the
export goes to stdout.`,
		Example: `  narad export
  narad export -o backup/gbu_docs.yaml
  narad export -f json --vectors -o gbu_docs.json`,
		Args: cobra.NoArgs,
		RunE: runExport,
	}

	cmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Output file (default: stdout)")
	cmd.Flags().StringVarP(&exportFormat, "format", "f", "yaml", "Export format (yaml, json)")
	cmd.Flags().BoolVar(&exportVectors, "vectors", false, "Include embedding vectors")

	return cmd
}

func runExport(cmd *cobra.Command, args []string) error {
	format := strings.ToLower(exportFormat)
	if format != "yaml" && format != "yml" && format != "json" {
		return fmt.Errorf("unsupported export format: %s", exportFormat)
	}

	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	if exportOutput == "" {
		return a.index.WriteExport(cmd.Context(), cmd.OutOrStdout(), format, exportVectors)
	}

	if err := a.index.ExportToFile(cmd.Context(), exportOutput, format, exportVectors); err != nil {
		return err
	}
	if !quiet {
		fmt.Fprintf(cmd.ErrOrStderr(), "Exported %s to %s\n", a.index.Name(), exportOutput)
	}
	return nil
}
