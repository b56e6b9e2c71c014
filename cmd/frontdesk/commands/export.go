// ABOUTME: CLI command to export policies, knowledge and open tickets
// ABOUTME: Writes YAML by default, Markdown when the output ends in .md or --markdown is set
package commands

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var exportMarkdown bool

// NewExportCmd creates the export command
func NewExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export [path]",
		Short: "Export a configuration snapshot",
		Long: `Export a configuration snapshot.

Writes active policies, knowledge chunks and open escalation tickets.
Ticket excerpts are already redacted at rest and are not exported.

Examples:
  frontdesk export
  frontdesk export snapshot.yaml
  frontdesk export --markdown report.md`,
		Args: cobra.MaximumNArgs(1),
		RunE: runExport,
	}

	cmd.Flags().BoolVar(&exportMarkdown, "markdown", false, "Write Markdown instead of YAML")

	return cmd
}

func runExport(cmd *cobra.Command, args []string) error {
	path := fmt.Sprintf("frontdesk-export-%s.yaml", time.Now().Format("20060102-150405"))
	if len(args) == 1 {
		path = args[0]
	}
	markdown := exportMarkdown || strings.EqualFold(filepath.Ext(path), ".md")
	if markdown && !strings.EqualFold(filepath.Ext(path), ".md") && len(args) == 0 {
		path = strings.TrimSuffix(path, ".yaml") + ".md"
	}

	return withApp(cmd, func(a *app) error {
		var err error
		if markdown {
			err = a.store.ExportToMarkdown(cmd.Context(), path)
		} else {
			err = a.store.ExportToYAML(cmd.Context(), path)
		}
		if err != nil {
			return fmt.Errorf("exporting: %w", err)
		}
		if !quiet {
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Exported to %s\n", path)
		}
		return nil
	})
}
