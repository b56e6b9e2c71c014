// ABOUTME: CLI command to apply the data retention windows
// ABOUTME: Dry run by default; --apply deletes and writes an audit entry
package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	retentionApply bool
	retentionActor string
)

// NewRetentionCmd creates the retention command
func NewRetentionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "retention",
		Short: "Purge old messages and closed escalations",
		Long: `Purge old messages and closed escalations.

Messages older than RETENTION_DAYS_MESSAGES and resolved or closed tickets
older than RETENTION_DAYS_ESCALATIONS are counted, and deleted with --apply.
Open tickets are never removed.

Examples:
  frontdesk retention
  frontdesk retention --apply --by ops`,
		Args: cobra.NoArgs,
		RunE: runRetention,
	}

	cmd.Flags().BoolVar(&retentionApply, "apply", false, "Delete instead of counting")
	cmd.Flags().StringVar(&retentionActor, "by", "admin", "Who ran the cleanup (audit log)")

	return cmd
}

func runRetention(cmd *cobra.Command, args []string) error {
	return withApp(cmd, func(a *app) error {
		report, err := a.retention.Run(cmd.Context(), retentionActor, !retentionApply)
		if err != nil {
			return fmt.Errorf("running retention: %w", err)
		}
		if jsonOutput() {
			return printJSON(cmd.OutOrStdout(), report)
		}

		w := cmd.OutOrStdout()
		if report.DryRun {
			fmt.Fprintf(w, "Dry run: %d message(s) before %s and %d escalation(s) before %s would be deleted\n",
				report.MessagesToDelete, report.MessageCutoff.Format("2006-01-02"),
				report.EscalationsToDelete, report.EscalationCutoff.Format("2006-01-02"))
			return nil
		}
		fmt.Fprintf(w, "✓ Deleted %d message(s) and %d escalation(s)\n",
			report.DeletedMessages, report.DeletedEscalations)
		return nil
	})
}
