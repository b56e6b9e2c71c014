// ABOUTME: CLI command for the daily digest of escalations and leads
// ABOUTME: Prints by default; --send emails it through the configured SMTP relay
package commands

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/harper/frontdesk/internal/escalation"
)

var digestSend bool

// NewDigestCmd creates the digest command
func NewDigestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "digest",
		Short: "Summarize the last 24 hours",
		Long: `Summarize the last 24 hours.

Counts open escalations and new lead captures and lists up to 20 tickets.

Examples:
  frontdesk digest
  frontdesk digest --send`,
		Args: cobra.NoArgs,
		RunE: runDigest,
	}

	cmd.Flags().BoolVar(&digestSend, "send", false, "Email the digest (requires SMTP_HOST)")

	return cmd
}

func runDigest(cmd *cobra.Command, args []string) error {
	return withApp(cmd, func(a *app) error {
		d, err := escalation.BuildDigest(cmd.Context(), a.store, a.cfg.ClinicName, time.Now())
		if err != nil {
			return err
		}

		if digestSend {
			if a.email == nil {
				return errors.New("--send requires SMTP_HOST")
			}
			if err := a.email.Send(cmd.Context(), d.Subject, d.Body); err != nil {
				return fmt.Errorf("sending digest: %w", err)
			}
			if !quiet {
				fmt.Fprintf(cmd.OutOrStdout(), "✓ Digest sent to %s\n", a.cfg.EscalationEmailTo)
			}
			return nil
		}

		if jsonOutput() {
			return printJSON(cmd.OutOrStdout(), d)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s\n\n%s\n", d.Subject, d.Body)
		return nil
	})
}
