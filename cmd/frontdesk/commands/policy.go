// ABOUTME: CLI commands for the policy ledger
// ABOUTME: set closes the active row and opens a new one; list and history are read-only
package commands

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/harper/frontdesk/internal/models"
)

var policyUpdatedBy string

// NewPolicyCmd creates the policy command group
func NewPolicyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "policy",
		Short: "Manage clinic policies",
		Long: `Manage clinic policies.

Policies are versioned: setting a key closes the current value and opens
a new one, so answers always reflect the latest value without a restart.

Examples:
  frontdesk policy list
  frontdesk policy set phone "(864) 555-0199" --by ops
  frontdesk policy history business_hours`,
	}

	set := &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a policy value",
		Args:  cobra.MinimumNArgs(2),
		RunE:  runPolicySet,
	}
	set.Flags().StringVar(&policyUpdatedBy, "by", "admin", "Who made the change (audit log)")

	cmd.AddCommand(
		set,
		&cobra.Command{
			Use:   "list",
			Short: "List active policy values",
			Args:  cobra.NoArgs,
			RunE:  runPolicyList,
		},
		&cobra.Command{
			Use:   "history <key>",
			Short: "Show every version of a policy",
			Args:  cobra.ExactArgs(1),
			RunE:  runPolicyHistory,
		},
	)

	return cmd
}

func runPolicySet(cmd *cobra.Command, args []string) error {
	key := strings.TrimSpace(args[0])
	value := strings.Join(args[1:], " ")
	if len(key) < 2 {
		return fmt.Errorf("policy key must be at least 2 characters")
	}

	return withApp(cmd, func(a *app) error {
		ctx := cmd.Context()
		p, err := a.store.Policies.Set(ctx, key, value, policyUpdatedBy)
		if err != nil {
			return fmt.Errorf("setting policy: %w", err)
		}
		if err := a.store.Audit.Record(ctx, policyUpdatedBy, "policy_update", map[string]any{
			"key":   key,
			"value": value,
		}); err != nil {
			return fmt.Errorf("recording audit entry: %w", err)
		}

		if jsonOutput() {
			return printJSON(cmd.OutOrStdout(), p)
		}
		if !quiet {
			fmt.Fprintf(cmd.OutOrStdout(), "✓ %s updated\n", key)
		}
		return nil
	})
}

func runPolicyList(cmd *cobra.Command, args []string) error {
	return withApp(cmd, func(a *app) error {
		policies, err := a.store.Policies.ListActive(cmd.Context())
		if err != nil {
			return fmt.Errorf("listing policies: %w", err)
		}
		return printPolicies(cmd, policies)
	})
}

func runPolicyHistory(cmd *cobra.Command, args []string) error {
	return withApp(cmd, func(a *app) error {
		policies, err := a.store.Policies.History(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("loading history: %w", err)
		}
		return printPolicies(cmd, policies)
	})
}

func printPolicies(cmd *cobra.Command, policies []models.Policy) error {
	if jsonOutput() {
		return printJSON(cmd.OutOrStdout(), policies)
	}
	if len(policies) == 0 {
		if !quiet {
			fmt.Fprintln(cmd.OutOrStdout(), "No policies found")
		}
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "KEY\tVALUE\tSTATUS\tFROM\tBY\n")
	fmt.Fprintf(w, "---\t-----\t------\t----\t--\n")
	for _, p := range policies {
		status := "active"
		if !p.Active() {
			status = "retired"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			p.Key, truncate(p.Value, 60), status, formatTime(p.EffectiveFrom), p.UpdatedBy)
	}
	return w.Flush()
}
