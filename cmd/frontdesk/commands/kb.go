// ABOUTME: CLI commands for the knowledge base
// ABOUTME: Import from the clinic profile's local files, approve pending chunks, list chunks
package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/harper/frontdesk/internal/models"
)

var (
	kbActor   string
	kbReject  bool
	kbPending bool
)

// NewKBCmd creates the kb command group
func NewKBCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "kb",
		Short: "Manage the knowledge base",
		Long: `Manage the knowledge base.

Knowledge comes from local text files listed under "sources" in the
clinic profile. Policy-tagged chunks (contact and insurance pages) wait
for approval when MANUAL_POLICY_APPROVAL is on.

Examples:
  frontdesk kb import
  frontdesk kb list --pending
  frontdesk kb approve 9f2c... 41ab...
  frontdesk kb approve --reject 9f2c...`,
	}
	cmd.PersistentFlags().StringVar(&kbActor, "by", "admin", "Who made the change (audit log)")

	approve := &cobra.Command{
		Use:   "approve <chunk-id>...",
		Short: "Approve (or reject) chunks",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runKBApprove,
	}
	approve.Flags().BoolVar(&kbReject, "reject", false, "Withdraw approval instead")

	list := &cobra.Command{
		Use:   "list",
		Short: "List knowledge chunks",
		Args:  cobra.NoArgs,
		RunE:  runKBList,
	}
	list.Flags().BoolVar(&kbPending, "pending", false, "Only chunks awaiting approval")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "import",
			Short: "Import the profile's knowledge sources",
			Args:  cobra.NoArgs,
			RunE:  runKBImport,
		},
		approve,
		list,
	)

	return cmd
}

func runKBImport(cmd *cobra.Command, args []string) error {
	return withApp(cmd, func(a *app) error {
		docs, err := a.documents()
		if err != nil {
			return err
		}
		res, err := a.importer.Import(cmd.Context(), docs, kbActor)
		if err != nil {
			return fmt.Errorf("importing: %w", err)
		}
		if jsonOutput() {
			return printJSON(cmd.OutOrStdout(), res)
		}
		if !quiet {
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Imported %d source(s): %d chunk(s), %d pending approval, %d embedded (version %s)\n",
				res.Sources, res.Upserted, res.Pending, res.Embedded, res.Version)
		}
		return nil
	})
}

func runKBApprove(cmd *cobra.Command, args []string) error {
	return withApp(cmd, func(a *app) error {
		n, err := a.importer.Approve(cmd.Context(), args, !kbReject, kbActor)
		if err != nil {
			return fmt.Errorf("approving: %w", err)
		}
		if jsonOutput() {
			return printJSON(cmd.OutOrStdout(), map[string]int{"updated": n})
		}
		if !quiet {
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Updated %d chunk(s)\n", n)
		}
		return nil
	})
}

func runKBList(cmd *cobra.Command, args []string) error {
	return withApp(cmd, func(a *app) error {
		var (
			chunks []models.KnowledgeChunk
			err    error
		)
		if kbPending {
			chunks, err = a.store.Chunks.ListPending(cmd.Context())
		} else {
			chunks, err = a.store.Chunks.ListAll(cmd.Context())
		}
		if err != nil {
			return fmt.Errorf("listing chunks: %w", err)
		}

		if jsonOutput() {
			return printJSON(cmd.OutOrStdout(), chunks)
		}
		if len(chunks) == 0 {
			if !quiet {
				fmt.Fprintln(cmd.OutOrStdout(), "No knowledge chunks found")
			}
			return nil
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintf(w, "CHUNK ID\tTAG\tAPPROVED\tTITLE\tPREVIEW\n")
		fmt.Fprintf(w, "--------\t---\t--------\t-----\t-------\n")
		for _, c := range chunks {
			fmt.Fprintf(w, "%s\t%s\t%t\t%s\t%s\n",
				truncate(c.ChunkID, 16), c.Tag, c.Approved, truncate(c.Title, 20), truncate(c.Content, 50))
		}
		return w.Flush()
	})
}
