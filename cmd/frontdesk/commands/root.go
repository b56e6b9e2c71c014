// ABOUTME: Root command and global flags for the frontdesk CLI
// ABOUTME: Registers every subcommand; verbose and quiet are mutually exclusive
package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	verbose      bool
	quiet        bool
	outputFormat string
)

const banner = `
███████╗██████╗  ██████╗ ███╗   ██╗████████╗██████╗ ███████╗███████╗██╗  ██╗
██╔════╝██╔══██╗██╔═══██╗████╗  ██║╚══██╔══╝██╔══██╗██╔════╝██╔════╝██║ ██╔╝
█████╗  ██████╔╝██║   ██║██╔██╗ ██║   ██║   ██║  ██║█████╗  ███████╗█████╔╝
██╔══╝  ██╔══██╗██║   ██║██║╚██╗██║   ██║   ██║  ██║██╔══╝  ╚════██║██╔═██╗
██║     ██║  ██║╚██████╔╝██║ ╚████║   ██║   ██████╔╝███████╗███████║██║  ██╗
╚═╝     ╚═╝  ╚═╝ ╚═════╝ ╚═╝  ╚═══╝   ╚═╝   ╚═════╝ ╚══════╝╚══════╝╚═╝  ╚═╝`

// NewRootCmd creates the root command with all subcommands attached
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "frontdesk",
		Short: "Privacy-first front desk agent for a hearing and balance clinic",
		Long: banner + `

Answers hours, location, service and insurance questions over web chat,
SMS and voice. Clinical content and emergencies are handed to staff with
a redacted escalation ticket; nothing unredacted is stored or sent.

Configuration comes from the environment (and a .env file when present).
An optional YAML clinic profile (CLINIC_PROFILE_FILE) seeds policies and
lists knowledge sources.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			switch outputFormat {
			case "auto", "table", "json":
				return nil
			default:
				return fmt.Errorf("--format must be auto, table or json, got %q", outputFormat)
			}
		},
	}

	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output (debug logging)")
	cmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Only print results and errors")
	cmd.PersistentFlags().StringVar(&outputFormat, "format", "auto", "Output format: auto, table or json")
	cmd.MarkFlagsMutuallyExclusive("verbose", "quiet")

	cmd.AddCommand(
		NewServeCmd(),
		NewAskCmd(),
		NewPolicyCmd(),
		NewKBCmd(),
		NewRetentionCmd(),
		NewDigestCmd(),
		NewExportCmd(),
		NewMCPCmd(),
		NewVersionCmd(),
	)

	return cmd
}

// Execute runs the root command
func Execute() error {
	return NewRootCmd().Execute()
}
