// ABOUTME: CLI command to ask the front desk a question
// ABOUTME: Runs one message through the same conversation path the HTTP API uses
package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/harper/frontdesk/internal/core"
	"github.com/harper/frontdesk/internal/models"
)

var (
	askSession string
	askChannel string
	askConsent bool
	askTrace   bool
)

// NewAskCmd creates ask command
func NewAskCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ask <message>",
		Short: "Ask the front desk a question",
		Long: `Ask the front desk a question.

Runs the message through the privacy screen and the decision pipeline,
storing the conversation like any other channel. A new session is
created unless --session is given.

Examples:
  frontdesk ask "What are your hours?"
  frontdesk ask --channel sms "Do you take Medicare?"
  frontdesk ask --session 3f2a... --consent "Book me an appointment, 864-555-0100"
  frontdesk ask --format json --trace "I have chest pain"`,
		Args: cobra.MinimumNArgs(1),
		RunE: runAsk,
	}

	cmd.Flags().StringVar(&askSession, "session", "", "Continue an existing session")
	cmd.Flags().StringVar(&askChannel, "channel", "web", "Channel: web, sms or voice")
	cmd.Flags().BoolVar(&askConsent, "consent", false, "Caller consents to be contacted")
	cmd.Flags().BoolVar(&askTrace, "trace", false, "Print the pipeline state trace")

	return cmd
}

func runAsk(cmd *cobra.Command, args []string) error {
	channel, err := models.ParseChannel(askChannel)
	if err != nil {
		return err
	}
	message := strings.Join(args, " ")

	return withApp(cmd, func(a *app) error {
		ctx := cmd.Context()

		sessionID := askSession
		if sessionID == "" {
			sess := &models.Session{Channel: channel, ConsentToContact: askConsent}
			if err := a.store.Sessions.Create(ctx, sess); err != nil {
				return fmt.Errorf("creating session: %w", err)
			}
			sessionID = sess.ID
		}

		in := core.Inbound{SessionID: sessionID, Channel: channel, Text: message}
		if cmd.Flags().Changed("consent") {
			in.Consent = &askConsent
		}
		reply, err := a.conv.Handle(ctx, in)
		if err != nil {
			return fmt.Errorf("handling message: %w", err)
		}

		if jsonOutput() {
			out := struct {
				*core.Reply
				Trace []string `json:"trace,omitempty"`
			}{Reply: reply}
			if askTrace {
				out.Trace = reply.TraceNames()
			}
			return printJSON(cmd.OutOrStdout(), out)
		}

		w := cmd.OutOrStdout()
		fmt.Fprintln(w, reply.ResponseText)
		if quiet {
			return nil
		}
		fmt.Fprintf(w, "\nintent=%s confidence=%.2f escalated=%t session=%s\n",
			reply.Intent, reply.Confidence, reply.Escalated, reply.SessionID)
		if reply.TicketID != "" {
			fmt.Fprintf(w, "ticket=%s reason=%s\n", reply.TicketID, reply.EscalationReason)
		}
		for _, ref := range reply.References {
			fmt.Fprintf(w, "  - %s (%s)\n", ref.Title, ref.SourceURL)
		}
		if askTrace && len(reply.Trace) > 0 {
			fmt.Fprintf(w, "trace: %s\n", strings.Join(reply.TraceNames(), " -> "))
		}
		return nil
	})
}
