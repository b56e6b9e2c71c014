// ABOUTME: Serve command runs the HTTP API with graceful shutdown
// ABOUTME: Optionally emails the daily digest on a fixed interval while serving
package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/harper/frontdesk/internal/api"
	"github.com/harper/frontdesk/internal/escalation"
)

var (
	serveAddr        string
	serveDigestEvery time.Duration
)

// NewServeCmd creates the serve command
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Run the HTTP API.

Serves web chat, the Twilio SMS and voice webhooks, escalations, admin
endpoints (X-Admin-Key) and health/metrics under /v1.

Examples:
  frontdesk serve
  frontdesk serve --addr :9090
  frontdesk serve --digest-every 24h`,
		RunE: runServe,
	}

	cmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default :$PORT)")
	cmd.Flags().DurationVar(&serveDigestEvery, "digest-every", 0, "Email the digest on this interval (0 disables)")

	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	logger := newLogger(os.Stdout, cfg, true)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("initializing: %w", err)
	}
	defer a.Close()

	handler := api.NewHandler(api.Deps{
		Config:        cfg,
		Conversations: a.conv,
		Sessions:      a.store.Sessions,
		Policies:      a.store.Policies,
		Tickets:       a.sink,
		Audit:         a.store.Audit,
		KB:            a.importer,
		Documents:     a.documents,
		Retention:     a.retention,
		Metrics:       a.store,
		Hours:         a.hours,
		Logger:        logger,
	})

	addr := serveAddr
	if addr == "" {
		addr = ":" + cfg.Port
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	if serveDigestEvery > 0 {
		go digestLoop(ctx, a, serveDigestEvery)
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("http server listening", "addr", addr, "env", cfg.AppEnv, "compliance_mode", cfg.ComplianceMode)
		serverErr <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		logger.Info("shutdown complete")
	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
	}
	return nil
}

// digestLoop emails the digest until ctx is done. Failures are logged.
func digestLoop(ctx context.Context, a *app, every time.Duration) {
	if a.email == nil {
		a.logger.Warn("digest interval set but SMTP is not configured; digest disabled")
		return
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			d, err := escalation.BuildDigest(ctx, a.store, a.cfg.ClinicName, now)
			if err != nil {
				a.logger.Error("build digest failed", "error", err)
				continue
			}
			if err := a.email.Notify(ctx, d.Message()); err != nil {
				a.logger.Error("send digest failed", "error", err)
				continue
			}
			a.logger.Info("digest sent", "escalations", d.Escalations, "leads", d.Leads)
		}
	}
}
