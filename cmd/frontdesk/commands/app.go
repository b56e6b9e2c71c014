// ABOUTME: Builds the service graph shared by every command from configuration
// ABOUTME: Storage, policy seeding, LLM or heuristic capabilities, retrieval, notifiers and the pipeline
package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"

	"github.com/harper/frontdesk/internal/config"
	"github.com/harper/frontdesk/internal/core"
	"github.com/harper/frontdesk/internal/escalation"
	"github.com/harper/frontdesk/internal/kb"
	"github.com/harper/frontdesk/internal/llm"
	"github.com/harper/frontdesk/internal/models"
	"github.com/harper/frontdesk/internal/policy"
	"github.com/harper/frontdesk/internal/privacy"
	"github.com/harper/frontdesk/internal/retention"
	"github.com/harper/frontdesk/internal/retrieval"
	"github.com/harper/frontdesk/internal/storage/sqlite"
)

// app is the wired service graph
type app struct {
	cfg       *config.Config
	profile   *config.Profile
	logger    *slog.Logger
	store     *sqlite.Storage
	client    *llm.OpenAIClient
	engine    *retrieval.Engine
	email     *escalation.EmailNotifier
	sink      *escalation.Sink
	orch      *core.Orchestrator
	conv      *core.Conversation
	importer  *kb.Importer
	retention *retention.Service
	hours     policy.Hours
	closers   []io.Closer
}

// loadConfig reads .env when present, then the environment
func loadConfig() (*config.Config, error) {
	if err := godotenv.Load(); err != nil && verbose {
		fmt.Fprintf(os.Stderr, "No .env file found (this is okay for production): %v\n", err)
	}
	return config.Load()
}

// newLogger picks the level from flags first, then LOG_LEVEL
func newLogger(w io.Writer, cfg *config.Config, json bool) *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(cfg.LogLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	if verbose {
		level = slog.LevelDebug
	}
	if quiet {
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}
	if json {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// newApp wires every component. The caller must Close it.
func newApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*app, error) {
	a := &app{cfg: cfg, logger: logger, hours: policy.DefaultHours(cfg.Location())}

	profile, err := config.LoadProfile(cfg.ClinicProfilePath)
	if err != nil {
		return nil, err
	}
	a.profile = profile
	if profile.Name != "" && os.Getenv("CLINIC_NAME") == "" {
		cfg.ClinicName = profile.Name
	}

	if dir := filepath.Dir(cfg.DBPath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create data directory: %w", err)
		}
	}
	store, err := sqlite.NewStorage(cfg.DBPath)
	if err != nil {
		return nil, err
	}
	a.store = store
	a.closers = append(a.closers, store)

	seeded, err := store.Policies.SeedDefaults(ctx, profile.SeedPolicies(models.DefaultPolicies))
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("seed policies: %w", err)
	}
	if seeded > 0 {
		logger.Info("seeded default policies", "count", seeded)
	}

	client, err := llm.NewOpenAIClientWithConfig(llm.ConfigFrom(cfg))
	switch {
	case errors.Is(err, llm.ErrNoClient):
		logger.Warn("OPENAI_API_KEY not set; using heuristic classifier and template replies")
	case err != nil:
		a.Close()
		return nil, err
	default:
		a.client = client
	}

	a.engine = retrieval.NewEngine(store.Chunks, a.vectorIndex(ctx), logger)

	notifier, err := a.notifiers()
	if err != nil {
		a.Close()
		return nil, err
	}
	a.sink = escalation.NewSink(store.Tickets, notifier, escalation.MessageOptions{
		IncludeExcerpt:  cfg.EscalationIncludeExcerpt,
		ExcerptMaxChars: cfg.EscalationExcerptMaxChars,
	}, logger)

	var (
		classifier llm.IntentClassifier
		drafter    llm.ResponseDrafter
	)
	if a.client != nil {
		classifier = llm.NewClassifier(a.client, logger)
		drafter = llm.NewDrafter(a.client, logger)
	} else {
		classifier = llm.NewClassifier(nil, logger)
		drafter = llm.NewDrafter(nil, logger)
	}

	a.orch = core.NewOrchestrator(core.Deps{
		Policies:   store.Policies,
		Retriever:  a.engine,
		Classifier: classifier,
		Drafter:    drafter,
		Tickets:    a.sink,
		Hours:      a.hours,
		Threshold:  cfg.ConfidenceThreshold,
		TopK:       cfg.RetrievalTopK,
		Logger:     logger,
	})
	a.conv = core.NewConversation(core.ConversationDeps{
		Sessions: store.Sessions,
		Turns:    store.Turns,
		Leads:    store.Leads,
		Screener: privacy.NewScreener(privacy.Options{
			NonPHIMode:        cfg.NonPHIMode(),
			Redact:            cfg.RedactStoredMessages,
			HandoffMessage:    cfg.HandoffMessage,
			HandoffMessageSMS: cfg.HandoffMessageSMS,
		}),
		Pipeline: a.orch,
		Tickets:  a.sink,
		Policies: store.Policies,
		Logger:   logger,
	})

	opts := kb.Options{ManualPolicyApproval: cfg.ManualPolicyApproval, Logger: logger}
	if a.client != nil {
		opts.Embedder = a.client
		opts.Index = a.engine.Vector()
	}
	a.importer = kb.NewImporter(store.Chunks, store.Audit, opts)
	a.retention = retention.NewService(store.Turns, store.Tickets, store.Audit,
		cfg.RetentionDaysMessages, cfg.RetentionDaysEscalations, logger)

	return a, nil
}

// vectorIndex loads stored embeddings of approved chunks. Nil means lexical only.
func (a *app) vectorIndex(ctx context.Context) *retrieval.VectorIndex {
	if a.client == nil || !a.cfg.VectorSearchEnabled {
		return nil
	}
	index, err := retrieval.NewVectorIndex(a.client)
	if err != nil {
		a.logger.Warn("vector index unavailable", "error", err)
		return nil
	}
	chunks, err := a.store.Chunks.ListApproved(ctx)
	if err != nil {
		a.logger.Warn("loading chunks for vector index failed", "error", err)
		return index
	}
	n, err := index.Load(ctx, chunks)
	if err != nil {
		a.logger.Warn("vector index load incomplete", "error", err)
	}
	a.logger.Debug("vector index loaded", "chunks", n)
	return index
}

// notifiers builds the escalation fan-out from whatever channels are configured
func (a *app) notifiers() (escalation.Notifier, error) {
	var multi escalation.Multi

	a.email = escalation.NewEmailNotifier(escalation.EmailConfig{
		Host:     a.cfg.SMTPHost,
		Port:     a.cfg.SMTPPort,
		Username: a.cfg.SMTPUsername,
		Password: a.cfg.SMTPPassword,
		From:     a.cfg.EscalationEmailFrom,
		To:       a.cfg.EscalationEmailTo,
	})
	if a.email != nil {
		multi = append(multi, a.email)
	}
	if slack := escalation.NewSlackNotifier(a.cfg.SlackToken, a.cfg.SlackChannel); slack != nil {
		multi = append(multi, slack)
	}
	if a.cfg.RedisURL != "" {
		rn, err := escalation.NewRedisNotifier(a.cfg.RedisURL, a.cfg.RedisChannel)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, rn)
		multi = append(multi, rn)
	}

	if len(multi) == 0 {
		a.logger.Debug("no escalation notifiers configured")
		return nil, nil
	}
	return multi, nil
}

// documents reads the knowledge sources listed in the clinic profile
func (a *app) documents() ([]kb.Document, error) {
	if len(a.profile.Sources) == 0 {
		return nil, errors.New("clinic profile lists no knowledge sources (set CLINIC_PROFILE_FILE)")
	}
	return kb.ReadDocuments(a.profile.Sources, filepath.Dir(a.cfg.ClinicProfilePath))
}

// Close releases resources in reverse order of acquisition
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			a.logger.Warn("close failed", "error", err)
		}
	}
	a.closers = nil
}
