// ABOUTME: HTTP surface of the front-desk agent built on chi
// ABOUTME: Chat, Twilio SMS/voice webhooks, escalations, admin operations, health and metrics
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/harper/frontdesk/internal/config"
	"github.com/harper/frontdesk/internal/core"
	"github.com/harper/frontdesk/internal/escalation"
	"github.com/harper/frontdesk/internal/kb"
	"github.com/harper/frontdesk/internal/models"
	"github.com/harper/frontdesk/internal/retention"
	"github.com/harper/frontdesk/internal/storage/sqlite"
)

const maxBodyBytes = 1 << 20

// Conversations handles inbound messages
type Conversations interface {
	Handle(ctx context.Context, in core.Inbound) (*core.Reply, error)
}

// Sessions creates and looks up conversation sessions
type Sessions interface {
	Create(ctx context.Context, sess *models.Session) error
	GetOrCreateByPhone(ctx context.Context, phoneHash string, channel models.Channel) (*models.Session, error)
}

// Policies reads and writes the policy ledger
type Policies interface {
	ActivePolicies(ctx context.Context) (map[string]string, error)
	Set(ctx context.Context, key, value, updatedBy string) (*models.Policy, error)
}

// Tickets creates escalation tickets
type Tickets interface {
	CreateTicket(ctx context.Context, req escalation.TicketRequest) (*models.EscalationTicket, error)
}

// AuditRecorder writes audit entries
type AuditRecorder interface {
	Record(ctx context.Context, actor, action string, payload map[string]any) error
}

// KnowledgeBase imports and approves knowledge chunks
type KnowledgeBase interface {
	Import(ctx context.Context, docs []kb.Document, actor string) (*kb.ImportResult, error)
	Approve(ctx context.Context, chunkIDs []string, approved bool, actor string) (int, error)
}

// RetentionRunner applies the retention windows
type RetentionRunner interface {
	Run(ctx context.Context, actor string, dryRun bool) (*retention.Report, error)
}

// MetricsSource reports operational counters
type MetricsSource interface {
	Metrics(ctx context.Context) (sqlite.Metrics, error)
}

// Deps are the collaborators of the HTTP handlers
type Deps struct {
	Config        *config.Config
	Conversations Conversations
	Sessions      Sessions
	Policies      Policies
	Tickets       Tickets
	Audit         AuditRecorder
	KB            KnowledgeBase
	// Documents reads the configured knowledge sources for a reindex. Nil disables reindexing.
	Documents func() ([]kb.Document, error)
	Retention RetentionRunner
	Metrics   MetricsSource
	Hours     core.OpenChecker
	Now       func() time.Time
	Logger    *slog.Logger
}

// Handler serves every route
type Handler struct {
	Deps
	logger *slog.Logger
}

// NewHandler creates a Handler
func NewHandler(deps Deps) *Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Config == nil {
		deps.Config = &config.Config{}
	}
	return &Handler{Deps: deps, logger: logger}
}

// Router builds the chi router with the global middleware stack
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(RequestContext(h.logger))
	r.Use(middleware.Recoverer)
	h.RegisterRoutes(r)
	return r
}

// RegisterRoutes mounts every /v1 route
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/v1", func(r chi.Router) {
		r.Get("/health", h.Health)
		r.Get("/metrics", h.GetMetrics)

		r.Post("/chat/session", h.CreateSession)
		r.Post("/chat/message", h.PostMessage)
		r.Post("/escalations", h.CreateEscalation)

		r.Post("/sms/webhook/twilio", h.SMSWebhook)
		r.Post("/voice/webhook/twilio", h.VoiceWebhook)

		r.Route("/admin", func(r chi.Router) {
			r.Use(AdminKey(h.Config.AdminAPIKey))
			r.Get("/policies", h.ListPolicies)
			r.Post("/policy", h.UpsertPolicy)
			r.Post("/kb/reindex", h.ReindexKB)
			r.Post("/kb/approve", h.ApproveKB)
			r.Post("/privacy/retention-run", h.RunRetention)
		})
	})
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}

// decodeJSON reads a bounded JSON body into v. An empty body leaves v at its defaults.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		Error(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

// internalError logs the cause and hides it from the caller
func (h *Handler) internalError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	h.logger.Error(msg, "error", err, "request_id", middleware.GetReqID(r.Context()))
	Error(w, http.StatusInternalServerError, "internal error")
}
