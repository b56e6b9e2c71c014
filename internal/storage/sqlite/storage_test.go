// ABOUTME: Tests for the unified Storage handle
// ABOUTME: Covers sessions, leads, audit entries, metrics and export
package sqlite

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/harper/frontdesk/internal/models"
	"gopkg.in/yaml.v3"
)

func TestSessionGetOrCreateByPhone(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	hash := models.HashPhone("+15551234567")
	first, err := store.Sessions.GetOrCreateByPhone(ctx, hash, models.ChannelSMS)
	if err != nil {
		t.Fatalf("GetOrCreateByPhone() error = %v", err)
	}
	second, err := store.Sessions.GetOrCreateByPhone(ctx, hash, models.ChannelSMS)
	if err != nil {
		t.Fatalf("GetOrCreateByPhone() error = %v", err)
	}
	if first.ID != second.ID {
		t.Errorf("same phone should reuse session: %s != %s", first.ID, second.ID)
	}
	if !second.ConsentToContact {
		t.Error("SMS sessions imply consent to contact")
	}

	if _, err := store.Sessions.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(missing) error = %v, want ErrNotFound", err)
	}
}

func TestSessionSetConsent(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	sess := &models.Session{Channel: models.ChannelWeb}
	if err := store.Sessions.Create(ctx, sess); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if err := store.Sessions.SetConsent(ctx, sess.ID, true); err != nil {
		t.Fatalf("SetConsent() error = %v", err)
	}
	got, err := store.Sessions.Get(ctx, sess.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !got.ConsentToContact {
		t.Error("consent should be recorded")
	}
	if err := store.Sessions.SetConsent(ctx, "missing", true); !errors.Is(err, ErrNotFound) {
		t.Errorf("SetConsent(missing) error = %v, want ErrNotFound", err)
	}
}

func TestLeadsAndAudit(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	lead := &models.LeadCapture{SessionID: "s1", Phone: "555-123-4567", Reason: "book a fitting", Consent: true}
	if err := store.Leads.Save(ctx, lead); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if lead.ID == 0 || lead.Status != "new" {
		t.Errorf("lead = %+v, want id and status new", lead)
	}

	leads, err := store.Leads.ListSince(ctx, time.Now().Add(-time.Hour))
	if err != nil {
		t.Fatalf("ListSince() error = %v", err)
	}
	if len(leads) != 1 || leads[0].Phone != "555-123-4567" {
		t.Errorf("leads = %+v", leads)
	}

	if err := store.Audit.Record(ctx, "admin", "policy_upsert", map[string]any{"policy_key": "phone"}); err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	entries, err := store.Audit.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(entries) != 1 || entries[0].Action != "policy_upsert" || entries[0].Payload["policy_key"] != "phone" {
		t.Errorf("entries = %+v", entries)
	}
}

func TestMetrics(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	sess := &models.Session{}
	_ = store.Sessions.Create(ctx, sess)
	turn, _ := models.NewUserTurn(sess.ID, models.ChannelWeb, "hi")
	_ = store.Turns.Append(ctx, turn)
	_ = store.Tickets.Create(ctx, &models.EscalationTicket{SessionID: sess.ID, Channel: models.ChannelWeb, Reason: "r"})
	_ = store.Leads.Save(ctx, &models.LeadCapture{SessionID: sess.ID, Consent: true})

	m, err := store.Metrics(ctx)
	if err != nil {
		t.Fatalf("Metrics() error = %v", err)
	}
	want := Metrics{SessionsTotal: 1, MessagesTotal: 1, EscalationsOpen: 1, LeadCapturesTotal: 1}
	if m != want {
		t.Errorf("Metrics() = %+v, want %+v", m, want)
	}
}

func TestExportStorage(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	if _, err := store.Policies.SeedDefaults(ctx, models.DefaultPolicies); err != nil {
		t.Fatalf("SeedDefaults() error = %v", err)
	}
	_ = store.Chunks.Upsert(ctx, &models.KnowledgeChunk{ChunkID: "c1", SourceURL: "https://x/services",
		Title: "Services", Content: "hearing tests", Tag: models.TagServices, Approved: true, Version: "v1"})
	_ = store.Tickets.Create(ctx, &models.EscalationTicket{SessionID: "s", Channel: models.ChannelSMS, Reason: "low_confidence"})

	data, err := store.Export(ctx)
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if data.Tool != "frontdesk" {
		t.Errorf("Tool = %v, want frontdesk", data.Tool)
	}
	if len(data.Policies) != len(models.DefaultPolicies) {
		t.Errorf("len(Policies) = %d, want %d", len(data.Policies), len(models.DefaultPolicies))
	}
	if len(data.Chunks) != 1 || len(data.Tickets) != 1 {
		t.Errorf("chunks=%d tickets=%d, want 1 and 1", len(data.Chunks), len(data.Tickets))
	}

	dir := t.TempDir()
	yamlPath := filepath.Join(dir, "out", "export.yaml")
	if err := store.ExportToYAML(ctx, yamlPath); err != nil {
		t.Fatalf("ExportToYAML() error = %v", err)
	}
	raw, err := os.ReadFile(yamlPath)
	if err != nil {
		t.Fatalf("read yaml: %v", err)
	}
	var decoded ExportData
	if err := yaml.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("yaml.Unmarshal() error = %v", err)
	}
	if len(decoded.Policies) != len(data.Policies) {
		t.Errorf("decoded policies = %d, want %d", len(decoded.Policies), len(data.Policies))
	}

	mdPath := filepath.Join(dir, "export.md")
	if err := store.ExportToMarkdown(ctx, mdPath); err != nil {
		t.Fatalf("ExportToMarkdown() error = %v", err)
	}
	md, _ := os.ReadFile(mdPath)
	for _, want := range []string{"## Policies", "## Knowledge", "## Open Escalations", "business_hours"} {
		if !strings.Contains(string(md), want) {
			t.Errorf("markdown missing %q", want)
		}
	}
}
