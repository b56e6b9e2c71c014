// ABOUTME: End-to-end tests that drive the CLI against a temporary database
// ABOUTME: Covers knowledge import and approval, policies, ask, retention, digest and export

package commands

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// setupEnv points the CLI at a temp database and a profile with two sources
func setupEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	services := "We test hearing for adults and children.\n\nWe fit and repair hearing aids and treat balance disorders."
	insurance := "We accept Medicare and most commercial plans. Call the office to verify coverage."
	if err := os.MkdirAll(filepath.Join(dir, "kb"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "kb", "services.txt"), []byte(services), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "kb", "insurance.txt"), []byte(insurance), 0o644); err != nil {
		t.Fatal(err)
	}

	profile := `name: Test Hearing Clinic
policies:
  phone: "(555) 010-0000"
sources:
  - url: https://clinic.example/services
    title: Services
    file: kb/services.txt
  - url: https://clinic.example/insurance
    title: Insurance
    file: kb/insurance.txt
`
	profilePath := filepath.Join(dir, "clinic.yaml")
	if err := os.WriteFile(profilePath, []byte(profile), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("DB_PATH", filepath.Join(dir, "data", "frontdesk.db"))
	t.Setenv("CLINIC_PROFILE_FILE", profilePath)
	t.Setenv("CLINIC_NAME", "")
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("SMTP_HOST", "")
	t.Setenv("SLACK_BOT_TOKEN", "")
	t.Setenv("REDIS_URL", "")
	t.Setenv("MANUAL_POLICY_APPROVAL", "true")
	t.Setenv("LOG_LEVEL", "error")
	return dir
}

// run executes the CLI with args and returns stdout
func run(t *testing.T, args ...string) string {
	t.Helper()
	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	if err := cmd.Execute(); err != nil {
		t.Fatalf("frontdesk %s: %v\n%s", strings.Join(args, " "), err, out.String())
	}
	return out.String()
}

func TestCLI_KnowledgeImportAndApproval(t *testing.T) {
	setupEnv(t)

	var res struct {
		Sources  int `json:"sources"`
		Upserted int `json:"upserted_chunks"`
		Pending  int `json:"pending_chunks"`
	}
	if err := json.Unmarshal([]byte(run(t, "--format", "json", "kb", "import")), &res); err != nil {
		t.Fatalf("decode import result: %v", err)
	}
	if res.Sources != 2 {
		t.Errorf("sources = %d, want 2", res.Sources)
	}
	if res.Pending == 0 || res.Pending >= res.Upserted {
		t.Errorf("pending = %d of %d, want only the insurance chunks pending", res.Pending, res.Upserted)
	}

	var pending []struct {
		ChunkID string `json:"chunk_id"`
		Tag     string `json:"tag"`
	}
	if err := json.Unmarshal([]byte(run(t, "--format", "json", "kb", "list", "--pending")), &pending); err != nil {
		t.Fatalf("decode pending: %v", err)
	}
	if len(pending) != res.Pending {
		t.Fatalf("listed %d pending, want %d", len(pending), res.Pending)
	}
	for _, c := range pending {
		if c.Tag != "policy" {
			t.Errorf("pending chunk tag = %q, want policy", c.Tag)
		}
	}

	args := []string{"--format", "json", "kb", "approve"}
	for _, c := range pending {
		args = append(args, c.ChunkID)
	}
	var approved map[string]int
	if err := json.Unmarshal([]byte(run(t, args...)), &approved); err != nil {
		t.Fatalf("decode approve: %v", err)
	}
	if approved["updated"] != len(pending) {
		t.Errorf("updated = %d, want %d", approved["updated"], len(pending))
	}

	out := run(t, "kb", "list", "--pending")
	if !strings.Contains(out, "No knowledge chunks found") {
		t.Errorf("expected no pending chunks after approval, got:\n%s", out)
	}
}

func TestCLI_PolicySetAndList(t *testing.T) {
	setupEnv(t)

	var policies []struct {
		Key   string `json:"policy_key"`
		Value string `json:"policy_value"`
	}
	if err := json.Unmarshal([]byte(run(t, "--format", "json", "policy", "list")), &policies); err != nil {
		t.Fatalf("decode policies: %v", err)
	}
	values := map[string]string{}
	for _, p := range policies {
		values[p.Key] = p.Value
	}
	if values["phone"] != "(555) 010-0000" {
		t.Errorf("phone = %q, want profile value", values["phone"])
	}

	run(t, "policy", "set", "phone", "(555)", "010-9999", "--by", "ops")

	out := run(t, "policy", "history", "phone")
	if !strings.Contains(out, "retired") || !strings.Contains(out, "(555) 010-9999") {
		t.Errorf("history should show retired and new values, got:\n%s", out)
	}
}

func TestCLI_Ask(t *testing.T) {
	setupEnv(t)
	run(t, "policy", "set", "business_hours", "Monday-Friday 9:00 AM-4:00 PM ET.")

	var reply struct {
		SessionID    string   `json:"session_id"`
		Intent       string   `json:"intent"`
		ResponseText string   `json:"response_text"`
		Escalated    bool     `json:"escalated"`
		TicketID     string   `json:"ticket_id"`
		Trace        []string `json:"trace"`
	}
	out := run(t, "--format", "json", "ask", "--trace", "What", "are", "your", "hours?")
	if err := json.Unmarshal([]byte(out), &reply); err != nil {
		t.Fatalf("decode reply: %v\n%s", err, out)
	}
	if reply.SessionID == "" {
		t.Error("a session should be created")
	}
	if !strings.Contains(reply.ResponseText, "Monday-Friday 9:00 AM-4:00 PM ET.") {
		t.Errorf("response = %q, want the hours policy", reply.ResponseText)
	}
	if len(reply.Trace) == 0 {
		t.Error("--trace should include the state trace")
	}

	out = run(t, "--format", "json", "ask", "--session", reply.SessionID, "I", "have", "chest", "pain")
	reply.TicketID = ""
	reply.Escalated = false
	if err := json.Unmarshal([]byte(out), &reply); err != nil {
		t.Fatalf("decode reply: %v\n%s", err, out)
	}
	if !reply.Escalated || reply.TicketID == "" {
		t.Errorf("chest pain should escalate with a ticket, got %+v", reply)
	}
	if !strings.Contains(reply.ResponseText, "911") {
		t.Errorf("emergency response should mention 911, got %q", reply.ResponseText)
	}

	digest := run(t, "digest")
	if !strings.Contains(digest, "Test Hearing Clinic") {
		t.Errorf("digest should name the clinic from the profile, got:\n%s", digest)
	}
}

func TestCLI_AskRejectsUnknownChannel(t *testing.T) {
	setupEnv(t)

	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"ask", "--channel", "fax", "hello"})
	if err := cmd.Execute(); err == nil {
		t.Error("expected an error for an unknown channel")
	}
}

func TestCLI_RetentionDryRun(t *testing.T) {
	setupEnv(t)
	run(t, "ask", "What", "services", "do", "you", "offer?")

	var report struct {
		DryRun          bool  `json:"dry_run"`
		DeletedMessages int64 `json:"deleted_messages"`
	}
	if err := json.Unmarshal([]byte(run(t, "--format", "json", "retention")), &report); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	if !report.DryRun {
		t.Error("retention should default to a dry run")
	}
	if report.DeletedMessages != 0 {
		t.Errorf("dry run deleted %d messages", report.DeletedMessages)
	}

	out := run(t, "retention", "--apply", "--by", "ops")
	if !strings.Contains(out, "Deleted 0 message(s)") {
		t.Errorf("fresh messages are inside the window, got:\n%s", out)
	}
}

func TestCLI_Export(t *testing.T) {
	dir := setupEnv(t)
	run(t, "kb", "import")

	yamlPath := filepath.Join(dir, "snapshot.yaml")
	run(t, "export", yamlPath)
	b, err := os.ReadFile(yamlPath)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	if !strings.Contains(string(b), "phone") {
		t.Errorf("YAML export should include policies, got:\n%s", b)
	}

	mdPath := filepath.Join(dir, "report.md")
	run(t, "export", mdPath)
	b, err = os.ReadFile(mdPath)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	if !strings.HasPrefix(strings.TrimSpace(string(b)), "#") {
		t.Errorf("Markdown export should start with a heading, got:\n%s", b)
	}
}
