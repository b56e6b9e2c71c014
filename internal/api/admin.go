// ABOUTME: Admin endpoints guarded by X-Admin-Key
// ABOUTME: Policy upserts, knowledge base reindex and approval, retention runs
package api

import (
	"net/http"
	"strings"
	"unicode/utf8"
)

const defaultActor = "admin"

type policyRequest struct {
	Key       string `json:"policy_key"`
	Value     string `json:"policy_value"`
	UpdatedBy string `json:"updated_by"`
}

type reindexRequest struct {
	UpdatedBy string `json:"updated_by"`
}

type approveRequest struct {
	ChunkIDs  []string `json:"chunk_ids"`
	Approved  *bool    `json:"approved"`
	UpdatedBy string   `json:"updated_by"`
}

type retentionRequest struct {
	DryRun    *bool  `json:"dry_run"`
	UpdatedBy string `json:"updated_by"`
}

func actor(updatedBy string) string {
	if a := strings.TrimSpace(updatedBy); a != "" {
		return a
	}
	return defaultActor
}

// ListPolicies returns the active policy values
func (h *Handler) ListPolicies(w http.ResponseWriter, r *http.Request) {
	policies, err := h.Policies.ActivePolicies(r.Context())
	if err != nil {
		h.internalError(w, r, "list policies failed", err)
		return
	}
	JSON(w, http.StatusOK, policies)
}

// UpsertPolicy closes the active row for a key and opens a new one
func (h *Handler) UpsertPolicy(w http.ResponseWriter, r *http.Request) {
	var req policyRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	key := strings.TrimSpace(req.Key)
	if n := utf8.RuneCountInString(key); n < 2 || n > 128 {
		Error(w, http.StatusUnprocessableEntity, "policy_key must be 2-128 characters")
		return
	}
	if strings.TrimSpace(req.Value) == "" {
		Error(w, http.StatusUnprocessableEntity, "policy_value is required")
		return
	}
	who := actor(req.UpdatedBy)

	if _, err := h.Policies.Set(r.Context(), key, req.Value, who); err != nil {
		h.internalError(w, r, "policy update failed", err)
		return
	}
	if err := h.Audit.Record(r.Context(), who, "policy_update", map[string]any{
		"key":   key,
		"value": req.Value,
	}); err != nil {
		h.internalError(w, r, "policy audit failed", err)
		return
	}
	JSON(w, http.StatusOK, map[string]string{"status": "ok", "policy_key": key})
}

// ReindexKB re-imports the configured knowledge sources
func (h *Handler) ReindexKB(w http.ResponseWriter, r *http.Request) {
	var req reindexRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if h.Documents == nil {
		Error(w, http.StatusServiceUnavailable, "no knowledge sources configured")
		return
	}
	docs, err := h.Documents()
	if err != nil {
		h.internalError(w, r, "read knowledge sources failed", err)
		return
	}
	result, err := h.KB.Import(r.Context(), docs, actor(req.UpdatedBy))
	if err != nil {
		h.internalError(w, r, "knowledge import failed", err)
		return
	}
	JSON(w, http.StatusOK, result)
}

// ApproveKB flips the approval flag of the given chunks
func (h *Handler) ApproveKB(w http.ResponseWriter, r *http.Request) {
	var req approveRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if len(req.ChunkIDs) == 0 {
		Error(w, http.StatusUnprocessableEntity, "chunk_ids is required")
		return
	}
	approved := true
	if req.Approved != nil {
		approved = *req.Approved
	}
	n, err := h.KB.Approve(r.Context(), req.ChunkIDs, approved, actor(req.UpdatedBy))
	if err != nil {
		h.internalError(w, r, "knowledge approval failed", err)
		return
	}
	JSON(w, http.StatusOK, map[string]any{"status": "ok", "updated": n})
}

// RunRetention applies the retention windows. Runs are dry unless dry_run is false.
func (h *Handler) RunRetention(w http.ResponseWriter, r *http.Request) {
	var req retentionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	dryRun := true
	if req.DryRun != nil {
		dryRun = *req.DryRun
	}
	report, err := h.Retention.Run(r.Context(), actor(req.UpdatedBy), dryRun)
	if err != nil {
		h.internalError(w, r, "retention run failed", err)
		return
	}
	JSON(w, http.StatusOK, report)
}
