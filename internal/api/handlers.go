package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/rajcare/claimsight/internal/access"
	"github.com/rajcare/claimsight/internal/audit"
	"github.com/rajcare/claimsight/internal/query"
	"github.com/rajcare/claimsight/internal/stats"
	"github.com/rajcare/claimsight/internal/store"
	"github.com/rajcare/claimsight/pkg/models"
)

// Handlers contains all HTTP handlers
type Handlers struct {
	store  *store.Store
	policy *access.Policy
	audit  *audit.Logger
}

// NewHandlers creates new handlers
func NewHandlers(st *store.Store, policy *access.Policy, auditLog *audit.Logger) *Handlers {
	return &Handlers{
		store:  st,
		policy: policy,
		audit:  auditLog,
	}
}

// HealthCheck handles health check requests
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respond(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "claimsight",
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}

// Claim handlers

// ListClaims lists claims, narrowed by any supplied query filters
func (h *Handlers) ListClaims(w http.ResponseWriter, r *http.Request) {
	claims, err := h.store.List()
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	filtered := query.Apply(claims, filterFromQuery(r))
	if filtered == nil {
		filtered = []models.Claim{}
	}
	respond(w, http.StatusOK, filtered)
}

// GetClaim gets a claim by ID
func (h *Handlers) GetClaim(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	claim, err := h.store.Get(id)
	if errors.Is(err, store.ErrNotFound) {
		respondError(w, http.StatusNotFound, "Claim not found")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.audit.Record(models.AuditActionRead, id, actor(r), models.AuditOutcomeSuccess)
	respond(w, http.StatusOK, claim)
}

// CreateClaim creates a new claim
func (h *Handlers) CreateClaim(w http.ResponseWriter, r *http.Request) {
	var input map[string]any
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	claim, err := h.store.Create(input)
	var verr *store.ValidationError
	if errors.As(err, &verr) {
		respondError(w, http.StatusBadRequest, verr.Error())
		return
	}
	if err != nil {
		h.audit.Record(models.AuditActionCreate, "", actor(r), models.AuditOutcomeFailure)
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.audit.Record(models.AuditActionCreate, claim.ID, actor(r), models.AuditOutcomeSuccess)
	respond(w, http.StatusCreated, claim)
}

// UpdateClaim updates a claim
func (h *Handlers) UpdateClaim(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var input map[string]any
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	claim, err := h.store.Update(id, input)
	if errors.Is(err, store.ErrNotFound) {
		respondError(w, http.StatusNotFound, "Claim not found")
		return
	}
	if err != nil {
		h.audit.Record(models.AuditActionUpdate, id, actor(r), models.AuditOutcomeFailure)
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.audit.Record(models.AuditActionUpdate, id, actor(r), models.AuditOutcomeSuccess)
	respond(w, http.StatusOK, claim)
}

// DeleteClaim deletes a claim
func (h *Handlers) DeleteClaim(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	err := h.store.Delete(id)
	if errors.Is(err, store.ErrNotFound) {
		respondError(w, http.StatusNotFound, "Claim not found")
		return
	}
	if err != nil {
		h.audit.Record(models.AuditActionDelete, id, actor(r), models.AuditOutcomeFailure)
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.audit.Record(models.AuditActionDelete, id, actor(r), models.AuditOutcomeSuccess)
	respond(w, http.StatusOK, map[string]string{"message": "Claim deleted successfully"})
}

// GetStats aggregates the (optionally filtered) claim set
func (h *Handlers) GetStats(w http.ResponseWriter, r *http.Request) {
	claims, err := h.store.List()
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	applied := filterFromQuery(r)
	filtered := query.Apply(claims, applied)
	respond(w, http.StatusOK, stats.Summarize(filtered, claims, applied))
}

// FilterByAccess filters a posted claim set by the access policy
func (h *Handlers) FilterByAccess(w http.ResponseWriter, r *http.Request) {
	var raw json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		respondError(w, http.StatusBadRequest, "Input must be a JSON array of claims")
		return
	}

	// A JSON null or object decodes without error; only an array is a
	// valid payload.
	body := bytes.TrimSpace(raw)
	if len(body) == 0 || body[0] != '[' {
		respondError(w, http.StatusBadRequest, "Input must be a JSON array of claims")
		return
	}

	var claims []models.Claim
	if err := json.Unmarshal(body, &claims); err != nil {
		respondError(w, http.StatusBadRequest, "Input must be a JSON array of claims")
		return
	}

	filtered, rules, err := h.policy.Filter(claims)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if filtered == nil {
		filtered = []models.Claim{}
	}

	ruleValues := make(map[string]string, len(rules))
	for relationship, visible := range rules {
		if visible {
			ruleValues[relationship] = "yes"
		} else {
			ruleValues[relationship] = "no"
		}
	}

	h.audit.Record(models.AuditActionFilter, "", actor(r), models.AuditOutcomeSuccess)
	respond(w, http.StatusOK, models.AccessFilterResult{
		OriginalCount: len(claims),
		FilteredCount: len(filtered),
		Claims:        filtered,
		AccessRules:   ruleValues,
	})
}

// Audit handlers

// ListAuditEvents lists recent audit events
func (h *Handlers) ListAuditEvents(w http.ResponseWriter, r *http.Request) {
	limit := 100
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	events, err := h.audit.ListEvents(limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if events == nil {
		events = []models.AuditEvent{}
	}
	respond(w, http.StatusOK, events)
}

// GetAuditStats returns audit trail totals
func (h *Handlers) GetAuditStats(w http.ResponseWriter, r *http.Request) {
	total, byAction, err := h.audit.Stats()
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respond(w, http.StatusOK, map[string]any{
		"total_events": total,
		"by_action":    byAction,
	})
}

func filterFromQuery(r *http.Request) models.ClaimFilter {
	q := r.URL.Query()
	return models.ClaimFilter{
		ClaimID:     q.Get("claim_id"),
		MemberName:  q.Get("member_name"),
		ServiceDate: q.Get("service_date"),
		Status:      q.Get("status"),
	}
}

func actor(r *http.Request) string {
	return r.Header.Get("X-User-ID")
}

func respond(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respond(w, status, map[string]string{"error": message})
}
