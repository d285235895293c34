package handler

import (
	"net/http"
	"time"

	"github.com/clearops/tagwarden/internal/api/middleware"
	"github.com/clearops/tagwarden/internal/compliance"
	"github.com/clearops/tagwarden/internal/directory"
	"github.com/clearops/tagwarden/internal/domain"
	"github.com/clearops/tagwarden/internal/storage"
	"github.com/clearops/tagwarden/internal/validation"
	"github.com/go-chi/chi/v5"
)

// PolicyHandler handles tag policy endpoints.
type PolicyHandler struct {
	store     storage.Storage
	collector *directory.Collector
	evaluator *compliance.Evaluator
}

// NewPolicyHandler creates a new PolicyHandler.
func NewPolicyHandler(store storage.Storage, collector *directory.Collector, evaluator *compliance.Evaluator) *PolicyHandler {
	return &PolicyHandler{store: store, collector: collector, evaluator: evaluator}
}

// Create creates a new tag policy. New policies are enabled unless the
// request says otherwise.
func (h *PolicyHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreatePolicyRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validation.ValidateCreatePolicy(&req); err != nil {
		handleError(w, err)
		return
	}

	enabled := true
	if req.Enabled != nil {
		enabled = *req.Enabled
	}
	scope := req.Scope
	if scope == "" {
		scope = domain.PolicyScopeGlobal
	}

	now := time.Now()
	policy := &domain.TagPolicy{
		ID:           generateID(),
		Name:         req.Name,
		Description:  req.Description,
		Scope:        scope,
		ScopeID:      req.ScopeID,
		RequiredTags: req.RequiredTags,
		Enabled:      enabled,
		Version:      1,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := h.store.CreatePolicy(r.Context(), policy); err != nil {
		handleError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, policy)
}

// List lists policies, optionally filtered by scope and enabled state.
func (h *PolicyHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := storage.PolicyFilter{Scope: domain.PolicyScope(q.Get("scope"))}
	if v := q.Get("enabled"); v != "" {
		enabled := v == "true"
		filter.Enabled = &enabled
	}

	policies, err := h.store.ListPolicies(r.Context(), filter)
	if err != nil {
		handleError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, policies)
}

// Get gets a policy by id.
func (h *PolicyHandler) Get(w http.ResponseWriter, r *http.Request) {
	policy, err := h.store.GetPolicy(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, policy)
}

// Update updates a policy. Only the fields present in the request change.
func (h *PolicyHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req domain.UpdatePolicyRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validation.ValidateUpdatePolicy(&req); err != nil {
		handleError(w, err)
		return
	}

	policy, err := h.store.GetPolicy(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleError(w, err)
		return
	}

	if req.Name != nil {
		policy.Name = *req.Name
	}
	if req.Description != nil {
		policy.Description = *req.Description
	}
	if req.Scope != nil {
		policy.Scope = *req.Scope
	}
	if req.ScopeID != nil {
		policy.ScopeID = *req.ScopeID
	}
	if req.RequiredTags != nil {
		policy.RequiredTags = req.RequiredTags
	}
	if req.Enabled != nil {
		policy.Enabled = *req.Enabled
	}
	policy.UpdatedAt = time.Now()

	if err := h.store.UpdatePolicy(r.Context(), policy); err != nil {
		handleError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, policy)
}

// Delete deletes a policy.
func (h *PolicyHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.store.DeletePolicy(r.Context(), chi.URLParam(r, "id")); err != nil {
		handleError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Compliance evaluates every enabled policy against the current resource
// state and returns per-resource and per-policy results.
func (h *PolicyHandler) Compliance(w http.ResponseWriter, r *http.Request) {
	token := middleware.TokenFromContext(r.Context())

	var subscriptions []string
	if subID := r.URL.Query().Get("subscriptionId"); subID != "" {
		subscriptions = []string{subID}
	}

	resources, err := h.collector.CollectResources(r.Context(), token, subscriptions, nil)
	if err != nil {
		handleError(w, err)
		return
	}

	enabled := true
	policies, err := h.store.ListPolicies(r.Context(), storage.PolicyFilter{Enabled: &enabled})
	if err != nil {
		handleError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, h.evaluator.Evaluate(resources, policies))
}

// Validate checks a proposed tag mapping against the enabled policies
// without touching any resource.
func (h *PolicyHandler) Validate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Tags map[string]string `json:"tags"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Tags == nil {
		respondError(w, http.StatusBadRequest, "tags is required")
		return
	}

	enabled := true
	policies, err := h.store.ListPolicies(r.Context(), storage.PolicyFilter{Enabled: &enabled})
	if err != nil {
		handleError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, h.evaluator.ValidateTags(req.Tags, policies))
}
