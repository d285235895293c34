package handler

import (
	"net/http"
	"time"

	"github.com/clearops/tagwarden/internal/alert"
	"github.com/clearops/tagwarden/internal/api/middleware"
	"github.com/clearops/tagwarden/internal/domain"
	"github.com/clearops/tagwarden/internal/storage"
	"github.com/clearops/tagwarden/internal/validation"
	"github.com/go-chi/chi/v5"
)

// AlertHandler handles alert rule endpoints.
type AlertHandler struct {
	store  storage.Storage
	runner *alert.Runner
}

// NewAlertHandler creates a new AlertHandler.
func NewAlertHandler(store storage.Storage, runner *alert.Runner) *AlertHandler {
	return &AlertHandler{store: store, runner: runner}
}

// Create creates a new alert rule. New alerts are enabled unless the
// request says otherwise.
func (h *AlertHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateAlertRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validation.ValidateCreateAlert(&req); err != nil {
		handleError(w, err)
		return
	}

	enabled := true
	if req.Enabled != nil {
		enabled = *req.Enabled
	}

	now := time.Now()
	rule := &domain.AlertRule{
		ID:          generateID(),
		Name:        req.Name,
		Description: req.Description,
		Enabled:     enabled,
		Frequency:   req.Frequency,
		Conditions:  req.Conditions,
		Recipients:  req.Recipients,
		Scope:       req.Scope,
		Version:     1,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := h.store.CreateAlert(r.Context(), rule); err != nil {
		handleError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, rule)
}

// List lists alert rules, optionally filtered by enabled state and
// frequency.
func (h *AlertHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := storage.AlertFilter{Frequency: domain.AlertFrequency(q.Get("frequency"))}
	if v := q.Get("enabled"); v != "" {
		enabled := v == "true"
		filter.Enabled = &enabled
	}

	alerts, err := h.store.ListAlerts(r.Context(), filter)
	if err != nil {
		handleError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, alerts)
}

// Get gets an alert rule by id.
func (h *AlertHandler) Get(w http.ResponseWriter, r *http.Request) {
	rule, err := h.store.GetAlert(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, rule)
}

// Update updates an alert rule. Only the fields present in the request
// change.
func (h *AlertHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req domain.UpdateAlertRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validation.ValidateUpdateAlert(&req); err != nil {
		handleError(w, err)
		return
	}

	rule, err := h.store.GetAlert(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleError(w, err)
		return
	}

	if req.Name != nil {
		rule.Name = *req.Name
	}
	if req.Description != nil {
		rule.Description = *req.Description
	}
	if req.Enabled != nil {
		rule.Enabled = *req.Enabled
	}
	if req.Frequency != nil {
		rule.Frequency = *req.Frequency
	}
	if req.Conditions != nil {
		rule.Conditions = req.Conditions
	}
	if req.Recipients != nil {
		rule.Recipients = req.Recipients
	}
	if req.Scope != nil {
		rule.Scope = *req.Scope
	}
	rule.UpdatedAt = time.Now()

	if err := h.store.UpdateAlert(r.Context(), rule); err != nil {
		handleError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, rule)
}

// Delete deletes an alert rule.
func (h *AlertHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.store.DeleteAlert(r.Context(), chi.URLParam(r, "id")); err != nil {
		handleError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Test runs one alert rule on demand and sends a test notification when it
// finds violations. The rule's lastTriggered timestamp is not touched.
func (h *AlertHandler) Test(w http.ResponseWriter, r *http.Request) {
	rule, err := h.store.GetAlert(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleError(w, err)
		return
	}

	result, emailSent, err := h.runner.TestAlert(r.Context(), rule, middleware.TokenFromContext(r.Context()))
	if err != nil {
		handleError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"alertId":    rule.ID,
		"alertName":  rule.Name,
		"violations": result.Violations,
		"summary":    result.Summary,
		"emailSent":  emailSent,
	})
}

// CheckAll runs every enabled alert rule immediately, optionally restricted
// to one frequency. Violating alerts notify their recipients and have their
// lastTriggered timestamp updated.
func (h *AlertHandler) CheckAll(w http.ResponseWriter, r *http.Request) {
	frequency := domain.AlertFrequency(r.URL.Query().Get("frequency"))
	if frequency != "" && !frequency.Valid() {
		respondError(w, http.StatusBadRequest, "frequency must be daily, weekly, or monthly")
		return
	}

	outcomes, err := h.runner.RunEnabled(r.Context(), middleware.TokenFromContext(r.Context()), frequency)
	if err != nil {
		handleError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"alertsChecked": len(outcomes),
		"outcomes":      outcomes,
	})
}
