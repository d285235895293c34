package handler

import (
	"net/http"
	"time"

	"github.com/clearops/tagwarden/internal/api/middleware"
	"github.com/clearops/tagwarden/internal/domain"
	"github.com/clearops/tagwarden/internal/storage"
	"github.com/clearops/tagwarden/internal/tags"
	"github.com/clearops/tagwarden/internal/validation"
	"github.com/go-chi/chi/v5"
)

// TemplateHandler handles tag template endpoints.
type TemplateHandler struct {
	store      storage.Storage
	engine     *tags.Engine
	maxBulkIDs int
}

// NewTemplateHandler creates a new TemplateHandler.
func NewTemplateHandler(store storage.Storage, engine *tags.Engine, maxBulkIDs int) *TemplateHandler {
	return &TemplateHandler{store: store, engine: engine, maxBulkIDs: maxBulkIDs}
}

// Create creates a new tag template.
func (h *TemplateHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateTemplateRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validation.ValidateCreateTemplate(&req); err != nil {
		handleError(w, err)
		return
	}

	now := time.Now()
	template := &domain.TagTemplate{
		ID:          generateID(),
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		Tags:        req.Tags,
		Version:     1,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := h.store.CreateTemplate(r.Context(), template); err != nil {
		handleError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, template)
}

// List lists templates, optionally filtered by category.
func (h *TemplateHandler) List(w http.ResponseWriter, r *http.Request) {
	templates, err := h.store.ListTemplates(r.Context(), r.URL.Query().Get("category"))
	if err != nil {
		handleError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, templates)
}

// Get gets a template by id.
func (h *TemplateHandler) Get(w http.ResponseWriter, r *http.Request) {
	template, err := h.store.GetTemplate(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, template)
}

// Update updates a template. Only the fields present in the request change.
func (h *TemplateHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req domain.UpdateTemplateRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validation.ValidateUpdateTemplate(&req); err != nil {
		handleError(w, err)
		return
	}

	template, err := h.store.GetTemplate(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleError(w, err)
		return
	}

	if req.Name != nil {
		template.Name = *req.Name
	}
	if req.Description != nil {
		template.Description = *req.Description
	}
	if req.Category != nil {
		template.Category = *req.Category
	}
	if req.Tags != nil {
		template.Tags = req.Tags
	}
	template.UpdatedAt = time.Now()

	if err := h.store.UpdateTemplate(r.Context(), template); err != nil {
		handleError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, template)
}

// Delete deletes a template.
func (h *TemplateHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.store.DeleteTemplate(r.Context(), chi.URLParam(r, "id")); err != nil {
		handleError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Apply applies a template's tags to a set of resources as a bulk
// operation. The default operation is merge; delete is rejected by
// validation.
func (h *TemplateHandler) Apply(w http.ResponseWriter, r *http.Request) {
	template, err := h.store.GetTemplate(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleError(w, err)
		return
	}

	var req domain.ApplyTemplateRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Operation == "" {
		req.Operation = domain.TagOperationMerge
	}
	if err := validation.ValidateApplyTemplate(&req, h.maxBulkIDs); err != nil {
		handleError(w, err)
		return
	}

	result := h.engine.BulkUpdateTags(r.Context(), req.ResourceIDs, template.Tags, req.Operation, middleware.TokenFromContext(r.Context()))
	respondJSON(w, http.StatusOK, map[string]any{
		"templateId":   template.ID,
		"templateName": template.Name,
		"operation":    req.Operation,
		"result":       result,
	})
}
