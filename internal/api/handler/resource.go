package handler

import (
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/clearops/tagwarden/internal/api/middleware"
	"github.com/clearops/tagwarden/internal/azure"
	"github.com/clearops/tagwarden/internal/directory"
	"github.com/clearops/tagwarden/internal/domain"
	"github.com/clearops/tagwarden/internal/report"
	"github.com/clearops/tagwarden/internal/tags"
	"github.com/clearops/tagwarden/internal/validation"
	"github.com/go-chi/chi/v5"
)

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

// ResourceHandler handles resource and subscription endpoints.
type ResourceHandler struct {
	client     azure.ResourceClient
	collector  *directory.Collector
	engine     *tags.Engine
	maxBulkIDs int
}

// NewResourceHandler creates a new ResourceHandler.
func NewResourceHandler(client azure.ResourceClient, collector *directory.Collector, engine *tags.Engine, maxBulkIDs int) *ResourceHandler {
	return &ResourceHandler{client: client, collector: collector, engine: engine, maxBulkIDs: maxBulkIDs}
}

// ListSubscriptions lists the subscriptions the caller's token can see.
func (h *ResourceHandler) ListSubscriptions(w http.ResponseWriter, r *http.Request) {
	subs, err := h.client.ListSubscriptions(r.Context(), middleware.TokenFromContext(r.Context()))
	if err != nil {
		handleError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, subs)
}

// ListResourceGroups lists the resource groups of one subscription.
func (h *ResourceHandler) ListResourceGroups(w http.ResponseWriter, r *http.Request) {
	subscriptionID := chi.URLParam(r, "subscription_id")
	if subscriptionID == "" {
		respondError(w, http.StatusBadRequest, "subscription_id is required")
		return
	}

	groups, err := h.client.ListResourceGroups(r.Context(), subscriptionID, middleware.TokenFromContext(r.Context()))
	if err != nil {
		handleError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, groups)
}

// filtersFromQuery builds resource filters from query parameters.
func filtersFromQuery(r *http.Request) *domain.ResourceFilters {
	q := r.URL.Query()
	return &domain.ResourceFilters{
		ResourceGroupName: q.Get("resourceGroup"),
		ResourceType:      q.Get("resourceType"),
		TagName:           q.Get("tagName"),
		TagValue:          q.Get("tagValue"),
	}
}

// List lists resources. With a subscriptionId query parameter only that
// subscription is queried; otherwise the listing fans out over every
// subscription the token can see.
func (h *ResourceHandler) List(w http.ResponseWriter, r *http.Request) {
	token := middleware.TokenFromContext(r.Context())
	filters := filtersFromQuery(r)

	if subID := r.URL.Query().Get("subscriptionId"); subID != "" {
		resources, err := h.client.ListResources(r.Context(), subID, token, filters)
		if err != nil {
			handleError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, resources)
		return
	}

	resources, err := h.collector.CollectResources(r.Context(), token, nil, filters)
	if err != nil {
		handleError(w, err)
		return
	}
	if resources == nil {
		resources = []domain.Resource{}
	}
	respondJSON(w, http.StatusOK, resources)
}

// filterResources keeps the resources the predicate accepts.
func filterResources(resources []domain.Resource, pred func(domain.Resource) bool) []domain.Resource {
	out := resources[:0:0]
	for _, res := range resources {
		if pred(res) {
			out = append(out, res)
		}
	}
	return out
}

// Search searches resources by a free-text query over name, type and
// resource group, with pagination. Filters narrow the collection first:
// location, hasTag, missingTag, and missingTags (comma-separated, matching
// resources missing at least one of the listed keys) apply after the
// upstream filters.
func (h *ResourceHandler) Search(w http.ResponseWriter, r *http.Request) {
	token := middleware.TokenFromContext(r.Context())
	q := r.URL.Query()

	var subscriptions []string
	if subID := q.Get("subscriptionId"); subID != "" {
		subscriptions = []string{subID}
	}

	resources, err := h.collector.CollectResources(r.Context(), token, subscriptions, filtersFromQuery(r))
	if err != nil {
		handleError(w, err)
		return
	}

	if needle := strings.ToLower(strings.TrimSpace(q.Get("q"))); needle != "" {
		resources = filterResources(resources, func(res domain.Resource) bool {
			return strings.Contains(strings.ToLower(res.Name), needle) ||
				strings.Contains(strings.ToLower(res.Type), needle) ||
				strings.Contains(strings.ToLower(res.ResourceGroup), needle)
		})
	}
	if location := q.Get("location"); location != "" {
		resources = filterResources(resources, func(res domain.Resource) bool {
			return res.Location == location
		})
	}
	if key := q.Get("hasTag"); key != "" {
		resources = filterResources(resources, func(res domain.Resource) bool {
			_, ok := res.Tags[key]
			return ok
		})
	}
	if key := q.Get("missingTag"); key != "" {
		resources = filterResources(resources, func(res domain.Resource) bool {
			_, ok := res.Tags[key]
			return !ok
		})
	}
	if list := q.Get("missingTags"); list != "" {
		keys := strings.Split(list, ",")
		resources = filterResources(resources, func(res domain.Resource) bool {
			for _, key := range keys {
				if _, ok := res.Tags[strings.TrimSpace(key)]; !ok {
					return true
				}
			}
			return false
		})
	}

	sort.Slice(resources, func(i, j int) bool { return resources[i].Name < resources[j].Name })

	page := intQuery(q.Get("page"), 1)
	pageSize := intQuery(q.Get("pageSize"), defaultPageSize)
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	total := len(resources)
	start := (page - 1) * pageSize
	if start > total {
		start = total
	}
	end := start + pageSize
	if end > total {
		end = total
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"resources": resources[start:end],
		"page":      page,
		"pageSize":  pageSize,
		"total":     total,
	})
}

func intQuery(s string, fallback int) int {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return fallback
	}
	return n
}

// TagInventory lists every tag key in use across the estate.
func (h *ResourceHandler) TagInventory(w http.ResponseWriter, r *http.Request) {
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
	respondJSON(w, http.StatusOK, report.TagInventory(resources))
}

// resourceIDFromPath rebuilds the fully-qualified resource id from the
// wildcard path segment. Resource ids are themselves paths starting with
// /subscriptions/.
func resourceIDFromPath(r *http.Request) string {
	id := chi.URLParam(r, "*")
	if id == "" {
		return ""
	}
	return "/" + id
}

// Get fetches one resource by its fully-qualified id.
func (h *ResourceHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := resourceIDFromPath(r)
	if id == "" {
		respondError(w, http.StatusBadRequest, "resource id is required")
		return
	}

	resource, err := h.client.GetResource(r.Context(), id, middleware.TokenFromContext(r.Context()))
	if err != nil {
		handleError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, resource)
}

// UpdateTags applies one tag operation to one resource. The default
// operation is merge.
func (h *ResourceHandler) UpdateTags(w http.ResponseWriter, r *http.Request) {
	id := resourceIDFromPath(r)
	if id == "" {
		respondError(w, http.StatusBadRequest, "resource id is required")
		return
	}

	var req domain.UpdateTagsRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Operation == "" {
		req.Operation = domain.TagOperationMerge
	}
	if err := validation.ValidateUpdateTags(&req); err != nil {
		handleError(w, err)
		return
	}

	resource, err := h.engine.UpdateTags(r.Context(), id, req.Tags, req.Operation, middleware.TokenFromContext(r.Context()))
	if err != nil {
		handleError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, resource)
}

// BulkUpdateTags applies one tag operation to many resources with
// partial-success semantics. The response is 200 even when some resources
// failed; the per-resource outcomes are in the body.
func (h *ResourceHandler) BulkUpdateTags(w http.ResponseWriter, r *http.Request) {
	var req domain.BulkUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Operation == "" {
		req.Operation = domain.TagOperationMerge
	}
	if err := validation.ValidateBulkUpdate(&req, h.maxBulkIDs); err != nil {
		handleError(w, err)
		return
	}

	result := h.engine.BulkUpdateTags(r.Context(), req.ResourceIDs, req.Tags, req.Operation, middleware.TokenFromContext(r.Context()))
	respondJSON(w, http.StatusOK, result)
}
