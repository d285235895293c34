package handler

import (
	"net/http"

	"github.com/clearops/tagwarden/internal/api/middleware"
	"github.com/clearops/tagwarden/internal/directory"
	"github.com/clearops/tagwarden/internal/report"
)

// ReportHandler handles report generation endpoints.
type ReportHandler struct {
	collector *directory.Collector
}

// NewReportHandler creates a new ReportHandler.
func NewReportHandler(collector *directory.Collector) *ReportHandler {
	return &ReportHandler{collector: collector}
}

// Compliance generates a tag coverage report. includeDetails=true adds the
// untagged resource list.
func (h *ReportHandler) Compliance(w http.ResponseWriter, r *http.Request) {
	token := middleware.TokenFromContext(r.Context())
	q := r.URL.Query()

	var subscriptions []string
	if subID := q.Get("subscriptionId"); subID != "" {
		subscriptions = []string{subID}
	}

	resources, err := h.collector.CollectResources(r.Context(), token, subscriptions, nil)
	if err != nil {
		handleError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, report.TagCoverage(resources, "api", q.Get("includeDetails") == "true"))
}

// Resources generates an inventory report. includeResources=true adds the
// full resource list.
func (h *ReportHandler) Resources(w http.ResponseWriter, r *http.Request) {
	token := middleware.TokenFromContext(r.Context())
	q := r.URL.Query()

	var subscriptions []string
	filters := map[string]string{}
	if subID := q.Get("subscriptionId"); subID != "" {
		subscriptions = []string{subID}
		filters["subscriptionId"] = subID
	}

	resources, err := h.collector.CollectResources(r.Context(), token, subscriptions, nil)
	if err != nil {
		handleError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, report.Inventory(resources, "api", filters, q.Get("includeResources") == "true"))
}

// Costs generates the synthetic cost breakdown.
func (h *ReportHandler) Costs(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, report.Cost("api"))
}
