package api

import (
	"net/http"

	"github.com/clearops/tagwarden/internal/alert"
	"github.com/clearops/tagwarden/internal/api/handler"
	"github.com/clearops/tagwarden/internal/api/middleware"
	"github.com/clearops/tagwarden/internal/azure"
	"github.com/clearops/tagwarden/internal/compliance"
	"github.com/clearops/tagwarden/internal/config"
	"github.com/clearops/tagwarden/internal/directory"
	"github.com/clearops/tagwarden/internal/storage"
	"github.com/clearops/tagwarden/internal/tags"
	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

// Deps bundles everything the router hands to the handlers.
type Deps struct {
	Store     storage.Storage
	Client    azure.ResourceClient
	Collector *directory.Collector
	Engine    *tags.Engine
	Evaluator *compliance.Evaluator
	Runner    *alert.Runner
	Bulk      config.BulkConfig
	Verifier  *oidc.IDTokenVerifier
}

// NewRouter creates a new HTTP router with all routes configured.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimw.Recoverer)
	r.Use(middleware.Logging)

	// Health check (no auth required)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	// API routes (auth required, JSON Content-Type)
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.ContentType)
		r.Use(middleware.Auth(deps.Verifier))

		// Subscriptions and resource groups
		resourceHandler := handler.NewResourceHandler(deps.Client, deps.Collector, deps.Engine, deps.Bulk.MaxIDs)
		r.Get("/subscriptions", resourceHandler.ListSubscriptions)
		r.Get("/subscriptions/{subscription_id}/resourcegroups", resourceHandler.ListResourceGroups)

		// Resources. The wildcard routes take the fully-qualified resource
		// id as the rest of the path; the static routes are matched first.
		r.Get("/resources", resourceHandler.List)
		r.Get("/resources/search", resourceHandler.Search)
		r.Get("/resources/taginventory", resourceHandler.TagInventory)
		r.Post("/resources/bulk", resourceHandler.BulkUpdateTags)
		r.Get("/resources/*", resourceHandler.Get)
		r.Patch("/resources/*", resourceHandler.UpdateTags)

		// Tag templates
		templateHandler := handler.NewTemplateHandler(deps.Store, deps.Engine, deps.Bulk.MaxIDs)
		r.Post("/templates", templateHandler.Create)
		r.Get("/templates", templateHandler.List)
		r.Get("/templates/{id}", templateHandler.Get)
		r.Put("/templates/{id}", templateHandler.Update)
		r.Delete("/templates/{id}", templateHandler.Delete)
		r.Post("/templates/{id}/apply", templateHandler.Apply)

		// Tag policies
		policyHandler := handler.NewPolicyHandler(deps.Store, deps.Collector, deps.Evaluator)
		r.Post("/policies", policyHandler.Create)
		r.Get("/policies", policyHandler.List)
		r.Get("/policies/compliance", policyHandler.Compliance)
		r.Post("/policies/validate", policyHandler.Validate)
		r.Get("/policies/{id}", policyHandler.Get)
		r.Put("/policies/{id}", policyHandler.Update)
		r.Delete("/policies/{id}", policyHandler.Delete)

		// Alert rules
		alertHandler := handler.NewAlertHandler(deps.Store, deps.Runner)
		r.Post("/alerts", alertHandler.Create)
		r.Get("/alerts", alertHandler.List)
		r.Post("/alerts/check", alertHandler.CheckAll)
		r.Get("/alerts/{id}", alertHandler.Get)
		r.Put("/alerts/{id}", alertHandler.Update)
		r.Delete("/alerts/{id}", alertHandler.Delete)
		r.Post("/alerts/{id}/test", alertHandler.Test)

		// Reports
		reportHandler := handler.NewReportHandler(deps.Collector)
		r.Get("/reports/compliance", reportHandler.Compliance)
		r.Get("/reports/resources", reportHandler.Resources)
		r.Get("/reports/costs", reportHandler.Costs)
	})

	return r
}
