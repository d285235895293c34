package storage

import (
	"context"
	"time"

	"github.com/clearops/tagwarden/internal/domain"
)

// Storage defines the repository for rule/template/alert records.
// Implementations must be safe for concurrent use. Updates use optimistic
// concurrency: the caller passes the record with the version it read, and
// the store fails with domain.ErrVersionConflict when another writer got
// there first.
type Storage interface {
	// Close closes the storage connection.
	Close() error

	// Tag templates
	CreateTemplate(ctx context.Context, t *domain.TagTemplate) error
	GetTemplate(ctx context.Context, id string) (*domain.TagTemplate, error)
	ListTemplates(ctx context.Context, category string) ([]*domain.TagTemplate, error)
	UpdateTemplate(ctx context.Context, t *domain.TagTemplate) error
	DeleteTemplate(ctx context.Context, id string) error

	// Tag policies
	CreatePolicy(ctx context.Context, p *domain.TagPolicy) error
	GetPolicy(ctx context.Context, id string) (*domain.TagPolicy, error)
	ListPolicies(ctx context.Context, filter PolicyFilter) ([]*domain.TagPolicy, error)
	UpdatePolicy(ctx context.Context, p *domain.TagPolicy) error
	DeletePolicy(ctx context.Context, id string) error

	// Alert rules
	CreateAlert(ctx context.Context, a *domain.AlertRule) error
	GetAlert(ctx context.Context, id string) (*domain.AlertRule, error)
	ListAlerts(ctx context.Context, filter AlertFilter) ([]*domain.AlertRule, error)
	UpdateAlert(ctx context.Context, a *domain.AlertRule) error
	DeleteAlert(ctx context.Context, id string) error

	// TouchAlertLastTriggered records that an alert fired. It bypasses the
	// version check: last-triggered bookkeeping must not conflict with
	// concurrent rule edits.
	TouchAlertLastTriggered(ctx context.Context, id string, at time.Time) error
}

// PolicyFilter narrows a policy listing. Zero values mean no restriction.
type PolicyFilter struct {
	Scope   domain.PolicyScope
	Enabled *bool
}

// AlertFilter narrows an alert listing. Zero values mean no restriction.
type AlertFilter struct {
	Enabled   *bool
	Frequency domain.AlertFrequency
}
