// Package alert runs alert rules against current resource state and
// dispatches notifications for violations.
package alert

import (
	"context"
	"log"
	"slices"
	"time"

	"github.com/clearops/tagwarden/internal/compliance"
	"github.com/clearops/tagwarden/internal/directory"
	"github.com/clearops/tagwarden/internal/domain"
	"github.com/clearops/tagwarden/internal/notify"
	"github.com/clearops/tagwarden/internal/storage"
)

// Runner executes alert rules. Alerts are processed one at a time; only
// the tag engine's bulk path runs anything concurrently, which keeps
// upstream load bounded.
type Runner struct {
	store     storage.Storage
	collector *directory.Collector
	evaluator *compliance.Evaluator
	notifier  notify.Notifier
	logger    *log.Logger
}

// NewRunner creates a Runner. A nil logger falls back to the default
// logger.
func NewRunner(store storage.Storage, collector *directory.Collector, evaluator *compliance.Evaluator, notifier notify.Notifier, logger *log.Logger) *Runner {
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		store:     store,
		collector: collector,
		evaluator: evaluator,
		notifier:  notifier,
		logger:    logger,
	}
}

// RunAlert checks one alert rule against the resources in its scope and
// returns the violations with a run summary. It does not notify anyone;
// the callers decide whether the run warrants a notification.
func (r *Runner) RunAlert(ctx context.Context, alert *domain.AlertRule, token string) (*domain.AlertRunResult, error) {
	resources, err := r.collector.CollectResources(ctx, token, alert.Scope.Subscriptions, nil)
	if err != nil {
		return nil, err
	}

	if len(alert.Scope.ResourceGroups) > 0 {
		filtered := resources[:0:0]
		for _, res := range resources {
			if slices.Contains(alert.Scope.ResourceGroups, res.ResourceGroup) {
				filtered = append(filtered, res)
			}
		}
		resources = filtered
	}

	violations := r.evaluator.CheckConditions(resources, alert.Conditions)

	return &domain.AlertRunResult{
		Violations: violations,
		Summary: domain.AlertRunSummary{
			TotalResourcesChecked: len(resources),
			ViolationsFound:       len(violations),
			AlertConditions:       len(alert.Conditions),
		},
	}, nil
}

// TestAlert runs one alert on demand and, when violations exist, sends a
// single test notification. lastTriggered is not updated for tests.
func (r *Runner) TestAlert(ctx context.Context, alert *domain.AlertRule, token string) (*domain.AlertRunResult, bool, error) {
	result, err := r.RunAlert(ctx, alert, token)
	if err != nil {
		return nil, false, err
	}

	if len(result.Violations) == 0 {
		return result, false, nil
	}

	if err := r.notifier.SendViolationNotification(ctx, alert, result.Violations, true); err != nil {
		return result, false, err
	}
	return result, true, nil
}

// RunEnabled runs every enabled alert, optionally restricted to one
// frequency. One alert's failure is captured in its outcome and never
// stops the remaining alerts. When an alert finds violations it is
// notified exactly once and its lastTriggered timestamp is updated.
func (r *Runner) RunEnabled(ctx context.Context, token string, frequency domain.AlertFrequency) ([]domain.AlertOutcome, error) {
	enabled := true
	alerts, err := r.store.ListAlerts(ctx, storage.AlertFilter{Enabled: &enabled, Frequency: frequency})
	if err != nil {
		return nil, err
	}

	outcomes := make([]domain.AlertOutcome, 0, len(alerts))
	for _, a := range alerts {
		outcome := domain.AlertOutcome{AlertID: a.ID, AlertName: a.Name}

		result, err := r.RunAlert(ctx, a, token)
		if err != nil {
			outcome.Error = err.Error()
			outcomes = append(outcomes, outcome)
			continue
		}

		outcome.ViolationsFound = len(result.Violations)
		if len(result.Violations) > 0 {
			if err := r.notifier.SendViolationNotification(ctx, a, result.Violations, false); err != nil {
				outcome.Error = err.Error()
				outcomes = append(outcomes, outcome)
				continue
			}
			outcome.EmailSent = true

			if err := r.store.TouchAlertLastTriggered(ctx, a.ID, time.Now()); err != nil {
				r.logger.Printf("recording lastTriggered for alert %s: %v", a.ID, err)
			}
		}

		outcomes = append(outcomes, outcome)
	}

	return outcomes, nil
}
