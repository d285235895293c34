// Package notify delivers violation notifications to alert recipients.
package notify

import (
	"context"

	"github.com/clearops/tagwarden/internal/domain"
)

// Notifier is the delivery contract the alert runner depends on. The
// runner calls it at most once per alert run, and only when violations
// were found.
type Notifier interface {
	SendViolationNotification(ctx context.Context, alert *domain.AlertRule, violations []domain.Violation, isTest bool) error
}

// Noop discards notifications. Used when SMTP is not configured.
type Noop struct{}

// SendViolationNotification does nothing.
func (Noop) SendViolationNotification(ctx context.Context, alert *domain.AlertRule, violations []domain.Violation, isTest bool) error {
	return nil
}
