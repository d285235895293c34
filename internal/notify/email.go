package notify

import (
	"context"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/clearops/tagwarden/internal/config"
	"github.com/clearops/tagwarden/internal/domain"
	"github.com/wneessen/go-mail"
)

// maxViolationRows caps the violation table in an email body; the full
// list is always available through the API.
const maxViolationRows = 50

// EmailNotifier sends violation notifications over SMTP.
type EmailNotifier struct {
	cfg config.SMTPConfig
}

// Ensure EmailNotifier implements Notifier.
var _ Notifier = (*EmailNotifier)(nil)

// NewEmailNotifier creates an EmailNotifier from SMTP configuration.
func NewEmailNotifier(cfg config.SMTPConfig) *EmailNotifier {
	return &EmailNotifier{cfg: cfg}
}

// SendViolationNotification emails the alert's recipients a summary of the
// violations, with both text and HTML bodies.
func (n *EmailNotifier) SendViolationNotification(ctx context.Context, alert *domain.AlertRule, violations []domain.Violation, isTest bool) error {
	subject := fmt.Sprintf("Tag Compliance Alert: %s", alert.Name)
	if isTest {
		subject = "[TEST] " + subject
	}

	msg := mail.NewMsg()
	if err := msg.From(n.cfg.From); err != nil {
		return fmt.Errorf("setting sender: %w", err)
	}
	if err := msg.To(alert.Recipients...); err != nil {
		return fmt.Errorf("setting recipients: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, textBody(alert, violations, isTest))
	msg.AddAlternativeString(mail.TypeTextHTML, htmlBody(alert, violations, isTest))

	opts := []mail.Option{
		mail.WithPort(n.cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(n.cfg.Username),
		mail.WithPassword(n.cfg.Password),
	}
	client, err := mail.NewClient(n.cfg.Host, opts...)
	if err != nil {
		return fmt.Errorf("creating smtp client: %w", err)
	}

	return client.DialAndSendWithContext(ctx, msg)
}

func textBody(alert *domain.AlertRule, violations []domain.Violation, isTest bool) string {
	var b strings.Builder
	if isTest {
		b.WriteString("[TEST] ")
	}
	b.WriteString("TAG COMPLIANCE ALERT\n\n")
	fmt.Fprintf(&b, "Alert: %s\n", alert.Name)
	if alert.Description != "" {
		fmt.Fprintf(&b, "Description: %s\n", alert.Description)
	}
	fmt.Fprintf(&b, "Frequency: %s\n", alert.Frequency)
	fmt.Fprintf(&b, "Time: %s\n\n", time.Now().Format(time.RFC1123))
	fmt.Fprintf(&b, "Violations found: %d\n\n", len(violations))

	for i, v := range violations {
		if i == maxViolationRows {
			fmt.Fprintf(&b, "... and %d more\n", len(violations)-maxViolationRows)
			break
		}
		fmt.Fprintf(&b, "- %s (%s, %s/%s)\n  %s\n",
			v.ResourceName, v.ResourceType, v.SubscriptionID, v.ResourceGroup, v.Reason)
	}

	return b.String()
}

var htmlTmpl = template.Must(template.New("alert").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: sans-serif; color: #222;">
  <h2>{{if .IsTest}}[TEST] {{end}}Tag Compliance Alert: {{.Alert.Name}}</h2>
  {{if .Alert.Description}}<p>{{.Alert.Description}}</p>{{end}}
  <p><strong>Frequency:</strong> {{.Alert.Frequency}}<br>
     <strong>Violations found:</strong> {{len .Violations}}</p>
  <table border="1" cellpadding="4" cellspacing="0">
    <tr><th>Resource</th><th>Type</th><th>Resource Group</th><th>Reason</th></tr>
    {{range .Rows}}
    <tr><td>{{.ResourceName}}</td><td>{{.ResourceType}}</td><td>{{.ResourceGroup}}</td><td>{{.Reason}}</td></tr>
    {{end}}
  </table>
  {{if .Truncated}}<p>... and {{.Truncated}} more</p>{{end}}
  <p style="font-size: 12px; color: #666;">Sent by tagwarden</p>
</body>
</html>`))

func htmlBody(alert *domain.AlertRule, violations []domain.Violation, isTest bool) string {
	rows := violations
	truncated := 0
	if len(rows) > maxViolationRows {
		truncated = len(rows) - maxViolationRows
		rows = rows[:maxViolationRows]
	}

	var b strings.Builder
	err := htmlTmpl.Execute(&b, map[string]any{
		"Alert":      alert,
		"Violations": violations,
		"Rows":       rows,
		"Truncated":  truncated,
		"IsTest":     isTest,
	})
	if err != nil {
		// Fall back to the text body rather than dropping the mail.
		return "<pre>" + template.HTMLEscapeString(textBody(alert, violations, isTest)) + "</pre>"
	}
	return b.String()
}
