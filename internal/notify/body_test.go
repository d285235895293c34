package notify

import (
	"fmt"
	"strings"
	"testing"

	"github.com/clearops/tagwarden/internal/domain"
)

func testAlert() *domain.AlertRule {
	return &domain.AlertRule{
		ID:          "a1",
		Name:        "untagged vms",
		Description: "VMs without an env tag",
		Frequency:   domain.AlertDaily,
		Recipients:  []string{"ops@example.com"},
	}
}

func violations(n int) []domain.Violation {
	out := make([]domain.Violation, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, domain.Violation{
			ResourceID:     fmt.Sprintf("/r%d", i),
			ResourceName:   fmt.Sprintf("r%d", i),
			ResourceType:   "Microsoft.Compute/virtualMachines",
			ResourceGroup:  "rg-a",
			SubscriptionID: "sub1",
			Reason:         "Missing required tag: env",
		})
	}
	return out
}

func TestTextBody(t *testing.T) {
	body := textBody(testAlert(), violations(2), false)

	if !strings.Contains(body, "TAG COMPLIANCE ALERT") {
		t.Errorf("missing header: %q", body)
	}
	if !strings.Contains(body, "Violations found: 2") {
		t.Errorf("missing count: %q", body)
	}
	if !strings.Contains(body, "Missing required tag: env") {
		t.Errorf("missing reason: %q", body)
	}
	if strings.Contains(body, "[TEST]") {
		t.Error("test marker on a real alert")
	}
}

func TestTextBodyTestMarker(t *testing.T) {
	body := textBody(testAlert(), violations(1), true)
	if !strings.HasPrefix(body, "[TEST]") {
		t.Errorf("missing test marker: %q", body)
	}
}

func TestTextBodyTruncation(t *testing.T) {
	body := textBody(testAlert(), violations(60), false)

	if !strings.Contains(body, "... and 10 more") {
		t.Errorf("missing truncation note: %q", body)
	}
	if strings.Count(body, "Missing required tag: env") != maxViolationRows {
		t.Errorf("row count = %d, want %d", strings.Count(body, "Missing required tag: env"), maxViolationRows)
	}
}

func TestHTMLBody(t *testing.T) {
	body := htmlBody(testAlert(), violations(60), true)

	if !strings.Contains(body, "[TEST] Tag Compliance Alert: untagged vms") {
		t.Errorf("missing heading: %q", body)
	}
	if !strings.Contains(body, "and 10 more") {
		t.Errorf("missing truncation note: %q", body)
	}
	if strings.Count(body, "<tr><td>") != maxViolationRows {
		t.Errorf("row count = %d, want %d", strings.Count(body, "<tr><td>"), maxViolationRows)
	}
}
