package validation

import (
	"strings"
	"testing"

	"github.com/clearops/tagwarden/internal/domain"
)

func TestValidateTagKey(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		wantErr bool
	}{
		{"valid simple key", "environment", false},
		{"valid key with dash", "cost-center", false},
		{"valid key with space", "managed by", false},
		{"empty key", "", true},
		{"angle bracket", "env<prod>", true},
		{"percent", "env%", true},
		{"ampersand", "a&b", true},
		{"backslash", `a\b`, true},
		{"question mark", "env?", true},
		{"slash", "env/prod", true},
		{"too long", strings.Repeat("k", 513), true},
		{"max length", strings.Repeat("k", 512), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateTagKey(tt.key)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateTagKey(%q) error = %v, wantErr %v", tt.key, err, tt.wantErr)
			}
		})
	}
}

func TestValidateTagValue(t *testing.T) {
	if err := ValidateTagValue(""); err != nil {
		t.Errorf("empty value must be allowed, got %v", err)
	}
	if err := ValidateTagValue(strings.Repeat("v", 256)); err != nil {
		t.Errorf("max length value rejected: %v", err)
	}
	if err := ValidateTagValue(strings.Repeat("v", 257)); err == nil {
		t.Error("over-length value accepted")
	}
}

func TestValidateEmail(t *testing.T) {
	tests := []struct {
		name    string
		email   string
		wantErr bool
	}{
		{"valid", "ops@example.com", false},
		{"valid subdomain", "a@mail.example.co.uk", false},
		{"empty", "", true},
		{"no at", "example.com", true},
		{"no local part", "@example.com", true},
		{"no domain", "ops@", true},
		{"no dot in domain", "ops@example", true},
		{"two ats", "a@b@example.com", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateEmail(tt.email)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateEmail(%q) error = %v, wantErr %v", tt.email, err, tt.wantErr)
			}
		})
	}
}

func TestValidateCreatePolicy(t *testing.T) {
	valid := domain.CreatePolicyRequest{
		Name:         "base",
		Scope:        domain.PolicyScopeGlobal,
		RequiredTags: []domain.RequiredTag{{Key: "env", Pattern: "^(dev|prod)$"}},
	}
	if err := ValidateCreatePolicy(&valid); err != nil {
		t.Errorf("valid policy rejected: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*domain.CreatePolicyRequest)
	}{
		{"missing name", func(r *domain.CreatePolicyRequest) { r.Name = " " }},
		{"unknown scope", func(r *domain.CreatePolicyRequest) { r.Scope = "tenant" }},
		{"scoped without id", func(r *domain.CreatePolicyRequest) { r.Scope = domain.PolicyScopeSubscription }},
		{"no rules", func(r *domain.CreatePolicyRequest) { r.RequiredTags = nil }},
		{"bad pattern", func(r *domain.CreatePolicyRequest) {
			r.RequiredTags = []domain.RequiredTag{{Key: "env", Pattern: "("}}
		}},
		{"bad rule key", func(r *domain.CreatePolicyRequest) {
			r.RequiredTags = []domain.RequiredTag{{Key: "env/prod"}}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid
			tt.mutate(&req)
			if err := ValidateCreatePolicy(&req); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestValidateCreateAlert(t *testing.T) {
	valid := domain.CreateAlertRequest{
		Name:       "untagged vms",
		Frequency:  domain.AlertDaily,
		Conditions: []domain.AlertCondition{{Type: domain.ConditionMissingTag, TagKey: "env"}},
		Recipients: []string{"ops@example.com"},
	}
	if err := ValidateCreateAlert(&valid); err != nil {
		t.Errorf("valid alert rejected: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*domain.CreateAlertRequest)
	}{
		{"missing name", func(r *domain.CreateAlertRequest) { r.Name = "" }},
		{"bad frequency", func(r *domain.CreateAlertRequest) { r.Frequency = "hourly" }},
		{"no conditions", func(r *domain.CreateAlertRequest) { r.Conditions = nil }},
		{"unknown condition type", func(r *domain.CreateAlertRequest) {
			r.Conditions = []domain.AlertCondition{{Type: "drift"}}
		}},
		{"missing_tag without key", func(r *domain.CreateAlertRequest) {
			r.Conditions = []domain.AlertCondition{{Type: domain.ConditionMissingTag}}
		}},
		{"invalid_tag_value without allowed values", func(r *domain.CreateAlertRequest) {
			r.Conditions = []domain.AlertCondition{{Type: domain.ConditionInvalidTagValue, TagKey: "env"}}
		}},
		{"resource_type without type", func(r *domain.CreateAlertRequest) {
			r.Conditions = []domain.AlertCondition{{Type: domain.ConditionResourceType}}
		}},
		{"cost_threshold without threshold", func(r *domain.CreateAlertRequest) {
			r.Conditions = []domain.AlertCondition{{Type: domain.ConditionCostThreshold}}
		}},
		{"no recipients", func(r *domain.CreateAlertRequest) { r.Recipients = nil }},
		{"bad recipient", func(r *domain.CreateAlertRequest) { r.Recipients = []string{"not-an-email"} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid
			tt.mutate(&req)
			if err := ValidateCreateAlert(&req); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestValidateBulkUpdate(t *testing.T) {
	valid := domain.BulkUpdateRequest{
		ResourceIDs: []string{"/subscriptions/s/resourceGroups/g/providers/p/t/r"},
		Tags:        map[string]string{"env": "prod"},
		Operation:   domain.TagOperationMerge,
	}
	if err := ValidateBulkUpdate(&valid, 10); err != nil {
		t.Errorf("valid request rejected: %v", err)
	}

	over := valid
	over.ResourceIDs = make([]string, 11)
	for i := range over.ResourceIDs {
		over.ResourceIDs[i] = "/r"
	}
	if err := ValidateBulkUpdate(&over, 10); err == nil {
		t.Error("over-cap request accepted")
	}

	empty := valid
	empty.ResourceIDs = nil
	if err := ValidateBulkUpdate(&empty, 10); err == nil {
		t.Error("empty id list accepted")
	}

	badOp := valid
	badOp.Operation = "upsert"
	if err := ValidateBulkUpdate(&badOp, 10); err == nil {
		t.Error("unknown operation accepted")
	}
}

func TestValidateUpdateTagsEmptyMap(t *testing.T) {
	// Replace with an empty map clears every tag and is allowed.
	clear := domain.UpdateTagsRequest{Tags: map[string]string{}, Operation: domain.TagOperationReplace}
	if err := ValidateUpdateTags(&clear); err != nil {
		t.Errorf("empty replace rejected: %v", err)
	}

	for _, op := range []domain.TagOperation{domain.TagOperationMerge, domain.TagOperationDelete} {
		req := domain.UpdateTagsRequest{Tags: map[string]string{}, Operation: op}
		if err := ValidateUpdateTags(&req); err == nil {
			t.Errorf("empty %s accepted", op)
		}
	}
}

func TestValidateBulkUpdateEmptyMap(t *testing.T) {
	clear := domain.BulkUpdateRequest{
		ResourceIDs: []string{"/subscriptions/s/resourceGroups/g/providers/p/t/r"},
		Tags:        map[string]string{},
		Operation:   domain.TagOperationReplace,
	}
	if err := ValidateBulkUpdate(&clear, 10); err != nil {
		t.Errorf("empty replace rejected: %v", err)
	}

	merge := clear
	merge.Operation = domain.TagOperationMerge
	if err := ValidateBulkUpdate(&merge, 10); err == nil {
		t.Error("empty merge accepted")
	}
}

func TestValidateApplyTemplate(t *testing.T) {
	valid := domain.ApplyTemplateRequest{
		ResourceIDs: []string{"/r"},
		Operation:   domain.TagOperationMerge,
	}
	if err := ValidateApplyTemplate(&valid, 10); err != nil {
		t.Errorf("valid request rejected: %v", err)
	}

	del := valid
	del.Operation = domain.TagOperationDelete
	if err := ValidateApplyTemplate(&del, 10); err == nil {
		t.Error("delete operation accepted for template apply")
	}
}

func TestValidationErrorsAggregate(t *testing.T) {
	var errs ValidationErrors
	if errs.HasErrors() {
		t.Error("empty collection reports errors")
	}
	if errs.OrNil() != nil {
		t.Error("empty collection is not nil error")
	}

	errs.Add("name", "", "name is required")
	errs.Add("tags", "", "tags must not be empty")
	if !errs.HasErrors() {
		t.Error("collection with entries reports no errors")
	}
	if !strings.Contains(errs.Error(), "and 1 more") {
		t.Errorf("aggregate message = %q", errs.Error())
	}
}
