// Package validation provides request validation for tag governance
// entities. Tag name and value limits follow the Azure Resource Manager
// rules documented at
// https://learn.microsoft.com/azure/azure-resource-manager/management/tag-resources
package validation

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/clearops/tagwarden/internal/domain"
)

const (
	maxTagKeyLength   = 512
	maxTagValueLength = 256
	maxTagsPerRequest = 50
)

// invalidTagKeyChars are rejected in tag names by Resource Manager.
const invalidTagKeyChars = `<>%&\?/`

// ValidateTagKey validates a single tag name.
func ValidateTagKey(key string) error {
	if key == "" {
		return fmt.Errorf("tag name must not be empty")
	}
	if len(key) > maxTagKeyLength {
		return fmt.Errorf("tag name must be at most %d characters", maxTagKeyLength)
	}
	if strings.ContainsAny(key, invalidTagKeyChars) {
		return fmt.Errorf("tag name must not contain any of %s", invalidTagKeyChars)
	}
	return nil
}

// ValidateTagValue validates a single tag value. Empty values are allowed;
// an empty value is a present tag.
func ValidateTagValue(value string) error {
	if len(value) > maxTagValueLength {
		return fmt.Errorf("tag value must be at most %d characters", maxTagValueLength)
	}
	return nil
}

// ValidateTags validates a tag mapping. field names the request field the
// mapping came from.
func ValidateTags(field string, tags map[string]string, errs *ValidationErrors) {
	if len(tags) > maxTagsPerRequest {
		errs.Add(field, "", fmt.Sprintf("at most %d tags per request", maxTagsPerRequest))
	}
	for key, value := range tags {
		if err := ValidateTagKey(key); err != nil {
			errs.Add(field, key, err.Error())
		}
		if err := ValidateTagValue(value); err != nil {
			errs.Add(field, key, err.Error())
		}
	}
}

// ValidateEmail validates an email address loosely: one '@' with a
// non-empty local part and a domain containing a dot.
func ValidateEmail(email string) error {
	if email == "" {
		return fmt.Errorf("email must not be empty")
	}
	at := strings.Index(email, "@")
	if at < 1 {
		return fmt.Errorf("email must contain '@' after at least one character")
	}
	domainPart := email[at+1:]
	if domainPart == "" {
		return fmt.Errorf("email must have domain after '@'")
	}
	if !strings.Contains(domainPart, ".") || strings.Contains(domainPart, "@") {
		return fmt.Errorf("email domain is not valid")
	}
	return nil
}

// ValidatePattern checks that a policy pattern compiles as a regular
// expression.
func ValidatePattern(pattern string) error {
	if pattern == "" {
		return nil
	}
	if _, err := regexp.Compile(pattern); err != nil {
		return fmt.Errorf("pattern does not compile: %v", err)
	}
	return nil
}

// ValidateCreateTemplate validates a template creation request.
func ValidateCreateTemplate(req *domain.CreateTemplateRequest) error {
	var errs ValidationErrors
	if strings.TrimSpace(req.Name) == "" {
		errs.Add("name", req.Name, "name is required")
	}
	if len(req.Tags) == 0 {
		errs.Add("tags", "", "at least one tag is required")
	}
	ValidateTags("tags", req.Tags, &errs)
	return errs.OrNil()
}

// ValidateUpdateTemplate validates a template update request.
func ValidateUpdateTemplate(req *domain.UpdateTemplateRequest) error {
	var errs ValidationErrors
	if req.Name != nil && strings.TrimSpace(*req.Name) == "" {
		errs.Add("name", *req.Name, "name must not be empty")
	}
	if req.Tags != nil {
		if len(req.Tags) == 0 {
			errs.Add("tags", "", "at least one tag is required")
		}
		ValidateTags("tags", req.Tags, &errs)
	}
	return errs.OrNil()
}

// ValidateRequiredTags validates a policy's required tag rules.
func ValidateRequiredTags(rules []domain.RequiredTag, errs *ValidationErrors) {
	if len(rules) == 0 {
		errs.Add("requiredTags", "", "at least one required tag is needed")
		return
	}
	for i, rule := range rules {
		field := fmt.Sprintf("requiredTags[%d]", i)
		if err := ValidateTagKey(rule.Key); err != nil {
			errs.Add(field+".key", rule.Key, err.Error())
		}
		for _, v := range rule.AllowedValues {
			if err := ValidateTagValue(v); err != nil {
				errs.Add(field+".allowedValues", v, err.Error())
			}
		}
		if err := ValidatePattern(rule.Pattern); err != nil {
			errs.Add(field+".pattern", rule.Pattern, err.Error())
		}
	}
}

// ValidateCreatePolicy validates a policy creation request.
func ValidateCreatePolicy(req *domain.CreatePolicyRequest) error {
	var errs ValidationErrors
	if strings.TrimSpace(req.Name) == "" {
		errs.Add("name", req.Name, "name is required")
	}
	if req.Scope != "" && !req.Scope.Valid() {
		errs.Add("scope", string(req.Scope), "scope must be global, subscription, or resourceGroup")
	}
	if req.Scope != "" && req.Scope != domain.PolicyScopeGlobal && req.ScopeID == "" {
		errs.Add("scopeId", "", fmt.Sprintf("scopeId is required for %s scope", req.Scope))
	}
	ValidateRequiredTags(req.RequiredTags, &errs)
	return errs.OrNil()
}

// ValidateUpdatePolicy validates a policy update request.
func ValidateUpdatePolicy(req *domain.UpdatePolicyRequest) error {
	var errs ValidationErrors
	if req.Name != nil && strings.TrimSpace(*req.Name) == "" {
		errs.Add("name", *req.Name, "name must not be empty")
	}
	if req.Scope != nil && !req.Scope.Valid() {
		errs.Add("scope", string(*req.Scope), "scope must be global, subscription, or resourceGroup")
	}
	if req.RequiredTags != nil {
		ValidateRequiredTags(req.RequiredTags, &errs)
	}
	return errs.OrNil()
}

// ValidateConditions validates alert conditions, including the per-type
// field requirements.
func ValidateConditions(conditions []domain.AlertCondition, errs *ValidationErrors) {
	if len(conditions) == 0 {
		errs.Add("conditions", "", "at least one condition is required")
		return
	}
	for i, c := range conditions {
		field := fmt.Sprintf("conditions[%d]", i)
		if !c.Type.Valid() {
			errs.Add(field+".type", string(c.Type), "unknown condition type")
			continue
		}
		switch c.Type {
		case domain.ConditionMissingTag:
			if c.TagKey == "" {
				errs.Add(field+".tagKey", "", "tagKey is required for missing_tag conditions")
			}
		case domain.ConditionInvalidTagValue:
			if c.TagKey == "" {
				errs.Add(field+".tagKey", "", "tagKey is required for invalid_tag_value conditions")
			}
			if len(c.AllowedValues) == 0 {
				errs.Add(field+".allowedValues", "", "allowedValues is required for invalid_tag_value conditions")
			}
		case domain.ConditionResourceType:
			if c.ResourceType == "" {
				errs.Add(field+".resourceType", "", "resourceType is required for resource_type conditions")
			}
		case domain.ConditionCostThreshold:
			if c.Threshold <= 0 {
				errs.Add(field+".threshold", "", "threshold must be positive for cost_threshold conditions")
			}
		}
	}
}

// ValidateCreateAlert validates an alert creation request.
func ValidateCreateAlert(req *domain.CreateAlertRequest) error {
	var errs ValidationErrors
	if strings.TrimSpace(req.Name) == "" {
		errs.Add("name", req.Name, "name is required")
	}
	if !req.Frequency.Valid() {
		errs.Add("frequency", string(req.Frequency), "frequency must be daily, weekly, or monthly")
	}
	ValidateConditions(req.Conditions, &errs)
	if len(req.Recipients) == 0 {
		errs.Add("recipients", "", "at least one recipient is required")
	}
	for _, r := range req.Recipients {
		if err := ValidateEmail(r); err != nil {
			errs.Add("recipients", r, err.Error())
		}
	}
	return errs.OrNil()
}

// ValidateUpdateAlert validates an alert update request.
func ValidateUpdateAlert(req *domain.UpdateAlertRequest) error {
	var errs ValidationErrors
	if req.Name != nil && strings.TrimSpace(*req.Name) == "" {
		errs.Add("name", *req.Name, "name must not be empty")
	}
	if req.Frequency != nil && !req.Frequency.Valid() {
		errs.Add("frequency", string(*req.Frequency), "frequency must be daily, weekly, or monthly")
	}
	if req.Conditions != nil {
		ValidateConditions(req.Conditions, &errs)
	}
	if req.Recipients != nil {
		if len(req.Recipients) == 0 {
			errs.Add("recipients", "", "at least one recipient is required")
		}
		for _, r := range req.Recipients {
			if err := ValidateEmail(r); err != nil {
				errs.Add("recipients", r, err.Error())
			}
		}
	}
	return errs.OrNil()
}

// ValidateUpdateTags validates a single-resource tag update request. An
// empty tag map is allowed only for replace, which clears every tag; merge
// and delete with no tags are no-ops and rejected.
func ValidateUpdateTags(req *domain.UpdateTagsRequest) error {
	var errs ValidationErrors
	if req.Operation != "" && !req.Operation.Valid() {
		errs.Add("operation", string(req.Operation), "operation must be replace, merge, or delete")
	}
	if len(req.Tags) == 0 && req.Operation != domain.TagOperationReplace {
		errs.Add("tags", "", "tags must not be empty unless operation is replace")
	}
	ValidateTags("tags", req.Tags, &errs)
	return errs.OrNil()
}

// ValidateBulkUpdate validates a bulk tag update request against the
// configured id cap.
func ValidateBulkUpdate(req *domain.BulkUpdateRequest, maxIDs int) error {
	var errs ValidationErrors
	if req.Operation != "" && !req.Operation.Valid() {
		errs.Add("operation", string(req.Operation), "operation must be replace, merge, or delete")
	}
	if len(req.ResourceIDs) == 0 {
		errs.Add("resourceIds", "", "resourceIds must not be empty")
	}
	if maxIDs > 0 && len(req.ResourceIDs) > maxIDs {
		errs.Add("resourceIds", "", fmt.Sprintf("at most %d resource ids per request", maxIDs))
	}
	for _, id := range req.ResourceIDs {
		if strings.TrimSpace(id) == "" {
			errs.Add("resourceIds", id, "resource id must not be empty")
			break
		}
	}
	if len(req.Tags) == 0 && req.Operation != domain.TagOperationReplace {
		errs.Add("tags", "", "tags must not be empty unless operation is replace")
	}
	ValidateTags("tags", req.Tags, &errs)
	return errs.OrNil()
}

// ValidateApplyTemplate validates a template application request. Delete is
// rejected here; applying a template only sets tags.
func ValidateApplyTemplate(req *domain.ApplyTemplateRequest, maxIDs int) error {
	var errs ValidationErrors
	if req.Operation != "" {
		if !req.Operation.Valid() {
			errs.Add("operation", string(req.Operation), "operation must be replace or merge")
		} else if req.Operation == domain.TagOperationDelete {
			errs.Add("operation", string(req.Operation), "delete is not supported when applying a template")
		}
	}
	if len(req.ResourceIDs) == 0 {
		errs.Add("resourceIds", "", "resourceIds must not be empty")
	}
	if maxIDs > 0 && len(req.ResourceIDs) > maxIDs {
		errs.Add("resourceIds", "", fmt.Sprintf("at most %d resource ids per request", maxIDs))
	}
	return errs.OrNil()
}
