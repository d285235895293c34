// Package compliance evaluates tag policies and alert conditions against
// resource collections.
package compliance

import (
	"fmt"
	"math"
	"regexp"
	"slices"
	"strings"

	"github.com/clearops/tagwarden/internal/domain"
)

// Evaluator computes compliance results. It is stateless and safe for
// concurrent use.
type Evaluator struct{}

// NewEvaluator creates a new Evaluator.
func NewEvaluator() *Evaluator {
	return &Evaluator{}
}

// Percentage returns part/total as a rounded whole percentage. An empty
// set is defined as fully compliant: there is nothing to violate.
func Percentage(part, total int) int {
	if total == 0 {
		return 100
	}
	return int(math.Round(float64(part) / float64(total) * 100))
}

// compiledRule is one required-tag rule with its pattern compiled up front
// so evaluation does not recompile per resource.
type compiledRule struct {
	rt domain.RequiredTag
	re *regexp.Regexp
}

// compileRules compiles a policy's required tags. A pattern that does not
// compile is skipped; policy validation rejects those at create time.
func compileRules(policy *domain.TagPolicy) []compiledRule {
	rules := make([]compiledRule, 0, len(policy.RequiredTags))
	for _, rt := range policy.RequiredTags {
		cr := compiledRule{rt: rt}
		if rt.Pattern != "" {
			cr.re, _ = regexp.Compile(rt.Pattern)
		}
		rules = append(rules, cr)
	}
	return rules
}

// check returns the violation message for the rule against one tag set, or
// "" when compliant. A value must satisfy both the allowed-values list and
// the pattern when both are set.
func (cr compiledRule) check(tags map[string]string) (missing bool, reason string) {
	value, ok := tags[cr.rt.Key]
	if !ok {
		return true, fmt.Sprintf("Missing required tag: %s", cr.rt.Key)
	}

	if len(cr.rt.AllowedValues) > 0 && !slices.Contains(cr.rt.AllowedValues, value) {
		return false, fmt.Sprintf("Value not in allowed list: %s", strings.Join(cr.rt.AllowedValues, ", "))
	}

	if cr.re != nil && !cr.re.MatchString(value) {
		return false, fmt.Sprintf("Value does not match required pattern: %s", cr.rt.Pattern)
	}

	return false, ""
}

// Evaluate computes per-resource and per-policy compliance for the enabled
// policies. A resource is compliant only when it has zero violations across
// every enabled policy's required tags.
func (e *Evaluator) Evaluate(resources []domain.Resource, policies []*domain.TagPolicy) *domain.ComplianceResult {
	enabled := make([]*domain.TagPolicy, 0, len(policies))
	for _, p := range policies {
		if p.Enabled {
			enabled = append(enabled, p)
		}
	}

	compiled := make([][]compiledRule, len(enabled))
	for i, policy := range enabled {
		compiled[i] = compileRules(policy)
	}

	result := &domain.ComplianceResult{
		TotalResources:     len(resources),
		Violations:         []domain.ResourceViolations{},
		ComplianceByPolicy: []domain.PolicyCompliance{},
	}

	policyCompliant := make([]int, len(enabled))
	for _, resource := range resources {
		rv := domain.ResourceViolations{
			ResourceID:   resource.ID,
			ResourceName: resource.Name,
			MissingTags:  []string{},
			InvalidTags:  []domain.InvalidTag{},
		}

		for i, rules := range compiled {
			satisfied := true
			for _, cr := range rules {
				missing, reason := cr.check(resource.Tags)
				if missing {
					rv.MissingTags = append(rv.MissingTags, cr.rt.Key)
					satisfied = false
				} else if reason != "" {
					rv.InvalidTags = append(rv.InvalidTags, domain.InvalidTag{
						Key:    cr.rt.Key,
						Value:  resource.Tags[cr.rt.Key],
						Reason: reason,
					})
					satisfied = false
				}
			}
			if satisfied {
				policyCompliant[i]++
			}
		}

		if len(rv.MissingTags) == 0 && len(rv.InvalidTags) == 0 {
			result.CompliantResources++
		} else {
			result.NonCompliantResources++
			result.Violations = append(result.Violations, rv)
		}
	}

	result.CompliancePercentage = Percentage(result.CompliantResources, result.TotalResources)

	for i, policy := range enabled {
		result.ComplianceByPolicy = append(result.ComplianceByPolicy, domain.PolicyCompliance{
			PolicyID:     policy.ID,
			PolicyName:   policy.Name,
			Compliant:    policyCompliant[i],
			NonCompliant: len(resources) - policyCompliant[i],
			Percentage:   Percentage(policyCompliant[i], len(resources)),
		})
	}

	return result
}

// ValidateTags checks a proposed tag mapping against the enabled policies
// without touching any resource.
func (e *Evaluator) ValidateTags(tags map[string]string, policies []*domain.TagPolicy) *domain.TagValidationResult {
	result := &domain.TagValidationResult{
		Valid:    true,
		Errors:   []string{},
		Warnings: []string{},
	}

	for _, policy := range policies {
		if !policy.Enabled {
			continue
		}
		for _, rt := range policy.RequiredTags {
			value, ok := tags[rt.Key]
			if !ok {
				result.Errors = append(result.Errors, fmt.Sprintf("Missing required tag: %s", rt.Key))
				result.Valid = false
				continue
			}
			if len(rt.AllowedValues) > 0 && !slices.Contains(rt.AllowedValues, value) {
				result.Errors = append(result.Errors, fmt.Sprintf(
					"Tag %q has invalid value %q. Allowed values: %s", rt.Key, value, strings.Join(rt.AllowedValues, ", ")))
				result.Valid = false
			}
			if rt.Pattern != "" {
				re, err := regexp.Compile(rt.Pattern)
				if err == nil && !re.MatchString(value) {
					result.Errors = append(result.Errors, fmt.Sprintf(
						"Tag %q value %q does not match required pattern: %s", rt.Key, value, rt.Pattern))
					result.Valid = false
				}
			}
		}
	}

	return result
}

// CheckConditions evaluates alert conditions independently per condition
// per resource and returns one violation record per match.
//
// Variant semantics, preserved exactly:
//   - missing_tag flags resources where the tag key is absent
//   - invalid_tag_value flags only present tags with a value outside the
//     allowed list; absence is not a violation here
//   - resource_type flags resources whose type EQUALS the condition's type
//   - cost_threshold never flags anything (cost data is not wired in)
func (e *Evaluator) CheckConditions(resources []domain.Resource, conditions []domain.AlertCondition) []domain.Violation {
	violations := []domain.Violation{}

	for _, resource := range resources {
		for _, cond := range conditions {
			reason := conditionReason(resource, cond)
			if reason == "" {
				continue
			}
			violations = append(violations, domain.Violation{
				ResourceID:     resource.ID,
				ResourceName:   resource.Name,
				ResourceType:   resource.Type,
				ResourceGroup:  resource.ResourceGroup,
				SubscriptionID: resource.SubscriptionID,
				Location:       resource.Location,
				Condition:      cond,
				Reason:         reason,
				Tags:           resource.Tags,
			})
		}
	}

	return violations
}

// conditionReason returns the violation reason for one condition against
// one resource, or "" when the condition does not flag it.
func conditionReason(resource domain.Resource, cond domain.AlertCondition) string {
	switch cond.Type {
	case domain.ConditionMissingTag:
		if _, ok := resource.Tags[cond.TagKey]; !ok {
			return fmt.Sprintf("Missing required tag: %s", cond.TagKey)
		}
	case domain.ConditionInvalidTagValue:
		value, ok := resource.Tags[cond.TagKey]
		if ok && len(cond.AllowedValues) > 0 && !slices.Contains(cond.AllowedValues, value) {
			return fmt.Sprintf("Invalid tag value for %s: %q. Allowed values: %s",
				cond.TagKey, value, strings.Join(cond.AllowedValues, ", "))
		}
	case domain.ConditionResourceType:
		if cond.ResourceType != "" && resource.Type == cond.ResourceType {
			return fmt.Sprintf("Resource type %s matches alert condition", cond.ResourceType)
		}
	case domain.ConditionCostThreshold:
		// Cost data is not wired in; this variant is a documented no-op.
	}
	return ""
}
