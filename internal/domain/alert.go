package domain

import "time"

// AlertFrequency is the cadence a scheduled alert runs at.
type AlertFrequency string

const (
	AlertDaily   AlertFrequency = "daily"
	AlertWeekly  AlertFrequency = "weekly"
	AlertMonthly AlertFrequency = "monthly"
)

// Valid reports whether f is a known frequency.
func (f AlertFrequency) Valid() bool {
	switch f {
	case AlertDaily, AlertWeekly, AlertMonthly:
		return true
	}
	return false
}

// ConditionType discriminates the AlertCondition variants.
type ConditionType string

const (
	// ConditionMissingTag flags resources where TagKey is absent.
	ConditionMissingTag ConditionType = "missing_tag"
	// ConditionInvalidTagValue flags resources where TagKey is present with
	// a value outside AllowedValues. Absence of the tag is not a violation
	// under this condition.
	ConditionInvalidTagValue ConditionType = "invalid_tag_value"
	// ConditionResourceType flags resources whose type equals ResourceType.
	// Matches are flagged, not mismatches.
	ConditionResourceType ConditionType = "resource_type"
	// ConditionCostThreshold is accepted but never produces violations;
	// cost data is not wired in.
	ConditionCostThreshold ConditionType = "cost_threshold"
)

// Valid reports whether t is a known condition type.
func (t ConditionType) Valid() bool {
	switch t {
	case ConditionMissingTag, ConditionInvalidTagValue, ConditionResourceType, ConditionCostThreshold:
		return true
	}
	return false
}

// AlertCondition is one declarative check within an alert rule. Only the
// fields relevant to Type are consulted.
type AlertCondition struct {
	Type          ConditionType `json:"type"`
	TagKey        string        `json:"tagKey,omitempty"`
	TagValue      string        `json:"tagValue,omitempty"`
	AllowedValues []string      `json:"allowedValues,omitempty"`
	ResourceType  string        `json:"resourceType,omitempty"`
	Threshold     float64       `json:"threshold,omitempty"`
}

// AlertScope restricts which resources an alert inspects. Empty slices mean
// no restriction on that axis.
type AlertScope struct {
	Subscriptions  []string `json:"subscriptions,omitempty"`
	ResourceGroups []string `json:"resourceGroups,omitempty"`
}

// AlertRule is a scheduled or on-demand violation check with recipients.
type AlertRule struct {
	ID            string           `json:"id" db:"id"`
	Name          string           `json:"name" db:"name"`
	Description   string           `json:"description" db:"description"`
	Enabled       bool             `json:"enabled" db:"enabled"`
	Frequency     AlertFrequency   `json:"frequency" db:"frequency"`
	Conditions    []AlertCondition `json:"conditions" db:"-"` // stored as JSON
	Recipients    []string         `json:"recipients" db:"-"` // stored as JSON
	Scope         AlertScope       `json:"scope" db:"-"`      // stored as JSON
	LastTriggered *time.Time       `json:"lastTriggered,omitempty" db:"last_triggered"`
	Version       int              `json:"version" db:"version"`
	CreatedBy     string           `json:"createdBy" db:"created_by"`
	CreatedAt     time.Time        `json:"createdAt" db:"created_at"`
	UpdatedAt     time.Time        `json:"updatedAt" db:"updated_at"`
}

// CreateAlertRequest is the request body for creating an alert rule.
type CreateAlertRequest struct {
	Name        string           `json:"name"`
	Description string           `json:"description,omitempty"`
	Enabled     *bool            `json:"enabled,omitempty"`
	Frequency   AlertFrequency   `json:"frequency"`
	Conditions  []AlertCondition `json:"conditions"`
	Recipients  []string         `json:"recipients"`
	Scope       AlertScope       `json:"scope,omitempty"`
}

// UpdateAlertRequest is the request body for updating an alert rule.
type UpdateAlertRequest struct {
	Name        *string          `json:"name,omitempty"`
	Description *string          `json:"description,omitempty"`
	Enabled     *bool            `json:"enabled,omitempty"`
	Frequency   *AlertFrequency  `json:"frequency,omitempty"`
	Conditions  []AlertCondition `json:"conditions,omitempty"`
	Recipients  []string         `json:"recipients,omitempty"`
	Scope       *AlertScope      `json:"scope,omitempty"`
}

// Violation is one condition match on one resource. A resource may
// accumulate several violations, one per matching condition.
type Violation struct {
	ResourceID     string            `json:"resourceId"`
	ResourceName   string            `json:"resourceName"`
	ResourceType   string            `json:"resourceType"`
	ResourceGroup  string            `json:"resourceGroup"`
	SubscriptionID string            `json:"subscriptionId"`
	Location       string            `json:"location"`
	Condition      AlertCondition    `json:"condition"`
	Reason         string            `json:"reason"`
	Tags           map[string]string `json:"tags"`
}

// AlertRunSummary describes a single alert run.
type AlertRunSummary struct {
	TotalResourcesChecked int `json:"totalResourcesChecked"`
	ViolationsFound       int `json:"violationsFound"`
	AlertConditions       int `json:"alertConditions"`
}

// AlertRunResult is the outcome of running one alert rule.
type AlertRunResult struct {
	Violations []Violation     `json:"violations"`
	Summary    AlertRunSummary `json:"summary"`
}

// AlertOutcome is the per-alert record produced by a run over all enabled
// alerts. Err is captured here rather than aborting the remaining alerts.
type AlertOutcome struct {
	AlertID         string `json:"alertId"`
	AlertName       string `json:"alertName"`
	ViolationsFound int    `json:"violationsFound"`
	EmailSent       bool   `json:"emailSent"`
	Error           string `json:"error,omitempty"`
}
