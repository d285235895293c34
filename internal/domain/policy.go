package domain

import "time"

// PolicyScope restricts where a policy applies.
type PolicyScope string

const (
	PolicyScopeGlobal        PolicyScope = "global"
	PolicyScopeSubscription  PolicyScope = "subscription"
	PolicyScopeResourceGroup PolicyScope = "resourceGroup"
)

// Valid reports whether s is a known scope.
func (s PolicyScope) Valid() bool {
	switch s {
	case PolicyScopeGlobal, PolicyScopeSubscription, PolicyScopeResourceGroup:
		return true
	}
	return false
}

// RequiredTag is one rule within a policy. When both AllowedValues and
// Pattern are set a tag value must satisfy both to be compliant.
type RequiredTag struct {
	Key           string   `json:"key"`
	Description   string   `json:"description,omitempty"`
	AllowedValues []string `json:"allowedValues,omitempty"`
	Pattern       string   `json:"pattern,omitempty"`
}

// TagPolicy is a named set of required tags used for compliance scoring.
type TagPolicy struct {
	ID           string        `json:"id" db:"id"`
	Name         string        `json:"name" db:"name"`
	Description  string        `json:"description" db:"description"`
	Scope        PolicyScope   `json:"scope" db:"scope"`
	ScopeID      string        `json:"scopeId,omitempty" db:"scope_id"`
	RequiredTags []RequiredTag `json:"requiredTags" db:"-"` // stored as JSON
	Enabled      bool          `json:"enabled" db:"enabled"`
	Version      int           `json:"version" db:"version"`
	CreatedBy    string        `json:"createdBy" db:"created_by"`
	CreatedAt    time.Time     `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time     `json:"updatedAt" db:"updated_at"`
}

// CreatePolicyRequest is the request body for creating a policy.
type CreatePolicyRequest struct {
	Name         string        `json:"name"`
	Description  string        `json:"description,omitempty"`
	Scope        PolicyScope   `json:"scope"`
	ScopeID      string        `json:"scopeId,omitempty"`
	RequiredTags []RequiredTag `json:"requiredTags"`
	Enabled      *bool         `json:"enabled,omitempty"`
}

// UpdatePolicyRequest is the request body for updating a policy.
type UpdatePolicyRequest struct {
	Name         *string       `json:"name,omitempty"`
	Description  *string       `json:"description,omitempty"`
	Scope        *PolicyScope  `json:"scope,omitempty"`
	ScopeID      *string       `json:"scopeId,omitempty"`
	RequiredTags []RequiredTag `json:"requiredTags,omitempty"`
	Enabled      *bool         `json:"enabled,omitempty"`
}

// TagValidationResult is the outcome of validating a proposed tag mapping
// against the enabled policies, without touching any resource.
type TagValidationResult struct {
	Valid    bool     `json:"valid"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}
