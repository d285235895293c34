package domain

// Resource is a cloud resource as returned by the resource-management API.
// Identity is the fully-qualified resource path in ID. Tags are an unordered
// mapping with unique keys; a missing key means the tag is not present,
// which is distinct from an empty-string value.
type Resource struct {
	ID             string            `json:"id"`
	Name           string            `json:"name"`
	Type           string            `json:"type"`
	Kind           string            `json:"kind,omitempty"`
	Location       string            `json:"location"`
	ResourceGroup  string            `json:"resourceGroup"`
	SubscriptionID string            `json:"subscriptionId"`
	Tags           map[string]string `json:"tags"`
}

// Subscription is read-only reference data fetched per request.
type Subscription struct {
	SubscriptionID string `json:"subscriptionId"`
	DisplayName    string `json:"displayName"`
	State          string `json:"state"`
	TenantID       string `json:"tenantId"`
}

// ResourceGroup is a container of resources within a subscription.
type ResourceGroup struct {
	Name     string            `json:"name"`
	Location string            `json:"location"`
	Tags     map[string]string `json:"tags"`
}

// ResourceFilters narrows a resource listing. ResourceGroupName changes the
// queried scope; ResourceType is applied server-side; TagName/TagValue are
// applied client-side after the fetch (the provider's tag-pair filter syntax
// is unreliable). TagValue is only honored when TagName is also set.
type ResourceFilters struct {
	ResourceGroupName string
	ResourceType      string
	TagName           string
	TagValue          string
}

// TagOperation selects the mutation semantics for a tag update.
type TagOperation string

const (
	// TagOperationReplace sets the resource tags to exactly the input set.
	TagOperationReplace TagOperation = "replace"
	// TagOperationMerge overwrites/adds every input key, keeping the rest.
	TagOperationMerge TagOperation = "merge"
	// TagOperationDelete removes every input key; input values are ignored.
	TagOperationDelete TagOperation = "delete"
)

// Valid reports whether op is one of the three known operations.
func (op TagOperation) Valid() bool {
	switch op {
	case TagOperationReplace, TagOperationMerge, TagOperationDelete:
		return true
	}
	return false
}

// BulkFailure records a single failed resource within a bulk operation.
type BulkFailure struct {
	ResourceID string `json:"resourceId"`
	Error      string `json:"error"`
}

// BulkOperationResult is the outcome of a bulk tag mutation. It is returned
// synchronously and never persisted. Entries accumulate in completion order,
// which is not deterministic across concurrent batch members.
type BulkOperationResult struct {
	Successful []string      `json:"successful"`
	Failed     []BulkFailure `json:"failed"`
}

// UpdateTagsRequest is the request body for updating a single resource's tags.
type UpdateTagsRequest struct {
	Tags      map[string]string `json:"tags"`
	Operation TagOperation      `json:"operation,omitempty"`
}

// BulkUpdateRequest is the request body for a bulk tag update.
type BulkUpdateRequest struct {
	ResourceIDs []string          `json:"resourceIds"`
	Tags        map[string]string `json:"tags"`
	Operation   TagOperation      `json:"operation,omitempty"`
}
