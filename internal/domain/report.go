package domain

import "time"

// ResourceViolations groups a non-compliant resource's problems for the
// compliance evaluation response.
type ResourceViolations struct {
	ResourceID   string       `json:"resourceId"`
	ResourceName string       `json:"resourceName"`
	MissingTags  []string     `json:"missingTags"`
	InvalidTags  []InvalidTag `json:"invalidTags"`
}

// InvalidTag describes a present tag whose value failed a policy rule.
type InvalidTag struct {
	Key    string `json:"key"`
	Value  string `json:"value"`
	Reason string `json:"reason"`
}

// PolicyCompliance is the per-policy slice of a compliance evaluation.
type PolicyCompliance struct {
	PolicyID     string `json:"policyId"`
	PolicyName   string `json:"policyName"`
	Compliant    int    `json:"compliant"`
	NonCompliant int    `json:"nonCompliant"`
	Percentage   int    `json:"percentage"`
}

// ComplianceResult is the outcome of evaluating enabled policies against a
// resource collection.
type ComplianceResult struct {
	TotalResources        int                  `json:"totalResources"`
	CompliantResources    int                  `json:"compliantResources"`
	NonCompliantResources int                  `json:"nonCompliantResources"`
	CompliancePercentage  int                  `json:"compliancePercentage"`
	Violations            []ResourceViolations `json:"violations"`
	ComplianceByPolicy    []PolicyCompliance   `json:"complianceByPolicy"`
}

// ReportMetadata is attached to every generated report.
type ReportMetadata struct {
	GeneratedAt time.Time         `json:"generatedAt"`
	GeneratedBy string            `json:"generatedBy"`
	ReportType  string            `json:"reportType"`
	Filters     map[string]string `json:"filters,omitempty"`
}

// TaggingBucket counts tagged vs untagged resources within one grouping key.
type TaggingBucket struct {
	Total      int `json:"total"`
	Tagged     int `json:"tagged"`
	Untagged   int `json:"untagged"`
	Percentage int `json:"percentage"`
}

// TagUsage records how often one tag key appears across the estate.
type TagUsage struct {
	Tag        string `json:"tag"`
	Count      int    `json:"count"`
	Percentage int    `json:"percentage"`
}

// TagCoverageReport summarizes tag coverage across resources.
type TagCoverageReport struct {
	Metadata ReportMetadata `json:"metadata"`
	Summary  struct {
		TotalResources       int `json:"totalResources"`
		TaggedResources      int `json:"taggedResources"`
		UntaggedResources    int `json:"untaggedResources"`
		CompliancePercentage int `json:"compliancePercentage"`
	} `json:"summary"`
	ByResourceType map[string]*TaggingBucket `json:"byResourceType"`
	BySubscription map[string]*TaggingBucket `json:"bySubscription"`
	MostCommonTags []TagUsage                `json:"mostCommonTags"`
	Untagged       []Resource                `json:"untagged,omitempty"`
}

// InventoryReport summarizes the resource estate.
type InventoryReport struct {
	Metadata ReportMetadata `json:"metadata"`
	Summary  struct {
		TotalResources       int `json:"totalResources"`
		UniqueResourceTypes  int `json:"uniqueResourceTypes"`
		UniqueLocations      int `json:"uniqueLocations"`
		UniqueResourceGroups int `json:"uniqueResourceGroups"`
	} `json:"summary"`
	ByType         map[string]int `json:"byType"`
	ByLocation     map[string]int `json:"byLocation"`
	BySubscription map[string]int `json:"bySubscription"`
	Resources      []Resource     `json:"resources,omitempty"`
}

// CostBucket is one slice of a cost breakdown.
type CostBucket struct {
	Label      string  `json:"label"`
	Cost       float64 `json:"cost"`
	Percentage float64 `json:"percentage"`
}

// CostReport is a placeholder cost breakdown. Cost data is not wired in;
// the figures are synthetic and marked as such in the metadata.
type CostReport struct {
	Metadata ReportMetadata `json:"metadata"`
	Summary  struct {
		TotalCost        float64 `json:"totalCost"`
		Currency         string  `json:"currency"`
		TaggedCost       float64 `json:"taggedResourcesCost"`
		UntaggedCost     float64 `json:"untaggedResourcesCost"`
		TaggedPercentage float64 `json:"taggedPercentage"`
	} `json:"summary"`
	ByEnvironment []CostBucket `json:"byEnvironment"`
	ByCostCenter  []CostBucket `json:"byCostCenter"`
	ByType        []CostBucket `json:"byResourceType"`
}

// TagInventory lists every tag key in use with its values and counts.
type TagInventory struct {
	Keys    []TagKeyUsage `json:"keys"`
	Summary struct {
		TotalResources       int `json:"totalResources"`
		ResourcesWithTags    int `json:"resourcesWithTags"`
		ResourcesWithoutTags int `json:"resourcesWithoutTags"`
		UniqueKeys           int `json:"uniqueKeys"`
	} `json:"summary"`
}

// TagKeyUsage is one entry of the tag inventory.
type TagKeyUsage struct {
	Key    string         `json:"key"`
	Count  int            `json:"count"`
	Values map[string]int `json:"values"`
}
