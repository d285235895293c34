// Package report summarizes resource and tag data into compliance,
// inventory and cost-breakdown statistics.
package report

import (
	"sort"
	"time"

	"github.com/clearops/tagwarden/internal/compliance"
	"github.com/clearops/tagwarden/internal/domain"
)

// topTagCount caps the most-common-tags list.
const topTagCount = 10

// TagCoverage summarizes how much of the estate carries any tags at all,
// broken down by resource type and subscription. includeDetails adds the
// untagged resource list.
func TagCoverage(resources []domain.Resource, generatedBy string, includeDetails bool) *domain.TagCoverageReport {
	r := &domain.TagCoverageReport{
		Metadata: domain.ReportMetadata{
			GeneratedAt: time.Now(),
			GeneratedBy: generatedBy,
			ReportType:  "compliance",
		},
		ByResourceType: map[string]*domain.TaggingBucket{},
		BySubscription: map[string]*domain.TaggingBucket{},
	}

	tagFrequency := map[string]int{}
	var untagged []domain.Resource

	for _, res := range resources {
		tagged := len(res.Tags) > 0

		bump := func(buckets map[string]*domain.TaggingBucket, key string) {
			b := buckets[key]
			if b == nil {
				b = &domain.TaggingBucket{}
				buckets[key] = b
			}
			b.Total++
			if tagged {
				b.Tagged++
			} else {
				b.Untagged++
			}
			b.Percentage = compliance.Percentage(b.Tagged, b.Total)
		}
		bump(r.ByResourceType, res.Type)
		bump(r.BySubscription, res.SubscriptionID)

		if tagged {
			for key := range res.Tags {
				tagFrequency[key]++
			}
		} else {
			untagged = append(untagged, res)
		}
	}

	r.Summary.TotalResources = len(resources)
	r.Summary.UntaggedResources = len(untagged)
	r.Summary.TaggedResources = len(resources) - len(untagged)
	r.Summary.CompliancePercentage = compliance.Percentage(r.Summary.TaggedResources, len(resources))

	r.MostCommonTags = topTags(tagFrequency, len(resources))
	if includeDetails {
		r.Untagged = untagged
	}

	return r
}

// topTags returns the most frequent tag keys, sorted by count descending
// then key ascending for stable output.
func topTags(frequency map[string]int, total int) []domain.TagUsage {
	usage := make([]domain.TagUsage, 0, len(frequency))
	for tag, count := range frequency {
		usage = append(usage, domain.TagUsage{
			Tag:        tag,
			Count:      count,
			Percentage: compliance.Percentage(count, total),
		})
	}
	sort.Slice(usage, func(i, j int) bool {
		if usage[i].Count != usage[j].Count {
			return usage[i].Count > usage[j].Count
		}
		return usage[i].Tag < usage[j].Tag
	})
	if len(usage) > topTagCount {
		usage = usage[:topTagCount]
	}
	return usage
}

// Inventory summarizes the resource estate with type/location/subscription
// breakdowns. includeResources adds the full resource list.
func Inventory(resources []domain.Resource, generatedBy string, filters map[string]string, includeResources bool) *domain.InventoryReport {
	r := &domain.InventoryReport{
		Metadata: domain.ReportMetadata{
			GeneratedAt: time.Now(),
			GeneratedBy: generatedBy,
			ReportType:  "resources",
			Filters:     filters,
		},
		ByType:         map[string]int{},
		ByLocation:     map[string]int{},
		BySubscription: map[string]int{},
	}

	groups := map[string]struct{}{}
	for _, res := range resources {
		r.ByType[res.Type]++
		r.ByLocation[res.Location]++
		r.BySubscription[res.SubscriptionID]++
		groups[res.ResourceGroup] = struct{}{}
	}

	r.Summary.TotalResources = len(resources)
	r.Summary.UniqueResourceTypes = len(r.ByType)
	r.Summary.UniqueLocations = len(r.ByLocation)
	r.Summary.UniqueResourceGroups = len(groups)

	if includeResources {
		r.Resources = resources
	}

	return r
}

// Cost returns a placeholder cost breakdown. Cost data is not wired in;
// the figures are synthetic and the metadata says so.
func Cost(generatedBy string) *domain.CostReport {
	r := &domain.CostReport{
		Metadata: domain.ReportMetadata{
			GeneratedAt: time.Now(),
			GeneratedBy: generatedBy,
			ReportType:  "costs",
			Filters:     map[string]string{"source": "synthetic"},
		},
		ByEnvironment: []domain.CostBucket{
			{Label: "Production", Cost: 8500.00, Percentage: 68.3},
			{Label: "Development", Cost: 2390.25, Percentage: 19.2},
			{Label: "Staging", Cost: 1000.00, Percentage: 8.0},
			{Label: "Test", Cost: 560.50, Percentage: 4.5},
		},
		ByCostCenter: []domain.CostBucket{
			{Label: "IT-001", Cost: 6000.00, Percentage: 48.2},
			{Label: "IT-002", Cost: 3500.00, Percentage: 28.1},
			{Label: "IT-003", Cost: 1390.25, Percentage: 11.2},
			{Label: "Untagged", Cost: 1560.50, Percentage: 12.5},
		},
		ByType: []domain.CostBucket{
			{Label: "Microsoft.Compute/virtualMachines", Cost: 5500.00, Percentage: 44.2},
			{Label: "Microsoft.Storage/storageAccounts", Cost: 2800.00, Percentage: 22.5},
			{Label: "Microsoft.Web/sites", Cost: 1950.75, Percentage: 15.7},
			{Label: "Microsoft.Sql/servers", Cost: 1200.00, Percentage: 9.6},
			{Label: "Others", Cost: 1000.00, Percentage: 8.0},
		},
	}
	r.Summary.TotalCost = 12450.75
	r.Summary.Currency = "USD"
	r.Summary.TaggedCost = 10890.25
	r.Summary.UntaggedCost = 1560.50
	r.Summary.TaggedPercentage = 87.5
	return r
}

// TagInventory lists every tag key in use with value counts.
func TagInventory(resources []domain.Resource) *domain.TagInventory {
	byKey := map[string]*domain.TagKeyUsage{}
	withTags := 0

	for _, res := range resources {
		if len(res.Tags) > 0 {
			withTags++
		}
		for key, value := range res.Tags {
			u := byKey[key]
			if u == nil {
				u = &domain.TagKeyUsage{Key: key, Values: map[string]int{}}
				byKey[key] = u
			}
			u.Count++
			u.Values[value]++
		}
	}

	inv := &domain.TagInventory{Keys: []domain.TagKeyUsage{}}
	for _, u := range byKey {
		inv.Keys = append(inv.Keys, *u)
	}
	sort.Slice(inv.Keys, func(i, j int) bool {
		if inv.Keys[i].Count != inv.Keys[j].Count {
			return inv.Keys[i].Count > inv.Keys[j].Count
		}
		return inv.Keys[i].Key < inv.Keys[j].Key
	})

	inv.Summary.TotalResources = len(resources)
	inv.Summary.ResourcesWithTags = withTags
	inv.Summary.ResourcesWithoutTags = len(resources) - withTags
	inv.Summary.UniqueKeys = len(inv.Keys)

	return inv
}
