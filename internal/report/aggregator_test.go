package report

import (
	"testing"

	"github.com/clearops/tagwarden/internal/domain"
)

func estate() []domain.Resource {
	return []domain.Resource{
		{ID: "/a", Type: "Microsoft.Compute/virtualMachines", Location: "eastus", ResourceGroup: "rg-a", SubscriptionID: "sub1", Tags: map[string]string{"env": "prod", "owner": "x"}},
		{ID: "/b", Type: "Microsoft.Compute/virtualMachines", Location: "westus", ResourceGroup: "rg-a", SubscriptionID: "sub1", Tags: map[string]string{"env": "dev"}},
		{ID: "/c", Type: "Microsoft.Storage/storageAccounts", Location: "eastus", ResourceGroup: "rg-b", SubscriptionID: "sub2", Tags: map[string]string{}},
	}
}

func TestTagCoverage(t *testing.T) {
	r := TagCoverage(estate(), "tester", true)

	if r.Summary.TotalResources != 3 || r.Summary.TaggedResources != 2 || r.Summary.UntaggedResources != 1 {
		t.Fatalf("summary = %+v", r.Summary)
	}
	if r.Summary.CompliancePercentage != 67 {
		t.Errorf("percentage = %d, want 67", r.Summary.CompliancePercentage)
	}

	vm := r.ByResourceType["Microsoft.Compute/virtualMachines"]
	if vm == nil || vm.Total != 2 || vm.Tagged != 2 || vm.Percentage != 100 {
		t.Errorf("vm bucket = %+v", vm)
	}
	sa := r.ByResourceType["Microsoft.Storage/storageAccounts"]
	if sa == nil || sa.Untagged != 1 || sa.Percentage != 0 {
		t.Errorf("storage bucket = %+v", sa)
	}

	if len(r.MostCommonTags) == 0 || r.MostCommonTags[0].Tag != "env" || r.MostCommonTags[0].Count != 2 {
		t.Errorf("mostCommonTags = %+v", r.MostCommonTags)
	}

	if len(r.Untagged) != 1 || r.Untagged[0].ID != "/c" {
		t.Errorf("untagged = %+v", r.Untagged)
	}

	if r.Metadata.GeneratedBy != "tester" || r.Metadata.ReportType != "compliance" {
		t.Errorf("metadata = %+v", r.Metadata)
	}
}

func TestTagCoverageWithoutDetails(t *testing.T) {
	r := TagCoverage(estate(), "tester", false)
	if r.Untagged != nil {
		t.Errorf("details included without includeDetails")
	}
}

func TestTagCoverageEmptyEstate(t *testing.T) {
	r := TagCoverage(nil, "tester", false)
	if r.Summary.CompliancePercentage != 100 {
		t.Errorf("empty estate percentage = %d, want 100", r.Summary.CompliancePercentage)
	}
}

func TestInventory(t *testing.T) {
	r := Inventory(estate(), "tester", map[string]string{"subscriptionId": "all"}, false)

	if r.Summary.TotalResources != 3 || r.Summary.UniqueResourceTypes != 2 || r.Summary.UniqueLocations != 2 || r.Summary.UniqueResourceGroups != 2 {
		t.Fatalf("summary = %+v", r.Summary)
	}
	if r.ByType["Microsoft.Compute/virtualMachines"] != 2 {
		t.Errorf("byType = %+v", r.ByType)
	}
	if r.BySubscription["sub1"] != 2 || r.BySubscription["sub2"] != 1 {
		t.Errorf("bySubscription = %+v", r.BySubscription)
	}
	if r.Resources != nil {
		t.Error("resource list included without includeResources")
	}
}

func TestTagInventory(t *testing.T) {
	inv := TagInventory(estate())

	if inv.Summary.TotalResources != 3 || inv.Summary.ResourcesWithTags != 2 || inv.Summary.ResourcesWithoutTags != 1 {
		t.Fatalf("summary = %+v", inv.Summary)
	}
	if inv.Summary.UniqueKeys != 2 || len(inv.Keys) != 2 {
		t.Fatalf("keys = %+v", inv.Keys)
	}
	if inv.Keys[0].Key != "env" || inv.Keys[0].Count != 2 {
		t.Errorf("top key = %+v", inv.Keys[0])
	}
	if inv.Keys[0].Values["prod"] != 1 || inv.Keys[0].Values["dev"] != 1 {
		t.Errorf("env values = %+v", inv.Keys[0].Values)
	}
}

func TestCostReportIsSynthetic(t *testing.T) {
	r := Cost("tester")
	if r.Metadata.Filters["source"] != "synthetic" {
		t.Errorf("cost report not marked synthetic: %+v", r.Metadata)
	}
	if r.Summary.TotalCost == 0 || r.Summary.Currency == "" {
		t.Errorf("summary = %+v", r.Summary)
	}
}
