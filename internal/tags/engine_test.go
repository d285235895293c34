package tags

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/clearops/tagwarden/internal/domain"
)

// fakeClient is an in-memory ResourceClient for engine tests.
type fakeClient struct {
	mu         sync.Mutex
	resources  map[string]map[string]string
	failIDs    map[string]bool
	patchCount int
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		resources: map[string]map[string]string{},
		failIDs:   map[string]bool{},
	}
}

func (f *fakeClient) ListSubscriptions(ctx context.Context, token string) ([]domain.Subscription, error) {
	return nil, nil
}

func (f *fakeClient) ListResources(ctx context.Context, subscriptionID, token string, filters *domain.ResourceFilters) ([]domain.Resource, error) {
	return nil, nil
}

func (f *fakeClient) ListResourceGroups(ctx context.Context, subscriptionID, token string) ([]domain.ResourceGroup, error) {
	return nil, nil
}

func (f *fakeClient) GetResource(ctx context.Context, resourceID, token string) (*domain.Resource, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	tags, ok := f.resources[resourceID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	copied := map[string]string{}
	for k, v := range tags {
		copied[k] = v
	}
	return &domain.Resource{ID: resourceID, Tags: copied}, nil
}

func (f *fakeClient) PatchResourceTags(ctx context.Context, resourceID, token string, tags map[string]string) (*domain.Resource, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.patchCount++
	if f.failIDs[resourceID] {
		return nil, domain.NewUpstreamError(429, "throttled")
	}
	if _, ok := f.resources[resourceID]; !ok {
		return nil, domain.NewUpstreamError(404, "resource not found")
	}
	copied := map[string]string{}
	for k, v := range tags {
		copied[k] = v
	}
	f.resources[resourceID] = copied
	return &domain.Resource{ID: resourceID, Tags: copied}, nil
}

func TestApply(t *testing.T) {
	tests := []struct {
		name    string
		current map[string]string
		input   map[string]string
		op      domain.TagOperation
		want    map[string]string
	}{
		{
			"replace drops everything else",
			map[string]string{"env": "dev", "team": "a"},
			map[string]string{"env": "prod"},
			domain.TagOperationReplace,
			map[string]string{"env": "prod"},
		},
		{
			"replace with empty input clears tags",
			map[string]string{"env": "dev"},
			map[string]string{},
			domain.TagOperationReplace,
			map[string]string{},
		},
		{
			"merge overwrites and keeps",
			map[string]string{"env": "dev", "team": "a"},
			map[string]string{"env": "prod", "owner": "b"},
			domain.TagOperationMerge,
			map[string]string{"env": "prod", "team": "a", "owner": "b"},
		},
		{
			"merge accepts empty value as present",
			map[string]string{"team": "a"},
			map[string]string{"env": ""},
			domain.TagOperationMerge,
			map[string]string{"team": "a", "env": ""},
		},
		{
			"delete removes keys and ignores values",
			map[string]string{"env": "dev", "team": "a"},
			map[string]string{"env": "whatever"},
			domain.TagOperationDelete,
			map[string]string{"team": "a"},
		},
		{
			"delete of absent key is a no-op",
			map[string]string{"team": "a"},
			map[string]string{"env": ""},
			domain.TagOperationDelete,
			map[string]string{"team": "a"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Apply(tt.current, tt.input, tt.op)
			if len(got) != len(tt.want) {
				t.Fatalf("Apply() = %v, want %v", got, tt.want)
			}
			for k, v := range tt.want {
				if gv, ok := got[k]; !ok || gv != v {
					t.Errorf("Apply()[%q] = %q (present=%t), want %q", k, gv, ok, v)
				}
			}
		})
	}
}

func TestApplyDoesNotMutateInputs(t *testing.T) {
	current := map[string]string{"env": "dev"}
	input := map[string]string{"env": "prod"}

	_ = Apply(current, input, domain.TagOperationMerge)
	_ = Apply(current, input, domain.TagOperationReplace)
	_ = Apply(current, input, domain.TagOperationDelete)

	if current["env"] != "dev" {
		t.Errorf("current mutated: %v", current)
	}
	if input["env"] != "prod" {
		t.Errorf("input mutated: %v", input)
	}
}

func TestUpdateTagsMergeReadsCurrent(t *testing.T) {
	client := newFakeClient()
	client.resources["/r1"] = map[string]string{"team": "a"}
	engine := NewEngine(client, 0, 0)

	got, err := engine.UpdateTags(context.Background(), "/r1", map[string]string{"env": "prod"}, domain.TagOperationMerge, "tok")
	if err != nil {
		t.Fatalf("UpdateTags() error = %v", err)
	}
	if got.Tags["team"] != "a" || got.Tags["env"] != "prod" {
		t.Errorf("merged tags = %v", got.Tags)
	}
}

func TestUpdateTagsReplaceSkipsRead(t *testing.T) {
	client := newFakeClient()
	client.resources["/r1"] = map[string]string{"team": "a"}
	engine := NewEngine(client, 0, 0)

	got, err := engine.UpdateTags(context.Background(), "/r1", map[string]string{"env": "prod"}, domain.TagOperationReplace, "tok")
	if err != nil {
		t.Fatalf("UpdateTags() error = %v", err)
	}
	if _, ok := got.Tags["team"]; ok {
		t.Errorf("replace kept old tag: %v", got.Tags)
	}
}

func TestUpdateTagsMissingResource(t *testing.T) {
	client := newFakeClient()
	engine := NewEngine(client, 0, 0)

	_, err := engine.UpdateTags(context.Background(), "/gone", map[string]string{"env": "prod"}, domain.TagOperationMerge, "tok")
	if err == nil {
		t.Fatal("expected error for missing resource")
	}
	var upstream *domain.UpstreamError
	if !errors.As(err, &upstream) || upstream.Status != 404 {
		t.Errorf("expected upstream 404, got %v", err)
	}
}

func TestBulkUpdateTagsPartialFailure(t *testing.T) {
	client := newFakeClient()
	var ids []string
	for i := 0; i < 25; i++ {
		id := fmt.Sprintf("/r%d", i)
		ids = append(ids, id)
		client.resources[id] = map[string]string{}
		if i%5 == 0 {
			client.failIDs[id] = true
		}
	}
	engine := NewEngine(client, 10, 1)

	result := engine.BulkUpdateTags(context.Background(), ids, map[string]string{"env": "prod"}, domain.TagOperationMerge, "tok")

	if len(result.Successful)+len(result.Failed) != len(ids) {
		t.Fatalf("processed %d+%d ids, want %d", len(result.Successful), len(result.Failed), len(ids))
	}
	if len(result.Failed) != 5 {
		t.Errorf("failed = %d, want 5", len(result.Failed))
	}
	for _, f := range result.Failed {
		if !client.failIDs[f.ResourceID] {
			t.Errorf("unexpected failure for %s", f.ResourceID)
		}
		if !strings.Contains(f.Error, "throttled") {
			t.Errorf("failure message = %q", f.Error)
		}
	}
	for _, id := range result.Successful {
		if client.failIDs[id] {
			t.Errorf("failing id %s reported successful", id)
		}
	}
}

func TestBulkUpdateTagsEmpty(t *testing.T) {
	engine := NewEngine(newFakeClient(), 0, 0)

	result := engine.BulkUpdateTags(context.Background(), nil, map[string]string{"env": "prod"}, domain.TagOperationMerge, "tok")
	if result == nil || len(result.Successful) != 0 || len(result.Failed) != 0 {
		t.Errorf("empty bulk result = %+v", result)
	}
}
