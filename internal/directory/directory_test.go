package directory

import (
	"bytes"
	"context"
	"errors"
	"log"
	"strings"
	"testing"

	"github.com/clearops/tagwarden/internal/domain"
)

// fakeClient serves canned subscriptions and per-subscription listings.
type fakeClient struct {
	subs     []domain.Subscription
	listings map[string][]domain.Resource
	failSubs map[string]bool
	listErr  error
}

func (f *fakeClient) ListSubscriptions(ctx context.Context, token string) ([]domain.Subscription, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.subs, nil
}

func (f *fakeClient) ListResources(ctx context.Context, subscriptionID, token string, filters *domain.ResourceFilters) ([]domain.Resource, error) {
	if f.failSubs[subscriptionID] {
		return nil, domain.NewUpstreamError(403, "forbidden")
	}
	return f.listings[subscriptionID], nil
}

func (f *fakeClient) GetResource(ctx context.Context, resourceID, token string) (*domain.Resource, error) {
	return nil, domain.ErrNotFound
}

func (f *fakeClient) ListResourceGroups(ctx context.Context, subscriptionID, token string) ([]domain.ResourceGroup, error) {
	return nil, nil
}

func (f *fakeClient) PatchResourceTags(ctx context.Context, resourceID, token string, tags map[string]string) (*domain.Resource, error) {
	return nil, domain.ErrNotFound
}

func TestCollectResourcesAllSubscriptions(t *testing.T) {
	client := &fakeClient{
		subs: []domain.Subscription{{SubscriptionID: "sub1"}, {SubscriptionID: "sub2"}},
		listings: map[string][]domain.Resource{
			"sub1": {{ID: "/a"}, {ID: "/b"}},
			"sub2": {{ID: "/c"}},
		},
	}
	collector := New(client, nil)

	resources, err := collector.CollectResources(context.Background(), "tok", nil, nil)
	if err != nil {
		t.Fatalf("CollectResources() error = %v", err)
	}
	if len(resources) != 3 {
		t.Errorf("resources = %d, want 3", len(resources))
	}
}

func TestCollectResourcesSkipsFailingSubscription(t *testing.T) {
	client := &fakeClient{
		subs: []domain.Subscription{{SubscriptionID: "sub1"}, {SubscriptionID: "sub2"}, {SubscriptionID: "sub3"}},
		listings: map[string][]domain.Resource{
			"sub1": {{ID: "/a"}},
			"sub3": {{ID: "/c"}},
		},
		failSubs: map[string]bool{"sub2": true},
	}

	var buf bytes.Buffer
	collector := New(client, log.New(&buf, "", 0))

	resources, err := collector.CollectResources(context.Background(), "tok", nil, nil)
	if err != nil {
		t.Fatalf("CollectResources() error = %v", err)
	}
	if len(resources) != 2 {
		t.Errorf("resources = %d, want 2", len(resources))
	}
	if !strings.Contains(buf.String(), "skipping subscription sub2") {
		t.Errorf("missing skip log, got %q", buf.String())
	}
}

func TestCollectResourcesSubscriptionListFailurePropagates(t *testing.T) {
	client := &fakeClient{listErr: domain.NewUpstreamError(401, "bad token")}
	collector := New(client, nil)

	_, err := collector.CollectResources(context.Background(), "tok", nil, nil)
	var upstream *domain.UpstreamError
	if !errors.As(err, &upstream) || upstream.Status != 401 {
		t.Errorf("expected upstream 401, got %v", err)
	}
}

func TestCollectResourcesExplicitSubscriptions(t *testing.T) {
	client := &fakeClient{
		// ListSubscriptions must not be needed when ids are given.
		listErr: errors.New("should not be called"),
		listings: map[string][]domain.Resource{
			"sub2": {{ID: "/c"}},
		},
	}
	collector := New(client, nil)

	resources, err := collector.CollectResources(context.Background(), "tok", []string{"sub2"}, nil)
	if err != nil {
		t.Fatalf("CollectResources() error = %v", err)
	}
	if len(resources) != 1 || resources[0].ID != "/c" {
		t.Errorf("resources = %+v", resources)
	}
}
