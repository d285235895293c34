// Package azure talks to the Azure Resource Manager REST API. Every call
// authenticates with a caller-supplied bearer token, which is why the
// official SDK (credential bound at construction) is not used here.
package azure

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/clearops/tagwarden/internal/domain"
)

const apiVersion = "2021-04-01"
const subscriptionsAPIVersion = "2020-01-01"

// ResourceClient defines the interface for the resource-management API.
type ResourceClient interface {
	ListSubscriptions(ctx context.Context, token string) ([]domain.Subscription, error)
	ListResources(ctx context.Context, subscriptionID, token string, filters *domain.ResourceFilters) ([]domain.Resource, error)
	GetResource(ctx context.Context, resourceID, token string) (*domain.Resource, error)
	ListResourceGroups(ctx context.Context, subscriptionID, token string) ([]domain.ResourceGroup, error)
	PatchResourceTags(ctx context.Context, resourceID, token string, tags map[string]string) (*domain.Resource, error)
}

// Client is the HTTP implementation of ResourceClient.
type Client struct {
	baseURL string
	http    *http.Client
}

// Ensure Client implements ResourceClient.
var _ ResourceClient = (*Client)(nil)

// New creates a new Resource Manager client. baseURL is normally
// https://management.azure.com.
func New(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 60 * time.Second},
	}
}

// armResource is the wire shape of a resource.
type armResource struct {
	ID       string            `json:"id"`
	Name     string            `json:"name"`
	Type     string            `json:"type"`
	Kind     string            `json:"kind"`
	Location string            `json:"location"`
	Tags     map[string]string `json:"tags"`
}

// ListSubscriptions lists all subscriptions the token can see.
func (c *Client) ListSubscriptions(ctx context.Context, token string) ([]domain.Subscription, error) {
	u := fmt.Sprintf("%s/subscriptions?api-version=%s", c.baseURL, subscriptionsAPIVersion)

	var page struct {
		Value []domain.Subscription `json:"value"`
	}
	if err := c.do(ctx, http.MethodGet, u, token, nil, &page); err != nil {
		return nil, err
	}
	return page.Value, nil
}

// ListResources lists resources in a subscription. A resourceGroupName
// filter changes the queried scope; a resourceType filter is applied
// server-side; tag filters are applied client-side after the fetch.
func (c *Client) ListResources(ctx context.Context, subscriptionID, token string, filters *domain.ResourceFilters) ([]domain.Resource, error) {
	u := fmt.Sprintf("%s/subscriptions/%s/resources?api-version=%s", c.baseURL, subscriptionID, apiVersion)
	if filters != nil && filters.ResourceGroupName != "" {
		u = fmt.Sprintf("%s/subscriptions/%s/resourceGroups/%s/resources?api-version=%s",
			c.baseURL, subscriptionID, filters.ResourceGroupName, apiVersion)
	}
	if filters != nil && filters.ResourceType != "" {
		u += "&$filter=" + url.QueryEscape(fmt.Sprintf("resourceType eq '%s'", filters.ResourceType))
	}

	var page struct {
		Value []armResource `json:"value"`
	}
	if err := c.do(ctx, http.MethodGet, u, token, nil, &page); err != nil {
		return nil, err
	}

	resources := make([]domain.Resource, 0, len(page.Value))
	for _, r := range page.Value {
		resources = append(resources, fromARM(r, subscriptionID))
	}

	return FilterByTags(resources, filters), nil
}

// GetResource fetches a single resource by its fully-qualified id. A 404
// from the provider is reported as domain.ErrNotFound, not an upstream
// error.
func (c *Client) GetResource(ctx context.Context, resourceID, token string) (*domain.Resource, error) {
	u := fmt.Sprintf("%s%s?api-version=%s", c.baseURL, resourceID, apiVersion)

	var r armResource
	if err := c.do(ctx, http.MethodGet, u, token, nil, &r); err != nil {
		var ue *domain.UpstreamError
		if errors.As(err, &ue) && ue.Status == http.StatusNotFound {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}

	res := fromARM(r, SubscriptionIDFromResourceID(r.ID))
	return &res, nil
}

// ListResourceGroups lists the resource groups of a subscription.
func (c *Client) ListResourceGroups(ctx context.Context, subscriptionID, token string) ([]domain.ResourceGroup, error) {
	u := fmt.Sprintf("%s/subscriptions/%s/resourcegroups?api-version=%s", c.baseURL, subscriptionID, apiVersion)

	var page struct {
		Value []domain.ResourceGroup `json:"value"`
	}
	if err := c.do(ctx, http.MethodGet, u, token, nil, &page); err != nil {
		return nil, err
	}
	for i := range page.Value {
		if page.Value[i].Tags == nil {
			page.Value[i].Tags = map[string]string{}
		}
	}
	return page.Value, nil
}

// PatchResourceTags replaces the resource's tag set with exactly the given
// mapping via a PATCH call. Merge/delete semantics are composed on top of
// this by the tag engine. There is no If-Match check: the write is last
// writer wins, matching the provider's own tagging behavior.
func (c *Client) PatchResourceTags(ctx context.Context, resourceID, token string, tags map[string]string) (*domain.Resource, error) {
	u := fmt.Sprintf("%s%s?api-version=%s", c.baseURL, resourceID, apiVersion)

	body := map[string]any{"tags": tags}

	var r armResource
	if err := c.do(ctx, http.MethodPatch, u, token, body, &r); err != nil {
		return nil, err
	}

	res := fromARM(r, SubscriptionIDFromResourceID(r.ID))
	return &res, nil
}

// do performs one API call and decodes the response into out.
func (c *Client) do(ctx context.Context, method, u, token string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reqBody)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return domain.NewUpstreamError(0, err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return domain.NewUpstreamError(resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// fromARM converts a wire resource into the domain shape.
func fromARM(r armResource, subscriptionID string) domain.Resource {
	tags := r.Tags
	if tags == nil {
		tags = map[string]string{}
	}
	return domain.Resource{
		ID:             r.ID,
		Name:           r.Name,
		Type:           r.Type,
		Kind:           r.Kind,
		Location:       r.Location,
		ResourceGroup:  ResourceGroupFromResourceID(r.ID),
		SubscriptionID: subscriptionID,
		Tags:           tags,
	}
}

// FilterByTags applies the client-side tag filters. TagValue is only
// honored when TagName is set as well.
func FilterByTags(resources []domain.Resource, filters *domain.ResourceFilters) []domain.Resource {
	if filters == nil || filters.TagName == "" {
		return resources
	}

	out := resources[:0:0]
	for _, r := range resources {
		value, ok := r.Tags[filters.TagName]
		if !ok {
			continue
		}
		if filters.TagValue != "" && value != filters.TagValue {
			continue
		}
		out = append(out, r)
	}
	return out
}

// ResourceGroupFromResourceID extracts the resource group segment from a
// fully-qualified resource id, or "" when absent.
func ResourceGroupFromResourceID(id string) string {
	return pathSegmentAfter(id, "resourceGroups")
}

// SubscriptionIDFromResourceID extracts the subscription segment from a
// fully-qualified resource id, or "" when absent.
func SubscriptionIDFromResourceID(id string) string {
	return pathSegmentAfter(id, "subscriptions")
}

func pathSegmentAfter(id, marker string) string {
	parts := strings.Split(id, "/")
	for i, p := range parts {
		if strings.EqualFold(p, marker) && i+1 < len(parts) {
			return parts[i+1]
		}
	}
	return ""
}
