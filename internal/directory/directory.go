// Package directory aggregates resource listings across subscriptions.
package directory

import (
	"context"
	"log"

	"github.com/clearops/tagwarden/internal/azure"
	"github.com/clearops/tagwarden/internal/domain"
)

// Collector fans a resource listing out over many subscriptions. The
// fan-out is sequential to bound upstream load, and a subscription whose
// listing fails is logged and skipped rather than aborting the whole
// collection. Every aggregate feature (search, reports, compliance, alert
// checks) goes through this path, so the partial-success behavior is
// uniform.
type Collector struct {
	client azure.ResourceClient
	logger *log.Logger
}

// New creates a Collector. A nil logger falls back to the default logger.
func New(client azure.ResourceClient, logger *log.Logger) *Collector {
	if logger == nil {
		logger = log.Default()
	}
	return &Collector{client: client, logger: logger}
}

// CollectResources lists resources from the given subscriptions, or from
// every subscription the token can see when subscriptionIDs is empty.
// Listing the subscriptions themselves is a single-item operation and its
// failure propagates; per-subscription listing failures do not.
func (c *Collector) CollectResources(ctx context.Context, token string, subscriptionIDs []string, filters *domain.ResourceFilters) ([]domain.Resource, error) {
	if len(subscriptionIDs) == 0 {
		subs, err := c.client.ListSubscriptions(ctx, token)
		if err != nil {
			return nil, err
		}
		for _, sub := range subs {
			subscriptionIDs = append(subscriptionIDs, sub.SubscriptionID)
		}
	}

	var all []domain.Resource
	for _, subID := range subscriptionIDs {
		resources, err := c.client.ListResources(ctx, subID, token, filters)
		if err != nil {
			c.logger.Printf("skipping subscription %s: %v", subID, err)
			continue
		}
		all = append(all, resources...)
	}
	return all, nil
}
