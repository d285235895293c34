// Package tags implements the tag mutation engine: replace, merge and
// delete semantics applied to one or many resources.
package tags

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/clearops/tagwarden/internal/azure"
	"github.com/clearops/tagwarden/internal/domain"
)

const (
	// DefaultBatchSize is the number of concurrent updates per bulk batch.
	DefaultBatchSize = 10
	// DefaultBatchDelay is the pause inserted between bulk batches to
	// respect upstream rate limits.
	DefaultBatchDelay = 100 * time.Millisecond
)

// Engine applies tag mutations through the resource-management API.
type Engine struct {
	client     azure.ResourceClient
	batchSize  int
	batchDelay time.Duration
}

// NewEngine creates an Engine. Zero batchSize/batchDelay fall back to the
// defaults.
func NewEngine(client azure.ResourceClient, batchSize int, batchDelay time.Duration) *Engine {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	if batchDelay <= 0 {
		batchDelay = DefaultBatchDelay
	}
	return &Engine{client: client, batchSize: batchSize, batchDelay: batchDelay}
}

// Apply computes the new tag set for a resource with current tags current
// and input tags input under the given operation:
//
//	replace: the result is exactly input
//	merge:   current with every input key overwritten or added
//	delete:  current minus every input key (input values are ignored)
//
// The inputs are never mutated.
func Apply(current, input map[string]string, op domain.TagOperation) map[string]string {
	switch op {
	case domain.TagOperationReplace:
		out := make(map[string]string, len(input))
		for k, v := range input {
			out[k] = v
		}
		return out
	case domain.TagOperationMerge:
		out := make(map[string]string, len(current)+len(input))
		for k, v := range current {
			out[k] = v
		}
		for k, v := range input {
			out[k] = v
		}
		return out
	case domain.TagOperationDelete:
		out := make(map[string]string, len(current))
		for k, v := range current {
			if _, drop := input[k]; !drop {
				out[k] = v
			}
		}
		return out
	}
	return current
}

// UpdateTags applies one operation to one resource. Merge and delete need
// the current tag set, so they read before writing; the read-modify-write
// is not atomic against concurrent external mutation (last writer wins,
// there is no If-Match on the PATCH). Failures of either the read or the
// write propagate to the caller.
func (e *Engine) UpdateTags(ctx context.Context, resourceID string, tags map[string]string, op domain.TagOperation, token string) (*domain.Resource, error) {
	current := map[string]string{}

	if op == domain.TagOperationMerge || op == domain.TagOperationDelete {
		resource, err := e.client.GetResource(ctx, resourceID, token)
		switch {
		case err == nil:
			current = resource.Tags
		case errors.Is(err, domain.ErrNotFound):
			// Let the PATCH surface the provider's own error for a
			// missing resource.
		default:
			return nil, err
		}
	}

	return e.client.PatchResourceTags(ctx, resourceID, token, Apply(current, tags, op))
}

// BulkUpdateTags applies one operation to many resources with best-effort,
// partial-success semantics. Ids are processed in fixed-size batches; calls
// within a batch run concurrently and all settle before the next batch
// starts, with a pacing delay in between. A per-resource failure is
// recorded and never aborts the batch or the remaining batches. Result
// entries accumulate in completion order.
func (e *Engine) BulkUpdateTags(ctx context.Context, resourceIDs []string, tags map[string]string, op domain.TagOperation, token string) *domain.BulkOperationResult {
	result := &domain.BulkOperationResult{
		Successful: []string{},
		Failed:     []domain.BulkFailure{},
	}

	var mu sync.Mutex
	for start := 0; start < len(resourceIDs); start += e.batchSize {
		end := start + e.batchSize
		if end > len(resourceIDs) {
			end = len(resourceIDs)
		}

		var wg sync.WaitGroup
		for _, id := range resourceIDs[start:end] {
			wg.Add(1)
			go func(resourceID string) {
				defer wg.Done()

				_, err := e.UpdateTags(ctx, resourceID, tags, op, token)

				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					result.Failed = append(result.Failed, domain.BulkFailure{
						ResourceID: resourceID,
						Error:      err.Error(),
					})
					return
				}
				result.Successful = append(result.Successful, resourceID)
			}(id)
		}
		wg.Wait()

		if end < len(resourceIDs) {
			time.Sleep(e.batchDelay)
		}
	}

	return result
}
