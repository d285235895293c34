package azure

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/clearops/tagwarden/internal/domain"
)

// FileShim is a testing implementation that serves resources from a JSON
// fixture file and applies tag patches back to it. It ignores the bearer
// token entirely.
type FileShim struct {
	filePath string
	mu       sync.RWMutex
}

// Ensure FileShim implements ResourceClient.
var _ ResourceClient = (*FileShim)(nil)

// shimFixture is the on-disk shape of the fixture file.
type shimFixture struct {
	Subscriptions  []domain.Subscription             `json:"subscriptions"`
	ResourceGroups map[string][]domain.ResourceGroup `json:"resourceGroups"`
	Resources      []domain.Resource                 `json:"resources"`
}

// NewFileShim creates a new file-based shim for testing.
func NewFileShim(filePath string) *FileShim {
	return &FileShim{filePath: filePath}
}

func (f *FileShim) load() (*shimFixture, error) {
	data, err := os.ReadFile(f.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return &shimFixture{}, nil
		}
		return nil, fmt.Errorf("reading fixture file: %w", err)
	}

	var fx shimFixture
	if err := json.Unmarshal(data, &fx); err != nil {
		return nil, fmt.Errorf("parsing fixture file: %w", err)
	}
	return &fx, nil
}

func (f *FileShim) save(fx *shimFixture) error {
	data, err := json.MarshalIndent(fx, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(f.filePath, data, 0644)
}

// ListSubscriptions returns the fixture's subscriptions.
func (f *FileShim) ListSubscriptions(ctx context.Context, token string) ([]domain.Subscription, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	fx, err := f.load()
	if err != nil {
		return nil, err
	}
	return fx.Subscriptions, nil
}

// ListResources returns the fixture's resources for a subscription with all
// filters applied client-side.
func (f *FileShim) ListResources(ctx context.Context, subscriptionID, token string, filters *domain.ResourceFilters) ([]domain.Resource, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	fx, err := f.load()
	if err != nil {
		return nil, err
	}

	var out []domain.Resource
	for _, r := range fx.Resources {
		if r.SubscriptionID != subscriptionID {
			continue
		}
		if filters != nil && filters.ResourceGroupName != "" && r.ResourceGroup != filters.ResourceGroupName {
			continue
		}
		if filters != nil && filters.ResourceType != "" && r.Type != filters.ResourceType {
			continue
		}
		out = append(out, r)
	}
	return FilterByTags(out, filters), nil
}

// GetResource returns one fixture resource, or domain.ErrNotFound.
func (f *FileShim) GetResource(ctx context.Context, resourceID, token string) (*domain.Resource, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	fx, err := f.load()
	if err != nil {
		return nil, err
	}
	for i := range fx.Resources {
		if fx.Resources[i].ID == resourceID {
			r := fx.Resources[i]
			return &r, nil
		}
	}
	return nil, domain.ErrNotFound
}

// ListResourceGroups returns the fixture's resource groups for a subscription.
func (f *FileShim) ListResourceGroups(ctx context.Context, subscriptionID, token string) ([]domain.ResourceGroup, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	fx, err := f.load()
	if err != nil {
		return nil, err
	}
	return fx.ResourceGroups[subscriptionID], nil
}

// PatchResourceTags replaces a fixture resource's tags and writes the
// fixture back to disk.
func (f *FileShim) PatchResourceTags(ctx context.Context, resourceID, token string, tags map[string]string) (*domain.Resource, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	fx, err := f.load()
	if err != nil {
		return nil, err
	}
	for i := range fx.Resources {
		if fx.Resources[i].ID == resourceID {
			fx.Resources[i].Tags = tags
			if err := f.save(fx); err != nil {
				return nil, err
			}
			r := fx.Resources[i]
			return &r, nil
		}
	}
	return nil, domain.NewUpstreamError(404, "resource not found in fixture")
}
