// Package memory is an in-memory implementation of the storage interface
// for testing.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/clearops/tagwarden/internal/domain"
	"github.com/clearops/tagwarden/internal/storage"
)

// Store holds all records in process memory.
type Store struct {
	mu sync.RWMutex

	templates map[string]*domain.TagTemplate
	policies  map[string]*domain.TagPolicy
	alerts    map[string]*domain.AlertRule
}

// Ensure Store implements the storage interface.
var _ storage.Storage = (*Store)(nil)

// New creates a new in-memory store.
func New() *Store {
	return &Store{
		templates: make(map[string]*domain.TagTemplate),
		policies:  make(map[string]*domain.TagPolicy),
		alerts:    make(map[string]*domain.AlertRule),
	}
}

func (s *Store) Close() error { return nil }

// Templates

func (s *Store) CreateTemplate(ctx context.Context, t *domain.TagTemplate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.templates[t.ID]; exists {
		return domain.ErrAlreadyExists
	}
	cp := *t
	s.templates[t.ID] = &cp
	return nil
}

func (s *Store) GetTemplate(ctx context.Context, id string) (*domain.TagTemplate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.templates[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (s *Store) ListTemplates(ctx context.Context, category string) ([]*domain.TagTemplate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []*domain.TagTemplate{}
	for _, t := range s.templates {
		if category != "" && !strings.EqualFold(t.Category, category) {
			continue
		}
		cp := *t
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) UpdateTemplate(ctx context.Context, t *domain.TagTemplate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.templates[t.ID]
	if !ok {
		return domain.ErrNotFound
	}
	if stored.Version != t.Version {
		return domain.ErrVersionConflict
	}
	cp := *t
	cp.Version++
	s.templates[t.ID] = &cp
	t.Version = cp.Version
	return nil
}

func (s *Store) DeleteTemplate(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.templates[id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.templates, id)
	return nil
}

// Policies

func (s *Store) CreatePolicy(ctx context.Context, p *domain.TagPolicy) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.policies[p.ID]; exists {
		return domain.ErrAlreadyExists
	}
	cp := *p
	s.policies[p.ID] = &cp
	return nil
}

func (s *Store) GetPolicy(ctx context.Context, id string) (*domain.TagPolicy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.policies[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *Store) ListPolicies(ctx context.Context, filter storage.PolicyFilter) ([]*domain.TagPolicy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []*domain.TagPolicy{}
	for _, p := range s.policies {
		if filter.Scope != "" && p.Scope != filter.Scope {
			continue
		}
		if filter.Enabled != nil && p.Enabled != *filter.Enabled {
			continue
		}
		cp := *p
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) UpdatePolicy(ctx context.Context, p *domain.TagPolicy) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.policies[p.ID]
	if !ok {
		return domain.ErrNotFound
	}
	if stored.Version != p.Version {
		return domain.ErrVersionConflict
	}
	cp := *p
	cp.Version++
	s.policies[p.ID] = &cp
	p.Version = cp.Version
	return nil
}

func (s *Store) DeletePolicy(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.policies[id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.policies, id)
	return nil
}

// Alerts

func (s *Store) CreateAlert(ctx context.Context, a *domain.AlertRule) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.alerts[a.ID]; exists {
		return domain.ErrAlreadyExists
	}
	cp := *a
	s.alerts[a.ID] = &cp
	return nil
}

func (s *Store) GetAlert(ctx context.Context, id string) (*domain.AlertRule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.alerts[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (s *Store) ListAlerts(ctx context.Context, filter storage.AlertFilter) ([]*domain.AlertRule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []*domain.AlertRule{}
	for _, a := range s.alerts {
		if filter.Enabled != nil && a.Enabled != *filter.Enabled {
			continue
		}
		if filter.Frequency != "" && a.Frequency != filter.Frequency {
			continue
		}
		cp := *a
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) UpdateAlert(ctx context.Context, a *domain.AlertRule) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.alerts[a.ID]
	if !ok {
		return domain.ErrNotFound
	}
	if stored.Version != a.Version {
		return domain.ErrVersionConflict
	}
	cp := *a
	cp.Version++
	s.alerts[a.ID] = &cp
	a.Version = cp.Version
	return nil
}

func (s *Store) DeleteAlert(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.alerts[id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.alerts, id)
	return nil
}

func (s *Store) TouchAlertLastTriggered(ctx context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.alerts[id]
	if !ok {
		return domain.ErrNotFound
	}
	t := at
	a.LastTriggered = &t
	return nil
}
