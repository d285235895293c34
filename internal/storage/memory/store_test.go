package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/clearops/tagwarden/internal/domain"
	"github.com/clearops/tagwarden/internal/storage"
)

func TestTemplateLifecycle(t *testing.T) {
	s := New()
	ctx := context.Background()

	tmpl := &domain.TagTemplate{ID: "t1", Name: "base", Category: "env", Tags: map[string]string{"env": "prod"}, Version: 1}
	if err := s.CreateTemplate(ctx, tmpl); err != nil {
		t.Fatalf("CreateTemplate() error = %v", err)
	}
	if err := s.CreateTemplate(ctx, tmpl); !errors.Is(err, domain.ErrAlreadyExists) {
		t.Errorf("duplicate create error = %v", err)
	}

	got, err := s.GetTemplate(ctx, "t1")
	if err != nil || got.Name != "base" {
		t.Fatalf("GetTemplate() = %+v, %v", got, err)
	}

	got.Name = "renamed"
	if err := s.UpdateTemplate(ctx, got); err != nil {
		t.Fatalf("UpdateTemplate() error = %v", err)
	}
	if got.Version != 2 {
		t.Errorf("version after update = %d, want 2", got.Version)
	}

	if err := s.DeleteTemplate(ctx, "t1"); err != nil {
		t.Fatalf("DeleteTemplate() error = %v", err)
	}
	if _, err := s.GetTemplate(ctx, "t1"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("get after delete error = %v", err)
	}
}

func TestTemplateCategoryFilter(t *testing.T) {
	s := New()
	ctx := context.Background()

	_ = s.CreateTemplate(ctx, &domain.TagTemplate{ID: "t1", Name: "a", Category: "Env"})
	_ = s.CreateTemplate(ctx, &domain.TagTemplate{ID: "t2", Name: "b", Category: "cost"})

	out, err := s.ListTemplates(ctx, "env")
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 1 || out[0].ID != "t1" {
		t.Errorf("category filter = %+v", out)
	}
}

func TestUpdateVersionConflict(t *testing.T) {
	s := New()
	ctx := context.Background()

	p := &domain.TagPolicy{ID: "p1", Name: "base", Version: 1, RequiredTags: []domain.RequiredTag{{Key: "env"}}}
	if err := s.CreatePolicy(ctx, p); err != nil {
		t.Fatal(err)
	}

	first, _ := s.GetPolicy(ctx, "p1")
	second, _ := s.GetPolicy(ctx, "p1")

	if err := s.UpdatePolicy(ctx, first); err != nil {
		t.Fatalf("first update error = %v", err)
	}
	if err := s.UpdatePolicy(ctx, second); !errors.Is(err, domain.ErrVersionConflict) {
		t.Errorf("stale update error = %v, want version conflict", err)
	}
}

func TestPolicyFilters(t *testing.T) {
	s := New()
	ctx := context.Background()

	enabled := true
	_ = s.CreatePolicy(ctx, &domain.TagPolicy{ID: "p1", Name: "a", Scope: domain.PolicyScopeGlobal, Enabled: true})
	_ = s.CreatePolicy(ctx, &domain.TagPolicy{ID: "p2", Name: "b", Scope: domain.PolicyScopeSubscription, Enabled: false})

	out, _ := s.ListPolicies(ctx, storage.PolicyFilter{Enabled: &enabled})
	if len(out) != 1 || out[0].ID != "p1" {
		t.Errorf("enabled filter = %+v", out)
	}

	out, _ = s.ListPolicies(ctx, storage.PolicyFilter{Scope: domain.PolicyScopeSubscription})
	if len(out) != 1 || out[0].ID != "p2" {
		t.Errorf("scope filter = %+v", out)
	}
}

func TestAlertFiltersAndTouch(t *testing.T) {
	s := New()
	ctx := context.Background()

	enabled := true
	_ = s.CreateAlert(ctx, &domain.AlertRule{ID: "a1", Name: "a", Enabled: true, Frequency: domain.AlertDaily, Version: 1})
	_ = s.CreateAlert(ctx, &domain.AlertRule{ID: "a2", Name: "b", Enabled: true, Frequency: domain.AlertWeekly, Version: 1})
	_ = s.CreateAlert(ctx, &domain.AlertRule{ID: "a3", Name: "c", Enabled: false, Frequency: domain.AlertDaily, Version: 1})

	out, _ := s.ListAlerts(ctx, storage.AlertFilter{Enabled: &enabled, Frequency: domain.AlertDaily})
	if len(out) != 1 || out[0].ID != "a1" {
		t.Errorf("alert filter = %+v", out)
	}

	at := time.Now()
	if err := s.TouchAlertLastTriggered(ctx, "a1", at); err != nil {
		t.Fatalf("TouchAlertLastTriggered() error = %v", err)
	}
	got, _ := s.GetAlert(ctx, "a1")
	if got.LastTriggered == nil || !got.LastTriggered.Equal(at) {
		t.Errorf("lastTriggered = %v, want %v", got.LastTriggered, at)
	}
	if got.Version != 1 {
		t.Errorf("touch must not bump version, got %d", got.Version)
	}

	// Touch bypasses the version check entirely.
	stale, _ := s.GetAlert(ctx, "a1")
	stale.Version = 99
	if err := s.TouchAlertLastTriggered(ctx, stale.ID, time.Now()); err != nil {
		t.Errorf("touch with stale record error = %v", err)
	}
}

func TestGetReturnsCopies(t *testing.T) {
	s := New()
	ctx := context.Background()

	_ = s.CreateAlert(ctx, &domain.AlertRule{ID: "a1", Name: "a", Version: 1})

	got, _ := s.GetAlert(ctx, "a1")
	got.Name = "mutated"

	again, _ := s.GetAlert(ctx, "a1")
	if again.Name != "a" {
		t.Error("store handed out a shared pointer")
	}
}
