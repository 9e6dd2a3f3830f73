package configresolver

import (
	"context"
	"testing"
	"time"

	"github.com/rezkam/keepup/internal/domain"
	"github.com/rezkam/keepup/internal/store"
	"github.com/rezkam/keepup/internal/store/memstore"
)

func ptr[T any](v T) *T { return &v }

func TestResolveFoldsParentToChild(t *testing.T) {
	all := domain.Config{Scope: domain.AllScope(), OccAlert: ptr(time.Hour)}
	typ := domain.Config{Scope: domain.TypeScope(domain.ItemTypeProgressTask), TaskCompletion: domain.TaskCompletionConfig{Total: ptr(10)}}
	item := domain.Config{Scope: domain.ItemScope("item-1"), TaskCompletion: domain.TaskCompletionConfig{Total: ptr(20)}}

	rc, ok := Resolve([]domain.Config{all, typ, item})
	if !ok {
		t.Fatal("expected ok")
	}
	if rc.EffectiveTotal() != 20 {
		t.Errorf("got total %d, want 20 (item overrides type)", rc.EffectiveTotal())
	}
	if rc.EffectiveOccAlert() != time.Hour {
		t.Errorf("got occ alert %v, want 1h (inherited from All)", rc.EffectiveOccAlert())
	}
	if rc.Parent == nil || rc.Parent.Parent == nil || rc.Parent.Parent.Parent != nil {
		t.Errorf("expected a 3-link parent chain")
	}
}

func TestResolveEmpty(t *testing.T) {
	if _, ok := Resolve(nil); ok {
		t.Error("expected ok=false for no stored configs")
	}
}

func TestItemConfigSkipsMissingScopes(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()
	item := domain.Item{ID: "item-1", Type: domain.ItemTypeEvent, Name: "x"}

	// Only a Type-level config is stored; All and Item scopes have nothing.
	_, err := s.Write(ctx, []store.Update{store.SetConfig(domain.Config{
		Scope:    domain.TypeScope(domain.ItemTypeEvent),
		OccAlert: ptr(30 * time.Minute),
	})})
	if err != nil {
		t.Fatal(err)
	}

	rc, ok, err := ItemConfig(ctx, s, item)
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("expected a resolved config from the Type scope alone")
	}
	if rc.EffectiveOccAlert() != 30*time.Minute {
		t.Errorf("got %v, want 30m", rc.EffectiveOccAlert())
	}
	if rc.Parent != nil {
		t.Errorf("expected a single-link chain since only Type had a stored config")
	}
}
