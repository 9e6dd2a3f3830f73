// Package configresolver builds the five-level scope chain for an item or
// occurrence, fetches stored configs for the chain in one batched call, and
// folds parent to child to produce a resolved config.
package configresolver

import (
	"context"

	"github.com/rezkam/keepup/internal/domain"
	"github.com/rezkam/keepup/internal/store"
)

// ScopesForAll returns the scope chain for the All scope.
func ScopesForAll() []domain.ConfigScope {
	return []domain.ConfigScope{domain.AllScope()}
}

// ScopesForType returns the scope chain for an item type.
func ScopesForType(t domain.ItemType) []domain.ConfigScope {
	return append(ScopesForAll(), domain.TypeScope(t))
}

// ScopesForCategory returns the scope chain for an item's category (omitting
// the Category link when the item has none).
func ScopesForCategory(item domain.Item) []domain.ConfigScope {
	scopes := ScopesForType(item.Type)
	if item.Category != nil {
		scopes = append(scopes, domain.CategoryScope(*item.Category))
	}
	return scopes
}

// ScopesForItem returns the scope chain for an item.
func ScopesForItem(item domain.Item) []domain.ConfigScope {
	return append(ScopesForCategory(item), domain.ItemScope(item.ID))
}

// ScopesForOcc returns the scope chain for an occurrence of item.
func ScopesForOcc(item domain.Item, occ domain.Occurrence) []domain.ConfigScope {
	return append(ScopesForItem(item), domain.OccScope(occ.ID))
}

// MergeDirect merges child over parent: each optional field in child wins if
// present, otherwise parent's value is kept. Task-completion sub-fields
// merge the same way per sub-field.
func MergeDirect(parent, child domain.Config) domain.Config {
	return domain.Config{
		OccAlert: firstNonNil(child.OccAlert, parent.OccAlert),
		TaskCompletion: domain.TaskCompletionConfig{
			Total:        firstNonNil(child.TaskCompletion.Total, parent.TaskCompletion.Total),
			Unit:         firstNonNil(child.TaskCompletion.Unit, parent.TaskCompletion.Unit),
			ExcessPast:   firstNonNil(child.TaskCompletion.ExcessPast, parent.TaskCompletion.ExcessPast),
			ExcessFuture: firstNonNil(child.TaskCompletion.ExcessFuture, parent.TaskCompletion.ExcessFuture),
		},
		Active: firstNonNil(child.Active, parent.Active),
	}
}

func firstNonNil[T any](a, b *T) *T {
	if a != nil {
		return a
	}
	return b
}

// Resolve folds configs (parent-first, as returned by the Scopes* builders)
// into a ResolvedConfig chain. Returns ok=false if configs is empty.
//
// Invariant C2: the resulting parent chain's length equals the number of
// matching stored configs actually passed in, not the full scope-chain
// length — callers pass only the configs that were found for each scope.
func Resolve(configs []domain.Config) (domain.ResolvedConfig, bool) {
	if len(configs) == 0 {
		return domain.ResolvedConfig{}, false
	}
	first := configs[0]
	resolved := domain.ResolvedConfig{
		Scope:       first.Scope,
		ScopeConfig: first,
		Resolved:    first,
		Parent:      nil,
	}
	for _, cfg := range configs[1:] {
		prev := resolved
		resolved = domain.ResolvedConfig{
			Scope:       cfg.Scope,
			ScopeConfig: cfg,
			Resolved:    MergeDirect(prev.Resolved, cfg),
			Parent:      &prev,
		}
	}
	return resolved, true
}

// ObjectConfigsFor batches get_configs for many objects at once: it issues a
// single store call with the deduplicated union of every object's scope
// chain, then dispatches results back per object. Objects whose chain had no
// stored config at any scope are omitted from the result.
func ObjectConfigsFor[T any](ctx context.Context, facade store.Facade, objects []T, scopesFor func(T) []domain.ConfigScope) (map[int]domain.ResolvedConfig, error) {
	chains := make([][]domain.ConfigScope, len(objects))
	seen := make(map[domain.ConfigScope]bool)
	var allScopes []domain.ConfigScope
	for i, obj := range objects {
		chain := scopesFor(obj)
		chains[i] = chain
		for _, s := range chain {
			if !seen[s] {
				seen[s] = true
				allScopes = append(allScopes, s)
			}
		}
	}

	stored, err := facade.GetConfigs(ctx, allScopes)
	if err != nil {
		return nil, err
	}
	byScope := make(map[domain.ConfigScope]domain.Config, len(stored))
	for _, c := range stored {
		byScope[c.Scope] = c
	}

	result := make(map[int]domain.ResolvedConfig)
	for i, chain := range chains {
		var present []domain.Config
		for _, s := range chain {
			if c, ok := byScope[s]; ok {
				present = append(present, c)
			}
		}
		if rc, ok := Resolve(present); ok {
			result[i] = rc
		}
	}
	return result, nil
}

// ItemsConfigs resolves configs for many items in one batched call.
func ItemsConfigs(ctx context.Context, facade store.Facade, items []domain.Item) (map[string]domain.ResolvedConfig, error) {
	byIndex, err := ObjectConfigsFor(ctx, facade, items, ScopesForItem)
	if err != nil {
		return nil, err
	}
	out := make(map[string]domain.ResolvedConfig, len(byIndex))
	for i, rc := range byIndex {
		out[items[i].ID] = rc
	}
	return out, nil
}

// ItemConfig resolves the config for a single item.
func ItemConfig(ctx context.Context, facade store.Facade, item domain.Item) (domain.ResolvedConfig, bool, error) {
	byItem, err := ItemsConfigs(ctx, facade, []domain.Item{item})
	if err != nil {
		return domain.ResolvedConfig{}, false, err
	}
	rc, ok := byItem[item.ID]
	return rc, ok, nil
}

// occPair couples an occurrence with its owning item, so ScopesForOcc can be
// used as ObjectConfigsFor's scopesFor callback.
type occPair struct {
	item domain.Item
	occ  domain.Occurrence
}

// OccsConfigs resolves configs for many (item, occ) pairs in one batched call.
func OccsConfigs(ctx context.Context, facade store.Facade, pairs []struct {
	Item domain.Item
	Occ  domain.Occurrence
}) (map[string]domain.ResolvedConfig, error) {
	converted := make([]occPair, len(pairs))
	for i, p := range pairs {
		converted[i] = occPair{item: p.Item, occ: p.Occ}
	}
	byIndex, err := ObjectConfigsFor(ctx, facade, converted, func(p occPair) []domain.ConfigScope {
		return ScopesForOcc(p.item, p.occ)
	})
	if err != nil {
		return nil, err
	}
	out := make(map[string]domain.ResolvedConfig, len(byIndex))
	for i, rc := range byIndex {
		out[converted[i].occ.ID] = rc
	}
	return out, nil
}

// OccConfig resolves the config for a single occurrence of item.
func OccConfig(ctx context.Context, facade store.Facade, item domain.Item, occ domain.Occurrence) (domain.ResolvedConfig, bool, error) {
	byOcc, err := OccsConfigs(ctx, facade, []struct {
		Item domain.Item
		Occ  domain.Occurrence
	}{{Item: item, Occ: occ}})
	if err != nil {
		return domain.ResolvedConfig{}, false, err
	}
	rc, ok := byOcc[occ.ID]
	return rc, ok, nil
}
