// Package memstore is an in-process, mutex-guarded implementation of
// store.Facade used by engine unit tests and as a reference for the
// contract's exact semantics (forward-reference tokens, atomic batch
// commit, overlap-filtered range finds).
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rezkam/keepup/internal/domain"
	"github.com/rezkam/keepup/internal/store"
)

func secondsToTime(s int64) time.Time { return time.Unix(s, 0).UTC() }

// Store is a thread-safe in-memory Facade.
type Store struct {
	mu      sync.Mutex
	items   map[string]domain.Item
	occs    map[string]domain.Occurrence
	configs map[domain.ConfigScope]domain.Config
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		items:   make(map[string]domain.Item),
		occs:    make(map[string]domain.Occurrence),
		configs: make(map[domain.ConfigScope]domain.Config),
	}
}

func (s *Store) Write(_ context.Context, updates []store.Update) (store.WriteResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Apply against copies so a mid-batch failure leaves the store
	// untouched (all-or-nothing commit).
	items := cloneItems(s.items)
	occs := cloneOccs(s.occs)
	configs := cloneConfigs(s.configs)
	result := make(store.WriteResult)

	resolveItemRef := func(ref store.UpdateRef) (string, error) {
		if ref.HasToken {
			id, ok := result[ref.Token]
			if !ok {
				return "", domain.NewError(domain.KindInvalidToken, "token not created earlier in this batch", nil)
			}
			return id, nil
		}
		return ref.ID, nil
	}

	for _, u := range updates {
		switch u.Kind {
		case store.UpdateCreateItem:
			id := uuid.NewString()
			it := u.Item
			it.ID = id
			it.CreatedAt = time.Now().UTC()
			it.UpdatedAt = it.CreatedAt
			items[id] = it
			result[u.Token] = id

		case store.UpdateUpdateItem:
			it, ok := items[u.ID]
			if !ok {
				continue
			}
			applyItemUpdate(&it, u.ItemUpdate)
			it.UpdatedAt = time.Now().UTC()
			items[u.ID] = it

		case store.UpdateDeleteItem:
			delete(items, u.ID)
			for id, o := range occs {
				if o.ItemID == u.ID {
					delete(occs, id)
				}
			}

		case store.UpdateSetConfig:
			configs[u.Config.Scope] = u.Config

		case store.UpdateDeleteConfig:
			delete(configs, u.Config.Scope)

		case store.UpdateCreateOcc:
			itemID, err := resolveItemRef(u.ItemRef)
			if err != nil {
				return nil, err
			}
			id := uuid.NewString()
			occ := u.Occ
			occ.ID = id
			occ.ItemID = itemID
			occs[id] = occ
			result[u.OccToken] = id

		case store.UpdateUpdateOcc:
			o, ok := occs[u.ID]
			if !ok {
				continue
			}
			applyOccUpdate(&o, u.OccUpdate)
			occs[u.ID] = o

		case store.UpdateDeleteOcc:
			delete(occs, u.ID)
		}
	}

	s.items = items
	s.occs = occs
	s.configs = configs
	return result, nil
}

func applyItemUpdate(it *domain.Item, u domain.ItemUpdate) {
	if u.Has("active") && u.Active != nil {
		it.Active = *u.Active
	}
	if u.Has("category") && u.Category != nil {
		it.Category = *u.Category
	}
	if u.Has("name") && u.Name != nil {
		it.Name = *u.Name
	}
	if u.Has("desc") && u.Desc != nil {
		it.Desc = *u.Desc
	}
	if u.Has("schedule") && u.Schedule != nil {
		it.Schedule = *u.Schedule
	}
}

func applyOccUpdate(o *domain.Occurrence, u domain.OccUpdate) {
	if u.Has("active") && u.Active != nil {
		o.Active = *u.Active
	}
	if u.Has("start") && u.Start != nil {
		o.Start = secondsToTime(*u.Start)
	}
	if u.Has("end") && u.End != nil {
		o.End = secondsToTime(*u.End)
	}
	if u.Has("task_completion_progress") && u.TaskCompletionProgress != nil {
		o.TaskCompletionProgress = *u.TaskCompletionProgress
	}
}

func (s *Store) FindItems(_ context.Context, params store.FindItemsParams) ([]domain.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []domain.Item
	for _, it := range s.items {
		if params.Active != nil && it.Active != *params.Active {
			continue
		}
		if params.MinEnd != nil {
			if !itemPassesMinEnd(it, *params.MinEnd) {
				continue
			}
		}
		out = append(out, it)
	}
	sort.Slice(out, func(i, j int) bool {
		if params.Sort == store.SortDescending {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	if params.Limit > 0 && len(out) > params.Limit {
		out = out[:params.Limit]
	}
	return out, nil
}

// itemPassesMinEnd implements the corrected find_items(min_end) predicate:
// recurring items pass unconditionally; a non-recurring item passes only if
// its single occurrence ends after minEnd.
func itemPassesMinEnd(it domain.Item, minEnd int64) bool {
	end, ok := it.OnlyOccEnd()
	if !ok {
		return true
	}
	return end.Unix() > minEnd
}

func (s *Store) GetItems(_ context.Context, ids []string) ([]domain.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.Item, 0, len(ids))
	for _, id := range ids {
		if it, ok := s.items[id]; ok {
			out = append(out, it)
		}
	}
	return out, nil
}

func (s *Store) GetConfigs(_ context.Context, scopes []domain.ConfigScope) ([]domain.Config, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.Config, 0, len(scopes))
	for _, scope := range scopes {
		if cfg, ok := s.configs[scope]; ok {
			out = append(out, cfg)
		}
	}
	return out, nil
}

func (s *Store) GetOccs(_ context.Context, ids []string) ([]domain.Occurrence, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.Occurrence, 0, len(ids))
	for _, id := range ids {
		if o, ok := s.occs[id]; ok {
			out = append(out, o)
		}
	}
	return out, nil
}

func (s *Store) FindOccs(_ context.Context, itemIDs []string, params store.FindOccsParams) (map[string][]domain.Occurrence, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	wanted := make(map[string]bool, len(itemIDs))
	for _, id := range itemIDs {
		wanted[id] = true
	}

	result := make(map[string][]domain.Occurrence, len(itemIDs))
	for _, o := range s.occs {
		if !wanted[o.ItemID] {
			continue
		}
		if params.Start != nil && !o.End.After(secondsToTime(*params.Start)) {
			continue
		}
		if params.End != nil && !o.Start.Before(secondsToTime(*params.End)) {
			continue
		}
		result[o.ItemID] = append(result[o.ItemID], o)
	}
	for id, occs := range result {
		sort.Slice(occs, func(i, j int) bool {
			if params.Sort == store.SortDescending {
				return occs[i].Start.After(occs[j].Start)
			}
			return occs[i].Start.Before(occs[j].Start)
		})
		if params.Limit > 0 && len(occs) > params.Limit {
			occs = occs[:params.Limit]
		}
		result[id] = occs
	}
	return result, nil
}

func cloneItems(m map[string]domain.Item) map[string]domain.Item {
	out := make(map[string]domain.Item, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func cloneOccs(m map[string]domain.Occurrence) map[string]domain.Occurrence {
	out := make(map[string]domain.Occurrence, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func cloneConfigs(m map[domain.ConfigScope]domain.Config) map[domain.ConfigScope]domain.Config {
	out := make(map[domain.ConfigScope]domain.Config, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
