// Package progress resolves TaskCompletionProgress for progress-task and
// deadline-task occurrences, including excess-completion donation between
// nearby occurrences of the same item.
package progress

import (
	"context"
	"sort"
	"time"

	"github.com/rezkam/keepup/internal/configresolver"
	"github.com/rezkam/keepup/internal/domain"
	"github.com/rezkam/keepup/internal/store"
)

// OccConfig couples an occurrence with its resolved task-completion config.
type OccConfig struct {
	Occ    domain.Occurrence
	Config domain.ResolvedConfig
}

type donation struct {
	recvID, donorID      string
	distance             time.Duration
	recvStart, donorStart time.Time
}

// transferProgress moves as much of excess as recv still needs (to reach
// total, after what it has already received) from donor to recv, crediting
// both sides, and returns what remains of excess for further donations.
func transferProgress(excess int, recv, donor *domain.TaskProgress) int {
	needed := recv.Total - recv.ReceivedExcess - recv.Progress
	transfer := max(0, min(needed, excess))
	recv.ReceivedExcess += transfer
	donor.DonatedExcess += transfer
	return excess - transfer
}

// ResolveOccsProgressUsing computes progress for a closed set of occurrences
// (no duplicates, donation candidates limited to this set). Excess
// completion donation prioritises the nearest eligible donor occurrence,
// past or future, within that occurrence's configured excess window.
func ResolveOccsProgressUsing(occs []OccConfig) map[string]domain.TaskProgress {
	results := make(map[string]domain.TaskProgress, len(occs))
	occsExcess := make(map[string]int, len(occs))
	var donations []donation

	for _, ro := range occs {
		prog := domain.TaskProgress{
			Progress: ro.Occ.TaskCompletionProgress,
			Total:    ro.Config.EffectiveTotal(),
		}
		occsExcess[ro.Occ.ID] = ro.Occ.TaskCompletionProgress - prog.Total
		results[ro.Occ.ID] = prog

		excessPastMin := ro.Occ.Start.Add(-ro.Config.EffectiveExcessPast())
		excessFutureMax := ro.Occ.End.Add(ro.Config.EffectiveExcessFuture())

		for _, do := range occs {
			if do.Occ.ID == ro.Occ.ID {
				continue
			}
			switch {
			case do.Occ.End.Compare(ro.Occ.Start) <= 0 && do.Occ.End.After(excessPastMin):
				// Past donor: its completion bleeds forward toward us.
				donations = append(donations, donation{
					recvID: ro.Occ.ID, donorID: do.Occ.ID,
					distance:  ro.Occ.Start.Sub(do.Occ.End),
					recvStart: ro.Occ.Start, donorStart: do.Occ.Start,
				})
			case do.Occ.Start.Compare(ro.Occ.End) >= 0 && do.Occ.Start.Before(excessFutureMax):
				// Future donor: its completion bleeds backward toward us.
				donations = append(donations, donation{
					recvID: ro.Occ.ID, donorID: do.Occ.ID,
					distance:  do.Occ.Start.Sub(ro.Occ.End),
					recvStart: ro.Occ.Start, donorStart: do.Occ.Start,
				})
			}
		}
	}

	sort.Slice(donations, func(i, j int) bool {
		a, b := donations[i], donations[j]
		if a.distance != b.distance {
			return a.distance < b.distance
		}
		if !a.recvStart.Equal(b.recvStart) {
			return a.recvStart.Before(b.recvStart)
		}
		return a.donorStart.Before(b.donorStart)
	})

	for _, d := range donations {
		excess := occsExcess[d.donorID]
		recv := results[d.recvID]
		donor := results[d.donorID]
		occsExcess[d.donorID] = transferProgress(excess, &recv, &donor)
		results[d.recvID] = recv
		results[d.donorID] = donor
	}

	return results
}

// expandOccsForProgress pulls in any stored occurrence within donation range
// of the occurrences already known, so a second pass can tell whether a
// candidate donor would rather give its excess to one of those instead.
func expandOccsForProgress(ctx context.Context, facade store.Facade, occsByItem map[string]map[string]domain.Occurrence, configs map[string]domain.ResolvedConfig) error {
	itemIDs := make([]string, 0, len(occsByItem))
	for id := range occsByItem {
		itemIDs = append(itemIDs, id)
	}

	var start, end *time.Time
	for _, itemOccs := range occsByItem {
		for occID, occ := range itemOccs {
			cfg, ok := configs[occID]
			if !ok {
				continue
			}
			s := occ.Start.Add(-cfg.EffectiveExcessPast())
			e := occ.End.Add(cfg.EffectiveExcessFuture())
			if start == nil || s.Before(*start) {
				start = &s
			}
			if end == nil || e.After(*end) {
				end = &e
			}
		}
	}
	if start == nil || end == nil {
		return nil
	}

	startSec, endSec := start.Unix(), end.Unix()
	retrieved, err := facade.FindOccs(ctx, itemIDs, store.FindOccsParams{Start: &startSec, End: &endSec, Sort: store.SortAscending})
	if err != nil {
		return err
	}

	newOccsByItem := make(map[string][]domain.Occurrence)
	for itemID, occs := range retrieved {
		itemSet := occsByItem[itemID]
		if itemSet == nil {
			itemSet = make(map[string]domain.Occurrence)
			occsByItem[itemID] = itemSet
		}
		for _, occ := range occs {
			if _, exists := itemSet[occ.ID]; exists {
				continue
			}
			itemSet[occ.ID] = occ
			newOccsByItem[itemID] = append(newOccsByItem[itemID], occ)
		}
	}
	if len(newOccsByItem) == 0 {
		return nil
	}

	newItemIDs := make([]string, 0, len(newOccsByItem))
	for id := range newOccsByItem {
		newItemIDs = append(newItemIDs, id)
	}
	items, err := facade.GetItems(ctx, newItemIDs)
	if err != nil {
		return err
	}
	itemByID := make(map[string]domain.Item, len(items))
	for _, it := range items {
		itemByID[it.ID] = it
	}

	var pairs []struct {
		Item domain.Item
		Occ  domain.Occurrence
	}
	for itemID, occs := range newOccsByItem {
		it, ok := itemByID[itemID]
		if !ok {
			continue
		}
		for _, occ := range occs {
			pairs = append(pairs, struct {
				Item domain.Item
				Occ  domain.Occurrence
			}{Item: it, Occ: occ})
		}
	}

	resolved, err := configresolver.OccsConfigs(ctx, facade, pairs)
	if err != nil {
		return err
	}
	for occID, rc := range resolved {
		configs[occID] = rc
	}
	return nil
}

// ResolveOccsProgress resolves progress for the given occurrences (keyed by
// item id), expanding twice into any occurrences within donation range so
// that donation priority is computed correctly, then returns progress only
// for the requested occurrences.
func ResolveOccsProgress(ctx context.Context, facade store.Facade, occsByItem map[string][]OccConfig) (map[string]domain.TaskProgress, error) {
	expanded := make(map[string]map[string]domain.Occurrence)
	configs := make(map[string]domain.ResolvedConfig)
	for itemID, ocs := range occsByItem {
		set := make(map[string]domain.Occurrence, len(ocs))
		for _, oc := range ocs {
			set[oc.Occ.ID] = oc.Occ
			configs[oc.Occ.ID] = oc.Config
		}
		expanded[itemID] = set
	}

	// Expanding twice gives enough reach to know whether a candidate donor
	// would prefer a closer recipient discovered only in the first pass.
	if err := expandOccsForProgress(ctx, facade, expanded, configs); err != nil {
		return nil, err
	}
	if err := expandOccsForProgress(ctx, facade, expanded, configs); err != nil {
		return nil, err
	}

	var all []OccConfig
	for _, set := range expanded {
		for occID, occ := range set {
			if cfg, ok := configs[occID]; ok {
				all = append(all, OccConfig{Occ: occ, Config: cfg})
			}
		}
	}

	full := ResolveOccsProgressUsing(all)

	result := make(map[string]domain.TaskProgress)
	for _, ocs := range occsByItem {
		for _, oc := range ocs {
			if p, ok := full[oc.Occ.ID]; ok {
				result[oc.Occ.ID] = p
			}
		}
	}
	return result, nil
}

// ResolveOccProgress resolves progress for a single occurrence.
func ResolveOccProgress(ctx context.Context, facade store.Facade, itemID string, occ domain.Occurrence, cfg domain.ResolvedConfig) (domain.TaskProgress, error) {
	results, err := ResolveOccsProgress(ctx, facade, map[string][]OccConfig{
		itemID: {{Occ: occ, Config: cfg}},
	})
	if err != nil {
		return domain.TaskProgress{}, err
	}
	if p, ok := results[occ.ID]; ok {
		return p, nil
	}
	return domain.TaskProgress{Total: 1}, nil
}
