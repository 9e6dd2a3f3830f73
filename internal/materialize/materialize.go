// Package materialize implements OccMaterialiser: given a reference instant
// and a set of items, it determines each item's current occurrence,
// generating and persisting any missing occurrences in between.
package materialize

import (
	"context"
	"sort"
	"time"

	"github.com/rezkam/keepup/internal/domain"
	"github.com/rezkam/keepup/internal/occgen"
	"github.com/rezkam/keepup/internal/store"
)

// Pair is an item paired with its current occurrence.
type Pair struct {
	Item domain.Item
	Occ  domain.Occurrence
}

type pendingCreate struct {
	itemID string
	token  domain.IdToken
	occ    domain.Occurrence
}

// CurrentOccurrences implements the contract in full:
//  1. look up each item's most-recent occurrence
//  2. advance the schedule from there when that occurrence ends before
//     referenceNow (or generate_first if none exists)
//  3. batch every new occurrence into one transactional write
//  4. pick each item's candidate-current occurrence and filter by IsCurrent
func CurrentOccurrences(ctx context.Context, facade store.Facade, referenceNow time.Time, items []domain.Item) ([]Pair, error) {
	if len(items) == 0 {
		return nil, nil
	}

	itemIDs := make([]string, len(items))
	for i, it := range items {
		itemIDs[i] = it.ID
	}

	latestByItem, err := facade.FindOccs(ctx, itemIDs, store.FindOccsParams{
		Sort:  store.SortDescending,
		Limit: 1,
	})
	if err != nil {
		return nil, err
	}

	var updates []store.Update
	var pending []pendingCreate
	candidatePrevious := make(map[string]domain.Occurrence)

	for _, it := range items {
		gen := occgen.For(it.Schedule)
		latest, hasLatest := firstOf(latestByItem[it.ID])

		var generated []domain.Occurrence
		if hasLatest {
			// A latest occurrence that already reaches referenceNow needs no
			// successor, so a repeated call with the same referenceNow writes
			// nothing.
			if latest.End.Before(referenceNow) {
				generated = gen.GenerateAfter(latest, referenceNow)
			}
		} else if occ, ok := gen.GenerateFirst(referenceNow); ok {
			generated = []domain.Occurrence{occ}
		}
		sort.Slice(generated, func(i, j int) bool { return generated[i].Start.Before(generated[j].Start) })

		if len(generated) > 0 {
			for _, occ := range generated {
				token := domain.NewIdToken()
				updates = append(updates, store.CreateOcc(token, store.RefID(it.ID), occ))
				pending = append(pending, pendingCreate{itemID: it.ID, token: token, occ: occ})
			}
		} else if hasLatest {
			candidatePrevious[it.ID] = latest
		}
	}

	var result store.WriteResult
	if len(updates) > 0 {
		result, err = facade.Write(ctx, updates)
		if err != nil {
			return nil, err
		}
	}

	// pending is in ascending-start order per item, so the last write for a
	// given item id leaves the largest-start occurrence as its candidate.
	lastGenerated := make(map[string]domain.Occurrence)
	for _, pc := range pending {
		occ := pc.occ
		occ.ID = result[pc.token]
		occ.ItemID = pc.itemID
		lastGenerated[pc.itemID] = occ
	}

	var pairs []Pair
	for _, it := range items {
		candidate, ok := lastGenerated[it.ID]
		if !ok {
			candidate, ok = candidatePrevious[it.ID]
		}
		if !ok {
			continue
		}
		if domain.IsCurrent(referenceNow, it.Type, candidate) {
			pairs = append(pairs, Pair{Item: it, Occ: candidate})
		}
	}
	return pairs, nil
}

// CurrentItemsAndOccurrences fetches every active item whose next or
// containing occurrence is at or after referenceNow, then delegates to
// CurrentOccurrences.
func CurrentItemsAndOccurrences(ctx context.Context, facade store.Facade, referenceNow time.Time) ([]Pair, error) {
	active := true
	minEnd := referenceNow.Unix()
	items, err := facade.FindItems(ctx, store.FindItemsParams{Active: &active, MinEnd: &minEnd})
	if err != nil {
		return nil, err
	}
	return CurrentOccurrences(ctx, facade, referenceNow, items)
}

func firstOf(occs []domain.Occurrence) (domain.Occurrence, bool) {
	if len(occs) == 0 {
		return domain.Occurrence{}, false
	}
	return occs[0], true
}
