package materialize

import (
	"context"
	"testing"
	"time"

	"github.com/rezkam/keepup/internal/civil"
	"github.com/rezkam/keepup/internal/domain"
	"github.com/rezkam/keepup/internal/store"
	"github.com/rezkam/keepup/internal/store/memstore"
)

// S1 — Event on every Tuesday, biweekly, created from an empty store.
func TestCurrentOccurrencesCreatesFirstOccurrence(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()

	sched := domain.NewEventSchedule(
		civil.Date{Year: 2024, Month: time.January, Day: 2},
		domain.NewDayFilterDow(time.Tuesday, 2),
		&civil.Time{Hour: 9},
	)
	item := domain.Item{Type: domain.ItemTypeEvent, Active: true, Name: "standup", Schedule: sched}
	result, err := s.Write(ctx, []store.Update{store.CreateItem(domain.NewIdToken(), item)})
	if err != nil {
		t.Fatal(err)
	}
	var itemID string
	for _, id := range result {
		itemID = id
	}
	item.ID = itemID

	now := time.Date(2024, time.January, 10, 0, 0, 0, 0, time.UTC)
	pairs, err := CurrentOccurrences(ctx, s, now, []domain.Item{item})
	if err != nil {
		t.Fatal(err)
	}
	if len(pairs) != 1 {
		t.Fatalf("got %d pairs, want 1", len(pairs))
	}
	want := time.Date(2024, time.January, 16, 9, 0, 0, 0, time.UTC)
	if !pairs[0].Occ.Start.Equal(want) {
		t.Errorf("got start %v, want %v", pairs[0].Occ.Start, want)
	}

	// Idempotence: calling again with the same reference_now makes no new
	// writes and returns the same result.
	before, err := s.FindOccs(ctx, []string{itemID}, store.FindOccsParams{})
	if err != nil {
		t.Fatal(err)
	}
	pairs2, err := CurrentOccurrences(ctx, s, now, []domain.Item{item})
	if err != nil {
		t.Fatal(err)
	}
	after, err := s.FindOccs(ctx, []string{itemID}, store.FindOccsParams{})
	if err != nil {
		t.Fatal(err)
	}
	if len(before[itemID]) != len(after[itemID]) {
		t.Errorf("expected no new writes on second call, before=%d after=%d", len(before[itemID]), len(after[itemID]))
	}
	if len(pairs2) != 1 || !pairs2[0].Occ.Start.Equal(want) {
		t.Errorf("second call result differs: %+v", pairs2)
	}
}

// S3 — Deadline task roll-forward from an existing latest occurrence.
func TestCurrentOccurrencesDeadlineTaskRollForward(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()

	sched := domain.NewDeadlineTaskSchedule(3 * 24 * time.Hour)
	item := domain.Item{Type: domain.ItemTypeDeadlineTask, Active: true, Name: "renew cert", Schedule: sched}
	result, err := s.Write(ctx, []store.Update{store.CreateItem(domain.NewIdToken(), item)})
	if err != nil {
		t.Fatal(err)
	}
	var itemID string
	for _, id := range result {
		itemID = id
	}
	item.ID = itemID

	occ := domain.Occurrence{Active: true, Start: time.Date(2024, time.May, 1, 0, 0, 0, 0, time.UTC), End: time.Date(2024, time.May, 4, 0, 0, 0, 0, time.UTC)}
	_, err = s.Write(ctx, []store.Update{store.CreateOcc(domain.NewIdToken(), store.RefID(itemID), occ)})
	if err != nil {
		t.Fatal(err)
	}

	horizon := time.Date(2024, time.May, 10, 0, 0, 0, 0, time.UTC)
	pairs, err := CurrentOccurrences(ctx, s, horizon, []domain.Item{item})
	if err != nil {
		t.Fatal(err)
	}
	if len(pairs) != 1 {
		t.Fatalf("got %d pairs, want 1", len(pairs))
	}
	wantEnd := time.Date(2024, time.May, 10, 0, 0, 0, 0, time.UTC)
	if !pairs[0].Occ.End.Equal(wantEnd) {
		t.Errorf("got end %v, want %v", pairs[0].Occ.End, wantEnd)
	}

	occs, err := s.FindOccs(ctx, []string{itemID}, store.FindOccsParams{})
	if err != nil {
		t.Fatal(err)
	}
	if len(occs[itemID]) != 3 { // the original plus the 2 newly materialised
		t.Errorf("got %d stored occurrences, want 3", len(occs[itemID]))
	}
}
