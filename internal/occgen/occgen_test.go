package occgen

import (
	"testing"
	"time"

	"github.com/rezkam/keepup/internal/civil"
	"github.com/rezkam/keepup/internal/domain"
)

// S1 — Event on every Tuesday, biweekly.
func TestEventGenerateFirstBiweeklyTuesday(t *testing.T) {
	sched := domain.NewEventSchedule(
		civil.Date{Year: 2024, Month: time.January, Day: 2},
		domain.NewDayFilterDow(time.Tuesday, 2),
		&civil.Time{Hour: 9},
	)
	gen := For(sched)
	now := time.Date(2024, time.January, 10, 0, 0, 0, 0, time.UTC)

	occ, ok := gen.GenerateFirst(now)
	if !ok {
		t.Fatal("expected an occurrence")
	}
	want := time.Date(2024, time.January, 16, 9, 0, 0, 0, time.UTC)
	if !occ.Start.Equal(want) || !occ.End.Equal(want) {
		t.Fatalf("got start=%v end=%v, want %v", occ.Start, occ.End, want)
	}
}

// S3 — Deadline task roll-forward.
func TestDeadlineTaskGenerateAfter(t *testing.T) {
	sched := domain.NewDeadlineTaskSchedule(3 * 24 * time.Hour)
	gen := For(sched)

	last := domain.Occurrence{
		Start: time.Date(2024, time.May, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2024, time.May, 4, 0, 0, 0, 0, time.UTC),
	}
	horizon := time.Date(2024, time.May, 10, 0, 0, 0, 0, time.UTC)

	occs := gen.GenerateAfter(last, horizon)
	if len(occs) != 2 {
		t.Fatalf("got %d occurrences, want 2", len(occs))
	}
	wantEnds := []time.Time{
		time.Date(2024, time.May, 7, 0, 0, 0, 0, time.UTC),
		time.Date(2024, time.May, 10, 0, 0, 0, 0, time.UTC),
	}
	for i, w := range wantEnds {
		if !occs[i].End.Equal(w) {
			t.Errorf("occurrence %d end = %v, want %v", i, occs[i].End, w)
		}
	}
	if !domain.IsCurrent(horizon, domain.ItemTypeDeadlineTask, occs[len(occs)-1]) {
		t.Errorf("expected the last occurrence to be current at the horizon")
	}
}

// Months{1,31} saturates every short month, and 2024 is a leap year, so the
// second GenerateAfter call below crosses a Feb-29 boundary that a fresh
// backwards-aligned PeriodIter would misread as "day 29 < dom 31" and walk
// back into the previous, already-generated period.
func TestProgressTaskGenerateAfterDoesNotDuplicateAcrossSaturatingMonth(t *testing.T) {
	sched := domain.NewProgressTaskSchedule(domain.NewPeriodMonths(1, 31))
	gen := For(sched)

	first, ok := gen.GenerateFirst(time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC))
	if !ok {
		t.Fatal("expected a first occurrence")
	}
	wantFirstStart := time.Date(2023, time.December, 31, 0, 0, 0, 0, time.UTC)
	wantFirstEnd := time.Date(2024, time.January, 31, 0, 0, 0, 0, time.UTC)
	if !first.Start.Equal(wantFirstStart) || !first.End.Equal(wantFirstEnd) {
		t.Fatalf("first occurrence = [%v,%v), want [%v,%v)", first.Start, first.End, wantFirstStart, wantFirstEnd)
	}

	horizon := first.End
	second := gen.GenerateAfter(first, horizon)
	if len(second) != 1 {
		t.Fatalf("got %d occurrences from first GenerateAfter, want 1", len(second))
	}
	wantSecondEnd := time.Date(2024, time.February, 29, 0, 0, 0, 0, time.UTC)
	if !second[0].Start.Equal(first.End) || !second[0].End.Equal(wantSecondEnd) {
		t.Fatalf("second occurrence = [%v,%v), want [%v,%v)", second[0].Start, second[0].End, first.End, wantSecondEnd)
	}

	// The call under test: GenerateAfter re-entered from last.End, across
	// the saturating Feb 29 boundary.
	third := gen.GenerateAfter(second[0], second[0].End)
	if len(third) != 1 {
		t.Fatalf("got %d occurrences from second GenerateAfter, want 1", len(third))
	}
	if third[0].Start.Before(second[0].End) {
		t.Fatalf("third occurrence starts at %v, before previous occurrence's end %v (duplicate/overlap)", third[0].Start, second[0].End)
	}
}

func TestEventGenerateAfterAscending(t *testing.T) {
	sched := domain.NewEventSchedule(
		civil.Date{Year: 2024, Month: time.January, Day: 1},
		domain.NewDayFilterDay(3),
		nil,
	)
	gen := For(sched)
	last := domain.Occurrence{Start: time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC), End: time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)}
	horizon := time.Date(2024, time.January, 10, 0, 0, 0, 0, time.UTC)

	occs := gen.GenerateAfter(last, horizon)
	if len(occs) == 0 {
		t.Fatal("expected occurrences")
	}
	for i, o := range occs {
		if !o.Start.After(last.Start) {
			t.Errorf("occurrence %d start %v not after last.start %v", i, o.Start, last.Start)
		}
		if i > 0 && !o.Start.After(occs[i-1].Start) {
			t.Errorf("occurrences not strictly ascending at %d", i)
		}
	}
	if occs[len(occs)-1].End.Before(horizon) {
		t.Errorf("expected at least one occurrence at or past the horizon")
	}
}
