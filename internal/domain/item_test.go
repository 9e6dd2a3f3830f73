package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/rezkam/keepup/internal/civil"
)

func TestItemValidate(t *testing.T) {
	it := Item{
		Type: ItemTypeEvent,
		Name: "Standup",
		Schedule: NewEventSchedule(
			civil.Date{Year: 2024, Month: time.January, Day: 2},
			NewDayFilterDow(time.Tuesday, 1),
			nil,
		),
	}
	if err := it.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	mismatched := it
	mismatched.Type = ItemTypeProgressTask
	if err := mismatched.Validate(); !errors.Is(err, ErrScheduleTypeMismatch) {
		t.Fatalf("expected ErrScheduleTypeMismatch, got %v", err)
	}
}

func TestItemIsRecurring(t *testing.T) {
	recurring := Item{
		Type:     ItemTypeEvent,
		Schedule: NewEventSchedule(civil.Date{Year: 2024, Month: time.January, Day: 2}, NewDayFilterDay(1), nil),
	}
	if !recurring.IsRecurring() {
		t.Fatalf("expected recurring item")
	}

	single := Item{
		Type: ItemTypeEvent,
		Schedule: NewEventSchedule(
			civil.Date{Year: 2024, Month: time.January, Day: 2},
			NewDayFilterDate(2, time.January, 2024),
			nil,
		),
	}
	if single.IsRecurring() {
		t.Fatalf("expected non-recurring item")
	}
	end, ok := single.OnlyOccEnd()
	if !ok {
		t.Fatalf("expected OnlyOccEnd to be present")
	}
	want := time.Date(2024, time.January, 2, 0, 0, 0, 0, time.UTC)
	if !end.Equal(want) {
		t.Fatalf("got %v, want %v", end, want)
	}
}
