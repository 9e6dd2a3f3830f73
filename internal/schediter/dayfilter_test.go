package schediter

import (
	"testing"
	"time"

	"github.com/rezkam/keepup/internal/civil"
	"github.com/rezkam/keepup/internal/domain"
)

func dateOf(y int, m time.Month, d int) civil.Date { return civil.Date{Year: y, Month: m, Day: d} }

// S2 — Month-end saturation.
func TestDayFilterIterDomSaturation(t *testing.T) {
	filter := domain.NewDayFilterDom([]int{31}, 1)
	it := NewDayFilterIter(filter, dateOf(2024, time.January, 1))

	want := []civil.Date{
		dateOf(2024, time.January, 31),
		dateOf(2024, time.February, 29),
		dateOf(2024, time.March, 31),
		dateOf(2024, time.April, 30),
	}
	for i, w := range want {
		got, ok := it.Next()
		if !ok {
			t.Fatalf("step %d: iterator exhausted early", i)
		}
		if !got.Equal(w) {
			t.Errorf("step %d: got %v, want %v", i, got, w)
		}
	}
}

func TestDayFilterIterDowBiweekly(t *testing.T) {
	// S1 setup: every other Tuesday from 2024-01-02.
	filter := domain.NewDayFilterDow(time.Tuesday, 2)
	it := NewDayFilterIter(filter, dateOf(2024, time.January, 2))

	want := []civil.Date{
		dateOf(2024, time.January, 2),
		dateOf(2024, time.January, 16),
		dateOf(2024, time.January, 30),
	}
	for i, w := range want {
		got, ok := it.Next()
		if !ok || !got.Equal(w) {
			t.Fatalf("step %d: got %v ok=%v, want %v", i, got, ok, w)
		}
	}
}

func TestDayFilterIterDowsEmpty(t *testing.T) {
	it := NewDayFilterIter(domain.NewDayFilterDows(nil), dateOf(2024, time.January, 1))
	if _, ok := it.Next(); ok {
		t.Fatalf("expected empty iterator for empty Dows")
	}
}

func TestDayFilterIterStrictlyAscendingNeverBeforeStart(t *testing.T) {
	start := dateOf(2024, time.March, 15)
	filter := domain.NewDayFilterDows([]time.Weekday{time.Monday, time.Thursday})
	it := NewDayFilterIter(filter, start)

	var prev *civil.Date
	for i := 0; i < 50; i++ {
		d, ok := it.Next()
		if !ok {
			break
		}
		if d.Before(start) {
			t.Fatalf("yielded date %v before start %v", d, start)
		}
		if prev != nil && !d.After(*prev) {
			t.Fatalf("dates not strictly ascending: %v then %v", *prev, d)
		}
		prev = &d
	}
}

func TestDayFilterIterDate(t *testing.T) {
	filter := domain.NewDayFilterDate(2, time.January, 2024)
	before := NewDayFilterIter(filter, dateOf(2024, time.January, 1))
	if got, ok := before.Next(); !ok || !got.Equal(dateOf(2024, time.January, 2)) {
		t.Fatalf("got %v ok=%v", got, ok)
	}

	after := NewDayFilterIter(filter, dateOf(2024, time.January, 2))
	if _, ok := after.Next(); ok {
		t.Fatalf("expected empty when start_day already at or past the fixed date")
	}
}

func TestDayFilterIterWom(t *testing.T) {
	// 2nd and 4th Tuesday, every month.
	filter := domain.NewDayFilterWom(time.Tuesday, []int{2, 4}, 1)
	it := NewDayFilterIter(filter, dateOf(2024, time.January, 1))

	got1, _ := it.Next()
	got2, _ := it.Next()
	if !got1.Equal(dateOf(2024, time.January, 9)) {
		t.Errorf("got %v, want 2nd Tuesday of Jan 2024 (9th)", got1)
	}
	if !got2.Equal(dateOf(2024, time.January, 23)) {
		t.Errorf("got %v, want 4th Tuesday of Jan 2024 (23rd)", got2)
	}
}
