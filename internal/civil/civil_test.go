package civil

import (
	"testing"
	"time"
)

func TestDaysInMonth(t *testing.T) {
	cases := []struct {
		year  int
		month time.Month
		want  int
	}{
		{2024, time.February, 29}, // leap year
		{2023, time.February, 28},
		{2024, time.April, 30},
		{2024, time.December, 31},
	}
	for _, c := range cases {
		if got := DaysInMonth(c.year, c.month); got != c.want {
			t.Errorf("DaysInMonth(%d, %s) = %d, want %d", c.year, c.month, got, c.want)
		}
	}
}

func TestWithDOMSaturating(t *testing.T) {
	got := WithDOMSaturating(Date{2024, time.February, 1}, 30)
	want := Date{2024, time.February, 29}
	if !got.Equal(want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestForwardsToDOW(t *testing.T) {
	// 2024-01-02 is a Tuesday.
	tue := Date{2024, time.January, 2}
	if got := ForwardsToDOW(tue, time.Tuesday); !got.Equal(tue) {
		t.Errorf("expected unchanged date when already matching, got %v", got)
	}
	fri := ForwardsToDOW(tue, time.Friday)
	want := Date{2024, time.January, 5}
	if !fri.Equal(want) {
		t.Errorf("got %v, want %v", fri, want)
	}
}

func TestAddMonthsSaturating(t *testing.T) {
	// Jan 31 + 1 month -> Feb 29 (2024 is a leap year).
	got := AddMonths(Date{2024, time.January, 31}, 1)
	want := Date{2024, time.February, 29}
	if !got.Equal(want) {
		t.Errorf("got %v, want %v", got, want)
	}

	// Crossing a year boundary backwards.
	got = AddMonths(Date{2024, time.January, 15}, -2)
	want = Date{2023, time.November, 15}
	if !got.Equal(want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestAddMonthsSequenceFromS2(t *testing.T) {
	d := Date{2024, time.January, 31}
	want := []Date{
		{2024, time.January, 31},
		{2024, time.February, 29},
		{2024, time.March, 31},
		{2024, time.April, 30},
	}
	for i, w := range want {
		got := WithDOMSaturating(AddMonths(d, i), 31)
		if !got.Equal(w) {
			t.Errorf("step %d: got %v, want %v", i, got, w)
		}
	}
}

func TestCompare(t *testing.T) {
	a := Date{2024, time.January, 1}
	b := Date{2024, time.January, 2}
	if !a.Before(b) || b.Before(a) {
		t.Fatalf("comparison failed")
	}
	if !a.Equal(a) {
		t.Fatalf("date should equal itself")
	}
}
