package domain

import (
	"testing"
	"time"
)

func TestNewDurationRoundTrip(t *testing.T) {
	cases := []struct {
		in   string
		want time.Duration
	}{
		{"PT1H", time.Hour},
		{"PT30M", 30 * time.Minute},
		{"PT1H30M", time.Hour + 30*time.Minute},
		{"PT1H30M15S", time.Hour + 30*time.Minute + 15*time.Second},
	}
	for _, c := range cases {
		d, err := NewDuration(c.in)
		if err != nil {
			t.Fatalf("NewDuration(%q): %v", c.in, err)
		}
		if d.Value() != c.want {
			t.Errorf("NewDuration(%q).Value() = %v, want %v", c.in, d.Value(), c.want)
		}
		if got := FormatDurationISO8601(d.Value()); got != c.in {
			t.Errorf("FormatDurationISO8601(%v) = %q, want %q", d.Value(), got, c.in)
		}
	}
}

func TestNewDurationRejectsGarbage(t *testing.T) {
	for _, in := range []string{"", "1H", "PT", "PTX"} {
		if _, err := NewDuration(in); err == nil {
			t.Errorf("expected error for %q", in)
		}
	}
}
