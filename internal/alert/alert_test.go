package alert

import (
	"testing"
	"time"

	"github.com/rezkam/keepup/internal/domain"
)

func TestInAlertPeriod(t *testing.T) {
	end := time.Date(2024, time.January, 10, 12, 0, 0, 0, time.UTC)
	occ := domain.Occurrence{End: end}
	hour := time.Hour
	cfg := domain.ResolvedConfig{Resolved: domain.Config{OccAlert: &hour}}

	cases := []struct {
		name string
		now  time.Time
		want bool
	}{
		{"before window", end.Add(-2 * time.Hour), false},
		{"at window start", end.Add(-time.Hour), true},
		{"inside window", end.Add(-30 * time.Minute), true},
		{"at end, excluded", end, false},
		{"after end", end.Add(time.Minute), false},
	}
	for _, c := range cases {
		if got := InAlertPeriod(occ, cfg, c.now); got != c.want {
			t.Errorf("%s: got %v, want %v", c.name, got, c.want)
		}
	}
}

func TestInAlertPeriodUnsetIsEmptyWindow(t *testing.T) {
	end := time.Date(2024, time.January, 10, 12, 0, 0, 0, time.UTC)
	occ := domain.Occurrence{End: end}
	cfg := domain.ResolvedConfig{}
	if InAlertPeriod(occ, cfg, end.Add(-time.Nanosecond)) {
		t.Error("expected no alert period when occ_alert is unset")
	}
}
