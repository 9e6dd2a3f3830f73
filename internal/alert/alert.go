// Package alert implements the stateless alert-window predicate: whether an
// occurrence is currently due for an alert given its resolved config.
package alert

import (
	"time"

	"github.com/rezkam/keepup/internal/domain"
)

// InAlertPeriod reports whether now falls within [occ.End - cfg.occ_alert,
// occ.End). An absent occ_alert resolves to zero, yielding an empty window.
func InAlertPeriod(occ domain.Occurrence, cfg domain.ResolvedConfig, now time.Time) bool {
	windowStart := occ.End.Add(-cfg.EffectiveOccAlert())
	return !now.Before(windowStart) && now.Before(occ.End)
}
