package schediter

import (
	"time"

	"github.com/rezkam/keepup/internal/civil"
	"github.com/rezkam/keepup/internal/domain"
)

// Period is a half-open [Start, End) date range.
type Period struct {
	Start civil.Date
	End   civil.Date
}

// PeriodIter produces contiguous half-open period pairs matching a
// domain.PeriodRule. The first pair includes startDay (Start <= startDay <
// End); every subsequent pair's Start equals the previous pair's End.
type PeriodIter struct {
	rule     domain.PeriodRule
	started  bool
	nextStart civil.Date
	startDay civil.Date
}

// NewPeriodIter constructs an iterator over rule, anchored at startDay. The
// first Next() aligns startDay backwards to the rule's period boundary, so
// Start <= startDay < End for the very first period.
func NewPeriodIter(rule domain.PeriodRule, startDay civil.Date) *PeriodIter {
	return &PeriodIter{rule: rule, startDay: startDay}
}

// NewPeriodIterAt constructs an iterator whose first Next() begins exactly
// at start, with no backwards alignment. Use this to resume generation from
// an already-persisted period boundary (e.g. a task's GenerateAfter): the
// backwards alignment NewPeriodIter performs is only correct for an item's
// very first period, and re-running it from last.End can walk past a
// saturating month/year boundary back onto an already-emitted period.
func NewPeriodIterAt(rule domain.PeriodRule, start civil.Date) *PeriodIter {
	return &PeriodIter{rule: rule, started: true, nextStart: start}
}

// Next returns the next period, or ok=false once the calendar saturates.
func (it *PeriodIter) Next() (Period, bool) {
	start := it.startDay
	if it.started {
		start = it.nextStart
	} else {
		start = it.alignFirstStart()
	}
	end := it.periodEnd(start)
	if !end.After(start) {
		// civil.MaxDate saturation collapsed the span: stop rather than
		// loop forever re-emitting a zero-width period.
		return Period{}, false
	}
	it.started = true
	it.nextStart = end
	return Period{Start: start, End: end}, true
}

// alignFirstStart computes the Start of the first period so that
// Start <= startDay < End, per rule's alignment.
func (it *PeriodIter) alignFirstStart() civil.Date {
	switch it.rule.Kind {
	case domain.PeriodDays:
		return it.startDay
	case domain.PeriodWeeks:
		return alignWeekBackwards(it.startDay, it.rule.StartWeekday)
	case domain.PeriodMonths:
		return alignMonthBackwards(it.startDay, it.rule.StartDom)
	case domain.PeriodYears:
		return alignYearBackwards(it.startDay, it.rule.StartMonth, it.rule.StartDom)
	default:
		return it.startDay
	}
}

func (it *PeriodIter) periodEnd(start civil.Date) civil.Date {
	switch it.rule.Kind {
	case domain.PeriodDays:
		return civil.AddDays(start, it.rule.Num)
	case domain.PeriodWeeks:
		return civil.AddDays(start, 7*it.rule.Num)
	case domain.PeriodMonths:
		return civil.AddMonths(start, it.rule.Num)
	case domain.PeriodYears:
		return civil.AddMonths(start, 12*it.rule.Num)
	default:
		return start
	}
}

// alignWeekBackwards returns the nearest date <= day whose weekday is dow.
func alignWeekBackwards(day civil.Date, dow time.Weekday) civil.Date {
	cur := day
	for i := 0; i < 7; i++ {
		if cur.Weekday() == dow {
			return cur
		}
		cur = civil.AddDays(cur, -1)
	}
	return cur
}

// alignMonthBackwards returns day's month's dom-th day if day's
// day-of-month >= dom, else the previous month's dom-th day (saturated).
func alignMonthBackwards(day civil.Date, dom int) civil.Date {
	if day.Day < dom {
		return civil.WithDOMSaturating(civil.AddMonths(day, -1), dom)
	}
	return civil.WithDOMSaturating(day, dom)
}

// alignYearBackwards is alignMonthBackwards generalised to an (month, dom)
// anchor within the year.
func alignYearBackwards(day civil.Date, startMonth time.Month, startDom int) civil.Date {
	anchorThisYear := civil.WithMonthDOMSaturating(civil.Date{Year: day.Year, Month: startMonth}, startMonth, startDom)
	if !anchorThisYear.After(day) {
		return anchorThisYear
	}
	return civil.WithMonthDOMSaturating(civil.Date{Year: day.Year - 1, Month: startMonth}, startMonth, startDom)
}
